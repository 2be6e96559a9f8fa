package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"reel/internal/logging"
	"reel/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool
	var footageID int64

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Print recent log lines, optionally for one footage item",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := logging.FilePath(cfg)
			if path == "" {
				return errors.New("paths.log_dir is not set")
			}
			opts := logs.TailOptions{Offset: -1, Limit: lines}
			if footageID > 0 {
				opts.Match = logs.FootageFilter(footageID)
			}
			out := cmd.OutOrStdout()
			for {
				result, err := logs.Tail(cmd.Context(), path, opts)
				if err != nil {
					if follow && errors.Is(err, context.Canceled) {
						return nil
					}
					return err
				}
				if len(result.Lines) > 0 {
					fmt.Fprintln(out, strings.Join(result.Lines, "\n"))
				}
				if !follow {
					return nil
				}
				opts.Offset = result.Offset
				opts.Follow = true
				opts.Wait = 5 * time.Second
			}
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of recent lines to print")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines until interrupted")
	cmd.Flags().Int64Var(&footageID, "footage", 0, "Only lines for this footage ID")
	return cmd
}
