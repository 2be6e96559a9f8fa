package main

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"reel/internal/config"
	"reel/internal/preflight"
	"reel/internal/watch"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var dir string
	var removeSource bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Ingest files dropped into a directory once they stop changing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(app *application) error {
				target := app.cfg.Watch.Dir
				if cmd.Flags().Changed("dir") {
					expanded, err := config.ExpandPath(dir)
					if err != nil {
						return err
					}
					target = expanded
				}
				if strings.TrimSpace(target) == "" {
					return errors.New("no drop directory; set watch.dir or pass --dir")
				}
				if err := watch.ValidateDir(target, app.cfg.FootageRoot(), app.cfg.PreviewDir()); err != nil {
					return err
				}
				remove := app.cfg.Watch.RemoveSource
				if cmd.Flags().Changed("remove-source") {
					remove = removeSource
				}
				if err := preflight.FirstFailure(preflight.RunAll(cmd.Context(), app.cfg)); err != nil {
					return err
				}
				w := watch.New(target, app.cfg.WatchSettle(), remove, app.manager, app.logger)
				return w.Run(cmd.Context())
			})
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "Drop directory (overrides watch.dir)")
	cmd.Flags().BoolVar(&removeSource, "remove-source", false, "Delete dropped files after ingestion")
	return cmd
}
