package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"reel/internal/catalog"
	"reel/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show configuration, catalog and tool status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(app *application) error {
				out := cmd.OutOrStdout()
				colorize := isTerminal(out)
				var lines []string

				lines = append(lines, renderSectionHeader("Configuration", colorize)...)
				lines = append(lines,
					renderStatusLine("Config", statusInfo, ctx.configPath, colorize),
					renderStatusLine("Storage root", statusInfo, app.cfg.Paths.StorageRoot, colorize),
					renderStatusLine("Catalog", statusInfo, app.store.Path(), colorize),
				)

				lines = append(lines, "")
				lines = append(lines, renderSectionHeader("Catalog", colorize)...)
				lines = append(lines, schemaLine(app.store, colorize))
				all, err := app.store.ListFootage(cmd.Context(), catalog.LoggedAny)
				if err != nil {
					return err
				}
				var logged, previews, stale int
				for _, item := range all {
					if item.Logged {
						logged++
					}
					if item.HasPreview() {
						previews++
					}
					if item.ContentHash == "" {
						stale++
					}
				}
				lines = append(lines,
					renderStatusLine("Footage", statusInfo, fmt.Sprintf("%d total, %d logged", len(all), logged), colorize),
					renderStatusLine("Previews", statusInfo, fmt.Sprintf("%d stored", previews), colorize),
				)
				if stale > 0 {
					lines = append(lines, renderStatusLine("Unreconciled", statusWarn, fmt.Sprintf("%d items (run reel reconcile --all)", stale), colorize))
				}

				lines = append(lines, "")
				lines = append(lines, renderSectionHeader("Checks", colorize)...)
				results := preflight.RunAll(cmd.Context(), app.cfg)
				lines = append(lines, checkLines(results, colorize)...)
				for _, result := range results {
					if result.Version != "" {
						lines = append(lines, renderStatusLine(result.Name+" version", statusInfo, result.Version, colorize))
					}
				}

				fmt.Fprintln(out, strings.Join(lines, "\n"))
				return nil
			})
		},
	}
}

func schemaLine(store *catalog.Store, colorize bool) string {
	status, err := store.SchemaStatus()
	if err != nil {
		return renderStatusLine("Schema", statusError, err.Error(), colorize)
	}
	if !status.UpToDate() {
		return renderStatusLine("Schema", statusWarn, fmt.Sprintf("version %d of %d (dirty=%t)", status.Current, status.Latest, status.Dirty), colorize)
	}
	return renderStatusLine("Schema", statusOK, fmt.Sprintf("version %d", status.Current), colorize)
}
