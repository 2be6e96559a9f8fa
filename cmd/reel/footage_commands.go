package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"reel/internal/catalog"
	"reel/internal/config"
	"reel/internal/footage"
	"reel/internal/httpapi"
	"reel/internal/preflight"
	"reel/internal/services"
)

func newIngestCommand(ctx *commandContext) *cobra.Command {
	var removeSource bool

	cmd := &cobra.Command{
		Use:   "ingest <file>...",
		Short: "Copy files into the catalog and generate their previews",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(app *application) error {
				if err := preflight.FirstFailure(preflight.RunAll(cmd.Context(), app.cfg)); err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				failed := 0
				for _, arg := range args {
					source, err := config.ExpandPath(arg)
					if err != nil {
						return err
					}
					record, _, err := app.manager.Ingest(cmd.Context(), source, footage.IngestOptions{RemoveSource: removeSource})
					if err != nil {
						failed++
						fmt.Fprintf(out, "Failed %s (%s): %v\n", arg, services.Kind(err), err)
						continue
					}
					fmt.Fprintf(out, "Ingested #%d %s -> %s (%s, %s)\n",
						record.ID, arg, record.Path, streams(record), formatLength(record.Length))
				}
				if failed > 0 {
					return fmt.Errorf("%d of %d files failed to ingest", failed, len(args))
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&removeSource, "remove-source", false, "Delete each source file after it is stored")
	return cmd
}

func newReconcileCommand(ctx *commandContext) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "reconcile [id...]",
		Short: "Re-hash footage and refresh stream flags and previews when content changed",
		RunE: func(cmd *cobra.Command, args []string) error {
			if all == (len(args) > 0) {
				return errors.New("pass footage IDs or --all")
			}
			return ctx.withApp(func(app *application) error {
				if err := preflight.FirstFailure(preflight.RunAll(cmd.Context(), app.cfg)); err != nil {
					return err
				}
				ids := make([]int64, 0, len(args))
				if all {
					items, err := app.store.ListFootage(cmd.Context(), catalog.LoggedAny)
					if err != nil {
						return err
					}
					for _, item := range items {
						ids = append(ids, item.ID)
					}
				}
				for _, arg := range args {
					id, err := parseFootageID(arg)
					if err != nil {
						return err
					}
					ids = append(ids, id)
				}

				out := cmd.OutOrStdout()
				failed := 0
				for _, id := range ids {
					outcome, err := app.manager.Reconcile(cmd.Context(), id)
					switch {
					case err != nil:
						failed++
						fmt.Fprintf(out, "#%d failed (%s): %v\n", id, services.Kind(err), err)
					case outcome.Changed:
						fmt.Fprintf(out, "#%d updated %s\n", id, shortHash(outcome.Hash))
					default:
						fmt.Fprintf(out, "#%d unchanged\n", id)
					}
				}
				if failed > 0 {
					return fmt.Errorf("%d of %d footage items failed to reconcile", failed, len(ids))
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Reconcile every footage item")
	return cmd
}

func newListCommand(ctx *commandContext) *cobra.Command {
	var loggedOnly, unloggedOnly, asJSON bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List footage",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if loggedOnly && unloggedOnly {
				return errors.New("--logged and --unlogged are mutually exclusive")
			}
			filter := catalog.LoggedAny
			switch {
			case loggedOnly:
				filter = catalog.LoggedOnly
			case unloggedOnly:
				filter = catalog.UnloggedOnly
			}
			return ctx.withApp(func(app *application) error {
				items, err := app.store.ListFootage(cmd.Context(), filter)
				if err != nil {
					return err
				}
				if asJSON {
					views := make([]httpapi.FootageView, 0, len(items))
					for _, item := range items {
						views = append(views, httpapi.DescribeFootage(item, nil, nil))
					}
					return writeJSON(cmd, views)
				}
				if len(items) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No footage")
					return nil
				}
				rows := make([][]string, 0, len(items))
				for _, item := range items {
					rows = append(rows, []string{
						strconv.FormatInt(item.ID, 10),
						item.Filename(),
						formatLength(item.Length),
						streams(item),
						yesNo(item.Logged),
						yesNo(item.HasPreview()),
						shortHash(item.ContentHash),
					})
				}
				writeTable(cmd.OutOrStdout(),
					[]string{"ID", "File", "Length", "Streams", "Logged", "Preview", "Hash"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignRight},
				)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&loggedOnly, "logged", false, "Only logged footage")
	cmd.Flags().BoolVar(&unloggedOnly, "unlogged", false, "Only unlogged footage")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show footage details, linked takes and comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseFootageID(args[0])
			if err != nil {
				return err
			}
			return ctx.withApp(func(app *application) error {
				f, err := app.store.GetFootage(cmd.Context(), id)
				if err != nil {
					return err
				}
				takes, err := app.store.TakesForFootage(cmd.Context(), id)
				if err != nil {
					return err
				}
				comments, err := app.store.ListComments(cmd.Context(), id)
				if err != nil {
					return err
				}
				view := httpapi.DescribeFootage(f, takes, comments)
				if asJSON {
					return writeJSON(cmd, view)
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Footage #%d\n", f.ID)
				fmt.Fprintf(out, "  Path:      %s\n", f.Path)
				if f.OriginalFilename != "" {
					fmt.Fprintf(out, "  Original:  %s\n", f.OriginalFilename)
				}
				fmt.Fprintf(out, "  Length:    %s\n", formatLength(f.Length))
				fmt.Fprintf(out, "  Streams:   %s\n", streams(f))
				fmt.Fprintf(out, "  Logged:    %s\n", yesNo(f.Logged))
				fmt.Fprintf(out, "  Hash:      %s\n", f.ContentHash)
				if f.HasPreview() {
					fmt.Fprintf(out, "  Preview:   %s\n", app.previews.Path(f.Preview))
				}
				if strings.TrimSpace(f.Notes) != "" {
					fmt.Fprintf(out, "  Notes:     %s\n", f.Notes)
				}
				if len(takes) > 0 {
					fmt.Fprintln(out, "Takes:")
					for _, t := range takes {
						fmt.Fprintf(out, "  scene %d shot %s take %d (rating %d, starts %s)\n",
							t.Scene, t.Shot, t.TakeNo, t.Rating, formatLength(t.StartTime))
					}
				}
				if len(comments) > 0 {
					fmt.Fprintln(out, "Comments:")
					for _, c := range comments {
						fmt.Fprintf(out, "  [%d] %s %s\n", c.ID, formatLength(c.Time), c.Body)
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func newUpdateCommand(ctx *commandContext) *cobra.Command {
	var notes string
	var logged bool

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Edit footage notes or the logged flag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseFootageID(args[0])
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("notes") && !cmd.Flags().Changed("logged") {
				return errors.New("nothing to update; pass --notes or --logged")
			}
			return ctx.withApp(func(app *application) error {
				f, err := app.store.GetFootage(cmd.Context(), id)
				if err != nil {
					return err
				}
				if cmd.Flags().Changed("notes") {
					f.Notes = notes
				}
				if cmd.Flags().Changed("logged") {
					f.Logged = logged
				}
				if err := app.manager.UpdateDetails(cmd.Context(), id, f.Notes, f.Logged); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated #%d (logged: %s)\n", id, yesNo(f.Logged))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&notes, "notes", "", "Replace the footage notes")
	cmd.Flags().BoolVar(&logged, "logged", false, "Mark the footage as logged (--logged=false to clear)")
	return cmd
}

func newDeleteCommand(ctx *commandContext) *cobra.Command {
	var confirmed bool

	cmd := &cobra.Command{
		Use:     "delete <id>...",
		Aliases: []string{"rm"},
		Short:   "Delete footage records together with their files and unshared previews",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirmed {
				return errors.New("delete removes footage files from disk; rerun with --yes to confirm")
			}
			ids := make([]int64, 0, len(args))
			for _, arg := range args {
				id, err := parseFootageID(arg)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}
			return ctx.withApp(func(app *application) error {
				for _, id := range ids {
					if err := app.manager.Delete(cmd.Context(), id); err != nil {
						return fmt.Errorf("delete #%d: %w", id, err)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Deleted #%d\n", id)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&confirmed, "yes", "y", false, "Confirm deletion")
	return cmd
}
