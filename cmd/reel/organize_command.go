package main

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"reel/internal/catalog"
	"reel/internal/config"
	"reel/internal/organizer"
)

type formatFlags struct {
	includeUID      bool
	includeHash     bool
	includeOriginal bool
	includeTake     bool
	includeRating   string
	useRating       string
	baseTakesOn     string
	multipleTakes   string
	sortFoldersBy   string
	onlyLogged      bool
	onlyUsedDirs    bool
}

func (f *formatFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.BoolVar(&f.includeUID, "include-uid", false, "Include the footage ID in file names")
	flags.BoolVar(&f.includeHash, "include-hash", false, "Include the content hash in file names")
	flags.BoolVar(&f.includeOriginal, "include-original-filename", false, "Include the original file name")
	flags.BoolVar(&f.includeTake, "include-take", false, "Include scene, shot and take in file names")
	flags.StringVar(&f.includeRating, "include-rating", "", "Rating in file names: no, number or symbol")
	flags.StringVar(&f.useRating, "use-rating", "", "Rating source: average or max")
	flags.StringVar(&f.baseTakesOn, "base-takes-on", "", "Take identity: true_take or marked_take_first")
	flags.StringVar(&f.multipleTakes, "for-multiple-takes-use", "", "Take selection: first, last or median")
	flags.StringVar(&f.sortFoldersBy, "sort-folders-by", "", "Folders: none, scene, scene_shot or scene_shot_take")
	flags.BoolVar(&f.onlyLogged, "only-logged", false, "Only organize logged footage")
	flags.BoolVar(&f.onlyUsedDirs, "only-used-directories", false, "Do not pre-create directories for every scene, shot and take")
}

// apply overlays the flags the user set on the configured format.
func (f *formatFlags) apply(cmd *cobra.Command, format config.Format) config.Format {
	changed := cmd.Flags().Changed
	if changed("include-uid") {
		format.IncludeUID = f.includeUID
	}
	if changed("include-hash") {
		format.IncludeHash = f.includeHash
	}
	if changed("include-original-filename") {
		format.IncludeOriginalFilename = f.includeOriginal
	}
	if changed("include-take") {
		format.IncludeTakeInFilename = f.includeTake
	}
	if changed("include-rating") {
		format.IncludeRating = f.includeRating
	}
	if changed("use-rating") {
		format.UseRating = f.useRating
	}
	if changed("base-takes-on") {
		format.BaseTakesOn = f.baseTakesOn
	}
	if changed("for-multiple-takes-use") {
		format.ForMultipleTakesUse = f.multipleTakes
	}
	if changed("sort-folders-by") {
		format.SortFoldersBy = f.sortFoldersBy
	}
	if changed("only-logged") {
		format.OnlyLoggedFootage = f.onlyLogged
	}
	if changed("only-used-directories") {
		format.OnlyCreateUsedDirectories = f.onlyUsedDirs
	}
	return format
}

func newOrganizeCommand(ctx *commandContext) *cobra.Command {
	var flags formatFlags
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "organize [id...]",
		Short: "Rename and move footage into the folder layout given by the format policy",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(app *application) error {
				policy, err := organizer.PolicyFromConfig(flags.apply(cmd, app.cfg.Format))
				if err != nil {
					return err
				}

				var result organizer.Result
				if len(args) == 0 {
					result, err = app.organizer.Organize(cmd.Context(), policy)
				} else {
					items := make([]*catalog.Footage, 0, len(args))
					for _, arg := range args {
						id, err := parseFootageID(arg)
						if err != nil {
							return err
						}
						item, err := app.store.GetFootage(cmd.Context(), id)
						if err != nil {
							return err
						}
						items = append(items, item)
					}
					result, err = app.organizer.OrganizeFootage(cmd.Context(), items, policy)
				}
				if err != nil {
					return err
				}

				if asJSON {
					if err := writeJSON(cmd, organizeReport(result)); err != nil {
						return err
					}
				} else {
					renderOrganizeResult(cmd, app.cfg.FootageRoot(), result)
				}
				if result.Failed > 0 {
					return fmt.Errorf("%d footage items could not be organized", result.Failed)
				}
				return nil
			})
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

type organizeItemJSON struct {
	ID    int64  `json:"id"`
	From  string `json:"from"`
	To    string `json:"to,omitempty"`
	Moved bool   `json:"moved"`
	Kind  string `json:"kind"`
	Error string `json:"error,omitempty"`
}

type organizeJSON struct {
	Moved          int                `json:"moved"`
	Unchanged      int                `json:"unchanged"`
	Failed         int                `json:"failed"`
	Items          []organizeItemJSON `json:"items"`
	ScaffoldErrors []string           `json:"scaffold_errors,omitempty"`
}

func organizeReport(result organizer.Result) organizeJSON {
	report := organizeJSON{
		Moved:     result.Moved,
		Unchanged: result.Unchanged,
		Failed:    result.Failed,
		Items:     make([]organizeItemJSON, 0, len(result.Items)),
	}
	for _, item := range result.Items {
		entry := organizeItemJSON{ID: item.FootageID, From: item.From, To: item.To, Moved: item.Moved, Kind: item.Kind}
		if item.Err != nil {
			entry.Error = item.Err.Error()
		}
		report.Items = append(report.Items, entry)
	}
	for _, err := range result.ScaffoldErrors {
		report.ScaffoldErrors = append(report.ScaffoldErrors, err.Error())
	}
	return report
}

func renderOrganizeResult(cmd *cobra.Command, root string, result organizer.Result) {
	out := cmd.OutOrStdout()
	rows := make([][]string, 0, len(result.Items))
	for _, item := range result.Items {
		status := "unchanged"
		target := relativeTo(root, item.To)
		switch {
		case item.Err != nil:
			status = item.Kind
			target = item.Err.Error()
		case item.Moved:
			status = "moved"
		}
		rows = append(rows, []string{strconv.FormatInt(item.FootageID, 10), status, relativeTo(root, item.From), target})
	}
	if len(rows) > 0 {
		writeTable(out, []string{"ID", "Result", "From", "To"}, rows, []columnAlignment{alignRight})
	}
	for _, err := range result.ScaffoldErrors {
		fmt.Fprintf(out, "Warning: %v\n", err)
	}
	fmt.Fprintf(out, "Moved %d, unchanged %d, failed %d\n", result.Moved, result.Unchanged, result.Failed)
}

func relativeTo(root, path string) string {
	if path == "" {
		return ""
	}
	if rel, err := filepath.Rel(root, path); err == nil {
		return rel
	}
	return path
}
