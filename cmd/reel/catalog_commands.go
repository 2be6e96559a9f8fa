package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"reel/internal/catalog"
)

func newSceneCommand(ctx *commandContext) *cobra.Command {
	sceneCmd := &cobra.Command{
		Use:   "scene",
		Short: "Manage scenes",
	}

	var title, description string
	addCmd := &cobra.Command{
		Use:   "add <number>",
		Short: "Add a scene by script number",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			number, err := parsePositive("scene", args[0])
			if err != nil {
				return err
			}
			return ctx.withApp(func(app *application) error {
				if err := app.store.CreateScene(cmd.Context(), catalog.Scene{Number: number, Title: title, Description: description}); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added scene %d\n", number)
				return nil
			})
		},
	}
	addCmd.Flags().StringVar(&title, "title", "", "Scene title")
	addCmd.Flags().StringVar(&description, "description", "", "Scene description")

	var newTitle, newDescription string
	updateCmd := &cobra.Command{
		Use:   "update <number>",
		Short: "Edit a scene",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			number, err := parsePositive("scene", args[0])
			if err != nil {
				return err
			}
			return ctx.withApp(func(app *application) error {
				scene, err := app.store.GetScene(cmd.Context(), number)
				if err != nil {
					return err
				}
				if cmd.Flags().Changed("title") {
					scene.Title = newTitle
				}
				if cmd.Flags().Changed("description") {
					scene.Description = newDescription
				}
				if err := app.store.UpdateScene(cmd.Context(), *scene); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated scene %d\n", number)
				return nil
			})
		},
	}
	updateCmd.Flags().StringVar(&newTitle, "title", "", "Scene title")
	updateCmd.Flags().StringVar(&newDescription, "description", "", "Scene description")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List scenes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(app *application) error {
				scenes, err := app.store.ListScenes(cmd.Context())
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(scenes))
				for _, s := range scenes {
					rows = append(rows, []string{strconv.Itoa(s.Number), s.Title, s.Description})
				}
				writeTable(cmd.OutOrStdout(), []string{"Scene", "Title", "Description"}, rows, []columnAlignment{alignRight})
				return nil
			})
		},
	}

	removeCmd := &cobra.Command{
		Use:   "remove <number>",
		Short: "Remove a scene with its shots and takes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			number, err := parsePositive("scene", args[0])
			if err != nil {
				return err
			}
			return ctx.withApp(func(app *application) error {
				if err := app.store.DeleteScene(cmd.Context(), number); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed scene %d\n", number)
				return nil
			})
		},
	}

	sceneCmd.AddCommand(addCmd, updateCmd, listCmd, removeCmd)
	return sceneCmd
}

func newShotCommand(ctx *commandContext) *cobra.Command {
	shotCmd := &cobra.Command{
		Use:   "shot",
		Short: "Manage shots within scenes",
	}

	var description string
	addCmd := &cobra.Command{
		Use:   "add <scene> <shot>",
		Short: "Add a shot to a scene",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			scene, err := parsePositive("scene", args[0])
			if err != nil {
				return err
			}
			shot := catalog.Shot{Scene: scene, Name: strings.TrimSpace(args[1]), Description: description}
			return ctx.withApp(func(app *application) error {
				if err := app.store.CreateShot(cmd.Context(), shot); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added shot %d%s\n", shot.Scene, shot.Name)
				return nil
			})
		},
	}
	addCmd.Flags().StringVar(&description, "description", "", "Shot description")

	var newDescription string
	updateCmd := &cobra.Command{
		Use:   "update <scene> <shot>",
		Short: "Edit a shot",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			scene, err := parsePositive("scene", args[0])
			if err != nil {
				return err
			}
			return ctx.withApp(func(app *application) error {
				shot, err := app.store.GetShot(cmd.Context(), scene, strings.TrimSpace(args[1]))
				if err != nil {
					return err
				}
				shot.Description = newDescription
				if err := app.store.UpdateShot(cmd.Context(), *shot); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated shot %d%s\n", shot.Scene, shot.Name)
				return nil
			})
		},
	}
	updateCmd.Flags().StringVar(&newDescription, "description", "", "Shot description")

	listCmd := &cobra.Command{
		Use:   "list [scene]",
		Short: "List shots, optionally for one scene",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scene := 0
			if len(args) == 1 {
				n, err := parsePositive("scene", args[0])
				if err != nil {
					return err
				}
				scene = n
			}
			return ctx.withApp(func(app *application) error {
				shots, err := app.store.ListShots(cmd.Context(), scene)
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(shots))
				for _, s := range shots {
					rows = append(rows, []string{strconv.Itoa(s.Scene), s.Name, s.Description})
				}
				writeTable(cmd.OutOrStdout(), []string{"Scene", "Shot", "Description"}, rows, []columnAlignment{alignRight})
				return nil
			})
		},
	}

	removeCmd := &cobra.Command{
		Use:   "remove <scene> <shot>",
		Short: "Remove a shot with its takes",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			scene, err := parsePositive("scene", args[0])
			if err != nil {
				return err
			}
			return ctx.withApp(func(app *application) error {
				if err := app.store.DeleteShot(cmd.Context(), scene, strings.TrimSpace(args[1])); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed shot %d%s\n", scene, strings.TrimSpace(args[1]))
				return nil
			})
		},
	}

	shotCmd.AddCommand(addCmd, updateCmd, listCmd, removeCmd)
	return shotCmd
}

type takeFlags struct {
	markedScene int
	markedShot  string
	markedTake  int
	rating      int
	notes       string
}

func (f *takeFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.markedScene, "marked-scene", 0, "Scene number as slated")
	cmd.Flags().StringVar(&f.markedShot, "marked-shot", "", "Shot name as slated")
	cmd.Flags().IntVar(&f.markedTake, "marked-take", 0, "Take number as slated")
	cmd.Flags().IntVar(&f.rating, "rating", 0, "Take rating")
	cmd.Flags().StringVar(&f.notes, "notes", "", "Take notes")
}

// apply copies the flags the user set onto take.
func (f *takeFlags) apply(cmd *cobra.Command, take *catalog.Take) {
	if cmd.Flags().Changed("marked-scene") {
		take.MarkedScene = f.markedScene
	}
	if cmd.Flags().Changed("marked-shot") {
		take.MarkedShot = f.markedShot
	}
	if cmd.Flags().Changed("marked-take") {
		take.MarkedTake = f.markedTake
	}
	if cmd.Flags().Changed("rating") {
		take.Rating = f.rating
	}
	if cmd.Flags().Changed("notes") {
		take.Notes = f.notes
	}
}

func newTakeCommand(ctx *commandContext) *cobra.Command {
	takeCmd := &cobra.Command{
		Use:   "take",
		Short: "Manage takes",
	}

	var addFlags takeFlags
	addCmd := &cobra.Command{
		Use:   "add <scene> <shot> <take>",
		Short: "Add a take; unset marked fields default to the true identity",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parseTakeKey(args)
			if err != nil {
				return err
			}
			take := catalog.Take{TakeKey: key}
			addFlags.apply(cmd, &take)
			return ctx.withApp(func(app *application) error {
				created, err := app.store.CreateTake(cmd.Context(), take)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added take %d%s%d (marked %d%s%d)\n",
					created.Scene, created.Shot, created.TakeNo,
					created.MarkedScene, created.MarkedShot, created.MarkedTake)
				return nil
			})
		},
	}
	addFlags.register(addCmd)

	var updateFlags takeFlags
	updateCmd := &cobra.Command{
		Use:   "update <scene> <shot> <take>",
		Short: "Edit a take's rating, notes or marked identity",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parseTakeKey(args)
			if err != nil {
				return err
			}
			return ctx.withApp(func(app *application) error {
				take, err := app.store.GetTake(cmd.Context(), key)
				if err != nil {
					return err
				}
				updateFlags.apply(cmd, take)
				if err := app.store.UpdateTake(cmd.Context(), *take); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated take %d%s%d\n", key.Scene, key.Shot, key.TakeNo)
				return nil
			})
		},
	}
	updateFlags.register(updateCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List takes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(app *application) error {
				takes, err := app.store.ListTakes(cmd.Context())
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(takes))
				for _, t := range takes {
					rows = append(rows, []string{
						strconv.Itoa(t.Scene), t.Shot, strconv.Itoa(t.TakeNo),
						fmt.Sprintf("%d%s%d", t.MarkedScene, t.MarkedShot, t.MarkedTake),
						strconv.Itoa(t.Rating), t.Notes,
					})
				}
				writeTable(cmd.OutOrStdout(),
					[]string{"Scene", "Shot", "Take", "Marked", "Rating", "Notes"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft, alignRight},
				)
				return nil
			})
		},
	}

	removeCmd := &cobra.Command{
		Use:   "remove <scene> <shot> <take>",
		Short: "Remove a take",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parseTakeKey(args)
			if err != nil {
				return err
			}
			return ctx.withApp(func(app *application) error {
				if err := app.store.DeleteTake(cmd.Context(), key); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed take %d%s%d\n", key.Scene, key.Shot, key.TakeNo)
				return nil
			})
		},
	}

	takeCmd.AddCommand(addCmd, updateCmd, listCmd, removeCmd)
	return takeCmd
}

func newLinkCommand(ctx *commandContext) *cobra.Command {
	var start time.Duration

	cmd := &cobra.Command{
		Use:   "link <footage-id> <scene> <shot> <take>",
		Short: "Link footage to a take, creating the shot and take if needed",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseFootageID(args[0])
			if err != nil {
				return err
			}
			key, err := parseTakeKey(args[1:])
			if err != nil {
				return err
			}
			if start < 0 {
				return errors.New("--start must not be negative")
			}
			return ctx.withApp(func(app *application) error {
				if _, err := app.store.EnsureTake(cmd.Context(), key); err != nil {
					return err
				}
				if err := app.store.LinkTake(cmd.Context(), catalog.FootageTake{FootageID: id, TakeKey: key, StartTime: start}); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Linked #%d to take %d%s%d\n", id, key.Scene, key.Shot, key.TakeNo)
				return nil
			})
		},
	}
	cmd.Flags().DurationVar(&start, "start", 0, "Offset into the footage where the take starts")
	return cmd
}

func newUnlinkCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "unlink <footage-id> <scene> <shot> <take>",
		Short: "Remove a footage-take link",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseFootageID(args[0])
			if err != nil {
				return err
			}
			key, err := parseTakeKey(args[1:])
			if err != nil {
				return err
			}
			return ctx.withApp(func(app *application) error {
				if err := app.store.UnlinkTake(cmd.Context(), id, key); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Unlinked #%d from take %d%s%d\n", id, key.Scene, key.Shot, key.TakeNo)
				return nil
			})
		},
	}
}

func newCommentCommand(ctx *commandContext) *cobra.Command {
	commentCmd := &cobra.Command{
		Use:   "comment",
		Short: "Manage timestamped footage comments",
	}

	var at time.Duration
	addCmd := &cobra.Command{
		Use:   "add <footage-id> <text>",
		Short: "Add a comment",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseFootageID(args[0])
			if err != nil {
				return err
			}
			comment := &catalog.Comment{FootageID: id, Time: at, Body: strings.Join(args[1:], " ")}
			return ctx.withApp(func(app *application) error {
				if err := app.store.AddComment(cmd.Context(), comment); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added comment %d on #%d\n", comment.ID, id)
				return nil
			})
		},
	}
	addCmd.Flags().DurationVar(&at, "at", 0, "Position in the footage")

	listCmd := &cobra.Command{
		Use:   "list <footage-id>",
		Short: "List comments on footage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseFootageID(args[0])
			if err != nil {
				return err
			}
			return ctx.withApp(func(app *application) error {
				comments, err := app.store.ListComments(cmd.Context(), id)
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(comments))
				for _, c := range comments {
					rows = append(rows, []string{strconv.FormatInt(c.ID, 10), formatLength(c.Time), c.Body})
				}
				writeTable(cmd.OutOrStdout(), []string{"ID", "At", "Comment"}, rows, []columnAlignment{alignRight, alignRight})
				return nil
			})
		},
	}

	removeCmd := &cobra.Command{
		Use:   "remove <comment-id>",
		Short: "Remove a comment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(strings.TrimSpace(args[0]), 10, 64)
			if err != nil {
				return fmt.Errorf("invalid comment id %q", args[0])
			}
			return ctx.withApp(func(app *application) error {
				if err := app.store.DeleteComment(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed comment %d\n", id)
				return nil
			})
		},
	}

	commentCmd.AddCommand(addCmd, listCmd, removeCmd)
	return commentCmd
}
