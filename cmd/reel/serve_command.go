package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"reel/internal/httpapi"
	"reel/internal/logging"
	"reel/internal/preflight"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve footage previews and catalog state over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(app *application) error {
				if cmd.Flags().Changed("bind") {
					app.cfg.Server.Bind = bind
				}
				if err := preflight.FirstFailure(preflight.RunAll(cmd.Context(), app.cfg)); err != nil {
					logging.WarnWithContext(app.logger, "reconcile over HTTP will fail until tools are available", "preflight_failed",
						logging.Error(err),
						logging.String(logging.FieldImpact, "previews already stored are still served"),
					)
				}
				server := httpapi.New(app.cfg, app.store, app.manager, app.metrics, app.logger)
				if err := server.Start(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Serving on http://%s\n", server.Addr())
				<-cmd.Context().Done()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&bind, "bind", "", "Listen address (overrides server.bind)")
	return cmd
}
