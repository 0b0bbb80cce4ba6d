package commands

import (
	"errors"

	"github.com/spf13/cobra"

	intconfig "github.com/leapstack-labs/leapsite/internal/config"
	"github.com/leapstack-labs/leapsite/internal/devserver"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the built output",
		Long: `Serve the output directories without building or watching.

Paths are looked up in the public directory first, then in public/views.
Live reload clients connect, but nothing triggers a reload.`,
		Example: `  leapsite serve --port 8080`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			cfg := GetConfig(cmd.Context())
			if cfg == nil {
				return errors.New("configuration not loaded")
			}
			r := GetRenderer(cmd.Context())
			logger := GetLogger(cmd.Context())

			paths, err := intconfig.ResolvePaths(cfg.ProjectRoot, cfg.Layout)
			if err != nil {
				return err
			}

			server := devserver.New(devserver.Config{
				Host:         cfg.Server.Host,
				Port:         cfg.Server.Port,
				PortAttempts: cfg.Server.PortAttempts,
				Roots:        []string{paths.Public, paths.ViewOut},
				LiveReload:   cfg.Server.LiveReload,
				Logger:       logger.With("component", "devserver"),
			})
			ln, err := server.Listen()
			if err != nil {
				return err
			}
			r.Success("Serving at " + server.URL())
			r.Muted("Press Ctrl+C to stop.")

			return server.Serve(ctx, ln)
		},
	}

	cmd.Flags().Int("port", devserver.DefaultPort, "Port to serve on")
	cmd.Flags().Bool("no-livereload", false, "Disable live reload")

	return cmd
}
