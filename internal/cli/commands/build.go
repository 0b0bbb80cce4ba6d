package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapsite/internal/devserver"
	"github.com/leapstack-labs/leapsite/pkg/core"
)

// signalContext cancels on Ctrl+C or SIGTERM.
func signalContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

// NewBuildProdCommand creates the build:prod command.
func NewBuildProdCommand() *cobra.Command {
	return &cobra.Command{
		Use:   core.PipelineProd,
		Short: "Build all assets for production",
		Long: `Run the production pipeline: clean the output directory, lint, bundle
and minify scripts, compile, minify and prefix stylesheets, then render views.

The build stops at the first failing task and exits non-zero.`,
		Example: `  leapsite build:prod`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			p, err := openProject(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = p.Close() }()

			start := time.Now()
			p.renderer.Header(1, "Building "+core.PipelineProd)
			if err := p.orchestrator.Execute(ctx, core.PipelineProd); err != nil {
				return err
			}
			p.done(core.PipelineProd, start)
			return nil
		},
	}
}

// NewBuildDevCommand creates the build:dev command.
func NewBuildDevCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   core.PipelineDev,
		Short: "Build, serve and rebuild on change",
		Long: `Run the development pipeline, then serve the output with live reload
and re-run the affected tasks whenever a source file changes.

If the port is taken the next free port is used.`,
		Example: `  # Build and serve on the default port
  leapsite build:dev

  # Serve on another port without opening a browser
  leapsite build:dev --port 8080 --no-open`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			p, err := openProject(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = p.Close() }()

			if err := p.attachDevLoop(); err != nil {
				return err
			}

			p.renderer.Header(1, "Building "+core.PipelineDev)
			if err := p.orchestrator.Execute(ctx, core.PipelineDev); err != nil {
				return err
			}
			p.renderer.Muted("Dev server stopped.")
			return nil
		},
	}

	cmd.Flags().Int("port", devserver.DefaultPort, "Port to serve on")
	cmd.Flags().Bool("no-open", false, "Do not open a browser")
	cmd.Flags().Bool("no-livereload", false, "Disable live reload")
	cmd.Flags().Duration("debounce", 0, "Quiet period before a change triggers a rebuild")

	return cmd
}
