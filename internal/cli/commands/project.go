package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/leapstack-labs/leapsite/internal/cli/config"
	"github.com/leapstack-labs/leapsite/internal/cli/output"
	intconfig "github.com/leapstack-labs/leapsite/internal/config"
	"github.com/leapstack-labs/leapsite/internal/devloop"
	"github.com/leapstack-labs/leapsite/internal/devserver"
	"github.com/leapstack-labs/leapsite/internal/pipeline"
	"github.com/leapstack-labs/leapsite/internal/state"
	"github.com/leapstack-labs/leapsite/pkg/core"
)

// project bundles what a building command needs.
type project struct {
	cfg          *config.Config
	build        *core.BuildConfig
	orchestrator *pipeline.Orchestrator
	store        *state.SQLiteStore
	renderer     *output.Renderer
	logger       *slog.Logger
}

// openProject declares the build and wires the orchestrator. History is
// best effort: a store that fails to open is logged and skipped.
func openProject(ctx context.Context) (*project, error) {
	cfg := GetConfig(ctx)
	if cfg == nil {
		return nil, errors.New("configuration not loaded")
	}
	if err := cfg.ValidateDirectories(); err != nil {
		return nil, err
	}
	logger := GetLogger(ctx)
	r := GetRenderer(ctx)

	build, err := intconfig.Declare(cfg.ProjectRoot, cfg.Layout)
	if err != nil {
		return nil, err
	}

	p := &project{cfg: cfg, build: build, renderer: r, logger: logger}

	var recorder core.Store
	if cfg.StatePath != "" {
		store, err := state.Open(cfg.StatePath, logger.With("component", "state"))
		if err != nil {
			logger.Warn("build history disabled", "path", cfg.StatePath, "error", err)
		} else {
			p.store = store
			recorder = store
		}
	}

	p.orchestrator, err = pipeline.New(pipeline.Config{
		Build:    build,
		Observer: newProgressObserver(r),
		Recorder: recorder,
		Logger:   logger,
	})
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	return p, nil
}

// attachDevLoop wires the server and watcher behind the orchestrator.
func (p *project) attachDevLoop() error {
	loop, err := devloop.New(p.build, p.orchestrator, devloop.Options{
		Server:   p.serverConfig(),
		Debounce: p.cfg.Watch.Debounce,
		Open:     p.cfg.Server.Open,
		OnListen: func(url string) {
			p.renderer.Success("Serving at " + url)
			p.renderer.Muted("Watching for changes. Press Ctrl+C to stop.")
		},
		OnResult: newWatchReporter(p.renderer),
	}, p.logger)
	if err != nil {
		return err
	}
	p.orchestrator.SetDevLoop(loop)
	return nil
}

func (p *project) serverConfig() devserver.Config {
	return devserver.Config{
		Host:         p.cfg.Server.Host,
		Port:         p.cfg.Server.Port,
		PortAttempts: p.cfg.Server.PortAttempts,
		Roots:        p.build.ServeRoots,
		LiveReload:   p.cfg.Server.LiveReload,
		Logger:       p.logger.With("component", "devserver"),
	}
}

// Close releases the history store.
func (p *project) Close() error {
	if p.store != nil {
		return p.store.Close()
	}
	return nil
}

// done prints the outcome of a successful pipeline or task list.
func (p *project) done(label string, start time.Time) {
	p.renderer.Success(fmt.Sprintf("%s completed in %s", label, time.Since(start).Round(time.Millisecond)))
}
