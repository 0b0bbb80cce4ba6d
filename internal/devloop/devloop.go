// Package devloop serves the built output and rebuilds it as sources change.
package devloop

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/leapsite/internal/devserver"
	"github.com/leapstack-labs/leapsite/internal/watch"
	"github.com/leapstack-labs/leapsite/pkg/core"
)

// Options configures the dev loop.
type Options struct {
	Server devserver.Config
	// Debounce is the watcher quiet period. Defaults to watch.DefaultDebounce.
	Debounce time.Duration
	// Open launches a browser at the bound URL once the server listens.
	Open bool
	// OpenBrowser replaces devserver.OpenBrowser. Used by tests.
	OpenBrowser func(url string) error
	// OnListen is called with the bound URL. Optional.
	OnListen func(url string)
	// OnResult is called after every watcher run. Optional.
	OnResult func(watch.Result)
}

// Loop runs the dev server, the file system watcher and the rule loop
// together. It satisfies pipeline.DevLoop.
type Loop struct {
	build  *core.BuildConfig
	exec   watch.Executor
	opts   Options
	logger *slog.Logger
}

// New creates a dev loop. exec is normally the pipeline orchestrator.
func New(build *core.BuildConfig, exec watch.Executor, opts Options, logger *slog.Logger) (*Loop, error) {
	if build == nil {
		return nil, errors.New("devloop: build config is required")
	}
	if exec == nil {
		return nil, errors.New("devloop: executor is required")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if len(opts.Server.Roots) == 0 {
		opts.Server.Roots = build.ServeRoots
	}
	if opts.Server.Logger == nil {
		opts.Server.Logger = logger.With("component", "devserver")
	}
	if opts.OpenBrowser == nil {
		opts.OpenBrowser = devserver.OpenBrowser
	}
	return &Loop{build: build, exec: exec, opts: opts, logger: logger}, nil
}

// Run blocks until ctx is cancelled or one of its parts fails. The port is
// bound before anything else starts so a bind failure is reported at once.
func (l *Loop) Run(ctx context.Context) error {
	server := devserver.New(l.opts.Server)
	ln, err := server.Listen()
	if err != nil {
		return err
	}

	watcher, err := watch.New(watch.Config{
		Root:     l.build.Root,
		Rules:    l.build.WatchRules,
		Executor: l.exec,
		Notifier: server,
		Debounce: l.opts.Debounce,
		OnResult: l.opts.OnResult,
		Logger:   l.logger.With("component", "watch"),
	})
	if err != nil {
		_ = ln.Close()
		return err
	}

	url := server.URL()
	l.logger.Info("dev server listening", "url", url, "port", server.Port())
	if l.opts.OnListen != nil {
		l.opts.OnListen(url)
	}
	if l.opts.Open {
		if err := l.opts.OpenBrowser(url); err != nil {
			l.logger.Warn("could not open browser", "url", url, "error", err)
		}
	}

	eg, egctx := errgroup.WithContext(ctx)
	events := make(chan watch.Event, 64)

	eg.Go(func() error {
		return server.Serve(egctx, ln)
	})
	eg.Go(func() error {
		return watch.WatchFS(egctx, l.build.Root, l.build.WatchDirs, events,
			watch.WithSkip(l.build.ServeRoots...),
			watch.WithLogger(l.logger.With("component", "fsnotify")))
	})
	eg.Go(func() error {
		return watcher.Run(egctx, events)
	})

	return eg.Wait()
}
