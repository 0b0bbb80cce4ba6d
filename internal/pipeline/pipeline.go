// Package pipeline runs declared tasks in order and hands build:dev over to
// the dev loop once its assets are built.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/leapstack-labs/leapsite/internal/fileset"
	"github.com/leapstack-labs/leapsite/internal/tasks"
	"github.com/leapstack-labs/leapsite/pkg/core"
)

// AdHocPipeline labels recorded builds started through RunTask or RunTasks.
const AdHocPipeline = "run"

// DevLoop serves and watches until its context is cancelled.
type DevLoop interface {
	Run(ctx context.Context) error
}

// Result describes one finished task.
type Result struct {
	Files       int
	Written     int
	Diagnostics int
	Duration    time.Duration
	Err         error
}

// Observer is told when tasks start and finish.
type Observer interface {
	TaskStarted(task core.Task)
	TaskFinished(task core.Task, result Result)
}

type nopObserver struct{}

func (nopObserver) TaskStarted(core.Task)          {}
func (nopObserver) TaskFinished(core.Task, Result) {}

// Failure reports the task that stopped a pipeline.
type Failure struct {
	Pipeline string
	Task     string
	Err      error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: task %s failed: %v", f.Pipeline, f.Task, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// Config holds orchestrator dependencies.
type Config struct {
	// Build is the validated declaration. Required.
	Build *core.BuildConfig
	// Registry selects runners by kind. Defaults to tasks.DefaultRegistry().
	Registry *tasks.Registry
	// DevLoop runs after a serving pipeline. May be set later with SetDevLoop.
	DevLoop DevLoop
	// Observer receives task progress. Optional.
	Observer Observer
	// Recorder persists builds and task runs. Optional.
	Recorder core.Store
	// Logger is the structured logger (optional, uses discard if nil).
	Logger *slog.Logger
}

// Orchestrator executes pipelines and single tasks. Runs are strictly
// sequential: a task finishes before the next one starts.
type Orchestrator struct {
	build    *core.BuildConfig
	registry *tasks.Registry
	devLoop  DevLoop
	observer Observer
	recorder core.Store
	logger   *slog.Logger
}

// New creates an orchestrator.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Build == nil {
		return nil, errors.New("pipeline: build config is required")
	}
	o := &Orchestrator{
		build:    cfg.Build,
		registry: cfg.Registry,
		devLoop:  cfg.DevLoop,
		observer: cfg.Observer,
		recorder: cfg.Recorder,
		logger:   cfg.Logger,
	}
	if o.registry == nil {
		o.registry = tasks.DefaultRegistry()
	}
	if o.observer == nil {
		o.observer = nopObserver{}
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	for _, t := range cfg.Build.Tasks {
		if _, err := o.registry.Get(t.Kind); err != nil {
			return nil, fmt.Errorf("task %s: %w", t.Name, err)
		}
	}
	return o, nil
}

// SetDevLoop sets the loop a serving pipeline hands over to. The dev loop
// usually needs the orchestrator itself, so it is attached after New.
func (o *Orchestrator) SetDevLoop(loop DevLoop) {
	o.devLoop = loop
}

// Build returns the declaration the orchestrator runs.
func (o *Orchestrator) Build() *core.BuildConfig {
	return o.build
}

// Execute runs the named pipeline. The first failing task stops it with a
// *Failure; outputs already written stay in place. A serving pipeline then
// runs the dev loop, which returns once ctx is cancelled.
func (o *Orchestrator) Execute(ctx context.Context, name string) error {
	p, ok := o.build.Pipeline(name)
	if !ok {
		return fmt.Errorf("unknown pipeline %q", name)
	}
	if p.Serve && o.devLoop == nil {
		return fmt.Errorf("pipeline %s serves but no dev loop is configured", name)
	}

	o.logger.Info("starting pipeline", "pipeline", name, "tasks", len(p.Tasks))
	start := time.Now()
	if err := o.runSequence(ctx, name, p.Tasks); err != nil {
		return err
	}
	o.logger.Info("pipeline completed", "pipeline", name, "duration", time.Since(start).Round(time.Millisecond))

	if !p.Serve {
		return nil
	}
	o.logger.Debug("handing over to dev loop", "pipeline", name)
	return o.devLoop.Run(ctx)
}

// RunTask runs a single task by name.
func (o *Orchestrator) RunTask(ctx context.Context, name string) error {
	return o.RunTasks(ctx, []string{name})
}

// RunTasks runs the named tasks in order, stopping at the first failure.
func (o *Orchestrator) RunTasks(ctx context.Context, names []string) error {
	for _, name := range names {
		if _, ok := o.build.Task(name); !ok {
			return fmt.Errorf("unknown task %q", name)
		}
	}
	return o.runSequence(ctx, AdHocPipeline, names)
}

func (o *Orchestrator) runSequence(ctx context.Context, label string, names []string) error {
	buildID := o.startBuild(label)

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			o.finishBuild(buildID, core.RunStatusCancelled, err)
			return err
		}

		task, ok := o.build.Task(name)
		if !ok {
			err := &Failure{Pipeline: label, Task: name, Err: errors.New("task is not declared")}
			o.finishBuild(buildID, core.RunStatusFailed, err)
			return err
		}

		if err := o.runTask(ctx, buildID, *task); err != nil {
			failure := &Failure{Pipeline: label, Task: name, Err: err}
			o.logger.Error("task failed", "pipeline", label, "task", name, "error", err)
			o.finishBuild(buildID, core.RunStatusFailed, failure)
			return failure
		}
	}

	o.finishBuild(buildID, core.RunStatusCompleted, nil)
	return nil
}

func (o *Orchestrator) runTask(ctx context.Context, buildID string, task core.Task) error {
	o.observer.TaskStarted(task)
	started := time.Now()

	job := &tasks.Job{Task: task, Root: o.build.Root, Logger: o.logger}
	err := o.resolve(job)
	if err == nil {
		err = o.registry.Run(ctx, job)
	}

	result := Result{
		Files:       len(job.Files),
		Written:     job.Written,
		Diagnostics: len(job.Diagnostics),
		Duration:    time.Since(started),
		Err:         err,
	}
	o.observer.TaskFinished(task, result)
	o.recordTask(buildID, task, started, result)
	return err
}

// resolve expands the task's file set. Writing tasks get their output
// directory first so tasks that read their own output resolve after a clean.
func (o *Orchestrator) resolve(job *tasks.Job) error {
	task := job.Task
	if task.Kind == core.KindClean {
		return nil
	}
	if task.Kind.Writes() && task.Files.Dest != "" && task.Files.Base == task.Files.Dest {
		if err := os.MkdirAll(task.Files.Dest, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	pairs, err := fileset.Resolve(task.Files)
	if err != nil {
		return err
	}
	job.Files = pairs
	return nil
}
