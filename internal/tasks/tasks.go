// Package tasks adapts each transformation capability to one Runner contract.
//
// A Runner receives a Job: the declared task plus the file pairs its file set
// resolved to. Runners are selected by core.TaskKind through a Registry;
// nothing inspects a task's shape to decide what to run.
//
// Every writing runner is idempotent. Outputs carry no timestamps or temp
// paths, and a file is only rewritten when its bytes change.
package tasks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/go-viper/mapstructure/v2"

	"github.com/leapstack-labs/leapsite/internal/fileset"
	"github.com/leapstack-labs/leapsite/pkg/core"
	"github.com/leapstack-labs/leapsite/pkg/lint"
)

// Job is one invocation of a task.
type Job struct {
	Task  core.Task
	Files []fileset.Pair
	// Root is the absolute project root. Paths in diagnostics are shown relative to it.
	Root   string
	Logger *slog.Logger

	// Written counts files whose content changed.
	Written int
	// Diagnostics collects lint findings.
	Diagnostics []lint.Diagnostic
}

// Runner executes tasks of one kind.
type Runner interface {
	Kind() core.TaskKind
	Run(ctx context.Context, job *Job) error
}

// Registry maps task kinds to runners.
type Registry struct {
	runners map[core.TaskKind]Runner
}

// NewRegistry creates a registry holding the given runners.
func NewRegistry(runners ...Runner) *Registry {
	r := &Registry{runners: make(map[core.TaskKind]Runner, len(runners))}
	for _, runner := range runners {
		r.Register(runner)
	}
	return r
}

// DefaultRegistry returns a registry with a runner for every task kind.
func DefaultRegistry() *Registry {
	return NewRegistry(
		CleanRunner{},
		StyleCompileRunner{},
		StyleMinifyRunner{},
		StylePostprocessRunner{},
		ScriptBundleRunner{},
		ScriptMinifyRunner{},
		TemplateRenderRunner{},
		LintStyleRunner{},
		LintScriptRunner{},
	)
}

// Register adds or replaces the runner for its kind.
func (r *Registry) Register(runner Runner) {
	r.runners[runner.Kind()] = runner
}

// Get returns the runner for kind.
func (r *Registry) Get(kind core.TaskKind) (Runner, error) {
	runner, ok := r.runners[kind]
	if !ok {
		return nil, fmt.Errorf("no runner registered for task kind %q", kind)
	}
	return runner, nil
}

// Kinds lists the registered kinds, sorted.
func (r *Registry) Kinds() []core.TaskKind {
	kinds := make([]core.TaskKind, 0, len(r.runners))
	for kind := range r.runners {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Run executes one job with the runner registered for its task kind.
func (r *Registry) Run(ctx context.Context, job *Job) error {
	runner, err := r.Get(job.Task.Kind)
	if err != nil {
		return err
	}
	if job.Logger == nil {
		job.Logger = slog.New(slog.DiscardHandler)
	}
	if job.Task.Kind.Writes() && job.Task.Files.Dest != "" {
		if err := os.MkdirAll(job.Task.Files.Dest, 0o755); err != nil {
			return &core.ToolError{Task: job.Task.Name, Message: "create output directory", Err: err}
		}
	}

	start := time.Now()
	job.Logger.Debug("task started", "task", job.Task.Name, "kind", job.Task.Kind, "files", len(job.Files))
	err = runner.Run(ctx, job)
	job.Logger.Debug("task finished", "task", job.Task.Name, "written", job.Written,
		"duration", time.Since(start), "error", err)
	return err
}

// decodeOptions decodes task options into out, which holds the defaults.
// Unknown keys are an error.
func decodeOptions(task core.Task, out any) error {
	if len(task.Options) == 0 {
		return nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook:       mapstructure.StringToSliceHookFunc(","),
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(task.Options); err != nil {
		return &core.ToolError{Task: task.Name, Message: "invalid options", Err: err}
	}
	return nil
}

// writeOutput writes content to path unless the file already holds exactly
// that content.
func (j *Job) writeOutput(path string, content []byte) error {
	existing, err := os.ReadFile(path)
	if err == nil && bytes.Equal(existing, content) {
		return nil
	}
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return err
	}
	j.Written++
	j.Logger.Debug("wrote", "task", j.Task.Name, "path", j.display(path))
	return nil
}

// display returns path relative to the project root when possible.
func (j *Job) display(path string) string {
	if j.Root == "" {
		return path
	}
	rel, err := filepath.Rel(j.Root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}

// fail builds a tool error for a file of this job.
func (j *Job) fail(file string, err error) error {
	var toolErr *core.ToolError
	if errors.As(err, &toolErr) {
		if toolErr.Task == "" {
			toolErr.Task = j.Task.Name
		}
		return toolErr
	}
	return &core.ToolError{Task: j.Task.Name, File: j.display(file), Message: err.Error(), Err: err}
}
