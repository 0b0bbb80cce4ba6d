package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/leapsite/internal/fileset"
	"github.com/leapstack-labs/leapsite/pkg/core"
	"github.com/leapstack-labs/leapsite/pkg/lint"
	"github.com/leapstack-labs/leapsite/pkg/lint/script"
	"github.com/leapstack-labs/leapsite/pkg/lint/style"
)

// LintOptions configures lint-style and lint-script.
type LintOptions struct {
	// Config is the rule configuration file. A missing file means default rules.
	Config string `mapstructure:"config"`
	// FailOnWarning treats warnings as errors.
	FailOnWarning bool `mapstructure:"fail_on_warning"`
}

// LintStyleRunner lints stylesheets.
type LintStyleRunner struct{}

// Kind implements Runner.
func (LintStyleRunner) Kind() core.TaskKind { return core.KindLintStyle }

// Run lints each source file.
func (LintStyleRunner) Run(ctx context.Context, job *Job) error {
	return job.lint(ctx, style.Registry)
}

// LintScriptRunner lints scripts.
type LintScriptRunner struct{}

// Kind implements Runner.
func (LintScriptRunner) Kind() core.TaskKind { return core.KindLintScript }

// Run lints each source file.
func (LintScriptRunner) Run(ctx context.Context, job *Job) error {
	return job.lint(ctx, script.Registry)
}

// lint reports every diagnostic and fails on the first file with an error.
func (j *Job) lint(ctx context.Context, registry *lint.Registry) error {
	var opts LintOptions
	if err := decodeOptions(j.Task, &opts); err != nil {
		return err
	}

	cfg := lint.NewConfig()
	if opts.Config != "" {
		path := opts.Config
		if !filepath.IsAbs(path) && j.Root != "" {
			path = filepath.Join(j.Root, path)
		}
		var err error
		cfg, err = lint.LoadConfig(path, registry)
		if err != nil {
			return &core.ToolError{Task: j.Task.Name, File: j.display(path), Message: err.Error(), Err: err}
		}
		for _, w := range cfg.Warnings {
			j.Logger.Warn(w, "task", j.Task.Name, "config", j.display(path))
		}
	}
	if opts.FailOnWarning {
		for _, rule := range registry.All() {
			if !cfg.IsDisabled(rule.ID) {
				cfg.SetSeverity(rule.ID, core.SeverityError)
			}
		}
	}

	ignore, err := fileset.CompileSet(cfg.Ignore)
	if err != nil {
		return &core.ToolError{Task: j.Task.Name, Message: "invalid ignore pattern", Err: err}
	}

	analyzer := lint.NewAnalyzer(registry, cfg)
	for _, pair := range j.Files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if ignore.Match(j.display(pair.Src)) || ignore.Match(pair.Rel) {
			continue
		}

		content, err := os.ReadFile(pair.Src)
		if err != nil {
			return j.fail(pair.Src, err)
		}

		diags := analyzer.Analyze(lint.NewSource(j.display(pair.Src), content))
		j.Diagnostics = append(j.Diagnostics, diags...)
		for _, d := range diags {
			level := slog.LevelWarn
			if d.Severity == core.SeverityError {
				level = slog.LevelError
			}
			j.Logger.Log(ctx, level, d.Message, "task", j.Task.Name, "rule", d.RuleID,
				"location", fmt.Sprintf("%s:%d:%d", d.File, d.Line, d.Column))
		}

		if first, ok := lint.FirstError(diags); ok {
			return &core.ToolError{
				Task:    j.Task.Name,
				File:    first.File,
				Line:    first.Line,
				Column:  first.Column,
				Message: fmt.Sprintf("%s (%s)", first.Message, first.RuleID),
			}
		}
	}
	return nil
}
