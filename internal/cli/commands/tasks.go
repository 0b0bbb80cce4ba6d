package commands

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapsite/internal/cli/output"
	intconfig "github.com/leapstack-labs/leapsite/internal/config"
	"github.com/leapstack-labs/leapsite/pkg/core"
)

// TaskInfo describes a declared task for JSON output.
type TaskInfo struct {
	Name    string   `json:"name"`
	Kind    string   `json:"kind"`
	Base    string   `json:"base,omitempty"`
	Include []string `json:"include,omitempty"`
	Exclude []string `json:"exclude,omitempty"`
	Dest    string   `json:"dest,omitempty"`
	Rename  string   `json:"rename,omitempty"`
}

// PipelineInfo describes a pipeline for JSON output.
type PipelineInfo struct {
	Name  string   `json:"name"`
	Tasks []string `json:"tasks"`
	Serve bool     `json:"serve"`
}

// WatchRuleInfo describes a watch rule for JSON output.
type WatchRuleInfo struct {
	Name     string   `json:"name"`
	Patterns []string `json:"patterns"`
	Tasks    []string `json:"tasks"`
	Reload   bool     `json:"reload"`
}

// TasksOutput is the JSON shape of the tasks command.
type TasksOutput struct {
	Tasks      []TaskInfo      `json:"tasks"`
	Pipelines  []PipelineInfo  `json:"pipelines"`
	WatchRules []WatchRuleInfo `json:"watch_rules"`
}

// NewTasksCommand creates the tasks command.
func NewTasksCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tasks",
		Short: "List tasks, pipelines and watch rules",
		Long: `Show the project's declared tasks with their file sets, the pipelines
that run them, and the watch rules that re-run them during build:dev.`,
		Example: `  leapsite tasks
  leapsite tasks -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := GetConfig(cmd.Context())
			if cfg == nil {
				return errors.New("configuration not loaded")
			}
			build, err := intconfig.Declare(cfg.ProjectRoot, cfg.Layout)
			if err != nil {
				return err
			}
			return renderTasks(GetRenderer(cmd.Context()), build)
		},
	}
}

func renderTasks(r *output.Renderer, build *core.BuildConfig) error {
	info := describeBuild(build)
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(info)
	}

	r.Header(2, "Tasks")
	rows := make([][]string, 0, len(info.Tasks))
	for _, t := range info.Tasks {
		rows = append(rows, []string{t.Name, t.Kind, t.Base, strings.Join(t.Include, " "), t.Dest, t.Rename})
	}
	r.Table([]string{"Task", "Kind", "Base", "Include", "Dest", "Rename"}, rows)

	r.Println()
	r.Header(2, "Pipelines")
	rows = rows[:0]
	for _, p := range info.Pipelines {
		serve := ""
		if p.Serve {
			serve = "yes"
		}
		rows = append(rows, []string{p.Name, strings.Join(p.Tasks, " → "), serve})
	}
	r.Table([]string{"Pipeline", "Tasks", "Serves"}, rows)

	r.Println()
	r.Header(2, "Watch rules")
	rows = rows[:0]
	for _, w := range info.WatchRules {
		reload := ""
		if w.Reload {
			reload = "yes"
		}
		rows = append(rows, []string{w.Name, strings.Join(w.Patterns, " "), strings.Join(w.Tasks, " → "), reload})
	}
	r.Table([]string{"Rule", "Patterns", "Tasks", "Reload"}, rows)
	return nil
}

// describeBuild reports paths relative to the project root.
func describeBuild(build *core.BuildConfig) TasksOutput {
	rel := func(p string) string {
		if p == "" {
			return ""
		}
		if r, err := filepath.Rel(build.Root, p); err == nil {
			return filepath.ToSlash(r)
		}
		return p
	}

	var out TasksOutput
	for _, t := range build.Tasks {
		out.Tasks = append(out.Tasks, TaskInfo{
			Name:    t.Name,
			Kind:    string(t.Kind),
			Base:    rel(t.Files.Base),
			Include: t.Files.Include,
			Exclude: t.Files.Exclude,
			Dest:    rel(t.Files.Dest),
			Rename:  t.Files.RenameName,
		})
	}
	for _, p := range build.Pipelines {
		out.Pipelines = append(out.Pipelines, PipelineInfo{Name: p.Name, Tasks: p.Tasks, Serve: p.Serve})
	}
	for _, w := range build.WatchRules {
		out.WatchRules = append(out.WatchRules, WatchRuleInfo{Name: w.Name, Patterns: w.Patterns, Tasks: w.Tasks, Reload: w.Reload})
	}
	return out
}
