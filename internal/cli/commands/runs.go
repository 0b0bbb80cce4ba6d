package commands

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapsite/internal/cli/output"
	"github.com/leapstack-labs/leapsite/internal/state"
	"github.com/leapstack-labs/leapsite/pkg/core"
)

// RunsOptions holds options for the runs command.
type RunsOptions struct {
	Limit int
	ID    string
}

// NewRunsCommand creates the runs command.
func NewRunsCommand() *cobra.Command {
	opts := &RunsOptions{}

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Show build history",
		Long: `List recent builds recorded in the state database, newest first.
With --id, show the task runs of one build.`,
		Example: `  # Last 20 builds
  leapsite runs

  # Task runs of one build
  leapsite runs --id 5f0c8a4e-...`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := GetConfig(cmd.Context())
			if cfg == nil {
				return errors.New("configuration not loaded")
			}
			if cfg.StatePath == "" {
				return errors.New("build history is disabled (state_path is empty)")
			}

			store, err := state.Open(cfg.StatePath, GetLogger(cmd.Context()))
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			r := GetRenderer(cmd.Context())
			if opts.ID != "" {
				return showBuild(r, store, opts.ID)
			}
			return listBuilds(r, store, opts.Limit)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", state.DefaultListLimit, "Number of builds to show")
	cmd.Flags().StringVar(&opts.ID, "id", "", "Show the task runs of this build")

	return cmd
}

func listBuilds(r *output.Renderer, store core.Store, limit int) error {
	builds, err := store.ListBuilds(limit)
	if err != nil {
		return err
	}
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(builds)
	}
	if len(builds) == 0 {
		r.Muted("No builds recorded yet.")
		return nil
	}

	rows := make([][]string, 0, len(builds))
	for _, b := range builds {
		rows = append(rows, []string{
			b.ID,
			b.Pipeline,
			string(b.Status),
			b.StartedAt.Local().Format(time.DateTime),
			elapsed(b.StartedAt, b.CompletedAt),
			b.Error,
		})
	}
	r.Table([]string{"ID", "Pipeline", "Status", "Started", "Duration", "Error"}, rows)
	return nil
}

func showBuild(r *output.Renderer, store core.Store, id string) error {
	build, err := store.GetBuild(id)
	if err != nil {
		return err
	}
	runs, err := store.GetTaskRuns(id)
	if err != nil {
		return err
	}
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(struct {
			Build *core.Build     `json:"build"`
			Tasks []*core.TaskRun `json:"tasks"`
		}{build, runs})
	}

	r.Header(2, fmt.Sprintf("Build %s", build.ID))
	r.Println(output.FormatKeyValue("Pipeline", build.Pipeline))
	r.Println(output.FormatKeyValue("Status", string(build.Status)))
	r.Println(output.FormatKeyValue("Started", build.StartedAt.Local().Format(time.DateTime)))
	r.Println(output.FormatKeyValue("Duration", elapsed(build.StartedAt, build.CompletedAt)))
	if build.Error != "" {
		r.Println(output.FormatKeyValue("Error", build.Error))
	}
	r.Println()

	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			run.Task,
			string(run.Kind),
			string(run.Status),
			strconv.Itoa(run.Files),
			(time.Duration(run.DurationMS) * time.Millisecond).String(),
			run.Error,
		})
	}
	r.Table([]string{"Task", "Kind", "Status", "Files", "Duration", "Error"}, rows)
	return nil
}

func elapsed(start time.Time, end *time.Time) string {
	if end == nil {
		return "-"
	}
	return end.Sub(start).Round(time.Millisecond).String()
}
