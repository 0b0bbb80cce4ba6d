package commands

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	intconfig "github.com/leapstack-labs/leapsite/internal/config"
)

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run <task>...",
		Short: "Run individual tasks",
		Long: `Run one or more tasks in the order given, stopping at the first failure.

Tasks are run without their pipeline, so outputs of earlier tasks must
already exist. Use "leapsite tasks" to list task names.`,
		Example: `  # Recompile stylesheets
  leapsite run styles:compile styles:minify

  # Lint everything
  leapsite run lint:styles lint:scripts`,
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: completeTaskNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			p, err := openProject(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = p.Close() }()

			start := time.Now()
			if err := p.orchestrator.RunTasks(ctx, args); err != nil {
				return err
			}
			p.done(strings.Join(args, ", "), start)
			return nil
		},
	}
}

// completeTaskNames offers declared task names not yet on the command line.
func completeTaskNames(_ *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	seen := make(map[string]bool, len(args))
	for _, a := range args {
		seen[a] = true
	}
	var names []string
	for _, name := range intconfig.BuildOrder {
		if !seen[name] && strings.HasPrefix(name, toComplete) {
			names = append(names, name)
		}
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}
