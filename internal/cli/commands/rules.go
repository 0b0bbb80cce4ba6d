package commands

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapsite/internal/cli/config"
	"github.com/leapstack-labs/leapsite/internal/cli/output"
	"github.com/leapstack-labs/leapsite/pkg/core"
	"github.com/leapstack-labs/leapsite/pkg/lint"
	"github.com/leapstack-labs/leapsite/pkg/lint/script"
	"github.com/leapstack-labs/leapsite/pkg/lint/style"
)

// RulesOptions holds options for the rules command.
type RulesOptions struct {
	Group string // style or script
}

// RulesOutput is the JSON shape of the rules listing.
type RulesOutput struct {
	Rules []core.RuleInfo `json:"rules"`
}

// NewRulesCommand creates the rules command.
func NewRulesCommand() *cobra.Command {
	opts := &RulesOptions{}

	cmd := &cobra.Command{
		Use:   "rules [rule-id]",
		Short: "List the lint rules in effect",
		Long: `List the style and script lint rules enabled by the project's lint
configs, with the severity each one reports at. With a rule ID, show its
documentation.`,
		Example: `  # Enabled rules
  leapsite rules

  # Script rules only
  leapsite rules --group script

  # One rule
  leapsite rules no-important`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := GetConfig(cmd.Context())
			if cfg == nil {
				return errors.New("configuration not loaded")
			}
			rules, err := effectiveRules(cmd, cfg, opts.Group)
			if err != nil {
				return err
			}

			r := GetRenderer(cmd.Context())
			if len(args) == 1 {
				for _, rule := range rules {
					if rule.ID == args[0] {
						return showRule(r, rule)
					}
				}
				return fmt.Errorf("rule %q is not enabled or does not exist", args[0])
			}
			return listRules(r, rules)
		},
	}

	cmd.Flags().StringVarP(&opts.Group, "group", "g", "", "Filter by group: style, script")

	return cmd
}

// effectiveRules loads each group's lint config and returns the rules it enables.
func effectiveRules(cmd *cobra.Command, cfg *config.Config, group string) ([]core.RuleInfo, error) {
	sources := []struct {
		registry *lint.Registry
		path     string
	}{
		{style.Registry, cfg.StyleLintConfig},
		{script.Registry, cfg.ScriptLintConfig},
	}

	logger := GetLogger(cmd.Context())
	var rules []core.RuleInfo
	for _, src := range sources {
		if group != "" && src.registry.Group() != group {
			continue
		}
		path := src.path
		if !filepath.IsAbs(path) {
			path = filepath.Join(cfg.ProjectRoot, path)
		}
		lintCfg, err := lint.LoadConfig(path, src.registry)
		if err != nil {
			return nil, err
		}
		for _, w := range lintCfg.Warnings {
			logger.Warn(w, "config", path)
		}
		rules = append(rules, lint.NewAnalyzer(src.registry, lintCfg).Rules()...)
	}
	return rules, nil
}

func listRules(r *output.Renderer, rules []core.RuleInfo) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(RulesOutput{Rules: rules})
	}
	if len(rules) == 0 {
		r.Muted("No lint rules enabled.")
		return nil
	}

	rows := make([][]string, 0, len(rules))
	for _, rule := range rules {
		rows = append(rows, []string{rule.ID, rule.Group, rule.DefaultSeverity.String(), rule.Description})
	}
	r.Table([]string{"Rule", "Group", "Severity", "Description"}, rows)
	return nil
}

func showRule(r *output.Renderer, rule core.RuleInfo) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(rule)
	}

	r.Header(2, rule.ID)
	r.Println(output.FormatKeyValue("Group", rule.Group))
	r.Println(output.FormatKeyValue("Severity", rule.DefaultSeverity.String()))
	r.Println(rule.Description)
	if len(rule.ConfigKeys) > 0 {
		r.Println(output.FormatKeyValue("Options", strings.Join(rule.ConfigKeys, ", ")))
	}
	if rule.BadExample != "" {
		r.Println()
		r.Println("Bad:")
		r.Println("  " + rule.BadExample)
	}
	if rule.GoodExample != "" {
		r.Println()
		r.Println("Good:")
		r.Println("  " + rule.GoodExample)
	}
	return nil
}
