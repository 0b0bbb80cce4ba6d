package lint

import (
	"sort"

	"github.com/leapstack-labs/leapsite/pkg/core"
)

// Analyzer runs the rules of one registry against sources.
type Analyzer struct {
	config   *Config
	registry *Registry
}

// NewAnalyzer creates a new analyzer with optional configuration.
func NewAnalyzer(registry *Registry, config *Config) *Analyzer {
	if config == nil {
		config = NewConfig()
	}
	return &Analyzer{config: config, registry: registry}
}

// Analyze runs every enabled rule against src.
// Diagnostics are ordered by position, then rule ID.
func (a *Analyzer) Analyze(src *Source) []Diagnostic {
	if src == nil {
		return nil
	}

	var diagnostics []Diagnostic

	for _, rule := range a.registry.All() {
		// Skip disabled rules
		if a.config.IsDisabled(rule.ID) {
			continue
		}

		opts := a.config.GetRuleOptions(rule.ID)
		diags := rule.Check(src, opts)

		severity := a.config.GetSeverity(rule.ID, rule.Severity)
		for i := range diags {
			diags[i].RuleID = rule.ID
			diags[i].Severity = severity
			if diags[i].File == "" {
				diags[i].File = src.Path
			}
		}

		diagnostics = append(diagnostics, diags...)
	}

	sort.SliceStable(diagnostics, func(i, j int) bool {
		di, dj := diagnostics[i], diagnostics[j]
		if di.Line != dj.Line {
			return di.Line < dj.Line
		}
		if di.Column != dj.Column {
			return di.Column < dj.Column
		}
		return di.RuleID < dj.RuleID
	})

	return diagnostics
}

// Rules returns the enabled rules with their effective severity.
func (a *Analyzer) Rules() []core.RuleInfo {
	var infos []core.RuleInfo
	for _, rule := range a.registry.All() {
		if a.config.IsDisabled(rule.ID) {
			continue
		}
		info := rule.Info()
		info.DefaultSeverity = a.config.GetSeverity(rule.ID, rule.Severity)
		infos = append(infos, info)
	}
	return infos
}
