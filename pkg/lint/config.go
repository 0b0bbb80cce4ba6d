package lint

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/leapstack-labs/leapsite/pkg/core"
	"gopkg.in/yaml.v3"
)

// Config controls which rules are enabled, their severity and options.
type Config struct {
	// DisabledRules contains rule IDs to skip
	DisabledRules map[string]bool

	// SeverityOverrides changes the default severity of rules
	SeverityOverrides map[string]Severity

	// RuleOptions holds per-rule options
	RuleOptions map[string]map[string]any

	// Ignore lists globs of files not to lint, matched against paths
	// relative to the project root or to the lint base
	Ignore []string

	// Warnings are config problems that did not stop parsing, such as
	// rules this linter does not implement
	Warnings []string
}

// Severity is the core severity, re-exported for config callers.
type Severity = core.Severity

// NewConfig creates a default configuration with all rules enabled.
func NewConfig() *Config {
	return &Config{
		DisabledRules:     make(map[string]bool),
		SeverityOverrides: make(map[string]Severity),
		RuleOptions:       make(map[string]map[string]any),
	}
}

// IsDisabled returns true if the rule should be skipped.
func (c *Config) IsDisabled(ruleID string) bool {
	if c == nil {
		return false
	}
	return c.DisabledRules[ruleID]
}

// GetSeverity returns the severity for a rule, applying any override.
func (c *Config) GetSeverity(ruleID string, defaultSeverity Severity) Severity {
	if c != nil {
		if sev, ok := c.SeverityOverrides[ruleID]; ok {
			return sev
		}
	}
	return defaultSeverity
}

// GetRuleOptions returns the options configured for a rule, or nil.
func (c *Config) GetRuleOptions(ruleID string) map[string]any {
	if c == nil {
		return nil
	}
	return c.RuleOptions[ruleID]
}

// Disable disables a rule by ID.
func (c *Config) Disable(ruleID string) *Config {
	c.DisabledRules[ruleID] = true
	return c
}

// SetSeverity overrides the severity for a rule.
func (c *Config) SetSeverity(ruleID string, severity Severity) *Config {
	c.SeverityOverrides[ruleID] = severity
	return c
}

// SetRuleOptions sets the options for a rule.
func (c *Config) SetRuleOptions(ruleID string, opts map[string]any) *Config {
	c.RuleOptions[ruleID] = opts
	return c
}

// fileConfig is the on-disk shape shared by .sass-lint.yml and .eslintrc.yml.
type fileConfig struct {
	Options struct {
		MergeDefaultRules *bool `yaml:"merge-default-rules"`
	} `yaml:"options"`
	Files struct {
		Ignore yaml.Node `yaml:"ignore"`
	} `yaml:"files"`
	IgnorePatterns []string       `yaml:"ignorePatterns"`
	Rules          map[string]any `yaml:"rules"`
}

// LoadConfig reads a lint config file. A missing file yields the default
// configuration. Rules are checked against registry; unknown rule IDs are
// skipped and reported in Warnings.
//
// Each rule value is a severity (0/off, 1/warn, 2/error) or a list of a
// severity followed by options. Mappings are merged into the rule options;
// other elements are kept in order under the "args" key:
//
//	rules:
//	  no-ids: 2
//	  max-nesting-depth: [1, {max-depth: 3}]
//	  quotes: [2, single]
//	  eqeqeq: off
func LoadConfig(path string, registry *Registry) (*Config, error) {
	cfg := NewConfig()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read lint config: %w", err)
	}

	if err := cfg.parse(data, registry); err != nil {
		return nil, fmt.Errorf("lint config %s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig parses lint config content.
func ParseConfig(data []byte, registry *Registry) (*Config, error) {
	cfg := NewConfig()
	if err := cfg.parse(data, registry); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) parse(data []byte, registry *Registry) error {
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("invalid YAML: %w", err)
	}

	ignore, err := decodeStrings(&fc.Files.Ignore)
	if err != nil {
		return fmt.Errorf("files.ignore: %w", err)
	}
	c.Ignore = append(ignore, fc.IgnorePatterns...)

	var errs []error
	for _, id := range slices.Sorted(maps.Keys(fc.Rules)) {
		value := fc.Rules[id]
		if registry != nil {
			if _, ok := registry.Get(id); !ok {
				c.Warnings = append(c.Warnings, fmt.Sprintf("unknown rule %q skipped", id))
				continue
			}
		}

		sev, opts, err := parseRuleValue(value)
		if err != nil {
			errs = append(errs, fmt.Errorf("rule %q: %w", id, err))
			continue
		}
		if sev == nil {
			c.Disable(id)
			continue
		}
		c.SetSeverity(id, *sev)
		if opts != nil {
			c.SetRuleOptions(id, opts)
		}
	}

	// merge-default-rules: false keeps only the rules named in the file.
	if merge := fc.Options.MergeDefaultRules; merge != nil && !*merge && registry != nil {
		for _, rule := range registry.All() {
			if _, named := fc.Rules[rule.ID]; !named {
				c.Disable(rule.ID)
			}
		}
	}

	return errors.Join(errs...)
}

// parseRuleValue returns a nil severity when the rule is turned off.
func parseRuleValue(value any) (*Severity, map[string]any, error) {
	var opts map[string]any

	if list, ok := value.([]any); ok {
		if len(list) == 0 {
			return nil, nil, fmt.Errorf("empty rule setting")
		}
		var args []any
		for _, elem := range list[1:] {
			m, ok := normalize(elem).(map[string]any)
			if !ok {
				args = append(args, normalize(elem))
				continue
			}
			if opts == nil {
				opts = make(map[string]any, len(m))
			}
			for k, v := range m {
				opts[k] = v
			}
		}
		if len(args) > 0 {
			if opts == nil {
				opts = make(map[string]any, 1)
			}
			opts[ArgsOption] = args
		}
		value = list[0]
	}

	sev, err := parseSeverity(value)
	if err != nil {
		return nil, nil, err
	}
	return sev, opts, nil
}

// ArgsOption is the rule option key holding positional rule settings.
const ArgsOption = "args"

// normalize turns mappings with non-string keys, such as {null: ignore},
// into map[string]any all the way down.
func normalize(value any) any {
	switch v := value.(type) {
	case map[string]any:
		for k, elem := range v {
			v[k] = normalize(elem)
		}
		return v
	case map[any]any:
		m := make(map[string]any, len(v))
		for k, elem := range v {
			key := "null"
			if k != nil {
				key = fmt.Sprint(k)
			}
			m[key] = normalize(elem)
		}
		return m
	case []any:
		for i, elem := range v {
			v[i] = normalize(elem)
		}
		return v
	default:
		return value
	}
}

func parseSeverity(value any) (*Severity, error) {
	level := -1
	switch v := value.(type) {
	case int:
		level = v
	case bool:
		if !v {
			level = 0
		}
	case string:
		switch strings.ToLower(v) {
		case "off":
			level = 0
		case "warn", "warning":
			level = 1
		case "error":
			level = 2
		default:
			if n, err := strconv.Atoi(v); err == nil {
				level = n
			}
		}
	}

	switch level {
	case 0:
		return nil, nil
	case 1:
		sev := core.SeverityWarning
		return &sev, nil
	case 2:
		sev := core.SeverityError
		return &sev, nil
	default:
		return nil, fmt.Errorf("invalid severity %v (use 0/off, 1/warn or 2/error)", value)
	}
}

// decodeStrings accepts a scalar or a sequence of strings.
func decodeStrings(node *yaml.Node) ([]string, error) {
	switch node.Kind {
	case 0:
		return nil, nil
	case yaml.ScalarNode:
		return []string{node.Value}, nil
	default:
		var out []string
		if err := node.Decode(&out); err != nil {
			return nil, err
		}
		return out, nil
	}
}
