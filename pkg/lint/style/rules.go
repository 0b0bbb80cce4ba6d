// Package style holds the stylesheet lint rules. Rule IDs and the config
// file follow sass-lint, so an existing .sass-lint.yml keeps working.
package style

import (
	"regexp"
	"strings"

	"github.com/leapstack-labs/leapsite/pkg/core"
	"github.com/leapstack-labs/leapsite/pkg/lint"
)

// Registry holds every stylesheet rule.
var Registry = lint.NewRegistry("style")

func init() {
	Registry.Register(NoImportant)
	Registry.Register(NoIDs)
	Registry.Register(MaxNestingDepth)
	Registry.Register(NoEmptyRulesets)
	Registry.Register(NoDuplicateProperties)
	Registry.Register(NoTrailingWhitespace)
	Registry.Register(FinalNewline)
}

// sheetCheck adapts a rule that needs the parsed sheet.
func sheetCheck(fn func(*Sheet, map[string]any) []lint.Diagnostic) lint.CheckFunc {
	return func(src *lint.Source, opts map[string]any) []lint.Diagnostic {
		return fn(Parse(src), opts)
	}
}

var importantPattern = regexp.MustCompile(`!\s*important`)

// NoImportant disallows !important.
var NoImportant = lint.RuleDef{
	ID:          "no-important",
	Description: "Disallow !important in declarations.",
	Severity:    core.SeverityWarning,
	Check: sheetCheck(func(s *Sheet, _ map[string]any) []lint.Diagnostic {
		var diags []lint.Diagnostic
		for _, loc := range importantPattern.FindAllStringIndex(s.Masked, -1) {
			line, col := s.Position(loc[0])
			diags = append(diags, lint.At(s.Src, line, col, "!important not allowed"))
		}
		return diags
	}),
	BadExample:  ".btn { color: red !important; }",
	GoodExample: ".page .btn { color: red; }",
}

var idSelector = regexp.MustCompile(`#[A-Za-z_-][A-Za-z0-9_-]*`)

// NoIDs disallows ID selectors.
var NoIDs = lint.RuleDef{
	ID:          "no-ids",
	Description: "Disallow ID selectors.",
	Severity:    core.SeverityWarning,
	Check: sheetCheck(func(s *Sheet, _ map[string]any) []lint.Diagnostic {
		var diags []lint.Diagnostic
		for _, b := range s.Blocks {
			if b.AtRule {
				continue
			}
			for _, loc := range idSelector.FindAllStringIndex(b.Selector, -1) {
				line, col := s.Position(b.Offset + loc[0])
				diags = append(diags, lint.At(s.Src, line, col, "ID selector %s not allowed", b.Selector[loc[0]:loc[1]]))
			}
		}
		return diags
	}),
	BadExample:  "#header { margin: 0; }",
	GoodExample: ".header { margin: 0; }",
}

// MaxNestingDepth limits selector nesting.
var MaxNestingDepth = lint.RuleDef{
	ID:          "max-nesting-depth",
	Description: "Limit how deeply selectors nest.",
	Severity:    core.SeverityWarning,
	ConfigKeys:  []string{"max-depth"},
	Check: sheetCheck(func(s *Sheet, opts map[string]any) []lint.Diagnostic {
		limit := lint.IntOption(opts, "max-depth", 2)

		var diags []lint.Diagnostic
		for _, b := range s.Blocks {
			// Depth counts from the top-level rule, which is depth 1.
			if b.AtRule || b.Depth-1 <= limit {
				continue
			}
			line, col := s.Position(b.Offset)
			diags = append(diags, lint.At(s.Src, line, col, "selector %q nested %d deep (max %d)", b.Selector, b.Depth-1, limit))
		}
		return diags
	}),
	BadExample:  ".a { .b { .c { .d { color: red; } } } }",
	GoodExample: ".a { .b { color: red; } }",
}

// NoEmptyRulesets flags blocks with no content.
var NoEmptyRulesets = lint.RuleDef{
	ID:          "no-empty-rulesets",
	Description: "Disallow rulesets without declarations.",
	Severity:    core.SeverityWarning,
	Check: sheetCheck(func(s *Sheet, _ map[string]any) []lint.Diagnostic {
		var diags []lint.Diagnostic
		for _, b := range s.Blocks {
			if !b.Empty {
				continue
			}
			line, col := s.Position(b.Offset)
			diags = append(diags, lint.At(s.Src, line, col, "empty ruleset %q", b.Selector))
		}
		return diags
	}),
	BadExample:  ".unused {}",
	GoodExample: ".used { display: block; }",
}

// NoDuplicateProperties flags a property declared twice in one block.
var NoDuplicateProperties = lint.RuleDef{
	ID:          "no-duplicate-properties",
	Description: "Disallow the same property twice in one ruleset.",
	Severity:    core.SeverityWarning,
	ConfigKeys:  []string{"exclude"},
	Check: sheetCheck(func(s *Sheet, opts map[string]any) []lint.Diagnostic {
		excluded := make(map[string]bool)
		for _, p := range lint.StringSliceOption(opts, "exclude", nil) {
			excluded[strings.ToLower(p)] = true
		}

		var diags []lint.Diagnostic
		for _, b := range s.Blocks {
			seen := make(map[string]bool)
			for _, d := range b.Decls {
				// Sass variables may be reassigned.
				if strings.HasPrefix(d.Property, "$") || excluded[d.Property] {
					continue
				}
				if seen[d.Property] {
					line, col := s.Position(d.Offset)
					diags = append(diags, lint.At(s.Src, line, col, "duplicate property %q", d.Property))
				}
				seen[d.Property] = true
			}
		}
		return diags
	}),
	BadExample:  ".a { margin: 0; margin: 1px; }",
	GoodExample: ".a { margin: 1px; }",
}

// NoTrailingWhitespace flags whitespace at the end of a line.
var NoTrailingWhitespace = lint.RuleDef{
	ID:          "no-trailing-whitespace",
	Description: "Disallow whitespace at the end of lines.",
	Severity:    core.SeverityWarning,
	Check: func(src *lint.Source, _ map[string]any) []lint.Diagnostic {
		var diags []lint.Diagnostic
		for i, line := range src.Lines() {
			trimmed := strings.TrimRight(line, " \t")
			if len(trimmed) != len(line) {
				diags = append(diags, lint.At(src, i+1, len(trimmed)+1, "trailing whitespace"))
			}
		}
		return diags
	},
}

// FinalNewline requires the file to end with a newline.
var FinalNewline = lint.RuleDef{
	ID:          "final-newline",
	Description: "Require a newline at the end of the file.",
	Severity:    core.SeverityWarning,
	ConfigKeys:  []string{"include"},
	Check: func(src *lint.Source, opts map[string]any) []lint.Diagnostic {
		want := lint.BoolOption(opts, "include", true)
		if src.Text == "" {
			return nil
		}
		has := strings.HasSuffix(src.Text, "\n")
		lines := src.Lines()
		switch {
		case want && !has:
			return []lint.Diagnostic{lint.At(src, len(lines), 0, "missing final newline")}
		case !want && has:
			return []lint.Diagnostic{lint.At(src, len(lines), 0, "unexpected final newline")}
		}
		return nil
	},
}
