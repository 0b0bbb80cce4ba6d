// Package script holds the JavaScript lint rules. Rule IDs and the config
// file follow ESLint. Syntax errors come from esbuild's parser.
package script

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/leapstack-labs/leapsite/pkg/core"
	"github.com/leapstack-labs/leapsite/pkg/lint"
)

// Registry holds every script rule.
var Registry = lint.NewRegistry("script")

func init() {
	Registry.Register(Syntax)
	Registry.Register(NoDebugger)
	Registry.Register(NoConsole)
	Registry.Register(Eqeqeq)
	Registry.Register(NoTrailingSpaces)
	Registry.Register(EOLLast)
	Registry.Register(MaxLen)
}

// Syntax reports parse errors.
var Syntax = lint.RuleDef{
	ID:          "syntax",
	Description: "Source must parse as JavaScript.",
	Severity:    core.SeverityError,
	Check: func(src *lint.Source, _ map[string]any) []lint.Diagnostic {
		result := api.Transform(src.Text, api.TransformOptions{
			Loader:     api.LoaderJS,
			Sourcefile: src.Path,
			LogLevel:   api.LogLevelSilent,
		})

		var diags []lint.Diagnostic
		for _, msg := range result.Errors {
			line, col := 0, 0
			if msg.Location != nil {
				line, col = msg.Location.Line, msg.Location.Column+1
			}
			diags = append(diags, lint.At(src, line, col, "%s", msg.Text))
		}
		return diags
	},
	BadExample:  "function f( {",
	GoodExample: "function f() {}",
}

// maskedPattern builds a rule matching a regexp on the masked source.
func maskedPattern(re *regexp.Regexp, message string) lint.CheckFunc {
	return func(src *lint.Source, _ map[string]any) []lint.Diagnostic {
		masked := mask(src.Text)
		var diags []lint.Diagnostic
		for _, loc := range re.FindAllStringIndex(masked, -1) {
			line, col := src.Position(loc[0])
			diags = append(diags, lint.At(src, line, col, "%s", message))
		}
		return diags
	}
}

// NoDebugger disallows debugger statements.
var NoDebugger = lint.RuleDef{
	ID:          "no-debugger",
	Description: "Disallow debugger statements.",
	Severity:    core.SeverityError,
	Check:       maskedPattern(regexp.MustCompile(`\bdebugger\b`), "unexpected 'debugger' statement"),
	BadExample:  "debugger;",
}

// NoConsole flags console calls.
var NoConsole = lint.RuleDef{
	ID:          "no-console",
	Description: "Disallow console calls.",
	Severity:    core.SeverityWarning,
	Check:       maskedPattern(regexp.MustCompile(`\bconsole\s*\.`), "unexpected console statement"),
	BadExample:  `console.log("here");`,
}

var looseEquality = regexp.MustCompile(`[=!]=+`)

// Eqeqeq requires === and !==.
var Eqeqeq = lint.RuleDef{
	ID:          "eqeqeq",
	Description: "Require === and !==.",
	Severity:    core.SeverityWarning,
	ConfigKeys:  []string{"null"},
	Check: func(src *lint.Source, opts map[string]any) []lint.Diagnostic {
		allowNull := lint.StringOption(opts, "null", "always") == "ignore"
		masked := mask(src.Text)

		var diags []lint.Diagnostic
		for _, loc := range looseEquality.FindAllStringIndex(masked, -1) {
			op := masked[loc[0]:loc[1]]
			if op != "==" && op != "!=" {
				continue
			}
			// Skip arrows and comparisons like <= and >=.
			if loc[0] > 0 && strings.ContainsRune("<>=", rune(masked[loc[0]-1])) {
				continue
			}
			if loc[1] < len(masked) && masked[loc[1]] == '>' {
				continue
			}
			if allowNull && strings.HasPrefix(strings.TrimSpace(masked[loc[1]:]), "null") {
				continue
			}
			line, col := src.Position(loc[0])
			diags = append(diags, lint.At(src, line, col, "expected '%s=' and instead saw '%s'", op, op))
		}
		return diags
	},
	BadExample:  "if (a == b) {}",
	GoodExample: "if (a === b) {}",
}

// NoTrailingSpaces flags whitespace at the end of a line.
var NoTrailingSpaces = lint.RuleDef{
	ID:          "no-trailing-spaces",
	Description: "Disallow trailing whitespace at the end of lines.",
	Severity:    core.SeverityWarning,
	Check: func(src *lint.Source, _ map[string]any) []lint.Diagnostic {
		var diags []lint.Diagnostic
		for i, line := range src.Lines() {
			trimmed := strings.TrimRight(line, " \t")
			if len(trimmed) != len(line) {
				diags = append(diags, lint.At(src, i+1, len(trimmed)+1, "trailing spaces not allowed"))
			}
		}
		return diags
	},
}

// EOLLast requires a newline at the end of the file.
var EOLLast = lint.RuleDef{
	ID:          "eol-last",
	Description: "Require a newline at the end of the file.",
	Severity:    core.SeverityWarning,
	Check: func(src *lint.Source, _ map[string]any) []lint.Diagnostic {
		if src.Text == "" || strings.HasSuffix(src.Text, "\n") {
			return nil
		}
		return []lint.Diagnostic{lint.At(src, len(src.Lines()), 0, "newline required at end of file but not found")}
	},
}

// MaxLen limits line length.
var MaxLen = lint.RuleDef{
	ID:          "max-len",
	Description: "Limit the length of lines.",
	Severity:    core.SeverityWarning,
	ConfigKeys:  []string{"code", "ignoreUrls"},
	Check: func(src *lint.Source, opts map[string]any) []lint.Diagnostic {
		limit := lint.IntOption(opts, "code", lint.IntArg(opts, 0, 120))
		ignoreURLs := lint.BoolOption(opts, "ignoreUrls", true)

		var diags []lint.Diagnostic
		for i, line := range src.Lines() {
			n := utf8.RuneCountInString(line)
			if n <= limit {
				continue
			}
			if ignoreURLs && strings.Contains(line, "://") {
				continue
			}
			diags = append(diags, lint.At(src, i+1, limit+1, "line length of %d exceeds the maximum of %d", n, limit))
		}
		return diags
	},
}
