package script

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapsite/pkg/core"
	"github.com/leapstack-labs/leapsite/pkg/lint"
)

func analyze(t *testing.T, cfg *lint.Config, text string) []lint.Diagnostic {
	t.Helper()
	return lint.NewAnalyzer(Registry, cfg).Analyze(lint.NewSource("app.js", []byte(text)))
}

func ruleIDs(diags []lint.Diagnostic) []string {
	ids := make([]string, 0, len(diags))
	for _, d := range diags {
		ids = append(ids, d.RuleID)
	}
	return ids
}

func TestRules(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "clean script",
			text: "const nav = document.querySelector('.nav');\nif (nav !== null) {\n  nav.classList.add('ready');\n}\n",
			want: []string{},
		},
		{
			name: "syntax error",
			text: "function broken( {\n",
			want: []string{"syntax"},
		},
		{
			name: "debugger",
			text: "function f() {\n  debugger;\n}\n",
			want: []string{"no-debugger"},
		},
		{
			name: "debugger in string is ignored",
			text: "const s = 'debugger';\n",
			want: []string{},
		},
		{
			name: "console",
			text: "console.log('x');\n",
			want: []string{"no-console"},
		},
		{
			name: "loose equality",
			text: "if (a == b || c != d) {}\n",
			want: []string{"eqeqeq", "eqeqeq"},
		},
		{
			name: "strict equality and arrows",
			text: "const f = (a) => a === 1 && a !== 2 && a <= 3 && a >= 0;\n",
			want: []string{},
		},
		{
			name: "equality inside regex and comment",
			text: "const re = /a==b/; // x == y\n",
			want: []string{},
		},
		{
			name: "trailing spaces",
			text: "const a = 1;  \n",
			want: []string{"no-trailing-spaces"},
		},
		{
			name: "missing newline",
			text: "const a = 1;",
			want: []string{"eol-last"},
		},
		{
			name: "long line",
			text: "const s = " + strings.Repeat("1 + ", 40) + "1;\n",
			want: []string{"max-len"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ruleIDs(analyze(t, nil, tt.text)))
		})
	}
}

func TestSyntax_Position(t *testing.T) {
	diags := analyze(t, nil, "const a = 1;\nconst = 2;\n")
	require.Len(t, diags, 1)
	assert.Equal(t, "syntax", diags[0].RuleID)
	assert.Equal(t, 2, diags[0].Line)
	assert.Equal(t, core.SeverityError, diags[0].Severity)
	assert.True(t, lint.HasErrors(diags))
}

func TestRules_Config(t *testing.T) {
	cfg, err := lint.ParseConfig([]byte(`
rules:
  eqeqeq: [error, {null: ignore}]
  no-console: off
  max-len: [warn, {code: 20}]
`), Registry)
	require.NoError(t, err)

	diags := analyze(t, cfg, "if (a == null) { console.log(a == b); }\n")
	assert.Equal(t, []string{"max-len", "eqeqeq"}, ruleIDs(diags))

	first, ok := lint.FirstError(diags)
	require.True(t, ok)
	assert.Equal(t, "eqeqeq", first.RuleID)
}

func TestRules_PositionalMaxLen(t *testing.T) {
	cfg, err := lint.ParseConfig([]byte("rules:\n  max-len: [2, 10]\n  quotes: [2, single]\n"), Registry)
	require.NoError(t, err)
	assert.Equal(t, []string{`unknown rule "quotes" skipped`}, cfg.Warnings)

	diags := analyze(t, cfg, "let a = 1;\nlet bb = 22;\n")
	require.Len(t, diags, 1)
	assert.Equal(t, "max-len", diags[0].RuleID)
	assert.Equal(t, 2, diags[0].Line)
	assert.Equal(t, core.SeverityError, diags[0].Severity)
}

func TestMask(t *testing.T) {
	src := "a = \"x==y\"; b = `t ${c == d}`; /* == */ e = f / g == h;"
	masked := mask(src)

	assert.Len(t, masked, len(src))
	assert.Equal(t, 1, strings.Count(masked, "=="))
	assert.Contains(t, masked, "f / g == h")
}
