package template

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Nodes(t *testing.T) {
	tmpl, err := Parse("<h1>{{ title | upper }}</h1>{% set x = 1 %}{% include \"nav.njk\" %}", "page.njk")
	require.NoError(t, err)
	require.Len(t, tmpl.Nodes, 5)

	assert.IsType(t, &TextNode{}, tmpl.Nodes[0])

	expr, ok := tmpl.Nodes[1].(*ExprNode)
	require.True(t, ok)
	assert.Equal(t, "title | upper", expr.Source)
	assert.Equal(t, "_filters.upper(title)", expr.Expr)

	set, ok := tmpl.Nodes[3].(*SetNode)
	require.True(t, ok)
	assert.Equal(t, "x", set.Name)
	assert.Equal(t, "1", set.Expr)

	inc, ok := tmpl.Nodes[4].(*IncludeNode)
	require.True(t, ok)
	assert.Equal(t, `"nav.njk"`, inc.Expr)
}

func TestParse_For(t *testing.T) {
	tmpl, err := Parse("{% for k, v in items %}{{ k }}{% else %}none{% endfor %}", "for.njk")
	require.NoError(t, err)
	require.Len(t, tmpl.Nodes, 1)

	loop, ok := tmpl.Nodes[0].(*ForBlock)
	require.True(t, ok)
	assert.Equal(t, []string{"k", "v"}, loop.VarNames)
	assert.Equal(t, "items", loop.IterExpr)
	assert.Len(t, loop.Body, 1)
	assert.Len(t, loop.Else, 1)
}

func TestParse_If(t *testing.T) {
	tmpl, err := Parse("{% if a %}A{% elif b %}B{% elseif c %}C{% else %}D{% endif %}", "if.njk")
	require.NoError(t, err)

	block, ok := tmpl.Nodes[0].(*IfBlock)
	require.True(t, ok)
	assert.Equal(t, "a", block.Condition)
	require.Len(t, block.ElseIfs, 2)
	assert.Equal(t, "b", block.ElseIfs[0].Condition)
	assert.Equal(t, "c", block.ElseIfs[1].Condition)
	assert.Len(t, block.Else, 1)
}

func TestParse_Inheritance(t *testing.T) {
	src := `{% extends "layout.njk" %}{% set title = "Home" %}{% block content %}<p>{% block inner %}x{% endblock %}</p>{% endblock %}`
	tmpl, err := Parse(src, "home.njk")
	require.NoError(t, err)

	assert.Equal(t, `"layout.njk"`, tmpl.Extends)
	assert.Contains(t, tmpl.Blocks, "content")
	assert.Contains(t, tmpl.Blocks, "inner")
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		kind  StmtKind // expected unmatched kind, StmtUnknown for plain parse errors
	}{
		{"unclosed for", "{% for x in xs %}", StmtFor},
		{"unclosed if", "{% if x %}", StmtIf},
		{"unclosed if after else", "{% if x %}{% else %}", StmtIf},
		{"unclosed block", "{% block main %}", StmtBlock},
		{"stray endif", "{% endif %}", StmtEndIf},
		{"stray endfor", "{% endfor %}", StmtEndFor},
		{"stray else", "{% else %}", StmtElse},
		{"stray endblock", "{% endblock %}", StmtEndBlock},
		{"bad for header", "{% for in xs %}{% endfor %}", StmtUnknown},
		{"if without condition", "{% if %}{% endif %}", StmtUnknown},
		{"set without value", "{% set x %}", StmtUnknown},
		{"set bad name", "{% set 1x = 2 %}", StmtUnknown},
		{"unknown statement", "{% macro m() %}", StmtUnknown},
		{"unknown filter", "{{ x | shout }}", StmtUnknown},
		{"duplicate block", "{% block a %}{% endblock %}{% block a %}{% endblock %}", StmtUnknown},
		{"two parents", `{% extends "a" %}{% extends "b" %}`, StmtUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input, "bad.njk")
			require.Error(t, err)

			var unmatched *UnmatchedBlockError
			if tt.kind == StmtUnknown {
				var parseErr *ParseError
				assert.True(t, errors.As(err, &parseErr), "expected *ParseError, got %T: %v", err, err)
				return
			}
			require.True(t, errors.As(err, &unmatched), "expected *UnmatchedBlockError, got %T: %v", err, err)
			assert.Equal(t, tt.kind, unmatched.BlockKind)
		})
	}
}

func TestUnmatchedBlockError_Message(t *testing.T) {
	pos := Position{File: "page.njk", Line: 3, Column: 5}
	tests := []struct {
		kind StmtKind
		want string
	}{
		{StmtFor, "page.njk:3:5: {% for %} is never closed (missing {% endfor %})"},
		{StmtBlock, "page.njk:3:5: {% block %} is never closed (missing {% endblock %})"},
		{StmtElif, "page.njk:3:5: {% elif %} has no matching {% if %}"},
		{StmtEndBlock, "page.njk:3:5: {% endblock %} has no matching {% block %}"},
		{StmtSet, "page.njk:3:5: unexpected {% set %}"},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, NewUnmatchedBlockError(pos, tt.kind).Error())
		})
	}
}

func TestRewriteFilters(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"name", "name"},
		{"name | upper", "_filters.upper(name)"},
		{"name | upper | trim", "_filters.trim(_filters.upper(name))"},
		{`tags | join(", ")`, `_filters.join(tags, ", ")`},
		{`x | default("a|b")`, `_filters.default(x, "a|b")`},
		{"a or b", "a or b"},
		{"[1, 2][0] | length", "_filters.length([1, 2][0])"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := rewriteFilters(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAssignIndex(t *testing.T) {
	assert.Equal(t, 2, assignIndex("x = 1"))
	assert.Equal(t, 2, assignIndex("x = a == b"))
	assert.Equal(t, -1, assignIndex("a == b"))
	assert.Equal(t, -1, assignIndex("a <= b"))
}
