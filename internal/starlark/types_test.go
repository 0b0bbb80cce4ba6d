package starlark

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.starlark.net/starlark"
)

func TestGoToStarlark(t *testing.T) {
	tests := []struct {
		name    string
		input   any
		wantStr string
		wantErr bool
	}{
		{
			name:    "string",
			input:   "hello",
			wantStr: `"hello"`,
		},
		{
			name:    "int",
			input:   42,
			wantStr: "42",
		},
		{
			name:    "json integer",
			input:   json.Number("7"),
			wantStr: "7",
		},
		{
			name:    "json float",
			input:   json.Number("2.5"),
			wantStr: "2.5",
		},
		{
			name:    "bool true",
			input:   true,
			wantStr: "True",
		},
		{
			name:    "nil",
			input:   nil,
			wantStr: "None",
		},
		{
			name:    "string slice",
			input:   []string{"a", "b", "c"},
			wantStr: `["a", "b", "c"]`,
		},
		{
			name:    "any slice",
			input:   []any{"x", 1, true},
			wantStr: `["x", 1, True]`,
		},
		{
			name:    "map keys are sorted",
			input:   map[string]any{"b": 2, "a": "value"},
			wantStr: `{"a": "value", "b": 2}`,
		},
		{
			name:    "unsupported",
			input:   struct{}{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GoToStarlark(tt.input)
			if tt.wantErr {
				assert.Error(t, err, "expected error")
				return
			}
			require.NoError(t, err, "unexpected error")
			assert.Equal(t, tt.wantStr, got.String(), "GoToStarlark()")
		})
	}
}

func TestToGo(t *testing.T) {
	rec, err := GoToStarlark(map[string]any{"name": "leapsite", "tags": []any{"a"}})
	require.NoError(t, err)

	tests := []struct {
		name  string
		input starlark.Value
		want  any
	}{
		{name: "string", input: starlark.String("hello"), want: "hello"},
		{name: "markup", input: Markup("<b>"), want: "<b>"},
		{name: "int", input: starlark.MakeInt(42), want: int64(42)},
		{name: "float", input: starlark.Float(3.14), want: 3.14},
		{name: "bool", input: starlark.Bool(true), want: true},
		{name: "none", input: starlark.None, want: nil},
		{name: "tuple", input: starlark.Tuple{starlark.MakeInt(1)}, want: []any{int64(1)}},
		{name: "record", input: rec, want: map[string]any{"name": "leapsite", "tags": []any{"a"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToGo(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRecord_AttributeAccess(t *testing.T) {
	v, err := GoToStarlark(map[string]any{
		"site":  map[string]any{"title": "Pattern Library"},
		"items": "shadowed",
	})
	require.NoError(t, err)
	rec, ok := v.(Record)
	require.True(t, ok)

	site, err := rec.Attr("site")
	require.NoError(t, err)
	title, err := site.(Record).Attr("title")
	require.NoError(t, err)
	assert.Equal(t, starlark.String("Pattern Library"), title)

	// Keys win over dict methods.
	items, err := rec.Attr("items")
	require.NoError(t, err)
	assert.Equal(t, starlark.String("shadowed"), items)

	keys, err := rec.Attr("keys")
	require.NoError(t, err)
	assert.Equal(t, "builtin_function_or_method", keys.Type())

	assert.Contains(t, rec.AttrNames(), "site")
}

func TestPageInfo_ToStarlark(t *testing.T) {
	page := &PageInfo{Path: "atoms/button.njk", Name: "button", URL: "atoms/button.html"}
	val := page.ToStarlark()
	require.NotNil(t, val)
	assert.Contains(t, val.String(), `"atoms/button.html"`)
}
