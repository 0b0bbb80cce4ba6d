package starlark

import (
	"fmt"
	"html"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// FiltersName is the global holding filter builtins. The template parser
// rewrites `x | upper` into `_filters.upper(x)`.
const FiltersName = "_filters"

// Predeclared returns all predeclared globals for template execution.
// Data document keys are spread as top-level names; page, the lowercase
// literals true/false/none and the filter namespace are added on top.
func Predeclared(data starlark.StringDict, page *PageInfo) starlark.StringDict {
	globals := make(starlark.StringDict, len(data)+5)
	for k, v := range data {
		globals[k] = v
	}

	if page != nil {
		globals["page"] = page.ToStarlark()
	}

	globals["true"] = starlark.True
	globals["false"] = starlark.False
	globals["none"] = starlark.None
	globals[FiltersName] = Filters()

	return globals
}

// DataToStarlark converts a decoded data document into top-level globals.
func DataToStarlark(data map[string]any) (starlark.StringDict, error) {
	globals := make(starlark.StringDict, len(data))
	for k, v := range data {
		sv, err := GoToStarlark(v)
		if err != nil {
			return nil, fmt.Errorf("data key %q: %w", k, err)
		}
		globals[k] = sv
	}
	return globals, nil
}

var filters = starlarkstruct.FromStringDict(starlark.String("filters"), starlark.StringDict{
	"upper":      starlark.NewBuiltin("upper", stringFilter(strings.ToUpper)),
	"lower":      starlark.NewBuiltin("lower", stringFilter(strings.ToLower)),
	"trim":       starlark.NewBuiltin("trim", stringFilter(strings.TrimSpace)),
	"title":      starlark.NewBuiltin("title", stringFilter(titleCase)),
	"capitalize": starlark.NewBuiltin("capitalize", stringFilter(capitalize)),
	"escape":     starlark.NewBuiltin("escape", filterEscape),
	"safe":       starlark.NewBuiltin("safe", filterSafe),
	"length":     starlark.NewBuiltin("length", filterLength),
	"join":       starlark.NewBuiltin("join", filterJoin),
	"default":    starlark.NewBuiltin("default", filterDefault),
	"replace":    starlark.NewBuiltin("replace", filterReplace),
	"first":      starlark.NewBuiltin("first", filterFirst),
	"last":       starlark.NewBuiltin("last", filterLast),
})

// Filters returns the filter namespace.
func Filters() starlark.Value {
	return filters
}

// FilterNames lists the available filters.
func FilterNames() []string {
	return filters.AttrNames()
}

// Stringify renders a value the way template output shows it:
// strings unquoted, None as empty.
func Stringify(v starlark.Value) string {
	switch val := v.(type) {
	case starlark.String:
		return string(val)
	case Markup:
		return string(val)
	case starlark.NoneType:
		return ""
	default:
		return v.String()
	}
}

func titleCase(s string) string {
	return cases.Title(language.Und).String(s)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	lower := strings.ToLower(s)
	return strings.ToUpper(lower[:1]) + lower[1:]
}

func stringFilter(fn func(string) string) func(*starlark.Thread, *starlark.Builtin, starlark.Tuple, []starlark.Tuple) (starlark.Value, error) {
	return func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var v starlark.Value
		if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &v); err != nil {
			return nil, err
		}
		out := fn(Stringify(v))
		if _, ok := v.(Markup); ok {
			return Markup(out), nil
		}
		return starlark.String(out), nil
	}
}

func filterEscape(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var v starlark.Value
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &v); err != nil {
		return nil, err
	}
	return Markup(html.EscapeString(Stringify(v))), nil
}

func filterSafe(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var v starlark.Value
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &v); err != nil {
		return nil, err
	}
	return Markup(Stringify(v)), nil
}

func filterLength(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var v starlark.Value
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &v); err != nil {
		return nil, err
	}
	if m, ok := v.(Markup); ok {
		return starlark.MakeInt(len([]rune(string(m)))), nil
	}
	if s, ok := v.(starlark.String); ok {
		return starlark.MakeInt(len([]rune(string(s)))), nil
	}
	if n := starlark.Len(v); n >= 0 {
		return starlark.MakeInt(n), nil
	}
	if v == starlark.None {
		return starlark.MakeInt(0), nil
	}
	return nil, fmt.Errorf("%s: %s has no length", b.Name(), v.Type())
}

func filterJoin(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var seq starlark.Iterable
	sep := ""
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &seq, &sep); err != nil {
		return nil, err
	}
	var parts []string
	iter := seq.Iterate()
	defer iter.Done()
	var item starlark.Value
	for iter.Next(&item) {
		parts = append(parts, Stringify(item))
	}
	return starlark.String(strings.Join(parts, sep)), nil
}

func filterDefault(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var v, fallback starlark.Value
	var boolean bool
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 2, &v, &fallback, &boolean); err != nil {
		return nil, err
	}
	if v == starlark.None || (boolean && !bool(v.Truth())) {
		return fallback, nil
	}
	return v, nil
}

func filterReplace(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var v starlark.Value
	var old, repl string
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 3, &v, &old, &repl); err != nil {
		return nil, err
	}
	return starlark.String(strings.ReplaceAll(Stringify(v), old, repl)), nil
}

func filterFirst(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var seq starlark.Indexable
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &seq); err != nil {
		return nil, err
	}
	if seq.Len() == 0 {
		return starlark.None, nil
	}
	return seq.Index(0), nil
}

func filterLast(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var seq starlark.Indexable
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &seq); err != nil {
		return nil, err
	}
	if seq.Len() == 0 {
		return starlark.None, nil
	}
	return seq.Index(seq.Len() - 1), nil
}
