// Package starlark provides the Starlark execution context, value conversions
// and filter builtins used by the template renderer.
package starlark

import (
	"encoding/json"
	"fmt"
	"sort"

	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
	"go.starlark.net/syntax"
)

// PageInfo describes the template being rendered.
// Exposed as the "page" global in templates.
type PageInfo struct {
	Path string // Source path relative to the template root
	Name string // File name without extension
	URL  string // Output path relative to the output root, slash separated
}

// ToStarlark converts PageInfo to a Starlark struct value.
func (p *PageInfo) ToStarlark() starlark.Value {
	return starlarkstruct.FromStringDict(starlark.String("page"), starlark.StringDict{
		"path": starlark.String(p.Path),
		"name": starlark.String(p.Name),
		"url":  starlark.String(p.URL),
	})
}

// =============================================================================
// Record
// =============================================================================

// Record is a dict whose string keys are also readable as attributes,
// so `site.title` and `site["title"]` are equivalent. Dict methods such as
// items() stay reachable when no key shadows them.
type Record struct {
	*starlark.Dict
}

var (
	_ starlark.HasAttrs        = Record{}
	_ starlark.IterableMapping = Record{}
	_ starlark.Comparable      = Record{}
)

// NewRecord wraps an existing dict.
func NewRecord(d *starlark.Dict) Record {
	return Record{Dict: d}
}

// Attr returns the value stored under name, falling back to dict methods.
func (r Record) Attr(name string) (starlark.Value, error) {
	if v, found, err := r.Dict.Get(starlark.String(name)); err == nil && found {
		return v, nil
	}
	return r.Dict.Attr(name)
}

// AttrNames lists string keys followed by dict methods.
func (r Record) AttrNames() []string {
	var names []string
	for _, k := range r.Dict.Keys() {
		if s, ok := k.(starlark.String); ok {
			names = append(names, string(s))
		}
	}
	names = append(names, r.Dict.AttrNames()...)
	sort.Strings(names)
	return names
}

// CompareSameType compares two records by their dict contents.
func (r Record) CompareSameType(op syntax.Token, y starlark.Value, depth int) (bool, error) {
	other, ok := y.(Record)
	if !ok {
		return false, fmt.Errorf("cannot compare dict with %s", y.Type())
	}
	return r.Dict.CompareSameType(op, other.Dict, depth)
}

// =============================================================================
// Markup
// =============================================================================

// Markup is a string that must not be escaped on output.
type Markup string

var _ starlark.Value = Markup("")

func (m Markup) String() string        { return starlark.String(m).String() }
func (m Markup) Type() string          { return "markup" }
func (m Markup) Freeze()               {}
func (m Markup) Truth() starlark.Bool  { return len(m) > 0 }
func (m Markup) Hash() (uint32, error) { return starlark.String(m).Hash() }

// =============================================================================
// Conversions
// =============================================================================

// GoToStarlark converts a Go value to a Starlark value. Maps become Records.
// Supported types: string, ints, float64, json.Number, bool, []string, []any,
// map[string]any and map[string]string.
func GoToStarlark(v any) (starlark.Value, error) {
	if v == nil {
		return starlark.None, nil
	}

	switch val := v.(type) {
	case starlark.Value:
		return val, nil

	case string:
		return starlark.String(val), nil

	case int:
		return starlark.MakeInt(val), nil

	case int64:
		return starlark.MakeInt64(val), nil

	case uint64:
		return starlark.MakeUint64(val), nil

	case float64:
		return starlark.Float(val), nil

	case json.Number:
		if i, err := val.Int64(); err == nil {
			return starlark.MakeInt64(i), nil
		}
		f, err := val.Float64()
		if err != nil {
			return nil, fmt.Errorf("number %q: %w", val, err)
		}
		return starlark.Float(f), nil

	case bool:
		return starlark.Bool(val), nil

	case []string:
		list := make([]starlark.Value, len(val))
		for i, s := range val {
			list[i] = starlark.String(s)
		}
		return starlark.NewList(list), nil

	case []any:
		list := make([]starlark.Value, len(val))
		for i, item := range val {
			sv, err := GoToStarlark(item)
			if err != nil {
				return nil, fmt.Errorf("list index %d: %w", i, err)
			}
			list[i] = sv
		}
		return starlark.NewList(list), nil

	case map[string]string:
		dict := starlark.NewDict(len(val))
		for _, k := range sortedKeys(val) {
			if err := dict.SetKey(starlark.String(k), starlark.String(val[k])); err != nil {
				return nil, fmt.Errorf("dict setkey %q: %w", k, err)
			}
		}
		return NewRecord(dict), nil

	case map[string]any:
		dict := starlark.NewDict(len(val))
		for _, k := range sortedKeys(val) {
			sv, err := GoToStarlark(val[k])
			if err != nil {
				return nil, fmt.Errorf("dict key %q: %w", k, err)
			}
			if err := dict.SetKey(starlark.String(k), sv); err != nil {
				return nil, fmt.Errorf("dict setkey %q: %w", k, err)
			}
		}
		return NewRecord(dict), nil

	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}

// ToGo converts a Starlark value back to a Go value.
// Returns: string, int64, float64, bool, []any, map[string]any, or nil
func ToGo(v starlark.Value) (any, error) {
	switch val := v.(type) {
	case starlark.NoneType:
		return nil, nil

	case starlark.String:
		return string(val), nil

	case Markup:
		return string(val), nil

	case starlark.Int:
		i64, ok := val.Int64()
		if !ok {
			return val.String(), nil
		}
		return i64, nil

	case starlark.Float:
		return float64(val), nil

	case starlark.Bool:
		return bool(val), nil

	case *starlark.List:
		result := make([]any, val.Len())
		for i := 0; i < val.Len(); i++ {
			gv, err := ToGo(val.Index(i))
			if err != nil {
				return nil, fmt.Errorf("list index %d: %w", i, err)
			}
			result[i] = gv
		}
		return result, nil

	case starlark.Tuple:
		result := make([]any, val.Len())
		for i := 0; i < val.Len(); i++ {
			gv, err := ToGo(val.Index(i))
			if err != nil {
				return nil, fmt.Errorf("tuple index %d: %w", i, err)
			}
			result[i] = gv
		}
		return result, nil

	case Record:
		return dictToGo(val.Dict)

	case *starlark.Dict:
		return dictToGo(val)

	default:
		return val.String(), nil
	}
}

func dictToGo(d *starlark.Dict) (map[string]any, error) {
	result := make(map[string]any, d.Len())
	for _, item := range d.Items() {
		key, ok := item[0].(starlark.String)
		if !ok {
			return nil, fmt.Errorf("dict key must be string, got %s", item[0].Type())
		}
		gv, err := ToGo(item[1])
		if err != nil {
			return nil, fmt.Errorf("dict key %q: %w", key, err)
		}
		result[string(key)] = gv
	}
	return result, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
