package lint

// Rule options come from YAML, so numbers arrive as int (or float64 when
// written with a decimal point) and lists as []any.

// IntOption extracts an int option.
func IntOption(opts map[string]any, key string, defaultVal int) int {
	switch n := opts[key].(type) {
	case int:
		return n
	case int64:
		return int(n)
	case uint64:
		return int(n)
	case float64:
		return int(n)
	default:
		return defaultVal
	}
}

// StringOption extracts a string option.
func StringOption(opts map[string]any, key string, defaultVal string) string {
	if s, ok := opts[key].(string); ok {
		return s
	}
	return defaultVal
}

// BoolOption extracts a bool option.
func BoolOption(opts map[string]any, key string, defaultVal bool) bool {
	if b, ok := opts[key].(bool); ok {
		return b
	}
	return defaultVal
}

// StringSliceOption extracts a string list option. A single string is a
// one-element list.
func StringSliceOption(opts map[string]any, key string, defaultVal []string) []string {
	switch s := opts[key].(type) {
	case []string:
		return s
	case string:
		return []string{s}
	case []any:
		result := make([]string, 0, len(s))
		for _, item := range s {
			if str, ok := item.(string); ok {
				result = append(result, str)
			}
		}
		return result
	default:
		return defaultVal
	}
}

// IntArg extracts the positional setting at index, as in max-len: [2, 100].
func IntArg(opts map[string]any, index int, defaultVal int) int {
	args, _ := opts[ArgsOption].([]any)
	if index >= len(args) {
		return defaultVal
	}
	return IntOption(map[string]any{"": args[index]}, "", defaultVal)
}
