package template

import (
	"fmt"
	"slices"
	"strings"

	starctx "github.com/leapstack-labs/leapsite/internal/starlark"
)

// rewriteFilters turns `value | name(args) | other` into nested calls on the
// filter namespace: `_filters.other(_filters.name(value, args))`.
// Only top-level pipes are filters; pipes inside brackets or strings are left alone.
func rewriteFilters(expr string) (string, error) {
	parts := splitTopLevel(expr, '|')
	if len(parts) == 1 {
		return expr, nil
	}

	out := strings.TrimSpace(parts[0])
	if out == "" {
		return "", fmt.Errorf("filter without a value")
	}

	for _, part := range parts[1:] {
		part = strings.TrimSpace(part)
		name, args := part, ""
		if i := strings.IndexByte(part, '('); i >= 0 {
			if !strings.HasSuffix(part, ")") {
				return "", fmt.Errorf("malformed filter call %q", part)
			}
			name = strings.TrimSpace(part[:i])
			args = strings.TrimSpace(part[i+1 : len(part)-1])
		}
		if !isIdent(name) {
			return "", fmt.Errorf("invalid filter name %q", name)
		}
		if !slices.Contains(starctx.FilterNames(), name) {
			return "", fmt.Errorf("unknown filter %q", name)
		}

		call := starctx.FiltersName + "." + name + "(" + out
		if args != "" {
			call += ", " + args
		}
		out = call + ")"
	}

	return out, nil
}

// splitTopLevel splits s on sep where sep is outside quotes and brackets.
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	depth := 0
	var quote byte
	start := 0

	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			quote = c
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			if depth > 0 {
				depth--
			}
		case sep:
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}

	return append(parts, s[start:])
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		isLetter := r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		isDigit := r >= '0' && r <= '9'
		if !isLetter && (i == 0 || !isDigit) {
			return false
		}
	}
	return true
}
