package style

import (
	"strings"

	"github.com/leapstack-labs/leapsite/pkg/lint"
)

// Block is a `selector { ... }` or `@rule { ... }` region.
type Block struct {
	Selector string // Text before the opening brace, whitespace trimmed
	Offset   int    // Offset of the selector start
	Depth    int    // Selector nesting depth; at-rules do not count
	AtRule   bool
	Empty    bool // No declarations and no nested blocks
	Decls    []Decl
}

// Decl is a `property: value` declaration.
type Decl struct {
	Property string
	Value    string
	Offset   int
}

// Sheet is the structural view of a stylesheet that rules inspect.
type Sheet struct {
	Src    *lint.Source
	Masked string // Text with comments and string bodies blanked out
	Blocks []*Block
}

// Parse scans src. It is tolerant: unbalanced braces close at EOF.
func Parse(src *lint.Source) *Sheet {
	sheet := &Sheet{Src: src, Masked: mask(src.Text)}
	text := sheet.Masked

	var stack []*Block
	segStart := 0
	depth := 0

	declare := func(end int) {
		if len(stack) == 0 {
			return
		}
		seg := text[segStart:end]
		trimmed := strings.TrimSpace(seg)
		if trimmed == "" {
			return
		}
		top := stack[len(stack)-1]
		top.Empty = false
		if strings.HasPrefix(trimmed, "@") {
			return
		}
		prop, value, ok := strings.Cut(trimmed, ":")
		if !ok {
			return
		}
		lead := len(seg) - len(strings.TrimLeft(seg, " \t\r\n"))
		top.Decls = append(top.Decls, Decl{
			Property: strings.ToLower(strings.TrimSpace(prop)),
			Value:    strings.TrimSpace(value),
			Offset:   segStart + lead,
		})
	}

	for i := 0; i < len(text); i++ {
		switch c := text[i]; {
		case c == '#' && i+1 < len(text) && text[i+1] == '{':
			i = skipInterpolation(text, i)

		case c == '{':
			seg := text[segStart:i]
			lead := len(seg) - len(strings.TrimLeft(seg, " \t\r\n"))
			selector := strings.TrimSpace(seg)
			atRule := strings.HasPrefix(selector, "@")
			if !atRule {
				depth++
			}
			if len(stack) > 0 {
				stack[len(stack)-1].Empty = false
			}
			b := &Block{Selector: selector, Offset: segStart + lead, Depth: depth, AtRule: atRule, Empty: true}
			sheet.Blocks = append(sheet.Blocks, b)
			stack = append(stack, b)
			segStart = i + 1

		case c == ';':
			declare(i)
			segStart = i + 1

		case c == '}':
			declare(i)
			if len(stack) > 0 {
				if !stack[len(stack)-1].AtRule {
					depth--
				}
				stack = stack[:len(stack)-1]
			}
			segStart = i + 1
		}
	}

	return sheet
}

// Position returns the line and column of a byte offset.
func (s *Sheet) Position(offset int) (int, int) {
	return s.Src.Position(offset)
}

// skipInterpolation returns the index of the brace closing the #{ at i.
func skipInterpolation(text string, i int) int {
	depth := 0
	for j := i + 1; j < len(text); j++ {
		switch text[j] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return j
			}
		}
	}
	return len(text) - 1
}

// mask blanks comments and the contents of string literals, keeping offsets
// and newlines so positions still line up with the source.
func mask(text string) string {
	b := []byte(text)
	blank := func(from, to int) {
		for k := from; k < to && k < len(b); k++ {
			if b[k] != '\n' {
				b[k] = ' '
			}
		}
	}

	for i := 0; i < len(b); i++ {
		switch {
		case b[i] == '/' && i+1 < len(b) && b[i+1] == '*':
			end := strings.Index(text[i+2:], "*/")
			stop := len(b)
			if end >= 0 {
				stop = i + 2 + end + 2
			}
			blank(i, stop)
			i = stop - 1

		case b[i] == '/' && i+1 < len(b) && b[i+1] == '/' && (i == 0 || b[i-1] != ':'):
			stop := strings.IndexByte(text[i:], '\n')
			if stop < 0 {
				stop = len(b)
			} else {
				stop += i
			}
			blank(i, stop)
			i = stop - 1

		case b[i] == '"' || b[i] == '\'':
			quote := b[i]
			j := i + 1
			for j < len(b) && b[j] != quote && b[j] != '\n' {
				if b[j] == '\\' {
					j++
				}
				j++
			}
			blank(i+1, j)
			i = j
		}
	}

	return string(b)
}
