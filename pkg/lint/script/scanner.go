package script

import "strings"

// regexAfter lists the characters after which a '/' starts a regex literal.
const regexAfter = "(,=:[!&|?{};+-*%<>~^"

// mask blanks comments and the bodies of string, template and regex literals.
// Offsets and newlines are kept so positions line up with the source.
func mask(text string) string {
	b := []byte(text)
	blank := func(from, to int) {
		for k := from; k < to && k < len(b); k++ {
			if b[k] != '\n' {
				b[k] = ' '
			}
		}
	}

	// last is the most recent significant character.
	var last byte
	for i := 0; i < len(b); i++ {
		c := b[i]
		switch {
		case c == '/' && i+1 < len(b) && b[i+1] == '/':
			j := i
			for j < len(b) && b[j] != '\n' {
				j++
			}
			blank(i, j)
			i = j - 1
			continue

		case c == '/' && i+1 < len(b) && b[i+1] == '*':
			j := i + 2
			for j+1 < len(b) && !(b[j] == '*' && b[j+1] == '/') {
				j++
			}
			end := min(j+2, len(b))
			blank(i, end)
			i = end - 1
			continue

		case c == '"' || c == '\'' || c == '`':
			j := skipQuoted(b, i, c)
			blank(i+1, j)
			i = j
			last = c
			continue

		case c == '/' && (last == 0 || strings.IndexByte(regexAfter, last) >= 0):
			j := i + 1
			inClass := false
			for j < len(b) && b[j] != '\n' {
				if b[j] == '\\' {
					j += 2
					continue
				}
				if b[j] == '[' {
					inClass = true
				} else if b[j] == ']' {
					inClass = false
				} else if b[j] == '/' && !inClass {
					break
				}
				j++
			}
			blank(i+1, j)
			i = j
			last = '/'
			continue
		}

		if c != ' ' && c != '\t' && c != '\n' && c != '\r' {
			last = c
		}
	}

	return string(b)
}

// skipQuoted returns the index of the closing quote for the literal at i.
func skipQuoted(b []byte, i int, quote byte) int {
	j := i + 1
	for j < len(b) && b[j] != quote {
		if b[j] == '\n' && quote != '`' {
			break
		}
		if b[j] == '\\' {
			j++
		}
		j++
	}
	return min(j, len(b))
}
