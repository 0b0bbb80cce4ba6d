package template

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// TokenType identifies the type of token.
type TokenType int

// TokenType constants for template token types.
const (
	TokenText TokenType = iota // Literal text
	TokenExpr                  // Expression content (between {{ and }})
	TokenStmt                  // Statement content (between {% and %})
	TokenEOF                   // End of input
)

func (t TokenType) String() string {
	switch t {
	case TokenText:
		return "TEXT"
	case TokenExpr:
		return "EXPR"
	case TokenStmt:
		return "STMT"
	case TokenEOF:
		return "EOF"
	default:
		return "UNKNOWN"
	}
}

// Token represents a lexical token.
type Token struct {
	Type  TokenType
	Value string
	Pos   Position
}

// Lexer tokenizes a template string.
//
// Delimiters are {{ expr }}, {% stmt %} and {# comment #}. A dash inside a
// delimiter ({%- or -%}) strips the whitespace on that side of the tag.
type Lexer struct {
	input    string
	file     string
	pos      int  // current position in input
	line     int  // current line number (1-based)
	col      int  // current column number (1-based)
	lastLine int  // line at start of current token
	lastCol  int  // column at start of current token
	trimNext bool // strip leading whitespace of the next text token
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input, file string) *Lexer {
	return &Lexer{
		input: input,
		file:  file,
		pos:   0,
		line:  1,
		col:   1,
	}
}

// Tokenize converts the input into a slice of tokens.
func (l *Lexer) Tokenize() ([]Token, error) {
	var tokens []Token

	for {
		tok, trimLeft, err := l.nextToken()
		if err != nil {
			return nil, err
		}

		if trimLeft && len(tokens) > 0 && tokens[len(tokens)-1].Type == TokenText {
			last := &tokens[len(tokens)-1]
			last.Value = strings.TrimRightFunc(last.Value, unicode.IsSpace)
			if last.Value == "" {
				tokens = tokens[:len(tokens)-1]
			}
		}

		switch {
		case tok.Type == TokenText && tok.Value == "":
			// Fully trimmed text or a comment.
		default:
			tokens = append(tokens, tok)
		}

		if tok.Type == TokenEOF {
			break
		}
	}

	return tokens, nil
}

// nextToken returns the next token and whether the whitespace before it must be trimmed.
func (l *Lexer) nextToken() (Token, bool, error) {
	if l.pos >= len(l.input) {
		return Token{Type: TokenEOF, Pos: l.position()}, false, nil
	}

	switch {
	case l.matchString("{{"):
		return l.scanTag(TokenExpr, "}}")
	case l.matchString("{%"):
		return l.scanTag(TokenStmt, "%}")
	case l.matchString("{#"):
		return l.scanComment()
	}

	tok, err := l.scanText()
	return tok, false, err
}

// scanText scans literal text until a delimiter or EOF.
func (l *Lexer) scanText() (Token, error) {
	l.markStart()
	start := l.pos

	for l.pos < len(l.input) {
		if l.matchString("{{") || l.matchString("{%") || l.matchString("{#") {
			break
		}
		l.advance()
	}

	if l.pos == start {
		return Token{}, NewLexError(l.position(), "unexpected state in lexer")
	}

	text := l.input[start:l.pos]
	if l.trimNext {
		text = strings.TrimLeftFunc(text, unicode.IsSpace)
		l.trimNext = false
	}

	return Token{
		Type:  TokenText,
		Value: text,
		Pos:   l.startPosition(),
	}, nil
}

// scanTag scans an expression or statement tag up to its closing delimiter.
// String literals are skipped so that a closing delimiter inside quotes does not end the tag.
func (l *Lexer) scanTag(typ TokenType, closing string) (Token, bool, error) {
	l.markStart()
	l.skip(2)

	trimLeft := false
	if l.matchString("-") {
		trimLeft = true
		l.skip(1)
	}

	contentStart := l.pos
	var quote rune

	for l.pos < len(l.input) {
		r := l.peek()

		if quote != 0 {
			if r == '\\' {
				l.advance()
			} else if r == quote {
				quote = 0
			}
			l.advance()
			continue
		}

		if r == '"' || r == '\'' {
			quote = r
			l.advance()
			continue
		}

		trimRight := l.matchString("-" + closing)
		if trimRight || l.matchString(closing) {
			content := strings.TrimSpace(l.input[contentStart:l.pos])
			if trimRight {
				l.skip(1)
			}
			l.skip(len(closing))
			l.trimNext = trimRight

			if content == "" {
				return Token{}, false, NewLexError(l.startPosition(), "empty tag")
			}
			return Token{Type: typ, Value: content, Pos: l.startPosition()}, trimLeft, nil
		}

		l.advance()
	}

	if quote != 0 {
		return Token{}, false, NewLexError(l.startPosition(), "unterminated string literal in tag")
	}
	return Token{}, false, NewLexErrorf(l.startPosition(), "unclosed tag: missing '%s'", closing)
}

// scanComment skips a {# comment #}. It yields an empty text token.
func (l *Lexer) scanComment() (Token, bool, error) {
	l.markStart()
	l.skip(2)

	trimLeft := false
	if l.matchString("-") {
		trimLeft = true
	}

	for l.pos < len(l.input) {
		if l.matchString("#}") {
			l.trimNext = l.pos > 0 && l.input[l.pos-1] == '-'
			l.skip(2)
			return Token{Type: TokenText, Pos: l.startPosition()}, trimLeft, nil
		}
		l.advance()
	}

	return Token{}, false, NewLexError(l.startPosition(), "unclosed comment: missing '#}'")
}

// Helper methods

// peek returns the current rune without advancing.
func (l *Lexer) peek() rune {
	if l.pos >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.pos:])
	return r
}

// advance moves to the next rune, updating position tracking.
func (l *Lexer) advance() {
	if l.pos >= len(l.input) {
		return
	}

	r, size := utf8.DecodeRuneInString(l.input[l.pos:])
	l.pos += size

	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
}

// skip advances over n runes.
func (l *Lexer) skip(n int) {
	for i := 0; i < n; i++ {
		l.advance()
	}
}

// matchString checks if the input at current position matches s.
func (l *Lexer) matchString(s string) bool {
	return strings.HasPrefix(l.input[l.pos:], s)
}

// markStart records the start position for the current token.
func (l *Lexer) markStart() {
	l.lastLine = l.line
	l.lastCol = l.col
}

// position returns the current position.
func (l *Lexer) position() Position {
	return Position{File: l.file, Line: l.line, Column: l.col}
}

// startPosition returns the position where the current token started.
func (l *Lexer) startPosition() Position {
	return Position{File: l.file, Line: l.lastLine, Column: l.lastCol}
}
