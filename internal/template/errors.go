package template

import "fmt"

// Error is a template failure tied to a position in a .njk source.
type Error interface {
	error
	Position() Position
}

// located formats messages as file:line:col, the way editors jump to them.
type located struct {
	pos Position
	msg string
}

func (e *located) Position() Position { return e.pos }

func (e *located) Error() string {
	if e.pos.File != "" {
		return fmt.Sprintf("%s:%d:%d: %s", e.pos.File, e.pos.Line, e.pos.Column, e.msg)
	}
	return fmt.Sprintf("%d:%d: %s", e.pos.Line, e.pos.Column, e.msg)
}

// LexError reports a malformed {{ }}, {% %} or {# #} delimiter.
type LexError struct {
	located
}

// NewLexError creates a lexer error.
func NewLexError(pos Position, msg string) *LexError {
	return &LexError{located{pos: pos, msg: msg}}
}

// NewLexErrorf creates a lexer error with a formatted message.
func NewLexErrorf(pos Position, format string, args ...any) *LexError {
	return NewLexError(pos, fmt.Sprintf(format, args...))
}

// ParseError reports a tag the parser cannot turn into a node, such as a
// malformed for, set or block tag or a second extends.
type ParseError struct {
	located
}

// NewParseError creates a parser error.
func NewParseError(pos Position, msg string) *ParseError {
	return &ParseError{located{pos: pos, msg: msg}}
}

// NewParseErrorf creates a parser error with a formatted message.
func NewParseErrorf(pos Position, format string, args ...any) *ParseError {
	return NewParseError(pos, fmt.Sprintf(format, args...))
}

// RenderError reports a failure while rendering a page: an expression that
// does not evaluate, or an include or extends that cannot be loaded.
type RenderError struct {
	located
	Cause error // starlark evaluation or loader error
}

// NewRenderError creates a render error.
func NewRenderError(pos Position, msg string) *RenderError {
	return &RenderError{located: located{pos: pos, msg: msg}}
}

// NewRenderErrorf creates a render error with a formatted message.
func NewRenderErrorf(pos Position, format string, args ...any) *RenderError {
	return NewRenderError(pos, fmt.Sprintf(format, args...))
}

// WrapRenderError records cause as the reason rendering stopped at pos.
func WrapRenderError(pos Position, msg string, cause error) *RenderError {
	return &RenderError{located: located{pos: pos, msg: msg}, Cause: cause}
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.located.Error(), e.Cause)
	}
	return e.located.Error()
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// UnmatchedBlockError reports an opening tag that is never closed, or a
// closing or branch tag with nothing open to attach to.
type UnmatchedBlockError struct {
	located
	BlockKind StmtKind
}

// closers pairs each opening tag with the tag that ends it.
var closers = map[StmtKind]StmtKind{
	StmtFor:   StmtEndFor,
	StmtIf:    StmtEndIf,
	StmtBlock: StmtEndBlock,
}

// openers lists the tag each closing or branch tag belongs to.
var openers = map[StmtKind]StmtKind{
	StmtEndFor:   StmtFor,
	StmtEndIf:    StmtIf,
	StmtElse:     StmtIf,
	StmtElif:     StmtIf,
	StmtEndBlock: StmtBlock,
}

// NewUnmatchedBlockError creates an unmatched tag error for kind.
func NewUnmatchedBlockError(pos Position, kind StmtKind) *UnmatchedBlockError {
	var msg string
	if end, ok := closers[kind]; ok {
		msg = fmt.Sprintf("{%% %s %%} is never closed (missing {%% %s %%})", kind, end)
	} else if open, ok := openers[kind]; ok {
		msg = fmt.Sprintf("{%% %s %%} has no matching {%% %s %%}", kind, open)
	} else {
		msg = fmt.Sprintf("unexpected {%% %s %%}", kind)
	}
	return &UnmatchedBlockError{located: located{pos: pos, msg: msg}, BlockKind: kind}
}
