package starlark

import (
	"fmt"
	"maps"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// fileOptions are the dialect options for template expressions.
var fileOptions = &syntax.FileOptions{}

// ExecutionContext provides all globals for rendering one template.
// Names that are not defined evaluate to None, so `{{ missing }}` renders
// as empty and `missing | default("x")` works.
type ExecutionContext struct {
	// Data holds the data document keys, exposed as top-level names.
	Data starlark.StringDict

	// Page describes the template being rendered.
	// Accessible as: page.path, page.name, page.url
	Page *PageInfo

	globals starlark.StringDict
}

// NewExecutionContext creates a new execution context.
func NewExecutionContext(data starlark.StringDict, page *PageInfo) *ExecutionContext {
	ctx := &ExecutionContext{
		Data: data,
		Page: page,
	}
	ctx.globals = Predeclared(data, page)
	return ctx
}

// Globals returns the combined globals dictionary for Starlark execution.
func (ctx *ExecutionContext) Globals() starlark.StringDict {
	return ctx.globals
}

// EvalExpr evaluates a single Starlark expression and returns the result.
func (ctx *ExecutionContext) EvalExpr(expr string, filename string, line int) (starlark.Value, error) {
	return ctx.EvalExprWithLocals(expr, filename, line, nil)
}

// EvalExprWithLocals evaluates a Starlark expression with additional local variables.
// This is used for expressions inside loops where loop variables need to be in scope.
func (ctx *ExecutionContext) EvalExprWithLocals(expr string, filename string, line int, locals starlark.StringDict) (starlark.Value, error) {
	node, err := fileOptions.ParseExpr(filename, expr, 0)
	if err != nil {
		return nil, &EvalError{File: filename, Line: line, Expr: expr, Message: err.Error()}
	}

	env := make(starlark.StringDict, len(ctx.globals)+len(locals))
	maps.Copy(env, ctx.globals)
	maps.Copy(env, locals)
	bindUndefined(node, env)

	result, err := starlark.EvalExprOptions(fileOptions, newThread(filename), node, env)
	if err != nil {
		return nil, &EvalError{File: filename, Line: line, Expr: expr, Message: err.Error()}
	}
	return result, nil
}

// EvalExprString evaluates a Starlark expression and returns its output form.
func (ctx *ExecutionContext) EvalExprString(expr string, filename string, line int) (string, error) {
	result, err := ctx.EvalExpr(expr, filename, line)
	if err != nil {
		return "", err
	}
	return Stringify(result), nil
}

// bindUndefined binds every free identifier missing from env to None.
func bindUndefined(node syntax.Node, env starlark.StringDict) {
	syntax.Walk(node, func(n syntax.Node) bool {
		id, ok := n.(*syntax.Ident)
		if !ok {
			return true
		}
		if _, defined := env[id.Name]; defined {
			return true
		}
		if _, builtin := starlark.Universe[id.Name]; builtin {
			return true
		}
		env[id.Name] = starlark.None
		return true
	})
}

func newThread(name string) *starlark.Thread {
	return &starlark.Thread{
		Name: name,
		Print: func(_ *starlark.Thread, _ string) {
			// Template execution should not print
		},
	}
}

// EvalError represents an error during Starlark expression evaluation.
type EvalError struct {
	File    string
	Line    int
	Expr    string
	Message string
}

func (e *EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: error evaluating %q: %s", e.File, e.Line, e.Expr, e.Message)
	}
	return fmt.Sprintf("%s: error evaluating %q: %s", e.File, e.Expr, e.Message)
}
