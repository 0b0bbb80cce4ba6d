package template

import (
	"errors"
	"fmt"
	"html"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"strings"

	starctx "github.com/leapstack-labs/leapsite/internal/starlark"
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
)

// maxDepth bounds include and extends nesting.
const maxDepth = 32

// Environment loads templates from search paths and renders them.
// It caches parsed templates; create one per build run.
type Environment struct {
	SearchPaths []string
	Autoescape  bool

	cache map[string]*Template
}

// NewEnvironment creates an environment resolving names against searchPaths in order.
func NewEnvironment(searchPaths []string, autoescape bool) *Environment {
	return &Environment{
		SearchPaths: searchPaths,
		Autoescape:  autoescape,
		cache:       make(map[string]*Template),
	}
}

// Load finds name in the search paths and parses it.
func (e *Environment) Load(name string) (*Template, error) {
	if e == nil {
		return nil, fmt.Errorf("cannot load %q: no template search paths", name)
	}
	for _, dir := range e.SearchPaths {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if tmpl, ok := e.cache[path]; ok {
			return tmpl, nil
		}
		tmpl, err := e.ParseFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		return tmpl, err
	}
	return nil, fmt.Errorf("template %q not found in %s", name, strings.Join(e.SearchPaths, ", "))
}

// ParseFile reads and parses the template at path.
func (e *Environment) ParseFile(path string) (*Template, error) {
	if tmpl, ok := e.cache[path]; ok {
		return tmpl, nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	tmpl, err := Parse(string(content), path)
	if err != nil {
		return nil, err
	}
	e.cache[path] = tmpl
	return tmpl, nil
}

// RenderFile parses and renders the template at path.
func (e *Environment) RenderFile(path string, ctx *starctx.ExecutionContext) (string, error) {
	tmpl, err := e.ParseFile(path)
	if err != nil {
		return "", err
	}
	return e.Render(tmpl, ctx)
}

// Render executes a parsed template.
func (e *Environment) Render(tmpl *Template, ctx *starctx.ExecutionContext) (string, error) {
	r := &renderer{
		env:        e,
		ctx:        ctx,
		autoescape: e != nil && e.Autoescape,
		scopes:     []starlark.StringDict{{}},
	}
	if err := r.renderTemplate(tmpl, 0); err != nil {
		return "", err
	}
	return r.out.String(), nil
}

// RenderString parses and renders input without a loader: include and
// extends fail. Output is not escaped.
func RenderString(input, file string, ctx *starctx.ExecutionContext) (string, error) {
	tmpl, err := Parse(input, file)
	if err != nil {
		return "", err
	}
	var env *Environment
	return env.Render(tmpl, ctx)
}

type renderer struct {
	env        *Environment
	ctx        *starctx.ExecutionContext
	autoescape bool
	out        strings.Builder
	scopes     []starlark.StringDict
	blocks     map[string]*BlockNode
}

// renderTemplate resolves the inheritance chain of tmpl and renders its root.
func (r *renderer) renderTemplate(tmpl *Template, depth int) error {
	r.blocks = make(map[string]*BlockNode)

	for tmpl.Extends != "" {
		if depth >= maxDepth {
			return NewRenderError(Position{File: tmpl.File}, "template inheritance too deep")
		}
		depth++

		for name, block := range tmpl.Blocks {
			if _, overridden := r.blocks[name]; !overridden {
				r.blocks[name] = block
			}
		}
		// Top-level assignments in a child are visible to its parent.
		for _, node := range tmpl.Nodes {
			if set, ok := node.(*SetNode); ok {
				if err := r.renderNode(set, depth); err != nil {
					return err
				}
			}
		}

		pos := Position{File: tmpl.File}
		name, err := r.evalString(tmpl.Extends, pos)
		if err != nil {
			return err
		}
		parent, err := r.env.Load(name)
		if err != nil {
			return WrapRenderError(pos, "extends "+name, err)
		}
		tmpl = parent
	}

	return r.renderNodes(tmpl.Nodes, depth)
}

func (r *renderer) renderNodes(nodes []Node, depth int) error {
	for _, node := range nodes {
		if err := r.renderNode(node, depth); err != nil {
			return err
		}
	}
	return nil
}

func (r *renderer) renderNode(node Node, depth int) error {
	switch n := node.(type) {
	case *TextNode:
		r.out.WriteString(n.Text)
		return nil

	case *ExprNode:
		v, err := r.eval(n.Expr, n.Pos())
		if err != nil {
			return err
		}
		r.write(v)
		return nil

	case *IfBlock:
		return r.renderIf(n, depth)

	case *ForBlock:
		return r.renderFor(n, depth)

	case *SetNode:
		v, err := r.eval(n.Expr, n.Pos())
		if err != nil {
			return err
		}
		r.scopes[len(r.scopes)-1][n.Name] = v
		return nil

	case *IncludeNode:
		return r.renderInclude(n, depth)

	case *BlockNode:
		block := n
		if override, ok := r.blocks[n.Name]; ok {
			block = override
		}
		return r.renderNodes(block.Body, depth)

	default:
		return NewRenderErrorf(node.Pos(), "unexpected node %T", node)
	}
}

func (r *renderer) renderIf(n *IfBlock, depth int) error {
	ok, err := r.truth(n.Condition, n.Pos())
	if err != nil {
		return err
	}
	if ok {
		return r.renderNodes(n.Body, depth)
	}
	for _, branch := range n.ElseIfs {
		ok, err := r.truth(branch.Condition, branch.pos)
		if err != nil {
			return err
		}
		if ok {
			return r.renderNodes(branch.Body, depth)
		}
	}
	return r.renderNodes(n.Else, depth)
}

func (r *renderer) renderFor(n *ForBlock, depth int) error {
	v, err := r.eval(n.IterExpr, n.Pos())
	if err != nil {
		return err
	}

	items, err := iterItems(v, len(n.VarNames) > 1)
	if err != nil {
		return WrapRenderError(n.Pos(), "for loop", err)
	}
	if len(items) == 0 {
		return r.renderNodes(n.Else, depth)
	}

	r.scopes = append(r.scopes, starlark.StringDict{})
	defer func() { r.scopes = r.scopes[:len(r.scopes)-1] }()

	for i, item := range items {
		scope := r.scopes[len(r.scopes)-1]
		if err := bindLoopVars(scope, n.VarNames, item); err != nil {
			return WrapRenderError(n.Pos(), "for loop", err)
		}
		scope["loop"] = loopInfo(i, len(items))

		if err := r.renderNodes(n.Body, depth); err != nil {
			return err
		}
	}
	return nil
}

func (r *renderer) renderInclude(n *IncludeNode, depth int) error {
	if depth >= maxDepth {
		return NewRenderError(n.Pos(), "include nesting too deep")
	}
	name, err := r.evalString(n.Expr, n.Pos())
	if err != nil {
		return err
	}
	tmpl, err := r.env.Load(name)
	if err != nil {
		return WrapRenderError(n.Pos(), "include "+name, err)
	}

	sub := &renderer{
		env:        r.env,
		ctx:        r.ctx,
		autoescape: r.autoescape,
		scopes:     []starlark.StringDict{r.locals()},
	}
	if err := sub.renderTemplate(tmpl, depth+1); err != nil {
		return err
	}
	r.out.WriteString(sub.out.String())
	return nil
}

// write appends a value, escaping it unless it is markup or escaping is off.
func (r *renderer) write(v starlark.Value) {
	s := starctx.Stringify(v)
	if _, safe := v.(starctx.Markup); !safe && r.autoescape {
		s = html.EscapeString(s)
	}
	r.out.WriteString(s)
}

// locals flattens the scope stack; inner scopes win.
func (r *renderer) locals() starlark.StringDict {
	merged := make(starlark.StringDict)
	for _, scope := range r.scopes {
		maps.Copy(merged, scope)
	}
	return merged
}

func (r *renderer) eval(expr string, pos Position) (starlark.Value, error) {
	v, err := r.ctx.EvalExprWithLocals(expr, pos.File, pos.Line, r.locals())
	if err != nil {
		return nil, WrapRenderError(pos, "evaluation failed", err)
	}
	return v, nil
}

func (r *renderer) evalString(expr string, pos Position) (string, error) {
	v, err := r.eval(expr, pos)
	if err != nil {
		return "", err
	}
	s, ok := starlark.AsString(v)
	if !ok {
		if m, isMarkup := v.(starctx.Markup); isMarkup {
			return string(m), nil
		}
		return "", NewRenderErrorf(pos, "expected a template name, got %s", v.Type())
	}
	return s, nil
}

func (r *renderer) truth(expr string, pos Position) (bool, error) {
	v, err := r.eval(expr, pos)
	if err != nil {
		return false, err
	}
	return bool(v.Truth()), nil
}

// iterItems materializes the values a for loop visits. Mappings yield keys,
// or (key, value) pairs when the loop unpacks.
func iterItems(v starlark.Value, unpack bool) ([]starlark.Value, error) {
	if v == starlark.None {
		return nil, nil
	}
	if m, ok := v.(starlark.IterableMapping); ok && unpack {
		items := m.Items()
		out := make([]starlark.Value, len(items))
		for i, kv := range items {
			out[i] = kv
		}
		return out, nil
	}
	iterable, ok := v.(starlark.Iterable)
	if !ok {
		return nil, fmt.Errorf("cannot iterate over %s", v.Type())
	}
	var out []starlark.Value
	iter := iterable.Iterate()
	defer iter.Done()
	var item starlark.Value
	for iter.Next(&item) {
		out = append(out, item)
	}
	return out, nil
}

func bindLoopVars(scope starlark.StringDict, names []string, item starlark.Value) error {
	if len(names) == 1 {
		scope[names[0]] = item
		return nil
	}
	seq, ok := item.(starlark.Indexable)
	if !ok {
		return fmt.Errorf("cannot unpack %s into %d variables", item.Type(), len(names))
	}
	if seq.Len() != len(names) {
		return fmt.Errorf("cannot unpack %d values into %d variables", seq.Len(), len(names))
	}
	for i, name := range names {
		scope[name] = seq.Index(i)
	}
	return nil
}

func loopInfo(i, n int) starlark.Value {
	return starlarkstruct.FromStringDict(starlark.String("loop"), starlark.StringDict{
		"index":     starlark.MakeInt(i + 1),
		"index0":    starlark.MakeInt(i),
		"revindex":  starlark.MakeInt(n - i),
		"revindex0": starlark.MakeInt(n - i - 1),
		"first":     starlark.Bool(i == 0),
		"last":      starlark.Bool(i == n-1),
		"length":    starlark.MakeInt(n),
	})
}
