// Package template renders nunjucks-style page templates whose expressions are
// evaluated by Starlark. It supports {{ expr }} output with filters,
// {% stmt %} control flow, includes and single-parent layout inheritance.
package template

// Position tracks source location for error reporting.
type Position struct {
	File   string
	Line   int
	Column int
}

// Node is the interface for all template AST nodes.
type Node interface {
	Pos() Position
	node() // marker method to restrict implementation
}

// nodeBase provides common Position handling for all nodes.
type nodeBase struct {
	pos Position
}

func (n *nodeBase) Pos() Position { return n.pos }
func (n *nodeBase) node()         {}

// TextNode represents literal text (passed through unchanged).
type TextNode struct {
	nodeBase
	Text string
}

// ExprNode represents a {{ expr }} output.
// Expr is the Starlark expression after filter rewriting; Source is what the author wrote.
type ExprNode struct {
	nodeBase
	Expr   string
	Source string
}

// StmtKind identifies the type of statement.
type StmtKind int

// StmtKind constants for statement types.
const (
	StmtUnknown  StmtKind = iota // Unknown/invalid statement
	StmtFor                      // {% for x in items %}
	StmtEndFor                   // {% endfor %}
	StmtIf                       // {% if cond %}
	StmtElif                     // {% elif cond %}
	StmtElse                     // {% else %}
	StmtEndIf                    // {% endif %}
	StmtSet                      // {% set name = expr %}
	StmtInclude                  // {% include "path" %}
	StmtExtends                  // {% extends "path" %}
	StmtBlock                    // {% block name %}
	StmtEndBlock                 // {% endblock %}
)

func (k StmtKind) String() string {
	switch k {
	case StmtUnknown:
		return "unknown"
	case StmtFor:
		return "for"
	case StmtEndFor:
		return "endfor"
	case StmtIf:
		return "if"
	case StmtElif:
		return "elif"
	case StmtElse:
		return "else"
	case StmtEndIf:
		return "endif"
	case StmtSet:
		return "set"
	case StmtInclude:
		return "include"
	case StmtExtends:
		return "extends"
	case StmtBlock:
		return "block"
	case StmtEndBlock:
		return "endblock"
	default:
		return "unknown"
	}
}

// StmtNode is a parsed {% stmt %} tag before blocks are assembled.
type StmtNode struct {
	nodeBase
	Kind     StmtKind
	Expr     string   // Condition, iterator, value or path expression
	VarNames []string // Loop variables (for) or the assigned name (set)
	Name     string   // Block name
}

// ForBlock represents a complete for loop with its body.
type ForBlock struct {
	nodeBase
	VarNames []string // One name, or several to unpack each item
	IterExpr string   // Iterator expression (evaluated by Starlark)
	Body     []Node   // Nodes inside the loop
	Else     []Node   // Rendered when the iterable is empty
}

// IfBlock represents a complete if/elif/else conditional.
type IfBlock struct {
	nodeBase
	Condition string   // if condition expression
	Body      []Node   // Nodes for the if branch
	ElseIfs   []Branch // elif branches (may be empty)
	Else      []Node   // else branch (may be nil)
}

// Branch represents an elif branch.
type Branch struct {
	Condition string
	Body      []Node
	pos       Position
}

// SetNode assigns a variable in the current scope.
type SetNode struct {
	nodeBase
	Name string
	Expr string
}

// IncludeNode renders another template in place.
type IncludeNode struct {
	nodeBase
	Expr string
}

// BlockNode is a named region a child template may override.
type BlockNode struct {
	nodeBase
	Name string
	Body []Node
}

// Template represents a complete parsed template.
type Template struct {
	Nodes   []Node
	File    string                // Source file path
	Extends string                // Parent path expression, empty when standalone
	Blocks  map[string]*BlockNode // Every block defined in this template, by name
}
