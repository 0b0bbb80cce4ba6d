package template

import (
	"regexp"
	"slices"
	"strings"
	"unicode"
)

// forHeader matches "x in items" and "k, v in items".
var forHeader = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*(?:\s*,\s*[A-Za-z_][A-Za-z0-9_]*)*)\s+in\s+(.+)$`)

// Parse tokenizes and parses a template.
func Parse(input, file string) (*Template, error) {
	tokens, err := NewLexer(input, file).Tokenize()
	if err != nil {
		return nil, err
	}

	p := &parser{
		tokens: tokens,
		tmpl:   &Template{File: file, Blocks: make(map[string]*BlockNode)},
	}

	nodes, end, err := p.parseNodes()
	if err != nil {
		return nil, err
	}
	if end != nil {
		return nil, NewUnmatchedBlockError(end.Pos(), end.Kind)
	}

	p.tmpl.Nodes = nodes
	return p.tmpl, nil
}

type parser struct {
	tokens []Token
	pos    int
	tmpl   *Template
}

// parseNodes consumes tokens until EOF or a statement whose kind is in terminators.
// The terminating statement is returned, nil at EOF.
func (p *parser) parseNodes(terminators ...StmtKind) ([]Node, *StmtNode, error) {
	var nodes []Node

	for p.pos < len(p.tokens) {
		tok := p.tokens[p.pos]
		p.pos++

		switch tok.Type {
		case TokenEOF:
			return nodes, nil, nil

		case TokenText:
			nodes = append(nodes, &TextNode{nodeBase: nodeBase{pos: tok.Pos}, Text: tok.Value})

		case TokenExpr:
			expr, err := rewriteFilters(tok.Value)
			if err != nil {
				return nil, nil, NewParseError(tok.Pos, err.Error())
			}
			nodes = append(nodes, &ExprNode{nodeBase: nodeBase{pos: tok.Pos}, Expr: expr, Source: tok.Value})

		case TokenStmt:
			stmt, err := parseStmt(tok)
			if err != nil {
				return nil, nil, err
			}
			if slices.Contains(terminators, stmt.Kind) {
				return nodes, stmt, nil
			}

			node, err := p.parseStmtBlock(stmt)
			if err != nil {
				return nil, nil, err
			}
			if node != nil {
				nodes = append(nodes, node)
			}
		}
	}

	return nodes, nil, nil
}

// parseStmtBlock builds the node an opening statement introduces.
func (p *parser) parseStmtBlock(stmt *StmtNode) (Node, error) {
	switch stmt.Kind {
	case StmtFor:
		return p.parseFor(stmt)
	case StmtIf:
		return p.parseIf(stmt)
	case StmtBlock:
		return p.parseBlock(stmt)
	case StmtSet:
		return &SetNode{nodeBase: stmt.nodeBase, Name: stmt.VarNames[0], Expr: stmt.Expr}, nil
	case StmtInclude:
		return &IncludeNode{nodeBase: stmt.nodeBase, Expr: stmt.Expr}, nil
	case StmtExtends:
		if p.tmpl.Extends != "" {
			return nil, NewParseError(stmt.Pos(), "template extends more than one parent")
		}
		p.tmpl.Extends = stmt.Expr
		return nil, nil
	default:
		return nil, NewUnmatchedBlockError(stmt.Pos(), stmt.Kind)
	}
}

func (p *parser) parseFor(stmt *StmtNode) (Node, error) {
	block := &ForBlock{nodeBase: stmt.nodeBase, VarNames: stmt.VarNames, IterExpr: stmt.Expr}

	body, end, err := p.parseNodes(StmtEndFor, StmtElse)
	if err != nil {
		return nil, err
	}
	if end == nil {
		return nil, NewUnmatchedBlockError(stmt.Pos(), StmtFor)
	}
	block.Body = body

	if end.Kind == StmtElse {
		elseBody, end, err := p.parseNodes(StmtEndFor)
		if err != nil {
			return nil, err
		}
		if end == nil {
			return nil, NewUnmatchedBlockError(stmt.Pos(), StmtFor)
		}
		block.Else = elseBody
	}

	return block, nil
}

func (p *parser) parseIf(stmt *StmtNode) (Node, error) {
	block := &IfBlock{nodeBase: stmt.nodeBase, Condition: stmt.Expr}

	body, end, err := p.parseNodes(StmtElif, StmtElse, StmtEndIf)
	if err != nil {
		return nil, err
	}
	block.Body = body

	for {
		if end == nil {
			return nil, NewUnmatchedBlockError(stmt.Pos(), StmtIf)
		}

		switch end.Kind {
		case StmtElif:
			branch := Branch{Condition: end.Expr, pos: end.Pos()}
			branch.Body, end, err = p.parseNodes(StmtElif, StmtElse, StmtEndIf)
			if err != nil {
				return nil, err
			}
			block.ElseIfs = append(block.ElseIfs, branch)

		case StmtElse:
			block.Else, end, err = p.parseNodes(StmtEndIf)
			if err != nil {
				return nil, err
			}
			if end == nil {
				return nil, NewUnmatchedBlockError(stmt.Pos(), StmtIf)
			}
			return block, nil

		default: // StmtEndIf
			return block, nil
		}
	}
}

func (p *parser) parseBlock(stmt *StmtNode) (Node, error) {
	if _, dup := p.tmpl.Blocks[stmt.Name]; dup {
		return nil, NewParseErrorf(stmt.Pos(), "block %q defined twice", stmt.Name)
	}

	body, end, err := p.parseNodes(StmtEndBlock)
	if err != nil {
		return nil, err
	}
	if end == nil {
		return nil, NewUnmatchedBlockError(stmt.Pos(), StmtBlock)
	}

	block := &BlockNode{nodeBase: stmt.nodeBase, Name: stmt.Name, Body: body}
	p.tmpl.Blocks[stmt.Name] = block
	return block, nil
}

// parseStmt classifies a statement tag and splits out its parts.
func parseStmt(tok Token) (*StmtNode, error) {
	keyword, rest := tok.Value, ""
	if i := strings.IndexFunc(tok.Value, unicode.IsSpace); i >= 0 {
		keyword, rest = tok.Value[:i], strings.TrimSpace(tok.Value[i:])
	}
	stmt := &StmtNode{nodeBase: nodeBase{pos: tok.Pos}}

	needsExpr := func() error {
		if rest == "" {
			return NewParseErrorf(tok.Pos, "'%s' requires an expression", keyword)
		}
		expr, err := rewriteFilters(rest)
		if err != nil {
			return NewParseError(tok.Pos, err.Error())
		}
		stmt.Expr = expr
		return nil
	}

	switch keyword {
	case "for":
		stmt.Kind = StmtFor
		m := forHeader.FindStringSubmatch(rest)
		if m == nil {
			return nil, NewParseErrorf(tok.Pos, "invalid for loop %q (expected 'for x in items')", tok.Value)
		}
		for _, name := range strings.Split(m[1], ",") {
			stmt.VarNames = append(stmt.VarNames, strings.TrimSpace(name))
		}
		rest = m[2]
		if err := needsExpr(); err != nil {
			return nil, err
		}

	case "if":
		stmt.Kind = StmtIf
		if err := needsExpr(); err != nil {
			return nil, err
		}

	case "elif", "elseif":
		stmt.Kind = StmtElif
		if err := needsExpr(); err != nil {
			return nil, err
		}

	case "else":
		stmt.Kind = StmtElse

	case "endif":
		stmt.Kind = StmtEndIf

	case "endfor":
		stmt.Kind = StmtEndFor

	case "endblock":
		stmt.Kind = StmtEndBlock

	case "set":
		stmt.Kind = StmtSet
		i := assignIndex(rest)
		if i < 0 {
			return nil, NewParseErrorf(tok.Pos, "invalid set %q (expected 'set name = value')", tok.Value)
		}
		name := strings.TrimSpace(rest[:i])
		if !isIdent(name) {
			return nil, NewParseErrorf(tok.Pos, "invalid variable name %q", name)
		}
		stmt.VarNames = []string{name}
		rest = strings.TrimSpace(rest[i+1:])
		if err := needsExpr(); err != nil {
			return nil, err
		}

	case "include":
		stmt.Kind = StmtInclude
		if err := needsExpr(); err != nil {
			return nil, err
		}

	case "extends":
		stmt.Kind = StmtExtends
		if err := needsExpr(); err != nil {
			return nil, err
		}

	case "block":
		stmt.Kind = StmtBlock
		if !isIdent(rest) {
			return nil, NewParseErrorf(tok.Pos, "invalid block name %q", rest)
		}
		stmt.Name = rest

	default:
		return nil, NewParseErrorf(tok.Pos, "unknown statement %q", keyword)
	}

	return stmt, nil
}

// assignIndex returns the index of the first single '=' (not part of ==, !=, <=, >=).
func assignIndex(s string) int {
	for i := 0; i < len(s); i++ {
		if s[i] != '=' {
			continue
		}
		if i+1 < len(s) && s[i+1] == '=' {
			i++
			continue
		}
		if i > 0 && strings.ContainsRune("=!<>", rune(s[i-1])) {
			continue
		}
		return i
	}
	return -1
}
