// Package parser turns a token stream into an ast.Module.
package parser

import (
	"fmt"

	"github.com/wippyai/wbg-runtime/wat/internal/ast"
	"github.com/wippyai/wbg-runtime/wat/internal/token"
)

// Parser resolves names in one module. Module-level names are collected
// before any body is parsed, so references may point forward.
type Parser struct {
	mod     *ast.Module
	types   map[string]uint32
	funcs   map[string]uint32
	globals map[string]uint32
	mems    map[string]uint32
	tokens  []token.Token
	labels  []string
	pos     int
}

// New returns a parser over toks.
func New(toks []token.Token) *Parser {
	return &Parser{
		tokens:  toks,
		types:   make(map[string]uint32),
		funcs:   make(map[string]uint32),
		globals: make(map[string]uint32),
		mems:    make(map[string]uint32),
	}
}

// Parse reads exactly one module.
func (p *Parser) Parse() (*ast.Module, error) {
	mod, err := p.parseModule()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t != nil {
		return nil, p.errorf(t, "unexpected %s after module", t.Type)
	}
	return mod, nil
}

func (p *Parser) peek() *token.Token {
	if p.pos >= len(p.tokens) {
		return nil
	}
	return &p.tokens[p.pos]
}

// peekField reports whether the next tokens are "(" kw.
func (p *Parser) peekField(kw string) bool {
	if p.pos+1 >= len(p.tokens) {
		return false
	}
	a, b := p.tokens[p.pos], p.tokens[p.pos+1]
	return a.Type == token.LParen && b.Type == token.Keyword && b.Value == kw
}

func (p *Parser) next() *token.Token {
	t := p.peek()
	if t != nil {
		p.pos++
	}
	return t
}

func (p *Parser) expect(typ token.Type) (*token.Token, error) {
	t := p.next()
	if t == nil {
		return nil, fmt.Errorf("unexpected end of input, expected %s", typ)
	}
	if t.Type != typ {
		return nil, p.errorf(t, "expected %s, got %q", typ, t.Value)
	}
	return t, nil
}

func (p *Parser) expectKeyword(kw string) error {
	t, err := p.expect(token.Keyword)
	if err != nil {
		return err
	}
	if t.Value != kw {
		return p.errorf(t, "expected %q, got %q", kw, t.Value)
	}
	return nil
}

func (p *Parser) close() error {
	_, err := p.expect(token.RParen)
	return err
}

// optName consumes a $name if one is next.
func (p *Parser) optName() string {
	if t := p.peek(); t != nil && t.Type == token.Ident {
		p.pos++
		return t.Value
	}
	return ""
}

// skipField moves past the field whose "(" is at the current position.
func (p *Parser) skipField() {
	depth := 0
	for t := p.next(); t != nil; t = p.next() {
		switch t.Type {
		case token.LParen:
			depth++
		case token.RParen:
			depth--
			if depth == 0 {
				return
			}
		}
	}
}

func (p *Parser) errorf(t *token.Token, format string, args ...any) error {
	return fmt.Errorf("line %d: %s", t.Line, fmt.Sprintf(format, args...))
}

func (p *Parser) valType() (ast.ValType, error) {
	t, err := p.expect(token.Keyword)
	if err != nil {
		return 0, err
	}
	switch t.Value {
	case "i32":
		return ast.I32, nil
	case "i64":
		return ast.I64, nil
	case "f32":
		return ast.F32, nil
	case "f64":
		return ast.F64, nil
	case "externref":
		return ast.Externref, nil
	}
	return 0, p.errorf(t, "unknown value type %s", t.Value)
}

// index reads a numeric index or a $name looked up in names.
func (p *Parser) index(names map[string]uint32, what string) (uint32, error) {
	t := p.peek()
	if t == nil {
		return 0, fmt.Errorf("unexpected end of input, expected %s index", what)
	}
	if t.Type == token.Ident {
		p.pos++
		idx, ok := names[t.Value]
		if !ok {
			return 0, p.errorf(t, "unknown %s %s", what, t.Value)
		}
		return idx, nil
	}
	return p.u32()
}

func (p *Parser) typeIndex(ft ast.FuncType) uint32 {
	for i, t := range p.mod.Types {
		if t.Equal(ft) {
			return uint32(i)
		}
	}
	p.mod.Types = append(p.mod.Types, ft)
	return uint32(len(p.mod.Types) - 1)
}

func (p *Parser) pushLabel(name string) { p.labels = append(p.labels, name) }
func (p *Parser) popLabel()             { p.labels = p.labels[:len(p.labels)-1] }

// label resolves a $label or numeric depth to a relative depth.
func (p *Parser) label() (uint32, error) {
	t := p.peek()
	if t != nil && t.Type == token.Ident {
		p.pos++
		for i := len(p.labels) - 1; i >= 0; i-- {
			if p.labels[i] == t.Value {
				return uint32(len(p.labels) - 1 - i), nil
			}
		}
		return 0, p.errorf(t, "unknown label %s", t.Value)
	}
	return p.u32()
}
