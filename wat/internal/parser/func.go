package parser

import (
	"github.com/wippyai/wbg-runtime/wat/internal/ast"
	"github.com/wippyai/wbg-runtime/wat/internal/token"
)

// scope is the local name space of one function body.
type scope struct {
	locals map[string]uint32
}

func (p *Parser) parseFunc() error {
	idx := uint32(len(p.mod.Funcs)) + p.imported(ast.KindFunc)
	p.optName()
	if err := p.inlineExports(ast.KindFunc, idx); err != nil {
		return err
	}

	sc := &scope{locals: make(map[string]uint32)}
	var ft ast.FuncType
	if err := p.signature(&ft, sc.locals); err != nil {
		return err
	}

	fn := ast.Func{Type: p.typeIndex(ft)}
	for p.peekField("local") {
		p.pos += 2
		if t := p.peek(); t != nil && t.Type == token.Ident {
			p.pos++
			vt, err := p.valType()
			if err != nil {
				return err
			}
			sc.locals[t.Value] = uint32(len(ft.Params) + len(fn.Locals))
			fn.Locals = append(fn.Locals, vt)
		} else {
			for t := p.peek(); t != nil && t.Type != token.RParen; t = p.peek() {
				vt, err := p.valType()
				if err != nil {
					return err
				}
				fn.Locals = append(fn.Locals, vt)
			}
		}
		if err := p.close(); err != nil {
			return err
		}
	}

	body, err := p.body(sc)
	if err != nil {
		return err
	}
	fn.Body = append(body, ast.Instr{Opcode: ast.OpEnd})
	p.mod.Funcs = append(p.mod.Funcs, fn)
	return p.close()
}

// constExpr reads a global or data offset initializer.
func (p *Parser) constExpr() ([]ast.Instr, error) {
	instrs, err := p.body(nil)
	if err != nil {
		return nil, err
	}
	if len(instrs) == 0 {
		return nil, p.errorf(&p.tokens[p.pos-1], "empty constant expression")
	}
	return append(instrs, ast.Instr{Opcode: ast.OpEnd}), nil
}
