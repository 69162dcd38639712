package parser

import (
	"fmt"
	"math/bits"
	"strconv"
	"strings"

	"github.com/wippyai/wbg-runtime/wat/internal/ast"
	"github.com/wippyai/wbg-runtime/wat/internal/opcode"
	"github.com/wippyai/wbg-runtime/wat/internal/token"
)

// body reads instructions up to the ")" closing the enclosing form.
// A nil scope means a constant expression with no locals.
func (p *Parser) body(sc *scope) ([]ast.Instr, error) {
	out, stop, err := p.seq(sc)
	if err != nil {
		return nil, err
	}
	if stop != nil {
		return nil, p.errorf(stop, "unexpected %s", stop.Value)
	}
	return out, nil
}

// seq reads instructions until ")" or a flat "end" or "else", which is
// returned without being consumed.
func (p *Parser) seq(sc *scope) ([]ast.Instr, *token.Token, error) {
	var out []ast.Instr
	for {
		t := p.peek()
		if t == nil {
			return nil, nil, fmt.Errorf("unexpected end of input in instruction sequence")
		}
		switch t.Type {
		case token.RParen:
			return out, nil, nil
		case token.LParen:
			ins, err := p.folded(sc)
			if err != nil {
				return nil, nil, err
			}
			out = append(out, ins...)
		case token.Keyword:
			if t.Value == "end" || t.Value == "else" {
				return out, t, nil
			}
			p.pos++
			ins, err := p.flat(t, sc)
			if err != nil {
				return nil, nil, err
			}
			out = append(out, ins...)
		default:
			return nil, nil, p.errorf(t, "expected instruction, got %q", t.Value)
		}
	}
}

// folded reads one parenthesized instruction. Operands nested inside it
// are emitted before the instruction itself.
func (p *Parser) folded(sc *scope) ([]ast.Instr, error) {
	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}
	t, err := p.expect(token.Keyword)
	if err != nil {
		return nil, err
	}

	switch t.Value {
	case "block", "loop":
		head, err := p.blockHead(t)
		if err != nil {
			return nil, err
		}
		inner, err := p.body(sc)
		if err != nil {
			return nil, err
		}
		p.popLabel()
		out := append([]ast.Instr{head}, inner...)
		return append(out, ast.Instr{Opcode: ast.OpEnd}), p.close()

	case "if":
		head, err := p.blockHead(t)
		if err != nil {
			return nil, err
		}
		// Conditions sit outside the if's own label.
		label := p.labels[len(p.labels)-1]
		p.popLabel()
		var out []ast.Instr
		for !p.peekField("then") {
			if nt := p.peek(); nt == nil || nt.Type != token.LParen {
				return nil, p.errorf(t, "if without then")
			}
			cond, err := p.folded(sc)
			if err != nil {
				return nil, err
			}
			out = append(out, cond...)
		}
		p.pushLabel(label)
		out = append(out, head)

		p.pos += 2
		then, err := p.body(sc)
		if err != nil {
			return nil, err
		}
		if err := p.close(); err != nil {
			return nil, err
		}
		out = append(out, then...)

		if p.peekField("else") {
			p.pos += 2
			els, err := p.body(sc)
			if err != nil {
				return nil, err
			}
			if err := p.close(); err != nil {
				return nil, err
			}
			out = append(out, ast.Instr{Opcode: ast.OpElse})
			out = append(out, els...)
		}
		p.popLabel()
		return append(out, ast.Instr{Opcode: ast.OpEnd}), p.close()
	}

	ins, err := p.plain(t, sc)
	if err != nil {
		return nil, err
	}
	var operands []ast.Instr
	for nt := p.peek(); nt != nil && nt.Type == token.LParen; nt = p.peek() {
		o, err := p.folded(sc)
		if err != nil {
			return nil, err
		}
		operands = append(operands, o...)
	}
	return append(operands, ins), p.close()
}

// flat reads one instruction in linear form; t is already consumed.
func (p *Parser) flat(t *token.Token, sc *scope) ([]ast.Instr, error) {
	switch t.Value {
	case "block", "loop", "if":
	default:
		ins, err := p.plain(t, sc)
		if err != nil {
			return nil, err
		}
		return []ast.Instr{ins}, nil
	}

	head, err := p.blockHead(t)
	if err != nil {
		return nil, err
	}
	inner, stop, err := p.seq(sc)
	if err != nil {
		return nil, err
	}
	out := append([]ast.Instr{head}, inner...)
	if stop != nil && stop.Value == "else" {
		if t.Value != "if" {
			return nil, p.errorf(stop, "else outside if")
		}
		p.pos++
		p.optName()
		els, s, err := p.seq(sc)
		if err != nil {
			return nil, err
		}
		out = append(out, ast.Instr{Opcode: ast.OpElse})
		out = append(out, els...)
		stop = s
	}
	if stop == nil || stop.Value != "end" {
		return nil, p.errorf(t, "%s without end", t.Value)
	}
	p.pos++
	p.optName()
	p.popLabel()
	return append(out, ast.Instr{Opcode: ast.OpEnd}), nil
}

// blockHead reads a block's optional label and type and pushes the label.
func (p *Parser) blockHead(t *token.Token) (ast.Instr, error) {
	code := ast.OpBlock
	switch t.Value {
	case "loop":
		code = ast.OpLoop
	case "if":
		code = ast.OpIf
	}
	label := p.optName()
	bt, err := p.blockType()
	if err != nil {
		return ast.Instr{}, err
	}
	p.pushLabel(label)
	return ast.Instr{Opcode: code, Imm: bt}, nil
}

func (p *Parser) blockType() (ast.BlockType, error) {
	bt := ast.BlockType{TypeIdx: -1, Simple: ast.BlockEmpty}
	var ft ast.FuncType
	if err := p.signature(&ft, nil); err != nil {
		return bt, err
	}
	switch {
	case len(ft.Params) == 0 && len(ft.Results) == 0:
	case len(ft.Params) == 0 && len(ft.Results) == 1:
		bt.Simple = byte(ft.Results[0])
	default:
		bt.TypeIdx = int32(p.typeIndex(ft))
	}
	return bt, nil
}

// plain reads the immediates of a non-block instruction.
func (p *Parser) plain(t *token.Token, sc *scope) (ast.Instr, error) {
	if t.Value == "br_table" {
		return p.brTable(t)
	}
	info, ok := opcode.Lookup(t.Value)
	if !ok {
		return ast.Instr{}, p.errorf(t, "unknown instruction %s", t.Value)
	}
	ins := ast.Instr{Opcode: info.Code}
	var err error
	switch info.Imm {
	case opcode.ImmLocal:
		if sc == nil {
			return ins, p.errorf(t, "%s in constant expression", t.Value)
		}
		ins.Imm, err = p.index(sc.locals, "local")
	case opcode.ImmGlobal:
		ins.Imm, err = p.index(p.globals, "global")
	case opcode.ImmFunc:
		ins.Imm, err = p.index(p.funcs, "func")
	case opcode.ImmLabel:
		ins.Imm, err = p.label()
	case opcode.ImmI32:
		ins.Imm, err = p.i32()
	case opcode.ImmI64:
		ins.Imm, err = p.i64()
	case opcode.ImmF32:
		var v float64
		v, err = p.float(32)
		ins.Imm = float32(v)
	case opcode.ImmF64:
		ins.Imm, err = p.float(64)
	case opcode.ImmMem:
		ins.Imm, err = p.memarg(info.Align)
	case opcode.ImmMemIdx:
		ins.Imm = uint32(0)
	case opcode.ImmFC:
		imm := []uint32{info.Sub}
		for i := 0; i < info.Zeros; i++ {
			imm = append(imm, 0)
		}
		ins.Imm = imm
	}
	return ins, err
}

func (p *Parser) brTable(t *token.Token) (ast.Instr, error) {
	var labels []uint32
	for nt := p.peek(); nt != nil && (nt.Type == token.Number || nt.Type == token.Ident); nt = p.peek() {
		l, err := p.label()
		if err != nil {
			return ast.Instr{}, err
		}
		labels = append(labels, l)
	}
	if len(labels) == 0 {
		return ast.Instr{}, p.errorf(t, "br_table needs a default label")
	}
	return ast.Instr{Opcode: ast.OpBrTable, Imm: labels}, nil
}

// memarg reads optional offset= and align= keywords. align is given in
// bytes and stored as its log2.
func (p *Parser) memarg(natural uint32) (ast.Memarg, error) {
	m := ast.Memarg{Align: natural}
	for t := p.peek(); t != nil && t.Type == token.Keyword; t = p.peek() {
		key, val, ok := strings.Cut(t.Value, "=")
		if !ok || (key != "offset" && key != "align") {
			break
		}
		p.pos++
		n, err := strconv.ParseUint(strings.ReplaceAll(val, "_", ""), 0, 32)
		if err != nil {
			return m, p.errorf(t, "invalid %s", t.Value)
		}
		if key == "offset" {
			m.Offset = uint32(n)
			continue
		}
		if n == 0 || n&(n-1) != 0 {
			return m, p.errorf(t, "alignment %d is not a power of two", n)
		}
		m.Align = uint32(bits.TrailingZeros64(n))
	}
	return m, nil
}
