package parser

import (
	"github.com/wippyai/wbg-runtime/wat/internal/ast"
	"github.com/wippyai/wbg-runtime/wat/internal/token"
)

// field is one top-level module field, located by the position of its "(".
type field struct {
	kind string
	pos  int
}

func (p *Parser) parseModule() (*ast.Module, error) {
	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}
	if err := p.expectKeyword("module"); err != nil {
		return nil, err
	}
	p.optName()
	p.mod = &ast.Module{}

	var fields []field
	for {
		t := p.peek()
		if t == nil {
			return nil, p.errorf(&p.tokens[len(p.tokens)-1], "unexpected end of module")
		}
		if t.Type == token.RParen {
			p.pos++
			break
		}
		if t.Type != token.LParen || p.pos+1 >= len(p.tokens) || p.tokens[p.pos+1].Type != token.Keyword {
			return nil, p.errorf(t, "expected module field, got %q", t.Value)
		}
		fields = append(fields, field{kind: p.tokens[p.pos+1].Value, pos: p.pos})
		p.skipField()
	}
	end := p.pos

	// Explicit types keep their declared indices; inline signatures are
	// appended after them.
	for _, f := range fields {
		if f.kind == "type" {
			p.pos = f.pos
			if err := p.parseType(); err != nil {
				return nil, err
			}
		}
	}
	if err := p.collectNames(fields); err != nil {
		return nil, err
	}

	for _, f := range fields {
		p.pos = f.pos + 2
		var err error
		switch f.kind {
		case "type":
			continue
		case "import":
			err = p.parseImport()
		case "func":
			err = p.parseFunc()
		case "memory":
			err = p.parseMemory()
		case "global":
			err = p.parseGlobal()
		case "export":
			err = p.parseExport()
		case "start":
			err = p.parseStart()
		case "data":
			err = p.parseData()
		default:
			err = p.errorf(&p.tokens[f.pos+1], "unsupported module field %s", f.kind)
		}
		if err != nil {
			return nil, err
		}
	}
	p.pos = end
	return p.mod, nil
}

// collectNames assigns every function, global and memory its index.
// Imports come first in each index space, so they must precede
// definitions.
func (p *Parser) collectNames(fields []field) error {
	var funcs, globals, mems uint32
	defined := false
	bind := func(names map[string]uint32, name string, idx *uint32) {
		if name != "" {
			names[name] = *idx
		}
		*idx++
	}
	for _, f := range fields {
		p.pos = f.pos + 2
		switch f.kind {
		case "import":
			if defined {
				return p.errorf(&p.tokens[f.pos+1], "import after definition")
			}
			p.next()
			p.next()
			if _, err := p.expect(token.LParen); err != nil {
				return err
			}
			kind, err := p.expect(token.Keyword)
			if err != nil {
				return err
			}
			name := p.optName()
			switch kind.Value {
			case "func":
				bind(p.funcs, name, &funcs)
			case "global":
				bind(p.globals, name, &globals)
			case "memory":
				bind(p.mems, name, &mems)
			default:
				return p.errorf(kind, "unsupported import kind %s", kind.Value)
			}
		case "func":
			defined = true
			bind(p.funcs, p.optName(), &funcs)
		case "global":
			defined = true
			bind(p.globals, p.optName(), &globals)
		case "memory":
			defined = true
			bind(p.mems, p.optName(), &mems)
		}
	}
	return nil
}

func (p *Parser) parseType() error {
	p.pos += 2
	name := p.optName()
	if _, err := p.expect(token.LParen); err != nil {
		return err
	}
	if err := p.expectKeyword("func"); err != nil {
		return err
	}
	var ft ast.FuncType
	if err := p.signature(&ft, nil); err != nil {
		return err
	}
	if err := p.close(); err != nil {
		return err
	}
	if err := p.close(); err != nil {
		return err
	}
	if name != "" {
		p.types[name] = uint32(len(p.mod.Types))
	}
	p.mod.Types = append(p.mod.Types, ft)
	return nil
}

// signature reads an optional (type $t) use followed by (param ...) and
// (result ...) clauses. Named params are recorded in locals when it is
// non-nil.
func (p *Parser) signature(ft *ast.FuncType, locals map[string]uint32) error {
	if p.peekField("type") {
		p.pos += 2
		idx, err := p.index(p.types, "type")
		if err != nil {
			return err
		}
		if int(idx) >= len(p.mod.Types) {
			return p.errorf(&p.tokens[p.pos-1], "type index %d out of range", idx)
		}
		if err := p.close(); err != nil {
			return err
		}
		used := p.mod.Types[idx]
		if !p.peekField("param") && !p.peekField("result") {
			*ft = used
			return nil
		}
	}
	for p.peekField("param") {
		p.pos += 2
		if t := p.peek(); t != nil && t.Type == token.Ident {
			p.pos++
			vt, err := p.valType()
			if err != nil {
				return err
			}
			if locals != nil {
				locals[t.Value] = uint32(len(ft.Params))
			}
			ft.Params = append(ft.Params, vt)
			if err := p.close(); err != nil {
				return err
			}
			continue
		}
		for t := p.peek(); t != nil && t.Type != token.RParen; t = p.peek() {
			vt, err := p.valType()
			if err != nil {
				return err
			}
			ft.Params = append(ft.Params, vt)
		}
		if err := p.close(); err != nil {
			return err
		}
	}
	for p.peekField("result") {
		p.pos += 2
		for t := p.peek(); t != nil && t.Type != token.RParen; t = p.peek() {
			vt, err := p.valType()
			if err != nil {
				return err
			}
			ft.Results = append(ft.Results, vt)
		}
		if err := p.close(); err != nil {
			return err
		}
	}
	return nil
}

func (p *Parser) parseImport() error {
	module, err := p.name()
	if err != nil {
		return err
	}
	name, err := p.name()
	if err != nil {
		return err
	}
	if _, err := p.expect(token.LParen); err != nil {
		return err
	}
	kind := p.next()
	p.optName()
	imp := ast.Import{Module: module, Name: name}
	switch kind.Value {
	case "func":
		var ft ast.FuncType
		if err := p.signature(&ft, nil); err != nil {
			return err
		}
		imp.Kind = ast.KindFunc
		imp.Type = p.typeIndex(ft)
	case "memory":
		lim, err := p.limits()
		if err != nil {
			return err
		}
		imp.Kind = ast.KindMemory
		imp.Memory = &lim
	case "global":
		gt, err := p.globalType()
		if err != nil {
			return err
		}
		imp.Kind = ast.KindGlobal
		imp.Global = &gt
	}
	if err := p.close(); err != nil {
		return err
	}
	if err := p.close(); err != nil {
		return err
	}
	p.mod.Imports = append(p.mod.Imports, imp)
	return nil
}

func (p *Parser) limits() (ast.Limits, error) {
	lo, err := p.u32()
	if err != nil {
		return ast.Limits{}, err
	}
	lim := ast.Limits{Min: lo}
	if t := p.peek(); t != nil && t.Type == token.Number {
		hi, err := p.u32()
		if err != nil {
			return ast.Limits{}, err
		}
		lim.Max = &hi
	}
	return lim, nil
}

func (p *Parser) globalType() (ast.GlobalType, error) {
	if p.peekField("mut") {
		p.pos += 2
		vt, err := p.valType()
		if err != nil {
			return ast.GlobalType{}, err
		}
		return ast.GlobalType{Type: vt, Mutable: true}, p.close()
	}
	vt, err := p.valType()
	return ast.GlobalType{Type: vt}, err
}

// inlineExports reads (export "name") clauses that follow a definition's
// name and exports idx under each.
func (p *Parser) inlineExports(kind byte, idx uint32) error {
	for p.peekField("export") {
		p.pos += 2
		name, err := p.name()
		if err != nil {
			return err
		}
		if err := p.close(); err != nil {
			return err
		}
		p.mod.Exports = append(p.mod.Exports, ast.Export{Name: name, Kind: kind, Idx: idx})
	}
	if p.peekField("import") {
		return p.errorf(&p.tokens[p.pos+1], "inline imports are not supported")
	}
	return nil
}

func (p *Parser) parseMemory() error {
	idx := uint32(len(p.mod.Memories)) + p.imported(ast.KindMemory)
	p.optName()
	if err := p.inlineExports(ast.KindMemory, idx); err != nil {
		return err
	}
	lim, err := p.limits()
	if err != nil {
		return err
	}
	p.mod.Memories = append(p.mod.Memories, lim)
	return p.close()
}

func (p *Parser) parseGlobal() error {
	idx := uint32(len(p.mod.Globals)) + p.imported(ast.KindGlobal)
	p.optName()
	if err := p.inlineExports(ast.KindGlobal, idx); err != nil {
		return err
	}
	gt, err := p.globalType()
	if err != nil {
		return err
	}
	init, err := p.constExpr()
	if err != nil {
		return err
	}
	p.mod.Globals = append(p.mod.Globals, ast.Global{GlobalType: gt, Init: init})
	return p.close()
}

func (p *Parser) parseExport() error {
	name, err := p.name()
	if err != nil {
		return err
	}
	if _, err := p.expect(token.LParen); err != nil {
		return err
	}
	kind, err := p.expect(token.Keyword)
	if err != nil {
		return err
	}
	exp := ast.Export{Name: name}
	switch kind.Value {
	case "func":
		exp.Kind = ast.KindFunc
		exp.Idx, err = p.index(p.funcs, "func")
	case "memory":
		exp.Kind = ast.KindMemory
		exp.Idx, err = p.index(p.mems, "memory")
	case "global":
		exp.Kind = ast.KindGlobal
		exp.Idx, err = p.index(p.globals, "global")
	default:
		return p.errorf(kind, "unsupported export kind %s", kind.Value)
	}
	if err != nil {
		return err
	}
	p.mod.Exports = append(p.mod.Exports, exp)
	if err := p.close(); err != nil {
		return err
	}
	return p.close()
}

func (p *Parser) parseStart() error {
	idx, err := p.index(p.funcs, "func")
	if err != nil {
		return err
	}
	p.mod.Start = &idx
	return p.close()
}

// parseData reads an active segment for memory 0:
// (data (i32.const 8) "bytes" ...) or (data (offset (i32.const 8)) ...).
func (p *Parser) parseData() error {
	p.optName()
	if p.peekField("memory") {
		p.pos += 2
		idx, err := p.index(p.mems, "memory")
		if err != nil {
			return err
		}
		if idx != 0 {
			return p.errorf(&p.tokens[p.pos-1], "only memory 0 is supported")
		}
		if err := p.close(); err != nil {
			return err
		}
	}
	var offset []ast.Instr
	var err error
	if p.peekField("offset") {
		p.pos += 2
		if offset, err = p.constExpr(); err != nil {
			return err
		}
		if err := p.close(); err != nil {
			return err
		}
	} else {
		if t := p.peek(); t == nil || t.Type != token.LParen {
			return p.errorf(&p.tokens[p.pos-1], "data segment needs an offset")
		}
		if offset, err = p.folded(nil); err != nil {
			return err
		}
		offset = append(offset, ast.Instr{Opcode: ast.OpEnd})
	}
	var init []byte
	for t := p.peek(); t != nil && t.Type == token.String; t = p.peek() {
		b, err := p.text()
		if err != nil {
			return err
		}
		init = append(init, b...)
	}
	p.mod.Data = append(p.mod.Data, ast.Data{Offset: offset, Init: init})
	return p.close()
}

func (p *Parser) imported(kind byte) uint32 {
	var n uint32
	for _, imp := range p.mod.Imports {
		if imp.Kind == kind {
			n++
		}
	}
	return n
}
