package encoder

import (
	"bytes"

	"github.com/wippyai/wbg-runtime/wasm"
	"github.com/wippyai/wbg-runtime/wat/internal/ast"
)

const funcTypeMarker = 0x60

func typeSection(sec *bytes.Buffer, m *ast.Module) {
	wasm.WriteLEB128u(sec, uint32(len(m.Types)))
	for _, ft := range m.Types {
		sec.WriteByte(funcTypeMarker)
		valTypes(sec, ft.Params)
		valTypes(sec, ft.Results)
	}
}

func valTypes(buf *bytes.Buffer, vts []ast.ValType) {
	wasm.WriteLEB128u(buf, uint32(len(vts)))
	for _, vt := range vts {
		buf.WriteByte(byte(vt))
	}
}

func importSection(sec *bytes.Buffer, m *ast.Module) {
	wasm.WriteLEB128u(sec, uint32(len(m.Imports)))
	for _, imp := range m.Imports {
		name(sec, imp.Module)
		name(sec, imp.Name)
		sec.WriteByte(imp.Kind)
		switch imp.Kind {
		case ast.KindFunc:
			wasm.WriteLEB128u(sec, imp.Type)
		case ast.KindMemory:
			limits(sec, *imp.Memory)
		case ast.KindGlobal:
			globalType(sec, *imp.Global)
		}
	}
}

// codeSection writes each body with its locals run-length grouped.
func codeSection(sec *bytes.Buffer, m *ast.Module) {
	wasm.WriteLEB128u(sec, uint32(len(m.Funcs)))
	for _, f := range m.Funcs {
		var body bytes.Buffer
		type run struct {
			vt ast.ValType
			n  uint32
		}
		var runs []run
		for _, vt := range f.Locals {
			if len(runs) > 0 && runs[len(runs)-1].vt == vt {
				runs[len(runs)-1].n++
				continue
			}
			runs = append(runs, run{vt, 1})
		}
		wasm.WriteLEB128u(&body, uint32(len(runs)))
		for _, r := range runs {
			wasm.WriteLEB128u(&body, r.n)
			body.WriteByte(byte(r.vt))
		}
		instrs(&body, f.Body)

		wasm.WriteLEB128u(sec, uint32(body.Len()))
		sec.Write(body.Bytes())
	}
}
