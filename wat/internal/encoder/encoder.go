// Package encoder serializes an ast.Module into the binary format.
package encoder

import (
	"bytes"

	"github.com/wippyai/wbg-runtime/wasm"
	"github.com/wippyai/wbg-runtime/wat/internal/ast"
)

var header = []byte{0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00} // magic + version

func Encode(m *ast.Module) []byte {
	var buf bytes.Buffer
	buf.Write(header)

	if len(m.Types) > 0 {
		section(&buf, ast.SectionType, func(sec *bytes.Buffer) { typeSection(sec, m) })
	}
	if len(m.Imports) > 0 {
		section(&buf, ast.SectionImport, func(sec *bytes.Buffer) { importSection(sec, m) })
	}
	if len(m.Funcs) > 0 {
		section(&buf, ast.SectionFunc, func(sec *bytes.Buffer) {
			wasm.WriteLEB128u(sec, uint32(len(m.Funcs)))
			for _, f := range m.Funcs {
				wasm.WriteLEB128u(sec, f.Type)
			}
		})
	}
	if len(m.Memories) > 0 {
		section(&buf, ast.SectionMemory, func(sec *bytes.Buffer) {
			wasm.WriteLEB128u(sec, uint32(len(m.Memories)))
			for _, lim := range m.Memories {
				limits(sec, lim)
			}
		})
	}
	if len(m.Globals) > 0 {
		section(&buf, ast.SectionGlobal, func(sec *bytes.Buffer) {
			wasm.WriteLEB128u(sec, uint32(len(m.Globals)))
			for _, g := range m.Globals {
				globalType(sec, g.GlobalType)
				instrs(sec, g.Init)
			}
		})
	}
	if len(m.Exports) > 0 {
		section(&buf, ast.SectionExport, func(sec *bytes.Buffer) {
			wasm.WriteLEB128u(sec, uint32(len(m.Exports)))
			for _, e := range m.Exports {
				name(sec, e.Name)
				sec.WriteByte(e.Kind)
				wasm.WriteLEB128u(sec, e.Idx)
			}
		})
	}
	if m.Start != nil {
		section(&buf, ast.SectionStart, func(sec *bytes.Buffer) { wasm.WriteLEB128u(sec, *m.Start) })
	}
	if len(m.Funcs) > 0 {
		section(&buf, ast.SectionCode, func(sec *bytes.Buffer) { codeSection(sec, m) })
	}
	if len(m.Data) > 0 {
		section(&buf, ast.SectionData, func(sec *bytes.Buffer) {
			wasm.WriteLEB128u(sec, uint32(len(m.Data)))
			for _, d := range m.Data {
				wasm.WriteLEB128u(sec, 0) // active, memory 0
				instrs(sec, d.Offset)
				wasm.WriteLEB128u(sec, uint32(len(d.Init)))
				sec.Write(d.Init)
			}
		})
	}
	return buf.Bytes()
}

func section(buf *bytes.Buffer, id byte, fill func(*bytes.Buffer)) {
	var sec bytes.Buffer
	fill(&sec)
	buf.WriteByte(id)
	wasm.WriteLEB128u(buf, uint32(sec.Len()))
	buf.Write(sec.Bytes())
}

func name(buf *bytes.Buffer, s string) {
	wasm.WriteLEB128u(buf, uint32(len(s)))
	buf.WriteString(s)
}

func limits(buf *bytes.Buffer, lim ast.Limits) {
	if lim.Max == nil {
		buf.WriteByte(0x00)
		wasm.WriteLEB128u(buf, lim.Min)
		return
	}
	buf.WriteByte(0x01)
	wasm.WriteLEB128u(buf, lim.Min)
	wasm.WriteLEB128u(buf, *lim.Max)
}

func globalType(buf *bytes.Buffer, gt ast.GlobalType) {
	buf.WriteByte(byte(gt.Type))
	if gt.Mutable {
		buf.WriteByte(0x01)
	} else {
		buf.WriteByte(0x00)
	}
}
