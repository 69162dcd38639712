package encoder

import (
	"bytes"
	"fmt"

	"github.com/wippyai/wbg-runtime/wasm"
	"github.com/wippyai/wbg-runtime/wat/internal/ast"
)

func instrs(buf *bytes.Buffer, body []ast.Instr) {
	for _, ins := range body {
		EncodeInstr(buf, ins)
	}
}

// EncodeInstr writes one instruction. The immediate's Go type selects
// its encoding.
func EncodeInstr(buf *bytes.Buffer, ins ast.Instr) {
	buf.WriteByte(ins.Opcode)

	switch imm := ins.Imm.(type) {
	case nil:
	case uint32:
		wasm.WriteLEB128u(buf, imm)
	case int32:
		wasm.WriteLEB128s(buf, imm)
	case int64:
		wasm.WriteLEB128s64(buf, imm)
	case float32:
		wasm.WriteFloat32(buf, imm)
	case float64:
		wasm.WriteFloat64(buf, imm)
	case ast.BlockType:
		if imm.TypeIdx >= 0 {
			wasm.WriteLEB128s64(buf, int64(imm.TypeIdx))
		} else {
			buf.WriteByte(imm.Simple)
		}
	case ast.Memarg:
		wasm.WriteLEB128u(buf, imm.Align)
		wasm.WriteLEB128u(buf, imm.Offset)
	case []uint32:
		if ins.Opcode == ast.OpBrTable {
			// the last label is the default
			wasm.WriteLEB128u(buf, uint32(len(imm)-1))
		}
		for _, v := range imm {
			wasm.WriteLEB128u(buf, v)
		}
	default:
		panic(fmt.Sprintf("encoder: opcode 0x%02X has unsupported immediate %T", ins.Opcode, ins.Imm))
	}
}
