// Package ast is the in-memory form of a parsed module, indexed the way
// the binary format indexes it.
package ast

// ValType is a core value type byte.
type ValType byte

const (
	I32       ValType = 0x7F
	I64       ValType = 0x7E
	F32       ValType = 0x7D
	F64       ValType = 0x7C
	Externref ValType = 0x6F
)

// BlockEmpty is the block type of a block with no params or results.
const BlockEmpty byte = 0x40

// Export and import kinds.
const (
	KindFunc   byte = 0
	KindMemory byte = 2
	KindGlobal byte = 3
)

// Section ids in the order they are emitted.
const (
	SectionType   byte = 1
	SectionImport byte = 2
	SectionFunc   byte = 3
	SectionMemory byte = 5
	SectionGlobal byte = 6
	SectionExport byte = 7
	SectionStart  byte = 8
	SectionCode   byte = 10
	SectionData   byte = 11
)

// Opcodes the encoder treats specially. Everything else is a bare byte.
const (
	OpBlock     byte = 0x02
	OpLoop      byte = 0x03
	OpIf        byte = 0x04
	OpElse      byte = 0x05
	OpEnd       byte = 0x0B
	OpBr        byte = 0x0C
	OpBrIf      byte = 0x0D
	OpBrTable   byte = 0x0E
	OpCall      byte = 0x10
	OpSelect    byte = 0x1B
	OpLocalGet  byte = 0x20
	OpLocalSet  byte = 0x21
	OpLocalTee  byte = 0x22
	OpGlobalGet byte = 0x23
	OpGlobalSet byte = 0x24
	OpI32Const  byte = 0x41
	OpI64Const  byte = 0x42
	OpF32Const  byte = 0x43
	OpF64Const  byte = 0x44
	OpMemSize   byte = 0x3F
	OpMemGrow   byte = 0x40
	OpPrefixFC  byte = 0xFC
)

// Module holds every section the text compiler can produce.
type Module struct {
	Types    []FuncType
	Imports  []Import
	Funcs    []Func
	Memories []Limits
	Globals  []Global
	Exports  []Export
	Start    *uint32
	Data     []Data
}

// FuncType is a function signature.
type FuncType struct {
	Params  []ValType
	Results []ValType
}

// Equal reports whether two signatures match exactly.
func (ft FuncType) Equal(o FuncType) bool {
	return sameTypes(ft.Params, o.Params) && sameTypes(ft.Results, o.Results)
}

func sameTypes(a, b []ValType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Import is one import entry. Exactly one of Type (func), Memory or
// Global applies, chosen by Kind.
type Import struct {
	Module string
	Name   string
	Memory *Limits
	Global *GlobalType
	Kind   byte
	Type   uint32
}

// Limits bound a memory in pages.
type Limits struct {
	Max *uint32
	Min uint32
}

// GlobalType is a global's value type and mutability.
type GlobalType struct {
	Type    ValType
	Mutable bool
}

// Global is a defined global with its constant initializer.
type Global struct {
	Init []Instr
	GlobalType
}

// Func is a defined function: its signature index, extra locals and
// body. The body ends with OpEnd.
type Func struct {
	Locals []ValType
	Body   []Instr
	Type   uint32
}

// Export names an indexed entity.
type Export struct {
	Name string
	Kind byte
	Idx  uint32
}

// Data is an active data segment for memory 0.
type Data struct {
	Offset []Instr
	Init   []byte
}

// Instr is one instruction. Imm holds the decoded immediate:
// uint32 for indices, int32/int64/float32/float64 for constants,
// BlockType, Memarg, []uint32 for br_table and FC-prefixed ops.
type Instr struct {
	Imm    any
	Opcode byte
}

// Memarg is a load or store immediate. Align is log2 of the byte alignment.
type Memarg struct {
	Align  uint32
	Offset uint32
}

// BlockType is either a simple type byte or a type index.
type BlockType struct {
	TypeIdx int32 // -1 when Simple applies
	Simple  byte
}
