// Package opcode maps instruction mnemonics to their encodings.
package opcode

// Imm is the immediate an instruction takes in text form.
type Imm int

const (
	ImmNone   Imm = iota
	ImmLocal      // local index or $name
	ImmGlobal     // global index or $name
	ImmFunc       // function index or $name
	ImmLabel      // label depth or $label
	ImmI32
	ImmI64
	ImmF32
	ImmF64
	ImmMem    // memarg: offset= align=
	ImmMemIdx // memory.size/grow, always 0
	ImmFC     // 0xFC sub-opcode plus zero-filled memory indices
)

// Info describes one mnemonic.
type Info struct {
	Code  byte
	Imm   Imm
	Align uint32 // natural alignment (log2) for memory access
	Sub   uint32 // 0xFC sub-opcode
	Zeros int    // trailing reserved index bytes for 0xFC ops
}

// Lookup returns the encoding of name.
func Lookup(name string) (Info, bool) {
	if info, ok := plain[name]; ok {
		return info, true
	}
	if info, ok := memory[name]; ok {
		return info, true
	}
	info, ok := prefixed[name]
	return info, ok
}

func op(code byte) Info { return Info{Code: code} }

var plain = map[string]Info{
	"unreachable": op(0x00),
	"nop":         op(0x01),
	"return":      op(0x0F),
	"drop":        op(0x1A),
	"select":      op(0x1B),

	"br":    {Code: 0x0C, Imm: ImmLabel},
	"br_if": {Code: 0x0D, Imm: ImmLabel},
	"call":  {Code: 0x10, Imm: ImmFunc},

	"local.get":  {Code: 0x20, Imm: ImmLocal},
	"local.set":  {Code: 0x21, Imm: ImmLocal},
	"local.tee":  {Code: 0x22, Imm: ImmLocal},
	"global.get": {Code: 0x23, Imm: ImmGlobal},
	"global.set": {Code: 0x24, Imm: ImmGlobal},

	"memory.size": {Code: 0x3F, Imm: ImmMemIdx},
	"memory.grow": {Code: 0x40, Imm: ImmMemIdx},

	"i32.const": {Code: 0x41, Imm: ImmI32},
	"i64.const": {Code: 0x42, Imm: ImmI64},
	"f32.const": {Code: 0x43, Imm: ImmF32},
	"f64.const": {Code: 0x44, Imm: ImmF64},

	"i32.eqz":  op(0x45),
	"i32.eq":   op(0x46),
	"i32.ne":   op(0x47),
	"i32.lt_s": op(0x48),
	"i32.lt_u": op(0x49),
	"i32.gt_s": op(0x4A),
	"i32.gt_u": op(0x4B),
	"i32.le_s": op(0x4C),
	"i32.le_u": op(0x4D),
	"i32.ge_s": op(0x4E),
	"i32.ge_u": op(0x4F),

	"i64.eqz":  op(0x50),
	"i64.eq":   op(0x51),
	"i64.ne":   op(0x52),
	"i64.lt_s": op(0x53),
	"i64.lt_u": op(0x54),
	"i64.gt_s": op(0x55),
	"i64.gt_u": op(0x56),
	"i64.le_s": op(0x57),
	"i64.le_u": op(0x58),
	"i64.ge_s": op(0x59),
	"i64.ge_u": op(0x5A),

	"f32.eq": op(0x5B),
	"f32.ne": op(0x5C),
	"f32.lt": op(0x5D),
	"f32.gt": op(0x5E),
	"f32.le": op(0x5F),
	"f32.ge": op(0x60),
	"f64.eq": op(0x61),
	"f64.ne": op(0x62),
	"f64.lt": op(0x63),
	"f64.gt": op(0x64),
	"f64.le": op(0x65),
	"f64.ge": op(0x66),

	"i32.clz":    op(0x67),
	"i32.ctz":    op(0x68),
	"i32.popcnt": op(0x69),
	"i32.add":    op(0x6A),
	"i32.sub":    op(0x6B),
	"i32.mul":    op(0x6C),
	"i32.div_s":  op(0x6D),
	"i32.div_u":  op(0x6E),
	"i32.rem_s":  op(0x6F),
	"i32.rem_u":  op(0x70),
	"i32.and":    op(0x71),
	"i32.or":     op(0x72),
	"i32.xor":    op(0x73),
	"i32.shl":    op(0x74),
	"i32.shr_s":  op(0x75),
	"i32.shr_u":  op(0x76),
	"i32.rotl":   op(0x77),
	"i32.rotr":   op(0x78),

	"i64.clz":    op(0x79),
	"i64.ctz":    op(0x7A),
	"i64.popcnt": op(0x7B),
	"i64.add":    op(0x7C),
	"i64.sub":    op(0x7D),
	"i64.mul":    op(0x7E),
	"i64.div_s":  op(0x7F),
	"i64.div_u":  op(0x80),
	"i64.rem_s":  op(0x81),
	"i64.rem_u":  op(0x82),
	"i64.and":    op(0x83),
	"i64.or":     op(0x84),
	"i64.xor":    op(0x85),
	"i64.shl":    op(0x86),
	"i64.shr_s":  op(0x87),
	"i64.shr_u":  op(0x88),
	"i64.rotl":   op(0x89),
	"i64.rotr":   op(0x8A),

	"f32.abs":      op(0x8B),
	"f32.neg":      op(0x8C),
	"f32.ceil":     op(0x8D),
	"f32.floor":    op(0x8E),
	"f32.trunc":    op(0x8F),
	"f32.nearest":  op(0x90),
	"f32.sqrt":     op(0x91),
	"f32.add":      op(0x92),
	"f32.sub":      op(0x93),
	"f32.mul":      op(0x94),
	"f32.div":      op(0x95),
	"f32.min":      op(0x96),
	"f32.max":      op(0x97),
	"f32.copysign": op(0x98),

	"f64.abs":      op(0x99),
	"f64.neg":      op(0x9A),
	"f64.ceil":     op(0x9B),
	"f64.floor":    op(0x9C),
	"f64.trunc":    op(0x9D),
	"f64.nearest":  op(0x9E),
	"f64.sqrt":     op(0x9F),
	"f64.add":      op(0xA0),
	"f64.sub":      op(0xA1),
	"f64.mul":      op(0xA2),
	"f64.div":      op(0xA3),
	"f64.min":      op(0xA4),
	"f64.max":      op(0xA5),
	"f64.copysign": op(0xA6),

	"i32.wrap_i64":        op(0xA7),
	"i32.trunc_f32_s":     op(0xA8),
	"i32.trunc_f32_u":     op(0xA9),
	"i32.trunc_f64_s":     op(0xAA),
	"i32.trunc_f64_u":     op(0xAB),
	"i64.extend_i32_s":    op(0xAC),
	"i64.extend_i32_u":    op(0xAD),
	"i64.trunc_f32_s":     op(0xAE),
	"i64.trunc_f32_u":     op(0xAF),
	"i64.trunc_f64_s":     op(0xB0),
	"i64.trunc_f64_u":     op(0xB1),
	"f32.convert_i32_s":   op(0xB2),
	"f32.convert_i32_u":   op(0xB3),
	"f32.convert_i64_s":   op(0xB4),
	"f32.convert_i64_u":   op(0xB5),
	"f32.demote_f64":      op(0xB6),
	"f64.convert_i32_s":   op(0xB7),
	"f64.convert_i32_u":   op(0xB8),
	"f64.convert_i64_s":   op(0xB9),
	"f64.convert_i64_u":   op(0xBA),
	"f64.promote_f32":     op(0xBB),
	"i32.reinterpret_f32": op(0xBC),
	"i64.reinterpret_f64": op(0xBD),
	"f32.reinterpret_i32": op(0xBE),
	"f64.reinterpret_i64": op(0xBF),

	"i32.extend8_s":  op(0xC0),
	"i32.extend16_s": op(0xC1),
	"i64.extend8_s":  op(0xC2),
	"i64.extend16_s": op(0xC3),
	"i64.extend32_s": op(0xC4),
}

func mem(code byte, align uint32) Info {
	return Info{Code: code, Imm: ImmMem, Align: align}
}

var memory = map[string]Info{
	"i32.load":     mem(0x28, 2),
	"i64.load":     mem(0x29, 3),
	"f32.load":     mem(0x2A, 2),
	"f64.load":     mem(0x2B, 3),
	"i32.load8_s":  mem(0x2C, 0),
	"i32.load8_u":  mem(0x2D, 0),
	"i32.load16_s": mem(0x2E, 1),
	"i32.load16_u": mem(0x2F, 1),
	"i64.load8_s":  mem(0x30, 0),
	"i64.load8_u":  mem(0x31, 0),
	"i64.load16_s": mem(0x32, 1),
	"i64.load16_u": mem(0x33, 1),
	"i64.load32_s": mem(0x34, 2),
	"i64.load32_u": mem(0x35, 2),

	"i32.store":   mem(0x36, 2),
	"i64.store":   mem(0x37, 3),
	"f32.store":   mem(0x38, 2),
	"f64.store":   mem(0x39, 3),
	"i32.store8":  mem(0x3A, 0),
	"i32.store16": mem(0x3B, 1),
	"i64.store8":  mem(0x3C, 0),
	"i64.store16": mem(0x3D, 1),
	"i64.store32": mem(0x3E, 2),
}

func fc(sub uint32, zeros int) Info {
	return Info{Code: 0xFC, Imm: ImmFC, Sub: sub, Zeros: zeros}
}

var prefixed = map[string]Info{
	"i32.trunc_sat_f32_s": fc(0, 0),
	"i32.trunc_sat_f32_u": fc(1, 0),
	"i32.trunc_sat_f64_s": fc(2, 0),
	"i32.trunc_sat_f64_u": fc(3, 0),
	"i64.trunc_sat_f32_s": fc(4, 0),
	"i64.trunc_sat_f32_u": fc(5, 0),
	"i64.trunc_sat_f64_s": fc(6, 0),
	"i64.trunc_sat_f64_u": fc(7, 0),
	"memory.copy":         fc(10, 2),
	"memory.fill":         fc(11, 1),
}
