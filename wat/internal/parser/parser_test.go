package parser

import (
	"testing"

	"github.com/wippyai/wbg-runtime/wat/internal/ast"
	"github.com/wippyai/wbg-runtime/wat/internal/token"
)

func parse(t *testing.T, src string) *ast.Module {
	t.Helper()
	tokens, err := token.Tokenize(src)
	if err != nil {
		t.Fatalf("Tokenize failed: %v", err)
	}
	mod, err := New(tokens).Parse()
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return mod
}

func TestParseEmptyModule(t *testing.T) {
	mod := parse(t, "(module $named)")
	if len(mod.Types) != 0 || len(mod.Funcs) != 0 {
		t.Errorf("expected empty module, got %+v", mod)
	}
}

func TestParseFunc(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		numTypes   int
		numParams  int
		numResults int
	}{
		{"empty_func", "(module (func))", 1, 0, 0},
		{"func_with_param", "(module (func (param i32)))", 1, 1, 0},
		{"func_with_result", "(module (func (result i32) (i32.const 0)))", 1, 0, 1},
		{"shared_type", "(module (func (param i32)) (func (param i32)))", 1, 1, 0},
		{"named_params", "(module (func (param $a i32) (param $b f64) (result f64) (local.get $b)))", 1, 2, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mod := parse(t, tt.input)
			if len(mod.Types) != tt.numTypes {
				t.Errorf("expected %d types, got %d", tt.numTypes, len(mod.Types))
			}
			ft := mod.Types[mod.Funcs[0].Type]
			if len(ft.Params) != tt.numParams || len(ft.Results) != tt.numResults {
				t.Errorf("signature = %+v", ft)
			}
		})
	}
}

func TestParseForwardReferences(t *testing.T) {
	mod := parse(t, `(module
		(import "env" "log" (func $log (param i32)))
		(func $first (call $second))
		(func $second (call $log (global.get $g)))
		(global $g i32 (i32.const 7)))`)

	first := mod.Funcs[0].Body
	if first[0].Opcode != ast.OpCall || first[0].Imm != uint32(2) {
		t.Errorf("call $second = %+v, want index 2", first[0])
	}
	second := mod.Funcs[1].Body
	if second[0].Opcode != ast.OpGlobalGet || second[0].Imm != uint32(0) {
		t.Errorf("global.get $g = %+v", second[0])
	}
	if second[1].Opcode != ast.OpCall || second[1].Imm != uint32(0) {
		t.Errorf("call $log = %+v", second[1])
	}
}

func TestParseLabelDepths(t *testing.T) {
	mod := parse(t, `(module (func
		(block $outer
			(loop $inner
				(br_if $outer (i32.const 1))
				(br $inner)))))`)

	var depths []uint32
	for _, ins := range mod.Funcs[0].Body {
		if ins.Opcode == ast.OpBr || ins.Opcode == ast.OpBrIf {
			depths = append(depths, ins.Imm.(uint32))
		}
	}
	if len(depths) != 2 || depths[0] != 1 || depths[1] != 0 {
		t.Errorf("depths = %v, want [1 0]", depths)
	}
}

func TestParseFoldedOrder(t *testing.T) {
	mod := parse(t, "(module (func (result i32) (i32.sub (i32.const 5) (i32.const 3))))")
	body := mod.Funcs[0].Body
	want := []byte{ast.OpI32Const, ast.OpI32Const, 0x6B, ast.OpEnd}
	if len(body) != len(want) {
		t.Fatalf("body = %+v", body)
	}
	for i, op := range want {
		if body[i].Opcode != op {
			t.Errorf("body[%d] = 0x%02X, want 0x%02X", i, body[i].Opcode, op)
		}
	}
	if body[0].Imm != int32(5) {
		t.Errorf("first operand = %v", body[0].Imm)
	}
}

func TestParseMemarg(t *testing.T) {
	mod := parse(t, "(module (memory 1) (func (drop (i64.load offset=16 align=4 (i32.const 0)))))")
	ma, ok := mod.Funcs[0].Body[1].Imm.(ast.Memarg)
	if !ok {
		t.Fatalf("imm = %T", mod.Funcs[0].Body[1].Imm)
	}
	if ma.Offset != 16 || ma.Align != 2 {
		t.Errorf("memarg = %+v, want offset 16 align 2", ma)
	}
}

func TestParseData(t *testing.T) {
	mod := parse(t, `(module (memory 1) (data (i32.const 8) "a\62\u{e9}" "\n"))`)
	if len(mod.Data) != 1 {
		t.Fatalf("data = %d segments", len(mod.Data))
	}
	if got := string(mod.Data[0].Init); got != "abé\n" {
		t.Errorf("init = %q", got)
	}
	if mod.Data[0].Offset[0].Imm != int32(8) {
		t.Errorf("offset = %+v", mod.Data[0].Offset)
	}
}
