package wat

import (
	"context"
	"strings"
	"testing"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

func TestCompile(t *testing.T) {
	t.Run("empty_module", func(t *testing.T) {
		bin, err := Compile("(module)")
		if err != nil {
			t.Fatalf("Compile failed: %v", err)
		}
		if len(bin) != 8 {
			t.Errorf("expected 8 bytes, got %d", len(bin))
		}
		if bin[0] != 0x00 || bin[1] != 0x61 || bin[2] != 0x73 || bin[3] != 0x6D {
			t.Error("invalid WASM magic")
		}
	})

	t.Run("simple_function", func(t *testing.T) {
		bin, err := Compile(`(module
			(func (export "add") (param i32 i32) (result i32)
				(i32.add (local.get 0) (local.get 1))))`)
		if err != nil {
			t.Fatalf("Compile failed: %v", err)
		}
		if len(bin) < 20 {
			t.Errorf("output too small: %d bytes", len(bin))
		}
	})
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name, wat, wantErr string
	}{
		{"missing_module", "(func)", `expected "module"`},
		{"unclosed", "(module", "unexpected end"},
		{"unknown_instr", "(module (func (bogus)))", "unknown instruction"},
		{"unknown_type", "(module (func (param bogus)))", "unknown value type"},
		{"unknown_label", "(module (func (block (br $x))))", "unknown label"},
		{"unknown_func", "(module (func (call $nope)))", "unknown func"},
		{"unknown_local", "(module (func (local.get $x)))", "unknown local"},
		{"import_after_func", `(module (func) (import "a" "b" (func)))`, "import after definition"},
		{"unterminated_string", `(module (export "x`, "unterminated"},
		{"bad_align", "(module (memory 1) (func (drop (i32.load align=3 (i32.const 0)))))", "power of two"},
		{"flat_without_end", "(module (func block nop))", "block without end"},
		{"trailing", "(module) (module)", "after module"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.wat)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q missing %q", err, tt.wantErr)
			}
		})
	}
}

// TestWasmValidation compiles each module with wazero, which validates
// the binary.
func TestWasmValidation(t *testing.T) {
	tests := []struct {
		name string
		wat  string
	}{
		{"memory", "(module (memory 1 10))"},
		{"global", "(module (global (mut i32) (i32.const 0)))"},
		{"start", "(module (func $main) (start $main))"},
		{"func_params", "(module (func (param i32 i64 f32 f64)))"},
		{"func_results", "(module (func (result i32 i32) (i32.const 1) (i32.const 2)))"},
		{"func_locals", "(module (func (local i32 i32) (local f64) (local.set 1 (i32.const 1))))"},
		{"named_locals", "(module (func (param $a i32) (local $b i32) (local.set $b (local.get $a))))"},
		{"explicit_type", "(module (type $t (func (param i32) (result i32))) (func (type $t) (local.get 0)))"},
		{"flat_block", "(module (func (result i32) block $b (result i32) i32.const 1 br $b end))"},
		{"flat_if_else", "(module (func (param i32) (result i32) local.get 0 if (result i32) i32.const 1 else i32.const 2 end))"},
		{"folded_if", "(module (func (param i32) (result i32) (if (result i32) (local.get 0) (then (i32.const 1)) (else (i32.const 2)))))"},
		{"loop_br_if", "(module (func (local i32) (loop $l (br_if $l (i32.lt_u (local.tee 0 (i32.add (local.get 0) (i32.const 1))) (i32.const 10))))))"},
		{"br_table", "(module (func (param i32) (block $a (block $b (br_table $a $b $a (local.get 0))))))"},
		{"multi_value_block", "(module (func (result i32 i32) (block (result i32 i32) (i32.const 1) (i32.const 2))))"},
		{"memory_ops", `(module (memory 1)
			(func (param i32)
				(i64.store offset=8 align=4 (local.get 0) (i64.const -1))
				(f64.store (local.get 0) (f64.const 2.5))
				(drop (memory.grow (i32.const 1)))
				(drop (memory.size))
				(memory.copy (i32.const 0) (i32.const 16) (i32.const 4))
				(memory.fill (i32.const 0) (i32.const 0) (i32.const 4))))`},
		{"floats", "(module (func (result f64) (f64.add (f64.const inf) (f64.const -0x1.8p1))) (func (result f32) (f32.const nan)))"},
		{"conversions", "(module (func (param f64) (result i64) (i64.trunc_sat_f64_s (local.get 0))) (func (param i32) (result i64) (i64.extend_i32_u (local.get 0))))"},
		{"imports", `(module
			(import "env" "log" (func $log (param i32)))
			(import "env" "mem" (memory 1))
			(import "env" "g" (global $g i32))
			(func (call $log (global.get $g))))`},
		{"data", `(module (memory (export "memory") 1) (data (i32.const 16) "hi\00\ff") (data (offset (i32.const 32)) "x" "y"))`},
		{"select", "(module (func (param i32) (result i32) (select (i32.const 1) (i32.const 2) (local.get 0))))"},
		{"comments", "(module ;; line\n (; block (; nested ;) ;) (func))"},
	}
	ctx := context.Background()
	r := wazero.NewRuntime(ctx)
	defer r.Close(ctx)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bin, err := Compile(tt.wat)
			if err != nil {
				t.Fatalf("Compile failed: %v", err)
			}
			if _, err := r.CompileModule(ctx, bin); err != nil {
				t.Fatalf("invalid module: %v", err)
			}
		})
	}
}

func TestExecute(t *testing.T) {
	ctx := context.Background()
	r := wazero.NewRuntime(ctx)
	defer r.Close(ctx)

	var logged []uint32
	_, err := r.NewHostModuleBuilder("env").
		NewFunctionBuilder().
		WithFunc(func(_ context.Context, v uint32) { logged = append(logged, v) }).
		Export("log").
		Instantiate(ctx)
	if err != nil {
		t.Fatalf("host module: %v", err)
	}

	bin, err := Compile(`(module
		(import "env" "log" (func $log (param i32)))
		(memory (export "memory") 1)
		(data (i32.const 8) "\2a\00\00\00")
		(func (export "add") (param $a i32) (param $b i32) (result i32)
			(i32.add (local.get $a) (local.get $b)))
		(func (export "sum_to") (param $n i32) (result i32)
			(local $acc i32)
			block $done
				loop $next
					local.get $n
					i32.eqz
					br_if $done
					(local.set $acc (i32.add (local.get $acc) (local.get $n)))
					(local.set $n (i32.sub (local.get $n) (i32.const 1)))
					br $next
				end
			end
			local.get $acc)
		(func (export "pick") (param i32) (result i32)
			(block $c (block $b (block $a
				(br_table $a $b $c (local.get 0)))
				(return (i32.const 10)))
				(return (i32.const 20)))
			(i32.const 30))
		(func (export "emit")
			(call $log (i32.load (i32.const 8)))))`)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	mod, err := r.Instantiate(ctx, bin)
	if err != nil {
		t.Fatalf("Instantiate failed: %v", err)
	}

	call := func(name string, args ...uint64) uint64 {
		t.Helper()
		res, err := mod.ExportedFunction(name).Call(ctx, args...)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if len(res) == 0 {
			return 0
		}
		return res[0]
	}

	if got := api.DecodeI32(call("add", 2, api.EncodeI32(-5))); got != -3 {
		t.Errorf("add = %d, want -3", got)
	}
	if got := call("sum_to", 4); got != 10 {
		t.Errorf("sum_to(4) = %d, want 10", got)
	}
	for in, want := range []uint64{10, 20, 30, 30} {
		if got := call("pick", uint64(in)); got != want {
			t.Errorf("pick(%d) = %d, want %d", in, got, want)
		}
	}
	call("emit")
	if len(logged) != 1 || logged[0] != 42 {
		t.Errorf("logged = %v, want [42]", logged)
	}
}
