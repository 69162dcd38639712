// Package wat compiles WebAssembly text into binary modules.
//
// It covers the subset that hand-written bindgen guests need: guest
// fixtures in tests and small modules loaded by wbg-run.
//
//	bin, err := wat.Compile(`(module
//		(func (export "add") (param i32 i32) (result i32)
//			(i32.add (local.get 0) (local.get 1))))`)
//
// Supported:
//   - Function, memory and global imports; inline and standalone exports
//   - Named and indexed params, locals, globals, functions and labels
//   - Folded and linear instructions, block/loop/if with typed blocks
//   - br, br_if, br_table, call, return, select
//   - Integer and float arithmetic, comparisons and conversions
//   - Loads and stores with offset= and align=
//   - memory.size, memory.grow, memory.copy, memory.fill
//   - Saturating truncations and sign extension
//   - Active data segments and a start function
//
// Tables, call_indirect, reference instructions and SIMD are not
// supported. Output is not validated here; the runtime validates on
// compile.
package wat
