// Package memory bridges host values to and from guest linear memory.
//
// A Bridge wraps the guest's exported memory and hands out typed views over
// it. Views are cached and rebuilt transparently when the memory grows or
// its backing storage moves, so callers re-fetch a view on every call and
// never hold one across an operation that can run guest code.
//
// Strings cross the boundary as UTF-8 (ptr, len) pairs. Guest-to-host reads
// decode strictly: malformed input is an error, never replacement
// characters. Host-to-guest strings are written into buffers obtained from
// the guest allocator (__wbindgen_malloc), and ownership passes to the guest.
//
// Functions that return strings or optional numbers to the guest use an
// out-pointer ("retptr") the guest reserves on its shadow stack. The
// Write* helpers fill those slots with the layouts the guest expects:
//
//	string:       ptr i32 @ +0, len i32 @ +4
//	option<f64>:  is_some i32 @ +0, value f64 @ +8
//	option<i64>:  is_some i32 @ +0, value i64 @ +8
package memory
