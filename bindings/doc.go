// Package bindings implements the wbg import namespace a guest module links
// against.
//
// Every host function is described by a Def: the import's base name (the
// generator's hash suffix stripped), a Shape that lowers logical arguments
// to core wasm values, an optional receiver class and a Thunk. Defs are
// grouped per capability (intrinsics, reflection, DOM, WebGL, Web Audio,
// IndexedDB, Fetch and streams, input) and collected in a Catalog.
//
// Link resolves a compiled guest's imports against a Catalog and builds the
// wazero host module:
//
//	cat := bindings.Standard()
//	host, err := bindings.Link(ctx, rt, compiled, cat)
//
// Several defs may share a base name. Resolution first filters by the
// import's wasm signature and then, at call time, by the class of the
// receiver argument.
//
// Thunks reach the owning instance through the call context (see WithEnv).
// A catching def converts a returned error into a guest exception: the
// thrown value is stored in the handle table and passed to the guest
// export __wbindgen_exn_store, and the results are zeroed. Errors from
// non-catching defs trap the guest call.
package bindings
