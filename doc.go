// Package wbgruntime hosts wasm-bindgen guest modules outside the browser.
//
// A wasm-bindgen guest imports a flat "wbg" namespace of host functions and
// exports a handful of intrinsics (malloc, free, start, closure adapters).
// This library plays the browser's part: it keeps the guest's JavaScript
// values in a handle table, marshals strings and arrays through linear
// memory, runs guest closures under their lifetime protocol and serves the
// DOM, WebGL, Web Audio, IndexedDB and fetch calls the guest makes.
//
// # Architecture Overview
//
//	wbgruntime/
//	├── runtime/    Loading, linking and instantiating guests; typed calls
//	├── bindings/   The wbg import catalog, one group per capability
//	├── heap/       Handle table with reserved undefined/null/true/false
//	├── memory/     Linear memory views, string marshaling, guest allocator
//	├── closure/    Guest closure wrappers, drop protocol, collection
//	├── eventloop/  Tasks, microtasks and paced animation frames
//	├── promise/    Promises settled on the event loop
//	├── stream/     ReadableStream and guest stream adapters
//	├── jsvalue/    Host-side JavaScript value model and reflection
//	├── dom/        Window, document, elements, canvas, localStorage
//	├── webgl/      Headless WebGL1 state tracker
//	├── audio/      Web Audio graph and clock
//	├── idb/        IndexedDB over SQLite
//	├── fetch/      fetch, Headers, Request, Response, AbortController
//	├── input/      Input events, gamepads, terminal input feed
//	├── store/      SQLite database shared by localStorage and IndexedDB
//	├── config/     Configuration loading (viper)
//	├── errors/     Structured error types
//	└── cmd/wbg-run Command line runner and inspector
//
// # Quick Start
//
//	rt, err := runtime.New(ctx, &runtime.Config{Href: "https://game.example/"})
//	if err != nil {
//	    return err
//	}
//	defer rt.Close(ctx)
//
//	inst, err := rt.Init(ctx, "game_bg.wasm")
//	if err != nil {
//	    return err
//	}
//	return inst.Run(ctx)
//
// Init compiles the module, resolves every wbg import against the catalog,
// instantiates it and calls __wbindgen_start. Run drives the event loop
// until the guest has no pending tasks, frames or host operations.
package wbgruntime
