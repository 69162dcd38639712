// Package runtime loads guest modules generated for the wbg import
// namespace and runs them against the in-process host.
//
// # Quick Start
//
//	ctx := context.Background()
//	rt, err := runtime.New(ctx, &runtime.Config{Href: "https://game.example/"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.Close(ctx)
//
//	// Load, link and start the guest
//	inst, err := rt.Init(ctx, "game_bg.wasm")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Drive timers, promises and animation frames
//	if err := inst.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// # Loading Modules
//
// Load accepts the same inputs the generated init function does:
//
//	[]byte          - module bytes
//	string          - file path, or http(s) / file URL
//	*url.URL        - http(s) or file URL
//	io.Reader       - module bytes
//	*http.Response  - response body; a Content-Type other than
//	                  application/wasm is logged and compiled anyway
//
// Load fails with a MissingImportsError listing every import neither the
// wbg catalog nor a registered host can serve. Compile skips that check,
// which is useful for inspecting exports.
//
// # Host Functions
//
// Imports outside the wbg namespace are served by registered hosts:
//
//	rt.RegisterFunc("env", "now", func() float64 { return clock.Now() })
//
//	// Or implement the Host interface for a full namespace
//	rt.RegisterHost(myHost)
//
// # Instances
//
// Instantiate wires the wbg host module, attaches the memory bridge,
// allocator and closure exports, then runs __wbindgen_start once. Init
// does this for the first call only and returns the same instance
// afterwards.
//
// An Instance is single threaded. Guest calls happen on the event loop
// goroutine, or before Run starts it; other goroutines use Exec.
//
// # Typed Calls
//
// CallTyped lowers Go values through a WIT function signature:
//
//	v, err := inst.CallTyped(ctx, "greet", "func(name: string) -> string", "World")
package runtime
