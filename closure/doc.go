// Package closure exposes guest closures to the host as callable values.
//
// A guest closure is an opaque pair (a, b) naming its environment, plus two
// guest function indices: fn invokes it and dtor destroys the environment.
// The host wraps the pair in a Func with a reference count starting at one,
// the guest's own reference.
//
// # Flavors
//
// Mut closures own their environment exclusively. While a call is in
// flight a is zeroed to mark the environment borrowed; a re-entrant call in
// that window is rejected. Shared closures leave a alone and may be
// re-entered.
//
// # Lifetime
//
// Each call holds an extra reference. When the count reaches zero the
// destructor runs exactly once and the closure is dead; later calls fail
// with a contract violation.
//
//	ALIVE(n) --call--> ALIVE(n+1) --return--> ALIVE(n) | DEAD
//	ALIVE(1) --Drop--> DEAD (guest frees its own environment)
//
// A guest that drops its reference during its own invocation sees Drop
// return false; the in-flight call completes first and then the destructor
// runs.
//
// If a Func is garbage collected while still alive, a cleanup posts the
// destructor to the event loop. This is a safety net; guests normally drop
// their closures explicitly.
package closure
