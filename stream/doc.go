// Package stream implements readable and writable streams between host and
// guest.
//
// Host side, ReadableStream wraps an underlying source (a Go io.ReadCloser
// or any UnderlyingSource) and hands out a default reader whose read()
// yields promises of {done, value}. Guest sources receive a
// DefaultController or ByteController to enqueue chunks; byte controllers
// also expose a BYOB request whose view the guest fills and answers with
// respond(n).
//
// Guest side, the exported IntoUnderlyingSource, IntoUnderlyingByteSource and
// IntoUnderlyingSink classes are consumed as io.ReadCloser and
// io.WriteCloser. Each adapter owns a guest pointer: Close and Abort consume
// it and Free releases it without further calls.
//
// Adapter methods block on the event loop and must be called from a
// goroutine other than the loop's own.
package stream
