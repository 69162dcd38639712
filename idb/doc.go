// Package idb implements IndexedDB over the SQLite store.
//
// A Factory serves one origin. Databases, object stores and indexes map to
// rows in the store's idb_* tables; keys use an order-preserving binary
// encoding so SQLite's BLOB comparison yields IndexedDB key order.
//
// Everything except NewFactory runs on the event loop goroutine. Requests
// execute in placement order, one loop task each, and fire success or
// error at the request before the next one runs. A transaction commits
// once its queue drains after the last callback.
package idb
