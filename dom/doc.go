// Package dom is the in-process document model the guest sees as window
// and document.
//
// There is no layout or rendering. Elements keep the state the guest can
// observe (tree, id, attributes, inline style, hidden flag, bounding box)
// and the document tracks focus, pointer lock and fullscreen. Canvas
// contexts come from factories registered with Document.RegisterContext.
//
// All types are owned by the event loop goroutine.
package dom
