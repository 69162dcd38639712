// Package webgl is a headless WebGL 1 rendering context.
//
// Nothing is rasterized. The context keeps the object model and pipeline
// state a real implementation validates against: object lifetimes and
// bindings, shader compile and program link results, attribute and uniform
// reflection from GLSL declarations, uniform storage, fixed-function state,
// and the error flags read by getError. Draw calls are validated the way
// WebGL validates them and counted per animation frame.
//
// A Context belongs to the event loop goroutine.
package webgl
