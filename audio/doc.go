// Package audio implements the Web Audio surface the guest drives: an
// AudioContext whose clock follows the event loop, gain and buffer source
// nodes, and the playback position node of the engine's audio snippet.
//
// The graph is tracked but never rendered.
package audio
