//go:build !amd64

package jit

// Supported is false on every non-amd64 architecture: the emitter only
// knows x86-64 encodings (spec §4.10's "x86-64 emitter").
const Supported = false
