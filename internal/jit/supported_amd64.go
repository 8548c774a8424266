//go:build amd64

package jit

// Supported reports whether this build can emit and run native code.
// Nothing in the engine reads it: on an unsupported architecture the
// Cache's CompileXxx methods (cache_other.go) report ErrUnsupported
// instead, so every node simply tops out
// at the Optimized bytecode tier, per spec §4.8's tier list being a
// ceiling, not a requirement.
const Supported = true
