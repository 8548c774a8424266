//go:build amd64

// The three callNative* trampolines are hand-written Go assembly
// (call_amd64.s) rather than a cast of a []byte to a Go func value. A cast
// would depend on Go's internal, version-fragile ABIInternal register
// assignment for the call; these trampolines instead use the standard,
// documented ABI0 stack-based `NAME+offset(FP)` convention to read their
// own arguments, and from there manually place them in the integer
// registers (DI, SI) the emitted code expects and read the result back out
// of AX — exactly the System V argument/return registers spec §4.10 names,
// and stable across Go versions because ABI0 itself is Go's frozen
// fallback calling convention, not the optimized one.
package jit

func callNative0(code uintptr) uint64
func callNative1(code uintptr, a0 uint64) uint64
func callNative2(code uintptr, a0, a1 uint64) uint64
