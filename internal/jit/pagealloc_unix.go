//go:build !windows

// Page allocation for the x86-64 emitter (spec §4.10/§5: "executable pages
// are allocated per JIT compilation and are not shared across nodes").
// Grounded on golang.org/x/sys/unix's Mmap/Mprotect/Munmap wrappers — the
// same package tetratelabs-wazero's platform layer names
// (MmapCodeSegment/MunmapCodeSegment) for its own compiler backend,
// generalized here to this package's much smaller code-generation surface.
//
// §5's W^X note ("the reference design uses RWX pages for simplicity; a
// production-grade port should allocate RW, write the bytes, then
// re-protect RX") is implemented as the stricter RW-then-RX variant: the
// page starts PROT_READ|PROT_WRITE, the emitted bytes are copied in, and
// Mprotect flips it to PROT_READ|PROT_EXEC before any call through it —
// never simultaneously writable and executable.
package jit

import (
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Page is one mmap'd, now-executable memory region holding emitted native
// code. The underlying bytes are never touched again after AllocPage: a
// Page is immutable for its whole lifetime once executable.
type Page struct {
	mem []byte
}

// AllocPage copies code into a fresh RW page and reprotects it RX,
// returning the finalized, callable Page.
func AllocPage(code []byte) (*Page, error) {
	if len(code) == 0 {
		return nil, fmt.Errorf("jit: empty code buffer")
	}
	size := pageRound(len(code))
	mem, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("jit: mmap: %w", err)
	}
	copy(mem, code)
	if err := unix.Mprotect(mem, unix.PROT_READ|unix.PROT_EXEC); err != nil {
		_ = unix.Munmap(mem)
		return nil, fmt.Errorf("jit: mprotect RX: %w", err)
	}
	return &Page{mem: mem}, nil
}

// Addr returns the page's base address as a callable function pointer,
// the value the call_amd64.s trampolines CALL into.
func (p *Page) Addr() uintptr {
	return uintptr(unsafe.Pointer(&p.mem[0]))
}

// Free releases the page. The caller must guarantee no in-flight call
// into this page's code is still running (the interpreter only calls
// Free after deoptimizing the owning cache entry, at which point nothing
// else holds a reference to the Page).
func (p *Page) Free() error {
	return unix.Munmap(p.mem)
}

func pageRound(n int) int {
	ps := os.Getpagesize()
	if n%ps == 0 {
		return n
	}
	return (n/ps + 1) * ps
}
