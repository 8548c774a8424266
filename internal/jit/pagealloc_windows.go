//go:build windows

package jit

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

// Page mirrors pagealloc_unix.go's type for the VirtualAlloc/VirtualProtect
// path Windows needs instead of mmap/mprotect.
type Page struct {
	addr uintptr
	size int
}

// AllocPage reserves and commits a RW region, copies code in, and
// reprotects it PAGE_EXECUTE_READ — the same RW-then-RX finalize
// sequence as the Unix allocator.
func AllocPage(code []byte) (*Page, error) {
	if len(code) == 0 {
		return nil, fmt.Errorf("jit: empty code buffer")
	}
	size := len(code)
	addr, err := windows.VirtualAlloc(0, uintptr(size), windows.MEM_COMMIT|windows.MEM_RESERVE, windows.PAGE_READWRITE)
	if err != nil {
		return nil, fmt.Errorf("jit: VirtualAlloc: %w", err)
	}
	dst := unsafe.Slice((*byte)(unsafe.Pointer(addr)), size)
	copy(dst, code)
	var old uint32
	if err := windows.VirtualProtect(addr, uintptr(size), windows.PAGE_EXECUTE_READ, &old); err != nil {
		_ = windows.VirtualFree(addr, 0, windows.MEM_RELEASE)
		return nil, fmt.Errorf("jit: VirtualProtect RX: %w", err)
	}
	return &Page{addr: addr, size: size}, nil
}

func (p *Page) Addr() uintptr { return p.addr }

func (p *Page) Free() error {
	return windows.VirtualFree(p.addr, 0, windows.MEM_RELEASE)
}
