// Copyright © 2021-2026 the dioes authors. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// +build linux

package dioreg

import (
	"fmt"
	"os"
	"sync/atomic"
	"syscall"
	"unsafe"
)

// Iomem is a Bank backed by a mapping of the physical register window,
// through a UIO device node or /dev/mem.
type Iomem struct {
	f   *os.File
	mem []byte
}

// Open maps size bytes of devname at offset base. For UIO nodes base
// selects the map index times the page size rather than a physical
// address.
func Open(devname string, base int64, size int) (*Iomem, error) {
	f, err := os.OpenFile(devname, os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return nil, err
	}
	mem, err := syscall.Mmap(int(f.Fd()), base, size,
		syscall.PROT_READ|syscall.PROT_WRITE, syscall.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("mmap %s: %w", devname, err)
	}
	return &Iomem{f: f, mem: mem}, nil
}

func (m *Iomem) Load(r Reg) uint32 {
	return atomic.LoadUint32(m.word(r))
}

func (m *Iomem) Store(r Reg, v uint32) {
	atomic.StoreUint32(m.word(r), v)
}

func (m *Iomem) Len() int { return len(m.mem) }

func (m *Iomem) Close() error {
	err := syscall.Munmap(m.mem)
	m.mem = nil
	if cerr := m.f.Close(); err == nil {
		err = cerr
	}
	return err
}

// atomic load/store gives the uncached single-access semantics the
// device needs; the compiler may not merge or elide them.
func (m *Iomem) word(r Reg) *uint32 {
	return (*uint32)(unsafe.Pointer(&m.mem[r]))
}
