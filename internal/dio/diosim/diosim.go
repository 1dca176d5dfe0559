// Copyright © 2021-2026 the dioes authors. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package diosim is a software register bank behaving like the 32-line
// static digital I/O device. Tests drive it directly; the daemon runs
// on it with -sim on machines without the hardware.
package diosim

import (
	"sync"

	"github.com/diogear/dioes/internal/dio/dioreg"
)

// Signature is what the simulated signature register reads back.
const Signature uint32 = 0x00006509

type Bank struct {
	mu sync.Mutex

	pins     uint32 // externally applied pin state
	output   uint32
	dir      uint32
	re, fe   uint32
	filter01 uint32
	filter23 uint32

	latched  uint32
	cdStatus uint32

	scratch uint32
	ticks   uint32

	cdIrq      bool // change detect interrupt enabled
	cdErrIrq   bool // change detect error interrupt enabled
	diGate     bool // I/O subsystem interrupt gate
	forwarding bool // board-level mask forwards to the host
	intActive  bool // host interrupt asserted

	loads  map[dioreg.Reg]int
	stores map[dioreg.Reg]int

	irq chan struct{}
}

func New() *Bank {
	return &Bank{
		loads:  make(map[dioreg.Reg]int),
		stores: make(map[dioreg.Reg]int),
		irq:    make(chan struct{}, 8),
	}
}

// Irq delivers a token per simulated host interrupt.
func (b *Bank) Irq() <-chan struct{} { return b.irq }

func (b *Bank) Size() uint32 { return dioreg.BarSize }

func (b *Bank) Load(r dioreg.Reg) uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.loads[r]++
	switch r {
	case dioreg.StaticDigitalInput:
		return b.lines()
	case dioreg.ChangeDetectStatus:
		return b.cdStatus
	case dioreg.DiChangeDetectLatched:
		return b.latched
	case dioreg.VolatileInterruptStatus:
		if b.intActive {
			// the read acknowledges the host interrupt
			b.intActive = false
			return dioreg.IntActive
		}
		return 0
	case dioreg.InterruptStatus:
		if b.intActive {
			return dioreg.IntActive
		}
		return 0
	case dioreg.Signature:
		return Signature
	case dioreg.Scratchpad:
		return b.scratch
	case dioreg.TimeSincePowerUp:
		b.ticks++
		return b.ticks
	case dioreg.DioDirection:
		return b.dir
	case dioreg.StaticDigitalOutput:
		return b.output
	}
	return 0
}

func (b *Bank) Store(r dioreg.Reg, v uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stores[r]++
	switch r {
	case dioreg.StaticDigitalOutput:
		b.output = v
	case dioreg.DioDirection:
		b.dir = v
	case dioreg.DiChangeIrqRE:
		b.re = v
	case dioreg.DiChangeIrqFE:
		b.fe = v
	case dioreg.DiFilterPort01:
		b.filter01 = v
	case dioreg.DiFilterPort23:
		b.filter23 = v
	case dioreg.Scratchpad:
		b.scratch = v
	case dioreg.JointReset:
		if v&dioreg.SoftwareReset != 0 {
			// resets the interrupt and change detect logic;
			// line configuration is untouched
			b.latched = 0
			b.cdStatus = 0
			b.cdIrq = false
			b.cdErrIrq = false
			b.intActive = false
		}
	case dioreg.GlobalInterruptEnable:
		if v&dioreg.DiIntDisable != 0 {
			b.diGate = false
		}
		if v&dioreg.DiIntEnable != 0 {
			b.diGate = true
		}
	case dioreg.InterruptMask:
		if v&(dioreg.ClearCpuInt|dioreg.ClearStc3Int) != 0 {
			b.forwarding = false
			b.intActive = false
		}
		if v&(dioreg.SetCpuInt|dioreg.SetStc3Int) != 0 {
			b.forwarding = true
		}
	case dioreg.ChangeDetectIrq:
		if v&dioreg.ChangeDetectIrqAck != 0 {
			b.cdStatus &^= dioreg.ChangeDetectPending
		}
		if v&dioreg.ChangeDetectErrIrqAck != 0 {
			b.cdStatus &^= dioreg.ChangeDetectError
		}
		if v&dioreg.ChangeDetectIrqDisable != 0 {
			b.cdIrq = false
		}
		if v&dioreg.ChangeDetectIrqEnable != 0 {
			b.cdIrq = true
		}
		if v&dioreg.ChangeDetectErrIrqDisable != 0 {
			b.cdErrIrq = false
		}
		if v&dioreg.ChangeDetectErrIrqEnable != 0 {
			b.cdErrIrq = true
		}
	}
}

// lines is the visible line state: pins on input lines, driven state
// on output lines. Caller holds b.mu.
func (b *Bank) lines() uint32 {
	return (b.pins &^ b.dir) | (b.output & b.dir)
}

// SetPins drives the externally applied pin state. A transition on an
// input line with its edge armed latches a change-of-state; when the
// interrupt chain is up, the host interrupt fires.
func (b *Bank) SetPins(pins uint32) {
	b.mu.Lock()
	old := b.pins &^ b.dir
	b.pins = pins
	now := pins &^ b.dir
	rising := ^old & now & b.re
	falling := old & ^now & b.fe
	var raise bool
	if rising|falling != 0 {
		b.latched = b.lines()
		b.cdStatus |= dioreg.ChangeDetectPending
		raise = b.cdIrq && b.diGate && b.forwarding
		if raise {
			b.intActive = true
		}
	}
	b.mu.Unlock()
	if raise {
		b.raise()
	}
}

// InjectError latches a change detect overrun. When the error
// interrupt is armed the host interrupt fires.
func (b *Bank) InjectError() {
	b.mu.Lock()
	b.cdStatus |= dioreg.ChangeDetectError
	raise := b.cdErrIrq && b.diGate && b.forwarding
	if raise {
		b.intActive = true
	}
	b.mu.Unlock()
	if raise {
		b.raise()
	}
}

func (b *Bank) raise() {
	select {
	case b.irq <- struct{}{}:
	default:
	}
}

// test accessors

func (b *Bank) Direction() uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dir
}

func (b *Bank) Output() uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.output
}

func (b *Bank) EdgeMasks() (rising, falling uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.re, b.fe
}

func (b *Bank) Filters() (port01, port23 uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.filter01, b.filter23
}

func (b *Bank) IntActive() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.intActive
}

func (b *Bank) Armed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cdIrq && b.diGate && b.forwarding
}

// Loads reports how many times a register was loaded.
func (b *Bank) Loads(r dioreg.Reg) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loads[r]
}

// Stores reports how many times a register was stored.
func (b *Bank) Stores(r dioreg.Reg) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stores[r]
}
