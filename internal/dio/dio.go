// Copyright © 2021-2026 the dioes authors. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package dio is the control core of a 32-line static digital I/O
// device. It owns the line configuration state, the interrupt control
// protocol, and the queue of parked change-of-state waits; the register
// window behind it may be real hardware (dioreg.Iomem) or simulated
// (diosim.Bank).
//
// Concurrency contract: the exported operations serialize on the
// device mutex. Isr takes no locks and must be the only writer of the
// latched snapshot; Deferred is its only reader. The pending queue has
// its own lock so Deferred never contends with a held device mutex.
package dio

import (
	"errors"
	"fmt"
	"sync"

	"github.com/diogear/dioes/internal/dio/dioreg"
)

// ChangeDataSize is the wire size of a change-of-state report: the
// latched state of all 32 lines as a little-endian word.
const ChangeDataSize = 4

var (
	ErrNotMapped     = errors.New("device registers not mapped")
	ErrNoOutputLines = errors.New("no lines configured for output")
	ErrNoInputLines  = errors.New("no lines configured for input")
	ErrShortBuffer   = errors.New("change data buffer too small")
)

type Device struct {
	mu sync.Mutex

	bank dioreg.Bank
	size uint32

	outputMask  uint32
	savedOutput uint32

	// latched is the snapshot taken by Isr for Deferred; accessed
	// with sync/atomic only.
	latched uint32

	queue pending

	// service has capacity 1: coalesced doorbell from Isr to the
	// deferred service loop.
	service chan struct{}
}

func New() *Device {
	return &Device{service: make(chan struct{}, 1)}
}

// Service returns the channel Isr signals when a change-of-state
// snapshot awaits deferred completion.
func (d *Device) Service() <-chan struct{} { return d.service }

// Acquire binds the device to a register window and puts the hardware
// in its quiescent state: all lines input, outputs clear, change
// detection disarmed, interrupts masked at every level.
func (d *Device) Acquire(bank dioreg.Bank, size uint32) error {
	if bank == nil || size < dioreg.BarSize {
		return ErrNotMapped
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.bank = bank
	d.size = size
	d.outputMask = 0
	d.savedOutput = 0
	d.deviceReset()
	return nil
}

// Release unbinds the register window. Interrupts must already be
// quiesced. Parked change-of-state waits complete with ErrNotMapped.
func (d *Device) Release() {
	d.mu.Lock()
	d.bank = nil
	d.size = 0
	d.mu.Unlock()
	for {
		req := d.queue.pop()
		if req == nil {
			break
		}
		req.complete(0, ErrNotMapped)
	}
}

// Probe checks that the mapped window responds like the expected
// device and returns the signature register.
func (d *Device) Probe() (uint32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.bank == nil {
		return 0, ErrNotMapped
	}
	sig := d.bank.Load(dioreg.Signature)
	const pattern = 0x55AA1234
	d.bank.Store(dioreg.Scratchpad, pattern)
	if got := d.bank.Load(dioreg.Scratchpad); got != pattern {
		return sig, fmt.Errorf("scratchpad mismatch: wrote %#x, read %#x",
			uint32(pattern), got)
	}
	return sig, nil
}
