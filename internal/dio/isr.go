// Copyright © 2021-2026 the dioes authors. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package dio

import (
	"sync/atomic"

	"github.com/diogear/dioes/internal/dio/dioreg"
)

// Verdict reports whether an interrupt belonged to this device.
type Verdict int

const (
	NotMine Verdict = iota
	Mine
)

func (v Verdict) String() string {
	if v == Mine {
		return "mine"
	}
	return "not mine"
}

// Isr is the interrupt top half. It claims or disclaims the interrupt
// and does the minimum register work: snapshot the latched line state,
// acknowledge the condition, signal the service channel. It takes no
// locks and never blocks; the window must stay mapped while interrupts
// are live.
func (d *Device) Isr() Verdict {
	b := d.bank
	if b == nil {
		return NotMine
	}
	// The volatile status read acknowledges the board-level
	// interrupt as a side effect, so it must not run when the
	// interrupt could be another device's.
	if b.Load(dioreg.VolatileInterruptStatus)&dioreg.IntActive == 0 {
		return NotMine
	}
	// Read the change detect status once. It is volatile; a second
	// read could disagree with decisions made on the first.
	status := b.Load(dioreg.ChangeDetectStatus)
	if status&dioreg.ChangeDetectPending != 0 &&
		status&dioreg.ChangeDetectError == 0 {
		atomic.StoreUint32(&d.latched,
			b.Load(dioreg.DiChangeDetectLatched))
		select {
		case d.service <- struct{}{}:
		default:
		}
	}
	// Acknowledge after the latch is captured, never before.
	if status&dioreg.ChangeDetectPending != 0 {
		b.Store(dioreg.ChangeDetectIrq, dioreg.ChangeDetectIrqAck)
	}
	if status&dioreg.ChangeDetectError != 0 {
		b.Store(dioreg.ChangeDetectIrq, dioreg.ChangeDetectErrIrqAck)
	}
	return Mine
}

// Deferred is the bottom half, run after Isr signals the service
// channel. It takes the latched snapshot, completes the oldest parked
// change-of-state wait if any, and returns the snapshot for
// publication. It never touches hardware.
func (d *Device) Deferred() (latched uint32, completed bool) {
	latched = atomic.LoadUint32(&d.latched)
	req := d.queue.pop()
	if req == nil {
		return latched, false
	}
	if len(req.buf) < ChangeDataSize {
		req.complete(0, ErrShortBuffer)
		return latched, false
	}
	putUint32(req.buf, latched)
	req.complete(ChangeDataSize, nil)
	return latched, true
}
