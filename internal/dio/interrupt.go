// Copyright © 2021-2026 the dioes authors. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package dio

import (
	"github.com/diogear/dioes/internal/dio/dioreg"
)

// resetInterrupts quiesces every interrupt source outside-in: reset
// strobe, board-level forwarding masked, the I/O subsystem gated off,
// then the change detect engine disabled with any pending conditions
// acknowledged. Clearing the board level first keeps a stale condition
// from forwarding an interrupt mid-sequence.
//
// Caller holds d.mu.
func (d *Device) resetInterrupts() {
	b := d.bank
	b.Store(dioreg.JointReset, dioreg.SoftwareReset)
	b.Store(dioreg.InterruptMask, dioreg.ClearCpuInt|dioreg.ClearStc3Int)
	b.Store(dioreg.GlobalInterruptEnable,
		dioreg.DiIntDisable|dioreg.WatchdogIntDisable)
	b.Store(dioreg.ChangeDetectIrq, dioreg.ChangeDetectIrqAck|
		dioreg.ChangeDetectIrqDisable|
		dioreg.ChangeDetectErrIrqAck|
		dioreg.ChangeDetectErrIrqDisable)
}

// enableInterrupts arms the chain inside-out: I/O subsystem gate,
// change detect engine, board-level forwarding last.
//
// Caller holds d.mu.
func (d *Device) enableInterrupts() {
	b := d.bank
	b.Store(dioreg.GlobalInterruptEnable, dioreg.DiIntEnable)
	b.Store(dioreg.ChangeDetectIrq,
		dioreg.ChangeDetectErrIrqEnable|dioreg.ChangeDetectIrqEnable)
	b.Store(dioreg.InterruptMask, dioreg.SetCpuInt|dioreg.SetStc3Int)
}

// deviceReset returns the hardware to power-on defaults.
//
// Caller holds d.mu.
func (d *Device) deviceReset() {
	d.resetInterrupts()
	b := d.bank
	b.Store(dioreg.DioDirection, 0)
	b.Store(dioreg.StaticDigitalOutput, 0)
	b.Store(dioreg.DiChangeIrqRE, 0)
	b.Store(dioreg.DiChangeIrqFE, 0)
}

// armChangeDetect programs filters, direction, and edge detection from
// the output mask. Direction is written before the edge masks so a
// line leaving output mode cannot latch a spurious transition.
//
// Caller holds d.mu.
func (d *Device) armChangeDetect() {
	b := d.bank
	b.Store(dioreg.DiFilterPort01, dioreg.FilterLargeAllLines)
	b.Store(dioreg.DiFilterPort23, dioreg.FilterLargeAllLines)
	b.Store(dioreg.DioDirection, d.outputMask)
	b.Store(dioreg.DiChangeIrqRE, ^d.outputMask)
	b.Store(dioreg.DiChangeIrqFE, ^d.outputMask)
}

// EnableInterrupts runs the activation sequence: quiesce, enable the
// chain, rearm change detection from the current output mask.
func (d *Device) EnableInterrupts() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.bank == nil {
		return ErrNotMapped
	}
	d.resetInterrupts()
	d.enableInterrupts()
	d.armChangeDetect()
	return nil
}

// DisableInterrupts quiesces the interrupt chain.
func (d *Device) DisableInterrupts() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.bank == nil {
		return ErrNotMapped
	}
	d.resetInterrupts()
	return nil
}
