// Copyright © 2021-2026 the dioes authors. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package diosim

import (
	"testing"

	"github.com/diogear/dioes/internal/dio/dioreg"
)

func TestLinesFollowDirection(t *testing.T) {
	b := New()
	b.SetPins(0xffffffff)
	b.Store(dioreg.DioDirection, 0xff)
	b.Store(dioreg.StaticDigitalOutput, 0x0f)
	got := b.Load(dioreg.StaticDigitalInput)
	if want := uint32(0xffffff0f); got != want {
		t.Fatalf("lines %#x, want %#x", got, want)
	}
}

func TestVolatileReadAcks(t *testing.T) {
	b := New()
	b.Store(dioreg.GlobalInterruptEnable, dioreg.DiIntEnable)
	b.Store(dioreg.ChangeDetectIrq, dioreg.ChangeDetectIrqEnable)
	b.Store(dioreg.InterruptMask, dioreg.SetCpuInt|dioreg.SetStc3Int)
	b.Store(dioreg.DiChangeIrqRE, 0xffffffff)
	b.SetPins(1)
	if got := b.Load(dioreg.VolatileInterruptStatus); got != dioreg.IntActive {
		t.Fatalf("volatile status %#x, want %#x", got, dioreg.IntActive)
	}
	// the first read acknowledged the interrupt
	if got := b.Load(dioreg.VolatileInterruptStatus); got != 0 {
		t.Fatalf("volatile status %#x after ack, want 0", got)
	}
}

func TestAckStrobes(t *testing.T) {
	b := New()
	b.Store(dioreg.ChangeDetectIrq, dioreg.ChangeDetectIrqEnable|
		dioreg.ChangeDetectErrIrqEnable)
	b.Store(dioreg.DiChangeIrqFE, 0xffffffff)
	b.SetPins(1)
	b.SetPins(0) // falling edge
	b.InjectError()
	want := dioreg.ChangeDetectPending | dioreg.ChangeDetectError
	if got := b.Load(dioreg.ChangeDetectStatus); got != want {
		t.Fatalf("status %#x, want %#x", got, want)
	}
	b.Store(dioreg.ChangeDetectIrq, dioreg.ChangeDetectIrqAck)
	if got := b.Load(dioreg.ChangeDetectStatus); got != dioreg.ChangeDetectError {
		t.Fatalf("status %#x, want error only", got)
	}
	b.Store(dioreg.ChangeDetectIrq, dioreg.ChangeDetectErrIrqAck)
	if got := b.Load(dioreg.ChangeDetectStatus); got != 0 {
		t.Fatalf("status %#x, want 0", got)
	}
}

func TestSoftwareResetKeepsLineConfig(t *testing.T) {
	b := New()
	b.Store(dioreg.DioDirection, 0xff)
	b.Store(dioreg.StaticDigitalOutput, 0x55)
	b.Store(dioreg.DiChangeIrqRE, 0xffffff00)
	b.SetPins(0x100)
	b.Store(dioreg.JointReset, dioreg.SoftwareReset)
	if got := b.Load(dioreg.ChangeDetectStatus); got != 0 {
		t.Fatalf("status %#x after reset, want 0", got)
	}
	if dir := b.Direction(); dir != 0xff {
		t.Fatalf("direction %#x after reset, want 0xff", dir)
	}
	if out := b.Output(); out != 0x55 {
		t.Fatalf("output %#x after reset, want 0x55", out)
	}
}
