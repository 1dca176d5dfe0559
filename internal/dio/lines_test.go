// Copyright © 2021-2026 the dioes authors. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package dio

import (
	"testing"

	"github.com/diogear/dioes/internal/dio/dioreg"
)

func TestReadLinesUnmapped(t *testing.T) {
	if _, err := New().ReadLines(); err != ErrNotMapped {
		t.Fatalf("got %v, want %v", err, ErrNotMapped)
	}
}

func TestReadLinesReflectsPins(t *testing.T) {
	d, b := newTestDevice(t)
	b.SetPins(0xdeadbeef)
	got, err := d.ReadLines()
	if err != nil {
		t.Fatal(err)
	}
	if got != 0xdeadbeef {
		t.Fatalf("lines %#x, want 0xdeadbeef", got)
	}
}

func TestWriteNoOutputLines(t *testing.T) {
	d, _ := newTestDevice(t)
	if err := d.WriteOutputs(1); err != ErrNoOutputLines {
		t.Fatalf("got %v, want %v", err, ErrNoOutputLines)
	}
}

func TestWriteMasksInputBits(t *testing.T) {
	d, b := newTestDevice(t)
	if err := d.SetOutputMask(0x0000ffff); err != nil {
		t.Fatal(err)
	}
	if err := d.WriteOutputs(0xabcd1234); err != nil {
		t.Fatal(err)
	}
	if out := b.Output(); out != 0x1234 {
		t.Fatalf("output register %#x, want 0x1234", out)
	}
	// output lines read back the driven state
	got, err := d.ReadLines()
	if err != nil {
		t.Fatal(err)
	}
	if got != 0x1234 {
		t.Fatalf("lines %#x, want 0x1234", got)
	}
}

func TestSetOutputMaskArms(t *testing.T) {
	d, b := newTestDevice(t)
	if err := d.SetOutputMask(0xff); err != nil {
		t.Fatal(err)
	}
	if dir := b.Direction(); dir != 0xff {
		t.Fatalf("direction %#x, want 0xff", dir)
	}
	re, fe := b.EdgeMasks()
	if re != ^uint32(0xff) || fe != ^uint32(0xff) {
		t.Fatalf("edge masks %#x/%#x, want %#x on both",
			re, fe, ^uint32(0xff))
	}
	p01, p23 := b.Filters()
	if p01 != dioreg.FilterLargeAllLines || p23 != dioreg.FilterLargeAllLines {
		t.Fatalf("filters %#x/%#x, want %#x on both",
			p01, p23, dioreg.FilterLargeAllLines)
	}
	if got := d.OutputMask(); got != 0xff {
		t.Fatalf("output mask %#x, want 0xff", got)
	}
}

// An output-driven transition must not latch a change-of-state.
func TestOutputTransitionNotDetected(t *testing.T) {
	d, b := newTestDevice(t)
	if err := d.SetOutputMask(0x1); err != nil {
		t.Fatal(err)
	}
	if err := d.EnableInterrupts(); err != nil {
		t.Fatal(err)
	}
	if err := d.WriteOutputs(0x1); err != nil {
		t.Fatal(err)
	}
	if b.IntActive() {
		t.Fatal("interrupt from output transition")
	}
}
