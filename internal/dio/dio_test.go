// Copyright © 2021-2026 the dioes authors. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package dio

import (
	"testing"
	"time"

	"github.com/diogear/dioes/internal/dio/diosim"
)

func newTestDevice(t *testing.T) (*Device, *diosim.Bank) {
	t.Helper()
	b := diosim.New()
	d := New()
	if err := d.Acquire(b, b.Size()); err != nil {
		t.Fatal(err)
	}
	return d, b
}

func TestAcquireRejectsNilBank(t *testing.T) {
	if err := New().Acquire(nil, 0); err != ErrNotMapped {
		t.Fatalf("got %v, want %v", err, ErrNotMapped)
	}
}

func TestAcquireRejectsShortWindow(t *testing.T) {
	b := diosim.New()
	if err := New().Acquire(b, 4096); err != ErrNotMapped {
		t.Fatalf("got %v, want %v", err, ErrNotMapped)
	}
}

func TestAcquireResets(t *testing.T) {
	_, b := newTestDevice(t)
	if dir := b.Direction(); dir != 0 {
		t.Fatalf("direction %#x, want 0", dir)
	}
	if out := b.Output(); out != 0 {
		t.Fatalf("output %#x, want 0", out)
	}
	re, fe := b.EdgeMasks()
	if re != 0 || fe != 0 {
		t.Fatalf("edge masks %#x/%#x, want 0/0", re, fe)
	}
	if b.Armed() {
		t.Fatal("interrupt chain armed after acquire")
	}
}

func TestProbe(t *testing.T) {
	d, _ := newTestDevice(t)
	sig, err := d.Probe()
	if err != nil {
		t.Fatal(err)
	}
	if sig != diosim.Signature {
		t.Fatalf("signature %#x, want %#x", sig, diosim.Signature)
	}
}

func TestReleaseUnmaps(t *testing.T) {
	d, _ := newTestDevice(t)
	d.Release()
	if _, err := d.ReadLines(); err != ErrNotMapped {
		t.Fatalf("got %v, want %v", err, ErrNotMapped)
	}
}

// TestChangeOfState walks the whole detect path: arm, transition,
// interrupt claim, deferred completion of a parked wait.
func TestChangeOfState(t *testing.T) {
	d, b := newTestDevice(t)
	if err := d.SetOutputMask(0xffff0000); err != nil {
		t.Fatal(err)
	}
	if err := d.EnableInterrupts(); err != nil {
		t.Fatal(err)
	}
	buf := make([]byte, ChangeDataSize)
	req, err := d.WaitForChange(buf)
	if err != nil {
		t.Fatal(err)
	}

	b.SetPins(0x0000000f)

	select {
	case <-b.Irq():
	case <-time.After(time.Second):
		t.Fatal("no host interrupt")
	}
	if v := d.Isr(); v != Mine {
		t.Fatalf("verdict %v, want %v", v, Mine)
	}
	select {
	case <-d.Service():
	case <-time.After(time.Second):
		t.Fatal("no service signal")
	}
	latched, completed := d.Deferred()
	if !completed {
		t.Fatal("deferred completed no request")
	}
	if latched != 0x0000000f {
		t.Fatalf("latched %#x, want 0xf", latched)
	}
	select {
	case <-req.Done():
	default:
		t.Fatal("request not completed")
	}
	n, err := req.Result()
	if n != ChangeDataSize || err != nil {
		t.Fatalf("result %d, %v; want %d, nil", n, err, ChangeDataSize)
	}
	if got := req.Latched(); got != 0x0000000f {
		t.Fatalf("reported state %#x, want 0xf", got)
	}
}
