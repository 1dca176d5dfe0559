// Copyright © 2021-2026 the dioes authors. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package dio

import (
	"testing"

	"github.com/diogear/dioes/internal/dio/dioreg"
	"github.com/diogear/dioes/internal/dio/diosim"
)

func armed(t *testing.T) (*Device, *diosim.Bank) {
	t.Helper()
	d, b := newTestDevice(t)
	if err := d.SetOutputMask(0xffff0000); err != nil {
		t.Fatal(err)
	}
	if err := d.EnableInterrupts(); err != nil {
		t.Fatal(err)
	}
	return d, b
}

func TestIsrUnmapped(t *testing.T) {
	if v := New().Isr(); v != NotMine {
		t.Fatalf("verdict %v, want %v", v, NotMine)
	}
}

func TestIsrNotMine(t *testing.T) {
	d, b := armed(t)
	if v := d.Isr(); v != NotMine {
		t.Fatalf("verdict %v, want %v", v, NotMine)
	}
	// a disclaimed interrupt must not touch the change detect block
	if n := b.Loads(dioreg.ChangeDetectStatus); n != 0 {
		t.Fatalf("%d status reads, want 0", n)
	}
	if n := b.Loads(dioreg.DiChangeDetectLatched); n != 0 {
		t.Fatalf("%d latch reads, want 0", n)
	}
	select {
	case <-d.Service():
		t.Fatal("service signal without interrupt")
	default:
	}
}

func TestIsrClaimsChange(t *testing.T) {
	d, b := armed(t)
	acks := b.Stores(dioreg.ChangeDetectIrq)
	b.SetPins(0x5)
	if v := d.Isr(); v != Mine {
		t.Fatalf("verdict %v, want %v", v, Mine)
	}
	if n := b.Stores(dioreg.ChangeDetectIrq); n != acks+1 {
		t.Fatalf("%d acks, want %d", n-acks, 1)
	}
	select {
	case <-d.Service():
	default:
		t.Fatal("no service signal")
	}
	if latched, _ := d.Deferred(); latched != 0x5 {
		t.Fatalf("latched %#x, want 0x5", latched)
	}
	// condition acknowledged
	if s := b.Load(dioreg.ChangeDetectStatus); s != 0 {
		t.Fatalf("status %#x after ack, want 0", s)
	}
}

func TestIsrReadsStatusOnce(t *testing.T) {
	d, b := armed(t)
	b.SetPins(0x5)
	pre := b.Loads(dioreg.ChangeDetectStatus)
	if v := d.Isr(); v != Mine {
		t.Fatalf("verdict %v, want %v", v, Mine)
	}
	if n := b.Loads(dioreg.ChangeDetectStatus) - pre; n != 1 {
		t.Fatalf("%d status reads, want 1", n)
	}
}

func TestIsrErrorPath(t *testing.T) {
	d, b := armed(t)
	b.InjectError()
	if v := d.Isr(); v != Mine {
		t.Fatalf("verdict %v, want %v", v, Mine)
	}
	// error interrupts report no line state
	if n := b.Loads(dioreg.DiChangeDetectLatched); n != 0 {
		t.Fatalf("%d latch reads on error, want 0", n)
	}
	select {
	case <-d.Service():
		t.Fatal("service signal on error")
	default:
	}
	// error acknowledged
	if s := b.Load(dioreg.ChangeDetectStatus); s != 0 {
		t.Fatalf("status %#x after error ack, want 0", s)
	}
}

func TestDeferredWithoutWaiter(t *testing.T) {
	d, b := armed(t)
	b.SetPins(0x3)
	if v := d.Isr(); v != Mine {
		t.Fatalf("verdict %v, want %v", v, Mine)
	}
	latched, completed := d.Deferred()
	if completed {
		t.Fatal("completed with empty queue")
	}
	if latched != 0x3 {
		t.Fatalf("latched %#x, want 0x3", latched)
	}
}
