// Copyright © 2021-2026 the dioes authors. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package dio

import (
	"testing"
)

func TestWaitUnmapped(t *testing.T) {
	if _, err := New().WaitForChange(make([]byte, 4)); err != ErrNotMapped {
		t.Fatalf("got %v, want %v", err, ErrNotMapped)
	}
}

func TestWaitNoInputLines(t *testing.T) {
	d, _ := newTestDevice(t)
	if err := d.SetOutputMask(0xffffffff); err != nil {
		t.Fatal(err)
	}
	if _, err := d.WaitForChange(make([]byte, 4)); err != ErrNoInputLines {
		t.Fatalf("got %v, want %v", err, ErrNoInputLines)
	}
}

func TestWaitShortBuffer(t *testing.T) {
	d, _ := newTestDevice(t)
	if _, err := d.WaitForChange(make([]byte, 3)); err != ErrShortBuffer {
		t.Fatalf("got %v, want %v", err, ErrShortBuffer)
	}
}

func TestWaitersCompleteOldestFirst(t *testing.T) {
	d, b := armed(t)
	first, err := d.WaitForChange(make([]byte, 4))
	if err != nil {
		t.Fatal(err)
	}
	second, err := d.WaitForChange(make([]byte, 4))
	if err != nil {
		t.Fatal(err)
	}

	b.SetPins(0x1)
	d.Isr()
	d.Deferred()

	select {
	case <-first.Done():
	default:
		t.Fatal("oldest waiter not completed")
	}
	select {
	case <-second.Done():
		t.Fatal("newest waiter completed early")
	default:
	}

	b.SetPins(0x3)
	d.Isr()
	d.Deferred()

	select {
	case <-second.Done():
	default:
		t.Fatal("second waiter not completed")
	}
	if got := second.Latched(); got != 0x3 {
		t.Fatalf("latched %#x, want 0x3", got)
	}
}

func TestCancel(t *testing.T) {
	d, b := armed(t)
	req, err := d.WaitForChange(make([]byte, 4))
	if err != nil {
		t.Fatal(err)
	}
	if !d.Cancel(req) {
		t.Fatal("cancel of parked request failed")
	}
	if d.Cancel(req) {
		t.Fatal("second cancel succeeded")
	}

	b.SetPins(0x1)
	d.Isr()
	if _, completed := d.Deferred(); completed {
		t.Fatal("cancelled request completed")
	}
	select {
	case <-req.Done():
		t.Fatal("cancelled request signalled done")
	default:
	}
}

func TestReleaseCompletesWaiters(t *testing.T) {
	d, _ := newTestDevice(t)
	req, err := d.WaitForChange(make([]byte, 4))
	if err != nil {
		t.Fatal(err)
	}
	d.Release()
	select {
	case <-req.Done():
	default:
		t.Fatal("waiter survived release")
	}
	if _, err := req.Result(); err != ErrNotMapped {
		t.Fatalf("got %v, want %v", err, ErrNotMapped)
	}
}
