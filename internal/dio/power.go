// Copyright © 2021-2026 the dioes authors. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package dio

import (
	"github.com/diogear/dioes/internal/dio/dioreg"
)

// PowerDown captures the driven state of the output lines so PowerUp
// can restore it. Interrupts are quiesced separately, with
// DisableInterrupts, before power is removed.
func (d *Device) PowerDown() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.bank == nil {
		return ErrNotMapped
	}
	d.savedOutput = d.bank.Load(dioreg.StaticDigitalInput) & d.outputMask
	return nil
}

// PowerUp restores the captured output state after a power transition.
// On first entry nothing has been captured and the outputs come up
// clear.
func (d *Device) PowerUp() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.bank == nil {
		return ErrNotMapped
	}
	d.bank.Store(dioreg.StaticDigitalOutput, d.savedOutput)
	return nil
}
