// Copyright © 2021-2026 the dioes authors. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package dio

import (
	"github.com/diogear/dioes/internal/dio/dioreg"
)

// ReadLines returns the current state of all 32 lines. Input lines
// reflect the pins; output lines read back the driven state.
func (d *Device) ReadLines() (uint32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.bank == nil {
		return 0, ErrNotMapped
	}
	return d.bank.Load(dioreg.StaticDigitalInput), nil
}

// WriteOutputs drives state onto the lines configured for output.
// Bits of input lines are masked off before the register write.
func (d *Device) WriteOutputs(state uint32) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.bank == nil {
		return ErrNotMapped
	}
	if d.outputMask == 0 {
		return ErrNoOutputLines
	}
	d.bank.Store(dioreg.StaticDigitalOutput, state&d.outputMask)
	return nil
}

// SetOutputMask configures line direction, set bits becoming outputs,
// and rearms change detection on the remaining input lines.
func (d *Device) SetOutputMask(mask uint32) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.bank == nil {
		return ErrNotMapped
	}
	d.outputMask = mask
	d.armChangeDetect()
	return nil
}

// OutputMask returns the current direction mask.
func (d *Device) OutputMask() uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.outputMask
}
