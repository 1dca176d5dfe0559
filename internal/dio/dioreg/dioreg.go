// Copyright © 2021-2026 the dioes authors. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package dioreg describes the register window of the 32-line static
// digital I/O device: a 512 KiB memory-mapped window holding the
// board-level interrupt block and the I/O subsystem block.
//
// Several offsets are dual-role: the write register at an offset is
// not the register read back from it. Each role has its own name here;
// aliased names share an offset value.
package dioreg

// Reg is a byte offset into the register window.
type Reg uint32

// BarSize is the size of the register window.
const BarSize = 512 << 10

const (
	// board-level interrupt block
	InterruptMask           Reg = 0x0005C // W
	InterruptStatus         Reg = 0x00060 // R
	VolatileInterruptStatus Reg = 0x00068 // R, destructive

	// I/O subsystem block
	Scratchpad            Reg = 0x20004
	Signature             Reg = 0x20060 // R
	JointReset            Reg = 0x20064 // W; reads back time since power-up
	TimeSincePowerUp      Reg = 0x20064 // R
	GlobalInterruptEnable Reg = 0x20078 // W
	StaticDigitalOutput   Reg = 0x204B0
	DioDirection          Reg = 0x204B4
	StaticDigitalInput    Reg = 0x20530 // R
	DiChangeIrqRE         Reg = 0x20540 // W
	ChangeDetectStatus    Reg = 0x20540 // R
	DiChangeIrqFE         Reg = 0x20544 // W
	DiChangeDetectLatched Reg = 0x20544 // R
	DiFilterPort01        Reg = 0x2054C // W
	DiFilterPort23        Reg = 0x20550 // W
	ChangeDetectIrq       Reg = 0x20554 // W
)

// InterruptMask bits. Set and clear are distinct strobes so the mask
// can be changed without read-modify-write.
const (
	SetCpuInt    uint32 = 1 << 31
	ClearCpuInt  uint32 = 1 << 30
	SetStc3Int   uint32 = 1 << 11
	ClearStc3Int uint32 = 1 << 10
)

// InterruptStatus and VolatileInterruptStatus bits.
const IntActive uint32 = 1 << 31

// GlobalInterruptEnable bits.
const (
	WatchdogIntDisable uint32 = 1 << 26
	DiIntDisable       uint32 = 1 << 22
	WatchdogIntEnable  uint32 = 1 << 10
	DiIntEnable        uint32 = 1 << 6
)

// ChangeDetectIrq strobes.
const (
	ChangeDetectErrIrqEnable  uint32 = 1 << 7
	ChangeDetectErrIrqDisable uint32 = 1 << 6
	ChangeDetectIrqEnable     uint32 = 1 << 5
	ChangeDetectIrqDisable    uint32 = 1 << 4
	ChangeDetectErrIrqAck     uint32 = 1 << 1
	ChangeDetectIrqAck        uint32 = 1 << 0
)

// ChangeDetectStatus bits.
const (
	ChangeDetectError   uint32 = 1 << 1
	ChangeDetectPending uint32 = 1 << 0
)

// JointReset bits.
const SoftwareReset uint32 = 1 << 0

// FilterLargeAllLines selects the largest glitch filter interval on
// every line of a filter port pair.
const FilterLargeAllLines uint32 = 0xFFFFFFFF

// Bank is a device register window. Load and Store are single
// uncached 32-bit accesses; device registers are volatile, so callers
// must not assume a Load repeats the value of the one before it.
type Bank interface {
	Load(Reg) uint32
	Store(Reg, uint32)
}
