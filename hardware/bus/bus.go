// This file is part of Gopher88.
//
// Gopher88 is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Gopher88 is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Gopher88.  If not, see <https://www.gnu.org/licenses/>.

// Package bus is the memory and IO fabric of the machine. Memory is a flat
// 1 MiB array with a parallel per-byte mask. Mask bits mark ROM, memory
// mapped IO and the addresses the debugger is interested in. Reads and
// writes report the number of wait cycles the CPU must honour before
// completing the bus cycle.
package bus

import (
	"github.com/jetsetilly/gopher88/curated"
)

// MemorySize is the size of the 8088 physical address space.
const MemorySize = 1 << 20

// Mask bits. One mask byte per memory address.
const (
	MaskROM = 0x01 << iota
	MaskMMIO
	MaskBreakpointExec
	MaskStopwatch
	MaskReturnMark
)

// Error patterns for the bus package.
const (
	ReadOutOfBounds  = "bus: read out of bounds: %06x"
	WriteOutOfBounds = "bus: write out of bounds: %06x"
	MMIOError        = "bus: mmio: %v"
)

// the system clock runs at three times the CPU clock. device wait states
// are counted in system ticks and must be converted before the CPU can
// honour them
const sysTicksPerCycle = 3

// maximum number of system ticks a device may request as a wait state
const maxWaitTicks = 256

// Bus is the memory bus. Created by NewBus() and shared by the CPU, the DMA
// controller and the debugger tooling.
type Bus struct {
	memory []uint8
	mask   []uint8

	mmio [MemorySize >> mmioShift]mmioEntry

	ports map[uint16]IODevice

	// precomputed system-tick to CPU-cycle conversion
	waitTable [maxWaitTicks]int

	// count of completed memory accesses. the stopwatch mask bit increments
	// StopwatchHits for the debugger
	StopwatchHits int
}

// NewBus is the preferred method of initialisation for the Bus type. Memory
// is zero-initialised.
func NewBus() *Bus {
	b := &Bus{
		memory: make([]uint8, MemorySize),
		mask:   make([]uint8, MemorySize),
		ports:  make(map[uint16]IODevice),
	}

	for i := 0; i < maxWaitTicks; i++ {
		b.waitTable[i] = (i + sysTicksPerCycle - 1) / sysTicksPerCycle
	}

	return b
}

// WaitCycles converts a wait-state count in system ticks to CPU cycles.
func (b *Bus) WaitCycles(sysTicks int) int {
	if sysTicks < 0 {
		return 0
	}
	if sysTicks >= maxWaitTicks {
		sysTicks = maxWaitTicks - 1
	}
	return b.waitTable[sysTicks]
}

// ReadU8 reads a byte from the given physical address. The cpuCycles
// argument is the number of cycles the current instruction has spent so
// far, passed on to MMIO devices that need to catch up to the CPU clock.
// Returns the byte and the number of extra wait cycles the caller must add
// to its own accounting.
func (b *Bus) ReadU8(addr uint32, cpuCycles int) (uint8, int, error) {
	if addr >= MemorySize {
		return 0, 0, curated.Errorf(ReadOutOfBounds, addr)
	}

	if b.mask[addr]&MaskMMIO == MaskMMIO {
		v, ticks, err := b.mmioRead(addr, cpuCycles)
		return v, b.WaitCycles(ticks), err
	}

	if b.mask[addr]&MaskStopwatch == MaskStopwatch {
		b.StopwatchHits++
	}

	return b.memory[addr], 0, nil
}

// ReadU16 reads a word from the given physical address. Split reads on odd
// addresses are permitted; the bus itself does not decompose the access
// into two cycles, the BIU does.
func (b *Bus) ReadU16(addr uint32, cpuCycles int) (uint16, int, error) {
	lo, w1, err := b.ReadU8(addr, cpuCycles)
	if err != nil {
		return 0, 0, err
	}
	hi, w2, err := b.ReadU8(addr+1, cpuCycles)
	if err != nil {
		return 0, 0, err
	}
	return uint16(hi)<<8 | uint16(lo), w1 + w2, nil
}

// WriteU8 writes a byte to the given physical address, returning the wait
// cycle count. Writes to ROM-masked addresses are silently dropped; use
// Patch() for the privileged path.
func (b *Bus) WriteU8(addr uint32, data uint8, cpuCycles int) (int, error) {
	if addr >= MemorySize {
		return 0, curated.Errorf(WriteOutOfBounds, addr)
	}

	if b.mask[addr]&MaskMMIO == MaskMMIO {
		ticks, err := b.mmioWrite(addr, data, cpuCycles)
		return b.WaitCycles(ticks), err
	}

	if b.mask[addr]&MaskROM == MaskROM {
		return 0, nil
	}

	if b.mask[addr]&MaskStopwatch == MaskStopwatch {
		b.StopwatchHits++
	}

	b.memory[addr] = data
	return 0, nil
}

// WriteU16 writes a word to the given physical address.
func (b *Bus) WriteU16(addr uint32, data uint16, cpuCycles int) (int, error) {
	w1, err := b.WriteU8(addr, uint8(data), cpuCycles)
	if err != nil {
		return 0, err
	}
	w2, err := b.WriteU8(addr+1, uint8(data>>8), cpuCycles)
	if err != nil {
		return 0, err
	}
	return w1 + w2, nil
}

// PeekU8 is identical to ReadU8 but with no wait accounting and no side
// effects on devices.
func (b *Bus) PeekU8(addr uint32) (uint8, error) {
	if addr >= MemorySize {
		return 0, curated.Errorf(ReadOutOfBounds, addr)
	}
	if b.mask[addr]&MaskMMIO == MaskMMIO {
		return b.mmioPeek(addr), nil
	}
	return b.memory[addr], nil
}

// PeekU16 is identical to ReadU16 but with no wait accounting and no side
// effects on devices.
func (b *Bus) PeekU16(addr uint32) (uint16, error) {
	lo, err := b.PeekU8(addr)
	if err != nil {
		return 0, err
	}
	hi, err := b.PeekU8(addr + 1)
	if err != nil {
		return 0, err
	}
	return uint16(hi)<<8 | uint16(lo), nil
}

// Patch writes a byte regardless of the ROM mask bit. The privileged path
// used by ROM patching and the debugger.
func (b *Bus) Patch(addr uint32, data uint8) error {
	if addr >= MemorySize {
		return curated.Errorf(WriteOutOfBounds, addr)
	}
	b.memory[addr] = data
	return nil
}

// SetFlag sets the given mask bits at an address.
func (b *Bus) SetFlag(addr uint32, flags uint8) {
	if addr >= MemorySize {
		return
	}
	b.mask[addr] |= flags
}

// ClearFlag clears the given mask bits at an address. The ROM bit cannot be
// cleared through the public API.
func (b *Bus) ClearFlag(addr uint32, flags uint8) {
	if addr >= MemorySize {
		return
	}
	b.mask[addr] &^= flags &^ MaskROM
}

// GetFlag returns true if all the given mask bits are set at an address.
func (b *Bus) GetFlag(addr uint32, flags uint8) bool {
	if addr >= MemorySize {
		return false
	}
	return b.mask[addr]&flags == flags
}

// CopyFrom bulk-loads a slice into memory at the given address. If readOnly
// is set the loaded region is marked as ROM and locked against further
// writes.
func (b *Bus) CopyFrom(data []uint8, addr uint32, readOnly bool) error {
	if addr+uint32(len(data)) > MemorySize {
		return curated.Errorf(WriteOutOfBounds, addr+uint32(len(data)))
	}

	copy(b.memory[addr:], data)

	if readOnly {
		for i := addr; i < addr+uint32(len(data)); i++ {
			b.mask[i] |= MaskROM
		}
	}

	return nil
}
