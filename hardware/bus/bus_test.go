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

package bus_test

import (
	"testing"

	"github.com/jetsetilly/gopher88/hardware/bus"
	"github.com/jetsetilly/gopher88/test"
)

func TestReadWrite(t *testing.T) {
	b := bus.NewBus()

	_, err := b.WriteU8(0x1000, 0xab, 0)
	test.ExpectedSuccess(t, err)

	v, _, err := b.ReadU8(0x1000, 0)
	test.ExpectedSuccess(t, err)
	test.Equate(t, v, 0xab)

	// word access assembles little endian
	_, err = b.WriteU16(0x2000, 0x1234, 0)
	test.ExpectedSuccess(t, err)

	lo, _, err := b.ReadU8(0x2000, 0)
	test.ExpectedSuccess(t, err)
	test.Equate(t, lo, 0x34)

	w, _, err := b.ReadU16(0x2000, 0)
	test.ExpectedSuccess(t, err)
	test.Equate(t, w, 0x1234)
}

func TestBounds(t *testing.T) {
	b := bus.NewBus()

	_, _, err := b.ReadU8(bus.MemorySize, 0)
	test.ExpectedFailure(t, err)

	_, err = b.WriteU8(bus.MemorySize, 0x00, 0)
	test.ExpectedFailure(t, err)
}

func TestROM(t *testing.T) {
	b := bus.NewBus()

	err := b.CopyFrom([]uint8{0x11, 0x22}, 0xf0000, true)
	test.ExpectedSuccess(t, err)

	// writes to ROM are dropped without error
	_, err = b.WriteU8(0xf0000, 0xff, 0)
	test.ExpectedSuccess(t, err)

	v, _, err := b.ReadU8(0xf0000, 0)
	test.ExpectedSuccess(t, err)
	test.Equate(t, v, 0x11)

	// Patch is the privileged path
	test.ExpectedSuccess(t, b.Patch(0xf0000, 0xff))
	v, _, _ = b.ReadU8(0xf0000, 0)
	test.Equate(t, v, 0xff)
}

func TestFlags(t *testing.T) {
	b := bus.NewBus()

	test.Equate(t, b.GetFlag(0x1234, bus.MaskBreakpointExec), false)
	b.SetFlag(0x1234, bus.MaskBreakpointExec)
	test.Equate(t, b.GetFlag(0x1234, bus.MaskBreakpointExec), true)
	b.ClearFlag(0x1234, bus.MaskBreakpointExec)
	test.Equate(t, b.GetFlag(0x1234, bus.MaskBreakpointExec), false)
}

func TestStopwatch(t *testing.T) {
	b := bus.NewBus()

	b.SetFlag(0x3000, bus.MaskStopwatch)
	b.ReadU8(0x3000, 0)
	b.WriteU8(0x3000, 0x01, 0)
	b.ReadU8(0x3001, 0)
	test.Equate(t, b.StopwatchHits, 2)
}

// mmioDev records accesses and charges a fixed wait.
type mmioDev struct {
	lastWrite uint8
	ticks     int
}

func (d *mmioDev) ReadMMIO(addr uint32, _ int) (uint8, int) {
	return uint8(addr), d.ticks
}

func (d *mmioDev) WriteMMIO(_ uint32, data uint8, _ int) int {
	d.lastWrite = data
	return d.ticks
}

func (d *mmioDev) PeekMMIO(_ uint32) uint8 {
	return 0x42
}

func TestMMIO(t *testing.T) {
	b := bus.NewBus()

	dev := &mmioDev{ticks: 6}
	b.MapMMIO(bus.MMIOVideo, dev, 0xb8000, 0x1000)

	v, wait, err := b.ReadU8(0xb8042, 0)
	test.ExpectedSuccess(t, err)
	test.Equate(t, v, 0x42)

	// six system ticks round up to two CPU cycles
	test.Equate(t, wait, 2)

	_, err = b.WriteU8(0xb8000, 0x7f, 0)
	test.ExpectedSuccess(t, err)
	test.Equate(t, dev.lastWrite, 0x7f)

	// peek bypasses the device read path
	p, err := b.PeekU8(0xb8000)
	test.ExpectedSuccess(t, err)
	test.Equate(t, p, 0x42)

	// outside the region, plain memory
	_, err = b.WriteU8(0xb7fff, 0x55, 0)
	test.ExpectedSuccess(t, err)
}

// ioDev is a one-port device that echoes writes back on read.
type ioDev struct {
	value uint8
}

func (d *ioDev) PortList() []uint16 {
	return []uint16{0x3f8}
}

func (d *ioDev) ReadPort(_ uint16, _ int) (uint8, int) {
	return d.value, 0
}

func (d *ioDev) WritePort(_ uint16, data uint8, _ int) int {
	d.value = data
	return 0
}

func TestIOPorts(t *testing.T) {
	b := bus.NewBus()

	dev := &ioDev{}
	b.RegisterPorts("echo", dev)

	b.IOWrite8(0x3f8, 0x5a, 0)
	v, _ := b.IORead8(0x3f8, 0)
	test.Equate(t, v, 0x5a)

	// unclaimed ports float high and swallow writes
	v, _ = b.IORead8(0x200, 0)
	test.Equate(t, v, 0xff)
	test.Equate(t, b.IOWrite8(0x200, 0x00, 0), 0)
}

func TestWaitCycles(t *testing.T) {
	b := bus.NewBus()

	test.Equate(t, b.WaitCycles(0), 0)
	test.Equate(t, b.WaitCycles(1), 1)
	test.Equate(t, b.WaitCycles(3), 1)
	test.Equate(t, b.WaitCycles(4), 2)
	test.Equate(t, b.WaitCycles(-1), 0)
}
