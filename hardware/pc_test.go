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

package hardware_test

import (
	"bytes"
	"testing"

	"github.com/jetsetilly/gopher88/hardware"
	"github.com/jetsetilly/gopher88/test"
)

// timerROM is a minimal BIOS: it sets up a stack, points IVT entry 8 at a
// handler that counts timer ticks at 0000:0500, programs the interrupt
// controller and the timer, and parks in a HLT loop.
func timerROM() []uint8 {
	rom := make([]uint8, 0x10000)

	program := []uint8{
		0xb8, 0x00, 0x00, // mov ax, 0
		0x8e, 0xd0, // mov ss, ax
		0xbc, 0x00, 0x10, // mov sp, 0x1000

		// IVT entry 8 -> F000:0040
		0xc7, 0x06, 0x20, 0x00, 0x40, 0x00, // mov word [0x0020], 0x0040
		0xc7, 0x06, 0x22, 0x00, 0x00, 0xf0, // mov word [0x0022], 0xf000

		// 8259: single controller, vector base 8, 8086 mode, all unmasked
		0xb0, 0x13, 0xe6, 0x20, // mov al, 0x13; out 0x20, al
		0xb0, 0x08, 0xe6, 0x21, // mov al, 0x08; out 0x21, al
		0xb0, 0x01, 0xe6, 0x21, // mov al, 0x01; out 0x21, al
		0xb0, 0x00, 0xe6, 0x21, // mov al, 0x00; out 0x21, al

		// 8253 channel 0, mode 2, count 100
		0xb0, 0x34, 0xe6, 0x43, // mov al, 0x34; out 0x43, al
		0xb0, 0x64, 0xe6, 0x40, // mov al, 100; out 0x40, al
		0xb0, 0x00, 0xe6, 0x40, // mov al, 0; out 0x40, al

		0xfb,       // sti
		0xf4,       // hlt
		0xeb, 0xfd, // jmp back to the hlt
	}
	copy(rom, program)

	handler := []uint8{
		0xfe, 0x06, 0x00, 0x05, // inc byte [0x0500]
		0xb0, 0x20, 0xe6, 0x20, // mov al, 0x20; out 0x20, al (EOI)
		0xcf, // iret
	}
	copy(rom[0x40:], handler)

	// reset vector: jmp far F000:0000
	copy(rom[0xfff0:], []uint8{0xea, 0x00, 0x00, 0x00, 0xf0})

	return rom
}

func TestTimerInterrupts(t *testing.T) {
	pc := hardware.NewPC()
	test.ExpectedSuccess(t, pc.AttachROM(timerROM(), 0xf0000))
	pc.Reset()

	// the timer fires every 400 CPU cycles once programmed
	test.ExpectedSuccess(t, pc.RunForCycles(100000))

	ticks, err := pc.Mem.PeekU8(0x00500)
	test.ExpectedSuccess(t, err)
	if ticks < 2 {
		t.Errorf("timer handler ran %d times, want at least 2", ticks)
	}
}

func TestROMIsReadOnly(t *testing.T) {
	pc := hardware.NewPC()
	test.ExpectedSuccess(t, pc.AttachROM(timerROM(), 0xf0000))

	_, err := pc.Mem.WriteU8(0xf0000, 0x00, 0)
	test.ExpectedSuccess(t, err)

	v, err := pc.Mem.PeekU8(0xf0000)
	test.ExpectedSuccess(t, err)
	test.Equate(t, v, 0xb8)
}

func TestAttachDisk(t *testing.T) {
	pc := hardware.NewPC()

	raw := make([]uint8, 40*2*9*512)
	test.ExpectedSuccess(t, pc.AttachDisk(0, bytes.NewReader(raw)))

	// a truncated image is rejected
	test.ExpectedFailure(t, pc.AttachDisk(0, bytes.NewReader(raw[:100])))
}

func TestRunContinueCheck(t *testing.T) {
	pc := hardware.NewPC()
	test.ExpectedSuccess(t, pc.AttachROM(timerROM(), 0xf0000))
	pc.Reset()

	calls := 0
	err := pc.Run(func() (bool, error) {
		calls++
		return calls < 5, nil
	})
	test.ExpectedSuccess(t, err)
	test.Equate(t, calls, 5)
}
