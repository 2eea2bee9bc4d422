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

// Package hardware assembles the machine: CPU, bus, interrupt controller,
// timer, DMA controller, floppy controller and serial port, wired as in
// the IBM PC.
package hardware

import (
	"io"

	"github.com/jetsetilly/gopher88/hardware/bus"
	"github.com/jetsetilly/gopher88/hardware/cpu"
	"github.com/jetsetilly/gopher88/hardware/dma"
	"github.com/jetsetilly/gopher88/hardware/fdc"
	"github.com/jetsetilly/gopher88/hardware/fdc/diskimage"
	"github.com/jetsetilly/gopher88/hardware/pic"
	"github.com/jetsetilly/gopher88/hardware/pit"
	"github.com/jetsetilly/gopher88/hardware/uart"
)

// IRQ assignments of the PC.
const (
	IRQTimer  = 0
	IRQSerial = 4
	IRQFloppy = 6
)

// the CPU clock in Hz. 14.31818 MHz crystal divided by three
const ClockHz = 4772726

// the UART is timed in microseconds. accumulate CPU cycles scaled by 1e6
// and run the port forward when a whole microsecond has passed
const cyclesPerMicrosecond = ClockHz / 1000000

// PC is the assembled machine.
type PC struct {
	Mem  *bus.Bus
	CPU  *cpu.CPU
	PIC  *pic.PIC
	PIT  *pit.PIT
	DMA  *dma.DMA
	FDC  *fdc.FDC
	UART *uart.UART

	uartAccum int
}

// NewPC is the preferred method of initialisation for the PC type.
func NewPC() *PC {
	mem := bus.NewBus()

	p := &PC{
		Mem: mem,
		CPU: cpu.NewCPU(mem),
		PIC: pic.NewPIC(),
		DMA: dma.NewDMA(mem),
	}

	p.PIT = pit.NewPIT(func(ch int, level bool) {
		if ch == 0 {
			p.PIC.SetIRQ(IRQTimer, level)
		}
	})

	p.FDC = fdc.NewFDC(p.DMA, func(level bool) {
		p.PIC.SetIRQ(IRQFloppy, level)
	})

	p.UART = uart.NewUART(func(level bool) {
		p.PIC.SetIRQ(IRQSerial, level)
	})

	mem.RegisterPorts("pic", p.PIC)
	mem.RegisterPorts("pit", p.PIT)
	mem.RegisterPorts("dma", p.DMA)
	mem.RegisterPorts("fdc", p.FDC)
	mem.RegisterPorts("uart", p.UART)

	p.CPU.AttachPIC(p.PIC)
	p.CPU.TickDevices = p.tick

	return p
}

// tick advances every passive device by one CPU cycle.
func (p *PC) tick() {
	p.PIT.Tick()
	p.FDC.Tick()
	p.DMA.Tick()

	p.uartAccum++
	if p.uartAccum >= cyclesPerMicrosecond {
		p.uartAccum -= cyclesPerMicrosecond
		p.UART.RunFor(1)
	}
}

// Reset the machine to the power-on state.
func (p *PC) Reset() {
	p.CPU.Reset()
	p.PIC.Reset()
	p.PIT.Reset()
	p.DMA.Reset()
	p.FDC.Reset()
	p.UART.Reset()
	p.uartAccum = 0
}

// AttachROM copies a ROM image into memory at the given physical address
// and marks it read-only.
func (p *PC) AttachROM(data []uint8, addr uint32) error {
	return p.Mem.CopyFrom(data, addr, true)
}

// AttachDisk loads a raw floppy image into the numbered drive.
func (p *PC) AttachDisk(driveNum int, r io.Reader) error {
	img, err := diskimage.NewFromReader(r)
	if err != nil {
		return err
	}
	p.FDC.AttachImage(driveNum, img)
	return nil
}

// Step the machine by one CPU instruction.
func (p *PC) Step() error {
	return p.CPU.Step(false)
}
