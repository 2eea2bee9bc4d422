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

// Package pic implements the 8259A programmable interrupt controller, as
// wired in the IBM PC: a single controller, edge triggered, fixed priority
// with IRQ0 highest.
package pic

import (
	"fmt"

	"github.com/jetsetilly/gopher88/logger"
)

// IO ports of the primary controller.
const (
	PortCommand = 0x20
	PortData    = 0x21
)

// initialisation sequence state
type initState int

const (
	initNone initState = iota
	initICW2
	initICW3
	initICW4
)

// PIC implements the 8259A.
type PIC struct {
	irr uint8
	imr uint8
	isr uint8

	// lines records the level of each request line so that only a
	// low-to-high transition latches into the IRR
	lines uint8

	vectorBase uint8

	state      initState
	expectICW4 bool
	singleMode bool
	autoEOI    bool

	// OCW3 register select. false reads the IRR, true reads the ISR
	readISR bool
}

// NewPIC is the preferred method of initialisation for the PIC type.
func NewPIC() *PIC {
	return &PIC{}
}

func (p *PIC) String() string {
	return fmt.Sprintf("IRR=%02x IMR=%02x ISR=%02x base=%02x", p.irr, p.imr, p.isr, p.vectorBase)
}

// Reset the controller to the uninitialised state.
func (p *PIC) Reset() {
	p.irr = 0
	p.imr = 0
	p.isr = 0
	p.lines = 0
	p.vectorBase = 0
	p.state = initNone
	p.autoEOI = false
	p.readISR = false
}

// SetIRQ drives one of the request lines. A low-to-high transition latches
// the request; holding the line high does not re-request.
func (p *PIC) SetIRQ(line int, level bool) {
	bit := uint8(1) << uint(line&0x07)
	if level {
		if p.lines&bit == 0 {
			p.irr |= bit
		}
		p.lines |= bit
	} else {
		p.lines &^= bit
	}
}

// highestPending returns the highest priority unmasked request, or -1. A
// request is blocked while the same or a higher priority interrupt is in
// service.
func (p *PIC) highestPending() int {
	pending := p.irr &^ p.imr
	if pending == 0 {
		return -1
	}

	for line := 0; line < 8; line++ {
		bit := uint8(1) << uint(line)
		if p.isr&bit == bit {
			// a higher or equal priority interrupt is in service
			return -1
		}
		if pending&bit == bit {
			return line
		}
	}
	return -1
}

// QueryInterruptLine returns true when the INTR output is asserted.
func (p *PIC) QueryInterruptLine() bool {
	return p.highestPending() >= 0
}

// GetInterruptVector acknowledges the highest priority pending request and
// returns its vector number. Models the INTA pulse pair: the request moves
// from the IRR to the ISR, unless auto-EOI is programmed.
func (p *PIC) GetInterruptVector() uint8 {
	line := p.highestPending()
	if line < 0 {
		// spurious acknowledge yields IRQ7
		return p.vectorBase + 7
	}

	bit := uint8(1) << uint(line)
	p.irr &^= bit
	if !p.autoEOI {
		p.isr |= bit
	}

	return p.vectorBase + uint8(line)
}

// PortList implements the bus.IODevice interface.
func (p *PIC) PortList() []uint16 {
	return []uint16{PortCommand, PortData}
}

// ReadPort implements the bus.IODevice interface.
func (p *PIC) ReadPort(port uint16, _ int) (uint8, int) {
	switch port {
	case PortCommand:
		if p.readISR {
			return p.isr, 0
		}
		return p.irr, 0
	case PortData:
		return p.imr, 0
	}
	return 0xff, 0
}

// WritePort implements the bus.IODevice interface.
func (p *PIC) WritePort(port uint16, data uint8, _ int) int {
	switch port {
	case PortCommand:
		if data&0x10 == 0x10 {
			p.icw1(data)
		} else if data&0x08 == 0x08 {
			p.ocw3(data)
		} else {
			p.ocw2(data)
		}
	case PortData:
		switch p.state {
		case initICW2:
			p.vectorBase = data & 0xf8
			if p.singleMode {
				if p.expectICW4 {
					p.state = initICW4
				} else {
					p.state = initNone
				}
			} else {
				p.state = initICW3
			}
		case initICW3:
			// cascade configuration, ignored on a single-controller machine
			if p.expectICW4 {
				p.state = initICW4
			} else {
				p.state = initNone
			}
		case initICW4:
			p.autoEOI = data&0x02 == 0x02
			p.state = initNone
		default:
			// OCW1: interrupt mask
			p.imr = data
		}
	}
	return 0
}

// icw1 starts the initialisation sequence.
func (p *PIC) icw1(data uint8) {
	p.expectICW4 = data&0x01 == 0x01
	p.singleMode = data&0x02 == 0x02
	p.state = initICW2

	// ICW1 clears the mask and the in-service register
	p.imr = 0
	p.isr = 0
	p.readISR = false

	if data&0x08 == 0x08 {
		logger.Log("pic", "level triggered mode requested; PC hardware is edge triggered")
	}
}

// ocw2 handles the EOI commands.
func (p *PIC) ocw2(data uint8) {
	switch data >> 5 {
	case 0x01:
		// non-specific EOI: clear the highest priority in-service bit
		for line := 0; line < 8; line++ {
			bit := uint8(1) << uint(line)
			if p.isr&bit == bit {
				p.isr &^= bit
				return
			}
		}
	case 0x03:
		// specific EOI
		p.isr &^= 1 << uint(data&0x07)
	default:
		logger.Logf("pic", "unsupported OCW2 %02x", data)
	}
}

// ocw3 selects the register returned by a command port read.
func (p *PIC) ocw3(data uint8) {
	if data&0x02 == 0x02 {
		p.readISR = data&0x01 == 0x01
	}
}
