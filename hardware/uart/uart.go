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

// Package uart implements the 8250 serial port at COM1 (0x3F8, IRQ4).
// Transmission is timed in microseconds from the programmed divisor; the
// machine calls RunFor() as wall-clock time passes.
package uart

import (
	"github.com/jetsetilly/gopher88/logger"
)

// base port of COM1
const PortBase = 0x3f8

// register offsets from the base port
const (
	regData    = 0 // RBR on read, THR on write, DLL with DLAB
	regIER     = 1 // DLM with DLAB
	regIIR     = 2
	regLCR     = 3
	regMCR     = 4
	regLSR     = 5
	regMSR     = 6
	regScratch = 7
)

// IER bits
const (
	ierRxData = 0x01
	ierTHRE   = 0x02
	ierLine   = 0x04
	ierModem  = 0x08
)

// IIR values, already shifted. bit 0 clear means an interrupt is pending
const (
	iirNone   = 0x01
	iirModem  = 0x00
	iirTHRE   = 0x02
	iirRxData = 0x04
	iirLine   = 0x06
)

// LSR bits
const (
	lsrDataReady = 0x01
	lsrOverrun   = 0x02
	lsrTHRE      = 0x20
	lsrTEMT      = 0x40
)

// MCR bits
const (
	mcrDTR      = 0x01
	mcrRTS      = 0x02
	mcrOUT2     = 0x08
	mcrLoopback = 0x10
)

// LCR divisor latch access bit
const lcrDLAB = 0x80

// a character frame is roughly ten bit times. at divisor d the bit rate is
// 115200/d, so the frame time in microseconds is 10e6*d/115200
const usPerFrameUnit = 87 // per divisor unit, rounded

// size of the host-facing buffers
const bufferSize = 4096

// IRQLine is called to raise or drop IRQ4.
type IRQLine func(level bool)

// UART implements the 8250.
type UART struct {
	irq IRQLine

	divisor uint16
	ier     uint8
	lcr     uint8
	mcr     uint8
	scratch uint8

	// receive buffer register and its ready flag
	rbr     uint8
	rxReady bool
	overrun bool

	// transmit holding and shift registers
	thr        uint8
	thrFull    bool
	shiftFull  bool
	shiftValue uint8

	// microseconds until the shift register drains
	txRemaining int

	// microseconds until the next queued receive byte is assembled
	rxRemaining int

	// pending interrupt causes
	intTHRE   bool
	intRxData bool

	// bytes transmitted out of the port, drained by the host
	sent []uint8

	// bytes queued by the host for reception
	rxQueue []uint8
}

// NewUART is the preferred method of initialisation for the UART type.
func NewUART(irq IRQLine) *UART {
	return &UART{
		irq:     irq,
		divisor: 12, // 9600 baud
	}
}

// Reset the port to power-on state.
func (u *UART) Reset() {
	u.divisor = 12
	u.ier = 0
	u.lcr = 0
	u.mcr = 0
	u.rxReady = false
	u.overrun = false
	u.thrFull = false
	u.shiftFull = false
	u.txRemaining = 0
	u.rxRemaining = 0
	u.intTHRE = false
	u.intRxData = false
	u.sent = u.sent[:0]
	u.rxQueue = u.rxQueue[:0]
	u.updateIRQ()
}

// frameTime is the transmission time of one character in microseconds.
func (u *UART) frameTime() int {
	d := int(u.divisor)
	if d == 0 {
		d = 1
	}
	return d * usPerFrameUnit / 10
}

// QueueReceive hands the port a byte arriving from the outside world.
func (u *UART) QueueReceive(b uint8) {
	if len(u.rxQueue) < bufferSize {
		u.rxQueue = append(u.rxQueue, b)
	}
}

// DrainSent returns and clears the bytes the port has transmitted.
func (u *UART) DrainSent() []uint8 {
	s := u.sent
	u.sent = nil
	return s
}

// RunFor advances the port by the given number of microseconds. Received
// bytes take a full character frame to assemble, the same time a
// transmitted frame takes to drain.
func (u *UART) RunFor(us int) {
	for us > 0 {
		// the next queued byte starts clocking in once the buffer
		// register is free
		if u.rxRemaining == 0 && !u.rxReady && len(u.rxQueue) > 0 {
			u.rxRemaining = u.frameTime()
		}

		if !u.shiftFull && u.rxRemaining == 0 {
			return
		}

		step := us
		if u.shiftFull && u.txRemaining < step {
			step = u.txRemaining
		}
		if u.rxRemaining > 0 && u.rxRemaining < step {
			step = u.rxRemaining
		}
		us -= step

		if u.shiftFull {
			u.txRemaining -= step
			if u.txRemaining == 0 {
				u.completeTransmit()
			}
		}

		if u.rxRemaining > 0 {
			u.rxRemaining -= step
			if u.rxRemaining == 0 && len(u.rxQueue) > 0 {
				u.receive(u.rxQueue[0])
				u.rxQueue = u.rxQueue[1:]
			}
		}
	}
}

func (u *UART) completeTransmit() {
	if u.mcr&mcrLoopback == mcrLoopback {
		u.receive(u.shiftValue)
	} else if len(u.sent) < bufferSize {
		u.sent = append(u.sent, u.shiftValue)
	}
	u.shiftFull = false

	// the holding register feeds the shift register immediately
	if u.thrFull {
		u.startTransmit()
	} else {
		u.intTHRE = u.ier&ierTHRE == ierTHRE
		u.updateIRQ()
	}
}

func (u *UART) startTransmit() {
	u.shiftValue = u.thr
	u.shiftFull = true
	u.thrFull = false
	u.txRemaining = u.frameTime()

	// holding register empty again
	u.intTHRE = u.ier&ierTHRE == ierTHRE
	u.updateIRQ()
}

func (u *UART) receive(b uint8) {
	if u.rxReady {
		u.overrun = true
	}
	u.rbr = b
	u.rxReady = true
	if u.ier&ierRxData == ierRxData {
		u.intRxData = true
	}
	u.updateIRQ()
}

// iir returns the highest priority pending interrupt identification.
func (u *UART) iir() uint8 {
	if u.intRxData {
		return iirRxData
	}
	if u.intTHRE {
		return iirTHRE
	}
	return iirNone
}

// updateIRQ drives the interrupt line. OUT2 gates the line on PC hardware;
// with OUT2 clear the port never interrupts.
func (u *UART) updateIRQ() {
	if u.irq == nil {
		return
	}
	pending := u.iir() != iirNone && u.mcr&mcrOUT2 == mcrOUT2
	u.irq(pending)
}

// PortList implements the bus.IODevice interface.
func (u *UART) PortList() []uint16 {
	l := make([]uint16, 8)
	for i := range l {
		l[i] = PortBase + uint16(i)
	}
	return l
}

// ReadPort implements the bus.IODevice interface.
func (u *UART) ReadPort(port uint16, _ int) (uint8, int) {
	switch port - PortBase {
	case regData:
		if u.lcr&lcrDLAB == lcrDLAB {
			return uint8(u.divisor), 0
		}
		u.rxReady = false
		u.intRxData = false
		u.updateIRQ()
		return u.rbr, 0

	case regIER:
		if u.lcr&lcrDLAB == lcrDLAB {
			return uint8(u.divisor >> 8), 0
		}
		return u.ier, 0

	case regIIR:
		v := u.iir()
		// reading the IIR clears a pending transmit interrupt
		if v == iirTHRE {
			u.intTHRE = false
			u.updateIRQ()
		}
		return v, 0

	case regLCR:
		return u.lcr, 0

	case regMCR:
		return u.mcr, 0

	case regLSR:
		v := uint8(0)
		if u.rxReady {
			v |= lsrDataReady
		}
		if u.overrun {
			v |= lsrOverrun
			u.overrun = false
		}
		if !u.thrFull {
			v |= lsrTHRE
		}
		if !u.thrFull && !u.shiftFull {
			v |= lsrTEMT
		}
		return v, 0

	case regMSR:
		// in loopback the modem outputs fold back onto the inputs
		if u.mcr&mcrLoopback == mcrLoopback {
			var v uint8
			if u.mcr&mcrDTR == mcrDTR {
				v |= 0x20 // DSR
			}
			if u.mcr&mcrRTS == mcrRTS {
				v |= 0x10 // CTS
			}
			return v, 0
		}
		return 0x30, 0 // CTS and DSR asserted

	case regScratch:
		// the original 8250 has no scratch register
		return 0xff, 0
	}

	return 0xff, 0
}

// WritePort implements the bus.IODevice interface.
func (u *UART) WritePort(port uint16, data uint8, _ int) int {
	switch port - PortBase {
	case regData:
		if u.lcr&lcrDLAB == lcrDLAB {
			u.divisor = u.divisor&0xff00 | uint16(data)
			return 0
		}
		u.thr = data
		u.thrFull = true
		u.intTHRE = false
		if !u.shiftFull {
			u.startTransmit()
		} else {
			u.updateIRQ()
		}

	case regIER:
		if u.lcr&lcrDLAB == lcrDLAB {
			u.divisor = u.divisor&0x00ff | uint16(data)<<8
			return 0
		}
		prev := u.ier
		u.ier = data & 0x0f

		// enabling the THRE interrupt with the holding register already
		// empty fires it at once
		if prev&ierTHRE == 0 && u.ier&ierTHRE == ierTHRE && !u.thrFull {
			u.intTHRE = true
		}
		u.updateIRQ()

	case regIIR:
		// FIFO control on later parts. nothing on the 8250
		logger.Logf("uart", "write %02x to IIR ignored", data)

	case regLCR:
		u.lcr = data

	case regMCR:
		u.mcr = data & 0x1f
		u.updateIRQ()

	case regScratch:
		u.scratch = data
	}

	return 0
}
