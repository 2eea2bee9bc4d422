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

package uart_test

import (
	"testing"

	"github.com/jetsetilly/gopher88/hardware/uart"
	"github.com/jetsetilly/gopher88/test"
)

const (
	portData = uart.PortBase
	portIER  = uart.PortBase + 1
	portIIR  = uart.PortBase + 2
	portLCR  = uart.PortBase + 3
	portMCR  = uart.PortBase + 4
	portLSR  = uart.PortBase + 5
	portMSR  = uart.PortBase + 6
)

func TestDivisorLatch(t *testing.T) {
	u := uart.NewUART(nil)

	// DLAB exposes the divisor through the first two ports
	u.WritePort(portLCR, 0x80, 0)
	u.WritePort(portData, 0x60, 0) // divisor 96: 1200 baud
	u.WritePort(portIER, 0x00, 0)

	lo, _ := u.ReadPort(portData, 0)
	hi, _ := u.ReadPort(portIER, 0)
	test.Equate(t, lo, 0x60)
	test.Equate(t, hi, 0x00)

	// with DLAB clear the same ports are data and IER again
	u.WritePort(portLCR, 0x03, 0)
	u.WritePort(portIER, 0x01, 0)
	v, _ := u.ReadPort(portIER, 0)
	test.Equate(t, v, 0x01)
}

func TestTransmit(t *testing.T) {
	u := uart.NewUART(nil)

	// the holding register empties into the shift register at once
	u.WritePort(portData, 'H', 0)
	lsr, _ := u.ReadPort(portLSR, 0)
	test.Equate(t, lsr&0x20, 0x20) // THRE
	test.Equate(t, lsr&0x40, 0x00) // shift register busy

	// at 9600 baud a frame takes about a millisecond
	u.RunFor(2000)
	test.Equate(t, string(u.DrainSent()), "H")

	lsr, _ = u.ReadPort(portLSR, 0)
	test.Equate(t, lsr&0x40, 0x40)
}

func TestTransmitChain(t *testing.T) {
	u := uart.NewUART(nil)

	u.WritePort(portData, 'H', 0)
	u.WritePort(portData, 'i', 0)

	// both registers full
	lsr, _ := u.ReadPort(portLSR, 0)
	test.Equate(t, lsr&0x20, 0x00)

	u.RunFor(5000)
	test.Equate(t, string(u.DrainSent()), "Hi")
}

func TestReceive(t *testing.T) {
	u := uart.NewUART(nil)

	u.QueueReceive(0x42)

	// assembling the frame takes the same time a transmitted frame does
	u.RunFor(50)
	lsr, _ := u.ReadPort(portLSR, 0)
	test.Equate(t, lsr&0x01, 0x00)

	u.RunFor(150)
	lsr, _ = u.ReadPort(portLSR, 0)
	test.Equate(t, lsr&0x01, 0x01)

	v, _ := u.ReadPort(portData, 0)
	test.Equate(t, v, 0x42)

	// reading the buffer clears data ready
	lsr, _ = u.ReadPort(portLSR, 0)
	test.Equate(t, lsr&0x01, 0x00)
}

func TestOverrun(t *testing.T) {
	u := uart.NewUART(nil)

	u.QueueReceive(0x01)
	u.RunFor(200)

	// a second arrival before the first is read stays in the queue
	u.QueueReceive(0x02)
	u.RunFor(200)

	// queued data waits for the buffer register; no overrun
	lsr, _ := u.ReadPort(portLSR, 0)
	test.Equate(t, lsr&0x02, 0x00)

	v, _ := u.ReadPort(portData, 0)
	test.Equate(t, v, 0x01)

	u.RunFor(200)
	v, _ = u.ReadPort(portData, 0)
	test.Equate(t, v, 0x02)
}

func TestLoopback(t *testing.T) {
	u := uart.NewUART(nil)

	u.WritePort(portMCR, 0x10, 0) // loopback
	u.WritePort(portData, 0x5a, 0)
	u.RunFor(2000)

	// the byte came back as received data and nothing left the port
	test.Equate(t, len(u.DrainSent()), 0)
	v, _ := u.ReadPort(portData, 0)
	test.Equate(t, v, 0x5a)

	// modem outputs fold back onto the inputs
	u.WritePort(portMCR, 0x13, 0) // loopback, DTR, RTS
	msr, _ := u.ReadPort(portMSR, 0)
	test.Equate(t, msr, 0x30)

	u.WritePort(portMCR, 0x11, 0) // loopback, DTR
	msr, _ = u.ReadPort(portMSR, 0)
	test.Equate(t, msr, 0x20)
}

func TestTHREInterrupt(t *testing.T) {
	var irq bool
	u := uart.NewUART(func(level bool) { irq = level })

	u.WritePort(portMCR, 0x08, 0) // OUT2 gates the line

	// enabling the THRE interrupt with the holding register already empty
	// fires immediately
	u.WritePort(portIER, 0x02, 0)
	test.Equate(t, irq, true)

	iir, _ := u.ReadPort(portIIR, 0)
	test.Equate(t, iir, 0x02)

	// the IIR read cleared it
	test.Equate(t, irq, false)
	iir, _ = u.ReadPort(portIIR, 0)
	test.Equate(t, iir, 0x01)
}

func TestRxInterruptPriority(t *testing.T) {
	var irq bool
	u := uart.NewUART(func(level bool) { irq = level })

	u.WritePort(portMCR, 0x08, 0)
	u.WritePort(portIER, 0x03, 0) // rx and THRE

	u.QueueReceive(0x99)
	u.RunFor(200)
	test.Equate(t, irq, true)

	// received data outranks transmit empty
	iir, _ := u.ReadPort(portIIR, 0)
	test.Equate(t, iir, 0x04)

	// reading the data register clears the rx cause
	u.ReadPort(portData, 0)
	iir, _ = u.ReadPort(portIIR, 0)
	test.Equate(t, iir&0x04, 0x00)
}

func TestOUT2Gating(t *testing.T) {
	var irq bool
	u := uart.NewUART(func(level bool) { irq = level })

	// without OUT2 the interrupt never reaches the bus
	u.WritePort(portIER, 0x02, 0)
	test.Equate(t, irq, false)

	// the cause is still visible in the IIR
	iir, _ := u.ReadPort(portIIR, 0)
	test.Equate(t, iir, 0x02)

	u.WritePort(portIER, 0x00, 0)
	u.WritePort(portIER, 0x02, 0)
	u.WritePort(portMCR, 0x08, 0)
	test.Equate(t, irq, true)
}

func TestScratchRegister(t *testing.T) {
	u := uart.NewUART(nil)

	// the original 8250 has no scratch register
	u.WritePort(uart.PortBase+7, 0x55, 0)
	v, _ := u.ReadPort(uart.PortBase+7, 0)
	test.Equate(t, v, 0xff)
}
