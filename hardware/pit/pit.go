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

// Package pit implements the 8253 programmable interval timer. Channel 0
// drives IRQ0, channel 1 is wired to DRAM refresh and channel 2 gates the
// speaker. The counter clock is the CPU clock divided by four.
package pit

import (
	"github.com/jetsetilly/gopher88/logger"
)

// IO ports.
const (
	PortCounter0 = 0x40
	PortCounter1 = 0x41
	PortCounter2 = 0x42
	PortControl  = 0x43
)

// CPU cycles per counter clock
const cyclesPerTick = 4

// OutputHandler is called when a channel output line changes level. The
// machine wires channel 0 to IRQ0 on the PIC.
type OutputHandler func(channel int, level bool)

// read/write access modes from the control word
const (
	accessLatch = iota
	accessLo
	accessHi
	accessLoHi
)

type channel struct {
	mode   int
	access int
	bcd    bool

	// programmed reload value. a programmed zero counts 65536
	reload uint16

	value uint16

	// counting is enabled once the reload value is fully written
	armed bool

	// latch for the read-back of a running counter
	latch   uint16
	latched bool

	// byte flip-flops for lo/hi access
	writeHi bool
	readHi  bool

	output bool
}

// PIT implements the 8253.
type PIT struct {
	channels [3]channel
	out      OutputHandler
	divider  int
}

// NewPIT is the preferred method of initialisation for the PIT type. The
// output handler may be nil.
func NewPIT(out OutputHandler) *PIT {
	p := &PIT{out: out}
	for i := range p.channels {
		p.channels[i].output = true
	}
	return p
}

// Reset the timer. All channels stop until reprogrammed.
func (p *PIT) Reset() {
	for i := range p.channels {
		p.channels[i] = channel{output: true}
	}
	p.divider = 0
}

// Output returns the current level of a channel output line.
func (p *PIT) Output(ch int) bool {
	return p.channels[ch].output
}

// Tick advances the timer by one CPU cycle.
func (p *PIT) Tick() {
	p.divider++
	if p.divider < cyclesPerTick {
		return
	}
	p.divider = 0

	for i := range p.channels {
		p.tickChannel(i)
	}
}

func (p *PIT) setOutput(ch int, level bool) {
	if p.channels[ch].output == level {
		return
	}
	p.channels[ch].output = level
	if p.out != nil {
		p.out(ch, level)
	}
}

func (p *PIT) tickChannel(i int) {
	c := &p.channels[i]
	if !c.armed {
		return
	}

	switch c.mode {
	case 0:
		// interrupt on terminal count. output goes high at zero and stays
		// high until reprogrammed
		c.value--
		if c.value == 0 {
			p.setOutput(i, true)
		}

	case 2:
		// rate generator. output pulses low for one clock at one, then the
		// counter reloads
		c.value--
		if c.value == 1 {
			p.setOutput(i, false)
		} else if c.value == 0 {
			c.value = c.reload
			p.setOutput(i, true)
		}

	case 3:
		// square wave. the counter decrements by two and the output
		// toggles each time it expires
		c.value -= 2
		if c.value == 0 || c.value > c.reload {
			c.value = c.reload
			p.setOutput(i, !c.output)
		}

	default:
		// modes 1, 4 and 5 degrade to terminal count
		c.value--
		if c.value == 0 {
			p.setOutput(i, true)
		}
	}
}

// PortList implements the bus.IODevice interface.
func (p *PIT) PortList() []uint16 {
	return []uint16{PortCounter0, PortCounter1, PortCounter2, PortControl}
}

// ReadPort implements the bus.IODevice interface.
func (p *PIT) ReadPort(port uint16, _ int) (uint8, int) {
	if port < PortCounter0 || port > PortCounter2 {
		return 0xff, 0
	}

	c := &p.channels[port-PortCounter0]

	v := c.value
	if c.latched {
		v = c.latch
	}

	var b uint8
	switch c.access {
	case accessLo:
		b = uint8(v)
		c.latched = false
	case accessHi:
		b = uint8(v >> 8)
		c.latched = false
	default:
		if c.readHi {
			b = uint8(v >> 8)
			c.latched = false
		} else {
			b = uint8(v)
		}
		c.readHi = !c.readHi
	}

	return b, 0
}

// WritePort implements the bus.IODevice interface.
func (p *PIT) WritePort(port uint16, data uint8, _ int) int {
	if port == PortControl {
		p.control(data)
		return 0
	}
	if port < PortCounter0 || port > PortCounter2 {
		return 0
	}

	c := &p.channels[port-PortCounter0]

	switch c.access {
	case accessLo:
		c.reload = c.reload&0xff00 | uint16(data)
		p.load(c)
	case accessHi:
		c.reload = c.reload&0x00ff | uint16(data)<<8
		p.load(c)
	default:
		if c.writeHi {
			c.reload = c.reload&0x00ff | uint16(data)<<8
			p.load(c)
		} else {
			c.reload = c.reload&0xff00 | uint16(data)

			// writing the low byte of a lo/hi pair pauses the counter
			c.armed = false
		}
		c.writeHi = !c.writeHi
	}

	return 0
}

func (p *PIT) load(c *channel) {
	c.value = c.reload
	c.armed = true
}

func (p *PIT) control(data uint8) {
	ch := int(data >> 6)
	if ch == 3 {
		// read-back is an 8254 feature
		logger.Log("pit", "read-back command ignored (8253)")
		return
	}

	c := &p.channels[ch]

	access := int(data>>4) & 0x03
	if access == accessLatch {
		c.latch = c.value
		c.latched = true
		return
	}

	c.access = access
	c.mode = int(data>>1) & 0x07
	c.bcd = data&0x01 == 0x01
	c.writeHi = false
	c.readHi = false
	c.latched = false
	c.armed = false

	// a new mode resets the output line
	switch c.mode {
	case 0:
		p.setOutput(ch, false)
	default:
		p.setOutput(ch, true)
	}

	if c.bcd {
		logger.Log("pit", "bcd counting requested; counting in binary")
	}
}
