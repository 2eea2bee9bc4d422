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

// Package dma implements the 8237 DMA controller and the PC page registers.
// Transfers are device paced: a peripheral with a programmed channel calls
// ReadFromMemory or WriteToMemory once per byte and is told when terminal
// count is reached.
package dma

import (
	"fmt"

	"github.com/jetsetilly/gopher88/hardware/bus"
	"github.com/jetsetilly/gopher88/logger"
)

// transfer types from the mode register.
const (
	TransferVerify = iota
	TransferWrite  // device to memory
	TransferRead   // memory to device
)

// operating modes from the mode register.
const (
	ModeDemand = iota
	ModeSingle
	ModeBlock
	ModeCascade
)

// command register bits.
const (
	cmdMemToMem = 0x01
	cmdDisable  = 0x04
)

type channel struct {
	mode      int
	transfer  int
	autoInit  bool
	decrement bool

	// programmed base values, reloaded on auto-init
	baseAddr  uint16
	baseCount uint16

	curAddr  uint16
	curCount uint16

	page uint8

	masked  bool
	tc      bool
	request bool
}

// DMA implements the 8237 plus the page register file at 0x80-0x87.
type DMA struct {
	mem *bus.Bus

	channels [4]channel

	// lo/hi byte flip-flop, shared by all address and count registers
	flipflop bool

	command uint8
	temp    uint8
}

// page register port to channel number, as wired in the PC
var pagePorts = map[uint16]int{
	0x87: 0,
	0x83: 1,
	0x81: 2,
	0x82: 3,
}

// NewDMA is the preferred method of initialisation for the DMA type.
func NewDMA(mem *bus.Bus) *DMA {
	d := &DMA{mem: mem}
	for i := range d.channels {
		d.channels[i].masked = true
	}
	return d
}

func (d *DMA) String() string {
	s := ""
	for i, c := range d.channels {
		s += fmt.Sprintf("ch%d addr=%02x%04x count=%04x ", i, c.page, c.curAddr, c.curCount)
	}
	return s
}

// Reset is the master clear: all channels masked, flip-flop cleared.
func (d *DMA) Reset() {
	for i := range d.channels {
		d.channels[i] = channel{masked: true}
	}
	d.flipflop = false
	d.command = 0
	d.temp = 0
}

// physical address of the next transfer on a channel.
func (c *channel) address() uint32 {
	return uint32(c.page)<<16 | uint32(c.curAddr)
}

// advance moves the channel to the next byte. Returns true at terminal
// count, reloading first if auto-init is programmed.
func (c *channel) advance() bool {
	if c.decrement {
		c.curAddr--
	} else {
		c.curAddr++
	}

	c.curCount--
	if c.curCount == 0xffff {
		c.tc = true
		if c.autoInit {
			c.curAddr = c.baseAddr
			c.curCount = c.baseCount
		} else {
			c.masked = true
		}
		return true
	}
	return false
}

// ChannelReady returns true when the channel is programmed and unmasked.
// Peripherals poll this before asserting their request.
func (d *DMA) ChannelReady(ch int) bool {
	return !d.channels[ch].masked
}

// TerminalCount returns and clears the TC status of a channel.
func (d *DMA) TerminalCount(ch int) bool {
	tc := d.channels[ch].tc
	d.channels[ch].tc = false
	return tc
}

// ReadFromMemory transfers one byte from memory to the requesting device.
// Returns the byte and whether terminal count was reached.
func (d *DMA) ReadFromMemory(ch int) (uint8, bool) {
	c := &d.channels[ch]
	if c.masked {
		return 0xff, true
	}

	v, _, err := d.mem.ReadU8(c.address(), 0)
	if err != nil {
		logger.Logf("dma", "read fault on channel %d: %v", ch, err)
		v = 0xff
	}

	return v, c.advance()
}

// WriteToMemory transfers one byte from the requesting device to memory.
// Returns whether terminal count was reached. A channel programmed for a
// verify transfer runs its address and count but never touches memory.
func (d *DMA) WriteToMemory(ch int, data uint8) bool {
	c := &d.channels[ch]
	if c.masked {
		return true
	}

	if c.transfer != TransferVerify {
		if _, err := d.mem.WriteU8(c.address(), data, 0); err != nil {
			logger.Logf("dma", "write fault on channel %d: %v", ch, err)
		}
	}

	return c.advance()
}

// Tick services software transfer requests, highest priority channel
// first. Device paced channels never set the request register so this is
// usually a no-op.
func (d *DMA) Tick() {
	if d.command&cmdDisable == cmdDisable {
		return
	}

	for ch := range d.channels {
		c := &d.channels[ch]
		if !c.request || c.masked {
			continue
		}

		if ch == 0 && d.command&cmdMemToMem == cmdMemToMem {
			d.memToMemByte()
			return
		}

		// with no device on the other end of the channel a read latches
		// into the temporary register and a write drains it. verify only
		// runs the address and count
		switch c.transfer {
		case TransferRead:
			v, _, err := d.mem.ReadU8(c.address(), 0)
			if err != nil {
				logger.Logf("dma", "read fault on channel %d: %v", ch, err)
				v = 0xff
			}
			d.temp = v
		case TransferWrite:
			if _, err := d.mem.WriteU8(c.address(), d.temp, 0); err != nil {
				logger.Logf("dma", "write fault on channel %d: %v", ch, err)
			}
		}

		if c.advance() {
			c.request = false
		}
		return
	}
}

// memToMemByte moves one byte of a memory to memory transfer: channel 0
// reads into the temporary register, channel 1 writes it out. The request
// is dropped when channel 1 reaches terminal count.
func (d *DMA) memToMemByte() {
	src := &d.channels[0]
	dst := &d.channels[1]
	if dst.masked {
		return
	}

	v, _, err := d.mem.ReadU8(src.address(), 0)
	if err != nil {
		logger.Logf("dma", "read fault on channel 0: %v", err)
		v = 0xff
	}
	d.temp = v
	src.advance()

	if _, err := d.mem.WriteU8(dst.address(), d.temp, 0); err != nil {
		logger.Logf("dma", "write fault on channel 1: %v", err)
	}
	if dst.advance() {
		src.request = false
	}
}

// PortList implements the bus.IODevice interface.
func (d *DMA) PortList() []uint16 {
	l := make([]uint16, 0, 20)
	for p := uint16(0x00); p <= 0x0f; p++ {
		l = append(l, p)
	}
	for p := range pagePorts {
		l = append(l, p)
	}
	return l
}

// ReadPort implements the bus.IODevice interface.
func (d *DMA) ReadPort(port uint16, _ int) (uint8, int) {
	if ch, ok := pagePorts[port]; ok {
		return d.channels[ch].page, 0
	}

	switch {
	case port <= 0x07:
		ch := int(port >> 1)
		c := &d.channels[ch]

		var v uint16
		if port&0x01 == 0 {
			v = c.curAddr
		} else {
			v = c.curCount
		}

		var b uint8
		if d.flipflop {
			b = uint8(v >> 8)
		} else {
			b = uint8(v)
		}
		d.flipflop = !d.flipflop
		return b, 0

	case port == 0x08:
		// status: TC bits low, request bits high. reading clears TC
		var v uint8
		for i := range d.channels {
			if d.channels[i].tc {
				v |= 1 << uint(i)
				d.channels[i].tc = false
			}
			if d.channels[i].request {
				v |= 1 << uint(i+4)
			}
		}
		return v, 0

	case port == 0x0d:
		return d.temp, 0
	}

	return 0xff, 0
}

// WritePort implements the bus.IODevice interface.
func (d *DMA) WritePort(port uint16, data uint8, _ int) int {
	if ch, ok := pagePorts[port]; ok {
		d.channels[ch].page = data & 0x0f
		return 0
	}

	switch {
	case port <= 0x07:
		ch := int(port >> 1)
		c := &d.channels[ch]

		if port&0x01 == 0 {
			if d.flipflop {
				c.baseAddr = c.baseAddr&0x00ff | uint16(data)<<8
			} else {
				c.baseAddr = c.baseAddr&0xff00 | uint16(data)
			}
			c.curAddr = c.baseAddr
		} else {
			if d.flipflop {
				c.baseCount = c.baseCount&0x00ff | uint16(data)<<8
			} else {
				c.baseCount = c.baseCount&0xff00 | uint16(data)
			}
			c.curCount = c.baseCount
		}
		d.flipflop = !d.flipflop

	case port == 0x08:
		d.command = data

	case port == 0x09:
		ch := int(data & 0x03)
		d.channels[ch].request = data&0x04 == 0x04

	case port == 0x0a:
		ch := int(data & 0x03)
		d.channels[ch].masked = data&0x04 == 0x04

	case port == 0x0b:
		ch := int(data & 0x03)
		c := &d.channels[ch]
		c.transfer = int(data>>2) & 0x03
		c.autoInit = data&0x10 == 0x10
		c.decrement = data&0x20 == 0x20
		c.mode = int(data >> 6)

	case port == 0x0c:
		d.flipflop = false

	case port == 0x0d:
		d.Reset()

	case port == 0x0e:
		for i := range d.channels {
			d.channels[i].masked = false
		}

	case port == 0x0f:
		for i := range d.channels {
			d.channels[i].masked = data&(1<<uint(i)) != 0
		}
	}

	return 0
}
