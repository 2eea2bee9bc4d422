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

package bus

import (
	"github.com/jetsetilly/gopher88/curated"
	"github.com/jetsetilly/gopher88/logger"
)

// mmioShift divides the address space into 4 KiB regions, giving a routing
// table of 256 entries.
const mmioShift = 12

// MMIOTag identifies the class of device behind a memory mapped region.
// Routing by tag rather than by a bare interface value lets the bus
// distinguish peek from read without double indirection.
type MMIOTag int

// List of MMIO region tags.
const (
	MMIONone MMIOTag = iota
	MMIOVideo
	MMIOCart
	MMIOEMS
)

func (t MMIOTag) String() string {
	switch t {
	case MMIONone:
		return "none"
	case MMIOVideo:
		return "video"
	case MMIOCart:
		return "cartridge"
	case MMIOEMS:
		return "ems"
	}
	return "unknown"
}

// MMIODevice is a device mapped into the memory address space. Read and
// write return a wait-state count in system ticks. Peek must have no side
// effects.
type MMIODevice interface {
	ReadMMIO(addr uint32, cpuCycles int) (uint8, int)
	WriteMMIO(addr uint32, data uint8, cpuCycles int) int
	PeekMMIO(addr uint32) uint8
}

type mmioEntry struct {
	tag MMIOTag
	dev MMIODevice
}

// MapMMIO routes a region of the address space to a device. The region is
// aligned down to a 4 KiB boundary and the MMIO mask bit is set for every
// byte in it.
func (b *Bus) MapMMIO(tag MMIOTag, dev MMIODevice, addr uint32, length uint32) {
	first := addr >> mmioShift
	last := (addr + length - 1) >> mmioShift

	for i := first; i <= last; i++ {
		if b.mmio[i].tag != MMIONone {
			logger.Logf("bus", "mmio region %03x remapped from %s to %s", i, b.mmio[i].tag, tag)
		}
		b.mmio[i] = mmioEntry{tag: tag, dev: dev}
	}

	for i := addr; i < addr+length; i++ {
		b.mask[i] |= MaskMMIO
	}
}

func (b *Bus) mmioRead(addr uint32, cpuCycles int) (uint8, int, error) {
	e := b.mmio[addr>>mmioShift]
	if e.tag == MMIONone || e.dev == nil {
		return 0xff, 0, curated.Errorf(MMIOError, curated.Errorf("unmapped read at %06x", addr))
	}
	v, ticks := e.dev.ReadMMIO(addr, cpuCycles)
	return v, ticks, nil
}

func (b *Bus) mmioWrite(addr uint32, data uint8, cpuCycles int) (int, error) {
	e := b.mmio[addr>>mmioShift]
	if e.tag == MMIONone || e.dev == nil {
		return 0, curated.Errorf(MMIOError, curated.Errorf("unmapped write at %06x", addr))
	}
	return e.dev.WriteMMIO(addr, data, cpuCycles), nil
}

func (b *Bus) mmioPeek(addr uint32) uint8 {
	e := b.mmio[addr>>mmioShift]
	if e.tag == MMIONone || e.dev == nil {
		return 0xff
	}
	return e.dev.PeekMMIO(addr)
}
