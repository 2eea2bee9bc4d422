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

// Package microcode paces the long-running arithmetic routines of the 8088
// by the same discrete steps as the processor's internal microcode. The
// multiply routine CORX, the divide routine CORD and their signed helper
// routines NEGATE, PREIDIV, POSTIDIV and IMULCOF are implemented as
// interpreters over the ALU primitives, emitting one cycle per microcode
// row through the Sequencer interface.
//
// Each cycle is tagged with the address of the microcode row it represents
// so that a cycle trace can be compared against a real part. A taken
// microcode jump spends an extra cycle; this is represented by the pseudo
// address Jump. Subroutine return spends a cycle tagged Return.
package microcode

import "fmt"

// Addr is the address of a row in the 8088 microcode ROM.
type Addr uint16

// Pseudo addresses for the cycles spent on microcode jumps and subroutine
// returns.
const (
	Jump   Addr = 0xffe
	Return Addr = 0xfff
)

func (a Addr) String() string {
	switch a {
	case Jump:
		return "jmp"
	case Return:
		return "rtn"
	}
	return fmt.Sprintf("%03x", uint16(a))
}

// Sequencer is the execution unit as seen from inside a microcode routine:
// a cycle sink and the writable flag bits.
type Sequencer interface {
	// Cycle spends one CPU cycle attributed to the microcode row.
	Cycle(addr Addr)

	SetCarry(v bool)
	SetOverflow(v bool)
	SetAuxCarry(v bool)

	// SetSZP sets Sign, Zero and Parity from a result of the given bit
	// width. Parity always considers the low 8 bits only.
	SetSZP8(result uint8)
	SetSZP16(result uint16)
}

// run spends one cycle per listed microcode address.
func run(s Sequencer, addrs ...Addr) {
	for _, a := range addrs {
		s.Cycle(a)
	}
}
