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

// Package alu implements the arithmetic primitives of the 8088 execution
// unit. Every function returns the result along with the flag states the
// operation produces. Flag assignment to the FLAGS register is the caller's
// business; the primitives themselves are pure.
//
// The carry/overflow/aux-carry rules are:
//
//   - Carry is unsigned wrap-around
//   - Overflow is signed wrap-around
//   - AuxCarry is carry (or borrow) out of bit 3
//
// The rotate-through-carry primitives operate one bit at a time. The
// execution unit iterates them for counted rotates, which also gives the
// correct 8088 cycle accounting of 4 cycles per bit.
package alu

// parity is a lookup of parity-even for every byte value.
var parity [256]bool

func init() {
	for i := 0; i < 256; i++ {
		p := true
		for b := 0; b < 8; b++ {
			if i&(1<<b) != 0 {
				p = !p
			}
		}
		parity[i] = p
	}
}

// Parity returns true if the byte has an even number of set bits. The 8088
// only ever considers the low 8 bits of a result when setting the parity
// flag, even for word operations.
func Parity(v uint8) bool {
	return parity[v]
}

// Add8 adds a, b and the carry-in bit.
func Add8(a, b uint8, carryIn bool) (sum uint8, carry, overflow, auxCarry bool) {
	c := uint16(0)
	if carryIn {
		c = 1
	}

	r := uint16(a) + uint16(b) + c
	sum = uint8(r)

	carry = r > 0xff
	overflow = (a^sum)&(b^sum)&0x80 != 0
	auxCarry = (a&0x0f)+(b&0x0f)+uint8(c) > 0x0f

	return sum, carry, overflow, auxCarry
}

// Add16 adds a, b and the carry-in bit.
func Add16(a, b uint16, carryIn bool) (sum uint16, carry, overflow, auxCarry bool) {
	c := uint32(0)
	if carryIn {
		c = 1
	}

	r := uint32(a) + uint32(b) + c
	sum = uint16(r)

	carry = r > 0xffff
	overflow = (a^sum)&(b^sum)&0x8000 != 0
	auxCarry = (a&0x0f)+(b&0x0f)+uint16(c) > 0x0f

	return sum, carry, overflow, auxCarry
}

// Sub8 subtracts b and the borrow-in bit from a.
func Sub8(a, b uint8, borrowIn bool) (diff uint8, carry, overflow, auxCarry bool) {
	c := uint16(0)
	if borrowIn {
		c = 1
	}

	r := uint16(a) - uint16(b) - c
	diff = uint8(r)

	carry = r > 0xff
	overflow = (a^b)&(a^diff)&0x80 != 0
	auxCarry = (a & 0x0f) < (b&0x0f)+uint8(c)

	return diff, carry, overflow, auxCarry
}

// Sub16 subtracts b and the borrow-in bit from a.
func Sub16(a, b uint16, borrowIn bool) (diff uint16, carry, overflow, auxCarry bool) {
	c := uint32(0)
	if borrowIn {
		c = 1
	}

	r := uint32(a) - uint32(b) - c
	diff = uint16(r)

	carry = r > 0xffff
	overflow = (a^b)&(a^diff)&0x8000 != 0
	auxCarry = (a & 0x0f) < (b&0x0f)+uint16(c)

	return diff, carry, overflow, auxCarry
}

// Neg8 negates the operand. Carry is set if the operand is non-zero.
func Neg8(a uint8) (r uint8, carry, overflow, auxCarry bool) {
	r, carry, overflow, auxCarry = Sub8(0, a, false)
	return r, carry, overflow, auxCarry
}

// Neg16 negates the operand. Carry is set if the operand is non-zero.
func Neg16(a uint16) (r uint16, carry, overflow, auxCarry bool) {
	r, carry, overflow, auxCarry = Sub16(0, a, false)
	return r, carry, overflow, auxCarry
}
