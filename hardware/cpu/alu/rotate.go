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

package alu

// The single-bit rotate and shift primitives. Overflow is reported as the
// 8088 computes it after a one bit operation: for the left operations it is
// set when the sign changes; for the right operations it is the exclusive-or
// of the two topmost result bits.

// Rcl8 rotates left one bit through carry.
func Rcl8(a uint8, carryIn bool) (r uint8, carry, overflow bool) {
	carry = a&0x80 != 0
	r = a << 1
	if carryIn {
		r |= 1
	}
	overflow = (r&0x80 != 0) != carry
	return r, carry, overflow
}

// Rcl16 rotates left one bit through carry.
func Rcl16(a uint16, carryIn bool) (r uint16, carry, overflow bool) {
	carry = a&0x8000 != 0
	r = a << 1
	if carryIn {
		r |= 1
	}
	overflow = (r&0x8000 != 0) != carry
	return r, carry, overflow
}

// Rcr8 rotates right one bit through carry.
func Rcr8(a uint8, carryIn bool) (r uint8, carry, overflow bool) {
	carry = a&0x01 != 0
	r = a >> 1
	if carryIn {
		r |= 0x80
	}
	overflow = (r&0x80 != 0) != (r&0x40 != 0)
	return r, carry, overflow
}

// Rcr16 rotates right one bit through carry.
func Rcr16(a uint16, carryIn bool) (r uint16, carry, overflow bool) {
	carry = a&0x0001 != 0
	r = a >> 1
	if carryIn {
		r |= 0x8000
	}
	overflow = (r&0x8000 != 0) != (r&0x4000 != 0)
	return r, carry, overflow
}

// Rol8 rotates left one bit.
func Rol8(a uint8) (r uint8, carry, overflow bool) {
	carry = a&0x80 != 0
	r = a<<1 | a>>7
	overflow = (r&0x80 != 0) != carry
	return r, carry, overflow
}

// Rol16 rotates left one bit.
func Rol16(a uint16) (r uint16, carry, overflow bool) {
	carry = a&0x8000 != 0
	r = a<<1 | a>>15
	overflow = (r&0x8000 != 0) != carry
	return r, carry, overflow
}

// Ror8 rotates right one bit.
func Ror8(a uint8) (r uint8, carry, overflow bool) {
	carry = a&0x01 != 0
	r = a>>1 | a<<7
	overflow = (r&0x80 != 0) != (r&0x40 != 0)
	return r, carry, overflow
}

// Ror16 rotates right one bit.
func Ror16(a uint16) (r uint16, carry, overflow bool) {
	carry = a&0x0001 != 0
	r = a>>1 | a<<15
	overflow = (r&0x8000 != 0) != (r&0x4000 != 0)
	return r, carry, overflow
}

// Shl8 shifts left one bit.
func Shl8(a uint8) (r uint8, carry, overflow bool) {
	carry = a&0x80 != 0
	r = a << 1
	overflow = (r&0x80 != 0) != carry
	return r, carry, overflow
}

// Shl16 shifts left one bit.
func Shl16(a uint16) (r uint16, carry, overflow bool) {
	carry = a&0x8000 != 0
	r = a << 1
	overflow = (r&0x8000 != 0) != carry
	return r, carry, overflow
}

// Shr8 shifts right one bit. Overflow is set if the operand had its sign
// bit set.
func Shr8(a uint8) (r uint8, carry, overflow bool) {
	carry = a&0x01 != 0
	r = a >> 1
	overflow = a&0x80 != 0
	return r, carry, overflow
}

// Shr16 shifts right one bit.
func Shr16(a uint16) (r uint16, carry, overflow bool) {
	carry = a&0x0001 != 0
	r = a >> 1
	overflow = a&0x8000 != 0
	return r, carry, overflow
}

// Sar8 shifts right one bit, preserving the sign bit. Overflow is always
// clear.
func Sar8(a uint8) (r uint8, carry, overflow bool) {
	carry = a&0x01 != 0
	r = a>>1 | a&0x80
	return r, carry, false
}

// Sar16 shifts right one bit, preserving the sign bit.
func Sar16(a uint16) (r uint16, carry, overflow bool) {
	carry = a&0x0001 != 0
	r = a>>1 | a&0x8000
	return r, carry, false
}
