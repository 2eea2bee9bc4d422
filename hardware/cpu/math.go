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

package cpu

import (
	"github.com/jetsetilly/gopher88/hardware/cpu/alu"
	"github.com/jetsetilly/gopher88/hardware/cpu/decode"
)

func (mc *CPU) szp8(v uint8) {
	mc.Flags.Sign = v&0x80 == 0x80
	mc.Flags.Zero = v == 0
	mc.Flags.Parity = alu.Parity(v)
}

func (mc *CPU) szp16(v uint16) {
	mc.Flags.Sign = v&0x8000 == 0x8000
	mc.Flags.Zero = v == 0
	mc.Flags.Parity = alu.Parity(uint8(v))
}

func (mc *CPU) szp(w decode.Width, v uint16) {
	if w == decode.Byte {
		mc.szp8(uint8(v))
	} else {
		mc.szp16(v)
	}
}

// mathOp is the common path of the two-operand arithmetic and logic
// instructions. Returns the result; CMP and TEST discard it at the call
// site.
func (mc *CPU) mathOp(w decode.Width, xi decode.XiOp, a, b uint16) uint16 {
	var r uint16
	var carry, overflow, aux bool

	switch xi {
	case decode.XiADD, decode.XiADC:
		ci := xi == decode.XiADC && mc.Flags.Carry
		if w == decode.Byte {
			var r8 uint8
			r8, carry, overflow, aux = alu.Add8(uint8(a), uint8(b), ci)
			r = uint16(r8)
		} else {
			r, carry, overflow, aux = alu.Add16(a, b, ci)
		}
	case decode.XiSUB, decode.XiSBB, decode.XiCMP:
		bi := xi == decode.XiSBB && mc.Flags.Carry
		if w == decode.Byte {
			var r8 uint8
			r8, carry, overflow, aux = alu.Sub8(uint8(a), uint8(b), bi)
			r = uint16(r8)
		} else {
			r, carry, overflow, aux = alu.Sub16(a, b, bi)
		}
	case decode.XiAND:
		r = a & b
	case decode.XiOR:
		r = a | b
	case decode.XiXOR:
		r = a ^ b
	}

	// the logic operations clear carry and overflow. AF is architecturally
	// undefined after them; the real part clears it
	mc.Flags.Carry = carry
	mc.Flags.Overflow = overflow
	mc.Flags.AuxCarry = aux
	mc.szp(w, r)

	return r
}

// incDec adds delta (+1 or -1) to a value without touching the carry flag.
func (mc *CPU) incDec(w decode.Width, v uint16, delta int) uint16 {
	var r uint16
	var overflow, aux bool

	if w == decode.Byte {
		var r8 uint8
		if delta > 0 {
			r8, _, overflow, aux = alu.Add8(uint8(v), 1, false)
		} else {
			r8, _, overflow, aux = alu.Sub8(uint8(v), 1, false)
		}
		r = uint16(r8)
	} else {
		if delta > 0 {
			r, _, overflow, aux = alu.Add16(v, 1, false)
		} else {
			r, _, overflow, aux = alu.Sub16(v, 1, false)
		}
	}

	mc.Flags.Overflow = overflow
	mc.Flags.AuxCarry = aux
	mc.szp(w, r)

	return r
}

// shiftStep performs a single-bit shift or rotate, returning the result and
// updating the carry and overflow flags.
func (mc *CPU) shiftStep(w decode.Width, xi decode.XiOp, v uint16) uint16 {
	var r uint16
	var carry, overflow bool

	if w == decode.Byte {
		var r8 uint8
		switch xi {
		case decode.XiROL:
			r8, carry, overflow = alu.Rol8(uint8(v))
		case decode.XiROR:
			r8, carry, overflow = alu.Ror8(uint8(v))
		case decode.XiRCL:
			r8, carry, overflow = alu.Rcl8(uint8(v), mc.Flags.Carry)
		case decode.XiRCR:
			r8, carry, overflow = alu.Rcr8(uint8(v), mc.Flags.Carry)
		case decode.XiSHL:
			r8, carry, overflow = alu.Shl8(uint8(v))
		case decode.XiSHR:
			r8, carry, overflow = alu.Shr8(uint8(v))
		case decode.XiSAR:
			r8, carry, overflow = alu.Sar8(uint8(v))
		}
		r = uint16(r8)
	} else {
		switch xi {
		case decode.XiROL:
			r, carry, overflow = alu.Rol16(v)
		case decode.XiROR:
			r, carry, overflow = alu.Ror16(v)
		case decode.XiRCL:
			r, carry, overflow = alu.Rcl16(v, mc.Flags.Carry)
		case decode.XiRCR:
			r, carry, overflow = alu.Rcr16(v, mc.Flags.Carry)
		case decode.XiSHL:
			r, carry, overflow = alu.Shl16(v)
		case decode.XiSHR:
			r, carry, overflow = alu.Shr16(v)
		case decode.XiSAR:
			r, carry, overflow = alu.Sar16(v)
		}
	}

	mc.Flags.Carry = carry
	mc.Flags.Overflow = overflow

	return r
}

// shiftOp runs a shift or rotate for count steps. The 8088 does not mask
// the count; 255 steps take 255 iterations of four cycles each.
func (mc *CPU) shiftOp(w decode.Width, xi decode.XiOp, v uint16, count int) uint16 {
	r := v
	for i := 0; i < count; i++ {
		r = mc.shiftStep(w, xi, r)
		mc.cycles(4)
	}

	// the plain shifts set SZP from the result. rotates do not. AF is
	// undefined after any shift; the real part clears it for SHL and sets
	// nothing reproducible for the rest, so we clear throughout
	switch xi {
	case decode.XiSHL, decode.XiSHR, decode.XiSAR:
		if count > 0 {
			mc.szp(w, r)
			mc.Flags.AuxCarry = false
		}
	}

	return r
}

// setmo is the undocumented /6 encoding of the shift groups. The result is
// always all ones.
func (mc *CPU) setmo(w decode.Width) uint16 {
	var r uint16 = 0xffff
	if w == decode.Byte {
		r = 0x00ff
	}

	mc.Flags.Carry = false
	mc.Flags.Overflow = false
	mc.Flags.AuxCarry = false
	mc.szp(w, r)

	return r
}
