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

package microcode

import (
	"github.com/jetsetilly/gopher88/curated"
	"github.com/jetsetilly/gopher88/hardware/cpu/alu"
)

// DivideError is returned by the divide routines on divide-by-zero or
// quotient overflow. The caller converts it to an interrupt through vector
// zero.
const DivideError = "microcode: divide error"

// width-parameterised wrappers over the alu primitives. the co-routines are
// shared between the 8 and 16 bit forms of MUL/IMUL/DIV/IDIV; only the bit
// width of the working registers differs.

func msb(v uint16, bits uint) bool {
	return v&(1<<(bits-1)) != 0
}

func wadd(a, b uint16, bits uint) (uint16, bool, bool, bool) {
	if bits == 8 {
		r, c, o, x := alu.Add8(uint8(a), uint8(b), false)
		return uint16(r), c, o, x
	}
	r, c, o, x := alu.Add16(a, b, false)
	return r, c, o, x
}

func wsub(a, b uint16, bits uint) (uint16, bool, bool, bool) {
	if bits == 8 {
		r, c, o, x := alu.Sub8(uint8(a), uint8(b), false)
		return uint16(r), c, o, x
	}
	r, c, o, x := alu.Sub16(a, b, false)
	return r, c, o, x
}

func wrcl(a uint16, bits uint, carry bool) (uint16, bool) {
	if bits == 8 {
		r, c, _ := alu.Rcl8(uint8(a), carry)
		return uint16(r), c
	}
	r, c, _ := alu.Rcl16(a, carry)
	return r, c
}

func wrcr(a uint16, bits uint, carry bool) (uint16, bool) {
	if bits == 8 {
		r, c, _ := alu.Rcr8(uint8(a), carry)
		return uint16(r), c
	}
	r, c, _ := alu.Rcr16(a, carry)
	return r, c
}

func setSZP(s Sequencer, v uint16, bits uint) {
	if bits == 8 {
		s.SetSZP8(uint8(v))
	} else {
		s.SetSZP16(v)
	}
}

// corx is the unsigned shift-and-add multiply loop. One iteration per
// operand bit; an iteration that sees a shifted-out carry adds tmpb into
// the accumulator before the rightward shift of accumulator and count.
func corx(s Sequencer, bits uint, b, c uint16, carry bool) (uint16, uint16) {
	var tmpa uint16
	tmpb := b
	tmpc := c

	tmpc, carry = wrcr(tmpc, bits, carry) // 17f: ZERO->tmpa | RRCY tmpc
	counter := bits - 1                   // 180: SIGMA->tmpc | MAXC
	run(s, 0x17f, 0x180)

	for {
		s.Cycle(0x181) // 181: | NCY 8

		if carry {
			tmpa, carry, _, _ = wadd(tmpa, tmpb, bits) // 182: | ADD tmpa
			run(s, 0x182, 0x183)                       // 183: SIGMA->tmpa | F
		} else {
			s.Cycle(Jump)
		}

		tmpa, carry = wrcr(tmpa, bits, carry) // 184: | RRCY tmpa
		tmpc, carry = wrcr(tmpc, bits, carry) // 185: SIGMA->tmpa | RRCY tmpc
		run(s, 0x184, 0x185, 0x186)           // 186: SIGMA->tmpc | NCZ 5

		if counter == 0 {
			break
		}
		counter--
		s.Cycle(Jump) // delay returning to the top of the loop
	}

	run(s, 0x187, Return)
	return tmpa, tmpc
}

// negate is the NEGATE co-routine used by both signed multiply and signed
// divide. With skip set, entry is at the seventh row, which only
// conditionally negates tmpb. The internal negations are full 16 bit
// operations regardless of the operand width; only the sign check of tmpb
// depends on it.
func negate(s Sequencer, bits uint, a, b, c uint16, negFlag, skip bool) (tmpa, tmpb, tmpc uint16, carry, neg bool) {
	tmpa = a
	tmpb = b
	tmpc = c
	neg = negFlag

	if !skip {
		var sigma uint16
		sigma, carry, _, _ = alu.Neg16(tmpc) // 1b6
		tmpc = sigma

		if carry {
			sigma = ^tmpa // 1b8, jump, 1ba: SIGMA->tmpa | CF1
			run(s, 0x1b6, 0x1b7, 0x1b8, Jump, 0x1ba)
		} else {
			sigma, _, _, _ = alu.Neg16(tmpa)
			run(s, 0x1b6, 0x1b7, 0x1b8, 0x1b9, 0x1ba)
		}

		tmpa = sigma
		neg = !neg
	}

	// 1bb: | LRCY tmpb
	// 1bc: SIGMA->tmpb | NEG tmpb
	carry = msb(tmpb, bits)
	s.SetCarry(carry)
	sigma, _, _, _ := alu.Neg16(tmpb)

	run(s, 0x1bb, 0x1bc, 0x1bd)
	if !carry {
		// tmpb was positive; jump over the negation
		run(s, Jump, 0x1bf, Return)
	} else {
		tmpb = sigma // 1be: SIGMA->tmpb | CF1 RTN
		neg = !neg
		run(s, 0x1be, Return)
	}

	return tmpa, tmpb, tmpc, carry, neg
}

// preIDiv checks the dividend sign ahead of signed division and controls
// the entry point into NEGATE.
func preIDiv(s Sequencer, bits uint, a, b, c uint16, negFlag bool) (tmpa, tmpb, tmpc uint16, carry, neg bool) {
	// 1b4: SIGMA->. (is the dividend negative?)
	_, carry = wrcl(a, bits, false)
	run(s, 0x1b4, 0x1b5)

	// 1b5: | NCY 7
	if !carry {
		// positive dividend jumps into NEGATE at its skip entry
		s.Cycle(Jump)
		return negate(s, bits, a, b, c, negFlag, true)
	}
	return negate(s, bits, a, b, c, negFlag, false)
}

// postIDiv restores the signs of quotient and remainder after signed
// division. A cleared carry at entry means the CORD loop overflowed.
func postIDiv(s Sequencer, bits uint, a, b, c uint16, carry, neg bool) (tmpa, sigma uint16, err error) {
	tmpa = a
	tmpb := b
	tmpc := c

	s.Cycle(0x1c4)
	// 1c4: | NCY INT0
	if !carry {
		s.Cycle(Jump)
		return 0, 0, curated.Errorf(DivideError)
	}

	// 1c5: | LRCY tmpb
	// 1c6: SIGMA->. | NEG tmpa
	carry = msb(tmpb, bits)
	sigma, _, _, _ = alu.Neg16(tmpa)

	run(s, 0x1c5, 0x1c6, 0x1c7)
	// 1c7: | NCY 5
	if !carry {
		s.Cycle(Jump)
	} else {
		// negative divisor flips the sign of the remainder
		tmpa = sigma
		s.Cycle(0x1c8)
	}

	// 1c9: | INC tmpc
	sigma = tmpc + 1
	run(s, 0x1c9, 0x1ca)

	// 1ca: | F1 8
	if !neg {
		sigma = ^tmpc // 1cb: | COM tmpc
		s.Cycle(0x1cb)
	} else {
		s.Cycle(Jump)
	}

	// 1cc: | CCOF RTN
	s.SetCarry(false)
	s.SetOverflow(false)
	run(s, 0x1cc, Return)

	return tmpa, sigma, nil
}

// cord is the bit-serial restoring division loop. Returns the one's
// complement of the quotient in tmpc and the remainder in tmpa, matching
// the microcode register assignments.
func cord(s Sequencer, bits uint, a, b, c uint16) (tmpc, tmpa uint16, carry bool, err error) {
	tmpa = a
	tmpb := b
	tmpc = c

	// 188: | SUBT tmpa
	sigma, carry, overflow, auxCarry := wsub(tmpa, tmpb, bits)

	// 189: SIGMA->. | MAXC
	counter := bits
	s.SetAuxCarry(auxCarry)
	s.SetOverflow(overflow)
	s.SetCarry(carry)
	setSZP(s, sigma, bits)

	run(s, 0x188, 0x189, 0x18a)

	// 18a: | NCY INT0
	if !carry {
		s.Cycle(Jump)
		return 0, 0, false, curated.Errorf(DivideError)
	}

	for counter > 0 {
		// 18c: SIGMA->tmpc | RCLY tmpa
		tmpc, carry = wrcl(tmpc, bits, carry)
		// 18d: SIGMA->tmpa | SUBT tmpa
		tmpa, carry = wrcl(tmpa, bits, carry)
		run(s, 0x18b, 0x18c, 0x18d, 0x18e)

		// 18e:
		if carry {
			run(s, Jump, 0x195, 0x196)
			// 195: | RCY
			carry = false
			// 196: SIGMA->tmpa | NCZ 3
			tmpa, _, _, _ = wsub(tmpa, tmpb, bits)
			counter--
			if counter > 0 {
				s.Cycle(Jump)
				continue
			}
			run(s, 0x197, Jump)
		} else {
			// 18f: SIGMA->no dest | F
			sigma, carry, overflow, auxCarry = wsub(tmpa, tmpb, bits)
			s.SetAuxCarry(auxCarry)
			s.SetOverflow(overflow)
			s.SetCarry(carry)
			setSZP(s, sigma, bits)
			run(s, 0x18f, 0x190)

			// 190: | NCY 14
			if !carry {
				run(s, Jump, 0x196)
				// 196: SIGMA->tmpa | NCZ 3
				tmpa, _, _, _ = wsub(tmpa, tmpb, bits)
				counter--
				if counter > 0 {
					s.Cycle(Jump)
					continue
				}
				run(s, 0x197, Jump)
			} else {
				s.Cycle(0x191)
				// 191: | NCZ 3
				counter--
				if counter > 0 {
					s.Cycle(Jump)
					continue
				}
			}
		}
	}

	// 192 / 193: left rotate the quotient bits into place
	tmpc, carry = wrcl(tmpc, bits, carry)
	// 194: SIGMA->no dest | RTN
	_, carry = wrcl(tmpc, bits, carry)
	s.SetCarry(carry)
	run(s, 0x192, 0x193, 0x194, Return)

	return tmpc, tmpa, carry, nil
}

// mulcof/imulcof set the carry and overflow flags at the end of a multiply.
// for the unsigned form they are set if the high half of the product is
// non-zero; for the signed form if the high half is not the sign extension
// of the low half.

func imulcof(s Sequencer, bits uint, tmpa, tmpc uint16) {
	s.Cycle(Jump)
	carry := msb(tmpc, bits) // 1cd: LRCY tmpc
	sigma, _, _, auxCarry := alu.Add16(tmpa, 0, carry)
	run(s, 0x1cd, 0x1ce, 0x1cf)
	s.SetAuxCarry(auxCarry)
	s.SetSZP16(sigma)

	// 1d0: | Z 8
	if sigma == 0 {
		s.SetCarry(false)
		s.SetOverflow(false)
		run(s, 0x1d0, Jump, 0x1cc, Jump)
	} else {
		// 1d1: | SCOF RTN
		s.SetCarry(true)
		s.SetOverflow(true)
		run(s, 0x1d0, 0x1d1, Jump)
	}
}

func mulcof(s Sequencer, tmpa uint16) {
	// 1d2: | PASS tmpa
	// 1d3: SIGMA->. | UNC 12 | F
	run(s, Jump, 0x1d2, 0x1d3, Jump)

	if tmpa == 0 {
		// 1cc: | CCOF RTN
		s.SetCarry(false)
		s.SetOverflow(false)
		run(s, 0x1d0, Jump, 0x1cc, Jump)
	} else {
		// 1d1: | SCOF RTN
		s.SetCarry(true)
		s.SetOverflow(true)
		run(s, 0x1d0, 0x1d1, Jump)
	}
}

// Mul8 is the microcode routine for 8 bit multiplication. Accepts AL and an
// 8 bit operand; returns the 16 bit product for AX. The negate argument
// corresponds to the F1 flag, set by a REP prefix on the instruction.
func Mul8(s Sequencer, al, operand uint8, signed, neg bool) uint16 {
	tmpc := uint16(al)      // 150: A->tmpc | LRCY tmpc
	carry := tmpc&0x80 != 0 // LRCY checks the msb
	tmpb := uint16(operand) // 151: M->tmpb | X0 PREIMUL
	run(s, 0x150, 0x151)

	if signed {
		tmpb, tmpc, carry, neg = preIMul(s, 8, tmpb, tmpc, carry, neg)
	}

	// 152: | UNC CORX
	run(s, 0x152, Jump)
	tmpa, tmpcOut := corx(s, 8, tmpb, tmpc, carry)
	tmpc = tmpcOut

	// 153: | F1 NEGATE
	s.Cycle(0x153)
	if neg {
		s.Cycle(Jump)
		tmpa, _, tmpc, _, _ = negate(s, 8, tmpa, tmpb, tmpc, neg, false)
	}

	// 154: | X0 IMULCOF
	s.Cycle(0x154)
	if signed {
		imulcof(s, 8, tmpa, tmpc)
		run(s, 0x155, Jump)
		return tmpa<<8 | (tmpc & 0xff)
	}

	// 155 / 156: | UNC MULCOF
	run(s, 0x155, 0x156)
	mulcof(s, tmpa)

	return tmpa<<8 | (tmpc & 0xff)
}

// Mul16 is the microcode routine for 16 bit multiplication. Accepts AX and
// a 16 bit operand; returns the product as (high, low) for DX:AX.
func Mul16(s Sequencer, ax, operand uint16, signed, neg bool) (uint16, uint16) {
	tmpc := ax // 158: XA->tmpc | LRCY tmpc
	carry := tmpc&0x8000 != 0
	tmpb := operand // 159: M->tmpb | X0 PREIMUL
	run(s, 0x158, 0x159)

	if signed {
		tmpb, tmpc, carry, neg = preIMul(s, 16, tmpb, tmpc, carry, neg)
	}

	// 15a: | UNC CORX
	run(s, 0x15a, Jump)
	tmpa, tmpcOut := corx(s, 16, tmpb, tmpc, carry)
	tmpc = tmpcOut

	// 15b: | F1 NEGATE
	s.Cycle(0x15b)
	if neg {
		s.Cycle(Jump)
		tmpa, _, tmpc, _, _ = negate(s, 16, tmpa, tmpb, tmpc, neg, false)
	}

	// 15c: | X0 IMULCOF
	s.Cycle(0x15c)
	if signed {
		imulcof(s, 16, tmpa, tmpc)
		run(s, 0x15d, Jump)
		return tmpa, tmpc
	}

	// 15d / 15e: | UNC MULCOF
	run(s, 0x15d, 0x15e)
	mulcof(s, tmpa)

	return tmpa, tmpc
}

// preIMul is the PREIMUL routine: conditionally negate the multiplicand and
// enter NEGATE at the skip entry for the multiplier.
func preIMul(s Sequencer, bits uint, b, c uint16, carry, neg bool) (tmpb, tmpc uint16, carryOut, negOut bool) {
	tmpb = b
	tmpc = c

	// 1c0: SIGMA->. | NEG tmpc
	// 1c1: | NCY 7
	sigma, _, _, _ := alu.Neg16(tmpc)
	run(s, Jump, 0x1c0, 0x1c1)

	if carry {
		tmpc = sigma
		neg = !neg // 1c2: SIGMA->tmpc | CF1
		run(s, 0x1c2, 0x1c3, Jump)
	} else {
		s.Cycle(Jump)
	}

	_, tmpb, tmpc, carry, neg = negate(s, bits, 0, tmpb, tmpc, neg, true)
	return tmpb, tmpc, carry, neg
}

// Div8 is the microcode routine for 8 bit division. Accepts a 16 bit
// dividend and an 8 bit divisor; returns quotient and remainder, or a
// DivideError on divide-by-zero or quotient overflow.
func Div8(s Sequencer, dividend uint16, divisor uint8, signed, neg bool) (uint8, uint8, error) {
	tmpa := dividend >> 8   // 160
	tmpc := dividend & 0xff // 161
	tmpb := uint16(divisor) // 162
	run(s, 0x160, 0x161, 0x162)

	if signed {
		s.Cycle(Jump)
		tmpa, tmpb, tmpc, _, neg = preIDiv(s, 8, tmpa, tmpb, tmpc, neg)
	}

	// 163: | UNC CORD
	run(s, 0x163, Jump)
	tmpc, tmpa, carry, err := cord(s, 8, tmpa, tmpb, tmpc)
	if err != nil {
		return 0, 0, err
	}

	// 164: | COM1 tmpc
	sigma := ^tmpc
	// 165: X->tmpb | X0 POSTIDIV
	tmpb = dividend >> 8
	run(s, 0x164, 0x165)

	if signed {
		s.Cycle(Jump)
		tmpa, sigma, err = postIDiv(s, 8, tmpa, tmpb, tmpc, carry, neg)
		if err != nil {
			return 0, 0, err
		}
	}

	// 166: SIGMA->AL (quotient), tmpa->AH (remainder)
	return uint8(sigma), uint8(tmpa), nil
}

// Div16 is the microcode routine for 16 bit division. Accepts a 32 bit
// dividend and a 16 bit divisor; returns quotient and remainder, or a
// DivideError.
func Div16(s Sequencer, dividend uint32, divisor uint16, signed, neg bool) (uint16, uint16, error) {
	tmpa := uint16(dividend >> 16)    // 168
	tmpc := uint16(dividend & 0xffff) // 169
	tmpb := divisor                   // 16a
	run(s, 0x168, 0x169, 0x16a)

	if signed {
		s.Cycle(Jump)
		tmpa, tmpb, tmpc, _, neg = preIDiv(s, 16, tmpa, tmpb, tmpc, neg)
	}

	// 16b: | UNC CORD
	run(s, 0x16b, Jump)
	tmpc, tmpa, carry, err := cord(s, 16, tmpa, tmpb, tmpc)
	if err != nil {
		return 0, 0, err
	}

	// 16c: | COM1 tmpc
	sigma := ^tmpc
	// 16d: DE->tmpb | X0 POSTIDIV
	tmpb = uint16(dividend >> 16)
	run(s, 0x16c, 0x16d)

	if signed {
		s.Cycle(Jump)
		tmpa, sigma, err = postIDiv(s, 16, tmpa, tmpb, tmpc, carry, neg)
		if err != nil {
			return 0, 0, err
		}
	}

	// 16e: SIGMA->AX (quotient)
	// 16f: tmpa->DX (remainder)
	return sigma, tmpa, nil
}
