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

package alu_test

import (
	"testing"

	"github.com/jetsetilly/gopher88/hardware/cpu/alu"
	"github.com/jetsetilly/gopher88/test"
)

func TestParity(t *testing.T) {
	// parity is of the low 8 bits only and is set for an even bit count
	test.Equate(t, alu.Parity(0x00), true)
	test.Equate(t, alu.Parity(0x01), false)
	test.Equate(t, alu.Parity(0x03), true)
	test.Equate(t, alu.Parity(0x07), false)
	test.Equate(t, alu.Parity(0xff), true)
}

func TestAdd8(t *testing.T) {
	sum, carry, overflow, aux := alu.Add8(0x01, 0x01, false)
	test.Equate(t, sum, 0x02)
	test.Equate(t, carry, false)
	test.Equate(t, overflow, false)
	test.Equate(t, aux, false)

	// carry out of bit 7
	sum, carry, overflow, _ = alu.Add8(0xff, 0x01, false)
	test.Equate(t, sum, 0x00)
	test.Equate(t, carry, true)
	test.Equate(t, overflow, false)

	// signed overflow: 127 + 1
	sum, carry, overflow, _ = alu.Add8(0x7f, 0x01, false)
	test.Equate(t, sum, 0x80)
	test.Equate(t, carry, false)
	test.Equate(t, overflow, true)

	// aux carry out of bit 3
	_, _, _, aux = alu.Add8(0x0f, 0x01, false)
	test.Equate(t, aux, true)

	// carry in
	sum, _, _, _ = alu.Add8(0x01, 0x01, true)
	test.Equate(t, sum, 0x03)
}

func TestSub8(t *testing.T) {
	diff, carry, overflow, _ := alu.Sub8(0x02, 0x01, false)
	test.Equate(t, diff, 0x01)
	test.Equate(t, carry, false)
	test.Equate(t, overflow, false)

	// borrow
	diff, carry, _, _ = alu.Sub8(0x00, 0x01, false)
	test.Equate(t, diff, 0xff)
	test.Equate(t, carry, true)

	// signed overflow: -128 - 1
	_, _, overflow, _ = alu.Sub8(0x80, 0x01, false)
	test.Equate(t, overflow, true)

	// borrow in
	diff, _, _, _ = alu.Sub8(0x02, 0x01, true)
	test.Equate(t, diff, 0x00)
}

func TestAdd16(t *testing.T) {
	sum, carry, overflow, _ := alu.Add16(0x7fff, 0x0001, false)
	test.Equate(t, sum, 0x8000)
	test.Equate(t, carry, false)
	test.Equate(t, overflow, true)

	sum, carry, _, _ = alu.Add16(0xffff, 0x0001, false)
	test.Equate(t, sum, 0x0000)
	test.Equate(t, carry, true)
}

func TestNeg(t *testing.T) {
	r, carry, _, _ := alu.Neg8(0x01)
	test.Equate(t, r, 0xff)
	test.Equate(t, carry, true)

	// NEG of zero clears carry
	r, carry, _, _ = alu.Neg8(0x00)
	test.Equate(t, r, 0x00)
	test.Equate(t, carry, false)

	// NEG of the most negative value overflows
	_, _, overflow, _ := alu.Neg8(0x80)
	test.Equate(t, overflow, true)
}

func TestRotates(t *testing.T) {
	// ROL moves the top bit into both bit 0 and the carry
	r, carry, _ := alu.Rol8(0x80)
	test.Equate(t, r, 0x01)
	test.Equate(t, carry, true)

	r, carry, _ = alu.Ror8(0x01)
	test.Equate(t, r, 0x80)
	test.Equate(t, carry, true)

	// RCL rotates through the carry flag
	r, carry, _ = alu.Rcl8(0x80, false)
	test.Equate(t, r, 0x00)
	test.Equate(t, carry, true)

	r, carry, _ = alu.Rcl8(0x00, true)
	test.Equate(t, r, 0x01)
	test.Equate(t, carry, false)

	r, carry, _ = alu.Rcr8(0x01, true)
	test.Equate(t, r, 0x80)
	test.Equate(t, carry, true)
}

func TestShifts(t *testing.T) {
	r, carry, overflow := alu.Shl8(0x40)
	test.Equate(t, r, 0x80)
	test.Equate(t, carry, false)
	test.Equate(t, overflow, true)

	r, carry, _ = alu.Shr8(0x01)
	test.Equate(t, r, 0x00)
	test.Equate(t, carry, true)

	// SHR of a negative value sets overflow
	_, _, overflow = alu.Shr8(0x80)
	test.Equate(t, overflow, true)

	// SAR preserves the sign bit and never overflows
	r, _, overflow = alu.Sar8(0x82)
	test.Equate(t, r, 0xc1)
	test.Equate(t, overflow, false)

	r16, _, _ := alu.Sar16(0x8000)
	test.Equate(t, r16, 0xc000)
}
