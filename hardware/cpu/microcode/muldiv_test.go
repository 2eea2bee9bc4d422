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

package microcode_test

import (
	"testing"

	"github.com/jetsetilly/gopher88/curated"
	"github.com/jetsetilly/gopher88/hardware/cpu/microcode"
	"github.com/jetsetilly/gopher88/test"
)

// sequencer counts cycles and records the flag bits the routines set.
type sequencer struct {
	cycles   int
	carry    bool
	overflow bool
}

func (s *sequencer) Cycle(_ microcode.Addr) {
	s.cycles++
}

func (s *sequencer) SetCarry(v bool)    { s.carry = v }
func (s *sequencer) SetOverflow(v bool) { s.overflow = v }
func (s *sequencer) SetAuxCarry(_ bool) {}
func (s *sequencer) SetSZP8(_ uint8)    {}
func (s *sequencer) SetSZP16(_ uint16)  {}

func TestMul8(t *testing.T) {
	s := &sequencer{}

	// product fits in AL so carry and overflow clear
	r := microcode.Mul8(s, 10, 20, false, false)
	test.Equate(t, r, 200)
	test.Equate(t, s.carry, false)
	test.Equate(t, s.overflow, false)
	if s.cycles == 0 {
		t.Errorf("multiply spent no cycles")
	}

	// product spills into AH
	s = &sequencer{}
	r = microcode.Mul8(s, 100, 100, false, false)
	test.Equate(t, r, 10000)
	test.Equate(t, s.carry, true)
	test.Equate(t, s.overflow, true)
}

func TestIMul8(t *testing.T) {
	s := &sequencer{}

	r := microcode.Mul8(s, 0xfd, 0x02, true, false) // -3 * 2
	test.Equate(t, r, 0xfffa)                       // -6
	test.Equate(t, s.carry, false)
	test.Equate(t, s.overflow, false)

	// two negatives
	s = &sequencer{}
	r = microcode.Mul8(s, 0xfd, 0xfe, true, false) // -3 * -2
	test.Equate(t, r, 0x0006)

	// result does not fit in AL
	s = &sequencer{}
	r = microcode.Mul8(s, 100, 100, true, false)
	test.Equate(t, r, 10000)
	test.Equate(t, s.carry, true)
	test.Equate(t, s.overflow, true)
}

func TestMul16(t *testing.T) {
	s := &sequencer{}

	hi, lo := microcode.Mul16(s, 0x1234, 0x0100, false, false)
	test.Equate(t, hi, 0x0012)
	test.Equate(t, lo, 0x3400)
	test.Equate(t, s.carry, true)
	test.Equate(t, s.overflow, true)

	s = &sequencer{}
	hi, lo = microcode.Mul16(s, 3, 4, false, false)
	test.Equate(t, hi, 0x0000)
	test.Equate(t, lo, 0x000c)
	test.Equate(t, s.carry, false)
	test.Equate(t, s.overflow, false)
}

func TestIMul16(t *testing.T) {
	s := &sequencer{}

	hi, lo := microcode.Mul16(s, 0xffff, 0x0002, true, false) // -1 * 2
	test.Equate(t, hi, 0xffff)
	test.Equate(t, lo, 0xfffe)
	test.Equate(t, s.carry, false)
	test.Equate(t, s.overflow, false)
}

func TestDiv8(t *testing.T) {
	s := &sequencer{}

	quot, rem, err := microcode.Div8(s, 100, 7, false, false)
	test.ExpectedSuccess(t, err)
	test.Equate(t, quot, 14)
	test.Equate(t, rem, 2)
	if s.cycles == 0 {
		t.Errorf("divide spent no cycles")
	}
}

func TestDiv8Errors(t *testing.T) {
	s := &sequencer{}

	// divide by zero
	_, _, err := microcode.Div8(s, 100, 0, false, false)
	test.ExpectedFailure(t, err)
	test.ExpectedSuccess(t, curated.Is(err, microcode.DivideError))

	// quotient too large for AL
	s = &sequencer{}
	_, _, err = microcode.Div8(s, 0x1234, 0x01, false, false)
	test.ExpectedFailure(t, err)
	test.ExpectedSuccess(t, curated.Is(err, microcode.DivideError))
}

func TestIDiv8(t *testing.T) {
	s := &sequencer{}

	// -100 / 7 truncates towards zero; remainder takes the dividend's sign
	quot, rem, err := microcode.Div8(s, 0xff9c, 7, true, false)
	test.ExpectedSuccess(t, err)
	test.Equate(t, quot, 0xf2) // -14
	test.Equate(t, rem, 0xfe)  // -2

	s = &sequencer{}
	quot, rem, err = microcode.Div8(s, 100, 0xf9, true, false) // 100 / -7
	test.ExpectedSuccess(t, err)
	test.Equate(t, quot, 0xf2) // -14
	test.Equate(t, rem, 0x02)

	// -32768 / 1 does not fit in AL
	s = &sequencer{}
	_, _, err = microcode.Div8(s, 0x8000, 0x01, true, false)
	test.ExpectedFailure(t, err)
}

func TestDiv16(t *testing.T) {
	s := &sequencer{}

	quot, rem, err := microcode.Div16(s, 0x00010000, 2, false, false)
	test.ExpectedSuccess(t, err)
	test.Equate(t, quot, 0x8000)
	test.Equate(t, rem, 0x0000)

	s = &sequencer{}
	quot, rem, err = microcode.Div16(s, 1000000, 1000, false, false)
	test.ExpectedSuccess(t, err)
	test.Equate(t, quot, 1000)
	test.Equate(t, rem, 0)

	// quotient too large for AX
	s = &sequencer{}
	_, _, err = microcode.Div16(s, 0x00020000, 2, false, false)
	test.ExpectedFailure(t, err)
	test.ExpectedSuccess(t, curated.Is(err, microcode.DivideError))
}

func TestIDiv16(t *testing.T) {
	s := &sequencer{}

	// -1000000 / 1000
	quot, rem, err := microcode.Div16(s, 0xfff0bdc0, 1000, true, false)
	test.ExpectedSuccess(t, err)
	test.Equate(t, quot, 0xfc18) // -1000
	test.Equate(t, rem, 0x0000)
}
