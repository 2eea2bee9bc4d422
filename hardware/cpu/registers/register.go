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

package registers

import (
	"fmt"
)

// Register is a 16 bit register. The four general registers AX, BX, CX and
// DX are additionally addressable as 8 bit halves through the Lo()/Hi()
// accessors. The segment registers and the pointer/index registers never use
// the 8 bit accessors but they are the same type for simplicity.
type Register struct {
	label string
	value uint16
}

// NewRegister creates a new 16 bit register with the given initial value and
// name.
func NewRegister(val uint16, label string) Register {
	return Register{
		value: val,
		label: label,
	}
}

func (r Register) String() string {
	return fmt.Sprintf("%s=%04x", r.label, r.value)
}

// Label returns the canonical name of the register.
func (r Register) Label() string {
	return r.label
}

// Value returns the current value of the register.
func (r Register) Value() uint16 {
	return r.value
}

// Load value into register.
func (r *Register) Load(val uint16) {
	r.value = val
}

// Lo returns the low byte of the register. AL, BL, CL or DL.
func (r Register) Lo() uint8 {
	return uint8(r.value)
}

// Hi returns the high byte of the register. AH, BH, CH or DH.
func (r Register) Hi() uint8 {
	return uint8(r.value >> 8)
}

// SetLo replaces the low byte of the register.
func (r *Register) SetLo(val uint8) {
	r.value = (r.value & 0xff00) | uint16(val)
}

// SetHi replaces the high byte of the register.
func (r *Register) SetHi(val uint8) {
	r.value = (r.value & 0x00ff) | (uint16(val) << 8)
}

// IsZero checks if register is zero.
func (r Register) IsZero() bool {
	return r.value == 0
}

// Incr adds delta to the register with 16 bit wrap-around. Used for the
// index registers during string operations and for stack adjustment.
func (r *Register) Incr(delta int16) {
	r.value += uint16(delta)
}
