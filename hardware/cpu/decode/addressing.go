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

package decode

// AddressingMode names the base registers and displacement of a ModR/M
// memory form. Register names the register-direct form.
type AddressingMode int

// List of addressing modes.
const (
	BxSi AddressingMode = iota
	BxDi
	BpSi
	BpDi
	Si
	Di
	Disp16
	Bx
	BxSiDisp8
	BxDiDisp8
	BpSiDisp8
	BpDiDisp8
	SiDisp8
	DiDisp8
	BpDisp8
	BxDisp8
	BxSiDisp16
	BxDiDisp16
	BpSiDisp16
	BpDiDisp16
	SiDisp16
	DiDisp16
	BpDisp16
	BxDisp16
	Register
)

// UsesBP returns true for the modes that default to the SS segment.
func (m AddressingMode) UsesBP() bool {
	switch m {
	case BpSi, BpDi, BpSiDisp8, BpDiDisp8, BpDisp8, BpSiDisp16, BpDiDisp16, BpDisp16:
		return true
	}
	return false
}

// IsMemory returns true for every mode except register-direct.
func (m AddressingMode) IsMemory() bool {
	return m != Register
}

// ModRM is the parsed ModR/M byte of an instruction, plus its displacement.
type ModRM struct {
	Mod  uint8
	Reg  uint8
	RM   uint8
	Mode AddressingMode
	Disp int16
}

// the per-mode effective address computation time of the 8088, in cycles.
// displacement forms cost four extra cycles; the "slow" base+index pairs
// (BP+SI, BX+DI) cost one cycle less than the others
var eaCycles = [24]int{
	7, 8, 8, 7, 5, 5, 6, 5,
	11, 12, 12, 11, 9, 9, 9, 9,
	11, 12, 12, 11, 9, 9, 9, 9,
}

// EACycles returns the cycle cost of computing the effective address for
// the mode.
func (m AddressingMode) EACycles() int {
	if m == Register {
		return 0
	}
	return eaCycles[m]
}

var mode0 = [8]AddressingMode{BxSi, BxDi, BpSi, BpDi, Si, Di, Disp16, Bx}
var mode1 = [8]AddressingMode{BxSiDisp8, BxDiDisp8, BpSiDisp8, BpDiDisp8, SiDisp8, DiDisp8, BpDisp8, BxDisp8}
var mode2 = [8]AddressingMode{BxSiDisp16, BxDiDisp16, BpSiDisp16, BpDiDisp16, SiDisp16, DiDisp16, BpDisp16, BxDisp16}

// readModRM parses a ModR/M byte and any displacement it implies, pulling
// bytes through the reader.
func readModRM(r ByteReader) ModRM {
	b := r.NextByte()

	m := ModRM{
		Mod: b >> 6,
		Reg: (b >> 3) & 0x07,
		RM:  b & 0x07,
	}

	switch m.Mod {
	case 0:
		// mod 00 with rm 110 is the direct address form
		m.Mode = mode0[m.RM]
		if m.Mode == Disp16 {
			m.Disp = int16(readU16(r))
		}
	case 1:
		m.Mode = mode1[m.RM]
		m.Disp = int16(int8(r.NextByte()))
	case 2:
		m.Mode = mode2[m.RM]
		m.Disp = int16(readU16(r))
	case 3:
		m.Mode = Register
	}

	return m
}
