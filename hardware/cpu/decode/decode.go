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

// Package decode turns a stream of bytes into Instruction values. Bytes are
// pulled one at a time through the ByteReader interface, which the CPU
// implements on top of the prefetch queue; decoding an instruction
// therefore advances the bus state machine as a side effect, exactly as it
// does on the real part.
package decode

import (
	"github.com/jetsetilly/gopher88/curated"
)

// UnhandledInstruction is returned when an opcode or group encoding has no
// definition.
const UnhandledInstruction = "decode: unhandled instruction: opcode %02x/%d"

// ByteReader is the byte source for the decoder.
type ByteReader interface {
	NextByte() uint8
}

// countingReader records consumed bytes so the Instruction can report its
// size and raw encoding.
type countingReader struct {
	r     ByteReader
	bytes []uint8
}

func (c *countingReader) NextByte() uint8 {
	b := c.r.NextByte()
	c.bytes = append(c.bytes, b)
	return b
}

func readU16(r ByteReader) uint16 {
	lo := r.NextByte()
	hi := r.NextByte()
	return uint16(hi)<<8 | uint16(lo)
}

// Decode reads one complete instruction, prefixes included.
func Decode(r ByteReader) (*Instruction, error) {
	cr := &countingReader{r: r, bytes: make([]uint8, 0, 6)}

	ins := &Instruction{}

	// consume prefixes. the 8088 places no limit on prefix chains; a
	// later prefix of the same class replaces the earlier one
	opcode := cr.NextByte()
prefixes:
	for {
		switch opcode {
		case 0x26:
			ins.SegmentOverride = SegES
		case 0x2e:
			ins.SegmentOverride = SegCS
		case 0x36:
			ins.SegmentOverride = SegSS
		case 0x3e:
			ins.SegmentOverride = SegDS
		case 0xf0, 0xf1:
			ins.Lock = true
		case 0xf2:
			ins.Rep = RepNE
		case 0xf3:
			ins.Rep = Rep
		default:
			break prefixes
		}
		opcode = cr.NextByte()
	}

	ins.Opcode = opcode
	defn := primary[opcode]
	if defn.Mnemonic == NONE && defn.group == 0 {
		return nil, curated.Errorf(UnhandledInstruction, opcode, 0)
	}

	// parse ModR/M if any operand needs it
	if needsModRM(defn) {
		ins.HasModRM = true
		ins.ModRM = readModRM(cr)
	}

	// group opcodes resolve their operation through the reg field
	if defn.group != 0 {
		g := groupDefinition(defn.group, ins.ModRM.Reg)
		if g.Mnemonic == NONE {
			return nil, curated.Errorf(UnhandledInstruction, opcode, ins.ModRM.Reg)
		}

		defn.Mnemonic = g.Mnemonic
		defn.XI = g.XI
		defn.LoadsEA = g.LoadsEA

		// the TEST forms of group 3 take an immediate operand sized by the
		// opcode width
		if g.Mnemonic == TEST {
			if defn.Width == Byte {
				defn.Operand2 = opImm8()
			} else {
				defn.Operand2 = opImm16()
			}
		}
	}

	ins.Defn = defn
	ins.Width = defn.Width

	// immediate and offset data follows the ModR/M displacement
	if err := readOperandData(cr, ins, defn.Operand1); err != nil {
		return nil, err
	}
	if err := readOperandData(cr, ins, defn.Operand2); err != nil {
		return nil, err
	}

	ins.Size = len(cr.bytes)
	ins.Bytes = cr.bytes

	return ins, nil
}

func needsModRM(d Definition) bool {
	for _, op := range []Operand{d.Operand1, d.Operand2} {
		switch op.Spec {
		case SpecModRM, SpecReg, SpecSegReg:
			return true
		}
	}
	return d.group != 0
}

func groupDefinition(group int, reg uint8) Definition {
	switch group {
	case grp1:
		return grp1Table[reg]
	case grp2:
		return grp2Table[reg]
	case grp2CL:
		return grp2CLTable[reg]
	case grp3:
		return grp3Table[reg]
	case grp4:
		return grp4Table[reg]
	case grp5:
		return grp5Table[reg]
	}
	return Definition{}
}

func readOperandData(r ByteReader, ins *Instruction, op Operand) error {
	switch op.Spec {
	case SpecImm8:
		ins.Imm = uint16(r.NextByte())
	case SpecImm16:
		ins.Imm = readU16(r)
	case SpecImm8S:
		ins.Imm = uint16(int16(int8(r.NextByte())))
	case SpecRel8:
		ins.Imm = uint16(int16(int8(r.NextByte())))
	case SpecRel16:
		ins.Imm = readU16(r)
	case SpecOffset16:
		ins.Imm = readU16(r)
	case SpecFarPtr:
		ins.Imm = readU16(r)
		ins.Imm2 = readU16(r)
	}
	return nil
}
