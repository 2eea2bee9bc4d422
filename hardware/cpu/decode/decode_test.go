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

package decode_test

import (
	"testing"

	"github.com/jetsetilly/gopher88/hardware/cpu/decode"
	"github.com/jetsetilly/gopher88/test"
)

// byteSource feeds the decoder from a slice. reading past the end returns
// zero, which is harmless for these tests.
type byteSource struct {
	data []uint8
	idx  int
}

func (b *byteSource) NextByte() uint8 {
	if b.idx >= len(b.data) {
		return 0
	}
	v := b.data[b.idx]
	b.idx++
	return v
}

func mustDecode(t *testing.T, data ...uint8) *decode.Instruction {
	t.Helper()
	ins, err := decode.Decode(&byteSource{data: data})
	test.ExpectedSuccess(t, err)
	return ins
}

func TestSingleByte(t *testing.T) {
	ins := mustDecode(t, 0x90)
	test.Equate(t, int(ins.Defn.Mnemonic), int(decode.NOP))
	test.Equate(t, ins.Size, 1)
	test.Equate(t, ins.HasModRM, false)
}

func TestMovImmediate(t *testing.T) {
	// mov ax, 0x1234
	ins := mustDecode(t, 0xb8, 0x34, 0x12)
	test.Equate(t, int(ins.Defn.Mnemonic), int(decode.MOV))
	test.Equate(t, int(ins.Width), int(decode.Word))
	test.Equate(t, int(ins.Defn.Operand1.Reg), int(decode.AX))
	test.Equate(t, ins.Imm, 0x1234)
	test.Equate(t, ins.Size, 3)
}

func TestModRMRegister(t *testing.T) {
	// add ax, bx
	ins := mustDecode(t, 0x01, 0xd8)
	test.Equate(t, int(ins.Defn.Mnemonic), int(decode.ADD))
	test.Equate(t, ins.HasModRM, true)
	test.Equate(t, int(ins.ModRM.Mode), int(decode.Register))
	test.Equate(t, ins.ModRM.Reg, 3)
	test.Equate(t, ins.ModRM.RM, 0)
	test.Equate(t, ins.Size, 2)
}

func TestModRMDisplacement(t *testing.T) {
	// mov ax, [bx+4]
	ins := mustDecode(t, 0x8b, 0x47, 0x04)
	test.Equate(t, int(ins.Defn.Mnemonic), int(decode.MOV))
	test.Equate(t, int(ins.ModRM.Mode), int(decode.BxDisp8))
	test.Equate(t, int(ins.ModRM.Disp), 4)
	test.Equate(t, ins.Size, 3)

	// negative displacement sign extends
	ins = mustDecode(t, 0x8b, 0x47, 0xfe)
	test.Equate(t, int(ins.ModRM.Disp), -2)

	// mod 00 rm 110 is a direct address, not [bp]
	ins = mustDecode(t, 0x8b, 0x06, 0x00, 0x80)
	test.Equate(t, int(ins.ModRM.Mode), int(decode.Disp16))
	test.Equate(t, int(uint16(ins.ModRM.Disp)), 0x8000)
	test.Equate(t, ins.Size, 4)
}

func TestPrefixes(t *testing.T) {
	// rep movsb with a cs override
	ins := mustDecode(t, 0x2e, 0xf3, 0xa4)
	test.Equate(t, int(ins.Defn.Mnemonic), int(decode.MOVS))
	test.Equate(t, int(ins.SegmentOverride), int(decode.SegCS))
	test.Equate(t, int(ins.Rep), int(decode.Rep))
	test.Equate(t, int(ins.Width), int(decode.Byte))
	test.Equate(t, ins.Size, 3)

	// a later segment prefix replaces an earlier one
	ins = mustDecode(t, 0x26, 0x3e, 0xa4)
	test.Equate(t, int(ins.SegmentOverride), int(decode.SegDS))
}

func TestGroupOpcodes(t *testing.T) {
	// div bx (f7 /6)
	ins := mustDecode(t, 0xf7, 0xf3)
	test.Equate(t, int(ins.Defn.Mnemonic), int(decode.DIV))
	test.Equate(t, int(ins.Width), int(decode.Word))

	// test bx, 0x8000 (f7 /0 carries an immediate)
	ins = mustDecode(t, 0xf7, 0xc3, 0x00, 0x80)
	test.Equate(t, int(ins.Defn.Mnemonic), int(decode.TEST))
	test.Equate(t, ins.Imm, 0x8000)
	test.Equate(t, ins.Size, 4)

	// inc word [bx] (ff /0)
	ins = mustDecode(t, 0xff, 0x07)
	test.Equate(t, int(ins.Defn.Mnemonic), int(decode.INC))
	test.Equate(t, int(ins.ModRM.Mode), int(decode.Bx))
}

func TestShiftGroupSETMO(t *testing.T) {
	// the /6 row of the shift group is the undocumented SETMO
	ins := mustDecode(t, 0xd0, 0xf0)
	test.Equate(t, int(ins.Defn.Mnemonic), int(decode.SETMO))

	// and the CL-count form is SETMOC
	ins = mustDecode(t, 0xd2, 0xf0)
	test.Equate(t, int(ins.Defn.Mnemonic), int(decode.SETMOC))
}

func TestSignExtendedImmediate(t *testing.T) {
	// cmp word [bx], -1 (83 /7)
	ins := mustDecode(t, 0x83, 0x3f, 0xff)
	test.Equate(t, int(ins.Defn.Mnemonic), int(decode.CMP))
	test.Equate(t, ins.Imm, 0xffff)
	test.Equate(t, ins.Size, 3)
}

func TestFarPointer(t *testing.T) {
	// jmp far 0xf000:0xe05b
	ins := mustDecode(t, 0xea, 0x5b, 0xe0, 0x00, 0xf0)
	test.Equate(t, int(ins.Defn.Mnemonic), int(decode.JMPF))
	test.Equate(t, ins.Imm, 0xe05b)
	test.Equate(t, ins.Imm2, 0xf000)
	test.Equate(t, ins.Size, 5)
}

func TestConditionalAliases(t *testing.T) {
	// 0x60 to 0x6f decode identically to 0x70 to 0x7f
	a := mustDecode(t, 0x60, 0x10)
	b := mustDecode(t, 0x70, 0x10)
	test.Equate(t, int(a.Defn.Mnemonic), int(b.Defn.Mnemonic))
	test.Equate(t, int(a.Defn.Mnemonic), int(decode.JO))

	a = mustDecode(t, 0x6f, 0xf0)
	test.Equate(t, int(a.Defn.Mnemonic), int(decode.JNLE))
}

func TestInstructionBytes(t *testing.T) {
	ins := mustDecode(t, 0xf3, 0xa4)
	test.Equate(t, len(ins.Bytes), 2)
	test.Equate(t, ins.Bytes[0], 0xf3)
	test.Equate(t, ins.Bytes[1], 0xa4)
}
