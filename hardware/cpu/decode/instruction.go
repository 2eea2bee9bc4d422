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

import (
	"fmt"
	"strings"
)

// Width of the data an instruction operates on.
type Width int

// List of instruction widths.
const (
	Byte Width = iota
	Word
)

// Mnemonic identifies the operation of a decoded instruction.
type Mnemonic int

// List of mnemonics. The undocumented SETMO/SETMOC operations are what the
// 8088 really does for the /6 encodings of the shift groups.
const (
	NONE Mnemonic = iota
	AAA
	AAD
	AAM
	AAS
	ADC
	ADD
	AND
	CALL
	CALLF
	CBW
	CLC
	CLD
	CLI
	CMC
	CMP
	CMPS
	CWD
	DAA
	DAS
	DEC
	DIV
	ESC
	HLT
	IDIV
	IMUL
	IN
	INC
	INT
	INT3
	INTO
	IRET
	JB
	JBE
	JCXZ
	JL
	JLE
	JMP
	JMPF
	JNB
	JNBE
	JNL
	JNLE
	JNO
	JNP
	JNS
	JNZ
	JO
	JP
	JS
	JZ
	LAHF
	LDS
	LEA
	LES
	LODS
	LOOP
	LOOPE
	LOOPNE
	MOV
	MOVS
	MUL
	NEG
	NOP
	NOT
	OR
	OUT
	POP
	POPF
	PUSH
	PUSHF
	RCL
	RCR
	RETF
	RETN
	ROL
	ROR
	SAHF
	SALC
	SAR
	SBB
	SCAS
	SETMO
	SETMOC
	SHL
	SHR
	STC
	STD
	STI
	STOS
	SUB
	TEST
	WAIT
	XCHG
	XLAT
	XOR
)

// RegID names a register operand. The 8 bit names and the 16 bit names
// share the ordering of the ModR/M reg field encodings.
type RegID int

// List of register identifiers.
const (
	RegNone RegID = iota
	AL
	CL
	DL
	BL
	AH
	CH
	DH
	BH
	AX
	CX
	DX
	BX
	SP
	BP
	SI
	DI
	ES
	CS
	SS
	DS
)

// Segment names the segment register selected by an override prefix.
type Segment int

// List of segment overrides. SegNone means no override prefix was seen and
// the instruction uses its default segment.
const (
	SegNone Segment = iota
	SegES
	SegCS
	SegSS
	SegDS
)

// RepType is the repeat prefix state of an instruction.
type RepType int

// List of repeat prefixes.
const (
	RepNone RepType = iota
	Rep             // F3: REP/REPZ
	RepNE           // F2: REPNZ
)

// OperandSpec describes where an operand comes from before decoding is
// complete.
type OperandSpec int

// List of operand specs.
const (
	SpecNone     OperandSpec = iota
	SpecModRM                // memory or register selected by ModR/M mod+rm
	SpecReg                  // register selected by ModR/M reg field
	SpecSegReg               // segment register selected by ModR/M reg field
	SpecImm8                 // 8 bit immediate
	SpecImm16                // 16 bit immediate
	SpecImm8S                // 8 bit immediate sign-extended to 16 bits
	SpecRel8                 // 8 bit relative displacement
	SpecRel16                // 16 bit relative displacement
	SpecOffset16             // direct 16 bit address (moffs)
	SpecFarPtr               // 16 bit offset followed by 16 bit segment
	SpecFixedReg             // the register named in the Operand Reg field
	SpecConst1               // the constant 1 (single-bit shift forms)
)

// Operand is one operand descriptor of an instruction definition.
type Operand struct {
	Spec OperandSpec
	Reg  RegID
}

// XiOp tags the ALU operation of arithmetic and shift instructions so that
// they can funnel through a common math path in the execution unit.
type XiOp int

// List of ALU operation tags.
const (
	XiNone XiOp = iota
	XiADD
	XiOR
	XiADC
	XiSBB
	XiAND
	XiSUB
	XiXOR
	XiCMP
	XiROL
	XiROR
	XiRCL
	XiRCR
	XiSHL
	XiSHR
	XiSAR
	XiSETMO
)

// Definition defines one entry in the opcode table.
type Definition struct {
	Mnemonic Mnemonic
	Width    Width
	XI       XiOp

	Operand1 Operand
	Operand2 Operand

	// group is non-zero for opcodes whose operation is selected by the reg
	// field of the ModR/M byte
	group int

	// LoadsEA is set for instructions that read their EA operand before
	// executing. Instructions that only write (MOV to memory, LEA) run the
	// shorter EA-done path.
	LoadsEA bool
}

// Instruction is a fully decoded instruction.
type Instruction struct {
	Opcode uint8
	Defn   Definition

	Width Width

	SegmentOverride Segment
	Rep             RepType
	Lock            bool

	HasModRM bool
	ModRM    ModRM

	// immediate or offset data, meaning depends on the operand specs
	Imm  uint16
	Imm2 uint16 // segment half of a far pointer

	// total instruction length in bytes, prefixes included
	Size int

	// the raw instruction bytes, for the validator and the history ring
	Bytes []uint8
}

func (ins Instruction) String() string {
	s := strings.Builder{}
	if ins.Rep == Rep {
		s.WriteString("rep ")
	} else if ins.Rep == RepNE {
		s.WriteString("repne ")
	}
	s.WriteString(fmt.Sprintf("%02x", ins.Opcode))
	if ins.HasModRM {
		s.WriteString(fmt.Sprintf("/%d", ins.ModRM.Reg))
	}
	s.WriteString(fmt.Sprintf(" [%d bytes]", ins.Size))
	return s.String()
}
