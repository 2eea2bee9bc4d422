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

// operand constructors keep the opcode table legible

func opNone() Operand         { return Operand{Spec: SpecNone} }
func opModRM() Operand        { return Operand{Spec: SpecModRM} }
func opReg() Operand          { return Operand{Spec: SpecReg} }
func opSegReg() Operand       { return Operand{Spec: SpecSegReg} }
func opImm8() Operand         { return Operand{Spec: SpecImm8} }
func opImm16() Operand        { return Operand{Spec: SpecImm16} }
func opImm8S() Operand        { return Operand{Spec: SpecImm8S} }
func opRel8() Operand         { return Operand{Spec: SpecRel8} }
func opRel16() Operand        { return Operand{Spec: SpecRel16} }
func opOffset16() Operand     { return Operand{Spec: SpecOffset16} }
func opFarPtr() Operand       { return Operand{Spec: SpecFarPtr} }
func opFixed(r RegID) Operand { return Operand{Spec: SpecFixedReg, Reg: r} }
func opConst1() Operand       { return Operand{Spec: SpecConst1} }

func def(m Mnemonic, w Width, op1, op2 Operand) Definition {
	return Definition{Mnemonic: m, Width: w, Operand1: op1, Operand2: op2, LoadsEA: true}
}

func defXI(m Mnemonic, xi XiOp, w Width, op1, op2 Operand) Definition {
	d := def(m, w, op1, op2)
	d.XI = xi
	return d
}

// noLoad marks an instruction that writes its EA operand without reading it
// first.
func noLoad(d Definition) Definition {
	d.LoadsEA = false
	return d
}

func group(n int, w Width, op2 Operand) Definition {
	return Definition{Mnemonic: NONE, Width: w, Operand1: opModRM(), Operand2: op2, group: n, LoadsEA: true}
}

// group numbers for the primary table
const (
	grp1   = 1 + iota // 0x80..0x83
	grp2              // 0xd0/0xd1
	grp2CL            // 0xd2/0xd3
	grp3              // 0xf6/0xf7
	grp4              // 0xfe
	grp5              // 0xff
)

// aluRow fills the six leading entries of an ALU opcode row (op rm,r / op
// r,rm / op acc,imm).
func aluRow(t []Definition, base uint8, m Mnemonic, xi XiOp) {
	t[base+0] = defXI(m, xi, Byte, opModRM(), opReg())
	t[base+1] = defXI(m, xi, Word, opModRM(), opReg())
	t[base+2] = defXI(m, xi, Byte, opReg(), opModRM())
	t[base+3] = defXI(m, xi, Word, opReg(), opModRM())
	t[base+4] = defXI(m, xi, Byte, opFixed(AL), opImm8())
	t[base+5] = defXI(m, xi, Word, opFixed(AX), opImm16())
}

// primary is the 256-entry opcode table. Opcodes 0x26/0x2e/0x36/0x3e
// (segment overrides), 0xf0/0xf1 (LOCK) and 0xf2/0xf3 (REP) are prefixes
// and never reach the table.
var primary [256]Definition

// group tables, resolved via the reg field of the ModR/M byte.
var grp1Table [8]Definition
var grp2Table [8]Definition
var grp2CLTable [8]Definition
var grp3Table [8]Definition
var grp4Table [8]Definition
var grp5Table [8]Definition

func init() {
	t := primary[:]

	aluRow(t, 0x00, ADD, XiADD)
	t[0x06] = def(PUSH, Word, opFixed(ES), opNone())
	t[0x07] = def(POP, Word, opFixed(ES), opNone())
	aluRow(t, 0x08, OR, XiOR)
	t[0x0e] = def(PUSH, Word, opFixed(CS), opNone())
	// 0x0f really is POP CS on the 8088
	t[0x0f] = def(POP, Word, opFixed(CS), opNone())
	aluRow(t, 0x10, ADC, XiADC)
	t[0x16] = def(PUSH, Word, opFixed(SS), opNone())
	t[0x17] = def(POP, Word, opFixed(SS), opNone())
	aluRow(t, 0x18, SBB, XiSBB)
	t[0x1e] = def(PUSH, Word, opFixed(DS), opNone())
	t[0x1f] = def(POP, Word, opFixed(DS), opNone())
	aluRow(t, 0x20, AND, XiAND)
	t[0x27] = def(DAA, Byte, opNone(), opNone())
	aluRow(t, 0x28, SUB, XiSUB)
	t[0x2f] = def(DAS, Byte, opNone(), opNone())
	aluRow(t, 0x30, XOR, XiXOR)
	t[0x37] = def(AAA, Byte, opNone(), opNone())
	aluRow(t, 0x38, CMP, XiCMP)
	t[0x3f] = def(AAS, Byte, opNone(), opNone())

	for i := 0; i < 8; i++ {
		t[0x40+i] = def(INC, Word, opFixed(AX+RegID(i)), opNone())
		t[0x48+i] = def(DEC, Word, opFixed(AX+RegID(i)), opNone())
		t[0x50+i] = def(PUSH, Word, opFixed(AX+RegID(i)), opNone())
		t[0x58+i] = def(POP, Word, opFixed(AX+RegID(i)), opNone())
	}

	jcc := []Mnemonic{JO, JNO, JB, JNB, JZ, JNZ, JBE, JNBE, JS, JNS, JP, JNP, JL, JNL, JLE, JNLE}
	for i, m := range jcc {
		// 0x60..0x6f are undocumented aliases of the conditional jumps
		t[0x60+i] = def(m, Byte, opRel8(), opNone())
		t[0x70+i] = def(m, Byte, opRel8(), opNone())
	}

	t[0x80] = group(grp1, Byte, opImm8())
	t[0x81] = group(grp1, Word, opImm16())
	t[0x82] = group(grp1, Byte, opImm8()) // alias of 0x80
	t[0x83] = group(grp1, Word, opImm8S())

	t[0x84] = def(TEST, Byte, opModRM(), opReg())
	t[0x85] = def(TEST, Word, opModRM(), opReg())
	t[0x86] = def(XCHG, Byte, opModRM(), opReg())
	t[0x87] = def(XCHG, Word, opModRM(), opReg())

	t[0x88] = noLoad(def(MOV, Byte, opModRM(), opReg()))
	t[0x89] = noLoad(def(MOV, Word, opModRM(), opReg()))
	t[0x8a] = def(MOV, Byte, opReg(), opModRM())
	t[0x8b] = def(MOV, Word, opReg(), opModRM())
	t[0x8c] = noLoad(def(MOV, Word, opModRM(), opSegReg()))
	t[0x8d] = noLoad(def(LEA, Word, opReg(), opModRM()))
	t[0x8e] = def(MOV, Word, opSegReg(), opModRM())
	t[0x8f] = noLoad(def(POP, Word, opModRM(), opNone()))

	t[0x90] = def(NOP, Word, opNone(), opNone())
	for i := 1; i < 8; i++ {
		t[0x90+i] = def(XCHG, Word, opFixed(AX), opFixed(AX+RegID(i)))
	}

	t[0x98] = def(CBW, Word, opNone(), opNone())
	t[0x99] = def(CWD, Word, opNone(), opNone())
	t[0x9a] = def(CALLF, Word, opFarPtr(), opNone())
	t[0x9b] = def(WAIT, Word, opNone(), opNone())
	t[0x9c] = def(PUSHF, Word, opNone(), opNone())
	t[0x9d] = def(POPF, Word, opNone(), opNone())
	t[0x9e] = def(SAHF, Byte, opNone(), opNone())
	t[0x9f] = def(LAHF, Byte, opNone(), opNone())

	t[0xa0] = def(MOV, Byte, opFixed(AL), opOffset16())
	t[0xa1] = def(MOV, Word, opFixed(AX), opOffset16())
	t[0xa2] = noLoad(def(MOV, Byte, opOffset16(), opFixed(AL)))
	t[0xa3] = noLoad(def(MOV, Word, opOffset16(), opFixed(AX)))

	t[0xa4] = def(MOVS, Byte, opNone(), opNone())
	t[0xa5] = def(MOVS, Word, opNone(), opNone())
	t[0xa6] = def(CMPS, Byte, opNone(), opNone())
	t[0xa7] = def(CMPS, Word, opNone(), opNone())
	t[0xa8] = def(TEST, Byte, opFixed(AL), opImm8())
	t[0xa9] = def(TEST, Word, opFixed(AX), opImm16())
	t[0xaa] = def(STOS, Byte, opNone(), opNone())
	t[0xab] = def(STOS, Word, opNone(), opNone())
	t[0xac] = def(LODS, Byte, opNone(), opNone())
	t[0xad] = def(LODS, Word, opNone(), opNone())
	t[0xae] = def(SCAS, Byte, opNone(), opNone())
	t[0xaf] = def(SCAS, Word, opNone(), opNone())

	for i := 0; i < 8; i++ {
		t[0xb0+i] = def(MOV, Byte, opFixed(AL+RegID(i)), opImm8())
		t[0xb8+i] = def(MOV, Word, opFixed(AX+RegID(i)), opImm16())
	}

	t[0xc0] = def(RETN, Word, opImm16(), opNone()) // alias of 0xc2
	t[0xc1] = def(RETN, Word, opNone(), opNone())  // alias of 0xc3
	t[0xc2] = def(RETN, Word, opImm16(), opNone())
	t[0xc3] = def(RETN, Word, opNone(), opNone())
	t[0xc4] = def(LES, Word, opReg(), opModRM())
	t[0xc5] = def(LDS, Word, opReg(), opModRM())
	t[0xc6] = noLoad(def(MOV, Byte, opModRM(), opImm8()))
	t[0xc7] = noLoad(def(MOV, Word, opModRM(), opImm16()))
	t[0xc8] = def(RETF, Word, opImm16(), opNone()) // alias of 0xca
	t[0xc9] = def(RETF, Word, opNone(), opNone())  // alias of 0xcb
	t[0xca] = def(RETF, Word, opImm16(), opNone())
	t[0xcb] = def(RETF, Word, opNone(), opNone())
	t[0xcc] = def(INT3, Word, opNone(), opNone())
	t[0xcd] = def(INT, Word, opImm8(), opNone())
	t[0xce] = def(INTO, Word, opNone(), opNone())
	t[0xcf] = def(IRET, Word, opNone(), opNone())

	t[0xd0] = group(grp2, Byte, opConst1())
	t[0xd1] = group(grp2, Word, opConst1())
	t[0xd2] = group(grp2CL, Byte, opFixed(CL))
	t[0xd3] = group(grp2CL, Word, opFixed(CL))
	t[0xd4] = def(AAM, Byte, opImm8(), opNone())
	t[0xd5] = def(AAD, Byte, opImm8(), opNone())
	t[0xd6] = def(SALC, Byte, opNone(), opNone())
	t[0xd7] = def(XLAT, Byte, opNone(), opNone())

	for i := 0; i < 8; i++ {
		t[0xd8+i] = def(ESC, Word, opModRM(), opNone())
	}

	t[0xe0] = def(LOOPNE, Word, opRel8(), opNone())
	t[0xe1] = def(LOOPE, Word, opRel8(), opNone())
	t[0xe2] = def(LOOP, Word, opRel8(), opNone())
	t[0xe3] = def(JCXZ, Word, opRel8(), opNone())
	t[0xe4] = def(IN, Byte, opFixed(AL), opImm8())
	t[0xe5] = def(IN, Word, opFixed(AX), opImm8())
	t[0xe6] = def(OUT, Byte, opImm8(), opFixed(AL))
	t[0xe7] = def(OUT, Word, opImm8(), opFixed(AX))
	t[0xe8] = def(CALL, Word, opRel16(), opNone())
	t[0xe9] = def(JMP, Word, opRel16(), opNone())
	t[0xea] = def(JMPF, Word, opFarPtr(), opNone())
	t[0xeb] = def(JMP, Word, opRel8(), opNone())
	t[0xec] = def(IN, Byte, opFixed(AL), opFixed(DX))
	t[0xed] = def(IN, Word, opFixed(AX), opFixed(DX))
	t[0xee] = def(OUT, Byte, opFixed(DX), opFixed(AL))
	t[0xef] = def(OUT, Word, opFixed(DX), opFixed(AX))

	t[0xf4] = def(HLT, Word, opNone(), opNone())
	t[0xf5] = def(CMC, Word, opNone(), opNone())
	t[0xf6] = group(grp3, Byte, opNone())
	t[0xf7] = group(grp3, Word, opNone())
	t[0xf8] = def(CLC, Word, opNone(), opNone())
	t[0xf9] = def(STC, Word, opNone(), opNone())
	t[0xfa] = def(CLI, Word, opNone(), opNone())
	t[0xfb] = def(STI, Word, opNone(), opNone())
	t[0xfc] = def(CLD, Word, opNone(), opNone())
	t[0xfd] = def(STD, Word, opNone(), opNone())
	t[0xfe] = group(grp4, Byte, opNone())
	t[0xff] = group(grp5, Word, opNone())

	// group 1: immediate ALU forms. the immediate operand spec comes from
	// the primary entry
	aluOps := []Mnemonic{ADD, OR, ADC, SBB, AND, SUB, XOR, CMP}
	aluXIs := []XiOp{XiADD, XiOR, XiADC, XiSBB, XiAND, XiSUB, XiXOR, XiCMP}
	for i := range aluOps {
		grp1Table[i] = Definition{Mnemonic: aluOps[i], XI: aluXIs[i], LoadsEA: true}
	}

	// group 2: rotates and shifts. /6 is the undocumented SETMO in the
	// 1-count forms and SETMOC in the CL-count forms
	shiftOps := []Mnemonic{ROL, ROR, RCL, RCR, SHL, SHR, SETMO, SAR}
	shiftXIs := []XiOp{XiROL, XiROR, XiRCL, XiRCR, XiSHL, XiSHR, XiSETMO, XiSAR}
	for i := range shiftOps {
		grp2Table[i] = Definition{Mnemonic: shiftOps[i], XI: shiftXIs[i], LoadsEA: true}
		grp2CLTable[i] = grp2Table[i]
	}
	grp2CLTable[6].Mnemonic = SETMOC

	// group 3: /1 is an alias of TEST
	grp3Ops := []Mnemonic{TEST, TEST, NOT, NEG, MUL, IMUL, DIV, IDIV}
	for i := range grp3Ops {
		grp3Table[i] = Definition{Mnemonic: grp3Ops[i], LoadsEA: true}
	}

	// group 4: only INC and DEC are defined for the byte form
	grp4Table[0] = Definition{Mnemonic: INC, LoadsEA: true}
	grp4Table[1] = Definition{Mnemonic: DEC, LoadsEA: true}

	grp5Ops := []Mnemonic{INC, DEC, CALL, CALLF, JMP, JMPF, PUSH, PUSH}
	for i := range grp5Ops {
		grp5Table[i] = Definition{Mnemonic: grp5Ops[i], LoadsEA: true}
	}
}
