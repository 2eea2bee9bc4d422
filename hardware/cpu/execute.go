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
	"github.com/jetsetilly/gopher88/curated"
	"github.com/jetsetilly/gopher88/hardware/cpu/decode"
	"github.com/jetsetilly/gopher88/hardware/cpu/execution"
	"github.com/jetsetilly/gopher88/hardware/cpu/microcode"
)

// jumpNear flushes the queue and resumes fetching at the new offset in the
// current code segment.
func (mc *CPU) jumpNear(off uint16) {
	mc.flushQueue(off)
	mc.LastResult.Status = execution.OkayJump
}

// jumpFar loads a new code segment before flushing the queue.
func (mc *CPU) jumpFar(seg, off uint16) {
	mc.CS.Load(seg)
	mc.flushQueue(off)
	mc.LastResult.Status = execution.OkayJump
}

// condition evaluates the predicate of a conditional jump mnemonic.
func (mc *CPU) condition(m decode.Mnemonic) bool {
	f := &mc.Flags
	switch m {
	case decode.JO:
		return f.Overflow
	case decode.JNO:
		return !f.Overflow
	case decode.JB:
		return f.Carry
	case decode.JNB:
		return !f.Carry
	case decode.JZ:
		return f.Zero
	case decode.JNZ:
		return !f.Zero
	case decode.JBE:
		return f.Carry || f.Zero
	case decode.JNBE:
		return !f.Carry && !f.Zero
	case decode.JS:
		return f.Sign
	case decode.JNS:
		return !f.Sign
	case decode.JP:
		return f.Parity
	case decode.JNP:
		return !f.Parity
	case decode.JL:
		return f.Sign != f.Overflow
	case decode.JNL:
		return f.Sign == f.Overflow
	case decode.JLE:
		return f.Zero || f.Sign != f.Overflow
	case decode.JNLE:
		return !f.Zero && f.Sign == f.Overflow
	}
	return false
}

// pushOperand pushes the value of an operand, honouring the PUSH SP quirk:
// the 8088 pushes the value of SP after the decrement.
func (mc *CPU) pushOperand(ins *decode.Instruction, op decode.Operand) {
	if op.Spec == decode.SpecFixedReg && op.Reg == decode.SP {
		mc.SP.Incr(-2)
		mc.busWrite16(mc.SS.Value(), mc.SP.Value(), mc.SP.Value())
		return
	}
	if op.Spec == decode.SpecModRM && ins.ModRM.Mode == decode.Register && reg16Field[ins.ModRM.RM] == decode.SP {
		mc.SP.Incr(-2)
		mc.busWrite16(mc.SS.Value(), mc.SP.Value(), mc.SP.Value())
		return
	}
	mc.push16(mc.readOperand(ins, op))
}

// execute runs one decoded instruction. Bus accesses spend their own
// cycles; each case adds the remaining execution time.
func (mc *CPU) execute(ins *decode.Instruction) error {
	defn := ins.Defn

	switch defn.Mnemonic {
	case decode.ADD, decode.OR, decode.ADC, decode.SBB, decode.AND, decode.SUB, decode.XOR, decode.CMP:
		a := mc.readOperand(ins, defn.Operand1)
		b := mc.readOperand(ins, defn.Operand2)
		r := mc.mathOp(ins.Width, defn.XI, a, b)
		if defn.Mnemonic != decode.CMP {
			mc.writeOperand(ins, defn.Operand1, r)
		}
		mc.cycles(3)

	case decode.TEST:
		a := mc.readOperand(ins, defn.Operand1)
		b := mc.readOperand(ins, defn.Operand2)
		mc.mathOp(ins.Width, decode.XiAND, a, b)
		mc.cycles(3)

	case decode.MOV:
		mc.writeOperand(ins, defn.Operand1, mc.readOperand(ins, defn.Operand2))
		mc.cycles(2)

	case decode.XCHG:
		a := mc.readOperand(ins, defn.Operand1)
		b := mc.readOperand(ins, defn.Operand2)
		mc.writeOperand(ins, defn.Operand1, b)
		mc.writeOperand(ins, defn.Operand2, a)
		mc.cycles(4)

	case decode.LEA:
		// the register form is an illegal encoding that yields the stale
		// EA latch
		if ins.ModRM.Mode == decode.Register {
			mc.writeOperand(ins, defn.Operand1, mc.lastEAOff)
		} else {
			mc.writeOperand(ins, defn.Operand1, mc.eaOffset(ins.ModRM))
			mc.cycles(ins.ModRM.Mode.EACycles())
		}
		mc.cycles(2)

	case decode.LES, decode.LDS:
		sreg := &mc.ES
		if defn.Mnemonic == decode.LDS {
			sreg = &mc.DS
		}
		if ins.ModRM.Mode == decode.Register {
			// illegal encoding. offset comes from the stale EA latch
			mc.writeOperand(ins, defn.Operand1, mc.lastEAOff)
			sreg.Load(mc.lastEASeg)
		} else {
			mc.ensureEA(ins)
			off := mc.busRead16(mc.eaSeg, mc.eaOff)
			seg := mc.busRead16(mc.eaSeg, mc.eaOff+2)
			mc.writeOperand(ins, defn.Operand1, off)
			sreg.Load(seg)
		}
		mc.cycles(2)

	case decode.PUSH:
		mc.pushOperand(ins, defn.Operand1)
		mc.cycles(7)

	case decode.POP:
		v := mc.pop16()
		mc.writeOperand(ins, defn.Operand1, v)
		mc.cycles(4)

	case decode.PUSHF:
		mc.push16(mc.Flags.Value())
		mc.cycles(6)

	case decode.POPF:
		mc.Flags.FromValue(mc.pop16())
		mc.cycles(4)

	case decode.SAHF:
		v := mc.Flags.Value()&0xff00 | uint16(mc.AX.Hi())
		mc.Flags.FromValue(v)
		mc.cycles(4)

	case decode.LAHF:
		mc.AX.SetHi(uint8(mc.Flags.Value()))
		mc.cycles(4)

	case decode.CLC:
		mc.Flags.Carry = false
		mc.cycles(2)
	case decode.CMC:
		mc.Flags.Carry = !mc.Flags.Carry
		mc.cycles(2)
	case decode.STC:
		mc.Flags.Carry = true
		mc.cycles(2)
	case decode.CLD:
		mc.Flags.Direction = false
		mc.cycles(2)
	case decode.STD:
		mc.Flags.Direction = true
		mc.cycles(2)
	case decode.CLI:
		mc.Flags.Interrupt = false
		mc.cycles(2)
	case decode.STI:
		mc.Flags.Interrupt = true
		mc.cycles(2)

	case decode.CBW:
		mc.AX.Load(uint16(int16(int8(mc.AX.Lo()))))
		mc.cycles(2)

	case decode.CWD:
		if mc.AX.Value()&0x8000 == 0x8000 {
			mc.DX.Load(0xffff)
		} else {
			mc.DX.Load(0)
		}
		mc.cycles(5)

	case decode.INC, decode.DEC:
		delta := 1
		if defn.Mnemonic == decode.DEC {
			delta = -1
		}
		v := mc.readOperand(ins, defn.Operand1)
		mc.writeOperand(ins, defn.Operand1, mc.incDec(ins.Width, v, delta))
		mc.cycles(3)

	case decode.NOT:
		v := mc.readOperand(ins, defn.Operand1)
		mc.writeOperand(ins, defn.Operand1, ^v)
		mc.cycles(3)

	case decode.NEG:
		v := mc.readOperand(ins, defn.Operand1)
		r := mc.mathOp(ins.Width, decode.XiSUB, 0, v)
		mc.writeOperand(ins, defn.Operand1, r)
		mc.cycles(3)

	case decode.ROL, decode.ROR, decode.RCL, decode.RCR, decode.SHL, decode.SHR, decode.SAR:
		count := 1
		if defn.Operand2.Spec == decode.SpecFixedReg {
			count = int(mc.CX.Lo())
		}
		v := mc.readOperand(ins, defn.Operand1)
		r := mc.shiftOp(ins.Width, defn.XI, v, count)
		mc.writeOperand(ins, defn.Operand1, r)
		mc.cycles(2)

	case decode.SETMO:
		mc.writeOperand(ins, defn.Operand1, mc.setmo(ins.Width))
		mc.cycles(2)

	case decode.SETMOC:
		// the CL-counted form of SETMO. with a zero count the operand and
		// the flags are untouched
		if mc.CX.Lo() != 0 {
			mc.writeOperand(ins, defn.Operand1, mc.setmo(ins.Width))
		}
		mc.cycles(2)

	case decode.MUL, decode.IMUL:
		signed := defn.Mnemonic == decode.IMUL
		if ins.Width == decode.Byte {
			operand := uint8(mc.readOperand(ins, defn.Operand1))
			mc.AX.Load(microcode.Mul8(mc, mc.AX.Lo(), operand, signed, false))
		} else {
			operand := mc.readOperand(ins, defn.Operand1)
			hi, lo := microcode.Mul16(mc, mc.AX.Value(), operand, signed, false)
			mc.AX.Load(lo)
			mc.DX.Load(hi)
		}

	case decode.DIV, decode.IDIV:
		signed := defn.Mnemonic == decode.IDIV
		if ins.Width == decode.Byte {
			divisor := uint8(mc.readOperand(ins, defn.Operand1))
			quot, rem, err := microcode.Div8(mc, mc.AX.Value(), divisor, signed, false)
			if err != nil {
				return mc.divideError(err)
			}
			mc.AX.SetLo(quot)
			mc.AX.SetHi(rem)
		} else {
			divisor := mc.readOperand(ins, defn.Operand1)
			dividend := uint32(mc.DX.Value())<<16 | uint32(mc.AX.Value())
			quot, rem, err := microcode.Div16(mc, dividend, divisor, signed, false)
			if err != nil {
				return mc.divideError(err)
			}
			mc.AX.Load(quot)
			mc.DX.Load(rem)
		}

	case decode.AAM:
		divisor := uint8(ins.Imm)
		if divisor == 0 {
			return mc.divideError(curated.Errorf(microcode.DivideError))
		}
		al := mc.AX.Lo()
		mc.AX.SetHi(al / divisor)
		mc.AX.SetLo(al % divisor)
		mc.szp8(mc.AX.Lo())
		mc.Flags.Carry = false
		mc.Flags.Overflow = false
		mc.Flags.AuxCarry = false
		mc.cycles(83)

	case decode.AAD:
		al := mc.AX.Lo() + mc.AX.Hi()*uint8(ins.Imm)
		mc.AX.SetLo(al)
		mc.AX.SetHi(0)
		mc.szp8(al)
		mc.Flags.Carry = false
		mc.Flags.Overflow = false
		mc.Flags.AuxCarry = false
		mc.cycles(60)

	case decode.AAA, decode.AAS:
		al := mc.AX.Lo()
		adjust := al&0x0f > 9 || mc.Flags.AuxCarry
		if adjust {
			if defn.Mnemonic == decode.AAA {
				mc.AX.SetLo(al + 6)
				mc.AX.SetHi(mc.AX.Hi() + 1)
			} else {
				mc.AX.SetLo(al - 6)
				mc.AX.SetHi(mc.AX.Hi() - 1)
			}
		}
		mc.AX.SetLo(mc.AX.Lo() & 0x0f)
		mc.Flags.AuxCarry = adjust
		mc.Flags.Carry = adjust
		mc.szp8(mc.AX.Lo())
		mc.cycles(8)

	case decode.DAA:
		al := mc.AX.Lo()
		cf := mc.Flags.Carry
		if al&0x0f > 9 || mc.Flags.AuxCarry {
			mc.AX.SetLo(mc.AX.Lo() + 6)
			mc.Flags.AuxCarry = true
		}
		if al > 0x99 || cf {
			mc.AX.SetLo(mc.AX.Lo() + 0x60)
			mc.Flags.Carry = true
		}
		mc.szp8(mc.AX.Lo())
		mc.cycles(4)

	case decode.DAS:
		al := mc.AX.Lo()
		cf := mc.Flags.Carry
		if al&0x0f > 9 || mc.Flags.AuxCarry {
			mc.AX.SetLo(mc.AX.Lo() - 6)
			mc.Flags.AuxCarry = true
		}
		if al > 0x99 || cf {
			mc.AX.SetLo(mc.AX.Lo() - 0x60)
			mc.Flags.Carry = true
		}
		mc.szp8(mc.AX.Lo())
		mc.cycles(4)

	case decode.SALC:
		// undocumented. AL from the carry flag
		if mc.Flags.Carry {
			mc.AX.SetLo(0xff)
		} else {
			mc.AX.SetLo(0)
		}
		mc.cycles(4)

	case decode.XLAT:
		seg := mc.segmentValue(ins.SegmentOverride, decode.SegDS)
		off := mc.BX.Value() + uint16(mc.AX.Lo())
		mc.AX.SetLo(mc.busRead8(physical(seg, off)))
		mc.cycles(4)

	case decode.IN:
		var port uint16
		if defn.Operand2.Spec == decode.SpecImm8 {
			port = ins.Imm
		} else {
			port = mc.DX.Value()
		}
		if ins.Width == decode.Byte {
			mc.AX.SetLo(mc.busIORead8(port))
		} else {
			mc.AX.Load(mc.busIORead16(port))
		}
		mc.cycles(4)

	case decode.OUT:
		var port uint16
		if defn.Operand1.Spec == decode.SpecImm8 {
			port = ins.Imm
		} else {
			port = mc.DX.Value()
		}
		if ins.Width == decode.Byte {
			mc.busIOWrite8(port, mc.AX.Lo())
		} else {
			mc.busIOWrite16(port, mc.AX.Value())
		}
		mc.cycles(4)

	case decode.JO, decode.JNO, decode.JB, decode.JNB, decode.JZ, decode.JNZ,
		decode.JBE, decode.JNBE, decode.JS, decode.JNS, decode.JP, decode.JNP,
		decode.JL, decode.JNL, decode.JLE, decode.JNLE:
		if mc.condition(defn.Mnemonic) {
			mc.cycles(12)
			mc.jumpNear(mc.IP() + ins.Imm)
		} else {
			mc.cycles(4)
		}

	case decode.JCXZ:
		if mc.CX.IsZero() {
			mc.cycles(14)
			mc.jumpNear(mc.IP() + ins.Imm)
		} else {
			mc.cycles(6)
		}

	case decode.LOOP, decode.LOOPE, decode.LOOPNE:
		mc.CX.Incr(-1)
		taken := !mc.CX.IsZero()
		if defn.Mnemonic == decode.LOOPE {
			taken = taken && mc.Flags.Zero
		} else if defn.Mnemonic == decode.LOOPNE {
			taken = taken && !mc.Flags.Zero
		}
		if taken {
			mc.cycles(13)
			mc.jumpNear(mc.IP() + ins.Imm)
		} else {
			mc.cycles(5)
		}

	case decode.JMP:
		if defn.Operand1.Spec == decode.SpecModRM {
			mc.cycles(7)
			mc.jumpNear(mc.readRM(ins))
		} else {
			mc.cycles(11)
			mc.jumpNear(mc.IP() + ins.Imm)
		}

	case decode.JMPF:
		if defn.Operand1.Spec == decode.SpecFarPtr {
			mc.cycles(11)
			mc.jumpFar(ins.Imm2, ins.Imm)
		} else {
			seg, off := mc.readFarOperand(ins)
			mc.cycles(9)
			mc.jumpFar(seg, off)
		}

	case decode.CALL:
		var target uint16
		if defn.Operand1.Spec == decode.SpecModRM {
			target = mc.readRM(ins)
			mc.cycles(9)
		} else {
			target = mc.IP() + ins.Imm
			mc.cycles(11)
		}
		mc.push16(mc.IP())
		mc.jumpNear(target)

	case decode.CALLF:
		var seg, off uint16
		if defn.Operand1.Spec == decode.SpecFarPtr {
			seg, off = ins.Imm2, ins.Imm
			mc.cycles(14)
		} else {
			seg, off = mc.readFarOperand(ins)
			mc.cycles(12)
		}
		mc.push16(mc.CS.Value())
		mc.push16(mc.IP())
		mc.jumpFar(seg, off)

	case decode.RETN:
		off := mc.pop16()
		if defn.Operand1.Spec == decode.SpecImm16 {
			mc.SP.Incr(int16(ins.Imm))
		}
		mc.cycles(8)
		mc.jumpNear(off)

	case decode.RETF:
		off := mc.pop16()
		seg := mc.pop16()
		if defn.Operand1.Spec == decode.SpecImm16 {
			mc.SP.Incr(int16(ins.Imm))
		}
		mc.cycles(9)
		mc.jumpFar(seg, off)

	case decode.INT:
		mc.cycles(13)
		mc.interrupt(int(ins.Imm))

	case decode.INT3:
		mc.cycles(13)
		mc.interrupt(VectorBreakpoint)

	case decode.INTO:
		if mc.Flags.Overflow {
			mc.cycles(15)
			mc.interrupt(VectorOverflow)
		} else {
			mc.cycles(4)
		}

	case decode.IRET:
		off := mc.pop16()
		seg := mc.pop16()
		flags := mc.pop16()
		mc.Flags.FromValue(flags)
		mc.cycles(12)
		mc.jumpFar(seg, off)

	case decode.HLT:
		mc.halted = true
		mc.LastResult.Status = execution.Halt
		mc.cycles(2)

	case decode.WAIT:
		// no coprocessor. TEST' is never asserted so WAIT falls straight
		// through
		mc.cycles(4)

	case decode.ESC:
		// the EA operand is read and discarded
		if ins.ModRM.Mode.IsMemory() {
			mc.readRM(ins)
		}
		mc.cycles(2)

	case decode.NOP:
		mc.cycles(3)

	case decode.MOVS, decode.CMPS, decode.STOS, decode.LODS, decode.SCAS:
		return mc.executeString(ins)

	default:
		return curated.Errorf(decode.UnhandledInstruction, ins.Opcode, ins.ModRM.Reg)
	}

	return nil
}

// readFarOperand reads the offset and segment halves of an m16:16 operand.
func (mc *CPU) readFarOperand(ins *decode.Instruction) (seg, off uint16) {
	mc.ensureEA(ins)
	off = mc.busRead16(mc.eaSeg, mc.eaOff)
	seg = mc.busRead16(mc.eaSeg, mc.eaOff+2)
	return seg, off
}
