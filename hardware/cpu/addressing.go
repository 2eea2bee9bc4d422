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
	"github.com/jetsetilly/gopher88/hardware/cpu/decode"
	"github.com/jetsetilly/gopher88/hardware/cpu/registers"
)

// register selected by the ModR/M reg or rm field, per width
var reg8Field = [8]decode.RegID{decode.AL, decode.CL, decode.DL, decode.BL, decode.AH, decode.CH, decode.DH, decode.BH}
var reg16Field = [8]decode.RegID{decode.AX, decode.CX, decode.DX, decode.BX, decode.SP, decode.BP, decode.SI, decode.DI}

// segment register selected by the ModR/M reg field. the 8088 only decodes
// two bits so the field wraps
var segRegField = [4]decode.RegID{decode.ES, decode.CS, decode.SS, decode.DS}

func (mc *CPU) reg16ptr(id decode.RegID) *registers.Register {
	switch id {
	case decode.AX:
		return &mc.AX
	case decode.CX:
		return &mc.CX
	case decode.DX:
		return &mc.DX
	case decode.BX:
		return &mc.BX
	case decode.SP:
		return &mc.SP
	case decode.BP:
		return &mc.BP
	case decode.SI:
		return &mc.SI
	case decode.DI:
		return &mc.DI
	case decode.ES:
		return &mc.ES
	case decode.CS:
		return &mc.CS
	case decode.SS:
		return &mc.SS
	case decode.DS:
		return &mc.DS
	}
	return nil
}

func (mc *CPU) reg8value(id decode.RegID) uint8 {
	switch id {
	case decode.AL:
		return mc.AX.Lo()
	case decode.CL:
		return mc.CX.Lo()
	case decode.DL:
		return mc.DX.Lo()
	case decode.BL:
		return mc.BX.Lo()
	case decode.AH:
		return mc.AX.Hi()
	case decode.CH:
		return mc.CX.Hi()
	case decode.DH:
		return mc.DX.Hi()
	case decode.BH:
		return mc.BX.Hi()
	}
	return 0
}

func (mc *CPU) setReg8(id decode.RegID, v uint8) {
	switch id {
	case decode.AL:
		mc.AX.SetLo(v)
	case decode.CL:
		mc.CX.SetLo(v)
	case decode.DL:
		mc.DX.SetLo(v)
	case decode.BL:
		mc.BX.SetLo(v)
	case decode.AH:
		mc.AX.SetHi(v)
	case decode.CH:
		mc.CX.SetHi(v)
	case decode.DH:
		mc.DX.SetHi(v)
	case decode.BH:
		mc.BX.SetHi(v)
	}
}

// regValue reads a register of either width, widened to 16 bits.
func (mc *CPU) regValue(id decode.RegID) uint16 {
	if id >= decode.AL && id <= decode.BH {
		return uint16(mc.reg8value(id))
	}
	if r := mc.reg16ptr(id); r != nil {
		return r.Value()
	}
	return 0
}

// setRegValue writes a register of either width.
func (mc *CPU) setRegValue(id decode.RegID, v uint16) {
	if id >= decode.AL && id <= decode.BH {
		mc.setReg8(id, uint8(v))
		return
	}
	if r := mc.reg16ptr(id); r != nil {
		r.Load(v)
	}
}

// segmentValue resolves a segment override to the register value, or to the
// given default when no override prefix was decoded.
func (mc *CPU) segmentValue(override decode.Segment, def decode.Segment) uint16 {
	s := override
	if s == decode.SegNone {
		s = def
	}
	switch s {
	case decode.SegES:
		return mc.ES.Value()
	case decode.SegCS:
		return mc.CS.Value()
	case decode.SegSS:
		return mc.SS.Value()
	}
	return mc.DS.Value()
}

// eaOffset computes the 16 bit effective address offset for a ModR/M memory
// form. Wraparound within the segment is the defined behaviour.
func (mc *CPU) eaOffset(m decode.ModRM) uint16 {
	var base uint16

	switch m.Mode {
	case decode.BxSi, decode.BxSiDisp8, decode.BxSiDisp16:
		base = mc.BX.Value() + mc.SI.Value()
	case decode.BxDi, decode.BxDiDisp8, decode.BxDiDisp16:
		base = mc.BX.Value() + mc.DI.Value()
	case decode.BpSi, decode.BpSiDisp8, decode.BpSiDisp16:
		base = mc.BP.Value() + mc.SI.Value()
	case decode.BpDi, decode.BpDiDisp8, decode.BpDiDisp16:
		base = mc.BP.Value() + mc.DI.Value()
	case decode.Si, decode.SiDisp8, decode.SiDisp16:
		base = mc.SI.Value()
	case decode.Di, decode.DiDisp8, decode.DiDisp16:
		base = mc.DI.Value()
	case decode.BpDisp8, decode.BpDisp16:
		base = mc.BP.Value()
	case decode.Bx, decode.BxDisp8, decode.BxDisp16:
		base = mc.BX.Value()
	case decode.Disp16:
		base = 0
	}

	return base + uint16(m.Disp)
}

// ensureEA computes the effective address of the current instruction once,
// spending the EA cycles, and caches it for later operand accesses.
func (mc *CPU) ensureEA(ins *decode.Instruction) {
	if mc.eaValid {
		return
	}

	def := decode.SegDS
	if ins.ModRM.Mode.UsesBP() {
		def = decode.SegSS
	}

	mc.eaSeg = mc.segmentValue(ins.SegmentOverride, def)
	mc.eaOff = mc.eaOffset(ins.ModRM)
	mc.eaValid = true

	// the stale EA latch. register-form LES/LDS reuse whatever address was
	// computed last
	mc.lastEASeg = mc.eaSeg
	mc.lastEAOff = mc.eaOff

	mc.cycles(ins.ModRM.Mode.EACycles())
}

// readRM reads the ModR/M operand, memory or register, sized by the
// instruction width and widened to 16 bits.
func (mc *CPU) readRM(ins *decode.Instruction) uint16 {
	if ins.ModRM.Mode == decode.Register {
		if ins.Width == decode.Byte {
			return uint16(mc.reg8value(reg8Field[ins.ModRM.RM]))
		}
		return mc.reg16ptr(reg16Field[ins.ModRM.RM]).Value()
	}

	mc.ensureEA(ins)
	if ins.Width == decode.Byte {
		return uint16(mc.busRead8(physical(mc.eaSeg, mc.eaOff)))
	}
	return mc.busRead16(mc.eaSeg, mc.eaOff)
}

// writeRM writes the ModR/M operand, memory or register, sized by the
// instruction width.
func (mc *CPU) writeRM(ins *decode.Instruction, v uint16) {
	if ins.ModRM.Mode == decode.Register {
		if ins.Width == decode.Byte {
			mc.setReg8(reg8Field[ins.ModRM.RM], uint8(v))
		} else {
			mc.reg16ptr(reg16Field[ins.ModRM.RM]).Load(v)
		}
		return
	}

	mc.ensureEA(ins)
	if ins.Width == decode.Byte {
		mc.busWrite8(physical(mc.eaSeg, mc.eaOff), uint8(v))
	} else {
		mc.busWrite16(mc.eaSeg, mc.eaOff, v)
	}
}

// readOperand reads the operand described by op, widened to 16 bits.
func (mc *CPU) readOperand(ins *decode.Instruction, op decode.Operand) uint16 {
	switch op.Spec {
	case decode.SpecModRM:
		return mc.readRM(ins)
	case decode.SpecReg:
		if ins.Width == decode.Byte {
			return uint16(mc.reg8value(reg8Field[ins.ModRM.Reg]))
		}
		return mc.reg16ptr(reg16Field[ins.ModRM.Reg]).Value()
	case decode.SpecSegReg:
		return mc.reg16ptr(segRegField[ins.ModRM.Reg&0x03]).Value()
	case decode.SpecImm8, decode.SpecImm16, decode.SpecImm8S, decode.SpecRel8, decode.SpecRel16:
		return ins.Imm
	case decode.SpecOffset16:
		seg := mc.segmentValue(ins.SegmentOverride, decode.SegDS)
		if ins.Width == decode.Byte {
			return uint16(mc.busRead8(physical(seg, ins.Imm)))
		}
		return mc.busRead16(seg, ins.Imm)
	case decode.SpecFixedReg:
		return mc.regValue(op.Reg)
	case decode.SpecConst1:
		return 1
	}
	return 0
}

// writeOperand writes the operand described by op.
func (mc *CPU) writeOperand(ins *decode.Instruction, op decode.Operand, v uint16) {
	switch op.Spec {
	case decode.SpecModRM:
		mc.writeRM(ins, v)
	case decode.SpecReg:
		if ins.Width == decode.Byte {
			mc.setReg8(reg8Field[ins.ModRM.Reg], uint8(v))
		} else {
			mc.reg16ptr(reg16Field[ins.ModRM.Reg]).Load(v)
		}
	case decode.SpecSegReg:
		mc.reg16ptr(segRegField[ins.ModRM.Reg&0x03]).Load(v)
	case decode.SpecOffset16:
		seg := mc.segmentValue(ins.SegmentOverride, decode.SegDS)
		if ins.Width == decode.Byte {
			mc.busWrite8(physical(seg, ins.Imm), uint8(v))
		} else {
			mc.busWrite16(seg, ins.Imm, v)
		}
	case decode.SpecFixedReg:
		mc.setRegValue(op.Reg, v)
	}
}
