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
	"github.com/jetsetilly/gopher88/hardware/cpu/execution"
)

// stringDelta is the per-element adjustment of SI and DI: plus or minus one
// or two, by the width and the direction flag.
func (mc *CPU) stringDelta(w decode.Width) int16 {
	d := int16(1)
	if w == decode.Word {
		d = 2
	}
	if mc.Flags.Direction {
		d = -d
	}
	return d
}

// stringIteration runs a single element of a string instruction. A segment
// override applies to the SI side only; the DI side is always ES.
func (mc *CPU) stringIteration(ins *decode.Instruction) {
	srcSeg := mc.segmentValue(ins.SegmentOverride, decode.SegDS)
	delta := mc.stringDelta(ins.Width)

	switch ins.Defn.Mnemonic {
	case decode.MOVS:
		if ins.Width == decode.Byte {
			v := mc.busRead8(physical(srcSeg, mc.SI.Value()))
			mc.busWrite8(physical(mc.ES.Value(), mc.DI.Value()), v)
		} else {
			v := mc.busRead16(srcSeg, mc.SI.Value())
			mc.busWrite16(mc.ES.Value(), mc.DI.Value(), v)
		}
		mc.SI.Incr(delta)
		mc.DI.Incr(delta)
		mc.cycles(6)

	case decode.CMPS:
		var a, b uint16
		if ins.Width == decode.Byte {
			a = uint16(mc.busRead8(physical(srcSeg, mc.SI.Value())))
			b = uint16(mc.busRead8(physical(mc.ES.Value(), mc.DI.Value())))
		} else {
			a = mc.busRead16(srcSeg, mc.SI.Value())
			b = mc.busRead16(mc.ES.Value(), mc.DI.Value())
		}
		mc.mathOp(ins.Width, decode.XiCMP, a, b)
		mc.SI.Incr(delta)
		mc.DI.Incr(delta)
		mc.cycles(8)

	case decode.STOS:
		if ins.Width == decode.Byte {
			mc.busWrite8(physical(mc.ES.Value(), mc.DI.Value()), mc.AX.Lo())
		} else {
			mc.busWrite16(mc.ES.Value(), mc.DI.Value(), mc.AX.Value())
		}
		mc.DI.Incr(delta)
		mc.cycles(4)

	case decode.LODS:
		if ins.Width == decode.Byte {
			mc.AX.SetLo(mc.busRead8(physical(srcSeg, mc.SI.Value())))
		} else {
			mc.AX.Load(mc.busRead16(srcSeg, mc.SI.Value()))
		}
		mc.SI.Incr(delta)
		mc.cycles(5)

	case decode.SCAS:
		var b uint16
		if ins.Width == decode.Byte {
			b = uint16(mc.busRead8(physical(mc.ES.Value(), mc.DI.Value())))
			mc.mathOp(ins.Width, decode.XiCMP, uint16(mc.AX.Lo()), b)
		} else {
			b = mc.busRead16(mc.ES.Value(), mc.DI.Value())
			mc.mathOp(ins.Width, decode.XiCMP, mc.AX.Value(), b)
		}
		mc.DI.Incr(delta)
		mc.cycles(7)
	}
}

// repTerminates returns true when a REP-prefixed CMPS or SCAS must stop
// because of the zero flag.
func (mc *CPU) repTerminates(ins *decode.Instruction) bool {
	switch ins.Defn.Mnemonic {
	case decode.CMPS, decode.SCAS:
		if ins.Rep == decode.Rep {
			return !mc.Flags.Zero
		}
		return mc.Flags.Zero
	}
	return false
}

// executeString runs a string instruction. An unprefixed instruction runs a
// single element. A REP-prefixed instruction runs one element per step so
// that hardware interrupts can be taken between elements; the continuation
// is re-entered by the step loop without decoding.
func (mc *CPU) executeString(ins *decode.Instruction) error {
	if ins.Rep == decode.RepNone {
		mc.stringIteration(ins)
		return nil
	}

	// a REP with CX already zero does nothing but spend the test cycles
	if mc.CX.IsZero() {
		mc.inRep = false
		mc.repIns = nil
		mc.cycles(2)
		return nil
	}

	mc.stringIteration(ins)
	mc.CX.Incr(-1)
	mc.cycles(3)

	if mc.CX.IsZero() || mc.repTerminates(ins) {
		mc.inRep = false
		mc.repIns = nil
		return nil
	}

	mc.inRep = true
	mc.repIns = ins
	mc.LastResult.Status = execution.OkayRep
	return nil
}
