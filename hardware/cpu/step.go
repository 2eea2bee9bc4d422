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
	"github.com/jetsetilly/gopher88/hardware/bus"
	"github.com/jetsetilly/gopher88/hardware/cpu/decode"
	"github.com/jetsetilly/gopher88/hardware/cpu/execution"
	"github.com/jetsetilly/gopher88/hardware/cpu/registers"
)

// undefinedFlags returns the mask of FLAGS bits with architecturally
// undefined values after the instruction. The validator must exclude these
// bits from oracle comparison.
func undefinedFlags(ins *decode.Instruction) uint16 {
	switch ins.Defn.Mnemonic {
	case decode.MUL, decode.IMUL:
		return registers.FlagSign | registers.FlagZero | registers.FlagAuxCarry | registers.FlagParity
	case decode.DIV, decode.IDIV:
		return registers.FlagCarry | registers.FlagOverflow | registers.FlagSign |
			registers.FlagZero | registers.FlagAuxCarry | registers.FlagParity
	case decode.AND, decode.OR, decode.XOR, decode.TEST:
		return registers.FlagAuxCarry
	case decode.ROL, decode.ROR, decode.RCL, decode.RCR:
		return registers.FlagOverflow
	case decode.SHL, decode.SHR, decode.SAR, decode.SETMO, decode.SETMOC:
		return registers.FlagOverflow | registers.FlagAuxCarry
	case decode.AAM, decode.AAD:
		return registers.FlagCarry | registers.FlagOverflow | registers.FlagAuxCarry
	case decode.AAA, decode.AAS:
		return registers.FlagOverflow | registers.FlagSign | registers.FlagZero | registers.FlagParity
	case decode.DAA, decode.DAS:
		return registers.FlagOverflow
	}
	return 0
}

// Step the CPU by one instruction, or by one element of a repeated string
// instruction. Interrupt lines are sampled at the boundary before anything
// is decoded.
//
// With skipBreakpoint set, an execute breakpoint on the current address is
// ignored; the debugger passes true to step off a breakpoint it has already
// reported.
func (mc *CPU) Step(skipBreakpoint bool) error {
	if mc.IsError {
		return curated.Errorf(ExecutionError, mc.ErrorAddress, "bus fault")
	}

	if mc.checkInterrupts() {
		return nil
	}

	if mc.halted {
		if !mc.Flags.Interrupt {
			// only NMI can revive this state and none is latched
			return curated.Errorf(CPUHaltedError, physical(mc.CS.Value(), mc.IP()))
		}
		mc.cycle()
		return nil
	}

	addr := physical(mc.CS.Value(), mc.IP())
	if !skipBreakpoint && mc.mem.GetFlag(addr, bus.MaskBreakpointExec) {
		mc.LastResult.Reset()
		mc.LastResult.Address = addr
		mc.LastResult.CS = mc.CS.Value()
		mc.LastResult.IP = mc.IP()
		mc.LastResult.Status = execution.Breakpoint
		return nil
	}

	mc.instrCycles = 0
	mc.trace = mc.trace[:0]
	mc.tfAtStart = mc.Flags.Trap
	mc.eaValid = false

	var ins *decode.Instruction

	if mc.inRep {
		// re-enter the REP continuation without decoding. lastCS/lastIP
		// still name the prefixed instruction
		ins = mc.repIns
	} else {
		mc.lastCS = mc.CS.Value()
		mc.lastIP = mc.IP()
		mc.firstByte = true

		var err error
		ins, err = decode.Decode(mc)
		if err != nil {
			mc.IsError = true
			mc.ErrorAddress = addr
			return curated.Errorf(InstructionDecodeError, addr, err)
		}
		if mc.IsError {
			return curated.Errorf(ExecutionError, mc.ErrorAddress, "bus fault during fetch")
		}
	}

	mc.LastResult.Reset()
	mc.LastResult.Address = physical(mc.lastCS, mc.lastIP)
	mc.LastResult.CS = mc.lastCS
	mc.LastResult.IP = mc.lastIP
	mc.LastResult.Instruction = ins

	mc.vldt.BeginInstruction(mc.regs(), ins.Bytes)

	if err := mc.execute(ins); err != nil {
		mc.IsError = true
		mc.ErrorAddress = addr
		return curated.Errorf(ExecutionError, addr, err)
	}
	if mc.IsError {
		return curated.Errorf(ExecutionError, mc.ErrorAddress, "bus fault")
	}

	// the single-step trap fires when TF was set at the start of the
	// instruction. a pending NMI or maskable interrupt outranks it and
	// will be dispatched at the next boundary instead
	if mc.tfAtStart && mc.LastResult.Status != execution.Halt {
		if !mc.nmiPending && !(mc.Flags.Interrupt && mc.pic != nil && mc.pic.QueryInterruptLine()) {
			mc.singleStep()
		}
	}

	mc.LastResult.Cycles = mc.instrCycles
	mc.recordHistory(mc.LastResult)

	return mc.vldt.EndInstruction(mc.regs(), mc.trace, undefinedFlags(ins))
}
