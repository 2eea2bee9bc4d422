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
	"github.com/jetsetilly/gopher88/hardware/cpu/execution"
)

// interruptAt performs the interrupt sequence with an explicit return
// address: push FLAGS, clear IF and TF, push the return address, and jump
// through the vector table.
func (mc *CPU) interruptAt(vector int, retCS, retIP uint16) {
	mc.push16(mc.Flags.Value())
	mc.Flags.Interrupt = false
	mc.Flags.Trap = false
	mc.push16(retCS)
	mc.push16(retIP)

	// the vector table lives at the bottom of physical memory
	base := uint16(vector) * 4
	newIP := mc.busRead16(0, base)
	newCS := mc.busRead16(0, base+2)
	mc.jumpFar(newCS, newIP)
}

// interrupt performs the interrupt sequence returning to the instruction
// after the current one.
func (mc *CPU) interrupt(vector int) {
	mc.interruptAt(vector, mc.CS.Value(), mc.IP())
}

// divideError raises the type 0 exception. The pushed return address is the
// address of the faulting instruction, not the one after it, so the fault
// restarts on IRET.
func (mc *CPU) divideError(_ error) error {
	mc.interruptAt(VectorDivideError, mc.lastCS, mc.lastIP)
	mc.LastResult.Status = execution.Exception
	mc.LastResult.ExceptionVector = VectorDivideError
	return nil
}

// checkInterrupts arbitrates the interrupt lines at an instruction
// boundary. NMI wins over a maskable interrupt; the single-step trap is
// handled at the end of the instruction, not here. Returns true when an
// interrupt was dispatched.
func (mc *CPU) checkInterrupts() bool {
	vector := -1

	if mc.nmiPending {
		mc.nmiPending = false
		vector = VectorNMI
	} else if mc.Flags.Interrupt && mc.pic != nil && mc.pic.QueryInterruptLine() {
		vector = int(mc.pic.GetInterruptVector())
	}

	if vector < 0 {
		return false
	}

	mc.halted = false
	mc.instrCycles = 0

	// a REP continuation returns to the prefixed instruction so that the
	// remaining elements run after the handler
	retCS, retIP := mc.CS.Value(), mc.IP()
	if mc.inRep {
		retCS, retIP = mc.lastCS, mc.lastIP
		mc.inRep = false
		mc.repIns = nil
		mc.LastResult.Interrupted = true
		mc.recordHistory(mc.LastResult)
	}

	// interrupt acknowledge and internal preparation
	mc.cycles(10)
	mc.interruptAt(vector, retCS, retIP)

	return true
}

// singleStep dispatches the trap interrupt after an instruction that
// started with TF set. A REP continuation is abandoned the same way a
// hardware interrupt abandons it.
func (mc *CPU) singleStep() {
	retCS, retIP := mc.CS.Value(), mc.IP()
	if mc.inRep {
		retCS, retIP = mc.lastCS, mc.lastIP
		mc.inRep = false
		mc.repIns = nil
		mc.LastResult.Interrupted = true
	}
	mc.interruptAt(VectorSingleStep, retCS, retIP)
}
