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

// Package cpu implements the Intel 8088. The bus interface unit (biu.go)
// owns the prefetch queue and the T-state machine; the execution unit
// (execute.go and friends) runs decoded instructions with microcode-derived
// cycle pacing; the step loop (step.go) arbitrates interrupts at
// instruction boundaries.
package cpu

import (
	"fmt"

	"github.com/jetsetilly/gopher88/hardware/bus"
	"github.com/jetsetilly/gopher88/hardware/cpu/decode"
	"github.com/jetsetilly/gopher88/hardware/cpu/execution"
	"github.com/jetsetilly/gopher88/hardware/cpu/microcode"
	"github.com/jetsetilly/gopher88/hardware/cpu/registers"
	"github.com/jetsetilly/gopher88/validator"
)

// Error patterns for the cpu package.
const (
	InstructionDecodeError    = "cpu: instruction decode error at %06x: %v"
	ExecutionError            = "cpu: execution error at %06x: %v"
	CPUHaltedError            = "cpu: halted with interrupts disabled at %06x"
	UnhandledInstructionError = "cpu: unhandled instruction at %06x: %v"
)

// Architectural interrupt vectors.
const (
	VectorDivideError = 0
	VectorSingleStep  = 1
	VectorNMI         = 2
	VectorBreakpoint  = 3
	VectorOverflow    = 4
)

// InterruptController is the face of the PIC as seen by the CPU. The step
// loop only ever asks whether a line is pending and, if so, for the vector.
type InterruptController interface {
	QueryInterruptLine() bool
	GetInterruptVector() uint8
}

// number of entries in the execution history ring
const historySize = 4096

// CPU implements the Intel 8088.
type CPU struct {
	AX registers.Register
	BX registers.Register
	CX registers.Register
	DX registers.Register
	SP registers.Register
	BP registers.Register
	SI registers.Register
	DI registers.Register

	CS registers.Register
	DS registers.Register
	ES registers.Register
	SS registers.Register

	// PC is the address of the next code fetch. the architectural IP is
	// derived: IP = PC - queue length
	PC uint16

	Flags registers.Flags

	mem *bus.Bus
	pic InterruptController

	// TickDevices is called once for every CPU cycle. the machine installs
	// a function here that advances the device clock
	TickDevices func()

	// prefetch queue and bus state machine
	queue   prefetchQueue
	tstate  TState
	busOp   busOpKind
	busAddr uint32
	busData uint8
	busWait int

	// euPending blocks new prefetches while the execution unit is waiting
	// for the bus. EU requests take priority over prefetch
	euPending bool

	// set while fetching the first byte of a new instruction so the queue
	// can tag its operation correctly
	firstByte bool

	// halt state. a halt with interrupts disabled cannot be revived except
	// by NMI
	halted bool

	// REP continuation. when inRep is true the next step resumes repIns
	// without decoding
	inRep  bool
	repIns *decode.Instruction

	// edge-latched NMI line
	nmiPending bool

	// trap flag state sampled at the start of the instruction
	tfAtStart bool

	// segment and offset of the last computed effective address. certain
	// illegal register-form LES/LDS encodings reuse this stale value
	lastEASeg uint16
	lastEAOff uint16

	// cached operand state for the current instruction
	eaSeg   uint16
	eaOff   uint16
	eaValid bool

	// CS:IP of the current instruction. pushed on interrupt dispatch when
	// a REP instruction is interrupted
	lastCS uint16
	lastIP uint16

	// cycle accounting
	CycleTotal  uint64
	instrCycles int

	// validator hook and per-cycle state capture. capture is skipped when
	// the validator is the Null validator
	vldt      validator.Validator
	capturing bool
	trace     []validator.CycleState

	// LastResult is the execution result of the most recent instruction
	LastResult execution.Result

	// bounded history of execution results
	history    [historySize]execution.Result
	historyIdx int
	historyLen int

	// IsError is set when an emulator-internal error has stopped the step
	// loop. the faulting address is in ErrorAddress
	IsError      bool
	ErrorAddress uint32
}

// NewCPU is the preferred method of initialisation for the CPU type.
func NewCPU(mem *bus.Bus) *CPU {
	mc := &CPU{
		mem:  mem,
		AX:   registers.NewRegister(0, "AX"),
		BX:   registers.NewRegister(0, "BX"),
		CX:   registers.NewRegister(0, "CX"),
		DX:   registers.NewRegister(0, "DX"),
		SP:   registers.NewRegister(0, "SP"),
		BP:   registers.NewRegister(0, "BP"),
		SI:   registers.NewRegister(0, "SI"),
		DI:   registers.NewRegister(0, "DI"),
		CS:   registers.NewRegister(0, "CS"),
		DS:   registers.NewRegister(0, "DS"),
		ES:   registers.NewRegister(0, "ES"),
		SS:   registers.NewRegister(0, "SS"),
		vldt: validator.Null{},
	}
	mc.Flags.Reset()
	return mc
}

// AttachPIC gives the CPU its interrupt controller. The CPU borrows it
// during step_finish only.
func (mc *CPU) AttachPIC(pic InterruptController) {
	mc.pic = pic
}

// AttachValidator installs a validation strategy. Passing validator.Null{}
// disables cycle capture.
func (mc *CPU) AttachValidator(v validator.Validator) {
	mc.vldt = v
	_, isNull := v.(validator.Null)
	mc.capturing = !isNull
}

// Reset the CPU to the power-on state. The 8088 starts execution at
// FFFF:0000.
func (mc *CPU) Reset() {
	mc.AX.Load(0)
	mc.BX.Load(0)
	mc.CX.Load(0)
	mc.DX.Load(0)
	mc.SP.Load(0)
	mc.BP.Load(0)
	mc.SI.Load(0)
	mc.DI.Load(0)
	mc.CS.Load(0xffff)
	mc.DS.Load(0)
	mc.ES.Load(0)
	mc.SS.Load(0)
	mc.PC = 0
	mc.Flags.Reset()

	mc.queue.flush()
	mc.tstate = Ti
	mc.busOp = busNone
	mc.busWait = 0
	mc.halted = false
	mc.inRep = false
	mc.repIns = nil
	mc.nmiPending = false
	mc.IsError = false
	mc.LastResult.Reset()
	mc.historyIdx = 0
	mc.historyLen = 0
}

func (mc *CPU) String() string {
	return fmt.Sprintf("%v %v %v %v %v %v %v %v  %v %v %v %v  IP=%04x %v",
		mc.AX, mc.BX, mc.CX, mc.DX, mc.SP, mc.BP, mc.SI, mc.DI,
		mc.CS, mc.DS, mc.ES, mc.SS, mc.IP(), mc.Flags)
}

// IP returns the architectural instruction pointer, derived from the fetch
// address and the prefetch queue length.
func (mc *CPU) IP() uint16 {
	return mc.PC - uint16(mc.queue.len)
}

// Halted returns true if the CPU is in the halt state.
func (mc *CPU) Halted() bool {
	return mc.halted
}

// RaiseNMI latches the non-maskable interrupt line. Sampled at the next
// instruction boundary.
func (mc *CPU) RaiseNMI() {
	mc.nmiPending = true
}

// physical forms a 20 bit address from a segment and an offset.
func physical(seg, off uint16) uint32 {
	return (uint32(seg)<<4 + uint32(off)) & 0xfffff
}

// regs snapshots the register file for the validator.
func (mc *CPU) regs() validator.Regs {
	return validator.Regs{
		AX: mc.AX.Value(), BX: mc.BX.Value(), CX: mc.CX.Value(), DX: mc.DX.Value(),
		SP: mc.SP.Value(), BP: mc.BP.Value(), SI: mc.SI.Value(), DI: mc.DI.Value(),
		CS: mc.CS.Value(), DS: mc.DS.Value(), ES: mc.ES.Value(), SS: mc.SS.Value(),
		IP: mc.IP(), Flags: mc.Flags.Value(),
	}
}

// History returns the most recent entries of the execution history ring,
// oldest first.
func (mc *CPU) History(n int) []execution.Result {
	if n > mc.historyLen {
		n = mc.historyLen
	}

	r := make([]execution.Result, 0, n)
	for i := 0; i < n; i++ {
		idx := (mc.historyIdx - n + i + historySize) % historySize
		r = append(r, mc.history[idx])
	}
	return r
}

func (mc *CPU) recordHistory(res execution.Result) {
	// reentrant REP iterations that were not interrupted do not clutter
	// the history
	if res.Status == execution.OkayRep && !res.Interrupted {
		return
	}

	mc.history[mc.historyIdx] = res
	mc.historyIdx = (mc.historyIdx + 1) % historySize
	if mc.historyLen < historySize {
		mc.historyLen++
	}
}

// Cycle implements the microcode.Sequencer interface. One cycle is spent
// for the microcode row.
func (mc *CPU) Cycle(_ microcode.Addr) {
	mc.cycle()
}

// SetCarry implements the microcode.Sequencer interface.
func (mc *CPU) SetCarry(v bool) {
	mc.Flags.Carry = v
}

// SetOverflow implements the microcode.Sequencer interface.
func (mc *CPU) SetOverflow(v bool) {
	mc.Flags.Overflow = v
}

// SetAuxCarry implements the microcode.Sequencer interface.
func (mc *CPU) SetAuxCarry(v bool) {
	mc.Flags.AuxCarry = v
}

// SetSZP8 implements the microcode.Sequencer interface.
func (mc *CPU) SetSZP8(result uint8) {
	mc.szp8(result)
}

// SetSZP16 implements the microcode.Sequencer interface.
func (mc *CPU) SetSZP16(result uint16) {
	mc.szp16(result)
}
