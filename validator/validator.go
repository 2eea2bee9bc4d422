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

// Package validator defines the strategy interface for cycle-by-cycle
// validation of the CPU against an oracle. The CPU calls the validator at
// instruction boundaries with the register state before and after the
// instruction, the instruction bytes, and the recorded cycle trace.
//
// Flags that are architecturally undefined after an instruction are
// communicated through a mask; an oracle comparison must ignore the masked
// bits.
package validator

// Regs is a plain snapshot of the CPU register file.
type Regs struct {
	AX, BX, CX, DX uint16
	SP, BP, SI, DI uint16
	CS, DS, ES, SS uint16
	IP             uint16
	Flags          uint16
}

// CycleState is a snapshot of the virtual pins for a single CPU cycle.
type CycleState struct {
	// name of the T-state on the pins ("Ti", "T1", ...)
	TState string

	// address latch and ALE assertion for this cycle
	Addr uint32
	ALE  bool

	// S0-S2 bus status lines, encoded in the low three bits
	BusStatus uint8

	// value on the data bus, valid during T3/T4 of a transfer
	DataBus uint8

	// queue operation for this cycle (0 idle, 1 first, 2 subsequent,
	// 3 flush) and the byte read when the operation is first/subsequent
	QueueOp   uint8
	QueueByte uint8
}

// Validator is called at instruction boundaries. Implementations compare
// the recorded state against an oracle and return an error on divergence.
type Validator interface {
	// BeginInstruction is called after decode, before execution.
	BeginInstruction(regs Regs, instruction []uint8)

	// EndInstruction is called after the instruction has retired.
	// undefinedFlags is the mask of FLAGS bits with architecturally
	// undefined values; they must be excluded from comparison.
	EndInstruction(regs Regs, cycles []CycleState, undefinedFlags uint16) error
}

// Null is a validator that does nothing. Used when validation is not
// enabled.
type Null struct{}

// BeginInstruction implements the Validator interface.
func (v Null) BeginInstruction(_ Regs, _ []uint8) {
}

// EndInstruction implements the Validator interface.
func (v Null) EndInstruction(_ Regs, _ []CycleState, _ uint16) error {
	return nil
}
