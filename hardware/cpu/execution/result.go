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

// Package execution tracks the result of instruction execution on the CPU.
// Useful for the history ring, the validator and the monitor.
package execution

import (
	"fmt"

	"github.com/jetsetilly/gopher88/hardware/cpu/decode"
)

// Status describes how an instruction ended.
type Status int

// List of execution statuses.
const (
	// instruction completed normally; IP advanced by instruction size
	Okay Status = iota

	// instruction altered the flow of the program and flushed the queue
	OkayJump

	// one iteration of a repeated string instruction completed and the
	// instruction will resume on the next step
	OkayRep

	// the CPU entered the halt state
	Halt

	// an architectural exception was raised and converted to an interrupt
	Exception

	// a breakpoint was hit before the instruction executed
	Breakpoint
)

func (s Status) String() string {
	switch s {
	case Okay:
		return "ok"
	case OkayJump:
		return "jump"
	case OkayRep:
		return "rep"
	case Halt:
		return "halt"
	case Exception:
		return "exception"
	case Breakpoint:
		return "breakpoint"
	}
	return "unknown"
}

// Result records the execution of one instruction.
type Result struct {
	// linear address the instruction was fetched from
	Address uint32

	// the CS:IP pair the address was formed from
	CS uint16
	IP uint16

	Instruction *decode.Instruction

	// number of cycles spent on the instruction, waits included
	Cycles int

	Status Status

	// vector number when Status is Exception
	ExceptionVector int

	// whether the instruction was interrupted between REP iterations
	Interrupted bool
}

// Reset the result to a neutral state.
func (r *Result) Reset() {
	*r = Result{}
}

func (r Result) String() string {
	if r.Instruction == nil {
		return "no instruction"
	}
	return fmt.Sprintf("%04x:%04x %v (%d cycles, %v)", r.CS, r.IP, r.Instruction, r.Cycles, r.Status)
}
