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

package cpu_test

import (
	"testing"

	"github.com/jetsetilly/gopher88/curated"
	"github.com/jetsetilly/gopher88/hardware/bus"
	"github.com/jetsetilly/gopher88/hardware/cpu"
	"github.com/jetsetilly/gopher88/hardware/cpu/execution"
	"github.com/jetsetilly/gopher88/test"
)

// newTestCPU assembles a CPU around a fresh bus with the program placed at
// 0100:0000 and a stack at 0200:0100.
func newTestCPU(t *testing.T, program ...uint8) (*cpu.CPU, *bus.Bus) {
	t.Helper()

	mem := bus.NewBus()
	err := mem.CopyFrom(program, 0x01000, false)
	test.ExpectedSuccess(t, err)

	mc := cpu.NewCPU(mem)
	mc.Reset()
	mc.CS.Load(0x0100)
	mc.PC = 0
	mc.SS.Load(0x0200)
	mc.SP.Load(0x0100)

	return mc, mem
}

// setVector writes an interrupt vector table entry.
func setVector(t *testing.T, mem *bus.Bus, vector int, seg, off uint16) {
	t.Helper()

	addr := uint32(vector) * 4
	test.ExpectedSuccess(t, mem.Patch(addr, uint8(off)))
	test.ExpectedSuccess(t, mem.Patch(addr+1, uint8(off>>8)))
	test.ExpectedSuccess(t, mem.Patch(addr+2, uint8(seg)))
	test.ExpectedSuccess(t, mem.Patch(addr+3, uint8(seg>>8)))
}

func step(t *testing.T, mc *cpu.CPU) {
	t.Helper()
	test.ExpectedSuccess(t, mc.Step(false))
}

func TestReset(t *testing.T) {
	mem := bus.NewBus()
	mc := cpu.NewCPU(mem)
	mc.Reset()

	// the 8088 starts at FFFF:0000
	test.Equate(t, mc.CS.Value(), 0xffff)
	test.Equate(t, mc.IP(), 0x0000)
	test.Equate(t, mc.Halted(), false)
}

func TestMovAndAdd(t *testing.T) {
	mc, _ := newTestCPU(t,
		0xb8, 0x34, 0x12, // mov ax, 0x1234
		0xbb, 0x21, 0x43, // mov bx, 0x4321
		0x01, 0xd8, // add ax, bx
	)

	step(t, mc)
	test.Equate(t, mc.AX.Value(), 0x1234)
	test.Equate(t, mc.IP(), 0x0003)
	if mc.LastResult.Cycles == 0 {
		t.Errorf("instruction spent no cycles")
	}

	step(t, mc)
	step(t, mc)
	test.Equate(t, mc.AX.Value(), 0x5555)
	test.Equate(t, mc.Flags.Carry, false)
	test.Equate(t, mc.Flags.Zero, false)
	test.Equate(t, mc.Flags.Sign, false)
}

func TestAddFlags(t *testing.T) {
	mc, _ := newTestCPU(t,
		0xb8, 0xff, 0xff, // mov ax, 0xffff
		0x05, 0x01, 0x00, // add ax, 1
		0xb8, 0xff, 0x7f, // mov ax, 0x7fff
		0x05, 0x01, 0x00, // add ax, 1
	)

	step(t, mc)
	step(t, mc)
	test.Equate(t, mc.AX.Value(), 0x0000)
	test.Equate(t, mc.Flags.Carry, true)
	test.Equate(t, mc.Flags.Zero, true)

	step(t, mc)
	step(t, mc)
	test.Equate(t, mc.AX.Value(), 0x8000)
	test.Equate(t, mc.Flags.Overflow, true)
	test.Equate(t, mc.Flags.Sign, true)
	test.Equate(t, mc.Flags.Carry, false)
}

func TestMemoryOperand(t *testing.T) {
	mc, mem := newTestCPU(t,
		0xbb, 0x20, 0x00, // mov bx, 0x0020
		0xc7, 0x07, 0xcd, 0xab, // mov word [bx], 0xabcd
		0x8b, 0x0f, // mov cx, [bx]
	)
	mc.DS.Load(0x0100)

	step(t, mc)
	step(t, mc)
	step(t, mc)
	test.Equate(t, mc.CX.Value(), 0xabcd)

	v, err := mem.PeekU16(0x01020)
	test.ExpectedSuccess(t, err)
	test.Equate(t, v, 0xabcd)
}

func TestIMul(t *testing.T) {
	mc, _ := newTestCPU(t,
		0xb0, 0xfd, // mov al, -3
		0xb1, 0x02, // mov cl, 2
		0xf6, 0xe9, // imul cl
	)

	step(t, mc)
	step(t, mc)
	step(t, mc)
	test.Equate(t, mc.AX.Value(), 0xfffa) // -6
	test.Equate(t, mc.Flags.Carry, false)
	test.Equate(t, mc.Flags.Overflow, false)
}

func TestDivideByZero(t *testing.T) {
	mc, mem := newTestCPU(t,
		0xb3, 0x00, // mov bl, 0
		0xf6, 0xf3, // div bl
	)
	setVector(t, mem, 0, 0x0300, 0x0000)

	step(t, mc)
	step(t, mc)

	test.Equate(t, int(mc.LastResult.Status), int(execution.Exception))
	test.Equate(t, mc.LastResult.ExceptionVector, 0)

	// execution resumes at the handler
	test.Equate(t, mc.CS.Value(), 0x0300)
	test.Equate(t, mc.IP(), 0x0000)

	// the pushed return address names the divide instruction itself so
	// that it restarts on IRET
	test.Equate(t, mc.SP.Value(), 0x00fa)
	retIP, err := mem.PeekU16(0x02000 + 0x00fa)
	test.ExpectedSuccess(t, err)
	test.Equate(t, retIP, 0x0002)
	retCS, err := mem.PeekU16(0x02000 + 0x00fc)
	test.ExpectedSuccess(t, err)
	test.Equate(t, retCS, 0x0100)
}

func TestRepMovs(t *testing.T) {
	mc, mem := newTestCPU(t,
		0xf3, 0xa4, // rep movsb
	)
	src := []uint8{0x11, 0x22, 0x33, 0x44, 0x55}
	test.ExpectedSuccess(t, mem.CopyFrom(src, 0x03000, false))

	mc.DS.Load(0x0300)
	mc.ES.Load(0x0400)
	mc.SI.Load(0x0000)
	mc.DI.Load(0x0000)
	mc.CX.Load(5)

	// one element per step; the final element completes the instruction
	for i := 0; i < 4; i++ {
		step(t, mc)
		test.Equate(t, int(mc.LastResult.Status), int(execution.OkayRep))
	}
	step(t, mc)
	test.Equate(t, int(mc.LastResult.Status), int(execution.Okay))

	test.Equate(t, mc.CX.Value(), 0x0000)
	test.Equate(t, mc.SI.Value(), 0x0005)
	test.Equate(t, mc.DI.Value(), 0x0005)

	for i, want := range src {
		v, err := mem.PeekU8(0x04000 + uint32(i))
		test.ExpectedSuccess(t, err)
		test.Equate(t, v, want)
	}
}

func TestRepInterruptedByNMI(t *testing.T) {
	mc, mem := newTestCPU(t,
		0xf3, 0xa4, // rep movsb
	)
	setVector(t, mem, 2, 0x0500, 0x0010)

	mc.DS.Load(0x0300)
	mc.ES.Load(0x0400)
	mc.CX.Load(3)

	step(t, mc)
	test.Equate(t, int(mc.LastResult.Status), int(execution.OkayRep))

	mc.RaiseNMI()
	step(t, mc)

	// dispatched to the NMI handler with the return address naming the
	// prefixed instruction so the remaining elements run on IRET
	test.Equate(t, mc.CS.Value(), 0x0500)
	test.Equate(t, mc.IP(), 0x0010)

	retIP, err := mem.PeekU16(0x02000 + uint32(mc.SP.Value()))
	test.ExpectedSuccess(t, err)
	test.Equate(t, retIP, 0x0000)
}

func TestJumpFlushesQueue(t *testing.T) {
	mc, _ := newTestCPU(t,
		0xeb, 0x02, // jmp +2
		0x90, 0x90, // skipped
		0xb8, 0x01, 0x00, // mov ax, 1
	)

	step(t, mc)
	test.Equate(t, int(mc.LastResult.Status), int(execution.OkayJump))
	test.Equate(t, mc.IP(), 0x0004)

	step(t, mc)
	test.Equate(t, mc.AX.Value(), 0x0001)
}

func TestPushSP(t *testing.T) {
	mc, mem := newTestCPU(t,
		0x54, // push sp
	)

	step(t, mc)

	// the 8088 pushes the already decremented value
	test.Equate(t, mc.SP.Value(), 0x00fe)
	v, err := mem.PeekU16(0x02000 + 0x00fe)
	test.ExpectedSuccess(t, err)
	test.Equate(t, v, 0x00fe)
}

func TestHalt(t *testing.T) {
	mc, mem := newTestCPU(t,
		0xf4, // hlt
	)
	setVector(t, mem, 2, 0x0500, 0x0000)

	step(t, mc)
	test.Equate(t, int(mc.LastResult.Status), int(execution.Halt))
	test.Equate(t, mc.Halted(), true)

	// interrupts are disabled so stepping again reports the dead state
	err := mc.Step(false)
	test.ExpectedFailure(t, err)
	test.ExpectedSuccess(t, curated.Is(err, cpu.CPUHaltedError))

	// NMI revives the halt regardless of the interrupt flag
	mc.RaiseNMI()
	step(t, mc)
	test.Equate(t, mc.Halted(), false)
	test.Equate(t, mc.CS.Value(), 0x0500)
}

func TestSingleStepTrap(t *testing.T) {
	mc, mem := newTestCPU(t,
		0xb8, 0x34, 0x12, // mov ax, 0x1234
	)
	setVector(t, mem, 1, 0x0600, 0x0000)
	mc.Flags.Trap = true

	step(t, mc)

	// the instruction completes before the trap fires
	test.Equate(t, mc.AX.Value(), 0x1234)
	test.Equate(t, mc.CS.Value(), 0x0600)
	test.Equate(t, mc.IP(), 0x0000)

	// dispatch cleared TF so the handler is not itself trapped
	test.Equate(t, mc.Flags.Trap, false)

	retIP, err := mem.PeekU16(0x02000 + uint32(mc.SP.Value()))
	test.ExpectedSuccess(t, err)
	test.Equate(t, retIP, 0x0003)
}

func TestIntIret(t *testing.T) {
	mc, mem := newTestCPU(t,
		0xcd, 0x21, // int 0x21
		0xb8, 0x01, 0x00, // mov ax, 1
	)

	// handler at 0700:0000 is a lone iret
	test.ExpectedSuccess(t, mem.CopyFrom([]uint8{0xcf}, 0x07000, false))
	setVector(t, mem, 0x21, 0x0700, 0x0000)

	step(t, mc)
	test.Equate(t, mc.CS.Value(), 0x0700)
	test.Equate(t, mc.IP(), 0x0000)

	step(t, mc) // iret
	test.Equate(t, mc.CS.Value(), 0x0100)
	test.Equate(t, mc.IP(), 0x0002)
	test.Equate(t, mc.SP.Value(), 0x0100)

	step(t, mc)
	test.Equate(t, mc.AX.Value(), 0x0001)
}

func TestCallRet(t *testing.T) {
	mc, _ := newTestCPU(t,
		0xe8, 0x03, 0x00, // call +3
		0xb8, 0x01, 0x00, // mov ax, 1 (after return)
		0xbb, 0x02, 0x00, // mov bx, 2 (the subroutine)
		0xc3, // ret
	)

	step(t, mc) // call
	test.Equate(t, mc.IP(), 0x0006)

	step(t, mc) // mov bx, 2
	test.Equate(t, mc.BX.Value(), 0x0002)

	step(t, mc) // ret
	test.Equate(t, mc.IP(), 0x0003)
	test.Equate(t, mc.SP.Value(), 0x0100)

	step(t, mc)
	test.Equate(t, mc.AX.Value(), 0x0001)
}

func TestLoop(t *testing.T) {
	mc, _ := newTestCPU(t,
		0xb9, 0x03, 0x00, // mov cx, 3
		0xb8, 0x00, 0x00, // mov ax, 0
		0x40,       // inc ax
		0xe2, 0xfd, // loop -3
	)

	step(t, mc)
	step(t, mc)
	for mc.IP() != 0x0009 {
		step(t, mc)
	}
	test.Equate(t, mc.AX.Value(), 0x0003)
	test.Equate(t, mc.CX.Value(), 0x0000)
}

func TestHistory(t *testing.T) {
	mc, _ := newTestCPU(t,
		0xb8, 0x01, 0x00, // mov ax, 1
		0xbb, 0x02, 0x00, // mov bx, 2
		0x90, // nop
	)

	step(t, mc)
	step(t, mc)
	step(t, mc)

	h := mc.History(2)
	test.Equate(t, len(h), 2)
	test.Equate(t, h[0].IP, 0x0003)
	test.Equate(t, h[1].IP, 0x0006)
}

func TestSetmoCountForms(t *testing.T) {
	mc, _ := newTestCPU(t,
		0xb3, 0x12, // mov bl, 0x12
		0xb1, 0x00, // mov cl, 0
		0xf9,       // stc
		0xd2, 0xf3, // undocumented /6 of the shift group, CL count
		0xb1, 0x01, // mov cl, 1
		0xd2, 0xf3,
	)

	step(t, mc)
	step(t, mc)
	step(t, mc)
	step(t, mc)

	// a zero count leaves the operand and the flags untouched
	test.Equate(t, mc.BX.Lo(), 0x12)
	test.Equate(t, mc.Flags.Carry, true)

	step(t, mc)
	step(t, mc)

	test.Equate(t, mc.BX.Lo(), 0xff)
	test.Equate(t, mc.Flags.Carry, false)
}
