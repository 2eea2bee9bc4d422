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
	"github.com/jetsetilly/gopher88/logger"
	"github.com/jetsetilly/gopher88/validator"
)

// TState is the bus interface unit clock state.
type TState int

// List of T-states. Ti is the idle state between bus cycles; Tw is a wait
// state inserted between T3 and T4.
const (
	Ti TState = iota
	T1
	T2
	T3
	T4
	Tw
)

func (t TState) String() string {
	switch t {
	case Ti:
		return "Ti"
	case T1:
		return "T1"
	case T2:
		return "T2"
	case T3:
		return "T3"
	case T4:
		return "T4"
	case Tw:
		return "Tw"
	}
	return "??"
}

// busOpKind is the type of bus cycle in flight.
type busOpKind int

const (
	busNone busOpKind = iota
	busFetch
	busRead
	busWrite
	busIORead
	busIOWrite
)

// S0-S2 status line encoding for each bus operation.
func (k busOpKind) status() uint8 {
	switch k {
	case busFetch:
		return 0x4
	case busRead:
		return 0x5
	case busWrite:
		return 0x6
	case busIORead:
		return 0x1
	case busIOWrite:
		return 0x2
	}
	return 0x7
}

// cycle advances the CPU by one clock cycle. Everything that happens in the
// emulated machine happens because of a call to this function: the bus state
// machine moves, the validator trace is appended to, and the devices are
// ticked.
func (mc *CPU) cycle() {
	if mc.capturing {
		mc.trace = append(mc.trace, validator.CycleState{
			TState:    mc.tstate.String(),
			Addr:      mc.busAddr,
			ALE:       mc.tstate == T1,
			BusStatus: mc.busOp.status(),
			DataBus:   mc.busData,
			QueueOp:   uint8(mc.queue.op),
			QueueByte: mc.queue.opByte,
		})
	}
	mc.queue.op = QueueIdle
	mc.queue.opByte = 0

	mc.CycleTotal++
	mc.instrCycles++

	if mc.TickDevices != nil {
		mc.TickDevices()
	}

	// advance the T-state machine
	switch mc.tstate {
	case Ti:
		if mc.busOp != busNone {
			mc.tstate = T1
		}
	case T1:
		mc.tstate = T2
	case T2:
		mc.tstate = T3
	case T3, Tw:
		if mc.busWait > 0 {
			mc.busWait--
			mc.tstate = Tw
		} else {
			mc.tstate = T4
		}
	case T4:
		mc.completeBusOp()
		mc.tstate = Ti
	}

	// an idle bus with room in the queue means the BIU prefetches. EU
	// requests have priority and suppress new prefetches
	if mc.tstate == Ti && mc.busOp == busNone && !mc.euPending && !mc.queue.full() && !mc.halted {
		mc.startFetch()
	}
}

// cycles spends n clock cycles.
func (mc *CPU) cycles(n int) {
	for i := 0; i < n; i++ {
		mc.cycle()
	}
}

// startFetch initiates a code fetch bus cycle. The transfer itself is
// performed up front so the wait-state count is known; the T-states that
// follow pace the clock.
func (mc *CPU) startFetch() {
	addr := physical(mc.CS.Value(), mc.PC)
	v, wait, err := mc.mem.ReadU8(addr, mc.instrCycles)
	if err != nil {
		mc.busError(addr, err)
		return
	}
	mc.busOp = busFetch
	mc.busAddr = addr
	mc.busData = v
	mc.busWait = wait
}

// completeBusOp runs at T4. The only deferred work is the prefetch byte
// entering the queue; EU transfers were performed when the cycle was
// initiated.
func (mc *CPU) completeBusOp() {
	if mc.busOp == busFetch {
		mc.queue.push(mc.busData)
		mc.PC++
	}
	mc.busOp = busNone
}

// flushQueue empties the prefetch queue and aborts any code fetch in
// flight. Every transfer of control ends here.
func (mc *CPU) flushQueue(newPC uint16) {
	mc.PC = newPC
	mc.queue.flush()
	if mc.busOp == busFetch {
		mc.busOp = busNone
		mc.busWait = 0
		mc.tstate = Ti
	}
}

// drainBus waits for an in-flight prefetch to complete before an EU bus
// request is granted.
func (mc *CPU) drainBus() {
	mc.euPending = true
	for mc.busOp != busNone && !mc.IsError {
		mc.cycle()
	}
}

// runBusCycle paces a transfer that has already been performed: four
// T-states plus waits.
func (mc *CPU) runBusCycle(kind busOpKind, addr uint32, data uint8, wait int) {
	mc.busOp = kind
	mc.busAddr = addr
	mc.busData = data
	mc.busWait = wait
	for mc.busOp != busNone && !mc.IsError {
		mc.cycle()
	}
	mc.euPending = false
}

// busRead8 reads a byte from the given physical address, spending the bus
// cycles as it goes.
func (mc *CPU) busRead8(addr uint32) uint8 {
	mc.drainBus()
	if mc.IsError {
		return 0
	}
	v, wait, err := mc.mem.ReadU8(addr, mc.instrCycles)
	if err != nil {
		mc.busError(addr, err)
		return 0
	}
	mc.runBusCycle(busRead, addr, v, wait)
	return v
}

// busWrite8 writes a byte to the given physical address, spending the bus
// cycles as it goes.
func (mc *CPU) busWrite8(addr uint32, data uint8) {
	mc.drainBus()
	if mc.IsError {
		return
	}
	wait, err := mc.mem.WriteU8(addr, data, mc.instrCycles)
	if err != nil {
		mc.busError(addr, err)
		return
	}
	mc.runBusCycle(busWrite, addr, data, wait)
}

// busRead16 reads a word as two byte transfers. The offset wraps within the
// segment, the physical address is formed per byte.
func (mc *CPU) busRead16(seg, off uint16) uint16 {
	lo := mc.busRead8(physical(seg, off))
	hi := mc.busRead8(physical(seg, off+1))
	return uint16(hi)<<8 | uint16(lo)
}

// busWrite16 writes a word as two byte transfers.
func (mc *CPU) busWrite16(seg, off uint16, data uint16) {
	mc.busWrite8(physical(seg, off), uint8(data))
	mc.busWrite8(physical(seg, off+1), uint8(data>>8))
}

// busIORead8 reads a byte from the IO address space.
func (mc *CPU) busIORead8(port uint16) uint8 {
	mc.drainBus()
	if mc.IsError {
		return 0xff
	}
	v, wait := mc.mem.IORead8(port, mc.instrCycles)
	mc.runBusCycle(busIORead, uint32(port), v, wait)
	return v
}

// busIOWrite8 writes a byte to the IO address space.
func (mc *CPU) busIOWrite8(port uint16, data uint8) {
	mc.drainBus()
	if mc.IsError {
		return
	}
	wait := mc.mem.IOWrite8(port, data, mc.instrCycles)
	mc.runBusCycle(busIOWrite, uint32(port), data, wait)
}

// busIORead16 reads a word from consecutive IO ports.
func (mc *CPU) busIORead16(port uint16) uint16 {
	lo := mc.busIORead8(port)
	hi := mc.busIORead8(port + 1)
	return uint16(hi)<<8 | uint16(lo)
}

// busIOWrite16 writes a word to consecutive IO ports.
func (mc *CPU) busIOWrite16(port uint16, data uint16) {
	mc.busIOWrite8(port, uint8(data))
	mc.busIOWrite8(port+1, uint8(data>>8))
}

// NextByte implements the decode.ByteReader interface. If the queue is
// empty the CPU idles until the pending fetch delivers.
func (mc *CPU) NextByte() uint8 {
	for mc.queue.len == 0 {
		if mc.IsError {
			return 0
		}
		if mc.busOp == busNone && mc.tstate == Ti {
			mc.startFetch()
		}
		mc.cycle()
	}

	b := mc.queue.pop(mc.firstByte)
	mc.firstByte = false
	return b
}

// busError records an emulator-internal bus fault and stops the step loop.
func (mc *CPU) busError(addr uint32, err error) {
	mc.IsError = true
	mc.ErrorAddress = addr
	logger.Logf("cpu", "bus error: %v", err)
}
