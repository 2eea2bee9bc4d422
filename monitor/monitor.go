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

// Package monitor is the machine-level debugger: a plain terminal REPL with
// single stepping, breakpoints, memory dumps and a graphviz dump of the
// whole machine state.
package monitor

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/bradleyjkemp/memviz"
	"github.com/pkg/term/termios"
	"golang.org/x/sys/unix"

	"github.com/jetsetilly/gopher88/curated"
	"github.com/jetsetilly/gopher88/hardware"
	"github.com/jetsetilly/gopher88/hardware/bus"
	"github.com/jetsetilly/gopher88/hardware/cpu"
	"github.com/jetsetilly/gopher88/hardware/cpu/execution"
)

// Error patterns for the monitor package.
const (
	MonitorError   = "monitor: %v"
	UnknownCommand = "monitor: unknown command: %s"
)

// Monitor is an interactive debugging session attached to a machine.
type Monitor struct {
	pc *hardware.PC

	input  *os.File
	output *os.File

	canAttr    unix.Termios
	cbreakAttr unix.Termios

	// keypresses read while the machine is running freely
	keys chan byte

	running bool
}

// NewMonitor is the preferred method of initialisation for the Monitor
// type.
func NewMonitor(pc *hardware.PC) (*Monitor, error) {
	m := &Monitor{
		pc:     pc,
		input:  os.Stdin,
		output: os.Stdout,
		keys:   make(chan byte, 8),
	}

	if err := termios.Tcgetattr(m.input.Fd(), &m.canAttr); err != nil {
		return nil, curated.Errorf(MonitorError, err)
	}
	m.cbreakAttr = m.canAttr
	termios.Cfmakecbreak(&m.cbreakAttr)

	return m, nil
}

func (m *Monitor) print(s string, a ...interface{}) {
	fmt.Fprintf(m.output, s, a...)
}

// Run the monitor REPL until quit.
func (m *Monitor) Run() error {
	m.print("%v\n", m.pc.CPU)

	scanner := bufio.NewScanner(m.input)
	last := ""

	for {
		m.print("[%04x:%04x] > ", m.pc.CPU.CS.Value(), m.pc.CPU.IP())

		if !scanner.Scan() {
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			line = last
		}
		last = line

		quit, err := m.command(line)
		if err != nil {
			m.print("%v\n", err)
		}
		if quit {
			return nil
		}
	}
}

func (m *Monitor) command(line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}

	switch strings.ToLower(fields[0]) {
	case "q", "quit":
		return true, nil

	case "s", "step":
		n := 1
		if len(fields) > 1 {
			var err error
			n, err = strconv.Atoi(fields[1])
			if err != nil {
				return false, curated.Errorf(MonitorError, err)
			}
		}
		return false, m.step(n)

	case "r", "run":
		return false, m.run()

	case "regs":
		m.print("%v\n", m.pc.CPU)

	case "b", "break":
		if len(fields) < 2 {
			return false, curated.Errorf(MonitorError, "break requires an address")
		}
		addr, err := parseAddress(fields[1])
		if err != nil {
			return false, err
		}
		if m.pc.Mem.GetFlag(addr, bus.MaskBreakpointExec) {
			m.pc.Mem.ClearFlag(addr, bus.MaskBreakpointExec)
			m.print("breakpoint cleared at %05x\n", addr)
		} else {
			m.pc.Mem.SetFlag(addr, bus.MaskBreakpointExec)
			m.print("breakpoint set at %05x\n", addr)
		}

	case "m", "mem":
		addr := uint32(0)
		if len(fields) > 1 {
			var err error
			addr, err = parseAddress(fields[1])
			if err != nil {
				return false, err
			}
		}
		m.dumpMemory(addr)

	case "h", "history":
		n := 16
		if len(fields) > 1 {
			var err error
			n, err = strconv.Atoi(fields[1])
			if err != nil {
				return false, curated.Errorf(MonitorError, err)
			}
		}
		for _, r := range m.pc.CPU.History(n) {
			m.print("%v\n", r)
		}

	case "v", "viz":
		file := "gopher88.dot"
		if len(fields) > 1 {
			file = fields[1]
		}
		return false, m.memviz(file)

	case "help":
		m.print("s[tep] [n]   step n instructions\n")
		m.print("r[un]        run until breakpoint or keypress\n")
		m.print("regs         print the register file\n")
		m.print("b[reak] addr toggle an execute breakpoint\n")
		m.print("m[em] [addr] dump memory\n")
		m.print("h[istory] n  print recent execution history\n")
		m.print("v[iz] [file] write a graphviz dump of the machine state\n")
		m.print("q[uit]\n")

	default:
		return false, curated.Errorf(UnknownCommand, fields[0])
	}

	return false, nil
}

func (m *Monitor) step(n int) error {
	for i := 0; i < n; i++ {
		// step off a breakpoint that has already been reported
		if err := m.pc.CPU.Step(true); err != nil {
			return err
		}
		m.print("%v\n", m.pc.CPU.LastResult)
	}
	m.print("%v\n", m.pc.CPU)
	return nil
}

// run the machine freely, in cbreak mode so a single keypress stops it.
func (m *Monitor) run() error {
	if err := termios.Tcsetattr(m.input.Fd(), termios.TCIFLUSH, &m.cbreakAttr); err != nil {
		return curated.Errorf(MonitorError, err)
	}
	defer termios.Tcsetattr(m.input.Fd(), termios.TCIFLUSH, &m.canAttr)

	go func() {
		b := make([]byte, 1)
		if _, err := m.input.Read(b); err == nil {
			select {
			case m.keys <- b[0]:
			default:
			}
		}
	}()

	m.print("running; any key stops\n")

	err := m.pc.Run(func() (bool, error) {
		select {
		case <-m.keys:
			return false, nil
		default:
		}
		if m.pc.CPU.LastResult.Status == execution.Breakpoint {
			m.print("breakpoint at %05x\n", m.pc.CPU.LastResult.Address)
			return false, nil
		}
		return true, nil
	})

	// a halt with interrupts disabled is a stop, not a monitor error
	if err != nil && curated.Is(err, cpu.CPUHaltedError) {
		m.print("%v\n", err)
		err = nil
	}

	m.print("%v\n", m.pc.CPU)
	return err
}

func (m *Monitor) dumpMemory(addr uint32) {
	cursor := uint32(m.pc.CPU.CS.Value())<<4 + uint32(m.pc.CPU.IP())
	for _, row := range m.pc.Mem.DumpFlatTokens(addr, cursor, 128) {
		for _, tok := range row {
			switch tok.Type {
			case bus.TokenAddress:
				m.print("%s  ", tok.Text)
			case bus.TokenCursor:
				m.print("[%s]", tok.Text)
			case bus.TokenHexByte:
				m.print(" %s ", tok.Text)
			case bus.TokenASCII:
				m.print(" |%s|", tok.Text)
			}
		}
		m.print("\n")
	}
}

// memviz writes a graphviz visualisation of the entire machine state.
func (m *Monitor) memviz(file string) error {
	f, err := os.Create(file)
	if err != nil {
		return curated.Errorf(MonitorError, err)
	}
	defer f.Close()

	memviz.Map(f, m.pc)
	m.print("machine state written to %s\n", file)
	return nil
}

func parseAddress(s string) (uint32, error) {
	// segment:offset or flat hex
	if i := strings.IndexRune(s, ':'); i >= 0 {
		seg, err := strconv.ParseUint(s[:i], 16, 16)
		if err != nil {
			return 0, curated.Errorf(MonitorError, err)
		}
		off, err := strconv.ParseUint(s[i+1:], 16, 16)
		if err != nil {
			return 0, curated.Errorf(MonitorError, err)
		}
		return (uint32(seg)<<4 + uint32(off)) & 0xfffff, nil
	}

	addr, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, curated.Errorf(MonitorError, err)
	}
	return uint32(addr) & 0xfffff, nil
}
