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

// Gopher88 is a cycle-stepped emulation of the Intel 8088 and the machine
// built around it: the 8259 interrupt controller, 8253 timer, 8237 DMA
// controller, NEC 765 floppy controller and 8250 serial port.
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/jetsetilly/gopher88/hardware"
	"github.com/jetsetilly/gopher88/hardware/bus"
	"github.com/jetsetilly/gopher88/logger"
	"github.com/jetsetilly/gopher88/modalflag"
	"github.com/jetsetilly/gopher88/monitor"
	"github.com/jetsetilly/gopher88/performance"
	"github.com/jetsetilly/gopher88/version"
)

func main() {
	md := &modalflag.Modes{Output: os.Stdout}
	md.NewArgs(os.Args[1:])
	md.AddSubModes("RUN", "MONITOR", "PERFORMANCE", "VERSION")

	r, err := md.Parse()
	switch r {
	case modalflag.ParseHelp:
		os.Exit(0)
	case modalflag.ParseError:
		fmt.Fprintln(os.Stderr, err)
		os.Exit(10)
	}

	switch md.Mode() {
	case "RUN":
		err = emulate(md, false)
	case "MONITOR":
		err = emulate(md, true)
	case "PERFORMANCE":
		err = perform(md)
	case "VERSION":
		vers, rev, _ := version.Version()
		fmt.Printf("%s %s (%s)\n", version.ApplicationName, vers, rev)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(10)
	}
}

// machineFlags are the flags common to every mode that assembles a machine.
type machineFlags struct {
	rom     *string
	romAddr *string
	disk    *string
	echoLog *bool
}

func addMachineFlags(md *modalflag.Modes) machineFlags {
	return machineFlags{
		rom:     md.AddString("rom", "", "ROM image file"),
		romAddr: md.AddString("romaddr", "", "physical load address of the ROM in hex (default: top of memory)"),
		disk:    md.AddString("disk", "", "floppy image for drive 0"),
		echoLog: md.AddBool("log", false, "echo log entries to stderr"),
	}
}

// assemble builds and resets a machine from the common flags.
func assemble(mf machineFlags) (*hardware.PC, error) {
	if *mf.echoLog {
		logger.SetEcho(os.Stderr)
	}

	pc := hardware.NewPC()

	if *mf.rom != "" {
		data, err := os.ReadFile(*mf.rom)
		if err != nil {
			return nil, err
		}

		// by default the ROM sits against the top of the address space so
		// the reset vector at FFFF:0000 falls inside it
		addr := uint32(bus.MemorySize - len(data))
		if *mf.romAddr != "" {
			a, err := strconv.ParseUint(*mf.romAddr, 16, 32)
			if err != nil {
				return nil, err
			}
			addr = uint32(a)
		}

		if err := pc.AttachROM(data, addr); err != nil {
			return nil, err
		}
	}

	if *mf.disk != "" {
		f, err := os.Open(*mf.disk)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		if err := pc.AttachDisk(0, f); err != nil {
			return nil, err
		}
	}

	pc.Reset()
	return pc, nil
}

func emulate(md *modalflag.Modes, withMonitor bool) error {
	md.NewMode()
	mf := addMachineFlags(md)
	limit := md.AddBool("limit", true, "limit emulation to real 8088 speed")

	r, err := md.Parse()
	if r != modalflag.ParseContinue {
		return err
	}

	pc, err := assemble(mf)
	if err != nil {
		return err
	}

	if withMonitor {
		mon, err := monitor.NewMonitor(pc)
		if err != nil {
			return err
		}
		return mon.Run()
	}

	var check func() (bool, error)
	if *limit {
		lim := performance.NewLimiter(pc.CPU.CycleTotal)
		check = func() (bool, error) {
			lim.Checkpoint(pc.CPU.CycleTotal)
			return true, nil
		}
	}

	return pc.Run(check)
}

func perform(md *modalflag.Modes) error {
	md.NewMode()
	mf := addMachineFlags(md)
	duration := md.AddString("duration", "5s", "run duration")
	profile := md.AddString("profile", "none", "profile the run: cpu, mem, all")
	stats := md.AddBool("statsview", false, "run the statistics server")

	r, err := md.Parse()
	if r != modalflag.ParseContinue {
		return err
	}

	p, err := performance.ParseProfileString(*profile)
	if err != nil {
		return err
	}

	pc, err := assemble(mf)
	if err != nil {
		return err
	}

	return performance.Check(md.Output, p, pc, *duration, *stats)
}
