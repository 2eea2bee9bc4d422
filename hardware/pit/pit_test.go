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

package pit_test

import (
	"testing"

	"github.com/jetsetilly/gopher88/hardware/pit"
	"github.com/jetsetilly/gopher88/test"
)

// tickClocks advances the timer by n counter clocks (four CPU cycles each).
func tickClocks(p *pit.PIT, n int) {
	for i := 0; i < n*4; i++ {
		p.Tick()
	}
}

func TestMode0TerminalCount(t *testing.T) {
	fired := 0
	p := pit.NewPIT(func(ch int, level bool) {
		if ch == 0 && level {
			fired++
		}
	})

	p.WritePort(pit.PortControl, 0x30, 0) // channel 0, lo/hi, mode 0
	test.Equate(t, p.Output(0), false)

	p.WritePort(pit.PortCounter0, 10, 0)
	p.WritePort(pit.PortCounter0, 0, 0)

	tickClocks(p, 9)
	test.Equate(t, p.Output(0), false)

	tickClocks(p, 1)
	test.Equate(t, p.Output(0), true)
	test.Equate(t, fired, 1)

	// output stays high until reprogrammed
	tickClocks(p, 100)
	test.Equate(t, fired, 1)
}

func TestMode2RateGenerator(t *testing.T) {
	fired := 0
	p := pit.NewPIT(func(ch int, level bool) {
		if ch == 0 && level {
			fired++
		}
	})

	p.WritePort(pit.PortControl, 0x34, 0) // channel 0, lo/hi, mode 2
	p.WritePort(pit.PortCounter0, 100, 0)
	p.WritePort(pit.PortCounter0, 0, 0)

	tickClocks(p, 100)
	test.Equate(t, fired, 1)

	// the counter reloads and fires periodically
	tickClocks(p, 300)
	test.Equate(t, fired, 4)
}

func TestMode3SquareWave(t *testing.T) {
	toggles := 0
	p := pit.NewPIT(func(ch int, _ bool) {
		if ch == 0 {
			toggles++
		}
	})

	p.WritePort(pit.PortControl, 0x36, 0) // channel 0, lo/hi, mode 3
	p.WritePort(pit.PortCounter0, 20, 0)
	p.WritePort(pit.PortCounter0, 0, 0)

	// each half period is reload/2 clocks
	tickClocks(p, 10)
	test.Equate(t, toggles, 1)
	tickClocks(p, 10)
	test.Equate(t, toggles, 2)
}

func TestLatchCommand(t *testing.T) {
	p := pit.NewPIT(nil)

	p.WritePort(pit.PortControl, 0x34, 0)
	p.WritePort(pit.PortCounter0, 0x34, 0)
	p.WritePort(pit.PortCounter0, 0x12, 0)

	tickClocks(p, 4)

	// latch channel 0 and keep counting
	p.WritePort(pit.PortControl, 0x00, 0)
	tickClocks(p, 4)

	lo, _ := p.ReadPort(pit.PortCounter0, 0)
	hi, _ := p.ReadPort(pit.PortCounter0, 0)
	latched := uint16(hi)<<8 | uint16(lo)
	test.Equate(t, latched, 0x1234-4)

	// with the latch consumed, reads track the live counter
	lo, _ = p.ReadPort(pit.PortCounter0, 0)
	hi, _ = p.ReadPort(pit.PortCounter0, 0)
	test.Equate(t, uint16(hi)<<8|uint16(lo), 0x1234-8)
}

func TestLoadPausesCounting(t *testing.T) {
	p := pit.NewPIT(nil)

	p.WritePort(pit.PortControl, 0x30, 0)
	p.WritePort(pit.PortCounter0, 10, 0)

	// only the low byte is written; the counter must not run yet
	tickClocks(p, 20)
	test.Equate(t, p.Output(0), false)

	p.WritePort(pit.PortCounter0, 0, 0)
	tickClocks(p, 10)
	test.Equate(t, p.Output(0), true)
}

func TestChannelsIndependent(t *testing.T) {
	var out [3]bool
	p := pit.NewPIT(func(ch int, level bool) {
		out[ch] = level
	})

	p.WritePort(pit.PortControl, 0x30, 0) // channel 0, mode 0
	p.WritePort(pit.PortCounter0, 5, 0)
	p.WritePort(pit.PortCounter0, 0, 0)

	p.WritePort(pit.PortControl, 0x70, 0) // channel 1, mode 0
	p.WritePort(pit.PortCounter1, 50, 0)
	p.WritePort(pit.PortCounter1, 0, 0)

	tickClocks(p, 5)
	test.Equate(t, out[0], true)
	test.Equate(t, out[1], false)

	tickClocks(p, 45)
	test.Equate(t, out[1], true)
}
