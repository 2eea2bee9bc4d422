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

// Package performance measures how fast the emulation runs compared to real
// 8088 hardware. Check() runs the machine flat out for a fixed duration and
// reports emulated cycles per second; profiling and a statsview server can
// be enabled for the run.
package performance

import (
	"fmt"
	"io"
	"time"

	"github.com/jetsetilly/gopher88/curated"
	"github.com/jetsetilly/gopher88/hardware"
	"github.com/jetsetilly/gopher88/statsview"
)

// Error patterns for the performance package.
const (
	ProfilingError     = "performance: profiling: %v"
	UnknownProfileType = "performance: unknown profile type: %s"
	PerformanceError   = "performance: %v"
)

// Check the performance of the emulator. The machine must be assembled and
// loaded by the caller; it is run uncapped for the given duration.
func Check(output io.Writer, profile Profile, pc *hardware.PC, duration string, stats bool) error {
	dur, err := time.ParseDuration(duration)
	if err != nil {
		return curated.Errorf(PerformanceError, err)
	}

	if stats {
		// a no-op without the statsview build constraint
		statsview.Launch(output)
	}

	startCycles := pc.CPU.CycleTotal
	var elapsed time.Duration

	runner := func() error {
		start := time.Now()
		end := start.Add(dur)

		err := pc.Run(func() (bool, error) {
			return time.Now().Before(end), nil
		})

		elapsed = time.Since(start)
		return err
	}

	if err := RunProfiler(profile, "gopher88_performance", runner); err != nil {
		return curated.Errorf(PerformanceError, err)
	}

	cycles := pc.CPU.CycleTotal - startCycles
	perSecond := float64(cycles) / elapsed.Seconds()

	fmt.Fprintf(output, "%d cycles in %.2fs\n", cycles, elapsed.Seconds())
	fmt.Fprintf(output, "%.0f cycles/sec; %.1f%% of a 4.77MHz 8088\n",
		perSecond, 100*perSecond/float64(hardware.ClockHz))

	return nil
}
