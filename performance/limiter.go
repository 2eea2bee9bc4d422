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

package performance

import (
	"time"

	"github.com/jetsetilly/gopher88/hardware"
)

// Limiter paces the emulation to the speed of the real hardware. Call
// Checkpoint() periodically with the machine's cycle counter; it sleeps
// away the difference between emulated time and wall time.
type Limiter struct {
	start       time.Time
	startCycles uint64
}

// NewLimiter is the preferred method of initialisation for the Limiter
// type.
func NewLimiter(currentCycles uint64) *Limiter {
	return &Limiter{
		start:       time.Now(),
		startCycles: currentCycles,
	}
}

// Checkpoint sleeps until wall time has caught up with the emulated time
// implied by the cycle counter. A machine running faster than real
// hardware is slowed; a slow machine is not penalised further.
func (l *Limiter) Checkpoint(currentCycles uint64) {
	emulated := time.Duration(float64(currentCycles-l.startCycles) / hardware.ClockHz * float64(time.Second))
	elapsed := time.Since(l.start)
	if emulated > elapsed {
		time.Sleep(emulated - elapsed)
	}
}
