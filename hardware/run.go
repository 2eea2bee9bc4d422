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

package hardware

// number of instructions between calls to the continue check. polling on
// every instruction costs more than the emulation itself
const performanceBrake = 100

// Run the machine continuously. The continueCheck callback is consulted
// periodically; returning false stops the machine cleanly.
func (p *PC) Run(continueCheck func() (bool, error)) error {
	if continueCheck == nil {
		continueCheck = func() (bool, error) {
			return true, nil
		}
	}

	count := 0
	for {
		if err := p.CPU.Step(false); err != nil {
			return err
		}

		count++
		if count >= performanceBrake {
			count = 0
			cont, err := continueCheck()
			if err != nil {
				return err
			}
			if !cont {
				return nil
			}
		}
	}
}

// RunForCycles runs the machine until at least the given number of CPU
// cycles have elapsed.
func (p *PC) RunForCycles(n uint64) error {
	target := p.CPU.CycleTotal + n
	for p.CPU.CycleTotal < target {
		if err := p.CPU.Step(false); err != nil {
			return err
		}
	}
	return nil
}
