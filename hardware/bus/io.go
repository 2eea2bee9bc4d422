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

package bus

import (
	"github.com/jetsetilly/gopher88/logger"
)

// IODevice is a device reachable through the IN/OUT port space. Read and
// write return a wait-state count in system ticks.
type IODevice interface {
	// PortList enumerates the ports the device responds to.
	PortList() []uint16

	ReadPort(port uint16, cpuCycles int) (uint8, int)
	WritePort(port uint16, data uint8, cpuCycles int) int
}

// RegisterPorts attaches a device to every port in its port list.
// Collisions are resolved last-registration-wins and logged.
func (b *Bus) RegisterPorts(name string, dev IODevice) {
	for _, p := range dev.PortList() {
		if _, ok := b.ports[p]; ok {
			logger.Logf("bus", "port %04x reassigned to %s", p, name)
		}
		b.ports[p] = dev
	}
}

// IORead8 reads a byte from the port space. Unclaimed ports float high.
func (b *Bus) IORead8(port uint16, cpuCycles int) (uint8, int) {
	if dev, ok := b.ports[port]; ok {
		v, ticks := dev.ReadPort(port, cpuCycles)
		return v, b.WaitCycles(ticks)
	}
	return 0xff, 0
}

// IOWrite8 writes a byte to the port space. Writes to unclaimed ports are
// dropped.
func (b *Bus) IOWrite8(port uint16, data uint8, cpuCycles int) int {
	if dev, ok := b.ports[port]; ok {
		return b.WaitCycles(dev.WritePort(port, data, cpuCycles))
	}
	return 0
}
