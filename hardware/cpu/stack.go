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

// push16 decrements SP by two and writes the value at SS:SP.
func (mc *CPU) push16(v uint16) {
	mc.SP.Incr(-2)
	mc.busWrite16(mc.SS.Value(), mc.SP.Value(), v)
}

// pop16 reads the value at SS:SP and increments SP by two.
func (mc *CPU) pop16() uint16 {
	v := mc.busRead16(mc.SS.Value(), mc.SP.Value())
	mc.SP.Incr(2)
	return v
}
