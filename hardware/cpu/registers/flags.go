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

package registers

import (
	"strings"
)

// Bit positions of the individual flags in the packed FLAGS word.
const (
	FlagCarry     = 0x0001
	FlagParity    = 0x0004
	FlagAuxCarry  = 0x0010
	FlagZero      = 0x0040
	FlagSign      = 0x0080
	FlagTrap      = 0x0100
	FlagInterrupt = 0x0200
	FlagDirection = 0x0400
	FlagOverflow  = 0x0800
)

// the 8088 reads the top four bits of FLAGS as set and bit 1 as set. bits
// 3 and 5 read as clear
const flagsFixedSet = 0xf002

// Flags is the FLAGS register of the 8088. Individual flags are stored as
// named booleans and packed into a 16 bit word on demand.
type Flags struct {
	Carry     bool
	Parity    bool
	AuxCarry  bool
	Zero      bool
	Sign      bool
	Trap      bool
	Interrupt bool
	Direction bool
	Overflow  bool
}

// NewFlags is the preferred method of initialisation for the Flags type.
func NewFlags() Flags {
	return Flags{}
}

// Label returns the canonical name for the FLAGS register.
func (f Flags) Label() string {
	return "FLAGS"
}

func (f Flags) String() string {
	s := strings.Builder{}

	if f.Overflow {
		s.WriteRune('O')
	} else {
		s.WriteRune('o')
	}
	if f.Direction {
		s.WriteRune('D')
	} else {
		s.WriteRune('d')
	}
	if f.Interrupt {
		s.WriteRune('I')
	} else {
		s.WriteRune('i')
	}
	if f.Trap {
		s.WriteRune('T')
	} else {
		s.WriteRune('t')
	}
	if f.Sign {
		s.WriteRune('S')
	} else {
		s.WriteRune('s')
	}
	if f.Zero {
		s.WriteRune('Z')
	} else {
		s.WriteRune('z')
	}
	if f.AuxCarry {
		s.WriteRune('A')
	} else {
		s.WriteRune('a')
	}
	if f.Parity {
		s.WriteRune('P')
	} else {
		s.WriteRune('p')
	}
	if f.Carry {
		s.WriteRune('C')
	} else {
		s.WriteRune('c')
	}

	return s.String()
}

// Reset flags to the power-on state.
func (f *Flags) Reset() {
	f.FromValue(0)
}

// Value packs the Flags struct into a value suitable for pushing onto the
// stack.
func (f Flags) Value() uint16 {
	v := uint16(flagsFixedSet)

	if f.Carry {
		v |= FlagCarry
	}
	if f.Parity {
		v |= FlagParity
	}
	if f.AuxCarry {
		v |= FlagAuxCarry
	}
	if f.Zero {
		v |= FlagZero
	}
	if f.Sign {
		v |= FlagSign
	}
	if f.Trap {
		v |= FlagTrap
	}
	if f.Interrupt {
		v |= FlagInterrupt
	}
	if f.Direction {
		v |= FlagDirection
	}
	if f.Overflow {
		v |= FlagOverflow
	}

	return v
}

// FromValue unpacks a 16 bit word (taken from the stack, for example) into
// the Flags struct receiver.
func (f *Flags) FromValue(v uint16) {
	f.Carry = v&FlagCarry == FlagCarry
	f.Parity = v&FlagParity == FlagParity
	f.AuxCarry = v&FlagAuxCarry == FlagAuxCarry
	f.Zero = v&FlagZero == FlagZero
	f.Sign = v&FlagSign == FlagSign
	f.Trap = v&FlagTrap == FlagTrap
	f.Interrupt = v&FlagInterrupt == FlagInterrupt
	f.Direction = v&FlagDirection == FlagDirection
	f.Overflow = v&FlagOverflow == FlagOverflow
}
