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
	"fmt"
)

// TokenType distinguishes the tokens of a memory dump row so the monitor
// can style them individually.
type TokenType int

// List of token types.
const (
	TokenAddress TokenType = iota
	TokenHexByte
	TokenASCII
	TokenCursor
)

// Token is one element of a memory dump row.
type Token struct {
	Type TokenType
	Text string
	Addr uint32
}

// bytes per dump row
const dumpRowLen = 16

// DumpFlatTokens returns rows of tokens describing memory from addr for
// size bytes. The cursor address, if within range, produces a TokenCursor
// token in place of the plain hex byte. Reads use the peek path so the dump
// has no side effects on devices.
func (b *Bus) DumpFlatTokens(addr uint32, cursor uint32, size int) [][]Token {
	rows := make([][]Token, 0, size/dumpRowLen+1)

	for base := addr &^ (dumpRowLen - 1); base < addr+uint32(size) && base < MemorySize; base += dumpRowLen {
		row := make([]Token, 0, dumpRowLen*2+1)
		row = append(row, Token{Type: TokenAddress, Text: fmt.Sprintf("%05x", base), Addr: base})

		ascii := make([]byte, 0, dumpRowLen)
		for i := uint32(0); i < dumpRowLen; i++ {
			a := base + i
			v, err := b.PeekU8(a)
			if err != nil {
				break
			}

			typ := TokenHexByte
			if a == cursor {
				typ = TokenCursor
			}
			row = append(row, Token{Type: typ, Text: fmt.Sprintf("%02x", v), Addr: a})

			if v >= 0x20 && v < 0x7f {
				ascii = append(ascii, v)
			} else {
				ascii = append(ascii, '.')
			}
		}

		row = append(row, Token{Type: TokenASCII, Text: string(ascii), Addr: base})
		rows = append(rows, row)
	}

	return rows
}
