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

// Package logger is the central log facility for the project. Log entries
// are accumulated in memory and can be written out on demand. Adjacent
// identical entries are coalesced into a single entry with a repeat count.
//
// Entries are tagged with the originating subsystem. For example:
//
//	logger.Logf("fdc", "unsupported command %02x", cmd)
package logger

import (
	"fmt"
	"io"
)

const maxCentral = 10000

var central = newLogger(maxCentral)

// Log adds an entry to the central logger.
func Log(tag, detail string) {
	central.log(tag, detail)
}

// Logf adds a formatted entry to the central logger.
func Logf(tag, detail string, args ...interface{}) {
	Log(tag, fmt.Sprintf(detail, args...))
}

// Clear all entries from the central logger.
func Clear() {
	central.clear()
}

// Write contents of central logger to the io.Writer. Returns false if there
// was nothing to write.
func Write(output io.Writer) bool {
	return central.write(output)
}

// Tail writes the last N entries of the central logger to the io.Writer.
func Tail(output io.Writer, number int) {
	central.tail(output, number)
}

// SetEcho instructs the central logger to echo new entries to the io.Writer
// as they arrive. A nil writer turns echoing off.
func SetEcho(output io.Writer) {
	central.echo = output
}
