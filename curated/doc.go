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

// Package curated defines the error type used throughout the project. A
// curated error is created with a pattern string which serves both as the
// format of the error message and as the identity of the error. Packages
// export their patterns as string constants, for example:
//
//	const ReadOutOfBounds = "bus: read out of bounds: %08x"
//
// Callers can then test for a class of error without string comparison
// gymnastics:
//
//	if curated.Is(err, bus.ReadOutOfBounds) {
//		...
//	}
//
// The Has() function extends the test to every wrapped error in the chain.
// Adjacent duplicate message parts are removed when the message is printed,
// so functions can wrap errors without worrying about stuttering output.
package curated
