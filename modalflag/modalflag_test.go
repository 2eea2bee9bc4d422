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

package modalflag_test

import (
	"bytes"
	"testing"

	"github.com/jetsetilly/gopher88/modalflag"
	"github.com/jetsetilly/gopher88/test"
)

func TestNoModesNoFlags(t *testing.T) {
	md := &modalflag.Modes{Output: &bytes.Buffer{}}
	md.NewArgs([]string{})

	r, err := md.Parse()
	test.ExpectedSuccess(t, err)
	test.Equate(t, int(r), int(modalflag.ParseContinue))
	test.Equate(t, md.Mode(), "")
}

func TestDefaultSubMode(t *testing.T) {
	md := &modalflag.Modes{Output: &bytes.Buffer{}}
	md.NewArgs([]string{})
	md.AddSubModes("RUN", "MONITOR")

	r, err := md.Parse()
	test.ExpectedSuccess(t, err)
	test.Equate(t, int(r), int(modalflag.ParseContinue))

	// the first listed sub-mode is the default
	test.Equate(t, md.Mode(), "RUN")
}

func TestSubModeSelection(t *testing.T) {
	md := &modalflag.Modes{Output: &bytes.Buffer{}}
	md.NewArgs([]string{"monitor"})
	md.AddSubModes("RUN", "MONITOR")

	r, err := md.Parse()
	test.ExpectedSuccess(t, err)
	test.Equate(t, int(r), int(modalflag.ParseContinue))
	test.Equate(t, md.Mode(), "MONITOR")
	test.Equate(t, md.Path(), "MONITOR")
}

func TestFlags(t *testing.T) {
	md := &modalflag.Modes{Output: &bytes.Buffer{}}
	md.NewArgs([]string{"-rom", "bios.bin", "extra"})

	rom := md.AddString("rom", "", "ROM image")
	r, err := md.Parse()
	test.ExpectedSuccess(t, err)
	test.Equate(t, int(r), int(modalflag.ParseContinue))
	test.Equate(t, *rom, "bios.bin")

	args := md.RemainingArgs()
	test.Equate(t, len(args), 1)
	test.Equate(t, md.GetArg(0), "extra")
}

func TestModeFlags(t *testing.T) {
	md := &modalflag.Modes{Output: &bytes.Buffer{}}
	md.NewArgs([]string{"performance", "-duration", "10s"})
	md.AddSubModes("RUN", "PERFORMANCE")

	r, err := md.Parse()
	test.ExpectedSuccess(t, err)
	test.Equate(t, md.Mode(), "PERFORMANCE")

	// the next layer parses the mode's own flags
	md.NewMode()
	duration := md.AddString("duration", "5s", "run duration")
	r, err = md.Parse()
	test.ExpectedSuccess(t, err)
	test.Equate(t, int(r), int(modalflag.ParseContinue))
	test.Equate(t, *duration, "10s")
	test.Equate(t, md.Path(), "PERFORMANCE")
}

func TestHelp(t *testing.T) {
	output := &bytes.Buffer{}
	md := &modalflag.Modes{Output: output}
	md.NewArgs([]string{"-help"})
	md.AddSubModes("RUN", "MONITOR")

	r, err := md.Parse()
	test.ExpectedSuccess(t, err)
	test.Equate(t, int(r), int(modalflag.ParseHelp))

	if output.Len() == 0 {
		t.Errorf("help requested but nothing written")
	}
}

func TestUnrecognisedFlagFallsToDefault(t *testing.T) {
	md := &modalflag.Modes{Output: &bytes.Buffer{}}
	md.NewArgs([]string{"-limit=false"})
	md.AddSubModes("RUN", "MONITOR")

	// the flag belongs to the RUN layer; the mode layer passes it through
	r, err := md.Parse()
	test.ExpectedSuccess(t, err)
	test.Equate(t, int(r), int(modalflag.ParseContinue))
	test.Equate(t, md.Mode(), "RUN")
}

func TestUnrecognisedFlagNoModes(t *testing.T) {
	md := &modalflag.Modes{Output: &bytes.Buffer{}}
	md.NewArgs([]string{"-no-such-flag"})

	r, err := md.Parse()
	test.ExpectedFailure(t, err)
	test.Equate(t, int(r), int(modalflag.ParseError))
}
