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

package diskimage_test

import (
	"bytes"
	"testing"

	"github.com/jetsetilly/gopher88/curated"
	"github.com/jetsetilly/gopher88/hardware/fdc/diskimage"
	"github.com/jetsetilly/gopher88/test"
)

func TestBlankImage(t *testing.T) {
	img := diskimage.New(diskimage.Drive360K)
	test.Equate(t, img.Type.Tracks, 40)
	test.Equate(t, img.Type.Heads, 2)
	test.Equate(t, img.Type.SectorsPerTrack, 9)

	// sector IDs are sequential from 1
	s, err := img.FindSector(0, 0, diskimage.CHSN{C: 0, H: 0, S: 1, N: 2})
	test.ExpectedSuccess(t, err)
	test.Equate(t, len(s.Data), 512)

	s, err = img.FindSector(39, 1, diskimage.CHSN{C: 39, H: 1, S: 9, N: 2})
	test.ExpectedSuccess(t, err)
	test.Equate(t, s.Deleted, false)
}

func TestSectorNotFound(t *testing.T) {
	img := diskimage.New(diskimage.Drive360K)

	_, err := img.FindSector(0, 0, diskimage.CHSN{C: 0, H: 0, S: 10, N: 2})
	test.ExpectedFailure(t, err)
	test.ExpectedSuccess(t, curated.Is(err, diskimage.SectorNotFound))

	// an ID naming the wrong cylinder or head is reported as such, not as
	// an absent sector
	_, err = img.FindSector(0, 0, diskimage.CHSN{C: 1, H: 0, S: 1, N: 2})
	test.ExpectedSuccess(t, curated.Is(err, diskimage.WrongCylinder))

	_, err = img.FindSector(0, 0, diskimage.CHSN{C: 0, H: 1, S: 1, N: 2})
	test.ExpectedSuccess(t, curated.Is(err, diskimage.WrongHead))

	_, err = img.FindSector(40, 0, diskimage.CHSN{S: 1})
	test.ExpectedSuccess(t, curated.Is(err, diskimage.TrackOutOfRange))

	_, err = img.FindSector(0, 2, diskimage.CHSN{S: 1})
	test.ExpectedSuccess(t, curated.Is(err, diskimage.HeadOutOfRange))
}

func TestBadIDField(t *testing.T) {
	img := diskimage.New(diskimage.Drive360K)

	track, err := img.Track(0, 0)
	test.ExpectedSuccess(t, err)
	track[0].BadIDCRC = true

	// a corrupt ID field makes the sector unaddressable
	_, err = img.FindSector(0, 0, diskimage.CHSN{C: 0, H: 0, S: 1, N: 2})
	test.ExpectedFailure(t, err)
	test.ExpectedSuccess(t, curated.Is(err, diskimage.AddressCRC))

	// the other sectors of the track are unaffected
	_, err = img.FindSector(0, 0, diskimage.CHSN{C: 0, H: 0, S: 2, N: 2})
	test.ExpectedSuccess(t, err)
}

func TestGeometryInference(t *testing.T) {
	raw := make([]uint8, 40*2*9*512)
	raw[0] = 0xeb // first byte of a boot sector

	img, err := diskimage.NewFromReader(bytes.NewReader(raw))
	test.ExpectedSuccess(t, err)
	test.Equate(t, int(img.DriveType), int(diskimage.Drive360K))

	s, err := img.FindSector(0, 0, diskimage.CHSN{C: 0, H: 0, S: 1, N: 2})
	test.ExpectedSuccess(t, err)
	test.Equate(t, s.Data[0], 0xeb)

	_, err = diskimage.NewFromReader(bytes.NewReader(make([]uint8, 1000)))
	test.ExpectedFailure(t, err)
	test.ExpectedSuccess(t, curated.Is(err, diskimage.UnknownImageSize))
}

func TestRoundTrip(t *testing.T) {
	raw := make([]uint8, 80*2*18*512)
	for i := range raw {
		raw[i] = uint8(i)
	}

	img, err := diskimage.NewFromReader(bytes.NewReader(raw))
	test.ExpectedSuccess(t, err)
	test.Equate(t, int(img.DriveType), int(diskimage.Drive144M))

	buf := &bytes.Buffer{}
	n, err := img.WriteTo(buf)
	test.ExpectedSuccess(t, err)
	test.Equate(t, n, int64(len(raw)))
	test.Equate(t, bytes.Equal(buf.Bytes(), raw), true)
}

func TestWriteSector(t *testing.T) {
	img := diskimage.New(diskimage.Drive360K)

	data := make([]uint8, 512)
	data[0] = 0x55
	id := diskimage.CHSN{C: 5, H: 1, S: 3, N: 2}

	test.ExpectedSuccess(t, img.WriteSector(5, 1, id, data, true))

	s, err := img.FindSector(5, 1, id)
	test.ExpectedSuccess(t, err)
	test.Equate(t, s.Data[0], 0x55)
	test.Equate(t, s.Deleted, true)
}

func TestWriteProtect(t *testing.T) {
	img := diskimage.New(diskimage.Drive360K)
	img.WriteProtected = true

	id := diskimage.CHSN{C: 0, H: 0, S: 1, N: 2}
	err := img.WriteSector(0, 0, id, make([]uint8, 512), false)
	test.ExpectedFailure(t, err)
	test.ExpectedSuccess(t, curated.Is(err, diskimage.WriteProtected))

	err = img.Format(0, 0, []diskimage.CHSN{id}, 0xf6)
	test.ExpectedFailure(t, err)
}

func TestFormat(t *testing.T) {
	img := diskimage.New(diskimage.Drive360K)

	// interleaved IDs with a non-standard sector size
	ids := []diskimage.CHSN{
		{C: 3, H: 0, S: 1, N: 1},
		{C: 3, H: 0, S: 3, N: 1},
		{C: 3, H: 0, S: 2, N: 1},
	}
	test.ExpectedSuccess(t, img.Format(3, 0, ids, 0xf6))

	track, err := img.Track(3, 0)
	test.ExpectedSuccess(t, err)
	test.Equate(t, len(track), 3)
	test.Equate(t, track[1].ID.S, 3)
	test.Equate(t, len(track[0].Data), 256)
	test.Equate(t, track[0].Data[0], 0xf6)

	// the old standard IDs are gone
	_, err = img.FindSector(3, 0, diskimage.CHSN{C: 3, H: 0, S: 4, N: 2})
	test.ExpectedFailure(t, err)
}

func TestSectorSize(t *testing.T) {
	test.Equate(t, diskimage.SectorSize(0), 128)
	test.Equate(t, diskimage.SectorSize(2), 512)
	test.Equate(t, diskimage.SectorSize(3), 1024)
}
