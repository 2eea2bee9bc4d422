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

// Package diskimage is the sector-addressed media model used by the floppy
// controller. A sector carries its own ID field, so the ID a sector answers
// to does not have to match its physical position; that is what makes
// formatting and copy-protected media representable.
package diskimage

import (
	"io"

	"github.com/jetsetilly/gopher88/curated"
)

// Error patterns for the diskimage package.
const (
	SectorNotFound   = "diskimage: sector not found: track %d head %d id %d"
	WrongCylinder    = "diskimage: wrong cylinder in id field: want %d found %d"
	WrongHead        = "diskimage: wrong head in id field: want %d found %d"
	AddressCRC       = "diskimage: id field crc error: track %d head %d id %d"
	TrackOutOfRange  = "diskimage: track out of range: %d"
	HeadOutOfRange   = "diskimage: head out of range: %d"
	WriteProtected   = "diskimage: media is write protected"
	UnknownImageSize = "diskimage: cannot infer geometry from image size %d"
	ShortRead        = "diskimage: short read: %v"
)

// DriveType enumerates the supported drive geometries.
type DriveType int

// List of drive types.
const (
	Drive360K DriveType = iota
	Drive720K
	Drive12M
	Drive144M
)

func (t DriveType) String() string {
	switch t {
	case Drive360K:
		return "360K"
	case Drive720K:
		return "720K"
	case Drive12M:
		return "1.2M"
	case Drive144M:
		return "1.44M"
	}
	return "unknown"
}

// Geometry of a drive type.
type Geometry struct {
	Tracks          int
	Heads           int
	SectorsPerTrack int
}

var geometries = map[DriveType]Geometry{
	Drive360K: {40, 2, 9},
	Drive720K: {80, 2, 9},
	Drive12M:  {80, 2, 15},
	Drive144M: {80, 2, 18},
}

// Geometry returns the geometry of the drive type.
func (t DriveType) Geometry() Geometry {
	return geometries[t]
}

// SectorSize converts an N size code to a byte count.
func SectorSize(n uint8) int {
	return 128 << uint(n&0x07)
}

// CHSN is the four byte ID field of a sector.
type CHSN struct {
	C uint8
	H uint8
	S uint8
	N uint8
}

// Sector is one sector of media: an ID field, a data field and the flags
// the controller reports about them.
type Sector struct {
	ID   CHSN
	Data []uint8

	// the data field was written with a deleted data address mark
	Deleted bool

	// the data field fails its CRC
	BadCRC bool

	// the ID field itself fails its CRC, making the sector unaddressable
	BadIDCRC bool
}

// Image is the media in a drive: a grid of tracks, each holding an ordered
// list of sectors.
type Image struct {
	Type           Geometry
	DriveType      DriveType
	WriteProtected bool

	// tracks indexed by cylinder then head
	tracks [][][]Sector
}

// New creates a blank, formatted image of the given type. Every sector is
// 512 bytes of zeroes with sequential IDs.
func New(t DriveType) *Image {
	geo := t.Geometry()

	img := &Image{
		Type:      geo,
		DriveType: t,
		tracks:    make([][][]Sector, geo.Tracks),
	}

	for c := 0; c < geo.Tracks; c++ {
		img.tracks[c] = make([][]Sector, geo.Heads)
		for h := 0; h < geo.Heads; h++ {
			track := make([]Sector, geo.SectorsPerTrack)
			for s := 0; s < geo.SectorsPerTrack; s++ {
				track[s] = Sector{
					ID:   CHSN{C: uint8(c), H: uint8(h), S: uint8(s + 1), N: 2},
					Data: make([]uint8, 512),
				}
			}
			img.tracks[c][h] = track
		}
	}

	return img
}

// driveTypeForSize maps a raw image length to a drive type.
func driveTypeForSize(size int) (DriveType, bool) {
	switch size {
	case 40 * 2 * 9 * 512:
		return Drive360K, true
	case 80 * 2 * 9 * 512:
		return Drive720K, true
	case 80 * 2 * 15 * 512:
		return Drive12M, true
	case 80 * 2 * 18 * 512:
		return Drive144M, true
	}
	return Drive360K, false
}

// NewFromReader loads a raw sector image, inferring the geometry from its
// size.
func NewFromReader(r io.Reader) (*Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, curated.Errorf(ShortRead, err)
	}

	t, ok := driveTypeForSize(len(data))
	if !ok {
		return nil, curated.Errorf(UnknownImageSize, len(data))
	}

	img := New(t)
	geo := t.Geometry()

	i := 0
	for c := 0; c < geo.Tracks; c++ {
		for h := 0; h < geo.Heads; h++ {
			for s := 0; s < geo.SectorsPerTrack; s++ {
				copy(img.tracks[c][h][s].Data, data[i:i+512])
				i += 512
			}
		}
	}

	return img, nil
}

// WriteTo serialises the image as a raw sector dump in CHS order.
// Implements the io.WriterTo interface.
func (img *Image) WriteTo(w io.Writer) (int64, error) {
	var n int64
	for c := range img.tracks {
		for h := range img.tracks[c] {
			for s := range img.tracks[c][h] {
				written, err := w.Write(img.tracks[c][h][s].Data)
				n += int64(written)
				if err != nil {
					return n, err
				}
			}
		}
	}
	return n, nil
}

func (img *Image) checkPosition(track, head int) error {
	if track < 0 || track >= len(img.tracks) {
		return curated.Errorf(TrackOutOfRange, track)
	}
	if head < 0 || head >= len(img.tracks[track]) {
		return curated.Errorf(HeadOutOfRange, head)
	}
	return nil
}

// FindSector locates the sector on the physical track whose ID field
// matches the given C, H, S and N values. A sector whose ID answers to the
// requested S and N but names a different cylinder or head is an error
// distinct from the sector being absent, as is a corrupt ID field.
func (img *Image) FindSector(track, head int, id CHSN) (*Sector, error) {
	if err := img.checkPosition(track, head); err != nil {
		return nil, err
	}

	for i := range img.tracks[track][head] {
		s := &img.tracks[track][head][i]
		if s.ID.S != id.S || s.ID.N != id.N {
			continue
		}
		if s.BadIDCRC {
			return nil, curated.Errorf(AddressCRC, track, head, id.S)
		}
		if s.ID.C != id.C {
			return nil, curated.Errorf(WrongCylinder, id.C, s.ID.C)
		}
		if s.ID.H != id.H {
			return nil, curated.Errorf(WrongHead, id.H, s.ID.H)
		}
		return s, nil
	}

	return nil, curated.Errorf(SectorNotFound, track, head, id.S)
}

// Track returns the ordered sector list of a physical track.
func (img *Image) Track(track, head int) ([]Sector, error) {
	if err := img.checkPosition(track, head); err != nil {
		return nil, err
	}
	return img.tracks[track][head], nil
}

// WriteSector replaces the data field of the matching sector. The deleted
// mark is set or cleared according to the write command used.
func (img *Image) WriteSector(track, head int, id CHSN, data []uint8, deleted bool) error {
	if img.WriteProtected {
		return curated.Errorf(WriteProtected)
	}

	s, err := img.FindSector(track, head, id)
	if err != nil {
		return err
	}

	s.Data = make([]uint8, len(data))
	copy(s.Data, data)
	s.Deleted = deleted
	s.BadCRC = false

	return nil
}

// Format replaces a whole track with new sectors. The IDs come from the
// format command's parameter table; the data fields are filled with the
// filler byte.
func (img *Image) Format(track, head int, ids []CHSN, filler uint8) error {
	if img.WriteProtected {
		return curated.Errorf(WriteProtected)
	}
	if err := img.checkPosition(track, head); err != nil {
		return err
	}

	sectors := make([]Sector, len(ids))
	for i, id := range ids {
		data := make([]uint8, SectorSize(id.N))
		for j := range data {
			data[j] = filler
		}
		sectors[i] = Sector{ID: id, Data: data}
	}

	img.tracks[track][head] = sectors
	return nil
}
