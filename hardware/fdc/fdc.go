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

// Package fdc implements the NEC 765 floppy disk controller at ports
// 0x3F0-0x3F7. Sector data moves over DMA channel 2; completion raises
// IRQ6. Media is represented by the diskimage package.
package fdc

import (
	"github.com/jetsetilly/gopher88/curated"
	"github.com/jetsetilly/gopher88/hardware/dma"
	"github.com/jetsetilly/gopher88/hardware/fdc/diskimage"
	"github.com/jetsetilly/gopher88/logger"
)

// IO ports.
const (
	PortDOR  = 0x3f2
	PortMSR  = 0x3f4
	PortData = 0x3f5
	PortDIR  = 0x3f7
)

// the DMA channel the PC wires the controller to
const DMAChannel = 2

// main status register bits
const (
	msrBusy   = 0x10
	msrNonDMA = 0x20
	msrDIO    = 0x40 // direction: set when the controller has result bytes
	msrReady  = 0x80
)

// ST0 interrupt codes, in bits 6-7
const (
	st0Normal      = 0x00
	st0Abnormal    = 0x40
	st0Invalid     = 0x80
	st0ReadyChange = 0xc0
)

// ST0 seek end
const st0SeekEnd = 0x20

// ST1 bits
const (
	st1NoData    = 0x04
	st1WriteProt = 0x02
	st1DataError = 0x20
	st1EndOfCyl  = 0x80
)

// ST2 bits
const (
	st2ControlMark   = 0x40
	st2DataErrorData = 0x20
	st2WrongCylinder = 0x10
)

// ST3 bits
const (
	st3Track0    = 0x10
	st3TwoSide   = 0x08
	st3Ready     = 0x20
	st3WriteProt = 0x40
)

// command byte bits
const (
	bitMT = 0x80
	bitMF = 0x40
	bitSK = 0x20
)

// completion interrupts are delayed by a small number of CPU cycles so
// that the command issuing code has returned before the handler runs
const irqDelay = 200

// IRQLine is called to raise or drop IRQ6.
type IRQLine func(level bool)

type drive struct {
	image *diskimage.Image
	track int
	motor bool
}

// command parameter lengths, indexed by the low five bits of the command
// byte. zero marks an invalid command
var commandLength = map[uint8]int{
	0x02: 9, // read track
	0x03: 3, // specify
	0x04: 2, // sense drive status
	0x05: 9, // write data
	0x06: 9, // read data
	0x07: 2, // recalibrate
	0x08: 1, // sense interrupt status
	0x09: 9, // write deleted data
	0x0a: 2, // read id
	0x0c: 9, // read deleted data
	0x0d: 6, // format track
	0x0f: 3, // seek
}

// FDC implements the NEC 765.
type FDC struct {
	dma *dma.DMA
	irq IRQLine

	drives [4]drive

	dor uint8

	// command phase buffer
	command []uint8
	cmdLen  int

	// result phase buffer
	result    []uint8
	resultIdx int

	busy bool

	// interrupt bookkeeping for sense interrupt status
	irqPending bool
	pendingST0 uint8

	// specify parameters. retained for readback through sense, no timing
	// model hangs off them
	stepRate uint8
	headLoad uint8
	nonDMA   bool

	// delayed IRQ assertion, ticked by the machine
	delay    int
	delayST0 uint8
}

// NewFDC is the preferred method of initialisation for the FDC type.
func NewFDC(d *dma.DMA, irq IRQLine) *FDC {
	return &FDC{
		dma: d,
		irq: irq,
	}
}

// Reset the controller.
func (f *FDC) Reset() {
	f.dor = 0
	f.command = nil
	f.cmdLen = 0
	f.result = nil
	f.resultIdx = 0
	f.busy = false
	f.irqPending = false
	f.delay = 0
	for i := range f.drives {
		f.drives[i].track = 0
		f.drives[i].motor = false
	}
}

// AttachImage inserts media into a drive.
func (f *FDC) AttachImage(driveNum int, img *diskimage.Image) {
	f.drives[driveNum&0x03].image = img
	f.drives[driveNum&0x03].track = 0
}

// DetachImage removes the media from a drive.
func (f *FDC) DetachImage(driveNum int) {
	f.drives[driveNum&0x03].image = nil
}

// MotorOn returns whether the motor of a drive is spinning.
func (f *FDC) MotorOn(driveNum int) bool {
	return f.drives[driveNum&0x03].motor
}

// Tick advances the controller by one CPU cycle. Used only for the delayed
// interrupt assertion.
func (f *FDC) Tick() {
	if f.delay > 0 {
		f.delay--
		if f.delay == 0 {
			f.raiseIRQ(f.delayST0)
		}
	}
}

func (f *FDC) raiseIRQ(st0 uint8) {
	f.irqPending = true
	f.pendingST0 = st0
	if f.dor&0x08 == 0x08 && f.irq != nil {
		f.irq(true)
	}
}

func (f *FDC) dropIRQ() {
	f.irqPending = false
	if f.irq != nil {
		f.irq(false)
	}
}

func (f *FDC) scheduleIRQ(st0 uint8) {
	f.delay = irqDelay
	f.delayST0 = st0
}

// PortList implements the bus.IODevice interface.
func (f *FDC) PortList() []uint16 {
	return []uint16{PortDOR, PortMSR, PortData, PortDIR}
}

// ReadPort implements the bus.IODevice interface.
func (f *FDC) ReadPort(port uint16, _ int) (uint8, int) {
	switch port {
	case PortDOR:
		return f.dor, 0

	case PortMSR:
		v := uint8(msrReady)
		if f.busy {
			v |= msrBusy
		}
		if len(f.result) > 0 {
			v |= msrDIO | msrBusy
		}
		if f.nonDMA {
			v |= msrNonDMA
		}
		return v, 0

	case PortData:
		if f.resultIdx < len(f.result) {
			b := f.result[f.resultIdx]
			f.resultIdx++
			if f.resultIdx == len(f.result) {
				f.result = nil
				f.resultIdx = 0
				f.busy = false
			}
			return b, 0
		}
		return 0xff, 0

	case PortDIR:
		// disk change line, never asserted
		return 0x00, 0
	}

	return 0xff, 0
}

// WritePort implements the bus.IODevice interface.
func (f *FDC) WritePort(port uint16, data uint8, _ int) int {
	switch port {
	case PortDOR:
		prev := f.dor
		f.dor = data
		for i := range f.drives {
			f.drives[i].motor = data&(0x10<<uint(i)) != 0
		}

		// leaving the reset state raises the ready-change interrupt the
		// BIOS polls for
		if prev&0x04 == 0 && data&0x04 == 0x04 {
			f.command = nil
			f.result = nil
			f.busy = false
			f.scheduleIRQ(st0ReadyChange)
		}

	case PortData:
		f.writeData(data)
	}

	return 0
}

// writeData collects command bytes and runs the command once complete.
func (f *FDC) writeData(data uint8) {
	if len(f.command) == 0 {
		n, ok := commandLength[data&0x1f]
		if !ok {
			logger.Logf("fdc", "invalid command %02x", data)
			f.result = []uint8{st0Invalid}
			return
		}
		f.cmdLen = n
		f.busy = true
	}

	f.command = append(f.command, data)
	if len(f.command) < f.cmdLen {
		return
	}

	cmd := f.command
	f.command = nil
	f.execute(cmd)
}

func (f *FDC) selectedDrive(param uint8) (int, *drive) {
	n := int(param & 0x03)
	return n, &f.drives[n]
}

func (f *FDC) execute(cmd []uint8) {
	switch cmd[0] & 0x1f {
	case 0x03:
		// specify
		f.stepRate = cmd[1] >> 4
		f.headLoad = cmd[2] >> 1
		f.nonDMA = cmd[2]&0x01 == 0x01
		f.busy = false

	case 0x04:
		f.senseDriveStatus(cmd)

	case 0x07:
		// recalibrate
		n, d := f.selectedDrive(cmd[1])
		d.track = 0
		f.busy = false
		f.scheduleIRQ(st0Normal | st0SeekEnd | uint8(n))

	case 0x08:
		f.senseInterruptStatus()

	case 0x0f:
		// seek. the head cannot step past the last cylinder of the drive
		n, d := f.selectedDrive(cmd[1])
		target := int(cmd[2])
		if d.image != nil && target >= d.image.Type.Tracks {
			target = d.image.Type.Tracks - 1
		}
		d.track = target
		f.busy = false
		f.scheduleIRQ(st0Normal | st0SeekEnd | uint8(n))

	case 0x06, 0x0c:
		f.readData(cmd)

	case 0x05, 0x09:
		f.writeDataCmd(cmd)

	case 0x02:
		f.readTrack(cmd)

	case 0x0a:
		f.readID(cmd)

	case 0x0d:
		f.formatTrack(cmd)
	}
}

func (f *FDC) senseDriveStatus(cmd []uint8) {
	n, d := f.selectedDrive(cmd[1])

	st3 := uint8(n) | st3TwoSide
	if cmd[1]&0x04 == 0x04 {
		st3 |= 0x04
	}
	if d.image != nil {
		st3 |= st3Ready
		if d.image.WriteProtected {
			st3 |= st3WriteProt
		}
	}
	if d.track == 0 {
		st3 |= st3Track0
	}

	f.result = []uint8{st3}
	f.resultIdx = 0
}

func (f *FDC) senseInterruptStatus() {
	if !f.irqPending {
		f.result = []uint8{st0Invalid}
		f.resultIdx = 0
		return
	}

	n := int(f.pendingST0 & 0x03)
	f.result = []uint8{f.pendingST0, uint8(f.drives[n].track)}
	f.resultIdx = 0
	f.dropIRQ()
}

// endTransfer builds the seven byte result phase of a transfer command and
// schedules the completion interrupt.
func (f *FDC) endTransfer(st0, st1, st2 uint8, id diskimage.CHSN) {
	f.result = []uint8{st0, st1, st2, id.C, id.H, id.S, id.N}
	f.resultIdx = 0
	f.scheduleIRQ(st0)
}

// transferError maps a media error to the ST1/ST2 bits it is reported
// with. An ID field naming the wrong cylinder sets the wrong cylinder bit;
// a corrupt ID field is a data error in ST1 without the ST2 data field bit.
func transferError(err error) (uint8, uint8) {
	switch {
	case curated.Is(err, diskimage.WriteProtected):
		return st1WriteProt, 0
	case curated.Is(err, diskimage.WrongCylinder):
		return st1NoData, st2WrongCylinder
	case curated.Is(err, diskimage.AddressCRC):
		return st1DataError, 0
	}
	return st1NoData, 0
}

// readData implements read data and read deleted data, including the
// multi-track and skip behaviours.
func (f *FDC) readData(cmd []uint8) {
	deletedCmd := cmd[0]&0x1f == 0x0c
	mt := cmd[0]&bitMT == bitMT
	sk := cmd[0]&bitSK == bitSK

	n, d := f.selectedDrive(cmd[1])
	head := int(cmd[1]>>2) & 0x01
	id := diskimage.CHSN{C: cmd[2], H: cmd[3], S: cmd[4], N: cmd[5]}
	eot := cmd[6]

	if d.image == nil {
		f.endTransfer(st0Abnormal|uint8(n), st1NoData, 0, id)
		return
	}

	var st1, st2 uint8
	transferred := 0
	notFound := 0

	for {
		sector, err := d.image.FindSector(d.track, head, id)
		if err != nil {
			// in multi-track mode a missing sector after the end of head 0
			// continues the search at the start of head 1. a second miss
			// ends the command with the partial result
			if curated.Is(err, diskimage.SectorNotFound) &&
				mt && head == 0 && transferred > 0 && notFound == 0 {
				notFound++
				head = 1
				id.H = 1
				id.S = 1
				continue
			}

			e1, e2 := transferError(err)
			f.endTransfer(st0Abnormal|uint8(n), st1|e1, st2|e2, id)
			return
		}

		// a data mark mismatch with the skip flag set means the sector is
		// stepped over without transfer
		if sector.Deleted != deletedCmd && sk {
			if !f.nextSectorID(&id, eot, mt, &head) {
				f.endTransfer(st0Normal|uint8(n), st1, st2, id)
				return
			}
			continue
		}

		if sector.Deleted != deletedCmd {
			st2 |= st2ControlMark
		}
		if sector.BadCRC {
			st1 |= st1DataError
			st2 |= st2DataErrorData
		}

		tc := false
		for _, b := range sector.Data {
			if f.dma.WriteToMemory(DMAChannel, b) {
				tc = true
				break
			}
		}
		transferred++

		if sector.BadCRC {
			f.endTransfer(st0Abnormal|uint8(n), st1, st2, id)
			return
		}
		if tc || st2&st2ControlMark == st2ControlMark {
			f.endTransfer(st0Normal|uint8(n), st1, st2, id)
			return
		}

		if !f.nextSectorID(&id, eot, mt, &head) {
			st1 |= st1EndOfCyl
			f.endTransfer(st0Abnormal|uint8(n), st1, st2, id)
			return
		}
	}
}

// nextSectorID advances the ID field to the next sector of a multi-sector
// transfer. With the multi-track flag the transfer continues on head 1
// after the end of track on head 0. Returns false at the end of the
// transfer area.
func (f *FDC) nextSectorID(id *diskimage.CHSN, eot uint8, mt bool, head *int) bool {
	if id.S < eot {
		id.S++
		return true
	}

	if mt && *head == 0 {
		*head = 1
		id.H = 1
		id.S = 1
		return true
	}

	return false
}

func (f *FDC) writeDataCmd(cmd []uint8) {
	deleted := cmd[0]&0x1f == 0x09

	n, d := f.selectedDrive(cmd[1])
	head := int(cmd[1]>>2) & 0x01
	id := diskimage.CHSN{C: cmd[2], H: cmd[3], S: cmd[4], N: cmd[5]}
	eot := cmd[6]

	if d.image == nil {
		f.endTransfer(st0Abnormal|uint8(n), st1NoData, 0, id)
		return
	}
	if d.image.WriteProtected {
		f.endTransfer(st0Abnormal|uint8(n), st1WriteProt, 0, id)
		return
	}

	for {
		size := diskimage.SectorSize(id.N)
		buf := make([]uint8, 0, size)

		tc := false
		for len(buf) < size {
			b, done := f.dma.ReadFromMemory(DMAChannel)
			buf = append(buf, b)
			if done {
				tc = true
				break
			}
		}

		// a short final sector is padded with zeroes
		for len(buf) < size {
			buf = append(buf, 0)
		}

		if err := d.image.WriteSector(d.track, head, id, buf, deleted); err != nil {
			e1, e2 := transferError(err)
			f.endTransfer(st0Abnormal|uint8(n), e1, e2, id)
			return
		}

		if tc {
			f.endTransfer(st0Normal|uint8(n), 0, 0, id)
			return
		}

		if !f.nextSectorID(&id, eot, cmd[0]&bitMT == bitMT, &head) {
			f.endTransfer(st0Abnormal|uint8(n), st1EndOfCyl, 0, id)
			return
		}
	}
}

// readTrack streams every sector of the track in physical order,
// regardless of the ID values in the command.
func (f *FDC) readTrack(cmd []uint8) {
	n, d := f.selectedDrive(cmd[1])
	head := int(cmd[1]>>2) & 0x01
	id := diskimage.CHSN{C: cmd[2], H: cmd[3], S: cmd[4], N: cmd[5]}

	if d.image == nil {
		f.endTransfer(st0Abnormal|uint8(n), st1NoData, 0, id)
		return
	}

	track, err := d.image.Track(d.track, head)
	if err != nil {
		f.endTransfer(st0Abnormal|uint8(n), st1NoData, 0, id)
		return
	}

	for _, sector := range track {
		id = sector.ID
		for _, b := range sector.Data {
			if f.dma.WriteToMemory(DMAChannel, b) {
				f.endTransfer(st0Normal|uint8(n), 0, 0, id)
				return
			}
		}
	}

	f.endTransfer(st0Normal|uint8(n), 0, 0, id)
}

// readID returns the ID field of the first sector of the current track.
func (f *FDC) readID(cmd []uint8) {
	n, d := f.selectedDrive(cmd[1])
	head := int(cmd[1]>>2) & 0x01

	if d.image == nil {
		f.endTransfer(st0Abnormal|uint8(n), st1NoData, 0, diskimage.CHSN{})
		return
	}

	track, err := d.image.Track(d.track, head)
	if err != nil || len(track) == 0 {
		f.endTransfer(st0Abnormal|uint8(n), st1NoData, 0, diskimage.CHSN{})
		return
	}

	f.endTransfer(st0Normal|uint8(n), 0, 0, track[0].ID)
}

// formatTrack rebuilds a track from the ID table supplied over DMA.
func (f *FDC) formatTrack(cmd []uint8) {
	n, d := f.selectedDrive(cmd[1])
	head := int(cmd[1]>>2) & 0x01
	sizeCode := cmd[2]
	count := int(cmd[3])
	filler := cmd[5]

	if d.image == nil {
		f.endTransfer(st0Abnormal|uint8(n), st1NoData, 0, diskimage.CHSN{})
		return
	}

	ids := make([]diskimage.CHSN, 0, count)
	for i := 0; i < count; i++ {
		var field [4]uint8
		for j := 0; j < 4; j++ {
			b, tc := f.dma.ReadFromMemory(DMAChannel)
			field[j] = b
			if tc && (i < count-1 || j < 3) {
				f.endTransfer(st0Abnormal|uint8(n), st1NoData, 0, diskimage.CHSN{})
				return
			}
		}
		ids = append(ids, diskimage.CHSN{C: field[0], H: field[1], S: field[2], N: field[3]})
	}

	if err := d.image.Format(d.track, head, ids, filler); err != nil {
		e1, e2 := transferError(err)
		f.endTransfer(st0Abnormal|uint8(n), e1, e2, diskimage.CHSN{})
		return
	}

	last := diskimage.CHSN{N: sizeCode}
	if len(ids) > 0 {
		last = ids[len(ids)-1]
	}
	f.endTransfer(st0Normal|uint8(n), 0, 0, last)
}
