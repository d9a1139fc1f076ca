package obd

import (
	"encoding/binary"
	"fmt"

	"github.com/pkg/errors"
)

// PID identifies a single value available through the current data service.
type PID byte

func (p PID) String() string {
	return fmt.Sprintf("0x%02X", byte(p))
}

// Name returns the catalogue name of the PID, or an empty string when unknown.
func (p PID) Name() string {
	return Parameters[p].Name
}

const (
	// pidGroupSize is the number of PIDs covered by one availability bitmap.
	pidGroupSize = 32
	// lastPIDGroup is the final offset whose group fits into a single byte.
	lastPIDGroup    byte = 0xe0
	continuationBit      = 1
)

// AvailablePIDDecoder walks the availability bitmaps of one ECU. It
// starts out waiting on offset 0x00; the zero value is ready to use.
type AvailablePIDDecoder struct {
	offset byte
	done   bool
	pids   []PID
}

// NextQuery returns the offset to request next. It reports false once
// the last bitmap has been integrated.
func (d *AvailablePIDDecoder) NextQuery() (byte, bool) {
	if d.done {
		return 0, false
	}
	return d.offset, true
}

// Integrate records a validated bitmap for offset. Bits are read MSB
// first; the lowest bit of the last byte requests the next group.
func (d *AvailablePIDDecoder) Integrate(offset byte, bitmap [4]byte) error {
	if d.done {
		return errors.Wrapf(ErrUnexpectedOffset, "got 0x%02X after the last group", offset)
	}
	if offset != d.offset {
		return errors.Wrapf(ErrUnexpectedOffset, "got 0x%02X, awaiting 0x%02X", offset, d.offset)
	}

	bits := binary.BigEndian.Uint32(bitmap[:])
	for b := 0; b < pidGroupSize-1; b++ {
		if bits&(1<<(pidGroupSize-1-b)) != 0 {
			d.pids = append(d.pids, PID(int(offset)+b+1))
		}
	}

	if bits&continuationBit == 0 || offset >= lastPIDGroup {
		d.done = true
		return nil
	}
	d.offset += pidGroupSize
	return nil
}

// Done reports whether the decoder has seen its last group.
func (d *AvailablePIDDecoder) Done() bool {
	return d.done
}

// PIDs returns every supported PID integrated so far in ascending order.
func (d *AvailablePIDDecoder) PIDs() []PID {
	pids := make([]PID, len(d.pids))
	copy(pids, d.pids)
	return pids
}
