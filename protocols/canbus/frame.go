package canbus

import (
	"encoding/binary"

	"github.com/pkg/errors"
	"go.einride.tech/can"
)

const (
	// FrameSize is the size of a classic Linux struct can_frame.
	FrameSize = 16
	// MaxFrameLength is the largest classic CAN payload.
	MaxFrameLength = 8

	effFlag uint32 = 0x80000000
	rtrFlag uint32 = 0x40000000
)

// ErrInvalidLength is returned for frames declaring more than 8 data bytes.
var ErrInvalidLength = errors.New("invalid CAN frame length")

// NewFrame builds a data frame carrying payload to id.
func NewFrame(id ID, payload []byte) (can.Frame, error) {
	if id.IsZero() {
		return can.Frame{}, errors.Wrap(ErrInvalidID, "frame identifier is unset")
	}
	if len(payload) > MaxFrameLength {
		return can.Frame{}, errors.Wrapf(ErrInvalidLength, "%d bytes", len(payload))
	}

	f := can.Frame{
		ID:         id.value,
		Length:     uint8(len(payload)),
		IsExtended: id.IsExtended(),
	}
	copy(f.Data[:], payload)
	return f, nil
}

// FrameID returns the typed identifier of f.
func FrameID(f can.Frame) (ID, error) {
	if f.IsExtended {
		return NewExtendedID(f.ID)
	}
	return NewStandardID(f.ID)
}

// Payload returns the declared data bytes of f.
func Payload(f can.Frame) []byte {
	n := int(f.Length)
	if n > MaxFrameLength {
		n = MaxFrameLength
	}
	return f.Data[:n]
}

// MarshalFrame encodes f into the struct can_frame layout used by raw
// SocketCAN sockets. Bytes past the declared length are zeroed.
func MarshalFrame(f can.Frame) ([]byte, error) {
	if _, err := FrameID(f); err != nil {
		return nil, err
	}
	if f.Length > MaxFrameLength {
		return nil, errors.Wrapf(ErrInvalidLength, "%d bytes", f.Length)
	}

	b := make([]byte, FrameSize)
	id := f.ID
	if f.IsExtended {
		id |= effFlag
	}
	if f.IsRemote {
		id |= rtrFlag
	}
	binary.NativeEndian.PutUint32(b[0:4], id)
	b[4] = f.Length
	copy(b[8:], f.Data[:f.Length])
	return b, nil
}

// UnmarshalFrame decodes a struct can_frame.
func UnmarshalFrame(b []byte) (can.Frame, error) {
	if len(b) < FrameSize {
		return can.Frame{}, errors.Errorf("need %d bytes for a CAN frame, got %d", FrameSize, len(b))
	}

	raw := binary.NativeEndian.Uint32(b[0:4])
	f := can.Frame{
		IsExtended: raw&effFlag != 0,
		IsRemote:   raw&rtrFlag != 0,
		Length:     b[4],
	}
	if f.IsExtended {
		f.ID = raw & MaxExtendedID
	} else {
		f.ID = raw & MaxStandardID
	}
	if f.Length > MaxFrameLength {
		return can.Frame{}, errors.Wrapf(ErrInvalidLength, "%d bytes", f.Length)
	}
	copy(f.Data[:], b[8:8+int(f.Length)])
	return f, nil
}
