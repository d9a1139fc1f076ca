package canbus

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind distinguishes 11-bit and 29-bit CAN identifiers.
type Kind uint8

const (
	// Standard is an 11-bit identifier.
	Standard Kind = iota + 1
	// Extended is a 29-bit identifier.
	Extended
)

const (
	// MaxStandardID is the largest valid 11-bit identifier.
	MaxStandardID uint32 = 0x7ff
	// MaxExtendedID is the largest valid 29-bit identifier.
	MaxExtendedID uint32 = 0x1fffffff
)

// ErrInvalidID is returned when an identifier value doesn't fit its kind.
var ErrInvalidID = errors.New("invalid CAN identifier")

func (k Kind) String() string {
	switch k {
	case Standard:
		return "standard"
	case Extended:
		return "extended"
	}
	return "unknown"
}

// ID is a CAN identifier tagged with its kind. The zero ID is unset
// and never addresses anything.
type ID struct {
	kind  Kind
	value uint32
}

// NewStandardID returns an 11-bit identifier.
func NewStandardID(v uint32) (ID, error) {
	if v > MaxStandardID {
		return ID{}, errors.Wrapf(ErrInvalidID, "0x%x exceeds 0x%x", v, MaxStandardID)
	}
	return ID{Standard, v}, nil
}

// NewExtendedID returns a 29-bit identifier.
func NewExtendedID(v uint32) (ID, error) {
	if v > MaxExtendedID {
		return ID{}, errors.Wrapf(ErrInvalidID, "0x%x exceeds 0x%x", v, MaxExtendedID)
	}
	return ID{Extended, v}, nil
}

// MustStandardID is like NewStandardID but panics on an invalid value.
func MustStandardID(v uint32) ID {
	id, err := NewStandardID(v)
	if err != nil {
		panic(err)
	}
	return id
}

// MustExtendedID is like NewExtendedID but panics on an invalid value.
func MustExtendedID(v uint32) ID {
	id, err := NewExtendedID(v)
	if err != nil {
		panic(err)
	}
	return id
}

func (id ID) Kind() Kind       { return id.kind }
func (id ID) Value() uint32    { return id.value }
func (id ID) IsExtended() bool { return id.kind == Extended }
func (id ID) IsZero() bool     { return id.kind == 0 }

// Less orders standard identifiers before extended ones, then by value.
func (id ID) Less(o ID) bool {
	if id.kind != o.kind {
		return id.kind < o.kind
	}
	return id.value < o.value
}

func (id ID) String() string {
	switch id.kind {
	case Standard:
		return fmt.Sprintf("0x%03X", id.value)
	case Extended:
		return fmt.Sprintf("0x%08X", id.value)
	}
	return "<unset>"
}
