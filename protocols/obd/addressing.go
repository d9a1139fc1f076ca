package obd

import (
	"strings"

	"github.com/gavinwade12/obdscan/protocols/canbus"
	"github.com/pkg/errors"
)

// Addressing selects between 11-bit and 29-bit diagnostic identifiers.
type Addressing uint8

const (
	Standard Addressing = iota
	Extended
)

var (
	standardBroadcast     = canbus.MustStandardID(0x7df)
	standardResponseFirst = canbus.MustStandardID(0x7e8)
	standardResponseLast  = canbus.MustStandardID(0x7ef)

	extendedBroadcast     = canbus.MustExtendedID(0x18db33f1)
	extendedResponseFirst = canbus.MustExtendedID(0x18daf101)
	extendedResponseLast  = canbus.MustExtendedID(0x18daf108)
)

// standardOffset separates a standard response identifier from its request identifier.
const standardOffset = 8

// ParseAddressing parses "standard" or "extended".
func ParseAddressing(s string) (Addressing, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "standard", "11bit", "11-bit":
		return Standard, nil
	case "extended", "29bit", "29-bit":
		return Extended, nil
	}
	return Standard, errors.Errorf("unknown addressing mode '%s'", s)
}

func (a Addressing) String() string {
	if a == Extended {
		return "extended"
	}
	return "standard"
}

// BroadcastAddress is the functional request identifier every ECU listens on.
func (a Addressing) BroadcastAddress() canbus.ID {
	if a == Extended {
		return extendedBroadcast
	}
	return standardBroadcast
}

// ResponseFilter covers every identifier an ECU may answer from.
func (a Addressing) ResponseFilter() canbus.Filter {
	if a == Extended {
		return canbus.Filter{First: extendedResponseFirst, Last: extendedResponseLast}
	}
	return canbus.Filter{First: standardResponseFirst, Last: standardResponseLast}
}

// RequestFromResponse returns the physical request identifier of the ECU
// answering from id. It reports false when id isn't a response identifier.
func (a Addressing) RequestFromResponse(id canbus.ID) (canbus.ID, bool) {
	if !a.ResponseFilter().Match(id) {
		return canbus.ID{}, false
	}
	if a == Extended {
		return canbus.MustExtendedID(swapLowBytes(id.Value())), true
	}
	return canbus.MustStandardID(id.Value() - standardOffset), true
}

// ResponseFromRequest is the inverse of RequestFromResponse.
func (a Addressing) ResponseFromRequest(id canbus.ID) (canbus.ID, bool) {
	var resp canbus.ID
	switch {
	case a == Extended && id.IsExtended():
		resp = canbus.MustExtendedID(swapLowBytes(id.Value()))
	case a == Standard && id.Kind() == canbus.Standard && id.Value()+standardOffset <= canbus.MaxStandardID:
		resp = canbus.MustStandardID(id.Value() + standardOffset)
	default:
		return canbus.ID{}, false
	}

	if !a.ResponseFilter().Match(resp) {
		return canbus.ID{}, false
	}
	return resp, true
}

// swapLowBytes exchanges the target and source address bytes of a
// normal fixed 29-bit identifier.
func swapLowBytes(v uint32) uint32 {
	return v&0xffff0000 | (v&0xff00)>>8 | (v&0xff)<<8
}
