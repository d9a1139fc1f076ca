//go:build !linux

package socketcan

import (
	"github.com/gavinwade12/obdscan/protocols/canbus"
	"github.com/pkg/errors"
)

// ErrUnsupported is returned on platforms without SocketCAN.
var ErrUnsupported = errors.New("SocketCAN is only available on Linux")

func dialRaw(opts Options, filter *canbus.Filter) (canbus.FrameConn, error) {
	return nil, ErrUnsupported
}

func dialISOTP(opts Options, source, destination canbus.ID) (canbus.Channel, error) {
	return nil, ErrUnsupported
}
