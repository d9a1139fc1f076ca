// Package socketcan opens raw and ISO-TP sockets on Linux SocketCAN
// devices and drives them through the runtime network poller.
package socketcan

import (
	"time"

	"github.com/gavinwade12/obdscan/protocols/canbus"
	"github.com/pkg/errors"
)

const (
	// DefaultReadTimeout bounds a single read on a socket.
	DefaultReadTimeout = 2 * time.Second
	// DefaultWriteTimeout bounds a single write on a socket.
	DefaultWriteTimeout = 2 * time.Second
	// DefaultPadByte fills unused bytes of transmitted ISO-TP frames.
	DefaultPadByte byte = 0xcc
)

// Options configures every socket opened on a device. A zero timeout
// disables the limit for that direction.
type Options struct {
	Device       string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// TxPadding pads transmitted ISO-TP frames to 8 bytes with PadByte.
	TxPadding bool
	PadByte   byte
}

// DefaultOptions returns the options used when nothing else is configured.
func DefaultOptions(device string) Options {
	return Options{
		Device:       device,
		ReadTimeout:  DefaultReadTimeout,
		WriteTimeout: DefaultWriteTimeout,
		TxPadding:    true,
		PadByte:      DefaultPadByte,
	}
}

// Validate checks that the options can open a socket.
func (o Options) Validate() error {
	if o.Device == "" {
		return &canbus.MissingFieldError{Field: "device"}
	}
	if o.ReadTimeout < 0 {
		return errors.Errorf("read timeout must not be negative, got %s", o.ReadTimeout)
	}
	if o.WriteTimeout < 0 {
		return errors.Errorf("write timeout must not be negative, got %s", o.WriteTimeout)
	}
	return nil
}
