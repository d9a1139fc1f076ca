package socketcan

import (
	"context"
	"encoding/binary"
	"io"

	"github.com/gavinwade12/obdscan/protocols/canbus"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// ISO-TP socket options from linux/can/isotp.h.
const (
	solCANISOTP       = unix.SOL_CAN_BASE + unix.CAN_ISOTP
	canISOTPOpts      = 1
	canISOTPTxPadding = 0x004

	// isotpMaxMessage is the largest payload a classic ISO-TP message can carry.
	isotpMaxMessage = 4095
)

// isotpOptions mirrors struct can_isotp_options.
type isotpOptions struct {
	flags        uint32
	frameTxTime  uint32
	extAddress   byte
	txPadContent byte
	rxPadContent byte
	rxExtAddress byte
}

func (o isotpOptions) marshal() []byte {
	b := make([]byte, 12)
	binary.NativeEndian.PutUint32(b[0:4], o.flags)
	binary.NativeEndian.PutUint32(b[4:8], o.frameTxTime)
	b[8] = o.extAddress
	b[9] = o.txPadContent
	b[10] = o.rxPadContent
	b[11] = o.rxExtAddress
	return b
}

// ISOTPConn exchanges whole messages with a single peer. Frames are
// received on source and transmitted to destination.
type ISOTPConn struct {
	conn        *fdConn
	source      canbus.ID
	destination canbus.ID
}

// DialISOTP opens an ISO-TP socket on opts.Device bound to the given
// identifier pair.
func DialISOTP(opts Options, source, destination canbus.ID) (*ISOTPConn, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if source.IsZero() {
		return nil, &canbus.MissingFieldError{Field: "source"}
	}
	if destination.IsZero() {
		return nil, &canbus.MissingFieldError{Field: "destination"}
	}

	ifindex, err := interfaceIndex(opts.Device)
	if err != nil {
		return nil, err
	}

	fd, err := unix.Socket(unix.AF_CAN, unix.SOCK_DGRAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, unix.CAN_ISOTP)
	if err != nil {
		return nil, errors.Wrap(err, "opening ISO-TP socket")
	}

	if opts.TxPadding {
		o := isotpOptions{flags: canISOTPTxPadding, txPadContent: opts.PadByte}
		if err = unix.SetsockoptString(fd, solCANISOTP, canISOTPOpts, string(o.marshal())); err != nil {
			unix.Close(fd)
			return nil, errors.Wrap(err, "setting ISO-TP options")
		}
	}

	addr := &unix.SockaddrCAN{
		Ifindex: ifindex,
		RxID:    isotpAddress(source),
		TxID:    isotpAddress(destination),
	}
	if err = unix.Bind(fd, addr); err != nil {
		unix.Close(fd)
		return nil, bindError(err, opts.Device)
	}

	conn, err := newFDConn(fd, opts.Device, opts.ReadTimeout, opts.WriteTimeout)
	if err != nil {
		return nil, err
	}

	return &ISOTPConn{conn: conn, source: source, destination: destination}, nil
}

func isotpAddress(id canbus.ID) uint32 {
	if id.IsExtended() {
		return id.Value() | unix.CAN_EFF_FLAG
	}
	return id.Value()
}

// Write sends one message, segmenting it as needed.
func (c *ISOTPConn) Write(ctx context.Context, message []byte) error {
	if len(message) > isotpMaxMessage {
		return errors.Errorf("message of %d bytes exceeds %d", len(message), isotpMaxMessage)
	}

	n, err := c.conn.write(ctx, message)
	if err != nil {
		return err
	}
	if n != len(message) {
		return errors.Errorf("only wrote %d bytes (message had %d bytes)", n, len(message))
	}
	return nil
}

// Read waits for the next fully reassembled message.
func (c *ISOTPConn) Read(ctx context.Context) ([]byte, error) {
	b := make([]byte, isotpMaxMessage+1)
	n, err := c.conn.read(ctx, b)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, io.EOF
	}
	return b[:n], nil
}

func (c *ISOTPConn) Close() error {
	return c.conn.Close()
}
