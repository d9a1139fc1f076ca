package socketcan

import (
	"context"
	"io"
	"net"

	"github.com/gavinwade12/obdscan/protocols/canbus"
	"github.com/pkg/errors"
	"go.einride.tech/can"
	"golang.org/x/sys/unix"
)

// CAN_RAW_FILTER isn't exported by x/sys.
const canRawFilter = 1

// RawConn sends and receives single frames on a CAN_RAW socket.
type RawConn struct {
	conn *fdConn
}

// DialRaw opens a raw socket on opts.Device. When filter is non-nil the
// kernel only delivers frames whose identifier falls inside it.
func DialRaw(opts Options, filter *canbus.Filter) (*RawConn, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	filters, err := rawFilters(filter)
	if err != nil {
		return nil, err
	}

	ifindex, err := interfaceIndex(opts.Device)
	if err != nil {
		return nil, err
	}

	fd, err := unix.Socket(unix.AF_CAN, unix.SOCK_RAW|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, unix.CAN_RAW)
	if err != nil {
		return nil, errors.Wrap(err, "opening raw CAN socket")
	}

	if err = unix.SetsockoptCanRawFilter(fd, unix.SOL_CAN_RAW, canRawFilter, filters); err != nil {
		unix.Close(fd)
		return nil, errors.Wrap(err, "setting CAN filter")
	}

	if err = unix.Bind(fd, &unix.SockaddrCAN{Ifindex: ifindex}); err != nil {
		unix.Close(fd)
		return nil, bindError(err, opts.Device)
	}

	conn, err := newFDConn(fd, opts.Device, opts.ReadTimeout, opts.WriteTimeout)
	if err != nil {
		return nil, err
	}

	return &RawConn{conn}, nil
}

// WriteFrame transmits a single frame.
func (c *RawConn) WriteFrame(ctx context.Context, f can.Frame) error {
	b, err := canbus.MarshalFrame(f)
	if err != nil {
		return errors.Wrap(err, "encoding frame")
	}

	n, err := c.conn.write(ctx, b)
	if err != nil {
		return err
	}
	if n != len(b) {
		return errors.Errorf("only wrote %d bytes (frame had %d bytes)", n, len(b))
	}
	return nil
}

// ReadFrame waits for the next frame accepted by the socket's filter.
func (c *RawConn) ReadFrame(ctx context.Context) (can.Frame, error) {
	b := make([]byte, canbus.FrameSize)
	n, err := c.conn.read(ctx, b)
	if err != nil {
		return can.Frame{}, err
	}
	if n == 0 {
		return can.Frame{}, io.EOF
	}
	if n != canbus.FrameSize {
		return can.Frame{}, errors.Errorf("read %d bytes, expected a %d byte frame", n, canbus.FrameSize)
	}

	return canbus.UnmarshalFrame(b)
}

func (c *RawConn) Close() error {
	return c.conn.Close()
}

// rawFilters expands filter into one exact-match kernel entry per identifier.
func rawFilters(filter *canbus.Filter) ([]unix.CanFilter, error) {
	if filter == nil {
		return []unix.CanFilter{{Id: 0, Mask: 0}}, nil
	}

	ids := filter.IDs()
	if len(ids) == 0 {
		return nil, errors.Errorf("empty CAN filter %s..%s", filter.First, filter.Last)
	}
	if len(ids) > unix.CAN_RAW_FILTER_MAX {
		return nil, errors.Errorf("CAN filter covers %d identifiers, at most %d are supported",
			len(ids), unix.CAN_RAW_FILTER_MAX)
	}

	filters := make([]unix.CanFilter, len(ids))
	for i, id := range ids {
		if id.IsExtended() {
			filters[i] = unix.CanFilter{
				Id:   id.Value() | unix.CAN_EFF_FLAG,
				Mask: unix.CAN_EFF_FLAG | unix.CAN_RTR_FLAG | unix.CAN_EFF_MASK,
			}
		} else {
			filters[i] = unix.CanFilter{
				Id:   id.Value(),
				Mask: unix.CAN_EFF_FLAG | unix.CAN_RTR_FLAG | unix.CAN_SFF_MASK,
			}
		}
	}
	return filters, nil
}

func interfaceIndex(device string) (int, error) {
	iface, err := net.InterfaceByName(device)
	if err != nil {
		return 0, errors.Wrapf(canbus.ErrSocketNotFound, "looking up %s: %v", device, err)
	}
	return iface.Index, nil
}

func bindError(err error, device string) error {
	if errors.Is(err, unix.ENODEV) {
		return errors.Wrapf(canbus.ErrSocketNotFound, "binding to %s", device)
	}
	return errors.Wrapf(err, "binding to %s", device)
}
