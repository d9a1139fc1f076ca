package socketcan

import (
	"context"
	"os"
	"syscall"
	"time"

	"github.com/gavinwade12/obdscan/protocols/canbus"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// fdConn drives a non-blocking socket through the runtime poller.
// Reads must not be issued concurrently, and neither may writes.
type fdConn struct {
	f            *os.File
	rc           syscall.RawConn
	readTimeout  time.Duration
	writeTimeout time.Duration
}

var aLongTimeAgo = time.Unix(1, 0)

func newFDConn(fd int, name string, readTimeout, writeTimeout time.Duration) (*fdConn, error) {
	f := os.NewFile(uintptr(fd), name)
	if f == nil {
		unix.Close(fd)
		return nil, errors.Errorf("invalid descriptor %d for %s", fd, name)
	}

	rc, err := f.SyscallConn()
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, "getting raw connection")
	}

	return &fdConn{
		f:            f,
		rc:           rc,
		readTimeout:  readTimeout,
		writeTimeout: writeTimeout,
	}, nil
}

func (c *fdConn) read(ctx context.Context, b []byte) (int, error) {
	return c.transfer(ctx, "read", c.readTimeout, c.f.SetReadDeadline, c.rc.Read, unix.Read, b)
}

func (c *fdConn) write(ctx context.Context, b []byte) (int, error) {
	return c.transfer(ctx, "write", c.writeTimeout, c.f.SetWriteDeadline, c.rc.Write, unix.Write, b)
}

func (c *fdConn) transfer(
	ctx context.Context,
	op string,
	timeout time.Duration,
	setDeadline func(time.Time) error,
	wait func(func(uintptr) bool) error,
	sys func(int, []byte) (int, error),
	b []byte,
) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	// every call arms its own deadline so an earlier timeout or
	// cancellation never leaks into this one
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	if err := setDeadline(deadline); err != nil {
		return 0, errors.Wrapf(err, "setting %s deadline", op)
	}

	if ctx.Done() != nil {
		stop := make(chan struct{})
		exited := make(chan struct{})
		go func() {
			defer close(exited)
			select {
			case <-ctx.Done():
				setDeadline(aLongTimeAgo)
			case <-stop:
			}
		}()
		defer func() {
			close(stop)
			<-exited
		}()
	}

	var n int
	var opErr error
	err := wait(func(fd uintptr) bool {
		for {
			n, opErr = sys(int(fd), b)
			if opErr != unix.EINTR {
				break
			}
		}
		return opErr != unix.EAGAIN
	})
	if err != nil {
		if errors.Is(err, os.ErrDeadlineExceeded) {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return 0, ctxErr
			}
			return 0, &canbus.TimeoutError{Op: op, Timeout: timeout}
		}
		return 0, errors.Wrapf(err, "waiting for %s on %s", op, c.f.Name())
	}
	if opErr != nil {
		return 0, errors.Wrapf(opErr, "%s on %s", op, c.f.Name())
	}

	return n, nil
}

func (c *fdConn) Close() error {
	return c.f.Close()
}
