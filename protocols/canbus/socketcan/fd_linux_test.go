package socketcan

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gavinwade12/obdscan/protocols/canbus"
	"golang.org/x/sys/unix"
)

// newTestPair returns two connected packet sockets standing in for a CAN
// socket and its peer.
func newTestPair(t *testing.T, readTimeout, writeTimeout time.Duration) (*fdConn, *fdConn) {
	t.Helper()

	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_SEQPACKET|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		t.Fatalf("creating socket pair: %v", err)
	}

	a, err := newFDConn(fds[0], "test-a", readTimeout, writeTimeout)
	if err != nil {
		t.Fatal(err)
	}
	b, err := newFDConn(fds[1], "test-b", readTimeout, writeTimeout)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		a.Close()
		b.Close()
	})
	return a, b
}

func TestFDConn(t *testing.T) {
	t.Run("RoundTrip", func(t *testing.T) {
		a, b := newTestPair(t, time.Second, time.Second)
		ctx := context.Background()

		msg := []byte{0x01, 0x00}
		if _, err := a.write(ctx, msg); err != nil {
			t.Fatal(err)
		}

		buf := make([]byte, 16)
		n, err := b.read(ctx, buf)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(buf[:n], msg) {
			t.Fatalf("want % x. got: % x.", msg, buf[:n])
		}
	})

	t.Run("ReadTimesOutAndRecovers", func(t *testing.T) {
		a, b := newTestPair(t, 50*time.Millisecond, time.Second)
		ctx := context.Background()

		start := time.Now()
		_, err := b.read(ctx, make([]byte, 16))
		var te *canbus.TimeoutError
		if !errors.As(err, &te) {
			t.Fatalf("want TimeoutError. got: %v.", err)
		}
		if te.Op != "read" || te.Timeout != 50*time.Millisecond {
			t.Fatalf("unexpected timeout details: %+v", te)
		}
		if !errors.Is(err, canbus.ErrTimeout) {
			t.Fatal("timeout error doesn't match ErrTimeout")
		}
		if time.Since(start) < 50*time.Millisecond {
			t.Fatal("read returned before its timeout")
		}

		// the descriptor stays usable after a timeout
		if _, err = a.write(ctx, []byte{0xaa}); err != nil {
			t.Fatal(err)
		}
		buf := make([]byte, 16)
		n, err := b.read(ctx, buf)
		if err != nil {
			t.Fatalf("read after timeout failed: %v", err)
		}
		if n != 1 || buf[0] != 0xaa {
			t.Fatalf("unexpected data after timeout: % x", buf[:n])
		}
	})

	t.Run("ContextCancel", func(t *testing.T) {
		_, b := newTestPair(t, 0, 0)

		ctx, cancel := context.WithCancel(context.Background())
		time.AfterFunc(20*time.Millisecond, cancel)

		_, err := b.read(ctx, make([]byte, 16))
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("want context.Canceled. got: %v.", err)
		}
	})

	t.Run("ContextDeadline", func(t *testing.T) {
		_, b := newTestPair(t, time.Second, time.Second)

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		_, err := b.read(ctx, make([]byte, 16))
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("want context.DeadlineExceeded. got: %v.", err)
		}
	})

	t.Run("AlreadyCancelled", func(t *testing.T) {
		a, _ := newTestPair(t, time.Second, time.Second)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if _, err := a.write(ctx, []byte{0x01}); !errors.Is(err, context.Canceled) {
			t.Fatalf("want context.Canceled. got: %v.", err)
		}
	})

	t.Run("ClosedDescriptor", func(t *testing.T) {
		a, _ := newTestPair(t, time.Second, time.Second)
		a.Close()

		_, err := a.read(context.Background(), make([]byte, 16))
		if err == nil {
			t.Fatal("expected error")
		}
		if errors.Is(err, canbus.ErrTimeout) {
			t.Fatal("closed descriptor reported as a timeout")
		}
	})
}

func TestRawConnFrames(t *testing.T) {
	a, b := newTestPair(t, time.Second, time.Second)
	tx, rx := &RawConn{a}, &RawConn{b}
	ctx := context.Background()

	f, err := canbus.NewFrame(canbus.MustExtendedID(0x18db33f1), []byte{0x02, 0x01, 0x20})
	if err != nil {
		t.Fatal(err)
	}
	if err = tx.WriteFrame(ctx, f); err != nil {
		t.Fatal(err)
	}

	got, err := rx.ReadFrame(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got != f {
		t.Fatalf("want %+v. got: %+v.", f, got)
	}
}

func TestISOTPConnMessages(t *testing.T) {
	a, b := newTestPair(t, time.Second, time.Second)
	tx := &ISOTPConn{conn: a}
	rx := &ISOTPConn{conn: b}
	ctx := context.Background()

	msg := []byte{0x41, 0x00, 0xbe, 0x1f, 0xa8, 0x13}
	if err := tx.Write(ctx, msg); err != nil {
		t.Fatal(err)
	}

	got, err := rx.Read(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, msg) {
		t.Fatalf("want % x. got: % x.", msg, got)
	}

	if err = tx.Write(ctx, make([]byte, isotpMaxMessage+1)); err == nil {
		t.Fatal("expected oversized message to be rejected")
	}
}
