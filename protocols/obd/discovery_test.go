package obd_test

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/gavinwade12/obdscan/protocols/canbus"
	"github.com/gavinwade12/obdscan/protocols/obd"
	"go.einride.tech/can"
)

const testWindow = 50 * time.Millisecond

// testFrameConn replays scripted read results and then blocks until the
// context is done.
type testFrameConn struct {
	reads []func() (can.Frame, error)
}

func (c *testFrameConn) WriteFrame(ctx context.Context, f can.Frame) error { return nil }

func (c *testFrameConn) ReadFrame(ctx context.Context) (can.Frame, error) {
	if len(c.reads) > 0 {
		r := c.reads[0]
		c.reads = c.reads[1:]
		return r()
	}
	<-ctx.Done()
	return can.Frame{}, ctx.Err()
}

func (c *testFrameConn) Close() error { return nil }

type testBus struct {
	raw     *testFrameConn
	rawErr  error
	channel *testChannel
}

func (b *testBus) OpenRaw(filter *canbus.Filter) (canbus.FrameConn, error) {
	if b.rawErr != nil {
		return nil, b.rawErr
	}
	return b.raw, nil
}

func (b *testBus) OpenChannel(source, destination canbus.ID) (canbus.Channel, error) {
	return b.channel, nil
}

func frameFrom(t *testing.T, id canbus.ID) func() (can.Frame, error) {
	t.Helper()
	f, err := canbus.NewFrame(id, []byte{0x06, 0x41, 0x00, 0x80, 0x00, 0x00, 0x00, 0x55})
	if err != nil {
		t.Fatal(err)
	}
	return func() (can.Frame, error) { return f, nil }
}

func timeoutRead() (can.Frame, error) {
	return can.Frame{}, &canbus.TimeoutError{Op: "read", Timeout: 10 * time.Millisecond}
}

func sortedIDs(ids []canbus.ID) []canbus.ID {
	out := append([]canbus.ID(nil), ids...)
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

func TestDiscoveryEndToEnd(t *testing.T) {
	engine := []obd.PID{0x01, 0x04, 0x05, 0x0c, 0x0d, 0x21, 0x2f}
	transmission := []obd.PID{0x01, 0x0d, 0x1c, 0x30}

	bus := obd.NewFakeBus(obd.Standard,
		obd.FakeECU{ResponseID: canbus.MustStandardID(0x7e8), PIDs: engine},
		obd.FakeECU{ResponseID: canbus.MustStandardID(0x7ea), PIDs: transmission},
	)
	d := obd.NewDiscoverer(bus, obd.Standard, obd.WithListenWindow(testWindow))

	result, err := d.QueryAvailablePIDs(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	want := obd.Result{
		canbus.MustStandardID(0x7e8): engine,
		canbus.MustStandardID(0x7ea): transmission,
	}
	if !reflect.DeepEqual(result, want) {
		t.Fatalf("want %v. got: %v.", want, result)
	}

	broadcasts := bus.Broadcasts()
	if len(broadcasts) != 1 {
		t.Fatalf("want a single broadcast. got: %d.", len(broadcasts))
	}
	if id, _ := canbus.FrameID(broadcasts[0]); id != canbus.MustStandardID(0x7df) {
		t.Fatalf("want broadcast to 0x7DF. got: %s.", id)
	}
	wantPayload := []byte{0x02, 0x01, 0x00, 0xcc, 0xcc, 0xcc, 0xcc, 0xcc}
	if got := canbus.Payload(broadcasts[0]); !reflect.DeepEqual(got, wantPayload) {
		t.Fatalf("want broadcast payload % x. got: % x.", wantPayload, got)
	}

	wantChannels := []canbus.ID{canbus.MustStandardID(0x7e0), canbus.MustStandardID(0x7e2)}
	if got := sortedIDs(bus.Channels()); !reflect.DeepEqual(got, wantChannels) {
		t.Fatalf("want channels to %v. got: %v.", wantChannels, got)
	}

	if ecus := result.ECUs(); !reflect.DeepEqual(ecus, []canbus.ID{
		canbus.MustStandardID(0x7e8), canbus.MustStandardID(0x7ea),
	}) {
		t.Fatalf("unexpected ECU order: %v", ecus)
	}
}

func TestDiscoveryExtended(t *testing.T) {
	resp := canbus.MustExtendedID(0x18daf101)
	bus := obd.NewFakeBus(obd.Extended, obd.FakeECU{ResponseID: resp, PIDs: []obd.PID{0x0c}})
	d := obd.NewDiscoverer(bus, obd.Extended,
		obd.WithListenWindow(testWindow), obd.WithPadding(false, 0))

	result, err := d.QueryAvailablePIDs(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(result[resp], []obd.PID{0x0c}) {
		t.Fatalf("unexpected result: %v", result)
	}

	if got := bus.Channels(); len(got) != 1 || got[0] != canbus.MustExtendedID(0x18da01f1) {
		t.Fatalf("want a channel to 0x18DA01F1. got: %v.", got)
	}
	b := bus.Broadcasts()
	if len(b) != 1 || !b[0].IsExtended || b[0].ID != 0x18db33f1 || b[0].Length != 3 {
		t.Fatalf("unexpected broadcast: %+v", b)
	}
}

func TestDiscoveryNoResponders(t *testing.T) {
	bus := obd.NewFakeBus(obd.Standard)
	d := obd.NewDiscoverer(bus, obd.Standard, obd.WithListenWindow(testWindow))

	result, err := d.QueryAvailablePIDs(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if result == nil || len(result) != 0 {
		t.Fatalf("want an empty result. got: %v.", result)
	}
	if len(bus.Channels()) != 0 {
		t.Fatal("no channel should be opened without responders")
	}
}

func TestDiscoveryTimeout(t *testing.T) {
	bus := obd.NewFakeBus(obd.Standard,
		obd.FakeECU{ResponseID: canbus.MustStandardID(0x7e8), PIDs: []obd.PID{0x0c}, Silent: true},
	)
	d := obd.NewDiscoverer(bus, obd.Standard, obd.WithListenWindow(testWindow))

	done := make(chan error, 1)
	go func() {
		_, err := d.QueryAvailablePIDs(context.Background())
		done <- err
	}()

	select {
	case err := <-done:
		var te *canbus.TimeoutError
		if !errors.As(err, &te) {
			t.Fatalf("want TimeoutError. got: %v.", err)
		}
		if !strings.Contains(err.Error(), "querying ECU 0x7E8") {
			t.Fatalf("error doesn't name the ECU: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("discovery hung on an unanswered request")
	}
}

func TestDiscoverECUs(t *testing.T) {
	t.Run("KeepsListeningAfterReadTimeouts", func(t *testing.T) {
		bus := &testBus{raw: &testFrameConn{reads: []func() (can.Frame, error){
			timeoutRead,
			frameFrom(t, canbus.MustStandardID(0x7e9)),
			timeoutRead,
			frameFrom(t, canbus.MustStandardID(0x7e8)),
			frameFrom(t, canbus.MustStandardID(0x7e9)),
		}}}
		d := obd.NewDiscoverer(bus, obd.Standard, obd.WithListenWindow(testWindow))

		ecus, err := d.DiscoverECUs(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		want := []canbus.ID{canbus.MustStandardID(0x7e9), canbus.MustStandardID(0x7e8)}
		if !reflect.DeepEqual(ecus, want) {
			t.Fatalf("want %v. got: %v.", want, ecus)
		}
	})

	t.Run("UnexpectedResponder", func(t *testing.T) {
		bus := &testBus{raw: &testFrameConn{reads: []func() (can.Frame, error){
			frameFrom(t, canbus.MustStandardID(0x7e0)),
		}}}
		d := obd.NewDiscoverer(bus, obd.Standard, obd.WithListenWindow(testWindow))

		if _, err := d.DiscoverECUs(context.Background()); !errors.Is(err, obd.ErrUnexpectedResponder) {
			t.Fatalf("want ErrUnexpectedResponder. got: %v.", err)
		}
	})

	t.Run("ReadError", func(t *testing.T) {
		boom := errors.New("bus off")
		bus := &testBus{raw: &testFrameConn{reads: []func() (can.Frame, error){
			func() (can.Frame, error) { return can.Frame{}, boom },
		}}}
		d := obd.NewDiscoverer(bus, obd.Standard, obd.WithListenWindow(testWindow))

		if _, err := d.DiscoverECUs(context.Background()); !errors.Is(err, boom) {
			t.Fatalf("want read error. got: %v.", err)
		}
	})

	t.Run("OpenError", func(t *testing.T) {
		bus := &testBus{rawErr: canbus.ErrSocketNotFound}
		d := obd.NewDiscoverer(bus, obd.Standard)

		if _, err := d.QueryAvailablePIDs(context.Background()); !errors.Is(err, canbus.ErrSocketNotFound) {
			t.Fatalf("want ErrSocketNotFound. got: %v.", err)
		}
	})

	t.Run("Cancelled", func(t *testing.T) {
		bus := &testBus{raw: &testFrameConn{}}
		d := obd.NewDiscoverer(bus, obd.Standard, obd.WithListenWindow(time.Minute))

		ctx, cancel := context.WithCancel(context.Background())
		time.AfterFunc(20*time.Millisecond, cancel)

		if _, err := d.DiscoverECUs(ctx); !errors.Is(err, context.Canceled) {
			t.Fatalf("want context.Canceled. got: %v.", err)
		}
	})
}

func TestQueryECU(t *testing.T) {
	t.Run("ClosesChannel", func(t *testing.T) {
		ch := &testChannel{responses: [][]byte{{0x41, 0x00, 0x00, 0x10, 0x00, 0x00}}}
		d := obd.NewDiscoverer(&testBus{channel: ch}, obd.Standard)

		pids, err := d.QueryECU(context.Background(), canbus.MustStandardID(0x7e8))
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(pids, []obd.PID{0x0c}) {
			t.Fatalf("want [0x0C]. got: %v.", pids)
		}
		if !ch.closed {
			t.Fatal("channel was left open")
		}
	})

	t.Run("RejectsNonResponseID", func(t *testing.T) {
		d := obd.NewDiscoverer(&testBus{}, obd.Standard)
		if _, err := d.QueryECU(context.Background(), canbus.MustStandardID(0x7df)); !errors.Is(err, obd.ErrUnexpectedResponder) {
			t.Fatalf("want ErrUnexpectedResponder. got: %v.", err)
		}
	})

	t.Run("InvalidResponseIsFatal", func(t *testing.T) {
		bus := &testBus{
			raw: &testFrameConn{reads: []func() (can.Frame, error){
				frameFrom(t, canbus.MustStandardID(0x7e8)),
			}},
			channel: &testChannel{responses: [][]byte{{0x41, 0x00, 0x00}}},
		}
		d := obd.NewDiscoverer(bus, obd.Standard, obd.WithListenWindow(testWindow))

		result, err := d.QueryAvailablePIDs(context.Background())
		if !errors.Is(err, obd.ErrInvalidResponse) {
			t.Fatalf("want ErrInvalidResponse. got: %v.", err)
		}
		if result != nil {
			t.Fatalf("want no partial result. got: %v.", result)
		}
	})
}

func TestFakeECUGroupBoundary(t *testing.T) {
	resp := canbus.MustStandardID(0x7e8)
	bus := obd.NewFakeBus(obd.Standard, obd.FakeECU{ResponseID: resp, PIDs: []obd.PID{0x01, 0x20}})
	d := obd.NewDiscoverer(bus, obd.Standard)

	pids, err := d.QueryECU(context.Background(), resp)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(pids, []obd.PID{0x01}) {
		t.Fatalf("want [0x01]. got: %v.", pids)
	}

	want := [][]byte{{0x01, 0x00}, {0x01, 0x20}}
	if got := bus.Requests(); !reflect.DeepEqual(got, want) {
		t.Fatalf("want the boundary PID to continue into the next group %v. got: %v.", want, got)
	}
}
