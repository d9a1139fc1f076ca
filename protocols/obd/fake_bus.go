package obd

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/gavinwade12/obdscan/protocols/canbus"
	"go.einride.tech/can"
)

// FakeECU is an ECU simulated by a FakeBus. PIDs on a group boundary
// (0x20, 0x40, ...) are only reported as the continuation bit of the
// group before them.
type FakeECU struct {
	ResponseID canbus.ID
	PIDs       []PID
	// Silent ECUs answer the broadcast but never a physical request.
	Silent bool
}

// FakeBus is a canbus.Bus that isn't connected to a real device. Its
// ECUs answer availability requests from their configured PIDs.
type FakeBus struct {
	addressing  Addressing
	ecus        []FakeECU
	readTimeout time.Duration

	mu         sync.Mutex
	broadcasts []can.Frame
	channels   []canbus.ID
	requests   [][]byte
}

// fakeReadTimeout is reported by reads that never get an answer.
const fakeReadTimeout = 2 * time.Second

// NewFakeBus returns a FakeBus with the given ECUs.
func NewFakeBus(addressing Addressing, ecus ...FakeECU) *FakeBus {
	sorted := make([]FakeECU, len(ecus))
	copy(sorted, ecus)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ResponseID.Less(sorted[j].ResponseID) })

	return &FakeBus{
		addressing:  addressing,
		ecus:        sorted,
		readTimeout: fakeReadTimeout,
	}
}

// DemoECUs returns an engine and a transmission controller for addressing.
func DemoECUs(addressing Addressing) []FakeECU {
	filter := addressing.ResponseFilter()
	ids := filter.IDs()
	return []FakeECU{
		{
			ResponseID: ids[0],
			PIDs: []PID{
				0x01, 0x03, 0x04, 0x05, 0x06, 0x07, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10, 0x11,
				0x13, 0x15, 0x1c, 0x1f, 0x21, 0x2e, 0x2f, 0x30, 0x31, 0x33, 0x3c, 0x41, 0x42,
				0x43, 0x44, 0x45, 0x46, 0x47, 0x49, 0x4a, 0x4c, 0x51, 0x5c,
			},
		},
		{
			ResponseID: ids[2],
			PIDs:       []PID{0x01, 0x0c, 0x0d, 0x1c, 0x21, 0x30, 0x31},
		},
	}
}

// Broadcasts returns every frame sent to the broadcast address.
func (b *FakeBus) Broadcasts() []can.Frame {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]can.Frame(nil), b.broadcasts...)
}

// Requests returns every message written to a channel, in order.
func (b *FakeBus) Requests() [][]byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([][]byte(nil), b.requests...)
}

// Channels returns the destination of every channel opened, in order.
func (b *FakeBus) Channels() []canbus.ID {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]canbus.ID(nil), b.channels...)
}

func (b *FakeBus) OpenRaw(filter *canbus.Filter) (canbus.FrameConn, error) {
	return &fakeFrameConn{bus: b, filter: filter, frames: make(chan can.Frame, len(b.ecus))}, nil
}

func (b *FakeBus) OpenChannel(source, destination canbus.ID) (canbus.Channel, error) {
	if source.IsZero() {
		return nil, &canbus.MissingFieldError{Field: "source"}
	}
	if destination.IsZero() {
		return nil, &canbus.MissingFieldError{Field: "destination"}
	}

	b.mu.Lock()
	b.channels = append(b.channels, destination)
	b.mu.Unlock()

	ch := &fakeChannel{bus: b}
	for i, e := range b.ecus {
		if e.ResponseID != source {
			continue
		}
		if req, ok := b.addressing.RequestFromResponse(source); ok && req == destination {
			ch.ecu = &b.ecus[i]
		}
	}
	return ch, nil
}

// availabilityBitmap encodes the PIDs of e within the group at offset.
func (e FakeECU) availabilityBitmap(offset byte) [4]byte {
	var bits uint32
	for _, p := range e.PIDs {
		switch {
		case int(p) >= int(offset)+pidGroupSize:
			bits |= continuationBit
		case int(p) > int(offset) && int(p) < int(offset)+pidGroupSize:
			bits |= 1 << (pidGroupSize - (int(p) - int(offset)))
		}
	}
	return [4]byte{byte(bits >> 24), byte(bits >> 16), byte(bits >> 8), byte(bits)}
}

type fakeFrameConn struct {
	bus    *FakeBus
	filter *canbus.Filter
	frames chan can.Frame
}

func (c *fakeFrameConn) WriteFrame(ctx context.Context, f can.Frame) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	id, err := canbus.FrameID(f)
	if err != nil {
		return err
	}
	if id != c.bus.addressing.BroadcastAddress() {
		return nil
	}

	c.bus.mu.Lock()
	c.bus.broadcasts = append(c.bus.broadcasts, f)
	c.bus.mu.Unlock()

	data := canbus.Payload(f)
	if len(data) < 3 || data[1] != ServiceCurrentData {
		return nil
	}
	offset := data[2]

	for _, e := range c.bus.ecus {
		if c.filter != nil && !c.filter.Match(e.ResponseID) {
			continue
		}
		bm := e.availabilityBitmap(offset)
		resp, err := canbus.NewFrame(e.ResponseID, []byte{
			availablePIDResponseSize, ServiceCurrentData + PositiveResponseOffset, offset,
			bm[0], bm[1], bm[2], bm[3], 0x55,
		})
		if err != nil {
			return err
		}
		select {
		case c.frames <- resp:
		default:
		}
	}
	return nil
}

func (c *fakeFrameConn) ReadFrame(ctx context.Context) (can.Frame, error) {
	select {
	case f := <-c.frames:
		return f, nil
	case <-ctx.Done():
		return can.Frame{}, ctx.Err()
	}
}

func (c *fakeFrameConn) Close() error { return nil }

type fakeChannel struct {
	bus     *FakeBus
	ecu     *FakeECU
	pending []byte
}

func (c *fakeChannel) Write(ctx context.Context, message []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.bus.mu.Lock()
	c.bus.requests = append(c.bus.requests, append([]byte(nil), message...))
	c.bus.mu.Unlock()

	c.pending = nil
	if c.ecu == nil || c.ecu.Silent || len(message) != 2 || message[0] != ServiceCurrentData {
		return nil
	}

	bm := c.ecu.availabilityBitmap(message[1])
	c.pending = []byte{ServiceCurrentData + PositiveResponseOffset, message[1], bm[0], bm[1], bm[2], bm[3]}
	return nil
}

func (c *fakeChannel) Read(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.pending == nil {
		return nil, &canbus.TimeoutError{Op: "read", Timeout: c.bus.readTimeout}
	}
	resp := c.pending
	c.pending = nil
	return resp, nil
}

func (c *fakeChannel) Close() error { return nil }

var _ canbus.Bus = (*FakeBus)(nil)
