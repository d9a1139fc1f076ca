package obd

import (
	"context"
	"sort"
	"time"

	"github.com/gavinwade12/obdscan/protocols/canbus"
	"github.com/pkg/errors"
)

// DefaultListenWindow is how long discovery waits for broadcast answers.
const DefaultListenWindow = time.Second

// Result maps each responding ECU to the PIDs it supports.
type Result map[canbus.ID][]PID

// ECUs returns the identifiers in the result in ascending order.
func (r Result) ECUs() []canbus.ID {
	ids := make([]canbus.ID, 0, len(r))
	for id := range r {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Less(ids[j]) })
	return ids
}

// Discoverer finds the ECUs on a bus and the PIDs each of them supports.
type Discoverer struct {
	bus        canbus.Bus
	addressing Addressing
	window     time.Duration
	padding    bool
	padByte    byte
	logger     Logger
}

type DiscovererOption func(*Discoverer)

// WithListenWindow sets how long to collect answers to the broadcast.
func WithListenWindow(d time.Duration) DiscovererOption {
	return func(dd *Discoverer) {
		dd.window = d
	}
}

// WithPadding controls padding of the broadcast frame to 8 bytes.
func WithPadding(enabled bool, padByte byte) DiscovererOption {
	return func(d *Discoverer) {
		d.padding = enabled
		d.padByte = padByte
	}
}

func WithLogger(l Logger) DiscovererOption {
	return func(d *Discoverer) {
		if l != nil {
			d.logger = l
		}
	}
}

// NewDiscoverer returns a Discoverer using addressing on bus.
func NewDiscoverer(bus canbus.Bus, addressing Addressing, opts ...DiscovererOption) *Discoverer {
	d := &Discoverer{
		bus:        bus,
		addressing: addressing,
		window:     DefaultListenWindow,
		padding:    true,
		padByte:    defaultPadByte,
		logger:     NopLogger,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// QueryAvailablePIDs discovers the responding ECUs, then queries each of
// them in turn. The first ECU that fails ends the run with its error.
func (d *Discoverer) QueryAvailablePIDs(ctx context.Context) (Result, error) {
	ecus, err := d.DiscoverECUs(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "discovering ECUs")
	}

	result := make(Result, len(ecus))
	for _, id := range ecus {
		pids, err := d.QueryECU(ctx, id)
		if err != nil {
			return nil, errors.Wrapf(err, "querying ECU %s", id)
		}
		result[id] = pids
	}

	return result, nil
}

// DiscoverECUs broadcasts an availability request and returns the
// distinct response identifiers heard within the listen window, in the
// order they were first seen.
func (d *Discoverer) DiscoverECUs(ctx context.Context) ([]canbus.ID, error) {
	filter := d.addressing.ResponseFilter()
	conn, err := d.bus.OpenRaw(&filter)
	if err != nil {
		return nil, errors.Wrap(err, "opening raw socket")
	}
	defer conn.Close()

	f, err := availablePIDBroadcastFrame(d.addressing.BroadcastAddress(), 0, d.padding, d.padByte)
	if err != nil {
		return nil, errors.Wrap(err, "building broadcast frame")
	}
	logFrame(d.logger, f, "sending broadcast to ")
	if err = conn.WriteFrame(ctx, f); err != nil {
		return nil, errors.Wrap(err, "sending broadcast request")
	}

	wctx, cancel := context.WithTimeout(ctx, d.window)
	defer cancel()

	var ecus []canbus.ID
	seen := make(map[canbus.ID]bool)
	for {
		f, err := conn.ReadFrame(wctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if wctx.Err() != nil {
				break
			}
			if errors.Is(err, canbus.ErrTimeout) {
				continue // nothing yet, keep listening until the window closes
			}
			return nil, errors.Wrap(err, "reading broadcast response")
		}
		logFrame(d.logger, f, "read frame from ")

		id, err := canbus.FrameID(f)
		if err != nil {
			return nil, errors.Wrap(ErrUnexpectedResponder, err.Error())
		}
		if _, ok := d.addressing.RequestFromResponse(id); !ok {
			return nil, errors.Wrapf(ErrUnexpectedResponder, "frame from %s", id)
		}

		if _, err = parseAvailablePIDBroadcastResponse(0, f); err != nil {
			d.logger.Debugf("ignoring broadcast response payload from %s: %v", id, err)
		}

		if !seen[id] {
			seen[id] = true
			ecus = append(ecus, id)
			d.logger.Debugf("discovered ECU %s", id)
		}
	}

	d.logger.Debugf("discovered %d ECU(s)", len(ecus))
	return ecus, nil
}

// QueryECU lists the PIDs supported by the ECU answering from responseID.
func (d *Discoverer) QueryECU(ctx context.Context, responseID canbus.ID) ([]PID, error) {
	requestID, ok := d.addressing.RequestFromResponse(responseID)
	if !ok {
		return nil, errors.Wrapf(ErrUnexpectedResponder, "no request identifier for %s", responseID)
	}

	d.logger.Debugf("opening channel %s -> %s", responseID, requestID)
	ch, err := d.bus.OpenChannel(responseID, requestID)
	if err != nil {
		return nil, errors.Wrap(err, "opening channel")
	}
	defer ch.Close()

	return QueryAvailablePIDs(ctx, ch, d.logger)
}
