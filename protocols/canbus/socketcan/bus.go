package socketcan

import "github.com/gavinwade12/obdscan/protocols/canbus"

// Bus opens sockets on one device with shared options.
type Bus struct {
	opts Options
}

// NewBus validates opts and returns a Bus using them.
func NewBus(opts Options) (*Bus, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Bus{opts}, nil
}

// Options returns the options the bus opens sockets with.
func (b *Bus) Options() Options {
	return b.opts
}

func (b *Bus) OpenRaw(filter *canbus.Filter) (canbus.FrameConn, error) {
	return dialRaw(b.opts, filter)
}

func (b *Bus) OpenChannel(source, destination canbus.ID) (canbus.Channel, error) {
	return dialISOTP(b.opts, source, destination)
}
