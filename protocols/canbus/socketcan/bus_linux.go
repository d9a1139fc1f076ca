package socketcan

import "github.com/gavinwade12/obdscan/protocols/canbus"

func dialRaw(opts Options, filter *canbus.Filter) (canbus.FrameConn, error) {
	c, err := DialRaw(opts, filter)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func dialISOTP(opts Options, source, destination canbus.ID) (canbus.Channel, error) {
	c, err := DialISOTP(opts, source, destination)
	if err != nil {
		return nil, err
	}
	return c, nil
}
