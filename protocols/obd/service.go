package obd

import (
	"context"

	"github.com/gavinwade12/obdscan/protocols/canbus"
	"github.com/pkg/errors"
	"go.einride.tech/can"
)

const (
	// ServiceCurrentData requests current powertrain data.
	ServiceCurrentData byte = 0x01
	// PositiveResponseOffset is added to a service ID in a positive response.
	PositiveResponseOffset byte = 0x40

	defaultPadByte byte = 0xcc

	availablePIDResponseSize = 6
	// single frame length byte + availability response
	broadcastResponseSize = availablePIDResponseSize + 1
)

func availablePIDRequest(offset byte) []byte {
	return []byte{ServiceCurrentData, offset}
}

// parseAvailablePIDResponse validates a reassembled response to an
// availability request for offset and returns its bitmap.
func parseAvailablePIDResponse(offset byte, resp []byte) ([4]byte, error) {
	var bitmap [4]byte
	if len(resp) != availablePIDResponseSize {
		return bitmap, &PayloadSizeError{Actual: len(resp), Expected: availablePIDResponseSize}
	}
	if want := ServiceCurrentData + PositiveResponseOffset; resp[0] != want {
		return bitmap, &ServiceIDError{Actual: resp[0], Expected: want}
	}
	if resp[1] != offset {
		return bitmap, &FieldValueError{Position: 1, Actual: resp[1], Expected: offset}
	}

	copy(bitmap[:], resp[2:])
	return bitmap, nil
}

// availablePIDBroadcastFrame builds a single frame availability request.
// Raw frames carry no segmentation layer, so the length byte is explicit.
func availablePIDBroadcastFrame(id canbus.ID, offset byte, padding bool, padByte byte) (can.Frame, error) {
	req := availablePIDRequest(offset)
	payload := append([]byte{byte(len(req))}, req...)
	if padding {
		for len(payload) < canbus.MaxFrameLength {
			payload = append(payload, padByte)
		}
	}
	return canbus.NewFrame(id, payload)
}

// parseAvailablePIDBroadcastResponse validates a single frame answer to
// availablePIDBroadcastFrame. Positions in errors refer to the frame data.
func parseAvailablePIDBroadcastResponse(offset byte, f can.Frame) ([4]byte, error) {
	data := canbus.Payload(f)
	if len(data) < broadcastResponseSize {
		return [4]byte{}, &PayloadSizeError{Actual: len(data), Expected: broadcastResponseSize}
	}
	if data[0] != availablePIDResponseSize {
		return [4]byte{}, &FieldValueError{Position: 0, Actual: data[0], Expected: availablePIDResponseSize}
	}

	bitmap, err := parseAvailablePIDResponse(offset, data[1:broadcastResponseSize])
	var fv *FieldValueError
	if errors.As(err, &fv) {
		fv.Position++
	}
	return bitmap, err
}

// QueryAvailablePIDs walks every availability group of the ECU at the
// other end of ch and returns the PIDs it supports. Each request is
// answered before the next is sent; the first error ends the walk.
func QueryAvailablePIDs(ctx context.Context, ch canbus.Channel, l Logger) ([]PID, error) {
	if l == nil {
		l = NopLogger
	}

	var d AvailablePIDDecoder
	for {
		offset, ok := d.NextQuery()
		if !ok {
			break
		}

		req := availablePIDRequest(offset)
		logBytes(l, req, "sending request: ")
		if err := ch.Write(ctx, req); err != nil {
			return nil, errors.Wrapf(err, "writing request for offset 0x%02X", offset)
		}

		resp, err := ch.Read(ctx)
		if err != nil {
			return nil, errors.Wrapf(err, "reading response for offset 0x%02X", offset)
		}
		logBytes(l, resp, "read response: ")

		bitmap, err := parseAvailablePIDResponse(offset, resp)
		if err != nil {
			return nil, err
		}
		if err = d.Integrate(offset, bitmap); err != nil {
			return nil, err
		}
	}

	return d.PIDs(), nil
}
