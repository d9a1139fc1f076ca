// Package canbus holds the transport-neutral types shared by the CAN
// socket implementations and the diagnostic protocols built on them.
package canbus

import (
	"context"

	"go.einride.tech/can"
)

// FrameConn exchanges single CAN frames.
type FrameConn interface {
	WriteFrame(ctx context.Context, f can.Frame) error
	ReadFrame(ctx context.Context) (can.Frame, error)
	Close() error
}

// Channel exchanges whole segmented messages between two fixed identifiers.
type Channel interface {
	Write(ctx context.Context, message []byte) error
	Read(ctx context.Context) ([]byte, error)
	Close() error
}

// Bus opens connections on a single CAN device. A nil filter accepts
// every identifier.
type Bus interface {
	OpenRaw(filter *Filter) (FrameConn, error)
	OpenChannel(source, destination ID) (Channel, error)
}
