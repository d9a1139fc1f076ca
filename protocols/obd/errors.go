package obd

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidResponse matches every response validation error.
	ErrInvalidResponse = errors.New("invalid response")

	// ErrUnexpectedResponder is returned when a frame arrives from an
	// identifier that can't be mapped back to a request identifier.
	ErrUnexpectedResponder = errors.New("unexpected responder")

	// ErrUnexpectedOffset is returned when a bitmap is integrated for an
	// offset the decoder isn't waiting on.
	ErrUnexpectedOffset = errors.New("unexpected PID offset")
)

// PayloadSizeError is returned when a response has the wrong length.
type PayloadSizeError struct {
	Actual   int
	Expected int
}

func (e *PayloadSizeError) Error() string {
	return fmt.Sprintf("invalid response: expected payload to be %d bytes, got %d bytes instead",
		e.Expected, e.Actual)
}

func (e *PayloadSizeError) Is(target error) bool { return target == ErrInvalidResponse }

// ServiceIDError is returned when a response doesn't carry the positive
// response code of the requested service.
type ServiceIDError struct {
	Actual   byte
	Expected byte
}

func (e *ServiceIDError) Error() string {
	return fmt.Sprintf("invalid response: expected service ID to be 0x%02X, got 0x%02X instead",
		e.Expected, e.Actual)
}

func (e *ServiceIDError) Is(target error) bool { return target == ErrInvalidResponse }

// FieldValueError is returned when a response byte doesn't hold the
// expected value.
type FieldValueError struct {
	Position int
	Actual   byte
	Expected byte
}

func (e *FieldValueError) Error() string {
	return fmt.Sprintf("invalid response: expected value at position %d to be 0x%02X, got 0x%02X instead",
		e.Position, e.Expected, e.Actual)
}

func (e *FieldValueError) Is(target error) bool { return target == ErrInvalidResponse }
