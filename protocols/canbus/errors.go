package canbus

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

var (
	// ErrSocketNotFound is returned when the configured bus device doesn't exist.
	ErrSocketNotFound = errors.New("the specified socket was not found")

	// ErrTimeout matches every TimeoutError.
	ErrTimeout = errors.New("operation timed out")
)

// MissingFieldError is returned when a socket is opened without a
// required setting.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return "required field was not configured: " + e.Field
}

// TimeoutError is returned when a single read or write doesn't complete
// within its configured timeout. The socket remains usable afterwards.
type TimeoutError struct {
	Op      string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s operation timed out after %s", e.Op, e.Timeout)
}

func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}
