package serial

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrMessageTooLarge indicates the message does not fit in the staging
	// buffer. Nothing is transmitted.
	ErrMessageTooLarge = errors.New("message too large")
	// ErrTimeout indicates the hardware never signaled readiness.
	ErrTimeout = errors.New("timeout")
)

// TimeoutError describes a bounded wait which expired.
type TimeoutError struct {
	Op     string
	Index  int
	Waited time.Duration
}

// Error implements error.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s byte %d: not ready after %v", e.Op, e.Index, e.Waited)
}

// Unwrap makes errors.Is(err, ErrTimeout) hold.
func (e *TimeoutError) Unwrap() error {
	return ErrTimeout
}

// Timeout marks the error as a timeout for os.IsTimeout.
func (e *TimeoutError) Timeout() bool {
	return true
}
