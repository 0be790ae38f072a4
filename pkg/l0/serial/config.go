package serial

import (
	"time"

	"github.com/robotalks/serial.go/pkg/l0/hal"
	"github.com/robotalks/serial.go/pkg/l0/ring"
)

// Config defines the fixed parameters of the serial line.
type Config struct {
	// ClockHz is the oscillator frequency feeding the baud rate generator.
	ClockHz uint32
	// Baud is the line rate. Divisor is derived from it unless set.
	Baud    uint32
	Divisor uint16
	Format  hal.Format
	// BufferSize is the capacity of the staging ring.
	BufferSize int
	// InterByteDelay is the pause after every transmitted byte. The line
	// corrupts returned characters without it.
	InterByteDelay time.Duration
	// Timeout bounds every wait for a hardware ready flag. 0 waits until
	// the context is done.
	Timeout time.Duration
	// PollInterval is the busy-wait step between flag polls.
	PollInterval time.Duration
}

// DefaultConfig is 9600 8-N-1 on a 20 MHz part.
var DefaultConfig = Config{
	ClockHz:        20000000,
	Baud:           9600,
	Format:         hal.Format8N1,
	BufferSize:     ring.DefaultCapacity,
	InterByteDelay: time.Millisecond,
	Timeout:        50 * time.Millisecond,
	PollInterval:   10 * time.Microsecond,
}

// BaudDivisor returns Divisor or derives it from ClockHz and Baud.
func (c *Config) BaudDivisor() (uint16, error) {
	if c.Divisor != 0 {
		return c.Divisor, nil
	}
	return hal.BaudDivisor(c.ClockHz, c.Baud)
}
