package hal

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// Parity defines the parity setting of the serial word.
type Parity uint8

const (
	// ParityNone disables parity.
	ParityNone Parity = iota
	// ParityEven sets even parity.
	ParityEven
	// ParityOdd sets odd parity.
	ParityOdd
)

// Format is the serial word format.
type Format struct {
	DataBits uint8
	Parity   Parity
	StopBits uint8
}

// Format8N1 is 8 data bits, no parity, 1 stop bit.
var Format8N1 = Format{DataBits: 8, Parity: ParityNone, StopBits: 1}

// String returns the conventional short form, e.g. "8N1".
func (f Format) String() string {
	p := "N"
	switch f.Parity {
	case ParityEven:
		p = "E"
	case ParityOdd:
		p = "O"
	}
	return fmt.Sprintf("%d%s%d", f.DataBits, p, f.StopBits)
}

// BitsPerChar counts start, data, parity and stop bits of one character.
func (f Format) BitsPerChar() int {
	n := 1 + int(f.DataBits) + int(f.StopBits)
	if f.Parity != ParityNone {
		n++
	}
	return n
}

// CharTime is the time one character occupies the line at baud.
func (f Format) CharTime(baud uint32) time.Duration {
	if baud == 0 {
		return 0
	}
	return time.Duration(f.BitsPerChar()) * time.Second / time.Duration(baud)
}

// BaudDivisor computes the low-speed asynchronous baud rate generator
// value: clockHz / (64 * baud) - 1.
func BaudDivisor(clockHz, baud uint32) (uint16, error) {
	if baud == 0 {
		return 0, errors.New("invalid baud rate 0")
	}
	div := uint64(clockHz) / (64 * uint64(baud))
	if div == 0 || div > 0x10000 {
		return 0, errors.Errorf("baud rate %d unreachable with %d Hz clock", baud, clockHz)
	}
	return uint16(div - 1), nil
}

// ActualBaud computes the baud rate a divisor produces.
func ActualBaud(clockHz uint32, div uint16) uint32 {
	return clockHz / (64 * (uint32(div) + 1))
}
