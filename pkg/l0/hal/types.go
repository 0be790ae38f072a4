package hal

import (
	"errors"
	"sync"
)

// Board is the set of hardware capabilities consumed by the core.
type Board interface {
	// Init configures pin directions, interrupt enables and timer preload.
	// It is called once at startup.
	Init() error

	// TransmitReady reports whether the last byte written has left the
	// transmit register and another byte may be written.
	TransmitReady() bool
	// ReceiveReady reports whether a received byte is available.
	ReceiveReady() bool
	// WriteByte loads one byte into the transmit register.
	WriteByte(b byte) error
	// ReadByte takes one byte from the receive register.
	ReadByte() (byte, error)

	// SetBaudDivisor programs the baud rate generator.
	SetBaudDivisor(div uint16)
	// SetFormat programs the serial word format.
	SetFormat(f Format)
	SetTransmitterEnabled(en bool)
	SetReceiverEnabled(en bool)
	SetSerialEnabled(en bool)

	// DelayMs and DelayUs busy-wait for the given time.
	DelayMs(n int)
	DelayUs(n int)

	// SetLED drives the status LED.
	SetLED(on bool)
	// LED reads back the status LED latch.
	LED() bool

	// Interrupts returns the global interrupt critical section: Lock
	// disables interrupts, Unlock re-enables them.
	Interrupts() sync.Locker
}

// IRQ identifies an interrupt source.
type IRQ int

const (
	// IRQExternal is the external edge interrupt (high priority).
	IRQExternal IRQ = iota
	// IRQTimer is the timer overflow interrupt (low priority).
	IRQTimer
)

// String implements fmt.Stringer.
func (q IRQ) String() string {
	switch q {
	case IRQExternal:
		return "external"
	case IRQTimer:
		return "timer"
	}
	return "unknown"
}

// InterruptHandler services an interrupt. It is invoked with interrupts
// disabled.
type InterruptHandler func(IRQ)

// InterruptController is implemented by boards which dispatch interrupts
// to firmware handlers.
type InterruptController interface {
	// HandleInterrupt installs the handler of an interrupt source.
	HandleInterrupt(IRQ, InterruptHandler)
}

// Ticker is implemented by boards which drive the millisecond tick.
type Ticker interface {
	// OnTick installs the callback invoked every millisecond.
	OnTick(func())
}

var (
	// ErrNoData indicates ReadByte was called with nothing received.
	ErrNoData = errors.New("no data received")
	// ErrDisabled indicates the serial port or direction is disabled.
	ErrDisabled = errors.New("serial disabled")
	// ErrBusy indicates a byte was written before the previous one left.
	ErrBusy = errors.New("transmitter busy")
)
