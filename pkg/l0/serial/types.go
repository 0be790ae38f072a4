package serial

// State is the state of the transport.
type State int32

// States of a transport. A transmit walks
// Idle -> Enabling -> Staging -> Draining -> Disabling -> Idle.
const (
	StateIdle State = iota
	StateEnabling
	StateStaging
	StateDraining
	StateDisabling
	StateReceiving
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateEnabling:
		return "enabling"
	case StateStaging:
		return "staging"
	case StateDraining:
		return "draining"
	case StateDisabling:
		return "disabling"
	case StateReceiving:
		return "receiving"
	}
	return "unknown"
}

// Direction tells which way bytes moved on the line.
type Direction int

const (
	// DirTX is firmware to line.
	DirTX Direction = iota
	// DirRX is line to firmware.
	DirRX
)

// String implements fmt.Stringer.
func (d Direction) String() string {
	if d == DirRX {
		return "rx"
	}
	return "tx"
}

// Observer is notified after bytes were transmitted or received, on the
// caller's goroutine once the transport is idle again. Slow observers
// delay the caller, so publishing should be handed off.
type Observer interface {
	ObserveLine(dir Direction, data []byte)
}

// ObserveLineFunc is func form of Observer.
type ObserveLineFunc func(Direction, []byte)

// ObserveLine implements Observer.
func (f ObserveLineFunc) ObserveLine(dir Direction, data []byte) {
	f(dir, data)
}

// Stats are counters of the transport.
type Stats struct {
	Messages      uint64
	BytesSent     uint64
	BytesReceived uint64
	Rejected      uint64
	Timeouts      uint64
}
