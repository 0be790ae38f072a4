package serial

import (
	"bytes"
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/robotalks/serial.go/pkg/l0/hal"
	"github.com/robotalks/serial.go/pkg/l0/ring"
)

// Transport moves messages over the serial line of a Board.
type Transport struct {
	Board    hal.Board
	Config   Config
	Observer Observer

	buf   *ring.Buffer
	div   uint16
	state int32
	stats Stats
	lock  sync.Mutex
}

// New creates a Transport. The staging buffer is guarded by the board's
// interrupt lock.
func New(board hal.Board, conf Config) (*Transport, error) {
	div, err := conf.BaudDivisor()
	if err != nil {
		return nil, err
	}
	if conf.BufferSize <= 0 {
		conf.BufferSize = ring.DefaultCapacity
	}
	return &Transport{
		Board:  board,
		Config: conf,
		buf:    ring.New(conf.BufferSize, board.Interrupts()),
		div:    div,
	}, nil
}

// State gets the current state.
func (t *Transport) State() State {
	return State(atomic.LoadInt32(&t.state))
}

// Stats gets a snapshot of the counters.
func (t *Transport) Stats() Stats {
	return Stats{
		Messages:      atomic.LoadUint64(&t.stats.Messages),
		BytesSent:     atomic.LoadUint64(&t.stats.BytesSent),
		BytesReceived: atomic.LoadUint64(&t.stats.BytesReceived),
		Rejected:      atomic.LoadUint64(&t.stats.Rejected),
		Timeouts:      atomic.LoadUint64(&t.stats.Timeouts),
	}
}

// Buffered returns the number of staged bytes not yet on the line.
func (t *Transport) Buffered() int {
	return t.buf.Len()
}

// Divisor returns the baud rate generator value in use.
func (t *Transport) Divisor() uint16 {
	return t.div
}

func (t *Transport) setState(s State) {
	atomic.StoreInt32(&t.state, int32(s))
}

// TransmitString transmits s.
func (t *Transport) TransmitString(ctx context.Context, s string) error {
	return t.Transmit(ctx, []byte(s))
}

// Terminated returns msg up to its first nul byte, or all of it when
// there is none.
func Terminated(msg []byte) []byte {
	if n := bytes.IndexByte(msg, 0); n >= 0 {
		return msg[:n]
	}
	return msg
}

// Transmit sends msg up to its first nul byte, or all of it when there is
// none. The whole message is staged before the first byte goes out; a
// message longer than the buffer fails with ErrMessageTooLarge and nothing
// is sent. The Observer is notified once the transmitter is disabled and
// the transport is idle again.
func (t *Transport) Transmit(ctx context.Context, msg []byte) error {
	msg = Terminated(msg)
	if err := t.transmit(ctx, msg); err != nil {
		return err
	}
	t.observe(DirTX, msg)
	return nil
}

func (t *Transport) transmit(ctx context.Context, msg []byte) (err error) {
	t.lock.Lock()
	defer t.lock.Unlock()

	t.setState(StateEnabling)
	t.Board.SetBaudDivisor(t.div)
	t.Board.SetFormat(t.Config.Format)
	t.Board.SetTransmitterEnabled(true)
	t.Board.SetSerialEnabled(true)
	defer func() {
		t.setState(StateDisabling)
		t.Board.SetTransmitterEnabled(false)
		t.setState(StateIdle)
		t.account(err)
	}()

	t.setState(StateStaging)
	if err = t.stage(msg); err != nil {
		return err
	}

	t.setState(StateDraining)
	for i := 0; ; i++ {
		b, rerr := t.buf.Retrieve()
		if rerr == ring.ErrBufferEmpty {
			break
		}
		if err = t.Board.WriteByte(b); err != nil {
			t.buf.Reset()
			return errors.Wrapf(err, "transmit byte %d", i)
		}
		atomic.AddUint64(&t.stats.BytesSent, 1)
		if err = t.wait(ctx, t.Board.TransmitReady, "transmit", i); err != nil {
			t.buf.Reset()
			return err
		}
		t.delay(t.Config.InterByteDelay)
	}

	atomic.AddUint64(&t.stats.Messages, 1)
	glog.V(2).Infof("serial: sent %d bytes", len(msg))
	return nil
}

func (t *Transport) observe(dir Direction, data []byte) {
	if o := t.Observer; o != nil {
		o.ObserveLine(dir, data)
	}
}

func (t *Transport) stage(msg []byte) error {
	if free := t.buf.Free(); len(msg) > free {
		return errors.Wrapf(ErrMessageTooLarge, "%d bytes, %d free of %d", len(msg), free, t.buf.Cap())
	}
	for i, b := range msg {
		if err := t.buf.Insert(b); err != nil {
			// an interrupt handler filled the buffer under us.
			t.buf.Reset()
			return errors.Wrapf(ErrMessageTooLarge, "staging byte %d: %v", i, err)
		}
	}
	return nil
}

// Close disables the transmitter, the receiver and the serial port and
// drops any staged bytes. It waits for an in-flight transmit or receive.
func (t *Transport) Close() error {
	t.lock.Lock()
	defer t.lock.Unlock()
	t.setState(StateDisabling)
	t.Board.SetTransmitterEnabled(false)
	t.Board.SetReceiverEnabled(false)
	t.Board.SetSerialEnabled(false)
	t.buf.Reset()
	t.setState(StateIdle)
	return nil
}

// Receive waits for one byte from the line.
func (t *Transport) Receive(ctx context.Context) (byte, error) {
	b, err := t.receive(ctx)
	if err != nil {
		return 0, err
	}
	t.observe(DirRX, []byte{b})
	return b, nil
}

func (t *Transport) receive(ctx context.Context) (byte, error) {
	t.lock.Lock()
	defer t.lock.Unlock()

	t.setState(StateReceiving)
	defer t.setState(StateIdle)
	t.Board.SetBaudDivisor(t.div)
	t.Board.SetFormat(t.Config.Format)
	t.Board.SetSerialEnabled(true)
	t.Board.SetReceiverEnabled(true)

	if err := t.wait(ctx, t.Board.ReceiveReady, "receive", 0); err != nil {
		t.account(err)
		return 0, err
	}
	b, err := t.Board.ReadByte()
	if err != nil {
		return 0, errors.Wrap(err, "receive")
	}
	atomic.AddUint64(&t.stats.BytesReceived, 1)
	return b, nil
}

// wait polls ready until it holds, the timeout expires or ctx is done.
func (t *Transport) wait(ctx context.Context, ready func() bool, op string, index int) error {
	if ready() {
		return nil
	}
	start := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if waited := time.Since(start); t.Config.Timeout > 0 && waited >= t.Config.Timeout {
			return &TimeoutError{Op: op, Index: index, Waited: waited}
		}
		t.delay(t.Config.PollInterval)
		if ready() {
			return nil
		}
	}
}

func (t *Transport) delay(d time.Duration) {
	switch {
	case d <= 0:
	case d%time.Millisecond == 0:
		t.Board.DelayMs(int(d / time.Millisecond))
	default:
		t.Board.DelayUs(int(d / time.Microsecond))
	}
}

func (t *Transport) account(err error) {
	switch {
	case err == nil:
	case errors.Is(err, ErrTimeout):
		atomic.AddUint64(&t.stats.Timeouts, 1)
	case errors.Is(err, ErrMessageTooLarge):
		atomic.AddUint64(&t.stats.Rejected, 1)
	}
}
