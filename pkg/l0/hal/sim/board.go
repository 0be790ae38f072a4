// Package sim provides a simulated board with a virtual serial line.
//
// The board models the pieces of a PIC18 style part the firmware touches:
// a USART with transmit/receive enable bits and a baud rate generator, a
// status LED latch, a 1 ms tick, a timer overflow interrupt and an
// external edge interrupt. Transmitted bytes are captured on the line and
// received bytes are injected into it.
package sim

import (
	"context"
	"sync"
	"time"

	"github.com/eapache/queue"
	"github.com/gammazero/deque"
	"github.com/golang/glog"

	"github.com/robotalks/serial.go/pkg/l0/hal"
)

// Options configures the simulated board.
type Options struct {
	// ClockHz is the oscillator frequency.
	ClockHz uint32
	// Realtime makes delays sleep. Otherwise delays only advance the
	// board's delay counter, which keeps tests fast.
	Realtime bool
	// TimerPeriod is the timer overflow period.
	TimerPeriod time.Duration
}

// DefaultOptions mirror the target board: 20 MHz crystal, timer0 set for
// a 1 second overflow.
var DefaultOptions = Options{
	ClockHz:     20000000,
	Realtime:    true,
	TimerPeriod: time.Second,
}

// Registers is a snapshot of the serial and LED state.
type Registers struct {
	TXEN    bool
	CREN    bool
	SPEN    bool
	SPBRG   uint16
	Format  hal.Format
	LED     bool
	Timer0  uint16
	Overrun int
}

// Board implements hal.Board.
type Board struct {
	Options Options

	irq      sync.Mutex
	handlers map[hal.IRQ]hal.InterruptHandler
	onTick   func()

	lock        sync.Mutex
	inited      bool
	regs        Registers
	txBusyUntil time.Time
	stuck       bool
	tx          *queue.Queue
	rx          *deque.Deque[byte]
	rxNotify    chan struct{}
	delayed     time.Duration
	ticks       uint64
}

// Timer0 preload for a 1 s overflow: 65536 - (20MHz/4/128).
const timer0Preload uint16 = 0x676A

// NewBoard creates a simulated board.
func NewBoard(opts Options) *Board {
	if opts.ClockHz == 0 {
		opts.ClockHz = DefaultOptions.ClockHz
	}
	if opts.TimerPeriod == 0 {
		opts.TimerPeriod = DefaultOptions.TimerPeriod
	}
	return &Board{
		Options:  opts,
		handlers: make(map[hal.IRQ]hal.InterruptHandler),
		regs:     Registers{Format: hal.Format8N1},
		tx:       queue.New(),
		rx:       deque.New[byte](),
		rxNotify: make(chan struct{}, 1),
	}
}

// Init implements hal.Board.
func (b *Board) Init() error {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.inited = true
	b.regs.Timer0 = timer0Preload
	glog.V(2).Infof("sim: board initialized, clock %d Hz", b.Options.ClockHz)
	return nil
}

// TransmitReady implements hal.Board.
func (b *Board) TransmitReady() bool {
	b.lock.Lock()
	defer b.lock.Unlock()
	if b.stuck {
		return false
	}
	return !time.Now().Before(b.txBusyUntil)
}

// ReceiveReady implements hal.Board.
func (b *Board) ReceiveReady() bool {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.regs.SPEN && b.regs.CREN && b.rx.Len() > 0
}

// WriteByte implements hal.Board.
func (b *Board) WriteByte(c byte) error {
	b.lock.Lock()
	defer b.lock.Unlock()
	if !b.regs.SPEN || !b.regs.TXEN {
		return hal.ErrDisabled
	}
	now := time.Now()
	if now.Before(b.txBusyUntil) {
		b.regs.Overrun++
		return hal.ErrBusy
	}
	b.tx.Add(c)
	baud := hal.ActualBaud(b.Options.ClockHz, b.regs.SPBRG)
	b.txBusyUntil = now.Add(b.regs.Format.CharTime(baud))
	return nil
}

// ReadByte implements hal.Board.
func (b *Board) ReadByte() (byte, error) {
	b.lock.Lock()
	defer b.lock.Unlock()
	if !b.regs.SPEN || !b.regs.CREN {
		return 0, hal.ErrDisabled
	}
	if b.rx.Len() == 0 {
		return 0, hal.ErrNoData
	}
	return b.rx.PopFront(), nil
}

// SetBaudDivisor implements hal.Board.
func (b *Board) SetBaudDivisor(div uint16) {
	b.lock.Lock()
	b.regs.SPBRG = div
	b.lock.Unlock()
}

// SetFormat implements hal.Board.
func (b *Board) SetFormat(f hal.Format) {
	b.lock.Lock()
	b.regs.Format = f
	b.lock.Unlock()
}

// SetTransmitterEnabled implements hal.Board.
func (b *Board) SetTransmitterEnabled(en bool) {
	b.lock.Lock()
	b.regs.TXEN = en
	b.lock.Unlock()
}

// SetReceiverEnabled implements hal.Board.
func (b *Board) SetReceiverEnabled(en bool) {
	b.lock.Lock()
	b.regs.CREN = en
	b.lock.Unlock()
}

// SetSerialEnabled implements hal.Board.
func (b *Board) SetSerialEnabled(en bool) {
	b.lock.Lock()
	b.regs.SPEN = en
	b.lock.Unlock()
}

// DelayMs implements hal.Board.
func (b *Board) DelayMs(n int) {
	b.delay(time.Duration(n) * time.Millisecond)
}

// DelayUs implements hal.Board.
func (b *Board) DelayUs(n int) {
	b.delay(time.Duration(n) * time.Microsecond)
}

func (b *Board) delay(d time.Duration) {
	if d <= 0 {
		return
	}
	b.lock.Lock()
	b.delayed += d
	b.lock.Unlock()
	if b.Options.Realtime {
		time.Sleep(d)
	}
}

// SetLED implements hal.Board.
func (b *Board) SetLED(on bool) {
	b.lock.Lock()
	b.regs.LED = on
	b.lock.Unlock()
}

// LED implements hal.Board.
func (b *Board) LED() bool {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.regs.LED
}

// Interrupts implements hal.Board.
func (b *Board) Interrupts() sync.Locker {
	return &b.irq
}

// HandleInterrupt implements hal.InterruptController.
func (b *Board) HandleInterrupt(q hal.IRQ, h hal.InterruptHandler) {
	b.irq.Lock()
	b.handlers[q] = h
	b.irq.Unlock()
}

// OnTick implements hal.Ticker.
func (b *Board) OnTick(fn func()) {
	b.irq.Lock()
	b.onTick = fn
	b.irq.Unlock()
}

// Trigger raises an interrupt. The handler runs once interrupts are
// enabled, with interrupts disabled.
func (b *Board) Trigger(q hal.IRQ) {
	b.irq.Lock()
	defer b.irq.Unlock()
	if h := b.handlers[q]; h != nil {
		h(q)
	}
}

// Tick advances the board by one millisecond.
func (b *Board) Tick() {
	b.lock.Lock()
	b.ticks++
	overflow := b.inited && time.Duration(b.ticks)*time.Millisecond%b.Options.TimerPeriod == 0
	if overflow {
		b.regs.Timer0 = timer0Preload
	}
	b.lock.Unlock()

	b.irq.Lock()
	fn := b.onTick
	b.irq.Unlock()
	if fn != nil {
		fn()
	}
	if overflow {
		b.Trigger(hal.IRQTimer)
	}
}

// Run drives the millisecond tick until ctx is done.
func (b *Board) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			b.Tick()
		}
	}
}

// Inject places bytes on the receive line.
func (b *Board) Inject(data ...byte) {
	b.lock.Lock()
	for _, c := range data {
		b.rx.PushBack(c)
	}
	b.lock.Unlock()
	select {
	case b.rxNotify <- struct{}{}:
	default:
	}
}

// Received returns a coalesced notification of injected bytes.
func (b *Board) Received() <-chan struct{} {
	return b.rxNotify
}

// Pending returns the number of injected bytes not yet read.
func (b *Board) Pending() int {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.rx.Len()
}

// Transmitted drains the bytes captured on the transmit line.
func (b *Board) Transmitted() []byte {
	b.lock.Lock()
	defer b.lock.Unlock()
	out := make([]byte, 0, b.tx.Length())
	for b.tx.Length() > 0 {
		out = append(out, b.tx.Remove().(byte))
	}
	return out
}

// SetStuck simulates a line fault: bytes are still accepted but the
// transmitter never reports ready.
func (b *Board) SetStuck(stuck bool) {
	b.lock.Lock()
	b.stuck = stuck
	b.lock.Unlock()
}

// Registers returns a snapshot of the registers.
func (b *Board) Registers() Registers {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.regs
}

// Delayed returns the total time spent in DelayMs/DelayUs.
func (b *Board) Delayed() time.Duration {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.delayed
}

// Uptime returns the time advanced by Tick.
func (b *Board) Uptime() time.Duration {
	b.lock.Lock()
	defer b.lock.Unlock()
	return time.Duration(b.ticks) * time.Millisecond
}

var (
	_ hal.Board               = (*Board)(nil)
	_ hal.InterruptController = (*Board)(nil)
	_ hal.Ticker              = (*Board)(nil)
)
