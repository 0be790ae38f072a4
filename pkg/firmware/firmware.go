package firmware

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	fx "github.com/robotalks/serial.go/pkg/framework"
	"github.com/robotalks/serial.go/pkg/l0/hal"
	"github.com/robotalks/serial.go/pkg/l0/serial"
)

// Firmware ties the board, the serial transport and the main loop together.
type Firmware struct {
	Board     hal.Board
	Transport *serial.Transport
	Greeting  []byte
	Period    time.Duration
	POSTDelay time.Duration

	nextGreeting time.Time

	uptime    uint64
	overflows uint64
	external  uint64
	greetings uint64
	failures  uint64
	booted    int32
}

// Status is a snapshot of the firmware counters.
type Status struct {
	Booted         bool
	Uptime         time.Duration
	TimerOverflows uint64
	ExternalEvents uint64
	Greetings      uint64
	Failures       uint64
	State          serial.State
	Serial         serial.Stats
}

// SendRequest asks the foreground loop to transmit Data. The result is
// delivered on Result when it is not nil.
type SendRequest struct {
	Data   []byte
	Result chan<- error
}

// ReceiveRequest asks the foreground loop to receive one byte.
type ReceiveRequest struct {
	Result chan<- ReceiveResult
}

// LEDRequest asks the foreground loop to drive the status LED.
type LEDRequest struct {
	On     bool
	Result chan<- bool
}

// ReceiveResult is the result of a ReceiveRequest.
type ReceiveResult struct {
	Byte byte
	Err  error
}

// New creates a Firmware with the default greeting.
func New(board hal.Board, transport *serial.Transport) *Firmware {
	return &Firmware{
		Board:     board,
		Transport: transport,
		Greeting:  []byte(DefaultGreeting),
		Period:    DefaultPeriod,
		POSTDelay: DefaultPOSTDelay,
	}
}

// Boot initializes the hardware, installs the interrupt handlers and the
// millisecond tick, and runs the power-on self test.
func (f *Firmware) Boot() error {
	if err := f.Board.Init(); err != nil {
		return errors.Wrap(err, "board init")
	}
	if ic, ok := f.Board.(hal.InterruptController); ok {
		ic.HandleInterrupt(hal.IRQExternal, f.handleExternal)
		ic.HandleInterrupt(hal.IRQTimer, f.handleTimer)
	}
	if ticker, ok := f.Board.(hal.Ticker); ok {
		ticker.OnTick(f.Tick)
	}
	f.POST()
	atomic.StoreInt32(&f.booted, 1)
	glog.Infof("firmware booted: %d baud (divisor %d) %s, buffer %d",
		f.Transport.Config.Baud, f.Transport.Divisor(), f.Transport.Config.Format, f.Transport.Config.BufferSize)
	return nil
}

// MustBoot boots and exits on failure.
func (f *Firmware) MustBoot() {
	if err := f.Boot(); err != nil {
		glog.Fatalf("boot failed: %v", err)
	}
}

// POST signals a successful start-up: LED on, wait, toggle, wait, toggle.
func (f *Firmware) POST() {
	ms := int(f.POSTDelay / time.Millisecond)
	f.Board.SetLED(true)
	f.Board.DelayMs(ms)
	f.Board.SetLED(!f.Board.LED())
	f.Board.DelayMs(ms)
	f.Board.SetLED(!f.Board.LED())
}

// Shutdown leaves the hardware quiet once the main loop has stopped:
// serial port disabled and LED off. A firmware that never booted is left
// untouched.
func (f *Firmware) Shutdown() {
	if !atomic.CompareAndSwapInt32(&f.booted, 1, 0) {
		return
	}
	if err := f.Transport.Close(); err != nil {
		glog.Warningf("serial close: %v", err)
	}
	f.Board.SetLED(false)
	st := f.Status()
	glog.Infof("firmware stopped after %s: %d greetings, %d failures",
		st.Uptime, st.Greetings, st.Failures)
}

// Tick advances time by one millisecond. It is called by the board.
func (f *Firmware) Tick() {
	atomic.AddUint64(&f.uptime, 1)
}

func (f *Firmware) handleExternal(hal.IRQ) {
	atomic.AddUint64(&f.external, 1)
}

func (f *Firmware) handleTimer(hal.IRQ) {
	atomic.AddUint64(&f.overflows, 1)
}

// Uptime is the time advanced by Tick.
func (f *Firmware) Uptime() time.Duration {
	return time.Duration(atomic.LoadUint64(&f.uptime)) * time.Millisecond
}

// Status gets a snapshot of the counters.
func (f *Firmware) Status() Status {
	return Status{
		Booted:         atomic.LoadInt32(&f.booted) != 0,
		Uptime:         f.Uptime(),
		TimerOverflows: atomic.LoadUint64(&f.overflows),
		ExternalEvents: atomic.LoadUint64(&f.external),
		Greetings:      atomic.LoadUint64(&f.greetings),
		Failures:       atomic.LoadUint64(&f.failures),
		State:          f.Transport.State(),
		Serial:         f.Transport.Stats(),
	}
}

// Send transmits msg up to its first nul byte, split into pieces that fit
// the staging buffer. Each piece is a complete transmit; a failure stops
// the remaining pieces.
func (f *Firmware) Send(ctx context.Context, msg []byte) error {
	msg = serial.Terminated(msg)
	size := f.Transport.Config.BufferSize
	for off := 0; off < len(msg); off += size {
		end := off + size
		if end > len(msg) {
			end = len(msg)
		}
		if err := f.Transport.Transmit(ctx, msg[off:end]); err != nil {
			return errors.Wrapf(err, "send offset %d", off)
		}
	}
	return nil
}

// Control implements fx.Controller. It serves queued requests, then
// transmits the greeting when it is due. Errors are logged and the next
// iteration tries again.
func (f *Firmware) Control(cc fx.ControlContext) error {
	ctx := cc.Context()
	cc.Messages().ProcessMessages(func(msg fx.Message) bool {
		switch req := msg.(type) {
		case *SendRequest:
			err := f.Send(ctx, req.Data)
			if err != nil {
				atomic.AddUint64(&f.failures, 1)
				glog.Warningf("send: %v", err)
			}
			if req.Result != nil {
				req.Result <- err
			}
			return true
		case *ReceiveRequest:
			var res ReceiveResult
			res.Byte, res.Err = f.Transport.Receive(ctx)
			if req.Result != nil {
				req.Result <- res
			}
			return true
		case *LEDRequest:
			f.Board.SetLED(req.On)
			if req.Result != nil {
				req.Result <- f.Board.LED()
			}
			return true
		}
		return false
	})

	if now := cc.Time(); len(f.Greeting) > 0 && !now.Before(f.nextGreeting) {
		if err := f.Send(ctx, f.Greeting); err != nil {
			atomic.AddUint64(&f.failures, 1)
			glog.Warningf("greeting: %v", err)
		} else {
			atomic.AddUint64(&f.greetings, 1)
		}
		f.nextGreeting = now.Add(f.Period)
	}
	return nil
}

// AddToLoop implements fx.LoopAdder.
func (f *Firmware) AddToLoop(loop *fx.Loop) {
	loop.AddController(fx.PrLvNormal, f)
	if r, ok := f.Board.(fx.Runnable); ok {
		loop.AddRunnable(fx.NamedRun("board", r))
	}
}
