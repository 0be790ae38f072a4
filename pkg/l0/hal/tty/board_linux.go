//go:build linux

package tty

import (
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/robotalks/serial.go/pkg/l0/hal"
)

// Board implements hal.Board on a host serial device.
type Board struct {
	Device  string
	ClockHz uint32

	fd     int
	lock   sync.Mutex
	irq    sync.Mutex
	div    uint16
	format hal.Format
	txEn   bool
	rxEn   bool
	spEn   bool
	led    bool
}

// New creates a Board for device. The device is opened by Init.
func New(device string, clockHz uint32) *Board {
	return &Board{Device: device, ClockHz: clockHz, fd: -1, format: hal.Format8N1}
}

var speeds = []struct {
	baud  uint32
	speed uint32
}{
	{1200, unix.B1200},
	{2400, unix.B2400},
	{4800, unix.B4800},
	{9600, unix.B9600},
	{19200, unix.B19200},
	{38400, unix.B38400},
	{57600, unix.B57600},
	{115200, unix.B115200},
}

// nearestSpeed picks the standard rate closest to baud. The divisor of a
// real part rarely produces a standard rate exactly (31 at 20 MHz gives
// 9765 baud), but the receiving end runs at the standard rate.
func nearestSpeed(baud uint32) (uint32, uint32) {
	best := speeds[0]
	for _, s := range speeds[1:] {
		if absDiff(s.baud, baud) < absDiff(best.baud, baud) {
			best = s
		}
	}
	return best.baud, best.speed
}

func absDiff(a, b uint32) uint32 {
	if a > b {
		return a - b
	}
	return b - a
}

// Init implements hal.Board.
func (b *Board) Init() error {
	b.lock.Lock()
	defer b.lock.Unlock()
	fd, err := unix.Open(b.Device, unix.O_RDWR|unix.O_NOCTTY|unix.O_NONBLOCK, 0)
	if err != nil {
		return errors.Wrapf(err, "open %s", b.Device)
	}
	b.fd = fd
	if err := b.applyLocked(); err != nil {
		unix.Close(fd)
		b.fd = -1
		return err
	}
	glog.Infof("tty: %s opened", b.Device)
	return nil
}

// Close releases the device.
func (b *Board) Close() error {
	b.lock.Lock()
	defer b.lock.Unlock()
	if b.fd < 0 {
		return nil
	}
	err := unix.Close(b.fd)
	b.fd = -1
	return err
}

func (b *Board) applyLocked() error {
	if b.fd < 0 {
		return nil
	}
	t, err := unix.IoctlGetTermios(b.fd, unix.TCGETS)
	if err != nil {
		return errors.Wrap(err, "get termios")
	}
	// raw mode.
	t.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP |
		unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON | unix.IXOFF
	t.Oflag &^= unix.OPOST
	t.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	t.Cflag &^= unix.CSIZE | unix.PARENB | unix.PARODD | unix.CSTOPB | unix.CBAUD | unix.CRTSCTS
	t.Cflag |= unix.CLOCAL
	if b.rxEn {
		t.Cflag |= unix.CREAD
	} else {
		t.Cflag &^= unix.CREAD
	}

	switch b.format.DataBits {
	case 5:
		t.Cflag |= unix.CS5
	case 6:
		t.Cflag |= unix.CS6
	case 7:
		t.Cflag |= unix.CS7
	default:
		t.Cflag |= unix.CS8
	}
	switch b.format.Parity {
	case hal.ParityEven:
		t.Cflag |= unix.PARENB
	case hal.ParityOdd:
		t.Cflag |= unix.PARENB | unix.PARODD
	}
	if b.format.StopBits == 2 {
		t.Cflag |= unix.CSTOPB
	}

	baud := uint32(9600)
	if b.div != 0 {
		baud = hal.ActualBaud(b.ClockHz, b.div)
	}
	std, speed := nearestSpeed(baud)
	t.Cflag |= speed
	t.Ispeed, t.Ospeed = speed, speed
	t.Cc[unix.VMIN], t.Cc[unix.VTIME] = 0, 0
	if err := unix.IoctlSetTermios(b.fd, unix.TCSETS, t); err != nil {
		return errors.Wrap(err, "set termios")
	}
	glog.V(2).Infof("tty: %s %d %s", b.Device, std, b.format)
	return nil
}

func (b *Board) apply() {
	if err := b.applyLocked(); err != nil {
		glog.Warningf("tty: %s: %v", b.Device, err)
	}
}

// TransmitReady implements hal.Board. The output queue of the driver
// being empty stands for the transmit register being free.
func (b *Board) TransmitReady() bool {
	b.lock.Lock()
	defer b.lock.Unlock()
	if b.fd < 0 {
		return false
	}
	n, err := unix.IoctlGetInt(b.fd, unix.TIOCOUTQ)
	return err == nil && n == 0
}

// ReceiveReady implements hal.Board.
func (b *Board) ReceiveReady() bool {
	b.lock.Lock()
	defer b.lock.Unlock()
	if b.fd < 0 || !b.spEn || !b.rxEn {
		return false
	}
	fds := []unix.PollFd{{Fd: int32(b.fd), Events: unix.POLLIN}}
	n, err := unix.Poll(fds, 0)
	return err == nil && n > 0 && fds[0].Revents&unix.POLLIN != 0
}

// WriteByte implements hal.Board.
func (b *Board) WriteByte(c byte) error {
	b.lock.Lock()
	defer b.lock.Unlock()
	if b.fd < 0 || !b.spEn || !b.txEn {
		return hal.ErrDisabled
	}
	n, err := unix.Write(b.fd, []byte{c})
	if err == unix.EAGAIN || (err == nil && n == 0) {
		return hal.ErrBusy
	}
	return errors.Wrapf(err, "write %s", b.Device)
}

// ReadByte implements hal.Board.
func (b *Board) ReadByte() (byte, error) {
	b.lock.Lock()
	defer b.lock.Unlock()
	if b.fd < 0 || !b.spEn || !b.rxEn {
		return 0, hal.ErrDisabled
	}
	var buf [1]byte
	n, err := unix.Read(b.fd, buf[:])
	if err == unix.EAGAIN || (err == nil && n == 0) {
		return 0, hal.ErrNoData
	}
	if err != nil {
		return 0, errors.Wrapf(err, "read %s", b.Device)
	}
	return buf[0], nil
}

// SetBaudDivisor implements hal.Board.
func (b *Board) SetBaudDivisor(div uint16) {
	b.lock.Lock()
	defer b.lock.Unlock()
	if b.div != div {
		b.div = div
		b.apply()
	}
}

// SetFormat implements hal.Board.
func (b *Board) SetFormat(f hal.Format) {
	b.lock.Lock()
	defer b.lock.Unlock()
	if b.format != f {
		b.format = f
		b.apply()
	}
}

// SetTransmitterEnabled implements hal.Board.
func (b *Board) SetTransmitterEnabled(en bool) {
	b.lock.Lock()
	b.txEn = en
	b.lock.Unlock()
}

// SetReceiverEnabled implements hal.Board.
func (b *Board) SetReceiverEnabled(en bool) {
	b.lock.Lock()
	defer b.lock.Unlock()
	if b.rxEn != en {
		b.rxEn = en
		b.apply()
	}
}

// SetSerialEnabled implements hal.Board.
func (b *Board) SetSerialEnabled(en bool) {
	b.lock.Lock()
	b.spEn = en
	b.lock.Unlock()
}

// DelayMs implements hal.Board.
func (b *Board) DelayMs(n int) { time.Sleep(time.Duration(n) * time.Millisecond) }

// DelayUs implements hal.Board.
func (b *Board) DelayUs(n int) { time.Sleep(time.Duration(n) * time.Microsecond) }

// SetLED implements hal.Board by driving RTS.
func (b *Board) SetLED(on bool) {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.led = on
	if b.fd < 0 {
		return
	}
	req := uint(unix.TIOCMBIC)
	if on {
		req = unix.TIOCMBIS
	}
	if err := unix.IoctlSetPointerInt(b.fd, req, unix.TIOCM_RTS); err != nil {
		glog.Warningf("tty: %s: set RTS: %v", b.Device, err)
	}
}

// LED implements hal.Board.
func (b *Board) LED() bool {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.led
}

// Interrupts implements hal.Board. A host process has no interrupts to
// mask; the lock still serializes buffer updates.
func (b *Board) Interrupts() sync.Locker {
	return &b.irq
}

var _ hal.Board = (*Board)(nil)
