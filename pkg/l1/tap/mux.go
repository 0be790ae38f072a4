package tap

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/serial.go/pkg/framework"
	"github.com/robotalks/serial.go/pkg/l0/serial"
	"github.com/robotalks/serial.go/pkg/l1/msgs"
)

// DefaultQueueSize is the number of frames buffered per writer.
const DefaultQueueSize = 64

// Mux fans line frames out to writers. It implements serial.Observer.
//
// ObserveLine never blocks: each writer drains its own bounded queue on
// its own goroutine, and frames for a writer whose queue is full are
// dropped.
type Mux struct {
	Board string
	// Now stamps frames, time.Now if nil.
	Now func() time.Time
	// QueueSize is the per writer queue length, DefaultQueueSize if 0.
	QueueSize int

	lock    sync.RWMutex
	writers []*muxWriter
	seq     uint64
	dropped uint64
}

type queuedFrame struct {
	frame   *msgs.LineFrame
	encoded []byte
}

type muxWriter struct {
	FrameWriter
	queue chan queuedFrame
	done  chan struct{}
}

func (w *muxWriter) run() {
	defer close(w.done)
	for f := range w.queue {
		if err := w.WriteFrame(f.frame, f.encoded); err != nil {
			glog.Warningf("tap: write frame %d: %v", f.frame.Sequence, err)
		}
	}
}

// NewMux creates a Mux for board.
func NewMux(board string) *Mux {
	return &Mux{Board: board}
}

// Add attaches a writer. The returned func detaches it; frames already
// queued are still written.
func (m *Mux) Add(w FrameWriter) (remove func()) {
	size := m.QueueSize
	if size <= 0 {
		size = DefaultQueueSize
	}
	ent := &muxWriter{
		FrameWriter: w,
		queue:       make(chan queuedFrame, size),
		done:        make(chan struct{}),
	}
	go ent.run()
	m.lock.Lock()
	m.writers = append(m.writers, ent)
	m.lock.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			m.lock.Lock()
			defer m.lock.Unlock()
			for n, w := range m.writers {
				if w == ent {
					m.writers = append(m.writers[:n], m.writers[n+1:]...)
					break
				}
			}
			close(ent.queue)
		})
	}
}

// Len returns the number of attached writers.
func (m *Mux) Len() int {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return len(m.writers)
}

// Dropped returns the number of frames dropped on full queues.
func (m *Mux) Dropped() uint64 {
	return atomic.LoadUint64(&m.dropped)
}

// Publish writes frame to all writers on the calling goroutine, bypassing
// the queues.
func (m *Mux) Publish(frame *msgs.LineFrame) error {
	encoded, err := frame.Encode()
	if err != nil {
		return err
	}
	m.lock.RLock()
	writers := make([]*muxWriter, len(m.writers))
	copy(writers, m.writers)
	m.lock.RUnlock()

	var errs fx.AggregatedError
	for _, w := range writers {
		errs.Add(w.WriteFrame(frame, encoded))
	}
	return errs.Aggregate()
}

// Enqueue queues frame for every writer without waiting.
func (m *Mux) Enqueue(frame *msgs.LineFrame) error {
	encoded, err := frame.Encode()
	if err != nil {
		return err
	}
	f := queuedFrame{frame: frame, encoded: encoded}
	m.lock.RLock()
	defer m.lock.RUnlock()
	for _, w := range m.writers {
		select {
		case w.queue <- f:
		default:
			if n := atomic.AddUint64(&m.dropped, 1); n == 1 || n%100 == 0 {
				glog.Warningf("tap: writer queue full, %d frames dropped", n)
			}
		}
	}
	return nil
}

// ObserveLine implements serial.Observer.
func (m *Mux) ObserveLine(dir serial.Direction, data []byte) {
	payload := make([]byte, len(data))
	copy(payload, data)
	now := time.Now
	if m.Now != nil {
		now = m.Now
	}
	seq := atomic.AddUint64(&m.seq, 1)
	frame := msgs.NewLineFrame(m.Board, dir.String(), seq, payload, now())
	if err := m.Enqueue(frame); err != nil {
		glog.Warningf("tap: frame %d: %v", seq, err)
	}
}
