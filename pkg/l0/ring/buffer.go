package ring

import "sync"

// DefaultCapacity is the capacity of the staging buffer on the target board.
const DefaultCapacity = 8

// Buffer is a FIFO ring of bytes with fixed capacity.
type Buffer struct {
	data []byte
	head int // next write slot
	tail int // next read slot
	size int
	cs   sync.Locker
}

// New creates a Buffer with the given capacity. All mutations are guarded
// by cs, normally the board's interrupt lock. A nil cs uses a private mutex.
func New(capacity int, cs sync.Locker) *Buffer {
	if capacity <= 0 {
		panic("ring capacity must be positive")
	}
	if cs == nil {
		cs = &sync.Mutex{}
	}
	return &Buffer{data: make([]byte, capacity), cs: cs}
}

// Insert appends b at head.
func (r *Buffer) Insert(b byte) error {
	r.cs.Lock()
	defer r.cs.Unlock()
	if r.size == len(r.data) {
		return ErrBufferFull
	}
	r.data[r.head] = b
	r.head = (r.head + 1) % len(r.data)
	r.size++
	return nil
}

// Retrieve removes and returns the byte at tail.
func (r *Buffer) Retrieve() (byte, error) {
	r.cs.Lock()
	defer r.cs.Unlock()
	if r.size == 0 {
		return 0, ErrBufferEmpty
	}
	b := r.data[r.tail]
	r.tail = (r.tail + 1) % len(r.data)
	r.size--
	return b, nil
}

// Len returns the number of pending bytes.
func (r *Buffer) Len() int {
	r.cs.Lock()
	defer r.cs.Unlock()
	return r.size
}

// Cap returns the capacity.
func (r *Buffer) Cap() int {
	return len(r.data)
}

// Free returns the number of bytes that can be inserted before the buffer
// is full.
func (r *Buffer) Free() int {
	r.cs.Lock()
	defer r.cs.Unlock()
	return len(r.data) - r.size
}

// Reset discards pending bytes.
func (r *Buffer) Reset() {
	r.cs.Lock()
	r.head, r.tail, r.size = 0, 0, 0
	r.cs.Unlock()
}
