package ring

import "errors"

var (
	// ErrBufferFull indicates an insert against a full buffer.
	// The byte is dropped and the buffer is left unchanged.
	ErrBufferFull = errors.New("buffer full")
	// ErrBufferEmpty indicates a retrieve against an empty buffer.
	ErrBufferEmpty = errors.New("buffer empty")
)
