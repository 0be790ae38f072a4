// Package stream carries line frames over byte streams such as TCP.
package stream

import (
	"encoding/binary"
	"fmt"
	"io"
	"sync"
	"time"
)

// MaxPacketSize bounds the length prefix accepted by ReadPacket.
const MaxPacketSize = 1 << 16

// ErrPacketTooLarge indicates a length prefix above MaxPacketSize.
type ErrPacketTooLarge struct {
	Size uint32
}

// Error implements error.
func (e *ErrPacketTooLarge) Error() string {
	return fmt.Sprintf("packet too large: %d bytes", e.Size)
}

// DefaultWriteTimeout bounds a packet write on streams with deadlines.
const DefaultWriteTimeout = 2 * time.Second

type writeDeadliner interface {
	SetWriteDeadline(time.Time) error
}

// ReadWriter implements tap.PacketReadWriter.
// Each packet is prefixed by 4-byte (little-endian) indicate the length.
type ReadWriter struct {
	io.ReadWriter
	// WriteTimeout applies when the stream supports write deadlines
	// (e.g. net.Conn). 0 disables it.
	WriteTimeout time.Duration

	writeLock sync.Mutex
}

// New creates a ReadWriter with io.ReadWriter.
func New(s io.ReadWriter) *ReadWriter {
	return &ReadWriter{ReadWriter: s, WriteTimeout: DefaultWriteTimeout}
}

// ReadPacket implements tap.PacketReader.
func (p *ReadWriter) ReadPacket() ([]byte, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(p.ReadWriter, hdr[:]); err != nil {
		return nil, err
	}
	size := binary.LittleEndian.Uint32(hdr[:])
	if size > MaxPacketSize {
		return nil, &ErrPacketTooLarge{Size: size}
	}
	pkt := make([]byte, size)
	if _, err := io.ReadFull(p.ReadWriter, pkt); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return pkt, nil
}

// WritePacket implements tap.PacketWriter. Header and payload go out in
// a single write.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	if len(pkt) > MaxPacketSize {
		return &ErrPacketTooLarge{Size: uint32(len(pkt))}
	}
	buf := make([]byte, 4+len(pkt))
	binary.LittleEndian.PutUint32(buf, uint32(len(pkt)))
	copy(buf[4:], pkt)
	p.writeLock.Lock()
	defer p.writeLock.Unlock()
	if d, ok := p.ReadWriter.(writeDeadliner); ok && p.WriteTimeout > 0 {
		if err := d.SetWriteDeadline(time.Now().Add(p.WriteTimeout)); err != nil {
			return err
		}
	}
	_, err := p.Write(buf)
	return err
}

// Close closes the underlying stream if it is an io.Closer.
func (p *ReadWriter) Close() error {
	if closer, ok := p.ReadWriter.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
