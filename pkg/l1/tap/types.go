package tap

import "github.com/robotalks/serial.go/pkg/l1/msgs"

// PacketReader reads packets in bytes.
type PacketReader interface {
	ReadPacket() ([]byte, error)
}

// PacketWriter writes packets in bytes.
type PacketWriter interface {
	WritePacket([]byte) error
}

// PacketReadWriter reads/writes packets in bytes.
type PacketReadWriter interface {
	PacketReader
	PacketWriter
}

// FrameWriter receives frames from a Mux. encoded is the wire form of frame.
type FrameWriter interface {
	WriteFrame(frame *msgs.LineFrame, encoded []byte) error
}

// FrameWriterFunc is func form of FrameWriter.
type FrameWriterFunc func(frame *msgs.LineFrame, encoded []byte) error

// WriteFrame implements FrameWriter.
func (f FrameWriterFunc) WriteFrame(frame *msgs.LineFrame, encoded []byte) error {
	return f(frame, encoded)
}

// Handler handles a packet received from a peer.
type Handler func(pkt []byte) error
