package msgs

import (
	"fmt"
	"time"

	"github.com/golang/protobuf/proto"
	"github.com/golang/protobuf/ptypes"
	"github.com/golang/protobuf/ptypes/timestamp"
)

// Directions of a LineFrame.
const (
	DirectionTX = "tx"
	DirectionRX = "rx"
)

// LineFrame records bytes seen on a board's serial line.
type LineFrame struct {
	Board     string               `protobuf:"bytes,1,opt,name=board,proto3" json:"board,omitempty"`
	Direction string               `protobuf:"bytes,2,opt,name=direction,proto3" json:"direction,omitempty"`
	Sequence  uint64               `protobuf:"varint,3,opt,name=sequence,proto3" json:"sequence,omitempty"`
	Payload   []byte               `protobuf:"bytes,4,opt,name=payload,proto3" json:"payload,omitempty"`
	Time      *timestamp.Timestamp `protobuf:"bytes,5,opt,name=time,proto3" json:"time,omitempty"`
}

// Reset implements proto.Message.
func (m *LineFrame) Reset() { *m = LineFrame{} }

// String implements proto.Message.
func (m *LineFrame) String() string { return proto.CompactTextString(m) }

// ProtoMessage implements proto.Message.
func (*LineFrame) ProtoMessage() {}

// NewLineFrame creates a LineFrame stamped with t.
func NewLineFrame(board, direction string, seq uint64, payload []byte, t time.Time) *LineFrame {
	f := &LineFrame{
		Board:     board,
		Direction: direction,
		Sequence:  seq,
		Payload:   payload,
	}
	if ts, err := ptypes.TimestampProto(t); err == nil {
		f.Time = ts
	}
	return f
}

// Timestamp gets the time of the frame, zero if missing.
func (m *LineFrame) Timestamp() time.Time {
	if m.Time == nil {
		return time.Time{}
	}
	t, err := ptypes.Timestamp(m.Time)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Encode encodes the frame to bytes.
func (m *LineFrame) Encode() ([]byte, error) {
	return proto.Marshal(m)
}

// Format renders the frame for display, e.g. `board0 tx #3 "Hello"`.
func (m *LineFrame) Format() string {
	return fmt.Sprintf("%s %s #%d %q", m.Board, m.Direction, m.Sequence, m.Payload)
}

// ErrBadDirection indicates a frame with an unknown direction.
type ErrBadDirection struct {
	Direction string
}

// Error implements error.
func (e *ErrBadDirection) Error() string {
	return fmt.Sprintf("bad direction: %q", e.Direction)
}

// DecodeLineFrame decodes bytes into LineFrame.
func DecodeLineFrame(data []byte) (*LineFrame, error) {
	var f LineFrame
	if err := proto.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	if f.Direction != DirectionTX && f.Direction != DirectionRX {
		return nil, &ErrBadDirection{Direction: f.Direction}
	}
	return &f, nil
}
