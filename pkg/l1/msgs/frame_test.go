package msgs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLineFrameEncoding(t *testing.T) {
	now := time.Unix(1500000000, 123000).UTC()
	f := NewLineFrame("board0", DirectionTX, 7, []byte("Hello"), now)
	data, err := f.Encode()
	require.NoError(t, err)

	decoded, err := DecodeLineFrame(data)
	require.NoError(t, err)
	require.Equal(t, "board0", decoded.Board)
	require.Equal(t, DirectionTX, decoded.Direction)
	require.Equal(t, uint64(7), decoded.Sequence)
	require.Equal(t, []byte("Hello"), decoded.Payload)
	require.True(t, now.Equal(decoded.Timestamp()))
	require.Equal(t, `board0 tx #7 "Hello"`, decoded.Format())
}

func TestDecodeLineFrameErrors(t *testing.T) {
	_, err := DecodeLineFrame([]byte{0xff})
	require.Error(t, err)

	data, err := (&LineFrame{Board: "b", Direction: "up"}).Encode()
	require.NoError(t, err)
	_, err = DecodeLineFrame(data)
	require.Equal(t, &ErrBadDirection{Direction: "up"}, err)

	var f LineFrame
	require.True(t, f.Timestamp().IsZero())
}
