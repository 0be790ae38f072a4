package stream

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadWriter(t *testing.T) {
	var buf bytes.Buffer
	rw := New(&buf)
	testCases := [][]byte{
		[]byte("Hello human...\n"),
		{},
		{0, 1, 2},
	}
	for _, pkt := range testCases {
		require.NoError(t, rw.WritePacket(pkt))
	}
	require.Equal(t, []byte{15, 0, 0, 0, 'H'}, buf.Bytes()[:5])
	for _, pkt := range testCases {
		got, err := rw.ReadPacket()
		require.NoError(t, err)
		require.Equal(t, pkt, got)
	}
	_, err := rw.ReadPacket()
	require.Equal(t, io.EOF, err)
}

func TestReadWriterErrors(t *testing.T) {
	rw := New(bytes.NewBuffer([]byte{0xff, 0xff, 0xff, 0xff}))
	_, err := rw.ReadPacket()
	require.Equal(t, &ErrPacketTooLarge{Size: 0xffffffff}, err)

	rw = New(bytes.NewBuffer([]byte{4, 0, 0, 0, 'a'}))
	_, err = rw.ReadPacket()
	require.Equal(t, io.ErrUnexpectedEOF, err)

	require.Error(t, New(&bytes.Buffer{}).WritePacket(make([]byte, MaxPacketSize+1)))
}
