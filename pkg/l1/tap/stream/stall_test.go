package stream

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/serial.go/pkg/l0/hal/sim"
	"github.com/robotalks/serial.go/pkg/l0/serial"
	"github.com/robotalks/serial.go/pkg/l1/msgs"
	"github.com/robotalks/serial.go/pkg/l1/tap"
)

func TestStalledPeerDoesNotBlockTransmit(t *testing.T) {
	board := sim.NewBoard(sim.Options{Realtime: false})
	require.NoError(t, board.Init())
	tr, err := serial.New(board, serial.DefaultConfig)
	require.NoError(t, err)
	mux := tap.NewMux("b0")
	tr.Observer = mux

	c1, c2 := net.Pipe()
	defer c2.Close()
	// c2 never reads.
	mux.Add(tap.FrameWriterFunc(func(_ *msgs.LineFrame, encoded []byte) error {
		return New(c1).WritePacket(encoded)
	}))

	done := make(chan error, 1)
	go func() {
		for i := 0; i < 3; i++ {
			if err := tr.TransmitString(context.Background(), "Hi"); err != nil {
				done <- err
				return
			}
		}
		done <- nil
	}()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatalf("transmit blocked, state %s", tr.State())
	}
	require.Equal(t, []byte("HiHiHi"), board.Transmitted())
}

func TestStalledPeerIsDropped(t *testing.T) {
	c1, c2 := net.Pipe()
	defer c2.Close()
	rw := New(c1)
	rw.WriteTimeout = 20 * time.Millisecond
	mux := tap.NewMux("b0")
	errCh := make(chan error, 1)
	go func() {
		errCh <- (&tap.Conn{Name: "stalled", ReadWriter: rw, Mux: mux}).Run(context.Background())
	}()

	deadline := time.Now().Add(time.Second)
	for mux.Len() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	require.Equal(t, 1, mux.Len())
	mux.ObserveLine(serial.DirTX, []byte("Hi"))

	select {
	case <-errCh:
	case <-time.After(2 * time.Second):
		t.Fatal("stalled peer not dropped")
	}
	require.Equal(t, 0, mux.Len())
}
