package stream

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/serial.go/pkg/l0/serial"
	"github.com/robotalks/serial.go/pkg/l1/msgs"
	"github.com/robotalks/serial.go/pkg/l1/tap"
)

func TestServer(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	received := make(chan []byte, 1)
	mux := tap.NewMux("board0")
	s := &Server{
		Mux: mux,
		Handler: func(pkt []byte) error {
			received <- pkt
			return nil
		},
	}
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Serve(ctx, ln) }()

	conn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	defer conn.Close()
	client := New(conn)

	deadline := time.Now().Add(time.Second)
	for mux.Len() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	require.Equal(t, 1, mux.Len())

	mux.ObserveLine(serial.DirTX, []byte("Hello"))
	pkt, err := client.ReadPacket()
	require.NoError(t, err)
	frame, err := msgs.DecodeLineFrame(pkt)
	require.NoError(t, err)
	require.Equal(t, []byte("Hello"), frame.Payload)

	require.NoError(t, client.WritePacket([]byte("ping")))
	require.Equal(t, []byte("ping"), <-received)

	cancel()
	require.Equal(t, context.Canceled, <-errCh)
}
