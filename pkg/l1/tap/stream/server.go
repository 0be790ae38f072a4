package stream

import (
	"context"
	"net"
	"sync"

	"github.com/golang/glog"

	fx "github.com/robotalks/serial.go/pkg/framework"
	"github.com/robotalks/serial.go/pkg/l1/tap"
)

// Server accepts stream peers and attaches each to Mux.
type Server struct {
	Addr    string
	Mux     *tap.Mux
	Handler tap.Handler
}

// Run implements Runnable. It listens on Addr.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts peers from ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	glog.Infof("stream: serving frames on %s", ln.Addr())
	var wg sync.WaitGroup
	defer wg.Wait()
	return fx.RunWithContextCancel(ctx, func() { ln.Close() }, func() error {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return err
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				peer := &tap.Conn{
					Name:       "stream:" + conn.RemoteAddr().String(),
					ReadWriter: New(conn),
					Mux:        s.Mux,
					Handler:    s.Handler,
				}
				if err := peer.Run(ctx); err != nil && err != context.Canceled {
					glog.Warningf("%s: %v", peer.Name, err)
				}
			}()
		}
	})
}
