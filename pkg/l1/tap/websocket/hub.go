package websocket

import (
	"context"
	"net/http"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	fx "github.com/robotalks/serial.go/pkg/framework"
	"github.com/robotalks/serial.go/pkg/l1/tap"
)

// Hub attaches every websocket client to Mux. Binary messages from a
// client are passed to Handler.
type Hub struct {
	Mux     *tap.Mux
	Handler tap.Handler
}

// ServeHTTP implements http.Handler.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(h.serve).ServeHTTP(w, r)
}

func (h *Hub) serve(conn *websocket.Conn) {
	peer := &tap.Conn{
		Name:       "ws:" + conn.Request().RemoteAddr,
		ReadWriter: New(conn),
		Mux:        h.Mux,
		Handler:    h.Handler,
	}
	if err := peer.Run(conn.Request().Context()); err != nil && err != context.Canceled {
		glog.V(2).Infof("%s: %v", peer.Name, err)
	}
}

// Server serves the Hub at Path on Addr.
type Server struct {
	Addr string
	Path string
	Hub  *Hub
}

// Run implements Runnable.
func (s *Server) Run(ctx context.Context) error {
	path := s.Path
	if path == "" {
		path = "/frames"
	}
	mux := http.NewServeMux()
	mux.Handle(path, s.Hub)
	srv := &http.Server{Addr: s.Addr, Handler: mux}
	glog.Infof("websocket: serving frames on %s%s", s.Addr, path)
	return fx.RunWithContextCancel(ctx, func() { srv.Close() }, srv.ListenAndServe)
}
