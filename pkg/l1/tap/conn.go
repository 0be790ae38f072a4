package tap

import (
	"context"
	"io"

	"github.com/golang/glog"

	fx "github.com/robotalks/serial.go/pkg/framework"
	"github.com/robotalks/serial.go/pkg/l1/msgs"
)

// Conn attaches a peer to a Mux: frames go out as packets, and packets
// read from the peer are passed to Handler.
type Conn struct {
	Name       string
	ReadWriter PacketReadWriter
	Mux        *Mux
	Handler    Handler
}

// Run implements Runnable. It returns when the peer disconnects or ctx
// is done, and closes the peer.
func (c *Conn) Run(ctx context.Context) error {
	if c.Mux != nil {
		remove := c.Mux.Add(FrameWriterFunc(c.writeFrame))
		defer remove()
	}
	glog.V(2).Infof("tap: %s attached", c.Name)
	defer glog.V(2).Infof("tap: %s detached", c.Name)
	return fx.RunWithContextCancel(ctx, func() { c.Close() }, func() error {
		defer c.Close()
		for {
			pkt, err := c.ReadWriter.ReadPacket()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return err
			}
			if h := c.Handler; h != nil {
				if err := h(pkt); err != nil {
					glog.Warningf("tap: %s: %v", c.Name, err)
				}
			}
		}
	})
}

// Close implements io.Closer.
func (c *Conn) Close() error {
	if closer, ok := c.ReadWriter.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// writeFrame drops the peer on a failed write: a partial packet leaves
// the peer's stream unusable.
func (c *Conn) writeFrame(_ *msgs.LineFrame, encoded []byte) error {
	if err := c.ReadWriter.WritePacket(encoded); err != nil {
		c.Close()
		return err
	}
	return nil
}
