// Package websocket streams line frames to websocket clients.
package websocket

import (
	"time"

	"golang.org/x/net/websocket"
)

// WriteTimeout bounds sending one message to a client.
var WriteTimeout = 2 * time.Second

// ReadWriter implements tap.PacketReadWriter with binary messages.
type ReadWriter websocket.Conn

// New wraps websocket.Conn.
func New(conn *websocket.Conn) *ReadWriter {
	conn.PayloadType = websocket.BinaryFrame
	return (*ReadWriter)(conn)
}

// ReadPacket implements tap.PacketReader.
func (p *ReadWriter) ReadPacket() (pkt []byte, err error) {
	err = websocket.Message.Receive((*websocket.Conn)(p), &pkt)
	return
}

// WritePacket implements tap.PacketWriter.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	conn := (*websocket.Conn)(p)
	if err := conn.SetWriteDeadline(time.Now().Add(WriteTimeout)); err != nil {
		return err
	}
	return websocket.Message.Send(conn, pkt)
}

// Close implements io.Closer.
func (p *ReadWriter) Close() error {
	return (*websocket.Conn)(p).Close()
}
