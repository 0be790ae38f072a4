package mqtt

import (
	"errors"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/serial.go/pkg/l1/msgs"
	"github.com/robotalks/serial.go/pkg/l1/tap"
)

func TestTapTopics(t *testing.T) {
	tp := NewTap(NewQueue(paho.NewClientOptions(), "serial/"), "board0", tap.NewMux("board0"))
	require.Equal(t, "board0/tx", tp.Topic(TopicTX))
	require.Equal(t, "board0/inject", tp.Topic(TopicInject))
}

func TestTapWriteFrameNotConnected(t *testing.T) {
	tp := NewTap(NewQueue(paho.NewClientOptions(), ""), "board0", nil)
	tp.PublishTimeout = 10 * time.Millisecond
	err := tp.WriteFrame(msgs.NewLineFrame("board0", msgs.DirectionRX, 1, []byte("x"), time.Now()), []byte{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "publish board0/rx")
}

func TestTapDispatch(t *testing.T) {
	tp := NewTap(NewQueue(paho.NewClientOptions(), ""), "board0", nil)
	var sent []byte
	h := tp.dispatchTo("send", func() tap.Handler { return tp.OnSend })
	h("board0/send", []byte("ignored"))
	require.Nil(t, sent)

	tp.OnSend = func(pkt []byte) error {
		sent = pkt
		return errors.New("logged only")
	}
	h("board0/send", []byte("hi"))
	require.Equal(t, []byte("hi"), sent)
}
