package mqtt

import (
	"context"
	"time"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/robotalks/serial.go/pkg/l1/msgs"
	"github.com/robotalks/serial.go/pkg/l1/tap"
)

// Topics under <prefix><board>/.
const (
	TopicTX     = "tx"
	TopicRX     = "rx"
	TopicInject = "inject"
	TopicSend   = "send"
)

// DefaultPublishTimeout bounds the wait for a publish acknowledgement.
const DefaultPublishTimeout = time.Second

// Tap publishes line frames of a board to <board>/tx and <board>/rx.
// Payloads on <board>/send go to OnSend, payloads on <board>/inject go
// to OnInject.
type Tap struct {
	Queue          *Queue
	Board          string
	Mux            *tap.Mux
	OnSend         tap.Handler
	OnInject       tap.Handler
	PublishTimeout time.Duration
}

// NewTap creates a Tap.
func NewTap(q *Queue, board string, mux *tap.Mux) *Tap {
	return &Tap{
		Queue:          q,
		Board:          board,
		Mux:            mux,
		PublishTimeout: DefaultPublishTimeout,
	}
}

// Topic gets the topic of a board, without the queue prefix.
func (t *Tap) Topic(name string) string {
	return t.Board + "/" + name
}

// WriteFrame implements tap.FrameWriter.
func (t *Tap) WriteFrame(frame *msgs.LineFrame, encoded []byte) error {
	topic := t.Topic(TopicTX)
	if frame.Direction == msgs.DirectionRX {
		topic = t.Topic(TopicRX)
	}
	token := t.Queue.Pub(topic, encoded)
	if !token.WaitTimeout(t.PublishTimeout) {
		return errors.Errorf("publish %s: timeout", topic)
	}
	return errors.Wrapf(token.Error(), "publish %s", topic)
}

// Run implements Runnable. It connects the queue, attaches to the mux and
// serves subscriptions until ctx is done.
func (t *Tap) Run(ctx context.Context) error {
	token := t.Queue.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return errors.Wrap(err, "mqtt connect")
	}
	defer t.Queue.Close()

	subs := []*Subscription{
		t.Queue.Sub(t.Topic(TopicSend), t.dispatchTo("send", func() tap.Handler { return t.OnSend })),
		t.Queue.Sub(t.Topic(TopicInject), t.dispatchTo("inject", func() tap.Handler { return t.OnInject })),
	}
	defer func() {
		for _, sub := range subs {
			sub.Close()
		}
	}()
	if t.Mux != nil {
		remove := t.Mux.Add(t)
		defer remove()
	}
	glog.Infof("mqtt: tapping board %s at %q", t.Board, t.Queue.TopicPrefix+t.Board)
	<-ctx.Done()
	return ctx.Err()
}

func (t *Tap) dispatchTo(what string, handler func() tap.Handler) Handler {
	return func(topic string, payload []byte) {
		h := handler()
		if h == nil {
			glog.V(2).Infof("mqtt: %s ignored, no handler", what)
			return
		}
		if err := h(payload); err != nil {
			glog.Warningf("mqtt: %s %q: %v", what, topic, err)
		}
	}
}
