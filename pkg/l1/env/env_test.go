package env

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/serial.go/pkg/firmware"
	fx "github.com/robotalks/serial.go/pkg/framework"
	"github.com/robotalks/serial.go/pkg/l0/serial"
	"github.com/robotalks/serial.go/pkg/l1/msgs"
)

type frames struct {
	got chan *msgs.LineFrame
}

func (f *frames) WriteFrame(frame *msgs.LineFrame, _ []byte) error {
	f.got <- frame
	return nil
}

func newSimEnv(t *testing.T, conf *Config) *Env {
	fwConf := firmware.NewConfig()
	fwConf.Greeting = ""
	e, err := conf.NewEnv(fwConf)
	require.NoError(t, err)
	require.NotNil(t, e.Sim)
	e.Sim.Options.Realtime = false
	return e
}

func TestNewEnvErrors(t *testing.T) {
	testCases := []struct {
		name string
		conf Config
	}{
		{"no id", Config{Board: BoardSim}},
		{"bad board", Config{BoardID: "b", Board: "fpga"}},
		{"bad mqtt", Config{BoardID: "b", Board: BoardSim, MQTTBrokerURL: "mqtt://%zz"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			conf := tc.conf
			_, err := conf.NewEnv(firmware.NewConfig())
			require.Error(t, err)
		})
	}
}

func TestEnvTaps(t *testing.T) {
	e := newSimEnv(t, &Config{
		BoardID:       "b0",
		Board:         BoardSim,
		MQTTBrokerURL: "mqtt://localhost:1883/serial/",
		WebsocketAddr: ":0",
		StreamAddr:    ":0",
	})
	require.Len(t, e.taps, 3)
	require.Equal(t, "mqtt", e.taps[0].(fx.Named).Name())
	require.Equal(t, "websocket", e.taps[1].(fx.Named).Name())
	require.Equal(t, "stream", e.taps[2].(fx.Named).Name())
}

func TestEnvSendAndInject(t *testing.T) {
	e := newSimEnv(t, &Config{BoardID: "b0", Board: BoardSim})
	require.Error(t, e.Send([]byte("early")))

	rec := &frames{got: make(chan *msgs.LineFrame, 4)}
	e.Mux.Add(rec)
	require.NoError(t, e.Firmware.Boot())
	loop := fx.NewLoop()
	e.AddToLoop(loop)

	require.NoError(t, e.Send([]byte("hi")))
	require.NoError(t, e.Inject([]byte{'k'}))
	ch := make(chan firmware.ReceiveResult, 1)
	loop.PostMessage(&firmware.ReceiveRequest{Result: ch})
	loop.RunOnce(context.Background())

	require.Equal(t, []byte("hi"), e.Sim.Transmitted())
	res := <-ch
	require.NoError(t, res.Err)
	require.Equal(t, byte('k'), res.Byte)

	tx, rx := <-rec.got, <-rec.got
	require.Equal(t, serial.DirTX.String(), tx.Direction)
	require.Equal(t, "b0", tx.Board)
	require.Equal(t, serial.DirRX.String(), rx.Direction)
}

func TestInjectNeedsSim(t *testing.T) {
	e := &Env{Config: &Config{Board: BoardTTY}}
	require.Error(t, e.Inject([]byte{1}))
}

func TestEnvNewLoop(t *testing.T) {
	conf := &Config{BoardID: "b0", Board: BoardSim, LoopInterval: 5 * time.Millisecond}
	e := newSimEnv(t, conf)
	loop := e.NewLoop()
	require.Equal(t, 5*time.Millisecond, loop.Interval)
	require.NoError(t, e.Send([]byte("x")))
}
