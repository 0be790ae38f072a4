package sh

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/serial.go/pkg/firmware"
	"github.com/robotalks/serial.go/pkg/l1/env"
)

func newTestShell(t *testing.T) *Shell {
	fwConf := firmware.NewConfig()
	fwConf.Greeting = ""
	e, err := (&env.Config{BoardID: "b0", Board: env.BoardSim, LoopInterval: 5 * time.Millisecond}).NewEnv(fwConf)
	require.NoError(t, err)
	e.Sim.Options.Realtime = false
	return &Shell{Env: e, Timeout: time.Second}
}

func TestShellRequests(t *testing.T) {
	s := newTestShell(t)
	require.NoError(t, s.Start())
	defer func() { require.NoError(t, s.Stop()) }()

	require.NoError(t, s.Send([]byte("Hello human...\n")))
	require.Equal(t, []byte("Hello human...\n"), s.Env.Sim.Transmitted())

	require.NoError(t, s.Env.Inject([]byte("?")))
	b, err := s.Receive()
	require.NoError(t, err)
	require.Equal(t, byte('?'), b)

	on, err := s.SetLED(false)
	require.NoError(t, err)
	require.False(t, on)

	st := s.Env.Firmware.Status()
	require.True(t, st.Booted)
	require.Equal(t, uint64(1), st.Serial.BytesReceived)
}

func TestShellStopIdempotent(t *testing.T) {
	s := newTestShell(t)
	require.NoError(t, s.Stop())
	require.NoError(t, s.Start())
	require.NoError(t, s.Stop())
	require.NoError(t, s.Stop())
}

func TestOnOff(t *testing.T) {
	require.Equal(t, "on", onOff(true))
	require.Equal(t, "off", onOff(false))
}
