package env

import (
	"flag"
	"io"
	"os"
	"time"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/robotalks/serial.go/pkg/firmware"
	fx "github.com/robotalks/serial.go/pkg/framework"
	"github.com/robotalks/serial.go/pkg/l0/hal"
	"github.com/robotalks/serial.go/pkg/l0/hal/sim"
	"github.com/robotalks/serial.go/pkg/l1/tap"
	"github.com/robotalks/serial.go/pkg/l1/tap/mqtt"
	"github.com/robotalks/serial.go/pkg/l1/tap/stream"
	"github.com/robotalks/serial.go/pkg/l1/tap/websocket"
)

// Board kinds.
const (
	BoardSim = "sim"
	BoardTTY = "tty"
)

// Config provides common options to run a firmware.
type Config struct {
	BoardID string
	// Board is BoardSim or BoardTTY.
	Board  string
	Device string

	// MQTTBrokerURL enables the MQTT tap when not empty.
	// e.g. mqtt://host:port/topic-prefix
	MQTTBrokerURL string
	// WebsocketAddr enables the websocket tap when not empty.
	WebsocketAddr string
	// StreamAddr enables the TCP stream tap when not empty.
	StreamAddr string

	// LoopInterval is the period of the firmware loop.
	LoopInterval time.Duration
}

var defaultConfig = Config{
	Board:        BoardSim,
	Device:       "/dev/ttyUSB0",
	LoopInterval: 10 * time.Millisecond,
}

func init() {
	if val := os.Getenv("SERIAL_BOARD_ID"); val != "" {
		defaultConfig.BoardID = val
	} else {
		defaultConfig.BoardID = MachineBoardID()
	}
	if val := os.Getenv("SERIAL_MQTT_URL"); val != "" {
		defaultConfig.MQTTBrokerURL = val
	}
	if val := os.Getenv("SERIAL_DEVICE"); val != "" {
		defaultConfig.Device = val
		defaultConfig.Board = BoardTTY
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.BoardID, "id", defaultConfig.BoardID, "Board ID used in tap topics and frames.")
	flag.StringVar(&defaultConfig.Board, "board", defaultConfig.Board, "Board to run on: sim or tty.")
	flag.StringVar(&defaultConfig.Device, "device", defaultConfig.Device, "Serial device of the tty board.")
	flag.StringVar(&defaultConfig.MQTTBrokerURL, "mqtt", defaultConfig.MQTTBrokerURL, "MQTT broker URL, empty disables the MQTT tap.")
	flag.StringVar(&defaultConfig.WebsocketAddr, "ws", defaultConfig.WebsocketAddr, "Listen address of the websocket tap.")
	flag.StringVar(&defaultConfig.StreamAddr, "stream", defaultConfig.StreamAddr, "Listen address of the TCP stream tap.")
	flag.DurationVar(&defaultConfig.LoopInterval, "loop-interval", defaultConfig.LoopInterval, "Period of the firmware loop.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Env is a firmware on a board with its taps.
type Env struct {
	Config   *Config
	Board    hal.Board
	Firmware *firmware.Firmware
	Mux      *tap.Mux
	// Sim is set when running on the simulated board.
	Sim *sim.Board

	taps []fx.Runnable
	loop fx.LoopControl
}

// NewEnv creates Env from config.
func (c *Config) NewEnv(fwConf *firmware.Config) (*Env, error) {
	if c.BoardID == "" {
		return nil, errors.New("board id must be specified")
	}
	env := &Env{Config: c, Mux: tap.NewMux(c.BoardID)}
	switch c.Board {
	case BoardSim:
		opts := sim.DefaultOptions
		opts.ClockHz = fwConf.Serial.ClockHz
		env.Sim = sim.NewBoard(opts)
		env.Board = env.Sim
	case BoardTTY:
		board, err := newTTYBoard(c.Device, fwConf.Serial.ClockHz)
		if err != nil {
			return nil, err
		}
		env.Board = board
	default:
		return nil, errors.Errorf("unknown board %q", c.Board)
	}

	fw, err := fwConf.NewFirmware(env.Board)
	if err != nil {
		env.Close()
		return nil, errors.Wrap(err, "create firmware")
	}
	fw.Transport.Observer = env.Mux
	env.Firmware = fw

	if c.MQTTBrokerURL != "" {
		q, err := mqtt.NewQueueFromURL(c.MQTTBrokerURL)
		if err != nil {
			env.Close()
			return nil, errors.Wrap(err, "create MQTT queue")
		}
		t := mqtt.NewTap(q, c.BoardID, env.Mux)
		t.OnSend, t.OnInject = env.Send, env.Inject
		env.taps = append(env.taps, fx.NamedRun("mqtt", t))
	}
	if c.WebsocketAddr != "" {
		env.taps = append(env.taps, fx.NamedRun("websocket", &websocket.Server{
			Addr: c.WebsocketAddr,
			Hub:  &websocket.Hub{Mux: env.Mux, Handler: env.Send},
		}))
	}
	if c.StreamAddr != "" {
		env.taps = append(env.taps, fx.NamedRun("stream", &stream.Server{Addr: c.StreamAddr, Mux: env.Mux, Handler: env.Send}))
	}
	return env, nil
}

// MustNewEnv creates Env and fails on error.
func (c *Config) MustNewEnv(fwConf *firmware.Config) *Env {
	env, err := c.NewEnv(fwConf)
	if err != nil {
		glog.Fatalln(err)
	}
	return env
}

// Inject places bytes on the receive line of the simulated board.
func (e *Env) Inject(data []byte) error {
	if e.Sim == nil {
		return errors.Errorf("inject needs the sim board, running on %s", e.Config.Board)
	}
	e.Sim.Inject(data...)
	return nil
}

// AddToLoop adds the firmware and the taps to loop.
func (e *Env) AddToLoop(loop *fx.Loop) {
	e.loop = loop
	loop.Add(e.Firmware)
	loop.AddRunnable(e.taps...)
}

// NewLoop creates a loop running the env.
func (e *Env) NewLoop() *fx.Loop {
	loop := fx.NewLoop()
	loop.Interval = e.Config.LoopInterval
	loop.Add(e)
	return loop
}

// Send queues data for transmission by the firmware loop.
func (e *Env) Send(data []byte) error {
	if e.loop == nil {
		return errors.New("firmware is not in a loop")
	}
	e.loop.PostMessage(&firmware.SendRequest{Data: data})
	e.loop.TriggerNext()
	return nil
}

// Close releases the board.
func (e *Env) Close() error {
	if closer, ok := e.Board.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
