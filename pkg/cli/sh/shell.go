package sh

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"time"

	"github.com/abiosoft/ishell"
	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/robotalks/serial.go/pkg/firmware"
	fx "github.com/robotalks/serial.go/pkg/framework"
	"github.com/robotalks/serial.go/pkg/l1/env"
)

// Shell provides ishell backed interactive shell on a running firmware.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	// Timeout bounds the wait for a request served by the firmware loop.
	Timeout time.Duration

	Shell *ishell.Shell
	Env   *env.Env
	Loop  *fx.Loop

	cancel func()
	done   chan error
}

const shellKey = "$shell"

// DefaultTimeout is the default of Shell.Timeout.
const DefaultTimeout = 2 * time.Second

var (
	// flags

	evalOnly   bool
	outputJSON bool

	// commands
	commands = []*ishell.Cmd{
		&StatsCmd,
		&LEDCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(e *env.Env) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,
		Timeout:     DefaultTimeout,

		Shell: ishell.New(),
		Env:   e,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", e.Config.BoardID))
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeSim wraps command func requires the simulated board.
func MustBeSim(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Env.Sim == nil {
			c.Err(fmt.Errorf("only available on the sim board"))
			return
		}
		fn(c)
	}
}

// Print prints v as JSON in JSON mode, otherwise text.
func Print(c *ishell.Context, v interface{}, text string) {
	if !ShellFrom(c).OutputJSON {
		c.Println(text)
		return
	}
	out, err := json.Marshal(v)
	if err != nil {
		c.Err(err)
		return
	}
	c.Println(string(out))
}

// Start boots the firmware and runs its loop in background.
func (s *Shell) Start() error {
	if err := s.Env.Firmware.Boot(); err != nil {
		return err
	}
	s.Loop = s.Env.NewLoop()
	var ctx context.Context
	ctx, s.cancel = context.WithCancel(context.Background())
	s.done = make(chan error, 1)
	go func() {
		s.done <- s.Loop.Run(ctx)
	}()
	return nil
}

// Stop stops the loop started by Start.
func (s *Shell) Stop() error {
	if s.cancel == nil {
		return nil
	}
	s.cancel()
	s.cancel = nil
	if err := <-s.done; err != context.Canceled {
		return err
	}
	return nil
}

func (s *Shell) request(msg fx.Message) {
	s.Loop.PostMessage(msg)
	s.Loop.TriggerNext()
}

func (s *Shell) timeout() <-chan time.Time {
	return time.After(s.Timeout)
}

// Send transmits data through the firmware loop.
func (s *Shell) Send(data []byte) error {
	ch := make(chan error, 1)
	s.request(&firmware.SendRequest{Data: data, Result: ch})
	select {
	case err := <-ch:
		return err
	case <-s.timeout():
		return errors.New("send: no response from firmware loop")
	}
}

// Receive receives a byte through the firmware loop.
func (s *Shell) Receive() (byte, error) {
	ch := make(chan firmware.ReceiveResult, 1)
	s.request(&firmware.ReceiveRequest{Result: ch})
	select {
	case res := <-ch:
		return res.Byte, res.Err
	case <-s.timeout():
		return 0, errors.New("receive: no response from firmware loop")
	}
}

// SetLED drives the status LED through the firmware loop.
func (s *Shell) SetLED(on bool) (bool, error) {
	ch := make(chan bool, 1)
	s.request(&firmware.LEDRequest{On: on, Result: ch})
	select {
	case state := <-ch:
		return state, nil
	case <-s.timeout():
		return false, errors.New("led: no response from firmware loop")
	}
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if err := s.Start(); err != nil {
		glog.Fatalf("start firmware: %v", err)
	}
	defer s.Stop()

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			glog.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	glog.Fatalln("command expected")
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

var (
	// StatsCmd prints firmware and transport counters.
	StatsCmd = ishell.Cmd{
		Name:    "stats",
		Aliases: []string{"st"},
		Help:    "",
		Func: func(c *ishell.Context) {
			st := ShellFrom(c).Env.Firmware.Status()
			Print(c, st, fmt.Sprintf(
				"uptime %s, state %s, greetings %d, failures %d\n"+
					"sent %d messages / %d bytes, received %d bytes, rejected %d, timeouts %d\n"+
					"timer overflows %d, external events %d",
				st.Uptime, st.State, st.Greetings, st.Failures,
				st.Serial.Messages, st.Serial.BytesSent, st.Serial.BytesReceived,
				st.Serial.Rejected, st.Serial.Timeouts,
				st.TimerOverflows, st.ExternalEvents))
		},
	}

	// LEDCmd shows or drives the status LED.
	LEDCmd = ishell.Cmd{
		Name: "led",
		Help: "[on|off|toggle]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			on := s.Env.Board.LED()
			if len(c.Args) > 0 {
				switch c.Args[0] {
				case "on":
					on = true
				case "off":
					on = false
				case "toggle":
					on = !on
				default:
					c.Err(fmt.Errorf("invalid LED state %q", c.Args[0]))
					return
				}
				state, err := s.SetLED(on)
				if err != nil {
					c.Err(err)
					return
				}
				on = state
			}
			Print(c, map[string]bool{"led": on}, onOff(on))
		},
	}
)

// Main is a helper to provide a single call in main.
// Flags of firmware and env are expected to be set up in init.
func Main() {
	flag.Parse()
	e := env.NewConfig().MustNewEnv(firmware.NewConfig())
	defer e.Close()
	New(e).Run(flag.Args()...)
}
