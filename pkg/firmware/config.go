package firmware

import (
	"flag"
	"os"
	"time"

	"github.com/robotalks/serial.go/pkg/l0/hal"
	"github.com/robotalks/serial.go/pkg/l0/serial"
)

// Config defines the configuration of the firmware.
type Config struct {
	// Greeting is transmitted every Period.
	Greeting string
	Period   time.Duration
	// POSTDelay is the LED on/off time of the power-on self test.
	POSTDelay time.Duration
	Serial    serial.Config
}

// Defaults
const (
	DefaultGreeting  = "Hello human...\n"
	DefaultPeriod    = time.Second
	DefaultPOSTDelay = 500 * time.Millisecond
)

var defaultConfig = Config{
	Greeting:  DefaultGreeting,
	Period:    DefaultPeriod,
	POSTDelay: DefaultPOSTDelay,
	Serial:    serial.DefaultConfig,
}

func init() {
	if val := os.Getenv("SERIAL_GREETING"); val != "" {
		defaultConfig.Greeting = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Greeting, "greeting", defaultConfig.Greeting, "Message transmitted every period.")
	flag.DurationVar(&defaultConfig.Period, "period", defaultConfig.Period, "Time between greetings.")
	flag.DurationVar(&defaultConfig.POSTDelay, "post-delay", defaultConfig.POSTDelay, "LED blink time of the power-on self test.")
	flag.Var(uint32Value{&defaultConfig.Serial.Baud}, "baud", "Serial baud rate.")
	flag.Var(uint32Value{&defaultConfig.Serial.ClockHz}, "clock", "Oscillator frequency (Hz) feeding the baud rate generator.")
	flag.IntVar(&defaultConfig.Serial.BufferSize, "buffer-size", defaultConfig.Serial.BufferSize, "Capacity of the staging buffer.")
	flag.DurationVar(&defaultConfig.Serial.InterByteDelay, "inter-byte-delay", defaultConfig.Serial.InterByteDelay, "Pause after each transmitted byte.")
	flag.DurationVar(&defaultConfig.Serial.Timeout, "serial-timeout", defaultConfig.Serial.Timeout, "Maximum wait for a hardware ready flag, 0 waits forever.")
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

// NewFirmware creates the firmware for board using the config.
func (c *Config) NewFirmware(board hal.Board) (*Firmware, error) {
	t, err := serial.New(board, c.Serial)
	if err != nil {
		return nil, err
	}
	f := New(board, t)
	f.Greeting = []byte(c.Greeting)
	f.Period = c.Period
	f.POSTDelay = c.POSTDelay
	return f, nil
}
