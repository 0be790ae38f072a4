//go:build linux

package env

import (
	"github.com/robotalks/serial.go/pkg/l0/hal"
	"github.com/robotalks/serial.go/pkg/l0/hal/tty"
)

func newTTYBoard(device string, clockHz uint32) (hal.Board, error) {
	return tty.New(device, clockHz), nil
}
