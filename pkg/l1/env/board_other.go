//go:build !linux

package env

import (
	"github.com/pkg/errors"

	"github.com/robotalks/serial.go/pkg/l0/hal"
)

func newTTYBoard(device string, clockHz uint32) (hal.Board, error) {
	return nil, errors.Errorf("tty board %s: not supported on this platform", device)
}
