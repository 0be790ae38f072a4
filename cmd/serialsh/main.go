package main

import (
	"github.com/robotalks/serial.go/pkg/cli/sh"
	"github.com/robotalks/serial.go/pkg/firmware"
	"github.com/robotalks/serial.go/pkg/l1/env"

	_ "github.com/robotalks/serial.go/pkg/cli/cmds/line"
)

//go-build: CGO_ENABLED=0

func init() {
	firmware.SetupFlags()
	env.SetupFlags()
}

func main() {
	sh.Main()
}
