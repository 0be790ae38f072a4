package main

//go-build: CGO_ENABLED=0

import (
	"flag"

	"github.com/golang/glog"

	"github.com/robotalks/serial.go/pkg/firmware"
	fx "github.com/robotalks/serial.go/pkg/framework"
	"github.com/robotalks/serial.go/pkg/l1/env"
)

func init() {
	firmware.SetupFlags()
	env.SetupFlags()
}

func main() {
	flag.Parse()
	defer glog.Flush()

	e := env.NewConfig().MustNewEnv(firmware.NewConfig())
	defer e.Close()
	e.Firmware.MustBoot()

	err := fx.NewRunner().
		HandleSignals().
		Go(fx.NamedRun("loop", e.NewLoop())).
		Finally(e.Firmware.Shutdown).
		Wait()
	if err != nil {
		glog.Errorf("firmware stopped: %v", err)
	}
}
