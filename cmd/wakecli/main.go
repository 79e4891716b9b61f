package main

import (
	"github.com/robotalks/wake.go/pkg/cli/sh"
	"github.com/robotalks/wake.go/pkg/comm/serial"

	_ "github.com/robotalks/wake.go/pkg/cli/cmds/all"
)

//go-build: CGO_ENABLED=0

func init() {
	serial.SetupFlags()
}

func main() {
	sh.Main()
}
