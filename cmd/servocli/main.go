package main

import (
	"github.com/robotalks/busservo/pkg/cli/sh"
	"github.com/robotalks/busservo/pkg/servo"

	_ "github.com/robotalks/busservo/pkg/cli/cmds/servo"
)

//go-build: CGO_ENABLED=0

func init() {
	servo.SetupFlags()
}

func main() {
	sh.Main()
}
