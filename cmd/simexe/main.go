// Package main implements the simexe CLI.
// It turns a function or method body into a control-flow path description
// for a downstream repair pipeline.
package main

import (
	"os"

	"github.com/LLAYUAN/SimulateExe-SelfDebug/cmd/simexe/commands"
)

var version = "dev"

func main() {
	commands.RootCmd.Version = version
	commands.RootCmd.SetVersionTemplate(`simexe version {{.Version}}
`)

	if err := commands.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
