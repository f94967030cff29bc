// Command lc3tools-ng is an interactive debugging simulator for the LC-3
// instruction set.
package main

import (
	"os"

	"github.com/LandonTheCoder/lc3tools-ng/internal/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
