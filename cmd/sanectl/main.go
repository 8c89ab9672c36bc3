// Sanectl is a command-line client for the SANE network daemon (saned).
//
// It finds saned hosts with mDNS, lists the scanners a daemon exports and
// reads their option descriptors. No image data is transferred.
//
// Usage:
//
//	sanectl [command] [flags]
//
// Running without arguments launches the interactive browser.
// See 'sanectl --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/muurk/sanenet/internal/logging"
)

func main() {
	err := newRootCmd().Execute()
	logging.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
