//go:build !windows

package main

import (
	"os"
	"syscall"
)

// terminationSignals stop the serve command.
var terminationSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}
