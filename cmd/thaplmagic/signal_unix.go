//go:build !windows

package main

import (
	"os"
	"syscall"
)

// shutdownSignals stop a batch. SIGHUP covers a closed terminal.
var shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM, syscall.SIGHUP}
