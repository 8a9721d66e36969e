//go:build unix

package main

import (
	"os"
	"syscall"
)

// SIGUSR1 asks for a backup now.
var manualBackupSignals = []os.Signal{syscall.SIGUSR1}
