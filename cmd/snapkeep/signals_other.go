//go:build !unix

package main

import "os"

var manualBackupSignals []os.Signal
