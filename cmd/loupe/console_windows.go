//go:build windows

package main

import (
	"syscall"

	"github.com/justyntemme/loupe/internal/debug"
)

// manageConsole hides the console window on Windows release builds.
// If the app was launched via 'go run', the console window remains but
// the app stops writing to it. If built and launched from Explorer,
// this prevents a persistent console window.
func manageConsole() {
	if debug.Enabled {
		return
	}
	kernel32 := syscall.NewLazyDLL("kernel32.dll")
	freeConsole := kernel32.NewProc("FreeConsole")
	freeConsole.Call()
}
