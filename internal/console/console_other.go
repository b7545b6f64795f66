//go:build !windows

// Package console detects whether the process owns a terminal and keeps
// Ctrl+C working while SDL holds a locked OS thread. Outside Windows both
// are handled by the OS and os/signal.
package console

func IsRunningFromConsole() bool {
	return true
}

func SetupConsoleHandler(shutdown chan struct{}) func() {
	return func() {}
}
