//go:build !tinygo

package core

// interruptState is a placeholder on regular Go
type interruptState uintptr

// disableInterrupts is a no-op on regular Go (for testing and Linux)
func disableInterrupts() interruptState {
	return 0
}

// restoreInterrupts is a no-op on regular Go
func restoreInterrupts(state interruptState) {}
