//go:build !linux

// affinity_other.go
//
// Portable fall-back: thread pinning is a Linux-only optimisation.

package affinity

// Pin is a no-op off Linux.
func Pin(cpu int) error { return nil }

// Current reports no pin.
func Current() (int, error) { return -1, nil }
