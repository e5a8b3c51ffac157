//go:build linux

// affinity_linux.go
//
// Pins the calling OS thread to one logical CPU via sched_setaffinity(2).
// Callers must hold the thread with runtime.LockOSThread first or the pin
// applies to whichever goroutine happens to run there next.

package affinity

import "golang.org/x/sys/unix"

// cpuSetSize mirrors CPU_SETSIZE.
const cpuSetSize = 1024

// Pin binds the current thread to cpu. A negative cpu is a no-op.
func Pin(cpu int) error {
	if cpu < 0 {
		return nil
	}
	var set unix.CPUSet
	set.Zero()
	set.Set(cpu)
	return unix.SchedSetaffinity(0, &set) // pid 0 → current thread
}

// Current returns the lowest CPU in the calling thread's affinity mask.
func Current() (int, error) {
	var set unix.CPUSet
	if err := unix.SchedGetaffinity(0, &set); err != nil {
		return -1, err
	}
	for cpu := 0; cpu < cpuSetSize; cpu++ {
		if set.IsSet(cpu) {
			return cpu, nil
		}
	}
	return -1, nil
}
