// control.go — process-wide run/stop flags for the worker loop
// ============================================================================
// WORKER CONTROL
// ============================================================================
//
// The bridge itself keeps no globals; these flags belong to the process
// bootstrap. The signal handler calls Shutdown, the worker loop polls
// Stopping between steps, and SignalActivity/PollCooldown decide whether
// the loop spins hot or yields while the dataflow is idle.

package control

import (
	"sync/atomic"
	"time"
)

var (
	hot  uint32 // 1 = dataflow made progress recently
	stop uint32 // 1 = shut down after the current step

	lastHot    int64                           // nanosecond stamp of last activity
	cooldownNs = int64(200 * time.Millisecond) // idle period before dropping out of hot-spin
)

// SignalActivity marks the loop as active. Called after a step that
// moved data or progress.
//
//go:norace
//go:nosplit
//go:inline
func SignalActivity() {
	atomic.StoreUint32(&hot, 1)
	atomic.StoreInt64(&lastHot, time.Now().UnixNano())
}

// PollCooldown clears the hot flag once the loop has been idle for the
// cooldown period.
//
//go:norace
//go:inline
func PollCooldown() {
	if atomic.LoadUint32(&hot) == 1 && time.Now().UnixNano()-atomic.LoadInt64(&lastHot) > cooldownNs {
		atomic.StoreUint32(&hot, 0)
	}
}

// Hot reports whether the loop should keep spinning.
//
//go:nosplit
//go:inline
func Hot() bool {
	return atomic.LoadUint32(&hot) != 0
}

// Shutdown requests termination after the current step.
//
//go:nosplit
//go:inline
func Shutdown() {
	atomic.StoreUint32(&stop, 1)
}

// Stopping reports whether Shutdown has been called.
//
//go:nosplit
//go:inline
func Stopping() bool {
	return atomic.LoadUint32(&stop) != 0
}

// Reset clears both flags. Test and restart use only.
func Reset() {
	atomic.StoreUint32(&hot, 0)
	atomic.StoreUint32(&stop, 0)
	atomic.StoreInt64(&lastHot, 0)
}
