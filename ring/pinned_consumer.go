// pinned_consumer.go
//
// Cold-path SPSC consumer on a dedicated OS thread.
//
//   • Thread pinned to `core` (negative core = unpinned).
//   • Hot-spins while the producer holds hot == 1 or work arrived within
//     hotTimeout; afterwards yields the processor each miss and sleeps
//     coldSleep after spinBudget consecutive misses.
//   • On *stop == 1 drains whatever is still queued, then closes `done`
//     exactly once.
//
// The bridge uses it to move per-round trace records off the scheduling
// thread: the wrapper pushes, the consumer writes them to the trace store.
//
// hot flag contract:
//     Producer             Consumer
//     --------             ------------------------------
//     Store 1  ─────────▶  read (wake / stay hot-spin)
//     ...push items…
//     (optionally) Store 0  ◀─ consumer never writes

package ring

import (
	"runtime"
	"sync/atomic"
	"time"

	"fpgabridge/affinity"
)

const (
	spinBudget = 256                    // polls before sleeping
	hotTimeout = 100 * time.Millisecond // hot-spin grace
	coldSleep  = 50 * time.Microsecond
)

// PinnedConsumer drains r until *stop is set.
func PinnedConsumer[T any](
	core int,
	r *Ring[T],
	stop, hot *uint32,
	fn func(*T),
	done chan<- struct{},
) {
	go func() {
		// ── thread & affinity ─────────────────────────────
		runtime.LockOSThread()
		_ = affinity.Pin(core) // best effort; unpinned is still correct
		defer func() {
			runtime.UnlockOSThread()
			close(done)
		}()

		last := time.Now() // last time Pop delivered
		miss := 0

		// ── main loop ─────────────────────────────────────
		for {
			if p := r.Pop(); p != nil {
				fn(p)
				last, miss = time.Now(), 0
				continue
			}

			if atomic.LoadUint32(stop) != 0 {
				for p := r.Pop(); p != nil; p = r.Pop() {
					fn(p)
				}
				return
			}

			if atomic.LoadUint32(hot) != 0 || time.Since(last) <= hotTimeout {
				continue
			}

			if miss++; miss >= spinBudget {
				miss = 0
				time.Sleep(coldSleep)
				continue
			}
			runtime.Gosched()
		}
	}()
}
