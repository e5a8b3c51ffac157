package trace

import (
	"runtime"
	"sync/atomic"

	"fpgabridge/ring"
	"fpgabridge/wrapper"
)

// asyncCapacity is the hand-off ring size in rounds.
const asyncCapacity = 4096

// Async moves round records off the scheduling thread: Record pushes onto
// an SPSC ring and a pinned consumer writes them to the store.
type Async struct {
	store *Store
	q     *ring.Ring[wrapper.Round]
	stop  uint32
	hot   uint32
	done  chan struct{}
}

// NewAsync starts the consumer on core (negative = unpinned). The store
// must not be used directly until Close returns.
func NewAsync(store *Store, core int) *Async {
	a := &Async{store: store, q: ring.New[wrapper.Round](asyncCapacity), done: make(chan struct{})}
	atomic.StoreUint32(&a.hot, 1)
	ring.PinnedConsumer(core, a.q, &a.stop, &a.hot, store.Record, a.done)
	return a
}

// Record implements wrapper.Recorder. It yields while the ring is full.
func (a *Async) Record(r *wrapper.Round) {
	for !a.q.Push(r) {
		runtime.Gosched()
	}
}

// Idle lets the consumer drop to its cold path.
func (a *Async) Idle() {
	atomic.StoreUint32(&a.hot, 0)
}

// Wake keeps the consumer hot-spinning until the next Idle.
func (a *Async) Wake() {
	atomic.StoreUint32(&a.hot, 1)
}

// Hot reports whether the consumer was last told to spin.
func (a *Async) Hot() bool {
	return atomic.LoadUint32(&a.hot) != 0
}

// Close drains outstanding records, stops the consumer, and flushes.
func (a *Async) Close() error {
	atomic.StoreUint32(&a.stop, 1)
	<-a.done
	return a.store.Flush()
}
