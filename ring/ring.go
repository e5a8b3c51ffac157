// ring.go
//
// Single-producer/single-consumer ring buffer of typed pointers. Producer and
// consumer fields sit on separate cache lines so the two sides never
// false-share, and each slot carries a sequence number so Push/Pop stay
// wait-free without additional atomics.
//
// The same ring backs two users: pipeline channels inside one worker (single
// goroutine, may Grow) and the trace hand-off to a pinned consumer thread
// (two goroutines, fixed size).

package ring

import "sync/atomic"

// slot couples a payload pointer with its sequence stamp.
type slot[T any] struct {
	seq uint64 // position in the sequence space
	ptr *T     // user payload
}

// Ring is a fixed-capacity circular buffer dedicated to one producer and
// one consumer.
type Ring[T any] struct {
	_    [64]byte // consumer head isolated on its own cache-line
	head uint64
	//lint:ignore U1000 padding to keep head & tail on different cache-lines
	_pad1 [64]byte
	tail  uint64
	//lint:ignore U1000 padding to keep hot fields from colliding with metadata
	_pad2 [64]byte
	mask  uint64
	buf   []slot[T]
}

// New allocates a ring whose size must be a power-of-two; otherwise it
// panics so that the bit-masking arithmetic stays valid.
func New[T any](size int) *Ring[T] {
	if size <= 0 || size&(size-1) != 0 {
		panic("ring: size must be >0 and a power of two")
	}
	r := &Ring[T]{
		mask: uint64(size - 1),
		buf:  make([]slot[T], size),
	}
	for i := range r.buf {
		r.buf[i].seq = uint64(i)
	}
	return r
}

// Push enqueues p, returning false if the buffer is full.
//
//go:nosplit
func (r *Ring[T]) Push(p *T) bool {
	t := r.tail
	s := &r.buf[t&r.mask]
	if atomic.LoadUint64(&s.seq) != t {
		return false // consumer has not yet reclaimed the slot
	}
	s.ptr = p
	atomic.StoreUint64(&s.seq, t+1)
	r.tail = t + 1
	return true
}

// Pop dequeues one pointer or nil if the buffer is empty.
//
//go:nosplit
func (r *Ring[T]) Pop() *T {
	h := r.head
	s := &r.buf[h&r.mask]
	if atomic.LoadUint64(&s.seq) != h+1 {
		return nil // producer has not yet published to the slot
	}
	p := s.ptr
	s.ptr = nil
	atomic.StoreUint64(&s.seq, h+uint64(len(r.buf)))
	r.head = h + 1
	return p
}

// Len is the number of queued items. Exact only when called from the
// goroutine that owns both ends.
//
//go:nosplit
//go:inline
func (r *Ring[T]) Len() int {
	return int(r.tail - r.head)
}

// Cap is the slot count.
//
//go:inline
func (r *Ring[T]) Cap() int {
	return len(r.buf)
}

// Grow doubles the capacity, preserving order. Only valid when the caller
// owns both ends; pipeline channels use it instead of dropping messages.
func (r *Ring[T]) Grow() {
	n := len(r.buf) * 2
	buf := make([]slot[T], n)
	i := uint64(0)
	for p := r.Pop(); p != nil; p = r.Pop() {
		buf[i].ptr = p
		buf[i].seq = i + 1
		i++
	}
	for j := i; j < uint64(n); j++ {
		buf[j].seq = j
	}
	r.buf = buf
	r.mask = uint64(n - 1)
	r.head = 0
	r.tail = i
}

// PushGrow enqueues p, growing the ring when full. Single-owner only.
func (r *Ring[T]) PushGrow(p *T) {
	if !r.Push(p) {
		r.Grow()
		r.Push(p)
	}
}
