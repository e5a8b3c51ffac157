package dataflow

// Activations is the FIFO of operator indices awaiting a Schedule call.
// An index already queued is not queued twice.
type Activations struct {
	queue  []int
	queued []bool
}

// Activate queues operator index i.
func (a *Activations) Activate(i int) {
	if i < 0 {
		return
	}
	if i >= len(a.queued) {
		a.queued = append(a.queued, make([]bool, i+1-len(a.queued))...)
	}
	if a.queued[i] {
		return
	}
	a.queued[i] = true
	a.queue = append(a.queue, i)
}

// Drain moves the queued indices into dst and empties the queue.
func (a *Activations) Drain(dst []int) []int {
	dst = append(dst[:0], a.queue...)
	for _, i := range a.queue {
		a.queued[i] = false
	}
	a.queue = a.queue[:0]
	return dst
}

// Len is the number of queued indices.
func (a *Activations) Len() int {
	return len(a.queue)
}
