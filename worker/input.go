package worker

import (
	"fpgabridge/dataflow"
	"fpgabridge/progress"
)

// InputHandle feeds records into the dataflow at a current time. Batches
// are cut at the worker's batch width.
type InputHandle struct {
	w      *Worker
	loc    int
	sp     *progress.SharedProgress
	out    *dataflow.PushBuffer
	time   progress.Time
	n      int
	closed bool
}

// NewInput creates the dataflow's single input at time Minimum.
func (w *Worker) NewInput() (*InputHandle, Stream) {
	if len(w.locs) > 0 {
		panic("worker: the input must be the first chain position")
	}
	ch := dataflow.NewChannel()
	sp := progress.NewSharedProgress(0, 1)
	sp.Internals[0].Update(progress.Minimum, 1)
	h := &InputHandle{w: w, sp: sp, out: dataflow.NewPushBuffer(ch)}
	h.loc = w.addLocation("input", sp, -1)
	w.inputs = append(w.inputs, h)
	return h, Stream{loc: h.loc, ch: ch}
}

// Send gives one record at the current time.
func (h *InputHandle) Send(v uint64) {
	if h.closed {
		panic("worker: send on closed input")
	}
	h.out.Session(h.time).Give(v)
	if h.n++; h.n == h.w.width {
		h.flush()
	}
}

// SendBatch gives every record of vs.
func (h *InputHandle) SendBatch(vs []uint64) {
	for _, v := range vs {
		h.Send(v)
	}
}

// AdvanceTo moves the input's capability to t, which must not be earlier
// than the current time.
func (h *InputHandle) AdvanceTo(t progress.Time) {
	if h.closed {
		panic("worker: advance on closed input")
	}
	if t < h.time {
		panic("worker: input time may not go backwards")
	}
	if t == h.time {
		return
	}
	h.flush()
	h.sp.Internals[0].Update(t, 1)
	h.sp.Internals[0].Update(h.time, -1)
	h.time = t
}

// Close flushes and drops the input's capability.
func (h *InputHandle) Close() {
	if h.closed {
		return
	}
	h.flush()
	h.sp.Internals[0].Update(h.time, -1)
	h.closed = true
}

// Flush sends any partially filled batch now.
func (h *InputHandle) Flush() {
	h.flush()
}

// Time is the input's current time.
func (h *InputHandle) Time() progress.Time { return h.time }

// Closed reports whether Close was called.
func (h *InputHandle) Closed() bool { return h.closed }

func (h *InputHandle) flush() {
	h.out.Cease()
	h.n = 0
	h.flushCounts()
}

func (h *InputHandle) flushCounts() {
	h.out.Produced().DrainInto(&h.sp.Produceds[0])
}
