package worker

import (
	"fpgabridge/dataflow"
	"fpgabridge/progress"
)

// sink terminates a chain, optionally keeping what arrives.
type sink struct {
	name    string
	path    []int
	in      *dataflow.PullCounter
	keep    bool
	records []dataflow.Message
}

func (s *sink) Inputs() int  { return 1 }
func (s *sink) Outputs() int { return 0 }
func (s *sink) InternalSummary(*progress.SharedProgress) dataflow.Summary {
	return dataflow.Summary{{}}
}
func (s *sink) SetExternalSummary() {}
func (s *sink) NotifyMe() bool      { return false }
func (s *sink) Name() string        { return s.name }
func (s *sink) Path() []int         { return s.path }

func (s *sink) Schedule(sp *progress.SharedProgress) bool {
	for m := s.in.Next(); m != nil; m = s.in.Next() {
		if s.keep {
			s.records = append(s.records, *m)
		}
	}
	sp.Frontiers[0].Clear()
	return false
}

// ProbeHandle observes the frontier at the end of a chain.
type ProbeHandle struct {
	w    *Worker
	s    Stream
	sink *sink
}

// Probe terminates s with a frontier observer.
func (w *Worker) Probe(s Stream) *ProbeHandle {
	return w.attachSink(s, "probe", false)
}

// Capture terminates s and keeps every message that arrives.
func (w *Worker) Capture(s Stream) *ProbeHandle {
	return w.attachSink(s, "capture", true)
}

func (w *Worker) attachSink(s Stream, name string, keep bool) *ProbeHandle {
	var k *sink
	out := w.addSink(s, func(in *dataflow.PullCounter) dataflow.Operator {
		k = &sink{name: name, path: []int{len(w.nodes)}, in: in, keep: keep}
		return k
	})
	return &ProbeHandle{w: w, s: out, sink: k}
}

// addSink appends a zero-output operator that owns one location.
func (w *Worker) addSink(in Stream, build func(in *dataflow.PullCounter) dataflow.Operator) Stream {
	pull := dataflow.NewPullCounter(in.ch)
	op := build(pull)
	sp := progress.NewSharedProgress(op.Inputs(), op.Outputs())
	op.InternalSummary(sp)

	idx := len(w.nodes)
	loc := w.addLocation(op.Name(), sp, idx)
	w.connect(in.loc, loc)
	w.nodes = append(w.nodes, &node{op: op, sp: sp, locs: []int{loc}, own: true, in: pull, out: nil})
	return Stream{loc: loc}
}

// Frontier is the input frontier at the probe.
func (p *ProbeHandle) Frontier() []progress.Time {
	return p.w.Frontier(p.s)
}

// LessThan reports whether the frontier holds some time earlier than t.
func (p *ProbeHandle) LessThan(t progress.Time) bool {
	f := p.Frontier()
	return len(f) > 0 && f[0] < t
}

// LessEqual reports whether the frontier holds some time at or before t.
func (p *ProbeHandle) LessEqual(t progress.Time) bool {
	f := p.Frontier()
	return len(f) > 0 && f[0] <= t
}

// Done reports a closed frontier.
func (p *ProbeHandle) Done() bool {
	return len(p.Frontier()) == 0
}

// Captured returns every message received, in arrival order. Empty for a
// plain probe.
func (p *ProbeHandle) Captured() []dataflow.Message {
	return p.sink.records
}

// Records flattens Captured into (time, value) pairs.
func (p *ProbeHandle) Records() []Record {
	var out []Record
	for _, m := range p.sink.records {
		for _, v := range m.Data {
			out = append(out, Record{Time: m.Time, Value: v})
		}
	}
	return out
}

// Record is one captured datum.
type Record struct {
	Time  progress.Time
	Value uint64
}
