package worker

import (
	"fpgabridge/dataflow"
	"fpgabridge/progress"
)

// unary is a software record-at-a-time operator.
type unary struct {
	name string
	path []int
	in   *dataflow.PullCounter
	out  *dataflow.PushBuffer
	f    func(uint64) (uint64, bool)
}

func (u *unary) Inputs() int  { return 1 }
func (u *unary) Outputs() int { return 1 }
func (u *unary) InternalSummary(*progress.SharedProgress) dataflow.Summary {
	return dataflow.FullyConnected(1, 1)
}
func (u *unary) SetExternalSummary() {}
func (u *unary) NotifyMe() bool      { return false }
func (u *unary) Name() string        { return u.name }
func (u *unary) Path() []int         { return u.path }

func (u *unary) Schedule(*progress.SharedProgress) bool {
	for m := u.in.Next(); m != nil; m = u.in.Next() {
		s := u.out.Session(m.Time)
		for _, v := range m.Data {
			if r, ok := u.f(v); ok {
				s.Give(r)
			}
		}
	}
	u.out.Cease()
	return false
}

// Map appends a software operator applying f to every record; records for
// which f reports false are dropped.
func (w *Worker) Map(in Stream, name string, f func(uint64) (uint64, bool)) Stream {
	return w.AddOperator(in, func(pull *dataflow.PullCounter, push *dataflow.PushBuffer) dataflow.Operator {
		return &unary{name: name, path: []int{len(w.nodes)}, in: pull, out: push, f: f}
	})
}
