// Package dataflow holds the operator contract the scheduler and the bridge
// share, plus the channel endpoints that count progress as messages move.
package dataflow

import "fpgabridge/progress"

// Summary[i][o] is the antichain of path delays from input i to output o.
type Summary [][]progress.Antichain

// Operate is the construction-time half of an operator.
type Operate interface {
	Inputs() int
	Outputs() int

	// InternalSummary seeds initial capabilities into sp and reports the
	// operator's internal connectivity.
	InternalSummary(sp *progress.SharedProgress) Summary

	// SetExternalSummary is called once the graph is fully built.
	SetExternalSummary()

	// NotifyMe reports whether the operator wants scheduling on frontier
	// changes alone.
	NotifyMe() bool
}

// Schedule is the run-time half of an operator.
type Schedule interface {
	Name() string
	Path() []int

	// Schedule runs the operator once. sp is borrowed for the call. The
	// return value asks to be scheduled again regardless of activations.
	Schedule(sp *progress.SharedProgress) bool
}

// Operator is both halves.
type Operator interface {
	Operate
	Schedule
}

// FullyConnected builds the zero-delay summary from every input to every
// output.
func FullyConnected(inputs, outputs int) Summary {
	s := make(Summary, inputs)
	for i := range s {
		s[i] = make([]progress.Antichain, outputs)
		for o := range s[i] {
			s[i][o].Insert(progress.Minimum)
		}
	}
	return s
}

// Message is one batch of records at a single time.
type Message struct {
	Time progress.Time
	Data []uint64
}
