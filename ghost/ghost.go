// Package ghost provides the placeholder operator that stands in for one
// hardware-resident operator inside the scheduler's graph.
//
// A ghost is never given work. It exists so that reachability and progress
// tracking see a real node at the hardware operator's position; the bridge
// operator writes the ghost's progress on its behalf.
package ghost

import (
	"fpgabridge/dataflow"
	"fpgabridge/progress"
)

// Operator is a 1-input, 1-output ghost.
type Operator struct {
	name  string
	path  []int
	peers int64
}

// New builds a ghost. peers is the number of workers that each hold one
// initial capability per output.
func New(name string, path []int, peers int) *Operator {
	if peers <= 0 {
		panic("ghost: peers must be >0")
	}
	return &Operator{name: name, path: path, peers: int64(peers)}
}

func (g *Operator) Inputs() int  { return 1 }
func (g *Operator) Outputs() int { return 1 }

// InternalSummary seeds +peers at Minimum on every output so the scheduler
// cannot consider the operator closed before the bridge speaks for it.
func (g *Operator) InternalSummary(sp *progress.SharedProgress) dataflow.Summary {
	for o := range sp.Internals {
		sp.Internals[o].Update(progress.Minimum, g.peers)
	}
	return dataflow.FullyConnected(g.Inputs(), g.Outputs())
}

func (g *Operator) SetExternalSummary() {}

func (g *Operator) NotifyMe() bool { return false }

func (g *Operator) Name() string { return g.name }

func (g *Operator) Path() []int { return g.path }

// Schedule never does anything.
func (g *Operator) Schedule(*progress.SharedProgress) bool { return false }

// Peers is the per-output seed count the bridge must retire.
func (g *Operator) Peers() int64 { return g.peers }
