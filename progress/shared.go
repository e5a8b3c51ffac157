package progress

import "fpgabridge/utils"

// SharedProgress is the per-operator progress record exchanged between the
// scheduler and one operator's Schedule call.
//
// Frontiers is written by the scheduler (input frontier changes), the other
// three collections by the operator. Every collection holds one ChangeBatch
// per local port. A wrapper's record also references the records of the
// ghost operators it reports for, keyed by global operator id.
//
// The scheduler owns every record. An operator only holds the pointer for
// the duration of one Schedule call; nothing here is safe for concurrent use.
type SharedProgress struct {
	Frontiers []ChangeBatch // per input
	Consumeds []ChangeBatch // per input
	Produceds []ChangeBatch // per output
	Internals []ChangeBatch // per output

	Ghosts map[int]*SharedProgress // ghost operator id -> ghost's own record
}

// NewSharedProgress allocates a record for an operator of the given shape.
func NewSharedProgress(inputs, outputs int) *SharedProgress {
	return &SharedProgress{
		Frontiers: make([]ChangeBatch, inputs),
		Consumeds: make([]ChangeBatch, inputs),
		Produceds: make([]ChangeBatch, outputs),
		Internals: make([]ChangeBatch, outputs),
	}
}

// AttachGhost links a ghost operator's record under its global id.
func (sp *SharedProgress) AttachGhost(id int, ghost *SharedProgress) {
	if sp.Ghosts == nil {
		sp.Ghosts = make(map[int]*SharedProgress)
	}
	sp.Ghosts[id] = ghost
}

// Ghost returns the record of ghost operator id. A missing record means the
// graph was built inconsistently and panics.
//
//go:inline
func (sp *SharedProgress) Ghost(id int) *SharedProgress {
	g, ok := sp.Ghosts[id]
	if !ok || g == nil {
		panic("progress: no shared progress slot for ghost operator " + utils.Itoa(id))
	}
	return g
}

// Validate checks that every ghost id has a populated slot in each
// collection the wrapper writes to. Violations panic.
func (sp *SharedProgress) Validate(ids []int) {
	for _, id := range ids {
		g := sp.Ghost(id)
		if len(g.Frontiers) == 0 || len(g.Consumeds) == 0 || len(g.Produceds) == 0 || len(g.Internals) == 0 {
			panic("progress: incomplete shared progress slot for ghost operator " + utils.Itoa(id))
		}
	}
}

// IsQuiet reports whether every operator-written batch is empty.
func (sp *SharedProgress) IsQuiet() bool {
	for _, set := range [...][]ChangeBatch{sp.Consumeds, sp.Produceds, sp.Internals} {
		for i := range set {
			if !set[i].IsEmpty() {
				return false
			}
		}
	}
	return true
}
