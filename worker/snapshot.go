package worker

import "fpgabridge/progress"

// Snapshot is a read-only view of the worker for the status endpoint.
type Snapshot struct {
	Steps     uint64             `json:"steps"`
	Activated int                `json:"activated"`
	Locations []LocationSnapshot `json:"locations"`
}

// LocationSnapshot is one chain position.
type LocationSnapshot struct {
	Name     string          `json:"name"`
	Frontier []progress.Time `json:"frontier"`
	Held     int64           `json:"held"`
	InFlight int64           `json:"in_flight"`
}

// PublishSnapshots makes every Step publish a Snapshot.
func (w *Worker) PublishSnapshots() {
	w.publish = true
	w.snapshot.Store(w.takeSnapshot())
}

// Snapshot returns the latest published view, or nil. Safe from any
// goroutine.
func (w *Worker) Snapshot() *Snapshot {
	return w.snapshot.Load()
}

func (w *Worker) takeSnapshot() *Snapshot {
	s := &Snapshot{Steps: w.steps, Activated: w.acts.Len(), Locations: make([]LocationSnapshot, len(w.locs))}
	for i, l := range w.locs {
		ls := LocationSnapshot{Name: l.name, Frontier: []progress.Time{}}
		if l.hasFrontier {
			ls.Frontier = append(ls.Frontier, l.frontier)
		}
		for _, u := range l.source.Counts() {
			ls.Held += u.Delta
		}
		for _, u := range l.target.Counts() {
			ls.InFlight += u.Delta
		}
		s.Locations[i] = ls
	}
	return s
}
