package wrapper

import (
	"time"

	"fpgabridge/progress"
	"fpgabridge/wire"
)

// Recorder receives one Round per exchange. Rounds are freshly allocated
// and may be retained.
type Recorder interface {
	Record(r *Round)
}

// Round describes one completed exchange.
type Round struct {
	Round      uint64
	Bank       int
	Time       progress.Time
	HasData    bool
	RecordsIn  int
	RecordsOut int
	Ghosts     []int
	Quads      []wire.Quad
	Latency    time.Duration
}

// Stats are running totals since construction.
type Stats struct {
	Rounds     uint64
	DataRounds uint64
	RecordsIn  uint64
	RecordsOut uint64
}

// RecorderFunc adapts a function to Recorder.
type RecorderFunc func(r *Round)

func (f RecorderFunc) Record(r *Round) { f(r) }

func (w *Operator) record(bank int, at progress.Time, hasData bool, in int, latency time.Duration) {
	r := &Round{
		Round:      w.round,
		Bank:       bank,
		Time:       at,
		HasData:    hasData,
		RecordsIn:  in,
		RecordsOut: len(w.output),
		Ghosts:     make([]int, len(w.index)),
		Quads:      append([]wire.Quad(nil), w.quads...),
		Latency:    latency,
	}
	for i, gi := range w.index {
		r.Ghosts[i] = gi.ID
	}
	w.recorder.Record(r)
}
