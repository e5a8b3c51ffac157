package sim

import (
	"errors"
	"slices"

	"fpgabridge/progress"
)

// Kind selects what a simulated stage computes.
type Kind uint8

const (
	Pass   Kind = iota // forward unchanged
	Filter             // keep v >= Threshold
	Map                // v + Offset
	Buffer             // hold records until the stage's input frontier passes them
)

var ErrKind = errors.New("sim: unknown stage kind")

var kindNames = [...]string{Pass: "pass", Filter: "filter", Map: "map", Buffer: "buffer"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind?"
}

// ParseKind maps a configuration name to a Kind.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return Kind(k), nil
		}
	}
	return 0, ErrKind
}

// Stage describes one hardware-resident operator.
type Stage struct {
	Name      string
	Kind      Kind
	Threshold uint64
	Offset    uint64
}

// apply runs a stateless stage over in, writing into out[:0].
func (s *Stage) apply(out, in []uint64) []uint64 {
	out = out[:0]
	switch s.Kind {
	case Filter:
		for _, v := range in {
			if v >= s.Threshold {
				out = append(out, v)
			}
		}
	case Map:
		for _, v := range in {
			out = append(out, v+s.Offset)
		}
	default:
		out = append(out, in...)
	}
	return out
}

// hold is a buffer stage's records for one time.
type hold struct {
	time progress.Time
	data []uint64
}

// holds is a buffer stage's state, ordered by time.
type holds []hold

// add appends data at t, reporting whether t is newly held.
func (h *holds) add(t progress.Time, data []uint64) bool {
	i, found := slices.BinarySearchFunc(*h, t, func(e hold, t progress.Time) int {
		switch {
		case e.time < t:
			return -1
		case e.time > t:
			return 1
		}
		return 0
	})
	if found {
		(*h)[i].data = append((*h)[i].data, data...)
		return false
	}
	*h = slices.Insert(*h, i, hold{time: t, data: append([]uint64(nil), data...)})
	return true
}

// releasable returns the earliest held time the frontier has passed.
func (h holds) releasable(frontier progress.Time, open bool) (int, bool) {
	if len(h) == 0 {
		return 0, false
	}
	if !open || h[0].time < frontier {
		return 0, true
	}
	return 0, false
}

// take removes entry i.
func (h *holds) take(i int) hold {
	e := (*h)[i]
	*h = slices.Delete(*h, i, i+1)
	return e
}

// records is the total number of held records.
func (h holds) records() int {
	n := 0
	for _, e := range h {
		n += len(e.data)
	}
	return n
}
