// ════════════════════════════════════════════════════════════════════════════════════════════════
// Progress Primitives — MutableAntichain
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Component: Reference-counted frontier
//
// Description:
//   Maintains positive reference counts per timestamp in an ordered map and derives the minimal
//   frontier from it. Timestamps are totally ordered, so the frontier is either empty or the single
//   smallest key still holding a count.
//
// Safety model:
//   - Counts are never negative. A batch that would drive a count below zero is a progress
//     accounting bug upstream and panics.
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package progress

import (
	"github.com/emirpasic/gods/maps/treemap"
	godsutils "github.com/emirpasic/gods/utils"

	"fpgabridge/utils"
)

// MutableAntichain tracks outstanding work per timestamp and its frontier.
// Build with NewMutableAntichain; the zero value is not usable.
type MutableAntichain struct {
	counts   *treemap.Map // Time -> int64, only positive values stored
	frontier []Time       // 0 or 1 element
	pending  ChangeBatch  // scratch for compaction of incoming updates
}

// NewMutableAntichain returns an empty antichain (empty frontier).
func NewMutableAntichain() *MutableAntichain {
	return &MutableAntichain{
		counts:   treemap.NewWith(godsutils.UInt64Comparator),
		frontier: make([]Time, 0, 1),
	}
}

// NewMutableAntichains returns n independent empty antichains.
func NewMutableAntichains(n int) []*MutableAntichain {
	out := make([]*MutableAntichain, n)
	for i := range out {
		out[i] = NewMutableAntichain()
	}
	return out
}

// UpdateIter folds updates into the reference counts, recomputes the
// frontier and returns the frontier changes (-1 for a retired minimum,
// +1 for a new one).
func (m *MutableAntichain) UpdateIter(updates []Update) []Update {
	if len(updates) == 0 {
		return nil
	}
	m.pending.Extend(updates)
	for _, u := range m.pending.Drain() {
		next := m.Count(u.Time) + u.Delta
		switch {
		case next < 0:
			panic("progress: negative count at time " + utils.Utoa(u.Time))
		case next == 0:
			m.counts.Remove(u.Time)
		default:
			m.counts.Put(u.Time, next)
		}
	}
	return m.rebuild()
}

// rebuild recomputes the frontier from the smallest live key.
func (m *MutableAntichain) rebuild() []Update {
	var changes []Update
	key, _ := m.counts.Min()
	switch {
	case key == nil && len(m.frontier) == 0:
		return nil
	case key == nil:
		changes = append(changes, Update{Time: m.frontier[0], Delta: -1})
		m.frontier = m.frontier[:0]
	case len(m.frontier) == 0:
		t := key.(Time)
		changes = append(changes, Update{Time: t, Delta: 1})
		m.frontier = append(m.frontier, t)
	case m.frontier[0] != key.(Time):
		t := key.(Time)
		changes = append(changes, Update{Time: m.frontier[0], Delta: -1}, Update{Time: t, Delta: 1})
		m.frontier[0] = t
	}
	return changes
}

// Frontier returns the current minimal outstanding timestamps.
// The slice is owned by the antichain; callers must not modify it.
func (m *MutableAntichain) Frontier() []Time {
	return m.frontier
}

// Min returns the frontier element, if any.
func (m *MutableAntichain) Min() (Time, bool) {
	if len(m.frontier) == 0 {
		return 0, false
	}
	return m.frontier[0], true
}

// Count returns the reference count held at t.
func (m *MutableAntichain) Count(t Time) int64 {
	v, ok := m.counts.Get(t)
	if !ok {
		return 0
	}
	return v.(int64)
}

// LessThan reports whether some frontier element is strictly less than t.
func (m *MutableAntichain) LessThan(t Time) bool {
	return len(m.frontier) > 0 && m.frontier[0] < t
}

// LessEqual reports whether some frontier element is less than or equal to t.
func (m *MutableAntichain) LessEqual(t Time) bool {
	return len(m.frontier) > 0 && m.frontier[0] <= t
}

// IsEmpty reports whether no timestamp holds a count.
func (m *MutableAntichain) IsEmpty() bool {
	return m.counts.Empty()
}

// Counts returns the live (time, count) pairs in timestamp order.
func (m *MutableAntichain) Counts() []Update {
	out := make([]Update, 0, m.counts.Size())
	it := m.counts.Iterator()
	for it.Next() {
		out = append(out, Update{Time: it.Key().(Time), Delta: it.Value().(int64)})
	}
	return out
}

// ════════════════════════════════════════════════════════════════════════════════════════════════
// Antichain: immutable frontier value used by operator summaries
// ════════════════════════════════════════════════════════════════════════════════════════════════

// Antichain is a set of mutually incomparable elements. Under a total
// order it holds at most one element.
type Antichain struct {
	elements []Time
}

// AntichainFromElem builds a single-element antichain.
func AntichainFromElem(t Time) Antichain {
	var a Antichain
	a.Insert(t)
	return a
}

// Insert adds t if no element is already less than or equal to it,
// evicting elements greater than t. Returns whether t was added.
func (a *Antichain) Insert(t Time) bool {
	if len(a.elements) > 0 && a.elements[0] <= t {
		return false
	}
	a.elements = append(a.elements[:0], t)
	return true
}

// Elements returns the antichain members.
func (a Antichain) Elements() []Time {
	return a.elements
}

// LessEqual reports whether some element is less than or equal to t.
func (a Antichain) LessEqual(t Time) bool {
	return len(a.elements) > 0 && a.elements[0] <= t
}
