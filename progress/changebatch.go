// ════════════════════════════════════════════════════════════════════════════════════════════════
// Progress Primitives — ChangeBatch
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Component: Compacting per-timestamp delta ledger
//
// Description:
//   A ChangeBatch accumulates signed deltas against timestamps. Updates are appended unsorted and
//   compacted lazily: sort by time, sum equal keys, drop zero results. Draining moves every entry
//   out and leaves the source empty, so a batch is applied to its target at most once.
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package progress

import "slices"

// Time is the dataflow timestamp: a totally ordered 64-bit epoch counter.
type Time = uint64

// Minimum is the least timestamp. Default capabilities are seeded here.
const Minimum Time = 0

// LessThan is the strict timestamp order.
//
//go:nosplit
//go:inline
func LessThan(a, b Time) bool { return a < b }

// LessEqual is the timestamp partial order (total for epochs).
//
//go:nosplit
//go:inline
func LessEqual(a, b Time) bool { return a <= b }

// Update is one (timestamp, delta) pair.
type Update struct {
	Time  Time
	Delta int64
}

// ChangeBatch is a compacted multiset of signed per-timestamp deltas.
// The zero value is an empty batch ready for use.
type ChangeBatch struct {
	updates []Update
	clean   int // updates[:clean] are sorted, unique and non-zero
}

// NewChangeBatch returns an empty batch.
func NewChangeBatch() ChangeBatch {
	return ChangeBatch{}
}

// NewFrom builds a one-entry batch. A zero delta yields an empty batch.
//
//go:inline
func NewFrom(t Time, delta int64) ChangeBatch {
	if delta == 0 {
		return ChangeBatch{}
	}
	return ChangeBatch{updates: []Update{{Time: t, Delta: delta}}, clean: 1}
}

// Update adds delta at time t.
//
//go:inline
func (c *ChangeBatch) Update(t Time, delta int64) {
	if delta == 0 {
		return
	}
	c.updates = append(c.updates, Update{Time: t, Delta: delta})
	c.maintain()
}

// Extend appends a sequence of updates.
func (c *ChangeBatch) Extend(updates []Update) {
	for _, u := range updates {
		if u.Delta != 0 {
			c.updates = append(c.updates, u)
		}
	}
	c.maintain()
}

// maintain compacts once the dirty tail outgrows the clean prefix.
func (c *ChangeBatch) maintain() {
	if len(c.updates) > 32 && len(c.updates)>>1 >= c.clean {
		c.Compact()
	}
}

// Compact sorts, merges equal timestamps and drops zero sums.
func (c *ChangeBatch) Compact() {
	if c.clean == len(c.updates) {
		return
	}
	if len(c.updates) == 1 {
		c.clean = 1
		return
	}
	slices.SortFunc(c.updates, func(a, b Update) int {
		switch {
		case a.Time < b.Time:
			return -1
		case a.Time > b.Time:
			return 1
		}
		return 0
	})
	out := 0
	for i := 0; i < len(c.updates); i++ {
		if out > 0 && c.updates[out-1].Time == c.updates[i].Time {
			c.updates[out-1].Delta += c.updates[i].Delta
			continue
		}
		if out > 0 && c.updates[out-1].Delta == 0 {
			out--
		}
		c.updates[out] = c.updates[i]
		out++
	}
	if out > 0 && c.updates[out-1].Delta == 0 {
		out--
	}
	c.updates = c.updates[:out]
	c.clean = out
}

// Updates returns the compacted contents. The slice is owned by the batch
// and is only valid until the next mutation.
func (c *ChangeBatch) Updates() []Update {
	c.Compact()
	return c.updates
}

// IsEmpty reports whether the batch holds no non-zero entries.
func (c *ChangeBatch) IsEmpty() bool {
	if c.clean == len(c.updates) {
		return len(c.updates) == 0
	}
	c.Compact()
	return len(c.updates) == 0
}

// Len is the number of distinct timestamps after compaction.
func (c *ChangeBatch) Len() int {
	c.Compact()
	return len(c.updates)
}

// Get returns the accumulated delta at t.
func (c *ChangeBatch) Get(t Time) int64 {
	c.Compact()
	for _, u := range c.updates {
		if u.Time == t {
			return u.Delta
		}
	}
	return 0
}

// Drain moves every entry out of the batch, leaving it empty.
func (c *ChangeBatch) Drain() []Update {
	c.Compact()
	out := c.updates
	c.updates = nil
	c.clean = 0
	return out
}

// DrainInto moves every entry into target, leaving c empty.
func (c *ChangeBatch) DrainInto(target *ChangeBatch) {
	if len(c.updates) == 0 {
		return
	}
	if len(target.updates) == 0 {
		target.updates, c.updates = c.updates, target.updates[:0]
		target.clean, c.clean = c.clean, 0
		return
	}
	target.Extend(c.Drain())
}

// DrainIntoAntichain applies every entry to target, leaving c empty, and
// returns the resulting frontier changes.
func (c *ChangeBatch) DrainIntoAntichain(target *MutableAntichain) []Update {
	return target.UpdateIter(c.Drain())
}

// Clear drops every entry.
func (c *ChangeBatch) Clear() {
	c.updates = c.updates[:0]
	c.clean = 0
}
