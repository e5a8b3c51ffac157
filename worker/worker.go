// ════════════════════════════════════════════════════════════════════════════════════════════════
// In-Process Linear Pipeline Scheduler
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Component: Single-worker progress tracking for input → operators → probe chains
//
// Description:
//   Every chain position is a progress location with a source (capabilities held at its output)
//   and a target (messages in flight to its input). Operators report consumed/produced/internal
//   counts through their SharedProgress; the worker moves them onto locations and recomputes each
//   position's input frontier as the minimum over everything upstream.
//
//   An operator either owns its own location or speaks for a run of ghost locations (the bridge).
//   In the second case its own record is not a location and is discarded after every call.
//
// Progress mapping for location k with downstream k+1:
//   consumed   → target[k]   −delta
//   internal   → source[k]   +delta
//   produced   → target[k+1] +delta
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package worker

import (
	"sync/atomic"

	"fpgabridge/constants"
	"fpgabridge/dataflow"
	"fpgabridge/progress"
)

// location is one chain position.
type location struct {
	name  string
	sp    *progress.SharedProgress
	owner int // operator index activated on frontier change, -1 for inputs
	next  int // downstream location, -1 until connected

	source, target           *progress.MutableAntichain
	sourceDelta, targetDelta progress.ChangeBatch

	frontier    progress.Time
	hasFrontier bool
}

// node is one schedulable operator.
type node struct {
	op   dataflow.Operator
	sp   *progress.SharedProgress
	locs []int
	own  bool // sp is the record of locs[0]
	in   *dataflow.PullCounter
	out  *dataflow.PushBuffer
}

// Stream is the output of a chain position.
type Stream struct {
	loc int
	ch  *dataflow.Channel
}

// Worker schedules one linear dataflow. Not safe for concurrent use except
// for Snapshot.
type Worker struct {
	peers int
	width int

	locs   []*location
	nodes  []*node
	inputs []*InputHandle

	acts    dataflow.Activations
	order   []int
	started bool
	steps   uint64

	publish  bool
	snapshot atomic.Pointer[Snapshot]
}

// New builds a worker. peers is the number of workers sharing each ghost's
// seeded capability; batchWidth cuts input batches (0 = default).
func New(peers, batchWidth int) *Worker {
	if peers <= 0 {
		panic("worker: peers must be >0")
	}
	if batchWidth <= 0 {
		batchWidth = constants.BatchWidth
	}
	return &Worker{peers: peers, width: batchWidth}
}

// Peers is the configured worker count.
func (w *Worker) Peers() int { return w.peers }

// BatchWidth is the input batch cut.
func (w *Worker) BatchWidth() int { return w.width }

func (w *Worker) addLocation(name string, sp *progress.SharedProgress, owner int) int {
	if w.started {
		panic("worker: dataflow already running")
	}
	w.locs = append(w.locs, &location{
		name:   name,
		sp:     sp,
		owner:  owner,
		next:   -1,
		source: progress.NewMutableAntichain(),
		target: progress.NewMutableAntichain(),
	})
	return len(w.locs) - 1
}

// connect links upstream location from to to, which must be the next
// position in the chain.
func (w *Worker) connect(from, to int) {
	if from != to-1 {
		panic("worker: only linear pipelines are supported; " + w.locs[from].name + " is not the chain tail")
	}
	if w.locs[from].next >= 0 {
		panic("worker: stream " + w.locs[from].name + " already consumed")
	}
	w.locs[from].next = to
}

// AddOperator appends an operator that owns one location.
func (w *Worker) AddOperator(in Stream, build func(in *dataflow.PullCounter, out *dataflow.PushBuffer) dataflow.Operator) Stream {
	ch := dataflow.NewChannel()
	pull, push := dataflow.NewPullCounter(in.ch), dataflow.NewPushBuffer(ch)
	op := build(pull, push)
	sp := progress.NewSharedProgress(op.Inputs(), op.Outputs())
	op.InternalSummary(sp)

	idx := len(w.nodes)
	loc := w.addLocation(op.Name(), sp, idx)
	w.connect(in.loc, loc)
	w.nodes = append(w.nodes, &node{op: op, sp: sp, locs: []int{loc}, own: true, in: pull, out: push})
	return Stream{loc: loc, ch: ch}
}

// AddHardware appends a run of ghost locations spoken for by one bridge
// operator. build receives the ghosts' global ids in chain order.
func (w *Worker) AddHardware(in Stream, ghosts []dataflow.Operator, build func(in *dataflow.PullCounter, out *dataflow.PushBuffer, ids []int) dataflow.Operator) Stream {
	if len(ghosts) == 0 {
		panic("worker: hardware region without ghost operators")
	}
	idx := len(w.nodes)
	ids := make([]int, len(ghosts))
	records := make([]*progress.SharedProgress, len(ghosts))
	prev := in.loc
	for i, g := range ghosts {
		records[i] = progress.NewSharedProgress(g.Inputs(), g.Outputs())
		g.InternalSummary(records[i])
		ids[i] = w.addLocation(g.Name(), records[i], idx)
		w.connect(prev, ids[i])
		prev = ids[i]
	}

	ch := dataflow.NewChannel()
	pull, push := dataflow.NewPullCounter(in.ch), dataflow.NewPushBuffer(ch)
	op := build(pull, push, ids)
	sp := progress.NewSharedProgress(op.Inputs(), op.Outputs())
	for i, id := range ids {
		sp.AttachGhost(id, records[i])
	}
	op.InternalSummary(sp)
	w.nodes = append(w.nodes, &node{op: op, sp: sp, locs: ids, in: pull, out: push})
	return Stream{loc: ids[len(ids)-1], ch: ch}
}

// Step runs every activated operator once and propagates progress.
// It reports whether any operator is still activated.
func (w *Worker) Step() bool {
	if !w.started {
		w.start()
	}
	for _, in := range w.inputs {
		in.flushCounts()
		w.extract(in.loc)
	}

	w.order = w.acts.Drain(w.order)
	for _, i := range w.order {
		n := w.nodes[i]
		again := n.op.Schedule(n.sp)
		reported := w.collect(n)
		if again || n.in.Pending() || (!n.own && reported) {
			w.acts.Activate(i)
		}
	}

	w.propagate()
	w.steps++
	if w.publish {
		w.snapshot.Store(w.takeSnapshot())
	}
	return w.acts.Len() > 0
}

// Run steps until no operator is activated.
func (w *Worker) Run() {
	for w.Step() {
	}
}

func (w *Worker) start() {
	if len(w.inputs) == 0 {
		panic("worker: dataflow has no input")
	}
	w.started = true
	for i := range w.locs {
		w.extract(i)
	}
	for i := range w.nodes {
		w.acts.Activate(i)
	}
	w.propagate()
}

// collect moves an operator's reported counts onto its locations.
func (w *Worker) collect(n *node) bool {
	n.in.Consumed().DrainInto(&n.sp.Consumeds[0])
	if n.out != nil {
		n.out.Produced().DrainInto(&n.sp.Produceds[0])
	}
	if n.own {
		return w.extract(n.locs[0])
	}
	reported := false
	for _, l := range n.locs {
		if w.extract(l) {
			reported = true
		}
	}
	for _, set := range [...][]progress.ChangeBatch{n.sp.Consumeds, n.sp.Produceds, n.sp.Internals} {
		for i := range set {
			set[i].Clear()
		}
	}
	return reported
}

// extract drains location k's record into pending deltas.
func (w *Worker) extract(k int) bool {
	l := w.locs[k]
	changed := false
	for i := range l.sp.Consumeds {
		for _, u := range l.sp.Consumeds[i].Drain() {
			l.targetDelta.Update(u.Time, -u.Delta)
			changed = true
		}
	}
	for i := range l.sp.Internals {
		for _, u := range l.sp.Internals[i].Drain() {
			l.sourceDelta.Update(u.Time, u.Delta)
			changed = true
		}
	}
	for i := range l.sp.Produceds {
		ups := l.sp.Produceds[i].Drain()
		if len(ups) == 0 {
			continue
		}
		if l.next < 0 {
			panic("worker: location " + l.name + " produced with no consumer")
		}
		down := w.locs[l.next]
		for _, u := range ups {
			down.targetDelta.Update(u.Time, u.Delta)
		}
		w.acts.Activate(down.owner)
		changed = true
	}
	return changed
}

// propagate applies pending deltas and pushes frontier changes.
func (w *Worker) propagate() {
	for _, l := range w.locs {
		l.sourceDelta.DrainIntoAntichain(l.source)
		l.targetDelta.DrainIntoAntichain(l.target)
	}

	var m progress.Time
	has := false
	lower := func(a *progress.MutableAntichain) {
		if t, ok := a.Min(); ok && (!has || t < m) {
			m, has = t, true
		}
	}
	for k, l := range w.locs {
		if k > 0 {
			lower(l.target)
			w.advance(l, m, has)
		}
		lower(l.source)
	}
}

// advance records a location's new input frontier.
func (w *Worker) advance(l *location, t progress.Time, has bool) {
	if l.hasFrontier == has && (!has || l.frontier == t) {
		return
	}
	if len(l.sp.Frontiers) > 0 {
		if l.hasFrontier {
			l.sp.Frontiers[0].Update(l.frontier, -1)
		}
		if has {
			l.sp.Frontiers[0].Update(t, 1)
		}
	}
	l.frontier, l.hasFrontier = t, has
	w.acts.Activate(l.owner)
}

// Frontier returns the input frontier of the location behind s.
func (w *Worker) Frontier(s Stream) []progress.Time {
	l := w.locs[s.loc]
	if !l.hasFrontier {
		return nil
	}
	return []progress.Time{l.frontier}
}

// Outstanding returns every non-zero pointstamp count, keyed by location
// name. Empty once the dataflow has fully drained.
func (w *Worker) Outstanding() map[string][]progress.Update {
	out := map[string][]progress.Update{}
	for _, l := range w.locs {
		if c := l.source.Counts(); len(c) > 0 {
			out[l.name+".source"] = c
		}
		if c := l.target.Counts(); len(c) > 0 {
			out[l.name+".target"] = c
		}
	}
	return out
}

// Steps is the number of completed Step calls.
func (w *Worker) Steps() uint64 { return w.steps }
