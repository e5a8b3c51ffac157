// ════════════════════════════════════════════════════════════════════════════════════════════════
// Hardware Bridge Operator
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Component: The one real operator in front of a run of hardware-resident operators
//
// Description:
//   Each Schedule call performs exactly one fenced exchange with the device:
//
//     1. ingest ghost frontier changes into private antichains
//     2. draw at most one upstream message
//     3. encode frontiers, zero the progress zone, write data line by line
//     4. Commit
//     5. decode output data and one progress quadruple per ghost
//     6. fan the quadruples out into each ghost's SharedProgress
//     7. emit the decoded output downstream
//
//   The device cannot take part in the scheduler's callback protocol. The bridge writes every
//   ghost's consumed/produced/internal counts on the device's behalf, which is what lets the
//   scheduler reason about work it never sees.
//
// Round times:
//   - data round: consumed/produced at the message time, internal at the decoded internal time
//   - idle round: all three at each ghost's decoded internal time; output at the last ghost's
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package wrapper

import (
	"time"

	"fpgabridge/constants"
	"fpgabridge/dataflow"
	"fpgabridge/debug"
	"fpgabridge/hardware"
	"fpgabridge/progress"
	"fpgabridge/utils"
	"fpgabridge/wire"
)

// GhostIndex routes one wire slot to a ghost operator's record.
type GhostIndex struct {
	Port int // local port on the ghost
	ID   int // global operator id
}

// Config shapes a bridge operator.
type Config struct {
	Name  string
	Path  []int
	Peers int

	// GateIdleProgressOnOutput reproduces the legacy idle-round rule: only
	// the last ghost's produced/internal counts are forwarded, and only
	// when the round produced output. It does not conserve capabilities
	// for stages that hold data internally.
	GateIdleProgressOnOutput bool

	Recorder Recorder
}

// Operator is the bridge.
type Operator struct {
	name   string
	path   []int
	peers  int64
	gate   bool
	region *hardware.Region
	layout *wire.Layout

	in  *dataflow.PullCounter
	out *dataflow.PushBuffer

	index     []GhostIndex
	frontiers []*progress.MutableAntichain

	started bool
	round   uint64

	line   []uint64    // one encoded cache line
	zone   []uint64    // raw zone read-back
	output []uint64    // decoded records
	quads  []wire.Quad // decoded progress

	recorder Recorder
	stats    Stats
}

// New builds a bridge over region for the ghosts in index, which must match
// the region's ghost count and wire order.
func New(region *hardware.Region, index []GhostIndex, in *dataflow.PullCounter, out *dataflow.PushBuffer, cfg Config) *Operator {
	l := region.Layout()
	if len(index) != l.Ghosts {
		panic("wrapper: ghost index has " + utils.Itoa(len(index)) + " entries, device expects " + utils.Itoa(l.Ghosts))
	}
	if cfg.Peers <= 0 {
		panic("wrapper: peers must be >0")
	}
	if cfg.Name == "" {
		cfg.Name = "fpga"
	}
	zoneCap := max(l.Size(wire.DataZone), l.Size(wire.ProgressZone))
	return &Operator{
		name:      cfg.Name,
		path:      cfg.Path,
		peers:     int64(cfg.Peers),
		gate:      cfg.GateIdleProgressOnOutput,
		region:    region,
		layout:    l,
		in:        in,
		out:       out,
		index:     append([]GhostIndex(nil), index...),
		frontiers: progress.NewMutableAntichains(len(index)),
		line:      make([]uint64, l.CacheLineWords),
		zone:      make([]uint64, 0, zoneCap),
		output:    make([]uint64, 0, min(constants.MaxCapacity, l.BatchWidth)),
		quads:     make([]wire.Quad, len(index)),
		recorder:  cfg.Recorder,
	}
}

func (w *Operator) Inputs() int  { return 1 }
func (w *Operator) Outputs() int { return 1 }

// InternalSummary holds no capability of its own: the ghosts carry every
// count the bridge reports.
func (w *Operator) InternalSummary(*progress.SharedProgress) dataflow.Summary {
	return dataflow.FullyConnected(1, 1)
}

func (w *Operator) SetExternalSummary() {}
func (w *Operator) NotifyMe() bool      { return false }
func (w *Operator) Name() string        { return w.name }
func (w *Operator) Path() []int         { return w.path }

// Ghosts returns the ghost index table.
func (w *Operator) Ghosts() []GhostIndex { return w.index }

// Round is the number of completed exchanges.
func (w *Operator) Round() uint64 { return w.round }

// Stats returns running exchange totals.
func (w *Operator) Stats() Stats { return w.stats }

// Schedule performs one exchange.
func (w *Operator) Schedule(sp *progress.SharedProgress) bool {
	if !w.started {
		w.start(sp)
	}

	// 1. frontier ingestion
	for i, gi := range w.index {
		g := sp.Ghost(gi.ID)
		g.Frontiers[gi.Port].DrainIntoAntichain(w.frontiers[i])
	}

	// 2. input draw
	msg := w.in.Next()
	var data []uint64
	if msg != nil {
		data = msg.Data
		if len(data) > w.layout.BatchWidth {
			panic("wrapper: message of " + utils.Itoa(len(data)) + " records exceeds the data zone (" + utils.Itoa(w.layout.BatchWidth) + ")")
		}
	}

	bank := int(w.round % uint64(w.layout.Banks))
	var began time.Time
	if w.recorder != nil {
		began = time.Now()
	}

	// 3. encode
	w.encode(bank, data)

	// 4. exchange
	w.region.Commit(bank)

	// 5. decode
	w.decode(bank)

	// 6. fan-out, 7. emit
	var at progress.Time
	if msg != nil {
		at = msg.Time
		w.fanOutData(sp, at)
	} else {
		at = w.quads[len(w.quads)-1].InternalTime
		w.fanOutIdle(sp)
	}
	if len(w.output) > 0 {
		w.out.Session(at).GiveVec(w.output)
		w.out.Cease()
	}

	w.stats.Rounds++
	if msg != nil {
		w.stats.DataRounds++
		w.stats.RecordsIn += uint64(len(data))
	}
	w.stats.RecordsOut += uint64(len(w.output))
	if w.recorder != nil {
		w.record(bank, at, msg != nil, len(data), time.Since(began))
	}

	// 8. clear transient state
	w.output = w.output[:0]
	clear(w.quads)
	w.round++
	return false
}

// start validates the ghost table and retires each ghost's seeded
// capability. The seed only exists to keep the ghost open until the bridge
// first speaks for it.
func (w *Operator) start(sp *progress.SharedProgress) {
	ids := make([]int, len(w.index))
	for i, gi := range w.index {
		ids[i] = gi.ID
	}
	sp.Validate(ids)
	for _, gi := range w.index {
		g := sp.Ghost(gi.ID)
		if gi.Port >= len(g.Internals) || gi.Port >= len(g.Frontiers) {
			panic("wrapper: ghost operator " + utils.Itoa(gi.ID) + " has no port " + utils.Itoa(gi.Port))
		}
		g.Internals[gi.Port].Update(progress.Minimum, -w.peers)
	}
	w.started = true
}

func (w *Operator) encode(bank int, data []uint64) {
	var acc uint64
	for i := range w.index {
		f := w.frontiers[i].Frontier()
		if len(f) > 0 {
			acc |= f[0]
		}
		w.region.WriteWord(bank, wire.FrontierZone, i, wire.EncodeFrontier(f))
	}
	w.region.ZeroZone(bank, wire.ProgressZone)
	w.region.Barrier()

	lw := w.layout.CacheLineWords
	for line := 0; line < w.layout.Lines(wire.DataZone); line++ {
		lo := min(line*lw, len(data))
		hi := min(lo+lw, len(data))
		acc |= wire.EncodeWords(w.line, data[lo:hi])
		w.region.WriteLine(bank, wire.DataZone, line, w.line)
		w.region.Barrier()
	}
	if !wire.Fits(acc) {
		panic("wrapper: value does not fit in 63 bits")
	}
	if debug.Verbose() {
		debug.DropTrace("wrapper: frontier out", w.region.ReadZone(bank, wire.FrontierZone, w.zone))
		debug.DropTrace("wrapper: data out", w.region.ReadZone(bank, wire.DataZone, w.zone))
	}
}

func (w *Operator) decode(bank int) {
	w.zone = w.region.ReadZone(bank, wire.DataZone, w.zone)
	debug.DropTrace("wrapper: data in", w.zone)
	w.output = wire.DecodeWords(w.output[:0], w.zone)

	w.zone = w.region.ReadZone(bank, wire.ProgressZone, w.zone)
	debug.DropTrace("wrapper: progress in", w.zone)
	for i := range w.quads {
		var q [wire.QuadWords]uint64
		copy(q[:], w.zone[wire.QuadWords*i:])
		w.quads[i] = wire.QuadFromWords(q)
	}
}

// fanOutData reports a round that carried an input message at t.
func (w *Operator) fanOutData(sp *progress.SharedProgress, t progress.Time) {
	for i, gi := range w.index {
		q := w.quads[i]
		if q.IsZero() {
			continue
		}
		g := sp.Ghost(gi.ID)
		consumed := progress.NewFrom(t, q.Consumed)
		produced := progress.NewFrom(t, q.Produced)
		internal := progress.NewFrom(q.InternalTime, q.InternalDelta)
		consumed.DrainInto(&g.Consumeds[gi.Port])
		produced.DrainInto(&g.Produceds[gi.Port])
		internal.DrainInto(&g.Internals[gi.Port])
	}
}

// fanOutIdle reports a round without input, each ghost at its own decoded
// internal time.
func (w *Operator) fanOutIdle(sp *progress.SharedProgress) {
	if w.gate {
		w.fanOutGated(sp)
		return
	}
	for i, gi := range w.index {
		q := w.quads[i]
		if q.IsZero() {
			continue
		}
		g := sp.Ghost(gi.ID)
		consumed := progress.NewFrom(q.InternalTime, q.Consumed)
		produced := progress.NewFrom(q.InternalTime, q.Produced)
		internal := progress.NewFrom(q.InternalTime, q.InternalDelta)
		consumed.DrainInto(&g.Consumeds[gi.Port])
		produced.DrainInto(&g.Produceds[gi.Port])
		internal.DrainInto(&g.Internals[gi.Port])
	}
}

func (w *Operator) fanOutGated(sp *progress.SharedProgress) {
	if len(w.output) == 0 {
		return
	}
	last := len(w.index) - 1
	q := w.quads[last]
	gi := w.index[last]
	g := sp.Ghost(gi.ID)
	produced := progress.NewFrom(q.InternalTime, q.Produced)
	internal := progress.NewFrom(q.InternalTime, q.InternalDelta)
	produced.DrainInto(&g.Produceds[gi.Port])
	internal.DrainInto(&g.Internals[gi.Port])
}
