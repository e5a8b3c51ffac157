// ════════════════════════════════════════════════════════════════════════════════════════════════
// Simulated Device
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Component: Software stand-in for the accelerator's side of the exchange
//
// Description:
//   Runs inside Region.Commit. Reads the frontier and data zones, pushes the batch through a chain
//   of stages (one per ghost operator), and writes the output batch back into the data zone along
//   with one progress quadruple per stage.
//
// Accounting (per message, not per record):
//   - a stage that receives a non-empty batch reports consumed 1
//   - a stage that emits a non-empty batch reports produced 1
//   - a buffer stage reports internal +1 when it first holds a time and −1 when it releases it
//
// A buffer holds data under its input frontier at arrival and releases on idle rounds only, one
// time (at most one data zone of it) per round, once its frontier has moved past that time.
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package sim

import (
	"fpgabridge/hardware"
	"fpgabridge/progress"
	"fpgabridge/utils"
	"fpgabridge/wire"
)

// Totals are one stage's accumulated reports.
type Totals struct {
	Name     string
	Consumed int64
	Produced int64
	Internal int64
}

// Device implements hardware.Responder.
type Device struct {
	stages []Stage
	held   []holds
	ledger []Totals

	frontier []uint64
	cur, nxt []uint64
	quads    []wire.Quad
	width    int
	rounds   uint64
}

// New builds a device with one stage per ghost of layout.
func New(layout wire.Layout, stages []Stage) *Device {
	if len(stages) != layout.Ghosts {
		panic("sim: " + utils.Itoa(len(stages)) + " stages for " + utils.Itoa(layout.Ghosts) + " ghost operators")
	}
	d := &Device{
		stages:   append([]Stage(nil), stages...),
		held:     make([]holds, len(stages)),
		ledger:   make([]Totals, len(stages)),
		frontier: make([]uint64, len(stages)),
		cur:      make([]uint64, 0, layout.BatchWidth),
		nxt:      make([]uint64, 0, layout.BatchWidth),
		quads:    make([]wire.Quad, len(stages)),
		width:    layout.Used(wire.DataZone),
	}
	for i := range stages {
		d.ledger[i].Name = stages[i].Name
	}
	return d
}

// Passthrough builds n pass stages.
func Passthrough(layout wire.Layout) *Device {
	stages := make([]Stage, layout.Ghosts)
	for i := range stages {
		stages[i] = Stage{Name: "pass" + utils.Itoa(i), Kind: Pass}
	}
	return New(layout, stages)
}

// Respond computes one exchange.
func (d *Device) Respond(r *hardware.Region, bank int) {
	l := r.Layout()
	d.rounds++

	for g := range d.frontier {
		w := r.ReadWord(bank, wire.FrontierZone, g)
		if !wire.Tagged(w) {
			panic("sim: untagged frontier word for stage " + utils.Itoa(g))
		}
		d.frontier[g] = w
	}
	d.cur = d.cur[:0]
	for i := 0; i < l.Used(wire.DataZone); i++ {
		w := r.ReadWord(bank, wire.DataZone, i)
		if !wire.Tagged(w) {
			panic("sim: untagged data word at slot " + utils.Itoa(i))
		}
		if wire.Present(w) {
			d.cur = append(d.cur, wire.Decode(w))
		}
	}
	clear(d.quads)

	if len(d.cur) > 0 {
		d.dataRound()
	} else {
		d.idleRound()
	}

	if len(d.cur) > l.Used(wire.DataZone) {
		panic("sim: output wider than the data zone")
	}
	for i := 0; i < l.Used(wire.DataZone); i++ {
		var w uint64
		if i < len(d.cur) {
			w = wire.Encode(d.cur[i])
		}
		r.WriteWord(bank, wire.DataZone, i, w)
	}
	for g, q := range d.quads {
		words := q.Words()
		for k, w := range words {
			r.WriteWord(bank, wire.ProgressZone, l.ProgressOffset(g, k), w)
		}
		d.ledger[g].Consumed += q.Consumed
		d.ledger[g].Produced += q.Produced
		d.ledger[g].Internal += q.InternalDelta
	}
}

// dataRound pushes an input batch through every stage.
func (d *Device) dataRound() {
	for g := range d.stages {
		if len(d.cur) == 0 {
			return
		}
		q := &d.quads[g]
		q.Consumed = 1
		if d.stages[g].Kind == Buffer {
			t, _ := wire.DecodeFrontier(d.frontier[g])
			if d.held[g].add(t, d.cur) {
				q.InternalTime, q.InternalDelta = t, 1
			}
			d.cur = d.cur[:0]
			return
		}
		d.step(g, q)
	}
}

// idleRound releases at most one held time from the earliest buffer stage
// that can, then pushes it through the remaining stages.
func (d *Device) idleRound() {
	from := -1
	for g := range d.stages {
		if d.stages[g].Kind != Buffer {
			continue
		}
		f, open := wire.DecodeFrontier(d.frontier[g])
		if i, ok := d.held[g].releasable(f, open); ok {
			d.release(g, i)
			from = g
			break
		}
	}
	if from < 0 {
		return
	}

	at := d.quads[from].InternalTime
	for g := from + 1; g < len(d.stages); g++ {
		q := &d.quads[g]
		q.InternalTime = at
		if len(d.cur) == 0 {
			continue
		}
		q.Consumed = 1
		if d.stages[g].Kind == Buffer {
			if d.held[g].add(at, d.cur) {
				q.InternalDelta = 1
			}
			d.cur = d.cur[:0]
			continue
		}
		d.step(g, q)
	}
}

// release emits up to one data zone of stage g's hold i. The capability
// is retired with the last chunk.
func (d *Device) release(g, i int) {
	e := &d.held[g][i]
	n := min(len(e.data), d.width)
	d.cur = append(d.cur[:0], e.data[:n]...)
	q := wire.Quad{Produced: 1, InternalTime: e.time}
	if n == len(e.data) {
		d.held[g].take(i)
		q.InternalDelta = -1
	} else {
		e.data = e.data[n:]
	}
	d.quads[g] = q
}

// step applies a stateless stage to d.cur.
func (d *Device) step(g int, q *wire.Quad) {
	d.nxt = d.stages[g].apply(d.nxt, d.cur)
	d.cur, d.nxt = d.nxt, d.cur
	if len(d.cur) > 0 {
		q.Produced = 1
	}
}

// Ledger returns accumulated per-stage totals.
func (d *Device) Ledger() []Totals {
	return append([]Totals(nil), d.ledger...)
}

// Held is the number of records buffered in stage g.
func (d *Device) Held(g int) int {
	return d.held[g].records()
}

// HeldTimes lists the times stage g holds capabilities for.
func (d *Device) HeldTimes(g int) []progress.Time {
	out := make([]progress.Time, len(d.held[g]))
	for i, e := range d.held[g] {
		out[i] = e.time
	}
	return out
}

// Rounds is the number of exchanges served.
func (d *Device) Rounds() uint64 { return d.rounds }

// Stages returns the stage configuration.
func (d *Device) Stages() []Stage {
	return append([]Stage(nil), d.stages...)
}
