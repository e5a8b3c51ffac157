package wrapper

import (
	"math/rand"
	"testing"

	"fpgabridge/hardware"
	"fpgabridge/progress"
	"fpgabridge/sim"
	"fpgabridge/wire"
	"fpgabridge/worker"
)

var pipeline = []sim.Stage{
	{Name: "filter", Kind: sim.Filter, Threshold: 5},
	{Name: "map", Kind: sim.Map, Offset: 100},
	{Name: "buffer", Kind: sim.Buffer},
	{Name: "pass", Kind: sim.Pass},
}

func names(stages []sim.Stage) []string {
	out := make([]string, len(stages))
	for i, s := range stages {
		out[i] = s.Name
	}
	return out
}

type harness struct {
	w     *worker.Worker
	in    *worker.InputHandle
	probe *worker.ProbeHandle
	op    *Operator
	dev   *sim.Device
}

func newHarness(t *testing.T, stages []sim.Stage, width, banks int) *harness {
	t.Helper()
	layout := wire.MustLayout(len(stages), width, 16, banks)
	dev := sim.New(layout, stages)
	region := hardware.NewSimulated(layout, dev).Region()

	w := worker.New(1, width)
	in, s := w.NewInput()
	op, s := Build(w, s, region, names(stages), Config{Name: "fpga"})
	return &harness{w: w, in: in, probe: w.Capture(s), op: op, dev: dev}
}

func (h *harness) settle(t *testing.T) {
	t.Helper()
	for i := 0; h.w.Step(); i++ {
		if i > 100000 {
			t.Fatal("dataflow never settled")
		}
	}
}

// TestPipelineConservesCapabilities runs several epochs through a buffering
// pipeline and checks that every pointstamp retires once input closes.
func TestPipelineConservesCapabilities(t *testing.T) {
	h := newHarness(t, pipeline, 16, 2)
	rng := rand.New(rand.NewSource(11))
	want := map[progress.Time]int{}

	for epoch := progress.Time(0); epoch < 8; epoch++ {
		for i := 0; i < 40; i++ {
			v := uint64(rng.Intn(10))
			h.in.Send(v)
			if v >= 5 {
				want[epoch]++
			}
		}
		h.in.AdvanceTo(epoch + 1)
		h.settle(t)
		if h.probe.LessThan(epoch + 1) {
			t.Fatalf("epoch %d: probe frontier %v", epoch, h.probe.Frontier())
		}
	}
	h.in.Close()
	h.settle(t)

	if !h.probe.Done() {
		t.Fatalf("probe frontier %v after close", h.probe.Frontier())
	}
	if out := h.w.Outstanding(); len(out) != 0 {
		t.Fatalf("outstanding pointstamps %v", out)
	}
	got := map[progress.Time]int{}
	for _, r := range h.probe.Records() {
		if r.Value < 105 || r.Value > 109 {
			t.Fatalf("record %d escaped the filter/map stages", r.Value)
		}
		got[r.Time]++
	}
	for tm, n := range want {
		if got[tm] != n {
			t.Fatalf("time %d: %d records, want %d", tm, got[tm], n)
		}
	}
	for _, tot := range h.dev.Ledger() {
		if tot.Internal != 0 {
			t.Fatalf("stage %s leaked %d capabilities", tot.Name, tot.Internal)
		}
	}
	if h.dev.Held(2) != 0 {
		t.Fatalf("buffer still holds %d records", h.dev.Held(2))
	}
}

// TestBufferHoldsUntilFrontierPasses checks output timing.
func TestBufferHoldsUntilFrontierPasses(t *testing.T) {
	stages := []sim.Stage{{Name: "buffer", Kind: sim.Buffer}, {Name: "pass", Kind: sim.Pass}}
	h := newHarness(t, stages, 16, 1)

	h.in.SendBatch([]uint64{1, 2, 3})
	h.in.Flush()
	h.settle(t)
	if n := len(h.probe.Records()); n != 0 {
		t.Fatalf("%d records released before the frontier advanced", n)
	}
	if h.dev.Held(0) != 3 {
		t.Fatalf("buffer holds %d records", h.dev.Held(0))
	}

	h.in.AdvanceTo(1)
	h.settle(t)
	recs := h.probe.Records()
	if len(recs) != 3 || recs[0].Time != 0 {
		t.Fatalf("records = %v", recs)
	}
	h.in.Close()
	h.settle(t)
	if out := h.w.Outstanding(); len(out) != 0 {
		t.Fatalf("outstanding %v", out)
	}
}

// TestBufferReleasesInChunks overfills a buffer time past one data zone.
func TestBufferReleasesInChunks(t *testing.T) {
	stages := []sim.Stage{{Name: "buffer", Kind: sim.Buffer}}
	h := newHarness(t, stages, 4, 1)
	for i := uint64(0); i < 10; i++ {
		h.in.Send(i)
	}
	h.in.Close()
	h.settle(t)

	if n := len(h.probe.Records()); n != 10 {
		t.Fatalf("released %d records, want 10", n)
	}
	if n := len(h.probe.Captured()); n != 3 {
		t.Fatalf("%d output messages, want 3 chunks", n)
	}
	if out := h.w.Outstanding(); len(out) != 0 {
		t.Fatalf("outstanding %v", out)
	}
}

// TestPassthroughEightAtFive mirrors the four-ghost fan-out through a full
// worker.
func TestPassthroughEightAtFive(t *testing.T) {
	stages := make([]sim.Stage, 4)
	for i := range stages {
		stages[i] = sim.Stage{Name: "pass" + string(rune('a'+i)), Kind: sim.Pass}
	}
	h := newHarness(t, stages, 16, 1)
	h.in.AdvanceTo(5)
	h.in.SendBatch([]uint64{1, 2, 3, 4, 5, 6, 7, 8})
	h.in.Close()
	h.settle(t)

	recs := h.probe.Records()
	if len(recs) != 8 {
		t.Fatalf("records = %v", recs)
	}
	for _, r := range recs {
		if r.Time != 5 {
			t.Fatalf("record at %d, want 5", r.Time)
		}
	}
	for _, tot := range h.dev.Ledger() {
		if tot.Consumed != 1 || tot.Produced != 1 {
			t.Fatalf("stage %s totals %+v", tot.Name, tot)
		}
	}
	if h.op.Stats().DataRounds != 1 {
		t.Fatalf("stats = %+v", h.op.Stats())
	}
}
