package trace

import (
	"path/filepath"
	"testing"
	"time"

	"fpgabridge/wire"
	"fpgabridge/wrapper"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "trace.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func round(n uint64, quads ...wire.Quad) *wrapper.Round {
	ghosts := make([]int, len(quads))
	for i := range ghosts {
		ghosts[i] = i + 1
	}
	return &wrapper.Round{Round: n, HasData: true, RecordsIn: 4, RecordsOut: 2, Ghosts: ghosts, Quads: quads, Latency: time.Duration(n+1) * time.Microsecond}
}

func TestRecordAndAudit(t *testing.T) {
	s := openTemp(t)
	s.SetFlushEvery(2)
	run, err := s.BeginRun("abc", []byte(`{"ghosts":2}`))
	if err != nil {
		t.Fatal(err)
	}
	if s.Run() != run || len(run) != 36 {
		t.Fatalf("run id %q", run)
	}

	s.Record(round(0, wire.Quad{Consumed: 1, InternalTime: 3, InternalDelta: 1}, wire.Quad{}))
	s.Record(round(1, wire.Quad{Produced: 1, InternalTime: 3, InternalDelta: -1}, wire.Quad{Consumed: 1, Produced: 1}))
	s.Record(round(2, wire.Quad{}, wire.Quad{}))

	totals, err := s.Audit(run)
	if err != nil {
		t.Fatalf("Audit: %v", err)
	}
	want := []GhostTotals{
		{Ghost: 1, Reports: 2, Consumed: 1, Produced: 1, Internal: 0},
		{Ghost: 2, Reports: 1, Consumed: 1, Produced: 1, Internal: 0},
	}
	if len(totals) != len(want) {
		t.Fatalf("totals = %+v", totals)
	}
	for i := range want {
		if totals[i] != want[i] {
			t.Fatalf("ghost %d totals %+v, want %+v", i, totals[i], want[i])
		}
	}
	if n, err := s.Rounds(run); err != nil || n != 3 {
		t.Fatalf("Rounds = %d, %v", n, err)
	}
	lat, err := s.Latencies(run)
	if err != nil || len(lat) != 3 || lat[0] != time.Microsecond || lat[2] != 3*time.Microsecond {
		t.Fatalf("Latencies = %v, %v", lat, err)
	}
	if err := s.EndRun(); err != nil {
		t.Fatalf("EndRun: %v", err)
	}
}

func TestRunsAreIsolated(t *testing.T) {
	s := openTemp(t)
	a, _ := s.BeginRun("f", nil)
	s.Record(round(0, wire.Quad{Consumed: 1}))
	b, _ := s.BeginRun("f", nil)
	s.Record(round(0, wire.Quad{Consumed: 5}))

	ta, _ := s.Audit(a)
	tb, _ := s.Audit(b)
	if len(ta) != 1 || ta[0].Consumed != 1 || len(tb) != 1 || tb[0].Consumed != 5 {
		t.Fatalf("a=%+v b=%+v", ta, tb)
	}
}

func TestRecordWithoutRunFails(t *testing.T) {
	s := openTemp(t)
	s.Record(round(0))
	if err := s.Flush(); err != ErrNoRun {
		t.Fatalf("Flush = %v, want ErrNoRun", err)
	}
}

func TestDuplicateRoundSurfacesError(t *testing.T) {
	s := openTemp(t)
	s.BeginRun("f", nil)
	s.Record(round(0))
	s.Record(round(0))
	if err := s.Flush(); err == nil {
		t.Fatal("duplicate round accepted")
	}
}

func TestEpochLatenciesAndPercentile(t *testing.T) {
	s := openTemp(t)
	run, _ := s.BeginRun("f", nil)
	for e := uint64(0); e < 10; e++ {
		if err := s.RecordEpoch(e, time.Duration(10-e)*time.Millisecond); err != nil {
			t.Fatal(err)
		}
	}
	lat, err := s.EpochLatencies(run)
	if err != nil || len(lat) != 10 {
		t.Fatalf("EpochLatencies = %v, %v", lat, err)
	}
	if p := Percentile(lat, 50); p != 5*time.Millisecond {
		t.Fatalf("p50 = %v", p)
	}
	if p := Percentile(lat, 100); p != 10*time.Millisecond {
		t.Fatalf("p100 = %v", p)
	}
	if Percentile(nil, 99) != 0 {
		t.Fatal("empty percentile not zero")
	}
}

func TestAsyncDeliversEverything(t *testing.T) {
	s := openTemp(t)
	run, _ := s.BeginRun("f", nil)
	a := NewAsync(s, -1)
	for i := uint64(0); i < 500; i++ {
		a.Record(round(i, wire.Quad{Consumed: 1}))
	}
	a.Idle()
	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if n, err := s.Rounds(run); err != nil || n != 500 {
		t.Fatalf("Rounds = %d, %v", n, err)
	}
}

func TestAsyncIdleAndWake(t *testing.T) {
	s := openTemp(t)
	run, _ := s.BeginRun("f", nil)
	a := NewAsync(s, -1)
	if !a.Hot() {
		t.Fatal("consumer starts cold")
	}
	a.Idle()
	if a.Hot() {
		t.Fatal("Idle left the consumer hot")
	}
	for i := uint64(0); i < 64; i++ {
		a.Record(round(i, wire.Quad{Produced: 1}))
	}
	a.Wake()
	if !a.Hot() {
		t.Fatal("Wake left the consumer cold")
	}
	for i := uint64(64); i < 128; i++ {
		a.Record(round(i, wire.Quad{Produced: 1}))
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if n, err := s.Rounds(run); err != nil || n != 128 {
		t.Fatalf("Rounds = %d, %v", n, err)
	}
}
