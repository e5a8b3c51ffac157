package dataflow

import (
	"testing"

	"fpgabridge/progress"
)

func TestActivationsDeduplicate(t *testing.T) {
	var a Activations
	a.Activate(3)
	a.Activate(1)
	a.Activate(3)
	a.Activate(-1)
	got := a.Drain(nil)
	if len(got) != 2 || got[0] != 3 || got[1] != 1 {
		t.Fatalf("drained %v", got)
	}
	if a.Len() != 0 {
		t.Fatal("queue not empty after Drain")
	}
	a.Activate(3)
	if got = a.Drain(got); len(got) != 1 || got[0] != 3 {
		t.Fatalf("re-activation drained %v", got)
	}
}

func TestPushBufferFlushesPerTime(t *testing.T) {
	ch := NewChannel()
	out := NewPushBuffer(ch)

	out.Session(2).GiveVec([]uint64{1, 2})
	out.Session(2).Give(3)
	out.Session(4).Give(9) // switches time, flushes time 2
	out.Cease()
	out.Cease() // nothing buffered, nothing sent

	if ch.Len() != 2 {
		t.Fatalf("channel holds %d messages, want 2", ch.Len())
	}
	in := NewPullCounter(ch)
	m := in.Next()
	if m.Time != 2 || len(m.Data) != 3 || m.Data[2] != 3 {
		t.Fatalf("first message = %+v", m)
	}
	if m = in.Next(); m.Time != 4 || m.Data[0] != 9 {
		t.Fatalf("second message = %+v", m)
	}
	if in.Next() != nil || in.Pending() {
		t.Fatal("channel not drained")
	}

	prod := out.Produced()
	if prod.Get(2) != 1 || prod.Get(4) != 1 {
		t.Fatalf("produced = %v", prod.Updates())
	}
	cons := in.Consumed()
	if cons.Get(2) != 1 || cons.Get(4) != 1 {
		t.Fatalf("consumed = %v", cons.Updates())
	}
}

func TestChannelGrows(t *testing.T) {
	ch := NewChannel()
	for i := 0; i < 1000; i++ {
		ch.Push(&Message{Time: progress.Time(i)})
	}
	for i := 0; i < 1000; i++ {
		if m := ch.Pop(); m == nil || m.Time != progress.Time(i) {
			t.Fatalf("pop %d = %+v", i, m)
		}
	}
}

func TestFullyConnected(t *testing.T) {
	s := FullyConnected(1, 2)
	if len(s) != 1 || len(s[0]) != 2 {
		t.Fatalf("shape %d x %d", len(s), len(s[0]))
	}
	for _, a := range s[0] {
		if e := a.Elements(); len(e) != 1 || e[0] != progress.Minimum {
			t.Fatalf("path summary %v", e)
		}
	}
	s[0][0].Insert(progress.Minimum)
	if e := s[0][1].Elements(); len(e) != 1 {
		t.Fatalf("summaries share storage: %v", e)
	}
	if s[0][1].Insert(3) {
		t.Fatal("summary accepted a time above its minimum")
	}
}
