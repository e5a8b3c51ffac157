package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"fpgabridge/sim"
	"fpgabridge/wire"
)

func TestDefaultIsValid(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") = %v", err)
	}
	l, err := c.Layout()
	if err != nil || l.Ghosts != 4 || l.BatchWidth != 16 {
		t.Fatalf("layout = %+v, %v", l, err)
	}
	if c.Core != -1 {
		t.Fatalf("default core %d", c.Core)
	}
}

func TestParseOverridesDefaults(t *testing.T) {
	c, err := Parse([]byte(`{
		"batch_width": 32,
		"banks": 2,
		"ghosts": [
			{"name": "keep", "kind": "filter", "threshold": 7},
			{"name": "hold", "kind": "buffer"}
		],
		"gate_idle_progress_on_output": true,
		"trace_db": "t.db"
	}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if c.BatchWidth != 32 || c.Banks != 2 || c.CacheLineWords != 16 || !c.GateIdleProgressOnOutput || c.TraceDB != "t.db" {
		t.Fatalf("config = %+v", c)
	}
	stages, err := c.Stages()
	if err != nil {
		t.Fatal(err)
	}
	if len(stages) != 2 || stages[0].Kind != sim.Filter || stages[0].Threshold != 7 || stages[1].Kind != sim.Buffer {
		t.Fatalf("stages = %+v", stages)
	}
	if n := c.Names(); n[0] != "keep" || n[1] != "hold" {
		t.Fatalf("names = %v", n)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name string
		json string
		want error
	}{
		{"no ghosts", `{"ghosts": []}`, ErrNoGhosts},
		{"zero peers", `{"peers": 0}`, ErrPeers},
		{"negative epochs", `{"epochs": -1}`, ErrEpochs},
		{"duplicate ghost", `{"ghosts": [{"name":"a","kind":"pass"},{"name":"a","kind":"pass"}]}`, ErrGhostName},
		{"unknown kind", `{"ghosts": [{"name":"a","kind":"sort"}]}`, sim.ErrKind},
		{"bad line", `{"cache_line_words": 12}`, wire.ErrLine},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.json))
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestParseRejectsMalformedJSON(t *testing.T) {
	if _, err := Parse([]byte(`{"banks": `)); err == nil {
		t.Fatal("truncated JSON accepted")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bridge.json")
	if err := os.WriteFile(path, []byte(`{"epochs": 3}`), 0o600); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil || c.Epochs != 3 || len(c.Ghosts) != 4 {
		t.Fatalf("Load = %+v, %v", c, err)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("missing file accepted")
	}
}

func TestFingerprintTracksDeviceFields(t *testing.T) {
	a := Default()
	b := Default()
	b.Epochs = 99
	b.TraceDB = "elsewhere.db"
	if a.Fingerprint() != b.Fingerprint() {
		t.Fatal("host-only fields changed the fingerprint")
	}
	if len(a.Fingerprint()) != 64 {
		t.Fatalf("fingerprint %q", a.Fingerprint())
	}
	b.Ghosts = append([]Ghost(nil), b.Ghosts...)
	b.Ghosts[0].Threshold = 6
	if a.Fingerprint() == b.Fingerprint() {
		t.Fatal("ghost change kept the fingerprint")
	}
}

func TestJSONRoundTrips(t *testing.T) {
	a := Default()
	a.Epochs = 7
	b, err := Parse(a.JSON())
	if err != nil {
		t.Fatalf("Parse(JSON()) = %v", err)
	}
	if b.Fingerprint() != a.Fingerprint() || b.Epochs != 7 {
		t.Fatalf("round trip lost fields: %+v", b)
	}
}
