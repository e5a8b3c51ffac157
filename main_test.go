//go:build nofpga

package main

import (
	"path/filepath"
	"testing"

	"fpgabridge/config"
	"fpgabridge/control"
)

func TestRunDefaultPipelineAgainstSimulator(t *testing.T) {
	control.Reset()
	cfg := config.Default()
	cfg.Epochs = 4
	cfg.RecordsPerEpoch = 40
	cfg.TraceDB = filepath.Join(t.TempDir(), "trace.db")
	cfg.StatusAddr = "127.0.0.1:0"
	if err := run(cfg); err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestRunWithoutTrace(t *testing.T) {
	control.Reset()
	cfg := config.Default()
	cfg.Epochs = 2
	cfg.Banks = 2
	if err := run(cfg); err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestStepTracksTraceConsumerTemperature(t *testing.T) {
	control.Reset()
	cfg := config.Default()
	cfg.TraceDB = filepath.Join(t.TempDir(), "trace.db")
	b, err := build(cfg)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer b.close()

	b.in.Close()
	for i := 0; i < 10000 && (b.w.Step() || !b.probe.Done()); i++ {
	}
	if !b.probe.Done() {
		t.Fatal("dataflow did not drain")
	}

	control.Reset()
	b.step()
	if b.async.Hot() {
		t.Fatal("trace consumer still hot after the loop went quiet")
	}
	control.SignalActivity()
	b.step()
	if !b.async.Hot() {
		t.Fatal("trace consumer not woken by loop activity")
	}
}
