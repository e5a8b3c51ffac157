// ════════════════════════════════════════════════════════════════════════════════════════════════
// FPGA Bridge - Main Entry Point
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Component: Process bootstrap and epoch driver
//
// Description:
//   Boots the exchange region (mapped device or software simulator), builds the linear dataflow
//   input → bridge(ghosts...) → probe, and drives a fixed number of epochs through it while the
//   trace ledger and status endpoint observe.
//
// Phases:
//   - Phase 0: configuration, signal handling, core pinning
//   - Phase 1: device boot and dataflow construction
//   - Phase 2: epoch loop with per-epoch latency
//   - Phase 3: drain, audit, report
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package main

import (
	"errors"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"slices"
	"syscall"
	"time"

	"fpgabridge/affinity"
	"fpgabridge/config"
	"fpgabridge/control"
	"fpgabridge/debug"
	"fpgabridge/hardware"
	"fpgabridge/progress"
	"fpgabridge/sim"
	"fpgabridge/status"
	"fpgabridge/trace"
	"fpgabridge/utils"
	"fpgabridge/wire"
	"fpgabridge/worker"
	"fpgabridge/wrapper"
)

func main() {
	path := flag.String("config", "", "bridge configuration file (JSON); defaults when empty")
	flag.Parse()

	cfg, err := config.Load(*path)
	if err != nil {
		debug.DropError("CONFIG", err)
		os.Exit(2)
	}
	debug.SetVerbose(cfg.Verbose)
	setupSignalHandling()

	if err := run(cfg); err != nil {
		debug.DropError("FATAL", err)
		os.Exit(1)
	}
}

// bridge is everything run builds before the epoch loop.
type bridge struct {
	dev    *hardware.Common
	device *sim.Device // nil for mapped devices
	w      *worker.Worker
	in     *worker.InputHandle
	op     *wrapper.Operator
	probe  *worker.ProbeHandle
	store  *trace.Store
	async  *trace.Async
	server *status.Server
}

func run(cfg config.Config) error {
	// PHASE 0: the scheduling loop owns one core
	runtime.LockOSThread()
	if err := affinity.Pin(cfg.Core); err != nil {
		debug.DropError("AFFINITY", err)
	}

	// PHASE 1: device and dataflow
	b, err := build(cfg)
	if err != nil {
		return err
	}
	defer b.close()

	// PHASE 2: epochs
	latencies := b.drive(cfg)

	// PHASE 3: drain and report
	b.in.Close()
	for !b.probe.Done() && !control.Stopping() {
		b.step()
	}
	return b.report(cfg, latencies)
}

func build(cfg config.Config) (*bridge, error) {
	layout, err := cfg.Layout()
	if err != nil {
		return nil, err
	}
	stages, err := cfg.Stages()
	if err != nil {
		return nil, err
	}

	b := &bridge{}
	b.dev, err = hardware.Boot(hardware.Config{
		Layout: layout,
		Path:   cfg.DevicePath,
		Offset: cfg.DeviceOffset,
		Simulator: func(l wire.Layout) hardware.Responder {
			b.device = sim.New(l, stages)
			return b.device
		},
	})
	if err != nil {
		return nil, err
	}
	debug.DropMessage("DEVICE", b.dev.Name()+": "+utils.Itoa(layout.Ghosts)+" ghosts, "+
		utils.Itoa(layout.TotalWords())+" words, "+utils.Itoa(layout.Banks)+" banks")

	wcfg := wrapper.Config{
		Name:                     "fpga",
		Path:                     []int{1},
		Peers:                    cfg.Peers,
		GateIdleProgressOnOutput: cfg.GateIdleProgressOnOutput,
	}
	if cfg.TraceDB != "" {
		if b.store, err = trace.Open(cfg.TraceDB); err != nil {
			b.close()
			return nil, err
		}
		runID, err := b.store.BeginRun(cfg.Fingerprint(), cfg.JSON())
		if err != nil {
			b.close()
			return nil, err
		}
		debug.DropMessage("TRACE", cfg.TraceDB+" run "+runID)
		b.async = trace.NewAsync(b.store, cfg.TraceCore)
		wcfg.Recorder = b.async
	}

	b.w = worker.New(cfg.Peers, cfg.BatchWidth)
	var s worker.Stream
	b.in, s = b.w.NewInput()
	b.op, s = wrapper.Build(b.w, s, b.dev.Region(), cfg.Names(), wcfg)
	b.probe = b.w.Probe(s)
	b.w.PublishSnapshots()

	if cfg.StatusAddr != "" {
		ln, err := status.Listen(cfg.StatusAddr)
		if err != nil {
			b.close()
			return nil, err
		}
		b.server = status.Serve(ln, func() any {
			if snap := b.w.Snapshot(); snap != nil {
				return snap
			}
			return nil
		})
		debug.DropMessage("STATUS", "http://"+b.server.Addr().String()+"/status")
	}
	return b, nil
}

// drive sends each epoch's records and steps until the probe passes it.
func (b *bridge) drive(cfg config.Config) []time.Duration {
	latencies := make([]time.Duration, 0, cfg.Epochs)
	var next uint64
	for e := 0; e < cfg.Epochs && !control.Stopping(); e++ {
		t := progress.Time(e)
		start := time.Now()
		for i := 0; i < cfg.RecordsPerEpoch; i++ {
			b.in.Send(next)
			next++
		}
		b.in.AdvanceTo(t + 1)
		for b.probe.LessThan(t+1) && !control.Stopping() {
			b.step()
		}
		latencies = append(latencies, time.Since(start))
		debug.DropMessage("EPOCH", utils.Itoa(e)+" "+time.Since(start).String())
	}
	return latencies
}

// step runs one scheduling step, backing off while the dataflow is quiet.
// The trace consumer follows the loop between hot-spin and its cold path.
func (b *bridge) step() {
	if b.w.Step() {
		control.SignalActivity()
	} else {
		control.PollCooldown()
	}
	hot := control.Hot()
	if b.async != nil && hot != b.async.Hot() {
		if hot {
			b.async.Wake()
		} else {
			b.async.Idle()
		}
	}
	if !hot {
		runtime.Gosched()
	}
}

func (b *bridge) report(cfg config.Config, latencies []time.Duration) error {
	st := b.op.Stats()
	debug.DropMessage("ROUNDS", utils.Utoa(st.Rounds)+" total, "+utils.Utoa(st.DataRounds)+" data, "+
		utils.Utoa(st.RecordsIn)+" records in, "+utils.Utoa(st.RecordsOut)+" out")

	sorted := slices.Clone(latencies)
	slices.Sort(sorted)
	debug.DropMessage("LATENCY", "p50 "+trace.Percentile(sorted, 50).String()+" p99 "+trace.Percentile(sorted, 99).String())

	if outstanding := b.w.Outstanding(); len(outstanding) > 0 && !control.Stopping() {
		for name, updates := range outstanding {
			debug.DropMessage("OUTSTANDING", name+" "+utils.Itoa(len(updates))+" times")
		}
	}

	if b.store == nil {
		return nil
	}
	err := b.async.Close()
	b.async = nil
	for e, l := range latencies {
		err = errors.Join(err, b.store.RecordEpoch(uint64(e), l))
	}
	err = errors.Join(err, b.store.EndRun())
	if err != nil {
		return err
	}

	totals, err := b.store.Audit(b.store.Run())
	if err != nil {
		return err
	}
	return b.audit(totals)
}

// audit checks that every ghost's internal capabilities net to zero and,
// on the simulator, that the ledger agrees with the device's own counts.
func (b *bridge) audit(totals []trace.GhostTotals) error {
	byID := make(map[int]trace.GhostTotals, len(totals))
	for _, t := range totals {
		byID[t.Ghost] = t
	}
	var err error
	for i, gi := range b.op.Ghosts() {
		t := byID[gi.ID]
		debug.DropMessage("AUDIT", "ghost "+utils.Itoa(gi.ID)+": consumed "+utils.Itoa(int(t.Consumed))+
			" produced "+utils.Itoa(int(t.Produced))+" internal "+utils.Itoa(int(t.Internal)))
		if t.Internal != 0 && !control.Stopping() {
			err = errors.Join(err, errors.New("audit: ghost "+utils.Itoa(gi.ID)+" holds "+utils.Itoa(int(t.Internal))+" capabilities"))
		}
		if b.device == nil {
			continue
		}
		d := b.device.Ledger()[i]
		if d.Consumed != t.Consumed || d.Produced != t.Produced || d.Internal != t.Internal {
			err = errors.Join(err, errors.New("audit: ghost "+utils.Itoa(gi.ID)+" ("+d.Name+") disagrees with device ledger"))
		}
	}
	return err
}

func (b *bridge) close() {
	if b.server != nil {
		if err := b.server.Close(); err != nil {
			debug.DropError("STATUS", err)
		}
	}
	if b.async != nil {
		if err := b.async.Close(); err != nil {
			debug.DropError("TRACE", err)
		}
	}
	if b.store != nil {
		if err := b.store.Close(); err != nil {
			debug.DropError("TRACE", err)
		}
	}
	if b.dev != nil {
		if err := b.dev.Close(); err != nil {
			debug.DropError("DEVICE", err)
		}
	}
}

// setupSignalHandling turns SIGINT/SIGTERM into a cooperative stop; the
// epoch loop notices between steps and the deferred closes run.
func setupSignalHandling() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		debug.DropMessage("SIGNAL", "Received interrupt, shutting down...")
		control.Shutdown()
	}()
}
