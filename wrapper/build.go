package wrapper

import (
	"fpgabridge/dataflow"
	"fpgabridge/ghost"
	"fpgabridge/hardware"
	"fpgabridge/worker"
)

// Build places one ghost per name behind a bridge over region and returns
// the bridge's output stream.
func Build(w *worker.Worker, in worker.Stream, region *hardware.Region, names []string, cfg Config) (*Operator, worker.Stream) {
	if cfg.Peers == 0 {
		cfg.Peers = w.Peers()
	}
	ghosts := make([]dataflow.Operator, len(names))
	for i, name := range names {
		ghosts[i] = ghost.New(name, append(append([]int(nil), cfg.Path...), i), cfg.Peers)
	}
	var op *Operator
	out := w.AddHardware(in, ghosts, func(pull *dataflow.PullCounter, push *dataflow.PushBuffer, ids []int) dataflow.Operator {
		index := make([]GhostIndex, len(ids))
		for i, id := range ids {
			index[i] = GhostIndex{Port: 0, ID: id}
		}
		op = New(region, index, pull, push, cfg)
		return op
	})
	return op, out
}
