//go:build nofpga

package hardware

// SoftwareDevice reports whether this build boots the simulated device.
const SoftwareDevice = true

// Boot builds a heap region driven by cfg.Simulator.
func Boot(cfg Config) (*Common, error) {
	if cfg.Simulator == nil {
		return nil, ErrNoResponder
	}
	return NewSimulated(cfg.Layout, cfg.Simulator(cfg.Layout)), nil
}
