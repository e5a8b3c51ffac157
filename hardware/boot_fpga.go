//go:build !nofpga

package hardware

// SoftwareDevice reports whether this build boots the simulated device.
const SoftwareDevice = false

// Boot maps the device file named by cfg.
func Boot(cfg Config) (*Common, error) {
	return Open(cfg.Path, cfg.Offset, cfg.Layout)
}
