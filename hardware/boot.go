package hardware

import "fpgabridge/wire"

// Config selects and shapes the device at bootstrap.
type Config struct {
	Layout wire.Layout
	Path   string // device file for mapped builds
	Offset int64  // byte offset of the exchange region

	// Simulator builds the software device for nofpga builds. Ignored by
	// mapped builds.
	Simulator func(layout wire.Layout) Responder
}
