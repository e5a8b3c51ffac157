package hardware

import (
	"errors"
	"os"

	"fpgabridge/wire"
)

// Common is the handle to one device's exchange region. Bootstrap creates
// and closes it; operators only borrow the Region.
type Common struct {
	region  *Region
	mapping []byte
	file    *os.File
	name    string
}

var (
	ErrClosed      = errors.New("hardware: device already closed")
	ErrNoResponder = errors.New("hardware: simulated device needs a responder")
	ErrUnsupported = errors.New("hardware: memory-mapped devices are only supported on linux")
)

// NewSimulated backs a region with cache-line aligned heap memory whose
// Commit runs responder.
func NewSimulated(layout wire.Layout, responder Responder) *Common {
	if responder == nil {
		panic(ErrNoResponder)
	}
	return &Common{
		region: newRegion(alignedWords(layout.TotalWords()), layout, responder),
		name:   "simulated",
	}
}

// Region returns the exchange region.
//
//go:inline
func (c *Common) Region() *Region {
	return c.region
}

// Layout returns the region's layout.
//
//go:inline
func (c *Common) Layout() wire.Layout {
	return c.region.layout
}

// Simulated reports whether a software responder backs the region.
func (c *Common) Simulated() bool {
	return c.mapping == nil
}

// Name is the device path, or "simulated".
func (c *Common) Name() string {
	return c.name
}

// Close releases the mapping. The region must not be used afterwards.
func (c *Common) Close() error {
	if c.region == nil {
		return ErrClosed
	}
	var err error
	if c.mapping != nil {
		err = unmap(c.mapping)
		c.mapping = nil
	}
	if c.file != nil {
		if cerr := c.file.Close(); err == nil {
			err = cerr
		}
		c.file = nil
	}
	c.region = nil
	return err
}
