//go:build !linux

package hardware

import "fpgabridge/wire"

// Open is unavailable off Linux.
func Open(path string, offset int64, layout wire.Layout) (*Common, error) {
	return nil, ErrUnsupported
}

func unmap(b []byte) error { return nil }
