//go:build linux

package hardware

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"fpgabridge/wire"
)

// Open maps layout.TotalWords() words of the device file at path starting
// at byte offset. The offset must be page aligned.
func Open(path string, offset int64, layout wire.Layout) (*Common, error) {
	if offset%int64(os.Getpagesize()) != 0 {
		return nil, fmt.Errorf("hardware: offset %d is not page aligned", offset)
	}
	f, err := os.OpenFile(path, os.O_RDWR|unix.O_SYNC, 0)
	if err != nil {
		return nil, fmt.Errorf("hardware: open %s: %w", path, err)
	}
	size := layout.TotalWords() * 8
	b, err := unix.Mmap(int(f.Fd()), offset, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("hardware: mmap %s: %w", path, err)
	}
	return &Common{
		region:  newRegion(wordsOf(b), layout, nil),
		mapping: b,
		file:    f,
		name:    path,
	}, nil
}

func unmap(b []byte) error {
	return unix.Munmap(b)
}
