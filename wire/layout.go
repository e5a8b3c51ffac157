package wire

import (
	"errors"

	"fpgabridge/constants"
	"fpgabridge/utils"
)

// Zone names one region of the exchange area.
type Zone uint8

const (
	FrontierZone Zone = iota // one tagged word per ghost operator
	DataZone                 // BatchWidth tagged data words
	ProgressZone             // QuadWords untagged words per ghost operator
	zoneCount
)

// String names the zone for diagnostics.
func (z Zone) String() string {
	switch z {
	case FrontierZone:
		return "frontier"
	case DataZone:
		return "data"
	case ProgressZone:
		return "progress"
	}
	return "zone(" + utils.Itoa(int(z)) + ")"
}

// Layout is the static partition of the exchange region for one device
// configuration. Zones are laid out back to back, each rounded up to whole
// cache lines:
//
//	[frontier: Ghosts] [data: BatchWidth] [progress: 4*Ghosts]
//
// With Banks > 1 the region holds that many copies at BankStride words
// apart, used round-robin so consecutive rounds hit different lines.
//
// Every offset is computed once by NewLayout.
type Layout struct {
	Ghosts         int
	BatchWidth     int
	CacheLineWords int
	Banks          int

	base [zoneCount]int
	size [zoneCount]int
	used [zoneCount]int
	word int
}

var (
	ErrGhosts     = errors.New("wire: ghost count out of range")
	ErrBatchWidth = errors.New("wire: batch width must be positive")
	ErrLine       = errors.New("wire: cache line words must be a positive power of two")
	ErrBanks      = errors.New("wire: bank count out of range")
)

// NewLayout computes the zone offsets for a configuration.
func NewLayout(ghosts, batchWidth, cacheLineWords, banks int) (Layout, error) {
	switch {
	case ghosts <= 0 || ghosts > constants.MaxGhosts:
		return Layout{}, ErrGhosts
	case batchWidth <= 0:
		return Layout{}, ErrBatchWidth
	case cacheLineWords <= 0 || cacheLineWords&(cacheLineWords-1) != 0:
		return Layout{}, ErrLine
	case banks <= 0 || banks > constants.MaxBanks:
		return Layout{}, ErrBanks
	}

	l := Layout{Ghosts: ghosts, BatchWidth: batchWidth, CacheLineWords: cacheLineWords, Banks: banks}
	l.used = [zoneCount]int{ghosts, batchWidth, QuadWords * ghosts}
	off := 0
	for z := Zone(0); z < zoneCount; z++ {
		l.base[z] = off
		l.size[z] = roundUp(l.used[z], cacheLineWords)
		off += l.size[z]
	}
	l.word = off
	return l, nil
}

// MustLayout is NewLayout for static configurations; it panics on error.
func MustLayout(ghosts, batchWidth, cacheLineWords, banks int) Layout {
	l, err := NewLayout(ghosts, batchWidth, cacheLineWords, banks)
	if err != nil {
		panic(err)
	}
	return l
}

//go:nosplit
//go:inline
func roundUp(n, line int) int {
	return (n + line - 1) &^ (line - 1)
}

// Base is the first word of zone z within a bank.
//
//go:inline
func (l Layout) Base(z Zone) int { return l.base[z] }

// Size is the cache-line rounded length of zone z in words.
//
//go:inline
func (l Layout) Size(z Zone) int { return l.size[z] }

// Used is the number of meaningful words in zone z (the rest is padding).
//
//go:inline
func (l Layout) Used(z Zone) int { return l.used[z] }

// Offset is the word index of slot i of zone z within a bank.
//
//go:inline
func (l Layout) Offset(z Zone, i int) int { return l.base[z] + i }

// Words is the length of one bank in words.
//
//go:inline
func (l Layout) Words() int { return l.word }

// BankStride is the distance in words between bank copies.
//
//go:inline
func (l Layout) BankStride() int { return l.word }

// TotalWords is the whole region across banks.
//
//go:inline
func (l Layout) TotalWords() int { return l.word * l.Banks }

// Lines is the number of cache lines in zone z.
//
//go:inline
func (l Layout) Lines(z Zone) int { return l.size[z] / l.CacheLineWords }

// ProgressOffset is the zone-relative index of word k of ghost g's quadruple.
//
//go:inline
func (l Layout) ProgressOffset(g, k int) int { return QuadWords*g + k }
