// ════════════════════════════════════════════════════════════════════════════════════════════════
// Shared Exchange Region
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Component: Word accessor over the device's cache-line mapped memory
//
// Description:
//   Region is the only code that turns raw memory into uint64 words. Every access is a 64-bit
//   atomic load or store so the compiler can neither tear, reorder, nor elide a word the device
//   is watching. Barrier issues a full sequentially consistent fence; Commit closes one exchange.
//
// Memory contract:
//   - Exactly one software thread touches a region (the worker running the wrapper)
//   - The device completes its side of an exchange within the coherence window of Commit
//   - No acknowledgement word, no polling, no timeout
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package hardware

import (
	"sync/atomic"
	"unsafe"

	"fpgabridge/utils"
	"fpgabridge/wire"
)

// Responder computes a software device's side of one exchange. It runs
// inside Commit, between the closing fences, and may read and write any
// word of the committed bank.
type Responder interface {
	Respond(r *Region, bank int)
}

// Region is a fixed-layout view of exchange memory.
type Region struct {
	words  []uint64
	layout wire.Layout

	//lint:ignore U1000 keeps the fence word off the data lines
	_pad  [64]byte
	fence uint64

	responder Responder
	commits   uint64
}

// newRegion wraps backing memory. The slice must cover layout.TotalWords().
func newRegion(words []uint64, layout wire.Layout, responder Responder) *Region {
	if len(words) < layout.TotalWords() {
		panic("hardware: region smaller than layout (" + utils.Itoa(len(words)) + " < " + utils.Itoa(layout.TotalWords()) + " words)")
	}
	return &Region{words: words[:layout.TotalWords()], layout: layout, responder: responder}
}

// wordsOf reinterprets a byte mapping as 64-bit words.
func wordsOf(b []byte) []uint64 {
	if len(b) < 8 {
		return nil
	}
	if uintptr(unsafe.Pointer(unsafe.SliceData(b)))&7 != 0 {
		panic("hardware: mapping not word aligned")
	}
	return unsafe.Slice((*uint64)(unsafe.Pointer(unsafe.SliceData(b))), len(b)/8)
}

// alignedWords allocates n words starting on a 64-byte boundary.
func alignedWords(n int) []uint64 {
	const lineWords = 8
	raw := make([]uint64, n+lineWords)
	off := int(uintptr(unsafe.Pointer(&raw[0]))&63) / 8
	if off != 0 {
		off = lineWords - off
	}
	return raw[off : off+n : off+n]
}

// Layout returns the region's static partition.
//
//go:inline
func (r *Region) Layout() *wire.Layout {
	return &r.layout
}

// index resolves (bank, zone, i) to a word index, panicking out of range.
//
//go:inline
func (r *Region) index(bank int, z wire.Zone, i int) int {
	if uint(bank) >= uint(r.layout.Banks) || uint(i) >= uint(r.layout.Size(z)) {
		panic("hardware: word " + utils.Itoa(i) + " of " + z.String() + " zone in bank " + utils.Itoa(bank) + " out of range")
	}
	return bank*r.layout.BankStride() + r.layout.Offset(z, i)
}

// ReadWord loads slot i of zone z in bank.
//
//go:inline
func (r *Region) ReadWord(bank int, z wire.Zone, i int) uint64 {
	return atomic.LoadUint64(&r.words[r.index(bank, z, i)])
}

// WriteWord stores v into slot i of zone z in bank.
//
//go:inline
func (r *Region) WriteWord(bank int, z wire.Zone, i int, v uint64) {
	atomic.StoreUint64(&r.words[r.index(bank, z, i)], v)
}

// WriteLine stores one cache line of zone z. src shorter than a line is
// zero padded.
func (r *Region) WriteLine(bank int, z wire.Zone, line int, src []uint64) {
	lw := r.layout.CacheLineWords
	if len(src) > lw {
		panic("hardware: line source wider than a cache line")
	}
	base := r.index(bank, z, line*lw)
	dst := r.words[base : base+lw]
	for i := range dst {
		var v uint64
		if i < len(src) {
			v = src[i]
		}
		atomic.StoreUint64(&dst[i], v)
	}
}

// ReadZone appends the meaningful words of zone z (padding excluded) to dst[:0].
func (r *Region) ReadZone(bank int, z wire.Zone, dst []uint64) []uint64 {
	n := r.layout.Used(z)
	dst = dst[:0]
	if n == 0 {
		return dst
	}
	base := r.index(bank, z, 0)
	for i := base; i < base+n; i++ {
		dst = append(dst, atomic.LoadUint64(&r.words[i]))
	}
	return dst
}

// ZeroZone clears every word of zone z, padding included.
func (r *Region) ZeroZone(bank int, z wire.Zone) {
	base := r.index(bank, z, 0)
	for i := base; i < base+r.layout.Size(z); i++ {
		atomic.StoreUint64(&r.words[i], 0)
	}
}

// Barrier is a full fence. sync/atomic has no standalone fence, so this is
// a locked read-modify-write on a private word.
//
//go:nosplit
//go:inline
func (r *Region) Barrier() {
	atomic.AddUint64(&r.fence, 1)
}

// Commit closes the exchange on bank. Any load after Commit observes the
// device's results for the stores before it.
func (r *Region) Commit(bank int) {
	r.Barrier()
	if r.responder != nil {
		r.responder.Respond(r, bank)
		r.Barrier()
	}
	r.commits++
}

// Commits is the number of exchanges closed so far.
//
//go:inline
func (r *Region) Commits() uint64 {
	return r.commits
}
