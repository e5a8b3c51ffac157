// ════════════════════════════════════════════════════════════════════════════════════════════════
// Cache-Line Wire Codec
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Component: Tagged 64-bit word encoding shared with the device
//
// Description:
//   Frontier and data words carry a presence tag in bit 0:
//
//       encoded = value<<1 | 1        value = encoded>>1
//
//   A raw zero word is the universal "no value at this slot" sentinel. A real zero encodes to 1,
//   so absence and the value zero never collide. Values must fit in 63 bits.
//
//   Progress quadruples (consumed, produced, internal time, internal delta) travel untagged: once a
//   round completes every progress word is meaningful, and an all-zero quadruple means "nothing
//   to report" for that operator.
//
// ════════════════════════════════════════════════════════════════════════════════════════════════

package wire

import "fpgabridge/progress"

const (
	// Absent is the sentinel word for an empty slot.
	Absent uint64 = 0

	// MaxValue is the largest encodable value.
	MaxValue uint64 = 1<<63 - 1
)

// Encode tags v for the wire. v must satisfy Fits.
//
//go:nosplit
//go:inline
func Encode(v uint64) uint64 {
	return v<<1 | 1
}

// Decode strips the tag from a present word.
//
//go:nosplit
//go:inline
func Decode(w uint64) uint64 {
	return w >> 1
}

// Present reports whether w carries a value.
//
//go:nosplit
//go:inline
func Present(w uint64) bool {
	return w != Absent
}

// Tagged reports whether w is either absent or a well-formed tagged word.
//
//go:nosplit
//go:inline
func Tagged(w uint64) bool {
	return w == Absent || w&1 == 1
}

// Fits reports whether v survives the tag shift.
//
//go:nosplit
//go:inline
func Fits(v uint64) bool {
	return v>>63 == 0
}

// EncodeFrontier encodes a frontier. Under a total order the frontier has
// at most one element; an empty (closed) frontier is sent as Absent.
//
//go:inline
func EncodeFrontier(f []progress.Time) uint64 {
	if len(f) == 0 {
		return Absent
	}
	return Encode(f[0])
}

// DecodeFrontier is the inverse of EncodeFrontier.
//
//go:inline
func DecodeFrontier(w uint64) (progress.Time, bool) {
	if !Present(w) {
		return 0, false
	}
	return Decode(w), true
}

// EncodeWords tags src into dst and zero-fills the remainder of dst.
// Returns the OR of every source value so callers can check Fits once.
func EncodeWords(dst, src []uint64) (acc uint64) {
	n := copy(dst, src)
	for i := 0; i < n; i++ {
		acc |= dst[i]
		dst[i] = Encode(dst[i])
	}
	clear(dst[n:])
	return acc
}

// DecodeWords appends the values of every present word in src to dst.
func DecodeWords(dst, src []uint64) []uint64 {
	for _, w := range src {
		if Present(w) {
			dst = append(dst, Decode(w))
		}
	}
	return dst
}

// ════════════════════════════════════════════════════════════════════════════════════════════════
// Progress quadruples
// ════════════════════════════════════════════════════════════════════════════════════════════════

// QuadWords is the number of progress words per ghost operator.
const QuadWords = 4

// Quad is one ghost operator's progress report for a round.
type Quad struct {
	Consumed      int64
	Produced      int64
	InternalTime  progress.Time
	InternalDelta int64
}

// IsZero reports an all-zero quadruple: the device reported nothing.
//
//go:nosplit
//go:inline
func (q Quad) IsZero() bool {
	return q.Consumed == 0 && q.Produced == 0 && q.InternalTime == 0 && q.InternalDelta == 0
}

// Words returns the quadruple in wire order.
//
//go:inline
func (q Quad) Words() [QuadWords]uint64 {
	return [QuadWords]uint64{uint64(q.Consumed), uint64(q.Produced), q.InternalTime, uint64(q.InternalDelta)}
}

// QuadFromWords decodes a quadruple from wire order.
//
//go:inline
func QuadFromWords(w [QuadWords]uint64) Quad {
	return Quad{
		Consumed:      int64(w[0]),
		Produced:      int64(w[1]),
		InternalTime:  w[2],
		InternalDelta: int64(w[3]),
	}
}
