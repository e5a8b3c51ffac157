// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: constants.go — bridge tunables and default device geometry
//
// Purpose:
//   - Default cache-line geometry and batch width for the exchange region.
//   - Capacity hints for transient buffers used by the wrapper.
//
// Notes:
//   - The running layout always comes from configuration; these are the
//     values used when a config file leaves a field unset.
//
// ⚠️ No runtime logic here; all values must be compile-time resolvable
// ─────────────────────────────────────────────────────────────────────────────

package constants

// ───────────────────────────── Device Geometry ──────────────────────────────

const (
	// CacheLineWords is the device's cache line in 64-bit words.
	// 128-byte lines on the coherent interconnect = 16 words.
	CacheLineWords = 16

	// BatchWidth is the default data zone width in records.
	// One full cache line of payload per exchange.
	BatchWidth = 16

	// Banks is the default number of region copies rotated per round.
	Banks = 1

	// MaxBanks bounds the round-robin rotation of region copies.
	MaxBanks = 8

	// MaxGhosts bounds the number of hardware-resident operators per wrapper.
	MaxGhosts = 64
)

// ───────────────────────────── Buffer Capacity ──────────────────────────────

const (
	// MaxCapacity pre-sizes the wrapper's decode buffers (records).
	MaxCapacity = 8192

	// ChannelCapacity is the initial ring size of a pipeline channel.
	// Must be a power of two; channels grow when full.
	ChannelCapacity = 64
)

// ───────────────────────────── Runtime Defaults ─────────────────────────────

const (
	// Peers is the number of workers holding a default capability per output.
	Peers = 1

	// TraceFlushRounds is how many rounds the trace store buffers per transaction.
	TraceFlushRounds = 256

	// DefaultEpochs and DefaultRecordsPerEpoch drive the bootstrap benchmark loop.
	DefaultEpochs          = 16
	DefaultRecordsPerEpoch = 16
)
