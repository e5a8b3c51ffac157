// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: debug.go — cold-path diagnostics for the bridge (zero-fmt)
//
// Purpose:
//   - Reports bootstrap, configuration and device errors without fmt.
//   - Optional exchange dumps (frontier/data/progress word streams) for
//     bringing up a new device image.
//
// Notes:
//   - All output goes through utils.PrintWarning (raw write to fd 2).
//   - DropTrace is gated by Verbose so the schedule path pays one branch.
//
// ⚠️ Never invoke DropError/DropMessage inside an exchange round.
// ─────────────────────────────────────────────────────────────────────────────

package debug

import (
	"sync/atomic"

	"fpgabridge/utils"
)

// verbose gates DropTrace. Flipped once at startup from configuration.
var verbose uint32

// SetVerbose enables or disables exchange dumps.
func SetVerbose(on bool) {
	if on {
		atomic.StoreUint32(&verbose, 1)
		return
	}
	atomic.StoreUint32(&verbose, 0)
}

// Verbose reports whether exchange dumps are enabled.
//
//go:nosplit
//go:inline
func Verbose() bool {
	return atomic.LoadUint32(&verbose) != 0
}

// DropError logs error messages with a custom alloc-free print strategy.
// With a nil error only the prefix is printed (used as a cheap tag).
//
//go:inline
//go:registerparams
func DropError(prefix string, err error) {
	if err != nil {
		utils.PrintWarning(prefix + ": " + err.Error() + "\n")
		return
	}
	utils.PrintWarning(prefix + "\n")
}

// DropMessage logs a tagged diagnostic line.
//
//go:inline
//go:registerparams
func DropMessage(prefix, message string) {
	utils.PrintWarning(prefix + ": " + message + "\n")
}

// DropTrace dumps a word stream when verbose tracing is on.
//
//go:inline
func DropTrace(prefix string, words []uint64) {
	if !Verbose() {
		return
	}
	utils.PrintWarning(prefix + ": " + utils.Words(words) + "\n")
}
