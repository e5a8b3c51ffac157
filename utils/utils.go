package utils

import (
	"syscall"
	"unsafe"
)

///////////////////////////////////////////////////////////////////////////////
// Conversion Utilities — Zero-Alloc Casts
///////////////////////////////////////////////////////////////////////////////

// B2s converts a []byte to a string **without** allocation.
// ⚠️ Caller must ensure the input slice remains valid and unchanged.
//
//go:nosplit
//go:inline
func B2s(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(&b[0], len(b))
}

///////////////////////////////////////////////////////////////////////////////
// Integer Formatting — Stack Buffers Only
///////////////////////////////////////////////////////////////////////////////

// Itoa formats a signed integer in base 10.
// Used by cold-path diagnostics that avoid fmt.
func Itoa(n int) string {
	if n >= 0 {
		return Utoa(uint64(n))
	}
	return "-" + Utoa(uint64(-n))
}

// Utoa formats an unsigned 64-bit integer in base 10.
func Utoa(u uint64) string {
	if u == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for u > 0 {
		i--
		buf[i] = byte('0' + u%10)
		u /= 10
	}
	return string(buf[i:])
}

// Words formats a word stream as space separated decimals, used by
// exchange dumps when verbose tracing is on.
func Words(w []uint64) string {
	if len(w) == 0 {
		return ""
	}
	out := make([]byte, 0, len(w)*4)
	for i, v := range w {
		if i > 0 {
			out = append(out, ' ')
		}
		out = append(out, Utoa(v)...)
	}
	return B2s(out)
}

///////////////////////////////////////////////////////////////////////////////
// Direct stderr output
///////////////////////////////////////////////////////////////////////////////

// PrintWarning writes msg straight to fd 2 through a raw write(2).
// No buffering, no formatting, no heap traffic on the caller's behalf.
//
//go:inline
func PrintWarning(msg string) {
	if len(msg) == 0 {
		return
	}
	_, _ = syscall.Write(2, unsafe.Slice(unsafe.StringData(msg), len(msg)))
}
