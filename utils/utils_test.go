package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"testing"
)

// ============================================================================
// ZERO-ALLOCATION TYPE CONVERSION TESTS
// ============================================================================

func TestB2s(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected string
	}{
		{name: "Empty slice", input: []byte{}, expected: ""},
		{name: "Nil slice", input: nil, expected: ""},
		{name: "ASCII", input: []byte("frontier"), expected: "frontier"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := B2s(tt.input); got != tt.expected {
				t.Errorf("B2s(%v) = %q, expected %q", tt.input, got, tt.expected)
			}
		})
	}
}

// ============================================================================
// INTEGER FORMATTING TESTS
// ============================================================================

func TestItoa(t *testing.T) {
	tests := []struct {
		name  string
		input int
	}{
		{"Zero", 0},
		{"Positive", 12345},
		{"Negative", -42},
		{"MaxInt", math.MaxInt},
		{"MinInt", math.MinInt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Itoa(tt.input)
			if stdResult := strconv.Itoa(tt.input); result != stdResult {
				t.Errorf("Itoa(%d) = %q, strconv.Itoa = %q", tt.input, result, stdResult)
			}
		})
	}
}

func TestUtoa_EdgeCases(t *testing.T) {
	testCases := []uint64{1, 9, 10, 99, 100, 1 << 63, math.MaxUint64}

	for _, n := range testCases {
		t.Run(fmt.Sprintf("boundary_%d", n), func(t *testing.T) {
			if result, expected := Utoa(n), strconv.FormatUint(n, 10); result != expected {
				t.Errorf("Utoa(%d) = %q, expected %q", n, result, expected)
			}
		})
	}
}

func TestItoa_ZeroAllocation(t *testing.T) {
	allocs := testing.AllocsPerRun(1000, func() {
		_ = Itoa(12345)
	})

	if allocs > 1 { // Allow one allocation for string creation
		t.Errorf("Itoa() should minimize allocations: %f allocs/op", allocs)
	}
}

func TestWords(t *testing.T) {
	if got := Words(nil); got != "" {
		t.Errorf("Words(nil) = %q, want empty", got)
	}
	if got := Words([]uint64{0, 11, 3}); got != "0 11 3" {
		t.Errorf("Words = %q, want %q", got, "0 11 3")
	}
}

// ============================================================================
// DIRECT OUTPUT TESTS
// ============================================================================

func TestPrintWarning(t *testing.T) {
	// Does not capture stderr; verifies the raw write path does not panic.
	testCases := []string{
		"",
		"Warning: test message\n",
		strings.Repeat("Long message ", 100) + "\n",
	}

	for _, msg := range testCases {
		t.Run(fmt.Sprintf("message_len_%d", len(msg)), func(t *testing.T) {
			PrintWarning(msg)
		})
	}
}

func TestPrintWarning_ZeroAllocation(t *testing.T) {
	msg := "Test warning message\n"

	allocs := testing.AllocsPerRun(100, func() {
		PrintWarning(msg)
	})

	if allocs > 0 {
		t.Errorf("PrintWarning() allocated memory: %f allocs/op", allocs)
	}
}
