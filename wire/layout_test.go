package wire

import "testing"

func TestLayoutOffsets(t *testing.T) {
	tests := []struct {
		name                        string
		ghosts, width, line, banks  int
		frontier, data, prog, words int
	}{
		{"four ghosts one line", 4, 16, 16, 1, 16, 16, 16, 48},
		{"eight ghosts", 8, 16, 16, 1, 16, 16, 32, 64},
		{"wide batch", 1, 20, 16, 2, 16, 32, 16, 64},
		{"eight word lines", 3, 8, 8, 1, 8, 8, 16, 32},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := MustLayout(tt.ghosts, tt.width, tt.line, tt.banks)
			if l.Size(FrontierZone) != tt.frontier || l.Size(DataZone) != tt.data || l.Size(ProgressZone) != tt.prog {
				t.Fatalf("sizes = %d/%d/%d", l.Size(FrontierZone), l.Size(DataZone), l.Size(ProgressZone))
			}
			if l.Base(FrontierZone) != 0 || l.Base(DataZone) != tt.frontier || l.Base(ProgressZone) != tt.frontier+tt.data {
				t.Fatalf("bases = %d/%d/%d", l.Base(FrontierZone), l.Base(DataZone), l.Base(ProgressZone))
			}
			if l.Words() != tt.words || l.BankStride() != tt.words || l.TotalWords() != tt.words*tt.banks {
				t.Fatalf("words = %d stride = %d total = %d", l.Words(), l.BankStride(), l.TotalWords())
			}
			for z := Zone(0); z < zoneCount; z++ {
				if l.Base(z)%tt.line != 0 {
					t.Fatalf("%s zone not line aligned", z)
				}
				if l.Lines(z)*tt.line != l.Size(z) {
					t.Fatalf("%s zone lines = %d", z, l.Lines(z))
				}
			}
			if l.Used(ProgressZone) != QuadWords*tt.ghosts {
				t.Fatalf("progress used = %d", l.Used(ProgressZone))
			}
		})
	}
}

func TestLayoutRejects(t *testing.T) {
	tests := []struct {
		name                       string
		ghosts, width, line, banks int
		err                        error
	}{
		{"no ghosts", 0, 16, 16, 1, ErrGhosts},
		{"too many ghosts", 1000, 16, 16, 1, ErrGhosts},
		{"no width", 1, 0, 16, 1, ErrBatchWidth},
		{"odd line", 1, 16, 12, 1, ErrLine},
		{"no banks", 1, 16, 16, 0, ErrBanks},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewLayout(tt.ghosts, tt.width, tt.line, tt.banks); err != tt.err {
				t.Fatalf("err = %v, want %v", err, tt.err)
			}
		})
	}
}

func TestMustLayoutPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("MustLayout accepted a zero line width")
		}
	}()
	MustLayout(1, 1, 0, 1)
}

func TestProgressOffset(t *testing.T) {
	l := MustLayout(4, 16, 16, 1)
	if l.ProgressOffset(2, 3) != 11 {
		t.Fatalf("ProgressOffset(2,3) = %d", l.ProgressOffset(2, 3))
	}
	if FrontierZone.String() != "frontier" || Zone(7).String() != "zone(7)" {
		t.Fatal("zone names wrong")
	}
}

// TestAccessorsOnReturnedValue reads geometry straight off a returned
// Layout, the way callers holding a copy do.
func TestAccessorsOnReturnedValue(t *testing.T) {
	if got := MustLayout(4, 16, 16, 2).TotalWords(); got != 2*(16+16+16) {
		t.Fatalf("TotalWords = %d", got)
	}
	if got := MustLayout(3, 20, 16, 1).Lines(DataZone); got != 2 {
		t.Fatalf("Lines(data) = %d", got)
	}
	if got := MustLayout(1, 1, 8, 1).Base(ProgressZone); got != 16 {
		t.Fatalf("Base(progress) = %d", got)
	}
}
