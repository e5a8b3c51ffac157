package status

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

type view struct {
	Steps uint64 `json:"steps"`
}

func TestHandlerEncodesSnapshot(t *testing.T) {
	h := Handler(func() any { return view{Steps: 12} })
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"steps":12}` {
		t.Fatalf("body = %q", got)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content type %q", ct)
	}
}

func TestHandlerStatusCodes(t *testing.T) {
	tests := []struct {
		name   string
		method string
		snap   any
		want   int
	}{
		{"no snapshot", http.MethodGet, nil, http.StatusServiceUnavailable},
		{"post", http.MethodPost, view{}, http.StatusMethodNotAllowed},
		{"head", http.MethodHead, view{}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := Handler(func() any { return tt.snap })
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(tt.method, "/status", nil))
			if rec.Code != tt.want {
				t.Fatalf("code = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestServeOverReusableListener(t *testing.T) {
	ln, err := Listen("127.0.0.1:0")
	if err != nil {
		t.Skipf("reuseport listener unavailable: %v", err)
	}
	var steps atomic.Uint64
	s := Serve(ln, func() any { return view{Steps: steps.Add(1)} })
	defer s.Close()

	resp, err := http.Get("http://" + s.Addr().String() + "/status")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), `"steps":1`) {
		t.Fatalf("status %d body %q", resp.StatusCode, body)
	}

	resp, err = http.Get("http://" + s.Addr().String() + "/missing")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown path returned %d", resp.StatusCode)
	}
}

func TestCloseStopsServing(t *testing.T) {
	ln, err := Listen("127.0.0.1:0")
	if err != nil {
		t.Skipf("reuseport listener unavailable: %v", err)
	}
	s := Serve(ln, func() any { return view{} })
	addr := s.Addr().String()
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := http.Get("http://" + addr + "/status"); err == nil {
		t.Fatal("server still answering after Close")
	}
}
