// status.go — read-only HTTP view of the running bridge
//
// One GET endpoint per process serves the latest snapshot as JSON. The
// listener sets SO_REUSEPORT so several worker processes on one host can
// bind the same port.

package status

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	reuse "github.com/portmapping/go-reuse"
	"github.com/sugawarayuuta/sonnet"

	"fpgabridge/debug"
)

// Listen binds a reusable TCP listener on addr.
func Listen(addr string) (net.Listener, error) {
	return reuse.Listen("tcp", addr)
}

// Server serves snapshots until Close.
type Server struct {
	http *http.Server
	ln   net.Listener
	done chan struct{}
}

// Handler encodes snapshot() on every request. A nil snapshot is 503.
func Handler(snapshot func() any) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		v := snapshot()
		if v == nil {
			http.Error(w, "no snapshot yet", http.StatusServiceUnavailable)
			return
		}
		body, err := sonnet.Marshal(v)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(body)
	})
}

// Serve starts serving on ln in the background.
func Serve(ln net.Listener, snapshot func() any) *Server {
	mux := http.NewServeMux()
	mux.Handle("/status", Handler(snapshot))
	s := &Server{
		http: &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second},
		ln:   ln,
		done: make(chan struct{}),
	}
	go func() {
		defer close(s.done)
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			debug.DropError("STATUS", err)
		}
	}()
	return s
}

// Addr is the bound address.
func (s *Server) Addr() net.Addr { return s.ln.Addr() }

// Close drains in-flight requests and stops the server.
func (s *Server) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := s.http.Shutdown(ctx)
	<-s.done
	return err
}
