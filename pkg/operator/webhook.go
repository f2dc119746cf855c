package operator

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// syncFn is the shape every CR variant's HandleSync method satisfies: decode
// the envelope, decide, return the reply half. It exists so SyncServer can
// dispatch by path without a type switch over closed OperatorTarget
// variants, per §9's design note.
type syncFn func(ctx context.Context, req SyncRequest) (SyncResponse, error)

// SyncServer is the meta-controller composite-controller sync webhook (§6):
// one HTTP endpoint per OperatorTarget variant, sharing a single
// decode/decide/encode shape: a small struct wrapping a logger, handing out
// http.HandlerFunc closures from a dispatch table rather than a bare mux
// with inline bodies.
type SyncServer struct {
	logger log.Logger
	routes map[string]syncFn
}

// NewSyncServer builds a SyncServer with no routes registered; call Handle
// for each OperatorTarget variant before calling Mux.
func NewSyncServer(logger log.Logger) *SyncServer {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &SyncServer{logger: logger, routes: map[string]syncFn{}}
}

// Handle registers one variant's sync function under path, e.g.
// "/sync/crawljob", "/sync/profilejob", "/sync/collindex".
func (s *SyncServer) Handle(path string, fn syncFn) {
	s.routes[path] = fn
}

// Mux returns an http.Handler serving every registered route plus a 404 for
// anything else — metacontroller is configured with one full URL per
// CustomResourceDefinition, so an unknown path always indicates
// misconfiguration rather than a request worth retrying.
func (s *SyncServer) Mux() http.Handler {
	mux := http.NewServeMux()
	for path, fn := range s.routes {
		mux.Handle(path, s.serveSync(fn))
	}
	return mux
}

func (s *SyncServer) serveSync(fn syncFn) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		level.Debug(s.logger).Log("msg", "sync webhook called", "path", r.URL.Path, "method", r.Method)

		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			level.Error(s.logger).Log("msg", "read sync request body", "err", err)
			http.Error(w, "read request body", http.StatusBadRequest)
			return
		}

		var req SyncRequest
		if err := json.Unmarshal(body, &req); err != nil {
			level.Error(s.logger).Log("msg", "decode sync request", "err", err)
			http.Error(w, "decode request", http.StatusBadRequest)
			return
		}

		resp, err := fn(r.Context(), req)
		if err != nil {
			level.Error(s.logger).Log("msg", "sync reconcile failed", "path", r.URL.Path, "err", err)
			http.Error(w, "reconcile failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			level.Error(s.logger).Log("msg", "encode sync response", "err", err)
		}
	}
}
