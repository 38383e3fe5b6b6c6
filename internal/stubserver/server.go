// Package stubserver is a deterministic HTTP target for exercising a load run
// without a real backend. It serves the page endpoints the default targets
// point at, with configurable status, latency and failure pattern.
package stubserver

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"
)

// Paths served by the stub. Any other path returns 404.
var Paths = []string{
	"/api/test/applications",
	"/api/test/issues",
	"/api/test/applicants",
}

// Options configure the handler.
type Options struct {
	Status    int           // response status; 0 means 200
	Latency   time.Duration // delay before the status is written
	FailEvery int           // if > 0, every FailEvery-th request answers 500
}

// Stats are counters observed by a Handler.
type Stats struct {
	Requests    int64
	MaxInFlight int64
}

// Handler serves the stub endpoints and records how it was exercised.
type Handler struct {
	opts Options
	mux  *http.ServeMux

	requests    atomic.Int64
	inFlight    atomic.Int64
	maxInFlight atomic.Int64
}

// New returns a Handler for opts.
func New(opts Options) *Handler {
	if opts.Status == 0 {
		opts.Status = http.StatusOK
	}
	h := &Handler{opts: opts, mux: http.NewServeMux()}
	for _, path := range Paths {
		h.mux.HandleFunc(path, h.handlePage)
	}
	h.mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) handlePage(w http.ResponseWriter, r *http.Request) {
	n := h.requests.Add(1)
	current := h.inFlight.Add(1)
	defer h.inFlight.Add(-1)
	for {
		seen := h.maxInFlight.Load()
		if current <= seen || h.maxInFlight.CompareAndSwap(seen, current) {
			break
		}
	}

	if r.Method != http.MethodGet {
		respondJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		return
	}

	if h.opts.Latency > 0 {
		timer := time.NewTimer(h.opts.Latency)
		select {
		case <-timer.C:
		case <-r.Context().Done():
			timer.Stop()
			return
		}
	}

	status := h.opts.Status
	if h.opts.FailEvery > 0 && n%int64(h.opts.FailEvery) == 0 {
		status = http.StatusInternalServerError
	}

	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil {
		page = 0
	}
	respondJSON(w, status, map[string]any{
		"path": r.URL.Path,
		"page": page,
	})
}

// Stats returns the counters observed so far.
func (h *Handler) Stats() Stats {
	return Stats{
		Requests:    h.requests.Load(),
		MaxInFlight: h.maxInFlight.Load(),
	}
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
