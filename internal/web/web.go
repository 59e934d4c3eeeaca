package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"roomops/internal/config"
	"roomops/internal/ics"
	appLog "roomops/internal/log"
	"roomops/internal/ops"
	"roomops/internal/schedule"
)

// RunFunc triggers one scrape-and-generate run.
type RunFunc func(ctx context.Context) (*ops.Snapshot, error)

// Server exposes the latest schedule over HTTP.
type Server struct {
	cfg    *config.Config
	latest *ops.Latest
	run    RunFunc
	mux    *http.ServeMux

	// icsCache holds the serialized feed of the snapshot it was built from.
	icsMu    sync.Mutex
	icsCache *icsCache
}

type icsCache struct {
	snap *ops.Snapshot
	body []byte
}

// NewServer constructs a new Server. run may be nil, in which case
// /api/run answers 503.
func NewServer(cfg *config.Config, latest *ops.Latest, run RunFunc) *Server {
	s := &Server{
		cfg:    cfg,
		latest: latest,
		run:    run,
		mux:    http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="roomops", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Serve runs the HTTP server until ctx is canceled, then shuts it down.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/schedule", s.handleSchedule)
	s.mux.HandleFunc("/api/run", s.handleRun)
	s.mux.HandleFunc("/schedule.ics", s.handleICS)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// scheduleResponse is the JSON response shape for /api/schedule.
type scheduleResponse struct {
	Day    string          `json:"day"`
	Slots  []schedule.Slot `json:"slots"`
	Report ops.Report      `json:"report"`
	Error  string          `json:"error,omitempty"`
}

// handleSchedule returns the latest run.
//
// GET /api/schedule?all=1
//   - all: include empty slots (default: only slots with tasks)
func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	snap := s.latest.Get()
	if snap == nil {
		writeError(w, http.StatusNotFound, "no run has completed yet")
		return
	}
	writeJSON(w, http.StatusOK, newScheduleResponse(snap, r.URL.Query().Get("all") == "1"))
}

func newScheduleResponse(snap *ops.Snapshot, all bool) scheduleResponse {
	slots := snap.Store.Slots()
	if !all {
		kept := make([]schedule.Slot, 0, len(slots))
		for _, sl := range slots {
			if len(sl.Tasks) > 0 {
				kept = append(kept, sl)
			}
		}
		slots = kept
	}
	resp := scheduleResponse{
		Day:    snap.Day.Format("2006-01-02"),
		Slots:  slots,
		Report: snap.Report,
	}
	if snap.Err != nil {
		resp.Error = snap.Err.Error()
	}
	return resp
}

// handleRun triggers a run synchronously and returns its schedule.
//
// POST /api/run
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.run == nil {
		writeError(w, http.StatusServiceUnavailable, "runs are not enabled")
		return
	}

	appLog.Info("api run requested", "remote", r.RemoteAddr)
	snap, err := s.run(r.Context())
	if snap == nil {
		appLog.Error("api run failed", err)
		writeError(w, http.StatusBadGateway, "run failed")
		return
	}
	status := http.StatusOK
	if err != nil {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, newScheduleResponse(snap, false))
}

// handleICS serves the latest schedule as an iCalendar feed.
func (s *Server) handleICS(w http.ResponseWriter, _ *http.Request) {
	snap := s.latest.Get()
	if snap == nil {
		http.Error(w, "no run has completed yet", http.StatusNotFound)
		return
	}

	s.icsMu.Lock()
	defer s.icsMu.Unlock()
	if s.icsCache == nil || s.icsCache.snap != snap {
		body, err := ics.Export(snap.Store, snap.Day)
		if err != nil {
			appLog.Error("ics export failed", err)
			http.Error(w, "failed to export schedule", http.StatusInternalServerError)
			return
		}
		s.icsCache = &icsCache{snap: snap, body: body}
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(s.icsCache.body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
