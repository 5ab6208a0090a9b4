// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gogpu/lod"
	"github.com/gogpu/lod/config"
	"github.com/gogpu/lod/metrics"
	"github.com/gogpu/lod/prefs"
	"github.com/gogpu/lod/probe"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Request limits of the session endpoint.
const (
	maxRequestBytes = 1 << 20
	maxSessionAtoms = 2_000_000
	maxSessionSecs  = 3600
)

// checkSessionSize bounds the synthetic structure and simulated time of
// a session.
func checkSessionSize(atoms, seconds int) error {
	if atoms <= 0 || atoms > maxSessionAtoms {
		return fmt.Errorf("atoms must be in [1, %d], got %d", maxSessionAtoms, atoms)
	}
	if seconds < 0 || seconds > maxSessionSecs {
		return fmt.Errorf("seconds must be in [0, %d], got %d", maxSessionSecs, seconds)
	}
	return nil
}

// service exposes detection and simulated sessions over HTTP so that
// browser clients can submit their measured render reports.
type service struct {
	cfg         *config.Config
	store       *prefs.Store
	registry    *prometheus.Registry
	metrics     *metrics.Metrics
	hub         *hub
	upgrader    websocket.Upgrader
	renderDelay time.Duration
	start       time.Time
}

// newService creates a service. store may be nil.
func newService(cfg *config.Config, store *prefs.Store) (*service, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics()
	if err := m.Register(reg); err != nil {
		return nil, err
	}
	return &service{
		cfg:      cfg,
		store:    store,
		registry: reg,
		metrics:  m,
		hub:      newHub(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		start: time.Now(),
	}, nil
}

// Handler returns the HTTP routes of the service.
func (s *service) Handler() http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/health", s.handleHealth).Methods("GET")
	router.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})).Methods("GET")

	api := router.PathPrefix("/v1").Subrouter()
	api.HandleFunc("/detect", s.handleDetect).Methods("POST")
	api.HandleFunc("/sessions", s.handleSession).Methods("POST")
	api.HandleFunc("/loads", s.handleLoads).Methods("GET")
	api.HandleFunc("/events", s.handleEvents).Methods("GET")

	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			lod.Logger().Debug("lodsim: http request",
				"method", r.Method,
				"url", r.URL.String(),
				"duration", time.Since(start).String(),
				"remote_addr", r.RemoteAddr)
		})
	})
	return router
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		lod.Logger().Warn("lodsim: encode response failed", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}
	return nil
}

func (s *service) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "healthy",
		"uptime":      time.Since(s.start).Round(time.Second).String(),
		"subscribers": s.hub.len(),
		"prefs":       s.store != nil,
	})
}

func (s *service) handleDetect(w http.ResponseWriter, r *http.Request) {
	var report probe.Report
	if err := decodeJSON(w, r, &report); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, newDeviceSummary(lod.Detect(r.Context(), report)))
}

// sessionRequest is the body of POST /v1/sessions.
type sessionRequest struct {
	Report         probe.Report `json:"report"`
	StructureID    string       `json:"structure_id"`
	Atoms          int          `json:"atoms"`
	Chains         int          `json:"chains"`
	Seconds        int          `json:"seconds"`
	Quality        string       `json:"quality"`
	Target         string       `json:"target"`
	Seed           uint64       `json:"seed"`
	ThrottleAt     int          `json:"throttle_at"`
	ThrottleFactor float64      `json:"throttle_factor"`
}

type sessionResponse struct {
	*SessionReport
	Error string `json:"error,omitempty"`
}

func (s *service) handleSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := checkSessionSize(req.Atoms, req.Seconds); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	target := s.cfg.TargetStage()
	if req.Target != "" {
		t, err := lod.ParseStage(req.Target)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		target = t
	}

	sess := &Session{
		Config:      s.cfg,
		Device:      lod.Detect(r.Context(), req.Report),
		Store:       s.store,
		Metrics:     s.metrics,
		RenderDelay: s.renderDelay,
		Observers:   []lod.Observer{s.hub},
	}
	if req.Quality != "" {
		q, err := lod.ParseQualityLevel(req.Quality)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		sess.Override, sess.HasOverride = q, true
	}

	id := req.StructureID
	if id == "" {
		id = fmt.Sprintf("SIM%d", req.Atoms)
	}
	rep, err := sess.Run(r.Context(), syntheticStructure(id, req.Atoms, max(req.Chains, 1)), target, SimOptions{
		Seconds:        req.Seconds,
		ThrottleAt:     req.ThrottleAt,
		ThrottleFactor: req.ThrottleFactor,
		Seed:           req.Seed,
	})
	switch {
	case rep == nil:
		writeError(w, http.StatusInternalServerError, err)
	case err != nil:
		var stageErr *lod.StageError
		status := http.StatusInternalServerError
		if errors.As(err, &stageErr) {
			status = http.StatusBadGateway
		}
		writeJSON(w, status, sessionResponse{SessionReport: rep, Error: err.Error()})
	default:
		writeJSON(w, http.StatusOK, sessionResponse{SessionReport: rep})
	}
}

func (s *service) handleLoads(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("load history is disabled"))
		return
	}
	loads, err := s.store.Loads(r.URL.Query().Get("device"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if loads == nil {
		loads = []prefs.LoadRecord{}
	}
	writeJSON(w, http.StatusOK, loads)
}

// handleEvents streams lod events to a websocket client. The first message
// is a hello event sent once the client is subscribed.
func (s *service) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		lod.Logger().Warn("lodsim: websocket upgrade failed", "err", err)
		return
	}
	hello, _ := json.Marshal(Event{Type: EventHello, Time: time.Now()})
	c := s.hub.register(conn, hello)
	go c.writePump()

	lod.Logger().Info("lodsim: event subscriber connected", "remote_addr", r.RemoteAddr)
	defer func() {
		s.hub.unregister(c)
		lod.Logger().Info("lodsim: event subscriber disconnected", "remote_addr", r.RemoteAddr)
	}()

	// Clients only listen; reads detect the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				lod.Logger().Debug("lodsim: websocket read error", "err", err)
			}
			return
		}
	}
}
