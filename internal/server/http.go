package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/morezero/wallet-dapp/pkg/dispatcher"
	"github.com/morezero/wallet-dapp/pkg/router"
)

const httpLogPrefix = "server:http"

// HealthChecks reports the state of each dependency. Database is omitted
// when the ledger is in-memory.
type HealthChecks struct {
	Comms    bool  `json:"comms"`
	Database *bool `json:"database,omitempty"`
}

// HealthOutput is the /health response body.
type HealthOutput struct {
	Status    string       `json:"status"`
	Name      string       `json:"name"`
	Version   string       `json:"version"`
	Accounts  int          `json:"accounts"`
	Checks    HealthChecks `json:"checks"`
	Timestamp string       `json:"timestamp"`
}

// Health checks the COMMS connection and, when configured, the database.
func (s *Server) Health(ctx context.Context) *HealthOutput {
	h := &HealthOutput{
		Status:    "healthy",
		Name:      s.manifest.Name,
		Version:   s.manifest.Version,
		Accounts:  s.wallet.Accounts(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	h.Checks.Comms = s.nc != nil && s.nc.IsConnected()
	if s.store != nil {
		ok := s.store.Ping(ctx) == nil
		h.Checks.Database = &ok
		if !ok {
			h.Status = "unhealthy"
		}
	}
	if !h.Checks.Comms {
		h.Status = "unhealthy"
	}
	return h
}

// Handler returns the HTTP mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth())
	mux.HandleFunc("/ready", s.handleReady())
	mux.HandleFunc("/connection", s.handleConnection())
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /inspect/balance/{address}", s.handleBalance())
	return mux
}

func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), s.cfg.HealthCheckTimeout)
		defer cancel()
		h := s.Health(ctx)
		status := http.StatusOK
		if h.Status != "healthy" {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, h)
	}
}

func (s *Server) handleReady() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.ready.Load() {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "starting"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// handleConnection tells clients where to send inputs and listen for outputs.
func (s *Server) handleConnection() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		url := s.cfg.CommsClientURL
		if url == "" {
			url = s.cfg.COMMSURL
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"commsUrl":        url,
			"subjects":        s.subjects,
			"envelopeVersion": dispatcher.EnvelopeVersion,
		})
	}
}

// handleBalance runs a balance inspect through the input queue.
func (s *Server) handleBalance() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account, err := json.Marshal(r.PathValue("address"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		resp, err := s.submit(r.Context(), &dispatcher.InputRequest{
			Type:      dispatcher.InputInspect,
			Operation: string(router.OpBalance),
			Request:   account,
		})
		if err != nil {
			slog.Warn(fmt.Sprintf("%s - balance inspect: %v", httpLogPrefix, err))
			http.Error(w, "service unavailable", http.StatusServiceUnavailable)
			return
		}
		status := http.StatusOK
		if resp.Status != dispatcher.StatusAccept {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, resp)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error(fmt.Sprintf("%s - encode response: %v", httpLogPrefix, err))
	}
}
