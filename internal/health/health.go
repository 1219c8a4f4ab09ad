// Package health provides the /healthz endpoint.
package health

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// Response is the JSON body returned by /healthz.
type Response struct {
	Status        string   `json:"status"`
	Version       string   `json:"version"`
	Drivers       []string `json:"drivers"`
	PoMIEnabled   bool     `json:"pomi_enabled"`
	TimingEnabled bool     `json:"timing_enabled"`
	UptimeSeconds int64    `json:"uptime_seconds"`
}

// Handler serves the /healthz endpoint.
type Handler struct {
	version       string
	drivers       []string
	pomiEnabled   bool
	timingEnabled bool
	startTime     time.Time
}

// NewHandler creates a new health check handler.
func NewHandler(version string, drivers []string, pomiEnabled, timingEnabled bool, startTime time.Time) *Handler {
	return &Handler{
		version:       version,
		drivers:       drivers,
		pomiEnabled:   pomiEnabled,
		timingEnabled: timingEnabled,
		startTime:     startTime,
	}
}

// ServeHTTP handles GET /healthz requests.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	resp := Response{
		Status:        "healthy",
		Version:       h.version,
		Drivers:       h.drivers,
		PoMIEnabled:   h.pomiEnabled,
		TimingEnabled: h.timingEnabled,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Default().Error("agentauthd.health.encode_error", "error", err)
	}
}
