package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/voxellab/greenlight/pipeline"
)

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	svc    *pipeline.Service
	logger *zap.Logger
}

// NewHealthHandler wires the probes to the pipeline's backing services.
func NewHealthHandler(svc *pipeline.Service, logger *zap.Logger) *HealthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HealthHandler{svc: svc, logger: logger}
}

// Register installs the probe routes on mux.
func (h *HealthHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.HandleHealth)
	mux.HandleFunc("GET /healthz", h.HandleLive)
	mux.HandleFunc("GET /readyz", h.HandleHealth)
}

// HandleLive answers as long as the process is serving.
func (h *HealthHandler) HandleLive(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleHealth checks the backing services and reports per-dependency
// status. Any failing dependency degrades the response to 503.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	checks := h.svc.Health(r.Context())

	status := http.StatusOK
	overall := "healthy"
	for _, v := range checks {
		if v != "ok" {
			status = http.StatusServiceUnavailable
			overall = "degraded"
			break
		}
	}

	WriteJSON(w, status, map[string]interface{}{
		"status":    overall,
		"checks":    checks,
		"timestamp": time.Now().UTC(),
	})
}

// HandleVersion reports build metadata.
func (h *HealthHandler) HandleVersion(version, buildTime, gitCommit string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{
			"version":    version,
			"build_time": buildTime,
			"git_commit": gitCommit,
		})
	}
}
