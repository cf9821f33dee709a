package observability

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/tenancyhq/bazaar/pkg/storage"
)

// HealthStatus is the body of a health check response.
type HealthStatus struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// HealthHandler serves liveness and readiness probes. Liveness is
// unconditional; readiness pings the shared store.
type HealthHandler struct {
	kv storage.KVStore
}

// NewHealthHandler creates the health handler.
func NewHealthHandler(kv storage.KVStore) *HealthHandler {
	return &HealthHandler{kv: kv}
}

// Liveness always reports ok while the process is serving.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeStatus(w, http.StatusOK, HealthStatus{Status: "ok"})
}

// Readiness reports ok only when the store answers a ping.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.kv.Ping(ctx); err != nil {
		writeStatus(w, http.StatusServiceUnavailable, HealthStatus{
			Status: "unavailable",
			Checks: map[string]string{"redis": err.Error()},
		})
		return
	}
	writeStatus(w, http.StatusOK, HealthStatus{
		Status: "ok",
		Checks: map[string]string{"redis": "ok"},
	})
}

func writeStatus(w http.ResponseWriter, code int, status HealthStatus) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(status)
}
