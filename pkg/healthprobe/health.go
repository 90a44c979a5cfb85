package healthprobe

import (
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"
)

// HealthChecker tracks liveness and per-component readiness.
//
// Components register themselves as they come up (feed connection,
// storage, dispatcher); the readiness probe reports 200 only once every
// registered component is ready.
type HealthChecker struct {
	startTime time.Time

	mu         sync.RWMutex
	components map[string]bool
}

// New creates a new HealthChecker.
func New() *HealthChecker {
	return &HealthChecker{
		startTime:  time.Now(),
		components: make(map[string]bool),
	}
}

// SetReady marks a single component as ready or not ready. Components
// are created on first use.
func (h *HealthChecker) SetReady(component string, ready bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.components[component] = ready
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status   string   `json:"status"`
	Uptime   string   `json:"uptime"`
	NotReady []string `json:"not_ready,omitempty"`
}

// Health returns an HTTP handler for liveness checks.
// Always returns 200 OK if the application is running.
func (h *HealthChecker) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := HealthResponse{
			Status: "healthy",
			Uptime: time.Since(h.startTime).String(),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// Ready returns an HTTP handler for readiness checks.
// Returns 200 OK when every registered component is ready, 503 Service
// Unavailable otherwise.
func (h *HealthChecker) Ready() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		notReady := h.pending()

		w.Header().Set("Content-Type", "application/json")

		if len(notReady) > 0 {
			resp := HealthResponse{
				Status:   "not_ready",
				Uptime:   time.Since(h.startTime).String(),
				NotReady: notReady,
			}
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(resp)
			return
		}

		resp := HealthResponse{
			Status: "ready",
			Uptime: time.Since(h.startTime).String(),
		}
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func (h *HealthChecker) pending() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var notReady []string
	for name, ready := range h.components {
		if !ready {
			notReady = append(notReady, name)
		}
	}
	sort.Strings(notReady)
	return notReady
}
