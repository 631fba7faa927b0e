package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/dioscarr/Topapi/internal/api/respond"
)

// Check is one dependency checked by the readiness endpoint.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

type HealthHandler struct {
	checks  []Check
	started time.Time
}

func NewHealthHandler(checks ...Check) *HealthHandler {
	return &HealthHandler{checks: checks, started: time.Now()}
}

func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	respond.OK(w, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    int64(time.Since(h.started).Seconds()),
	}, "Server is running")
}

func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := map[string]string{}
	healthy := true
	for _, c := range h.checks {
		if err := c.Ping(ctx); err != nil {
			checks[c.Name] = "unhealthy: " + err.Error()
			healthy = false
		} else {
			checks[c.Name] = "ok"
		}
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	respond.JSON(w, status, respond.Envelope{
		Success: healthy,
		Data:    map[string]any{"status": statusStr(status), "checks": checks},
	})
}

func statusStr(code int) string {
	if code == http.StatusOK {
		return "ok"
	}
	return "unhealthy"
}
