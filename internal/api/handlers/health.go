package handlers

import (
	"context"
	"net/http"
	"time"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler serves GET /healthz. Without a DB it always reports ok.
type HealthHandler struct {
	DB Pinger
}

func (h HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := h.DB.PingContext(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable", "db": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}
