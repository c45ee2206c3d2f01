package middleware

import (
	"net/http"
	"time"

	"github.com/ETAnderson/catalogfeed/internal/api/tenantctx"
	"github.com/sirupsen/logrus"
)

// RequestLogger writes one access log entry per request.
type RequestLogger struct {
	Logger logrus.FieldLogger
	Next   http.Handler
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (m RequestLogger) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if m.Next == nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if m.Logger == nil {
		m.Next.ServeHTTP(w, r)
		return
	}

	start := time.Now()
	sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
	m.Next.ServeHTTP(sw, r)

	entry := m.Logger.WithFields(logrus.Fields{
		"method":    r.Method,
		"path":      r.URL.Path,
		"status":    sw.status,
		"tenant_id": tenantctx.TenantID(r.Context()),
		"elapsed":   time.Since(start).String(),
	})
	if sw.status >= http.StatusInternalServerError {
		entry.Error("request failed")
		return
	}
	entry.Info("request")
}
