package middleware

import (
	"net/http"
	"strings"

	"github.com/ETAnderson/catalogfeed/internal/api/tenantctx"
)

const TenantHeaderKey = "X-Tenant-ID"

// TenantMiddleware lets dev callers pick a tenant with X-Tenant-ID. Outside
// dev the header is ignored and the tenant comes from the bearer token.
type TenantMiddleware struct {
	Env  string
	Next http.Handler
}

func (m TenantMiddleware) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if m.Next == nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	raw := strings.TrimSpace(r.Header.Get(TenantHeaderKey))
	if !isDev(m.Env) || raw == "" {
		m.Next.ServeHTTP(w, r)
		return
	}

	tenantID, err := tenantctx.Parse(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_tenant_id", "X-Tenant-ID must be a positive integer")
		return
	}

	m.Next.ServeHTTP(w, r.WithContext(tenantctx.WithTenantID(r.Context(), tenantID)))
}
