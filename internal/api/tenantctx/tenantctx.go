// Package tenantctx carries the resolved tenant through request and worker contexts.
package tenantctx

import (
	"context"
	"errors"
	"strconv"
	"strings"
)

// DefaultTenantID is used when nothing resolved a tenant (dev without a token).
const DefaultTenantID uint64 = 1

var ErrInvalidTenantID = errors.New("tenant id must be a positive integer")

type tenantKey struct{}

// WithTenantID records tenantID on ctx. Zero leaves ctx unchanged.
func WithTenantID(ctx context.Context, tenantID uint64) context.Context {
	if tenantID == 0 {
		return ctx
	}
	return context.WithValue(ctx, tenantKey{}, tenantID)
}

// Lookup reports the tenant recorded on ctx, if any.
func Lookup(ctx context.Context) (uint64, bool) {
	id, ok := ctx.Value(tenantKey{}).(uint64)
	return id, ok && id > 0
}

// TenantID is Lookup with the DefaultTenantID fallback.
func TenantID(ctx context.Context) uint64 {
	if id, ok := Lookup(ctx); ok {
		return id
	}
	return DefaultTenantID
}

// Parse reads a tenant id from a header value.
func Parse(raw string) (uint64, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || v == 0 {
		return 0, ErrInvalidTenantID
	}
	return v, nil
}
