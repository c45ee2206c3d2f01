package worker

import (
	"context"

	"github.com/ETAnderson/catalogfeed/internal/api/tenantctx"
	"github.com/sirupsen/logrus"
)

type runIDKey struct{}

// WithJob binds a claimed run and its tenant to ctx, so store and channel
// calls made while executing it resolve the same tenant as the api does.
func WithJob(ctx context.Context, job Job) context.Context {
	ctx = tenantctx.WithTenantID(ctx, job.TenantID)
	if job.RunID == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey{}, job.RunID)
}

func RunID(ctx context.Context) string {
	s, _ := ctx.Value(runIDKey{}).(string)
	return s
}

// LogFields returns the run_id and tenant_id bound to ctx.
func LogFields(ctx context.Context) logrus.Fields {
	f := logrus.Fields{}
	if id := RunID(ctx); id != "" {
		f["run_id"] = id
	}
	if tenantID, ok := tenantctx.Lookup(ctx); ok {
		f["tenant_id"] = tenantID
	}
	return f
}
