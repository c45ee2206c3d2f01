package attributes

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Scope carries per-build state for providers. A new Scope is created for
// every feed item build and must not be shared between builds.
type Scope struct {
	ctx    context.Context
	logger logrus.FieldLogger
	memo   map[string]memoEntry
}

type memoEntry struct {
	value any
	err   error
}

func NewScope(ctx context.Context, logger logrus.FieldLogger) *Scope {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Scope{ctx: ctx, logger: logger, memo: make(map[string]memoEntry)}
}

func (s *Scope) Context() context.Context {
	if s == nil || s.ctx == nil {
		return context.Background()
	}
	return s.ctx
}

func (s *Scope) Logger() logrus.FieldLogger {
	if s == nil || s.logger == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		return l
	}
	return s.logger
}

// Remember returns the cached result for key, calling load only the first
// time within the scope. Errors are cached too. A nil scope never caches.
func Remember[T any](s *Scope, key string, load func() (T, error)) (T, error) {
	if s == nil {
		return load()
	}
	if e, ok := s.memo[key]; ok {
		v, _ := e.value.(T)
		return v, e.err
	}
	v, err := load()
	s.memo[key] = memoEntry{value: v, err: err}
	return v, err
}
