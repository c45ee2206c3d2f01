// Package channels defines the destinations a run's products are built for.
package channels

import (
	"context"
	"sort"
)

type ProductRef struct {
	ProductID uint64
	Hash      string
}

// Outcome statuses.
const (
	StatusOK      = "ok"
	StatusSkipped = "skipped"
	StatusError   = "error"
)

type ProductOutcome struct {
	ProductID uint64
	OfferID   string
	Status    string // "ok" | "skipped" | "error"
	Message   string
	ItemJSON  []byte
}

type BuildResult struct {
	Channel  string
	Attempt  int
	OkCount  int
	ErrCount int
	Items    []ProductOutcome
}

type Channel interface {
	Name() string
	Build(ctx context.Context, tenantID uint64, products []ProductRef) (BuildResult, error)
}

// Registry looks channels up by name. The zero value is empty.
type Registry struct {
	byName map[string]Channel
}

// NewRegistry skips nil channels. A later channel replaces an earlier one of the same name.
func NewRegistry(chans ...Channel) Registry {
	m := make(map[string]Channel, len(chans))
	for _, c := range chans {
		if c == nil {
			continue
		}
		m[c.Name()] = c
	}
	return Registry{byName: m}
}

func (r Registry) Get(name string) (Channel, bool) {
	if r.byName == nil {
		return nil, false
	}
	c, ok := r.byName[name]
	return c, ok
}

// Names returns the registered channel names in sorted order.
func (r Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
