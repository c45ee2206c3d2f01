// Package attributes resolves extra catalog attributes (gtin, mpn, brand,
// color...) through ordered, pluggable value providers.
package attributes

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ETAnderson/catalogfeed/internal/domain"
)

var (
	ErrUnknownAttribute   = errors.New("unknown attribute")
	ErrDuplicateAttribute = errors.New("attribute already registered")
)

// Provider returns a value for one attribute of p, or ok=false to let the
// next provider try.
type Provider func(s *Scope, p domain.Product) (value string, ok bool)

type Definition struct {
	ID              string
	Label           string
	ApplicableKinds []domain.ProductKind
	Providers       []Provider
}

func (d Definition) AppliesTo(kind domain.ProductKind) bool {
	for _, k := range d.ApplicableKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// Registry maps attribute ids to definitions. Configure it before builds
// start; it is read-only afterwards and safe to share.
type Registry struct {
	defs  map[string]*Definition
	order []string
}

func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*Definition)}
}

func (r *Registry) Register(def Definition) error {
	id := strings.TrimSpace(def.ID)
	if id == "" {
		return errors.New("attribute id is required")
	}
	if _, ok := r.defs[id]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateAttribute, id)
	}

	def.ID = id
	def.Providers = append([]Provider(nil), def.Providers...)
	def.ApplicableKinds = append([]domain.ProductKind(nil), def.ApplicableKinds...)

	r.defs[id] = &def
	r.order = append(r.order, id)
	return nil
}

// RegisterProvider appends p after the providers already registered for id.
func (r *Registry) RegisterProvider(id string, p Provider) error {
	def, ok := r.defs[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAttribute, id)
	}
	if p == nil {
		return errors.New("provider is nil")
	}
	def.Providers = append(def.Providers, p)
	return nil
}

func (r *Registry) Definition(id string) (Definition, bool) {
	def, ok := r.defs[id]
	if !ok {
		return Definition{}, false
	}
	return *def, true
}

// Definitions returns definitions in registration order.
func (r *Registry) Definitions() []Definition {
	out := make([]Definition, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.defs[id])
	}
	return out
}

// Resolve runs the providers for id in order and returns the first value.
// Attributes that do not apply to p's kind are never resolved.
func (r *Registry) Resolve(s *Scope, id string, p domain.Product) (string, bool) {
	def, ok := r.defs[id]
	if !ok || !def.AppliesTo(p.Kind) {
		return "", false
	}

	for _, provide := range def.Providers {
		v, ok := provide(s, p)
		if !ok {
			continue
		}
		if v = strings.TrimSpace(v); v != "" {
			return v, true
		}
	}
	return "", false
}
