// Package pricing resolves the regular price, sale price and sale window a
// product is listed with.
package pricing

import (
	"time"

	"github.com/ETAnderson/catalogfeed/internal/domain"
	"github.com/ETAnderson/catalogfeed/internal/tax"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Resolution holds tax-adjusted amounts. Nil fields are absent.
type Resolution struct {
	Regular *decimal.Decimal
	Sale    *decimal.Decimal
	Window  *domain.SaleWindow
}

type Resolver struct {
	Tax          tax.Calculator
	TaxInclusive bool

	Logger logrus.FieldLogger
}

func (r Resolver) Resolve(p domain.Product, now time.Time) Resolution {
	var out Resolution

	regular, hasRegular := r.parse(p, "regular_price", p.RegularPrice)
	if hasRegular {
		v := tax.Adjust(r.Tax, p, regular, r.TaxInclusive)
		out.Regular = &v
	}

	sale, hasSale := r.candidateSale(p, regular, hasRegular)
	if !hasSale {
		return out
	}

	// A sale only lists against a higher regular price.
	if !hasRegular || !sale.LessThan(regular) {
		return out
	}

	// An ended sale is dropped entirely.
	if p.SaleTo != nil && p.SaleTo.Before(now) {
		return out
	}

	v := tax.Adjust(r.Tax, p, sale, r.TaxInclusive)
	out.Sale = &v
	out.Window = EffectiveWindow(p.SaleFrom, p.SaleTo, now)

	return out
}

// candidateSale picks the explicit sale price, or the active price when
// pricing rules lowered it without touching the sale field.
func (r Resolver) candidateSale(p domain.Product, regular decimal.Decimal, hasRegular bool) (decimal.Decimal, bool) {
	sale, hasSale := r.parse(p, "sale_price", p.SalePrice)
	active, hasActive := r.parse(p, "price", p.Price)

	switch {
	case !hasSale && hasActive && hasRegular && active.LessThan(regular):
		return active, true
	case hasSale && hasActive && active.LessThan(sale):
		return active, true
	default:
		return sale, hasSale
	}
}

func (r Resolver) parse(p domain.Product, field string, raw string) (decimal.Decimal, bool) {
	v, ok, err := ParseAmount(raw)
	if err != nil && r.Logger != nil {
		r.Logger.WithFields(logrus.Fields{
			"product_id": p.ID,
			"field":      field,
		}).WithError(err).Debug("price treated as absent")
	}
	return v, ok
}

// EffectiveWindow normalizes the store sale dates against now:
// an end without a start starts now, a past start without an end is
// dropped, and a future start without an end lasts one day.
func EffectiveWindow(from, to *time.Time, now time.Time) *domain.SaleWindow {
	start := copyTime(from)
	end := copyTime(to)

	if end != nil && end.After(now) && start == nil {
		n := now
		start = &n
	}
	if start != nil && start.Before(now) && end == nil {
		start = nil
	}
	if start != nil && start.After(now) && end == nil {
		e := start.AddDate(0, 0, 1)
		end = &e
	}

	if start == nil && end == nil {
		return nil
	}
	return &domain.SaleWindow{Start: start, End: end}
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
