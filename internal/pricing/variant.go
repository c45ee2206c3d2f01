package pricing

import (
	"github.com/ETAnderson/catalogfeed/internal/domain"
	"github.com/ETAnderson/catalogfeed/internal/tax"
	"github.com/shopspring/decimal"
)

// VariantSelector picks the child whose price represents a variable parent.
type VariantSelector struct {
	Tax tax.Calculator
}

// Select returns the cheapest visible child priced below the parent, or the
// cheapest positively priced visible child when the parent has no price.
// Ties go to the lower child id so the result does not depend on order.
func (s VariantSelector) Select(parent domain.Product, children []domain.Product) (domain.Product, bool) {
	current, _ := s.comparablePrice(parent)

	var (
		best      domain.Product
		bestPrice decimal.Decimal
		found     bool
	)

	for _, child := range children {
		if !ChildIsVisible(child) {
			continue
		}

		price, ok := s.comparablePrice(child)
		if !ok || !price.IsPositive() {
			continue
		}
		if current.IsPositive() && !price.LessThan(current) {
			continue
		}

		if !found || price.LessThan(bestPrice) || (price.Equal(bestPrice) && child.ID < best.ID) {
			best, bestPrice, found = child, price, true
		}
	}

	return best, found
}

// ChildIsVisible applies the variation rule to variations and the generic
// catalog rule to anything else.
func ChildIsVisible(p domain.Product) bool {
	if p.Kind == domain.KindVariation {
		return p.VariationIsVisible()
	}
	return p.IsVisible()
}

// prices are compared tax-inclusive regardless of how they are listed
func (s VariantSelector) comparablePrice(p domain.Product) (decimal.Decimal, bool) {
	v, ok, _ := ParseAmount(p.RegularPrice)
	if !ok {
		return decimal.Zero, false
	}
	return tax.Adjust(s.Tax, p, v, true), true
}
