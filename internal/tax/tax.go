package tax

import (
	"strings"

	"github.com/ETAnderson/catalogfeed/internal/domain"
	"github.com/shopspring/decimal"
)

// Calculator adjusts a product price for display with or without tax.
// Implementations: NoTax, Percentage
type Calculator interface {
	IncludingTax(p domain.Product, amount decimal.Decimal) decimal.Decimal
	ExcludingTax(p domain.Product, amount decimal.Decimal) decimal.Decimal
}

// ZeroRateClass marks products that are never taxed.
const ZeroRateClass = "zero-rate"

// Adjust applies the inclusive or exclusive rule of c.
func Adjust(c Calculator, p domain.Product, amount decimal.Decimal, inclusive bool) decimal.Decimal {
	if c == nil {
		return amount
	}
	if inclusive {
		return c.IncludingTax(p, amount)
	}
	return c.ExcludingTax(p, amount)
}

// ExcludedForCountry reports whether prices are shown before tax in the
// given store country (US and CA list prices without tax).
func ExcludedForCountry(country string) bool {
	switch strings.ToUpper(strings.TrimSpace(country)) {
	case "US", "CA":
		return true
	default:
		return false
	}
}
