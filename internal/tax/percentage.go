package tax

import (
	"strings"

	"github.com/ETAnderson/catalogfeed/internal/domain"
	"github.com/shopspring/decimal"
)

// Percentage applies a single store-wide rate.
type Percentage struct {
	// Rate is a fraction, e.g. 0.2 for 20%.
	Rate decimal.Decimal

	// PricesIncludeTax reports whether catalog prices were entered with tax.
	PricesIncludeTax bool
}

func NewPercentage(rate float64, pricesIncludeTax bool) Percentage {
	return Percentage{
		Rate:             decimal.NewFromFloat(rate),
		PricesIncludeTax: pricesIncludeTax,
	}
}

func (c Percentage) IncludingTax(p domain.Product, amount decimal.Decimal) decimal.Decimal {
	if c.PricesIncludeTax || !c.taxable(p) {
		return amount
	}
	return amount.Mul(decimal.NewFromInt(1).Add(c.Rate)).Round(2)
}

func (c Percentage) ExcludingTax(p domain.Product, amount decimal.Decimal) decimal.Decimal {
	if !c.PricesIncludeTax || !c.taxable(p) {
		return amount
	}
	return amount.Div(decimal.NewFromInt(1).Add(c.Rate)).Round(2)
}

func (c Percentage) taxable(p domain.Product) bool {
	if !c.Rate.IsPositive() {
		return false
	}
	return !strings.EqualFold(strings.TrimSpace(p.TaxClass), ZeroRateClass)
}
