package tax

import (
	"github.com/ETAnderson/catalogfeed/internal/domain"
	"github.com/shopspring/decimal"
)

// NoTax returns every amount unchanged.
type NoTax struct{}

func (NoTax) IncludingTax(_ domain.Product, amount decimal.Decimal) decimal.Decimal { return amount }
func (NoTax) ExcludingTax(_ domain.Product, amount decimal.Decimal) decimal.Decimal { return amount }
