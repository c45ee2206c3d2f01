package pricing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrMalformedPrice = errors.New("malformed price")

// ParseAmount reads a raw store price. An empty string is absent (ok=false,
// err=nil); a non-numeric string is absent and reported as ErrMalformedPrice.
func ParseAmount(raw string) (decimal.Decimal, bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, false, nil
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("%w: %q", ErrMalformedPrice, raw)
	}
	return v, true, nil
}
