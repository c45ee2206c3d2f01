package feed

import (
	"strings"

	"github.com/ETAnderson/catalogfeed/internal/units"
)

// Config is fixed per build request. Country, language and channel are
// copied onto every item as is.
type Config struct {
	TargetCountry   string
	ContentLanguage string
	Channel         string
	Currency        string
	TaxInclusive    bool

	// feed units; unsupported values fall back to cm and g
	LengthUnit string
	WeightUnit string

	// units the store records dimensions in
	StoreLengthUnit string
	StoreWeightUnit string
}

func (c Config) converter() units.Converter {
	return units.NewConverter(c.LengthUnit, c.WeightUnit)
}

func (c Config) currency() string {
	return strings.ToUpper(strings.TrimSpace(c.Currency))
}
