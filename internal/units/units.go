// Package units converts store measurements into the units the catalog API accepts.
package units

import (
	"math"
	"strings"
)

const (
	LengthCentimeter = "cm"
	LengthInch       = "in"
	LengthMeter      = "m"
	LengthMillimeter = "mm"
	LengthYard       = "yd"

	WeightGram     = "g"
	WeightKilogram = "kg"
	WeightPound    = "lbs"
	WeightOunce    = "oz"

	DefaultLength = LengthCentimeter
	DefaultWeight = WeightGram
)

// centimeters per unit
var lengthFactors = map[string]float64{
	LengthCentimeter: 1,
	LengthMeter:      100,
	LengthMillimeter: 0.1,
	LengthInch:       2.54,
	LengthYard:       91.44,
}

// kilograms per unit
var weightFactors = map[string]float64{
	WeightKilogram: 1,
	WeightGram:     0.001,
	WeightPound:    0.45359237,
	WeightOunce:    0.028349523125,
}

var aliases = map[string]string{
	"lb":     WeightPound,
	"pound":  WeightPound,
	"pounds": WeightPound,
	"inch":   LengthInch,
	"inches": LengthInch,
}

// FeedLengthUnit returns u when the catalog accepts it, otherwise DefaultLength.
func FeedLengthUnit(u string) string {
	switch u = normalize(u); u {
	case LengthInch, LengthCentimeter:
		return u
	default:
		return DefaultLength
	}
}

// FeedWeightUnit returns u when the catalog accepts it, otherwise DefaultWeight.
func FeedWeightUnit(u string) string {
	switch u = normalize(u); u {
	case WeightGram, WeightPound, WeightOunce:
		return u
	default:
		return DefaultWeight
	}
}

// Converter converts values into a fixed pair of target units. Unknown units
// fall back to the defaults instead of failing.
type Converter struct {
	lengthUnit string
	weightUnit string
}

func NewConverter(lengthUnit, weightUnit string) Converter {
	return Converter{
		lengthUnit: FeedLengthUnit(lengthUnit),
		weightUnit: FeedWeightUnit(weightUnit),
	}
}

func (c Converter) LengthUnit() string {
	if c.lengthUnit == "" {
		return DefaultLength
	}
	return c.lengthUnit
}

func (c Converter) WeightUnit() string {
	if c.weightUnit == "" {
		return DefaultWeight
	}
	return c.weightUnit
}

func (c Converter) ConvertLength(value float64, fromUnit string) float64 {
	from, ok := lengthFactors[normalize(fromUnit)]
	if !ok {
		from = lengthFactors[DefaultLength]
	}
	return round(value * from / lengthFactors[c.LengthUnit()])
}

func (c Converter) ConvertWeight(value float64, fromUnit string) float64 {
	from, ok := weightFactors[normalize(fromUnit)]
	if !ok {
		from = weightFactors[DefaultWeight]
	}
	return round(value * from / weightFactors[c.WeightUnit()])
}

func normalize(u string) string {
	u = strings.ToLower(strings.TrimSpace(u))
	if a, ok := aliases[u]; ok {
		return a
	}
	return u
}

// four places keeps round trips like in -> cm -> in exact
func round(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
