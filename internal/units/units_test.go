package units

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFeedUnits_FallBackToDefaults(t *testing.T) {
	assert.Equal(t, "in", FeedLengthUnit("in"))
	assert.Equal(t, "cm", FeedLengthUnit(" CM "))
	assert.Equal(t, "cm", FeedLengthUnit("mm"))
	assert.Equal(t, "cm", FeedLengthUnit(""))

	assert.Equal(t, "lbs", FeedWeightUnit("lbs"))
	assert.Equal(t, "lbs", FeedWeightUnit("lb"))
	assert.Equal(t, "oz", FeedWeightUnit("oz"))
	assert.Equal(t, "g", FeedWeightUnit("kg"))
	assert.Equal(t, "g", FeedWeightUnit("stone"))
}

func TestConverter_Length(t *testing.T) {
	tests := []struct {
		name   string
		target string
		value  float64
		from   string
		want   float64
	}{
		{"cm to cm", "cm", 12.5, "cm", 12.5},
		{"m to cm", "cm", 1.2, "m", 120},
		{"mm to cm", "cm", 55, "mm", 5.5},
		{"in to cm", "cm", 10, "in", 25.4},
		{"cm to in", "in", 25.4, "cm", 10},
		{"yd to in", "in", 1, "yd", 36},
		{"unsupported target uses cm", "mm", 2, "in", 5.08},
		{"unsupported source treated as cm", "cm", 7, "furlong", 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewConverter(tt.target, "")
			assert.InDelta(t, tt.want, c.ConvertLength(tt.value, tt.from), 1e-9)
		})
	}
}

func TestConverter_Weight(t *testing.T) {
	tests := []struct {
		name   string
		target string
		value  float64
		from   string
		want   float64
	}{
		{"kg to g", "g", 1.5, "kg", 1500},
		{"g to g", "g", 250, "g", 250},
		{"lbs to g", "g", 1, "lbs", 453.5924},
		{"kg to lbs", "lbs", 1, "kg", 2.2046},
		{"lbs to oz", "oz", 1, "lbs", 16},
		{"unsupported target uses g", "kg", 2, "kg", 2000},
		{"unsupported source treated as g", "g", 3, "grain", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewConverter("", tt.target)
			assert.InDelta(t, tt.want, c.ConvertWeight(tt.value, tt.from), 1e-9)
		})
	}
}

func TestConverter_ZeroValueUsesDefaults(t *testing.T) {
	var c Converter
	assert.Equal(t, DefaultLength, c.LengthUnit())
	assert.Equal(t, DefaultWeight, c.WeightUnit())
	assert.Equal(t, 3.0, c.ConvertLength(30, "mm"))
}
