package pricing

import (
	"errors"
	"testing"
	"time"

	"github.com/ETAnderson/catalogfeed/internal/domain"
	"github.com/ETAnderson/catalogfeed/internal/tax"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func at(d time.Duration) *time.Time {
	t := now.Add(d)
	return &t
}

func TestParseAmount(t *testing.T) {
	v, ok, err := ParseAmount("")
	require.NoError(t, err)
	assert.False(t, ok, "empty string is absent")
	assert.True(t, v.IsZero())

	v, ok, err = ParseAmount("0")
	require.NoError(t, err)
	assert.True(t, ok, "zero is a real price")
	assert.True(t, v.IsZero())

	_, ok, err = ParseAmount("12,99")
	assert.False(t, ok)
	assert.True(t, errors.Is(err, ErrMalformedPrice))
}

func TestResolve_EmptyRegularPriceIsAbsent(t *testing.T) {
	r := Resolver{Tax: tax.NoTax{}}

	res := r.Resolve(domain.Product{RegularPrice: "", Price: ""}, now)
	assert.Nil(t, res.Regular)
	assert.Nil(t, res.Sale)
	assert.Nil(t, res.Window)

	res = r.Resolve(domain.Product{RegularPrice: "  ", SalePrice: "3", Price: "3"}, now)
	assert.Nil(t, res.Regular)
	assert.Nil(t, res.Sale, "no sale without a regular price to compare against")
}

func TestResolve_MalformedPriceIsAbsent(t *testing.T) {
	r := Resolver{Tax: tax.NoTax{}}

	res := r.Resolve(domain.Product{RegularPrice: "abc", Price: "abc"}, now)
	assert.Nil(t, res.Regular)
	assert.Nil(t, res.Sale)
}

func TestResolve_ZeroRegularPriceIsKept(t *testing.T) {
	r := Resolver{Tax: tax.NoTax{}}

	res := r.Resolve(domain.Product{RegularPrice: "0", Price: "0"}, now)
	require.NotNil(t, res.Regular)
	assert.True(t, res.Regular.IsZero())
}

func TestResolve_ExplicitSale(t *testing.T) {
	r := Resolver{Tax: tax.NoTax{}}

	res := r.Resolve(domain.Product{RegularPrice: "20", SalePrice: "15", Price: "15"}, now)
	require.NotNil(t, res.Regular)
	require.NotNil(t, res.Sale)
	assert.Equal(t, "20", res.Regular.String())
	assert.Equal(t, "15", res.Sale.String())
	assert.Nil(t, res.Window, "no dates means no window")
}

func TestResolve_SaleNotBelowRegularIsDropped(t *testing.T) {
	r := Resolver{Tax: tax.NoTax{}}

	res := r.Resolve(domain.Product{RegularPrice: "20", SalePrice: "20", Price: "20"}, now)
	assert.Nil(t, res.Sale)

	res = r.Resolve(domain.Product{RegularPrice: "20", SalePrice: "25", Price: "25"}, now)
	assert.Nil(t, res.Sale)
}

func TestResolve_ImplicitSaleFromActivePrice(t *testing.T) {
	r := Resolver{Tax: tax.NoTax{}}

	res := r.Resolve(domain.Product{RegularPrice: "20", Price: "17.50"}, now)
	require.NotNil(t, res.Sale)
	assert.Equal(t, "17.5", res.Sale.String())

	res = r.Resolve(domain.Product{RegularPrice: "20", Price: "20"}, now)
	assert.Nil(t, res.Sale)
}

func TestResolve_ActiveBelowExplicitSaleWins(t *testing.T) {
	r := Resolver{Tax: tax.NoTax{}}

	res := r.Resolve(domain.Product{RegularPrice: "20", SalePrice: "15", Price: "12"}, now)
	require.NotNil(t, res.Sale)
	assert.Equal(t, "12", res.Sale.String())
}

func TestResolve_EndedSaleIsDropped(t *testing.T) {
	r := Resolver{Tax: tax.NoTax{}}

	res := r.Resolve(domain.Product{
		RegularPrice: "20",
		SalePrice:    "15",
		Price:        "20",
		SaleFrom:     at(-72 * time.Hour),
		SaleTo:       at(-time.Hour),
	}, now)

	assert.NotNil(t, res.Regular)
	assert.Nil(t, res.Sale)
	assert.Nil(t, res.Window)
}

func TestResolve_SaleEndingNowIsKept(t *testing.T) {
	r := Resolver{Tax: tax.NoTax{}}

	res := r.Resolve(domain.Product{
		RegularPrice: "20",
		SalePrice:    "15",
		Price:        "15",
		SaleTo:       at(0),
	}, now)

	assert.NotNil(t, res.Sale)
}

func TestResolve_TaxAppliedToBothPrices(t *testing.T) {
	r := Resolver{Tax: tax.NewPercentage(0.1, false), TaxInclusive: true}

	res := r.Resolve(domain.Product{RegularPrice: "20", SalePrice: "10", Price: "10"}, now)
	require.NotNil(t, res.Regular)
	require.NotNil(t, res.Sale)
	assert.Equal(t, "22", res.Regular.String())
	assert.Equal(t, "11", res.Sale.String())

	r.TaxInclusive = false
	res = r.Resolve(domain.Product{RegularPrice: "20", SalePrice: "10", Price: "10"}, now)
	assert.Equal(t, "20", res.Regular.String())
	assert.Equal(t, "10", res.Sale.String())
}

func TestEffectiveWindow(t *testing.T) {
	t.Run("future end without start starts now", func(t *testing.T) {
		w := EffectiveWindow(nil, at(48*time.Hour), now)
		require.NotNil(t, w)
		require.NotNil(t, w.Start)
		assert.True(t, w.Start.Equal(now))
		assert.True(t, w.End.Equal(now.Add(48*time.Hour)))
	})

	t.Run("past start without end is open ended", func(t *testing.T) {
		w := EffectiveWindow(at(-48*time.Hour), nil, now)
		assert.Nil(t, w)
	})

	t.Run("future start without end lasts one day", func(t *testing.T) {
		start := at(5 * time.Hour)
		w := EffectiveWindow(start, nil, now)
		require.NotNil(t, w)
		require.NotNil(t, w.End)
		assert.True(t, w.Start.Equal(*start))
		assert.Equal(t, 24*time.Hour, w.End.Sub(*w.Start))
	})

	t.Run("both dates kept", func(t *testing.T) {
		w := EffectiveWindow(at(-time.Hour), at(time.Hour), now)
		require.NotNil(t, w)
		assert.True(t, w.Start.Equal(now.Add(-time.Hour)))
		assert.True(t, w.End.Equal(now.Add(time.Hour)))
	})

	t.Run("inputs are not aliased", func(t *testing.T) {
		start := at(5 * time.Hour)
		w := EffectiveWindow(start, nil, now)
		*w.Start = now
		assert.True(t, start.Equal(now.Add(5*time.Hour)))
	})
}

func TestResolve_FutureSaleWithoutEndGetsOneDayWindow(t *testing.T) {
	r := Resolver{Tax: tax.NoTax{}}
	start := at(3 * time.Hour)

	res := r.Resolve(domain.Product{
		RegularPrice: "20",
		SalePrice:    "15",
		Price:        "20",
		SaleFrom:     start,
	}, now)

	require.NotNil(t, res.Sale)
	require.NotNil(t, res.Window)
	assert.True(t, res.Window.End.Equal(start.AddDate(0, 0, 1)))
}
