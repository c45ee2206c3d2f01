package attributes

import (
	"context"
	"testing"

	"github.com/ETAnderson/catalogfeed/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func constant(v string) Provider {
	return func(*Scope, domain.Product) (string, bool) { return v, v != "" }
}

func TestRegistry_FirstProviderValueWins(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(Definition{
		ID:              "color",
		ApplicableKinds: allKinds,
		Providers:       []Provider{constant(""), constant("red")},
	}))
	require.NoError(t, r.RegisterProvider("color", constant("blue")))

	v, ok := r.Resolve(nil, "color", domain.Product{Kind: domain.KindSimple})
	require.True(t, ok)
	assert.Equal(t, "red", v)
}

func TestRegistry_NoProviderValue(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(Definition{ID: "mpn", ApplicableKinds: allKinds,
		Providers: []Provider{constant(""), func(*Scope, domain.Product) (string, bool) { return "   ", true }}}))

	_, ok := r.Resolve(nil, "mpn", domain.Product{Kind: domain.KindSimple})
	assert.False(t, ok)
}

func TestRegistry_ApplicabilityCheckedBeforeProviders(t *testing.T) {
	called := false
	r := NewRegistry()
	require.NoError(t, r.Register(Definition{
		ID:              "gtin",
		ApplicableKinds: simpleAndVariation,
		Providers: []Provider{func(*Scope, domain.Product) (string, bool) {
			called = true
			return "123", true
		}},
	}))

	_, ok := r.Resolve(nil, "gtin", domain.Product{Kind: domain.KindVariable})
	assert.False(t, ok)
	assert.False(t, called)

	v, ok := r.Resolve(nil, "gtin", domain.Product{Kind: domain.KindVariation})
	assert.True(t, ok)
	assert.Equal(t, "123", v)
	assert.True(t, called)
}

func TestRegistry_Errors(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(Definition{ID: "brand"}))

	assert.ErrorIs(t, r.Register(Definition{ID: "brand"}), ErrDuplicateAttribute)
	assert.Error(t, r.Register(Definition{ID: "  "}))
	assert.ErrorIs(t, r.RegisterProvider("nope", constant("x")), ErrUnknownAttribute)
	assert.Error(t, r.RegisterProvider("brand", nil))

	_, ok := r.Resolve(nil, "nope", domain.Product{})
	assert.False(t, ok)
}

func TestRegistry_DefinitionsKeepRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	for _, id := range []string{"b", "a", "c"} {
		require.NoError(t, r.Register(Definition{ID: id}))
	}

	var ids []string
	for _, d := range r.Definitions() {
		ids = append(ids, d.ID)
	}
	assert.Equal(t, []string{"b", "a", "c"}, ids)
}

func TestBuiltin_BrandFallbacks(t *testing.T) {
	r := NewDefaultRegistry()

	p := domain.Product{
		Kind:       domain.KindSimple,
		Attributes: map[string][]string{"pa_brand": {"Acme"}, "pa_color": {"Red", " ", "Blue"}},
	}
	v, ok := r.Resolve(nil, Brand, p)
	require.True(t, ok)
	assert.Equal(t, "Acme", v)

	p.Brand = "Field Brand"
	v, _ = r.Resolve(nil, Brand, p)
	assert.Equal(t, "Field Brand", v)

	p.Meta = map[string]string{MetaKey(Brand): "Meta Brand"}
	v, _ = r.Resolve(nil, Brand, p)
	assert.Equal(t, "Meta Brand", v)

	v, ok = r.Resolve(nil, Color, p)
	require.True(t, ok)
	assert.Equal(t, "Red/Blue", v)
}

func TestBuiltin_GTINNotForVariableParents(t *testing.T) {
	r := NewDefaultRegistry()
	p := domain.Product{Kind: domain.KindVariable, Meta: map[string]string{"_feed_gtin": "4006381333931"}}

	_, ok := r.Resolve(nil, GTIN, p)
	assert.False(t, ok)
}

func TestPipeline_FillsAttributesOnCopy(t *testing.T) {
	r := NewDefaultRegistry()
	pl := Pipeline{Registry: r}

	item := domain.FeedItem{OfferID: "sku-1", IdentifierExists: false}
	p := domain.Product{
		Kind: domain.KindSimple,
		Meta: map[string]string{"_feed_mpn": "MPN-9", "_feed_condition": "new"},
	}

	out := pl.Apply(NewScope(context.Background(), nil), item, p)

	assert.Nil(t, item.Attributes)
	assert.Equal(t, map[string]string{MPN: "MPN-9", Condition: "new"}, out.Attributes)
	assert.False(t, out.IdentifierExists)
}
