package attributes

import (
	"strings"

	"github.com/ETAnderson/catalogfeed/internal/domain"
)

const (
	GTIN      = "gtin"
	MPN       = "mpn"
	Brand     = "brand"
	Color     = "color"
	Size      = "size"
	Material  = "material"
	Pattern   = "pattern"
	Gender    = "gender"
	AgeGroup  = "ageGroup"
	Condition = "condition"
	Multipack = "multipack"
	IsBundle  = "isBundle"
)

// MetaPrefix namespaces the custom fields the store keeps feed values in.
const MetaPrefix = "_feed_"

func MetaKey(id string) string { return MetaPrefix + strings.ToLower(id) }

// FromMeta reads a custom field.
func FromMeta(key string) Provider {
	return func(_ *Scope, p domain.Product) (string, bool) {
		v := p.MetaValue(key)
		return v, v != ""
	}
}

// FromTaxonomy reads the terms of a product attribute taxonomy, joined with
// "/" the way the catalog expects multi-valued attributes.
func FromTaxonomy(taxonomy string) Provider {
	return func(_ *Scope, p domain.Product) (string, bool) {
		terms := make([]string, 0, len(p.Attributes[taxonomy]))
		for _, t := range p.Attributes[taxonomy] {
			if t = strings.TrimSpace(t); t != "" {
				terms = append(terms, t)
			}
		}
		if len(terms) == 0 {
			return "", false
		}
		return strings.Join(terms, "/"), true
	}
}

func fromBrandField(_ *Scope, p domain.Product) (string, bool) {
	v := strings.TrimSpace(p.Brand)
	return v, v != ""
}

var (
	simpleAndVariation = []domain.ProductKind{domain.KindSimple, domain.KindVariation}
	simpleAndVariable  = []domain.ProductKind{domain.KindSimple, domain.KindVariable}
	allKinds           = []domain.ProductKind{domain.KindSimple, domain.KindVariable, domain.KindVariation}
)

// Builtin returns the attributes resolved from product fields and custom
// fields alone.
func Builtin() []Definition {
	return []Definition{
		{ID: GTIN, Label: "Global Trade Item Number (GTIN)", ApplicableKinds: simpleAndVariation,
			Providers: []Provider{FromMeta(MetaKey(GTIN))}},
		{ID: MPN, Label: "Manufacturer Part Number (MPN)", ApplicableKinds: simpleAndVariation,
			Providers: []Provider{FromMeta(MetaKey(MPN))}},
		{ID: Brand, Label: "Brand", ApplicableKinds: simpleAndVariable,
			Providers: []Provider{FromMeta(MetaKey(Brand)), fromBrandField, FromTaxonomy("pa_brand")}},
		{ID: Color, Label: "Color", ApplicableKinds: simpleAndVariation,
			Providers: []Provider{FromMeta(MetaKey(Color)), FromTaxonomy("pa_color")}},
		{ID: Size, Label: "Size", ApplicableKinds: simpleAndVariation,
			Providers: []Provider{FromMeta(MetaKey(Size)), FromTaxonomy("pa_size")}},
		{ID: Material, Label: "Material", ApplicableKinds: simpleAndVariation,
			Providers: []Provider{FromMeta(MetaKey(Material)), FromTaxonomy("pa_material")}},
		{ID: Pattern, Label: "Pattern", ApplicableKinds: simpleAndVariation,
			Providers: []Provider{FromMeta(MetaKey(Pattern)), FromTaxonomy("pa_pattern")}},
		{ID: Gender, Label: "Gender", ApplicableKinds: simpleAndVariation,
			Providers: []Provider{FromMeta(MetaKey(Gender))}},
		{ID: AgeGroup, Label: "Age Group", ApplicableKinds: simpleAndVariation,
			Providers: []Provider{FromMeta(MetaKey(AgeGroup))}},
		{ID: Condition, Label: "Condition", ApplicableKinds: allKinds,
			Providers: []Provider{FromMeta(MetaKey(Condition))}},
		{ID: Multipack, Label: "Multipack", ApplicableKinds: simpleAndVariation,
			Providers: []Provider{FromMeta(MetaKey(Multipack))}},
		{ID: IsBundle, Label: "Is bundle?", ApplicableKinds: simpleAndVariation,
			Providers: []Provider{FromMeta(MetaKey(IsBundle))}},
	}
}

// NewDefaultRegistry returns a registry holding Builtin.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	for _, def := range Builtin() {
		_ = r.Register(def) // ids are unique
	}
	return r
}
