package google

import (
	"strconv"
	"strings"
	"time"

	"github.com/ETAnderson/catalogfeed/internal/attributes"
	"github.com/ETAnderson/catalogfeed/internal/domain"
)

const (
	AvailabilityInStock    = "in stock"
	AvailabilityOutOfStock = "out of stock"
)

type Price struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

type ShippingDimension struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

type ShippingWeight struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// Product is the Content API product resource as submitted by this service.
type Product struct {
	OfferID         string `json:"offerId"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	Link            string `json:"link"`
	ContentLanguage string `json:"contentLanguage"`
	TargetCountry   string `json:"targetCountry"`
	Channel         string `json:"channel"`

	ImageLink            string   `json:"imageLink,omitempty"`
	AdditionalImageLinks []string `json:"additionalImageLinks,omitempty"`

	Availability string `json:"availability"`

	Price                  *Price `json:"price,omitempty"`
	SalePrice              *Price `json:"salePrice,omitempty"`
	SalePriceEffectiveDate string `json:"salePriceEffectiveDate,omitempty"`

	ShippingLength *ShippingDimension `json:"shippingLength,omitempty"`
	ShippingWidth  *ShippingDimension `json:"shippingWidth,omitempty"`
	ShippingHeight *ShippingDimension `json:"shippingHeight,omitempty"`
	ShippingWeight *ShippingWeight    `json:"shippingWeight,omitempty"`

	ItemGroupID      string `json:"itemGroupId,omitempty"`
	IdentifierExists bool   `json:"identifierExists"`

	GTIN      string   `json:"gtin,omitempty"`
	MPN       string   `json:"mpn,omitempty"`
	Brand     string   `json:"brand,omitempty"`
	Color     string   `json:"color,omitempty"`
	Sizes     []string `json:"sizes,omitempty"`
	Material  string   `json:"material,omitempty"`
	Pattern   string   `json:"pattern,omitempty"`
	Gender    string   `json:"gender,omitempty"`
	AgeGroup  string   `json:"ageGroup,omitempty"`
	Condition string   `json:"condition,omitempty"`
	Multipack int64    `json:"multipack,omitempty"`
	IsBundle  bool     `json:"isBundle,omitempty"`
}

// FromFeedItem serializes a built item. It never changes the item.
func FromFeedItem(it domain.FeedItem) Product {
	p := Product{
		OfferID:          it.OfferID,
		Title:            it.Title,
		Description:      it.Description,
		Link:             it.Link,
		ContentLanguage:  it.ContentLanguage,
		TargetCountry:    it.TargetCountry,
		Channel:          it.Channel,
		ImageLink:        it.ImageLink,
		Availability:     availability(it.Availability),
		ItemGroupID:      it.ItemGroupID,
		IdentifierExists: it.IdentifierExists,
	}

	if len(it.AdditionalImageLinks) > 0 {
		p.AdditionalImageLinks = append([]string(nil), it.AdditionalImageLinks...)
	}

	if it.Price != nil {
		p.Price = money(*it.Price)
	}
	if it.SalePrice != nil {
		p.SalePrice = money(*it.SalePrice)
		p.SalePriceEffectiveDate = EffectiveDate(it.SaleWindow)
	}

	if d := it.ShippingDimensions; d != nil {
		p.ShippingLength = &ShippingDimension{Value: d.Length, Unit: d.Unit}
		p.ShippingWidth = &ShippingDimension{Value: d.Width, Unit: d.Unit}
		p.ShippingHeight = &ShippingDimension{Value: d.Height, Unit: d.Unit}
	}
	if w := it.ShippingWeight; w != nil {
		p.ShippingWeight = &ShippingWeight{Value: w.Value, Unit: w.Unit}
	}

	applyAttributes(&p, it.Attributes)
	return p
}

// EffectiveDate formats a window as "start/end" in RFC 3339. An open side
// is left empty; a nil window yields "".
func EffectiveDate(w *domain.SaleWindow) string {
	if w.IsZero() {
		return ""
	}
	return formatTime(w.Start) + "/" + formatTime(w.End)
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

func money(m domain.Money) *Price {
	return &Price{Value: m.Amount.StringFixed(2), Currency: m.Currency}
}

func availability(a domain.Availability) string {
	if a == domain.AvailabilityInStock {
		return AvailabilityInStock
	}
	return AvailabilityOutOfStock
}

func applyAttributes(p *Product, attrs map[string]string) {
	for id, v := range attrs {
		switch id {
		case attributes.GTIN:
			p.GTIN = v
		case attributes.MPN:
			p.MPN = v
		case attributes.Brand:
			p.Brand = v
		case attributes.Color:
			p.Color = v
		case attributes.Size:
			p.Sizes = strings.Split(v, "/")
		case attributes.Material:
			p.Material = v
		case attributes.Pattern:
			p.Pattern = v
		case attributes.Gender:
			p.Gender = v
		case attributes.AgeGroup:
			p.AgeGroup = v
		case attributes.Condition:
			p.Condition = v
		case attributes.Multipack:
			if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 1 {
				p.Multipack = n
			}
		case attributes.IsBundle:
			p.IsBundle = isYes(v)
		}
	}
}

func isYes(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "yes", "true", "on":
		return true
	default:
		return false
	}
}
