package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Availability string

const (
	AvailabilityInStock    Availability = "in_stock"
	AvailabilityOutOfStock Availability = "out_of_stock"
)

type Money struct {
	Currency string          `json:"currency"`
	Amount   decimal.Decimal `json:"amount"`
}

// SaleWindow is the interval a sale price applies. Either side may be open.
type SaleWindow struct {
	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`
}

func (w *SaleWindow) IsZero() bool {
	return w == nil || (w.Start == nil && w.End == nil)
}

type ShippingDimensions struct {
	Unit   string  `json:"unit"`
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type ShippingWeight struct {
	Unit  string  `json:"unit"`
	Value float64 `json:"value"`
}

// FeedItem is the normalized catalog record for one product. It is built
// fresh per request and must not be mutated after it is returned.
type FeedItem struct {
	OfferID     string `json:"offer_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Link        string `json:"link"`

	ImageLink            string   `json:"image_link,omitempty"`
	AdditionalImageLinks []string `json:"additional_image_links,omitempty"`

	Availability Availability `json:"availability"`

	Price      *Money      `json:"price,omitempty"`
	SalePrice  *Money      `json:"sale_price,omitempty"`
	SaleWindow *SaleWindow `json:"sale_window,omitempty"`

	ShippingDimensions *ShippingDimensions `json:"shipping_dimensions,omitempty"`
	ShippingWeight     *ShippingWeight     `json:"shipping_weight,omitempty"`

	ItemGroupID string `json:"item_group_id,omitempty"`

	TargetCountry    string `json:"target_country"`
	ContentLanguage  string `json:"content_language"`
	Channel          string `json:"channel"`
	IdentifierExists bool   `json:"identifier_exists"`

	Attributes map[string]string `json:"attributes,omitempty"`
}

// Clone returns a deep copy so later pipeline stages never share slices or maps.
func (it FeedItem) Clone() FeedItem {
	out := it
	if it.AdditionalImageLinks != nil {
		out.AdditionalImageLinks = append([]string(nil), it.AdditionalImageLinks...)
	}
	if it.Price != nil {
		p := *it.Price
		out.Price = &p
	}
	if it.SalePrice != nil {
		p := *it.SalePrice
		out.SalePrice = &p
	}
	if it.SaleWindow != nil {
		w := *it.SaleWindow
		out.SaleWindow = &w
	}
	if it.ShippingDimensions != nil {
		d := *it.ShippingDimensions
		out.ShippingDimensions = &d
	}
	if it.ShippingWeight != nil {
		w := *it.ShippingWeight
		out.ShippingWeight = &w
	}
	if it.Attributes != nil {
		out.Attributes = make(map[string]string, len(it.Attributes))
		for k, v := range it.Attributes {
			out.Attributes[k] = v
		}
	}
	return out
}
