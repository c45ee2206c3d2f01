package domain

import (
	"strconv"
	"strings"
	"time"
)

type ProductKind string

const (
	KindSimple    ProductKind = "simple"
	KindVariable  ProductKind = "variable"
	KindVariation ProductKind = "variation"
)

func (k ProductKind) Valid() bool {
	switch k {
	case KindSimple, KindVariable, KindVariation:
		return true
	default:
		return false
	}
}

type StockStatus string

const (
	StockInStock     StockStatus = "instock"
	StockOutOfStock  StockStatus = "outofstock"
	StockOnBackorder StockStatus = "onbackorder"
)

type PublishStatus string

const (
	StatusPublish PublishStatus = "publish"
	StatusPrivate PublishStatus = "private"
	StatusDraft   PublishStatus = "draft"
	StatusPending PublishStatus = "pending"
)

// Product is a loaded store product snapshot. Prices are the raw store strings:
// "" means not set and is distinct from "0".
type Product struct {
	ID     uint64        `json:"id" validate:"required"`
	SKU    string        `json:"sku,omitempty" validate:"max=255"`
	Kind   ProductKind   `json:"kind" validate:"required,oneof=simple variable variation"`
	Status PublishStatus `json:"status,omitempty" validate:"omitempty,oneof=publish private draft pending"`

	ParentID uint64   `json:"parent_id,omitempty" validate:"required_if=Kind variation"`
	ChildIDs []uint64 `json:"child_ids,omitempty"`

	Title            string `json:"title"`
	Description      string `json:"description,omitempty"`
	ShortDescription string `json:"short_description,omitempty"`
	Permalink        string `json:"permalink" validate:"omitempty,url"`

	StockStatus StockStatus `json:"stock_status" validate:"omitempty,oneof=instock outofstock onbackorder"`
	Visible     bool        `json:"visible"`

	Length float64 `json:"length,omitempty" validate:"gte=0"`
	Width  float64 `json:"width,omitempty" validate:"gte=0"`
	Height float64 `json:"height,omitempty" validate:"gte=0"`
	Weight float64 `json:"weight,omitempty" validate:"gte=0"`

	RegularPrice string     `json:"regular_price" validate:"price"`
	SalePrice    string     `json:"sale_price,omitempty" validate:"price"`
	Price        string     `json:"price" validate:"price"` // active price, possibly altered by pricing rules
	SaleFrom     *time.Time `json:"sale_from,omitempty"`
	SaleTo       *time.Time `json:"sale_to,omitempty"`
	TaxClass     string     `json:"tax_class,omitempty"`

	ImageRef    string   `json:"image_ref,omitempty"`
	GalleryRefs []string `json:"gallery_refs,omitempty"`

	Brand      string              `json:"brand,omitempty"`
	Attributes map[string][]string `json:"attributes,omitempty"` // taxonomy name -> terms
	Meta       map[string]string   `json:"meta,omitempty"`       // custom fields
}

// OfferID is the SKU when set, otherwise the numeric id.
func (p Product) OfferID() string {
	if sku := strings.TrimSpace(p.SKU); sku != "" {
		return sku
	}
	return strconv.FormatUint(p.ID, 10)
}

// IsInStock follows the store rule: anything but out-of-stock can be purchased.
func (p Product) IsInStock() bool {
	return p.StockStatus != StockOutOfStock
}

func (p Product) IsVisible() bool {
	return p.Visible && p.Status != StatusDraft
}

// VariationIsVisible is the variation-specific rule: published and purchasable at a price.
func (p Product) VariationIsVisible() bool {
	if p.Status != "" && p.Status != StatusPublish {
		return false
	}
	return strings.TrimSpace(p.Price) != ""
}

func (p Product) HasChildren() bool { return len(p.ChildIDs) > 0 }

func (p Product) MetaValue(key string) string {
	if p.Meta == nil {
		return ""
	}
	return strings.TrimSpace(p.Meta[key])
}
