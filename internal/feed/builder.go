// Package feed maps store products to normalized catalog feed items.
package feed

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/ETAnderson/catalogfeed/internal/domain"
	"github.com/ETAnderson/catalogfeed/internal/images"
	"github.com/ETAnderson/catalogfeed/internal/pricing"
	"github.com/ETAnderson/catalogfeed/internal/tax"
	"github.com/ETAnderson/catalogfeed/internal/units"
	"github.com/sirupsen/logrus"
)

// ProductLoader returns ok=false when the product does not exist.
type ProductLoader interface {
	GetProduct(ctx context.Context, id uint64) (domain.Product, bool, error)
}

type Builder struct {
	Loader    ProductLoader
	Tax       tax.Calculator
	Images    images.URLResolver
	ImageSize string

	Clock  func() time.Time
	Logger logrus.FieldLogger
}

// Build loads the product and maps it. A missing product is reported as a
// *BuildError wrapping ErrProductUnavailable.
func (b Builder) Build(ctx context.Context, id uint64, cfg Config) (domain.FeedItem, error) {
	p, err := b.Load(ctx, id)
	if err != nil {
		return domain.FeedItem{}, err
	}
	return b.BuildProduct(ctx, p, cfg)
}

func (b Builder) Load(ctx context.Context, id uint64) (domain.Product, error) {
	if b.Loader == nil {
		return domain.Product{}, &BuildError{ProductID: id, Err: ErrProductUnavailable}
	}
	p, ok, err := b.Loader.GetProduct(ctx, id)
	if err != nil {
		return domain.Product{}, &BuildError{ProductID: id, Err: err}
	}
	if !ok {
		return domain.Product{}, &BuildError{ProductID: id, Err: ErrProductUnavailable}
	}
	return p, nil
}

// BuildProduct maps an already loaded snapshot. Parents and children are
// still read through the Loader; a missing relative is skipped, a failing
// loader fails the item.
func (b Builder) BuildProduct(ctx context.Context, p domain.Product, cfg Config) (domain.FeedItem, error) {
	log := b.logger().WithField("product_id", p.ID)

	parent, err := b.parentOf(ctx, p)
	if err != nil {
		return domain.FeedItem{}, &BuildError{ProductID: p.ID, Err: err}
	}
	if p.Kind == domain.KindVariation && parent == nil {
		log.WithField("parent_id", p.ParentID).Debug("variation parent not found")
	}

	item := domain.FeedItem{
		OfferID:          p.OfferID(),
		Title:            strings.TrimSpace(p.Title),
		Description:      b.description(p, parent),
		Link:             strings.TrimSpace(p.Permalink),
		Availability:     availability(p),
		ItemGroupID:      itemGroupID(p, parent),
		TargetCountry:    cfg.TargetCountry,
		ContentLanguage:  cfg.ContentLanguage,
		Channel:          cfg.Channel,
		IdentifierExists: false,
	}

	conv := cfg.converter()
	item.ShippingDimensions = shippingDimensions(p, conv, cfg.StoreLengthUnit)
	item.ShippingWeight = shippingWeight(p, conv, cfg.StoreWeightUnit)

	priced, err := b.priceSource(ctx, p)
	if err != nil {
		return domain.FeedItem{}, &BuildError{ProductID: p.ID, Err: err}
	}
	b.applyPrices(&item, priced, cfg, log)

	sel := images.Selector{Resolver: b.Images, Size: b.ImageSize}.Select(p, parent)
	item.ImageLink = sel.Main
	item.AdditionalImageLinks = sel.Additional
	if sel.Main == "" {
		log.Debug("no resolvable image")
	}

	return item, nil
}

func (b Builder) parentOf(ctx context.Context, p domain.Product) (*domain.Product, error) {
	if p.Kind != domain.KindVariation || p.ParentID == 0 || b.Loader == nil {
		return nil, nil
	}
	parent, ok, err := b.Loader.GetProduct(ctx, p.ParentID)
	if err != nil || !ok {
		return nil, err
	}
	return &parent, nil
}

// priceSource is p itself, or for a variable parent the child chosen to
// represent it.
func (b Builder) priceSource(ctx context.Context, p domain.Product) (domain.Product, error) {
	if p.Kind != domain.KindVariable || !p.HasChildren() || b.Loader == nil {
		return p, nil
	}

	children := make([]domain.Product, 0, len(p.ChildIDs))
	for _, id := range p.ChildIDs {
		c, ok, err := b.Loader.GetProduct(ctx, id)
		if err != nil {
			return domain.Product{}, err
		}
		if ok {
			children = append(children, c)
		}
	}

	if child, ok := (pricing.VariantSelector{Tax: b.Tax}).Select(p, children); ok {
		return child, nil
	}
	return p, nil
}

func (b Builder) applyPrices(item *domain.FeedItem, p domain.Product, cfg Config, log logrus.FieldLogger) {
	res := pricing.Resolver{Tax: b.Tax, TaxInclusive: cfg.TaxInclusive, Logger: log}.Resolve(p, b.now())

	currency := cfg.currency()
	if res.Regular != nil {
		item.Price = &domain.Money{Currency: currency, Amount: *res.Regular}
	}
	if res.Sale != nil {
		item.SalePrice = &domain.Money{Currency: currency, Amount: *res.Sale}
		item.SaleWindow = res.Window
	}
}

func (b Builder) description(p domain.Product, parent *domain.Product) string {
	own := ownDescription(p)
	if p.Kind == domain.KindVariation && parent != nil {
		own = joinDescriptions(ownDescription(*parent), own)
	}
	return SanitizeDescription(own)
}

func itemGroupID(p domain.Product, parent *domain.Product) string {
	switch p.Kind {
	case domain.KindVariable:
		return p.OfferID()
	case domain.KindVariation:
		if parent != nil {
			return parent.OfferID()
		}
		if p.ParentID != 0 {
			return strconv.FormatUint(p.ParentID, 10)
		}
	}
	return ""
}

func availability(p domain.Product) domain.Availability {
	if p.IsInStock() {
		return domain.AvailabilityInStock
	}
	return domain.AvailabilityOutOfStock
}

// all three dimensions or none
func shippingDimensions(p domain.Product, conv units.Converter, from string) *domain.ShippingDimensions {
	if p.Length <= 0 || p.Width <= 0 || p.Height <= 0 {
		return nil
	}
	d := domain.ShippingDimensions{
		Unit:   conv.LengthUnit(),
		Length: conv.ConvertLength(p.Length, from),
		Width:  conv.ConvertLength(p.Width, from),
		Height: conv.ConvertLength(p.Height, from),
	}
	if d.Length <= 0 || d.Width <= 0 || d.Height <= 0 {
		return nil
	}
	return &d
}

func shippingWeight(p domain.Product, conv units.Converter, from string) *domain.ShippingWeight {
	if p.Weight <= 0 {
		return nil
	}
	v := conv.ConvertWeight(p.Weight, from)
	if v <= 0 {
		return nil
	}
	return &domain.ShippingWeight{Unit: conv.WeightUnit(), Value: v}
}

func (b Builder) now() time.Time {
	if b.Clock != nil {
		return b.Clock()
	}
	return time.Now().UTC()
}

func (b Builder) logger() logrus.FieldLogger {
	if b.Logger != nil {
		return b.Logger
	}
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}
