// Package google builds Merchant Center (Content API) products from catalog snapshots.
package google

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/ETAnderson/catalogfeed/internal/attributes"
	"github.com/ETAnderson/catalogfeed/internal/channels"
	"github.com/ETAnderson/catalogfeed/internal/feed"
	"github.com/ETAnderson/catalogfeed/internal/images"
	"github.com/ETAnderson/catalogfeed/internal/state"
	"github.com/ETAnderson/catalogfeed/internal/tax"
	"github.com/sirupsen/logrus"
)

const Name = "google"

type Channel struct {
	Store state.Store
	Feed  feed.Config

	Tax        tax.Calculator
	Images     images.URLResolver
	ImageSize  string
	Attributes *attributes.Pipeline

	// IdentifierMetaKey, when set, replaces Attributes with the default
	// registry plus gtin/mpn read from that custom field of the tenant's products.
	IdentifierMetaKey string

	Concurrency int
	Observer    feed.Observer

	Clock  func() time.Time
	Logger logrus.FieldLogger
}

func (c Channel) Name() string { return Name }

// Batch returns a builder reading the tenant's stored product snapshots.
func (c Channel) Batch(tenantID uint64) feed.BatchBuilder {
	loader := state.ProductLoader{Store: c.Store, TenantID: tenantID}
	return feed.BatchBuilder{
		Name: c.Name(),
		Builder: feed.Builder{
			Loader:    loader,
			Tax:       c.Tax,
			Images:    c.Images,
			ImageSize: c.ImageSize,
			Clock:     c.Clock,
			Logger:    c.Logger,
		},
		Attributes:  c.pipeline(loader),
		Concurrency: c.Concurrency,
		Observer:    c.Observer,
	}
}

// BuildItem builds and serializes a single product.
func (c Channel) BuildItem(ctx context.Context, tenantID uint64, productID uint64) (Product, error) {
	if c.Store == nil {
		return Product{}, fmt.Errorf("google channel: store is nil")
	}
	res, err := c.Batch(tenantID).BuildAll(ctx, []uint64{productID}, c.Feed)
	if err != nil {
		return Product{}, err
	}
	if res[0].Err != nil {
		return Product{}, res[0].Err
	}
	return FromFeedItem(res[0].Item), nil
}

// Build builds every referenced product. Products that could not be built
// are reported per item; the returned error is only set when the store is
// missing or ctx ended before all builds started.
func (c Channel) Build(ctx context.Context, tenantID uint64, products []channels.ProductRef) (channels.BuildResult, error) {
	if c.Store == nil {
		return channels.BuildResult{}, fmt.Errorf("google channel: store is nil")
	}

	out := channels.BuildResult{
		Channel: c.Name(),
		Attempt: 1,
		Items:   make([]channels.ProductOutcome, 0, len(products)),
	}

	ids := make([]uint64, len(products))
	for i, ref := range products {
		ids[i] = ref.ProductID
	}

	results, buildErr := c.Batch(tenantID).BuildAll(ctx, ids, c.Feed)

	for _, r := range results {
		o := channels.ProductOutcome{ProductID: r.ProductID}

		switch r.Status() {
		case feed.StatusBuilt:
			b, err := json.Marshal(FromFeedItem(r.Item))
			if err != nil {
				o.Status, o.Message = channels.StatusError, "encode_item_failed"
				out.ErrCount++
				break
			}
			o.OfferID = r.Item.OfferID
			o.Status, o.Message = channels.StatusOK, "google_item_built"
			o.ItemJSON = b
			out.OkCount++
		case feed.StatusUnavailable:
			o.Status, o.Message = channels.StatusError, "product_unavailable"
			out.ErrCount++
		case feed.StatusSkipped:
			o.Status, o.Message = channels.StatusSkipped, "build_skipped"
		default:
			o.Status, o.Message = channels.StatusError, "build_failed"
			out.ErrCount++
			c.logger().WithError(r.Err).WithField("product_id", r.ProductID).Warn("google item build failed")
		}

		out.Items = append(out.Items, o)
	}

	return out, buildErr
}

func (c Channel) pipeline(loader state.ProductLoader) *attributes.Pipeline {
	if c.IdentifierMetaKey == "" {
		return c.Attributes
	}
	reg := attributes.NewDefaultRegistry()
	ids := attributes.GlobalIdentifiers{
		Reader: attributes.MetaIdentifierReader{Products: loader, Key: c.IdentifierMetaKey},
	}
	if err := ids.Register(reg); err != nil {
		c.logger().WithError(err).Warn("global identifiers not registered")
	}
	return &attributes.Pipeline{Registry: reg}
}

func (c Channel) logger() logrus.FieldLogger {
	if c.Logger != nil {
		return c.Logger
	}
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
