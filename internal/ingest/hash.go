package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"slices"
	"strings"
	"time"

	"github.com/ETAnderson/catalogfeed/internal/domain"
)

type Hasher struct{}

func (h Hasher) HashNormalized(p domain.Product) (string, error) {
	// encoding/json writes map keys sorted, so only slices and times need care.
	b, err := json.Marshal(normalizeForHash(p))
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

// normalizeForHash builds a deterministic copy of the product for hashing.
// - trims free-text whitespace
// - sorts child ids (order is irrelevant to the store)
// - converts sale schedule times to UTC
// Gallery order is kept; it decides which image is additional first.
func normalizeForHash(p domain.Product) domain.Product {
	n := p

	n.SKU = strings.TrimSpace(p.SKU)
	n.Title = strings.TrimSpace(p.Title)
	n.Description = strings.TrimSpace(p.Description)
	n.ShortDescription = strings.TrimSpace(p.ShortDescription)
	n.RegularPrice = strings.TrimSpace(p.RegularPrice)
	n.SalePrice = strings.TrimSpace(p.SalePrice)
	n.Price = strings.TrimSpace(p.Price)

	if len(p.ChildIDs) > 0 {
		n.ChildIDs = slices.Clone(p.ChildIDs)
		slices.Sort(n.ChildIDs)
	}

	n.SaleFrom = utc(p.SaleFrom)
	n.SaleTo = utc(p.SaleTo)

	if len(p.Attributes) > 0 {
		n.Attributes = make(map[string][]string, len(p.Attributes))
		for k, v := range p.Attributes {
			terms := slices.Clone(v)
			slices.Sort(terms)
			n.Attributes[k] = terms
		}
	}

	return n
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
