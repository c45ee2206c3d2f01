package attributes

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/ETAnderson/catalogfeed/internal/domain"
	"github.com/sirupsen/logrus"
)

// GlobalIdentifierMetaKey holds a JSON object of identifiers maintained by an
// external catalog tool, e.g. {"gtin13":"...","mpn":"..."}.
const GlobalIdentifierMetaKey = "global_identifier_values"

// IdentifierReader loads the external identifier map of one product.
type IdentifierReader interface {
	ReadIdentifiers(ctx context.Context, productID uint64) (map[string]string, error)
}

type IdentifierReaderFunc func(ctx context.Context, productID uint64) (map[string]string, error)

func (f IdentifierReaderFunc) ReadIdentifiers(ctx context.Context, productID uint64) (map[string]string, error) {
	return f(ctx, productID)
}

// ProductSource is the subset of the product store MetaIdentifierReader needs.
type ProductSource interface {
	GetProduct(ctx context.Context, id uint64) (domain.Product, bool, error)
}

// MetaIdentifierReader reads the identifier map from a product's custom field.
type MetaIdentifierReader struct {
	Products ProductSource
	Key      string
}

func (r MetaIdentifierReader) ReadIdentifiers(ctx context.Context, productID uint64) (map[string]string, error) {
	p, ok, err := r.Products.GetProduct(ctx, productID)
	if err != nil || !ok {
		return nil, err
	}

	key := r.Key
	if key == "" {
		key = GlobalIdentifierMetaKey
	}
	raw := p.MetaValue(key)
	if raw == "" {
		return nil, nil
	}

	var out map[string]string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// gtin candidates, most specific first
var gtinKeys = []string{"isbn", "gtin8", "gtin12", "gtin13", "gtin14"}

// GlobalIdentifiers supplies gtin and mpn from an IdentifierReader. The map
// is read at most once per product per Scope.
type GlobalIdentifiers struct {
	Reader IdentifierReader
}

func (g GlobalIdentifiers) GTIN(s *Scope, p domain.Product) (string, bool) {
	ids := g.identifiers(s, p)
	for _, k := range gtinKeys {
		if v := strings.TrimSpace(ids[k]); v != "" {
			return v, true
		}
	}
	return "", false
}

func (g GlobalIdentifiers) MPN(s *Scope, p domain.Product) (string, bool) {
	v := strings.TrimSpace(g.identifiers(s, p)[MPN])
	return v, v != ""
}

// Register appends the gtin and mpn providers to r.
func (g GlobalIdentifiers) Register(r *Registry) error {
	if err := r.RegisterProvider(GTIN, g.GTIN); err != nil {
		return err
	}
	return r.RegisterProvider(MPN, g.MPN)
}

func (g GlobalIdentifiers) identifiers(s *Scope, p domain.Product) map[string]string {
	if g.Reader == nil {
		return nil
	}

	key := "global_identifiers:" + strconv.FormatUint(p.ID, 10)
	ids, err := Remember(s, key, func() (map[string]string, error) {
		return g.Reader.ReadIdentifiers(s.Context(), p.ID)
	})
	if err != nil {
		s.Logger().WithFields(logrus.Fields{"product_id": p.ID}).WithError(err).Debug("global identifiers unavailable")
		return nil
	}
	return ids
}
