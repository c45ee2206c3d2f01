package ingest

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/ETAnderson/catalogfeed/internal/domain"
)

// MaxProducts bounds the snapshots accepted in one request.
const MaxProducts = 5000

// maxLine bounds one NDJSON line.
const maxLine = 10 << 20

var ErrTooManyProducts = fmt.Errorf("more than %d products in one request", MaxProducts)

type UnknownKeyWarning struct {
	UnknownKeys []string `json:"unknown_keys"`
}

type ParseResult struct {
	Products []domain.Product
	Warnings UnknownKeyWarning

	// Rejected holds NDJSON lines that could not be decoded.
	Rejected []ProductProcessResult
}

// keySet collects unknown top-level keys across a request.
type keySet map[string]struct{}

func (s keySet) merge(other keySet) {
	for k := range other {
		s[k] = struct{}{}
	}
}

func (s keySet) warning() UnknownKeyWarning {
	return UnknownKeyWarning{UnknownKeys: SortedUnknownKeys(s)}
}

// ParseProductsAllowUnknown decodes a JSON array of product snapshots.
// Keys the Product type does not know about are collected as warnings
// instead of failing the request; a known key with the wrong type does fail.
func ParseProductsAllowUnknown(body []byte) (ParseResult, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil {
		return ParseResult{}, err
	}
	if items == nil {
		return ParseResult{}, errors.New("body must be a JSON array of products")
	}
	if len(items) > MaxProducts {
		return ParseResult{}, ErrTooManyProducts
	}

	unknown := keySet{}
	products := make([]domain.Product, 0, len(items))
	for i, raw := range items {
		p, keys, err := ParseProductObjectAllowUnknown(raw)
		if err != nil {
			return ParseResult{}, fmt.Errorf("product %d: %w", i, err)
		}
		unknown.merge(keys)
		products = append(products, p)
	}

	return ParseResult{Products: products, Warnings: unknown.warning()}, nil
}

// ParseNDJSON decodes one product object per line. Blank lines are skipped.
// A line that does not decode becomes a rejected result naming the line and
// does not fail the request.
func ParseNDJSON(r io.Reader) (ParseResult, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), maxLine)

	unknown := keySet{}
	var res ParseResult
	for line := 1; sc.Scan(); line++ {
		b := bytes.TrimSpace(sc.Bytes())
		if len(b) == 0 {
			continue
		}
		if len(res.Products)+len(res.Rejected) >= MaxProducts {
			return ParseResult{}, ErrTooManyProducts
		}

		p, keys, err := ParseProductObjectAllowUnknown(b)
		if err != nil {
			res.Rejected = append(res.Rejected, ProductProcessResult{
				Disposition: domain.ProductDispositionRejected,
				Reason:      ReasonUndecodableLine,
				Issues: []ValidationIssue{
					{Path: fmt.Sprintf("$[line %d]", line), Code: "invalid_json", Message: err.Error()},
				},
			})
			continue
		}
		unknown.merge(keys)
		res.Products = append(res.Products, p)
	}
	if err := sc.Err(); err != nil {
		return ParseResult{}, err
	}

	res.Warnings = unknown.warning()
	return res, nil
}

// ParseProductObjectAllowUnknown decodes a single product object and reports
// its unknown top-level keys, trimmed of surrounding whitespace.
func ParseProductObjectAllowUnknown(obj []byte) (domain.Product, map[string]struct{}, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(obj, &fields); err != nil {
		return domain.Product{}, nil, err
	}

	var p domain.Product
	if err := json.Unmarshal(obj, &p); err != nil {
		return domain.Product{}, nil, err
	}

	known := knownTopLevelKeys()
	unknown := keySet{}
	for key := range fields {
		if _, ok := known[key]; ok {
			continue
		}
		if k := strings.TrimSpace(key); k != "" {
			unknown[k] = struct{}{}
		}
	}
	return p, unknown, nil
}

var knownTopLevelKeys = sync.OnceValue(func() map[string]struct{} {
	t := reflect.TypeOf(domain.Product{})
	keys := make(map[string]struct{}, t.NumField())
	for i := range t.NumField() {
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
		if name != "" && name != "-" {
			keys[name] = struct{}{}
		}
	}
	return keys
})

// SortedUnknownKeys never returns nil so warnings always encode as a list.
func SortedUnknownKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
