package ingest

import (
	"github.com/ETAnderson/catalogfeed/internal/domain"
)

// PreviousHashLookup returns the stored normalized hash of a product.
type PreviousHashLookup func(productID uint64) (string, bool, error)

type ProductProcessResult struct {
	ProductID uint64 `json:"product_id"`
	Hash      string `json:"hash,omitempty"`

	Disposition domain.ProductDisposition `json:"disposition"`
	Reason      string                    `json:"reason,omitempty"`

	Issues []ValidationIssue `json:"issues,omitempty"`
}

type ProcessSummary struct {
	Received  int `json:"received"`
	Valid     int `json:"valid"`
	Rejected  int `json:"rejected"`
	Unchanged int `json:"unchanged"`
	Enqueued  int `json:"enqueued"`
	Refreshed int `json:"refreshed"`
}

// ProcessOutput has one Products entry per input snapshot, in input order.
// Refreshed lists stored variable parents that were not in the batch but
// must be rebuilt because one of their variations changed.
type ProcessOutput struct {
	Summary   ProcessSummary         `json:"summary"`
	Products  []ProductProcessResult `json:"products"`
	Refreshed []ProductProcessResult `json:"refreshed,omitempty"`
}

// Enqueued returns every product the run has to build.
func (o ProcessOutput) Enqueued() []ProductProcessResult {
	var out []ProductProcessResult
	for _, r := range o.Products {
		if r.Disposition == domain.ProductDispositionEnqueued {
			out = append(out, r)
		}
	}
	return append(out, o.Refreshed...)
}

type Processor struct {
	Hasher Hasher

	// Force enqueues valid products whose content did not change.
	Force bool
}

func NewProcessor() Processor {
	return Processor{Hasher: Hasher{}}
}

// ProcessProducts validates each snapshot and decides, by content hash,
// whether its feed items need rebuilding. A variable parent's item carries
// the cheapest variation price, so a changed variation also enqueues its
// parent.
func (p Processor) ProcessProducts(products []domain.Product, enabledChannels []string, lookup PreviousHashLookup) (ProcessOutput, error) {
	out := ProcessOutput{
		Summary:  ProcessSummary{Received: len(products)},
		Products: make([]ProductProcessResult, 0, len(products)),
	}

	seen := make(map[uint64]int, len(products)) // product id -> index in out.Products
	changedParents := make([]uint64, 0)

	for _, prod := range products {
		res := p.processOne(prod, enabledChannels, seen)

		if res.Disposition != domain.ProductDispositionRejected {
			prev, err := previousHash(lookup, prod.ID)
			if err != nil {
				return ProcessOutput{}, err
			}
			decision := ComputeDisposition(prev, res.Hash)
			if p.Force {
				decision = ForceDisposition(prev, res.Hash)
			}
			res.Disposition, res.Reason = decision.Disposition, decision.Reason

			if decision.Enqueued() && prod.Kind == domain.KindVariation && prod.ParentID != 0 {
				changedParents = append(changedParents, prod.ParentID)
			}
			seen[prod.ID] = len(out.Products)
		}

		out.Products = append(out.Products, res)
	}

	refreshed := make(map[uint64]bool)
	for _, parentID := range changedParents {
		if refreshed[parentID] {
			continue
		}
		refreshed[parentID] = true

		if i, ok := seen[parentID]; ok {
			if out.Products[i].Disposition == domain.ProductDispositionUnchanged {
				out.Products[i].Disposition = domain.ProductDispositionEnqueued
				out.Products[i].Reason = ReasonChildChanged
			}
			continue
		}

		prev, err := previousHash(lookup, parentID)
		if err != nil {
			return ProcessOutput{}, err
		}
		if prev == "" {
			// parent not stored yet; it is built once it arrives
			continue
		}
		out.Refreshed = append(out.Refreshed, ProductProcessResult{
			ProductID:   parentID,
			Hash:        prev,
			Disposition: domain.ProductDispositionEnqueued,
			Reason:      ReasonChildChanged,
		})
	}

	for _, r := range out.Products {
		switch r.Disposition {
		case domain.ProductDispositionRejected:
			out.Summary.Rejected++
		case domain.ProductDispositionUnchanged:
			out.Summary.Valid++
			out.Summary.Unchanged++
		case domain.ProductDispositionEnqueued:
			out.Summary.Valid++
			out.Summary.Enqueued++
		}
	}
	out.Summary.Refreshed = len(out.Refreshed)

	return out, nil
}

// processOne validates and hashes prod. The returned result is either
// rejected or carries the hash with the disposition still to be decided.
func (p Processor) processOne(prod domain.Product, enabledChannels []string, seen map[uint64]int) ProductProcessResult {
	res := ProductProcessResult{ProductID: prod.ID}

	reject := func(reason string, issues []ValidationIssue) ProductProcessResult {
		res.Disposition = domain.ProductDispositionRejected
		res.Reason = reason
		res.Issues = append(res.Issues, issues...)
		return res
	}

	if base := ValidateProductBase(prod); !base.IsValid() {
		return reject(ReasonBaseInvalid, base.Issues)
	}
	if _, dup := seen[prod.ID]; dup {
		return reject(ReasonDuplicate, []ValidationIssue{
			{Path: "$.id", Code: "duplicate", Message: "product id appears more than once in the batch"},
		})
	}
	if ch := ValidateChannelRequirements(prod, enabledChannels); !ch.IsValid() {
		return reject(ReasonChannelInvalid, ch.Issues)
	}

	hash, err := p.Hasher.HashNormalized(prod)
	if err != nil {
		return reject("hash_failed", []ValidationIssue{{Path: "$", Code: "hash_failed", Message: err.Error()}})
	}
	res.Hash = hash
	return res
}

func previousHash(lookup PreviousHashLookup, productID uint64) (string, error) {
	if lookup == nil {
		return "", nil
	}
	h, ok, err := lookup(productID)
	if err != nil || !ok {
		return "", err
	}
	return h, nil
}
