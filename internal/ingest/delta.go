package ingest

import "github.com/ETAnderson/catalogfeed/internal/domain"

// Reasons attached to a product's disposition.
const (
	ReasonNewProduct      = "new_product"
	ReasonContentChanged  = "content_changed"
	ReasonNoChange        = "no_change_detected"
	ReasonForced          = "forced_rebuild"
	ReasonChildChanged    = "child_changed"
	ReasonDuplicate       = "duplicate_in_batch"
	ReasonBaseInvalid     = "base_validation_failed"
	ReasonChannelInvalid  = "channel_validation_failed"
	ReasonUndecodableLine = "invalid_json_line"
)

type DeltaDecision struct {
	Disposition domain.ProductDisposition `json:"disposition"`
	Reason      string                    `json:"reason"`
}

func (d DeltaDecision) Enqueued() bool {
	return d.Disposition == domain.ProductDispositionEnqueued
}

// ComputeDisposition compares the stored hash of a product with the hash of
// its incoming snapshot. An empty previous hash means the product is new.
func ComputeDisposition(previousHash string, currentHash string) DeltaDecision {
	switch previousHash {
	case "":
		return DeltaDecision{Disposition: domain.ProductDispositionEnqueued, Reason: ReasonNewProduct}
	case currentHash:
		return DeltaDecision{Disposition: domain.ProductDispositionUnchanged, Reason: ReasonNoChange}
	default:
		return DeltaDecision{Disposition: domain.ProductDispositionEnqueued, Reason: ReasonContentChanged}
	}
}

// ForceDisposition enqueues a product even when its content is unchanged,
// e.g. after the feed settings changed.
func ForceDisposition(previousHash string, currentHash string) DeltaDecision {
	d := ComputeDisposition(previousHash, currentHash)
	if !d.Enqueued() {
		d = DeltaDecision{Disposition: domain.ProductDispositionEnqueued, Reason: ReasonForced}
	}
	return d
}
