package ingest

import (
	"testing"

	"github.com/ETAnderson/catalogfeed/internal/domain"
)

func TestComputeDisposition(t *testing.T) {
	cases := []struct {
		name       string
		prev, cur  string
		force      bool
		want       domain.ProductDisposition
		wantReason string
	}{
		{"new", "", "abc", false, domain.ProductDispositionEnqueued, ReasonNewProduct},
		{"unchanged", "abc", "abc", false, domain.ProductDispositionUnchanged, ReasonNoChange},
		{"changed", "abc", "def", false, domain.ProductDispositionEnqueued, ReasonContentChanged},
		{"forced unchanged", "abc", "abc", true, domain.ProductDispositionEnqueued, ReasonForced},
		{"forced keeps real reason", "abc", "def", true, domain.ProductDispositionEnqueued, ReasonContentChanged},
		{"forced new", "", "abc", true, domain.ProductDispositionEnqueued, ReasonNewProduct},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := ComputeDisposition(tc.prev, tc.cur)
			if tc.force {
				d = ForceDisposition(tc.prev, tc.cur)
			}
			if d.Disposition != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, d.Disposition)
			}
			if d.Reason != tc.wantReason {
				t.Fatalf("expected reason %s, got %s", tc.wantReason, d.Reason)
			}
			if d.Enqueued() != (tc.want == domain.ProductDispositionEnqueued) {
				t.Fatalf("Enqueued() disagrees with disposition %s", d.Disposition)
			}
		})
	}
}
