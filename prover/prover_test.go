// Copyright 2026 Google LLC. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package prover

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/reviewledger/ledger/merkle/proof"
	"github.com/reviewledger/ledger/merkle/sortedpair"
	"github.com/reviewledger/ledger/merkle/tree"
	"github.com/reviewledger/ledger/monitoring"
	"github.com/reviewledger/ledger/review"
	"github.com/reviewledger/ledger/util/clock"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func reviews(n int) []review.Review {
	rs := make([]review.Review, n)
	for i := range rs {
		r := review.Review{
			ReviewerID: fmt.Sprintf("U%d", i),
			ProductID:  fmt.Sprintf("B%d", i%2),
			Text:       fmt.Sprintf("text %d", i),
			Rating:     4,
			Time:       "1400000000",
		}
		r.ID = review.MakeID(r.ReviewerID, r.ProductID, r.Time)
		rs[i] = r
	}
	return rs
}

func newProver(t *testing.T, rs []review.Review, opts Options) *Prover {
	t.Helper()
	tr, err := tree.Build(sortedpair.DefaultHasher, review.IDs(rs), review.Encodings(rs))
	if err != nil {
		t.Fatalf("Build()=%v", err)
	}
	p := New(tr, nil, opts)
	p.Index(rs)
	return p
}

func TestProveReview(t *testing.T) {
	rs := reviews(5)
	mf := monitoring.InertMetricFactory{}
	p := newProver(t, rs, Options{
		TimeSource:    clock.NewStepping(time.Unix(0, 0), time.Millisecond),
		MetricFactory: mf,
	})

	for _, tc := range []struct {
		id           string
		wantStatus   Status
		wantVerified bool
	}{
		{id: rs[0].ID, wantStatus: Generated, wantVerified: true},
		{id: rs[4].ID, wantStatus: Generated, wantVerified: true},
		{id: "nobody_B0_1", wantStatus: ReviewNotFound},
	} {
		t.Run(tc.id, func(t *testing.T) {
			got := p.ProveReview(tc.id)
			if got.Status != tc.wantStatus || got.Verified != tc.wantVerified {
				t.Fatalf("ProveReview()=%v/%v, want %v/%v", got.Status, got.Verified, tc.wantStatus, tc.wantVerified)
			}
			if got.Elapsed != time.Millisecond {
				t.Errorf("Elapsed=%v, want 1ms", got.Elapsed)
			}
			if got.Status != Generated {
				return
			}
			if len(got.Path) != 3 {
				t.Errorf("len(Path)=%d, want 3", len(got.Path))
			}
			// The returned pieces are enough to verify without the tree.
			if !proof.VerifyLeafHash(sortedpair.DefaultHasher, got.LeafHash, got.Path, got.Root) {
				t.Error("returned proof does not verify")
			}
		})
	}
	if got := p.proofs.Value(Generated.String()); got != 2 {
		t.Errorf("generated counter=%v, want 2", got)
	}
	if got := p.proofs.Value(ReviewNotFound.String()); got != 1 {
		t.Errorf("not found counter=%v, want 1", got)
	}
	if n, _ := p.latency.Info(); n != 2 {
		t.Errorf("latency observations=%d, want 2", n)
	}
}

func TestProveReviewIndexedButNotInTree(t *testing.T) {
	rs := reviews(3)
	p := newProver(t, rs[:2], Options{})
	p.Index(rs)
	got := p.ProveReview(rs[2].ID)
	if got.Status != GenerationFailed || !errors.Is(got.Err, tree.ErrNotFound) {
		t.Errorf("ProveReview()=%v, %v, want GenerationFailed with ErrNotFound", got.Status, got.Err)
	}
}

func TestProveReviewSingleLeaf(t *testing.T) {
	rs := reviews(1)
	p := newProver(t, rs, Options{})
	got := p.ProveReview(rs[0].ID)
	if got.Status != Generated || len(got.Path) != 0 {
		t.Fatalf("ProveReview()=%v with %d entries, want Generated with none", got.Status, len(got.Path))
	}
	if got.Verified {
		t.Error("empty proof verified")
	}
	if !cmp.Equal(got.LeafHash, got.Root) {
		t.Error("single leaf is not the root")
	}
}

func TestProveProduct(t *testing.T) {
	rs := reviews(5)
	p := newProver(t, rs, Options{})
	if got := p.Products(); got != 2 {
		t.Errorf("Products()=%d, want 2", got)
	}
	res, err := p.ProveProduct("B0")
	if err != nil {
		t.Fatalf("ProveProduct()=%v", err)
	}
	var ids []string
	for _, r := range res {
		if !r.Verified {
			t.Errorf("%s not verified", r.ReviewID)
		}
		ids = append(ids, r.ReviewID)
	}
	want := []string{rs[0].ID, rs[2].ID, rs[4].ID}
	if diff := cmp.Diff(want, ids); diff != "" {
		t.Errorf("ProveProduct() IDs diff (-want +got):\n%s", diff)
	}

	_, err = p.ProveProduct("B9")
	if !errors.Is(err, ErrProductNotFound) || status.Code(err) != codes.NotFound {
		t.Errorf("ProveProduct(unknown)=%v, want ErrProductNotFound", err)
	}
}

func TestIndexIgnoresDuplicates(t *testing.T) {
	rs := reviews(2)
	p := newProver(t, rs, Options{})
	p.Index(rs)
	res, err := p.ProveProduct("B0")
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 1 {
		t.Errorf("ProveProduct() returned %d results after re-indexing, want 1", len(res))
	}
}

func TestProveBatch(t *testing.T) {
	rs := reviews(40)
	p := newProver(t, rs, Options{})
	ids := append(review.IDs(rs), "missing")
	res, err := p.ProveBatch(context.Background(), ids)
	if err != nil {
		t.Fatalf("ProveBatch()=%v", err)
	}
	if len(res) != len(ids) {
		t.Fatalf("got %d results, want %d", len(res), len(ids))
	}
	for i, r := range res {
		if r.ReviewID != ids[i] {
			t.Errorf("result %d is for %q, want %q", i, r.ReviewID, ids[i])
		}
	}
	want := Summary{Total: 41, Generated: 40, Verified: 40, NotFound: 1}
	if diff := cmp.Diff(want, Summarize(res), cmp.FilterPath(func(p cmp.Path) bool {
		return p.Last().String() == ".Mean"
	}, cmp.Ignore())); diff != "" {
		t.Errorf("Summarize() diff (-want +got):\n%s", diff)
	}
}

func TestProveBatchCancelled(t *testing.T) {
	rs := reviews(4)
	p := newProver(t, rs, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.ProveBatch(ctx, review.IDs(rs)); !errors.Is(err, context.Canceled) {
		t.Errorf("ProveBatch()=%v, want context.Canceled", err)
	}
}

func TestVerifyExternally(t *testing.T) {
	rs := reviews(6)
	p := newProver(t, rs, Options{})
	gen := p.ProveReview(rs[3].ID)
	data := rs[3].Encode()

	if got := VerifyExternally(sortedpair.DefaultHasher, data, gen.Path, gen.Root); !got.Verified {
		t.Error("VerifyExternally() rejected a valid proof")
	}
	edited := rs[3]
	edited.Text += "!"
	if got := VerifyExternally(sortedpair.DefaultHasher, edited.Encode(), gen.Path, gen.Root); got.Verified {
		t.Error("VerifyExternally() accepted edited data")
	}
	if got := VerifyExternally(sortedpair.DefaultHasher, data, gen.Path, []byte("other")); got.Verified {
		t.Error("VerifyExternally() accepted a wrong root")
	}
}

func TestSummarize(t *testing.T) {
	got := Summarize([]Result{
		{Status: Generated, Verified: true, Elapsed: 2 * time.Millisecond},
		{Status: Generated, Elapsed: 4 * time.Millisecond},
		{Status: ReviewNotFound},
		{Status: GenerationFailed},
	})
	want := Summary{Total: 4, Generated: 2, Verified: 1, NotFound: 1, Failed: 1, Mean: 3 * time.Millisecond}
	if got != want {
		t.Errorf("Summarize()=%+v, want %+v", got, want)
	}
	if s := got.String(); s != "4 requests: 2 generated (1 verified), 1 not found, 1 failed, mean 3ms" {
		t.Errorf("String()=%q", s)
	}
}

func BenchmarkProveReview(b *testing.B) {
	rs := reviews(1024)
	tr, err := tree.Build(sortedpair.DefaultHasher, review.IDs(rs), review.Encodings(rs))
	if err != nil {
		b.Fatal(err)
	}
	p := New(tr, nil, Options{})
	p.Index(rs)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p.ProveReview(rs[i%len(rs)].ID)
	}
}
