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

package integrity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/reviewledger/ledger/merkle/proof"
	"github.com/reviewledger/ledger/merkle/sortedpair"
	"github.com/reviewledger/ledger/merkle/tree"
	"github.com/reviewledger/ledger/monitoring"
	"github.com/reviewledger/ledger/review"
	"github.com/reviewledger/ledger/storage"
	"github.com/reviewledger/ledger/storage/memory"
	"github.com/reviewledger/ledger/util/clock"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var now = time.Unix(1700000000, 0)

func newVerifier() (*Verifier, *clock.FakeTimeSource) {
	ts := clock.NewFake(now)
	return NewVerifier(memory.NewRootStore(), VerifierOptions{TimeSource: ts, MetricFactory: monitoring.InertMetricFactory{}}), ts
}

func TestCompareRoots(t *testing.T) {
	a, b := []byte{1, 2}, []byte{3, 4}
	for _, tc := range []struct {
		a, b []byte
		want RootsStatus
	}{
		{a: a, b: a, want: RootsMatch},
		{a: a, b: []byte{1, 2}, want: RootsMatch},
		{a: a, b: b, want: RootsDiffer},
		{a: nil, b: b, want: RootsError},
		{a: a, b: []byte{}, want: RootsError},
	} {
		if got := CompareRoots(tc.a, tc.b); got != tc.want {
			t.Errorf("CompareRoots(%x, %x)=%v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestCompare(t *testing.T) {
	ctx := context.Background()
	v, _ := newVerifier()
	root, other := []byte{0xaa}, []byte{0xbb}
	if _, err := v.StoreRoot(ctx, "ds", root); err != nil {
		t.Fatalf("StoreRoot()=%v", err)
	}
	for _, tc := range []struct {
		desc      string
		label     string
		candidate []byte
		want      Status
		wantErr   bool
	}{
		{desc: "verified", label: "ds", candidate: root, want: Verified},
		{desc: "violated", label: "ds", candidate: other, want: Violated},
		{desc: "not-found", label: "nope", candidate: root, want: NotFound},
		{desc: "empty", label: "ds", candidate: nil, want: Error, wantErr: true},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			got, err := v.Compare(ctx, tc.label, tc.candidate)
			if gotErr := err != nil; gotErr != tc.wantErr {
				t.Fatalf("Compare()=%v, wantErr %v", err, tc.wantErr)
			}
			if got != tc.want {
				t.Errorf("Compare()=%v, want %v", got, tc.want)
			}
		})
	}
	if got := v.comparisons.Value(Violated.String()); got != 1 {
		t.Errorf("violated comparisons=%v, want 1", got)
	}
}

func TestStoreRootLastWriteWins(t *testing.T) {
	ctx := context.Background()
	v, ts := newVerifier()
	if _, err := v.StoreRoot(ctx, "ds", []byte{1}); err != nil {
		t.Fatal(err)
	}
	ts.Advance(time.Minute)
	rec, err := v.StoreRoot(ctx, "ds", []byte{2})
	if err != nil {
		t.Fatal(err)
	}
	if !rec.Timestamp.Equal(now.Add(time.Minute)) {
		t.Errorf("Timestamp=%v, want %v", rec.Timestamp, now.Add(time.Minute))
	}
	if st, _ := v.Compare(ctx, "ds", []byte{2}); st != Verified {
		t.Errorf("Compare(latest)=%v, want Verified", st)
	}
	if st, _ := v.Compare(ctx, "ds", []byte{1}); st != Violated {
		t.Errorf("Compare(superseded)=%v, want Violated", st)
	}
	h, err := v.History(ctx, "ds")
	if err != nil {
		t.Fatal(err)
	}
	if len(h) != 2 {
		t.Errorf("History() has %d records, want 2", len(h))
	}
}

func TestStoreRootInvalid(t *testing.T) {
	ctx := context.Background()
	v, _ := newVerifier()
	for _, tc := range []struct {
		label string
		root  []byte
	}{
		{label: "ds", root: nil},
		{label: "", root: []byte{1}},
	} {
		_, err := v.StoreRoot(ctx, tc.label, tc.root)
		if got := status.Code(err); got != codes.InvalidArgument {
			t.Errorf("StoreRoot(%q, %x)=%v, want InvalidArgument", tc.label, tc.root, err)
		}
	}
	if got := v.stored.Value(); got != 0 {
		t.Errorf("stored counter=%v, want 0", got)
	}
}

func TestDetectUpdates(t *testing.T) {
	ctx := context.Background()
	v, _ := newVerifier()
	if got, err := v.DetectUpdates(ctx, "ds", []byte{1}); err != nil || got != Unknown {
		t.Errorf("DetectUpdates(before store)=%v, %v; want Unknown", got, err)
	}
	if _, err := v.StoreRoot(ctx, "ds", []byte{1}); err != nil {
		t.Fatal(err)
	}
	if got, _ := v.DetectUpdates(ctx, "ds", []byte{1}); got != NoUpdates {
		t.Errorf("DetectUpdates(same)=%v, want NoUpdates", got)
	}
	if got, _ := v.DetectUpdates(ctx, "ds", []byte{2}); got != UpdateDetected {
		t.Errorf("DetectUpdates(changed)=%v, want UpdateDetected", got)
	}
}

func TestLabelsAndStored(t *testing.T) {
	ctx := context.Background()
	v, _ := newVerifier()
	for _, l := range []string{"zeta", "alpha"} {
		if _, err := v.StoreRoot(ctx, l, []byte{1}); err != nil {
			t.Fatal(err)
		}
	}
	got, err := v.Labels(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"alpha", "zeta"}, got); diff != "" {
		t.Errorf("Labels() diff (-want +got):\n%s", diff)
	}
	if ok, err := v.Stored(ctx, "alpha"); !ok || err != nil {
		t.Errorf("Stored(alpha)=%v, %v", ok, err)
	}
	if ok, err := v.Stored(ctx, "beta"); ok || err != nil {
		t.Errorf("Stored(beta)=%v, %v", ok, err)
	}
}

type brokenStore struct{ storage.RootStore }

func (brokenStore) LatestRoot(context.Context, string) (storage.RootRecord, error) {
	return storage.RootRecord{}, storage.IOError("latest", errors.New("disk on fire"))
}

func TestCompareStoreFailure(t *testing.T) {
	v := NewVerifier(brokenStore{}, VerifierOptions{})
	st, err := v.Compare(context.Background(), "ds", []byte{1})
	if st != Error || !errors.Is(err, storage.ErrIO) {
		t.Errorf("Compare()=%v, %v; want Error, ErrIO", st, err)
	}
	if _, err := v.DetectUpdates(context.Background(), "ds", []byte{1}); !errors.Is(err, storage.ErrIO) {
		t.Errorf("DetectUpdates()=%v, want ErrIO", err)
	}
}

func TestParseRoot(t *testing.T) {
	if got, err := ParseRoot("0aff"); err != nil || !cmp.Equal(got, []byte{0x0a, 0xff}) {
		t.Errorf("ParseRoot(0aff)=%x, %v", got, err)
	}
	for _, in := range []string{"", "xyz", "abc"} {
		if _, err := ParseRoot(in); status.Code(err) != codes.InvalidArgument {
			t.Errorf("ParseRoot(%q)=%v, want InvalidArgument", in, err)
		}
	}
}

// TestThreeReviewScenario walks a small dataset through build, proof,
// edit and root comparison.
func TestThreeReviewScenario(t *testing.T) {
	ctx := context.Background()
	reviews := []review.Review{
		{ID: "A1_P1_1000000", ProductID: "P1", ReviewerID: "A1", Text: "Great", Summary: "good", Rating: 5, Time: "1000000"},
		{ID: "A2_P1_1000001", ProductID: "P1", ReviewerID: "A2", Text: "Fine", Summary: "ok", Rating: 3, Time: "1000001"},
		{ID: "A3_P2_1000002", ProductID: "P2", ReviewerID: "A3", Text: "Bad", Summary: "meh", Rating: 1, Time: "1000002"},
	}
	h := sortedpair.DefaultHasher
	tr, err := tree.Build(h, review.IDs(reviews), review.Encodings(reviews))
	if err != nil {
		t.Fatalf("Build()=%v", err)
	}
	root, err := tr.RootHash()
	if err != nil {
		t.Fatal(err)
	}

	l0, l1, l2 := h.HashLeaf(reviews[0].Encode()), h.HashLeaf(reviews[1].Encode()), h.HashLeaf(reviews[2].Encode())
	wantRoot := h.HashChildren(h.HashChildren(l0, l1), h.HashChildren(l2, l2))
	if !cmp.Equal(root, wantRoot) {
		t.Fatalf("root=%x, want padded root %x", root, wantRoot)
	}

	path, err := tr.InclusionProof("A1_P1_1000000")
	if err != nil {
		t.Fatal(err)
	}
	if !proof.Verify(h, reviews[0].Encode(), path, root) {
		t.Error("proof for A1 does not verify")
	}

	edited := append([]review.Review(nil), reviews...)
	edited[0].Text = "Terrible"
	tr2, err := tree.Build(h, review.IDs(edited), review.Encodings(edited))
	if err != nil {
		t.Fatal(err)
	}
	otherRoot, err := tr2.RootHash()
	if err != nil {
		t.Fatal(err)
	}
	if cmp.Equal(root, otherRoot) {
		t.Fatal("editing A1 did not change the root")
	}

	v, _ := newVerifier()
	if _, err := v.StoreRoot(ctx, "ds", root); err != nil {
		t.Fatal(err)
	}
	if st, _ := v.Compare(ctx, "ds", root); st != Verified {
		t.Errorf("Compare(root)=%v, want Verified", st)
	}
	if st, _ := v.Compare(ctx, "ds", otherRoot); st != Violated {
		t.Errorf("Compare(otherRoot)=%v, want Violated", st)
	}
}
