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

// Package tamper simulates corruption of a review dataset and classifies how
// the corruption shows up against a committed Merkle tree.
package tamper

import (
	"fmt"
	"math/rand/v2"
	"strconv"

	"github.com/reviewledger/ledger/review"
	"github.com/reviewledger/ledger/util/clock"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"k8s.io/klog/v2"
)

// ErrBadCount is returned when a simulator is asked for an impossible number
// of mutations.
var ErrBadCount = status.Error(codes.InvalidArgument, "invalid mutation count")

// TamperMarker is appended to the text of modified reviews.
const TamperMarker = " [TAMPERED]"

// Simulator produces mutated copies of review slices. Inputs are never
// modified. A Simulator is not safe for concurrent use.
type Simulator struct {
	rng   *rand.Rand
	ts    clock.TimeSource
	fakes int
}

// NewSimulator returns a Simulator drawing from rng and stamping injected
// reviews with times from ts.
func NewSimulator(rng *rand.Rand, ts clock.TimeSource) *Simulator {
	if ts == nil {
		ts = clock.System
	}
	return &Simulator{rng: rng, ts: ts}
}

// NewSeededSimulator returns a Simulator with a deterministic generator.
func NewSeededSimulator(seed uint64, ts clock.TimeSource) *Simulator {
	return NewSimulator(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)), ts)
}

func checkCount(k, limit int, op string) error {
	if k < 0 || k > limit {
		return fmt.Errorf("%w: %s %d of %d reviews", ErrBadCount, op, k, limit)
	}
	return nil
}

// pick returns k distinct random indices below n.
func (s *Simulator) pick(n, k int) []int {
	return s.rng.Perm(n)[:k]
}

// Modify appends TamperMarker to the text of k distinct reviews. It returns
// the new slice and the IDs of the modified reviews.
func (s *Simulator) Modify(records []review.Review, k int) ([]review.Review, []string, error) {
	if err := checkCount(k, len(records), "modify"); err != nil {
		return nil, nil, err
	}
	out := append([]review.Review(nil), records...)
	ids := make([]string, 0, k)
	for _, i := range s.pick(len(out), k) {
		out[i].Text += TamperMarker
		ids = append(ids, out[i].ID)
		klog.V(1).Infof("Modified review: %s", out[i].ID)
	}
	return out, ids, nil
}

// Delete removes k random reviews, keeping the order of the rest. At least
// one review must remain; otherwise the input is returned unchanged with an
// error.
func (s *Simulator) Delete(records []review.Review, k int) ([]review.Review, []string, error) {
	if k >= len(records) {
		klog.Warningf("Cannot delete %d of %d reviews", k, len(records))
		return append([]review.Review(nil), records...), nil, fmt.Errorf("%w: delete %d of %d reviews", ErrBadCount, k, len(records))
	}
	if err := checkCount(k, len(records), "delete"); err != nil {
		return nil, nil, err
	}
	drop := make(map[int]bool, k)
	for _, i := range s.pick(len(records), k) {
		drop[i] = true
	}
	out := make([]review.Review, 0, len(records)-k)
	ids := make([]string, 0, k)
	for i, r := range records {
		if drop[i] {
			ids = append(ids, r.ID)
			klog.V(1).Infof("Deleted review: %s", r.ID)
			continue
		}
		out = append(out, r)
	}
	return out, ids, nil
}

// Inject appends k fabricated reviews with FAKE_USER_<n> reviewers and
// FAKE_PRODUCT_<n> products, n counting up across calls.
func (s *Simulator) Inject(records []review.Review, k int) ([]review.Review, []string, error) {
	if k < 0 {
		return nil, nil, fmt.Errorf("%w: inject %d reviews", ErrBadCount, k)
	}
	out := append(make([]review.Review, 0, len(records)+k), records...)
	ids := make([]string, 0, k)
	for i := 0; i < k; i++ {
		f := s.fake()
		out = append(out, f)
		ids = append(ids, f.ID)
		klog.V(1).Infof("Injected fake review: %s", f.ID)
	}
	return out, ids, nil
}

func (s *Simulator) fake() review.Review {
	s.fakes++
	n := strconv.Itoa(s.fakes)
	r := review.Review{
		ReviewerID: "FAKE_USER_" + n,
		ProductID:  "FAKE_PRODUCT_" + n,
		Text:       "This is a fake injected review for testing tamper detection.",
		Summary:    "Fake Review",
		Rating:     5,
		Time:       strconv.FormatInt(s.ts.Now().Unix(), 10),
	}
	r.ID = review.MakeID(r.ReviewerID, r.ProductID, r.Time)
	return r
}

// ReRate gives k distinct reviews a different whole-star rating between 1
// and 5.
func (s *Simulator) ReRate(records []review.Review, k int) ([]review.Review, []string, error) {
	if err := checkCount(k, len(records), "rerate"); err != nil {
		return nil, nil, err
	}
	out := append([]review.Review(nil), records...)
	ids := make([]string, 0, k)
	for _, i := range s.pick(len(out), k) {
		old := out[i].Rating
		out[i].Rating = s.otherRating(old)
		ids = append(ids, out[i].ID)
		klog.V(1).Infof("Changed rating from %v to %v for review: %s", old, out[i].Rating, out[i].ID)
	}
	return out, ids, nil
}

func (s *Simulator) otherRating(old float64) float64 {
	choices := make([]float64, 0, 5)
	for v := 1.0; v <= 5; v++ {
		if v != old {
			choices = append(choices, v)
		}
	}
	return choices[s.rng.IntN(len(choices))]
}
