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

// Package testonly contains review fixtures for command line tool tests.
package testonly

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/reviewledger/ledger/review"
)

// Reviews returns n distinct reviews spread over three products.
func Reviews(n int) []review.Review {
	rs := make([]review.Review, n)
	for i := range rs {
		r := review.Review{
			ReviewerID: fmt.Sprintf("R%03d", i),
			ProductID:  fmt.Sprintf("P%d", i%3),
			Text:       fmt.Sprintf("Review number %d.", i),
			Summary:    "ok",
			Rating:     float64(i%5 + 1),
			Time:       strconv.Itoa(1300000000 + i),
		}
		r.ID = review.MakeID(r.ReviewerID, r.ProductID, r.Time)
		rs[i] = r
	}
	return rs
}

type line struct {
	ReviewerID     string  `json:"reviewerID"`
	ProductID      string  `json:"asin"`
	Text           string  `json:"reviewText"`
	Summary        string  `json:"summary"`
	Overall        float64 `json:"overall"`
	UnixReviewTime int64   `json:"unixReviewTime"`
}

// WriteReviews writes rs as JSON lines to dir/name and returns the path.
func WriteReviews(t testing.TB, dir, name string, rs []review.Review) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Create(%s): %v", path, err)
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	for _, r := range rs {
		ts, err := strconv.ParseInt(r.Time, 10, 64)
		if err != nil {
			t.Fatalf("review %s: time %q: %v", r.ID, r.Time, err)
		}
		if err := enc.Encode(line{r.ReviewerID, r.ProductID, r.Text, r.Summary, r.Rating, ts}); err != nil {
			t.Fatalf("Encode(): %v", err)
		}
	}
	return path
}
