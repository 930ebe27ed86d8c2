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

// Package review models product review records and their canonical byte
// encoding, which is what the ledger commits to.
package review

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	// ErrEmptyDataset is returned when a load yields no usable reviews.
	ErrEmptyDataset = status.Error(codes.InvalidArgument, "dataset contains no reviews")
	// ErrMalformed is returned by Parse for input that is not a JSON object
	// with the expected field types.
	ErrMalformed = status.Error(codes.InvalidArgument, "malformed review")
)

// Review is a single product review.
type Review struct {
	// ID is derived from the reviewer, product and time; see MakeID.
	ID         string
	ProductID  string
	ReviewerID string
	Text       string
	Summary    string
	Rating     float64
	// Time is the unix review time as it appeared in the source, which may be
	// empty.
	Time string
}

// MakeID returns the identifier of a review written by reviewer about
// product at unixTime.
func MakeID(reviewer, product, unixTime string) string {
	return reviewer + "_" + product + "_" + unixTime
}

// Encode returns the canonical encoding of r. The field order and layout are
// fixed: roots stored from earlier encodings stop matching if they change.
func (r Review) Encode() []byte {
	var b strings.Builder
	b.WriteString("reviewID: ")
	b.WriteString(r.ID)
	b.WriteString("\nasin: ")
	b.WriteString(r.ProductID)
	b.WriteString("\nreviewerID: ")
	b.WriteString(r.ReviewerID)
	b.WriteString("\nreviewText: ")
	b.WriteString(r.Text)
	b.WriteString("\nsummary: ")
	b.WriteString(r.Summary)
	b.WriteString("\noverall: ")
	b.WriteString(FormatRating(r.Rating))
	b.WriteString("\nunixReviewTime: ")
	b.WriteString(r.Time)
	return []byte(b.String())
}

// FormatRating renders a rating with at most six significant digits.
func FormatRating(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}

// rawReview mirrors the JSON layout of a review line. Numeric fields are kept
// raw since sources disagree on whether they are strings or numbers.
type rawReview struct {
	ReviewerID     *string         `json:"reviewerID"`
	ProductID      *string         `json:"asin"`
	Text           *string         `json:"reviewText"`
	Summary        *string         `json:"summary"`
	Overall        json.RawMessage `json:"overall"`
	UnixReviewTime json.RawMessage `json:"unixReviewTime"`
}

// Parse decodes one JSON review object. Missing fields are left empty, a
// rating that is not a JSON number becomes 0, and string fields are trimmed.
func Parse(line []byte) (Review, error) {
	var raw rawReview
	if err := json.Unmarshal(line, &raw); err != nil {
		return Review{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	t, err := parseTime(raw.UnixReviewTime)
	if err != nil {
		return Review{}, err
	}
	r := Review{
		ProductID:  trim(raw.ProductID),
		ReviewerID: trim(raw.ReviewerID),
		Text:       trim(raw.Text),
		Summary:    trim(raw.Summary),
		Rating:     parseRating(raw.Overall),
		Time:       t,
	}
	r.ID = MakeID(r.ReviewerID, r.ProductID, r.Time)
	return r, nil
}

func trim(s *string) string {
	if s == nil {
		return ""
	}
	return strings.Trim(*s, " \t\n\r")
}

func parseRating(raw json.RawMessage) float64 {
	var v any
	if len(raw) == 0 || json.Unmarshal(raw, &v) != nil {
		return 0
	}
	f, ok := v.(float64)
	if !ok {
		return 0
	}
	return f
}

func parseTime(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("%w: unixReviewTime %s", ErrMalformed, raw)
	}
	if i, err := n.Int64(); err == nil {
		return strconv.FormatInt(i, 10), nil
	}
	f, err := n.Float64()
	if err != nil || math.IsInf(f, 0) {
		return "", fmt.Errorf("%w: unixReviewTime %s", ErrMalformed, raw)
	}
	return strconv.FormatInt(int64(f), 10), nil
}

// IDs returns the identifiers of rs in order.
func IDs(rs []Review) []string {
	ids := make([]string, len(rs))
	for i, r := range rs {
		ids[i] = r.ID
	}
	return ids
}

// Encodings returns the canonical encodings of rs in order.
func Encodings(rs []Review) [][]byte {
	data := make([][]byte, len(rs))
	for i, r := range rs {
		data[i] = r.Encode()
	}
	return data
}
