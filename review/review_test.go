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

package review

import (
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestEncode(t *testing.T) {
	r := Review{
		ID:         "A1_P1_1000000",
		ProductID:  "P1",
		ReviewerID: "A1",
		Text:       "Great product",
		Summary:    "Good",
		Rating:     5,
		Time:       "1000000",
	}
	want := "reviewID: A1_P1_1000000\n" +
		"asin: P1\n" +
		"reviewerID: A1\n" +
		"reviewText: Great product\n" +
		"summary: Good\n" +
		"overall: 5\n" +
		"unixReviewTime: 1000000"
	if got := string(r.Encode()); got != want {
		t.Errorf("Encode()=%q, want %q", got, want)
	}
}

func TestFormatRating(t *testing.T) {
	for _, tc := range []struct {
		in   float64
		want string
	}{
		{in: 0, want: "0"},
		{in: 4, want: "4"},
		{in: 4.5, want: "4.5"},
		{in: 3.14159265, want: "3.14159"},
		{in: 1000000, want: "1e+06"},
	} {
		if got := FormatRating(tc.in); got != tc.want {
			t.Errorf("FormatRating(%v)=%q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParse(t *testing.T) {
	for _, tc := range []struct {
		desc    string
		line    string
		want    Review
		wantErr bool
	}{
		{
			desc: "numeric-time",
			line: `{"reviewerID":" A1 ","asin":"P1","reviewText":"  nice\n","summary":"ok","overall":4.0,"unixReviewTime":1000000}`,
			want: Review{ID: "A1_P1_1000000", ProductID: "P1", ReviewerID: "A1", Text: "nice", Summary: "ok", Rating: 4, Time: "1000000"},
		},
		{
			desc: "string-time",
			line: `{"reviewerID":"A2","asin":"P1","reviewText":"x","overall":2,"unixReviewTime":"1000001"}`,
			want: Review{ID: "A2_P1_1000001", ProductID: "P1", ReviewerID: "A2", Text: "x", Rating: 2, Time: "1000001"},
		},
		{
			desc: "string-rating",
			line: `{"reviewerID":"A3","asin":"P2","reviewText":"x","overall":"5","unixReviewTime":7}`,
			want: Review{ID: "A3_P2_7", ProductID: "P2", ReviewerID: "A3", Text: "x", Time: "7"},
		},
		{
			desc: "missing-fields",
			line: `{"reviewText":"only text"}`,
			want: Review{ID: "__", Text: "only text"},
		},
		{
			desc:    "not-json",
			line:    `{"reviewerID":`,
			wantErr: true,
		},
		{
			desc:    "wrong-type",
			line:    `{"reviewerID":12,"reviewText":"x"}`,
			wantErr: true,
		},
		{
			desc:    "bool-time",
			line:    `{"reviewText":"x","unixReviewTime":true}`,
			wantErr: true,
		},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			got, err := Parse([]byte(tc.line))
			if gotErr := err != nil; gotErr != tc.wantErr {
				t.Fatalf("Parse()=%v, wantErr %v", err, tc.wantErr)
			}
			if err != nil {
				if !errors.Is(err, ErrMalformed) {
					t.Errorf("Parse() error %v is not ErrMalformed", err)
				}
				return
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("Parse() diff (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	input := strings.Join([]string{
		`{"reviewerID":"A1","asin":"P1","reviewText":"one","overall":5,"unixReviewTime":1000000}`,
		``,
		`   `,
		`not json`,
		`{"reviewerID":"A2","asin":"P1","reviewText":"   ","overall":3,"unixReviewTime":1000001}`,
		`{"reviewerID":"A1","asin":"P1","reviewText":"again","overall":1,"unixReviewTime":1000000}`,
		`{"reviewerID":"A3","asin":"P2","reviewText":"three","overall":4,"unixReviewTime":1000002}`,
	}, "\n")

	rs, st, err := Load(strings.NewReader(input), 0)
	if err != nil {
		t.Fatalf("Load()=%v", err)
	}
	if diff := cmp.Diff(Stats{Loaded: 2, Malformed: 1, EmptyText: 1, Duplicates: 1}, st); diff != "" {
		t.Errorf("Stats diff (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"A1_P1_1000000", "A3_P2_1000002"}, IDs(rs)); diff != "" {
		t.Errorf("IDs diff (-want +got):\n%s", diff)
	}
	if got, want := rs[0].Text, "one"; got != want {
		t.Errorf("first duplicate should win: Text=%q, want %q", got, want)
	}

	rs, _, err = Load(strings.NewReader(input), 1)
	if err != nil {
		t.Fatalf("Load(max=1)=%v", err)
	}
	if got := len(rs); got != 1 {
		t.Errorf("Load(max=1) returned %d reviews", got)
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, _, err := LoadFile(t.TempDir()+"/absent.json", 0); err == nil {
		t.Error("LoadFile(absent) succeeded")
	}
}

func TestLoadFileEmpty(t *testing.T) {
	path := t.TempDir() + "/empty.json"
	if err := writeFile(path, "\n\n"); err != nil {
		t.Fatal(err)
	}
	_, _, err := LoadFile(path, 0)
	if !errors.Is(err, ErrEmptyDataset) {
		t.Errorf("LoadFile(empty)=%v, want ErrEmptyDataset", err)
	}
	if got, want := status.Code(err), codes.InvalidArgument; got != want {
		t.Errorf("status.Code=%v, want %v", got, want)
	}
}

func TestEncodingsAndByProduct(t *testing.T) {
	rs := []Review{
		{ID: "a", ProductID: "P1"},
		{ID: "b", ProductID: "P2"},
		{ID: "c", ProductID: "P1"},
	}
	enc := Encodings(rs)
	if len(enc) != 3 || string(enc[1]) != string(rs[1].Encode()) {
		t.Errorf("Encodings() mismatch: %q", enc)
	}
	want := map[string][]string{"P1": {"a", "c"}, "P2": {"b"}}
	if diff := cmp.Diff(want, ByProduct(rs)); diff != "" {
		t.Errorf("ByProduct diff (-want +got):\n%s", diff)
	}
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}
