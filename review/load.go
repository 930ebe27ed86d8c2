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
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"k8s.io/klog/v2"
)

// maxLineSize bounds a single JSON line; review texts can be long.
const maxLineSize = 16 << 20

// Stats describes what a Load call did with its input.
type Stats struct {
	Loaded     int
	Malformed  int
	EmptyText  int
	Duplicates int
}

// Load reads newline separated JSON reviews from r. Blank lines are ignored;
// malformed lines, reviews without text and reviews whose ID was already seen
// are skipped and counted. Reading stops after max reviews when max > 0.
func Load(r io.Reader, max int) ([]Review, Stats, error) {
	var (
		out   []Review
		st    Stats
		seen  = make(map[string]bool)
		lines = 0
	)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for sc.Scan() {
		lines++
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		rv, err := Parse(line)
		if err != nil {
			klog.Warningf("line %d: skipping: %v", lines, err)
			st.Malformed++
			continue
		}
		if rv.Text == "" {
			st.EmptyText++
			continue
		}
		if seen[rv.ID] {
			klog.V(2).Infof("line %d: duplicate review %q", lines, rv.ID)
			st.Duplicates++
			continue
		}
		seen[rv.ID] = true
		out = append(out, rv)
		st.Loaded++
		if st.Loaded%100000 == 0 {
			klog.Infof("Loaded %d reviews...", st.Loaded)
		}
		if max > 0 && st.Loaded >= max {
			break
		}
	}
	if err := sc.Err(); err != nil {
		return out, st, fmt.Errorf("reading reviews: %v", err)
	}
	if st.Duplicates > 0 {
		klog.Infof("Removed %d duplicate reviews", st.Duplicates)
	}
	return out, st, nil
}

// LoadFile is Load over the named file. It fails with ErrEmptyDataset if no
// review survives filtering.
func LoadFile(path string, max int) ([]Review, Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Stats{}, err
	}
	defer f.Close()
	rs, st, err := Load(f, max)
	if err != nil {
		return nil, st, err
	}
	if len(rs) == 0 {
		return nil, st, fmt.Errorf("%w: %s", ErrEmptyDataset, path)
	}
	klog.Infof("Successfully loaded %d reviews from %s", len(rs), path)
	return rs, st, nil
}

// ByProduct groups review IDs by product, preserving input order.
func ByProduct(rs []Review) map[string][]string {
	m := make(map[string][]string)
	for _, r := range rs {
		m[r.ProductID] = append(m[r.ProductID], r.ID)
	}
	return m
}
