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

package tree

import (
	"fmt"
	"strconv"

	"github.com/transparency-dev/merkle"
	"k8s.io/klog/v2"
)

// dupSuffix is inserted between an identifier and its disambiguating
// number when Build renames a duplicate.
const dupSuffix = "_dup"

// Build returns a tree over the given leaves, in order. ids[i] labels the
// leaf whose hash is hasher.HashLeaf(data[i]).
//
// Duplicate identifiers are renamed to id + "_dup" + N with the smallest
// N >= 1 that is not taken yet; Renamed reports how many were renamed.
// Each level is paired left to right, and the last node of a level with an
// odd number of nodes is paired with itself.
//
// An empty input yields an empty tree. ErrSizeMismatch is returned if ids
// and data differ in length.
func Build(hasher merkle.LogHasher, ids []string, data [][]byte) (*Tree, error) {
	if len(ids) != len(data) {
		return nil, fmt.Errorf("%w: %d identifiers, %d data entries", ErrSizeMismatch, len(ids), len(data))
	}
	t := New(hasher)
	if len(ids) == 0 {
		return t, nil
	}
	// Leaves followed by at most len-1 internal nodes plus padding.
	t.nodes = make([]node, 0, 2*len(ids)+levels(len(ids)))

	level := make([]handle, 0, len(ids))
	for i, id := range ids {
		label := t.uniqueLabel(id)
		h := t.newLeaf(hasher.HashLeaf(data[i]), label)
		t.index[label] = h
		level = append(level, h)
	}
	if t.renamed > 0 {
		klog.V(1).Infof("Renamed %d duplicate identifiers: %v", t.renamed, t.renamedIDs)
	}

	for len(level) > 1 {
		next := make([]handle, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 < len(level) {
				next = append(next, t.newInternal(level[i], level[i+1]))
			} else {
				next = append(next, t.newInternal(level[i], level[i]))
			}
		}
		level = next
	}
	t.root = level[0]
	klog.V(1).Infof("Built tree with %d leaves, root %x", t.LeafCount(), t.nodes[t.root].hash)
	return t, nil
}

// uniqueLabel returns id, or a renamed version of it if id is already used.
func (t *Tree) uniqueLabel(id string) string {
	if _, ok := t.index[id]; !ok {
		return id
	}
	label := id
	for n := 1; ; n++ {
		label = id + dupSuffix + strconv.Itoa(n)
		if _, ok := t.index[label]; !ok {
			break
		}
	}
	if t.renamedIDs == nil {
		t.renamedIDs = make(map[string]int)
	}
	t.renamedIDs[id]++
	t.renamed++
	return label
}

// levels returns the number of levels above the leaves for n leaves.
func levels(n int) int {
	l := 0
	for ; n > 1; n = (n + 1) / 2 {
		l++
	}
	return l
}
