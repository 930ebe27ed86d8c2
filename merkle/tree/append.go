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
)

// AddLeaf appends a leaf labelled id with hash HashLeaf(data) without
// rebuilding the tree.
//
// Starting at the root, the insertion descends into the child with fewer
// leaves, preferring the left child on ties. The leaf it reaches is
// replaced by a new internal node whose children are that leaf and the new
// one, and hashes are recomputed on the way back up. The resulting shape
// generally differs from what Build produces over the same leaves, and so
// does the root hash.
//
// ErrDuplicateIdentifier is returned, and the tree left unchanged, if id is
// already present. Unlike Build, AddLeaf never renames.
func (t *Tree) AddLeaf(id string, data []byte) error {
	if _, ok := t.index[id]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateIdentifier, id)
	}
	leaf := t.newLeaf(t.hasher.HashLeaf(data), id)
	t.index[id] = leaf
	if t.root == nilHandle {
		t.root = leaf
		return nil
	}
	t.root = t.insert(t.root, leaf)
	t.nodes[t.root].parent = nilHandle
	return nil
}

// insert places leaf below the subtree rooted at h and returns the handle
// which now roots that subtree.
func (t *Tree) insert(h, leaf handle) handle {
	if t.nodes[h].kind == kindLeaf {
		return t.newInternal(h, leaf)
	}
	n := &t.nodes[h]
	if t.nodes[n.left].leaves <= t.nodes[n.right].leaves {
		child := t.insert(n.left, leaf)
		// The arena may have grown, so n is stale.
		n = &t.nodes[h]
		n.left = child
		t.nodes[child].parent = h
	} else {
		child := t.insert(n.right, leaf)
		n = &t.nodes[h]
		n.right = child
		t.nodes[child].parent = h
	}
	n.hash = t.hasher.HashChildren(t.nodes[n.left].hash, t.nodes[n.right].hash)
	n.leaves = t.nodes[n.left].leaves + t.nodes[n.right].leaves
	return h
}
