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

	"github.com/reviewledger/ledger/merkle/proof"
)

// InclusionProof returns the sibling hashes on the path from the leaf
// labelled id up to the root, leaf first. Each entry records on which side
// of the parent the sibling sits.
//
// The proof for the only leaf of a single-leaf tree is empty, and
// proof.Verify rejects empty proofs. ErrNotFound is returned if id is not in
// the tree.
func (t *Tree) InclusionProof(id string) (proof.Path, error) {
	leaf, ok := t.index[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	path := make(proof.Path, 0, t.depthHint())
	for cur := leaf; cur != t.root && t.nodes[cur].parent != nilHandle; {
		p := &t.nodes[t.nodes[cur].parent]
		if p.left == cur {
			path = append(path, proof.Entry{Hash: t.nodes[p.right].hash, Side: proof.Right})
		} else {
			path = append(path, proof.Entry{Hash: t.nodes[p.left].hash, Side: proof.Left})
		}
		cur = t.nodes[cur].parent
	}
	return path, nil
}

func (t *Tree) depthHint() int {
	return levels(len(t.index)) + 1
}

// Levels returns the node hashes of the top maxLevels levels of the tree in
// breadth-first order, root level first. A padding node's single child
// appears twice on the level below it. A non-positive maxLevels returns all
// levels.
func (t *Tree) Levels(maxLevels int) [][][]byte {
	if t.root == nilHandle {
		return nil
	}
	var out [][][]byte
	queue := []handle{t.root}
	for len(queue) > 0 && (maxLevels <= 0 || len(out) < maxLevels) {
		row := make([][]byte, 0, len(queue))
		var next []handle
		for _, h := range queue {
			n := &t.nodes[h]
			row = append(row, n.hash)
			if n.kind == kindInternal {
				next = append(next, n.left, n.right)
			}
		}
		out = append(out, row)
		queue = next
	}
	return out
}
