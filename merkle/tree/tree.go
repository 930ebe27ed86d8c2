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

// Package tree provides an in-memory Merkle tree over labelled leaves,
// built with a sorted-pair hasher.
//
// Nodes live in an arena and refer to each other by handle. Children are
// owned by their parent; the parent handle stored in each node is only an
// observer used to walk from a leaf up to the root when building proofs.
//
// A Tree is not safe for concurrent mutation. Read-only operations
// (RootHash, InclusionProof, LeafHash, Contains) may run in parallel as long
// as no Build or AddLeaf is in progress on the same Tree.
package tree

import (
	"fmt"

	"github.com/transparency-dev/merkle"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	// ErrEmptyTree is returned by operations which need a root when the
	// tree has no leaves.
	ErrEmptyTree = status.Error(codes.FailedPrecondition, "tree is empty")
	// ErrSizeMismatch is returned by Build when the identifier and data
	// slices have different lengths.
	ErrSizeMismatch = status.Error(codes.InvalidArgument, "identifier and data counts differ")
	// ErrDuplicateIdentifier is returned by AddLeaf when the identifier is
	// already present.
	ErrDuplicateIdentifier = status.Error(codes.InvalidArgument, "identifier already exists")
	// ErrNotFound is returned when an identifier is not in the tree.
	ErrNotFound = status.Error(codes.NotFound, "identifier not found")
)

// handle addresses a node in the arena.
type handle int32

const nilHandle handle = -1

type kind uint8

const (
	kindLeaf kind = iota + 1
	kindInternal
)

// node is a tagged variant: leaves carry a label, internal nodes carry two
// child handles. A padding node has the same handle as both children.
type node struct {
	kind   kind
	hash   []byte
	label  string
	left   handle
	right  handle
	parent handle
	// leaves counts the leaves below this node, following the structure,
	// so a self-paired child is counted twice.
	leaves int
}

// Tree is a Merkle tree over uniquely labelled leaves.
type Tree struct {
	hasher merkle.LogHasher
	nodes  []node
	root   handle
	index  map[string]handle

	renamed    int
	renamedIDs map[string]int
}

// New returns an empty tree using hasher to compute node hashes.
func New(hasher merkle.LogHasher) *Tree {
	return &Tree{
		hasher: hasher,
		root:   nilHandle,
		index:  make(map[string]handle),
	}
}

// Hasher returns the hasher used by the tree.
func (t *Tree) Hasher() merkle.LogHasher {
	return t.hasher
}

// RootHash returns the root hash of the tree, or ErrEmptyTree.
func (t *Tree) RootHash() ([]byte, error) {
	if t.root == nilHandle {
		return nil, ErrEmptyTree
	}
	return t.nodes[t.root].hash, nil
}

// Empty reports whether the tree has no leaves.
func (t *Tree) Empty() bool {
	return t.root == nilHandle
}

// LeafCount returns the number of uniquely labelled leaves.
func (t *Tree) LeafCount() int {
	return len(t.index)
}

// Contains reports whether a leaf with the given identifier exists.
func (t *Tree) Contains(id string) bool {
	_, ok := t.index[id]
	return ok
}

// LeafHash returns the hash of the leaf with the given identifier.
func (t *Tree) LeafHash(id string) ([]byte, error) {
	h, ok := t.index[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return t.nodes[h].hash, nil
}

// Renamed returns the number of duplicate identifiers renamed by Build.
func (t *Tree) Renamed() int {
	return t.renamed
}

// RenamedIDs returns, for each identifier that occurred more than once in
// the input of Build, how many of its occurrences were renamed.
func (t *Tree) RenamedIDs() map[string]int {
	r := make(map[string]int, len(t.renamedIDs))
	for k, v := range t.renamedIDs {
		r[k] = v
	}
	return r
}

// Height returns the number of edges on the longest root-to-leaf path.
func (t *Tree) Height() int {
	if t.root == nilHandle {
		return 0
	}
	return t.height(t.root)
}

func (t *Tree) height(h handle) int {
	n := &t.nodes[h]
	if n.kind == kindLeaf {
		return 0
	}
	l := t.height(n.left)
	if n.right == n.left {
		return l + 1
	}
	return max(l, t.height(n.right)) + 1
}

func (t *Tree) newLeaf(hash []byte, label string) handle {
	t.nodes = append(t.nodes, node{
		kind:   kindLeaf,
		hash:   hash,
		label:  label,
		left:   nilHandle,
		right:  nilHandle,
		parent: nilHandle,
		leaves: 1,
	})
	return handle(len(t.nodes) - 1)
}

func (t *Tree) newInternal(left, right handle) handle {
	t.nodes = append(t.nodes, node{
		kind:   kindInternal,
		hash:   t.hasher.HashChildren(t.nodes[left].hash, t.nodes[right].hash),
		left:   left,
		right:  right,
		parent: nilHandle,
		leaves: t.nodes[left].leaves + t.nodes[right].leaves,
	})
	h := handle(len(t.nodes) - 1)
	t.nodes[left].parent = h
	t.nodes[right].parent = h
	return h
}
