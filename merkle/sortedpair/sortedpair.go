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

// Package sortedpair implements a Merkle tree hasher whose interior node
// hash does not depend on the order of the two children.
//
// Leaves are hashed as H(data). Interior nodes are hashed as
// H(min(a, b) || max(a, b)), where min and max compare the child digests
// lexicographically. Swapping the children of a node never changes its
// hash, so an inclusion proof can be checked without knowing on which side
// each sibling sits.
package sortedpair

import (
	"bytes"
	"crypto/sha256"
	"hash"

	"github.com/transparency-dev/merkle"
)

var _ merkle.LogHasher = (*Hasher)(nil)

// DefaultHasher is a SHA-256 based Hasher.
var DefaultHasher = New(sha256.New)

// Hasher implements the sorted-pair tree hasher on top of an arbitrary hash
// function.
type Hasher struct {
	newHash func() hash.Hash
	size    int
}

// New returns a Hasher which uses newHash to create digests.
func New(newHash func() hash.Hash) *Hasher {
	return &Hasher{newHash: newHash, size: newHash().Size()}
}

// EmptyRoot returns the digest of an empty input.
func (h *Hasher) EmptyRoot() []byte {
	return h.newHash().Sum(nil)
}

// HashLeaf returns the leaf hash of data, which is simply its digest.
func (h *Hasher) HashLeaf(data []byte) []byte {
	d := h.newHash()
	d.Write(data)
	return d.Sum(nil)
}

// HashChildren returns the hash of an interior node with children a and b.
// The smaller digest is always written first.
func (h *Hasher) HashChildren(a, b []byte) []byte {
	if bytes.Compare(a, b) > 0 {
		a, b = b, a
	}
	d := h.newHash()
	d.Write(a)
	d.Write(b)
	return d.Sum(nil)
}

// Size returns the number of bytes in output hashes.
func (h *Hasher) Size() int {
	return h.size
}
