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

// Package registry provides a global registry for tree hasher implementations.
package registry

import (
	"crypto/sha256"
	"fmt"
	"hash"
	"sort"
	"strings"

	"github.com/reviewledger/ledger/merkle/sortedpair"
	"github.com/zeebo/blake3"
	"golang.org/x/crypto/sha3"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Names of the supported hash functions.
const (
	SHA256   = "SHA256"
	SHA3_256 = "SHA3_256"
	BLAKE3   = "BLAKE3"
)

// Default is the hash function used when none is configured.
const Default = SHA256

var hashFuncs = map[string]func() hash.Hash{
	SHA256:   sha256.New,
	SHA3_256: sha3.New256,
	BLAKE3:   func() hash.Hash { return blake3.New() },
}

// NewHasher returns a sorted-pair hasher built on the named hash function.
// An empty name selects Default. Names are matched case-insensitively.
func NewHasher(name string) (*sortedpair.Hasher, error) {
	if name == "" {
		name = Default
	}
	f, ok := hashFuncs[strings.ToUpper(name)]
	if !ok {
		return nil, status.Errorf(codes.InvalidArgument, "hasher %q is unknown, want one of %v", name, Names())
	}
	return sortedpair.New(f), nil
}

// Names returns the sorted list of supported hash function names.
func Names() []string {
	r := make([]string, 0, len(hashFuncs))
	for k := range hashFuncs {
		r = append(r, k)
	}
	sort.Strings(r)
	return r
}

// MustNewHasher is like NewHasher but panics on unknown names. For tests and
// package level variables.
func MustNewHasher(name string) *sortedpair.Hasher {
	h, err := NewHasher(name)
	if err != nil {
		panic(fmt.Sprintf("registry.MustNewHasher(%q): %v", name, err))
	}
	return h
}
