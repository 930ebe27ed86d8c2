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

// Package proof defines inclusion proofs for sorted-pair Merkle trees and
// their stateless verification.
package proof

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/transparency-dev/merkle"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Side records on which side of the parent a proof sibling sits.
type Side byte

const (
	// Left means the sibling is the left child of the parent.
	Left Side = 'l'
	// Right means the sibling is the right child of the parent.
	Right Side = 'r'
)

func (s Side) String() string {
	switch s {
	case Left:
		return "l"
	case Right:
		return "r"
	}
	return fmt.Sprintf("Side(%d)", byte(s))
}

func parseSide(s string) (Side, error) {
	switch s {
	case "l":
		return Left, nil
	case "r":
		return Right, nil
	}
	return 0, status.Errorf(codes.InvalidArgument, "invalid proof side %q", s)
}

// Entry is one step of an inclusion proof.
type Entry struct {
	// Hash is the digest of the sibling node.
	Hash []byte
	// Side is structural metadata only. Verification does not use it,
	// since interior hashes do not depend on child order.
	Side Side
}

// Path is an inclusion proof: sibling hashes ordered from the leaf up to
// the root.
type Path []Entry

// Verify reports whether data is included in the tree with the given root,
// using the sibling hashes of path. Verification is stateless.
//
// An empty path never verifies, including for single-leaf trees where the
// root is the leaf hash itself. Such trees can be checked by comparing
// hasher.HashLeaf(data) with the root directly.
//
// The hasher must combine children independently of their order, such as
// sortedpair.Hasher.
func Verify(hasher merkle.LogHasher, data []byte, path Path, root []byte) bool {
	return VerifyLeafHash(hasher, hasher.HashLeaf(data), path, root)
}

// VerifyLeafHash is like Verify but takes a precomputed leaf hash.
func VerifyLeafHash(hasher merkle.LogHasher, leafHash []byte, path Path, root []byte) bool {
	if len(path) == 0 || len(root) == 0 {
		return false
	}
	return bytes.Equal(RootFromLeafHash(hasher, leafHash, path), root)
}

// RootFromLeafHash folds the path into leafHash and returns the implied
// root hash.
func RootFromLeafHash(hasher merkle.LogHasher, leafHash []byte, path Path) []byte {
	current := leafHash
	for _, e := range path {
		current = hasher.HashChildren(current, e.Hash)
	}
	return current
}

// MarshalText encodes the path as one "<hex hash> <side>" line per entry.
func (p Path) MarshalText() ([]byte, error) {
	var b bytes.Buffer
	for _, e := range p {
		fmt.Fprintf(&b, "%x %s\n", e.Hash, e.Side)
	}
	return b.Bytes(), nil
}

// UnmarshalText decodes a path written by MarshalText. Blank lines are
// ignored.
func (p *Path) UnmarshalText(text []byte) error {
	var out Path
	for i, line := range strings.Split(string(text), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return status.Errorf(codes.InvalidArgument, "proof line %d: want \"<hash> <side>\", got %q", i+1, line)
		}
		e, err := newEntry(fields[0], fields[1])
		if err != nil {
			return fmt.Errorf("proof line %d: %w", i+1, err)
		}
		out = append(out, e)
	}
	*p = out
	return nil
}

type jsonEntry struct {
	Hash string `json:"hash"`
	Side string `json:"side"`
}

// MarshalJSON encodes the path as a list of {"hash", "side"} objects.
func (p Path) MarshalJSON() ([]byte, error) {
	entries := make([]jsonEntry, 0, len(p))
	for _, e := range p {
		entries = append(entries, jsonEntry{Hash: hex.EncodeToString(e.Hash), Side: e.Side.String()})
	}
	return json.Marshal(entries)
}

// UnmarshalJSON decodes a path written by MarshalJSON.
func (p *Path) UnmarshalJSON(data []byte) error {
	var entries []jsonEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return status.Errorf(codes.InvalidArgument, "malformed proof: %v", err)
	}
	out := make(Path, 0, len(entries))
	for i, je := range entries {
		e, err := newEntry(je.Hash, je.Side)
		if err != nil {
			return fmt.Errorf("proof entry %d: %w", i, err)
		}
		out = append(out, e)
	}
	*p = out
	return nil
}

func newEntry(hexHash, side string) (Entry, error) {
	h, err := hex.DecodeString(hexHash)
	if err != nil || len(h) == 0 {
		return Entry{}, status.Errorf(codes.InvalidArgument, "invalid sibling hash %q", hexHash)
	}
	s, err := parseSide(side)
	if err != nil {
		return Entry{}, err
	}
	return Entry{Hash: h, Side: s}, nil
}
