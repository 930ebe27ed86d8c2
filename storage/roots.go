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

// Package storage defines the persistence interface for committed root
// hashes and a registry of backends implementing it.
package storage

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	// ErrNotFound is returned when no root has been stored under a label.
	ErrNotFound = status.Error(codes.NotFound, "no stored root")
	// ErrIO wraps failures of the underlying storage medium.
	ErrIO = status.Error(codes.Unavailable, "root storage unavailable")
	// ErrInvalidRecord is returned for records that cannot be stored.
	ErrInvalidRecord = status.Error(codes.InvalidArgument, "invalid root record")
)

// RootRecord is one committed root hash. For a given label the most recently
// stored record is the current one.
type RootRecord struct {
	Label     string
	Root      []byte
	Timestamp time.Time
}

// HexRoot returns the root hash as lowercase hex.
func (r RootRecord) HexRoot() string {
	return hex.EncodeToString(r.Root)
}

// String formats r as a root log line: label|hexRoot|unixSeconds.
func (r RootRecord) String() string {
	return fmt.Sprintf("%s|%s|%d", r.Label, r.HexRoot(), r.Timestamp.Unix())
}

// CheckRecord reports whether r can be stored. Labels must be non-empty and
// must not contain the root log separators.
func CheckRecord(r RootRecord) error {
	switch {
	case r.Label == "":
		return fmt.Errorf("%w: empty label", ErrInvalidRecord)
	case strings.ContainsAny(r.Label, "|\r\n"):
		return fmt.Errorf("%w: label %q contains a separator", ErrInvalidRecord, r.Label)
	case len(r.Root) == 0:
		return fmt.Errorf("%w: empty root for %q", ErrInvalidRecord, r.Label)
	}
	return nil
}

// RootStore persists root records. Implementations are safe for concurrent
// use and keep timestamps with second precision.
type RootStore interface {
	// StoreRoot appends r to the store. It becomes the latest record for
	// r.Label.
	StoreRoot(ctx context.Context, r RootRecord) error
	// LatestRoot returns the most recently stored record for label, or an
	// error wrapping ErrNotFound.
	LatestRoot(ctx context.Context, label string) (RootRecord, error)
	// LatestRoots returns the latest record of every label, ordered by label.
	LatestRoots(ctx context.Context) ([]RootRecord, error)
	// History returns every record stored for label, oldest first, or an
	// error wrapping ErrNotFound.
	History(ctx context.Context, label string) ([]RootRecord, error)
	// Close releases the resources held by the store.
	Close() error
}

// NotFound returns an error wrapping ErrNotFound for label.
func NotFound(label string) error {
	return fmt.Errorf("%w: %q", ErrNotFound, label)
}

// IOError wraps err with ErrIO, describing the failed operation.
func IOError(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrIO, op, err)
}
