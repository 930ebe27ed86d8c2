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

// Package integrity records committed root hashes under dataset labels and
// checks later roots against them.
package integrity

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/reviewledger/ledger/monitoring"
	"github.com/reviewledger/ledger/storage"
	"github.com/reviewledger/ledger/util/clock"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"k8s.io/klog/v2"
)

// ErrEmptyRoot is returned when a root hash argument is empty.
var ErrEmptyRoot = status.Error(codes.InvalidArgument, "empty root hash")

// Status is the outcome of comparing a root with the one stored for a label.
type Status int

// Comparison outcomes.
const (
	Error Status = iota
	Verified
	Violated
	NotFound
)

func (s Status) String() string {
	switch s {
	case Verified:
		return "INTEGRITY_VERIFIED"
	case Violated:
		return "INTEGRITY_VIOLATED"
	case NotFound:
		return "NOT_FOUND"
	default:
		return "ERROR"
	}
}

// RootsStatus is the outcome of comparing two roots directly.
type RootsStatus int

// Pairwise comparison outcomes.
const (
	RootsError RootsStatus = iota
	RootsMatch
	RootsDiffer
)

func (s RootsStatus) String() string {
	switch s {
	case RootsMatch:
		return "ROOTS_MATCH"
	case RootsDiffer:
		return "ROOTS_DIFFER"
	default:
		return "ERROR"
	}
}

// UpdateStatus says whether a dataset changed since its root was stored.
type UpdateStatus int

// Update detection outcomes.
const (
	Unknown UpdateStatus = iota
	NoUpdates
	UpdateDetected
)

func (s UpdateStatus) String() string {
	switch s {
	case NoUpdates:
		return "NO_UPDATES"
	case UpdateDetected:
		return "UPDATE_DETECTED"
	default:
		return "UNKNOWN"
	}
}

// CompareRoots compares two roots without consulting any store. Either root
// being empty is an error outcome.
func CompareRoots(a, b []byte) RootsStatus {
	switch {
	case len(a) == 0 || len(b) == 0:
		return RootsError
	case bytes.Equal(a, b):
		return RootsMatch
	default:
		return RootsDiffer
	}
}

// ParseRoot decodes a hex root hash as found in logs and on command lines.
func ParseRoot(s string) ([]byte, error) {
	if s == "" {
		return nil, ErrEmptyRoot
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "root %q is not hex: %v", s, err)
	}
	return b, nil
}

// VerifierOptions configures a Verifier. Zero values select the system
// clock and inert metrics.
type VerifierOptions struct {
	TimeSource    clock.TimeSource
	MetricFactory monitoring.MetricFactory
}

// Verifier stores roots per label and compares candidates against them.
type Verifier struct {
	store       storage.RootStore
	ts          clock.TimeSource
	stored      monitoring.Counter
	comparisons monitoring.Counter
}

// NewVerifier returns a Verifier persisting roots in store.
func NewVerifier(store storage.RootStore, opts VerifierOptions) *Verifier {
	ts := opts.TimeSource
	if ts == nil {
		ts = clock.System
	}
	mf := opts.MetricFactory
	if mf == nil {
		mf = monitoring.InertMetricFactory{}
	}
	return &Verifier{
		store:       store,
		ts:          ts,
		stored:      mf.NewCounter("roots_stored", "Number of root hashes stored"),
		comparisons: mf.NewCounter("root_comparisons", "Root comparisons by outcome", "status"),
	}
}

// StoreRoot records root as the current root of label. A later call for the
// same label replaces it.
func (v *Verifier) StoreRoot(ctx context.Context, label string, root []byte) (storage.RootRecord, error) {
	if len(root) == 0 {
		return storage.RootRecord{}, fmt.Errorf("%w: label %q", ErrEmptyRoot, label)
	}
	rec := storage.RootRecord{Label: label, Root: root, Timestamp: v.ts.Now()}
	if err := v.store.StoreRoot(ctx, rec); err != nil {
		return storage.RootRecord{}, err
	}
	v.stored.Inc()
	klog.Infof("Stored root hash for dataset %q: %s", label, rec.HexRoot())
	return rec, nil
}

// Compare checks candidate against the root stored for label. A label with
// no stored root yields NotFound; an empty candidate yields Error with
// ErrEmptyRoot. Other errors come from the store.
func (v *Verifier) Compare(ctx context.Context, label string, candidate []byte) (Status, error) {
	st, err := v.compare(ctx, label, candidate)
	v.comparisons.Inc(st.String())
	return st, err
}

func (v *Verifier) compare(ctx context.Context, label string, candidate []byte) (Status, error) {
	if len(candidate) == 0 {
		return Error, ErrEmptyRoot
	}
	rec, err := v.store.LatestRoot(ctx, label)
	if errors.Is(err, storage.ErrNotFound) {
		return NotFound, nil
	}
	if err != nil {
		return Error, err
	}
	if bytes.Equal(rec.Root, candidate) {
		return Verified, nil
	}
	return Violated, nil
}

// DetectUpdates reports whether newRoot differs from the root stored for
// label.
func (v *Verifier) DetectUpdates(ctx context.Context, label string, newRoot []byte) (UpdateStatus, error) {
	rec, err := v.store.LatestRoot(ctx, label)
	if errors.Is(err, storage.ErrNotFound) {
		return Unknown, nil
	}
	if err != nil {
		return Unknown, err
	}
	if bytes.Equal(rec.Root, newRoot) {
		return NoUpdates, nil
	}
	return UpdateDetected, nil
}

// Stored reports whether label has a stored root.
func (v *Verifier) Stored(ctx context.Context, label string) (bool, error) {
	_, err := v.store.LatestRoot(ctx, label)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, storage.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

// Labels returns every label with a stored root, in order.
func (v *Verifier) Labels(ctx context.Context) ([]string, error) {
	rs, err := v.store.LatestRoots(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Label
	}
	return out, nil
}

// Latest returns the current root record of every label.
func (v *Verifier) Latest(ctx context.Context) ([]storage.RootRecord, error) {
	return v.store.LatestRoots(ctx)
}

// History returns every root stored for label, oldest first.
func (v *Verifier) History(ctx context.Context, label string) ([]storage.RootRecord, error) {
	return v.store.History(ctx, label)
}
