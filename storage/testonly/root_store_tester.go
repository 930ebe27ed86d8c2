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

// Package testonly holds a conformance suite that every storage.RootStore
// backend runs in its tests.
package testonly

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/reviewledger/ledger/storage"
)

// RootStoreTester runs the conformance checks. NewStore must return an
// empty store on every call.
type RootStoreTester struct {
	NewStore func(t *testing.T) storage.RootStore
}

var (
	t0 = time.Unix(1700000000, 0)
	t1 = t0.Add(time.Minute)
	t2 = t0.Add(time.Hour)
)

func rec(label string, root byte, ts time.Time) storage.RootRecord {
	return storage.RootRecord{Label: label, Root: []byte{root, root, 0xee}, Timestamp: ts}
}

func equalRecords(a, b storage.RootRecord) bool {
	return a.Label == b.Label && string(a.Root) == string(b.Root) && a.Timestamp.Equal(b.Timestamp)
}

var recordCmp = cmp.Comparer(equalRecords)

// RunAllTests runs every check as a subtest.
func (r *RootStoreTester) RunAllTests(t *testing.T) {
	t.Run("TestLatestRootNotFound", r.TestLatestRootNotFound)
	t.Run("TestStoreAndLatest", r.TestStoreAndLatest)
	t.Run("TestLastWriteWins", r.TestLastWriteWins)
	t.Run("TestLatestRoots", r.TestLatestRoots)
	t.Run("TestHistory", r.TestHistory)
	t.Run("TestRejectsInvalid", r.TestRejectsInvalid)
	t.Run("TestConcurrentStores", r.TestConcurrentStores)
}

// TestLatestRootNotFound checks lookups of labels never stored.
func (r *RootStoreTester) TestLatestRootNotFound(t *testing.T) {
	ctx := context.Background()
	s := r.NewStore(t)
	if _, err := s.LatestRoot(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("LatestRoot(missing)=%v, want ErrNotFound", err)
	}
	if _, err := s.History(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("History(missing)=%v, want ErrNotFound", err)
	}
	all, err := s.LatestRoots(ctx)
	if err != nil {
		t.Fatalf("LatestRoots()=%v", err)
	}
	if len(all) != 0 {
		t.Errorf("LatestRoots()=%v, want empty", all)
	}
}

// TestStoreAndLatest checks a single round trip.
func (r *RootStoreTester) TestStoreAndLatest(t *testing.T) {
	ctx := context.Background()
	s := r.NewStore(t)
	want := rec("ds", 1, t0)
	if err := s.StoreRoot(ctx, want); err != nil {
		t.Fatalf("StoreRoot()=%v", err)
	}
	got, err := s.LatestRoot(ctx, "ds")
	if err != nil {
		t.Fatalf("LatestRoot()=%v", err)
	}
	if diff := cmp.Diff(want, got, recordCmp); diff != "" {
		t.Errorf("LatestRoot() diff (-want +got):\n%s", diff)
	}
}

// TestLastWriteWins checks that a later store replaces the current root even
// when its timestamp is not newer.
func (r *RootStoreTester) TestLastWriteWins(t *testing.T) {
	ctx := context.Background()
	s := r.NewStore(t)
	for _, rr := range []storage.RootRecord{rec("ds", 1, t1), rec("ds", 2, t0)} {
		if err := s.StoreRoot(ctx, rr); err != nil {
			t.Fatalf("StoreRoot(%v)=%v", rr, err)
		}
	}
	got, err := s.LatestRoot(ctx, "ds")
	if err != nil {
		t.Fatalf("LatestRoot()=%v", err)
	}
	if diff := cmp.Diff(rec("ds", 2, t0), got, recordCmp); diff != "" {
		t.Errorf("LatestRoot() diff (-want +got):\n%s", diff)
	}
}

// TestLatestRoots checks that the current root of each label is listed once,
// in label order.
func (r *RootStoreTester) TestLatestRoots(t *testing.T) {
	ctx := context.Background()
	s := r.NewStore(t)
	for _, rr := range []storage.RootRecord{
		rec("zeta", 1, t0),
		rec("alpha", 2, t0),
		rec("zeta", 3, t1),
		rec("mid", 4, t2),
	} {
		if err := s.StoreRoot(ctx, rr); err != nil {
			t.Fatalf("StoreRoot(%v)=%v", rr, err)
		}
	}
	got, err := s.LatestRoots(ctx)
	if err != nil {
		t.Fatalf("LatestRoots()=%v", err)
	}
	want := []storage.RootRecord{rec("alpha", 2, t0), rec("mid", 4, t2), rec("zeta", 3, t1)}
	if diff := cmp.Diff(want, got, recordCmp); diff != "" {
		t.Errorf("LatestRoots() diff (-want +got):\n%s", diff)
	}
}

// TestHistory checks that every stored record is kept in store order.
func (r *RootStoreTester) TestHistory(t *testing.T) {
	ctx := context.Background()
	s := r.NewStore(t)
	want := []storage.RootRecord{rec("ds", 1, t0), rec("ds", 2, t1), rec("ds", 1, t2)}
	for _, rr := range want {
		if err := s.StoreRoot(ctx, rr); err != nil {
			t.Fatalf("StoreRoot(%v)=%v", rr, err)
		}
	}
	if err := s.StoreRoot(ctx, rec("other", 9, t0)); err != nil {
		t.Fatalf("StoreRoot(other)=%v", err)
	}
	got, err := s.History(ctx, "ds")
	if err != nil {
		t.Fatalf("History()=%v", err)
	}
	if diff := cmp.Diff(want, got, recordCmp); diff != "" {
		t.Errorf("History() diff (-want +got):\n%s", diff)
	}
}

// TestRejectsInvalid checks that malformed records are refused and leave
// the store untouched.
func (r *RootStoreTester) TestRejectsInvalid(t *testing.T) {
	ctx := context.Background()
	s := r.NewStore(t)
	for _, rr := range []storage.RootRecord{
		{Root: []byte{1}, Timestamp: t0},
		{Label: "ds", Timestamp: t0},
		{Label: "a|b", Root: []byte{1}, Timestamp: t0},
	} {
		if err := s.StoreRoot(ctx, rr); !errors.Is(err, storage.ErrInvalidRecord) {
			t.Errorf("StoreRoot(%+v)=%v, want ErrInvalidRecord", rr, err)
		}
	}
	all, err := s.LatestRoots(ctx)
	if err != nil {
		t.Fatalf("LatestRoots()=%v", err)
	}
	if len(all) != 0 {
		t.Errorf("LatestRoots()=%v, want empty", all)
	}
}

// TestConcurrentStores checks that parallel writers do not lose records.
func (r *RootStoreTester) TestConcurrentStores(t *testing.T) {
	const writers = 8
	ctx := context.Background()
	s := r.NewStore(t)
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- s.StoreRoot(ctx, rec(fmt.Sprintf("ds%d", i), byte(i), t0))
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Errorf("StoreRoot()=%v", err)
		}
	}
	all, err := s.LatestRoots(ctx)
	if err != nil {
		t.Fatalf("LatestRoots()=%v", err)
	}
	if got := len(all); got != writers {
		t.Errorf("LatestRoots() returned %d labels, want %d", got, writers)
	}
}
