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

// Package memory provides an in-process implementation of storage.RootStore.
//
// Records are held in a BTree keyed by label, which keeps LatestRoots in
// label order without sorting. Nothing survives the process; the store is
// meant for tests and one-shot runs, and as the index behind the file
// backend.
package memory

import (
	"context"
	"sync"

	"github.com/google/btree"
	"github.com/reviewledger/ledger/storage"
	"k8s.io/klog/v2"
)

func init() {
	if err := storage.RegisterProvider("memory", func() (storage.RootStore, error) {
		return NewRootStore(), nil
	}); err != nil {
		klog.Fatalf("Failed to register storage provider memory: %v", err)
	}
}

// degree of the BTree; labels are few so the value barely matters.
const degree = 8

// labelHistory is the BTree item: every record stored under one label.
type labelHistory struct {
	label   string
	records []storage.RootRecord
}

func less(a, b *labelHistory) bool { return a.label < b.label }

// RootStore is a storage.RootStore held in memory.
type RootStore struct {
	mu   sync.RWMutex
	tree *btree.BTreeG[*labelHistory]
}

// NewRootStore returns an empty RootStore.
func NewRootStore() *RootStore {
	return &RootStore{tree: btree.NewG(degree, less)}
}

// Append adds r without validation. Callers that replay trusted logs use it
// to rebuild state.
func (s *RootStore) Append(r storage.RootRecord) {
	r.Root = append([]byte(nil), r.Root...)
	r.Timestamp = r.Timestamp.Truncate(0)
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.tree.Get(&labelHistory{label: r.Label})
	if !ok {
		h = &labelHistory{label: r.Label}
		s.tree.ReplaceOrInsert(h)
	}
	h.records = append(h.records, r)
}

// StoreRoot implements storage.RootStore.
func (s *RootStore) StoreRoot(_ context.Context, r storage.RootRecord) error {
	if err := storage.CheckRecord(r); err != nil {
		return err
	}
	s.Append(r)
	return nil
}

// LatestRoot implements storage.RootStore.
func (s *RootStore) LatestRoot(_ context.Context, label string) (storage.RootRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.tree.Get(&labelHistory{label: label})
	if !ok {
		return storage.RootRecord{}, storage.NotFound(label)
	}
	return h.records[len(h.records)-1], nil
}

// LatestRoots implements storage.RootStore.
func (s *RootStore) LatestRoots(context.Context) ([]storage.RootRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]storage.RootRecord, 0, s.tree.Len())
	s.tree.Ascend(func(h *labelHistory) bool {
		out = append(out, h.records[len(h.records)-1])
		return true
	})
	return out, nil
}

// History implements storage.RootStore.
func (s *RootStore) History(_ context.Context, label string) ([]storage.RootRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.tree.Get(&labelHistory{label: label})
	if !ok {
		return nil, storage.NotFound(label)
	}
	return append([]storage.RootRecord(nil), h.records...), nil
}

// Close implements storage.RootStore.
func (s *RootStore) Close() error {
	return nil
}
