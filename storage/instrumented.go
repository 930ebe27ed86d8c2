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

package storage

import (
	"context"
	"sync"

	"github.com/reviewledger/ledger/monitoring"
	"google.golang.org/grpc/status"
)

var (
	once     sync.Once
	opsTotal monitoring.Counter
	opErrors monitoring.Counter
)

func createMetrics(mf monitoring.MetricFactory) {
	opsTotal = mf.NewCounter("root_store_ops", "Number of root store operations", "backend", "op")
	opErrors = mf.NewCounter("root_store_errors", "Number of failed root store operations", "backend", "op", "code")
}

// instrumented counts the calls made on a RootStore and their failures.
type instrumented struct {
	RootStore
	backend string
}

func newInstrumented(backend string, s RootStore, mf monitoring.MetricFactory) RootStore {
	if mf == nil {
		mf = monitoring.InertMetricFactory{}
	}
	once.Do(func() { createMetrics(mf) })
	return &instrumented{RootStore: s, backend: backend}
}

func (s *instrumented) record(op string, err error) {
	opsTotal.Inc(s.backend, op)
	if err != nil {
		opErrors.Inc(s.backend, op, status.Code(err).String())
	}
}

func (s *instrumented) StoreRoot(ctx context.Context, r RootRecord) error {
	err := s.RootStore.StoreRoot(ctx, r)
	s.record("store", err)
	return err
}

func (s *instrumented) LatestRoot(ctx context.Context, label string) (RootRecord, error) {
	r, err := s.RootStore.LatestRoot(ctx, label)
	s.record("latest", err)
	return r, err
}

func (s *instrumented) LatestRoots(ctx context.Context) ([]RootRecord, error) {
	rs, err := s.RootStore.LatestRoots(ctx)
	s.record("latest_all", err)
	return rs, err
}

func (s *instrumented) History(ctx context.Context, label string) ([]RootRecord, error) {
	rs, err := s.RootStore.History(ctx, label)
	s.record("history", err)
	return rs, err
}
