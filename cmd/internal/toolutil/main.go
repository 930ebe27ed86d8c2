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

// Package toolutil holds the setup shared by the ledger command line tools:
// configuration, hasher, root store and metrics.
package toolutil

import (
	"errors"
	"flag"
	"fmt"
	"path/filepath"
	"strings"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/reviewledger/ledger/cmd/internal/config"
	"github.com/reviewledger/ledger/cmd/internal/provider"
	"github.com/reviewledger/ledger/integrity"
	"github.com/reviewledger/ledger/merkle/hashers/registry"
	"github.com/reviewledger/ledger/merkle/sortedpair"
	"github.com/reviewledger/ledger/merkle/tree"
	"github.com/reviewledger/ledger/monitoring"
	"github.com/reviewledger/ledger/monitoring/prometheus"
	"github.com/reviewledger/ledger/review"
	"github.com/reviewledger/ledger/storage"
	"github.com/reviewledger/ledger/util/clock"
	"k8s.io/klog/v2"
)

// Main holds the options common to every tool.
type Main struct {
	// ConfigFile is an optional YAML dataset catalog.
	ConfigFile string
	// StorageSystem names the root store provider. Empty defers to the
	// catalog, then to provider.DefaultStorageSystem.
	StorageSystem string
	// Hasher names the hash function. Empty defers to the catalog.
	Hasher string
	// MetricsFile receives the metrics in text format on Close when set.
	MetricsFile string
	StatsPrefix string
	TimeSource  clock.TimeSource
}

// RegisterFlags binds the options to flags in fs.
func (m *Main) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&m.ConfigFile, "config", "", "YAML dataset catalog")
	fs.StringVar(&m.StorageSystem, "storage_system", "", fmt.Sprintf("Root store to use. One of: %v", storage.Providers()))
	fs.StringVar(&m.Hasher, "hasher", "", fmt.Sprintf("Hash function. One of: %v", registry.Names()))
	fs.StringVar(&m.MetricsFile, "metrics_file", "", "If set, metrics are written to this file in Prometheus text format on exit")
	fs.StringVar(&m.StatsPrefix, "stats_prefix", "ledger_", "Prefix of exported metric names")
}

// Env is the state a tool run works with. Close it when done.
type Env struct {
	Config        *config.Config
	Hasher        *sortedpair.Hasher
	MetricFactory monitoring.MetricFactory
	TimeSource    clock.TimeSource

	gatherer      prom.Gatherer
	metricsFile   string
	storageSystem string
	store         storage.RootStore
}

// Open resolves the options into an Env.
func (m *Main) Open() (*Env, error) {
	cfg := &config.Config{}
	if m.ConfigFile != "" {
		var err error
		if cfg, err = config.Load(m.ConfigFile); err != nil {
			return nil, err
		}
	}
	hasherName := m.Hasher
	if hasherName == "" {
		hasherName = cfg.Hasher
	}
	h, err := registry.NewHasher(hasherName)
	if err != nil {
		return nil, err
	}
	storageSystem := m.StorageSystem
	if storageSystem == "" {
		storageSystem = cfg.Storage
	}
	if storageSystem == "" {
		storageSystem = provider.DefaultStorageSystem
	}
	ts := m.TimeSource
	if ts == nil {
		ts = clock.System
	}
	reg := prom.NewRegistry()
	return &Env{
		Config:        cfg,
		Hasher:        h,
		MetricFactory: prometheus.MetricFactory{Prefix: m.StatsPrefix, Registerer: reg},
		TimeSource:    ts,
		gatherer:      reg,
		metricsFile:   m.MetricsFile,
		storageSystem: storageSystem,
	}, nil
}

// Store opens the root store on first use.
func (e *Env) Store() (storage.RootStore, error) {
	if e.store != nil {
		return e.store, nil
	}
	s, err := storage.NewRootStore(e.storageSystem, e.MetricFactory)
	if err != nil {
		return nil, fmt.Errorf("opening %s root store: %w", e.storageSystem, err)
	}
	klog.V(1).Infof("Using %s root store", e.storageSystem)
	e.store = s
	return s, nil
}

// Verifier returns an integrity.Verifier over the root store.
func (e *Env) Verifier() (*integrity.Verifier, error) {
	s, err := e.Store()
	if err != nil {
		return nil, err
	}
	return integrity.NewVerifier(s, integrity.VerifierOptions{TimeSource: e.TimeSource, MetricFactory: e.MetricFactory}), nil
}

// Dataset resolves a dataset reference. A name found in the catalog wins;
// anything else is taken as a file path whose base name, without extension,
// is the label. A positive max overrides the catalog's cap.
func (e *Env) Dataset(ref string, max int) (config.Dataset, error) {
	if ref == "" {
		return config.Dataset{}, errors.New("no dataset given")
	}
	d, err := e.Config.Dataset(ref)
	if err != nil {
		base := filepath.Base(ref)
		d = config.Dataset{Name: strings.TrimSuffix(base, filepath.Ext(base)), Path: ref}
	}
	if max > 0 {
		d.MaxRecords = max
	}
	return d, nil
}

// Load reads the reviews of d and builds their tree.
func (e *Env) Load(d config.Dataset) ([]review.Review, *tree.Tree, error) {
	rs, st, err := review.LoadFile(d.Path, d.MaxRecords)
	if err != nil {
		return nil, nil, err
	}
	klog.V(1).Infof("%s: %+v", d.Name, st)
	start := e.TimeSource.Now()
	t, err := tree.Build(e.Hasher, review.IDs(rs), review.Encodings(rs))
	if err != nil {
		return nil, nil, err
	}
	klog.Infof("Built tree over %d reviews of %s in %v", t.LeafCount(), d.Name, clock.Since(e.TimeSource, start))
	return rs, t, nil
}

// Close closes the root store, if opened, and writes the metrics file.
func (e *Env) Close() error {
	var errs []error
	if e.store != nil {
		errs = append(errs, e.store.Close())
		e.store = nil
	}
	if e.metricsFile != "" {
		if err := prometheus.WriteTextfile(e.metricsFile, e.gatherer); err != nil {
			errs = append(errs, fmt.Errorf("writing metrics: %v", err))
		}
	}
	return errors.Join(errs...)
}
