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

package prometheus

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/reviewledger/ledger/monitoring/testonly"
)

func newFactory() MetricFactory {
	return MetricFactory{Registerer: prometheus.NewRegistry()}
}

func TestCounter(t *testing.T) {
	testonly.TestCounter(t, newFactory())
}

func TestGauge(t *testing.T) {
	testonly.TestGauge(t, newFactory())
}

func TestHistogram(t *testing.T) {
	testonly.TestHistogram(t, newFactory())
}

func TestWriteTextfile(t *testing.T) {
	reg := prometheus.NewRegistry()
	mf := MetricFactory{Prefix: "ledger_", Registerer: reg}
	mf.NewCounter("proofs_total", "Proofs generated", "status").Add(3, "generated")

	path := filepath.Join(t.TempDir(), "ledger.prom")
	if err := WriteTextfile(path, reg); err != nil {
		t.Fatalf("WriteTextfile()=%v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := `ledger_proofs_total{status="generated"} 3`; !strings.Contains(string(b), want) {
		t.Errorf("textfile missing %q:\n%s", want, b)
	}
}

func TestRecreatedMetricSharesValue(t *testing.T) {
	mf := newFactory()
	mf.NewCounter("stored", "Roots stored").Inc()
	c := mf.NewCounter("stored", "Roots stored")
	c.Inc()
	if got := c.Value(); got != 2 {
		t.Errorf("Value()=%v, want 2", got)
	}
}
