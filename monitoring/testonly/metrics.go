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

// Package testonly holds checks that any monitoring.MetricFactory
// implementation must pass.
package testonly

import (
	"testing"

	"github.com/reviewledger/ledger/monitoring"
)

type labelCase struct {
	suffix     string
	labelNames []string
	labelVals  []string
}

var labelCases = []labelCase{
	{suffix: "0"},
	{suffix: "1", labelNames: []string{"key1"}, labelVals: []string{"val1"}},
	{suffix: "2", labelNames: []string{"key1", "key2"}, labelVals: []string{"val1", "val2"}},
}

// bogus returns vals with one label too many.
func bogus(vals []string) []string {
	return append(append([]string(nil), vals...), "bogus")
}

// TestCounter runs a test on a Counter produced from the provided MetricFactory.
func TestCounter(t *testing.T, factory monitoring.MetricFactory) {
	t.Helper()
	for _, lc := range labelCases {
		name := "test_counter" + lc.suffix
		t.Run(name, func(t *testing.T) {
			c := factory.NewCounter(name, "Test only", lc.labelNames...)
			steps := []struct {
				op   func()
				want float64
			}{
				{op: func() {}, want: 0},
				{op: func() { c.Inc(lc.labelVals...) }, want: 1},
				{op: func() { c.Add(2.5, lc.labelVals...) }, want: 3.5},
			}
			for i, s := range steps {
				s.op()
				if got := c.Value(lc.labelVals...); got != s.want {
					t.Errorf("step %d: Value(%v)=%v; want %v", i, lc.labelVals, got, s.want)
				}
			}
			wrong := bogus(lc.labelVals)
			c.Add(10, wrong...)
			c.Inc(wrong...)
			if got := c.Value(wrong...); got != 0 {
				t.Errorf("Value(%v)=%v; want 0 for wrong label count", wrong, got)
			}
			if got, want := c.Value(lc.labelVals...), 3.5; got != want {
				t.Errorf("Value(%v)=%v after wrong-label writes; want %v", lc.labelVals, got, want)
			}
		})
	}
}

// TestGauge runs a test on a Gauge produced from the provided MetricFactory.
func TestGauge(t *testing.T, factory monitoring.MetricFactory) {
	t.Helper()
	for _, lc := range labelCases {
		name := "test_gauge" + lc.suffix
		t.Run(name, func(t *testing.T) {
			g := factory.NewGauge(name, "Test only", lc.labelNames...)
			steps := []struct {
				op   func()
				want float64
			}{
				{op: func() {}, want: 0},
				{op: func() { g.Inc(lc.labelVals...) }, want: 1},
				{op: func() { g.Dec(lc.labelVals...) }, want: 0},
				{op: func() { g.Add(2.5, lc.labelVals...) }, want: 2.5},
				{op: func() { g.Set(42, lc.labelVals...) }, want: 42},
			}
			for i, s := range steps {
				s.op()
				if got := g.Value(lc.labelVals...); got != s.want {
					t.Errorf("step %d: Value(%v)=%v; want %v", i, lc.labelVals, got, s.want)
				}
			}
			wrong := bogus(lc.labelVals)
			g.Add(10, wrong...)
			g.Inc(wrong...)
			g.Dec(wrong...)
			g.Set(120, wrong...)
			if got := g.Value(wrong...); got != 0 {
				t.Errorf("Value(%v)=%v; want 0 for wrong label count", wrong, got)
			}
		})
	}
}

// TestHistogram runs a test on a Histogram produced from the provided
// MetricFactory, both with default and with explicit buckets.
func TestHistogram(t *testing.T, factory monitoring.MetricFactory) {
	t.Helper()
	for _, lc := range labelCases {
		for _, withBuckets := range []bool{false, true} {
			name := "test_histogram" + lc.suffix
			var h monitoring.Histogram
			if withBuckets {
				name += "_buckets"
				h = factory.NewHistogramWithBuckets(name, "Test only", monitoring.ExpBuckets(1, 2, 4), lc.labelNames...)
			} else {
				h = factory.NewHistogram(name, "Test only", lc.labelNames...)
			}
			t.Run(name, func(t *testing.T) {
				if count, sum := h.Info(lc.labelVals...); count != 0 || sum != 0 {
					t.Errorf("Info(%v)=%v,%v; want 0,0", lc.labelVals, count, sum)
				}
				for _, v := range []float64{1, 2, 3} {
					h.Observe(v, lc.labelVals...)
				}
				if count, sum := h.Info(lc.labelVals...); count != 3 || sum != 6 {
					t.Errorf("Info(%v)=%v,%v; want 3,6", lc.labelVals, count, sum)
				}
				wrong := bogus(lc.labelVals)
				h.Observe(100, wrong...)
				h.Observe(200, wrong...)
				if count, sum := h.Info(wrong...); count != 0 || sum != 0 {
					t.Errorf("Info(%v)=%v,%v; want 0,0 for wrong label count", wrong, count, sum)
				}
			})
		}
	}
}
