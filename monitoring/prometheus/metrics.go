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

// Package prometheus provides a Prometheus-based implementation of the
// MetricFactory abstraction.
package prometheus

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/reviewledger/ledger/monitoring"
	"k8s.io/klog/v2"
)

// MetricFactory allows the creation of Prometheus-based metrics.
type MetricFactory struct {
	Prefix string
	// Registerer receives every metric created by the factory. The default
	// Prometheus registry is used when nil.
	Registerer prometheus.Registerer
}

// register adds c to the registry. If an identical collector is already
// registered, that one is returned instead so metrics can be requested more
// than once per process.
func (pmf MetricFactory) register(c prometheus.Collector) prometheus.Collector {
	r := pmf.Registerer
	if r == nil {
		r = prometheus.DefaultRegisterer
	}
	if err := r.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return are.ExistingCollector
		}
		panic(err)
	}
	return c
}

// NewCounter creates a new Counter object backed by Prometheus.
func (pmf MetricFactory) NewCounter(name, help string, labelNames ...string) monitoring.Counter {
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{Name: pmf.Prefix + name, Help: help}, labelNames)
	vec = pmf.register(vec).(*prometheus.CounterVec)
	return &Counter{labelNames: labelNames, vec: vec}
}

// NewGauge creates a new Gauge object backed by Prometheus.
func (pmf MetricFactory) NewGauge(name, help string, labelNames ...string) monitoring.Gauge {
	vec := prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: pmf.Prefix + name, Help: help}, labelNames)
	vec = pmf.register(vec).(*prometheus.GaugeVec)
	return &Gauge{labelNames: labelNames, vec: vec}
}

// NewHistogram creates a new Histogram object backed by Prometheus, using the
// default Prometheus buckets.
func (pmf MetricFactory) NewHistogram(name, help string, labelNames ...string) monitoring.Histogram {
	return pmf.NewHistogramWithBuckets(name, help, prometheus.DefBuckets, labelNames...)
}

// NewHistogramWithBuckets creates a new Histogram object backed by Prometheus
// with the given bucket upper bounds.
func (pmf MetricFactory) NewHistogramWithBuckets(name, help string, buckets []float64, labelNames ...string) monitoring.Histogram {
	vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: pmf.Prefix + name, Help: help, Buckets: buckets}, labelNames)
	vec = pmf.register(vec).(*prometheus.HistogramVec)
	return &Histogram{labelNames: labelNames, vec: vec}
}

// WriteTextfile writes every metric gathered by g to path in the Prometheus
// text exposition format, for collection by a node exporter. The default
// gatherer is used when g is nil.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	return prometheus.WriteToTextfile(path, g)
}

// Counter is a wrapper around a Prometheus CounterVec object.
type Counter struct {
	labelNames []string
	vec        *prometheus.CounterVec
}

func (m *Counter) with(labelVals []string) prometheus.Counter {
	labels, err := labelsFor(m.labelNames, labelVals)
	if err != nil {
		klog.Error(err)
		return nil
	}
	return m.vec.With(labels)
}

// Inc adds 1 to a counter.
func (m *Counter) Inc(labelVals ...string) {
	if c := m.with(labelVals); c != nil {
		c.Inc()
	}
}

// Add adds the given amount to a counter.
func (m *Counter) Add(val float64, labelVals ...string) {
	if c := m.with(labelVals); c != nil {
		c.Add(val)
	}
}

// Value returns the current amount of a counter.
func (m *Counter) Value(labelVals ...string) float64 {
	c := m.with(labelVals)
	if c == nil {
		return 0
	}
	pb, ok := read(c)
	if !ok || pb.Counter == nil {
		return 0
	}
	return pb.Counter.GetValue()
}

// Gauge is a wrapper around a Prometheus GaugeVec object.
type Gauge struct {
	labelNames []string
	vec        *prometheus.GaugeVec
}

func (m *Gauge) with(labelVals []string) prometheus.Gauge {
	labels, err := labelsFor(m.labelNames, labelVals)
	if err != nil {
		klog.Error(err)
		return nil
	}
	return m.vec.With(labels)
}

// Inc adds 1 to a gauge.
func (m *Gauge) Inc(labelVals ...string) {
	if g := m.with(labelVals); g != nil {
		g.Inc()
	}
}

// Dec subtracts 1 from a gauge.
func (m *Gauge) Dec(labelVals ...string) {
	if g := m.with(labelVals); g != nil {
		g.Dec()
	}
}

// Add adds given value to a gauge.
func (m *Gauge) Add(val float64, labelVals ...string) {
	if g := m.with(labelVals); g != nil {
		g.Add(val)
	}
}

// Set sets the value of a gauge.
func (m *Gauge) Set(val float64, labelVals ...string) {
	if g := m.with(labelVals); g != nil {
		g.Set(val)
	}
}

// Value returns the current amount of a gauge.
func (m *Gauge) Value(labelVals ...string) float64 {
	g := m.with(labelVals)
	if g == nil {
		return 0
	}
	pb, ok := read(g)
	if !ok || pb.Gauge == nil {
		return 0
	}
	return pb.Gauge.GetValue()
}

// Histogram is a wrapper around a Prometheus HistogramVec object.
type Histogram struct {
	labelNames []string
	vec        *prometheus.HistogramVec
}

func (m *Histogram) with(labelVals []string) prometheus.Observer {
	labels, err := labelsFor(m.labelNames, labelVals)
	if err != nil {
		klog.Error(err)
		return nil
	}
	return m.vec.With(labels)
}

// Observe adds a single observation to the histogram.
func (m *Histogram) Observe(val float64, labelVals ...string) {
	if o := m.with(labelVals); o != nil {
		o.Observe(val)
	}
}

// Info returns the count and sum of observations for the histogram.
func (m *Histogram) Info(labelVals ...string) (uint64, float64) {
	o := m.with(labelVals)
	if o == nil {
		return 0, 0
	}
	metric, ok := o.(prometheus.Metric)
	if !ok {
		klog.Errorf("histogram observer %T is not a metric", o)
		return 0, 0
	}
	pb, ok := read(metric)
	if !ok {
		return 0, 0
	}
	h := pb.GetHistogram()
	if h == nil {
		klog.Errorf("histogram field missing")
		return 0, 0
	}
	return h.GetSampleCount(), h.GetSampleSum()
}

func read(m prometheus.Metric) (*dto.Metric, bool) {
	var pb dto.Metric
	if err := m.Write(&pb); err != nil {
		klog.Errorf("failed to Write metric: %v", err)
		return nil, false
	}
	return &pb, true
}

func labelsFor(names, values []string) (prometheus.Labels, error) {
	if len(names) != len(values) {
		return nil, fmt.Errorf("got %d (%v) values for %d labels (%v)", len(values), values, len(names), names)
	}
	labels := make(prometheus.Labels, len(names))
	for i, name := range names {
		labels[name] = values[i]
	}
	return labels, nil
}
