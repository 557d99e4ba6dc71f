// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package framegraph

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultSuccess = "success"
	resultFailure = "failure"
)

// Metrics holds the prometheus collectors of the graph compiler.
// A nil *Metrics records nothing.
type Metrics struct {
	compilations    *prometheus.CounterVec
	recreations     *prometheus.CounterVec
	compileDuration prometheus.Histogram
	attachments     prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		compilations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "framegraph",
			Name:      "compilations_total",
			Help:      "Graph compilations by result.",
		}, []string{"result"}),
		recreations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "framegraph",
			Name:      "recreations_total",
			Help:      "Resource set recreations by result.",
		}, []string{"result"}),
		compileDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "framegraph",
			Name:      "compile_duration_seconds",
			Help:      "Time spent in successful graph compilations.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
		attachments: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "framegraph",
			Name:      "attachments",
			Help:      "Physical attachments owned by live graphs.",
		}),
	}
}

func result(err error) string {
	if err != nil {
		return resultFailure
	}
	return resultSuccess
}

func (m *Metrics) observeCompile(start time.Time, err error) {
	if m == nil {
		return
	}
	m.compilations.WithLabelValues(result(err)).Inc()
	if err == nil {
		m.compileDuration.Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) observeRecreate(err error) {
	if m == nil {
		return
	}
	m.recreations.WithLabelValues(result(err)).Inc()
}

func (m *Metrics) addAttachments(n int) {
	if m == nil {
		return
	}
	m.attachments.Add(float64(n))
}
