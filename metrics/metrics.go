/**
 * Copyright (c) 2024, The Nexus Authors.
 *
 * Permission to use, copy, modify, and/or distribute this software for any
 * purpose with or without fee is hereby granted, provided that the above
 * copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES
 * WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF
 * MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR
 * ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES
 * WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN
 * ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF
 * OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

// Package metrics exports Prometheus collectors for the Store's publish/notify/GC cycle:
// package-level collector vars registered in init, plus a Timer helper for histogram
// observations.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RecordsTotal holds the size of the Store's base RecordSource as of the last GC sweep.
	RecordsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "nexus_store_records_total",
			Help: "Number of records held in the Store's base RecordSource after the last GC sweep",
		},
	)

	// GCSweepsTotal counts completed mark-sweep GC passes.
	GCSweepsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "nexus_store_gc_sweeps_total",
			Help: "Total number of mark-sweep GC passes completed by the Store",
		},
	)

	// GCCollectedTotal counts records removed across all GC passes.
	GCCollectedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "nexus_store_gc_collected_total",
			Help: "Total number of unretained records removed by GC",
		},
	)

	// GCSweepDuration times a single mark-sweep pass.
	GCSweepDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nexus_store_gc_sweep_duration_seconds",
			Help:    "Time taken to complete a mark-sweep GC pass",
			Buckets: prometheus.DefBuckets,
		},
	)

	// PublishRunsTotal counts completed PublishQueue.Run linearizations.
	PublishRunsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "nexus_publish_runs_total",
			Help: "Total number of PublishQueue.Run linearizations completed",
		},
	)

	// PublishRunDuration times a single PublishQueue.Run call.
	PublishRunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nexus_publish_run_duration_seconds",
			Help:    "Time taken to complete a single PublishQueue.Run call",
			Buckets: prometheus.DefBuckets,
		},
	)

	// NotifyDispatchedTotal counts subscription callbacks actually invoked by Notify (i.e. those
	// whose re-read Snapshot.Data differed from what was last dispatched).
	NotifyDispatchedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "nexus_store_notify_dispatched_total",
			Help: "Total number of subscription callbacks invoked by Store.Notify",
		},
	)

	// NotifySkippedTotal counts subscriptions considered by Notify but skipped, either because
	// their seen-set didn't intersect the touched ids or because the re-read data was unchanged.
	NotifySkippedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "nexus_store_notify_skipped_total",
			Help: "Total number of subscriptions considered but not dispatched by Store.Notify",
		},
	)
)

func init() {
	prometheus.MustRegister(RecordsTotal)
	prometheus.MustRegister(GCSweepsTotal)
	prometheus.MustRegister(GCCollectedTotal)
	prometheus.MustRegister(GCSweepDuration)
	prometheus.MustRegister(PublishRunsTotal)
	prometheus.MustRegister(PublishRunDuration)
	prometheus.MustRegister(NotifyDispatchedTotal)
	prometheus.MustRegister(NotifySkippedTotal)
}

// Timer is a helper for timing operations, mirroring cuemby-warren's pkg/metrics.Timer.
type Timer struct {
	start time.Time
}

// NewTimer creates a Timer started at the current time.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the elapsed time since the timer started to histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}
