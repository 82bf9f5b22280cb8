/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package scoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trace_metric_scores_total",
			Help: "Total number of metric scoring requests",
		},
		[]string{"metric", "provider"},
	)

	failureCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trace_metric_score_failures_total",
			Help: "Total number of failed metric scoring requests",
		},
		[]string{"metric", "provider"},
	)

	scoreGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "trace_metric_score",
			Help: "Most recent metric score",
		},
		[]string{"metric", "provider"},
	)

	latencyHistogram = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trace_metric_score_seconds",
			Help:    "Time spent scoring a metric",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"metric", "provider"},
	)
)

type scoreMetrics struct {
	requests prometheus.Counter
	failures prometheus.Counter
	score    prometheus.Gauge
	latency  prometheus.Observer
}

func metricsFor(req *Request) scoreMetrics {
	labels := prometheus.Labels{
		"metric":   req.MetricName,
		"provider": req.Provider,
	}
	return scoreMetrics{
		requests: requestCounter.With(labels),
		failures: failureCounter.With(labels),
		score:    scoreGauge.With(labels),
		latency:  latencyHistogram.With(labels),
	}
}
