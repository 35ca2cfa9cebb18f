/*
SPDX-License-Identifier: Apache-2.0

Copyright 2025 The Tidynest Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    https://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics holds the collectors exported on /metrics. Each server owns its
// registry so that several servers (and tests) do not collide.
type Metrics struct {
	Registry *prometheus.Registry

	Requests        *prometheus.CounterVec
	PipelineSeconds prometheus.Histogram
	CacheHits       prometheus.Counter
	Rows            *prometheus.HistogramVec
}

// NewMetrics creates and registers the server collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tidynest",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		PipelineSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tidynest",
			Name:      "pipeline_duration_seconds",
			Help:      "Wall time of pipeline runs.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tidynest",
			Name:      "pipeline_cache_hits_total",
			Help:      "Requests answered from a cached pipeline run.",
		}),
		Rows: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tidynest",
			Name:      "served_rows",
			Help:      "Rows in served tables by stage.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}, []string{"stage"}),
	}
	m.Registry.MustRegister(
		m.Requests,
		m.PipelineSeconds,
		m.CacheHits,
		m.Rows,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}
