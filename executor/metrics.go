// Copyright 2024 Fantom Foundation
// This file is part of Aida Testing Infrastructure for Sonic
//
// Aida is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Aida is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Aida. If not, see <http://www.gnu.org/licenses/>.

package executor

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "contract_runtime"

// Metrics holds the observations of the block executor. All metrics are safe
// for concurrent use.
type Metrics struct {
	runExecute  prometheus.Histogram
	applyEffect prometheus.Histogram
	commitStep  prometheus.Histogram
	chainHeight prometheus.Gauge
}

// NewMetrics creates the executor metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		runExecute: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "run_execute",
			Help:      "Time in seconds spent executing a single deploy.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 16),
		}),
		applyEffect: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "apply_effect",
			Help:      "Time in seconds spent committing effects to global state.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 16),
		}),
		commitStep: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "commit_step",
			Help:      "Time in seconds spent running the era end step.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
		}),
		chainHeight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "chain_height",
			Help:      "Height of the last executed block.",
		}),
	}
	for _, c := range []prometheus.Collector{m.runExecute, m.applyEffect, m.commitStep, m.chainHeight} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("cannot register metric; %v", err)
		}
	}
	return m, nil
}

func observeSince(h prometheus.Histogram, start time.Time) {
	h.Observe(time.Since(start).Seconds())
}
