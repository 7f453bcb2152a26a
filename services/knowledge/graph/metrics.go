// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package graph

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// Package-level tracer and meter for graph operations.
var (
	tracer = otel.Tracer("kodiak.graph")
	meter  = otel.Meter("kodiak.graph")
)

// Metrics for graph operations.
var (
	queryLatency  metric.Float64Histogram
	queryVisited  metric.Int64Histogram
	metricsOnce   sync.Once
	metricsErr    error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		queryLatency, err = meter.Float64Histogram(
			"graph_query_duration_seconds",
			metric.WithDescription("Duration of graph traversal queries"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		queryVisited, err = meter.Int64Histogram(
			"graph_query_visited_nodes",
			metric.WithDescription("Nodes visited per traversal query"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// recordQueryMetrics records a completed traversal query.
func recordQueryMetrics(ctx context.Context, duration time.Duration, visited int) {
	if err := initMetrics(); err != nil {
		slog.Debug("graph metrics unavailable", slog.String("error", err.Error()))
		return
	}
	queryLatency.Record(ctx, duration.Seconds())
	queryVisited.Record(ctx, int64(visited))
}
