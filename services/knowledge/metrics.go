// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package knowledge

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Package-level tracer and meter for engine operations.
var (
	tracer = otel.Tracer("kodiak.knowledge")
	meter  = otel.Meter("kodiak.knowledge")
)

// Metrics for graph construction runs.
var (
	constructLatency metric.Float64Histogram
	constructTotal   metric.Int64Counter
	filesAnalyzed    metric.Int64Histogram
	nodesExtracted   metric.Int64Histogram
	triadsCreated    metric.Int64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		constructLatency, err = meter.Float64Histogram(
			"knowledge_construct_duration_seconds",
			metric.WithDescription("Duration of graph construction runs"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		constructTotal, err = meter.Int64Counter(
			"knowledge_construct_total",
			metric.WithDescription("Total number of graph construction runs"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		filesAnalyzed, err = meter.Int64Histogram(
			"knowledge_files_analyzed",
			metric.WithDescription("Number of files analyzed per run"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		nodesExtracted, err = meter.Int64Histogram(
			"knowledge_nodes_extracted",
			metric.WithDescription("Number of nodes in the graph per run"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		triadsCreated, err = meter.Int64Histogram(
			"knowledge_triads_created",
			metric.WithDescription("Number of triads in the graph per run"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// recordConstructMetrics records metrics for one construction run.
func recordConstructMetrics(ctx context.Context, duration time.Duration, files, nodes, triads int, success bool) {
	if err := initMetrics(); err != nil {
		return
	}

	attrs := metric.WithAttributes(attribute.Bool("success", success))

	constructLatency.Record(ctx, duration.Seconds(), attrs)
	constructTotal.Add(ctx, 1, attrs)

	if success {
		filesAnalyzed.Record(ctx, int64(files))
		nodesExtracted.Record(ctx, int64(nodes))
		triadsCreated.Record(ctx, int64(triads))
	}
}

// startConstructSpan creates a span for a construction run.
func startConstructSpan(ctx context.Context, root string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Engine.Construct",
		trace.WithAttributes(
			attribute.String("knowledge.root", root),
		),
	)
}

// setConstructSpanResult sets the result attributes on a construction span.
func setConstructSpanResult(span trace.Span, files, nodes, triads, fileErrors int) {
	span.SetAttributes(
		attribute.Int("knowledge.file_count", files),
		attribute.Int("knowledge.node_count", nodes),
		attribute.Int("knowledge.triad_count", triads),
		attribute.Int("knowledge.file_errors", fileErrors),
	)
}
