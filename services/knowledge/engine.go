// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package knowledge orchestrates semantic knowledge-graph construction.
//
// A construction run walks the project tree, parses each source file,
// extracts entities and relations into a fresh graph store, then layers
// inferred knowledge on top: pairwise similarity, design-pattern
// detection, and module/feature abstraction. Each run builds a complete
// new graph; re-analysis never mutates a previous result.
package knowledge

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/kodiak/services/knowledge/abstraction"
	"github.com/AleutianAI/kodiak/services/knowledge/ast"
	"github.com/AleutianAI/kodiak/services/knowledge/discover"
	"github.com/AleutianAI/kodiak/services/knowledge/extract"
	"github.com/AleutianAI/kodiak/services/knowledge/graph"
	"github.com/AleutianAI/kodiak/services/knowledge/patterns"
	"github.com/AleutianAI/kodiak/services/knowledge/semantic"
)

// AnalysisResult is the output of one construction run.
type AnalysisResult struct {
	// Store is the constructed knowledge graph.
	Store *graph.Store `json:"-"`

	// FilesAnalyzed is the number of files that parsed and extracted.
	FilesAnalyzed int `json:"filesAnalyzed"`

	// NodesExtracted is the total node count of the graph.
	NodesExtracted int `json:"nodesExtracted"`

	// TriadsCreated is the total triad count of the graph.
	TriadsCreated int `json:"triadsCreated"`

	// Patterns are the detected design patterns.
	Patterns []patterns.DetectedPattern `json:"patterns,omitempty"`

	// Abstractions are the derived module and feature groups.
	Abstractions *abstraction.Result `json:"abstractions,omitempty"`

	// Insights are human-readable observations about the graph.
	Insights []string `json:"insights,omitempty"`

	// FileErrors lists per-file failures that did not abort the run.
	FileErrors []FileError `json:"fileErrors,omitempty"`

	// DurationMilli is the run duration in milliseconds.
	DurationMilli int64 `json:"durationMilli"`
}

// Engine runs the knowledge-graph construction pipeline.
//
// Thread Safety:
//
//	Safe for concurrent use; each Construct call builds into its own
//	fresh store.
type Engine struct {
	cfg      Config
	registry *ast.Registry
	logger   *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithRegistry replaces the default analyzer registry.
func WithRegistry(registry *ast.Registry) EngineOption {
	return func(e *Engine) {
		if registry != nil {
			e.registry = registry
		}
	}
}

// WithLogger sets the engine's logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine creates an Engine after validating the configuration.
func NewEngine(cfg Config, opts ...EngineOption) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		cfg:      cfg,
		registry: ast.DefaultRegistry(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Config returns a copy of the engine's configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Construct runs the full pipeline and returns the finished graph.
//
// Description:
//
//	Phases run in order: discovery, parallel per-file extraction,
//	similarity (optional), pattern detection (optional), abstraction,
//	insight generation. Per-file read and parse failures are collected
//	into FileErrors; store capacity errors and context cancellation
//	abort the run.
//
// Outputs:
//   - *AnalysisResult: the graph and derived knowledge
//   - error: ErrNoFiles, ctx.Err(), or a store error
func (e *Engine) Construct(ctx context.Context) (*AnalysisResult, error) {
	start := time.Now()
	ctx, span := startConstructSpan(ctx, e.cfg.Root)
	defer span.End()

	result, err := e.construct(ctx)
	duration := time.Since(start)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		recordConstructMetrics(ctx, duration, 0, 0, 0, false)
		return nil, err
	}

	result.DurationMilli = duration.Milliseconds()
	setConstructSpanResult(span, result.FilesAnalyzed, result.NodesExtracted, result.TriadsCreated, len(result.FileErrors))
	recordConstructMetrics(ctx, duration, result.FilesAnalyzed, result.NodesExtracted, result.TriadsCreated, true)

	e.logger.Info("graph construction complete",
		"root", e.cfg.Root,
		"files", result.FilesAnalyzed,
		"nodes", result.NodesExtracted,
		"triads", result.TriadsCreated,
		"patterns", len(result.Patterns),
		"file_errors", len(result.FileErrors),
		"duration_ms", result.DurationMilli)
	return result, nil
}

func (e *Engine) construct(ctx context.Context) (*AnalysisResult, error) {
	discoverer, err := discover.NewDiscoverer(
		discover.WithIncludes(e.cfg.IncludePatterns),
		discover.WithExcludes(e.cfg.ExcludePatterns),
		discover.WithIncludeTests(e.cfg.IncludeTests),
		discover.WithLogger(e.logger),
	)
	if err != nil {
		return nil, err
	}
	files, err := discoverer.Discover(ctx, e.cfg.Root)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoFiles, e.cfg.Root)
	}

	store := graph.NewStore()
	result := &AnalysisResult{Store: store}

	if err := e.extractFiles(ctx, store, files, result); err != nil {
		return nil, err
	}

	if e.cfg.EnableSimilarity {
		analyzer := semantic.NewAnalyzer(store,
			semantic.WithMinConfidence(e.cfg.MinConfidence),
			semantic.WithWorkers(e.workers()),
			semantic.WithLogger(e.logger),
		)
		if _, err := analyzer.Analyze(ctx); err != nil {
			return nil, fmt.Errorf("similarity analysis: %w", err)
		}
	}

	if e.cfg.EnablePatterns {
		detector := patterns.NewDetector(store, patterns.WithLogger(e.logger))
		detected, err := detector.Detect(ctx)
		if err != nil {
			return nil, fmt.Errorf("pattern detection: %w", err)
		}
		result.Patterns = detected
	}

	grouper := abstraction.NewGrouper(store, abstraction.WithLogger(e.logger))
	abstractions, err := grouper.Abstract(ctx)
	if err != nil {
		return nil, fmt.Errorf("abstraction: %w", err)
	}
	result.Abstractions = abstractions

	result.NodesExtracted = store.NodeCount()
	result.TriadsCreated = store.TriadCount()
	result.Insights = buildInsights(result)
	return result, nil
}

// extractFiles reads, parses, and extracts every discovered file with a
// bounded worker pool.
func (e *Engine) extractFiles(ctx context.Context, store *graph.Store, files []string, result *AnalysisResult) error {
	extractor := extract.NewExtractor(store, extract.WithLogger(e.logger))

	var mu sync.Mutex
	analyzed := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers())

	for _, file := range files {
		file := file
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			analysis, err := e.analyzeFile(gctx, file)
			if err != nil {
				e.logger.Warn("skipping file", "file", file, "error", err)
				mu.Lock()
				result.FileErrors = append(result.FileErrors, newFileError(file, err))
				mu.Unlock()
				return nil
			}

			if err := extractor.ExtractFile(gctx, analysis); err != nil {
				return err
			}
			mu.Lock()
			analyzed++
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	sort.Slice(result.FileErrors, func(i, j int) bool {
		return result.FileErrors[i].Path < result.FileErrors[j].Path
	})
	result.FilesAnalyzed = analyzed
	return nil
}

// analyzeFile reads one file and runs the matching analyzer.
func (e *Engine) analyzeFile(ctx context.Context, file string) (*ast.FileAnalysis, error) {
	analyzer, err := e.registry.ForFile(file)
	if err != nil {
		return nil, err
	}
	content, err := os.ReadFile(filepath.Join(e.cfg.Root, filepath.FromSlash(file)))
	if err != nil {
		return nil, err
	}
	if e.cfg.MaxFileSize > 0 && int64(len(content)) > e.cfg.MaxFileSize {
		return nil, fmt.Errorf("%w: %s is %d bytes (max %d)", ast.ErrFileTooLarge, file, len(content), e.cfg.MaxFileSize)
	}
	return analyzer.Analyze(ctx, content, file)
}

// workers returns the effective concurrency.
func (e *Engine) workers() int {
	if e.cfg.Workers > 0 {
		return e.cfg.Workers
	}
	return runtime.NumCPU()
}

// buildInsights renders human-readable observations from a finished run.
func buildInsights(result *AnalysisResult) []string {
	var insights []string

	insights = append(insights, fmt.Sprintf("extracted %d entities and %d relationships from %d files",
		result.NodesExtracted, result.TriadsCreated, result.FilesAnalyzed))

	similar := 0
	for _, tr := range result.Store.Triads() {
		if tr.Predicate == graph.RelationIsSimilarTo {
			similar++
		}
	}
	if similar > 0 {
		insights = append(insights, fmt.Sprintf("detected %d semantic similarity relationships", similar))
	}

	for _, p := range result.Patterns {
		insights = append(insights, fmt.Sprintf("%s pattern with %d participants: %s (confidence %.2f)",
			p.Type, len(p.Components), strings.Join(p.Components, ", "), p.Confidence))
	}

	if result.Abstractions != nil {
		for _, feature := range result.Abstractions.Features {
			insights = append(insights, fmt.Sprintf("feature %q spans %d entities",
				feature.Name, len(feature.Members)))
		}
		if n := len(result.Abstractions.Modules); n > 0 {
			insights = append(insights, fmt.Sprintf("code organizes into %d namespace modules", n))
		}
	}

	if n := len(result.FileErrors); n > 0 {
		insights = append(insights, fmt.Sprintf("%d files could not be analyzed", n))
	}

	return insights
}
