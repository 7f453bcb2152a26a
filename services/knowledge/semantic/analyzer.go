// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package semantic infers is_similar_to relations between extracted
// entities.
//
// Two comparison families run over the store: callables (functions and
// methods) are scored by name similarity, namespace agreement, and tag
// overlap; class-like entities are scored by structural member-count
// agreement. Pairs at or above the configured threshold produce one
// similarity triad each. Scoring is pairwise and O(n^2) per family, so
// the pair space is striped across workers.
package semantic

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/kodiak/services/knowledge/graph"
)

// DefaultMinConfidence is the similarity threshold below which no triad
// is recorded.
const DefaultMinConfidence = 0.8

// maxSimilarityWorkers caps pair-scoring goroutines regardless of CPU
// count.
const maxSimilarityWorkers = 8

// callableTypes are compared with callableSimilarity.
var callableTypes = []graph.NodeType{
	graph.NodeTypeFunction,
	graph.NodeTypeMethod,
}

// classLikeTypes are compared with structuralSimilarity.
var classLikeTypes = []graph.NodeType{
	graph.NodeTypeClass,
	graph.NodeTypeInterface,
	graph.NodeTypeService,
	graph.NodeTypeRepository,
	graph.NodeTypeController,
	graph.NodeTypeComponent,
	graph.NodeTypeModel,
}

// Analyzer scores entity pairs and records similarity triads.
type Analyzer struct {
	store         *graph.Store
	minConfidence float64
	workers       int
	logger        *slog.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithMinConfidence sets the similarity threshold in [0,1].
func WithMinConfidence(min float64) Option {
	return func(a *Analyzer) {
		if min >= 0 && min <= 1 {
			a.minConfidence = min
		}
	}
}

// WithWorkers sets the number of pair-scoring goroutines.
func WithWorkers(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.workers = n
		}
	}
}

// WithLogger sets the analyzer's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Analyzer) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewAnalyzer creates an Analyzer over store.
func NewAnalyzer(store *graph.Store, opts ...Option) *Analyzer {
	workers := runtime.NumCPU()
	if workers > maxSimilarityWorkers {
		workers = maxSimilarityWorkers
	}
	a := &Analyzer{
		store:         store,
		minConfidence: DefaultMinConfidence,
		workers:       workers,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// match is a scored pair, keyed by candidate indices so results can be
// ordered independently of worker scheduling.
type match struct {
	i, j           int
	score          float64
	similarityType string
}

// Analyze scores all candidate pairs and records the matches.
//
// Description:
//
//	Collects comparable nodes, stripes the pair space across workers,
//	then sorts matches by pair index and appends the triads
//	sequentially. The sort step keeps triad order independent of
//	goroutine scheduling, so repeated runs over the same store produce
//	the same graph.
//
// Outputs:
//   - int: number of similarity triads recorded
//   - error: ctx.Err() or a store error
func (a *Analyzer) Analyze(ctx context.Context) (int, error) {
	total := 0

	callables := a.candidates(callableTypes)
	n, err := a.analyzeFamily(ctx, callables, "semantic", callableSimilarity)
	if err != nil {
		return total, err
	}
	total += n

	classes := a.candidates(classLikeTypes)
	n, err = a.analyzeFamily(ctx, classes, "structural", structuralSimilarity)
	if err != nil {
		return total, err
	}
	total += n

	a.logger.Debug("similarity analysis complete",
		"callables", len(callables),
		"class_like", len(classes),
		"triads", total)
	return total, nil
}

// candidates returns comparable nodes of the given types, skipping stubs
// which carry no information worth comparing.
func (a *Analyzer) candidates(types []graph.NodeType) []*graph.KnowledgeNode {
	var nodes []*graph.KnowledgeNode
	for _, t := range types {
		for _, node := range a.store.NodesByType(t) {
			if node.Metadata.AutoCreated {
				continue
			}
			nodes = append(nodes, node)
		}
	}
	return nodes
}

// analyzeFamily scores every unordered pair within one candidate family.
func (a *Analyzer) analyzeFamily(ctx context.Context, nodes []*graph.KnowledgeNode, similarityType string,
	score func(a, b *graph.KnowledgeNode) float64) (int, error) {
	if len(nodes) < 2 {
		return 0, nil
	}

	workers := a.workers
	if workers > len(nodes) {
		workers = len(nodes)
	}

	var mu sync.Mutex
	var matches []match

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		w := w
		g.Go(func() error {
			var local []match
			// Stripe the outer index across workers.
			for i := w; i < len(nodes); i += workers {
				if err := gctx.Err(); err != nil {
					return err
				}
				for j := i + 1; j < len(nodes); j++ {
					s := score(nodes[i], nodes[j])
					if s >= a.minConfidence {
						local = append(local, match{i: i, j: j, score: s, similarityType: similarityType})
					}
				}
			}
			mu.Lock()
			matches = append(matches, local...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	sort.Slice(matches, func(x, y int) bool {
		if matches[x].i != matches[y].i {
			return matches[x].i < matches[y].i
		}
		return matches[x].j < matches[y].j
	})

	for _, m := range matches {
		if err := a.addSimilarityTriad(nodes[m.i], nodes[m.j], m.score, m.similarityType); err != nil {
			return 0, err
		}
	}
	return len(matches), nil
}

// addSimilarityTriad records one is_similar_to triad for a scored pair.
func (a *Analyzer) addSimilarityTriad(subject, object *graph.KnowledgeNode, score float64, similarityType string) error {
	return a.store.AddTriad(&graph.KnowledgeTriad{
		Subject:    subject.ID,
		Object:     object.ID,
		Predicate:  graph.RelationIsSimilarTo,
		Confidence: score,
		Source:     graph.SourceSemanticAnalyzer,
		Metadata: graph.TriadMetadata{
			SimilarityType: similarityType,
			Evidence: []graph.Evidence{{
				Type:        graph.EvidenceSemanticSimilarity,
				Source:      graph.SourceSemanticAnalyzer,
				Confidence:  score,
				Description: fmt.Sprintf("%s similarity %.3f between %s and %s", similarityType, score, subject.Name, object.Name),
			}},
		},
	})
}
