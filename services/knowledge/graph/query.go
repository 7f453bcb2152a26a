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
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
)

// Default query option values.
const (
	// DefaultMaxDepth is the default traversal depth for Related.
	DefaultMaxDepth = 3

	// DefaultQueryLimit is the default maximum number of visited nodes.
	DefaultQueryLimit = 1000
)

// Filter selects nodes by attribute. Zero-valued fields match everything.
type Filter struct {
	// Types restricts results to the given node types.
	Types []NodeType

	// Names restricts results to the given entity names.
	Names []string

	// Namespace restricts results to an exact namespace.
	Namespace string
}

// QueryOptions configures graph traversal.
type QueryOptions struct {
	// MaxDepth is the maximum number of hops from the start node.
	MaxDepth int

	// Limit is the maximum number of visited nodes.
	Limit int

	// Predicates restricts traversal to the given relation types.
	// Empty means all predicates.
	Predicates []RelationType
}

// QueryOption is a functional option for traversal queries.
type QueryOption func(*QueryOptions)

// WithMaxDepth sets the maximum traversal depth.
func WithMaxDepth(depth int) QueryOption {
	return func(o *QueryOptions) {
		if depth > 0 {
			o.MaxDepth = depth
		}
	}
}

// WithLimit sets the maximum number of visited nodes.
func WithLimit(limit int) QueryOption {
	return func(o *QueryOptions) {
		if limit > 0 {
			o.Limit = limit
		}
	}
}

// WithPredicates restricts traversal to the given relation types.
func WithPredicates(predicates ...RelationType) QueryOption {
	return func(o *QueryOptions) {
		o.Predicates = predicates
	}
}

func applyQueryOptions(opts []QueryOption) QueryOptions {
	options := QueryOptions{
		MaxDepth: DefaultMaxDepth,
		Limit:    DefaultQueryLimit,
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

// TraversalResult holds the outcome of a Related query.
type TraversalResult struct {
	// StartNode is the node the traversal began from.
	StartNode string

	// VisitedNodes lists visited node IDs in BFS order, excluding the start.
	VisitedNodes []string

	// Triads lists the triads crossed during traversal.
	Triads []*KnowledgeTriad

	// Truncated is true if the limit or a cancellation cut the traversal short.
	Truncated bool
}

// QueryNodes returns all nodes matching the filter.
//
// Description:
//
//	Results follow node insertion order, so output is deterministic for a
//	fixed store state. No ordering stability is promised across different
//	stores built from the same input.
//
// Inputs:
//
//	filter - Attribute predicates. A zero Filter matches every node.
//
// Outputs:
//
//	[]*KnowledgeNode - Matching nodes. Callers must not mutate them.
func (s *Store) QueryNodes(filter Filter) []*KnowledgeNode {
	typeSet := make(map[NodeType]struct{}, len(filter.Types))
	for _, t := range filter.Types {
		typeSet[t] = struct{}{}
	}
	nameSet := make(map[string]struct{}, len(filter.Names))
	for _, n := range filter.Names {
		nameSet[n] = struct{}{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*KnowledgeNode, 0)
	for _, id := range s.order {
		node := s.nodes[id]
		if len(typeSet) > 0 {
			if _, ok := typeSet[node.Type]; !ok {
				continue
			}
		}
		if len(nameSet) > 0 {
			if _, ok := nameSet[node.Name]; !ok {
				continue
			}
		}
		if filter.Namespace != "" && node.Namespace != filter.Namespace {
			continue
		}
		out = append(out, node)
	}
	return out
}

// Related performs a bounded breadth-first expansion over triads from the
// given node, following both outgoing and incoming edges.
//
// Description:
//
//	Backs "find related" and impact analysis. Traversal is read-only,
//	checks the context between levels, and never revisits a node.
//
// Inputs:
//
//	ctx  - Context for cancellation. Checked between BFS levels.
//	id   - Start node ID. Must exist.
//	opts - MaxDepth (default 3), Limit (default 1000), Predicates.
//
// Outputs:
//
//	*TraversalResult - Visited nodes in BFS order and the triads crossed.
//	error            - ErrNodeNotFound if the start node is unknown.
func (s *Store) Related(ctx context.Context, id string, opts ...QueryOption) (*TraversalResult, error) {
	ctx, span := tracer.Start(ctx, "graph.Related")
	defer span.End()
	start := time.Now()

	options := applyQueryOptions(opts)
	span.SetAttributes(
		attribute.String("node_id", id),
		attribute.Int("max_depth", options.MaxDepth),
		attribute.Int("limit", options.Limit),
	)

	predicateSet := make(map[RelationType]struct{}, len(options.Predicates))
	for _, p := range options.Predicates {
		predicateSet[p] = struct{}{}
	}
	follow := func(t *KnowledgeTriad) bool {
		if len(predicateSet) == 0 {
			return true
		}
		_, ok := predicateSet[t.Predicate]
		return ok
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.nodes[id]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}

	result := &TraversalResult{
		StartNode:    id,
		VisitedNodes: make([]string, 0),
		Triads:       make([]*KnowledgeTriad, 0),
	}

	visited := map[string]bool{id: true}
	level := []string{id}

	// Both directions report the crossed triad; an edge reached from
	// each of its endpoints is still reported once.
	seenTriads := make(map[string]bool)
	crossTriad := func(t *KnowledgeTriad) {
		if !seenTriads[t.ID] {
			seenTriads[t.ID] = true
			result.Triads = append(result.Triads, t)
		}
	}

	for depth := 0; len(level) > 0 && depth < options.MaxDepth; depth++ {
		if err := ctx.Err(); err != nil {
			result.Truncated = true
			break
		}

		var next []string
		for _, cur := range level {
			for _, t := range s.outgoing[cur] {
				if !follow(t) {
					continue
				}
				crossTriad(t)
				if !visited[t.Object] {
					visited[t.Object] = true
					result.VisitedNodes = append(result.VisitedNodes, t.Object)
					next = append(next, t.Object)
				}
			}
			for _, t := range s.incoming[cur] {
				if !follow(t) {
					continue
				}
				crossTriad(t)
				if !visited[t.Subject] {
					visited[t.Subject] = true
					result.VisitedNodes = append(result.VisitedNodes, t.Subject)
					next = append(next, t.Subject)
				}
			}
			if len(result.VisitedNodes) >= options.Limit {
				result.Truncated = true
				break
			}
		}
		if result.Truncated {
			break
		}
		level = next
	}

	span.SetAttributes(
		attribute.Int("visited", len(result.VisitedNodes)),
		attribute.Bool("truncated", result.Truncated),
	)
	recordQueryMetrics(ctx, time.Since(start), len(result.VisitedNodes))

	return result, nil
}
