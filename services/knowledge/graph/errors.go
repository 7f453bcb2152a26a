// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package graph provides the knowledge graph store: typed nodes, evidenced
// relationship triads, and the query operations used by every analysis phase.
//
// # Data Model
//
// Nodes are code entities (classes, functions, modules, ...) uniquely keyed
// by (type, name, namespace). Triads are directed subject–predicate–object
// relationships carrying a confidence score and provenance evidence.
//
// # Thread Safety
//
// Unlike a freeze-based build graph, the Store is safe for concurrent use
// DURING construction: multiple extraction goroutines may call AddNode,
// FindOrCreateNode, and AddTriad simultaneously. Node creation serializes on
// the de-duplication key so two concurrent creators can never race past a
// "not found" check.
//
// # Lifecycle
//
// Construction is append-only: nodes and triads are never deleted. A re-run
// of the pipeline targets a fresh Store.
package graph

import "errors"

// Sentinel errors for store operations.
var (
	// ErrDanglingReference is returned when a triad references a node ID
	// that does not exist in the store. Callers are expected to create
	// nodes before linking them; the store rejects the triad rather than
	// silently accepting it.
	ErrDanglingReference = errors.New("triad references nonexistent node")

	// ErrInvalidNode is returned when adding a node with no name or an
	// unknown type.
	ErrInvalidNode = errors.New("invalid node")

	// ErrInvalidTriad is returned when a triad fails validation (unknown
	// predicate, confidence outside [0,1]).
	ErrInvalidTriad = errors.New("invalid triad")

	// ErrMissingEvidence is returned when a non-containment triad carries
	// no evidence records.
	ErrMissingEvidence = errors.New("triad requires at least one evidence record")

	// ErrMaxNodesExceeded is returned when the store has reached its
	// configured maximum node capacity.
	ErrMaxNodesExceeded = errors.New("maximum node count exceeded")

	// ErrMaxTriadsExceeded is returned when the store has reached its
	// configured maximum triad capacity.
	ErrMaxTriadsExceeded = errors.New("maximum triad count exceeded")

	// ErrNodeNotFound is returned by queries for an unknown node ID.
	ErrNodeNotFound = errors.New("node not found")
)
