// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package patterns detects architectural design patterns in the knowledge
// graph.
//
// Detection is heuristic and naming-convention based: entity names are
// matched against role vocabularies, and qualifying groups produce a
// synthetic pattern node plus one follows_pattern triad per participant.
// Confidence scores reflect how reliable each convention is in practice.
//
// # Thread Safety
//
// Detector is safe for concurrent use; it only reads node snapshots and
// writes through the store's synchronized API.
package patterns

// PatternType identifies the design pattern.
type PatternType string

const (
	// PatternRepository abstracts data access behind *Repository entities.
	PatternRepository PatternType = "repository"

	// PatternService groups business logic into *Service entities.
	PatternService PatternType = "service"

	// PatternFactory creates objects without exposing instantiation logic.
	PatternFactory PatternType = "factory"

	// PatternObserver pairs subject-side and observer-side entities.
	PatternObserver PatternType = "observer"
)

// Detection confidence per pattern. Suffix conventions for repositories
// and services are strong signals; a lone factory name is weaker.
const (
	ConfidenceRepository = 0.8
	ConfidenceService    = 0.8
	ConfidenceFactory    = 0.7
	ConfidenceObserver   = 0.8
)

// DetectedPattern represents a design pattern found in the graph.
type DetectedPattern struct {
	// Type identifies the pattern.
	Type PatternType `json:"type"`

	// Components lists the entity names participating in the pattern,
	// sorted for stable output.
	Components []string `json:"components"`

	// Confidence is how certain the detection is (0.0 - 1.0).
	Confidence float64 `json:"confidence"`
}
