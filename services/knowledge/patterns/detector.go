// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package patterns

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/AleutianAI/kodiak/services/knowledge/graph"
)

// candidateTypes are the entity types examined for pattern participation.
// Synthetic and callable nodes never form architectural patterns.
var candidateTypes = []graph.NodeType{
	graph.NodeTypeClass,
	graph.NodeTypeInterface,
	graph.NodeTypeService,
	graph.NodeTypeRepository,
	graph.NodeTypeController,
	graph.NodeTypeComponent,
	graph.NodeTypeModel,
}

// Observer-pattern role vocabularies, matched case-insensitively as
// substrings. Detection requires at least one name from each side.
var (
	observerSideMarkers = []string{"observer", "listener", "subscriber"}
	subjectSideMarkers  = []string{"subject", "publisher", "observable"}
)

// Detector finds design patterns among extracted entities and records
// them as synthetic pattern nodes with follows_pattern triads.
type Detector struct {
	store  *graph.Store
	logger *slog.Logger
}

// Option configures a Detector.
type Option func(*Detector)

// WithLogger sets the detector's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Detector) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewDetector creates a Detector over store.
func NewDetector(store *graph.Store, opts ...Option) *Detector {
	d := &Detector{
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detect runs all pattern heuristics over the store.
//
// Description:
//
//	Gathers the non-stub class-like entities once, then applies each
//	heuristic. Markers match case-insensitively against names (as
//	substrings) and against tags: repository and service groups need at
//	least two members, a factory needs one, and the observer pattern
//	needs matches from both the observer and the subject vocabulary.
//	Each detection creates one pattern node and a follows_pattern triad
//	per participant.
//
// Outputs:
//   - []DetectedPattern: detections sorted by pattern type
//   - error: ctx.Err() or a store error
func (d *Detector) Detect(ctx context.Context) ([]DetectedPattern, error) {
	candidates := d.candidates()

	var detected []DetectedPattern
	record := func(pType PatternType, confidence float64, members []*graph.KnowledgeNode) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		pattern, err := d.recordPattern(pType, confidence, members)
		if err != nil {
			return err
		}
		detected = append(detected, *pattern)
		return nil
	}

	if members := withAnyMarker(candidates, []string{"repository"}); len(members) >= 2 {
		if err := record(PatternRepository, ConfidenceRepository, members); err != nil {
			return nil, err
		}
	}
	if members := withAnyMarker(candidates, []string{"service"}); len(members) >= 2 {
		if err := record(PatternService, ConfidenceService, members); err != nil {
			return nil, err
		}
	}

	factories := withAnyMarker(candidates, []string{"factory", "builder"})
	if len(factories) >= 1 {
		if err := record(PatternFactory, ConfidenceFactory, factories); err != nil {
			return nil, err
		}
	}

	observers := withAnyMarker(candidates, observerSideMarkers)
	subjects := withAnyMarker(candidates, subjectSideMarkers)
	if len(observers) > 0 && len(subjects) > 0 {
		members := append(observers, subjects...)
		if err := record(PatternObserver, ConfidenceObserver, members); err != nil {
			return nil, err
		}
	}

	sort.Slice(detected, func(i, j int) bool { return detected[i].Type < detected[j].Type })

	d.logger.Debug("pattern detection complete",
		"candidates", len(candidates),
		"patterns", len(detected))
	return detected, nil
}

// candidates returns the class-like, non-stub nodes in a stable order.
func (d *Detector) candidates() []*graph.KnowledgeNode {
	var nodes []*graph.KnowledgeNode
	for _, t := range candidateTypes {
		for _, node := range d.store.NodesByType(t) {
			if node.Metadata.AutoCreated {
				continue
			}
			nodes = append(nodes, node)
		}
	}
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].Name != nodes[j].Name {
			return nodes[i].Name < nodes[j].Name
		}
		return nodes[i].Namespace < nodes[j].Namespace
	})
	return nodes
}

// recordPattern creates the synthetic pattern node and links every member
// to it.
func (d *Detector) recordPattern(pType PatternType, confidence float64, members []*graph.KnowledgeNode) (*DetectedPattern, error) {
	patternNode := &graph.KnowledgeNode{
		Type: graph.NodeTypePattern,
		Name: string(pType),
	}
	patternNode.Metadata.MemberCount = len(members)

	patternID, _, err := d.store.AddNode(patternNode)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(members))
	for _, member := range members {
		names = append(names, member.Name)
		err := d.store.AddTriad(&graph.KnowledgeTriad{
			Subject:    member.ID,
			Object:     patternID,
			Predicate:  graph.RelationFollowsPattern,
			Confidence: confidence,
			Source:     graph.SourcePatternDetector,
			Metadata: graph.TriadMetadata{
				Evidence: []graph.Evidence{{
					Type:        graph.EvidenceNamingConvention,
					Source:      graph.SourcePatternDetector,
					Confidence:  confidence,
					Description: fmt.Sprintf("%s participates in the %s pattern by naming convention", member.Name, pType),
				}},
			},
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(names)

	return &DetectedPattern{
		Type:       pType,
		Components: names,
		Confidence: confidence,
	}, nil
}

// withAnyMarker returns candidates whose lowercase name contains any of
// the markers, or whose tag set includes one. Each node appears at most
// once no matter how many markers it matches.
func withAnyMarker(nodes []*graph.KnowledgeNode, markers []string) []*graph.KnowledgeNode {
	var out []*graph.KnowledgeNode
	for _, node := range nodes {
		lower := strings.ToLower(node.Name)
		for _, marker := range markers {
			if strings.Contains(lower, marker) || node.Metadata.HasTag(marker) {
				out = append(out, node)
				break
			}
		}
	}
	return out
}
