// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package abstraction derives higher-level groupings from extracted
// entities.
//
// Two groupings run over the store: namespace grouping collects the
// entities of each dotted namespace under a synthetic module node, and
// feature grouping collects entities whose names or namespaces match a
// domain vocabulary (auth, user, order, ...) under synthetic feature
// nodes.
// Namespace membership is certain; feature membership is a naming
// heuristic and carries lower confidence.
package abstraction

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/AleutianAI/kodiak/services/knowledge/graph"
)

// Grouping confidences.
const (
	// ConfidenceModule applies to namespace groupings, which are read
	// directly from directory structure.
	ConfidenceModule = 1.0

	// ConfidenceFeature applies to vocabulary-based feature groupings.
	ConfidenceFeature = 0.7
)

// Membership minimums. A namespace with a single entity or a feature
// with two is not a meaningful grouping.
const (
	minModuleMembers  = 2
	minFeatureMembers = 3
)

// featureVocabulary is the ordered list of recognized domain features.
// Names are matched by case-insensitive prefix.
var featureVocabulary = []string{
	"auth",
	"user",
	"order",
	"product",
	"payment",
	"notification",
	"report",
	"dashboard",
	"search",
	"admin",
}

// minFallbackSegment is the shortest namespace segment usable as a
// fallback feature name. Shorter segments ("src", "lib") are layout,
// not domain.
const minFallbackSegment = 4

// Group is one derived grouping.
type Group struct {
	// Name is the namespace or feature name.
	Name string `json:"name"`

	// Members lists the grouped entity names, sorted.
	Members []string `json:"members"`
}

// Result summarizes one grouping run.
type Result struct {
	// Modules are the namespace groupings, sorted by name.
	Modules []Group `json:"modules"`

	// Features are the vocabulary groupings, sorted by name.
	Features []Group `json:"features"`
}

// Grouper derives module and feature abstractions over a store.
type Grouper struct {
	store  *graph.Store
	logger *slog.Logger
}

// Option configures a Grouper.
type Option func(*Grouper)

// WithLogger sets the grouper's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Grouper) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// NewGrouper creates a Grouper over store.
func NewGrouper(store *graph.Store, opts ...Option) *Grouper {
	g := &Grouper{
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Abstract runs both groupings and records the synthetic nodes and
// part_of triads.
//
// Outputs:
//   - *Result: the derived groups, sorted for stable output
//   - error: ctx.Err() or a store error
func (g *Grouper) Abstract(ctx context.Context) (*Result, error) {
	entities := g.entities()

	modules, err := g.groupByNamespace(ctx, entities)
	if err != nil {
		return nil, err
	}
	features, err := g.groupByFeature(ctx, entities)
	if err != nil {
		return nil, err
	}

	g.logger.Debug("abstraction complete",
		"entities", len(entities),
		"modules", len(modules),
		"features", len(features))
	return &Result{Modules: modules, Features: features}, nil
}

// entities returns the groupable nodes in a stable order. Synthetic
// nodes and stubs never join groupings.
func (g *Grouper) entities() []*graph.KnowledgeNode {
	var nodes []*graph.KnowledgeNode
	for t := graph.NodeTypeUnknown + 1; t < graph.NumNodeTypes; t++ {
		if t.Synthetic() {
			continue
		}
		for _, node := range g.store.NodesByType(t) {
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

// groupByNamespace collects each namespace's entities under a synthetic
// module node.
func (g *Grouper) groupByNamespace(ctx context.Context, entities []*graph.KnowledgeNode) ([]Group, error) {
	byNamespace := make(map[string][]*graph.KnowledgeNode)
	for _, node := range entities {
		if node.Namespace == "" {
			continue
		}
		byNamespace[node.Namespace] = append(byNamespace[node.Namespace], node)
	}

	names := make([]string, 0, len(byNamespace))
	for ns, members := range byNamespace {
		if len(members) >= minModuleMembers {
			names = append(names, ns)
		}
	}
	sort.Strings(names)

	groups := make([]Group, 0, len(names))
	for _, ns := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		group, err := g.recordGroup(graph.NodeTypeModule, ns, ConfidenceModule, byNamespace[ns],
			fmt.Sprintf("declared in namespace %s", ns))
		if err != nil {
			return nil, err
		}
		groups = append(groups, *group)
	}
	return groups, nil
}

// groupByFeature collects entities under domain feature nodes: vocabulary
// prefix match on name or namespace first, then the last namespace
// segment as a fallback.
func (g *Grouper) groupByFeature(ctx context.Context, entities []*graph.KnowledgeNode) ([]Group, error) {
	byFeature := make(map[string][]*graph.KnowledgeNode)
	for _, node := range entities {
		if feature := featureOf(node); feature != "" {
			byFeature[feature] = append(byFeature[feature], node)
		}
	}

	names := make([]string, 0, len(byFeature))
	for feature, members := range byFeature {
		if len(members) >= minFeatureMembers {
			names = append(names, feature)
		}
	}
	sort.Strings(names)

	groups := make([]Group, 0, len(names))
	for _, feature := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		group, err := g.recordGroup(graph.NodeTypeFeature, feature, ConfidenceFeature, byFeature[feature],
			fmt.Sprintf("named after the %s feature", feature))
		if err != nil {
			return nil, err
		}
		groups = append(groups, *group)
	}
	return groups, nil
}

// featureOf assigns an entity to a feature, or returns "" when neither
// its name nor its namespace suggests one. The vocabulary is tried as a
// prefix of the name, then of the namespace, before the last-segment
// fallback.
func featureOf(node *graph.KnowledgeNode) string {
	lower := strings.ToLower(node.Name)
	for _, feature := range featureVocabulary {
		if strings.HasPrefix(lower, feature) {
			return feature
		}
	}

	if node.Namespace == "" {
		return ""
	}
	ns := strings.ToLower(node.Namespace)
	for _, feature := range featureVocabulary {
		if strings.HasPrefix(ns, feature) {
			return feature
		}
	}
	segments := strings.Split(node.Namespace, ".")
	last := segments[len(segments)-1]
	if len(last) >= minFallbackSegment {
		return strings.ToLower(last)
	}
	return ""
}

// recordGroup creates the synthetic grouping node and one part_of triad
// per member.
func (g *Grouper) recordGroup(nodeType graph.NodeType, name string, confidence float64,
	members []*graph.KnowledgeNode, reason string) (*Group, error) {
	groupNode := &graph.KnowledgeNode{
		Type: nodeType,
		Name: name,
	}
	groupNode.Metadata.MemberCount = len(members)

	groupID, _, err := g.store.AddNode(groupNode)
	if err != nil {
		return nil, err
	}

	memberNames := make([]string, 0, len(members))
	for _, member := range members {
		memberNames = append(memberNames, member.Name)
		err := g.store.AddTriad(&graph.KnowledgeTriad{
			Subject:    member.ID,
			Object:     groupID,
			Predicate:  graph.RelationPartOf,
			Confidence: confidence,
			Source:     graph.SourceSemanticAnalyzer,
			Metadata: graph.TriadMetadata{
				Evidence: []graph.Evidence{{
					Type:        graph.EvidenceStructuralGrouping,
					Source:      graph.SourceSemanticAnalyzer,
					Confidence:  confidence,
					Description: fmt.Sprintf("%s %s", member.Name, reason),
				}},
			},
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(memberNames)

	return &Group{Name: name, Members: memberNames}, nil
}
