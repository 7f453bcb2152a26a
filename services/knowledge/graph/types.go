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
	"sort"
)

// Default configuration values.
const (
	// DefaultMaxNodes is the default maximum number of nodes a store can hold.
	DefaultMaxNodes = 1_000_000

	// DefaultMaxTriads is the default maximum number of triads a store can hold.
	DefaultMaxTriads = 10_000_000
)

// NodeType classifies a knowledge node.
type NodeType int

const (
	// NodeTypeUnknown indicates an unrecognized node type.
	NodeTypeUnknown NodeType = iota

	// NodeTypeClass represents a class declaration.
	NodeTypeClass

	// NodeTypeInterface represents an interface declaration.
	NodeTypeInterface

	// NodeTypeMethod represents a function attached to a class.
	NodeTypeMethod

	// NodeTypeFunction represents a standalone function.
	NodeTypeFunction

	// NodeTypeModule represents a source file or an imported module.
	NodeTypeModule

	// NodeTypeVariable represents a variable declaration.
	NodeTypeVariable

	// NodeTypeConstant represents a constant declaration.
	NodeTypeConstant

	// NodeTypeService represents a service-layer entity (by naming convention).
	NodeTypeService

	// NodeTypeRepository represents a data-access entity (by naming convention).
	NodeTypeRepository

	// NodeTypeController represents a controller entity (by naming convention).
	NodeTypeController

	// NodeTypeComponent represents a UI component entity (by naming convention).
	NodeTypeComponent

	// NodeTypeModel represents a data model entity (by naming convention).
	NodeTypeModel

	// NodeTypeConfiguration represents a configuration entity.
	NodeTypeConfiguration

	// NodeTypePattern represents a detected design pattern (synthetic).
	NodeTypePattern

	// NodeTypeFeature represents a feature grouping (synthetic).
	NodeTypeFeature

	// NumNodeTypes is the total number of node types (for array sizing).
	NumNodeTypes
)

// nodeTypeNames maps NodeType values to their string representations.
var nodeTypeNames = map[NodeType]string{
	NodeTypeUnknown:       "unknown",
	NodeTypeClass:         "class",
	NodeTypeInterface:     "interface",
	NodeTypeMethod:        "method",
	NodeTypeFunction:      "function",
	NodeTypeModule:        "module",
	NodeTypeVariable:      "variable",
	NodeTypeConstant:      "constant",
	NodeTypeService:       "service",
	NodeTypeRepository:    "repository",
	NodeTypeController:    "controller",
	NodeTypeComponent:     "component",
	NodeTypeModel:         "model",
	NodeTypeConfiguration: "configuration",
	NodeTypePattern:       "pattern",
	NodeTypeFeature:       "feature",
}

// String returns the string representation of the NodeType.
func (t NodeType) String() string {
	if name, ok := nodeTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// Synthetic reports whether nodes of this type are produced by the engine
// itself rather than extracted from source syntax.
func (t NodeType) Synthetic() bool {
	return t == NodeTypePattern || t == NodeTypeModule || t == NodeTypeFeature
}

// RelationType classifies the predicate of a knowledge triad.
type RelationType int

const (
	// RelationUnknown indicates an unrecognized relation type.
	RelationUnknown RelationType = iota

	// RelationExtends indicates subject inherits from object.
	RelationExtends

	// RelationImplements indicates subject implements the object interface.
	RelationImplements

	// RelationContains indicates subject structurally contains object.
	RelationContains

	// RelationCalls indicates subject invokes object.
	RelationCalls

	// RelationImports indicates subject imports the object module.
	RelationImports

	// RelationExports indicates subject exports the object symbol.
	RelationExports

	// RelationDependsOn indicates subject depends on object (derived from imports).
	RelationDependsOn

	// RelationIsSimilarTo indicates inferred semantic or structural similarity.
	RelationIsSimilarTo

	// RelationFollowsPattern indicates subject participates in a design pattern.
	RelationFollowsPattern

	// RelationPartOf indicates subject belongs to a synthetic grouping.
	RelationPartOf

	// NumRelationTypes is the total number of relation types (for array sizing).
	NumRelationTypes
)

// relationTypeNames maps RelationType values to their string representations.
var relationTypeNames = map[RelationType]string{
	RelationUnknown:        "unknown",
	RelationExtends:        "extends",
	RelationImplements:     "implements",
	RelationContains:       "contains",
	RelationCalls:          "calls",
	RelationImports:        "imports",
	RelationExports:        "exports",
	RelationDependsOn:      "depends_on",
	RelationIsSimilarTo:    "is_similar_to",
	RelationFollowsPattern: "follows_pattern",
	RelationPartOf:         "part_of",
}

// String returns the string representation of the RelationType.
func (t RelationType) String() string {
	if name, ok := relationTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// TriadSource identifies which analysis phase produced a triad.
type TriadSource int

const (
	// SourceASTParser marks triads derived directly from AST structure.
	SourceASTParser TriadSource = iota

	// SourceDependencyAnalyzer marks triads derived from import analysis.
	SourceDependencyAnalyzer

	// SourceSemanticAnalyzer marks triads inferred by similarity or grouping.
	SourceSemanticAnalyzer

	// SourcePatternDetector marks triads inferred by pattern heuristics.
	SourcePatternDetector
)

// triadSourceNames maps TriadSource values to their string representations.
var triadSourceNames = map[TriadSource]string{
	SourceASTParser:          "ast_parser",
	SourceDependencyAnalyzer: "dependency_analyzer",
	SourceSemanticAnalyzer:   "semantic_analyzer",
	SourcePatternDetector:    "pattern_detector",
}

// String returns the string representation of the TriadSource.
func (s TriadSource) String() string {
	if name, ok := triadSourceNames[s]; ok {
		return name
	}
	return "unknown"
}

// EvidenceType classifies a piece of evidence supporting a triad.
type EvidenceType int

const (
	// EvidenceASTStructure marks evidence read directly from syntax.
	EvidenceASTStructure EvidenceType = iota

	// EvidenceNamingConvention marks evidence inferred from identifier names.
	EvidenceNamingConvention

	// EvidenceSemanticSimilarity marks evidence from similarity scoring.
	EvidenceSemanticSimilarity

	// EvidenceStructuralGrouping marks evidence from namespace/feature grouping.
	EvidenceStructuralGrouping
)

// evidenceTypeNames maps EvidenceType values to their string representations.
var evidenceTypeNames = map[EvidenceType]string{
	EvidenceASTStructure:       "ast_structure",
	EvidenceNamingConvention:   "naming_convention",
	EvidenceSemanticSimilarity: "semantic_similarity",
	EvidenceStructuralGrouping: "structural_grouping",
}

// String returns the string representation of the EvidenceType.
func (t EvidenceType) String() string {
	if name, ok := evidenceTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// SourceLocation identifies where an entity appears in source code.
//
// Synthetic nodes (patterns, modules, features) carry no location.
type SourceLocation struct {
	// FilePath is relative to the project root, forward slashes.
	FilePath string `json:"filePath"`

	// StartLine is the 1-based first line of the entity.
	StartLine int `json:"startLine"`

	// EndLine is the 1-based last line of the entity.
	EndLine int `json:"endLine"`

	// StartCol is the 0-based starting column. Optional.
	StartCol int `json:"startCol,omitempty"`
}

// Evidence is a provenance record justifying a triad.
type Evidence struct {
	// Type classifies how the evidence was obtained.
	Type EvidenceType `json:"type"`

	// Source is the phase that recorded the evidence.
	Source TriadSource `json:"source"`

	// Location is where in the source the evidence appears. May be nil
	// for evidence not tied to a single location (e.g. pairwise scores).
	Location *SourceLocation `json:"location,omitempty"`

	// Confidence is the strength of this individual evidence in [0,1].
	Confidence float64 `json:"confidence"`

	// Description is a short human-readable justification.
	Description string `json:"description"`
}

// NodeMetadata is the fixed attribute set carried by every node.
//
// The open-ended attribute bag of the original design is narrowed to
// explicit optional fields plus a free-form tag set.
type NodeMetadata struct {
	// Complexity is an approximate cyclomatic complexity score. Zero if unknown.
	Complexity int `json:"complexity,omitempty"`

	// Visibility is the access modifier ("public", "private", ...). Empty if unknown.
	Visibility string `json:"visibility,omitempty"`

	// IsAbstract reports whether the entity is abstract.
	IsAbstract bool `json:"isAbstract,omitempty"`

	// IsStatic reports whether the entity is static.
	IsStatic bool `json:"isStatic,omitempty"`

	// IsAsync reports whether the entity is asynchronous.
	IsAsync bool `json:"isAsync,omitempty"`

	// ParameterCount is the number of declared parameters (methods/functions).
	ParameterCount int `json:"parameterCount,omitempty"`

	// MethodCount is the number of methods (classes/interfaces).
	MethodCount int `json:"methodCount,omitempty"`

	// PropertyCount is the number of properties (classes/interfaces).
	PropertyCount int `json:"propertyCount,omitempty"`

	// MemberCount is the number of grouped members (synthetic nodes).
	MemberCount int `json:"memberCount,omitempty"`

	// ReturnType is the declared return type. Empty if unknown.
	ReturnType string `json:"returnType,omitempty"`

	// AutoCreated reports whether the node is a stub created while
	// resolving a reference to a not-yet-extracted (or external) entity.
	AutoCreated bool `json:"autoCreated,omitempty"`

	// Tags is a sorted, deduplicated set of free-form labels.
	Tags []string `json:"tags,omitempty"`
}

// AddTag inserts a tag, keeping Tags sorted and unique.
func (m *NodeMetadata) AddTag(tag string) {
	if tag == "" {
		return
	}
	i := sort.SearchStrings(m.Tags, tag)
	if i < len(m.Tags) && m.Tags[i] == tag {
		return
	}
	m.Tags = append(m.Tags, "")
	copy(m.Tags[i+1:], m.Tags[i:])
	m.Tags[i] = tag
}

// HasTag reports whether the tag set contains tag.
func (m *NodeMetadata) HasTag(tag string) bool {
	i := sort.SearchStrings(m.Tags, tag)
	return i < len(m.Tags) && m.Tags[i] == tag
}

// KnowledgeNode is a uniquely identified code entity.
//
/// The (Type, Name, Namespace) tuple is the de-duplication key: the store
// never holds two nodes with the same tuple. The ID is opaque, assigned at
// creation, and never reused.
//
// Nodes MUST NOT be mutated after being added to a Store.
type KnowledgeNode struct {
	// ID is the opaque stable identifier assigned by the store.
	ID string `json:"id"`

	// Type classifies the entity.
	Type NodeType `json:"type"`

	// Name is the entity's source identifier. Not unique on its own.
	Name string `json:"name"`

	// Namespace is a dotted path derived from directory structure or
	// synthetic grouping. Part of the de-duplication key.
	Namespace string `json:"namespace"`

	// Location is where the entity appears in source. Nil for synthetic
	// and auto-created nodes.
	Location *SourceLocation `json:"location,omitempty"`

	// Metadata carries the entity's attributes.
	Metadata NodeMetadata `json:"metadata"`

	// CreatedAtMilli is the Unix timestamp in milliseconds at creation.
	CreatedAtMilli int64 `json:"createdAtMilli"`
}

// TriadMetadata carries attributes of a triad.
type TriadMetadata struct {
	// Evidence is the ordered list of provenance records supporting the
	// claim. Required for every predicate except contains.
	Evidence []Evidence `json:"evidence,omitempty"`

	// SimilarityType distinguishes "semantic" from "structural" similarity
	// triads. Empty for other predicates.
	SimilarityType string `json:"similarityType,omitempty"`
}

// KnowledgeTriad is a directed, typed, evidenced relationship between two
// nodes: subject, predicate, object.
//
// Triads are append-only and are NOT deduplicated by value: repeated
// evidence for the same subject/predicate/object is meaningful.
type KnowledgeTriad struct {
	// ID is an opaque identifier for provenance and debugging.
	ID string `json:"id"`

	// Subject is the source node ID.
	Subject string `json:"subject"`

	// Object is the target node ID.
	Object string `json:"object"`

	// Predicate is the relation type.
	Predicate RelationType `json:"predicate"`

	// Confidence is in [0,1]. Deterministic AST-derived relations use
	// fixed high confidence; inferred relations carry a computed score.
	Confidence float64 `json:"confidence"`

	// Source is the phase that produced the triad.
	Source TriadSource `json:"source"`

	// Metadata carries evidence and predicate-specific attributes.
	Metadata TriadMetadata `json:"metadata"`
}

// StoreOptions configures Store behavior and limits.
type StoreOptions struct {
	// MaxNodes is the maximum number of nodes the store can hold.
	// Default: 1,000,000
	MaxNodes int

	// MaxTriads is the maximum number of triads the store can hold.
	// Default: 10,000,000
	MaxTriads int
}

// DefaultStoreOptions returns sensible defaults for store configuration.
func DefaultStoreOptions() StoreOptions {
	return StoreOptions{
		MaxNodes:  DefaultMaxNodes,
		MaxTriads: DefaultMaxTriads,
	}
}

// StoreOption is a functional option for configuring Store.
type StoreOption func(*StoreOptions)

// WithMaxNodes sets the maximum number of nodes the store can hold.
func WithMaxNodes(n int) StoreOption {
	return func(o *StoreOptions) {
		o.MaxNodes = n
	}
}

// WithMaxTriads sets the maximum number of triads the store can hold.
func WithMaxTriads(n int) StoreOption {
	return func(o *StoreOptions) {
		o.MaxTriads = n
	}
}
