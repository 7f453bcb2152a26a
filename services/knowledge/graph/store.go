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
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// nodeKey is the de-duplication key for nodes.
type nodeKey struct {
	Type      NodeType
	Name      string
	Namespace string
}

// Store is the shared mutable knowledge graph written by every analysis
// phase and queried by downstream consumers.
//
// Thread Safety:
//
//	Safe for concurrent use. AddNode and FindOrCreateNode serialize on the
//	(type, name, namespace) key under a single mutex; AddTriad confirms
//	endpoint existence and appends under the same mutex. Read operations
//	take the read lock.
type Store struct {
	mu sync.RWMutex

	// nodes maps node ID to node.
	nodes map[string]*KnowledgeNode

	// order records node IDs in insertion order. Query results iterate
	// this slice so output is deterministic for a fixed store state.
	order []string

	// byKey maps the de-duplication tuple to the owning node ID.
	byKey map[nodeKey]string

	// byName maps entity name to node IDs sharing that name.
	byName map[string][]string

	// byType maps node type to node IDs of that type.
	byType [NumNodeTypes][]string

	// triads holds all triads in insertion order.
	triads []*KnowledgeTriad

	// outgoing and incoming index triads by endpoint.
	outgoing map[string][]*KnowledgeTriad
	incoming map[string][]*KnowledgeTriad

	options StoreOptions
}

// NewStore creates an empty Store.
//
// Example:
//
//	store := NewStore(WithMaxNodes(100_000))
func NewStore(opts ...StoreOption) *Store {
	options := DefaultStoreOptions()
	for _, opt := range opts {
		opt(&options)
	}

	return &Store{
		nodes:    make(map[string]*KnowledgeNode),
		byKey:    make(map[nodeKey]string),
		byName:   make(map[string][]string),
		outgoing: make(map[string][]*KnowledgeTriad),
		incoming: make(map[string][]*KnowledgeTriad),
		options:  options,
	}
}

// AddNode inserts a node, de-duplicating on (type, name, namespace).
//
// Description:
//
//	If a node with the same key already exists its ID is returned and the
//	given node is discarded; otherwise a fresh ID is allocated, the node is
//	stored, and the new ID is returned. The check and the insert happen
//	under one critical section, so concurrent callers with the same key
//	always converge on a single node.
//
// Inputs:
//
//	node - Node to add. ID and CreatedAtMilli are assigned by the store.
//	       Must have a name and a known type. Must not be mutated after
//	       the call.
//
// Outputs:
//
//	string - The node's ID (existing or newly allocated).
//	bool   - True if the node was newly created.
//	error  - ErrInvalidNode or ErrMaxNodesExceeded.
func (s *Store) AddNode(node *KnowledgeNode) (string, bool, error) {
	if node == nil || node.Name == "" {
		return "", false, fmt.Errorf("%w: missing name", ErrInvalidNode)
	}
	if node.Type <= NodeTypeUnknown || node.Type >= NumNodeTypes {
		return "", false, fmt.Errorf("%w: unknown type %d", ErrInvalidNode, node.Type)
	}

	key := nodeKey{Type: node.Type, Name: node.Name, Namespace: node.Namespace}

	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.byKey[key]; ok {
		return id, false, nil
	}

	if len(s.nodes) >= s.options.MaxNodes {
		return "", false, fmt.Errorf("%w: limit %d", ErrMaxNodesExceeded, s.options.MaxNodes)
	}

	node.ID = uuid.NewString()
	node.CreatedAtMilli = time.Now().UnixMilli()

	s.nodes[node.ID] = node
	s.order = append(s.order, node.ID)
	s.byKey[key] = node.ID
	s.byName[node.Name] = append(s.byName[node.Name], node.ID)
	s.byType[node.Type] = append(s.byType[node.Type], node.ID)

	return node.ID, true, nil
}

// FindOrCreateNode resolves a referenced name to a node, creating a stub
// when no defining node exists yet.
//
// Description:
//
//	Used when a relation references a name whose defining node may not yet
//	have been extracted (a call to a not-yet-seen function, a third-party
//	import, a parent class with no local definition). Resolution order:
//
//	 1. Exact (type, name, namespace-of-location) key match.
//	 2. Any existing node with the same name, preferring the requested
//	    type; ties are broken by (type, namespace) ordering so resolution
//	    does not depend on extraction order.
//	 3. A new stub node tagged auto_created.
//
// Inputs:
//
//	nodeType - Expected type of the referenced entity.
//	name     - Referenced identifier. Must be non-empty.
//	location - Where the reference appears. May be nil; stubs for external
//	           names carry no location.
//
// Outputs:
//
//	string - Resolved or created node ID.
//	error  - ErrInvalidNode or ErrMaxNodesExceeded.
func (s *Store) FindOrCreateNode(nodeType NodeType, name string, location *SourceLocation) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: missing name", ErrInvalidNode)
	}
	if nodeType <= NodeTypeUnknown || nodeType >= NumNodeTypes {
		return "", fmt.Errorf("%w: unknown type %d", ErrInvalidNode, nodeType)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.byKey[nodeKey{Type: nodeType, Name: name, Namespace: ""}]; ok {
		return id, nil
	}

	if candidates := s.byName[name]; len(candidates) > 0 {
		if id := s.resolveByNameLocked(candidates, nodeType); id != "" {
			return id, nil
		}
	}

	if len(s.nodes) >= s.options.MaxNodes {
		return "", fmt.Errorf("%w: limit %d", ErrMaxNodesExceeded, s.options.MaxNodes)
	}

	stub := &KnowledgeNode{
		ID:             uuid.NewString(),
		Type:           nodeType,
		Name:           name,
		Namespace:      "",
		Location:       location,
		CreatedAtMilli: time.Now().UnixMilli(),
	}
	stub.Metadata.AutoCreated = true
	stub.Metadata.AddTag("auto_created")

	s.nodes[stub.ID] = stub
	s.order = append(s.order, stub.ID)
	s.byKey[nodeKey{Type: nodeType, Name: name, Namespace: ""}] = stub.ID
	s.byName[name] = append(s.byName[name], stub.ID)
	s.byType[nodeType] = append(s.byType[nodeType], stub.ID)

	return stub.ID, nil
}

// resolveByNameLocked picks a node from same-name candidates. Preference
// order is independent of insertion order so that parallel extraction
// produces the same resolution as a sequential run.
func (s *Store) resolveByNameLocked(candidates []string, preferred NodeType) string {
	// rank orders candidates: exact type match first, then (type, namespace).
	rank := func(n *KnowledgeNode) (int, NodeType, string) {
		exact := 1
		if n.Type == preferred {
			exact = 0
		}
		return exact, n.Type, n.Namespace
	}

	best := ""
	for _, id := range candidates {
		n := s.nodes[id]
		if best == "" {
			best = id
			continue
		}
		be, bt, bns := rank(s.nodes[best])
		ce, ct, cns := rank(n)
		if ce < be || (ce == be && (ct < bt || (ct == bt && cns < bns))) {
			best = id
		}
	}
	return best
}

// AddTriad appends a triad after confirming both endpoints exist.
//
// Description:
//
//	Triads are never deduplicated: repeated evidence for the same
//	subject/predicate/object is allowed and meaningful. A triad whose
//	subject or object is not in the store is rejected with
//	ErrDanglingReference; callers treat that as a recoverable, logged
//	condition rather than a failure of the whole run. Every predicate
//	other than contains must carry at least one evidence record.
//
// Inputs:
//
//	triad - Triad to append. ID is assigned by the store. Must not be
//	        mutated after the call.
//
// Outputs:
//
//	error - ErrDanglingReference, ErrInvalidTriad, ErrMissingEvidence, or
//	        ErrMaxTriadsExceeded.
func (s *Store) AddTriad(triad *KnowledgeTriad) error {
	if triad == nil {
		return fmt.Errorf("%w: nil triad", ErrInvalidTriad)
	}
	if triad.Predicate <= RelationUnknown || triad.Predicate >= NumRelationTypes {
		return fmt.Errorf("%w: unknown predicate %d", ErrInvalidTriad, triad.Predicate)
	}
	if triad.Confidence < 0 || triad.Confidence > 1 {
		return fmt.Errorf("%w: confidence %f outside [0,1]", ErrInvalidTriad, triad.Confidence)
	}
	if triad.Predicate != RelationContains && len(triad.Metadata.Evidence) == 0 {
		return fmt.Errorf("%w: predicate %s", ErrMissingEvidence, triad.Predicate)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.nodes[triad.Subject]; !ok {
		return fmt.Errorf("%w: subject %s", ErrDanglingReference, triad.Subject)
	}
	if _, ok := s.nodes[triad.Object]; !ok {
		return fmt.Errorf("%w: object %s", ErrDanglingReference, triad.Object)
	}

	if len(s.triads) >= s.options.MaxTriads {
		return fmt.Errorf("%w: limit %d", ErrMaxTriadsExceeded, s.options.MaxTriads)
	}

	triad.ID = uuid.NewString()
	s.triads = append(s.triads, triad)
	s.outgoing[triad.Subject] = append(s.outgoing[triad.Subject], triad)
	s.incoming[triad.Object] = append(s.incoming[triad.Object], triad)

	return nil
}

// GetNode returns the node with the given ID.
func (s *Store) GetNode(id string) (*KnowledgeNode, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.nodes[id]
	return n, ok
}

// NodeCount returns the number of nodes in the store.
func (s *Store) NodeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}

// TriadCount returns the number of triads in the store.
func (s *Store) TriadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.triads)
}

// Triads returns a snapshot of all triads in insertion order.
func (s *Store) Triads() []*KnowledgeTriad {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*KnowledgeTriad, len(s.triads))
	copy(out, s.triads)
	return out
}

// Nodes returns a snapshot of all nodes, sorted by type then name for
// stable output regardless of insertion order.
func (s *Store) Nodes() []*KnowledgeNode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*KnowledgeNode, 0, len(s.nodes))
	for _, n := range s.nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Type != out[j].Type {
			return out[i].Type < out[j].Type
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Namespace < out[j].Namespace
	})
	return out
}

// NodesByType returns a snapshot of all nodes of the given type in
// insertion order.
func (s *Store) NodesByType(t NodeType) []*KnowledgeNode {
	if t <= NodeTypeUnknown || t >= NumNodeTypes {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*KnowledgeNode, 0, len(s.byType[t]))
	for _, id := range s.byType[t] {
		out = append(out, s.nodes[id])
	}
	return out
}

// TriadsFrom returns a snapshot of triads whose subject is id.
func (s *Store) TriadsFrom(id string) []*KnowledgeTriad {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*KnowledgeTriad, len(s.outgoing[id]))
	copy(out, s.outgoing[id])
	return out
}

// TriadsTo returns a snapshot of triads whose object is id.
func (s *Store) TriadsTo(id string) []*KnowledgeTriad {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*KnowledgeTriad, len(s.incoming[id]))
	copy(out, s.incoming[id])
	return out
}

// Namespaces returns all distinct non-empty namespaces in sorted order.
func (s *Store) Namespaces() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]struct{})
	for _, n := range s.nodes {
		if n.Namespace != "" {
			seen[n.Namespace] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for ns := range seen {
		out = append(out, ns)
	}
	sort.Strings(out)
	return out
}
