// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package abstraction

import (
	"context"
	"reflect"
	"testing"

	"github.com/AleutianAI/kodiak/services/knowledge/graph"
)

func addEntity(t *testing.T, store *graph.Store, nodeType graph.NodeType, name, ns string) {
	t.Helper()
	_, _, err := store.AddNode(&graph.KnowledgeNode{
		Type:      nodeType,
		Name:      name,
		Namespace: ns,
	})
	if err != nil {
		t.Fatalf("AddNode(%s): %v", name, err)
	}
}

func abstract(t *testing.T, store *graph.Store) *Result {
	t.Helper()
	result, err := NewGrouper(store).Abstract(context.Background())
	if err != nil {
		t.Fatalf("Abstract: %v", err)
	}
	return result
}

func TestAbstract_NamespaceModules(t *testing.T) {
	store := graph.NewStore()
	addEntity(t, store, graph.NodeTypeService, "UserService", "src.services")
	addEntity(t, store, graph.NodeTypeService, "OrderService", "src.services")
	addEntity(t, store, graph.NodeTypeClass, "Lonely", "src.misc")

	result := abstract(t, store)

	if len(result.Modules) != 1 {
		t.Fatalf("got %d module groups, want 1: %+v", len(result.Modules), result.Modules)
	}
	module := result.Modules[0]
	if module.Name != "src.services" {
		t.Errorf("module name = %q, want src.services", module.Name)
	}
	want := []string{"OrderService", "UserService"}
	if !reflect.DeepEqual(module.Members, want) {
		t.Errorf("members = %v, want %v", module.Members, want)
	}

	moduleNodes := store.NodesByType(graph.NodeTypeModule)
	if len(moduleNodes) != 1 {
		t.Fatalf("got %d module nodes, want 1", len(moduleNodes))
	}
	if moduleNodes[0].Metadata.MemberCount != 2 {
		t.Errorf("MemberCount = %d, want 2", moduleNodes[0].Metadata.MemberCount)
	}

	partOf := store.TriadsTo(moduleNodes[0].ID)
	if len(partOf) != 2 {
		t.Fatalf("got %d part_of triads, want 2", len(partOf))
	}
	for _, tr := range partOf {
		if tr.Predicate != graph.RelationPartOf {
			t.Errorf("predicate = %s, want part_of", tr.Predicate)
		}
		if tr.Confidence != ConfidenceModule {
			t.Errorf("confidence = %f, want %f", tr.Confidence, ConfidenceModule)
		}
	}
}

func TestAbstract_FeatureVocabulary(t *testing.T) {
	store := graph.NewStore()
	addEntity(t, store, graph.NodeTypeService, "UserService", "src.a")
	addEntity(t, store, graph.NodeTypeRepository, "UserRepository", "src.b")
	addEntity(t, store, graph.NodeTypeModel, "UserModel", "src.c")
	addEntity(t, store, graph.NodeTypeService, "OrderService", "src.a")

	result := abstract(t, store)

	if len(result.Features) != 1 {
		t.Fatalf("got %d feature groups, want 1: %+v", len(result.Features), result.Features)
	}
	feature := result.Features[0]
	if feature.Name != "user" {
		t.Errorf("feature name = %q, want user", feature.Name)
	}
	if len(feature.Members) != 3 {
		t.Errorf("members = %v, want 3 user entities", feature.Members)
	}

	featureNodes := store.NodesByType(graph.NodeTypeFeature)
	if len(featureNodes) != 1 {
		t.Fatalf("got %d feature nodes, want 1", len(featureNodes))
	}
	triads := store.TriadsTo(featureNodes[0].ID)
	if len(triads) != 3 {
		t.Errorf("got %d part_of triads, want 3", len(triads))
	}
	for _, tr := range triads {
		if tr.Confidence != ConfidenceFeature {
			t.Errorf("confidence = %f, want %f", tr.Confidence, ConfidenceFeature)
		}
	}
}

func TestAbstract_FeatureFromNamespace(t *testing.T) {
	store := graph.NewStore()
	// Names carry no vocabulary word; the namespace does.
	addEntity(t, store, graph.NodeTypeClass, "SessionStore", "auth.sessions")
	addEntity(t, store, graph.NodeTypeClass, "TokenSigner", "auth.sessions")
	addEntity(t, store, graph.NodeTypeClass, "Refresher", "auth.sessions")

	result := abstract(t, store)
	if len(result.Features) != 1 || result.Features[0].Name != "auth" {
		t.Fatalf("features = %+v, want one auth group", result.Features)
	}
	if len(result.Features[0].Members) != 3 {
		t.Errorf("members = %v, want 3", result.Features[0].Members)
	}
}

func TestAbstract_FeatureFallbackToNamespaceSegment(t *testing.T) {
	store := graph.NewStore()
	// No vocabulary match; the last namespace segment names the feature.
	addEntity(t, store, graph.NodeTypeClass, "Invoice", "src.billing")
	addEntity(t, store, graph.NodeTypeClass, "Receipt", "src.billing")
	addEntity(t, store, graph.NodeTypeClass, "LineItem", "src.billing")

	result := abstract(t, store)
	if len(result.Features) != 1 || result.Features[0].Name != "billing" {
		t.Fatalf("features = %+v, want one billing group", result.Features)
	}
}

func TestAbstract_ShortSegmentIsNotAFeature(t *testing.T) {
	store := graph.NewStore()
	addEntity(t, store, graph.NodeTypeClass, "Alpha", "src")
	addEntity(t, store, graph.NodeTypeClass, "Beta", "src")
	addEntity(t, store, graph.NodeTypeClass, "Gamma", "src")

	result := abstract(t, store)
	if len(result.Features) != 0 {
		t.Errorf("features = %+v, want none for layout namespaces", result.Features)
	}
}

func TestAbstract_TwoMembersIsNotAFeature(t *testing.T) {
	store := graph.NewStore()
	addEntity(t, store, graph.NodeTypeService, "AuthService", "src.a")
	addEntity(t, store, graph.NodeTypeClass, "AuthToken", "src.b")

	result := abstract(t, store)
	if len(result.Features) != 0 {
		t.Errorf("features = %+v, want none below the member minimum", result.Features)
	}
}

func TestAbstract_SkipsSyntheticAndStubs(t *testing.T) {
	store := graph.NewStore()
	addEntity(t, store, graph.NodeTypeService, "UserService", "src.services")
	addEntity(t, store, graph.NodeTypePattern, "repository", "")
	if _, err := store.FindOrCreateNode(graph.NodeTypeClass, "UserStub", nil); err != nil {
		t.Fatalf("FindOrCreateNode: %v", err)
	}

	result := abstract(t, store)
	if len(result.Modules) != 0 {
		t.Errorf("modules = %+v, want none", result.Modules)
	}
	if len(result.Features) != 0 {
		t.Errorf("features = %+v, want none", result.Features)
	}
}

func TestAbstract_Deterministic(t *testing.T) {
	build := func() *Result {
		store := graph.NewStore()
		addEntity(t, store, graph.NodeTypeService, "UserService", "src.services")
		addEntity(t, store, graph.NodeTypeService, "OrderService", "src.services")
		addEntity(t, store, graph.NodeTypeRepository, "UserRepository", "src.repos")
		addEntity(t, store, graph.NodeTypeRepository, "OrderRepository", "src.repos")
		addEntity(t, store, graph.NodeTypeModel, "UserModel", "src.models")
		addEntity(t, store, graph.NodeTypeModel, "OrderModel", "src.models")
		return abstract(t, store)
	}

	first := build()
	for i := 0; i < 5; i++ {
		if got := build(); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d produced %+v, want %+v", i, got, first)
		}
	}
}
