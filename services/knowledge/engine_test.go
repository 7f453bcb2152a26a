// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package knowledge

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/AleutianAI/kodiak/services/knowledge/ast"
	"github.com/AleutianAI/kodiak/services/knowledge/graph"
	"github.com/AleutianAI/kodiak/services/knowledge/patterns"
)

// stubAnalyzer parses a tiny line protocol instead of real source, so
// pipeline tests control exactly which entities each file contributes:
//
//	class Name [extends Parent]
//	func name
//	FAIL        (simulates an unparseable file)
type stubAnalyzer struct{}

func (stubAnalyzer) Language() string     { return "typescript" }
func (stubAnalyzer) Extensions() []string { return []string{".ts"} }

func (stubAnalyzer) Analyze(_ context.Context, content []byte, filePath string) (*ast.FileAnalysis, error) {
	result := &ast.FileAnalysis{FilePath: filePath, Language: "typescript"}
	for _, line := range strings.Split(string(content), "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "FAIL":
			return nil, errors.New("unparseable file")
		case "class":
			cls := ast.ClassInfo{Name: fields[1]}
			if len(fields) == 4 && fields[2] == "extends" {
				cls.Extends = fields[3]
			}
			result.Classes = append(result.Classes, cls)
		case "func":
			result.Functions = append(result.Functions, ast.FunctionInfo{Name: fields[1]})
		}
	}
	return result, nil
}

func stubRegistry() *ast.Registry {
	r := ast.NewRegistry()
	r.Register(stubAnalyzer{})
	return r
}

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	return root
}

func construct(t *testing.T, cfg Config) *AnalysisResult {
	t.Helper()
	engine, err := NewEngine(cfg, WithRegistry(stubRegistry()))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	result, err := engine.Construct(context.Background())
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}
	return result
}

func TestNewEngine_InvalidConfig(t *testing.T) {
	if _, err := NewEngine(Config{}); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("empty config error = %v, want ErrInvalidConfig", err)
	}

	cfg := DefaultConfig("/tmp/project")
	cfg.MinConfidence = 1.5
	if _, err := NewEngine(cfg); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("out-of-range confidence error = %v, want ErrInvalidConfig", err)
	}
}

func TestConstruct_Pipeline(t *testing.T) {
	root := writeProject(t, map[string]string{
		"services/user.ts":  "class UserService\n",
		"services/order.ts": "class OrderService\n",
		"repos/user.ts":     "class UserRepository\n",
		"repos/order.ts":    "class OrderRepository\n",
		"models/user.ts":    "class UserModel\n",
	})

	result := construct(t, DefaultConfig(root))

	if result.FilesAnalyzed != 5 {
		t.Errorf("FilesAnalyzed = %d, want 5", result.FilesAnalyzed)
	}
	if result.NodesExtracted != result.Store.NodeCount() {
		t.Errorf("NodesExtracted = %d, store has %d", result.NodesExtracted, result.Store.NodeCount())
	}
	if result.TriadsCreated != result.Store.TriadCount() {
		t.Errorf("TriadsCreated = %d, store has %d", result.TriadsCreated, result.Store.TriadCount())
	}

	foundTypes := make(map[patterns.PatternType]bool)
	for _, p := range result.Patterns {
		foundTypes[p.Type] = true
	}
	if !foundTypes[patterns.PatternRepository] || !foundTypes[patterns.PatternService] {
		t.Errorf("patterns = %+v, want repository and service", result.Patterns)
	}

	if result.Abstractions == nil {
		t.Fatal("Abstractions should not be nil")
	}
	// services and repos namespaces each hold two entities.
	if len(result.Abstractions.Modules) != 2 {
		t.Errorf("modules = %+v, want 2 groups", result.Abstractions.Modules)
	}
	// UserService, UserRepository, UserModel share the user feature.
	featureNames := make(map[string]int)
	for _, f := range result.Abstractions.Features {
		featureNames[f.Name] = len(f.Members)
	}
	if featureNames["user"] != 3 {
		t.Errorf("features = %+v, want user with 3 members", result.Abstractions.Features)
	}

	if len(result.Insights) == 0 {
		t.Error("expected insights")
	}
	if result.DurationMilli < 0 {
		t.Errorf("DurationMilli = %d", result.DurationMilli)
	}
}

func TestConstruct_InheritanceAcrossFiles(t *testing.T) {
	root := writeProject(t, map[string]string{
		"src/base.ts":    "class Base\n",
		"src/derived.ts": "class Derived extends Base\n",
	})

	// One worker extracts files in discovery order, so the Base
	// definition lands before the reference to it.
	cfg := DefaultConfig(root)
	cfg.Workers = 1
	result := construct(t, cfg)

	extendsCount := 0
	for _, tr := range result.Store.Triads() {
		if tr.Predicate == graph.RelationExtends {
			extendsCount++
		}
	}
	if extendsCount != 1 {
		t.Errorf("got %d extends triads, want 1", extendsCount)
	}
	// Base is defined, so no stub should exist for it.
	for _, n := range result.Store.NodesByType(graph.NodeTypeClass) {
		if n.Name == "Base" && n.Metadata.AutoCreated {
			t.Error("Base resolved to a stub despite having a definition")
		}
	}
}

func TestConstruct_NoFiles(t *testing.T) {
	engine, err := NewEngine(DefaultConfig(t.TempDir()), WithRegistry(stubRegistry()))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if _, err := engine.Construct(context.Background()); !errors.Is(err, ErrNoFiles) {
		t.Errorf("error = %v, want ErrNoFiles", err)
	}
}

func TestConstruct_FileErrorsDoNotAbort(t *testing.T) {
	root := writeProject(t, map[string]string{
		"src/good.ts": "class Good\n",
		"src/bad.ts":  "FAIL\n",
	})

	result := construct(t, DefaultConfig(root))

	if result.FilesAnalyzed != 1 {
		t.Errorf("FilesAnalyzed = %d, want 1", result.FilesAnalyzed)
	}
	if len(result.FileErrors) != 1 || result.FileErrors[0].Path != "src/bad.ts" {
		t.Fatalf("FileErrors = %+v, want one entry for src/bad.ts", result.FileErrors)
	}
	if result.FileErrors[0].Message == "" {
		t.Error("FileError.Message should be filled")
	}
}

func TestConstruct_DisabledPhases(t *testing.T) {
	root := writeProject(t, map[string]string{
		"src/a.ts": "class UserRepository\n",
		"src/b.ts": "class OrderRepository\n",
	})

	cfg := DefaultConfig(root)
	cfg.EnableSimilarity = false
	cfg.EnablePatterns = false
	result := construct(t, cfg)

	if len(result.Patterns) != 0 {
		t.Errorf("patterns = %+v, want none with detection disabled", result.Patterns)
	}
	for _, tr := range result.Store.Triads() {
		if tr.Predicate == graph.RelationIsSimilarTo {
			t.Fatal("similarity triads present with similarity disabled")
		}
	}
}

func TestConstruct_FreshStorePerRun(t *testing.T) {
	root := writeProject(t, map[string]string{
		"src/a.ts": "class Alpha\n",
	})

	engine, err := NewEngine(DefaultConfig(root), WithRegistry(stubRegistry()))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	first, err := engine.Construct(context.Background())
	if err != nil {
		t.Fatalf("first Construct: %v", err)
	}
	second, err := engine.Construct(context.Background())
	if err != nil {
		t.Fatalf("second Construct: %v", err)
	}

	if first.Store == second.Store {
		t.Error("each run should build into a fresh store")
	}
	if first.NodesExtracted != second.NodesExtracted || first.TriadsCreated != second.TriadsCreated {
		t.Errorf("re-run diverged: %d/%d nodes, %d/%d triads",
			first.NodesExtracted, second.NodesExtracted, first.TriadsCreated, second.TriadsCreated)
	}
}

func TestConstruct_DeterministicAcrossWorkerCounts(t *testing.T) {
	files := map[string]string{
		"services/user.ts":  "class UserService\nfunc getUserById\n",
		"services/order.ts": "class OrderService\nfunc getOrderById\n",
		"repos/user.ts":     "class UserRepository extends BaseRepository\n",
		"repos/order.ts":    "class OrderRepository extends BaseRepository\n",
	}

	run := func(workers int) *AnalysisResult {
		root := writeProject(t, files)
		cfg := DefaultConfig(root)
		cfg.Workers = workers
		return construct(t, cfg)
	}

	sequential := run(1)
	parallel := run(8)

	if sequential.NodesExtracted != parallel.NodesExtracted {
		t.Errorf("node counts diverge: %d vs %d", sequential.NodesExtracted, parallel.NodesExtracted)
	}
	if sequential.TriadsCreated != parallel.TriadsCreated {
		t.Errorf("triad counts diverge: %d vs %d", sequential.TriadsCreated, parallel.TriadsCreated)
	}
	if len(sequential.Patterns) != len(parallel.Patterns) {
		t.Errorf("pattern counts diverge: %d vs %d", len(sequential.Patterns), len(parallel.Patterns))
	}
}
