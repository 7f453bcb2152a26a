// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package discover

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

// writeTree creates the given relative files under a temp root.
func writeTree(t *testing.T, files []string) string {
	t.Helper()
	root := t.TempDir()
	for _, rel := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte("// stub\n"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	return root
}

func discoverAll(t *testing.T, root string, opts ...Option) []string {
	t.Helper()
	d, err := NewDiscoverer(opts...)
	if err != nil {
		t.Fatalf("NewDiscoverer: %v", err)
	}
	files, err := d.Discover(context.Background(), root)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	return files
}

func TestDiscover_Defaults(t *testing.T) {
	root := writeTree(t, []string{
		"src/services/user.ts",
		"src/components/App.tsx",
		"lib/index.js",
		"index.ts",
		"README.md",
		"styles/main.css",
		"node_modules/react/index.js",
		"dist/bundle.js",
		"build/out.js",
		"coverage/report.js",
		".git/hooks/pre-commit.js",
		".hidden/secret.ts",
	})

	got := discoverAll(t, root)
	want := []string{
		"index.ts",
		"lib/index.js",
		"src/components/App.tsx",
		"src/services/user.ts",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Discover = %v, want %v", got, want)
	}
}

func TestDiscover_TestFileFiltering(t *testing.T) {
	files := []string{
		"src/user.ts",
		"src/user.test.ts",
		"src/user.spec.ts",
		"src/__tests__/helpers.ts",
	}
	root := writeTree(t, files)

	got := discoverAll(t, root)
	want := []string{"src/user.ts"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("default Discover = %v, want %v", got, want)
	}

	got = discoverAll(t, root, WithIncludeTests(true))
	want = []string{
		"src/__tests__/helpers.ts",
		"src/user.spec.ts",
		"src/user.test.ts",
		"src/user.ts",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Discover with tests = %v, want %v", got, want)
	}
}

func TestDiscover_CustomPatterns(t *testing.T) {
	root := writeTree(t, []string{
		"src/a.ts",
		"src/b.js",
		"generated/c.ts",
	})

	got := discoverAll(t, root,
		WithIncludes([]string{"**/*.ts"}),
		WithExcludes([]string{"generated/**"}),
	)
	want := []string{"src/a.ts"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Discover = %v, want %v", got, want)
	}
}

func TestDiscover_InvalidRoot(t *testing.T) {
	d, err := NewDiscoverer()
	if err != nil {
		t.Fatalf("NewDiscoverer: %v", err)
	}

	if _, err := d.Discover(context.Background(), ""); !errors.Is(err, ErrRootEmpty) {
		t.Errorf("empty root error = %v, want ErrRootEmpty", err)
	}
	if _, err := d.Discover(context.Background(), filepath.Join(t.TempDir(), "missing")); !errors.Is(err, ErrRootNotExist) {
		t.Errorf("missing root error = %v, want ErrRootNotExist", err)
	}

	file := filepath.Join(t.TempDir(), "file.ts")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := d.Discover(context.Background(), file); !errors.Is(err, ErrRootNotDir) {
		t.Errorf("file root error = %v, want ErrRootNotDir", err)
	}
}

func TestDiscover_InvalidPattern(t *testing.T) {
	if _, err := NewDiscoverer(WithIncludes([]string{"[unclosed"})); !errors.Is(err, ErrInvalidPattern) {
		t.Errorf("error = %v, want ErrInvalidPattern", err)
	}
}

func TestDiscover_Cancelled(t *testing.T) {
	root := writeTree(t, []string{"src/a.ts"})
	d, err := NewDiscoverer()
	if err != nil {
		t.Fatalf("NewDiscoverer: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := d.Discover(ctx, root); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled Discover error = %v, want context.Canceled", err)
	}
}

func TestDiscover_Deterministic(t *testing.T) {
	root := writeTree(t, []string{
		"z/last.ts", "a/first.ts", "m/middle.js",
	})

	first := discoverAll(t, root)
	for i := 0; i < 5; i++ {
		if got := discoverAll(t, root); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d produced %v, want %v", i, got, first)
		}
	}
}
