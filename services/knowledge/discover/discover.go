// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package discover walks a project tree and selects the source files that
// feed the knowledge-graph pipeline.
//
// Selection is pattern-based: exclude patterns are checked before include
// patterns, dependency and build-output directories are always skipped, and
// test files are filtered out unless explicitly requested. Results are
// project-relative forward-slash paths in sorted order, so repeated runs
// over an unchanged tree discover the same files in the same order.
package discover

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

// DefaultIncludes selects the source extensions the built-in analyzers
// understand.
var DefaultIncludes = []string{
	"**/*.ts",
	"**/*.tsx",
	"**/*.mts",
	"**/*.cts",
	"**/*.js",
	"**/*.jsx",
	"**/*.mjs",
	"**/*.cjs",
}

// alwaysExcludedDirs are skipped regardless of configured patterns.
var alwaysExcludedDirs = map[string]struct{}{
	"node_modules": {},
	"dist":         {},
	"build":        {},
	"vendor":       {},
	"coverage":     {},
	"out":          {},
	"__pycache__":  {},
}

// testFileMarkers identify test files by naming convention.
var testFileMarkers = []string{".test.", ".spec.", "_test."}

// Discoverer selects source files under a project root.
//
// Thread Safety: safe for concurrent use after construction; Discover
// holds no mutable state on the receiver.
type Discoverer struct {
	includes     []string
	excludes     []string
	includeTests bool
	logger       *slog.Logger

	includeMatchers []glob.Glob
	excludeMatchers []glob.Glob
}

// Option configures a Discoverer.
type Option func(*Discoverer)

// WithIncludes replaces the default include patterns.
func WithIncludes(patterns []string) Option {
	return func(d *Discoverer) {
		if len(patterns) > 0 {
			d.includes = patterns
		}
	}
}

// WithExcludes sets additional exclude patterns. Excludes win over
// includes.
func WithExcludes(patterns []string) Option {
	return func(d *Discoverer) {
		d.excludes = patterns
	}
}

// WithIncludeTests keeps test files (*.test.*, *.spec.*, __tests__/) in
// the result set.
func WithIncludeTests(include bool) Option {
	return func(d *Discoverer) {
		d.includeTests = include
	}
}

// WithLogger sets the logger used for skipped-directory warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Discoverer) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewDiscoverer creates a Discoverer and compiles its glob patterns.
//
// Outputs:
//   - *Discoverer: ready for Discover calls
//   - error: ErrInvalidPattern if any pattern fails to compile
func NewDiscoverer(opts ...Option) (*Discoverer, error) {
	d := &Discoverer{
		includes: DefaultIncludes,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}

	var err error
	if d.includeMatchers, err = compileGlobs(d.includes); err != nil {
		return nil, err
	}
	if d.excludeMatchers, err = compileGlobs(d.excludes); err != nil {
		return nil, err
	}
	return d, nil
}

// compileGlobs compiles pattern strings with '/' as the separator, so *
// never crosses directory boundaries but ** does.
func compileGlobs(patterns []string) ([]glob.Glob, error) {
	matchers := make([]glob.Glob, 0, len(patterns))
	for _, pattern := range patterns {
		matcher, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidPattern, pattern, err)
		}
		matchers = append(matchers, matcher)
	}
	return matchers, nil
}

// Discover walks root and returns the selected files as sorted,
// project-relative forward-slash paths.
//
// Unreadable directories are logged and skipped rather than failing the
// walk. Cancelling the context stops the walk and returns ctx.Err().
func (d *Discoverer) Discover(ctx context.Context, root string) ([]string, error) {
	if root == "" {
		return nil, ErrRootEmpty
	}
	info, err := os.Stat(root)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrRootNotExist, root)
	}
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrRootNotDir, root)
	}

	var files []string
	walkErr := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			d.logger.Warn("skipping unreadable path",
				"path", path,
				"error", err)
			if entry != nil && entry.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)

		if entry.IsDir() {
			if rel == "." {
				return nil
			}
			if d.skipDirectory(entry.Name()) {
				return fs.SkipDir
			}
			return nil
		}

		if d.selectFile(rel) {
			files = append(files, rel)
		}
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	sort.Strings(files)
	return files, nil
}

// skipDirectory reports whether a directory should be pruned from the walk.
func (d *Discoverer) skipDirectory(name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	if _, ok := alwaysExcludedDirs[name]; ok {
		return true
	}
	if !d.includeTests && name == "__tests__" {
		return true
	}
	return false
}

// selectFile applies test filtering, excludes, then includes to a
// project-relative path.
//
// Patterns are matched against the full relative path and the bare
// filename, so "**/*.ts" and "*.ts" both cover files at the root.
func (d *Discoverer) selectFile(rel string) bool {
	if !d.includeTests && isTestFile(rel) {
		return false
	}
	base := filepath.Base(rel)
	for _, matcher := range d.excludeMatchers {
		if matcher.Match(rel) || matcher.Match(base) {
			return false
		}
	}
	for _, matcher := range d.includeMatchers {
		if matcher.Match(rel) || matcher.Match(base) {
			return true
		}
	}
	return false
}

// isTestFile reports whether a path looks like a test file by naming
// convention.
func isTestFile(rel string) bool {
	base := strings.ToLower(filepath.Base(rel))
	for _, marker := range testFileMarkers {
		if strings.Contains(base, marker) {
			return true
		}
	}
	return false
}
