// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ast

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Analyzer defines the contract for language-specific source analysis.
//
// Description:
//
//	Analyzer implementations extract structured entity information from
//	source code. Each implementation handles one language family but
//	produces output in the common FileAnalysis format.
//
//	The interface is designed to be:
//	- Context-aware: supports cancellation via context.Context
//	- Language-agnostic: common output format regardless of source language
//	- Error-tolerant: partial results returned even when parse errors occur
//
// Thread Safety:
//
//	Implementations must be safe for concurrent use; multiple goroutines
//	may call Analyze simultaneously with different content.
type Analyzer interface {
	// Analyze extracts entities from source code.
	//
	// Parameters:
	//   - ctx: Context for cancellation. Long parses should check ctx.Done().
	//   - content: Raw source bytes. Must be valid UTF-8.
	//   - filePath: Path relative to the project root (for locations).
	//
	// Returns:
	//   - *FileAnalysis: Extracted entities. Never nil on success.
	//   - error: Non-nil only for complete failures (oversized file,
	//     invalid UTF-8). Syntax errors go into FileAnalysis.Errors.
	Analyze(ctx context.Context, content []byte, filePath string) (*FileAnalysis, error)

	// Language returns the canonical lowercase language name.
	Language() string

	// Extensions returns the file extensions this analyzer handles,
	// including the leading dot, lowercase.
	Extensions() []string
}

// Registry manages analyzer instances by language and file extension.
//
// Thread Safety:
//
//	Fully thread-safe. Registration uses write locks, lookups read locks.
type Registry struct {
	mu sync.RWMutex

	byLanguage  map[string]Analyzer
	byExtension map[string]Analyzer
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		byLanguage:  make(map[string]Analyzer),
		byExtension: make(map[string]Analyzer),
	}
}

// DefaultRegistry returns a Registry with all built-in analyzers registered.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewTypeScriptAnalyzer())
	r.Register(NewJavaScriptAnalyzer())
	return r
}

// Register adds an analyzer, indexing it by language and extensions.
// A later registration for the same language or extension wins.
func (r *Registry) Register(a Analyzer) {
	if a == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byLanguage[a.Language()] = a
	for _, ext := range a.Extensions() {
		r.byExtension[ext] = a
	}
}

// ForLanguage returns the analyzer registered for the given language name.
func (r *Registry) ForLanguage(language string) (Analyzer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byLanguage[strings.ToLower(language)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, language)
	}
	return a, nil
}

// ForFile returns the analyzer registered for the file's extension.
func (r *Registry) ForFile(filePath string) (Analyzer, error) {
	ext := strings.ToLower(extensionOf(filePath))
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byExtension[ext]
	if !ok {
		return nil, fmt.Errorf("%w: extension %q", ErrUnsupportedLanguage, ext)
	}
	return a, nil
}

// Languages returns the registered language names in sorted order.
func (r *Registry) Languages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.byLanguage))
	for lang := range r.byLanguage {
		out = append(out, lang)
	}
	sort.Strings(out)
	return out
}

// extensionOf returns the final dot-suffix of a path ("a/b.test.ts" -> ".ts").
func extensionOf(filePath string) string {
	for i := len(filePath) - 1; i >= 0; i-- {
		switch filePath[i] {
		case '.':
			return filePath[i:]
		case '/', '\\':
			return ""
		}
	}
	return ""
}
