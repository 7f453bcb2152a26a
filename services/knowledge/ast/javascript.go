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
	"log/slog"

	"github.com/smacker/go-tree-sitter/javascript"
)

// JavaScriptAnalyzer extracts entities from JavaScript sources using
// tree-sitter. The JavaScript grammar handles JSX natively, so .jsx files
// go through the same grammar.
type JavaScriptAnalyzer struct {
	maxFileSize int64
	logger      *slog.Logger
}

// JavaScriptOption configures a JavaScriptAnalyzer.
type JavaScriptOption func(*JavaScriptAnalyzer)

// WithJavaScriptMaxFileSize overrides the maximum accepted file size.
func WithJavaScriptMaxFileSize(size int64) JavaScriptOption {
	return func(a *JavaScriptAnalyzer) {
		if size > 0 {
			a.maxFileSize = size
		}
	}
}

// WithJavaScriptLogger sets the logger used for analysis warnings.
func WithJavaScriptLogger(logger *slog.Logger) JavaScriptOption {
	return func(a *JavaScriptAnalyzer) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewJavaScriptAnalyzer creates a JavaScript analyzer with default settings.
func NewJavaScriptAnalyzer(opts ...JavaScriptOption) *JavaScriptAnalyzer {
	a := &JavaScriptAnalyzer{
		maxFileSize: DefaultMaxFileSize,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Language returns "javascript".
func (a *JavaScriptAnalyzer) Language() string { return "javascript" }

// Extensions returns the JavaScript file extensions.
func (a *JavaScriptAnalyzer) Extensions() []string {
	return []string{".js", ".jsx", ".mjs", ".cjs"}
}

// Analyze extracts entities from JavaScript source. Syntax errors are
// collected into FileAnalysis.Errors; partial results are still returned.
func (a *JavaScriptAnalyzer) Analyze(ctx context.Context, content []byte, filePath string) (*FileAnalysis, error) {
	if err := checkContent(content, a.maxFileSize, filePath, a.logger); err != nil {
		return nil, err
	}
	return analyzeWithLanguage(ctx, javascript.GetLanguage(), content, filePath, "javascript")
}
