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
	"log/slog"
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// TypeScriptAnalyzer extracts entities from TypeScript and TSX sources
// using tree-sitter.
//
// Thread Safety:
//
//	Safe for concurrent use. A fresh tree-sitter parser is created per
//	Analyze call because parser instances are not thread-safe.
type TypeScriptAnalyzer struct {
	maxFileSize int64
	logger      *slog.Logger
}

// TypeScriptOption configures a TypeScriptAnalyzer.
type TypeScriptOption func(*TypeScriptAnalyzer)

// WithTypeScriptMaxFileSize overrides the maximum accepted file size.
func WithTypeScriptMaxFileSize(size int64) TypeScriptOption {
	return func(a *TypeScriptAnalyzer) {
		if size > 0 {
			a.maxFileSize = size
		}
	}
}

// WithTypeScriptLogger sets the logger used for analysis warnings.
func WithTypeScriptLogger(logger *slog.Logger) TypeScriptOption {
	return func(a *TypeScriptAnalyzer) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewTypeScriptAnalyzer creates a TypeScript analyzer with default settings.
func NewTypeScriptAnalyzer(opts ...TypeScriptOption) *TypeScriptAnalyzer {
	a := &TypeScriptAnalyzer{
		maxFileSize: DefaultMaxFileSize,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Language returns "typescript".
func (a *TypeScriptAnalyzer) Language() string { return "typescript" }

// Extensions returns the TypeScript file extensions.
func (a *TypeScriptAnalyzer) Extensions() []string {
	return []string{".ts", ".tsx", ".mts", ".cts"}
}

// Analyze extracts entities from TypeScript source.
//
// Description:
//
//	Parses the content with the tsx grammar for .tsx files and the plain
//	typescript grammar otherwise. Syntax errors do not abort extraction;
//	they are recorded in FileAnalysis.Errors and whatever parsed cleanly
//	is still returned.
//
// Inputs:
//   - ctx: cancellation context, checked during long walks
//   - content: raw source bytes, must be valid UTF-8
//   - filePath: project-relative path used in locations
//
// Outputs:
//   - *FileAnalysis: extracted entities, possibly partial
//   - error: non-nil only when nothing could be analyzed
func (a *TypeScriptAnalyzer) Analyze(ctx context.Context, content []byte, filePath string) (*FileAnalysis, error) {
	if err := checkContent(content, a.maxFileSize, filePath, a.logger); err != nil {
		return nil, err
	}

	lang := typescript.GetLanguage()
	if strings.HasSuffix(strings.ToLower(filePath), ".tsx") {
		lang = tsx.GetLanguage()
	}

	return analyzeWithLanguage(ctx, lang, content, filePath, "typescript")
}

// checkContent validates size and encoding before parsing.
func checkContent(content []byte, maxSize int64, filePath string, logger *slog.Logger) error {
	if int64(len(content)) > maxSize {
		return fmt.Errorf("%w: %s is %d bytes (max %d)", ErrFileTooLarge, filePath, len(content), maxSize)
	}
	if !utf8.Valid(content) {
		return fmt.Errorf("%w: %s is not valid UTF-8", ErrInvalidContent, filePath)
	}
	if len(content) > WarnFileSize {
		logger.Warn("analyzing large file",
			"file", filePath,
			"size_bytes", len(content))
	}
	return nil
}

// analyzeWithLanguage runs the shared parse-and-extract flow for one
// tree-sitter grammar.
func analyzeWithLanguage(ctx context.Context, lang *sitter.Language, content []byte, filePath, languageName string) (*FileAnalysis, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(lang)

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filePath, err)
	}
	defer tree.Close()

	result := newFileAnalysis(filePath, languageName)

	root := tree.RootNode()
	if root.HasError() {
		result.Errors = append(result.Errors, collectSyntaxErrors(root, filePath)...)
	}

	extractProgram(ctx, root, content, filePath, result)

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("analyzing %s: %w", filePath, err)
	}
	return result, nil
}

// collectSyntaxErrors gathers ERROR-node locations for reporting. Capped
// so a badly mangled file does not flood the result.
func collectSyntaxErrors(root *sitter.Node, filePath string) []string {
	const maxReported = 10

	var errs []string
	stack := []*sitter.Node{root}
	for len(stack) > 0 && len(errs) < maxReported {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if node.IsError() || node.IsMissing() {
			errs = append(errs, fmt.Sprintf("syntax error at %s:%d", filePath, int(node.StartPoint().Row)+1))
			continue
		}
		if !node.HasError() {
			continue
		}
		for i := int(node.ChildCount()) - 1; i >= 0; i-- {
			stack = append(stack, node.Child(i))
		}
	}
	return errs
}
