// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package ast provides the language-agnostic analyzer contract and the
// tree-sitter backed analyzers that fulfill it.
//
// Analyzer implementations extract structured entity information (classes,
// functions, variables, imports, exports) from raw source text. All
// implementations produce output in the common FileAnalysis format, so the
// knowledge-graph pipeline never depends on a concrete parser.
package ast

import "time"

// File size limits.
const (
	// DefaultMaxFileSize is the largest file an analyzer will accept (10MB).
	DefaultMaxFileSize = 10 * 1024 * 1024

	// WarnFileSize triggers a log warning for unusually large files (1MB).
	WarnFileSize = 1 * 1024 * 1024
)

// Location identifies a region of a source file.
type Location struct {
	// FilePath is relative to the project root, forward slashes.
	FilePath string `json:"filePath"`

	// StartLine is the 1-based first line.
	StartLine int `json:"startLine"`

	// EndLine is the 1-based last line.
	EndLine int `json:"endLine"`

	// StartCol is the 0-based starting column.
	StartCol int `json:"startCol"`
}

// CallSite records a single call expression inside a function or method body.
type CallSite struct {
	// Target is the called identifier ("fetchUser", "map", ...).
	Target string `json:"target"`

	// Receiver is the expression the method is called on ("this",
	// "userService", ...). Empty for plain function calls.
	Receiver string `json:"receiver,omitempty"`

	// IsMethod is true for member-expression calls (obj.method()).
	IsMethod bool `json:"isMethod"`

	// Location is where the call appears.
	Location Location `json:"location"`
}

// FunctionInfo describes a standalone function or a class method.
type FunctionInfo struct {
	// Name is the declared identifier.
	Name string `json:"name"`

	// Parameters lists declared parameter names in order.
	Parameters []string `json:"parameters,omitempty"`

	// ReturnType is the declared return type annotation, if any.
	ReturnType string `json:"returnType,omitempty"`

	// IsAsync reports an async declaration.
	IsAsync bool `json:"isAsync,omitempty"`

	// IsStatic reports a static method. Always false for functions.
	IsStatic bool `json:"isStatic,omitempty"`

	// IsExported reports whether the declaration is exported. For methods
	// this means not declared private.
	IsExported bool `json:"isExported,omitempty"`

	// Calls lists the call sites found in the body.
	Calls []CallSite `json:"calls,omitempty"`

	// Complexity is an approximate cyclomatic complexity (1 + decision
	// points in the body).
	Complexity int `json:"complexity,omitempty"`

	// Location is where the declaration appears.
	Location Location `json:"location"`
}

// PropertyInfo describes a class field.
type PropertyInfo struct {
	// Name is the declared identifier.
	Name string `json:"name"`

	// Type is the declared type annotation, if any.
	Type string `json:"type,omitempty"`

	// IsStatic reports a static field.
	IsStatic bool `json:"isStatic,omitempty"`

	// IsReadonly reports a readonly field.
	IsReadonly bool `json:"isReadonly,omitempty"`

	// Location is where the declaration appears.
	Location Location `json:"location"`
}

// ClassInfo describes a class or interface declaration.
type ClassInfo struct {
	// Name is the declared identifier.
	Name string `json:"name"`

	// Extends is the parent class name, if any. Generic arguments are
	// stripped ("Repository<User>" -> "Repository").
	Extends string `json:"extends,omitempty"`

	// Implements lists implemented interface names.
	Implements []string `json:"implements,omitempty"`

	// Methods lists the class's methods.
	Methods []FunctionInfo `json:"methods,omitempty"`

	// Properties lists the class's fields.
	Properties []PropertyInfo `json:"properties,omitempty"`

	// Modifiers lists declaration modifiers ("abstract", "export", ...).
	Modifiers []string `json:"modifiers,omitempty"`

	// IsInterface is true for interface declarations.
	IsInterface bool `json:"isInterface,omitempty"`

	// Complexity is the sum of method complexities.
	Complexity int `json:"complexity,omitempty"`

	// Location is where the declaration appears.
	Location Location `json:"location"`
}

// VariableInfo describes a top-level variable or constant declaration.
type VariableInfo struct {
	// Name is the declared identifier.
	Name string `json:"name"`

	// IsConstant is true for const declarations.
	IsConstant bool `json:"isConstant,omitempty"`

	// IsExported reports whether the declaration is exported.
	IsExported bool `json:"isExported,omitempty"`

	// Location is where the declaration appears.
	Location Location `json:"location"`
}

// ImportInfo describes an import statement.
type ImportInfo struct {
	// Source is the module specifier ("react", "./utils/helpers").
	Source string `json:"source"`

	// Names lists the imported bindings.
	Names []string `json:"names,omitempty"`

	// IsRelative is true for specifiers starting with ".".
	IsRelative bool `json:"isRelative,omitempty"`

	// Location is where the import appears.
	Location Location `json:"location"`
}

// ExportInfo describes an exported symbol.
type ExportInfo struct {
	// Name is the exported identifier.
	Name string `json:"name"`

	// IsDefault is true for default exports.
	IsDefault bool `json:"isDefault,omitempty"`

	// Location is where the export appears.
	Location Location `json:"location"`
}

// FileAnalysis is the structured output of analyzing one source file.
//
// May contain partial results: syntax errors are collected into Errors
// rather than failing the whole file.
type FileAnalysis struct {
	// FilePath is relative to the project root.
	FilePath string `json:"filePath"`

	// Language is the canonical language name ("typescript", "javascript").
	Language string `json:"language"`

	// Classes lists class and interface declarations.
	Classes []ClassInfo `json:"classes,omitempty"`

	// Functions lists top-level function declarations.
	Functions []FunctionInfo `json:"functions,omitempty"`

	// Variables lists top-level variable/constant declarations.
	Variables []VariableInfo `json:"variables,omitempty"`

	// Imports lists import statements.
	Imports []ImportInfo `json:"imports,omitempty"`

	// Exports lists exported symbols.
	Exports []ExportInfo `json:"exports,omitempty"`

	// Errors lists non-fatal problems encountered during analysis.
	Errors []string `json:"errors,omitempty"`

	// AnalyzedAtMilli is the Unix timestamp in milliseconds of the analysis.
	AnalyzedAtMilli int64 `json:"analyzedAtMilli"`
}

// newFileAnalysis creates an empty FileAnalysis for the given file.
func newFileAnalysis(filePath, language string) *FileAnalysis {
	return &FileAnalysis{
		FilePath:        filePath,
		Language:        language,
		AnalyzedAtMilli: time.Now().UnixMilli(),
	}
}
