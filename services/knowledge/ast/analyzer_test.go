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
	"errors"
	"testing"
)

func TestRegistry_ForFile(t *testing.T) {
	r := DefaultRegistry()

	tests := []struct {
		name     string
		filePath string
		wantLang string
		wantErr  error
	}{
		{name: "typescript", filePath: "src/services/user.ts", wantLang: "typescript"},
		{name: "tsx", filePath: "src/components/App.tsx", wantLang: "typescript"},
		{name: "javascript", filePath: "lib/index.js", wantLang: "javascript"},
		{name: "jsx", filePath: "src/Widget.jsx", wantLang: "javascript"},
		{name: "esm", filePath: "scripts/build.mjs", wantLang: "javascript"},
		{name: "uppercase extension", filePath: "src/User.TS", wantLang: "typescript"},
		{name: "unsupported", filePath: "main.py", wantErr: ErrUnsupportedLanguage},
		{name: "no extension", filePath: "Makefile", wantErr: ErrUnsupportedLanguage},
		{name: "dotted directory", filePath: "v1.2/Makefile", wantErr: ErrUnsupportedLanguage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := r.ForFile(tt.filePath)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ForFile(%q) error = %v, want %v", tt.filePath, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ForFile(%q) unexpected error: %v", tt.filePath, err)
			}
			if a.Language() != tt.wantLang {
				t.Errorf("ForFile(%q) language = %q, want %q", tt.filePath, a.Language(), tt.wantLang)
			}
		})
	}
}

func TestRegistry_ForLanguage(t *testing.T) {
	r := DefaultRegistry()

	if _, err := r.ForLanguage("typescript"); err != nil {
		t.Fatalf("ForLanguage(typescript) unexpected error: %v", err)
	}
	if _, err := r.ForLanguage("TypeScript"); err != nil {
		t.Errorf("ForLanguage should be case-insensitive, got error: %v", err)
	}
	if _, err := r.ForLanguage("cobol"); !errors.Is(err, ErrUnsupportedLanguage) {
		t.Errorf("ForLanguage(cobol) error = %v, want ErrUnsupportedLanguage", err)
	}
}

func TestRegistry_Languages(t *testing.T) {
	langs := DefaultRegistry().Languages()
	want := []string{"javascript", "typescript"}
	if len(langs) != len(want) {
		t.Fatalf("Languages() = %v, want %v", langs, want)
	}
	for i := range want {
		if langs[i] != want[i] {
			t.Errorf("Languages()[%d] = %q, want %q", i, langs[i], want[i])
		}
	}
}

func TestExtensionOf(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"a/b.ts", ".ts"},
		{"a/b.test.ts", ".ts"},
		{"noext", ""},
		{"dir.v2/noext", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := extensionOf(tt.path); got != tt.want {
			t.Errorf("extensionOf(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
