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
	"fmt"
	"runtime"

	"github.com/go-playground/validator/v10"

	"github.com/AleutianAI/kodiak/services/knowledge/ast"
	"github.com/AleutianAI/kodiak/services/knowledge/semantic"
)

// validate is the shared validator instance.
var validate = validator.New()

// Config controls one graph construction run.
type Config struct {
	// Root is the project directory to analyze.
	Root string `validate:"required"`

	// IncludePatterns override the default source-file globs when set.
	IncludePatterns []string

	// ExcludePatterns are additional exclusion globs.
	ExcludePatterns []string

	// IncludeTests keeps test files in the analysis.
	IncludeTests bool

	// MinConfidence is the similarity threshold in [0,1].
	MinConfidence float64 `validate:"gte=0,lte=1"`

	// EnableSimilarity turns the pairwise similarity phase on.
	EnableSimilarity bool

	// EnablePatterns turns the design-pattern detection phase on.
	EnablePatterns bool

	// Workers caps concurrent file analysis. Zero means NumCPU.
	Workers int `validate:"gte=0"`

	// MaxFileSize caps accepted file size in bytes. Zero means the
	// analyzer default.
	MaxFileSize int64 `validate:"gte=0"`
}

// DefaultConfig returns the standard configuration for a project root:
// all phases enabled, test files excluded.
func DefaultConfig(root string) Config {
	return Config{
		Root:             root,
		MinConfidence:    semantic.DefaultMinConfidence,
		EnableSimilarity: true,
		EnablePatterns:   true,
		Workers:          runtime.NumCPU(),
		MaxFileSize:      ast.DefaultMaxFileSize,
	}
}

// Validate checks the configuration, wrapping failures in
// ErrInvalidConfig.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}
