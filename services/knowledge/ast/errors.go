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

import "errors"

// Sentinel errors for analyzer operations.
var (
	// ErrFileTooLarge is returned when content exceeds the analyzer's
	// configured maximum file size.
	ErrFileTooLarge = errors.New("file exceeds maximum size")

	// ErrInvalidContent is returned when content is not valid UTF-8.
	ErrInvalidContent = errors.New("invalid file content")

	// ErrUnsupportedLanguage is returned by the registry when no analyzer
	// handles the requested language or extension.
	ErrUnsupportedLanguage = errors.New("unsupported language")
)
