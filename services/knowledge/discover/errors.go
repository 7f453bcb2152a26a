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

import "errors"

// Sentinel errors for discovery operations.
var (
	// ErrRootEmpty is returned when no root path is given.
	ErrRootEmpty = errors.New("root path cannot be empty")

	// ErrRootNotExist is returned when the root path does not exist.
	ErrRootNotExist = errors.New("root path does not exist")

	// ErrRootNotDir is returned when the root path is not a directory.
	ErrRootNotDir = errors.New("root path is not a directory")

	// ErrInvalidPattern is returned when a glob pattern cannot be compiled.
	ErrInvalidPattern = errors.New("invalid glob pattern")
)
