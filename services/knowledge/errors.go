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
	"errors"
	"fmt"
)

// Sentinel errors for engine operations.
var (
	// ErrInvalidConfig is returned when configuration fails validation.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrNoFiles is returned when discovery selects no source files.
	ErrNoFiles = errors.New("no source files discovered")
)

// FileError records a per-file failure that did not abort the run.
type FileError struct {
	// Path is the project-relative file path.
	Path string `json:"path"`

	// Err is the underlying failure.
	Err error `json:"-"`

	// Message is the failure rendered for serialization.
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *FileError) Unwrap() error {
	return e.Err
}

// newFileError creates a FileError with the rendered message filled in.
func newFileError(path string, err error) FileError {
	return FileError{Path: path, Err: err, Message: err.Error()}
}
