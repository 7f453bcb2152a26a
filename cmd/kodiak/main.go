// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command kodiak builds semantic knowledge graphs from source code.
//
// Kodiak analyzes a project tree with tree-sitter, extracts entities and
// relationships into an in-memory knowledge graph, and layers inferred
// knowledge on top: similarity links, design-pattern detections, and
// module/feature groupings.
//
// Usage:
//
//	kodiak analyze --root /path/to/project
//	kodiak analyze --root . --json
//	kodiak watch --root . --metrics-addr :9464
package main

import (
	"fmt"
	"os"
)

func main() {
	err := newRootCommand().Execute()
	if appLogger != nil {
		appLogger.Close()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
