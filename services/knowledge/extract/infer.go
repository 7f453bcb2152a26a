// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package extract

import (
	"path"
	"strings"
	"unicode"

	"github.com/AleutianAI/kodiak/services/knowledge/graph"
)

// roleSuffixes maps naming-convention suffixes to node types, checked in
// order so longer suffixes win over shorter ones.
var roleSuffixes = []struct {
	suffix   string
	nodeType graph.NodeType
}{
	{"Repository", graph.NodeTypeRepository},
	{"Controller", graph.NodeTypeController},
	{"Component", graph.NodeTypeComponent},
	{"Service", graph.NodeTypeService},
	{"Model", graph.NodeTypeModel},
}

// classifyClassName assigns a node type to a class declaration from its
// name. Interfaces keep their own type regardless of suffix.
func classifyClassName(name string, isInterface bool) graph.NodeType {
	if isInterface {
		return graph.NodeTypeInterface
	}
	if t, ok := roleFromName(name); ok {
		return t
	}
	return graph.NodeTypeClass
}

// inferExportType assigns a node type to an exported symbol from its name:
// role suffixes first, then a config check, then capitalization as a
// class/function heuristic.
func inferExportType(name string) graph.NodeType {
	if t, ok := roleFromName(name); ok {
		return t
	}
	if name != "" && unicode.IsUpper(rune(name[0])) {
		return graph.NodeTypeClass
	}
	return graph.NodeTypeFunction
}

// roleFromName checks the shared suffix and config conventions.
func roleFromName(name string) (graph.NodeType, bool) {
	for _, rs := range roleSuffixes {
		if len(name) > len(rs.suffix) && strings.HasSuffix(name, rs.suffix) {
			return rs.nodeType, true
		}
	}
	if strings.Contains(strings.ToLower(name), "config") {
		return graph.NodeTypeConfiguration, true
	}
	return graph.NodeTypeUnknown, false
}

// namespaceOf derives a dotted namespace from a project-relative path.
// Files at the root get the empty namespace.
func namespaceOf(filePath string) string {
	dir := path.Dir(filePath)
	if dir == "." || dir == "/" {
		return ""
	}
	return strings.ReplaceAll(strings.Trim(dir, "/"), "/", ".")
}

// moduleNameOf derives the module node name from a file path: the base
// name without its extension.
func moduleNameOf(filePath string) string {
	base := path.Base(filePath)
	if ext := path.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}

// sourceExtensions are stripped from import specifiers when deriving a
// module name. Only real file extensions are stripped, so package names
// like "socket.io" stay intact.
var sourceExtensions = map[string]struct{}{
	".ts": {}, ".tsx": {}, ".mts": {}, ".cts": {},
	".js": {}, ".jsx": {}, ".mjs": {}, ".cjs": {},
}

// importTargetName derives the referenced module name from an import
// specifier ("react" -> "react", "./utils/helpers" -> "helpers",
// "@scope/pkg" -> "pkg").
func importTargetName(source string) string {
	name := path.Base(strings.Trim(source, "/"))
	if ext := path.Ext(name); ext != "" {
		if _, ok := sourceExtensions[strings.ToLower(ext)]; ok {
			name = strings.TrimSuffix(name, ext)
		}
	}
	if name == "." || name == "" {
		return source
	}
	return name
}
