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
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Traversal limits shared by the tree-sitter analyzers.
const (
	// maxCallSitesPerBody caps call extraction per function/method body.
	maxCallSitesPerBody = 500

	// maxWalkDepth caps recursion when walking expression trees.
	maxWalkDepth = 128
)

// nodeText returns the source text covered by a node.
func nodeText(node *sitter.Node, content []byte) string {
	if node == nil {
		return ""
	}
	return string(content[node.StartByte():node.EndByte()])
}

// locationOf converts a tree-sitter node span to a Location.
func locationOf(node *sitter.Node, filePath string) Location {
	return Location{
		FilePath:  filePath,
		StartLine: int(node.StartPoint().Row) + 1,
		EndLine:   int(node.EndPoint().Row) + 1,
		StartCol:  int(node.StartPoint().Column),
	}
}

// stripGenerics removes a trailing type-argument list from a type name
// ("Repository<User>" -> "Repository").
func stripGenerics(name string) string {
	if i := strings.IndexByte(name, '<'); i >= 0 {
		return strings.TrimSpace(name[:i])
	}
	return strings.TrimSpace(name)
}

// firstIdentifier returns the text of the first identifier-like descendant,
// searching depth-first.
func firstIdentifier(node *sitter.Node, content []byte) string {
	if node == nil {
		return ""
	}
	switch node.Type() {
	case "identifier", "shorthand_property_identifier_pattern":
		return nodeText(node, content)
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		if name := firstIdentifier(node.Child(i), content); name != "" {
			return name
		}
	}
	return ""
}

// extractParameters returns declared parameter names from a
// formal_parameters node.
func extractParameters(params *sitter.Node, content []byte) []string {
	if params == nil {
		return nil
	}
	var names []string
	for i := 0; i < int(params.NamedChildCount()); i++ {
		child := params.NamedChild(i)
		if name := firstIdentifier(child, content); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// extractTypeAnnotation returns the type text of a type_annotation node,
// without the leading colon.
func extractTypeAnnotation(node *sitter.Node, content []byte) string {
	if node == nil {
		return ""
	}
	text := strings.TrimSpace(nodeText(node, content))
	text = strings.TrimPrefix(text, ":")
	return strings.TrimSpace(text)
}

// decisionPointTypes are the node types counted toward cyclomatic complexity.
var decisionPointTypes = map[string]struct{}{
	"if_statement":           {},
	"for_statement":          {},
	"for_in_statement":       {},
	"while_statement":        {},
	"do_statement":           {},
	"switch_case":            {},
	"catch_clause":           {},
	"conditional_expression": {},
}

// extractCallsAndComplexity walks a function body once, collecting call
// sites and counting decision points.
//
// The walk is iterative (explicit stack) so deeply nested expressions
// cannot blow the goroutine stack; branches past maxWalkDepth are skipped.
func extractCallsAndComplexity(ctx context.Context, body *sitter.Node, content []byte, filePath string) ([]CallSite, int) {
	if body == nil {
		return nil, 1
	}

	complexity := 1
	calls := make([]CallSite, 0, 8)

	type stackEntry struct {
		node  *sitter.Node
		depth int
	}
	stack := []stackEntry{{node: body}}

	visited := 0
	for len(stack) > 0 {
		entry := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		node := entry.node
		if node == nil || entry.depth > maxWalkDepth {
			continue
		}

		visited++
		if visited%256 == 0 && ctx.Err() != nil {
			return calls, complexity
		}

		if _, ok := decisionPointTypes[node.Type()]; ok {
			complexity++
		}

		if node.Type() == "call_expression" && len(calls) < maxCallSitesPerBody {
			if call := extractSingleCall(node, content, filePath); call != nil {
				calls = append(calls, *call)
			}
		}

		for i := int(node.ChildCount()) - 1; i >= 0; i-- {
			if child := node.Child(i); child != nil {
				stack = append(stack, stackEntry{node: child, depth: entry.depth + 1})
			}
		}
	}

	return calls, complexity
}

// extractSingleCall converts one call_expression into a CallSite.
func extractSingleCall(node *sitter.Node, content []byte, filePath string) *CallSite {
	funcNode := node.ChildByFieldName("function")
	if funcNode == nil && node.ChildCount() > 0 {
		funcNode = node.Child(0)
	}
	if funcNode == nil {
		return nil
	}

	call := &CallSite{Location: locationOf(node, filePath)}

	switch funcNode.Type() {
	case "identifier":
		call.Target = nodeText(funcNode, content)

	case "member_expression":
		if prop := funcNode.ChildByFieldName("property"); prop != nil {
			call.Target = nodeText(prop, content)
		}
		if obj := funcNode.ChildByFieldName("object"); obj != nil {
			call.Receiver = nodeText(obj, content)
			call.IsMethod = true
		}

	default:
		// Skip IIFEs, dynamic imports, and other exotic callees.
		return nil
	}

	if call.Target == "" {
		return nil
	}
	return call
}

// extractStringLiteral returns the unquoted content of a string node.
func extractStringLiteral(node *sitter.Node, content []byte) string {
	text := nodeText(node, content)
	return strings.Trim(text, "\"'`")
}
