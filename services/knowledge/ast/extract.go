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

// extractProgram walks the top level of a parsed source file and fills the
// analysis. The TypeScript and JavaScript grammars share most node types,
// so one walker serves both; TS-only constructs simply never match on JS
// trees.
func extractProgram(ctx context.Context, root *sitter.Node, content []byte, filePath string, result *FileAnalysis) {
	for i := 0; i < int(root.ChildCount()); i++ {
		if ctx.Err() != nil {
			return
		}
		child := root.Child(i)
		switch child.Type() {
		case "import_statement":
			if imp := extractImport(child, content, filePath); imp != nil {
				result.Imports = append(result.Imports, *imp)
			}
		case "export_statement":
			extractExport(ctx, child, content, filePath, result)
		case "function_declaration":
			if fn := extractFunction(ctx, child, content, filePath, false); fn != nil {
				result.Functions = append(result.Functions, *fn)
			}
		case "class_declaration", "abstract_class_declaration":
			if cls := extractClass(ctx, child, content, filePath, false); cls != nil {
				result.Classes = append(result.Classes, *cls)
			}
		case "interface_declaration":
			if iface := extractInterface(child, content, filePath); iface != nil {
				result.Classes = append(result.Classes, *iface)
			}
		case "lexical_declaration", "variable_declaration":
			extractVariables(ctx, child, content, filePath, result, false)
		case "enum_declaration":
			if name := firstNamedOfType(child, "identifier", content); name != "" {
				result.Variables = append(result.Variables, VariableInfo{
					Name:       name,
					IsConstant: true,
					Location:   locationOf(child, filePath),
				})
			}
		}
	}
}

// extractImport converts an import_statement into an ImportInfo.
func extractImport(node *sitter.Node, content []byte, filePath string) *ImportInfo {
	imp := &ImportInfo{Location: locationOf(node, filePath)}

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "import_clause":
			imp.Names = append(imp.Names, extractImportBindings(child, content)...)
		case "string":
			imp.Source = extractStringLiteral(child, content)
		}
	}

	if imp.Source == "" {
		return nil
	}
	imp.IsRelative = strings.HasPrefix(imp.Source, ".")
	return imp
}

// extractImportBindings returns the local names bound by an import_clause.
func extractImportBindings(clause *sitter.Node, content []byte) []string {
	var names []string
	for i := 0; i < int(clause.ChildCount()); i++ {
		child := clause.Child(i)
		switch child.Type() {
		case "identifier":
			// Default import: import React from "react"
			names = append(names, nodeText(child, content))
		case "namespace_import":
			// import * as path from "path"
			if name := firstNamedOfType(child, "identifier", content); name != "" {
				names = append(names, name)
			}
		case "named_imports":
			// import { a, b as c } from "./mod"
			for j := 0; j < int(child.NamedChildCount()); j++ {
				spec := child.NamedChild(j)
				if spec.Type() != "import_specifier" {
					continue
				}
				if alias := spec.ChildByFieldName("alias"); alias != nil {
					names = append(names, nodeText(alias, content))
				} else if name := spec.ChildByFieldName("name"); name != nil {
					names = append(names, nodeText(name, content))
				}
			}
		}
	}
	return names
}

// extractExport handles export statements: exported declarations are
// extracted like their non-exported forms and additionally recorded in
// the exports list.
func extractExport(ctx context.Context, node *sitter.Node, content []byte, filePath string, result *FileAnalysis) {
	isDefault := false
	loc := locationOf(node, filePath)

	addExport := func(name string) {
		if name == "" {
			return
		}
		result.Exports = append(result.Exports, ExportInfo{
			Name:      name,
			IsDefault: isDefault,
			Location:  loc,
		})
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "default":
			isDefault = true
		case "function_declaration":
			if fn := extractFunction(ctx, child, content, filePath, true); fn != nil {
				result.Functions = append(result.Functions, *fn)
				addExport(fn.Name)
			}
		case "class_declaration", "abstract_class_declaration":
			if cls := extractClass(ctx, child, content, filePath, true); cls != nil {
				result.Classes = append(result.Classes, *cls)
				addExport(cls.Name)
			}
		case "interface_declaration":
			if iface := extractInterface(child, content, filePath); iface != nil {
				result.Classes = append(result.Classes, *iface)
				addExport(iface.Name)
			}
		case "lexical_declaration", "variable_declaration":
			before := len(result.Variables)
			beforeFns := len(result.Functions)
			extractVariables(ctx, child, content, filePath, result, true)
			for _, v := range result.Variables[before:] {
				addExport(v.Name)
			}
			for _, fn := range result.Functions[beforeFns:] {
				addExport(fn.Name)
			}
		case "export_clause":
			// export { Foo, Bar as Baz }
			for j := 0; j < int(child.NamedChildCount()); j++ {
				spec := child.NamedChild(j)
				if spec.Type() != "export_specifier" {
					continue
				}
				if alias := spec.ChildByFieldName("alias"); alias != nil {
					addExport(nodeText(alias, content))
				} else if name := spec.ChildByFieldName("name"); name != nil {
					addExport(nodeText(name, content))
				}
			}
		case "identifier":
			// export default foo;
			addExport(nodeText(child, content))
		case "string":
			// Re-export: export { Foo } from "./bar" also implies an import.
			source := extractStringLiteral(child, content)
			if source != "" {
				result.Imports = append(result.Imports, ImportInfo{
					Source:     source,
					IsRelative: strings.HasPrefix(source, "."),
					Location:   loc,
				})
			}
		}
	}
}

// extractFunction converts a function_declaration into a FunctionInfo.
func extractFunction(ctx context.Context, node *sitter.Node, content []byte, filePath string, exported bool) *FunctionInfo {
	fn := &FunctionInfo{
		IsExported: exported,
		Location:   locationOf(node, filePath),
	}

	var body *sitter.Node
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "async":
			fn.IsAsync = true
		case "identifier":
			fn.Name = nodeText(child, content)
		case "formal_parameters":
			fn.Parameters = extractParameters(child, content)
		case "type_annotation":
			fn.ReturnType = extractTypeAnnotation(child, content)
		case "statement_block":
			body = child
		}
	}

	if fn.Name == "" {
		return nil
	}
	fn.Calls, fn.Complexity = extractCallsAndComplexity(ctx, body, content, filePath)
	return fn
}

// extractClass converts a class declaration into a ClassInfo.
func extractClass(ctx context.Context, node *sitter.Node, content []byte, filePath string, exported bool) *ClassInfo {
	cls := &ClassInfo{Location: locationOf(node, filePath)}
	if node.Type() == "abstract_class_declaration" {
		cls.Modifiers = append(cls.Modifiers, "abstract")
	}
	if exported {
		cls.Modifiers = append(cls.Modifiers, "export")
	}

	var body *sitter.Node
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "type_identifier", "identifier":
			// TS uses type_identifier for the class name, JS plain identifier.
			if cls.Name == "" {
				cls.Name = nodeText(child, content)
			}
		case "class_heritage":
			extends, implements := extractHeritage(child, content)
			cls.Extends = extends
			cls.Implements = implements
		case "class_body":
			body = child
		}
	}

	if cls.Name == "" {
		return nil
	}

	if body != nil {
		for i := 0; i < int(body.ChildCount()); i++ {
			member := body.Child(i)
			switch member.Type() {
			case "method_definition":
				if m := extractMethod(ctx, member, content, filePath); m != nil {
					cls.Methods = append(cls.Methods, *m)
					cls.Complexity += m.Complexity
				}
			case "public_field_definition", "field_definition":
				if p := extractProperty(member, content, filePath); p != nil {
					cls.Properties = append(cls.Properties, *p)
				}
			}
		}
	}

	return cls
}

// extractHeritage reads extends/implements from a class_heritage node.
//
// The TS grammar nests extends_clause/implements_clause under
// class_heritage; the JS grammar puts the parent expression directly
// beneath it.
func extractHeritage(node *sitter.Node, content []byte) (extends string, implements []string) {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "extends_clause":
			for j := 0; j < int(child.ChildCount()); j++ {
				gc := child.Child(j)
				switch gc.Type() {
				case "identifier", "type_identifier", "generic_type", "member_expression":
					extends = stripGenerics(nodeText(gc, content))
				}
			}
		case "implements_clause":
			for j := 0; j < int(child.ChildCount()); j++ {
				gc := child.Child(j)
				switch gc.Type() {
				case "type_identifier", "generic_type":
					implements = append(implements, stripGenerics(nodeText(gc, content)))
				}
			}
		case "identifier", "member_expression":
			extends = stripGenerics(nodeText(child, content))
		}
	}
	return extends, implements
}

// extractMethod converts a method_definition into a FunctionInfo.
func extractMethod(ctx context.Context, node *sitter.Node, content []byte, filePath string) *FunctionInfo {
	m := &FunctionInfo{Location: locationOf(node, filePath)}

	visibility := ""
	var body *sitter.Node
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "accessibility_modifier":
			visibility = nodeText(child, content)
		case "static":
			m.IsStatic = true
		case "async":
			m.IsAsync = true
		case "property_identifier":
			m.Name = nodeText(child, content)
		case "formal_parameters":
			m.Parameters = extractParameters(child, content)
		case "type_annotation":
			m.ReturnType = extractTypeAnnotation(child, content)
		case "statement_block":
			body = child
		}
	}

	if m.Name == "" {
		return nil
	}
	m.IsExported = visibility != "private"
	m.Calls, m.Complexity = extractCallsAndComplexity(ctx, body, content, filePath)
	return m
}

// extractProperty converts a field definition into a PropertyInfo.
func extractProperty(node *sitter.Node, content []byte, filePath string) *PropertyInfo {
	p := &PropertyInfo{Location: locationOf(node, filePath)}

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "static":
			p.IsStatic = true
		case "readonly":
			p.IsReadonly = true
		case "property_identifier":
			p.Name = nodeText(child, content)
		case "type_annotation":
			p.Type = extractTypeAnnotation(child, content)
		}
	}

	if p.Name == "" {
		return nil
	}
	return p
}

// extractInterface converts an interface_declaration into a ClassInfo with
// IsInterface set. Method and property signatures fill the counts used by
// structural similarity.
func extractInterface(node *sitter.Node, content []byte, filePath string) *ClassInfo {
	iface := &ClassInfo{
		IsInterface: true,
		Location:    locationOf(node, filePath),
	}

	var body *sitter.Node
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "type_identifier":
			iface.Name = nodeText(child, content)
		case "extends_type_clause":
			for j := 0; j < int(child.ChildCount()); j++ {
				gc := child.Child(j)
				switch gc.Type() {
				case "type_identifier", "generic_type":
					parent := stripGenerics(nodeText(gc, content))
					if iface.Extends == "" {
						iface.Extends = parent
					} else {
						iface.Implements = append(iface.Implements, parent)
					}
				}
			}
		case "interface_body", "object_type":
			body = child
		}
	}

	if iface.Name == "" {
		return nil
	}

	if body != nil {
		for i := 0; i < int(body.NamedChildCount()); i++ {
			member := body.NamedChild(i)
			switch member.Type() {
			case "method_signature":
				if name := firstNamedOfType(member, "property_identifier", content); name != "" {
					iface.Methods = append(iface.Methods, FunctionInfo{
						Name:       name,
						IsExported: true,
						Location:   locationOf(member, filePath),
					})
				}
			case "property_signature":
				if name := firstNamedOfType(member, "property_identifier", content); name != "" {
					iface.Properties = append(iface.Properties, PropertyInfo{
						Name:     name,
						Location: locationOf(member, filePath),
					})
				}
			}
		}
	}

	return iface
}

// extractVariables handles lexical/variable declarations. Declarators whose
// value is a function expression are recorded as functions; everything else
// becomes a variable (constant for const declarations).
func extractVariables(ctx context.Context, node *sitter.Node, content []byte, filePath string, result *FileAnalysis, exported bool) {
	isConst := false
	if node.ChildCount() > 0 && node.Child(0).Type() == "const" {
		isConst = true
	}

	for i := 0; i < int(node.NamedChildCount()); i++ {
		decl := node.NamedChild(i)
		if decl.Type() != "variable_declarator" {
			continue
		}

		nameNode := decl.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		name := firstIdentifier(nameNode, content)
		if name == "" {
			continue
		}

		value := decl.ChildByFieldName("value")
		if value != nil && (value.Type() == "arrow_function" || value.Type() == "function_expression" || value.Type() == "function") {
			fn := FunctionInfo{
				Name:       name,
				IsExported: exported,
				Location:   locationOf(decl, filePath),
			}
			for j := 0; j < int(value.ChildCount()); j++ {
				vc := value.Child(j)
				switch vc.Type() {
				case "async":
					fn.IsAsync = true
				case "formal_parameters":
					fn.Parameters = extractParameters(vc, content)
				}
			}
			fn.Calls, fn.Complexity = extractCallsAndComplexity(ctx, value.ChildByFieldName("body"), content, filePath)
			result.Functions = append(result.Functions, fn)
			continue
		}

		result.Variables = append(result.Variables, VariableInfo{
			Name:       name,
			IsConstant: isConst,
			IsExported: exported,
			Location:   locationOf(decl, filePath),
		})
	}
}

// firstNamedOfType returns the text of the first direct child of the given
// type.
func firstNamedOfType(node *sitter.Node, nodeType string, content []byte) string {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == nodeType {
			return nodeText(child, content)
		}
	}
	return ""
}
