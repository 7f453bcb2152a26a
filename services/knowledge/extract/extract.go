// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package extract maps analyzed source files into knowledge-graph nodes
// and triads.
//
// Each file contributes a module node anchoring contains, imports,
// depends_on, and exports triads. Declarations become typed entity nodes;
// inheritance, interface implementation, and call sites become evidenced
// triads. References to names defined elsewhere (or nowhere) resolve
// through the store's find-or-create path, so extraction order across
// files never changes the resulting graph shape.
package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/AleutianAI/kodiak/services/knowledge/ast"
	"github.com/AleutianAI/kodiak/services/knowledge/graph"
)

// Confidence levels for AST-derived relations.
const (
	// ConfidenceExtends applies to inheritance relations.
	ConfidenceExtends = 0.95

	// ConfidenceImplements applies to interface implementation relations.
	ConfidenceImplements = 0.95

	// ConfidenceContains applies to structural containment.
	ConfidenceContains = 1.0

	// ConfidenceCalls applies to call-site relations; callee resolution is
	// name-based and can mislabel shadowed identifiers.
	ConfidenceCalls = 0.9

	// ConfidenceImports applies to import relations.
	ConfidenceImports = 1.0

	// ConfidenceDependsOn applies to the coarser dependency relation
	// derived from imports.
	ConfidenceDependsOn = 0.8

	// ConfidenceExports applies to export relations.
	ConfidenceExports = 1.0
)

// Extractor writes the entities and relations of analyzed files into a
// graph store.
//
// Thread Safety:
//
//	Safe for concurrent use; the store serializes all writes, and the
//	extractor itself holds no per-file state.
type Extractor struct {
	store  *graph.Store
	logger *slog.Logger
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithLogger sets the logger used for recoverable extraction problems.
func WithLogger(logger *slog.Logger) ExtractorOption {
	return func(e *Extractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewExtractor creates an Extractor writing into store.
func NewExtractor(store *graph.Store, opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExtractFile writes one file's entities and relations into the store.
//
// Description:
//
//	Creates the file's module node first, then classes with their methods
//	and heritage, standalone functions, variables, imports, and exports.
//	Store capacity errors abort extraction; anything recoverable is
//	logged and skipped so one odd declaration never discards a file.
//
// Inputs:
//   - ctx: cancellation context, checked between sections
//   - analysis: analyzer output for one file
//
// Outputs:
//   - error: ctx.Err(), or a store capacity/validation error
func (e *Extractor) ExtractFile(ctx context.Context, analysis *ast.FileAnalysis) error {
	if analysis == nil {
		return errors.New("nil analysis")
	}

	if len(analysis.Errors) > 0 {
		e.logger.Warn("extracting from file with syntax errors",
			"file", analysis.FilePath,
			"error_count", len(analysis.Errors))
	}

	ns := namespaceOf(analysis.FilePath)
	moduleID, err := e.addModuleNode(analysis)
	if err != nil {
		return fmt.Errorf("module node for %s: %w", analysis.FilePath, err)
	}

	for i := range analysis.Classes {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.extractClass(moduleID, ns, &analysis.Classes[i]); err != nil {
			return fmt.Errorf("class %s in %s: %w", analysis.Classes[i].Name, analysis.FilePath, err)
		}
	}

	for i := range analysis.Functions {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.extractFunction(moduleID, ns, &analysis.Functions[i]); err != nil {
			return fmt.Errorf("function %s in %s: %w", analysis.Functions[i].Name, analysis.FilePath, err)
		}
	}

	for i := range analysis.Variables {
		if err := e.extractVariable(moduleID, ns, &analysis.Variables[i]); err != nil {
			return fmt.Errorf("variable %s in %s: %w", analysis.Variables[i].Name, analysis.FilePath, err)
		}
	}

	for i := range analysis.Imports {
		if err := e.extractImport(moduleID, &analysis.Imports[i]); err != nil {
			return fmt.Errorf("import %s in %s: %w", analysis.Imports[i].Source, analysis.FilePath, err)
		}
	}

	for i := range analysis.Exports {
		if err := e.extractExport(moduleID, ns, &analysis.Exports[i]); err != nil {
			return fmt.Errorf("export %s in %s: %w", analysis.Exports[i].Name, analysis.FilePath, err)
		}
	}

	return ctx.Err()
}

// addModuleNode creates (or finds) the module node representing the file.
func (e *Extractor) addModuleNode(analysis *ast.FileAnalysis) (string, error) {
	node := &graph.KnowledgeNode{
		Type:      graph.NodeTypeModule,
		Name:      moduleNameOf(analysis.FilePath),
		Namespace: namespaceOf(analysis.FilePath),
		Location: &graph.SourceLocation{
			FilePath:  analysis.FilePath,
			StartLine: 1,
		},
	}
	node.Metadata.AddTag(analysis.Language)

	id, _, err := e.store.AddNode(node)
	return id, err
}

// extractClass creates the class node, its method nodes, and the
// heritage, containment, and call triads around them.
func (e *Extractor) extractClass(moduleID, ns string, cls *ast.ClassInfo) error {
	node := &graph.KnowledgeNode{
		Type:      classifyClassName(cls.Name, cls.IsInterface),
		Name:      cls.Name,
		Namespace: ns,
		Location:  sourceLocation(cls.Location),
	}
	node.Metadata.Complexity = cls.Complexity
	node.Metadata.MethodCount = len(cls.Methods)
	node.Metadata.PropertyCount = len(cls.Properties)
	for _, mod := range cls.Modifiers {
		switch mod {
		case "abstract":
			node.Metadata.IsAbstract = true
			node.Metadata.AddTag("abstract")
		case "export":
			node.Metadata.Visibility = "public"
		}
	}
	if cls.IsInterface {
		node.Metadata.AddTag("interface")
	}

	classID, _, err := e.store.AddNode(node)
	if err != nil {
		return err
	}
	if err := e.addContains(moduleID, classID); err != nil {
		return err
	}

	if cls.Extends != "" {
		parentID, err := e.store.FindOrCreateNode(graph.NodeTypeClass, cls.Extends, nil)
		if err != nil {
			return err
		}
		err = e.addTriad(classID, parentID, graph.RelationExtends, ConfidenceExtends, graph.SourceASTParser,
			graph.EvidenceASTStructure,
			fmt.Sprintf("%s extends %s", cls.Name, cls.Extends),
			sourceLocation(cls.Location))
		if err != nil {
			return err
		}
	}

	for _, ifaceName := range cls.Implements {
		ifaceID, err := e.store.FindOrCreateNode(graph.NodeTypeInterface, ifaceName, nil)
		if err != nil {
			return err
		}
		err = e.addTriad(classID, ifaceID, graph.RelationImplements, ConfidenceImplements, graph.SourceASTParser,
			graph.EvidenceASTStructure,
			fmt.Sprintf("%s implements %s", cls.Name, ifaceName),
			sourceLocation(cls.Location))
		if err != nil {
			return err
		}
	}

	methodNS := ns + "." + cls.Name
	if ns == "" {
		methodNS = cls.Name
	}
	for i := range cls.Methods {
		if err := e.extractMethod(classID, methodNS, &cls.Methods[i]); err != nil {
			return err
		}
	}

	return nil
}

// extractMethod creates a method node under its class and the call triads
// out of its body.
func (e *Extractor) extractMethod(classID, methodNS string, m *ast.FunctionInfo) error {
	node := &graph.KnowledgeNode{
		Type:      graph.NodeTypeMethod,
		Name:      m.Name,
		Namespace: methodNS,
		Location:  sourceLocation(m.Location),
	}
	fillCallableMetadata(node, m)
	if !m.IsExported {
		node.Metadata.Visibility = "private"
	}

	methodID, _, err := e.store.AddNode(node)
	if err != nil {
		return err
	}
	if err := e.addContains(classID, methodID); err != nil {
		return err
	}
	return e.extractCalls(methodID, m)
}

// extractFunction creates a standalone function node and its call triads.
func (e *Extractor) extractFunction(moduleID, ns string, fn *ast.FunctionInfo) error {
	node := &graph.KnowledgeNode{
		Type:      graph.NodeTypeFunction,
		Name:      fn.Name,
		Namespace: ns,
		Location:  sourceLocation(fn.Location),
	}
	fillCallableMetadata(node, fn)
	if fn.IsExported {
		node.Metadata.Visibility = "public"
	}

	fnID, _, err := e.store.AddNode(node)
	if err != nil {
		return err
	}
	if err := e.addContains(moduleID, fnID); err != nil {
		return err
	}
	return e.extractCalls(fnID, fn)
}

// extractCalls records one calls triad per call site in the body.
func (e *Extractor) extractCalls(callerID string, fn *ast.FunctionInfo) error {
	for _, call := range fn.Calls {
		targetType := graph.NodeTypeFunction
		if call.IsMethod {
			targetType = graph.NodeTypeMethod
		}
		loc := sourceLocation(call.Location)
		calleeID, err := e.store.FindOrCreateNode(targetType, call.Target, loc)
		if err != nil {
			return err
		}
		desc := fmt.Sprintf("%s calls %s", fn.Name, call.Target)
		if call.Receiver != "" {
			desc = fmt.Sprintf("%s calls %s on %s", fn.Name, call.Target, call.Receiver)
		}
		err = e.addTriad(callerID, calleeID, graph.RelationCalls, ConfidenceCalls, graph.SourceASTParser,
			graph.EvidenceASTStructure, desc, loc)
		if err != nil {
			return err
		}
	}
	return nil
}

// extractVariable creates a variable or constant node under the module.
func (e *Extractor) extractVariable(moduleID, ns string, v *ast.VariableInfo) error {
	nodeType := graph.NodeTypeVariable
	if v.IsConstant {
		nodeType = graph.NodeTypeConstant
	}
	node := &graph.KnowledgeNode{
		Type:      nodeType,
		Name:      v.Name,
		Namespace: ns,
		Location:  sourceLocation(v.Location),
	}
	if v.IsExported {
		node.Metadata.Visibility = "public"
	}

	varID, _, err := e.store.AddNode(node)
	if err != nil {
		return err
	}
	return e.addContains(moduleID, varID)
}

// extractImport records imports and the derived depends_on relation
// against the referenced module.
func (e *Extractor) extractImport(moduleID string, imp *ast.ImportInfo) error {
	targetName := importTargetName(imp.Source)
	if targetName == "" {
		return nil
	}
	targetID, err := e.store.FindOrCreateNode(graph.NodeTypeModule, targetName, nil)
	if err != nil {
		return err
	}

	loc := sourceLocation(imp.Location)
	err = e.addTriad(moduleID, targetID, graph.RelationImports, ConfidenceImports, graph.SourceDependencyAnalyzer,
		graph.EvidenceASTStructure,
		fmt.Sprintf("imports %q", imp.Source), loc)
	if err != nil {
		return err
	}
	return e.addTriad(moduleID, targetID, graph.RelationDependsOn, ConfidenceDependsOn, graph.SourceDependencyAnalyzer,
		graph.EvidenceASTStructure,
		fmt.Sprintf("depends on %q via import", imp.Source), loc)
}

// extractExport records an exports triad from the module to the exported
// entity, typed by naming convention when the entity is not yet known.
func (e *Extractor) extractExport(moduleID, ns string, exp *ast.ExportInfo) error {
	loc := sourceLocation(exp.Location)
	targetID, err := e.store.FindOrCreateNode(inferExportType(exp.Name), exp.Name, loc)
	if err != nil {
		return err
	}

	desc := fmt.Sprintf("exports %s", exp.Name)
	if exp.IsDefault {
		desc = fmt.Sprintf("exports %s as default", exp.Name)
	}
	return e.addTriad(moduleID, targetID, graph.RelationExports, ConfidenceExports, graph.SourceASTParser,
		graph.EvidenceNamingConvention, desc, loc)
}

// addContains appends a containment triad. Contains carries full
// confidence and needs no evidence record.
func (e *Extractor) addContains(parentID, childID string) error {
	return e.insertTriad(&graph.KnowledgeTriad{
		Subject:    parentID,
		Object:     childID,
		Predicate:  graph.RelationContains,
		Confidence: ConfidenceContains,
		Source:     graph.SourceASTParser,
	})
}

// addTriad appends an evidenced triad.
func (e *Extractor) addTriad(subject, object string, predicate graph.RelationType, confidence float64,
	source graph.TriadSource, evidenceType graph.EvidenceType, description string, loc *graph.SourceLocation) error {
	return e.insertTriad(&graph.KnowledgeTriad{
		Subject:    subject,
		Object:     object,
		Predicate:  predicate,
		Confidence: confidence,
		Source:     source,
		Metadata: graph.TriadMetadata{
			Evidence: []graph.Evidence{{
				Type:        evidenceType,
				Source:      source,
				Location:    loc,
				Confidence:  confidence,
				Description: description,
			}},
		},
	})
}

// insertTriad writes a triad, dropping it with a warning when either
// endpoint is unknown. A bad reference costs one relation, not the run.
func (e *Extractor) insertTriad(triad *graph.KnowledgeTriad) error {
	err := e.store.AddTriad(triad)
	if errors.Is(err, graph.ErrDanglingReference) {
		e.logger.Warn("dropping triad with unresolved endpoint",
			"predicate", triad.Predicate,
			"subject", triad.Subject,
			"object", triad.Object)
		return nil
	}
	return err
}

// fillCallableMetadata copies the shared function/method attributes.
func fillCallableMetadata(node *graph.KnowledgeNode, fn *ast.FunctionInfo) {
	node.Metadata.Complexity = fn.Complexity
	node.Metadata.ParameterCount = len(fn.Parameters)
	node.Metadata.ReturnType = fn.ReturnType
	node.Metadata.IsAsync = fn.IsAsync
	node.Metadata.IsStatic = fn.IsStatic
	if fn.IsAsync {
		node.Metadata.AddTag("async")
	}
	if fn.IsStatic {
		node.Metadata.AddTag("static")
	}
}

// sourceLocation converts an analyzer location. Zero locations map to nil
// so stub references stay location-free.
func sourceLocation(loc ast.Location) *graph.SourceLocation {
	if loc.FilePath == "" && loc.StartLine == 0 {
		return nil
	}
	return &graph.SourceLocation{
		FilePath:  loc.FilePath,
		StartLine: loc.StartLine,
		EndLine:   loc.EndLine,
		StartCol:  loc.StartCol,
	}
}
