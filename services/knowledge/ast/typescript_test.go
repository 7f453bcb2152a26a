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
	"errors"
	"strings"
	"testing"
)

func analyzeTS(t *testing.T, source string) *FileAnalysis {
	t.Helper()
	result, err := NewTypeScriptAnalyzer().Analyze(context.Background(), []byte(source), "src/test.ts")
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if result == nil {
		t.Fatal("Analyze returned nil result")
	}
	return result
}

func findClass(t *testing.T, result *FileAnalysis, name string) *ClassInfo {
	t.Helper()
	for i := range result.Classes {
		if result.Classes[i].Name == name {
			return &result.Classes[i]
		}
	}
	t.Fatalf("class %q not found in %+v", name, result.Classes)
	return nil
}

func TestTypeScriptAnalyzer_Class(t *testing.T) {
	source := `
class UserService extends BaseService implements Queryable {
  private db: Database;

  constructor(db: Database) {
    this.db = db;
  }

  async getUser(id: string): Promise<User> {
    return this.db.findById(id);
  }

  private validate(user: User): boolean {
    if (!user.name) {
      return false;
    }
    return true;
  }
}
`
	result := analyzeTS(t, source)

	cls := findClass(t, result, "UserService")
	if cls.Extends != "BaseService" {
		t.Errorf("Extends = %q, want BaseService", cls.Extends)
	}
	if len(cls.Implements) != 1 || cls.Implements[0] != "Queryable" {
		t.Errorf("Implements = %v, want [Queryable]", cls.Implements)
	}
	if len(cls.Methods) != 3 {
		t.Fatalf("got %d methods, want 3 (constructor, getUser, validate)", len(cls.Methods))
	}
	if len(cls.Properties) != 1 || cls.Properties[0].Name != "db" {
		t.Errorf("Properties = %+v, want one property db", cls.Properties)
	}

	var getUser, validate *FunctionInfo
	for i := range cls.Methods {
		switch cls.Methods[i].Name {
		case "getUser":
			getUser = &cls.Methods[i]
		case "validate":
			validate = &cls.Methods[i]
		}
	}
	if getUser == nil || validate == nil {
		t.Fatalf("missing expected methods in %+v", cls.Methods)
	}
	if !getUser.IsAsync {
		t.Error("getUser should be async")
	}
	if !getUser.IsExported {
		t.Error("getUser has no accessibility modifier, should be exported")
	}
	if validate.IsExported {
		t.Error("private validate should not be exported")
	}
	if len(getUser.Calls) != 1 || getUser.Calls[0].Target != "findById" {
		t.Errorf("getUser calls = %+v, want one call to findById", getUser.Calls)
	}
	if !getUser.Calls[0].IsMethod || getUser.Calls[0].Receiver != "this.db" {
		t.Errorf("findById call site = %+v, want method call on this.db", getUser.Calls[0])
	}
	// validate has one if statement: complexity 2.
	if validate.Complexity != 2 {
		t.Errorf("validate complexity = %d, want 2", validate.Complexity)
	}
}

func TestTypeScriptAnalyzer_AbstractClass(t *testing.T) {
	result := analyzeTS(t, `
abstract class Shape {
  abstract area(): number;
}
`)
	cls := findClass(t, result, "Shape")
	hasAbstract := false
	for _, m := range cls.Modifiers {
		if m == "abstract" {
			hasAbstract = true
		}
	}
	if !hasAbstract {
		t.Errorf("Modifiers = %v, want to include abstract", cls.Modifiers)
	}
}

func TestTypeScriptAnalyzer_Interface(t *testing.T) {
	result := analyzeTS(t, `
interface Repository extends Disposable {
  findById(id: string): Entity;
  save(entity: Entity): void;
  name: string;
}
`)
	iface := findClass(t, result, "Repository")
	if !iface.IsInterface {
		t.Error("Repository should be marked IsInterface")
	}
	if iface.Extends != "Disposable" {
		t.Errorf("Extends = %q, want Disposable", iface.Extends)
	}
	if len(iface.Methods) != 2 {
		t.Errorf("got %d method signatures, want 2", len(iface.Methods))
	}
	if len(iface.Properties) != 1 {
		t.Errorf("got %d property signatures, want 1", len(iface.Properties))
	}
}

func TestTypeScriptAnalyzer_FunctionsAndVariables(t *testing.T) {
	source := `
function add(a: number, b: number): number {
  return a + b;
}

const MAX_RETRIES = 3;
let counter = 0;

const fetchData = async (url: string) => {
  return fetch(url);
};
`
	result := analyzeTS(t, source)

	if len(result.Functions) != 2 {
		t.Fatalf("got %d functions, want 2 (add, fetchData): %+v", len(result.Functions), result.Functions)
	}

	var add, fetchData *FunctionInfo
	for i := range result.Functions {
		switch result.Functions[i].Name {
		case "add":
			add = &result.Functions[i]
		case "fetchData":
			fetchData = &result.Functions[i]
		}
	}
	if add == nil || fetchData == nil {
		t.Fatalf("missing expected functions in %+v", result.Functions)
	}
	if len(add.Parameters) != 2 || add.Parameters[0] != "a" || add.Parameters[1] != "b" {
		t.Errorf("add parameters = %v, want [a b]", add.Parameters)
	}
	if add.ReturnType != "number" {
		t.Errorf("add return type = %q, want number", add.ReturnType)
	}
	if !fetchData.IsAsync {
		t.Error("fetchData arrow function should be async")
	}

	if len(result.Variables) != 2 {
		t.Fatalf("got %d variables, want 2: %+v", len(result.Variables), result.Variables)
	}
	for _, v := range result.Variables {
		switch v.Name {
		case "MAX_RETRIES":
			if !v.IsConstant {
				t.Error("MAX_RETRIES should be constant")
			}
		case "counter":
			if v.IsConstant {
				t.Error("counter is let, should not be constant")
			}
		default:
			t.Errorf("unexpected variable %q", v.Name)
		}
	}
}

func TestTypeScriptAnalyzer_ImportsAndExports(t *testing.T) {
	source := `
import React from "react";
import * as path from "path";
import { useState, useEffect } from "react";
import { helper } from "./utils/helpers";

export class OrderService {}
export default function main() {}
export const VERSION = "1.0";
export { helper };
`
	result := analyzeTS(t, source)

	if len(result.Imports) != 4 {
		t.Fatalf("got %d imports, want 4: %+v", len(result.Imports), result.Imports)
	}

	bySource := make(map[string][]ImportInfo)
	for _, imp := range result.Imports {
		bySource[imp.Source] = append(bySource[imp.Source], imp)
	}
	if len(bySource["react"]) != 2 {
		t.Errorf("want 2 imports from react, got %d", len(bySource["react"]))
	}
	rel := bySource["./utils/helpers"]
	if len(rel) != 1 || !rel[0].IsRelative {
		t.Errorf("./utils/helpers import should be relative: %+v", rel)
	}
	if len(bySource["path"]) != 1 || bySource["path"][0].IsRelative {
		t.Errorf("path import should not be relative: %+v", bySource["path"])
	}

	exports := make(map[string]ExportInfo)
	for _, exp := range result.Exports {
		exports[exp.Name] = exp
	}
	for _, name := range []string{"OrderService", "main", "VERSION", "helper"} {
		if _, ok := exports[name]; !ok {
			t.Errorf("missing export %q in %+v", name, result.Exports)
		}
	}
	if !exports["main"].IsDefault {
		t.Error("main should be a default export")
	}
	if exports["OrderService"].IsDefault {
		t.Error("OrderService should not be a default export")
	}

	cls := findClass(t, result, "OrderService")
	hasExportMod := false
	for _, m := range cls.Modifiers {
		if m == "export" {
			hasExportMod = true
		}
	}
	if !hasExportMod {
		t.Errorf("exported class modifiers = %v, want to include export", cls.Modifiers)
	}
}

func TestTypeScriptAnalyzer_SyntaxErrors(t *testing.T) {
	result := analyzeTS(t, `
class Broken {
  method( {
}

function stillHere() {}
`)
	if len(result.Errors) == 0 {
		t.Error("expected syntax errors to be recorded")
	}
	// Partial results survive parse errors.
	found := false
	for _, fn := range result.Functions {
		if fn.Name == "stillHere" {
			found = true
		}
	}
	for _, cls := range result.Classes {
		if cls.Name == "Broken" {
			found = true
		}
	}
	if !found {
		t.Error("expected partial extraction despite syntax errors")
	}
}

func TestTypeScriptAnalyzer_ContentGuards(t *testing.T) {
	a := NewTypeScriptAnalyzer(WithTypeScriptMaxFileSize(64))

	_, err := a.Analyze(context.Background(), []byte(strings.Repeat("x", 65)), "big.ts")
	if !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("oversized file error = %v, want ErrFileTooLarge", err)
	}

	_, err = a.Analyze(context.Background(), []byte{0xff, 0xfe, 0xfd}, "bad.ts")
	if !errors.Is(err, ErrInvalidContent) {
		t.Errorf("invalid UTF-8 error = %v, want ErrInvalidContent", err)
	}
}

func TestJavaScriptAnalyzer_Class(t *testing.T) {
	source := `
const EventEmitter = require("events");

class OrderProcessor extends EventEmitter {
  process(order) {
    this.emit("processed", order);
  }
}

function formatOrder(order) {
  return JSON.stringify(order);
}
`
	result, err := NewJavaScriptAnalyzer().Analyze(context.Background(), []byte(source), "src/orders.js")
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}

	cls := findClass(t, result, "OrderProcessor")
	if cls.Extends != "EventEmitter" {
		t.Errorf("Extends = %q, want EventEmitter", cls.Extends)
	}
	if len(cls.Methods) != 1 || cls.Methods[0].Name != "process" {
		t.Fatalf("Methods = %+v, want one method process", cls.Methods)
	}
	if len(cls.Methods[0].Calls) != 1 || cls.Methods[0].Calls[0].Target != "emit" {
		t.Errorf("process calls = %+v, want one call to emit", cls.Methods[0].Calls)
	}

	if len(result.Functions) != 1 || result.Functions[0].Name != "formatOrder" {
		t.Errorf("Functions = %+v, want [formatOrder]", result.Functions)
	}
	if result.Language != "javascript" {
		t.Errorf("Language = %q, want javascript", result.Language)
	}
}
