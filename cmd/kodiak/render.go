// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/AleutianAI/kodiak/pkg/ux"
	"github.com/AleutianAI/kodiak/services/knowledge"
	"github.com/AleutianAI/kodiak/services/knowledge/graph"
)

// renderResult prints a human-readable summary of a construction run.
func renderResult(result *knowledge.AnalysisResult) {
	ux.Success(fmt.Sprintf("analyzed %d files in %dms", result.FilesAnalyzed, result.DurationMilli))
	ux.Bullet(fmt.Sprintf("%d nodes, %d triads", result.NodesExtracted, result.TriadsCreated))

	if len(result.Patterns) > 0 {
		ux.Info("design patterns")
		for _, p := range result.Patterns {
			ux.Bullet(fmt.Sprintf("%s (%.0f%%): %s", p.Type, p.Confidence*100, strings.Join(p.Components, ", ")))
		}
	}

	if result.Abstractions != nil {
		if n := len(result.Abstractions.Modules); n > 0 {
			ux.Info(fmt.Sprintf("%d namespace modules", n))
			for _, m := range result.Abstractions.Modules {
				ux.Bullet(fmt.Sprintf("%s (%d members)", m.Name, len(m.Members)))
			}
		}
		if n := len(result.Abstractions.Features); n > 0 {
			ux.Info(fmt.Sprintf("%d features", n))
			for _, f := range result.Abstractions.Features {
				ux.Bullet(fmt.Sprintf("%s (%d members)", f.Name, len(f.Members)))
			}
		}
	}

	for _, insight := range result.Insights {
		ux.Bullet(insight)
	}

	if len(result.FileErrors) > 0 {
		ux.Warning(fmt.Sprintf("%d files skipped", len(result.FileErrors)))
		for _, fe := range result.FileErrors {
			ux.Bullet(fmt.Sprintf("%s: %s", fe.Path, fe.Message))
		}
	}
}

// jsonResult is the machine-readable shape of an analysis run. The
// graph itself is included as flat node and triad lists.
type jsonResult struct {
	*knowledge.AnalysisResult
	Nodes  []*graph.KnowledgeNode  `json:"nodes"`
	Triads []*graph.KnowledgeTriad `json:"triads"`
}

// renderJSON writes the full result, including graph contents, as JSON.
func renderJSON(w io.Writer, result *knowledge.AnalysisResult) error {
	out := jsonResult{
		AnalysisResult: result,
		Nodes:          result.Store.Nodes(),
		Triads:         result.Store.Triads(),
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
