// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package semantic

import (
	"github.com/AleutianAI/kodiak/services/knowledge/graph"
)

// Similarity score weights for callable pairs.
const (
	weightName      = 0.5
	weightNamespace = 0.3
	weightTags      = 0.2
)

// nameSimilarity scores two identifiers in [0,1] from their normalized
// edit distance. Two empty names count as identical.
func nameSimilarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(levenshtein(a, b))/float64(maxLen)
}

// tagOverlap is the Jaccard coefficient of two tag sets. Two empty sets
// count as fully overlapping: the absence of labels is itself agreement.
func tagOverlap(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	set := make(map[string]struct{}, len(a))
	for _, tag := range a {
		set[tag] = struct{}{}
	}
	intersection := 0
	for _, tag := range b {
		if _, ok := set[tag]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 1.0
	}
	return float64(intersection) / float64(union)
}

// callableSimilarity scores two function or method nodes: weighted name
// similarity, namespace agreement, and tag overlap.
func callableSimilarity(a, b *graph.KnowledgeNode) float64 {
	score := weightName * nameSimilarity(a.Name, b.Name)
	if a.Namespace == b.Namespace {
		score += weightNamespace
	}
	score += weightTags * tagOverlap(a.Metadata.Tags, b.Metadata.Tags)
	return score
}

// structuralSimilarity scores two class-like nodes from their member
// counts: the mean of the per-dimension count agreements.
func structuralSimilarity(a, b *graph.KnowledgeNode) float64 {
	methods := countAgreement(a.Metadata.MethodCount, b.Metadata.MethodCount)
	properties := countAgreement(a.Metadata.PropertyCount, b.Metadata.PropertyCount)
	return (methods + properties) / 2.0
}

// countAgreement maps a pair of counts to [0,1]: identical counts score
// 1, widely different counts approach 0.
func countAgreement(a, b int) float64 {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	max := a
	if b > max {
		max = b
	}
	if max < 1 {
		max = 1
	}
	return 1.0 - float64(diff)/float64(max)
}

// levenshtein computes the edit distance between two strings using
// space-optimized dynamic programming with two rows instead of a full
// matrix.
func levenshtein(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	// Ensure a is the shorter string for space optimization
	if len(a) > len(b) {
		a, b = b, a
	}

	prev := make([]int, len(a)+1)
	curr := make([]int, len(a)+1)
	for i := range prev {
		prev[i] = i
	}

	for j := 1; j <= len(b); j++ {
		curr[0] = j
		for i := 1; i <= len(a); i++ {
			if a[i-1] == b[j-1] {
				curr[i] = prev[i-1]
			} else {
				curr[i] = 1 + minOf3(prev[i-1], prev[i], curr[i-1])
			}
		}
		prev, curr = curr, prev
	}

	return prev[len(a)]
}

// minOf3 returns the minimum of three integers.
func minOf3(a, b, c int) int {
	if a <= b && a <= c {
		return a
	}
	if b <= c {
		return b
	}
	return c
}
