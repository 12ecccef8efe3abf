// SPDX-License-Identifier: Apache-2.0
package memory

import (
	"math"
	"time"
)

const (
	rrfK  = 60.0
	mmrLambda = 0.7
	decayHalfLifeDays = 30.0
)

// temporalDecay implements exp(-ln2 * age_days / 30) against
// accessedAt.
func temporalDecay(accessedAt time.Time, now time.Time) float64 {
	ageDays := now.Sub(accessedAt).Hours() / 24
	if ageDays < 0 {
		ageDays = 0
	}
	return math.Exp(-math.Ln2 * ageDays / decayHalfLifeDays)
}

// rrfFuse fuses one or more rank-ordered key lists by Reciprocal Rank
// Fusion with k=60: score(e) = sum(1 / (60 + rank_i(e))) over every
// list e appears in, rank_i starting at 1.
func rrfFuse(rankedLists ...[]string) map[string]float64 {
	scores := make(map[string]float64)
	for _, list := range rankedLists {
		for i, key := range list {
			scores[key] += 1.0 / (rrfK + float64(i+1))
		}
	}
	return scores
}

// mmrSelect greedily picks up to limit candidates maximizing
// lambda*relevance - (1-lambda)*max_similarity_to_selected, the
// Maximal Marginal Relevance diversification pass.
func mmrSelect(candidates []string, relevance map[string]float64, limit int, similarity func(a, b string) float64) []string {
	if limit <= 0 || len(candidates) == 0 {
		return nil
	}
	remaining := append([]string(nil), candidates...)
	var selected []string

	for len(selected) < limit && len(remaining) > 0 {
		bestIdx := 0
		bestScore := math.Inf(-1)
		for i, cand := range remaining {
			maxSim := 0.0
			for _, sel := range selected {
				if s := similarity(cand, sel); s > maxSim {
					maxSim = s
				}
			}
			score := mmrLambda*relevance[cand] - (1-mmrLambda)*maxSim
			if score > bestScore {
				bestScore = score
				bestIdx = i
			}
		}
		selected = append(selected, remaining[bestIdx])
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}
	return selected
}

// cosineSimilarity is undefined (returns 0) for mismatched or empty
// vectors, which MMR treats as "unrelated".
func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// jaccardSimilarity is the fallback similarity when neither side has
// an embedding: set overlap of tokenized value text.
func jaccardSimilarity(a, b string) float64 {
	setA := toSet(tokenize(a))
	setB := toSet(tokenize(b))
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	intersection := 0
	for tok := range setA {
		if setB[tok] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func toSet(tokens []string) map[string]bool {
	set := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		set[t] = true
	}
	return set
}
