// SPDX-License-Identifier: Apache-2.0
package memory

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

const (
	bm25K1 = 1.5
	bm25B  = 0.75
)

var tokenPattern = regexp.MustCompile(`[a-z0-9]+`)

func tokenize(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}

// bm25Scores ranks docs (keyed by MemoryEntry.Key) against query using
// BM25 over key+value text, recomputed per call. At the per-agent
// memory scale this runtime targets, a persistent inverted index would
// add bookkeeping with no measurable benefit over a fresh scan.
func bm25Scores(docs []scoredDoc, query string) map[string]float64 {
	qTokens := tokenize(query)
	if len(qTokens) == 0 || len(docs) == 0 {
		return map[string]float64{}
	}

	tokenized := make([][]string, len(docs))
	df := make(map[string]int)
	totalLen := 0
	for i, d := range docs {
		toks := tokenize(d.key + " " + d.text)
		tokenized[i] = toks
		totalLen += len(toks)
		seen := make(map[string]bool, len(toks))
		for _, t := range toks {
			if !seen[t] {
				df[t]++
				seen[t] = true
			}
		}
	}
	n := float64(len(docs))
	avgdl := float64(totalLen) / n
	if avgdl == 0 {
		avgdl = 1
	}

	scores := make(map[string]float64, len(docs))
	for i, d := range docs {
		tf := make(map[string]int)
		for _, t := range tokenized[i] {
			tf[t]++
		}
		dl := float64(len(tokenized[i]))
		var score float64
		for _, qt := range qTokens {
			f := float64(tf[qt])
			if f == 0 {
				continue
			}
			nq := float64(df[qt])
			idf := math.Log((n-nq+0.5)/(nq+0.5) + 1)
			score += idf * (f * (bm25K1 + 1)) / (f + bm25K1*(1-bm25B+bm25B*dl/avgdl))
		}
		scores[d.key] = score
	}
	return scores
}

type scoredDoc struct {
	key  string
	text string
}

// rankByScoreDesc returns keys sorted by descending score, ties broken
// lexically by key for determinism.
func rankByScoreDesc(scores map[string]float64) []string {
	keys := make([]string, 0, len(scores))
	for k := range scores {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if scores[keys[i]] != scores[keys[j]] {
			return scores[keys[i]] > scores[keys[j]]
		}
		return keys[i] < keys[j]
	})
	return keys
}
