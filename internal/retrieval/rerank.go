// ABOUTME: Reranking stages applied to index candidates before they enter a grounding bundle
// ABOUTME: Covers hybrid score fusion, MMR diversity selection, and corpus type guarantees
package retrieval

import (
	"math"
	"sort"

	"clauselens/internal/models"
)

// sortByScore orders results by descending score, ties broken by chunk id.
func sortByScore(results []models.SearchResult) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ChunkID < results[j].ChunkID
	})
}

// mmrSelect picks up to k results from a score-sorted pool, balancing
// relevance against redundancy: each step takes the candidate maximizing
// lambda*score - (1-lambda)*maxSimilarity(candidate, chosen). Seeds count
// toward k and are treated as already chosen.
func mmrSelect(pool []models.SearchResult, seeds []models.SearchResult, k int, lambda float64) []models.SearchResult {
	selected := make([]models.SearchResult, 0, k)
	selected = append(selected, seeds...)
	if len(selected) >= k {
		return selected[:k]
	}

	chosen := make(map[string]bool, k)
	for _, s := range selected {
		chosen[s.ChunkID] = true
	}

	remaining := make([]models.SearchResult, 0, len(pool))
	for _, r := range pool {
		if !chosen[r.ChunkID] {
			remaining = append(remaining, r)
		}
	}

	for len(selected) < k && len(remaining) > 0 {
		bestIdx := 0
		bestMarginal := math.Inf(-1)
		for i, cand := range remaining {
			marginal := lambda*cand.Score - (1-lambda)*maxSimilarity(cand, selected)
			if marginal > bestMarginal {
				bestMarginal = marginal
				bestIdx = i
			}
		}
		selected = append(selected, remaining[bestIdx])
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}
	return selected
}

// maxSimilarity returns the highest pairwise cosine between a candidate and
// the already-selected results.
func maxSimilarity(cand models.SearchResult, selected []models.SearchResult) float64 {
	max := 0.0
	for _, s := range selected {
		if sim := cosine(cand.Embedding, s.Embedding); sim > max {
			max = sim
		}
	}
	return max
}

// assembleCorpus builds the final corpus result set from a score-sorted pool.
// It reserves one slot each for a statute and a guide-or-template result, one
// for a precedent when the pool has one, then fills the rest with MMR.
func assembleCorpus(pool []models.SearchResult, k int, lambda float64) []models.SearchResult {
	if k <= 0 || len(pool) == 0 {
		return nil
	}

	var seeds []models.SearchResult
	seeded := make(map[string]bool)
	reserve := func(match func(models.SourceType) bool) {
		if len(seeds) >= k {
			return
		}
		for _, r := range pool {
			if seeded[r.ChunkID] || !match(r.SourceType) {
				continue
			}
			seeds = append(seeds, r)
			seeded[r.ChunkID] = true
			return
		}
	}

	reserve(func(st models.SourceType) bool { return st == models.SourceStatute })
	reserve(func(st models.SourceType) bool { return st == models.SourceGuide || st == models.SourceTemplate })
	reserve(func(st models.SourceType) bool { return st == models.SourcePrecedent })

	final := mmrSelect(pool, seeds, k, lambda)
	sortByScore(final)
	return final
}

func cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
