// ABOUTME: Cosine similarity ranking of a query vector against corpus vectors
// ABOUTME: Deterministic top-K: descending score, ties broken by ascending index
package rank

import (
	"math"
	"sort"

	"github.com/harper/biorag/internal/models"
)

// TopK scores query against every corpus vector and returns the k best.
// k is clamped to the corpus size; k <= 0 or an empty corpus returns nil.
func TopK(query []float64, corpus [][]float64, k int) []models.ScoredIndex {
	if k <= 0 || len(corpus) == 0 {
		return nil
	}

	results := make([]models.ScoredIndex, len(corpus))
	for i, vec := range corpus {
		results[i] = models.ScoredIndex{Index: i, Score: Cosine(query, vec)}
	}

	// Stable sort keeps ascending index order among equal scores
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if k > len(results) {
		k = len(results)
	}
	return results[:k:k]
}

// Cosine calculates cosine similarity between two vectors.
// Mismatched lengths and zero vectors score 0.
func Cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0.0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0.0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
