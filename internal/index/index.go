// ABOUTME: VectorIndex stores chunk records and answers nearest-neighbor queries
// ABOUTME: Boost multiplies similarity before the floor so boosted chunks survive thresholding
package index

import (
	"context"
	"errors"
	"sort"
	"strconv"

	"clauselens/internal/models"
)

var (
	// ErrDimensionMismatch is returned when a vector's length disagrees with
	// the index configuration. Hard failure, never truncated or padded.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrUnavailable is returned when the index backend cannot be reached.
	ErrUnavailable = errors.New("vector index unavailable")
)

// Boost pushes chunks of one article above their raw similarity. The
// multiplier applies to cosine similarity before the floor check, so a
// boosted chunk can survive thresholding that its raw similarity would fail.
type Boost struct {
	ArticleNumber int
	Multiplier    float64
}

// Query shapes one nearest-neighbor search. Filters are equality matches on
// record fields (source_type, article_number, document_id, clause_id, type);
// unknown keys match against the chunk metadata map.
type Query struct {
	Vector        []float64
	TopK          int
	MinSimilarity float64
	Filters       map[string]string
	Boost         *Boost
}

// VectorIndex is implemented by the contract-scoped and corpus-wide indices.
type VectorIndex interface {
	// Upsert atomically replaces all chunks stored for a document. Readers
	// see either the old complete set or the new one, never a mix.
	Upsert(ctx context.Context, documentID string, chunks []models.Chunk) error

	// Search returns up to TopK results ordered by descending score, ties
	// broken by ascending chunk id.
	Search(ctx context.Context, q Query) ([]models.SearchResult, error)

	// DeleteDocument removes every chunk stored for a document.
	DeleteDocument(ctx context.Context, documentID string) error

	// Count reports the number of stored chunks.
	Count(ctx context.Context) (int, error)
}

// rank applies boost, similarity floor, deterministic ordering, and TopK
// truncation to raw-scored candidates. Candidates must carry Similarity.
func rank(candidates []models.SearchResult, q Query) []models.SearchResult {
	out := make([]models.SearchResult, 0, len(candidates))
	for _, r := range candidates {
		score := r.Similarity
		if q.Boost != nil && q.Boost.Multiplier > 0 && q.Boost.ArticleNumber > 0 && r.ArticleNumber == q.Boost.ArticleNumber {
			score *= q.Boost.Multiplier
		}
		if score < q.MinSimilarity {
			continue
		}
		r.Score = score
		out = append(out, r)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ChunkID < out[j].ChunkID
	})

	if q.TopK > 0 && len(out) > q.TopK {
		out = out[:q.TopK]
	}
	return out
}

// matchesFilters checks a chunk against equality filters.
func matchesFilters(ch models.Chunk, filters map[string]string) bool {
	for key, want := range filters {
		switch key {
		case "document_id":
			if ch.DocumentID != want {
				return false
			}
		case "clause_id":
			if ch.ClauseID != want {
				return false
			}
		case "source_type":
			if string(ch.SourceType) != want {
				return false
			}
		case "type":
			if string(ch.Type) != want {
				return false
			}
		case "article_number":
			if strconv.Itoa(ch.ArticleNumber) != want {
				return false
			}
		default:
			if ch.Metadata[key] != want {
				return false
			}
		}
	}
	return true
}
