// ABOUTME: In-memory brute-force cosine index used for contract-scoped retrieval
// ABOUTME: Upsert swaps a document's chunk set wholesale so readers never observe a partial mix
package index

import (
	"context"
	"fmt"
	"math"
	"sync"

	"clauselens/internal/models"
)

// DefaultDimension matches the default embedding model output size.
const DefaultDimension = 1536

// MemoryIndex holds chunks per document and scans them with exact cosine
// similarity. Contract-scoped collections are small enough that a linear
// scan beats maintaining an approximate structure.
type MemoryIndex struct {
	mu        sync.RWMutex
	dimension int
	docs      map[string][]models.Chunk
}

// NewMemoryIndex creates an empty index expecting vectors of the given
// dimension. Non-positive dimensions fall back to DefaultDimension.
func NewMemoryIndex(dimension int) *MemoryIndex {
	if dimension <= 0 {
		dimension = DefaultDimension
	}
	return &MemoryIndex{
		dimension: dimension,
		docs:      make(map[string][]models.Chunk),
	}
}

// Upsert replaces the stored chunk set for a document. The new set is
// validated and copied before the swap, so a failed call leaves the old
// set untouched and a successful one is visible all at once.
func (m *MemoryIndex) Upsert(ctx context.Context, documentID string, chunks []models.Chunk) error {
	if documentID == "" {
		return fmt.Errorf("memory index: document id required")
	}
	for _, ch := range chunks {
		if len(ch.Embedding) != m.dimension {
			return fmt.Errorf("chunk %s has dimension %d, index expects %d: %w",
				ch.ID, len(ch.Embedding), m.dimension, ErrDimensionMismatch)
		}
	}

	replacement := make([]models.Chunk, len(chunks))
	copy(replacement, chunks)

	m.mu.Lock()
	defer m.mu.Unlock()
	if len(replacement) == 0 {
		delete(m.docs, documentID)
		return nil
	}
	m.docs[documentID] = replacement
	return nil
}

// Search scans stored chunks, scores them against the query vector, and
// returns the ranked results. A document_id filter narrows the scan to a
// single document's chunks.
func (m *MemoryIndex) Search(ctx context.Context, q Query) ([]models.SearchResult, error) {
	if len(q.Vector) != m.dimension {
		return nil, fmt.Errorf("query vector has dimension %d, index expects %d: %w",
			len(q.Vector), m.dimension, ErrDimensionMismatch)
	}

	m.mu.RLock()
	var candidates []models.SearchResult
	scan := func(chunks []models.Chunk) {
		for _, ch := range chunks {
			if !matchesFilters(ch, q.Filters) {
				continue
			}
			candidates = append(candidates, models.SearchResult{
				ChunkID:       ch.ID,
				DocumentID:    ch.DocumentID,
				ClauseID:      ch.ClauseID,
				ArticleNumber: ch.ArticleNumber,
				SourceType:    ch.SourceType,
				Title:         ch.Title,
				Content:       ch.Content,
				Similarity:    cosineSimilarity(q.Vector, ch.Embedding),
				Embedding:     ch.Embedding,
			})
		}
	}
	if docID, ok := q.Filters["document_id"]; ok {
		scan(m.docs[docID])
	} else {
		for _, chunks := range m.docs {
			scan(chunks)
		}
	}
	m.mu.RUnlock()

	return rank(candidates, q), nil
}

// DeleteDocument removes every chunk stored for a document.
func (m *MemoryIndex) DeleteDocument(ctx context.Context, documentID string) error {
	m.mu.Lock()
	delete(m.docs, documentID)
	m.mu.Unlock()
	return nil
}

// Count reports the number of stored chunks across all documents.
func (m *MemoryIndex) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	total := 0
	for _, chunks := range m.docs {
		total += len(chunks)
	}
	return total, nil
}

// cosineSimilarity computes the cosine similarity between two vectors.
// Returns 0.0 for mismatched lengths or zero-magnitude vectors.
func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0.0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0.0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
