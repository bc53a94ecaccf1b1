// ABOUTME: Scored search results returned by the vector indices
// ABOUTME: Score reflects boosting and fusion; raw similarity is kept for audit
package models

// SearchResult is a scored reference to an indexed chunk. Score may exceed 1
// after boosting; Similarity is the cosine value before any boost was applied.
// The embedding is carried for diversity reranking and never serialized.
type SearchResult struct {
	ChunkID       string     `json:"chunk_id"`
	DocumentID    string     `json:"document_id"`
	ClauseID      string     `json:"clause_id,omitempty"`
	ArticleNumber int        `json:"article_number,omitempty"`
	SourceType    SourceType `json:"source_type"`
	Title         string     `json:"title,omitempty"`
	Content       string     `json:"content"`
	Similarity    float64    `json:"similarity"`
	KeywordScore  float64    `json:"keyword_score,omitempty"`
	Score         float64    `json:"score"`
	Embedding     []float64  `json:"-"`
}
