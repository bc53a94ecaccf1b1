// ABOUTME: Chunk is the retrievable unit derived from a clause or corpus document
// ABOUTME: Long clauses split into overlapping paragraph chunks that keep the parent's identity
package models

import (
	"strings"

	"github.com/google/uuid"
)

// ChunkType tags whether a chunk covers a whole clause, a whole corpus
// document, or a paragraph subdivision of either.
type ChunkType string

const (
	ChunkTypeClause    ChunkType = "clause"
	ChunkTypeDocument  ChunkType = "document"
	ChunkTypeParagraph ChunkType = "paragraph"
)

// SourceType classifies where a chunk's text came from.
type SourceType string

const (
	SourceContract  SourceType = "contract"
	SourceStatute   SourceType = "statute"
	SourceGuide     SourceType = "guide"
	SourcePrecedent SourceType = "precedent"
	SourceTemplate  SourceType = "template"
)

// ParseSourceType normalizes a free-form source type string.
func ParseSourceType(s string) (SourceType, bool) {
	switch SourceType(strings.ToLower(strings.TrimSpace(s))) {
	case SourceContract:
		return SourceContract, true
	case SourceStatute:
		return SourceStatute, true
	case SourceGuide:
		return SourceGuide, true
	case SourcePrecedent:
		return SourcePrecedent, true
	case SourceTemplate:
		return SourceTemplate, true
	}
	return "", false
}

// Chunk is one retrievable unit. Contract chunks carry clause identity;
// corpus chunks carry a non-contract SourceType and a document title.
// ParagraphIndex is nil for whole-clause chunks.
type Chunk struct {
	ID             string            `json:"id"`
	DocumentID     string            `json:"document_id"`
	ClauseID       string            `json:"clause_id,omitempty"`
	ArticleNumber  int               `json:"article_number,omitempty"`
	ParagraphIndex *int              `json:"paragraph_index,omitempty"`
	Type           ChunkType         `json:"type"`
	SourceType     SourceType        `json:"source_type"`
	Title          string            `json:"title,omitempty"`
	Content        string            `json:"content"`
	StartOffset    int               `json:"start_offset"`
	EndOffset      int               `json:"end_offset"`
	Embedding      []float64         `json:"embedding,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// NewChunkID generates a unique chunk identifier.
func NewChunkID() string {
	return "chunk_" + uuid.New().String()
}
