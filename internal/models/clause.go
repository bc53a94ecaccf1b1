// ABOUTME: Clause represents one contract article as a contiguous span of source text
// ABOUTME: Offsets index into the original document and never overlap
package models

import "github.com/google/uuid"

// ExtractionStrategy identifies which chunking strategy produced a clause.
type ExtractionStrategy string

const (
	StrategyArticleHeader ExtractionStrategy = "article_header"
	StrategyKeyword       ExtractionStrategy = "keyword"
	StrategyWholeDocument ExtractionStrategy = "whole_document"
)

// Clause is a contiguous span of contract text identified as one numbered
// article or an un-numbered residual block. ArticleNumber 0 means the header
// carried no parseable number.
type Clause struct {
	ID            string             `json:"id"`
	DocumentID    string             `json:"document_id"`
	ArticleNumber int                `json:"article_number,omitempty"`
	Title         string             `json:"title,omitempty"`
	Body          string             `json:"body"`
	StartOffset   int                `json:"start_offset"`
	EndOffset     int                `json:"end_offset"`
	Category      string             `json:"category,omitempty"`
	Strategy      ExtractionStrategy `json:"strategy"`
}

// NewClauseID generates a unique clause identifier.
func NewClauseID() string {
	return "clause_" + uuid.New().String()
}
