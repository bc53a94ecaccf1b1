// ABOUTME: Document records for ingested contracts and corpus sources
// ABOUTME: Persisted snapshots; clauses and chunks reference them by id
package models

import (
	"time"

	"github.com/google/uuid"
)

// ContractDocument is the stored record of an ingested contract.
type ContractDocument struct {
	ID          string    `json:"id"`
	Title       string    `json:"title,omitempty"`
	Text        string    `json:"text"`
	ClauseCount int       `json:"clause_count"`
	ChunkCount  int       `json:"chunk_count"`
	IngestedAt  time.Time `json:"ingested_at"`
}

// NewContractID generates a unique contract document identifier.
func NewContractID() string {
	return "contract_" + uuid.New().String()
}

// CorpusDocument is one statute/guide/precedent/template source before chunking.
type CorpusDocument struct {
	ID         string     `json:"id"`
	SourceType SourceType `json:"source_type"`
	Title      string     `json:"title"`
	Text       string     `json:"text"`
}
