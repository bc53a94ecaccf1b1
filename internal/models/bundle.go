// ABOUTME: Retrieval scope selection and the grounding bundle assembled from it
// ABOUTME: Degraded bundles record which sources actually answered
package models

// Scope selects which indices a retrieval request queries.
type Scope string

const (
	ScopeContract Scope = "contract"
	ScopeCorpus   Scope = "corpus"
	ScopeBoth     Scope = "both"
)

// GroundingBundle is the ordered evidence set handed to the generator.
// Sources lists the index names that contributed results; Degraded is set
// when a requested source failed and the bundle fell back to the other.
type GroundingBundle struct {
	Query           string         `json:"query"`
	ContractResults []SearchResult `json:"contract_results,omitempty"`
	CorpusResults   []SearchResult `json:"corpus_results,omitempty"`
	Sources         []string       `json:"sources"`
	Degraded        bool           `json:"degraded,omitempty"`
}

// Results returns contract and corpus hits as one ordered slice,
// contract-internal results first.
func (b *GroundingBundle) Results() []SearchResult {
	out := make([]SearchResult, 0, len(b.ContractResults)+len(b.CorpusResults))
	out = append(out, b.ContractResults...)
	out = append(out, b.CorpusResults...)
	return out
}
