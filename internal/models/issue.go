// ABOUTME: Issue is a generator-identified problem tied to a specific clause
// ABOUTME: Mapping copies verbatim clause text and offsets for highlighting
package models

import "strings"

// Severity grades how serious an issue is.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// ParseSeverity normalizes a free-form severity string.
func ParseSeverity(s string) (Severity, bool) {
	switch Severity(strings.ToLower(strings.TrimSpace(s))) {
	case SeverityLow:
		return SeverityLow, true
	case SeverityMedium:
		return SeverityMedium, true
	case SeverityHigh:
		return SeverityHigh, true
	}
	return "", false
}

// Issue references a clause by id. OriginalText and the offsets are filled
// in by the issue mapper and are always verbatim spans of the source
// document; they stay empty on issues the mapper could not resolve.
type Issue struct {
	ClauseID     string   `json:"clause_id"`
	Category     string   `json:"category"`
	Severity     Severity `json:"severity"`
	Explanation  string   `json:"explanation"`
	Suggestion   string   `json:"suggestion,omitempty"`
	OriginalText string   `json:"original_text,omitempty"`
	StartOffset  int      `json:"start_offset"`
	EndOffset    int      `json:"end_offset"`
}
