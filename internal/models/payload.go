// ABOUTME: StructuredPayload is the machine-readable part of a generator reply
// ABOUTME: Valid=false marks an unparseable payload; callers must branch on it
package models

// StructuredPayload carries the generator's best-effort structured
// assessment. When parsing fails Valid is false and the remaining fields
// must not be trusted; scoring then runs rule-based only and every issue
// is reported as unmatched.
type StructuredPayload struct {
	Valid          bool               `json:"-"`
	Summary        string             `json:"summary,omitempty"`
	OverallRisk    float64            `json:"overall_risk,omitempty"`
	CategoryScores map[string]float64 `json:"category_scores,omitempty"`
	Issues         []Issue            `json:"issues,omitempty"`
}
