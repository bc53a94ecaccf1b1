// ABOUTME: AnalysisReport aggregates risk scoring, issues, and grounding for one request
// ABOUTME: Reports are immutable once returned; a new analysis is a new report
package models

import (
	"time"

	"github.com/google/uuid"
)

// RiskLevel bands an overall risk score.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// ReportFlags records degradations that happened while producing a report.
// A zero value means the report is fully grounded and generator-informed.
type ReportFlags struct {
	RulesOnly         bool `json:"rules_only,omitempty"`
	ReducedConfidence bool `json:"reduced_confidence,omitempty"`
	DegradedRetrieval bool `json:"degraded_retrieval,omitempty"`
}

// AnalysisReport is the aggregate result of one analysis request.
type AnalysisReport struct {
	ID             string             `json:"id"`
	DocumentID     string             `json:"document_id"`
	CreatedAt      time.Time          `json:"created_at"`
	OverallScore   float64            `json:"overall_score"`
	RiskLevel      RiskLevel          `json:"risk_level"`
	CategoryScores map[string]float64 `json:"category_scores"`
	Issues         []Issue            `json:"issues"`
	Unmatched      []Issue            `json:"unmatched,omitempty"`
	Grounding      []SearchResult     `json:"grounding,omitempty"`
	Answer         string             `json:"answer,omitempty"`
	Flags          ReportFlags        `json:"flags,omitempty"`
}

// NewReportID generates a unique report identifier.
func NewReportID() string {
	return "report_" + uuid.New().String()
}
