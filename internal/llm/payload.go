// ABOUTME: Tolerant parsing of generator replies into structured payloads
// ABOUTME: Unparseable replies yield Valid=false rather than an error
package llm

import (
	"encoding/json"
	"strings"

	"clauselens/internal/models"
)

// ParsePayload extracts the structured assessment from a raw generator
// reply. Markdown fences and surrounding prose are stripped first. A reply
// with no parseable JSON object yields a payload with Valid=false; callers
// then fall back to rule-based scoring and report no mapped issues.
func ParsePayload(raw string) models.StructuredPayload {
	jsonStr, ok := extractJSONObject(raw)
	if !ok {
		return models.StructuredPayload{}
	}

	var decoded struct {
		Summary        string             `json:"summary"`
		OverallRisk    float64            `json:"overall_risk"`
		CategoryScores map[string]float64 `json:"category_scores"`
		Issues         []struct {
			ClauseID    string `json:"clause_id"`
			Category    string `json:"category"`
			Severity    string `json:"severity"`
			Explanation string `json:"explanation"`
			Suggestion  string `json:"suggestion"`
		} `json:"issues"`
	}
	if err := json.Unmarshal([]byte(jsonStr), &decoded); err != nil {
		return models.StructuredPayload{}
	}

	payload := models.StructuredPayload{
		Valid:       true,
		Summary:     strings.TrimSpace(decoded.Summary),
		OverallRisk: clampScore(decoded.OverallRisk),
	}
	if len(decoded.CategoryScores) > 0 {
		payload.CategoryScores = make(map[string]float64, len(decoded.CategoryScores))
		for category, score := range decoded.CategoryScores {
			payload.CategoryScores[category] = clampScore(score)
		}
	}
	for _, it := range decoded.Issues {
		severity, ok := models.ParseSeverity(it.Severity)
		if !ok {
			severity = models.SeverityMedium
		}
		payload.Issues = append(payload.Issues, models.Issue{
			ClauseID:    strings.TrimSpace(it.ClauseID),
			Category:    strings.TrimSpace(it.Category),
			Severity:    severity,
			Explanation: it.Explanation,
			Suggestion:  it.Suggestion,
		})
	}
	return payload
}

// extractJSONObject pulls the JSON object out of a reply that may wrap it
// in markdown fences or explanatory prose.
func extractJSONObject(raw string) (string, bool) {
	response := strings.TrimSpace(raw)

	if strings.Contains(response, "```") {
		lines := strings.Split(response, "\n")
		var jsonLines []string
		inCodeBlock := false
		for _, line := range lines {
			if strings.HasPrefix(strings.TrimSpace(line), "```") {
				inCodeBlock = !inCodeBlock
				continue
			}
			if inCodeBlock {
				jsonLines = append(jsonLines, line)
			}
		}
		if len(jsonLines) > 0 {
			response = strings.Join(jsonLines, "\n")
		}
	}

	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start == -1 || end == -1 || start >= end {
		return "", false
	}
	return response[start : end+1], true
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
