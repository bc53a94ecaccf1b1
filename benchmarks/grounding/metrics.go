// ABOUTME: Metric calculations for grounding quality benchmarks
// ABOUTME: Scores context recall, scope exclusion, boost effect, and source-type diversity

package grounding

import (
	"fmt"
	"sort"
	"strings"

	"clauselens/internal/models"
)

// MetricsCalculator scores retrieval output against scenario ground truth.
type MetricsCalculator struct{}

// NewMetricsCalculator creates a new metrics calculator.
func NewMetricsCalculator() *MetricsCalculator {
	return &MetricsCalculator{}
}

// QueryEvaluation holds the metric results for a single query case.
type QueryEvaluation struct {
	Recall          float64
	RecallDetail    string
	Exclusion       float64
	ExclusionDetail string

	// FirstRank is the 1-based rank of the first result containing any
	// expected item, 0 when none was found.
	FirstRank int

	BoostApplies bool
	BoostOK      bool
	BoostDetail  string

	DiversityApplies bool
	DiversityOK      bool
	DiversityDetail  string
}

// TestResult holds the aggregated outcome of one benchmark scenario.
type TestResult struct {
	TestID         string            `json:"test_id"`
	TestName       string            `json:"test_name"`
	RecallScore    float64           `json:"recall_score"`
	ExclusionScore float64           `json:"exclusion_score"`
	OverallScore   float64           `json:"overall_score"`
	Status         string            `json:"status"`
	Details        map[string]string `json:"details"`
	ErrorMessage   string            `json:"error_message,omitempty"`
}

// CalculateContextRecall measures how many expected evidence items appear in
// the retrieved contents. Returns the proportion found and a detail string.
func (m *MetricsCalculator) CalculateContextRecall(contents []string, expected []string) (float64, string) {
	if len(expected) == 0 {
		return 1.0, "No expected context items"
	}

	joined := strings.ToUpper(strings.Join(contents, " "))
	found := 0
	var missing []string
	for _, item := range expected {
		if strings.Contains(joined, strings.ToUpper(item)) {
			found++
		} else {
			missing = append(missing, item)
		}
	}

	score := float64(found) / float64(len(expected))
	if len(missing) > 0 {
		return score, fmt.Sprintf("Found %d/%d expected items, missing: %s",
			found, len(expected), strings.Join(missing, ", "))
	}
	return score, fmt.Sprintf("Found %d/%d expected items", found, len(expected))
}

// CalculateExclusion checks that no forbidden substring leaked into the
// retrieved contents. Returns 1.0 when clean, 0.0 when anything leaked.
func (m *MetricsCalculator) CalculateExclusion(contents []string, forbidden []string) (float64, string) {
	if len(forbidden) == 0 {
		return 1.0, "No forbidden context items"
	}

	joined := strings.ToUpper(strings.Join(contents, " "))
	var leaked []string
	for _, item := range forbidden {
		if strings.Contains(joined, strings.ToUpper(item)) {
			leaked = append(leaked, item)
		}
	}

	if len(leaked) > 0 {
		return 0.0, fmt.Sprintf("Forbidden items leaked: %s", strings.Join(leaked, ", "))
	}
	return 1.0, fmt.Sprintf("All %d forbidden items excluded", len(forbidden))
}

// CalculateBoostEffect compares the marker's rank with and without the boost.
// The boost must never worsen the rank, and the marker must stay retrievable.
func (m *MetricsCalculator) CalculateBoostEffect(baseline, boosted []models.SearchResult, marker string) (bool, string) {
	baseRank := rankOf(baseline, marker)
	boostRank := rankOf(boosted, marker)

	if boostRank == 0 {
		return false, fmt.Sprintf("Boosted article %q not retrieved", marker)
	}
	if baseRank == 0 {
		return true, fmt.Sprintf("Marker absent without boost, rank %d with boost", boostRank)
	}
	if boostRank > baseRank {
		return false, fmt.Sprintf("Boost worsened rank: %d -> %d", baseRank, boostRank)
	}
	return true, fmt.Sprintf("Rank with boost %d, without %d", boostRank, baseRank)
}

// CalculateTypeDiversity counts distinct source types among corpus results
// and checks the count against the scenario's minimum.
func (m *MetricsCalculator) CalculateTypeDiversity(results []models.SearchResult, minTypes int) (bool, string) {
	seen := make(map[models.SourceType]bool)
	for _, r := range results {
		seen[r.SourceType] = true
	}

	names := make([]string, 0, len(seen))
	for t := range seen {
		names = append(names, string(t))
	}
	sort.Strings(names)

	detail := fmt.Sprintf("%d distinct source types: %s", len(seen), strings.Join(names, ", "))
	return len(seen) >= minTypes, detail
}

// EvaluateQuery scores one query case against its retrieval bundle. Boost
// comparison needs the baseline bundle and is filled in by the runner.
func (m *MetricsCalculator) EvaluateQuery(qc QueryCase, bundle *models.GroundingBundle) QueryEvaluation {
	results := bundle.Results()
	contents := make([]string, 0, len(results))
	for _, r := range results {
		contents = append(contents, r.Content)
	}

	var eval QueryEvaluation
	eval.Recall, eval.RecallDetail = m.CalculateContextRecall(contents, qc.ExpectedContextItems)
	eval.Exclusion, eval.ExclusionDetail = m.CalculateExclusion(contents, qc.ForbiddenContextItems)
	eval.FirstRank = firstRelevantRank(results, qc.ExpectedContextItems)

	if qc.MinSourceTypes > 0 {
		eval.DiversityApplies = true
		eval.DiversityOK, eval.DiversityDetail = m.CalculateTypeDiversity(bundle.CorpusResults, qc.MinSourceTypes)
	}
	return eval
}

// EvaluateTest aggregates per-query evaluations into a scenario result.
// A scenario passes when average recall is at least 0.9, nothing leaked,
// and every applicable boost and diversity check holds.
func (m *MetricsCalculator) EvaluateTest(scenario TestScenario, evals []QueryEvaluation) TestResult {
	result := TestResult{
		TestID:   scenario.ID,
		TestName: scenario.Name,
		Details:  make(map[string]string),
	}
	if len(evals) == 0 {
		result.Status = "FAIL"
		result.ErrorMessage = "no queries evaluated"
		return result
	}

	var recallSum, exclusionSum float64
	pass := true
	for i, eval := range evals {
		recallSum += eval.Recall
		exclusionSum += eval.Exclusion

		prefix := fmt.Sprintf("query_%d", i+1)
		result.Details[prefix+"_recall"] = eval.RecallDetail
		result.Details[prefix+"_exclusion"] = eval.ExclusionDetail
		if eval.FirstRank > 0 {
			result.Details[prefix+"_first_relevant_rank"] = fmt.Sprintf("%d", eval.FirstRank)
		}
		if eval.Exclusion < 1.0 {
			pass = false
		}
		if eval.BoostApplies {
			result.Details[prefix+"_boost"] = eval.BoostDetail
			if !eval.BoostOK {
				pass = false
			}
		}
		if eval.DiversityApplies {
			result.Details[prefix+"_diversity"] = eval.DiversityDetail
			if !eval.DiversityOK {
				pass = false
			}
		}
	}

	result.RecallScore = recallSum / float64(len(evals))
	result.ExclusionScore = exclusionSum / float64(len(evals))
	result.OverallScore = (result.RecallScore + result.ExclusionScore) / 2
	if result.RecallScore < 0.9 {
		pass = false
	}

	result.Status = "FAIL"
	if pass {
		result.Status = "PASS"
	}
	return result
}

// rankOf returns the 1-based rank of the first result whose content contains
// the marker, or 0 when no result contains it.
func rankOf(results []models.SearchResult, marker string) int {
	upper := strings.ToUpper(marker)
	for i, r := range results {
		if strings.Contains(strings.ToUpper(r.Content), upper) {
			return i + 1
		}
	}
	return 0
}

// firstRelevantRank returns the best rank across all expected items.
func firstRelevantRank(results []models.SearchResult, expected []string) int {
	best := 0
	for _, item := range expected {
		rank := rankOf(results, item)
		if rank > 0 && (best == 0 || rank < best) {
			best = rank
		}
	}
	return best
}
