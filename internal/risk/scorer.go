// ABOUTME: RiskScorer blends rule-based clause penalties with generator category scores
// ABOUTME: Pure computation; weights and band boundaries are validated at construction
package risk

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"clauselens/internal/models"
)

// Fixed rule penalties. A category's rule score is capped at 100.
const (
	PenaltyMissingClause  = 30.0
	PenaltyIllegalPattern = 40.0
	PenaltyVagueWording   = 20.0

	maxCategoryScore = 100.0
)

const weightSumEpsilon = 1e-9

// Bands holds the score boundaries separating risk levels: scores below
// Medium are low, scores at or above High are high.
type Bands struct {
	Medium float64
	High   float64
}

// DefaultBands returns the standard boundaries: low under 40, high from 70.
func DefaultBands() Bands {
	return Bands{Medium: 40, High: 70}
}

// Level maps a composite score to its risk level.
func (b Bands) Level(score float64) models.RiskLevel {
	switch {
	case score >= b.High:
		return models.RiskHigh
	case score >= b.Medium:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}

// FindingKind names the rule that fired.
type FindingKind string

const (
	FindingMissingClause  FindingKind = "missing_clause"
	FindingIllegalPattern FindingKind = "illegal_pattern"
	FindingVagueWording   FindingKind = "vague_wording"
)

// Finding records one fired rule for reporting.
type Finding struct {
	Category string
	Kind     FindingKind
	ClauseID string
	Detail   string
}

// Assessment is the scorer's output. CategoryScores hold the blended
// per-category sub-scores; RulesOnly is true when no generator component
// contributed to any category.
type Assessment struct {
	OverallScore   float64
	Level          models.RiskLevel
	CategoryScores map[string]float64
	RulesOnly      bool
	Findings       []Finding
}

// Scorer computes composite contract risk across the fixed categories.
type Scorer struct {
	weights map[string]float64
	bands   Bands
	rules   []CategoryRules
	vague   []*regexp.Regexp
}

// NewScorer validates the weighting and band configuration. Nil weights or
// rules and a zero Bands select the defaults. Weights must cover exactly the
// rule categories and sum to 1.0; bands must increase.
func NewScorer(weights map[string]float64, bands Bands, rules []CategoryRules) (*Scorer, error) {
	if rules == nil {
		rules = DefaultRules()
	}
	if len(rules) == 0 {
		return nil, fmt.Errorf("risk scorer: at least one category rule required")
	}
	if weights == nil {
		weights = DefaultWeights()
	}
	if bands == (Bands{}) {
		bands = DefaultBands()
	}

	seen := make(map[string]bool, len(rules))
	sum := 0.0
	for _, rule := range rules {
		if seen[rule.Category] {
			return nil, fmt.Errorf("risk scorer: duplicate rule category %q", rule.Category)
		}
		seen[rule.Category] = true

		weight, ok := weights[rule.Category]
		if !ok {
			return nil, fmt.Errorf("risk scorer: no weight for category %q", rule.Category)
		}
		if weight < 0 {
			return nil, fmt.Errorf("risk scorer: negative weight for category %q", rule.Category)
		}
		sum += weight
	}
	for category := range weights {
		if !seen[category] {
			return nil, fmt.Errorf("risk scorer: weight for unknown category %q", category)
		}
	}
	if math.Abs(sum-1.0) > weightSumEpsilon {
		return nil, fmt.Errorf("risk scorer: category weights sum to %.6f, want 1.0", sum)
	}

	if bands.Medium <= 0 || bands.High <= bands.Medium {
		return nil, fmt.Errorf("risk scorer: band boundaries must increase, got medium=%.1f high=%.1f",
			bands.Medium, bands.High)
	}

	return &Scorer{
		weights: weights,
		bands:   bands,
		rules:   rules,
		vague:   DefaultVaguePatterns(),
	}, nil
}

// Score evaluates the contract clauses against every category's rules and
// blends in generator-reported category scores 50/50 where present. The
// result is deterministic for the same inputs and always lands in [0,100].
func (s *Scorer) Score(clauses []models.Clause, generatorScores map[string]float64) Assessment {
	categoryScores := make(map[string]float64, len(s.rules))
	var findings []Finding
	rulesOnly := true

	overall := 0.0
	for _, rule := range s.rules {
		ruleScore, fired := s.ruleScore(rule, clauses)
		findings = append(findings, fired...)

		sub := ruleScore
		if gen, ok := generatorScores[rule.Category]; ok {
			sub = 0.5*ruleScore + 0.5*clamp(gen, 0, maxCategoryScore)
			rulesOnly = false
		}
		categoryScores[rule.Category] = sub
		overall += s.weights[rule.Category] * sub
	}

	overall = clamp(overall, 0, 100)
	return Assessment{
		OverallScore:   overall,
		Level:          s.bands.Level(overall),
		CategoryScores: categoryScores,
		RulesOnly:      rulesOnly,
		Findings:       findings,
	}
}

// ruleScore applies the three fixed penalties for one category.
func (s *Scorer) ruleScore(rule CategoryRules, clauses []models.Clause) (float64, []Finding) {
	matched := clausesInCategory(rule, clauses)
	if len(matched) == 0 {
		return PenaltyMissingClause, []Finding{{
			Category: rule.Category,
			Kind:     FindingMissingClause,
			Detail:   fmt.Sprintf("no clause covers %s", rule.Category),
		}}
	}

	score := 0.0
	var findings []Finding
	if clause, pattern := firstPatternHit(matched, rule.Illegal); pattern != nil {
		score += PenaltyIllegalPattern
		findings = append(findings, Finding{
			Category: rule.Category,
			Kind:     FindingIllegalPattern,
			ClauseID: clause.ID,
			Detail:   pattern.String(),
		})
	}
	if clause, pattern := firstPatternHit(matched, s.vague); pattern != nil {
		score += PenaltyVagueWording
		findings = append(findings, Finding{
			Category: rule.Category,
			Kind:     FindingVagueWording,
			ClauseID: clause.ID,
			Detail:   pattern.String(),
		})
	}
	if score > maxCategoryScore {
		score = maxCategoryScore
	}
	return score, findings
}

// clausesInCategory returns the clauses whose text mentions any of the
// category's keywords.
func clausesInCategory(rule CategoryRules, clauses []models.Clause) []models.Clause {
	var matched []models.Clause
	for _, clause := range clauses {
		text := strings.ToLower(clause.Title + "\n" + clause.Body)
		for _, keyword := range rule.Keywords {
			if strings.Contains(text, keyword) {
				matched = append(matched, clause)
				break
			}
		}
	}
	return matched
}

// firstPatternHit scans clauses in document order and returns the first
// clause and pattern that match.
func firstPatternHit(clauses []models.Clause, patterns []*regexp.Regexp) (models.Clause, *regexp.Regexp) {
	for _, clause := range clauses {
		text := clause.Title + "\n" + clause.Body
		for _, pattern := range patterns {
			if pattern.MatchString(text) {
				return clause, pattern
			}
		}
	}
	return models.Clause{}, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
