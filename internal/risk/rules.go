// ABOUTME: Default category rules for labor-contract risk scoring
// ABOUTME: Keywords place clauses into categories; regexps flag illegal and vague phrasing
package risk

import "regexp"

// Risk categories scored for every contract.
const (
	CategoryWorkingHours         = "working_hours"
	CategoryWage                 = "wage"
	CategoryProbationTermination = "probation_termination"
	CategoryIP                   = "ip"
)

// Categories returns the fixed scoring categories in weight-table order.
func Categories() []string {
	return []string{
		CategoryWorkingHours,
		CategoryWage,
		CategoryProbationTermination,
		CategoryIP,
	}
}

// DefaultWeights returns the standard category weighting. Weights must sum
// to 1.0; NewScorer validates that.
func DefaultWeights() map[string]float64 {
	return map[string]float64{
		CategoryWorkingHours:         0.25,
		CategoryWage:                 0.30,
		CategoryProbationTermination: 0.25,
		CategoryIP:                   0.20,
	}
}

// CategoryRules describes how clauses are matched to one risk category.
// A clause belongs to the category when its text contains any keyword.
type CategoryRules struct {
	Category string
	Keywords []string
	Illegal  []*regexp.Regexp
}

// DefaultRules returns the built-in category rule set.
func DefaultRules() []CategoryRules {
	return []CategoryRules{
		{
			Category: CategoryWorkingHours,
			Keywords: []string{
				"working hours", "work hours", "hours of work",
				"overtime", "rest period", "rest break",
			},
			Illegal: []*regexp.Regexp{
				regexp.MustCompile(`(?i)unlimited\s+overtime`),
				regexp.MustCompile(`(?i)no\s+(?:additional|extra)\s+pay\s+for\s+overtime`),
				regexp.MustCompile(`(?i)waives?\s+(?:\w+\s+){0,4}overtime`),
			},
		},
		{
			Category: CategoryWage,
			Keywords: []string{
				"wage", "wages", "salary", "pay", "remuneration", "compensation",
			},
			Illegal: []*regexp.Regexp{
				regexp.MustCompile(`(?i)below\s+(?:the\s+)?(?:statutory\s+)?minimum\s+wage`),
				regexp.MustCompile(`(?i)wages?\s+may\s+be\s+withheld`),
				regexp.MustCompile(`(?i)in\s+lieu\s+of\s+wages`),
			},
		},
		{
			Category: CategoryProbationTermination,
			Keywords: []string{
				"probation", "probationary", "termination", "terminate",
				"dismissal", "severance", "notice period",
			},
			Illegal: []*regexp.Regexp{
				regexp.MustCompile(`(?i)terminat(?:e|ed|ion)\s+at\s+any\s+time\s+without\s+(?:notice|cause)`),
				regexp.MustCompile(`(?i)no\s+severance`),
				regexp.MustCompile(`(?i)waives?\s+(?:\w+\s+){0,4}notice`),
			},
		},
		{
			Category: CategoryIP,
			Keywords: []string{
				"intellectual property", "invention", "inventions",
				"copyright", "work product", "confidential",
			},
			Illegal: []*regexp.Regexp{
				regexp.MustCompile(`(?i)(?:prior|pre-existing)\s+(?:works?|inventions?)\s+(?:\w+\s+){0,4}assign`),
				regexp.MustCompile(`(?i)moral\s+rights\s+(?:\w+\s+){0,4}waiv`),
				regexp.MustCompile(`(?i)perpetual\s+assignment\s+of\s+all`),
			},
		},
	}
}

// DefaultVaguePatterns flags wording too open-ended to enforce. Applied to
// clauses already matched to a category.
func DefaultVaguePatterns() []*regexp.Regexp {
	return []*regexp.Regexp{
		regexp.MustCompile(`(?i)as\s+(?:deemed\s+)?appropriate`),
		regexp.MustCompile(`(?i)reasonable\s+discretion`),
		regexp.MustCompile(`(?i)to\s+be\s+(?:determined|decided)`),
		regexp.MustCompile(`(?i)determined\s+separately`),
		regexp.MustCompile(`(?i)separately\s+(?:determined|agreed)`),
		regexp.MustCompile(`(?i)from\s+time\s+to\s+time`),
		regexp.MustCompile(`(?i)subject\s+to\s+change\s+without\s+notice`),
		regexp.MustCompile(`(?i)at\s+the\s+(?:company|employer)'?s?\s+(?:sole\s+)?discretion`),
	}
}
