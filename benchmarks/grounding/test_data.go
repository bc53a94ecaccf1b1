// ABOUTME: Test scenario data for grounding quality benchmarks
// ABOUTME: Defines corpus fixtures, contracts, queries, and expected evidence per scenario

package grounding

import "clauselens/internal/models"

// TestScenario is one complete grounding benchmark: a corpus and contract to
// index, then queries with ground-truth expectations about the evidence that
// retrieval must (and must not) surface.
type TestScenario struct {
	ID          string
	Name        string
	Description string

	// Corpus documents written to disk and loaded through the corpus loader.
	Corpus []CorpusDoc

	// Contract text ingested before queries run. Empty means corpus-only.
	Contract string

	// Per-scenario retrieval overrides. Zero values keep the defaults.
	ContractTopK int
	CorpusTopK   int

	Queries []QueryCase
}

// CorpusDoc is one reference document, placed under its source-type directory.
type CorpusDoc struct {
	Dir     string // statutes, guides, precedents, templates
	Name    string
	Content string
}

// QueryCase is a single retrieval call with its ground truth.
type QueryCase struct {
	Query        string
	Scope        models.Scope
	BoostArticle int

	// BoostMarker identifies the boosted article's chunk by substring. When
	// set, the query also runs without the boost and the marker's rank must
	// not worsen with the boost applied.
	BoostMarker string

	// MinSourceTypes requires at least this many distinct source types among
	// the corpus results. Zero disables the check.
	MinSourceTypes int

	ExpectedContextItems  []string // substrings that MUST appear in retrieved evidence
	ForbiddenContextItems []string // substrings that MUST NOT appear
}

// GetTestGroundingRecall returns the overtime grounding scenario: the
// statute governing overtime premiums and the offending contract clause must
// both be retrieved, and corpus-scoped queries must never leak contract text.
func GetTestGroundingRecall() TestScenario {
	return TestScenario{
		ID:          "grounding_recall",
		Name:        "Overtime Grounding Recall",
		Description: "Retrieval must surface the overtime statute and the offending clause, and keep contract text out of corpus-scoped queries",
		Corpus: []CorpusDoc{
			{
				Dir:  "statutes",
				Name: "labor-standards-act.txt",
				Content: "Article 32 of the Labor Standards Act limits working hours to eight hours " +
					"per day and forty hours per week. Article 37 requires employers to pay an " +
					"overtime premium of at least twenty five percent of the normal wage for work " +
					"beyond statutory working hours. The overtime premium rises to fifty percent " +
					"for work exceeding sixty hours per month.",
			},
			{
				Dir:  "guides",
				Name: "wage-payment.md",
				Content: "# Wage payment rules\n\nWages must be paid in currency, in full, directly " +
					"to the worker, at least once a month on a fixed date. Deductions from wages " +
					"require a written agreement with a majority representative of the workers.",
			},
			{
				Dir:  "templates",
				Name: "model-employment-contract.txt",
				Content: "The term of employment begins on the start date stated in the offer " +
					"letter. Annual paid leave accrues in accordance with statute. Either party " +
					"may terminate with thirty days written notice.",
			},
		},
		Contract: "Article 1 (Working Hours)\n" +
			"Working hours are from 9:00 to 19:00 with a one hour break. The employee shall " +
			"perform overtime work when ordered by the company without additional pay.\n\n" +
			"Article 2 (Wages)\n" +
			"The monthly base wage is 300,000 yen, payable on the 25th day of each month.\n\n" +
			"Article 3 (Confidentiality)\n" +
			"The employee shall not disclose any confidential information of the company " +
			"during employment and for five years thereafter.",
		Queries: []QueryCase{
			{
				Query: "overtime premium pay for work beyond statutory working hours",
				Scope: models.ScopeBoth,
				ExpectedContextItems: []string{
					"overtime premium",        // the governing statute
					"without additional pay",  // the offending contract clause
				},
			},
			{
				Query: "overtime premium pay for work beyond statutory working hours",
				Scope: models.ScopeCorpus,
				ExpectedContextItems: []string{
					"overtime premium",
				},
				ForbiddenContextItems: []string{
					"without additional pay", // contract text must not leak into corpus scope
				},
			},
		},
	}
}

// GetTestArticleBoost returns the boost scenario: boosting an article must
// never worsen its rank, even when the query favors a different article.
func GetTestArticleBoost() TestScenario {
	return TestScenario{
		ID:          "article_boost",
		Name:        "Article Boost Ranking",
		Description: "Boosting the probation article on a working-hours query must keep or improve its rank",
		Contract: "Article 1 (Working Hours)\n" +
			"Working hours are eight hours per day with a one hour break as provided by " +
			"company rules.\n\n" +
			"Article 2 (Wages)\n" +
			"The monthly base wage is 280,000 yen payable on the last day of each month.\n\n" +
			"Article 3 (Probation)\n" +
			"The probation period is six months. During probation the company may dismiss " +
			"the employee at any time without advance notice.\n\n" +
			"Article 4 (Confidentiality)\n" +
			"The employee shall keep all technical and business information of the company " +
			"strictly confidential.",
		Queries: []QueryCase{
			{
				Query:        "working hours per day and breaks",
				Scope:        models.ScopeContract,
				BoostArticle: 3,
				BoostMarker:  "dismiss the employee",
				ExpectedContextItems: []string{
					"dismiss the employee", // boosted article must be in the result set
					"eight hours per day",  // the query's own best match stays present
				},
			},
		},
	}
}

// GetTestTypeDiversity returns the diversity scenario: a top-3 corpus result
// set must still cover statute, guide, and precedent sources even when
// statutes dominate raw similarity.
func GetTestTypeDiversity() TestScenario {
	return TestScenario{
		ID:          "type_diversity",
		Name:        "Corpus Type Diversity",
		Description: "Top corpus results must mix source types instead of filling with near-duplicate statutes",
		CorpusTopK:  3,
		Corpus: []CorpusDoc{
			{
				Dir:  "statutes",
				Name: "overtime-premium.txt",
				Content: "An employer must pay an overtime premium for overtime work. The premium " +
					"for overtime work is twenty five percent of the normal wage and overtime " +
					"compensation is mandatory.",
			},
			{
				Dir:  "statutes",
				Name: "annual-leave.txt",
				Content: "A worker who has been employed continuously for six months and has " +
					"reported for duty on at least eighty percent of scheduled days shall be " +
					"granted ten days of annual paid leave.",
			},
			{
				Dir:  "guides",
				Name: "overtime-agreements.md",
				Content: "# Overtime agreements\n\nBefore ordering overtime work an employer must " +
					"conclude a written agreement with the workers and file it with the labor " +
					"standards office. The agreement caps overtime at forty five hours per month.",
			},
			{
				Dir:  "precedents",
				Name: "fixed-allowance.txt",
				Content: "The court held that a fixed overtime allowance is valid only when the " +
					"portion covering overtime compensation is clearly separated from the base wage.",
			},
		},
		Queries: []QueryCase{
			{
				Query:          "overtime work compensation premium agreement",
				Scope:          models.ScopeCorpus,
				MinSourceTypes: 3,
				ExpectedContextItems: []string{
					"overtime premium",
					"written agreement",
					"fixed overtime allowance",
				},
				ForbiddenContextItems: []string{
					"annual paid leave", // the off-topic statute must be cut
				},
			},
		},
	}
}

// GetAllTests returns all grounding benchmark scenarios.
func GetAllTests() []TestScenario {
	return []TestScenario{
		GetTestGroundingRecall(),
		GetTestArticleBoost(),
		GetTestTypeDiversity(),
	}
}
