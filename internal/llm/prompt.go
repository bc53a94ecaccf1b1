// ABOUTME: Prompt assembly from grounding bundles with per-source provenance lines
// ABOUTME: Prompts are capped using the rough four-characters-per-token estimate
package llm

import (
	"fmt"
	"strings"

	"clauselens/internal/models"
	"clauselens/internal/risk"
)

const (
	// DefaultMaxPromptTokens caps the assembled user prompt.
	DefaultMaxPromptTokens = 6000
	charsPerToken          = 4
)

const answerSystemPrompt = `You are a legal assistant specializing in employment contracts. Answer the question using only the provided contract clauses and reference materials. Cite article numbers where available. If the materials do not contain the answer, say so plainly instead of guessing.`

const explainSystemPrompt = `You are a legal assistant specializing in employment contracts. Explain each listed clause in plain language for a non-lawyer. Point out where a clause deviates from the cited reference materials. Only discuss clauses that are listed.`

// PromptBuilder assembles system and user prompt pairs from retrieval output.
type PromptBuilder struct {
	maxTokens int
}

// NewPromptBuilder returns a builder with the given token budget. A budget
// of zero or less falls back to DefaultMaxPromptTokens.
func NewPromptBuilder(maxTokens int) *PromptBuilder {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxPromptTokens
	}
	return &PromptBuilder{maxTokens: maxTokens}
}

// BuildAnswer assembles the prompt pair for a grounded question.
func (pb *PromptBuilder) BuildAnswer(bundle *models.GroundingBundle) (string, string) {
	build := func(nContract, nCorpus int) string {
		var sections []string
		if nContract > 0 {
			sections = append(sections, "CONTRACT CLAUSES:\n"+formatContractResults(bundle.ContractResults[:nContract]))
		}
		if nCorpus > 0 {
			sections = append(sections, "REFERENCE MATERIALS:\n"+formatCorpusResults(bundle.CorpusResults[:nCorpus]))
		}
		if bundle.Degraded {
			sections = append(sections, "NOTE:\nSome retrieval sources were unavailable. Grounding may be incomplete.")
		}
		sections = append(sections, "QUESTION:\n"+bundle.Query)
		return strings.Join(sections, "\n\n")
	}
	return answerSystemPrompt, pb.fit(build, len(bundle.ContractResults), len(bundle.CorpusResults))
}

// BuildExplain assembles the prompt pair for a whole-contract explanation.
// The clause list is never trimmed; only reference materials are dropped
// when the prompt runs over budget.
func (pb *PromptBuilder) BuildExplain(clauses []models.Clause, bundle *models.GroundingBundle) (string, string) {
	corpus := bundleCorpus(bundle)
	build := func(_, nCorpus int) string {
		sections := []string{"CONTRACT CLAUSES:\n" + formatClauses(clauses)}
		if nCorpus > 0 {
			sections = append(sections, "REFERENCE MATERIALS:\n"+formatCorpusResults(corpus[:nCorpus]))
		}
		sections = append(sections, "TASK:\nExplain each clause above in plain language.")
		return strings.Join(sections, "\n\n")
	}
	return explainSystemPrompt, pb.fit(build, 0, len(corpus))
}

// BuildAnalyze assembles the prompt pair for a structured risk analysis.
// The system prompt pins the JSON shape the payload parser expects.
func (pb *PromptBuilder) BuildAnalyze(clauses []models.Clause, bundle *models.GroundingBundle) (string, string) {
	corpus := bundleCorpus(bundle)
	build := func(_, nCorpus int) string {
		sections := []string{"CONTRACT CLAUSES:\n" + formatClauses(clauses)}
		if nCorpus > 0 {
			sections = append(sections, "REFERENCE MATERIALS:\n"+formatCorpusResults(corpus[:nCorpus]))
		}
		sections = append(sections, "TASK:\nAnalyze the contract above for legal risks and respond with the JSON object described in the instructions.")
		return strings.Join(sections, "\n\n")
	}
	return analyzeSystemPrompt(), pb.fit(build, 0, len(corpus))
}

// fit rebuilds the prompt with fewer retrieval results until it is under the
// token budget, dropping corpus references before contract results. Whatever
// still exceeds the budget after that is cut outright.
func (pb *PromptBuilder) fit(build func(nContract, nCorpus int) string, nContract, nCorpus int) string {
	maxChars := pb.maxTokens * charsPerToken
	prompt := build(nContract, nCorpus)
	for len(prompt) > maxChars {
		switch {
		case nCorpus > 0:
			nCorpus--
		case nContract > 0:
			nContract--
		default:
			return prompt[:maxChars] + "... [truncated]"
		}
		prompt = build(nContract, nCorpus)
	}
	return prompt
}

func analyzeSystemPrompt() string {
	scoreKeys := make([]string, 0, len(risk.Categories()))
	for _, c := range risk.Categories() {
		scoreKeys = append(scoreKeys, fmt.Sprintf("%q: <0-100>", c))
	}
	return fmt.Sprintf(`You are a legal risk analyst for employment contracts. Respond with a single JSON object and nothing else: no markdown fences, no commentary. The object must have this shape:
{
  "summary": "<short plain-language summary>",
  "overall_risk": <0-100>,
  "category_scores": {%s},
  "issues": [
    {
      "clause_id": "<id from the CONTRACT CLAUSES list>",
      "category": "<one of: %s>",
      "severity": "<low, medium or high>",
      "explanation": "<what is risky and why>",
      "suggestion": "<how to fix it>"
    }
  ]
}
Only reference clause ids that appear in the CONTRACT CLAUSES list. Base scores on the reference materials where they apply.`,
		strings.Join(scoreKeys, ", "), strings.Join(risk.Categories(), ", "))
}

func formatContractResults(results []models.SearchResult) string {
	var sb strings.Builder
	for i, r := range results {
		sb.WriteString(fmt.Sprintf("[%d]", i+1))
		if r.ArticleNumber > 0 {
			sb.WriteString(fmt.Sprintf(" Article %d", r.ArticleNumber))
		}
		if r.Title != "" {
			sb.WriteString(": " + r.Title)
		}
		sb.WriteString(fmt.Sprintf(" (relevance %.2f)\n", r.Score))
		sb.WriteString(r.Content)
		sb.WriteString("\n\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatCorpusResults(results []models.SearchResult) string {
	var sb strings.Builder
	for i, r := range results {
		title := r.Title
		if title == "" {
			title = r.DocumentID
		}
		sb.WriteString(fmt.Sprintf("[%d] %s: %s (relevance %.2f)\n", i+1, r.SourceType, title, r.Score))
		sb.WriteString(r.Content)
		sb.WriteString("\n\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatClauses(clauses []models.Clause) string {
	var sb strings.Builder
	for _, c := range clauses {
		sb.WriteString("[" + c.ID + "]")
		if c.ArticleNumber > 0 {
			sb.WriteString(fmt.Sprintf(" Article %d", c.ArticleNumber))
		}
		if c.Title != "" {
			sb.WriteString(": " + c.Title)
		}
		sb.WriteString("\n")
		sb.WriteString(c.Body)
		sb.WriteString("\n\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func bundleCorpus(bundle *models.GroundingBundle) []models.SearchResult {
	if bundle == nil {
		return nil
	}
	return bundle.CorpusResults
}
