// ABOUTME: CLI command to run a full risk analysis of a contract
// ABOUTME: Prints the scored report with per-category breakdown and issues
package commands

import (
	"encoding/json"
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"clauselens/internal/models"
)

var (
	analyzeSituation string
	analyzeArticle   int
)

// NewAnalyzeCmd creates analyze command
func NewAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <contract-id>",
		Short: "Run a risk analysis of an ingested contract",
		Long: `Analyze an ingested contract and produce a risk report.

Every clause is scored against category rules; when a generator is
configured its assessment is blended in. Describe your situation with
--situation to steer retrieval, or boost one article with --article.

Examples:
  clauselens analyze contract_abc123
  clauselens analyze --situation "I am asked to work weekends unpaid" contract_abc123
  clauselens analyze --article 3 contract_abc123`,
		Args: cobra.ExactArgs(1),
		RunE: runAnalyze,
	}

	cmd.Flags().StringVar(&analyzeSituation, "situation", "", "Describe your situation to steer retrieval")
	cmd.Flags().IntVar(&analyzeArticle, "article", 0, "Boost one article number during retrieval")

	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	// Load .env for API keys
	_ = godotenv.Load()

	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.analyzer.Analyze(ctx, args[0], analyzeSituation, analyzeArticle)
	if err != nil {
		return fmt.Errorf("analyzing contract: %w", err)
	}

	// Format output
	if outputFormat == "json" {
		jsonData, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n", jsonData)
		return nil
	}

	printReport(cmd, report)
	return nil
}

// printReport renders a report for terminal reading.
func printReport(cmd *cobra.Command, report *models.AnalysisReport) {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Report %s\n", report.ID)
	fmt.Fprintf(out, "Overall risk: %.0f/100 (%s)\n\n", report.OverallScore, report.RiskLevel)

	// Category scores, highest risk first
	categories := make([]string, 0, len(report.CategoryScores))
	for name := range report.CategoryScores {
		categories = append(categories, name)
	}
	sort.Slice(categories, func(i, j int) bool {
		si, sj := report.CategoryScores[categories[i]], report.CategoryScores[categories[j]]
		if si != sj {
			return si > sj
		}
		return categories[i] < categories[j]
	})

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "CATEGORY\tSCORE\n")
	fmt.Fprintf(w, "--------\t-----\n")
	for _, name := range categories {
		fmt.Fprintf(w, "%s\t%.0f\n", name, report.CategoryScores[name])
	}
	w.Flush()

	if len(report.Issues) > 0 {
		fmt.Fprintf(out, "\nIssues:\n")
		for i, issue := range report.Issues {
			fmt.Fprintf(out, "%d. [%s/%s] %s\n", i+1, issue.Category, issue.Severity, issue.Explanation)
			if issue.OriginalText != "" {
				fmt.Fprintf(out, "   \"%s\"\n", truncate(issue.OriginalText, 100))
			}
			if issue.Suggestion != "" {
				fmt.Fprintf(out, "   Suggestion: %s\n", issue.Suggestion)
			}
		}
	}

	if len(report.Unmatched) > 0 {
		fmt.Fprintf(out, "\nFindings without a matching clause:\n")
		for _, issue := range report.Unmatched {
			fmt.Fprintf(out, "- [%s] %s\n", issue.Category, issue.Explanation)
		}
	}

	if report.Answer != "" {
		fmt.Fprintf(out, "\nSummary:\n%s\n", report.Answer)
	}

	if !quiet {
		if report.Flags.RulesOnly {
			fmt.Fprintf(out, "\nNote: no generator was used, scoring is rule-based only\n")
		}
		if report.Flags.ReducedConfidence {
			fmt.Fprintf(out, "\nNote: the generator reply could not be used, confidence is reduced\n")
		}
		if report.Flags.DegradedRetrieval {
			fmt.Fprintf(out, "\nNote: some retrieval sources were unavailable during analysis\n")
		}
	}
}
