// ABOUTME: CLI command to ask a grounded question
// ABOUTME: Retrieves contract and corpus evidence and generates an answer
package commands

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"clauselens/internal/analysis"
	"clauselens/internal/models"
)

var (
	askContract string
	askScope    string
)

// NewAskCmd creates ask command
func NewAskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a question grounded in the corpus and a contract",
		Long: `Ask a question and get an answer grounded in retrieved evidence.

Without --contract the question runs against the reference corpus only.
Pass --contract to also search an ingested contract, and --scope to
restrict the search to one side.

Examples:
  clauselens ask "Can my employer refuse to pay overtime?"
  clauselens ask --scope corpus "What does the law say about probation periods?"
  clauselens ask --contract contract_abc123 "Is the non-compete clause enforceable?"`,
		Args: cobra.ExactArgs(1),
		RunE: runAsk,
	}

	cmd.Flags().StringVar(&askContract, "contract", "", "Contract id to search alongside the corpus")
	cmd.Flags().StringVar(&askScope, "scope", "both", "Search scope (contract, corpus, both)")

	return cmd
}

func runAsk(cmd *cobra.Command, args []string) error {
	// Load .env for API keys
	_ = godotenv.Load()

	scope, ok := parseScope(askScope)
	if !ok {
		return fmt.Errorf("--scope must be contract, corpus or both (got %q)", askScope)
	}

	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	ans, err := a.analyzer.Ask(ctx, args[0], analysis.AskOptions{
		ContractID: askContract,
		Scope:      scope,
	})
	if err != nil {
		return fmt.Errorf("answering question: %w", err)
	}

	// Format output
	if outputFormat == "json" {
		jsonData, err := json.MarshalIndent(ans, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n", jsonData)
		return nil
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s\n", ans.Text)

	if verbose {
		printGrounding(cmd, ans.Bundle)
	}
	if ans.Bundle.Degraded && !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "\nNote: some retrieval sources were unavailable; the answer may be incomplete\n")
	}
	return nil
}

// parseScope normalizes a scope flag value.
func parseScope(s string) (models.Scope, bool) {
	switch models.Scope(s) {
	case models.ScopeContract, models.ScopeCorpus, models.ScopeBoth:
		return models.Scope(s), true
	}
	return "", false
}

// printGrounding renders the evidence table behind an answer.
func printGrounding(cmd *cobra.Command, bundle *models.GroundingBundle) {
	results := bundle.Results()
	if len(results) == 0 {
		return
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\nGrounding:\n")
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "SCORE\tSOURCE\tTITLE\tPREVIEW\n")
	fmt.Fprintf(w, "-----\t------\t-----\t-------\n")

	for _, r := range results {
		title := r.Title
		if title == "" && r.ArticleNumber > 0 {
			title = fmt.Sprintf("Article %d", r.ArticleNumber)
		}
		fmt.Fprintf(w, "%.3f\t%s\t%s\t%s\n",
			r.Score,
			r.SourceType,
			truncate(title, 25),
			truncate(r.Content, 50))
	}
	w.Flush()
}
