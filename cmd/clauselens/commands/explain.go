// ABOUTME: CLI command to explain contract clauses in plain language
// ABOUTME: Grounds the explanation in stored clauses and corpus references
package commands

import (
	"encoding/json"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// NewExplainCmd creates explain command
func NewExplainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "explain <contract-id> <question>",
		Short: "Explain clauses of an ingested contract",
		Long: `Explain what the clauses of an ingested contract mean in practice.

Retrieval selects the clauses most relevant to the question; the
explanation quotes the stored clause text and cites corpus references.

Examples:
  clauselens explain contract_abc123 "What am I agreeing to about overtime?"
  clauselens explain contract_abc123 "Can they fire me during probation?"`,
		Args: cobra.ExactArgs(2),
		RunE: runExplain,
	}

	return cmd
}

func runExplain(cmd *cobra.Command, args []string) error {
	// Load .env for API keys
	_ = godotenv.Load()

	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	ans, err := a.analyzer.Explain(ctx, args[0], args[1])
	if err != nil {
		return fmt.Errorf("explaining contract: %w", err)
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
	return nil
}
