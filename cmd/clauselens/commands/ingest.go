// ABOUTME: CLI command to ingest an employment contract
// ABOUTME: Reads text from a file or stdin, chunks it and indexes the clauses
package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	ingestTitle string
	ingestID    string
)

// NewIngestCmd creates ingest command
func NewIngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest [file]",
		Short: "Ingest a contract for analysis",
		Long: `Ingest an employment contract from a file or stdin.

The contract is split into clauses, embedded, and indexed for
retrieval. Pass --id to replace a previously ingested contract.

Examples:
  clauselens ingest contract.txt
  clauselens ingest --title "Offer from Acme" contract.txt
  cat contract.txt | clauselens ingest
  clauselens ingest --id contract_abc123 revised.txt`,
		Args: cobra.MaximumNArgs(1),
		RunE: runIngest,
	}

	cmd.Flags().StringVar(&ingestTitle, "title", "", "Display title for the contract")
	cmd.Flags().StringVar(&ingestID, "id", "", "Contract id to replace (omit to create)")

	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	// Load .env for API keys
	_ = godotenv.Load()

	// Get contract text
	var text string
	if len(args) > 0 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading file: %w", err)
		}
		text = string(data)
		if ingestTitle == "" {
			ingestTitle = args[0]
		}
	} else {
		// Read from stdin
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		text = string(data)
	}

	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	doc, clauses, err := a.analyzer.IngestContract(ctx, ingestID, ingestTitle, text)
	if err != nil {
		return fmt.Errorf("ingesting contract: %w", err)
	}

	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Ingested contract %s (%d clauses, %d chunks)\n",
			doc.ID, doc.ClauseCount, doc.ChunkCount)
		if verbose {
			for _, cl := range clauses {
				fmt.Fprintf(cmd.OutOrStdout(), "  Article %d: %s\n", cl.ArticleNumber, cl.Title)
			}
		}
	}
	return nil
}
