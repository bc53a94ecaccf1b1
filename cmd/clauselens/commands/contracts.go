// ABOUTME: CLI command to list ingested contracts
// ABOUTME: Shows stored contracts with clause counts and ingestion times
package commands

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// NewContractsCmd creates contracts command
func NewContractsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contracts",
		Short: "List ingested contracts",
		Long: `List contracts stored in the document store.

Examples:
  clauselens contracts
  clauselens contracts --format json`,
		RunE: runContracts,
	}

	return cmd
}

func runContracts(cmd *cobra.Command, args []string) error {
	// Load .env for API keys
	_ = godotenv.Load()

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	docs, err := a.store.ListContracts()
	if err != nil {
		return fmt.Errorf("listing contracts: %w", err)
	}

	if len(docs) == 0 {
		if !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "No contracts found\n")
		}
		return nil
	}

	// Format output
	if outputFormat == "json" {
		jsonData, err := json.MarshalIndent(docs, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n", jsonData)
	} else {
		// Table format
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "TITLE\tCLAUSES\tINGESTED\tID\n")
		fmt.Fprintf(w, "-----\t-------\t--------\t--\n")

		for _, doc := range docs {
			title := doc.Title
			if title == "" {
				title = "(untitled)"
			}

			fmt.Fprintf(w, "%s\t%d\t%s\t%s\n",
				truncate(title, 30),
				doc.ClauseCount,
				formatTime(doc.IngestedAt),
				doc.ID)
		}
		w.Flush()

		if !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "\nTotal: %d contract(s)\n", len(docs))
		}
	}

	return nil
}
