// ABOUTME: CLI command to fetch a stored analysis report
// ABOUTME: Prints a previously generated report by id
package commands

import (
	"encoding/json"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// NewReportCmd creates report command
func NewReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report <report-id>",
		Short: "Show a stored analysis report",
		Long: `Show an analysis report produced by a previous analyze run.

Examples:
  clauselens report report_abc123
  clauselens report --format json report_abc123`,
		Args: cobra.ExactArgs(1),
		RunE: runReport,
	}

	return cmd
}

func runReport(cmd *cobra.Command, args []string) error {
	// Load .env for API keys
	_ = godotenv.Load()

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.store.GetReport(args[0])
	if err != nil {
		return fmt.Errorf("fetching report: %w", err)
	}

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
