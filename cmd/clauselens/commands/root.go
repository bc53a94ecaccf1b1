// ABOUTME: Root CLI command with global flags and subcommand registration
// ABOUTME: Owns the verbose/quiet/format flags shared by all commands
package commands

import (
	"github.com/spf13/cobra"
)

// Global flags shared by all subcommands
var (
	verbose      bool
	quiet        bool
	outputFormat string
)

const banner = `
 ██████╗██╗      █████╗ ██╗   ██╗███████╗███████╗
██╔════╝██║     ██╔══██╗██║   ██║██╔════╝██╔════╝
██║     ██║     ███████║██║   ██║███████╗█████╗
██║     ██║     ██╔══██║██║   ██║╚════██║██╔══╝
╚██████╗███████╗██║  ██║╚██████╔╝███████║███████╗
 ╚═════╝╚══════╝╚═╝  ╚═╝ ╚═════╝ ╚══════╝╚══════╝
`

// NewRootCmd creates the root command with all subcommands attached
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clauselens",
		Short: "Analyze employment contracts against statutes and precedent",
		Long: banner + `
ClauseLens splits employment contracts into clauses, grounds them
against a reference corpus of statutes, guides, precedents and
templates, and scores the risk each clause carries for the employee.

Contracts and analysis reports persist in Charm KV; the reference
corpus lives in a pgvector index when DATABASE_URL is set.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-essential output")
	cmd.PersistentFlags().StringVar(&outputFormat, "format", "auto", "Output format (auto, json)")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	cmd.AddCommand(
		NewIngestCmd(),
		NewContractsCmd(),
		NewCorpusCmd(),
		NewAskCmd(),
		NewExplainCmd(),
		NewAnalyzeCmd(),
		NewReportCmd(),
		NewMCPCmd(),
		NewVersionCmd(),
	)

	return cmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}
