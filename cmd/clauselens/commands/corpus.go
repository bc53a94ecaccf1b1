// ABOUTME: CLI command to load reference corpus documents
// ABOUTME: Indexes statutes, guides, precedents and templates for grounding
package commands

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"clauselens/internal/models"
)

var (
	corpusType string
)

// NewCorpusCmd creates corpus command
func NewCorpusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "corpus <path>",
		Short: "Load reference documents into the corpus index",
		Long: `Load reference documents into the corpus index.

When path is a directory, documents are loaded recursively and typed
by their top-level directory name (statutes, guides, precedents,
templates). When path is a single file, --type is required.

Examples:
  clauselens corpus ./reference
  clauselens corpus --type statute labor-standards-act.txt
  clauselens corpus --type guide overtime-guidelines.md`,
		Args: cobra.ExactArgs(1),
		RunE: runCorpus,
	}

	cmd.Flags().StringVar(&corpusType, "type", "", "Source type for a single file (statute, guide, precedent, template)")

	return cmd
}

func runCorpus(cmd *cobra.Command, args []string) error {
	// Load .env for API keys
	_ = godotenv.Load()

	path := args[0]
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("inspecting path: %w", err)
	}

	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if info.IsDir() {
		docs, chunks, err := a.analyzer.LoadCorpusDir(ctx, path)
		if err != nil {
			return fmt.Errorf("loading corpus directory: %w", err)
		}
		if !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Indexed %d document(s), %d chunk(s)\n", docs, chunks)
		}
		return nil
	}

	sourceType, ok := models.ParseSourceType(corpusType)
	if !ok || sourceType == models.SourceContract {
		return fmt.Errorf("--type must be one of statute, guide, precedent, template (got %q)", corpusType)
	}

	chunks, err := a.analyzer.LoadCorpusFile(ctx, path, sourceType)
	if err != nil {
		return fmt.Errorf("loading corpus file: %w", err)
	}
	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Indexed %s as %s (%d chunks)\n", path, sourceType, chunks)
	}
	return nil
}
