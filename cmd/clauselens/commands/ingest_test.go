// ABOUTME: Tests for ingest command structure
// ABOUTME: Verifies flags and argument handling for contract ingestion

package commands

import (
	"strings"
	"testing"
)

func TestNewIngestCmd(t *testing.T) {
	cmd := NewIngestCmd()

	if cmd.Use != "ingest [file]" {
		t.Errorf("Use = %q, want %q", cmd.Use, "ingest [file]")
	}

	if cmd.Short == "" {
		t.Error("Short description should not be empty")
	}

	if cmd.Long == "" {
		t.Error("Long description should not be empty")
	}
}

func TestIngestCmd_Flags(t *testing.T) {
	cmd := NewIngestCmd()

	tests := []struct {
		flagName string
		defValue string
	}{
		{"title", ""},
		{"id", ""},
	}

	for _, tt := range tests {
		t.Run(tt.flagName, func(t *testing.T) {
			flag := cmd.Flags().Lookup(tt.flagName)
			if flag == nil {
				t.Fatalf("--%s flag not found", tt.flagName)
			}
			if flag.DefValue != tt.defValue {
				t.Errorf("--%s default = %q, want %q", tt.flagName, flag.DefValue, tt.defValue)
			}
		})
	}
}

func TestIngestCmd_ArgsValidation(t *testing.T) {
	cmd := NewIngestCmd()

	// Args should allow 0 or 1 arguments
	if cmd.Args == nil {
		t.Fatal("Args validator should be set")
	}

	if err := cmd.Args(cmd, []string{}); err != nil {
		t.Errorf("Zero args should be accepted (stdin), got error: %v", err)
	}
	if err := cmd.Args(cmd, []string{"contract.txt"}); err != nil {
		t.Errorf("One arg should be accepted, got error: %v", err)
	}
	if err := cmd.Args(cmd, []string{"a.txt", "b.txt"}); err == nil {
		t.Error("Two args should be rejected")
	}
}

func TestIngestCmd_Examples(t *testing.T) {
	cmd := NewIngestCmd()

	// Should mention the replace-by-id flow
	if !strings.Contains(cmd.Long, "--id") {
		t.Error("Long description should mention --id flag")
	}

	// Should mention stdin usage
	if !strings.Contains(cmd.Long, "stdin") {
		t.Error("Long description should mention stdin")
	}
}
