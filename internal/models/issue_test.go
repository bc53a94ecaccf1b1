// ABOUTME: Tests for issue severity parsing
// ABOUTME: Generator output uses free-form strings that must normalize safely
package models

import "testing"

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Severity
		ok    bool
	}{
		{
			name:  "low",
			input: "low",
			want:  SeverityLow,
			ok:    true,
		},
		{
			name:  "medium",
			input: "medium",
			want:  SeverityMedium,
			ok:    true,
		},
		{
			name:  "high",
			input: "high",
			want:  SeverityHigh,
			ok:    true,
		},
		{
			name:  "uppercase normalizes",
			input: "HIGH",
			want:  SeverityHigh,
			ok:    true,
		},
		{
			name:  "padded input normalizes",
			input: " Medium ",
			want:  SeverityMedium,
			ok:    true,
		},
		{
			name:  "empty rejected",
			input: "",
			ok:    false,
		},
		{
			name:  "unknown grade rejected",
			input: "critical",
			ok:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseSeverity(tt.input)
			if ok != tt.ok {
				t.Fatalf("ParseSeverity(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("ParseSeverity(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
