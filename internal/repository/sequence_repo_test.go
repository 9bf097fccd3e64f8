package repository

import (
	"regexp"
	"testing"
)

func TestCodePattern(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"PR-2025-000013", true},
		{"PR-2025-1000", true},
		{"PR-2025-000003-R", false},
		{"PR-2025-LEGACY", false},
		{"PR-2025-", false},
		{"XPR-2025-000001", false},
		{"PR-2024-000001", false},
	}
	re := regexp.MustCompile(CodePattern("PR-2025-"))
	for _, tt := range tests {
		if got := re.MatchString(tt.code); got != tt.want {
			t.Errorf("CodePattern match %q = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestCodePatternQuotesPrefix(t *testing.T) {
	re := regexp.MustCompile(CodePattern("A.B-2025-"))
	if re.MatchString("AXB-2025-001") {
		t.Error("Expected the prefix to match literally")
	}
	if !re.MatchString("A.B-2025-001") {
		t.Error("Expected A.B-2025-001 to match")
	}
}
