package service

import (
	"context"
	"testing"
	"time"
)

func fixedClock() func() time.Time {
	return func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) }
}

func TestPreviewFirstCodeOfYear(t *testing.T) {
	seq := NewCodeSequencer(&fakeSequenceRepo{}, fixedClock())

	code, err := seq.Preview(context.Background(), mustForm("purchase_request"))
	if err != nil {
		t.Fatalf("Preview failed: %v", err)
	}
	if code != "PR-2025-000001" {
		t.Errorf("Expected PR-2025-000001, got %s", code)
	}

	code, _ = seq.Preview(context.Background(), mustForm("maintenance_request"))
	if code != "MRF-2025-001" {
		t.Errorf("Expected MRF-2025-001, got %s", code)
	}
}

func TestPreviewIsIdempotent(t *testing.T) {
	repo := &fakeSequenceRepo{codes: []string{"PR-2025-000012"}}
	seq := NewCodeSequencer(repo, fixedClock())
	form := mustForm("purchase_request")

	first, _ := seq.Preview(context.Background(), form)
	second, _ := seq.Preview(context.Background(), form)
	if first != "PR-2025-000013" || second != first {
		t.Errorf("Expected PR-2025-000013 twice, got %s and %s", first, second)
	}
	if len(repo.locked) != 0 {
		t.Errorf("Expected preview not to lock, got %v", repo.locked)
	}
}

func TestIssueLocksPrefix(t *testing.T) {
	repo := &fakeSequenceRepo{codes: []string{"CA-2025-000099"}}
	seq := NewCodeSequencer(repo, fixedClock())

	code, err := seq.Issue(context.Background(), mustForm("cash_advance"))
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if code != "CA-2025-000100" {
		t.Errorf("Expected CA-2025-000100, got %s", code)
	}
	if len(repo.locked) != 1 || repo.locked[0] != "CA-2025-" {
		t.Errorf("Expected a lock on CA-2025-, got %v", repo.locked)
	}
}

func TestSequenceIgnoresOtherYears(t *testing.T) {
	repo := &fakeSequenceRepo{codes: []string{"PR-2024-000450"}}
	seq := NewCodeSequencer(repo, fixedClock())

	code, _ := seq.Preview(context.Background(), mustForm("purchase_request"))
	if code != "PR-2025-000001" {
		t.Errorf("Expected the sequence to restart each year, got %s", code)
	}
}

func TestSequenceGrowsPastWidth(t *testing.T) {
	repo := &fakeSequenceRepo{codes: []string{"MRF-2025-999", "MRF-2025-1000"}}
	seq := NewCodeSequencer(repo, fixedClock())

	code, _ := seq.Preview(context.Background(), mustForm("maintenance_request"))
	if code != "MRF-2025-1001" {
		t.Errorf("Expected MRF-2025-1001, got %s", code)
	}
}

func TestParseSequence(t *testing.T) {
	tests := []struct {
		code string
		want int64
	}{
		{"PR-2025-000013", 13},
		{"PR-2025-", 0},
		{"PR-2025-abc", 0},
		{"PR-2025-12x", 0},
		{"PR-2025--5", 0},
		{"CA-2025-000013", 0},
		{"", 0},
	}
	for _, tt := range tests {
		if got := parseSequence(tt.code, "PR-2025-"); got != tt.want {
			t.Errorf("parseSequence(%q) = %d, want %d", tt.code, got, tt.want)
		}
	}
}

func TestMalformedCodesDoNotResetSequence(t *testing.T) {
	repo := &fakeSequenceRepo{codes: []string{"PR-2025-000002", "PR-2025-000003", "PR-2025-000003-R", "PR-2025-LEGACY"}}
	seq := NewCodeSequencer(repo, fixedClock())

	code, _ := seq.Preview(context.Background(), mustForm("purchase_request"))
	if code != "PR-2025-000004" {
		t.Errorf("Expected PR-2025-000004, got %s", code)
	}
}

func TestOnlyMalformedCodesStartAtOne(t *testing.T) {
	repo := &fakeSequenceRepo{codes: []string{"PR-2025-LEGACY"}}
	seq := NewCodeSequencer(repo, fixedClock())

	code, _ := seq.Preview(context.Background(), mustForm("purchase_request"))
	if code != "PR-2025-000001" {
		t.Errorf("Expected PR-2025-000001, got %s", code)
	}
}
