package model

import "testing"

func TestFormatCode(t *testing.T) {
	pr, _ := LookupForm("purchase_request")
	mrf, _ := LookupForm("maintenance_request")

	tests := []struct {
		form FormType
		seq  int64
		want string
	}{
		{pr, 1, "PR-2025-000001"},
		{pr, 13, "PR-2025-000013"},
		{pr, 1234567, "PR-2025-1234567"},
		{mrf, 1, "MRF-2025-001"},
		{mrf, 1000, "MRF-2025-1000"},
	}
	for _, tt := range tests {
		if got := tt.form.FormatCode(2025, tt.seq); got != tt.want {
			t.Errorf("FormatCode(%s, %d) = %s, want %s", tt.form.Key, tt.seq, got, tt.want)
		}
	}
}

func TestLookupForm(t *testing.T) {
	if _, ok := LookupForm("purchase_request"); !ok {
		t.Error("Expected purchase_request to be registered")
	}
	if _, ok := LookupForm("purchase_requests"); ok {
		t.Error("Expected table name not to resolve as a form key")
	}

	seenKeys := map[string]bool{}
	seenPrefixes := map[string]bool{}
	for _, f := range FormTypes() {
		if seenKeys[f.Key] || seenPrefixes[f.Prefix] {
			t.Errorf("Duplicate form key or prefix: %s/%s", f.Key, f.Prefix)
		}
		seenKeys[f.Key] = true
		seenPrefixes[f.Prefix] = true
		if f.HeaderTable == "" || f.ItemTable == "" || len(f.ItemFields) == 0 {
			t.Errorf("Form %s is missing tables or item fields", f.Key)
		}
	}
}

func TestPurchaseRequestTransitions(t *testing.T) {
	pr, _ := LookupForm("purchase_request")

	allowed := [][2]string{
		{StatusDraft, StatusPending},
		{StatusPending, StatusApproved},
		{StatusPending, StatusDeclined},
		{StatusApproved, StatusReceived},
		{StatusReceived, StatusCompleted},
	}
	for _, a := range allowed {
		if _, ok := pr.FindTransition(a[0], a[1]); !ok {
			t.Errorf("Expected %s -> %s to be allowed", a[0], a[1])
		}
	}

	rejected := [][2]string{
		{StatusPending, StatusCompleted},
		{StatusPending, StatusReceived},
		{StatusDeclined, StatusApproved},
		{StatusCompleted, StatusPending},
		{StatusApproved, StatusDeclined},
	}
	for _, r := range rejected {
		if _, ok := pr.FindTransition(r[0], r[1]); ok {
			t.Errorf("Expected %s -> %s to be rejected", r[0], r[1])
		}
	}
}

func TestTransitionRequirements(t *testing.T) {
	pr, _ := LookupForm("purchase_request")
	decline, _ := pr.FindTransition(StatusPending, StatusDeclined)
	if len(decline.Requires) != 1 || decline.Requires[0] != FieldDeclinedReason {
		t.Errorf("Expected decline to require a reason, got %v", decline.Requires)
	}

	approve, _ := pr.FindTransition(StatusPending, StatusApproved)
	if approve.AllowsRole(RoleEmployee) {
		t.Error("Expected employees not to approve")
	}
	if !approve.AllowsRole(RoleApprover) || !approve.AllowsRole(RoleAdmin) {
		t.Error("Expected approvers and admins to approve")
	}

	ca, _ := LookupForm("cash_advance")
	complete, _ := ca.FindTransition(StatusReceived, StatusCompleted)
	if len(complete.Requires) != 1 || complete.Requires[0] != FieldCheckNumber {
		t.Errorf("Expected cash advance completion to require a check number, got %v", complete.Requires)
	}
}

func TestOvertimeUsesEndorsed(t *testing.T) {
	ot, _ := LookupForm("overtime_request")
	if !ot.HasStatus(StatusEndorsed) || ot.HasStatus(StatusApproved) {
		t.Errorf("Expected overtime statuses to use Endorsed, got %v", ot.Statuses())
	}
	if _, ok := ot.FindTransition(StatusPending, StatusEndorsed); !ok {
		t.Error("Expected Pending -> Endorsed")
	}
}

func TestStatusBucket(t *testing.T) {
	tests := map[string]string{
		StatusPending:     BucketPending,
		StatusForReview:   BucketPending,
		StatusForApproval: BucketPending,
		StatusApproved:    BucketApproved,
		StatusEndorsed:    BucketApproved,
		StatusDeclined:    BucketDeclined,
		StatusRejected:    BucketDeclined,
		StatusCompleted:   BucketOther,
		"":                BucketOther,
		"pending":         BucketOther,
	}
	for status, want := range tests {
		if got := StatusBucket(status); got != want {
			t.Errorf("StatusBucket(%q) = %s, want %s", status, got, want)
		}
	}
}
