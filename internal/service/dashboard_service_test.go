package service

import (
	"context"
	"testing"
	"time"

	"formsportal/internal/model"
)

type fakeDashboardRepo struct {
	counts      []model.StatusCount
	rows        []model.OutstandingRow
	total       int64
	alerts      int64
	users       int64
	submitters  int64
	submissions int64
	err         error

	gotLimit       int
	gotAlertBefore time.Time
	gotSince       time.Time
}

func (r *fakeDashboardRepo) StatusCounts(ctx context.Context, forms []model.FormType) ([]model.StatusCount, error) {
	return r.counts, r.err
}

func (r *fakeDashboardRepo) Outstanding(ctx context.Context, forms []model.FormType, limit int) ([]model.OutstandingRow, error) {
	r.gotLimit = limit
	if r.err != nil {
		return nil, r.err
	}
	if limit < len(r.rows) {
		return append([]model.OutstandingRow(nil), r.rows[:limit]...), nil
	}
	return append([]model.OutstandingRow(nil), r.rows...), nil
}

func (r *fakeDashboardRepo) CountOutstanding(ctx context.Context, forms []model.FormType, alertBefore time.Time) (int64, int64, error) {
	r.gotAlertBefore = alertBefore
	return r.total, r.alerts, r.err
}

func (r *fakeDashboardRepo) CountUsers(ctx context.Context) (int64, error) {
	return r.users, r.err
}

func (r *fakeDashboardRepo) CountSubmissions(ctx context.Context, forms []model.FormType, since time.Time) (int64, int64, error) {
	r.gotSince = since
	return r.submitters, r.submissions, r.err
}

var dashboardNow = time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

func newDashboard(repo *fakeDashboardRepo) DashboardService {
	return NewDashboardService(repo, model.FormTypes(), nil, func() time.Time { return dashboardNow })
}

func TestWorkloadBuckets(t *testing.T) {
	repo := &fakeDashboardRepo{counts: []model.StatusCount{
		{FormType: "purchase_request", Status: "Pending", Count: 3},
		{FormType: "purchase_request", Status: "For Review", Count: 1},
		{FormType: "purchase_request", Status: "Approved", Count: 2},
		{FormType: "purchase_request", Status: "Completed", Count: 4},
		{FormType: "overtime_request", Status: "Endorsed", Count: 5},
		{FormType: "overtime_request", Status: "Rejected", Count: 1},
		{FormType: "retired_form", Status: "Pending", Count: 9},
	}}

	summary, err := newDashboard(repo).Workload(context.Background())
	if err != nil {
		t.Fatalf("Workload failed: %v", err)
	}
	if len(summary.Forms) != len(model.FormTypes()) {
		t.Fatalf("Expected one entry per form, got %d", len(summary.Forms))
	}

	pr := summary.Forms[0]
	if pr.FormType != "purchase_request" || pr.Pending != 4 || pr.Approved != 2 || pr.Other != 4 || pr.Total != 10 {
		t.Errorf("Unexpected purchase request workload %+v", pr)
	}
	if pr.ByStatus["For Review"] != 1 {
		t.Errorf("Expected raw status counts to be kept, got %v", pr.ByStatus)
	}
	if summary.Pending != 4 || summary.Approved != 7 || summary.Declined != 1 {
		t.Errorf("Unexpected totals pending=%d approved=%d declined=%d", summary.Pending, summary.Approved, summary.Declined)
	}

	for _, w := range summary.Forms {
		if w.FormType == "leave_application" && (w.Total != 0 || w.ByStatus == nil) {
			t.Errorf("Expected an empty leave application entry, got %+v", w)
		}
	}
}

func TestOutstandingDefaultsAndAge(t *testing.T) {
	rows := make([]model.OutstandingRow, 10)
	for i := range rows {
		rows[i] = model.OutstandingRow{FormCode: "PR", ActivityAt: dashboardNow.Add(-time.Duration(i) * time.Hour)}
	}
	rows[0].ActivityAt = dashboardNow.Add(time.Minute)
	repo := &fakeDashboardRepo{rows: rows, total: 10, alerts: 2}

	queue, err := newDashboard(repo).Outstanding(context.Background(), 0)
	if err != nil {
		t.Fatalf("Outstanding failed: %v", err)
	}
	if repo.gotLimit != DefaultOutstandingLimit || len(queue.Items) != DefaultOutstandingLimit {
		t.Errorf("Expected the default limit of %d, got %d rows", DefaultOutstandingLimit, len(queue.Items))
	}
	if queue.Items[0].AgeSeconds != 0 {
		t.Errorf("Expected future activity to clamp to age 0, got %d", queue.Items[0].AgeSeconds)
	}
	if queue.Items[3].AgeSeconds != 3*3600 {
		t.Errorf("Expected age 10800, got %d", queue.Items[3].AgeSeconds)
	}
	if queue.Total != 10 || queue.Alerts != 2 {
		t.Errorf("Expected totals over every pending row, got total=%d alerts=%d", queue.Total, queue.Alerts)
	}
	if want := dashboardNow.Add(-48 * time.Hour); !repo.gotAlertBefore.Equal(want) {
		t.Errorf("Expected alert cutoff %v, got %v", want, repo.gotAlertBefore)
	}
}

func TestOutstandingLimitIsCapped(t *testing.T) {
	repo := &fakeDashboardRepo{}
	queue, err := newDashboard(repo).Outstanding(context.Background(), 5000)
	if err != nil {
		t.Fatalf("Outstanding failed: %v", err)
	}
	if repo.gotLimit != MaxOutstandingLimit {
		t.Errorf("Expected limit %d, got %d", MaxOutstandingLimit, repo.gotLimit)
	}
	if queue.Items == nil {
		t.Error("Expected an empty list, not nil")
	}
}

func TestEngagementWindow(t *testing.T) {
	repo := &fakeDashboardRepo{users: 42, submitters: 7, submissions: 19}
	summary, err := newDashboard(repo).Engagement(context.Background())
	if err != nil {
		t.Fatalf("Engagement failed: %v", err)
	}
	if summary.TotalUsers != 42 || summary.ActiveSubmitters != 7 || summary.Submissions != 19 {
		t.Errorf("Unexpected summary %+v", summary)
	}
	if want := dashboardNow.Add(-7 * 24 * time.Hour); !repo.gotSince.Equal(want) || !summary.WindowStart.Equal(want) {
		t.Errorf("Expected window start %v, got %v", want, repo.gotSince)
	}
}

func TestDashboardFailureIsInternal(t *testing.T) {
	repo := &fakeDashboardRepo{err: errBoom}
	svc := newDashboard(repo)

	if _, err := svc.Workload(context.Background()); KindOf(err) != KindInternal {
		t.Errorf("Expected internal error, got %v", err)
	}
	if _, err := svc.Outstanding(context.Background(), 3); PublicMessage(err) != MsgLoadFailed {
		t.Errorf("Expected %q, got %v", MsgLoadFailed, err)
	}
}
