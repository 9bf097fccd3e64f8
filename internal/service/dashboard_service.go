package service

import (
	"context"
	"time"

	"formsportal/internal/model"
	"formsportal/internal/repository"

	"go.uber.org/zap"
)

const (
	DefaultOutstandingLimit = 6
	MaxOutstandingLimit     = 100
	EngagementWindow        = 7 * 24 * time.Hour
)

// DashboardService computes the read-only rollups. Nothing is cached; every
// call queries the request tables again.
type DashboardService interface {
	Workload(ctx context.Context) (*model.WorkloadSummary, error)
	Outstanding(ctx context.Context, limit int) (*model.OutstandingQueue, error)
	Engagement(ctx context.Context) (*model.EngagementSummary, error)
}

type dashboardService struct {
	repo  repository.DashboardRepository
	forms []model.FormType
	log   *zap.Logger
	now   func() time.Time
}

func NewDashboardService(repo repository.DashboardRepository, forms []model.FormType, log *zap.Logger, now func() time.Time) DashboardService {
	if log == nil {
		log = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	return &dashboardService{repo: repo, forms: forms, log: log, now: now}
}

func (s *dashboardService) Workload(ctx context.Context) (*model.WorkloadSummary, error) {
	counts, err := s.repo.StatusCounts(ctx, s.forms)
	if err != nil {
		s.log.Error("failed to load workload", zap.Error(err))
		return nil, internalError(MsgLoadFailed, err)
	}

	byForm := make(map[string]*model.FormWorkload, len(s.forms))
	summary := &model.WorkloadSummary{Forms: make([]model.FormWorkload, len(s.forms))}
	for i, f := range s.forms {
		summary.Forms[i] = model.FormWorkload{FormType: f.Key, FormName: f.Name, ByStatus: map[string]int64{}}
		byForm[f.Key] = &summary.Forms[i]
	}

	for _, c := range counts {
		w, ok := byForm[c.FormType]
		if !ok {
			continue
		}
		w.ByStatus[c.Status] += c.Count
		w.Total += c.Count
		switch model.StatusBucket(c.Status) {
		case model.BucketPending:
			w.Pending += c.Count
			summary.Pending += c.Count
		case model.BucketApproved:
			w.Approved += c.Count
			summary.Approved += c.Count
		case model.BucketDeclined:
			w.Declined += c.Count
			summary.Declined += c.Count
		default:
			w.Other += c.Count
		}
	}
	return summary, nil
}

// Outstanding returns the most recently active pending requests. Alerts are
// counted over every pending request, not only the returned page.
func (s *dashboardService) Outstanding(ctx context.Context, limit int) (*model.OutstandingQueue, error) {
	if limit <= 0 {
		limit = DefaultOutstandingLimit
	}
	if limit > MaxOutstandingLimit {
		limit = MaxOutstandingLimit
	}

	now := s.now()
	rows, err := s.repo.Outstanding(ctx, s.forms, limit)
	if err != nil {
		s.log.Error("failed to load outstanding queue", zap.Error(err))
		return nil, internalError(MsgLoadFailed, err)
	}
	total, alerts, err := s.repo.CountOutstanding(ctx, s.forms, now.Add(-model.OutstandingAlertAge))
	if err != nil {
		s.log.Error("failed to count outstanding requests", zap.Error(err))
		return nil, internalError(MsgLoadFailed, err)
	}

	if rows == nil {
		rows = []model.OutstandingRow{}
	}
	for i := range rows {
		age := int64(now.Sub(rows[i].ActivityAt) / time.Second)
		if age < 0 {
			age = 0
		}
		rows[i].AgeSeconds = age
	}
	return &model.OutstandingQueue{Items: rows, Total: total, Alerts: alerts}, nil
}

func (s *dashboardService) Engagement(ctx context.Context) (*model.EngagementSummary, error) {
	since := s.now().Add(-EngagementWindow)

	users, err := s.repo.CountUsers(ctx)
	if err != nil {
		s.log.Error("failed to count users", zap.Error(err))
		return nil, internalError(MsgLoadFailed, err)
	}
	submitters, submissions, err := s.repo.CountSubmissions(ctx, s.forms, since)
	if err != nil {
		s.log.Error("failed to count submissions", zap.Error(err))
		return nil, internalError(MsgLoadFailed, err)
	}

	return &model.EngagementSummary{
		TotalUsers:       users,
		ActiveSubmitters: submitters,
		Submissions:      submissions,
		WindowStart:      since,
	}, nil
}
