package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"formsportal/internal/model"

	"gorm.io/gorm"
)

// DashboardRepository runs the read-only rollups that span every form table.
type DashboardRepository interface {
	StatusCounts(ctx context.Context, forms []model.FormType) ([]model.StatusCount, error)
	Outstanding(ctx context.Context, forms []model.FormType, limit int) ([]model.OutstandingRow, error)
	CountOutstanding(ctx context.Context, forms []model.FormType, alertBefore time.Time) (total int64, alerts int64, err error)
	CountUsers(ctx context.Context) (int64, error)
	CountSubmissions(ctx context.Context, forms []model.FormType, since time.Time) (submitters int64, submissions int64, err error)
}

type dashboardRepository struct {
	db *gorm.DB
}

func NewDashboardRepository(db *gorm.DB) DashboardRepository {
	return &dashboardRepository{db: db}
}

func (r *dashboardRepository) StatusCounts(ctx context.Context, forms []model.FormType) ([]model.StatusCount, error) {
	if len(forms) == 0 {
		return nil, nil
	}
	parts := make([]string, 0, len(forms))
	for _, f := range forms {
		parts = append(parts, fmt.Sprintf(
			"SELECT '%s' AS form_type, status, COUNT(*) AS count FROM %s GROUP BY status",
			f.Key, f.HeaderTable))
	}

	var counts []model.StatusCount
	if err := r.db.WithContext(ctx).
		Raw(strings.Join(parts, " UNION ALL ") + " ORDER BY form_type, status").
		Scan(&counts).Error; err != nil {
		return nil, fmt.Errorf("failed to count statuses: %w", err)
	}
	return counts, nil
}

// outstandingUnion selects every pending row of every form with its most
// recent activity time.
func outstandingUnion(forms []model.FormType) (string, []interface{}) {
	parts := make([]string, 0, len(forms))
	args := make([]interface{}, 0, len(forms))
	for _, f := range forms {
		parts = append(parts, fmt.Sprintf(
			`SELECT '%s' AS form_type, id AS request_id, form_code, requester_name, branch, status,
				GREATEST(created_at, updated_at) AS activity_at
			FROM %s WHERE status IN ?`,
			f.Key, f.HeaderTable))
		args = append(args, model.PendingStatuses)
	}
	return strings.Join(parts, " UNION ALL "), args
}

func (r *dashboardRepository) Outstanding(ctx context.Context, forms []model.FormType, limit int) ([]model.OutstandingRow, error) {
	if len(forms) == 0 {
		return nil, nil
	}
	union, args := outstandingUnion(forms)
	args = append(args, limit)

	var rows []model.OutstandingRow
	if err := r.db.WithContext(ctx).
		Raw("SELECT * FROM ("+union+") q ORDER BY activity_at DESC, form_code DESC LIMIT ?", args...).
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load outstanding queue: %w", err)
	}
	return rows, nil
}

func (r *dashboardRepository) CountOutstanding(ctx context.Context, forms []model.FormType, alertBefore time.Time) (int64, int64, error) {
	if len(forms) == 0 {
		return 0, 0, nil
	}
	union, unionArgs := outstandingUnion(forms)
	args := append([]interface{}{alertBefore}, unionArgs...)

	var result struct {
		Total  int64
		Alerts int64
	}
	if err := r.db.WithContext(ctx).
		Raw("SELECT COUNT(*) AS total, COUNT(*) FILTER (WHERE activity_at < ?) AS alerts FROM ("+union+") q", args...).
		Scan(&result).Error; err != nil {
		return 0, 0, fmt.Errorf("failed to count outstanding requests: %w", err)
	}
	return result.Total, result.Alerts, nil
}

func (r *dashboardRepository) CountUsers(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.User{}).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (r *dashboardRepository) CountSubmissions(ctx context.Context, forms []model.FormType, since time.Time) (int64, int64, error) {
	if len(forms) == 0 {
		return 0, 0, nil
	}
	parts := make([]string, 0, len(forms))
	args := make([]interface{}, 0, len(forms))
	for _, f := range forms {
		parts = append(parts, fmt.Sprintf(
			"SELECT COALESCE(NULLIF(requester_id, ''), requester_name) AS submitter FROM %s WHERE created_at >= ?",
			f.HeaderTable))
		args = append(args, since)
	}

	var result struct {
		Submitters  int64
		Submissions int64
	}
	if err := r.db.WithContext(ctx).
		Raw("SELECT COUNT(DISTINCT submitter) AS submitters, COUNT(*) AS submissions FROM ("+
			strings.Join(parts, " UNION ALL ")+") s", args...).
		Scan(&result).Error; err != nil {
		return 0, 0, fmt.Errorf("failed to count submissions: %w", err)
	}
	return result.Submitters, result.Submissions, nil
}
