package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"formsportal/internal/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RequestRepository stores request headers and their items. Every method is
// addressed to the tables of the given form.
type RequestRepository interface {
	Create(ctx context.Context, form model.FormType, req *model.Request) error
	FindByID(ctx context.Context, form model.FormType, id int64, forUpdate bool) (*model.Request, error)
	FindByCode(ctx context.Context, form model.FormType, code string, forUpdate bool) (*model.Request, error)
	List(ctx context.Context, form model.FormType, filter model.RequestFilter) ([]model.Request, error)
	ListItems(ctx context.Context, form model.FormType, requestID int64) ([]model.RequestItem, error)
	UpdateStatus(ctx context.Context, form model.FormType, id int64, expected string, changes map[string]interface{}) error
}

type requestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) RequestRepository {
	return &requestRepository{db: db}
}

// Create inserts the header and then all of its items in one bulk insert.
// Callers wanting all-or-nothing must run it inside a transaction.
func (r *requestRepository) Create(ctx context.Context, form model.FormType, req *model.Request) error {
	db := GetDB(ctx, r.db)
	if err := db.Table(form.HeaderTable).Create(req).Error; err != nil {
		return translateError(err)
	}
	if len(req.Items) == 0 {
		return nil
	}

	for i := range req.Items {
		req.Items[i].RequestID = req.ID
		if req.Items[i].LineNo == 0 {
			req.Items[i].LineNo = i + 1
		}
	}
	if err := db.Table(form.ItemTable).Create(&req.Items).Error; err != nil {
		return translateError(err)
	}
	return nil
}

func (r *requestRepository) FindByID(ctx context.Context, form model.FormType, id int64, forUpdate bool) (*model.Request, error) {
	return r.first(ctx, form, "id = ?", id, forUpdate)
}

func (r *requestRepository) FindByCode(ctx context.Context, form model.FormType, code string, forUpdate bool) (*model.Request, error) {
	return r.first(ctx, form, "form_code = ?", code, forUpdate)
}

func (r *requestRepository) first(ctx context.Context, form model.FormType, cond string, arg interface{}, forUpdate bool) (*model.Request, error) {
	q := GetDB(ctx, r.db).Table(form.HeaderTable).Where(cond, arg)
	if forUpdate {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var req model.Request
	if err := q.Take(&req).Error; err != nil {
		return nil, translateError(err)
	}
	return &req, nil
}

type requestRow struct {
	model.Request `gorm:"embedded"`
	ItemsJSON     datatypes.JSON `gorm:"column:items"`
}

// List returns headers newest first, each with its items aggregated in the
// same grouped query.
func (r *requestRepository) List(ctx context.Context, form model.FormType, filter model.RequestFilter) ([]model.Request, error) {
	q := GetDB(ctx, r.db).
		Table(form.HeaderTable + " AS h").
		Select("h.*, COALESCE(json_agg(i ORDER BY i.line_no) FILTER (WHERE i.id IS NOT NULL), '[]'::json) AS items").
		Joins(fmt.Sprintf("LEFT JOIN %s AS i ON i.request_id = h.id", form.ItemTable))

	if filter.RequestID > 0 {
		q = q.Where("h.id = ?", filter.RequestID)
	}
	if filter.Status != "" {
		q = q.Where("h.status = ?", filter.Status)
	}
	if filter.RequesterID != "" {
		q = q.Where("h.requester_id = ?", filter.RequesterID)
	}
	if filter.Branch != "" {
		q = q.Where("h.branch = ?", filter.Branch)
	}

	q = q.Group("h.id").Order("h.created_at DESC, h.id DESC")
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit).Offset(filter.Offset)
	}

	var rows []requestRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", form.HeaderTable, err)
	}

	out := make([]model.Request, 0, len(rows))
	for _, row := range rows {
		req := row.Request
		req.Items = []model.RequestItem{}
		if len(row.ItemsJSON) > 0 {
			if err := json.Unmarshal(row.ItemsJSON, &req.Items); err != nil {
				return nil, fmt.Errorf("failed to decode items of %s: %w", req.FormCode, err)
			}
		}
		out = append(out, req)
	}
	return out, nil
}

func (r *requestRepository) ListItems(ctx context.Context, form model.FormType, requestID int64) ([]model.RequestItem, error) {
	items := []model.RequestItem{}
	if err := GetDB(ctx, r.db).Table(form.ItemTable).
		Where("request_id = ?", requestID).
		Order("line_no ASC, id ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// UpdateStatus applies changes only while the row is still in expected.
// A miss returns ErrStaleState.
func (r *requestRepository) UpdateStatus(ctx context.Context, form model.FormType, id int64, expected string, changes map[string]interface{}) error {
	res := GetDB(ctx, r.db).Table(form.HeaderTable).
		Where("id = ? AND status = ?", id, expected).
		Updates(changes)
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrStaleState
	}
	return nil
}
