package handler

import (
	"context"
	"time"

	"formsportal/internal/middleware"
	"formsportal/internal/model"
	"formsportal/internal/repository"
	"formsportal/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"gorm.io/datatypes"
)

const testSecret = "handler-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

type stubRequests struct {
	nextCode   string
	created    *service.CreateRequestInput
	createForm string
	listFilter *model.RequestFilter
	itemsID    int64
	rows       []model.Request
	err        error
}

func (s *stubRequests) NextCode(ctx context.Context, form model.FormType) (string, error) {
	return s.nextCode, s.err
}

func (s *stubRequests) Create(ctx context.Context, form model.FormType, in service.CreateRequestInput) (*model.Request, error) {
	s.created = &in
	s.createForm = form.Key
	if s.err != nil {
		return nil, s.err
	}
	status := model.StatusPending
	if in.Draft {
		status = model.StatusDraft
	}
	return &model.Request{ID: 1, FormCode: form.FormatCode(2025, 1), FormType: form.Key, Status: status}, nil
}

func (s *stubRequests) List(ctx context.Context, form model.FormType, filter model.RequestFilter) ([]model.Request, error) {
	s.listFilter = &filter
	if s.err != nil {
		return nil, s.err
	}
	return s.rows, nil
}

func (s *stubRequests) Items(ctx context.Context, form model.FormType, requestID int64) ([]model.RequestItem, error) {
	s.itemsID = requestID
	return []model.RequestItem{{ID: 1, RequestID: requestID, LineNo: 1}}, s.err
}

func (s *stubRequests) Get(ctx context.Context, form model.FormType, code string) (*model.Request, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &model.Request{FormCode: code}, nil
}

func (s *stubRequests) History(ctx context.Context, form model.FormType, code string) ([]model.StatusLog, error) {
	return []model.StatusLog{{FormCode: code, ToStatus: model.StatusPending}}, s.err
}

type stubMachine struct {
	got *service.TransitionInput
	err error
}

func (m *stubMachine) Apply(ctx context.Context, form model.FormType, in service.TransitionInput) (*model.Request, error) {
	m.got = &in
	if m.err != nil {
		return nil, m.err
	}
	return &model.Request{FormCode: in.Code, Status: service.NormalizeStatus(in.Status)}, nil
}

type stubExport struct{}

func (stubExport) Export(ctx context.Context, form model.FormType, filter model.RequestFilter) (*excelize.File, string, error) {
	f := excelize.NewFile()
	_ = f.SetCellValue("Sheet1", "A1", "Code")
	return f, form.Key + "_20250314.xlsx", nil
}

type stubDashboard struct {
	gotLimit int
}

func (d *stubDashboard) Workload(ctx context.Context) (*model.WorkloadSummary, error) {
	return &model.WorkloadSummary{Forms: []model.FormWorkload{}, Pending: 3}, nil
}

func (d *stubDashboard) Outstanding(ctx context.Context, limit int) (*model.OutstandingQueue, error) {
	d.gotLimit = limit
	return &model.OutstandingQueue{Items: []model.OutstandingRow{}, Total: 1, Alerts: 1}, nil
}

func (d *stubDashboard) Engagement(ctx context.Context) (*model.EngagementSummary, error) {
	return &model.EngagementSummary{TotalUsers: 2, WindowStart: time.Now()}, nil
}

// accessStore gives u-approver approval rights on purchase requests and
// u-employee plain access to every form.
type accessStore struct{}

func (accessStore) GetAccess(ctx context.Context, userID string) (*model.UserAccess, error) {
	switch userID {
	case "u-approver":
		return &model.UserAccess{UserID: uuid.New(), Role: model.RoleApprover, AccessForms: datatypes.NewJSONType([]string{"purchase_request"})}, nil
	case "u-employee":
		return &model.UserAccess{UserID: uuid.New(), Role: model.RoleEmployee, AccessForms: datatypes.NewJSONType([]string{"*"})}, nil
	}
	return nil, repository.ErrNotFound
}

func newTestAuth() *middleware.Auth {
	return middleware.NewAuth(testSecret, accessStore{}, time.Minute, nil)
}

func bearer(userID, role string) string {
	tok, err := middleware.SignToken(testSecret, middleware.Claims{UserID: userID, Name: "Test " + role, Role: role}, time.Hour)
	if err != nil {
		panic(err)
	}
	return "Bearer " + tok
}
