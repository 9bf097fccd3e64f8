package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"formsportal/internal/model"
	"formsportal/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// Actor is the authenticated user behind a call.
type Actor struct {
	UserID string
	Name   string
	Role   string
}

// CreateRequestInput is a form submission as received from the client: the
// flat header object, its items and whether it is saved as a draft.
type CreateRequestInput struct {
	Fields map[string]interface{}
	Items  []map[string]interface{}
	Draft  bool
	Actor  Actor
}

// headerColumns are read from the submission into dedicated columns.
var headerColumns = map[string]bool{
	"requester_id":   true,
	"requester_name": true,
	"employee_id":    true,
	"branch":         true,
	"department":     true,
}

// reservedFields are never accepted from a submission; the server or the
// status machine owns them.
var reservedFields = map[string]bool{
	"id": true, "form_code": true, "form_type": true, "status": true,
	"items": true, "draft": true, "payload": true, "total_amount": true,
	"created_at": true, "updated_at": true,
	"approved_by": true, "approved_signature": true, "approved_at": true,
	"declined_reason": true, "declined_by": true, "declined_at": true,
	"received_by": true, "received_signature": true, "received_at": true,
	"completion": true, "completed_by": true, "completed_at": true,
}

var requiredHeader = []string{"requester_name", "branch", "department"}

type RequestService interface {
	NextCode(ctx context.Context, form model.FormType) (string, error)
	Create(ctx context.Context, form model.FormType, in CreateRequestInput) (*model.Request, error)
	List(ctx context.Context, form model.FormType, filter model.RequestFilter) ([]model.Request, error)
	Items(ctx context.Context, form model.FormType, requestID int64) ([]model.RequestItem, error)
	Get(ctx context.Context, form model.FormType, code string) (*model.Request, error)
	History(ctx context.Context, form model.FormType, code string) ([]model.StatusLog, error)
}

type requestService struct {
	tx       repository.TransactionManager
	requests repository.RequestRepository
	logs     repository.StatusLogRepository
	seq      CodeSequencer
	notifier Notifier
	log      *zap.Logger
	now      func() time.Time
}

func NewRequestService(
	tx repository.TransactionManager,
	requests repository.RequestRepository,
	logs repository.StatusLogRepository,
	seq CodeSequencer,
	notifier Notifier,
	log *zap.Logger,
) RequestService {
	if log == nil {
		log = zap.NewNop()
	}
	return &requestService{
		tx:       tx,
		requests: requests,
		logs:     logs,
		seq:      seq,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

// ResolveForm maps a URL key to its form descriptor.
func ResolveForm(key string) (model.FormType, error) {
	form, ok := model.LookupForm(key)
	if !ok {
		return model.FormType{}, notFoundError("unknown form %q", key)
	}
	return form, nil
}

func (s *requestService) NextCode(ctx context.Context, form model.FormType) (string, error) {
	code, err := s.seq.Preview(ctx, form)
	if err != nil {
		s.log.Error("failed to preview code", zap.String("form", form.Key), zap.Error(err))
		return "", internalError(MsgLoadFailed, err)
	}
	return code, nil
}

func (s *requestService) Create(ctx context.Context, form model.FormType, in CreateRequestInput) (*model.Request, error) {
	req, err := buildRequest(form, in)
	if err != nil {
		return nil, err
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		code, err := s.seq.Issue(txCtx, form)
		if err != nil {
			return fmt.Errorf("issue code: %w", err)
		}
		req.FormCode = code

		if err := s.requests.Create(txCtx, form, req); err != nil {
			return err
		}

		details, err := json.Marshal(map[string]interface{}{"items": len(req.Items)})
		if err != nil {
			return fmt.Errorf("encode status log: %w", err)
		}
		return s.logs.Log(txCtx, &model.StatusLog{
			FormType:  form.Key,
			RequestID: req.ID,
			FormCode:  req.FormCode,
			ToStatus:  req.Status,
			ActorID:   in.Actor.UserID,
			ActorRole: in.Actor.Role,
			Details:   datatypes.JSON(details),
		})
	})
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			s.log.Warn("request code collision", zap.String("form", form.Key), zap.Error(err))
			return nil, conflictError(err, "reference code %s is already taken, please resubmit", req.FormCode)
		}
		s.log.Error("failed to create request", zap.String("form", form.Key), zap.Error(err))
		return nil, internalError(MsgSaveFailed, err)
	}

	s.log.Info("request created",
		zap.String("form", form.Key),
		zap.String("code", req.FormCode),
		zap.Int("items", len(req.Items)),
	)

	ev := newEvent(EventRequestCreated, s.now())
	ev.FormType = form.Key
	ev.RequestID = req.ID
	ev.FormCode = req.FormCode
	ev.ToStatus = req.Status
	ev.ActorID = in.Actor.UserID
	s.publish(ctx, ev)

	return req, nil
}

func (s *requestService) publish(ctx context.Context, ev Event) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, ev); err != nil {
		s.log.Warn("failed to publish request event",
			zap.String("type", ev.Type),
			zap.String("code", ev.FormCode),
			zap.Error(err),
		)
	}
}

// buildRequest validates a submission and splits it into the header columns,
// the opaque payload and the kept items.
func buildRequest(form model.FormType, in CreateRequestInput) (*model.Request, error) {
	header := map[string]string{}
	payload := map[string]interface{}{}
	for k, v := range in.Fields {
		switch {
		case headerColumns[k]:
			header[k] = strings.TrimSpace(stringValue(v))
		case reservedFields[k]:
		default:
			payload[k] = v
		}
	}

	if header["requester_id"] == "" {
		header["requester_id"] = in.Actor.UserID
	}
	if header["requester_name"] == "" {
		header["requester_name"] = in.Actor.Name
	}
	for _, f := range requiredHeader {
		if header[f] == "" {
			return nil, validationError("%s is required", f)
		}
	}

	items, total, err := buildItems(form, in.Items)
	if err != nil {
		return nil, err
	}
	if form.RequireItems && len(items) == 0 {
		return nil, validationError("at least one item with %s is required", strings.Join(form.ItemFields, " and "))
	}
	if len(items) == 0 {
		if v, ok := payload["amount"]; ok {
			if d, ok := toDecimal(v); ok {
				total = d
			}
		}
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, validationError("invalid form fields: %v", err)
	}

	status := model.StatusPending
	if in.Draft {
		status = model.StatusDraft
	}

	return &model.Request{
		FormType:      form.Key,
		RequesterID:   header["requester_id"],
		RequesterName: header["requester_name"],
		EmployeeID:    header["employee_id"],
		Branch:        header["branch"],
		Department:    header["department"],
		Status:        status,
		Payload:       datatypes.JSON(raw),
		TotalAmount:   total,
		Items:         items,
	}, nil
}

// buildItems keeps only items carrying every primary field of the form and
// sums their amounts.
func buildItems(form model.FormType, raw []map[string]interface{}) ([]model.RequestItem, decimal.Decimal, error) {
	items := make([]model.RequestItem, 0, len(raw))
	total := decimal.Zero
	for i, fields := range raw {
		if !hasFields(fields, form.ItemFields) {
			continue
		}

		amount, err := itemAmount(fields)
		if err != nil {
			return nil, decimal.Zero, validationError("item %d: %v", i+1, err)
		}
		if amount.Valid {
			total = total.Add(amount.Decimal)
		}

		b, err := json.Marshal(fields)
		if err != nil {
			return nil, decimal.Zero, validationError("item %d: %v", i+1, err)
		}
		items = append(items, model.RequestItem{
			LineNo:  len(items) + 1,
			Payload: datatypes.JSON(b),
			Amount:  amount,
		})
	}
	return items, total, nil
}

func hasFields(fields map[string]interface{}, names []string) bool {
	if len(fields) == 0 {
		return false
	}
	for _, name := range names {
		v, ok := fields[name]
		if !ok || v == nil {
			return false
		}
		if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
			return false
		}
	}
	return true
}

// itemAmount reads "amount", or quantity * unit_price when both are given.
func itemAmount(fields map[string]interface{}) (decimal.NullDecimal, error) {
	if v, ok := fields["amount"]; ok && v != nil {
		d, ok := toDecimal(v)
		if !ok {
			return decimal.NullDecimal{}, fmt.Errorf("invalid amount %v", v)
		}
		return decimal.NewNullDecimal(d), nil
	}
	q, hasQty := toDecimal(fields["quantity"])
	p, hasPrice := toDecimal(fields["unit_price"])
	if hasQty && hasPrice {
		return decimal.NewNullDecimal(q.Mul(p)), nil
	}
	return decimal.NullDecimal{}, nil
}

func toDecimal(v interface{}) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case json.Number:
		d, err := decimal.NewFromString(n.String())
		return d, err == nil
	case string:
		d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(n), ",", ""))
		return d, err == nil
	case float64:
		return decimal.NewFromFloat(n), true
	case int:
		return decimal.NewFromInt(int64(n)), true
	case int64:
		return decimal.NewFromInt(n), true
	}
	return decimal.Zero, false
}

func stringValue(v interface{}) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case json.Number:
		return s.String()
	default:
		return fmt.Sprint(s)
	}
}

func (s *requestService) List(ctx context.Context, form model.FormType, filter model.RequestFilter) ([]model.Request, error) {
	if filter.Status != "" {
		filter.Status = NormalizeStatus(filter.Status)
	}
	rows, err := s.requests.List(ctx, form, filter)
	if err != nil {
		s.log.Error("failed to list requests", zap.String("form", form.Key), zap.Error(err))
		return nil, internalError(MsgLoadFailed, err)
	}
	return rows, nil
}

func (s *requestService) Items(ctx context.Context, form model.FormType, requestID int64) ([]model.RequestItem, error) {
	if requestID <= 0 {
		return nil, validationError("request_id is required")
	}
	items, err := s.requests.ListItems(ctx, form, requestID)
	if err != nil {
		s.log.Error("failed to list items", zap.String("form", form.Key), zap.Int64("request_id", requestID), zap.Error(err))
		return nil, internalError(MsgLoadFailed, err)
	}
	return items, nil
}

func (s *requestService) Get(ctx context.Context, form model.FormType, code string) (*model.Request, error) {
	req, err := s.find(ctx, form, code)
	if err != nil {
		return nil, err
	}
	req.Items, err = s.requests.ListItems(ctx, form, req.ID)
	if err != nil {
		s.log.Error("failed to load items", zap.String("code", code), zap.Error(err))
		return nil, internalError(MsgLoadFailed, err)
	}
	return req, nil
}

func (s *requestService) History(ctx context.Context, form model.FormType, code string) ([]model.StatusLog, error) {
	req, err := s.find(ctx, form, code)
	if err != nil {
		return nil, err
	}
	logs, err := s.logs.ListByRequest(ctx, form.Key, req.ID)
	if err != nil {
		s.log.Error("failed to load status history", zap.String("code", code), zap.Error(err))
		return nil, internalError(MsgLoadFailed, err)
	}
	return logs, nil
}

func (s *requestService) find(ctx context.Context, form model.FormType, code string) (*model.Request, error) {
	req, err := s.requests.FindByCode(ctx, form, code, false)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFoundError("%s %s not found", form.Name, code)
	}
	if err != nil {
		s.log.Error("failed to load request", zap.String("code", code), zap.Error(err))
		return nil, internalError(MsgLoadFailed, err)
	}
	return req, nil
}
