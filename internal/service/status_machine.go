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

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/datatypes"
)

// NormalizeStatus turns client spellings such as "approved" or "FOR REVIEW"
// into the canonical status labels.
func NormalizeStatus(status string) string {
	fields := strings.Fields(status)
	if len(fields) == 0 {
		return ""
	}
	// Casers keep state and are not shared between goroutines.
	return cases.Title(language.English).String(strings.ToLower(strings.Join(fields, " ")))
}

// TransitionInput addresses a request by code (or id when code is empty) and
// names the target status with the fields that transition carries.
type TransitionInput struct {
	Code   string
	ID     int64
	Status string
	Fields map[string]string
	Actor  Actor
}

type StatusMachine interface {
	Apply(ctx context.Context, form model.FormType, in TransitionInput) (*model.Request, error)
}

type statusMachine struct {
	tx       repository.TransactionManager
	requests repository.RequestRepository
	logs     repository.StatusLogRepository
	notifier Notifier
	log      *zap.Logger
	now      func() time.Time
}

func NewStatusMachine(
	tx repository.TransactionManager,
	requests repository.RequestRepository,
	logs repository.StatusLogRepository,
	notifier Notifier,
	log *zap.Logger,
	now func() time.Time,
) StatusMachine {
	if log == nil {
		log = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	return &statusMachine{tx: tx, requests: requests, logs: logs, notifier: notifier, log: log, now: now}
}

// Apply moves a request to in.Status. The row is locked for the duration of
// the check and the update, and the update only matches while the row is
// still in the status it was read in. Re-applying the current status with
// the same fields returns the row unchanged.
func (m *statusMachine) Apply(ctx context.Context, form model.FormType, in TransitionInput) (*model.Request, error) {
	target := NormalizeStatus(in.Status)
	if target == "" {
		return nil, validationError("status is required")
	}
	if !form.HasStatus(target) {
		return nil, validationError("%s is not a valid status for %s", target, form.Name)
	}
	if in.Code == "" && in.ID <= 0 {
		return nil, validationError("form_code is required")
	}
	fields := trimFields(in.Fields)

	var (
		result *model.Request
		from   string
		noop   bool
	)
	err := m.tx.RunInTx(ctx, func(txCtx context.Context) error {
		req, err := m.load(txCtx, form, in)
		if err != nil {
			return err
		}
		from = req.Status

		if req.Status == target {
			if !sameFields(req, form, target, fields) {
				return conflictError(repository.ErrStaleState, "request %s is already %s", req.FormCode, target)
			}
			noop = true
			result = req
			return nil
		}

		t, ok := form.FindTransition(req.Status, target)
		if !ok {
			return conflictError(repository.ErrStaleState, "cannot move request %s from %s to %s", req.FormCode, req.Status, target)
		}
		if !t.AllowsRole(in.Actor.Role) {
			return forbiddenError("role %q may not set %s", in.Actor.Role, target)
		}
		for _, f := range t.Requires {
			if fields[f] == "" {
				return validationError("%s is required", f)
			}
		}

		changes, err := m.changes(form, target, fields, in.Actor)
		if err != nil {
			return err
		}
		if err := m.requests.UpdateStatus(txCtx, form, req.ID, req.Status, changes); err != nil {
			if errors.Is(err, repository.ErrStaleState) {
				return conflictError(err, "request %s changed status, reload and retry", req.FormCode)
			}
			return err
		}

		details, err := json.Marshal(fields)
		if err != nil {
			return fmt.Errorf("encode status log: %w", err)
		}
		if err := m.logs.Log(txCtx, &model.StatusLog{
			FormType:   form.Key,
			RequestID:  req.ID,
			FormCode:   req.FormCode,
			FromStatus: req.Status,
			ToStatus:   target,
			ActorID:    in.Actor.UserID,
			ActorRole:  in.Actor.Role,
			Details:    datatypes.JSON(details),
		}); err != nil {
			return fmt.Errorf("write status log: %w", err)
		}

		result, err = m.requests.FindByID(txCtx, form, req.ID, false)
		return err
	})
	if err != nil {
		var se *Error
		if errors.As(err, &se) {
			return nil, se
		}
		m.log.Error("failed to apply transition",
			zap.String("form", form.Key),
			zap.String("code", in.Code),
			zap.String("status", target),
			zap.Error(err),
		)
		return nil, internalError(MsgSaveFailed, err)
	}

	items, err := m.requests.ListItems(ctx, form, result.ID)
	if err != nil {
		m.log.Warn("failed to load items after transition", zap.String("code", result.FormCode), zap.Error(err))
		items = []model.RequestItem{}
	}
	result.Items = items

	if noop {
		return result, nil
	}

	m.log.Info("request status changed",
		zap.String("form", form.Key),
		zap.String("code", result.FormCode),
		zap.String("from", from),
		zap.String("to", target),
		zap.String("actor", in.Actor.UserID),
	)

	if m.notifier != nil {
		ev := newEvent(EventRequestStatusChanged, m.now())
		ev.FormType = form.Key
		ev.RequestID = result.ID
		ev.FormCode = result.FormCode
		ev.FromStatus = from
		ev.ToStatus = target
		ev.ActorID = in.Actor.UserID
		if err := m.notifier.Notify(ctx, ev); err != nil {
			m.log.Warn("failed to publish request event", zap.String("code", ev.FormCode), zap.Error(err))
		}
	}
	return result, nil
}

func (m *statusMachine) load(ctx context.Context, form model.FormType, in TransitionInput) (*model.Request, error) {
	var (
		req *model.Request
		err error
	)
	if in.Code != "" {
		req, err = m.requests.FindByCode(ctx, form, in.Code, true)
	} else {
		req, err = m.requests.FindByID(ctx, form, in.ID, true)
	}
	if errors.Is(err, repository.ErrNotFound) {
		ref := in.Code
		if ref == "" {
			ref = fmt.Sprintf("#%d", in.ID)
		}
		return nil, notFoundError("%s %s not found", form.Name, ref)
	}
	return req, err
}

// changes builds the column updates for moving to target.
func (m *statusMachine) changes(form model.FormType, target string, fields map[string]string, actor Actor) (map[string]interface{}, error) {
	now := m.now()
	out := map[string]interface{}{
		"status":     target,
		"updated_at": now,
	}

	switch target {
	case form.ApprovalStatus:
		out["approved_by"] = fields[model.FieldApprovedBy]
		out["approved_signature"] = fields[model.FieldApprovedSignature]
		out["approved_at"] = now
	case model.StatusDeclined:
		out["declined_reason"] = fields[model.FieldDeclinedReason]
		out["declined_by"] = firstNonEmpty(fields["declined_by"], actor.Name, actor.UserID)
		out["declined_at"] = now
	case model.StatusReceived:
		out["received_by"] = fields[model.FieldReceivedBy]
		out["received_signature"] = fields[model.FieldReceivedSignature]
		out["received_at"] = now
	case form.TerminalStatus:
		completion := map[string]string{}
		for _, f := range model.CompletionFieldNames {
			if v := fields[f]; v != "" {
				completion[f] = v
			}
		}
		raw, err := json.Marshal(completion)
		if err != nil {
			return nil, fmt.Errorf("encode completion: %w", err)
		}
		out["completion"] = datatypes.JSON(raw)
		out["completed_by"] = firstNonEmpty(fields["completed_by"], actor.Name, actor.UserID)
		out["completed_at"] = now
	}
	return out, nil
}

// sameFields reports whether every workflow field supplied for target
// matches what the row already stores.
func sameFields(req *model.Request, form model.FormType, target string, fields map[string]string) bool {
	for name, v := range fields {
		stored, tracked := storedField(req, form, target, name)
		if tracked && stored != v {
			return false
		}
	}
	return true
}

func storedField(req *model.Request, form model.FormType, target, name string) (string, bool) {
	switch {
	case target == form.ApprovalStatus && name == model.FieldApprovedBy:
		return deref(req.ApprovedBy), true
	case target == form.ApprovalStatus && name == model.FieldApprovedSignature:
		return deref(req.ApprovedSignature), true
	case target == model.StatusDeclined && name == model.FieldDeclinedReason:
		return deref(req.DeclinedReason), true
	case target == model.StatusReceived && name == model.FieldReceivedBy:
		return deref(req.ReceivedBy), true
	case target == model.StatusReceived && name == model.FieldReceivedSignature:
		return deref(req.ReceivedSignature), true
	case target == form.TerminalStatus && isCompletionField(name):
		completion := map[string]string{}
		if len(req.Completion) > 0 {
			_ = json.Unmarshal(req.Completion, &completion)
		}
		return completion[name], true
	}
	return "", false
}

func isCompletionField(name string) bool {
	for _, f := range model.CompletionFieldNames {
		if f == name {
			return true
		}
	}
	return false
}

func trimFields(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out[k] = v
		}
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
