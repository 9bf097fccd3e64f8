package service

import (
	"context"
	"errors"
	"regexp"
	"sort"
	"sync"
	"time"

	"formsportal/internal/model"
	"formsportal/internal/repository"

	"gorm.io/datatypes"
)

var errBoom = errors.New("boom")

// fakeRequestRepo keeps requests in memory keyed by form.
type fakeRequestRepo struct {
	mu     sync.Mutex
	rows   map[string][]model.Request
	nextID int64

	failItems  bool  // Create fails after inserting the header
	createErr  error // Create fails before inserting anything
	updateErr  error
	listErr    error
	staleOnce  bool // next UpdateStatus behaves as if the status moved on
	lockedRead int
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{rows: map[string][]model.Request{}}
}

func (r *fakeRequestRepo) snapshot() (map[string][]model.Request, int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string][]model.Request, len(r.rows))
	for k, v := range r.rows {
		out[k] = append([]model.Request(nil), v...)
	}
	return out, r.nextID
}

func (r *fakeRequestRepo) restore(rows map[string][]model.Request, nextID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = rows
	r.nextID = nextID
}

func (r *fakeRequestRepo) count(form string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows[form])
}

func (r *fakeRequestRepo) Create(ctx context.Context, form model.FormType, req *model.Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	for _, existing := range r.rows[form.Key] {
		if existing.FormCode == req.FormCode {
			return repository.ErrConflict
		}
	}

	r.nextID++
	req.ID = r.nextID
	now := time.Now()
	req.CreatedAt, req.UpdatedAt = now, now
	for i := range req.Items {
		req.Items[i].ID = int64(i + 1)
		req.Items[i].RequestID = req.ID
	}
	r.rows[form.Key] = append(r.rows[form.Key], *req)

	if r.failItems && len(req.Items) > 0 {
		return errBoom
	}
	return nil
}

func (r *fakeRequestRepo) find(form model.FormType, match func(model.Request) bool) (*model.Request, error) {
	for _, row := range r.rows[form.Key] {
		if match(row) {
			out := row
			out.Items = nil
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeRequestRepo) FindByID(ctx context.Context, form model.FormType, id int64, forUpdate bool) (*model.Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if forUpdate {
		r.lockedRead++
	}
	return r.find(form, func(m model.Request) bool { return m.ID == id })
}

func (r *fakeRequestRepo) FindByCode(ctx context.Context, form model.FormType, code string, forUpdate bool) (*model.Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if forUpdate {
		r.lockedRead++
	}
	return r.find(form, func(m model.Request) bool { return m.FormCode == code })
}

func (r *fakeRequestRepo) List(ctx context.Context, form model.FormType, filter model.RequestFilter) ([]model.Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := []model.Request{}
	for i := len(r.rows[form.Key]) - 1; i >= 0; i-- {
		row := r.rows[form.Key][i]
		if filter.Status != "" && row.Status != filter.Status {
			continue
		}
		if filter.RequestID > 0 && row.ID != filter.RequestID {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

func (r *fakeRequestRepo) ListItems(ctx context.Context, form model.FormType, requestID int64) ([]model.RequestItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows[form.Key] {
		if row.ID == requestID {
			return append([]model.RequestItem{}, row.Items...), nil
		}
	}
	return []model.RequestItem{}, nil
}

func (r *fakeRequestRepo) UpdateStatus(ctx context.Context, form model.FormType, id int64, expected string, changes map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	if r.staleOnce {
		r.staleOnce = false
		return repository.ErrStaleState
	}
	rows := r.rows[form.Key]
	for i := range rows {
		if rows[i].ID != id || rows[i].Status != expected {
			continue
		}
		applyChanges(&rows[i], changes)
		return nil
	}
	return repository.ErrStaleState
}

func applyChanges(req *model.Request, changes map[string]interface{}) {
	str := func(v interface{}) *string { s := v.(string); return &s }
	tm := func(v interface{}) *time.Time { t := v.(time.Time); return &t }
	for k, v := range changes {
		switch k {
		case "status":
			req.Status = v.(string)
		case "updated_at":
			req.UpdatedAt = v.(time.Time)
		case "approved_by":
			req.ApprovedBy = str(v)
		case "approved_signature":
			req.ApprovedSignature = str(v)
		case "approved_at":
			req.ApprovedAt = tm(v)
		case "declined_reason":
			req.DeclinedReason = str(v)
		case "declined_by":
			req.DeclinedBy = str(v)
		case "declined_at":
			req.DeclinedAt = tm(v)
		case "received_by":
			req.ReceivedBy = str(v)
		case "received_signature":
			req.ReceivedSignature = str(v)
		case "received_at":
			req.ReceivedAt = tm(v)
		case "completion":
			req.Completion = v.(datatypes.JSON)
		case "completed_by":
			req.CompletedBy = str(v)
		case "completed_at":
			req.CompletedAt = tm(v)
		}
	}
}

// fakeSequenceRepo derives the highest code from the fake request store.
type fakeSequenceRepo struct {
	requests *fakeRequestRepo
	codes    []string // extra codes, e.g. malformed legacy rows
	locked   []string
	err      error
}

func (s *fakeSequenceRepo) Lock(ctx context.Context, prefix string) error {
	s.locked = append(s.locked, prefix)
	return nil
}

func (s *fakeSequenceRepo) HighestCode(ctx context.Context, table, prefix string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	codes := append([]string(nil), s.codes...)
	if s.requests != nil {
		s.requests.mu.Lock()
		for _, rows := range s.requests.rows {
			for _, r := range rows {
				codes = append(codes, r.FormCode)
			}
		}
		s.requests.mu.Unlock()
	}

	pattern := regexp.MustCompile(repository.CodePattern(prefix))
	var matching []string
	for _, c := range codes {
		if pattern.MatchString(c) {
			matching = append(matching, c)
		}
	}
	if len(matching) == 0 {
		return "", nil
	}
	sort.Slice(matching, func(i, j int) bool {
		if len(matching[i]) != len(matching[j]) {
			return len(matching[i]) > len(matching[j])
		}
		return matching[i] > matching[j]
	})
	return matching[0], nil
}

type fakeStatusLogRepo struct {
	mu   sync.Mutex
	logs []model.StatusLog
	err  error
}

func (f *fakeStatusLogRepo) Log(ctx context.Context, entry *model.StatusLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.logs = append(f.logs, *entry)
	return nil
}

func (f *fakeStatusLogRepo) ListByRequest(ctx context.Context, formType string, requestID int64) ([]model.StatusLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.StatusLog{}
	for _, l := range f.logs {
		if l.FormType == formType && l.RequestID == requestID {
			out = append(out, l)
		}
	}
	return out, nil
}

// fakeTxManager restores the fake stores when fn fails, like a rollback.
type fakeTxManager struct {
	requests *fakeRequestRepo
	logs     *fakeStatusLogRepo
	calls    int
}

func (t *fakeTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	t.calls++
	rows, nextID := t.requests.snapshot()
	t.logs.mu.Lock()
	logs := append([]model.StatusLog(nil), t.logs.logs...)
	t.logs.mu.Unlock()

	if err := fn(ctx); err != nil {
		t.requests.restore(rows, nextID)
		t.logs.mu.Lock()
		t.logs.logs = logs
		t.logs.mu.Unlock()
		return err
	}
	return nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (n *recordingNotifier) Notify(ctx context.Context, ev Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
	return n.err
}

type fixture struct {
	requests *fakeRequestRepo
	logs     *fakeStatusLogRepo
	seq      *fakeSequenceRepo
	tx       *fakeTxManager
	notifier *recordingNotifier
	now      time.Time

	service RequestService
	machine StatusMachine
}

func newFixture() *fixture {
	f := &fixture{
		requests: newFakeRequestRepo(),
		logs:     &fakeStatusLogRepo{},
		notifier: &recordingNotifier{},
		now:      time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC),
	}
	f.seq = &fakeSequenceRepo{requests: f.requests}
	f.tx = &fakeTxManager{requests: f.requests, logs: f.logs}
	clock := func() time.Time { return f.now }

	svc := NewRequestService(f.tx, f.requests, f.logs, NewCodeSequencer(f.seq, clock), f.notifier, nil)
	svc.(*requestService).now = clock
	f.service = svc
	f.machine = NewStatusMachine(f.tx, f.requests, f.logs, f.notifier, nil, clock)
	return f
}

func mustForm(key string) model.FormType {
	f, ok := model.LookupForm(key)
	if !ok {
		panic("unknown form " + key)
	}
	return f
}

func purchaseInput(items ...map[string]interface{}) CreateRequestInput {
	return CreateRequestInput{
		Fields: map[string]interface{}{
			"requester_name": "Maria Santos",
			"branch":         "Makati",
			"department":     "Operations",
			"purpose":        "Office supplies",
		},
		Items: items,
		Actor: Actor{UserID: "u-1", Name: "Maria Santos", Role: model.RoleEmployee},
	}
}
