package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Event types published after a request write commits.
const (
	EventRequestCreated       = "request.created"
	EventRequestStatusChanged = "request.status_changed"
)

// Event describes a committed change to a request.
type Event struct {
	ID         uuid.UUID `json:"id"`
	Type       string    `json:"type"`
	FormType   string    `json:"form_type"`
	RequestID  int64     `json:"request_id"`
	FormCode   string    `json:"form_code"`
	FromStatus string    `json:"from_status,omitempty"`
	ToStatus   string    `json:"to_status"`
	ActorID    string    `json:"actor_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Notifier delivers events to interested parties. Failures are reported but
// never undo the committed write.
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

// MultiNotifier fans an event out to every notifier and joins their errors.
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(ctx context.Context, ev Event) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func newEvent(typ string, now time.Time) Event {
	return Event{ID: uuid.New(), Type: typ, OccurredAt: now}
}
