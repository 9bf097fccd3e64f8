package service

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMultiNotifierFansOut(t *testing.T) {
	ok := &recordingNotifier{}
	failing := &recordingNotifier{err: errBoom}
	m := MultiNotifier{ok, nil, failing}

	ev := newEvent(EventRequestCreated, time.Now())
	err := m.Notify(context.Background(), ev)
	if !errors.Is(err, errBoom) {
		t.Errorf("Expected the failure to be joined, got %v", err)
	}
	if len(ok.events) != 1 || len(failing.events) != 1 {
		t.Error("Expected every notifier to receive the event")
	}
	if ok.events[0].ID != ev.ID {
		t.Error("Expected the same event id everywhere")
	}
}

func TestErrorKinds(t *testing.T) {
	if KindOf(errBoom) != KindInternal || PublicMessage(errBoom) != MsgLoadFailed {
		t.Error("Expected plain errors to be internal with a generic message")
	}

	wrapped := conflictError(errBoom, "code %s taken", "PR-2025-000001")
	if !errors.Is(wrapped, errBoom) {
		t.Error("Expected Unwrap to expose the cause")
	}
	if PublicMessage(wrapped) != "code PR-2025-000001 taken" {
		t.Errorf("Unexpected message %q", PublicMessage(wrapped))
	}
}
