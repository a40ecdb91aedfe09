// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/danielhkuo/quorum/models"
)

func TestDelegationConflict(t *testing.T) {
	rec := models.Recommendation{
		Topic: "energy",
		Suggestions: []models.Suggestion{
			{DelegateID: "alice", Priority: 5},
			{DelegateID: "<b>bob</b>", Priority: 5},
			{DelegateID: "alice", Priority: 5},
			{DelegateID: "carol", Priority: 1},
		},
		Conflict: true,
	}

	n := DelegationConflict("m1", rec)
	if n.Type != models.NotificationDelegationConflict {
		t.Errorf("type = %q, want delegation_conflict", n.Type)
	}
	if n.Recipient != "m1" {
		t.Errorf("recipient = %q, want m1", n.Recipient)
	}
	if strings.Contains(n.Message, "<b>") {
		t.Errorf("message was not sanitized: %q", n.Message)
	}
	if !strings.Contains(n.Message, "alice, bob") {
		t.Errorf("message should list top delegates once: %q", n.Message)
	}
	if strings.Contains(n.Message, "carol") {
		t.Errorf("message should not list lower-priority delegates: %q", n.Message)
	}
	if !strings.Contains(n.Message, "Please choose one") {
		t.Errorf("unresolved conflict should ask the member: %q", n.Message)
	}

	chosen := rec.Suggestions[0]
	rec.Chosen = &chosen
	if n := DelegationConflict("m1", rec); !strings.Contains(n.Message, "alice was chosen") {
		t.Errorf("resolved conflict should name the choice: %q", n.Message)
	}
}

func TestRecorder(t *testing.T) {
	var r Recorder
	ctx := context.Background()

	if err := r.Notify(ctx, models.Notification{Type: "x"}); !errors.Is(err, ErrNoRecipient) {
		t.Errorf("Notify() error = %v, want ErrNoRecipient", err)
	}
	if err := r.Notify(ctx, models.Notification{Type: "x", Recipient: "m1"}); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}
	if got := r.Sent(); len(got) != 1 || got[0].Recipient != "m1" {
		t.Errorf("Sent() = %+v", got)
	}
}

func TestLogNotifierRequiresRecipient(t *testing.T) {
	if err := (LogNotifier{}).Notify(context.Background(), models.Notification{}); !errors.Is(err, ErrNoRecipient) {
		t.Errorf("Notify() error = %v, want ErrNoRecipient", err)
	}
}
