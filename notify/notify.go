// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package notify delivers notifications raised by request handlers, such as
// delegation conflicts that need the member's attention.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"

	"github.com/danielhkuo/quorum/models"
)

var ErrNoRecipient = errors.New("notification has no recipient")

// Notifier sends a notification to its recipient.
type Notifier interface {
	Notify(ctx context.Context, n models.Notification) error
}

// LogNotifier writes notifications to a structured logger. It stands in for
// email/SMS delivery.
type LogNotifier struct {
	Logger *slog.Logger
}

func (l LogNotifier) Notify(ctx context.Context, n models.Notification) error {
	if n.Recipient == "" {
		return ErrNoRecipient
	}
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "notification",
		"type", n.Type,
		"recipient", n.Recipient,
		"message", n.Message,
	)
	return nil
}

// Recorder keeps notifications in memory.
type Recorder struct {
	mu   sync.Mutex
	sent []models.Notification
}

func (r *Recorder) Notify(_ context.Context, n models.Notification) error {
	if n.Recipient == "" {
		return ErrNoRecipient
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
	return nil
}

// Sent returns a copy of the recorded notifications.
func (r *Recorder) Sent() []models.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Notification(nil), r.sent...)
}

var textPolicy = bluemonday.StrictPolicy()

// DelegationConflict builds the notification for a conflicted recommendation.
// Delegate ids are user-supplied, so markup is stripped from the message.
func DelegationConflict(memberID string, rec models.Recommendation) models.Notification {
	var names []string
	seen := make(map[string]bool)
	for _, s := range rec.Suggestions {
		if s.Priority != rec.Suggestions[0].Priority {
			break
		}
		if !seen[s.DelegateID] {
			seen[s.DelegateID] = true
			names = append(names, s.DelegateID)
		}
	}

	msg := fmt.Sprintf("Your groups suggest different delegates for topic %s: %s.", rec.Topic, strings.Join(names, ", "))
	if rec.Chosen == nil {
		msg += " Please choose one."
	} else {
		msg += fmt.Sprintf(" %s was chosen by priority.", rec.Chosen.DelegateID)
	}

	return models.Notification{
		Type:      models.NotificationDelegationConflict,
		Recipient: memberID,
		Message:   textPolicy.Sanitize(msg),
	}
}
