package notify

import (
	"context"
	"time"

	"go.uber.org/multierr"
)

// EventType labels the watchdog occurrences worth telling a human about.
type EventType string

const (
	EventStatusChange      EventType = "status_change"
	EventRecoveryAttempted EventType = "recovery_attempted"
	EventRecoverySucceeded EventType = "recovery_succeeded"
	EventRecoveryDenied    EventType = "recovery_denied"
)

// Event is a fire-and-forget notification. No ack contract: delivery errors
// are logged by the sender and otherwise ignored.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Detail    string    `json:"detail"`
}

type Notifier interface {
	Send(ctx context.Context, ev Event) error
}

type Multi []Notifier

func (m Multi) Send(ctx context.Context, ev Event) error {
	var errs error
	for _, n := range m {
		if n == nil {
			continue
		}
		errs = multierr.Append(errs, n.Send(ctx, ev))
	}
	return errs
}
