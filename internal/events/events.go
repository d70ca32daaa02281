// Package events carries pickup and payment domain events to interested sinks.
package events

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

type Type string

const (
	PickupCreated       Type = "pickup.created"
	PickupUpdated       Type = "pickup.updated"
	PickupDeleted       Type = "pickup.deleted"
	PickupAssigned      Type = "pickup.assigned"
	PickupRejected      Type = "pickup.rejected"
	PickupStatusChanged Type = "pickup.status_changed"
	PickupCompleted     Type = "pickup.completed"
	BillGenerated       Type = "payment.bill_generated"
	PaymentVerified     Type = "payment.verified"
)

// Event is the JSON document published for every pickup state change.
type Event struct {
	Type        Type      `json:"type"`
	PickupID    string    `json:"pickup_id,omitempty"`
	PaymentID   string    `json:"payment_id,omitempty"`
	UserID      string    `json:"user_id,omitempty"`
	CollectorID string    `json:"collector_id,omitempty"`
	Status      string    `json:"status,omitempty"`
	WasteType   string    `json:"waste_type,omitempty"`
	City        string    `json:"city,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	ScheduledAt time.Time `json:"scheduled_at,omitempty"`
	Points      int       `json:"points,omitempty"`
	Amount      string    `json:"amount,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// Key is the partition key used by brokers.
func (e Event) Key() string {
	if e.PickupID != "" {
		return e.PickupID
	}
	return e.PaymentID
}

// Publisher delivers events. Callers treat failures as non-fatal.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Fanout publishes to every sink and joins their errors.
type Fanout struct {
	sinks []Publisher
	log   *slog.Logger
}

func NewFanout(log *slog.Logger, sinks ...Publisher) *Fanout {
	return &Fanout{sinks: sinks, log: log}
}

// Add registers another sink. Not safe once publishing has started.
func (f *Fanout) Add(p Publisher) {
	f.sinks = append(f.sinks, p)
}

func (f *Fanout) Publish(ctx context.Context, e Event) error {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	var errs []error
	for _, sink := range f.sinks {
		if err := sink.Publish(ctx, e); err != nil {
			f.log.Warn("event sink failed", "type", e.Type, "key", e.Key(), "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
