package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bintobloom/internal/events"
	"bintobloom/internal/model"
	"bintobloom/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Actor is the authenticated caller of a service operation.
type Actor struct {
	ID   uuid.UUID
	Role string
}

func (a Actor) IsAdmin() bool { return a.Role == model.RoleAdmin }

// Clock supplies the current time and the zone used for calendar-day comparisons.
type Clock struct {
	Now      func() time.Time
	Location *time.Location
}

// SystemClock reads the wall clock in loc.
func SystemClock(loc *time.Location) Clock {
	if loc == nil {
		loc = time.Local
	}
	return Clock{Now: time.Now, Location: loc}
}

func parseID(raw, what string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, validationErrorf("invalid %s id", what)
	}
	return id, nil
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339)
}

func decimalPtr(f *float64) *decimal.Decimal {
	if f == nil {
		return nil
	}
	d := decimal.NewFromFloat(*f)
	return &d
}

func floatPtr(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}
	f := d.InexactFloat64()
	return &f
}

// writeAudit appends an audit row with details encoded as JSON. Call it inside the
// transaction that performs the change.
func writeAudit(ctx context.Context, repo repository.AuditRepository, actor *uuid.UUID, action, entityID, entityName string, details map[string]any) error {
	payload, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("failed to encode audit details: %w", err)
	}
	entry := &model.AuditLog{
		UserID:     actor,
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    string(payload),
	}
	if err := repo.Log(ctx, entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

func pickupEvent(t events.Type, p *model.PickupRequest) events.Event {
	e := events.Event{
		Type:        t,
		PickupID:    p.ID.String(),
		UserID:      p.UserID.String(),
		Status:      string(p.Status),
		WasteType:   p.WasteType,
		City:        p.User.City,
		Notes:       p.Notes,
		ScheduledAt: p.ScheduledAt,
	}
	if p.CollectorID != nil {
		e.CollectorID = p.CollectorID.String()
	}
	return e
}
