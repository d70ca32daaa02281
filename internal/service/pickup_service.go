package service

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"bintobloom/internal/events"
	"bintobloom/internal/metrics"
	"bintobloom/internal/model"
	"bintobloom/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SameDayLeadTime is the minimum notice for a pickup scheduled today.
const SameDayLeadTime = 2 * time.Hour

var (
	wasteTypePattern = regexp.MustCompile(`^[A-Z][A-Z_\-]{1,49}$`)
	minCompleteKg    = decimal.RequireFromString("0.1")
	maxCompleteKg    = decimal.NewFromInt(1000)
)

// --- DTOs ---

// PickupInput schedules or reschedules a pickup. Date is YYYY-MM-DD and time HH:MM in the
// service's local zone.
type PickupInput struct {
	WasteType       string   `json:"waste_type" binding:"required,max=50"`
	ScheduledDate   string   `json:"scheduled_date" binding:"required"`
	ScheduledTime   string   `json:"scheduled_time" binding:"required"`
	Notes           string   `json:"notes" binding:"max=500"`
	PickupFrequency string   `json:"pickup_frequency" binding:"omitempty,oneof=DAILY WEEKLY MONTHLY"`
	Latitude        *float64 `json:"latitude" binding:"omitempty,min=-90,max=90"`
	Longitude       *float64 `json:"longitude" binding:"omitempty,min=-180,max=180"`
}

type CompletePickupRequest struct {
	WeightKg string `json:"weight_kg" binding:"required"`
	PhotoURL string `json:"photo_url" binding:"omitempty,url,max=500"`
	Notes    string `json:"notes" binding:"max=500"`
}

type TrackingInput struct {
	Latitude  float64 `json:"latitude" binding:"min=-90,max=90"`
	Longitude float64 `json:"longitude" binding:"min=-180,max=180"`
}

type PickupFilter struct {
	Status string
	Page   int
	Limit  int
}

type PickupResponse struct {
	ID              string   `json:"id"`
	UserID          string   `json:"user_id"`
	RequesterName   string   `json:"requester_name"`
	RequesterRole   string   `json:"requester_role"`
	Address         string   `json:"address"`
	City            string   `json:"city"`
	CollectorID     *string  `json:"collector_id"`
	CollectorName   string   `json:"collector_name,omitempty"`
	WasteType       string   `json:"waste_type"`
	ScheduledAt     string   `json:"scheduled_at"`
	Notes           string   `json:"notes"`
	PickupFrequency string   `json:"pickup_frequency"`
	Latitude        *float64 `json:"latitude"`
	Longitude       *float64 `json:"longitude"`
	Status          string   `json:"status"`
	CreatedAt       string   `json:"created_at"`
	UpdatedAt       string   `json:"updated_at"`
}

type CompletionResponse struct {
	PickupID         string `json:"pickup_id"`
	Status           string `json:"status"`
	WeightKg         string `json:"weight_kg,omitempty"`
	PointsEarned     int    `json:"points_earned"`
	AlreadyCompleted bool   `json:"already_completed"`
}

type TrackingResponse struct {
	ID        string  `json:"id"`
	PickupID  string  `json:"pickup_id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timestamp string  `json:"timestamp"`
}

// --- Interface ---

// PickupService owns the pickup lifecycle:
//
//	PENDING -> ASSIGNED -> (PAYMENT_PENDING -> PAID) | COMPLETED
//
// with ASSIGNED -> PENDING as the only backward move (reject).
type PickupService interface {
	Create(ctx context.Context, actor Actor, req PickupInput) (PickupResponse, error)
	Get(ctx context.Context, actor Actor, id string) (PickupResponse, error)
	Update(ctx context.Context, actor Actor, id string, req PickupInput) (PickupResponse, error)
	Delete(ctx context.Context, actor Actor, id string) error
	ListMine(ctx context.Context, actor Actor, filter PickupFilter) ([]PickupResponse, int64, error)
	ListAll(ctx context.Context, filter PickupFilter) ([]PickupResponse, int64, error)
	ListAvailable(ctx context.Context) ([]PickupResponse, error)
	ListAssigned(ctx context.Context, actor Actor, filter PickupFilter) ([]PickupResponse, int64, error)

	Assign(ctx context.Context, actor Actor, id, collectorID string) (PickupResponse, error)
	Accept(ctx context.Context, actor Actor, id string) (PickupResponse, error)
	Reject(ctx context.Context, actor Actor, id string) (PickupResponse, error)
	UpdateStatus(ctx context.Context, actor Actor, id, status string) (PickupResponse, error)
	Complete(ctx context.Context, actor Actor, id string, req CompletePickupRequest) (CompletionResponse, error)
	Finalize(ctx context.Context, actor Actor, id string) (CompletionResponse, error)

	AddTracking(ctx context.Context, actor Actor, id string, req TrackingInput) (TrackingResponse, error)
	ListTracking(ctx context.Context, actor Actor, id string) ([]TrackingResponse, error)
}

type pickupService struct {
	repos     *repository.Repositories
	completer *completer
	publisher events.Publisher
	clock     Clock
	log       *slog.Logger
}

func newPickupService(repos *repository.Repositories, completer *completer, publisher events.Publisher, clock Clock, log *slog.Logger) *pickupService {
	return &pickupService{repos: repos, completer: completer, publisher: publisher, clock: clock, log: log}
}

// --- Scheduling ---

// parseSchedule validates the requested slot: not before today, and on today at least
// SameDayLeadTime from now. The result is in UTC.
func (s *pickupService) parseSchedule(date, clock string) (time.Time, error) {
	loc := s.clock.Location
	day, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(date), loc)
	if err != nil {
		return time.Time{}, validationErrorf("scheduled_date must be formatted YYYY-MM-DD")
	}
	hm, err := time.Parse("15:04", strings.TrimSpace(clock))
	if err != nil {
		return time.Time{}, validationErrorf("scheduled_time must be formatted HH:MM")
	}

	at := time.Date(day.Year(), day.Month(), day.Day(), hm.Hour(), hm.Minute(), 0, 0, loc)
	now := s.clock.Now().In(loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)

	if day.Before(today) {
		return time.Time{}, validationErrorf("scheduled date cannot be in the past")
	}
	if day.Equal(today) && at.Before(now.Add(SameDayLeadTime)) {
		return time.Time{}, validationErrorf("same-day pickups must be scheduled at least 2 hours from now")
	}
	return at.UTC(), nil
}

func normalizeWasteType(raw string) (string, error) {
	wt := strings.ToUpper(strings.TrimSpace(raw))
	if !wasteTypePattern.MatchString(wt) {
		return "", validationErrorf("waste_type must be an upper-case waste category such as FOOD or E-WASTE")
	}
	return wt, nil
}

func (s *pickupService) applyInput(p *model.PickupRequest, req PickupInput) error {
	wasteType, err := normalizeWasteType(req.WasteType)
	if err != nil {
		return err
	}
	at, err := s.parseSchedule(req.ScheduledDate, req.ScheduledTime)
	if err != nil {
		return err
	}
	if (req.Latitude == nil) != (req.Longitude == nil) {
		return validationErrorf("latitude and longitude must be provided together")
	}

	p.WasteType = wasteType
	p.ScheduledAt = at
	p.Notes = strings.TrimSpace(req.Notes)
	p.PickupFrequency = req.PickupFrequency
	p.Latitude = decimalPtr(req.Latitude)
	p.Longitude = decimalPtr(req.Longitude)
	return nil
}

// --- Requester operations ---

func (s *pickupService) Create(ctx context.Context, actor Actor, req PickupInput) (PickupResponse, error) {
	if actor.Role != model.RoleHousehold && actor.Role != model.RoleBusiness {
		return PickupResponse{}, forbiddenf("only households and businesses can request pickups")
	}

	pickup := &model.PickupRequest{UserID: actor.ID, Status: model.PickupPending}
	if err := s.applyInput(pickup, req); err != nil {
		return PickupResponse{}, err
	}

	err := s.repos.Transaction.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repos.Pickups.Create(txCtx, pickup); err != nil {
			return fmt.Errorf("failed to create pickup: %w", err)
		}
		return writeAudit(txCtx, s.repos.Audit, &actor.ID, model.ActionCreatePickup, pickup.ID.String(), pickup.WasteType, map[string]any{
			"scheduled_at": formatTime(pickup.ScheduledAt),
		})
	})
	if err != nil {
		return PickupResponse{}, err
	}

	metrics.PickupsCreated.Inc()
	return s.reloadAndPublish(ctx, events.PickupCreated, pickup.ID)
}

func (s *pickupService) Get(ctx context.Context, actor Actor, id string) (PickupResponse, error) {
	pickupID, err := parseID(id, "pickup")
	if err != nil {
		return PickupResponse{}, err
	}
	pickup, err := s.repos.Pickups.FindByID(ctx, pickupID)
	if err != nil {
		return PickupResponse{}, lookup(err, "pickup")
	}
	if err := s.canView(ctx, actor, pickup); err != nil {
		return PickupResponse{}, err
	}
	return toPickupResponse(pickup), nil
}

func (s *pickupService) Update(ctx context.Context, actor Actor, id string, req PickupInput) (PickupResponse, error) {
	pickupID, err := parseID(id, "pickup")
	if err != nil {
		return PickupResponse{}, err
	}

	err = s.repos.Transaction.RunInTx(ctx, func(txCtx context.Context) error {
		pickup, err := s.repos.Pickups.FindByIDForUpdate(txCtx, pickupID)
		if err != nil {
			return lookup(err, "pickup")
		}
		if pickup.UserID != actor.ID {
			return forbiddenf("you can only edit your own pickups")
		}
		if pickup.Status != model.PickupPending {
			return stateErrorf("only pending pickups can be updated")
		}
		if err := s.applyInput(pickup, req); err != nil {
			return err
		}
		if err := s.repos.Pickups.Update(txCtx, pickup); err != nil {
			return fmt.Errorf("failed to update pickup: %w", err)
		}
		return nil
	})
	if err != nil {
		return PickupResponse{}, err
	}
	return s.reloadAndPublish(ctx, events.PickupUpdated, pickupID)
}

func (s *pickupService) Delete(ctx context.Context, actor Actor, id string) error {
	pickupID, err := parseID(id, "pickup")
	if err != nil {
		return err
	}

	var deleted *model.PickupRequest
	err = s.repos.Transaction.RunInTx(ctx, func(txCtx context.Context) error {
		pickup, err := s.repos.Pickups.FindByIDForUpdate(txCtx, pickupID)
		if err != nil {
			return lookup(err, "pickup")
		}
		if pickup.UserID != actor.ID {
			return forbiddenf("you can only delete your own pickups")
		}
		if pickup.Status != model.PickupPending {
			return stateErrorf("only pending pickups can be deleted")
		}
		if err := s.repos.Pickups.Delete(txCtx, pickup.ID); err != nil {
			return fmt.Errorf("failed to delete pickup: %w", err)
		}
		deleted = pickup
		return writeAudit(txCtx, s.repos.Audit, &actor.ID, model.ActionDeletePickup, pickup.ID.String(), pickup.WasteType, nil)
	})
	if err != nil {
		return err
	}
	s.publish(ctx, pickupEvent(events.PickupDeleted, deleted))
	return nil
}

func (s *pickupService) ListMine(ctx context.Context, actor Actor, filter PickupFilter) ([]PickupResponse, int64, error) {
	return s.list(ctx, repository.PickupFilter{UserID: &actor.ID}, filter)
}

func (s *pickupService) ListAll(ctx context.Context, filter PickupFilter) ([]PickupResponse, int64, error) {
	return s.list(ctx, repository.PickupFilter{}, filter)
}

func (s *pickupService) list(ctx context.Context, base repository.PickupFilter, filter PickupFilter) ([]PickupResponse, int64, error) {
	if filter.Status != "" {
		st, ok := model.ParsePickupStatus(strings.ToUpper(filter.Status))
		if !ok {
			return nil, 0, validationErrorf("unknown pickup status %q", filter.Status)
		}
		base.Status = st
	}
	base.Page, base.Limit = filter.Page, filter.Limit

	pickups, total, err := s.repos.Pickups.List(ctx, base)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch pickups: %w", err)
	}
	out := make([]PickupResponse, 0, len(pickups))
	for i := range pickups {
		out = append(out, toPickupResponse(&pickups[i]))
	}
	return out, total, nil
}

// --- Collector and admin operations ---

func (s *pickupService) ListAvailable(ctx context.Context) ([]PickupResponse, error) {
	pickups, err := s.repos.Pickups.ListAvailable(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch available pickups: %w", err)
	}
	out := make([]PickupResponse, 0, len(pickups))
	for i := range pickups {
		out = append(out, toPickupResponse(&pickups[i]))
	}
	return out, nil
}

func (s *pickupService) ListAssigned(ctx context.Context, actor Actor, filter PickupFilter) ([]PickupResponse, int64, error) {
	collector, err := s.repos.Collectors.FindByUserID(ctx, actor.ID)
	if err != nil {
		return nil, 0, lookup(err, "collector")
	}
	return s.list(ctx, repository.PickupFilter{CollectorID: &collector.ID}, filter)
}

func (s *pickupService) Assign(ctx context.Context, actor Actor, id, collectorID string) (PickupResponse, error) {
	pickupID, err := parseID(id, "pickup")
	if err != nil {
		return PickupResponse{}, err
	}
	cid, err := parseID(collectorID, "collector")
	if err != nil {
		return PickupResponse{}, err
	}

	err = s.repos.Transaction.RunInTx(ctx, func(txCtx context.Context) error {
		collector, err := s.repos.Collectors.FindByID(txCtx, cid)
		if err != nil {
			return lookup(err, "collector")
		}
		pickup, err := s.repos.Pickups.FindByIDForUpdate(txCtx, pickupID)
		if err != nil {
			return lookup(err, "pickup")
		}
		if pickup.Status != model.PickupPending && pickup.Status != model.PickupAssigned {
			return stateErrorf("cannot assign a pickup in status %s", pickup.Status)
		}
		return s.assign(txCtx, actor, pickup, collector)
	})
	if err != nil {
		return PickupResponse{}, err
	}
	return s.reloadAndPublish(ctx, events.PickupAssigned, pickupID)
}

// Accept lets a collector claim an unassigned PENDING pickup.
func (s *pickupService) Accept(ctx context.Context, actor Actor, id string) (PickupResponse, error) {
	pickupID, err := parseID(id, "pickup")
	if err != nil {
		return PickupResponse{}, err
	}

	err = s.repos.Transaction.RunInTx(ctx, func(txCtx context.Context) error {
		collector, err := s.repos.Collectors.FindByUserID(txCtx, actor.ID)
		if err != nil {
			return lookup(err, "collector")
		}
		pickup, err := s.repos.Pickups.FindByIDForUpdate(txCtx, pickupID)
		if err != nil {
			return lookup(err, "pickup")
		}
		if pickup.Status != model.PickupPending || pickup.CollectorID != nil {
			return stateErrorf("pickup is no longer available")
		}
		return s.assign(txCtx, actor, pickup, collector)
	})
	if err != nil {
		return PickupResponse{}, err
	}
	return s.reloadAndPublish(ctx, events.PickupAssigned, pickupID)
}

func (s *pickupService) assign(ctx context.Context, actor Actor, pickup *model.PickupRequest, collector *model.Collector) error {
	pickup.CollectorID = &collector.ID
	pickup.Status = model.PickupAssigned
	if err := s.repos.Pickups.Update(ctx, pickup); err != nil {
		return fmt.Errorf("failed to assign pickup: %w", err)
	}
	return writeAudit(ctx, s.repos.Audit, &actor.ID, model.ActionAssignPickup, pickup.ID.String(), pickup.WasteType, map[string]any{
		"collector_id": collector.ID.String(),
	})
}

// Reject hands an ASSIGNED pickup back to the pool.
func (s *pickupService) Reject(ctx context.Context, actor Actor, id string) (PickupResponse, error) {
	pickupID, err := parseID(id, "pickup")
	if err != nil {
		return PickupResponse{}, err
	}

	err = s.repos.Transaction.RunInTx(ctx, func(txCtx context.Context) error {
		pickup, err := s.repos.Pickups.FindByIDForUpdate(txCtx, pickupID)
		if err != nil {
			return lookup(err, "pickup")
		}
		if pickup.Status != model.PickupAssigned {
			return stateErrorf("only assigned pickups can be rejected")
		}
		if err := s.requireAssignedCollector(txCtx, actor, pickup); err != nil {
			return err
		}
		return s.unassign(txCtx, actor, pickup)
	})
	if err != nil {
		return PickupResponse{}, err
	}
	return s.reloadAndPublish(ctx, events.PickupRejected, pickupID)
}

func (s *pickupService) unassign(ctx context.Context, actor Actor, pickup *model.PickupRequest) error {
	previous := ""
	if pickup.CollectorID != nil {
		previous = pickup.CollectorID.String()
	}
	pickup.CollectorID = nil
	pickup.Collector = nil
	pickup.Status = model.PickupPending
	if err := s.repos.Pickups.Update(ctx, pickup); err != nil {
		return fmt.Errorf("failed to reject pickup: %w", err)
	}
	return writeAudit(ctx, s.repos.Audit, &actor.ID, model.ActionRejectPickup, pickup.ID.String(), pickup.WasteType, map[string]any{
		"collector_id": previous,
	})
}

// UpdateStatus is the generic transition endpoint. It only reaches PENDING and PAID;
// assignment, bills and completions have dedicated operations with their own side effects.
func (s *pickupService) UpdateStatus(ctx context.Context, actor Actor, id, status string) (PickupResponse, error) {
	pickupID, err := parseID(id, "pickup")
	if err != nil {
		return PickupResponse{}, err
	}
	target, ok := model.ParsePickupStatus(strings.ToUpper(strings.TrimSpace(status)))
	if !ok {
		return PickupResponse{}, validationErrorf("unknown pickup status %q", status)
	}
	switch target {
	case model.PickupAssigned:
		return PickupResponse{}, validationErrorf("use assign or accept to give a pickup a collector")
	case model.PickupCompleted:
		return PickupResponse{}, validationErrorf("use the complete operation to finish a pickup")
	case model.PickupPaymentPending:
		return PickupResponse{}, validationErrorf("use generate-bill to request payment")
	}

	err = s.repos.Transaction.RunInTx(ctx, func(txCtx context.Context) error {
		pickup, err := s.repos.Pickups.FindByIDForUpdate(txCtx, pickupID)
		if err != nil {
			return lookup(err, "pickup")
		}
		if err := s.requireAssignedCollector(txCtx, actor, pickup); err != nil {
			return err
		}
		if !model.CanTransition(pickup.Status, target) {
			return stateErrorf("cannot move pickup from %s to %s", pickup.Status, target)
		}
		if target == model.PickupPending {
			return s.unassign(txCtx, actor, pickup)
		}

		from := pickup.Status
		pickup.Status = target
		if err := s.repos.Pickups.Update(txCtx, pickup); err != nil {
			return fmt.Errorf("failed to update pickup status: %w", err)
		}
		return writeAudit(txCtx, s.repos.Audit, &actor.ID, model.ActionUpdatePickupState, pickup.ID.String(), pickup.WasteType, map[string]any{
			"from": from,
			"to":   target,
		})
	})
	if err != nil {
		return PickupResponse{}, err
	}
	return s.reloadAndPublish(ctx, events.PickupStatusChanged, pickupID)
}

// Complete records the collected weight and finalizes the pickup in one step.
func (s *pickupService) Complete(ctx context.Context, actor Actor, id string, req CompletePickupRequest) (CompletionResponse, error) {
	pickupID, err := parseID(id, "pickup")
	if err != nil {
		return CompletionResponse{}, err
	}
	weight, err := parseWeight(req.WeightKg, minCompleteKg, maxCompleteKg)
	if err != nil {
		return CompletionResponse{}, err
	}

	var result completionResult
	err = s.repos.Transaction.RunInTx(ctx, func(txCtx context.Context) error {
		pickup, err := s.repos.Pickups.FindByIDForUpdate(txCtx, pickupID)
		if err != nil {
			return lookup(err, "pickup")
		}
		if err := s.requireAssignedCollector(txCtx, actor, pickup); err != nil {
			return err
		}
		switch pickup.Status {
		case model.PickupAssigned:
		case model.PickupCompleted:
			return stateErrorf("pickup is already completed")
		case model.PickupPaymentPending:
			return stateErrorf("pickup is awaiting payment and completes when the bill is paid")
		case model.PickupPaid:
			return stateErrorf("pickup is paid; finalize it instead")
		default:
			return stateErrorf("only assigned pickups can be completed")
		}

		if err := s.repos.WasteLogs.Create(txCtx, &model.WasteLog{
			PickupID:    pickup.ID,
			WasteType:   pickup.WasteType,
			WeightKg:    weight,
			CollectedAt: s.clock.Now().UTC(),
			PhotoURL:    req.PhotoURL,
			Notes:       strings.TrimSpace(req.Notes),
		}); err != nil {
			return fmt.Errorf("failed to record waste log: %w", err)
		}

		result, err = s.completer.finalize(txCtx, pickup, &actor.ID)
		return err
	})
	if err != nil {
		return CompletionResponse{}, err
	}

	s.publishCompleted(ctx, pickupID, result.Points)
	return CompletionResponse{
		PickupID:     pickupID.String(),
		Status:       string(model.PickupCompleted),
		WeightKg:     weight.StringFixed(2),
		PointsEarned: result.Points,
	}, nil
}

// Finalize completes a PAID or PAYMENT_PENDING pickup settled outside the gateway.
// Finalizing an already COMPLETED pickup is a successful no-op.
func (s *pickupService) Finalize(ctx context.Context, actor Actor, id string) (CompletionResponse, error) {
	pickupID, err := parseID(id, "pickup")
	if err != nil {
		return CompletionResponse{}, err
	}

	var result completionResult
	err = s.repos.Transaction.RunInTx(ctx, func(txCtx context.Context) error {
		pickup, err := s.repos.Pickups.FindByIDForUpdate(txCtx, pickupID)
		if err != nil {
			return lookup(err, "pickup")
		}
		if pickup.Status != model.PickupCompleted && pickup.Status != model.PickupPaid && pickup.Status != model.PickupPaymentPending {
			return stateErrorf("only billed pickups can be finalized")
		}
		result, err = s.completer.finalize(txCtx, pickup, &actor.ID)
		return err
	})
	if err != nil {
		return CompletionResponse{}, err
	}

	if !result.AlreadyCompleted {
		s.publishCompleted(ctx, pickupID, result.Points)
	}
	return CompletionResponse{
		PickupID:         pickupID.String(),
		Status:           string(model.PickupCompleted),
		PointsEarned:     result.Points,
		AlreadyCompleted: result.AlreadyCompleted,
	}, nil
}

// --- Tracking ---

func (s *pickupService) AddTracking(ctx context.Context, actor Actor, id string, req TrackingInput) (TrackingResponse, error) {
	pickupID, err := parseID(id, "pickup")
	if err != nil {
		return TrackingResponse{}, err
	}

	entry := &model.TrackingLog{
		PickupID:  pickupID,
		Latitude:  decimal.NewFromFloat(req.Latitude),
		Longitude: decimal.NewFromFloat(req.Longitude),
		Timestamp: s.clock.Now().UTC(),
	}
	err = s.repos.Transaction.RunInTx(ctx, func(txCtx context.Context) error {
		pickup, err := s.repos.Pickups.FindByID(txCtx, pickupID)
		if err != nil {
			return lookup(err, "pickup")
		}
		collector, err := s.repos.Collectors.FindByUserID(txCtx, actor.ID)
		if err != nil {
			return lookup(err, "collector")
		}
		if pickup.CollectorID == nil || *pickup.CollectorID != collector.ID {
			return forbiddenf("pickup is not assigned to you")
		}
		if pickup.Status == model.PickupCompleted {
			return stateErrorf("pickup is already completed")
		}
		if err := s.repos.Tracking.Append(txCtx, entry); err != nil {
			return fmt.Errorf("failed to record tracking: %w", err)
		}
		collector.CurrentLat = &entry.Latitude
		collector.CurrentLng = &entry.Longitude
		return s.repos.Collectors.Update(txCtx, collector)
	})
	if err != nil {
		return TrackingResponse{}, err
	}
	return toTrackingResponse(entry), nil
}

func (s *pickupService) ListTracking(ctx context.Context, actor Actor, id string) ([]TrackingResponse, error) {
	pickupID, err := parseID(id, "pickup")
	if err != nil {
		return nil, err
	}
	pickup, err := s.repos.Pickups.FindByID(ctx, pickupID)
	if err != nil {
		return nil, lookup(err, "pickup")
	}
	if err := s.canView(ctx, actor, pickup); err != nil {
		return nil, err
	}

	logs, err := s.repos.Tracking.ListByPickup(ctx, pickupID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tracking: %w", err)
	}
	out := make([]TrackingResponse, 0, len(logs))
	for i := range logs {
		out = append(out, toTrackingResponse(&logs[i]))
	}
	return out, nil
}

// --- Guards and helpers ---

// canView admits the requester, the assigned collector and admins.
func (s *pickupService) canView(ctx context.Context, actor Actor, pickup *model.PickupRequest) error {
	if actor.IsAdmin() || pickup.UserID == actor.ID {
		return nil
	}
	if actor.Role == model.RoleCollector {
		return s.requireAssignedCollector(ctx, actor, pickup)
	}
	return forbiddenf("you cannot view this pickup")
}

// requireAssignedCollector admits admins and the collector currently assigned to pickup.
func (s *pickupService) requireAssignedCollector(ctx context.Context, actor Actor, pickup *model.PickupRequest) error {
	if actor.IsAdmin() {
		return nil
	}
	if actor.Role != model.RoleCollector {
		return forbiddenf("only the assigned collector can change this pickup")
	}
	collector, err := s.repos.Collectors.FindByUserID(ctx, actor.ID)
	if err != nil {
		return lookup(err, "collector")
	}
	if pickup.CollectorID == nil || *pickup.CollectorID != collector.ID {
		return forbiddenf("pickup is not assigned to you")
	}
	return nil
}

func (s *pickupService) reloadAndPublish(ctx context.Context, t events.Type, id uuid.UUID) (PickupResponse, error) {
	pickup, err := s.repos.Pickups.FindByID(ctx, id)
	if err != nil {
		return PickupResponse{}, fmt.Errorf("failed to reload pickup: %w", err)
	}
	s.publish(ctx, pickupEvent(t, pickup))
	return toPickupResponse(pickup), nil
}

func (s *pickupService) publishCompleted(ctx context.Context, id uuid.UUID, points int) {
	pickup, err := s.repos.Pickups.FindByID(ctx, id)
	if err != nil {
		s.log.Warn("completed pickup not reloaded for event", "pickup_id", id, "error", err)
		return
	}
	e := pickupEvent(events.PickupCompleted, pickup)
	e.Points = points
	s.publish(ctx, e)
}

func (s *pickupService) publish(ctx context.Context, e events.Event) {
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.log.Warn("event not delivered", "type", e.Type, "pickup_id", e.PickupID, "error", err)
	}
}

func parseWeight(raw string, lo, hi decimal.Decimal) (decimal.Decimal, error) {
	w, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, validationErrorf("weight_kg must be a number")
	}
	if w.LessThan(lo) || w.GreaterThan(hi) {
		return decimal.Zero, validationErrorf("weight_kg must be between %s and %s", lo.String(), hi.String())
	}
	return w, nil
}

func toPickupResponse(p *model.PickupRequest) PickupResponse {
	resp := PickupResponse{
		ID:              p.ID.String(),
		UserID:          p.UserID.String(),
		RequesterName:   p.User.Name,
		RequesterRole:   p.User.Role,
		Address:         p.User.Address,
		City:            p.User.City,
		WasteType:       p.WasteType,
		ScheduledAt:     formatTime(p.ScheduledAt),
		Notes:           p.Notes,
		PickupFrequency: p.PickupFrequency,
		Latitude:        floatPtr(p.Latitude),
		Longitude:       floatPtr(p.Longitude),
		Status:          string(p.Status),
		CreatedAt:       formatTime(p.CreatedAt),
		UpdatedAt:       formatTime(p.UpdatedAt),
	}
	if p.CollectorID != nil {
		cid := p.CollectorID.String()
		resp.CollectorID = &cid
	}
	if p.Collector != nil {
		resp.CollectorName = p.Collector.User.Name
	}
	return resp
}

func toTrackingResponse(t *model.TrackingLog) TrackingResponse {
	return TrackingResponse{
		ID:        t.ID.String(),
		PickupID:  t.PickupID.String(),
		Latitude:  t.Latitude.InexactFloat64(),
		Longitude: t.Longitude.InexactFloat64(),
		Timestamp: formatTime(t.Timestamp),
	}
}
