package service

import (
	"context"
	"fmt"
	"strings"

	"bintobloom/internal/model"
	"bintobloom/internal/repository"

	"github.com/shopspring/decimal"
)

type CollectorStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=ACTIVE BUSY"`
}

type LocationRequest struct {
	Latitude  float64 `json:"latitude" binding:"min=-90,max=90"`
	Longitude float64 `json:"longitude" binding:"min=-180,max=180"`
}

type CollectorProfile struct {
	ID         string       `json:"id"`
	User       UserResponse `json:"user"`
	Status     string       `json:"status"`
	CurrentLat *float64     `json:"current_lat"`
	CurrentLng *float64     `json:"current_lng"`
}

type CollectorDashboard struct {
	Pending   int64 `json:"pending"`
	Assigned  int64 `json:"assigned"`
	Completed int64 `json:"completed"`
	Available int   `json:"available"`
}

type CollectorService interface {
	Dashboard(ctx context.Context, actor Actor) (CollectorDashboard, error)
	Profile(ctx context.Context, actor Actor) (CollectorProfile, error)
	UpdateProfile(ctx context.Context, actor Actor, req UpdateProfileRequest) (CollectorProfile, error)
	UpdateStatus(ctx context.Context, actor Actor, req CollectorStatusRequest) (CollectorProfile, error)
	UpdateLocation(ctx context.Context, actor Actor, req LocationRequest) (CollectorProfile, error)
}

type collectorService struct {
	repos *repository.Repositories
}

// Dashboard counts the collector's own pickups by status, plus the open pool size.
func (s *collectorService) Dashboard(ctx context.Context, actor Actor) (CollectorDashboard, error) {
	c, err := s.repos.Collectors.FindByUserID(ctx, actor.ID)
	if err != nil {
		return CollectorDashboard{}, lookup(err, "collector")
	}
	counts, err := s.repos.Pickups.CountByCollector(ctx, c.ID)
	if err != nil {
		return CollectorDashboard{}, fmt.Errorf("failed to count pickups: %w", err)
	}
	available, err := s.repos.Pickups.ListAvailable(ctx)
	if err != nil {
		return CollectorDashboard{}, fmt.Errorf("failed to count available pickups: %w", err)
	}
	return CollectorDashboard{
		Pending:   counts[model.PickupPending],
		Assigned:  counts[model.PickupAssigned],
		Completed: counts[model.PickupCompleted],
		Available: len(available),
	}, nil
}

func (s *collectorService) Profile(ctx context.Context, actor Actor) (CollectorProfile, error) {
	c, err := s.repos.Collectors.FindByUserID(ctx, actor.ID)
	if err != nil {
		return CollectorProfile{}, lookup(err, "collector")
	}
	return toCollectorProfile(c), nil
}

func (s *collectorService) UpdateProfile(ctx context.Context, actor Actor, req UpdateProfileRequest) (CollectorProfile, error) {
	if err := updateAccount(ctx, s.repos.Users, actor, req); err != nil {
		return CollectorProfile{}, err
	}
	return s.Profile(ctx, actor)
}

func (s *collectorService) UpdateStatus(ctx context.Context, actor Actor, req CollectorStatusRequest) (CollectorProfile, error) {
	status := strings.ToUpper(req.Status)
	if status != model.CollectorActive && status != model.CollectorBusy {
		return CollectorProfile{}, validationErrorf("status must be ACTIVE or BUSY")
	}
	return s.update(ctx, actor, func(c *model.Collector) { c.Status = status })
}

func (s *collectorService) UpdateLocation(ctx context.Context, actor Actor, req LocationRequest) (CollectorProfile, error) {
	lat, lng := decimal.NewFromFloat(req.Latitude), decimal.NewFromFloat(req.Longitude)
	return s.update(ctx, actor, func(c *model.Collector) {
		c.CurrentLat = &lat
		c.CurrentLng = &lng
	})
}

func (s *collectorService) update(ctx context.Context, actor Actor, apply func(*model.Collector)) (CollectorProfile, error) {
	c, err := s.repos.Collectors.FindByUserID(ctx, actor.ID)
	if err != nil {
		return CollectorProfile{}, lookup(err, "collector")
	}
	apply(c)
	if err := s.repos.Collectors.Update(ctx, c); err != nil {
		return CollectorProfile{}, fmt.Errorf("failed to update collector: %w", err)
	}
	return toCollectorProfile(c), nil
}

func toCollectorProfile(c *model.Collector) CollectorProfile {
	return CollectorProfile{
		ID:         c.ID.String(),
		User:       mapToResponse(&c.User),
		Status:     c.Status,
		CurrentLat: floatPtr(c.CurrentLat),
		CurrentLng: floatPtr(c.CurrentLng),
	}
}
