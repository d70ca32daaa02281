package service

import (
	"context"
	"fmt"
	"strings"

	"bintobloom/internal/model"
	"bintobloom/internal/repository"
)

type UpdateBusinessRequest struct {
	UpdateProfileRequest
	BusinessType    string `json:"business_type" binding:"max=100"`
	PickupFrequency string `json:"pickup_frequency" binding:"omitempty,oneof=DAILY WEEKLY MONTHLY"`
}

type BusinessProfile struct {
	User                UserResponse `json:"user"`
	BusinessType        string       `json:"business_type"`
	PickupFrequency     string       `json:"pickup_frequency"`
	SustainabilityScore int          `json:"sustainability_score"`
	PaymentEnabled      bool         `json:"payment_enabled"`
}

type BusinessService interface {
	Profile(ctx context.Context, actor Actor) (BusinessProfile, error)
	UpdateProfile(ctx context.Context, actor Actor, req UpdateBusinessRequest) (BusinessProfile, error)
	EcoPoints(ctx context.Context, actor Actor) (EcoPointsSummary, error)
}

type businessService struct {
	repos     *repository.Repositories
	completer *completer
}

func (s *businessService) Profile(ctx context.Context, actor Actor) (BusinessProfile, error) {
	var profile BusinessProfile
	err := s.repos.Transaction.RunInTx(ctx, func(txCtx context.Context) error {
		user, err := s.repos.Users.GetByID(txCtx, actor.ID)
		if err != nil {
			return lookup(err, "user")
		}
		b, err := s.completer.business(txCtx, actor.ID)
		if err != nil {
			return err
		}
		profile = toBusinessProfile(user, b)
		return nil
	})
	return profile, err
}

func (s *businessService) UpdateProfile(ctx context.Context, actor Actor, req UpdateBusinessRequest) (BusinessProfile, error) {
	err := s.repos.Transaction.RunInTx(ctx, func(txCtx context.Context) error {
		if err := updateAccount(txCtx, s.repos.Users, actor, req.UpdateProfileRequest); err != nil {
			return err
		}
		b, err := s.completer.business(txCtx, actor.ID)
		if err != nil {
			return err
		}
		if v := strings.TrimSpace(req.BusinessType); v != "" {
			b.BusinessType = v
		}
		if req.PickupFrequency != "" {
			b.PickupFrequency = req.PickupFrequency
		}
		if err := s.repos.Businesses.Update(txCtx, b); err != nil {
			return fmt.Errorf("failed to update business: %w", err)
		}
		return nil
	})
	if err != nil {
		return BusinessProfile{}, err
	}
	return s.Profile(ctx, actor)
}

func (s *businessService) EcoPoints(ctx context.Context, actor Actor) (EcoPointsSummary, error) {
	summary, err := ecoPointsSummary(ctx, s.repos, actor)
	if err != nil {
		return EcoPointsSummary{}, err
	}
	b, err := s.repos.Businesses.FindByUserID(ctx, actor.ID)
	if err == nil {
		score := b.SustainabilityScore
		summary.SustainabilityScore = &score
	}
	return summary, nil
}

func toBusinessProfile(user *model.User, b *model.BusinessDetail) BusinessProfile {
	return BusinessProfile{
		User:                mapToResponse(user),
		BusinessType:        b.BusinessType,
		PickupFrequency:     b.PickupFrequency,
		SustainabilityScore: b.SustainabilityScore,
		PaymentEnabled:      b.PaymentEnabled,
	}
}
