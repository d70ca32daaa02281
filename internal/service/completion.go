package service

import (
	"context"
	"errors"
	"fmt"

	"bintobloom/internal/metrics"
	"bintobloom/internal/model"
	"bintobloom/internal/repository"
	"bintobloom/internal/reward"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// completionResult reports what finalizing a pickup changed.
type completionResult struct {
	Points           int
	AlreadyCompleted bool
}

// completer applies the reward side effects of a completed pickup. Every method
// expects to run inside the caller's transaction.
type completer struct {
	repos       *repository.Repositories
	calc        *reward.Calculator
	leaderboard *leaderboardService
}

// finalize moves a pickup with a recorded WasteLog to COMPLETED and applies rewards
// exactly once. A pickup that is already COMPLETED is left untouched.
func (c *completer) finalize(ctx context.Context, pickup *model.PickupRequest, actor *uuid.UUID) (completionResult, error) {
	if pickup.Status == model.PickupCompleted {
		return completionResult{AlreadyCompleted: true}, nil
	}
	if !model.CanTransition(pickup.Status, model.PickupCompleted) {
		return completionResult{}, stateErrorf("cannot complete a pickup in status %s", pickup.Status)
	}

	wasteLog, err := c.repos.WasteLogs.FindLatestByPickup(ctx, pickup.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return completionResult{}, stateErrorf("no waste log recorded for pickup")
		}
		return completionResult{}, fmt.Errorf("failed to load waste log: %w", err)
	}

	granted, err := c.repos.Rewards.CountByPickup(ctx, pickup.ID)
	if err != nil {
		return completionResult{}, fmt.Errorf("failed to check existing rewards: %w", err)
	}

	points := 0
	if granted == 0 {
		points, err = c.apply(ctx, pickup, wasteLog)
		if err != nil {
			return completionResult{}, err
		}
	}

	pickup.Status = model.PickupCompleted
	if err := c.repos.Pickups.Update(ctx, pickup); err != nil {
		return completionResult{}, fmt.Errorf("failed to update pickup: %w", err)
	}

	if err := writeAudit(ctx, c.repos.Audit, actor, model.ActionCompletePickup, pickup.ID.String(), pickup.WasteType, map[string]any{
		"weight_kg": wasteLog.WeightKg.String(),
		"points":    points,
	}); err != nil {
		return completionResult{}, err
	}

	if pickup.User.Role == model.RoleHousehold {
		if _, err := c.leaderboard.recompute(ctx); err != nil {
			return completionResult{}, err
		}
	}

	metrics.PickupsCompleted.WithLabelValues(pickup.User.Role).Inc()
	return completionResult{Points: points}, nil
}

// apply writes the EcoReward and bumps the requester's running totals.
func (c *completer) apply(ctx context.Context, pickup *model.PickupRequest, wasteLog *model.WasteLog) (int, error) {
	points := c.calc.Points(wasteLog.WasteType, wasteLog.WeightKg)

	pickupID := pickup.ID
	if err := c.repos.Rewards.Create(ctx, &model.EcoReward{
		UserID:       pickup.UserID,
		PickupID:     &pickupID,
		PointsEarned: points,
		RewardType:   model.RewardLabelPrefix + wasteLog.WasteType,
	}); err != nil {
		return 0, fmt.Errorf("failed to record reward: %w", err)
	}

	switch pickup.User.Role {
	case model.RoleHousehold:
		h, err := c.household(ctx, pickup.UserID)
		if err != nil {
			return 0, err
		}
		h.TotalWasteKg = h.TotalWasteKg.Add(wasteLog.WeightKg)
		h.EcoPoints += points
		if err := c.repos.Households.Update(ctx, h); err != nil {
			return 0, fmt.Errorf("failed to update household totals: %w", err)
		}
	case model.RoleBusiness:
		b, err := c.business(ctx, pickup.UserID)
		if err != nil {
			return 0, err
		}
		b.SustainabilityScore = reward.SustainabilityScore(b.SustainabilityScore, wasteLog.WeightKg)
		if err := c.repos.Businesses.Update(ctx, b); err != nil {
			return 0, fmt.Errorf("failed to update sustainability score: %w", err)
		}
	}

	metrics.EcoPointsAwarded.Add(float64(points))
	metrics.WasteCollectedKg.WithLabelValues(wasteLog.WasteType).Add(wasteLog.WeightKg.InexactFloat64())
	return points, nil
}

// household loads the detail row, creating an empty one for accounts registered without it.
func (c *completer) household(ctx context.Context, userID uuid.UUID) (*model.HouseholdDetail, error) {
	h, err := c.repos.Households.FindByUserID(ctx, userID)
	if err == nil {
		return h, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load household: %w", err)
	}
	h = &model.HouseholdDetail{UserID: userID}
	if err := c.repos.Households.Create(ctx, h); err != nil {
		return nil, fmt.Errorf("failed to create household: %w", err)
	}
	return h, nil
}

// business is household's counterpart for BusinessDetail.
func (c *completer) business(ctx context.Context, userID uuid.UUID) (*model.BusinessDetail, error) {
	b, err := c.repos.Businesses.FindByUserID(ctx, userID)
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load business: %w", err)
	}
	b = &model.BusinessDetail{UserID: userID, BusinessType: "General", PaymentEnabled: true}
	if err := c.repos.Businesses.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("failed to create business: %w", err)
	}
	return b, nil
}
