package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bintobloom/internal/model"
	"bintobloom/internal/repository"
	"bintobloom/internal/reward"

	"gorm.io/gorm"
)

const (
	recentRewardsLimit = 5
	trackingFeedLimit  = 50
)

// UpdateProfileRequest edits the account fields shared by every role. Empty fields are kept.
type UpdateProfileRequest struct {
	Name    string `json:"name" binding:"max=100"`
	Phone   string `json:"phone" binding:"max=20"`
	Address string `json:"address" binding:"max=500"`
	City    string `json:"city" binding:"max=100"`
}

type HouseholdProfile struct {
	User            UserResponse `json:"user"`
	TotalWasteKg    string       `json:"total_waste_kg"`
	EcoPoints       int          `json:"eco_points"`
	LeaderboardRank int          `json:"leaderboard_rank"`
	CO2SavedKg      string       `json:"co2_saved_kg"`
	TreesSaved      string       `json:"trees_saved"`
}

type RewardResponse struct {
	ID           string  `json:"id"`
	PickupID     *string `json:"pickup_id"`
	PointsEarned int     `json:"points_earned"`
	RewardType   string  `json:"reward_type"`
	EarnedOn     string  `json:"earned_on"`
}

type EcoPointsSummary struct {
	TotalPoints         int64            `json:"total_points"`
	TotalWasteKg        string           `json:"total_waste_kg"`
	SustainabilityScore *int             `json:"sustainability_score,omitempty"`
	Recent              []RewardResponse `json:"recent_rewards"`
}

// HouseholdService serves a household's own profile, rewards and tracking feed.
type HouseholdService interface {
	Profile(ctx context.Context, actor Actor) (HouseholdProfile, error)
	UpdateProfile(ctx context.Context, actor Actor, req UpdateProfileRequest) (HouseholdProfile, error)
	EcoPoints(ctx context.Context, actor Actor) (EcoPointsSummary, error)
	Position(ctx context.Context, actor Actor) (RankResponse, error)
	Tracking(ctx context.Context, actor Actor) ([]TrackingResponse, error)
}

type householdService struct {
	repos       *repository.Repositories
	leaderboard LeaderboardService
}

func (s *householdService) Profile(ctx context.Context, actor Actor) (HouseholdProfile, error) {
	user, err := s.repos.Users.GetByID(ctx, actor.ID)
	if err != nil {
		return HouseholdProfile{}, lookup(err, "user")
	}

	var detail model.HouseholdDetail
	h, err := s.repos.Households.FindByUserID(ctx, actor.ID)
	switch {
	case err == nil:
		detail = *h
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return HouseholdProfile{}, fmt.Errorf("failed to load household: %w", err)
	}

	co2, trees := reward.Impact(detail.TotalWasteKg)
	return HouseholdProfile{
		User:            mapToResponse(user),
		TotalWasteKg:    detail.TotalWasteKg.StringFixed(2),
		EcoPoints:       detail.EcoPoints,
		LeaderboardRank: detail.LeaderboardRank,
		CO2SavedKg:      co2.StringFixed(2),
		TreesSaved:      trees.StringFixed(2),
	}, nil
}

func (s *householdService) UpdateProfile(ctx context.Context, actor Actor, req UpdateProfileRequest) (HouseholdProfile, error) {
	if err := updateAccount(ctx, s.repos.Users, actor, req); err != nil {
		return HouseholdProfile{}, err
	}
	return s.Profile(ctx, actor)
}

func (s *householdService) EcoPoints(ctx context.Context, actor Actor) (EcoPointsSummary, error) {
	return ecoPointsSummary(ctx, s.repos, actor)
}

func (s *householdService) Position(ctx context.Context, actor Actor) (RankResponse, error) {
	return s.leaderboard.GetUserRank(ctx, actor.ID)
}

// Tracking returns recent collector positions across all of the household's pickups.
func (s *householdService) Tracking(ctx context.Context, actor Actor) ([]TrackingResponse, error) {
	logs, err := s.repos.Tracking.ListByUser(ctx, actor.ID, trackingFeedLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tracking: %w", err)
	}
	out := make([]TrackingResponse, 0, len(logs))
	for i := range logs {
		out = append(out, toTrackingResponse(&logs[i]))
	}
	return out, nil
}

// updateAccount applies the non-empty fields of req to the caller's user row.
func updateAccount(ctx context.Context, users repository.UserRepository, actor Actor, req UpdateProfileRequest) error {
	user, err := users.GetByID(ctx, actor.ID)
	if err != nil {
		return lookup(err, "user")
	}
	if v := strings.TrimSpace(req.Name); v != "" {
		user.Name = v
	}
	if v := strings.TrimSpace(req.Phone); v != "" {
		user.Phone = v
	}
	if v := strings.TrimSpace(req.Address); v != "" {
		user.Address = v
	}
	if v := strings.TrimSpace(req.City); v != "" {
		user.City = v
	}
	if err := users.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return nil
}

// ecoPointsSummary totals the reward ledger and collected weight for the caller.
func ecoPointsSummary(ctx context.Context, repos *repository.Repositories, actor Actor) (EcoPointsSummary, error) {
	total, err := repos.Rewards.SumPointsByUser(ctx, actor.ID)
	if err != nil {
		return EcoPointsSummary{}, fmt.Errorf("failed to sum rewards: %w", err)
	}
	weight, err := repos.WasteLogs.TotalByUser(ctx, actor.ID)
	if err != nil {
		return EcoPointsSummary{}, fmt.Errorf("failed to sum waste: %w", err)
	}
	recent, err := repos.Rewards.ListRecentByUser(ctx, actor.ID, recentRewardsLimit)
	if err != nil {
		return EcoPointsSummary{}, fmt.Errorf("failed to fetch rewards: %w", err)
	}

	out := EcoPointsSummary{
		TotalPoints:  total,
		TotalWasteKg: weight.StringFixed(2),
		Recent:       make([]RewardResponse, 0, len(recent)),
	}
	for _, r := range recent {
		out.Recent = append(out.Recent, RewardResponse{
			ID:           r.ID.String(),
			PickupID:     uuidString(r.PickupID),
			PointsEarned: r.PointsEarned,
			RewardType:   r.RewardType,
			EarnedOn:     formatTime(r.EarnedOn),
		})
	}
	return out, nil
}
