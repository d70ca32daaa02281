package service

import (
	"context"
	"fmt"
	"time"

	"bintobloom/internal/metrics"
	"bintobloom/internal/repository"
	"bintobloom/internal/reward"

	"github.com/google/uuid"
)

const (
	DefaultHouseholdLeaderboardLimit = 100
	DefaultBusinessLeaderboardLimit  = 50
)

type RankResponse struct {
	UserID       string `json:"user_id"`
	Rank         int    `json:"rank"`
	EcoPoints    int    `json:"eco_points"`
	TotalWasteKg string `json:"total_waste_kg"`
	Households   int    `json:"households"`
}

type HouseholdLeaderboardEntry struct {
	Rank         int    `json:"rank"`
	UserID       string `json:"user_id"`
	Name         string `json:"name"`
	City         string `json:"city"`
	EcoPoints    int    `json:"eco_points"`
	TotalWasteKg string `json:"total_waste_kg"`
}

type BusinessLeaderboardEntry struct {
	Rank                int    `json:"rank"`
	UserID              string `json:"user_id"`
	Name                string `json:"name"`
	BusinessType        string `json:"business_type"`
	SustainabilityScore int    `json:"sustainability_score"`
}

// LeaderboardService ranks households by eco-points and businesses by sustainability score.
//
// Recompute is a two-phase snapshot + rank-assign run inside one transaction. Under
// concurrent completions the persisted ranks are eventually consistent: the last
// recompute to commit wins.
type LeaderboardService interface {
	RecomputeLeaderboard(ctx context.Context) error
	GetUserRank(ctx context.Context, userID uuid.UUID) (RankResponse, error)
	HouseholdLeaderboard(ctx context.Context, limit int) ([]HouseholdLeaderboardEntry, error)
	BusinessLeaderboard(ctx context.Context, limit int) ([]BusinessLeaderboardEntry, error)
}

type leaderboardService struct {
	households repository.HouseholdRepository
	businesses repository.BusinessRepository
	txManager  repository.TransactionManager
}

func NewLeaderboardService(households repository.HouseholdRepository, businesses repository.BusinessRepository, txManager repository.TransactionManager) LeaderboardService {
	return &leaderboardService{households: households, businesses: businesses, txManager: txManager}
}

func (s *leaderboardService) RecomputeLeaderboard(ctx context.Context) error {
	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		_, err := s.recompute(txCtx)
		return err
	})
}

// recompute snapshots every household, ranks the snapshot and writes back changed ranks.
// Must run inside a transaction.
func (s *leaderboardService) recompute(ctx context.Context) ([]reward.Standing, error) {
	start := time.Now()
	defer func() { metrics.LeaderboardRecomputeDuration.Observe(time.Since(start).Seconds()) }()

	rows, err := s.households.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot households: %w", err)
	}

	standings := make([]reward.Standing, len(rows))
	current := make(map[uuid.UUID]int, len(rows))
	ids := make(map[uuid.UUID]uuid.UUID, len(rows))
	for i, h := range rows {
		standings[i] = reward.Standing{UserID: h.UserID, EcoPoints: h.EcoPoints, TotalWasteKg: h.TotalWasteKg}
		current[h.UserID] = h.LeaderboardRank
		ids[h.UserID] = h.ID
	}

	ranked := reward.Rank(standings)
	for _, st := range ranked {
		if current[st.UserID] == st.Rank {
			continue
		}
		if err := s.households.UpdateRank(ctx, ids[st.UserID], st.Rank); err != nil {
			return nil, fmt.Errorf("failed to write rank: %w", err)
		}
	}
	return ranked, nil
}

// GetUserRank recomputes first and then locates the user in the fresh snapshot.
func (s *leaderboardService) GetUserRank(ctx context.Context, userID uuid.UUID) (RankResponse, error) {
	var resp RankResponse
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		ranked, err := s.recompute(txCtx)
		if err != nil {
			return err
		}
		pos := reward.Position(ranked, userID)
		if pos == 0 {
			return notFound("household")
		}
		st := ranked[pos-1]
		resp = RankResponse{
			UserID:       userID.String(),
			Rank:         st.Rank,
			EcoPoints:    st.EcoPoints,
			TotalWasteKg: st.TotalWasteKg.StringFixed(2),
			Households:   len(ranked),
		}
		return nil
	})
	return resp, err
}

func (s *leaderboardService) HouseholdLeaderboard(ctx context.Context, limit int) ([]HouseholdLeaderboardEntry, error) {
	if limit <= 0 {
		limit = DefaultHouseholdLeaderboardLimit
	}
	if err := s.RecomputeLeaderboard(ctx); err != nil {
		return nil, err
	}
	rows, err := s.households.Leaderboard(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}

	out := make([]HouseholdLeaderboardEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, HouseholdLeaderboardEntry{
			Rank:         r.LeaderboardRank,
			UserID:       r.UserID.String(),
			Name:         r.Name,
			City:         r.City,
			EcoPoints:    r.EcoPoints,
			TotalWasteKg: r.TotalWasteKg.StringFixed(2),
		})
	}
	return out, nil
}

func (s *leaderboardService) BusinessLeaderboard(ctx context.Context, limit int) ([]BusinessLeaderboardEntry, error) {
	if limit <= 0 {
		limit = DefaultBusinessLeaderboardLimit
	}
	rows, err := s.businesses.Leaderboard(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load business leaderboard: %w", err)
	}

	out := make([]BusinessLeaderboardEntry, 0, len(rows))
	for i, b := range rows {
		out = append(out, BusinessLeaderboardEntry{
			Rank:                i + 1,
			UserID:              b.UserID.String(),
			Name:                b.User.Name,
			BusinessType:        b.BusinessType,
			SustainabilityScore: b.SustainabilityScore,
		})
	}
	return out, nil
}
