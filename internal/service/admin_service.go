package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bintobloom/internal/model"
	"bintobloom/internal/repository"
	"bintobloom/internal/search"
)

// PickupSearcher is a full-text index over pickups.
type PickupSearcher interface {
	Search(ctx context.Context, q search.Query) ([]search.Hit, int64, error)
}

type AdminDashboard struct {
	TotalUsers       int64            `json:"total_users"`
	UsersByRole      map[string]int64 `json:"users_by_role"`
	TotalPickups     int64            `json:"total_pickups"`
	PickupsByStatus  map[string]int64 `json:"pickups_by_status"`
	CompletedPickups int64            `json:"completed_pickups"`
	TotalWaste       string           `json:"total_waste"`
	CarbonSaved      string           `json:"carbon_saved"`
	SettledPayments  int64            `json:"settled_payments"`
	Revenue          string           `json:"revenue"`
	UnreadMessages   int64            `json:"unread_messages"`
}

type SystemReport struct {
	GeneratedAt     string                `json:"generated_at"`
	Analytics       model.GlobalAnalytics `json:"analytics"`
	UsersByRole     map[string]int64      `json:"users_by_role"`
	Collectors      int64                 `json:"collectors"`
	NGOs            int64                 `json:"ngos"`
	SettledPayments int64                 `json:"settled_payments"`
	Revenue         string                `json:"revenue"`
}

type PickupSearchRequest struct {
	Q      string
	Status string
	City   string
	Page   int
	Limit  int
}

type PickupSearchHit struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	CollectorID string `json:"collector_id,omitempty"`
	Status      string `json:"status"`
	WasteType   string `json:"waste_type"`
	City        string `json:"city"`
	Notes       string `json:"notes"`
	ScheduledAt string `json:"scheduled_at"`
}

type AdminService interface {
	Dashboard(ctx context.Context) (AdminDashboard, error)
	SystemReport(ctx context.Context) (SystemReport, error)
	SearchPickups(ctx context.Context, req PickupSearchRequest) ([]PickupSearchHit, int64, error)
}

type adminService struct {
	repos     *repository.Repositories
	analytics AnalyticsService
	searcher  PickupSearcher
	clock     Clock
}

func (s *adminService) Dashboard(ctx context.Context) (AdminDashboard, error) {
	var d AdminDashboard
	var err error

	if d.UsersByRole, err = s.repos.Users.CountByRole(ctx); err != nil {
		return d, fmt.Errorf("failed to count users: %w", err)
	}
	for _, n := range d.UsersByRole {
		d.TotalUsers += n
	}

	byStatus, err := s.repos.Pickups.CountByStatus(ctx)
	if err != nil {
		return d, fmt.Errorf("failed to count pickups: %w", err)
	}
	d.PickupsByStatus = make(map[string]int64, len(byStatus))
	for st, n := range byStatus {
		d.PickupsByStatus[string(st)] = n
		d.TotalPickups += n
	}
	for _, st := range model.CountedAsCompleted {
		d.CompletedPickups += byStatus[st]
	}

	total, err := s.repos.WasteLogs.Total(ctx)
	if err != nil {
		return d, fmt.Errorf("failed to sum waste: %w", err)
	}
	d.TotalWaste = total.StringFixed(2)
	d.CarbonSaved = total.Mul(model.CarbonFactorPerKg).StringFixed(2)

	count, revenue, err := s.repos.Payments.SumSettled(ctx)
	if err != nil {
		return d, fmt.Errorf("failed to sum payments: %w", err)
	}
	d.SettledPayments = count
	d.Revenue = revenue.StringFixed(2)

	if d.UnreadMessages, err = s.repos.Contacts.CountUnread(ctx); err != nil {
		return d, fmt.Errorf("failed to count messages: %w", err)
	}
	return d, nil
}

func (s *adminService) SystemReport(ctx context.Context) (SystemReport, error) {
	r := SystemReport{GeneratedAt: formatTime(s.clock.Now().UTC())}
	var err error

	if r.Analytics, err = s.analytics.GlobalAnalytics(ctx, model.TimeRange{}); err != nil {
		return r, err
	}
	if r.UsersByRole, err = s.repos.Users.CountByRole(ctx); err != nil {
		return r, fmt.Errorf("failed to count users: %w", err)
	}
	if r.Collectors, err = s.repos.Collectors.Count(ctx); err != nil {
		return r, fmt.Errorf("failed to count collectors: %w", err)
	}
	if r.NGOs, err = s.repos.NGOs.Count(ctx); err != nil {
		return r, fmt.Errorf("failed to count ngos: %w", err)
	}
	count, revenue, err := s.repos.Payments.SumSettled(ctx)
	if err != nil {
		return r, fmt.Errorf("failed to sum payments: %w", err)
	}
	r.SettledPayments = count
	r.Revenue = revenue.StringFixed(2)
	return r, nil
}

// SearchPickups queries the search index when one is configured, and otherwise scans
// the pickup table with a case-insensitive substring match.
func (s *adminService) SearchPickups(ctx context.Context, req PickupSearchRequest) ([]PickupSearchHit, int64, error) {
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.Limit <= 0 || req.Limit > 100 {
		req.Limit = 20
	}
	status := strings.ToUpper(strings.TrimSpace(req.Status))
	if status != "" {
		if _, ok := model.ParsePickupStatus(status); !ok {
			return nil, 0, validationErrorf("unknown pickup status %q", req.Status)
		}
	}

	if s.searcher != nil {
		hits, total, err := s.searcher.Search(ctx, search.Query{
			Text:   strings.TrimSpace(req.Q),
			Status: status,
			City:   strings.TrimSpace(req.City),
			Limit:  int64(req.Limit),
			Offset: int64((req.Page - 1) * req.Limit),
		})
		if err != nil {
			return nil, 0, fmt.Errorf("failed to search pickups: %w", err)
		}
		out := make([]PickupSearchHit, 0, len(hits))
		for _, h := range hits {
			out = append(out, PickupSearchHit{
				ID:          h.ID,
				UserID:      h.UserID,
				CollectorID: h.CollectorID,
				Status:      h.Status,
				WasteType:   h.WasteType,
				City:        h.City,
				Notes:       h.Notes,
				ScheduledAt: formatTime(time.Unix(h.ScheduledAt, 0).UTC()),
			})
		}
		return out, total, nil
	}

	pickups, _, err := s.repos.Pickups.List(ctx, repository.PickupFilter{Status: model.PickupStatus(status)})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch pickups: %w", err)
	}
	text := strings.ToLower(strings.TrimSpace(req.Q))
	matched := make([]PickupSearchHit, 0)
	for i := range pickups {
		p := &pickups[i]
		if req.City != "" && !strings.EqualFold(p.User.City, strings.TrimSpace(req.City)) {
			continue
		}
		if text != "" && !matchesText(text, p.WasteType, p.Notes, p.User.City, p.User.Name) {
			continue
		}
		hit := PickupSearchHit{
			ID:          p.ID.String(),
			UserID:      p.UserID.String(),
			Status:      string(p.Status),
			WasteType:   p.WasteType,
			City:        p.User.City,
			Notes:       p.Notes,
			ScheduledAt: formatTime(p.ScheduledAt),
		}
		if p.CollectorID != nil {
			hit.CollectorID = p.CollectorID.String()
		}
		matched = append(matched, hit)
	}

	total := int64(len(matched))
	start := (req.Page - 1) * req.Limit
	if start >= len(matched) {
		return []PickupSearchHit{}, total, nil
	}
	end := start + req.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func matchesText(text string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), text) {
			return true
		}
	}
	return false
}
