package service

import (
	"context"
	"time"

	"bintobloom/internal/model"
	"bintobloom/internal/repository"

	"github.com/shopspring/decimal"
)

// --- DTOs ---

type RevenueDataPoint struct {
	Period        string `json:"period"`
	TotalRevenue  string `json:"total_revenue"`
	Payments      int    `json:"payments"`
	BilledPickups int    `json:"billed_pickups"`
}

type RevenueFilter struct {
	GroupBy string // week, month, quarter, year
	Range   model.TimeRange
}

// --- Interface ---

type RevenueService interface {
	GetRevenueStatistics(ctx context.Context, filter RevenueFilter) ([]RevenueDataPoint, error)
}

type revenueService struct {
	revenue repository.RevenueRepository
	clock   Clock
}

func NewRevenueService(revenue repository.RevenueRepository, clock Clock) RevenueService {
	return &revenueService{revenue: revenue, clock: clock}
}

// --- Implementation ---

// GetRevenueStatistics totals settled payments per calendar period in the clock's zone.
// Periods with no payments are omitted.
func (s *revenueService) GetRevenueStatistics(ctx context.Context, filter RevenueFilter) ([]RevenueDataPoint, error) {
	groupBy := filter.GroupBy
	switch groupBy {
	case "week", "month", "quarter", "year":
	case "":
		groupBy = "month"
	default:
		return nil, validationErrorf("group_by must be one of week, month, quarter, year")
	}
	if !filter.Range.Start.IsZero() && !filter.Range.End.IsZero() && filter.Range.End.Before(filter.Range.Start) {
		return nil, validationErrorf("end date is before start date")
	}

	rows, err := s.revenue.SettledPayments(ctx, filter.Range)
	if err != nil {
		return nil, err
	}

	type bucket struct {
		total    decimal.Decimal
		payments int
		pickups  int
	}
	loc := s.clock.Location
	if loc == nil {
		loc = time.UTC
	}
	var order []string
	buckets := make(map[string]*bucket)
	for _, row := range rows {
		key := periodStart(row.PaymentDate.In(loc), groupBy).Format(time.DateOnly)
		b, ok := buckets[key]
		if !ok {
			b = &bucket{}
			buckets[key] = b
			order = append(order, key)
		}
		b.total = b.total.Add(row.Amount)
		b.payments++
		if row.PickupID != nil {
			b.pickups++
		}
	}

	out := make([]RevenueDataPoint, 0, len(order))
	for _, key := range order {
		b := buckets[key]
		out = append(out, RevenueDataPoint{
			Period:        key,
			TotalRevenue:  b.total.StringFixed(2),
			Payments:      b.payments,
			BilledPickups: b.pickups,
		})
	}
	return out, nil
}

// periodStart truncates t to the first day of its week (Monday), month, quarter or year.
func periodStart(t time.Time, groupBy string) time.Time {
	y, m, d := t.Date()
	loc := t.Location()
	switch groupBy {
	case "week":
		offset := (int(t.Weekday()) + 6) % 7
		return time.Date(y, m, d-offset, 0, 0, 0, 0, loc)
	case "quarter":
		return time.Date(y, m-(m-1)%3, 1, 0, 0, 0, 0, loc)
	case "year":
		return time.Date(y, time.January, 1, 0, 0, 0, 0, loc)
	default:
		return time.Date(y, m, 1, 0, 0, 0, 0, loc)
	}
}
