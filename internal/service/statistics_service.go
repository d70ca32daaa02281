package service

import (
	"context"
	"strings"

	"bintobloom/internal/model"
	"bintobloom/internal/repository"
)

// AnalyticsService answers read-only aggregate queries over waste logs and pickups.
// Results are computed on every call.
type AnalyticsService interface {
	GlobalAnalytics(ctx context.Context, tr model.TimeRange) (model.GlobalAnalytics, error)
	CityAnalytics(ctx context.Context, city string, tr model.TimeRange) (model.CityAnalytics, error)
	WasteByCity(ctx context.Context, tr model.TimeRange) ([]model.CityWaste, error)
}

type analyticsService struct {
	stats repository.StatisticsRepository
}

func NewAnalyticsService(stats repository.StatisticsRepository) AnalyticsService {
	return &analyticsService{stats: stats}
}

func (s *analyticsService) GlobalAnalytics(ctx context.Context, tr model.TimeRange) (model.GlobalAnalytics, error) {
	var res model.GlobalAnalytics

	total, err := s.stats.TotalWaste(ctx, "", tr)
	if err != nil {
		return res, err
	}
	res.TotalWaste = total
	res.TotalCarbonSaved = total.Mul(model.CarbonFactorPerKg)

	if res.TotalPickups, err = s.stats.CountPickups(ctx, "", nil); err != nil {
		return res, err
	}
	if res.CompletedPickups, err = s.stats.CountPickups(ctx, "", model.CountedAsCompleted); err != nil {
		return res, err
	}
	if res.WasteByType, err = s.stats.WasteByType(ctx, "", tr); err != nil {
		return res, err
	}
	if res.PickupsByStatus, err = s.stats.PickupsByStatus(ctx, ""); err != nil {
		return res, err
	}
	if res.WasteByCity, err = s.WasteByCity(ctx, tr); err != nil {
		return res, err
	}
	return res, nil
}

func (s *analyticsService) CityAnalytics(ctx context.Context, city string, tr model.TimeRange) (model.CityAnalytics, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return model.CityAnalytics{}, validationErrorf("city is required")
	}
	res := model.CityAnalytics{City: city}

	total, err := s.stats.TotalWaste(ctx, city, tr)
	if err != nil {
		return res, err
	}
	res.TotalWaste = total
	res.TotalCarbonSaved = total.Mul(model.CarbonFactorPerKg)

	if res.TotalPickups, err = s.stats.CountPickups(ctx, city, nil); err != nil {
		return res, err
	}
	if res.CompletedPickups, err = s.stats.CountPickups(ctx, city, model.CountedAsCompleted); err != nil {
		return res, err
	}
	if res.WasteByType, err = s.stats.WasteByType(ctx, city, tr); err != nil {
		return res, err
	}
	if res.PickupsByStatus, err = s.stats.PickupsByStatus(ctx, city); err != nil {
		return res, err
	}
	return res, nil
}

// WasteByCity groups collected weight by the requester's city and derives carbon saved.
func (s *analyticsService) WasteByCity(ctx context.Context, tr model.TimeRange) ([]model.CityWaste, error) {
	rows, err := s.stats.WasteByCity(ctx, "", tr)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].CarbonSaved = rows[i].TotalWaste.Mul(model.CarbonFactorPerKg)
	}
	return rows, nil
}
