package service

import (
	"context"
	"fmt"

	"bintobloom/internal/model"
	"bintobloom/internal/repository"
)

type NGODashboard struct {
	Name             string `json:"name"`
	City             string `json:"city"`
	TotalWaste       string `json:"total_waste"`
	CarbonSaved      string `json:"carbon_saved"`
	CompletedPickups int64  `json:"completed_pickups"`
	Reports          int64  `json:"reports"`
}

type NGOReportResponse struct {
	ID          string `json:"id"`
	TotalWaste  string `json:"total_waste"`
	CarbonSaved string `json:"carbon_saved"`
	GeneratedOn string `json:"generated_on"`
}

// NGOService reports on the waste collected in an NGO's city.
type NGOService interface {
	Dashboard(ctx context.Context, actor Actor) (NGODashboard, error)
	CreateReport(ctx context.Context, actor Actor) (NGOReportResponse, error)
	ListReports(ctx context.Context, actor Actor) ([]NGOReportResponse, error)
}

type ngoService struct {
	repos *repository.Repositories
	clock Clock
}

func (s *ngoService) Dashboard(ctx context.Context, actor Actor) (NGODashboard, error) {
	ngo, err := s.ngo(ctx, actor)
	if err != nil {
		return NGODashboard{}, err
	}

	total, err := s.repos.Statistics.TotalWaste(ctx, ngo.City, model.TimeRange{})
	if err != nil {
		return NGODashboard{}, err
	}
	completed, err := s.repos.Statistics.CountPickups(ctx, ngo.City, model.CountedAsCompleted)
	if err != nil {
		return NGODashboard{}, err
	}
	reports, err := s.repos.NGOs.CountReports(ctx, ngo.ID)
	if err != nil {
		return NGODashboard{}, fmt.Errorf("failed to count reports: %w", err)
	}

	return NGODashboard{
		Name:             ngo.Name,
		City:             ngo.City,
		TotalWaste:       total.StringFixed(2),
		CarbonSaved:      total.Mul(model.CarbonFactorPerKg).StringFixed(2),
		CompletedPickups: completed,
		Reports:          reports,
	}, nil
}

// CreateReport snapshots the city's collected waste and carbon saved as of now.
func (s *ngoService) CreateReport(ctx context.Context, actor Actor) (NGOReportResponse, error) {
	ngo, err := s.ngo(ctx, actor)
	if err != nil {
		return NGOReportResponse{}, err
	}
	total, err := s.repos.Statistics.TotalWaste(ctx, ngo.City, model.TimeRange{})
	if err != nil {
		return NGOReportResponse{}, err
	}

	report := &model.NGOReport{
		NGOID:       ngo.ID,
		TotalWaste:  total,
		CarbonSaved: total.Mul(model.CarbonFactorPerKg),
		GeneratedOn: s.clock.Now().UTC(),
	}
	if err := s.repos.NGOs.CreateReport(ctx, report); err != nil {
		return NGOReportResponse{}, fmt.Errorf("failed to save report: %w", err)
	}
	return toNGOReportResponse(report), nil
}

func (s *ngoService) ListReports(ctx context.Context, actor Actor) ([]NGOReportResponse, error) {
	ngo, err := s.ngo(ctx, actor)
	if err != nil {
		return nil, err
	}
	reports, err := s.repos.NGOs.ListReports(ctx, ngo.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch reports: %w", err)
	}
	out := make([]NGOReportResponse, 0, len(reports))
	for i := range reports {
		out = append(out, toNGOReportResponse(&reports[i]))
	}
	return out, nil
}

// ngo loads the caller's NGO row; the city falls back to the account's city.
func (s *ngoService) ngo(ctx context.Context, actor Actor) (*model.NGO, error) {
	ngo, err := s.repos.NGOs.FindByUserID(ctx, actor.ID)
	if err != nil {
		return nil, lookup(err, "ngo")
	}
	if ngo.City == "" {
		ngo.City = ngo.User.City
	}
	if ngo.Name == "" {
		ngo.Name = ngo.User.Name
	}
	return ngo, nil
}

func toNGOReportResponse(r *model.NGOReport) NGOReportResponse {
	return NGOReportResponse{
		ID:          r.ID.String(),
		TotalWaste:  r.TotalWaste.StringFixed(2),
		CarbonSaved: r.CarbonSaved.StringFixed(2),
		GeneratedOn: formatTime(r.GeneratedOn),
	}
}
