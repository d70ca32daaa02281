package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CarbonFactorPerKg converts collected kilograms into kilograms of CO2 avoided for NGO reporting.
var CarbonFactorPerKg = decimal.NewFromFloat(0.5)

// CityWaste is one row of waste collected per requester city
type CityWaste struct {
	City         string          `json:"city"`
	TotalWaste   decimal.Decimal `json:"total_waste"`
	TotalPickups int             `json:"total_pickups"`
	CarbonSaved  decimal.Decimal `json:"carbon_saved"`
}

// TypeWaste is the collected weight for one waste type
type TypeWaste struct {
	WasteType  string          `json:"waste_type"`
	TotalWaste decimal.Decimal `json:"total_waste"`
}

// StatusCount counts pickups in a given status
type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// TimeRange bounds analytics queries on WasteLog.CollectedAt. Zero values leave a side open.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// GlobalAnalytics aggregates waste and pickup data across all cities
type GlobalAnalytics struct {
	TotalWaste       decimal.Decimal `json:"total_waste"`
	TotalCarbonSaved decimal.Decimal `json:"total_carbon_saved"`
	TotalPickups     int64           `json:"total_pickups"`
	CompletedPickups int64           `json:"completed_pickups"`
	WasteByType      []TypeWaste     `json:"waste_by_type"`
	PickupsByStatus  []StatusCount   `json:"pickups_by_status"`
	WasteByCity      []CityWaste     `json:"waste_by_city"`
}

// CityAnalytics is GlobalAnalytics narrowed to one city
type CityAnalytics struct {
	City             string          `json:"city"`
	TotalWaste       decimal.Decimal `json:"total_waste"`
	TotalCarbonSaved decimal.Decimal `json:"total_carbon_saved"`
	TotalPickups     int64           `json:"total_pickups"`
	CompletedPickups int64           `json:"completed_pickups"`
	WasteByType      []TypeWaste     `json:"waste_by_type"`
	PickupsByStatus  []StatusCount   `json:"pickups_by_status"`
}

// CountedAsCompleted lists the statuses analytics treats as a fulfilled pickup.
var CountedAsCompleted = []PickupStatus{PickupCompleted, PickupPaid, PickupPaymentPending}
