// Package reward holds the eco-point policy: per waste type multipliers, business
// sustainability scoring and the household leaderboard ordering.
package reward

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultMultipliers is the points-per-kg table used when configuration supplies none.
var DefaultMultipliers = map[string]float64{
	"BIODEGRADABLE":             1.0,
	"NON_BIODEGRADABLE":         0.5,
	"ORGANIC_WASTE":             1.0,
	"RECYCLABLE_WASTE":          1.5,
	"E-WASTE":                   2.0,
	"E_WASTE":                   2.0,
	"CHEMICAL_WASTE":            2.5,
	"HAZARDOUS_WASTE":           3.0,
	"CONSTRUCTION_WASTE":        1.8,
	"NON_RECYCLABLE_COMMERCIAL": 0.8,
	"FOOD":                      1.0,
}

var (
	defaultMultiplier = decimal.NewFromInt(1)
	scorePerKg        = decimal.NewFromFloat(0.5)
	co2PerKg          = decimal.NewFromFloat(2.5)
	treesPerKg        = decimal.NewFromFloat(0.1)
)

// MaxScore caps a business sustainability score.
const MaxScore = 100

// Calculator converts a collected weight into eco-points. It is immutable once built.
type Calculator struct {
	multipliers map[string]decimal.Decimal
}

// NewCalculator copies table into a case-insensitive lookup. A nil or empty table
// selects DefaultMultipliers.
func NewCalculator(table map[string]float64) *Calculator {
	if len(table) == 0 {
		table = DefaultMultipliers
	}
	m := make(map[string]decimal.Decimal, len(table))
	for k, v := range table {
		m[strings.ToUpper(strings.TrimSpace(k))] = decimal.NewFromFloat(v)
	}
	return &Calculator{multipliers: m}
}

// Multiplier returns the points-per-kg for wasteType, 1.0 when the type is unknown.
func (c *Calculator) Multiplier(wasteType string) decimal.Decimal {
	if m, ok := c.multipliers[strings.ToUpper(strings.TrimSpace(wasteType))]; ok {
		return m
	}
	return defaultMultiplier
}

// Points is round(weightKg * multiplier) with halves rounded away from zero.
// Callers reject non-positive weights before calling.
func (c *Calculator) Points(wasteType string, weightKg decimal.Decimal) int {
	return int(weightKg.Mul(c.Multiplier(wasteType)).Round(0).IntPart())
}

// SustainabilityScore adds floor(weightKg * 0.5) to current and caps the result at MaxScore.
func SustainabilityScore(current int, weightKg decimal.Decimal) int {
	next := current + int(weightKg.Mul(scorePerKg).Floor().IntPart())
	if next > MaxScore {
		return MaxScore
	}
	return next
}

// Impact estimates the CO2 kilograms and trees saved by totalKg of collected waste.
func Impact(totalKg decimal.Decimal) (co2Kg, trees decimal.Decimal) {
	return totalKg.Mul(co2PerKg), totalKg.Mul(treesPerKg)
}
