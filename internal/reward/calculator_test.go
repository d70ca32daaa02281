package reward

import (
	"testing"

	"github.com/shopspring/decimal"
)

func kg(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestPointsUsesMultiplierTable(t *testing.T) {
	c := NewCalculator(nil)
	cases := []struct {
		wasteType string
		weight    string
		want      int
	}{
		{"E-WASTE", "2", 4},
		{"e-waste", "2", 4},
		{"E_WASTE", "1.2", 2},
		{"HAZARDOUS_WASTE", "3", 9},
		{"RECYCLABLE_WASTE", "4", 6},
		{"CONSTRUCTION_WASTE", "1.25", 2},
		{"NON_RECYCLABLE_COMMERCIAL", "10", 8},
		{"CHEMICAL_WASTE", "0.4", 1},
		{"FOOD", "7.4", 7},
		{" biodegradable ", "3", 3},
	}
	for _, tc := range cases {
		if got := c.Points(tc.wasteType, kg(tc.weight)); got != tc.want {
			t.Errorf("Points(%q, %s) = %d, want %d", tc.wasteType, tc.weight, got, tc.want)
		}
	}
}

func TestPointsUnknownTypeFallsBackToOne(t *testing.T) {
	c := NewCalculator(nil)
	for _, w := range []string{"0.6", "3.4", "12"} {
		want := int(kg(w).Round(0).IntPart())
		if got := c.Points("PLASTIC_BOTTLES", kg(w)); got != want {
			t.Errorf("Points(unknown, %s) = %d, want %d", w, got, want)
		}
	}
}

func TestPointsRoundsHalfAwayFromZero(t *testing.T) {
	c := NewCalculator(nil)
	cases := []struct {
		wasteType string
		weight    string
		want      int
	}{
		{"FOOD", "2.5", 3},
		{"NON_BIODEGRADABLE", "5", 3},
		{"HAZARDOUS_WASTE", "0.5", 2},
		{"RECYCLABLE_WASTE", "0.3", 0},
	}
	for _, tc := range cases {
		if got := c.Points(tc.wasteType, kg(tc.weight)); got != tc.want {
			t.Errorf("Points(%q, %s) = %d, want %d", tc.wasteType, tc.weight, got, tc.want)
		}
	}
}

func TestNewCalculatorOverridesTable(t *testing.T) {
	c := NewCalculator(map[string]float64{"food": 4})
	if got := c.Points("FOOD", kg("2")); got != 8 {
		t.Fatalf("custom FOOD points = %d, want 8", got)
	}
	if got := c.Multiplier("E-WASTE"); !got.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("types missing from a custom table should use 1.0, got %s", got)
	}
}

func TestSustainabilityScore(t *testing.T) {
	cases := []struct {
		current int
		weight  string
		want    int
	}{
		{0, "10", 5},
		{10, "7.9", 13},
		{98, "10", 100},
		{100, "0.1", 100},
		{40, "1.9", 40},
	}
	for _, tc := range cases {
		if got := SustainabilityScore(tc.current, kg(tc.weight)); got != tc.want {
			t.Errorf("SustainabilityScore(%d, %s) = %d, want %d", tc.current, tc.weight, got, tc.want)
		}
	}
}

func TestImpact(t *testing.T) {
	co2, trees := Impact(kg("10"))
	if !co2.Equal(kg("25")) || !trees.Equal(kg("1")) {
		t.Fatalf("Impact(10) = %s, %s", co2, trees)
	}
}
