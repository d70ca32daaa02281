package reward

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Standing is one household's position input and output for ranking.
type Standing struct {
	UserID       uuid.UUID
	EcoPoints    int
	TotalWasteKg decimal.Decimal
	Rank         int
}

// Rank orders standings by EcoPoints desc, then TotalWasteKg desc, then UserID asc, and
// assigns 1-based sequential ranks. The input slice is sorted in place and returned.
func Rank(standings []Standing) []Standing {
	sort.SliceStable(standings, func(i, j int) bool {
		a, b := standings[i], standings[j]
		if a.EcoPoints != b.EcoPoints {
			return a.EcoPoints > b.EcoPoints
		}
		if c := a.TotalWasteKg.Cmp(b.TotalWasteKg); c != 0 {
			return c > 0
		}
		return a.UserID.String() < b.UserID.String()
	})
	for i := range standings {
		standings[i].Rank = i + 1
	}
	return standings
}

// Position returns the 1-based index of userID in ranked standings, or 0 when absent.
func Position(ranked []Standing, userID uuid.UUID) int {
	for i, s := range ranked {
		if s.UserID == userID {
			return i + 1
		}
	}
	return 0
}
