package reward

import (
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestRankOrdersByPointsThenWaste(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	ranked := Rank([]Standing{
		{UserID: a, EcoPoints: 10, TotalWasteKg: kg("5")},
		{UserID: b, EcoPoints: 20, TotalWasteKg: kg("1")},
		{UserID: c, EcoPoints: 10, TotalWasteKg: kg("8")},
	})

	want := []uuid.UUID{b, c, a}
	for i, id := range want {
		if ranked[i].UserID != id {
			t.Fatalf("position %d = %s, want %s", i, ranked[i].UserID, id)
		}
		if ranked[i].Rank != i+1 {
			t.Fatalf("rank at %d = %d, want %d", i, ranked[i].Rank, i+1)
		}
	}
	if Position(ranked, c) != 2 {
		t.Fatalf("Position(c) = %d, want 2", Position(ranked, c))
	}
	if Position(ranked, uuid.New()) != 0 {
		t.Fatal("unknown user should have position 0")
	}
}

func TestRankPairwiseProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	standings := make([]Standing, 200)
	for i := range standings {
		standings[i] = Standing{
			UserID:       uuid.New(),
			EcoPoints:    rng.Intn(30),
			TotalWasteKg: decimal.NewFromInt(int64(rng.Intn(10))),
		}
	}
	ranked := Rank(standings)

	for i := range ranked {
		for j := range ranked {
			x, y := ranked[i], ranked[j]
			if x.EcoPoints > y.EcoPoints && x.Rank >= y.Rank {
				t.Fatalf("%d pts ranked %d behind %d pts ranked %d", x.EcoPoints, x.Rank, y.EcoPoints, y.Rank)
			}
			if x.EcoPoints == y.EcoPoints && x.TotalWasteKg.GreaterThan(y.TotalWasteKg) && x.Rank >= y.Rank {
				t.Fatalf("equal points: %s kg ranked %d behind %s kg ranked %d", x.TotalWasteKg, x.Rank, y.TotalWasteKg, y.Rank)
			}
		}
	}
}

func TestRankIsDeterministicOnExactTies(t *testing.T) {
	a := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	b := uuid.MustParse("00000000-0000-0000-0000-000000000002")
	first := Rank([]Standing{{UserID: b, EcoPoints: 5, TotalWasteKg: kg("1")}, {UserID: a, EcoPoints: 5, TotalWasteKg: kg("1")}})
	second := Rank([]Standing{{UserID: a, EcoPoints: 5, TotalWasteKg: kg("1")}, {UserID: b, EcoPoints: 5, TotalWasteKg: kg("1")}})
	if first[0].UserID != a || second[0].UserID != a {
		t.Fatal("exact ties should order by user id regardless of input order")
	}
}
