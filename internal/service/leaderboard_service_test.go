package service

import (
	"context"
	"testing"

	"bintobloom/internal/model"
)

func TestLeaderboardOrdersByPointsThenWaste(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	collector := f.register(t, model.RoleCollector, "Pune")
	small := f.register(t, model.RoleHousehold, "Pune")
	top := f.register(t, model.RoleHousehold, "Pune")
	heavy := f.register(t, model.RoleHousehold, "Pune")
	idle := f.register(t, model.RoleHousehold, "Pune")

	f.complete(t, small, collector, "E-WASTE", "2") // 4 pts, 2 kg
	f.complete(t, top, collector, "FOOD", "5")      // 5 pts, 5 kg
	f.complete(t, heavy, collector, "FOOD", "4")    // 4 pts, 4 kg

	board, err := f.svc.Leaderboard.HouseholdLeaderboard(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	want := []Actor{top, heavy, small, idle}
	if len(board) != len(want) {
		t.Fatalf("board has %d rows, want %d", len(board), len(want))
	}
	for i, a := range want {
		if board[i].UserID != a.ID.String() || board[i].Rank != i+1 {
			t.Fatalf("row %d = %+v, want user %s rank %d", i, board[i], a.ID, i+1)
		}
	}

	rank, err := f.svc.Households.Position(ctx, small)
	if err != nil {
		t.Fatal(err)
	}
	if rank.Rank != 3 || rank.EcoPoints != 4 || rank.Households != 4 {
		t.Fatalf("position = %+v", rank)
	}

	_, err = f.svc.Leaderboard.GetUserRank(ctx, collector.ID)
	wantKind(t, err, KindNotFound)
}

func TestLeaderboardSkipsDeletedUsers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	collector := f.register(t, model.RoleCollector, "Pune")
	top := f.register(t, model.RoleHousehold, "Pune")
	gone := f.register(t, model.RoleHousehold, "Pune")
	last := f.register(t, model.RoleHousehold, "Pune")

	f.complete(t, top, collector, "FOOD", "9")
	f.complete(t, gone, collector, "FOOD", "6")
	f.complete(t, last, collector, "FOOD", "3")

	if err := f.db.Delete(&model.User{}, "id = ?", gone.ID).Error; err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	board, err := f.svc.Leaderboard.HouseholdLeaderboard(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	want := []Actor{top, last}
	if len(board) != len(want) {
		t.Fatalf("board has %d rows, want %d", len(board), len(want))
	}
	for i, a := range want {
		if board[i].UserID != a.ID.String() || board[i].Rank != i+1 {
			t.Fatalf("row %d = %+v, want user %s rank %d", i, board[i], a.ID, i+1)
		}
	}
}

func TestBusinessLeaderboardCapsScore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	collector := f.register(t, model.RoleCollector, "Mumbai")
	big := f.register(t, model.RoleBusiness, "Mumbai")
	modest := f.register(t, model.RoleBusiness, "Mumbai")

	f.complete(t, big, collector, "FOOD", "500")
	f.complete(t, modest, collector, "FOOD", "7")

	board, err := f.svc.Leaderboard.BusinessLeaderboard(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(board) != 2 {
		t.Fatalf("board has %d rows, want 2", len(board))
	}
	if board[0].UserID != big.ID.String() || board[0].SustainabilityScore != model.MaxSustainabilityScore {
		t.Fatalf("top = %+v, want capped score for big", board[0])
	}
	if board[1].SustainabilityScore != 3 {
		t.Fatalf("modest score = %d, want 3", board[1].SustainabilityScore)
	}
}
