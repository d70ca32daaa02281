package service

import (
	"context"
	"testing"
	"time"

	"bintobloom/internal/events"
	"bintobloom/internal/model"

	"github.com/google/uuid"
)

func TestCompleteAwardsPointsByWasteType(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	household := f.register(t, model.RoleHousehold, "Pune")
	collector := f.register(t, model.RoleCollector, "Pune")

	res := f.complete(t, household, collector, "E-WASTE", "2")
	if res.PointsEarned != 4 {
		t.Fatalf("points = %d, want 4", res.PointsEarned)
	}
	if res.Status != string(model.PickupCompleted) {
		t.Fatalf("status = %s, want COMPLETED", res.Status)
	}

	h, err := f.repos.Households.FindByUserID(ctx, household.ID)
	if err != nil {
		t.Fatal(err)
	}
	if h.EcoPoints != 4 || h.TotalWasteKg.StringFixed(1) != "2.0" {
		t.Fatalf("household totals = %d pts / %s kg, want 4 / 2.0", h.EcoPoints, h.TotalWasteKg)
	}
	if h.LeaderboardRank != 1 {
		t.Fatalf("rank = %d, want 1", h.LeaderboardRank)
	}

	summary, err := f.svc.Households.EcoPoints(ctx, household)
	if err != nil {
		t.Fatal(err)
	}
	if summary.TotalPoints != 4 || len(summary.Recent) != 1 || summary.Recent[0].RewardType != "Waste Collection - E-WASTE" {
		t.Fatalf("summary = %+v", summary)
	}
	if f.events.count(events.PickupCompleted) != 1 {
		t.Fatalf("completed events = %d, want 1", f.events.count(events.PickupCompleted))
	}
}

func TestUnknownWasteTypeUsesDefaultMultiplier(t *testing.T) {
	f := newFixture(t)
	household := f.register(t, model.RoleHousehold, "Pune")
	collector := f.register(t, model.RoleCollector, "Pune")

	res := f.complete(t, household, collector, "MYSTERY", "3.5")
	if res.PointsEarned != 4 {
		t.Fatalf("points = %d, want 4 (3.5 rounded half away from zero)", res.PointsEarned)
	}
}

func TestCreateSchedulingRules(t *testing.T) {
	f := newFixture(t)
	household := f.register(t, model.RoleHousehold, "Pune")
	today := f.now.Format("2006-01-02")

	cases := []struct {
		name    string
		date    string
		clock   string
		wantErr bool
	}{
		{"yesterday", f.now.AddDate(0, 0, -1).Format("2006-01-02"), "12:00", true},
		{"today inside lead time", today, "10:30", true},
		{"today at lead time", today, "11:00", false},
		{"today after lead time", today, "15:00", false},
		{"tomorrow early", f.now.AddDate(0, 0, 1).Format("2006-01-02"), "06:00", false},
		{"bad date", "10-03-2026", "12:00", true},
		{"bad time", today, "3pm", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Pickups.Create(context.Background(), household, PickupInput{
				WasteType:     "FOOD",
				ScheduledDate: tc.date,
				ScheduledTime: tc.clock,
			})
			if tc.wantErr {
				wantKind(t, err, KindValidation)
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestScheduleIsStoredInUTC(t *testing.T) {
	f := newFixture(t)
	loc := time.FixedZone("IST", 5*3600+1800)
	f.svc.Pickups.(*pickupService).clock.Location = loc
	household := f.register(t, model.RoleHousehold, "Pune")

	p, err := f.svc.Pickups.Create(context.Background(), household, PickupInput{
		WasteType:     "food",
		ScheduledDate: "2026-03-11",
		ScheduledTime: "10:00",
	})
	if err != nil {
		t.Fatal(err)
	}
	if p.ScheduledAt != "2026-03-11T04:30:00Z" {
		t.Fatalf("scheduled_at = %s, want 2026-03-11T04:30:00Z", p.ScheduledAt)
	}
	if p.WasteType != "FOOD" {
		t.Fatalf("waste type = %s, want FOOD", p.WasteType)
	}
}

func TestOnlyPendingPickupsCanBeEditedOrDeleted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	household := f.register(t, model.RoleHousehold, "Pune")
	collector := f.register(t, model.RoleCollector, "Pune")

	p := f.schedule(t, household, "FOOD")
	f.assign(t, p.ID, collector)

	_, err := f.svc.Pickups.Update(ctx, household, p.ID, PickupInput{
		WasteType:     "FOOD",
		ScheduledDate: f.now.AddDate(0, 0, 2).Format("2006-01-02"),
		ScheduledTime: "09:00",
	})
	wantKind(t, err, KindState)

	err = f.svc.Pickups.Delete(ctx, household, p.ID)
	wantKind(t, err, KindState)
	if MessageOf(err) != "only pending pickups can be deleted" {
		t.Fatalf("message = %q", MessageOf(err))
	}

	pending := f.schedule(t, household, "FOOD")
	other := f.register(t, model.RoleHousehold, "Pune")
	wantKind(t, f.svc.Pickups.Delete(ctx, other, pending.ID), KindForbidden)
	if err := f.svc.Pickups.Delete(ctx, household, pending.ID); err != nil {
		t.Fatalf("delete pending: %v", err)
	}
	_, err = f.svc.Pickups.Get(ctx, household, pending.ID)
	wantKind(t, err, KindNotFound)
}

func TestRejectOnlyFromAssigned(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	household := f.register(t, model.RoleHousehold, "Pune")
	collector := f.register(t, model.RoleCollector, "Pune")
	stranger := f.register(t, model.RoleCollector, "Pune")

	p := f.schedule(t, household, "FOOD")
	_, err := f.svc.Pickups.Reject(ctx, collector, p.ID)
	wantKind(t, err, KindState)

	f.assign(t, p.ID, collector)
	_, err = f.svc.Pickups.Reject(ctx, stranger, p.ID)
	wantKind(t, err, KindForbidden)

	got, err := f.svc.Pickups.Reject(ctx, collector, p.ID)
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if got.Status != string(model.PickupPending) || got.CollectorID != nil {
		t.Fatalf("after reject status=%s collector=%v, want PENDING and none", got.Status, got.CollectorID)
	}

	available, err := f.svc.Pickups.ListAvailable(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(available) != 1 || available[0].ID != p.ID {
		t.Fatalf("available = %+v, want the rejected pickup", available)
	}
}

func TestAcceptClaimsOnlyUnassignedPickups(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	household := f.register(t, model.RoleHousehold, "Pune")
	first := f.register(t, model.RoleCollector, "Pune")
	second := f.register(t, model.RoleCollector, "Pune")

	p := f.schedule(t, household, "FOOD")
	got, err := f.svc.Pickups.Accept(ctx, first, p.ID)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if got.Status != string(model.PickupAssigned) {
		t.Fatalf("status = %s, want ASSIGNED", got.Status)
	}
	_, err = f.svc.Pickups.Accept(ctx, second, p.ID)
	wantKind(t, err, KindState)

	mine, total, err := f.svc.Pickups.ListAssigned(ctx, first, PickupFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 || len(mine) != 1 {
		t.Fatalf("assigned = %d (%d rows), want 1", total, len(mine))
	}
}

func TestUpdateStatusRoutesDedicatedTargets(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	household := f.register(t, model.RoleHousehold, "Pune")
	collector := f.register(t, model.RoleCollector, "Pune")

	unassigned := f.schedule(t, household, "FOOD")
	_, err := f.svc.Pickups.UpdateStatus(ctx, f.admin, unassigned.ID, "ASSIGNED")
	wantKind(t, err, KindValidation)
	stored, err := f.repos.Pickups.FindByID(ctx, uuid.MustParse(unassigned.ID))
	if err != nil {
		t.Fatal(err)
	}
	if stored.Status != model.PickupPending || stored.CollectorID != nil {
		t.Fatalf("pickup = %s collector=%v, want PENDING without collector", stored.Status, stored.CollectorID)
	}

	p := f.schedule(t, household, "FOOD")
	f.assign(t, p.ID, collector)

	_, err = f.svc.Pickups.UpdateStatus(ctx, collector, p.ID, "COMPLETED")
	wantKind(t, err, KindValidation)
	_, err = f.svc.Pickups.UpdateStatus(ctx, collector, p.ID, "PAYMENT_PENDING")
	wantKind(t, err, KindValidation)
	_, err = f.svc.Pickups.UpdateStatus(ctx, collector, p.ID, "PAID")
	wantKind(t, err, KindState)
	_, err = f.svc.Pickups.UpdateStatus(ctx, collector, p.ID, "LOST")
	wantKind(t, err, KindValidation)

	got, err := f.svc.Pickups.UpdateStatus(ctx, collector, p.ID, "pending")
	if err != nil {
		t.Fatalf("unassign via status: %v", err)
	}
	if got.Status != string(model.PickupPending) || got.CollectorID != nil {
		t.Fatalf("got %s collector=%v", got.Status, got.CollectorID)
	}
}

func TestCompleteRequiresAssignedCollector(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	household := f.register(t, model.RoleHousehold, "Pune")
	collector := f.register(t, model.RoleCollector, "Pune")

	p := f.schedule(t, household, "FOOD")
	_, err := f.svc.Pickups.Complete(ctx, collector, p.ID, CompletePickupRequest{WeightKg: "1"})
	wantKind(t, err, KindForbidden)

	f.assign(t, p.ID, collector)
	_, err = f.svc.Pickups.Complete(ctx, collector, p.ID, CompletePickupRequest{WeightKg: "0"})
	wantKind(t, err, KindValidation)
	_, err = f.svc.Pickups.Complete(ctx, collector, p.ID, CompletePickupRequest{WeightKg: "1001"})
	wantKind(t, err, KindValidation)

	if _, err := f.svc.Pickups.Complete(ctx, collector, p.ID, CompletePickupRequest{WeightKg: "1"}); err != nil {
		t.Fatalf("complete: %v", err)
	}
	_, err = f.svc.Pickups.Complete(ctx, collector, p.ID, CompletePickupRequest{WeightKg: "1"})
	wantKind(t, err, KindState)

	again, err := f.svc.Pickups.Finalize(ctx, f.admin, p.ID)
	if err != nil {
		t.Fatalf("finalize completed: %v", err)
	}
	if !again.AlreadyCompleted || again.PointsEarned != 0 {
		t.Fatalf("finalize of completed pickup = %+v, want no-op", again)
	}
	n, err := f.repos.Rewards.CountByPickup(ctx, uuid.MustParse(p.ID))
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("rewards = %d, want 1", n)
	}
}

func TestTrackingUpdatesCollectorPosition(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	household := f.register(t, model.RoleHousehold, "Pune")
	collector := f.register(t, model.RoleCollector, "Pune")
	p := f.schedule(t, household, "FOOD")

	_, err := f.svc.Pickups.AddTracking(ctx, collector, p.ID, TrackingInput{Latitude: 18.5, Longitude: 73.8})
	wantKind(t, err, KindForbidden)

	f.assign(t, p.ID, collector)
	if _, err := f.svc.Pickups.AddTracking(ctx, collector, p.ID, TrackingInput{Latitude: 18.5, Longitude: 73.8}); err != nil {
		t.Fatalf("add tracking: %v", err)
	}

	logs, err := f.svc.Pickups.ListTracking(ctx, household, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(logs) != 1 || logs[0].Latitude != 18.5 {
		t.Fatalf("tracking = %+v", logs)
	}
	profile, err := f.svc.Collectors.Profile(ctx, collector)
	if err != nil {
		t.Fatal(err)
	}
	if profile.CurrentLat == nil || *profile.CurrentLat != 18.5 {
		t.Fatalf("collector lat = %v, want 18.5", profile.CurrentLat)
	}
}
