package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"bintobloom/internal/database"
	"bintobloom/internal/events"
	"bintobloom/internal/model"
	"bintobloom/internal/payment"
	"bintobloom/internal/repository"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) count(t events.Type) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Type == t {
			n++
		}
	}
	return n
}

type fixture struct {
	db      *gorm.DB
	repos   *repository.Repositories
	svc     *Services
	gateway *payment.HMACGateway
	events  *recorder
	now     time.Time
	admin   Actor
}

// newFixture wires every service over a private in-memory sqlite database with the
// clock fixed at 2026-03-10 09:00 UTC.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	f := &fixture{
		db:      db,
		repos:   repository.NewRepositories(db),
		gateway: payment.NewHMACGateway("key_test", "secret"),
		events:  &recorder{},
		now:     time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
	}
	f.svc = New(f.repos, Options{
		Gateway:   f.gateway,
		Publisher: f.events,
		Clock:     Clock{Now: func() time.Time { return f.now }, Location: time.UTC},
		JWTSecret: "test-secret",
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	admin := &model.User{Name: "Admin", Email: "admin@example.com", Password: "x", Role: model.RoleAdmin}
	if err := f.repos.Users.Create(context.Background(), admin); err != nil {
		t.Fatalf("create admin: %v", err)
	}
	f.admin = Actor{ID: admin.ID, Role: model.RoleAdmin}
	return f
}

func (f *fixture) register(t *testing.T, role, city string) Actor {
	t.Helper()
	user, err := f.svc.Users.Register(context.Background(), RegisterRequest{
		Name:     strings.ToLower(role) + "-" + uuid.NewString()[:8],
		Email:    uuid.NewString()[:8] + "@example.com",
		Password: "secret123",
		City:     city,
		Role:     role,
	})
	if err != nil {
		t.Fatalf("register %s: %v", role, err)
	}
	return Actor{ID: uuid.MustParse(user.ID), Role: role}
}

func (f *fixture) collectorID(t *testing.T, collector Actor) string {
	t.Helper()
	c, err := f.repos.Collectors.FindByUserID(context.Background(), collector.ID)
	if err != nil {
		t.Fatalf("load collector: %v", err)
	}
	return c.ID.String()
}

// schedule creates a pickup for tomorrow morning.
func (f *fixture) schedule(t *testing.T, requester Actor, wasteType string) PickupResponse {
	t.Helper()
	p, err := f.svc.Pickups.Create(context.Background(), requester, PickupInput{
		WasteType:     wasteType,
		ScheduledDate: f.now.AddDate(0, 0, 1).Format("2006-01-02"),
		ScheduledTime: "10:00",
	})
	if err != nil {
		t.Fatalf("create pickup: %v", err)
	}
	return p
}

func (f *fixture) assign(t *testing.T, pickupID string, collector Actor) {
	t.Helper()
	if _, err := f.svc.Pickups.Assign(context.Background(), f.admin, pickupID, f.collectorID(t, collector)); err != nil {
		t.Fatalf("assign: %v", err)
	}
}

func (f *fixture) complete(t *testing.T, requester, collector Actor, wasteType, kg string) CompletionResponse {
	t.Helper()
	p := f.schedule(t, requester, wasteType)
	f.assign(t, p.ID, collector)
	res, err := f.svc.Pickups.Complete(context.Background(), collector, p.ID, CompletePickupRequest{WeightKg: kg})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	return res
}

func wantKind(t *testing.T, err error, kind ErrorKind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error of kind %d, got nil", kind)
	}
	got, ok := KindOf(err)
	if !ok || got != kind {
		t.Fatalf("error kind = %d (domain=%v), want %d: %v", got, ok, kind, err)
	}
}
