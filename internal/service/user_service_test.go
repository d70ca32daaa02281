package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"bintobloom/internal/model"
	"bintobloom/internal/repository"

	"github.com/google/uuid"
)

func TestRegisterCreatesRoleDetail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	household := f.register(t, model.RoleHousehold, "Pune")
	if _, err := f.repos.Households.FindByUserID(ctx, household.ID); err != nil {
		t.Fatalf("household detail missing: %v", err)
	}
	business := f.register(t, model.RoleBusiness, "Pune")
	b, err := f.repos.Businesses.FindByUserID(ctx, business.ID)
	if err != nil {
		t.Fatalf("business detail missing: %v", err)
	}
	if b.BusinessType != "General" || b.PickupFrequency != model.FrequencyWeekly {
		t.Fatalf("business defaults = %+v", b)
	}
	ngo := f.register(t, model.RoleNGO, "Pune")
	n, err := f.repos.NGOs.FindByUserID(ctx, ngo.ID)
	if err != nil {
		t.Fatalf("ngo detail missing: %v", err)
	}
	if n.City != "Pune" {
		t.Fatalf("ngo city = %q", n.City)
	}
}

func TestRegisterRejectsAdminAndDuplicates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Users.Register(ctx, RegisterRequest{Name: "Root", Email: "root@example.com", Password: "secret123", Role: model.RoleAdmin})
	wantKind(t, err, KindValidation)

	req := RegisterRequest{Name: "Asha", Email: "Asha@Example.com", Password: "secret123", Role: model.RoleHousehold}
	if _, err := f.svc.Users.Register(ctx, req); err != nil {
		t.Fatal(err)
	}
	req.Email = "asha@example.com"
	_, err = f.svc.Users.Register(ctx, req)
	wantKind(t, err, KindConflict)
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := RegisterRequest{Name: "Ravi", Email: "ravi@example.com", Password: "secret123", Role: model.RoleCollector}
	user, err := f.svc.Users.Register(ctx, req)
	if err != nil {
		t.Fatal(err)
	}

	_, err = f.svc.Users.Login(ctx, LoginRequest{Email: req.Email, Password: "wrong"})
	wantKind(t, err, KindUnauthorized)
	_, err = f.svc.Users.Login(ctx, LoginRequest{Email: "nobody@example.com", Password: "secret123"})
	wantKind(t, err, KindUnauthorized)

	// Tokens are validated against the wall clock.
	f.now = time.Now()
	tok, err := f.svc.Users.Login(ctx, LoginRequest{Email: req.Email, Password: req.Password})
	if err != nil {
		t.Fatal(err)
	}
	actor, err := ParseToken("test-secret", tok.Token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if actor.ID.String() != user.ID || actor.Role != model.RoleCollector {
		t.Fatalf("actor = %+v", actor)
	}
	_, err = ParseToken("other-secret", tok.Token)
	wantKind(t, err, KindUnauthorized)

	if _, err := f.svc.Users.UpdateUserStatus(ctx, f.admin, user.ID, UpdateUserStatusRequest{Status: "INACTIVE"}); err != nil {
		t.Fatal(err)
	}
	_, err = f.svc.Users.Login(ctx, LoginRequest{Email: req.Email, Password: req.Password})
	wantKind(t, err, KindForbidden)

	logs, total, err := f.svc.Audit.GetAuditLogs(ctx, repository.AuditFilter{Action: model.ActionUpdateUserStatus}, 1, 10)
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 || logs[0].UserName != "Admin" {
		t.Fatalf("audit = %+v", logs)
	}
}

type failingContacts struct {
	repository.ContactRepository
}

func (failingContacts) List(context.Context, int, int) ([]model.Contact, int64, error) {
	return nil, 0, errors.New("connection reset")
}

func (failingContacts) MarkRead(context.Context, uuid.UUID) error {
	return errors.New("connection reset")
}

func TestContactErrorsPropagate(t *testing.T) {
	svc := NewContactService(failingContacts{})

	if _, _, err := svc.List(context.Background(), 1, 10); err == nil {
		t.Fatal("List swallowed the repository error")
	}
	err := svc.MarkRead(context.Background(), uuid.NewString())
	if err == nil {
		t.Fatal("MarkRead swallowed the repository error")
	}
	if _, ok := KindOf(err); ok {
		t.Fatalf("infrastructure error reported as domain error: %v", err)
	}
}

func TestContactRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	msg, err := f.svc.Contacts.Submit(ctx, ContactRequest{Name: "Meera", Email: "meera@example.com", Subject: "Hi", Message: "Bins overflowing"})
	if err != nil {
		t.Fatal(err)
	}
	if err := f.svc.Contacts.MarkRead(ctx, msg.ID); err != nil {
		t.Fatal(err)
	}
	wantKind(t, f.svc.Contacts.MarkRead(ctx, uuid.NewString()), KindNotFound)

	list, total, err := f.svc.Contacts.List(ctx, 1, 10)
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 || !list[0].IsRead {
		t.Fatalf("messages = %+v", list)
	}
}
