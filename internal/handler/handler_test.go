package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bintobloom/internal/database"
	"bintobloom/internal/events"
	"bintobloom/internal/middleware"
	"bintobloom/internal/model"
	"bintobloom/internal/payment"
	"bintobloom/internal/repository"
	"bintobloom/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
)

const testSecret = "handler-secret"

type envelope struct {
	Status     string          `json:"status"`
	StatusCode int             `json:"status_code"`
	Data       json.RawMessage `json:"data"`
	Meta       *struct {
		Total int64 `json:"total"`
	} `json:"meta"`
	Error string `json:"error"`
}

type api struct {
	t      *testing.T
	router *gin.Engine
	repos  *repository.Repositories
}

func newAPI(t *testing.T) *api {
	t.Helper()
	gin.SetMode(gin.TestMode)

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Open(sqlite.Open(fmt.Sprintf("file:h_%s?mode=memory&cache=shared", name)))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, _ := db.DB()
	t.Cleanup(func() { sqlDB.Close() })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	repos := repository.NewRepositories(db)
	svc := service.New(repos, service.Options{
		Gateway:   payment.NewHMACGateway("key_test", "secret"),
		Publisher: events.Nop{},
		Clock:     service.SystemClock(time.UTC),
		JWTSecret: testSecret,
		Logger:    log,
	})
	auth := middleware.NewAuth(testSecret, svc.Roles)

	r := gin.New()
	RegisterAll(r.Group("/api"), svc, auth, RouterConfig{TokenTTL: time.Hour, Logger: log})
	return &api{t: t, router: r, repos: repos}
}

func (a *api) do(method, path, token string, body interface{}) (int, envelope) {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			a.t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		a.t.Fatalf("%s %s: decode %q: %v", method, path, w.Body.String(), err)
	}
	return w.Code, env
}

// signup registers an account and logs in, returning its bearer token.
func (a *api) signup(role, city string) string {
	a.t.Helper()
	email := strings.ToLower(role) + "-" + uuid.NewString()[:8] + "@example.com"
	code, env := a.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Test " + role, "email": email, "password": "secret123", "city": city, "role": role,
	})
	if code != http.StatusCreated {
		a.t.Fatalf("register %s: %d %s", role, code, env.Error)
	}
	code, env = a.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": email, "password": "secret123"})
	if code != http.StatusOK {
		a.t.Fatalf("login %s: %d %s", role, code, env.Error)
	}
	var tok service.TokenResponse
	if err := json.Unmarshal(env.Data, &tok); err != nil {
		a.t.Fatal(err)
	}
	return tok.Token
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{&service.DomainError{Kind: service.KindValidation, Msg: "bad"}, http.StatusBadRequest},
		{&service.DomainError{Kind: service.KindState, Msg: "state"}, http.StatusBadRequest},
		{&service.DomainError{Kind: service.KindNotFound, Msg: "missing"}, http.StatusNotFound},
		{&service.DomainError{Kind: service.KindForbidden, Msg: "no"}, http.StatusForbidden},
		{&service.DomainError{Kind: service.KindUnauthorized, Msg: "who"}, http.StatusUnauthorized},
		{&service.DomainError{Kind: service.KindConflict, Msg: "busy"}, http.StatusConflict},
		{fmt.Errorf("wrapped: %w", &service.DomainError{Kind: service.KindNotFound, Msg: "missing"}), http.StatusNotFound},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := statusFor(tc.err); got != tc.want {
			t.Errorf("statusFor(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestUnexpectedErrorHidden(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", func(c *gin.Context) {
		respondError(c, slog.New(slog.NewTextHandler(io.Discard, nil)), errors.New("pq: connection refused"))
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if w.Code != http.StatusInternalServerError || strings.Contains(w.Body.String(), "pq") {
		t.Fatalf("got %d %s", w.Code, w.Body.String())
	}
}

func TestRegisterLoginMe(t *testing.T) {
	a := newAPI(t)
	tok := a.signup(model.RoleHousehold, "Pune")

	code, env := a.do(http.MethodGet, "/api/auth/me", tok, nil)
	if code != http.StatusOK {
		t.Fatalf("me: %d %s", code, env.Error)
	}
	var me meResponse
	if err := json.Unmarshal(env.Data, &me); err != nil {
		t.Fatal(err)
	}
	if me.Role != model.RoleHousehold || me.City != "Pune" || me.Permissions == nil {
		t.Fatalf("me = %+v", me)
	}

	if code, _ := a.do(http.MethodGet, "/api/auth/me", "", nil); code != http.StatusUnauthorized {
		t.Fatalf("anonymous me: %d", code)
	}
}

func TestRegisterRejectsAdminRole(t *testing.T) {
	a := newAPI(t)
	code, _ := a.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Mallory", "email": "m@example.com", "password": "secret123", "role": model.RoleAdmin,
	})
	if code != http.StatusBadRequest {
		t.Fatalf("status = %d", code)
	}
}

func TestPickupLifecycleOverHTTP(t *testing.T) {
	a := newAPI(t)
	household := a.signup(model.RoleHousehold, "Pune")
	collector := a.signup(model.RoleCollector, "Pune")

	tomorrow := time.Now().UTC().AddDate(0, 0, 1).Format(time.DateOnly)
	code, env := a.do(http.MethodPost, "/api/pickup/request", household, map[string]string{
		"waste_type": "e-waste", "scheduled_date": tomorrow, "scheduled_time": "10:00",
	})
	if code != http.StatusCreated {
		t.Fatalf("create: %d %s", code, env.Error)
	}
	var pickup service.PickupResponse
	if err := json.Unmarshal(env.Data, &pickup); err != nil {
		t.Fatal(err)
	}
	if pickup.Status != string(model.PickupPending) {
		t.Fatalf("status = %s", pickup.Status)
	}

	if code, _ := a.do(http.MethodPost, "/api/pickup/request", collector, map[string]string{
		"waste_type": "PLASTIC", "scheduled_date": tomorrow, "scheduled_time": "10:00",
	}); code != http.StatusForbidden {
		t.Fatalf("collector create: %d", code)
	}

	code, env = a.do(http.MethodGet, "/api/collector/pickups/available", collector, nil)
	if code != http.StatusOK || !strings.Contains(string(env.Data), pickup.ID) {
		t.Fatalf("available: %d %s", code, env.Data)
	}

	if code, env := a.do(http.MethodPost, "/api/collector/pickup/"+pickup.ID+"/accept", collector, nil); code != http.StatusOK {
		t.Fatalf("accept: %d %s", code, env.Error)
	}

	code, env = a.do(http.MethodPost, "/api/collector/pickup/"+pickup.ID+"/complete", collector, map[string]string{"weight_kg": "2"})
	if code != http.StatusOK {
		t.Fatalf("complete: %d %s", code, env.Error)
	}
	var done service.CompletionResponse
	if err := json.Unmarshal(env.Data, &done); err != nil {
		t.Fatal(err)
	}
	if done.PointsEarned != 4 {
		t.Fatalf("points = %d, want 4", done.PointsEarned)
	}

	code, env = a.do(http.MethodGet, "/api/household/pickups?status=COMPLETED", household, nil)
	if code != http.StatusOK || env.Meta == nil || env.Meta.Total != 1 {
		t.Fatalf("household pickups: %d %+v", code, env.Meta)
	}

	code, env = a.do(http.MethodGet, "/api/household/leaderboard-position", household, nil)
	if code != http.StatusOK {
		t.Fatalf("position: %d %s", code, env.Error)
	}
	var rank service.RankResponse
	if err := json.Unmarshal(env.Data, &rank); err != nil {
		t.Fatal(err)
	}
	if rank.Rank != 1 {
		t.Fatalf("rank = %+v", rank)
	}
}

func TestPickupValidationOverHTTP(t *testing.T) {
	a := newAPI(t)
	household := a.signup(model.RoleHousehold, "Pune")

	yesterday := time.Now().UTC().AddDate(0, 0, -1).Format(time.DateOnly)
	code, env := a.do(http.MethodPost, "/api/pickup/request", household, map[string]string{
		"waste_type": "PLASTIC", "scheduled_date": yesterday, "scheduled_time": "10:00",
	})
	if code != http.StatusBadRequest || !strings.Contains(env.Error, "past") {
		t.Fatalf("past date: %d %q", code, env.Error)
	}

	if code, _ := a.do(http.MethodPost, "/api/pickup/request", household, map[string]string{"waste_type": "PLASTIC"}); code != http.StatusBadRequest {
		t.Fatalf("missing fields: %d", code)
	}

	if code, _ := a.do(http.MethodGet, "/api/pickup/"+uuid.NewString(), household, nil); code != http.StatusNotFound {
		t.Fatalf("unknown pickup: %d", code)
	}
}

func TestVerifyIsPublicAndRejectsBadSignature(t *testing.T) {
	a := newAPI(t)
	code, env := a.do(http.MethodPost, "/api/payment/verify", "", map[string]string{
		"razorpay_order_id": "order_x", "razorpay_payment_id": "pay_x", "razorpay_signature": "bad",
	})
	if code != http.StatusBadRequest {
		t.Fatalf("status = %d %s", code, env.Error)
	}
}

func TestRoleGuards(t *testing.T) {
	a := newAPI(t)
	household := a.signup(model.RoleHousehold, "Pune")
	ngo := a.signup(model.RoleNGO, "Pune")

	if code, _ := a.do(http.MethodGet, "/api/collector/dashboard", household, nil); code != http.StatusForbidden {
		t.Fatalf("household on collector route: %d", code)
	}
	if code, _ := a.do(http.MethodGet, "/api/admin/users", ngo, nil); code != http.StatusForbidden {
		t.Fatalf("ngo on admin route: %d", code)
	}
	if code, env := a.do(http.MethodGet, "/api/analytics/global", ngo, nil); code != http.StatusOK {
		t.Fatalf("ngo analytics: %d %s", code, env.Error)
	}
	if code, _ := a.do(http.MethodGet, "/api/analytics/city", ngo, nil); code != http.StatusBadRequest {
		t.Fatalf("city analytics without city: %d", code)
	}
	if code, _ := a.do(http.MethodGet, "/api/analytics/global?from=yesterday", ngo, nil); code != http.StatusBadRequest {
		t.Fatalf("bad range: %d", code)
	}
	if code, env := a.do(http.MethodPost, "/api/ngo/reports", ngo, nil); code != http.StatusCreated {
		t.Fatalf("ngo report: %d %s", code, env.Error)
	}
}

func TestContactSubmission(t *testing.T) {
	a := newAPI(t)
	code, env := a.do(http.MethodPost, "/api/contact", "", map[string]string{
		"name": "Asha", "email": "asha@example.com", "subject": "Bins", "message": "When is the next drive?",
	})
	if code != http.StatusCreated {
		t.Fatalf("submit: %d %s", code, env.Error)
	}
	if code, _ := a.do(http.MethodPost, "/api/contact", "", map[string]string{"name": "Asha"}); code != http.StatusBadRequest {
		t.Fatalf("invalid submit: %d", code)
	}
}
