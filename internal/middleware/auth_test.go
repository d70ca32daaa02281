package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const testSecret = "test-secret"

type stubPerms struct {
	codes map[string][]string
	calls int
	err   error
}

func (s *stubPerms) GetPermissionsByRoleName(_ context.Context, role string) ([]string, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.codes[role], nil
}

func signToken(t *testing.T, id uuid.UUID, role string, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": id.String(), "role": role, "exp": exp.Unix()})
	s, err := tok.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func newRouter(auth *Auth, mw gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", mw, func(c *gin.Context) {
		actor, ok := CurrentActor(c)
		if !ok {
			c.Status(http.StatusTeapot)
			return
		}
		c.String(http.StatusOK, actor.Role)
	})
	return r
}

func do(r http.Handler, setup func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	if setup != nil {
		setup(req)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthenticateTokenSources(t *testing.T) {
	auth := NewAuth(testSecret, &stubPerms{})
	r := newRouter(auth, auth.Authenticate())
	tok := signToken(t, uuid.New(), "HOUSEHOLD", time.Now().Add(time.Hour))

	cases := []struct {
		name  string
		setup func(*http.Request)
		want  int
	}{
		{"missing", nil, http.StatusUnauthorized},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+tok) }, http.StatusOK},
		{"malformed header", func(r *http.Request) { r.Header.Set("Authorization", tok) }, http.StatusUnauthorized},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "access_token", Value: tok}) }, http.StatusOK},
		{"query", func(r *http.Request) { r.URL.RawQuery = "token=" + tok }, http.StatusOK},
		{"garbage", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := do(r, tc.setup).Code; got != tc.want {
				t.Fatalf("status = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	auth := NewAuth(testSecret, &stubPerms{})
	r := newRouter(auth, auth.Authenticate())
	tok := signToken(t, uuid.New(), "HOUSEHOLD", time.Now().Add(-time.Minute))
	w := do(r, func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+tok) })
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestRequireRole(t *testing.T) {
	auth := NewAuth(testSecret, &stubPerms{})
	r := newRouter(auth, auth.RequireRole("COLLECTOR", "ADMIN"))

	collector := signToken(t, uuid.New(), "COLLECTOR", time.Now().Add(time.Hour))
	w := do(r, func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+collector) })
	if w.Code != http.StatusOK || w.Body.String() != "COLLECTOR" {
		t.Fatalf("collector: %d %q", w.Code, w.Body.String())
	}

	household := signToken(t, uuid.New(), "HOUSEHOLD", time.Now().Add(time.Hour))
	w = do(r, func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+household) })
	if w.Code != http.StatusForbidden {
		t.Fatalf("household: %d", w.Code)
	}
}

func TestRequirePermissionCaches(t *testing.T) {
	perms := &stubPerms{codes: map[string][]string{"NGO": {"analytics.view"}}}
	auth := NewAuth(testSecret, perms)
	r := newRouter(auth, auth.RequirePermission("analytics.view"))
	tok := signToken(t, uuid.New(), "NGO", time.Now().Add(time.Hour))
	bearer := func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+tok) }

	for i := 0; i < 3; i++ {
		if w := do(r, bearer); w.Code != http.StatusOK {
			t.Fatalf("request %d: %d", i, w.Code)
		}
	}
	if perms.calls != 1 {
		t.Fatalf("lookups = %d, want 1", perms.calls)
	}

	auth.ClearPermissionCache("NGO")
	perms.codes["NGO"] = nil
	if w := do(r, bearer); w.Code != http.StatusForbidden {
		t.Fatalf("after revoke: %d", w.Code)
	}
}

func TestRequirePermissionLookupFailure(t *testing.T) {
	auth := NewAuth(testSecret, &stubPerms{err: errors.New("db down")})
	r := newRouter(auth, auth.RequirePermission("users.manage"))
	tok := signToken(t, uuid.New(), "ADMIN", time.Now().Add(time.Hour))
	w := do(r, func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+tok) })
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
}
