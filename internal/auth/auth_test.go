package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/thrivewell/wellness-platform/internal/tenancy"
	"github.com/thrivewell/wellness-platform/pkg/logging"
)

func newTestAuth(t *testing.T) (*Handler, *TokenIssuer, *RedisSessionStore, *InMemoryUserStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessions := NewRedisSessionStore(client)

	issuer, err := NewTokenIssuer("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("issuer: %v", err)
	}

	users := NewInMemoryUserStore()
	if err := users.Seed(User{
		ID:        1,
		OrgID:     "org-1",
		Email:     "admin@example.com",
		Role:      RoleAdmin,
		Firstname: "Alex",
		Lastname:  "Admin",
	}, "correct horse battery"); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	return NewHandler(users, issuer, sessions, logging.Default()), issuer, sessions, users
}

type authEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

func doLogin(t *testing.T, h *Handler, email, password string) (*httptest.ResponseRecorder, string) {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	req := httptest.NewRequest(http.MethodPost, "/api/org/auth/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	var token string
	if rec.Code == http.StatusOK {
		var env authEnvelope
		if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
			t.Fatalf("decode login: %v", err)
		}
		var session struct {
			Token string `json:"token"`
			User  *User  `json:"user"`
		}
		if err := json.Unmarshal(env.Data, &session); err != nil {
			t.Fatalf("decode session: %v", err)
		}
		token = session.Token
	}
	return rec, token
}

func TestLogin(t *testing.T) {
	h, issuer, sessions, _ := newTestAuth(t)

	rec, token := doLogin(t, h, "admin@example.com", "correct horse battery")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if token == "" {
		t.Fatal("no token in login response")
	}

	claims, err := issuer.Parse(token)
	if err != nil {
		t.Fatalf("parse issued token: %v", err)
	}
	if claims.OrgID != "org-1" || claims.UserID != 1 || claims.Role != RoleAdmin {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	live, err := sessions.Valid(context.Background(), claims.ID)
	if err != nil || !live {
		t.Fatalf("session not live after login: %v %v", live, err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	h, _, _, _ := newTestAuth(t)

	rec, _ := doLogin(t, h, "admin@example.com", "wrong")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestLoginUnknownUser(t *testing.T) {
	h, _, _, _ := newTestAuth(t)

	rec, _ := doLogin(t, h, "nobody@example.com", "whatever")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	var env authEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	// Unknown user and wrong password must be indistinguishable.
	if env.Message != "invalid email or password" {
		t.Fatalf("message = %q", env.Message)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	h, issuer, sessions, _ := newTestAuth(t)
	_, token := doLogin(t, h, "admin@example.com", "correct horse battery")

	req := httptest.NewRequest(http.MethodPost, "/api/org/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.Logout(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	claims, _ := issuer.Parse(token)
	live, _ := sessions.Valid(context.Background(), claims.ID)
	if live {
		t.Fatal("session still live after logout")
	}
}

func TestLogoutWithoutTokenStillSucceeds(t *testing.T) {
	h, _, _, _ := newTestAuth(t)

	rec := httptest.NewRecorder()
	h.Logout(rec, httptest.NewRequest(http.MethodPost, "/api/org/auth/logout", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestRefreshRotatesSession(t *testing.T) {
	h, issuer, sessions, _ := newTestAuth(t)
	_, token := doLogin(t, h, "admin@example.com", "correct horse battery")
	oldClaims, _ := issuer.Parse(token)

	req := httptest.NewRequest(http.MethodPost, "/api/org/auth/refresh", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.Refresh(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var env authEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	var session struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(env.Data, &session); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	if session.Token == "" || session.Token == token {
		t.Fatal("refresh must issue a new token")
	}

	newClaims, err := issuer.Parse(session.Token)
	if err != nil {
		t.Fatalf("parse refreshed token: %v", err)
	}
	if live, _ := sessions.Valid(context.Background(), newClaims.ID); !live {
		t.Fatal("new session not live")
	}
	if live, _ := sessions.Valid(context.Background(), oldClaims.ID); live {
		t.Fatal("old session not revoked")
	}
}

func TestRefreshRevokedSession(t *testing.T) {
	h, issuer, sessions, _ := newTestAuth(t)
	_, token := doLogin(t, h, "admin@example.com", "correct horse battery")
	claims, _ := issuer.Parse(token)
	if err := sessions.Revoke(context.Background(), claims.ID); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/org/auth/refresh", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.Refresh(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestRequireAuth(t *testing.T) {
	h, issuer, sessions, _ := newTestAuth(t)
	_, token := doLogin(t, h, "admin@example.com", "correct horse battery")

	var gotOrg string
	var gotUser int64
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotOrg, _ = tenancy.OrgIDFromContext(r.Context())
		gotUser, _ = tenancy.UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	protected := RequireAuth(issuer, sessions, RoleAdmin)(next)

	req := httptest.NewRequest(http.MethodGet, "/api/org/appointments", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	protected.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotOrg != "org-1" || gotUser != 1 {
		t.Fatalf("context not injected: org=%q user=%d", gotOrg, gotUser)
	}
}

func TestRequireAuthRejectsRole(t *testing.T) {
	h, issuer, sessions, _ := newTestAuth(t)
	_, token := doLogin(t, h, "admin@example.com", "correct horse battery")

	protected := RequireAuth(issuer, sessions, RoleEmployee)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/org/employee/appointments", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	protected.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestRequireAuthMissingHeader(t *testing.T) {
	_, issuer, sessions, _ := newTestAuth(t)

	protected := RequireAuth(issuer, sessions)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	rec := httptest.NewRecorder()
	protected.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/org/appointments", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestTokenExpiry(t *testing.T) {
	issuer, err := NewTokenIssuer("test-secret", time.Minute)
	if err != nil {
		t.Fatalf("issuer: %v", err)
	}
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	issuer.SetClock(func() time.Time { return base })

	token, _, err := issuer.Issue(&User{ID: 1, OrgID: "org-1", Role: RoleAdmin})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := issuer.Parse(token); err != nil {
		t.Fatalf("parse before expiry: %v", err)
	}

	issuer.SetClock(func() time.Time { return base.Add(2 * time.Minute) })
	if _, err := issuer.Parse(token); err == nil {
		t.Fatal("expired token accepted")
	}
}

func TestTokenWrongSecret(t *testing.T) {
	a, _ := NewTokenIssuer("secret-a", time.Hour)
	b, _ := NewTokenIssuer("secret-b", time.Hour)

	token, _, err := a.Issue(&User{ID: 1, OrgID: "org-1", Role: RoleAdmin})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := b.Parse(token); err == nil {
		t.Fatal("token verified with wrong secret")
	}
}
