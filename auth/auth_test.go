package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestSessionRoundTrip(t *testing.T) {
	uid := uuid.New()
	w := httptest.NewRecorder()
	CreateSession(w, uid)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range w.Result().Cookies() {
		req.AddCookie(c)
	}
	got, ok := ParseSession(req)
	if !ok || got != uid {
		t.Fatalf("ParseSession() = %s, %v; want %s", got, ok, uid)
	}
}

func TestSessionTampered(t *testing.T) {
	w := httptest.NewRecorder()
	CreateSession(w, uuid.New())
	cookie := w.Result().Cookies()[0]
	_, sig, _ := strings.Cut(cookie.Value, ".")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: cookie.Name, Value: uuid.NewString() + "." + sig})
	if _, ok := ParseSession(req); ok {
		t.Fatal("expected tampered session to be rejected")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	uid := uuid.New()
	token, exp, err := IssueToken(uid, time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if time.Until(exp) <= 0 {
		t.Fatalf("expected expiry in the future, got %v", exp)
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	got, err := ParseBearer(req)
	if err != nil || got != uid {
		t.Fatalf("ParseBearer() = %s, %v; want %s", got, err, uid)
	}
}

func TestTokenDefaultTTLAndCorruption(t *testing.T) {
	token, _, err := IssueToken(uuid.New(), -time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	// a non positive ttl falls back to the default, so the token is valid
	if _, err := ParseToken(token); err != nil {
		t.Fatalf("expected default ttl token to be valid: %v", err)
	}
	if _, err := ParseToken(token + "x"); err == nil {
		t.Fatal("expected corrupted token to fail")
	}
}

func TestRequireAuth(t *testing.T) {
	uid := uuid.New()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := Middleware(RequireAuth(next))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/clients", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous: expected 401 got %d", w.Code)
	}

	token, _, _ := IssueToken(uid, time.Hour)
	req := httptest.NewRequest(http.MethodGet, "/api/clients", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("bearer: expected 204 got %d", w.Code)
	}

	SetUserVerifier(func(_ context.Context, id uuid.UUID) bool { return false })
	defer SetUserVerifier(nil)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("unknown user: expected 401 got %d", w.Code)
	}
}
