package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"festivalrisk/internal/models"
)

const testSecret = "0123456789abcdef0123"

func TestIssueAndVerify(t *testing.T) {
	m := NewTokenManager(testSecret, time.Hour, true)
	token, exp, err := m.Issue(models.User{Username: "ops", Role: models.RoleAdmin})
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	if strings.Count(token, ".") != 2 {
		t.Fatalf("expected a compact JWT, got %q", token)
	}

	s, err := m.Verify(token)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if s.Username != "ops" || s.Role != models.RoleAdmin {
		t.Fatalf("unexpected session %+v", s)
	}
	if !s.ExpiresAt.Equal(exp.Truncate(time.Second)) {
		t.Fatalf("expected expiry %v, got %v", exp, s.ExpiresAt)
	}
}

func TestVerifyRejects(t *testing.T) {
	issued := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	m := NewTokenManager(testSecret, 30*time.Minute, false)
	m.now = func() time.Time { return issued }
	token, _, err := m.Issue(models.User{Username: "staff", Role: models.RoleUser})
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	expired := NewTokenManager(testSecret, 30*time.Minute, false)
	expired.now = func() time.Time { return issued.Add(time.Hour) }

	other := NewTokenManager("another-secret-value", 30*time.Minute, false)
	other.now = m.now

	// Same signature over an escalated payload.
	admin, _, err := m.Issue(models.User{Username: "staff", Role: models.RoleAdmin})
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	orig, escalated := strings.Split(token, "."), strings.Split(admin, ".")
	tampered := strings.Join([]string{orig[0], escalated[1], orig[2]}, ".")

	tests := []struct {
		name  string
		mgr   *TokenManager
		token string
	}{
		{name: "expired", mgr: expired, token: token},
		{name: "wrong secret", mgr: other, token: token},
		{name: "garbage", mgr: m, token: "not-a-token"},
		{name: "tampered", mgr: m, token: tampered},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.mgr.Verify(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestCookies(t *testing.T) {
	m := NewTokenManager(testSecret, time.Hour, true)
	rec := httptest.NewRecorder()
	m.SetCookie(rec, "tok", time.Now().Add(time.Hour))

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected one cookie, got %d", len(cookies))
	}
	c := cookies[0]
	if c.Name != CookieName || c.Value != "tok" || !c.HttpOnly || !c.Secure || c.SameSite != http.SameSiteLaxMode {
		t.Fatalf("unexpected cookie %+v", c)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(c)
	if got := FromRequest(req); got != "tok" {
		t.Fatalf("expected token from request, got %q", got)
	}
	if got := FromRequest(httptest.NewRequest(http.MethodGet, "/", nil)); got != "" {
		t.Fatalf("expected empty token without cookie, got %q", got)
	}

	rec = httptest.NewRecorder()
	m.ClearCookie(rec)
	if c := rec.Result().Cookies()[0]; c.MaxAge >= 0 {
		t.Fatalf("expected clearing cookie to expire, got MaxAge %d", c.MaxAge)
	}
}
