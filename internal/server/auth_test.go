package server

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"safexchange/internal/auth"
	"safexchange/internal/identity"
)

func TestLoginSuccessPerRole(t *testing.T) {
	h := newHarness(t)
	h.seedUser(t, "opsuser", "hunter22x", "ops")
	h.seedUser(t, "clientuser", "hunter22x", "client")

	_ = h.login(t, "ops", "opsuser", "hunter22x")
	_ = h.login(t, "client", "clientuser", "hunter22x")
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	h := newHarness(t)
	h.seedUser(t, "clientuser", "hunter22x", "client")

	cases := []struct {
		name               string
		role               string
		username, password string
		wantStatus         int
	}{
		{"wrong password", "client", "clientuser", "nope12345", http.StatusUnauthorized},
		{"unknown user", "client", "ghost", "hunter22x", http.StatusUnauthorized},
		{"wrong role endpoint", "ops", "clientuser", "hunter22x", http.StatusUnauthorized},
		{"unknown role path", "admin", "clientuser", "hunter22x", http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := h.doJSON(t, http.MethodPost, "/login/"+tc.role, "", map[string]string{
				"username": tc.username,
				"password": tc.password,
			})
			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d (body %q)", rec.Code, tc.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestLoginWrongRoleLooksLikeWrongPassword(t *testing.T) {
	h := newHarness(t)
	h.seedUser(t, "clientuser", "hunter22x", "client")

	wrongRole := h.doJSON(t, http.MethodPost, "/login/ops", "", map[string]string{
		"username": "clientuser", "password": "hunter22x",
	})
	wrongPass := h.doJSON(t, http.MethodPost, "/login/client", "", map[string]string{
		"username": "clientuser", "password": "wrong12345",
	})

	if wrongRole.Code != wrongPass.Code {
		t.Fatalf("status differs: wrong role %d, wrong password %d", wrongRole.Code, wrongPass.Code)
	}
	if wrongRole.Body.String() != wrongPass.Body.String() {
		t.Fatalf("body differs: %q vs %q", wrongRole.Body.String(), wrongPass.Body.String())
	}
}

func TestSignupVerifyLoginFlow(t *testing.T) {
	h := newHarness(t)

	rec := h.doJSON(t, http.MethodPost, "/signup", "", map[string]string{
		"email":    "newbie@example.com",
		"username": "newbie",
		"password": "passw0rd99",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup status = %d, body %q", rec.Code, rec.Body.String())
	}
	var created struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Role     string `json:"role"`
	}
	decodeJSON(t, rec, &created)
	if created.Role != "client" {
		t.Fatalf("signup role = %q, want client", created.Role)
	}

	// Verification email carries the one-time link.
	m := h.mailer.lastSent(t)
	if m.to != "newbie@example.com" {
		t.Fatalf("mail to = %q", m.to)
	}
	verifyToken := extractVerifyToken(t, m)

	rec = h.do(t, http.MethodGet, "/verify/"+verifyToken, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("verify status = %d, body %q", rec.Code, rec.Body.String())
	}

	// The verification token is single use.
	rec = h.do(t, http.MethodGet, "/verify/"+verifyToken, "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second verify status = %d, want 404", rec.Code)
	}

	// The new account can log in as a client.
	tok := h.login(t, "client", "newbie", "passw0rd99")

	rec = h.do(t, http.MethodGet, "/session/verify", tok, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("session verify status = %d", rec.Code)
	}
	var info struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Role     string `json:"role"`
		Verified bool   `json:"is_verified"`
	}
	decodeJSON(t, rec, &info)
	if info.Username != "newbie" || info.Role != "client" || !info.Verified {
		t.Fatalf("unexpected session info: %+v", info)
	}
}

func TestSignupDuplicateUsername(t *testing.T) {
	h := newHarness(t)
	h.seedUser(t, "taken", "hunter22x", "client")

	rec := h.doJSON(t, http.MethodPost, "/signup", "", map[string]string{
		"email":    "taken@example.com",
		"username": "taken",
		"password": "passw0rd99",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestSignupValidation(t *testing.T) {
	h := newHarness(t)

	cases := []struct {
		name                      string
		email, username, password string
	}{
		{"bad email", "not-an-email", "newbie", "passw0rd99"},
		{"short username", "a@example.com", "ab", "passw0rd99"},
		{"username charset", "a@example.com", "has spaces", "passw0rd99"},
		{"short password", "a@example.com", "newbie", "a1"},
		{"letters only password", "a@example.com", "newbie", "onlyletters"},
		{"digits only password", "a@example.com", "newbie", "1234567890"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := h.doJSON(t, http.MethodPost, "/signup", "", map[string]string{
				"email": tc.email, "username": tc.username, "password": tc.password,
			})
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400 (body %q)", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestSessionVerifyRequiresToken(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodGet, "/session/verify", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token status = %d, want 401", rec.Code)
	}

	rec = h.do(t, http.MethodGet, "/session/verify", "garbage-token", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token status = %d, want 401", rec.Code)
	}
}

func TestExpiredSessionRejected(t *testing.T) {
	h := newHarness(t)
	h.seedUser(t, "clientuser", "hunter22x", "client")

	// Issue clamps non-positive ttls, so sign an already-expired token
	// with the harness secret directly.
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "clientuser",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
		Role: identity.RoleClient,
	}).SignedString([]byte("handler-test-secret"))
	if err != nil {
		t.Fatalf("sign expired token: %v", err)
	}

	rec := h.do(t, http.MethodGet, "/session/verify", expired, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expired token status = %d, want 401", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "session expired") {
		t.Fatalf("expected expiry message, got %q", rec.Body.String())
	}
}
