package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"safexchange/internal/auth"
	"safexchange/internal/capability"
	"safexchange/internal/identity"
	"safexchange/internal/objstore"
)

// fakeObjects is an in-memory ObjectStore for handler tests.
type fakeObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{
		objects: make(map[string][]byte),
		types:   make(map[string]string),
	}
}

func (f *fakeObjects) Put(_ context.Context, key string, r io.Reader, _ int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	f.types[key] = contentType
	return nil
}

func (f *fakeObjects) Get(_ context.Context, key string) (io.ReadCloser, objstore.ObjectInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[key]
	if !ok {
		return nil, objstore.ObjectInfo{}, objstore.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), objstore.ObjectInfo{
		Size:        int64(len(data)),
		ContentType: f.types[key],
	}, nil
}

func (f *fakeObjects) List(_ context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := []string{}
	for k := range f.objects {
		keys = append(keys, k)
	}
	return keys, nil
}

func (f *fakeObjects) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.objects[key]; !ok {
		return objstore.ErrNotFound
	}
	delete(f.objects, key)
	delete(f.types, key)
	return nil
}

func (f *fakeObjects) Exists(_ context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[key]
	return ok, nil
}

type sentMail struct {
	to      string
	subject string
	text    string
	html    string
}

// fakeMailer records outgoing mail instead of talking SMTP.
type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (f *fakeMailer) Send(to, subject, bodyText, bodyHTML string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMail{to: to, subject: subject, text: bodyText, html: bodyHTML})
	return nil
}

func (f *fakeMailer) lastSent(t *testing.T) sentMail {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		t.Fatalf("no mail sent")
	}
	return f.sent[len(f.sent)-1]
}

type harness struct {
	handler    http.Handler
	identities *identity.MemoryStore
	objects    *fakeObjects
	mailer     *fakeMailer
	sessions   *auth.Sessions
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	identities := identity.NewMemoryStore()
	objects := newFakeObjects()
	mailer := &fakeMailer{}
	sessions := auth.NewSessions([]byte("handler-test-secret"))

	srv := New(Config{
		Addr:         ":0",
		Identities:   identities,
		Verifier:     auth.NewVerifier(identities),
		Sessions:     sessions,
		Capabilities: capability.NewMemoryStore(),
		Objects:      objects,
		Mailer:       mailer,
		BaseURL:      "http://localhost:8080",
		SessionTTL:   auth.DefaultSessionTTL,
		DownloadTTL:  capability.DefaultTTL,
	})

	return &harness{
		handler:    srv.Handler(),
		identities: identities,
		objects:    objects,
		mailer:     mailer,
		sessions:   sessions,
	}
}

func (h *harness) seedUser(t *testing.T, username, password string, role identity.Role) {
	t.Helper()
	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	err = h.identities.Insert(context.Background(), identity.Identity{
		Username:     username,
		Email:        username + "@example.com",
		Role:         role,
		PasswordHash: hash,
		Verified:     true,
	})
	if err != nil {
		t.Fatalf("seed user %s: %v", username, err)
	}
}

// token mints a valid session token directly, bypassing the login handler.
func (h *harness) token(t *testing.T, username string, role identity.Role) string {
	t.Helper()
	tok, err := h.sessions.Issue(username, role, time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return tok
}

// do runs one request through the full middleware chain.
func (h *harness) do(t *testing.T, method, target, bearer string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func (h *harness) doJSON(t *testing.T, method, target, bearer string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return h.do(t, method, target, bearer, bytes.NewReader(b))
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

// login goes through the real login endpoint and returns the bearer token.
func (h *harness) login(t *testing.T, role, username, password string) string {
	t.Helper()
	rec := h.doJSON(t, http.MethodPost, "/login/"+role, "", map[string]string{
		"username": username,
		"password": password,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s/%s: status %d body %q", role, username, rec.Code, rec.Body.String())
	}
	var resp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	decodeJSON(t, rec, &resp)
	if resp.TokenType != "bearer" {
		t.Fatalf("unexpected token_type %q", resp.TokenType)
	}
	if resp.AccessToken == "" {
		t.Fatalf("empty access token")
	}
	return resp.AccessToken
}

// extractVerifyToken pulls the verification token out of the recorded email.
func extractVerifyToken(t *testing.T, m sentMail) string {
	t.Helper()
	const marker = "/verify/"
	i := strings.Index(m.text, marker)
	if i < 0 {
		t.Fatalf("no verification link in email body %q", m.text)
	}
	rest := m.text[i+len(marker):]
	if j := strings.IndexAny(rest, "\r\n \t"); j >= 0 {
		rest = rest[:j]
	}
	return rest
}
