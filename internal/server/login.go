package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"safexchange/internal/auth"
	"safexchange/internal/identity"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// tokenResponse mirrors the classic OAuth2 password-grant shape.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// loginHandler authenticates against the role named in the path
// (/login/ops or /login/client) and returns a bearer session token.
// Wrong password and wrong role are indistinguishable to the caller.
func (s *Server) loginHandler(w http.ResponseWriter, r *http.Request) {
	role := identity.Role(mux.Vars(r)["role"])
	if !role.Valid() {
		http.Error(w, "unknown login role", http.StatusNotFound)
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		http.Error(w, "missing credentials", http.StatusBadRequest)
		return
	}

	id, err := s.cfg.Verifier.Verify(r.Context(), req.Username, req.Password, role)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			w.Header().Set("WWW-Authenticate", "Bearer")
			http.Error(w, "incorrect username or password", http.StatusUnauthorized)
			return
		}
		logError(r, "login_verify_failed", err)
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	tok, err := s.cfg.Sessions.Issue(id.Username, id.Role, s.cfg.SessionTTL)
	if err != nil {
		logError(r, "token_issue_failed", err)
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: tok, TokenType: "bearer"})
}

type sessionInfo struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Verified bool   `json:"is_verified"`
}

// sessionVerifyHandler echoes the caller's identity, proving the presented
// session token is still good.
func (s *Server) sessionVerifyHandler(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFromContext(r.Context())

	id, err := s.cfg.Identities.FindByUsername(r.Context(), claims.Subject)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			// Token outlived the account.
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		logError(r, "session_lookup_failed", err)
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, sessionInfo{
		Username: id.Username,
		Email:    id.Email,
		Role:     string(id.Role),
		Verified: id.Verified,
	})
}
