package server

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/gorilla/mux"

	"safexchange/internal/auth"
	"safexchange/internal/identity"
	"safexchange/internal/mail"
)

type signupRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type signupResponse struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

var (
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	digitRegex    = regexp.MustCompile(`[0-9]`)
	letterRegex   = regexp.MustCompile(`[a-zA-Z]`)
)

func validateUsername(username string) (bool, string) {
	if len(username) < 3 {
		return false, "Username must be at least 3 characters long"
	}
	if len(username) > 50 {
		return false, "Username must be less than 50 characters"
	}
	if !usernameRegex.MatchString(username) {
		return false, "Username can only contain letters, numbers, and underscores"
	}
	return true, ""
}

func validatePassword(password string) (bool, string) {
	if len(password) < 8 {
		return false, "Password must be at least 8 characters long"
	}
	if len(password) > 128 {
		return false, "Password must be less than 128 characters"
	}
	if !digitRegex.MatchString(password) || !letterRegex.MatchString(password) {
		return false, "Password must contain both letters and numbers"
	}
	return true, ""
}

// generateVerificationToken creates a 32-byte random URL-safe token.
func generateVerificationToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// signupHandler creates an unverified client identity and fires the
// verification email. Email delivery is best effort: the account exists
// whether or not the message goes out.
func (s *Server) signupHandler(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.Username = strings.TrimSpace(req.Username)
	req.Password = strings.TrimSpace(req.Password)

	if !emailRegex.MatchString(req.Email) {
		http.Error(w, "Invalid email address", http.StatusBadRequest)
		return
	}
	if ok, msg := validateUsername(req.Username); !ok {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}
	if ok, msg := validatePassword(req.Password); !ok {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		logError(r, "password_hash_failed", err)
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	verificationToken, err := generateVerificationToken()
	if err != nil {
		logError(r, "verification_token_failed", err)
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	id := identity.Identity{
		Username:          req.Username,
		Email:             req.Email,
		Role:              identity.RoleClient,
		PasswordHash:      hash,
		Verified:          false,
		VerificationToken: verificationToken,
	}
	if err := s.cfg.Identities.Insert(r.Context(), id); err != nil {
		if errors.Is(err, identity.ErrDuplicate) {
			http.Error(w, "Username already registered", http.StatusConflict)
			return
		}
		logError(r, "signup_insert_failed", err)
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	subject, text, html := mail.VerificationEmail(req.Username, verificationToken, s.cfg.BaseURL)
	if err := s.cfg.Mailer.Send(req.Email, subject, text, html); err != nil {
		// The account is already created; signup still succeeds.
		logError(r, "verification_email_failed", err)
	}

	writeJSON(w, http.StatusCreated, signupResponse{
		Username: id.Username,
		Email:    id.Email,
		Role:     string(id.Role),
	})
}

// verifyEmailHandler redeems a verification token. The token is one-time:
// marking the identity verified clears it.
func (s *Server) verifyEmailHandler(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]

	id, err := s.cfg.Identities.FindByVerificationToken(r.Context(), token)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			http.Error(w, "invalid verification token", http.StatusNotFound)
			return
		}
		logError(r, "verify_lookup_failed", err)
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	if err := s.cfg.Identities.MarkVerified(r.Context(), id.Username); err != nil {
		logError(r, "verify_update_failed", err)
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Email verified successfully"})
}
