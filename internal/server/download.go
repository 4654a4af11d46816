package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"safexchange/internal/capability"
	"safexchange/internal/objstore"
)

type downloadRequestResponse struct {
	DownloadLink string `json:"download_link"`
	ExpiresAt    string `json:"expires_at"`
}

// downloadRequestHandler issues a single-use download token bound to the
// caller and the named object, and returns the redemption path. Any
// authenticated identity may request one.
func (s *Server) downloadRequestHandler(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFromContext(r.Context())

	name, ok := cleanFilename(mux.Vars(r)["name"])
	if !ok {
		http.Error(w, "bad filename", http.StatusBadRequest)
		return
	}

	exists, err := s.cfg.Objects.Exists(r.Context(), name)
	if err != nil {
		logError(r, "download_request_stat_failed", err)
		http.Error(w, "storage error", http.StatusBadGateway)
		return
	}
	if !exists {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	tok, err := s.cfg.Capabilities.Request(r.Context(), claims.Subject, name, s.cfg.DownloadTTL)
	if err != nil {
		logError(r, "download_request_failed", err)
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, downloadRequestResponse{
		DownloadLink: "/download-redeem/" + tok.ID,
		ExpiresAt:    tok.ExpiresAt.Format(time.RFC3339),
	})
}

// downloadRedeemHandler consumes a download token and streams the object it
// was bound to. The token is spent before the storage fetch starts, so an
// aborted download cannot be retried with the same id.
func (s *Server) downloadRedeemHandler(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFromContext(r.Context())
	id := mux.Vars(r)["id"]

	resource, err := s.cfg.Capabilities.Redeem(r.Context(), id, claims.Subject)
	if err != nil {
		switch {
		case errors.Is(err, capability.ErrNotFound):
			http.Error(w, "not found", http.StatusNotFound)
		case errors.Is(err, capability.ErrForbidden):
			http.Error(w, "forbidden", http.StatusForbidden)
		case errors.Is(err, capability.ErrExpired):
			http.Error(w, "download link expired", http.StatusGone)
		default:
			logError(r, "redeem_failed", err)
			http.Error(w, "server error", http.StatusInternalServerError)
		}
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
	defer cancel()

	obj, info, err := s.cfg.Objects.Get(ctx, resource)
	if err != nil {
		// The capability is gone either way; the caller must request a
		// fresh one.
		if errors.Is(err, objstore.ErrNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		logError(r, "redeem_fetch_failed", err)
		http.Error(w, "storage error", http.StatusBadGateway)
		return
	}
	defer func() { _ = obj.Close() }()

	if info.ContentType != "" {
		w.Header().Set("Content-Type", info.ContentType)
	} else {
		w.Header().Set("Content-Type", "application/octet-stream")
	}
	if info.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, resource))

	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, obj)
}
