package server

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"safexchange/internal/auth"
	"safexchange/internal/capability"
	"safexchange/internal/identity"
	"safexchange/internal/mail"
	"safexchange/internal/objstore"
)

// ObjectStore is the object-storage collaborator the handlers use. The
// MinIO-backed client in internal/objstore is the production implementation.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, objstore.ObjectInfo, error)
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// Config carries the collaborators and tunables for one Server.
type Config struct {
	Addr string // e.g. ":8080"

	Identities   identity.Store
	Verifier     *auth.Verifier
	Sessions     *auth.Sessions
	Capabilities capability.Store
	Objects      ObjectStore
	Mailer       mail.Sender

	// BaseURL is the externally reachable address used in email links.
	BaseURL string

	SessionTTL  time.Duration // default auth.DefaultSessionTTL
	DownloadTTL time.Duration // default capability.DefaultTTL
}

// Server is the HTTP front of the file exchange.
type Server struct {
	cfg        Config
	httpServer *http.Server
}

// New builds the router and middleware chain.
func New(cfg Config) *Server {
	s := &Server{cfg: cfg}

	r := mux.NewRouter()

	r.HandleFunc("/health", s.healthHandler).Methods(http.MethodGet)

	// Unauthenticated surface.
	r.HandleFunc("/login/{role}", s.loginHandler).Methods(http.MethodPost)
	r.HandleFunc("/signup", s.signupHandler).Methods(http.MethodPost)
	r.HandleFunc("/verify/{token}", s.verifyEmailHandler).Methods(http.MethodGet)

	// Any authenticated identity.
	r.Handle("/session/verify", s.requireAuth(http.HandlerFunc(s.sessionVerifyHandler))).Methods(http.MethodGet)
	r.Handle("/download-request/{name}", s.requireAuth(http.HandlerFunc(s.downloadRequestHandler))).Methods(http.MethodGet)
	r.Handle("/download-redeem/{id}", s.requireAuth(http.HandlerFunc(s.downloadRedeemHandler))).Methods(http.MethodGet)

	// Ops only.
	r.Handle("/upload", s.requireRole(identity.RoleOps, http.HandlerFunc(s.uploadHandler))).Methods(http.MethodPost)
	r.Handle("/files", s.requireRole(identity.RoleOps, http.HandlerFunc(s.listFilesHandler))).Methods(http.MethodGet)
	r.Handle("/files/{name}", s.requireRole(identity.RoleOps, http.HandlerFunc(s.deleteFileHandler))).Methods(http.MethodDelete)

	// Wrap middleware: requestID -> logging -> security headers -> router.
	var handler http.Handler = r
	handler = securityHeadersMiddleware(handler)
	handler = loggingMiddleware(handler)
	handler = requestIDMiddleware(handler)

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler exposes the full middleware-wrapped handler for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	return s.httpServer.Serve(ln)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
