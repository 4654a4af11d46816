package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"safexchange/internal/auth"
	"safexchange/internal/capability"
	"safexchange/internal/db"
	"safexchange/internal/identity"
	"safexchange/internal/mail"
	"safexchange/internal/objstore"
	"safexchange/internal/server"
)

func main() {
	addr := getenvDefault("SXC_ADDR", ":8080")
	baseURL := getenvDefault("SXC_BASE_URL", "http://localhost:8080")

	sessionSecret := os.Getenv("SXC_SESSION_SECRET")
	if sessionSecret == "" {
		log.Printf("service=backend msg=%q", "missing SXC_SESSION_SECRET")
		os.Exit(1)
	}

	dbConn, err := db.Open(os.Getenv("DATABASE_URL"))
	if err != nil {
		log.Printf("service=backend msg=%q err=%v", "db_connect_failed", err)
		os.Exit(1)
	}
	defer func() { _ = dbConn.Close() }()

	log.Printf("service=backend msg=%q", "running_migrations")
	if err := db.Migrate(dbConn); err != nil {
		log.Printf("service=backend msg=%q err=%v", "migration_failed", err)
		os.Exit(1)
	}

	objects, err := objstore.New(context.Background(), objstore.Config{
		Endpoint:  os.Getenv("SXC_S3_ENDPOINT"),
		AccessKey: os.Getenv("SXC_S3_ACCESS_KEY"),
		SecretKey: os.Getenv("SXC_S3_SECRET_KEY"),
		Bucket:    os.Getenv("SXC_BUCKET"),
	})
	if err != nil {
		log.Printf("service=backend msg=%q err=%v", "objstore_init_failed", err)
		os.Exit(1)
	}

	identities := identity.NewPostgresStore(dbConn)

	srv := server.New(server.Config{
		Addr:         addr,
		Identities:   identities,
		Verifier:     auth.NewVerifier(identities),
		Sessions:     auth.NewSessions([]byte(sessionSecret)),
		Capabilities: capability.NewPostgresStore(dbConn),
		Objects:      objects,
		Mailer:       mail.NewService(mail.LoadConfig()),
		BaseURL:      baseURL,
		SessionTTL:   auth.DefaultSessionTTL,
		DownloadTTL:  capability.DefaultTTL,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Printf("service=backend msg=%q addr=%s", "starting", addr)
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("service=backend msg=%q signal=%s", "shutting_down", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("service=backend msg=%q err=%v", "shutdown_error", err)
			os.Exit(1)
		}
		log.Printf("service=backend msg=%q", "shutdown_complete")
	case err := <-errCh:
		if err != nil {
			log.Printf("service=backend msg=%q err=%v", "server_error", err)
			os.Exit(1)
		}
	}
}

// getenvDefault reads an environment variable and returns a default value if not set.
func getenvDefault(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}
