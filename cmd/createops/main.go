// Command createops inserts a verified ops identity directly into the
// database. Ops accounts are not self-service; an operator bootstraps them
// with this tool.
//
// Usage:
//
//	DATABASE_URL=postgres://... createops -username ops1 -email ops1@example.com -password 's3cret99'
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"safexchange/internal/auth"
	"safexchange/internal/db"
	"safexchange/internal/identity"
)

func main() {
	username := flag.String("username", "", "ops username")
	email := flag.String("email", "", "ops email address")
	password := flag.String("password", "", "ops password")
	flag.Parse()

	if *username == "" || *email == "" || *password == "" {
		flag.Usage()
		os.Exit(2)
	}

	dbConn, err := db.Open(os.Getenv("DATABASE_URL"))
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer func() { _ = dbConn.Close() }()

	if err := db.Migrate(dbConn); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	hash, err := auth.HashPassword(*password)
	if err != nil {
		log.Fatalf("password hash failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store := identity.NewPostgresStore(dbConn)
	err = store.Insert(ctx, identity.Identity{
		Username:     *username,
		Email:        *email,
		Role:         identity.RoleOps,
		PasswordHash: hash,
		Verified:     true,
	})
	if err != nil {
		log.Fatalf("insert failed: %v", err)
	}

	log.Printf("created ops user %s", *username)
}
