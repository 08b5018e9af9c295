package main

import (
	"context"
	"flag"
	"log"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"schoolattend/internal/account"
	"schoolattend/internal/config"
	"schoolattend/internal/store"
)

// Seeds a teacher account. There is no HTTP endpoint for this on purpose:
// teacher accounts are provisioned by an operator, not through the API.
func main() {
	var (
		email    = flag.String("email", "", "teacher login email")
		password = flag.String("password", "", "initial password")
		name     = flag.String("name", "", "display name")
		subject  = flag.String("subject", "", "subject label")
	)
	flag.Parse()

	if *email == "" || *password == "" || *name == "" {
		log.Fatal("email, password and name are required")
	}

	cfg := config.Load()
	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	mail := strings.ToLower(strings.TrimSpace(*email))

	var exists bool
	if err := db.Client.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, mail).Scan(&exists); err != nil {
		log.Fatalf("query users failed: %v", err)
	}
	if exists {
		log.Fatalf("user %s already exists", mail)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("hash password failed: %v", err)
	}

	tx, err := db.Client.BeginTx(ctx, nil)
	if err != nil {
		log.Fatalf("begin failed: %v", err)
	}
	defer func() { _ = tx.Rollback() }()

	userID := uuid.NewString()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, role)
		VALUES ($1, $2, $3, $4)
	`, userID, mail, string(hash), account.RoleTeacher); err != nil {
		log.Fatalf("insert user failed: %v", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO teachers (id, user_id, name, subject)
		VALUES ($1, $2, $3, $4)
	`, uuid.NewString(), userID, *name, *subject); err != nil {
		log.Fatalf("insert teacher failed: %v", err)
	}
	if err := tx.Commit(); err != nil {
		log.Fatalf("commit failed: %v", err)
	}

	log.Printf("teacher account created: %s", mail)
}
