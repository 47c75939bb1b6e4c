// cmd/token/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"repo-insights/internal/auth"
	"repo-insights/internal/config"
	"repo-insights/internal/database"
	"repo-insights/internal/history"
	"repo-insights/internal/model"
)

// token creates or refreshes a user and prints a bearer token for it, standing in for the
// OAuth callback during local development.
func main() {
	if err := run(); err != nil {
		slog.Error("Failed to issue token", "error", err)
		os.Exit(1)
	}
}

func run() error {
	externalID := flag.String("google-id", "", "external identity id of the user (required)")
	name := flag.String("name", "", "display name (required)")
	email := flag.String("email", "", "email address")
	picture := flag.String("picture", "", "avatar URL")
	flag.Parse()

	if *externalID == "" || *name == "" {
		flag.Usage()
		return fmt.Errorf("-google-id and -name are required")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	cfg, err := config.LoadToolConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	dbpool, err := pgxpool.New(ctx, cfg.DBURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer dbpool.Close()

	store := history.NewStore(database.New(dbpool), logger)
	user, err := store.UpsertUser(ctx, model.User{
		ExternalID: *externalID,
		Name:       *name,
		Email:      *email,
		Picture:    *picture,
	})
	if err != nil {
		return err
	}

	issuer, err := auth.NewIssuer(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		return err
	}
	token, err := issuer.Issue(*user)
	if err != nil {
		return err
	}

	logger.Info("Issued token", "user_id", user.ID, "expires_in", cfg.JWTTTL.String())
	fmt.Println(token)
	return nil
}
