package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/leadflow-crm/api/internal/db"
)

// Seeds a local admin account plus the default catalog entries so the CSV
// import has something to fall back on from the first run.
func main() {
	_ = godotenv.Load()

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	params := db.SeedParams{
		AdminEmail:    envOrDefault("SEED_ADMIN_EMAIL", "admin@local.leadflow"),
		AdminPassword: envOrDefault("SEED_ADMIN_PASSWORD", "Admin12345!"),
		AdminName:     envOrDefault("SEED_ADMIN_NAME", "Local Admin"),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		log.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	if err := db.Seed(ctx, pool, params); err != nil {
		log.Fatalf("seed: %v", err)
	}

	fmt.Printf("seeded admin %s\n", params.AdminEmail)
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}
