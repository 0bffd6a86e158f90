package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/leadflow-crm/api/internal/auth"
)

type SeedParams struct {
	AdminEmail    string
	AdminPassword string
	AdminName     string
}

// Seed creates the local admin account and the default catalog entries the
// CSV import falls back on. Safe to run repeatedly: every insert carries an
// ON CONFLICT guard, with the admin keyed on the lower(email) unique index.
func Seed(ctx context.Context, pool *pgxpool.Pool, p SeedParams) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	passwordHash, err := auth.HashPassword(p.AdminPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO users (email, full_name, password_hash, role, is_active)
		VALUES ($1, $2, $3, 'admin', TRUE)
		ON CONFLICT (lower(email)) DO NOTHING
	`, p.AdminEmail, p.AdminName, passwordHash)
	if err != nil {
		return fmt.Errorf("insert admin: %w", err)
	}

	var adminID uuid.UUID
	if err := tx.QueryRow(ctx, `
		SELECT id FROM users WHERE lower(email) = lower($1)
	`, p.AdminEmail).Scan(&adminID); err != nil {
		return fmt.Errorf("find admin: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO products (name, description, is_active, created_by)
		VALUES ('General Service', 'Default product for CSV uploads', TRUE, $1)
		ON CONFLICT (name) DO NOTHING
	`, adminID)
	if err != nil {
		return fmt.Errorf("insert default product: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO sources (name, description, is_active, created_by)
		VALUES ('CSV Upload', 'Default source for CSV uploads', TRUE, $1)
		ON CONFLICT (name) DO NOTHING
	`, adminID)
	if err != nil {
		return fmt.Errorf("insert default source: %w", err)
	}

	return tx.Commit(ctx)
}
