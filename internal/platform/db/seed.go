package db

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"dawaam/internal/domain/auth"
	"dawaam/internal/platform/config"
)

// Seed ensures the initial admin account exists. Operational accounts
// (contractors, employers, supervisors) are created through the admin panel.
func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	email := strings.TrimSpace(cfg.SeedAdminEmail)
	if email == "" || cfg.SeedAdminPassword == "" {
		return nil
	}

	var count int
	if err := pool.QueryRow(ctx, "SELECT COUNT(1) FROM accounts WHERE email = $1", email).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := auth.HashPassword(cfg.SeedAdminPassword)
	if err != nil {
		return err
	}

	_, err = pool.Exec(ctx, `
    INSERT INTO accounts (first_name, last_name, email, role, password_hash, active)
    VALUES ($1,$2,$3,$4,$5,TRUE)
  `, "Dawaam", "Admin", email, auth.RoleAdmin, hash)
	return err
}
