// Package bootstrap handles one-time initialization tasks for the application.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/meghkala/api/internal"
	"github.com/meghkala/api/internal/auth"
	"github.com/meghkala/api/internal/domain"
)

// EnsureAdmin creates the initial admin user if it doesn't exist.
// This function is idempotent - safe to call on every startup.
//
// If AdminConfig has empty Email/Password, it logs a warning and skips,
// which allows running without an admin in dev.
func EnsureAdmin(ctx context.Context, users domain.UserStore, cfg internal.AdminConfig, logger *slog.Logger) error {
	if cfg.Email == "" || cfg.Password == "" {
		logger.Warn("bootstrap: skipping admin creation - ADMIN_EMAIL or ADMIN_PASSWORD not set",
			"hint", "Set these environment variables to create an admin user on first startup",
		)
		return nil
	}
	if len(cfg.Password) < 12 {
		return errors.New("admin password must be at least 12 characters")
	}

	// Check if admin already exists
	if existing, err := users.GetByEmail(ctx, cfg.Email); err == nil {
		logger.Info("bootstrap: admin user already exists", "user_id", existing.ID)
		return nil
	} else if !domain.IsCode(err, domain.ENOTFOUND) {
		return fmt.Errorf("failed to check for existing admin: %w", err)
	}

	passwordHash, err := auth.HashPassword(cfg.Password)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	name := cfg.Name
	if name == "" {
		name = "Admin"
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        cfg.Email,
		PasswordHash: passwordHash,
		IsAdmin:      true,
	}
	if err := users.Create(ctx, user); err != nil {
		// Concurrent startup may have created it first
		if domain.IsCode(err, domain.ECONFLICT) {
			logger.Info("bootstrap: admin user already exists (concurrent creation)")
			return nil
		}
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	logger.Info("bootstrap: admin user created successfully", "user_id", user.ID)
	return nil
}
