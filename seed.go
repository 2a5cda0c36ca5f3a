package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/example/escuela/internal/auth"
)

// EnsureAdmin creates the bootstrap administrator account unless a user with that email
// already exists. An empty email disables seeding.
func EnsureAdmin(ctx context.Context, store Store, email, password string, log *slog.Logger) error {
	if email == "" {
		return nil
	}
	_, err := store.GetUserByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("looking up seed admin: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hashing seed admin password: %w", err)
	}
	user, err := store.RegisterUser(ctx, Registration{
		Nombre:   "Admin",
		Apellido: "Sistema",
		Correo:   email,
		RolID:    int(auth.RoleAdmin),
	}, hash)
	if errors.Is(err, ErrConflict) {
		// another instance seeded it first
		return nil
	}
	if err != nil {
		return fmt.Errorf("creating seed admin: %w", err)
	}
	log.Info("seeded administrator account", "user_id", user.ID, "correo", email)
	return nil
}
