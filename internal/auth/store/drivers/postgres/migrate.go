package postgres

import (
	"context"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/instamakaan/makaan/internal/auth/store/drivers/postgres/migrations"
)

// ApplyMigrations runs the embedded goose migrations.
func (s *Store) ApplyMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	if err := goose.UpContext(ctx, s.db, "."); err != nil {
		return fmt.Errorf("postgres: migrate: %w", err)
	}
	return nil
}
