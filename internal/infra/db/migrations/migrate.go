// Package migrations embeds the schema for every supported SQL dialect and
// applies it with goose.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed mysql/*.sql postgres/*.sql
var FS embed.FS

// Up applies pending migrations for driver ("mysql" or "postgres").
func Up(ctx context.Context, db *sql.DB, driver string) error {
	goose.SetBaseFS(FS)
	if err := goose.SetDialect(driver); err != nil {
		return fmt.Errorf("goose dialect %s: %w", driver, err)
	}
	if err := goose.UpContext(ctx, db, driver); err != nil {
		return fmt.Errorf("migrate %s: %w", driver, err)
	}
	return nil
}
