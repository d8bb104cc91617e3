package migrations

import (
	"context"
	"embed"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
)

//go:embed *.sql
var FS embed.FS

func init() {
	goose.SetBaseFS(FS)
}

// Run executes a goose command (up, down, redo, status, ...) against the embedded migrations.
func Run(ctx context.Context, command string, db *sqlx.DB, args ...string) error {
	if err := goose.SetDialect(db.DriverName()); err != nil {
		return errors.Wrap(err, "setting migrations dialect")
	}
	return goose.RunContext(ctx, command, db.DB, ".", args...)
}

// Version returns the version of the last applied migration.
func Version(ctx context.Context, db *sqlx.DB) (int64, error) {
	if err := goose.SetDialect(db.DriverName()); err != nil {
		return 0, errors.Wrap(err, "setting migrations dialect")
	}
	return goose.GetDBVersionContext(ctx, db.DB)
}
