// Package storage keeps the launch table in SQLite so the dashboard can be
// served from a database instead of a flat file.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"launchrates/internal/core"

	_ "modernc.org/sqlite"
)

// LaunchRepository reads and seeds the launches table.
type LaunchRepository struct {
	db *sql.DB
}

// NewLaunchRepository opens (or creates) the database at dbPath and applies
// the schema migrations.
func NewLaunchRepository(dbPath string) (*LaunchRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &LaunchRepository{db: db}, nil
}

func (r *LaunchRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks the database connection.
func (r *LaunchRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Count returns the number of stored launches.
func (r *LaunchRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM launches`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count launches: %w", err)
	}
	return n, nil
}

// Load returns every launch in insertion order. It implements dataset.Source.
func (r *LaunchRepository) Load(ctx context.Context) ([]core.LaunchRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT launch_site, payload_mass_kg, class FROM launches ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query launches: %w", err)
	}
	defer rows.Close()

	var out []core.LaunchRecord
	for rows.Next() {
		var (
			rec   core.LaunchRecord
			class int64
		)
		if err := rows.Scan(&rec.Site, &rec.PayloadMassKg, &class); err != nil {
			return nil, fmt.Errorf("scan launch: %w", err)
		}
		rec.Outcome = core.Outcome(class)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate launches: %w", err)
	}
	return out, nil
}

// Insert stores records in a single transaction.
func (r *LaunchRepository) Insert(ctx context.Context, records []core.LaunchRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO launches (launch_site, payload_mass_kg, class) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if err := rec.Validate(); err != nil {
			return fmt.Errorf("launch %+v: %w", rec, err)
		}
		if _, err := stmt.ExecContext(ctx, rec.Site, rec.PayloadMassKg, int64(rec.Outcome)); err != nil {
			return fmt.Errorf("insert launch: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit launches: %w", err)
	}
	return nil
}

// SeedIfEmpty fills an empty table from seed. It reports how many rows were
// inserted; an already populated table is left alone.
func (r *LaunchRepository) SeedIfEmpty(ctx context.Context, seed func(context.Context) ([]core.LaunchRecord, error)) (int, error) {
	n, err := r.Count(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		slog.DebugContext(ctx, "Launch table already seeded", "rows", n)
		return 0, nil
	}

	records, err := seed(ctx)
	if err != nil {
		return 0, fmt.Errorf("load seed data: %w", err)
	}
	if err := r.Insert(ctx, records); err != nil {
		return 0, err
	}
	slog.InfoContext(ctx, "Seeded launch table", "rows", len(records))
	return len(records), nil
}
