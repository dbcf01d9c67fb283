package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/ameeeetster/iga-risk-engine/internal/infrastructure/config"
)

// The ledger table records which migration files have been applied.
const ledgerTable = "schema_migrations"

func main() {
	var (
		action = flag.String("action", "up", "up or status")
		dir    = flag.String("dir", "migrations", "directory holding *.sql migration files")
		steps  = flag.Int("steps", 0, "apply at most this many migrations (0 = all)")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx := context.Background()
	switch *action {
	case "up":
		err = migrateUp(ctx, db, *dir, *steps)
	case "status":
		err = printStatus(ctx, db, *dir)
	default:
		slog.Error("unknown action", "action", *action)
		os.Exit(1)
	}
	if err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}
}

// migrateUp applies pending migrations in filename order, each inside
// its own transaction together with its ledger row.
func migrateUp(ctx context.Context, db *sql.DB, dir string, steps int) error {
	pending, err := pendingMigrations(ctx, db, dir)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		slog.Info("no pending migrations")
		return nil
	}
	if steps > 0 && steps < len(pending) {
		pending = pending[:steps]
	}

	for _, file := range pending {
		if err := applyMigration(ctx, db, file); err != nil {
			return fmt.Errorf("applying %s: %w", file, err)
		}
		slog.Info("applied migration", "file", filepath.Base(file))
	}
	slog.Info("migrations complete", "applied", len(pending))
	return nil
}

func printStatus(ctx context.Context, db *sql.DB, dir string) error {
	applied, err := appliedMigrations(ctx, db)
	if err != nil {
		return err
	}
	pending, err := pendingMigrations(ctx, db, dir)
	if err != nil {
		return err
	}

	fmt.Printf("applied: %d\n", len(applied))
	ids := make([]string, 0, len(applied))
	for id := range applied {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		fmt.Printf("  %s  (%s)\n", id, applied[id].Format(time.RFC3339))
	}

	fmt.Printf("pending: %d\n", len(pending))
	for _, file := range pending {
		fmt.Printf("  %s\n", migrationID(file))
	}
	return nil
}

func applyMigration(ctx context.Context, db *sql.DB, file string) error {
	contents, err := os.ReadFile(file)
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, string(contents)); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		fmt.Sprintf("INSERT INTO %s (id, applied_at) VALUES ($1, NOW())", ledgerTable),
		migrationID(file)); err != nil {
		return err
	}
	return tx.Commit()
}

// pendingMigrations returns migration files in dir without a ledger
// row, sorted by filename so timestamped names apply in order.
func pendingMigrations(ctx context.Context, db *sql.DB, dir string) ([]string, error) {
	applied, err := appliedMigrations(ctx, db)
	if err != nil {
		return nil, err
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	if err != nil {
		return nil, fmt.Errorf("listing migration files: %w", err)
	}
	sort.Strings(files)

	var pending []string
	for _, file := range files {
		if _, ok := applied[migrationID(file)]; !ok {
			pending = append(pending, file)
		}
	}
	return pending, nil
}

func appliedMigrations(ctx context.Context, db *sql.DB) (map[string]time.Time, error) {
	if _, err := db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id         VARCHAR(255) PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`, ledgerTable)); err != nil {
		return nil, fmt.Errorf("ensuring migration ledger: %w", err)
	}

	rows, err := db.QueryContext(ctx,
		fmt.Sprintf("SELECT id, applied_at FROM %s", ledgerTable))
	if err != nil {
		return nil, fmt.Errorf("reading migration ledger: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]time.Time)
	for rows.Next() {
		var (
			id string
			at time.Time
		)
		if err := rows.Scan(&id, &at); err != nil {
			return nil, err
		}
		applied[id] = at
	}
	return applied, rows.Err()
}

// migrationID is the filename without directory or .sql suffix.
func migrationID(file string) string {
	return strings.TrimSuffix(filepath.Base(file), ".sql")
}
