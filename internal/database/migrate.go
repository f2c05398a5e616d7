package database

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
)

//go:embed migrations/001_initial.up.sql
var initialMigrationSQL string

// schemaTables lists every table the watchlist service reads or writes.
var schemaTables = []string{"users", "user_logins", "movies", "watchlist", "audit_entries"}

// EnsureSchema runs the initial migration whenever a table from schemaTables is
// absent. Every statement in it is IF NOT EXISTS, so rerunning it on a partial
// schema only adds what is missing.
func (db *DB) EnsureSchema(ctx context.Context) error {
	if db == nil || db.Pool == nil {
		return fmt.Errorf("database pool is not initialized")
	}

	missing, err := db.missingTables(ctx)
	if err != nil {
		return fmt.Errorf("inspect schema: %w", err)
	}
	if len(missing) == 0 {
		slog.Debug("database schema up to date")
		return nil
	}

	slog.Info("applying initial migration", "missing_tables", missing)
	if _, err := db.Pool.Exec(ctx, initialMigrationSQL); err != nil {
		return fmt.Errorf("apply initial migration: %w", err)
	}

	missing, err = db.missingTables(ctx)
	if err != nil {
		return fmt.Errorf("inspect schema after migration: %w", err)
	}
	if len(missing) > 0 {
		return fmt.Errorf("tables still missing after migration: %v", missing)
	}

	slog.Info("database schema created")
	return nil
}

// missingTables resolves each name with to_regclass against the search path.
func (db *DB) missingTables(ctx context.Context) ([]string, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT name
		FROM unnest($1::text[]) AS name
		WHERE to_regclass(name) IS NULL
		ORDER BY name`, schemaTables)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var missing []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		missing = append(missing, name)
	}
	return missing, rows.Err()
}
