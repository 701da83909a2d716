package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SQLiteExecutor runs migrations and maintains the schema_migrations table.
type SQLiteExecutor struct {
	db *sql.DB
}

// NewSQLiteExecutor creates a new SQLite migration executor.
func NewSQLiteExecutor(db *sql.DB) *SQLiteExecutor {
	return &SQLiteExecutor{db: db}
}

// InitializeVersionTable creates the schema_migrations table if it doesn't exist.
func (e *SQLiteExecutor) InitializeVersionTable(ctx context.Context) error {
	const createTableSQL = `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TEXT NOT NULL,
			checksum TEXT,
			execution_time_ms INTEGER
		)`
	if _, err := e.db.ExecContext(ctx, createTableSQL); err != nil {
		return NewMigrationError("", "", "create schema_migrations table", err)
	}
	return nil
}

// Apply executes every statement of m and records it in one transaction.
func (e *SQLiteExecutor) Apply(ctx context.Context, m Migration) (err error) {
	statements := splitStatements(m.SQL)
	if len(statements) == 0 {
		return NewMigrationError(m.Version, m.FilePath, "parse SQL",
			fmt.Errorf("%w: no SQL statements found", ErrInvalidMigrationFile))
	}

	start := time.Now()
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return NewMigrationError(m.Version, m.FilePath, "begin transaction", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for i, stmt := range statements {
		if _, err = tx.ExecContext(ctx, stmt); err != nil {
			return NewMigrationError(m.Version, m.FilePath, fmt.Sprintf("execute statement %d", i+1),
				fmt.Errorf("%w: %v", ErrMigrationFailed, err))
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO schema_migrations (version, applied_at, checksum, execution_time_ms) VALUES (?, ?, ?, ?)`,
		m.Version,
		time.Now().UTC().Format(time.RFC3339),
		m.Checksum,
		time.Since(start).Milliseconds(),
	)
	if err != nil {
		return NewMigrationError(m.Version, m.FilePath, "record migration", err)
	}

	if err = tx.Commit(); err != nil {
		return NewMigrationError(m.Version, m.FilePath, "commit transaction", err)
	}
	return nil
}

// Applied returns the recorded migrations keyed by version.
func (e *SQLiteExecutor) Applied(ctx context.Context) (map[string]AppliedMigration, error) {
	rows, err := e.db.QueryContext(ctx, `
		SELECT version, applied_at, COALESCE(execution_time_ms, 0), COALESCE(checksum, '')
		FROM schema_migrations
		ORDER BY version ASC`)
	if err != nil {
		return nil, NewMigrationError("", "", "list applied migrations", err)
	}
	defer rows.Close()

	applied := make(map[string]AppliedMigration)
	for rows.Next() {
		var (
			record    AppliedMigration
			appliedAt string
			elapsedMS int64
		)
		if err := rows.Scan(&record.Version, &appliedAt, &elapsedMS, &record.Checksum); err != nil {
			return nil, NewMigrationError("", "", "scan applied migration", err)
		}
		record.AppliedAt, _ = time.Parse(time.RFC3339, appliedAt)
		record.ExecutionTime = time.Duration(elapsedMS) * time.Millisecond
		applied[record.Version] = record
	}
	if err := rows.Err(); err != nil {
		return nil, NewMigrationError("", "", "iterate applied migrations", err)
	}
	return applied, nil
}
