package migration

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"
	"time"
)

// Manager applies pending migrations found in a file system directory.
type Manager struct {
	executor *SQLiteExecutor
	fsys     fs.FS
	dir      string
	logger   *slog.Logger
}

// NewManager creates a manager reading migrations from dir within fsys.
func NewManager(db *sql.DB, fsys fs.FS, dir string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		executor: NewSQLiteExecutor(db),
		fsys:     fsys,
		dir:      dir,
		logger:   logger.With("component", "migration"),
	}
}

// Run applies every migration not yet recorded, in version order. A recorded
// migration whose checksum no longer matches its file aborts the run.
func (m *Manager) Run(ctx context.Context) error {
	start := time.Now()

	if err := m.executor.InitializeVersionTable(ctx); err != nil {
		return err
	}

	migrations, err := Scan(m.fsys, m.dir)
	if err != nil {
		return err
	}

	applied, err := m.executor.Applied(ctx)
	if err != nil {
		return err
	}

	pending := 0
	for _, migration := range migrations {
		if record, ok := applied[migration.Version]; ok {
			if record.Checksum != "" && record.Checksum != migration.Checksum {
				return NewMigrationError(migration.Version, migration.FilePath, "verify checksum",
					fmt.Errorf("%w: recorded %s, file %s", ErrChecksumMismatch, record.Checksum, migration.Checksum))
			}
			continue
		}

		pending++
		m.logger.InfoContext(ctx, "applying migration", "version", migration.Version, "description", migration.Description)
		if err := m.executor.Apply(ctx, migration); err != nil {
			m.logger.ErrorContext(ctx, "migration failed", "version", migration.Version, "error", err)
			return err
		}
	}

	m.logger.InfoContext(ctx, "migrations complete",
		"applied", pending,
		"total", len(migrations),
		"duration", time.Since(start),
	)
	return nil
}
