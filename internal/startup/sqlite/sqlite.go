package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/9renpoto/time-wise/internal/startup"
)

// DB implements startup.Store for SQLite (modernc.org/sqlite driver, CGO-free).
// DSN is a filesystem path to the SQLite database file. Use ":memory:" for in-memory.

type DB struct {
	db *sql.DB
}

// New opens a SQLite database at path, creating parent directories for
// file-backed paths.
func New(path string) (*DB, error) {
	p := strings.TrimSpace(path)
	if p == "" {
		return nil, errors.New("empty sqlite path")
	}
	if p != ":memory:" {
		if dir := filepath.Dir(p); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, err
			}
		}
	}
	d, err := sql.Open("sqlite", p)
	if err != nil {
		return nil, err
	}
	// busy timeout helps with short concurrent locks
	_, _ = d.Exec("PRAGMA busy_timeout=3000;")
	return &DB{db: d}, nil
}

func (s *DB) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS startup_records(
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			recorded_at_ms INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL,
			launcher TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_startup_records_recorded_at
			ON startup_records(recorded_at_ms DESC);`,
	}
	for _, q := range stmts {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return s.ensureLauncherColumn(ctx)
}

// ensureLauncherColumn upgrades databases written before the launcher
// column existed, backfilling old rows with "unknown". Rows are never
// dropped by the upgrade.
func (s *DB) ensureLauncherColumn(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, `PRAGMA table_info(startup_records);`)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	hasLauncher := false
	for rows.Next() {
		var (
			cid     int
			name    string
			ctype   string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dflt, &pk); err != nil {
			return err
		}
		if name == "launcher" {
			hasLauncher = true
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if hasLauncher {
		return nil
	}

	if _, err := s.db.ExecContext(ctx, `ALTER TABLE startup_records ADD COLUMN launcher TEXT;`); err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `UPDATE startup_records SET launcher = 'unknown' WHERE launcher IS NULL;`)
	return err
}

func (s *DB) Close() error { return s.db.Close() }

func (s *DB) Insert(ctx context.Context, rec startup.Record) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO startup_records(recorded_at_ms, duration_ms, launcher)
		VALUES(?, ?, ?);`,
		rec.RecordedAtMs, rec.DurationMs, rec.Launcher)
	return err
}

func (s *DB) Prune(ctx context.Context, keep int) error {
	if keep <= 0 {
		keep = startup.MaxRecords
	}
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM startup_records
		WHERE id NOT IN (
			SELECT id FROM startup_records
			ORDER BY recorded_at_ms DESC
			LIMIT ?
		);`, keep)
	return err
}

func (s *DB) Records(ctx context.Context) ([]startup.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT recorded_at_ms, duration_ms, launcher
		FROM startup_records
		ORDER BY recorded_at_ms DESC;`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]startup.Record, error) {
	out := make([]startup.Record, 0)
	for rows.Next() {
		var (
			r        startup.Record
			launcher sql.NullString
		)
		if err := rows.Scan(&r.RecordedAtMs, &r.DurationMs, &launcher); err != nil {
			return nil, err
		}
		if r.RecordedAtMs < 0 {
			r.RecordedAtMs = 0
		}
		if r.DurationMs < 0 {
			r.DurationMs = 0
		}
		r.Launcher = "unknown"
		if launcher.Valid {
			r.Launcher = launcher.String
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
