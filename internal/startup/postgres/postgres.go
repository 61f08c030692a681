package postgres

import (
	"context"
	"database/sql"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/9renpoto/time-wise/internal/startup"
)

// DB implements startup.Store for PostgreSQL via the pgx stdlib driver.

type DB struct {
	db *sql.DB
}

func New(dsn string) (*DB, error) {
	d, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	return &DB{db: d}, nil
}

func (p *DB) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS startup_records(
			id BIGSERIAL PRIMARY KEY,
			recorded_at_ms BIGINT NOT NULL,
			duration_ms BIGINT NOT NULL,
			launcher TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_startup_records_recorded_at
			ON startup_records(recorded_at_ms DESC);`,
	}
	for _, q := range stmts {
		if _, err := p.db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return p.ensureLauncherColumn(ctx)
}

// ensureLauncherColumn upgrades tables written before the launcher
// column existed, backfilling old rows with "unknown".
func (p *DB) ensureLauncherColumn(ctx context.Context) error {
	var count int
	err := p.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM information_schema.columns
		WHERE table_name = 'startup_records' AND column_name = 'launcher';`).Scan(&count)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	if _, err := p.db.ExecContext(ctx, `ALTER TABLE startup_records ADD COLUMN launcher TEXT;`); err != nil {
		return err
	}
	_, err = p.db.ExecContext(ctx, `UPDATE startup_records SET launcher = 'unknown' WHERE launcher IS NULL;`)
	return err
}

func (p *DB) Close() error { return p.db.Close() }

func (p *DB) Insert(ctx context.Context, rec startup.Record) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO startup_records(recorded_at_ms, duration_ms, launcher)
		VALUES($1, $2, $3);`,
		rec.RecordedAtMs, rec.DurationMs, rec.Launcher)
	return err
}

func (p *DB) Prune(ctx context.Context, keep int) error {
	if keep <= 0 {
		keep = startup.MaxRecords
	}
	_, err := p.db.ExecContext(ctx, `
		DELETE FROM startup_records
		WHERE id NOT IN (
			SELECT id FROM startup_records
			ORDER BY recorded_at_ms DESC
			LIMIT $1
		);`, keep)
	return err
}

func (p *DB) Records(ctx context.Context) ([]startup.Record, error) {
	rows, err := p.db.QueryContext(ctx, `
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
