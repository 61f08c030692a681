package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/9renpoto/time-wise/internal/startup"
)

// startPostgresContainer starts a PostgreSQL container for tests
// and returns a DSN suitable for pgx stdlib. It skips the test if Docker is unavailable.
func startPostgresContainer(t *testing.T) (dsn string, terminate func()) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)

	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
	)
	if err != nil {
		cancel()
		t.Skipf("Failed to start PostgreSQL container: %v", err)
		return "", nil // ensure container is never used below
	}

	host, err := container.Host(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		cancel()
		t.Skipf("Failed to get host info: %v", err)
		return "", nil
	}

	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		_ = container.Terminate(ctx)
		cancel()
		t.Skipf("Failed to get mapped port: %v", err)
		return "", nil
	}

	dsn = fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port())

	terminate = func() {
		_ = container.Terminate(ctx)
		cancel()
	}

	return dsn, terminate
}

func waitForPostgres(t *testing.T, dsn string) {
	// Try to ping until timeout; helps when container reports ready but DB not yet accepting connections
	deadline := time.Now().Add(45 * time.Second)
	for {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		db, err := sql.Open("pgx", dsn)
		if err == nil {
			if err = db.PingContext(ctx); err == nil {
				_ = db.Close()
				cancel()
				return
			}
			_ = db.Close()
		}
		cancel()
		if time.Now().After(deadline) {
			t.Fatalf("postgres not ready in time: %v", err)
		}
		time.Sleep(500 * time.Millisecond)
	}
}

func TestPostgresStore(t *testing.T) {
	dsn, terminate := startPostgresContainer(t)
	waitForPostgres(t, dsn)
	defer func() {
		if terminate != nil {
			terminate()
		}
	}()

	db, err := New(dsn)
	if err != nil {
		t.Fatalf("pg open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	ctx := context.Background()
	if err := db.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}

	for i := 0; i < startup.MaxRecords+5; i++ {
		rec := startup.Record{RecordedAtMs: int64(i), DurationMs: 10, Launcher: "seed"}
		if err := db.Insert(ctx, rec); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}
	if err := db.Prune(ctx, startup.MaxRecords); err != nil {
		t.Fatalf("prune: %v", err)
	}

	got, err := db.Records(ctx)
	if err != nil {
		t.Fatalf("records: %v", err)
	}
	if len(got) != startup.MaxRecords {
		t.Fatalf("expected %d records after prune, got %d", startup.MaxRecords, len(got))
	}
	if got[0].RecordedAtMs != int64(startup.MaxRecords+4) {
		t.Fatalf("expected newest recorded_at_ms %d, got %d", startup.MaxRecords+4, got[0].RecordedAtMs)
	}
	if got[len(got)-1].RecordedAtMs != 5 {
		t.Fatalf("expected oldest surviving recorded_at_ms 5, got %d", got[len(got)-1].RecordedAtMs)
	}

	// NULL launcher reads as "unknown".
	if _, err := db.db.ExecContext(ctx, `INSERT INTO startup_records(recorded_at_ms, duration_ms, launcher) VALUES ($1, $2, NULL);`, int64(startup.MaxRecords+10), int64(33)); err != nil {
		t.Fatalf("seed null launcher: %v", err)
	}
	got, err = db.Records(ctx)
	if err != nil {
		t.Fatalf("records: %v", err)
	}
	if got[0].Launcher != "unknown" {
		t.Fatalf("NULL launcher must read as %q, got %q", "unknown", got[0].Launcher)
	}
}

func TestPostgresMigratesLegacySchema(t *testing.T) {
	dsn, terminate := startPostgresContainer(t)
	waitForPostgres(t, dsn)
	defer func() {
		if terminate != nil {
			terminate()
		}
	}()

	ctx := context.Background()

	// Seed a table created before the launcher column existed.
	legacy, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("open legacy db: %v", err)
	}
	if _, err := legacy.Exec(`CREATE TABLE startup_records (
		id BIGSERIAL PRIMARY KEY,
		recorded_at_ms BIGINT NOT NULL,
		duration_ms BIGINT NOT NULL
	);`); err != nil {
		t.Fatalf("create legacy table: %v", err)
	}
	if _, err := legacy.Exec(`INSERT INTO startup_records(recorded_at_ms, duration_ms) VALUES (1000, 42), (2000, 43);`); err != nil {
		t.Fatalf("seed legacy rows: %v", err)
	}
	if err := legacy.Close(); err != nil {
		t.Fatalf("close legacy db: %v", err)
	}

	db, err := New(dsn)
	if err != nil {
		t.Fatalf("pg open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := db.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}

	got, err := db.Records(ctx)
	if err != nil {
		t.Fatalf("records: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("migration must not lose rows: got %d, want 2", len(got))
	}
	for _, rec := range got {
		if rec.Launcher != "unknown" {
			t.Fatalf("expected backfilled launcher %q, got %q", "unknown", rec.Launcher)
		}
	}
}
