package factory

import (
	"errors"
	"net/url"
	"strings"

	"github.com/9renpoto/time-wise/internal/history"
	"github.com/9renpoto/time-wise/internal/history/clickhouse"
	"github.com/9renpoto/time-wise/internal/history/sqlite"
)

// NewSinkFromDSN creates a history sink based on DSN format.
// Supported formats:
//   - "clickhouse://host:port?table=table"
//   - "sqlite:///path/to/file.db" or "sqlite://:memory:"
//   - "/path/to/file.db" (defaults to SQLite)
func NewSinkFromDSN(dsn string) (history.Sink, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, errors.New("empty DSN")
	}

	lower := strings.ToLower(dsn)

	// ClickHouse
	if strings.HasPrefix(lower, "clickhouse://") {
		return parseClickHouseDSN(dsn)
	}

	// SQLite (explicit or implicit)
	if strings.HasPrefix(lower, "sqlite://") || !strings.Contains(dsn, "://") {
		return sqlite.New(dsn)
	}

	return nil, errors.New("unsupported DSN format: " + dsn)
}

func parseClickHouseDSN(dsn string) (history.Sink, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return nil, err
	}

	// Extract host:port
	host := u.Host
	if host == "" {
		host = "localhost:9000" // default ClickHouse native port
	}

	// Get table from query params
	table := u.Query().Get("table")
	if table == "" {
		table = "usage_transitions" // default table name
	}

	return clickhouse.New(host, table)
}
