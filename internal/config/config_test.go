package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, data string) string {
	t.Helper()
	file := filepath.Join(t.TempDir(), "timewise.toml")
	if err := os.WriteFile(file, []byte(data), 0o644); err != nil {
		t.Fatalf("write toml: %v", err)
	}
	return file
}

func TestLoad_Minimal(t *testing.T) {
	file := writeConfig(t, ``)
	fc, err := Load(file)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if fc.Usage.PollInterval != DefaultPollInterval {
		t.Fatalf("poll_interval default = %s, want %s", fc.Usage.PollInterval, DefaultPollInterval)
	}
	if fc.Usage.GracePeriod != DefaultGracePeriod {
		t.Fatalf("grace_period default = %s, want %s", fc.Usage.GracePeriod, DefaultGracePeriod)
	}
	if fc.Server.Listen != DefaultListen || fc.Server.BasePath != DefaultBasePath {
		t.Fatalf("server defaults = %+v", fc.Server)
	}
	if !strings.HasPrefix(fc.Startup.DSN, "sqlite://") {
		t.Fatalf("startup dsn default = %q, want sqlite:// prefix", fc.Startup.DSN)
	}
}

func TestLoad_Full(t *testing.T) {
	file := writeConfig(t, `
[usage]
poll_interval = "5s"
grace_period = "90s"

[startup]
dsn = "sqlite:///tmp/tw/startup.sqlite"
max_records = 25

[history]
dsns = ["sqlite:///tmp/tw/history.sqlite", "clickhouse://localhost:9000/timewise"]

[server]
listen = "127.0.0.1:9999"
base_path = "/timewise"
pidfile = "/tmp/tw/tw.pid"

[metrics]
enabled = true
listen = "127.0.0.1:9400"

[log]
level = "debug"
format = "json"
file = "/tmp/tw/tw.log"
max_size_mb = 5
`)
	fc, err := Load(file)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if fc.Usage.PollInterval != 5*time.Second || fc.Usage.GracePeriod != 90*time.Second {
		t.Fatalf("unexpected usage section: %+v", fc.Usage)
	}
	if fc.Startup.DSN != "sqlite:///tmp/tw/startup.sqlite" || fc.Startup.MaxRecords != 25 {
		t.Fatalf("unexpected startup section: %+v", fc.Startup)
	}
	if len(fc.History.DSNs) != 2 || fc.History.DSNs[1] != "clickhouse://localhost:9000/timewise" {
		t.Fatalf("unexpected history section: %+v", fc.History)
	}
	if fc.Server.Listen != "127.0.0.1:9999" || fc.Server.BasePath != "/timewise" || fc.Server.PIDFile != "/tmp/tw/tw.pid" {
		t.Fatalf("unexpected server section: %+v", fc.Server)
	}
	if !fc.Metrics.Enabled || fc.Metrics.Listen != "127.0.0.1:9400" {
		t.Fatalf("unexpected metrics section: %+v", fc.Metrics)
	}
	lg := fc.Log.Logger()
	if lg.Level != "debug" || lg.Format != "json" || lg.File.Path != "/tmp/tw/tw.log" || lg.File.MaxSizeMB != 5 {
		t.Fatalf("unexpected logger mapping: %+v", lg)
	}
}

func TestLoad_ExpandsEnvPlaceholders(t *testing.T) {
	t.Setenv("TW_TEST_DATA_DIR", "/tmp/tw-env")
	file := writeConfig(t, `
[startup]
dsn = "sqlite://${TW_TEST_DATA_DIR}/startup.sqlite"

[history]
dsns = ["sqlite://${TW_TEST_DATA_DIR}/history.sqlite"]

[log]
file = "${TW_TEST_DATA_DIR}/tw.log"
`)
	fc, err := Load(file)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if fc.Startup.DSN != "sqlite:///tmp/tw-env/startup.sqlite" {
		t.Fatalf("dsn not expanded: %q", fc.Startup.DSN)
	}
	if fc.History.DSNs[0] != "sqlite:///tmp/tw-env/history.sqlite" {
		t.Fatalf("history dsn not expanded: %q", fc.History.DSNs[0])
	}
	if fc.Log.File != "/tmp/tw-env/tw.log" {
		t.Fatalf("log file not expanded: %q", fc.Log.File)
	}
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"negative poll": `
[usage]
poll_interval = "-1s"
`,
		"negative grace": `
[usage]
grace_period = "-5m"
`,
		"negative max records": `
[startup]
max_records = -1
`,
		"relative base path": `
[server]
base_path = "api"
`,
		"metrics without listen": `
[metrics]
enabled = true
`,
	}
	for name, data := range cases {
		file := writeConfig(t, data)
		if _, err := Load(file); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestDefault(t *testing.T) {
	fc := Default()
	if err := fc.Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
	if fc.Usage.PollInterval != DefaultPollInterval || fc.Usage.GracePeriod != DefaultGracePeriod {
		t.Fatalf("unexpected defaults: %+v", fc.Usage)
	}
}

func TestDefaultStartupDSN(t *testing.T) {
	dsn := DefaultStartupDSN()
	if !strings.HasPrefix(dsn, "sqlite://") {
		t.Fatalf("default dsn = %q", dsn)
	}
	if !strings.HasSuffix(dsn, filepath.Join("timewise", "startup_times.sqlite")) {
		t.Fatalf("default dsn path = %q", dsn)
	}
}
