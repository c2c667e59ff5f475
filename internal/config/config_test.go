package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// allEnvVars lists every env var Load reads; each must be cleared between tests.
var allEnvVars = []string{
	"TRELLIS_CONFIG", "TRELLIS_DATABASE_URL", "TRELLIS_HTTP_ADDR",
	"TRELLIS_NATS_URL", "TRELLIS_NODES_DIR", "TRELLIS_TZ_OFFSET_MINUTES",
	"TRELLIS_SYNC_INTERVAL", "TRELLIS_SYNC_S3_BUCKET", "TRELLIS_SYNC_S3_ENDPOINT",
	"TRELLIS_SYNC_S3_REGION", "TRELLIS_SYNC_S3_KEY", "TRELLIS_SYNC_GIT_REPO",
	"TRELLIS_SYNC_GIT_FILE", "TRELLIS_SYNC_GIT_BRANCH",
}

func clearAllEnv(t *testing.T) {
	t.Helper()
	for _, key := range allEnvVars {
		t.Setenv(key, "")
	}
}

func TestLoad(t *testing.T) {
	for _, tc := range []struct {
		name         string
		env          map[string]string
		wantErr      bool
		wantHTTPAddr string
		wantNATSURL  string
	}{
		{
			name:    "MissingDatabaseURL",
			env:     map[string]string{},
			wantErr: true,
		},
		{
			name:         "DefaultAddresses",
			env:          map[string]string{"TRELLIS_DATABASE_URL": "postgres://localhost/trellis"},
			wantHTTPAddr: ":8080",
		},
		{
			name: "CustomAddresses",
			env: map[string]string{
				"TRELLIS_DATABASE_URL": "postgres://db:5432/trellis",
				"TRELLIS_HTTP_ADDR":    ":3000",
				"TRELLIS_NATS_URL":     "nats://localhost:4222",
			},
			wantHTTPAddr: ":3000",
			wantNATSURL:  "nats://localhost:4222",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			clearAllEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cfg.DatabaseURL != tc.env["TRELLIS_DATABASE_URL"] {
				t.Errorf("DatabaseURL = %q, want %q", cfg.DatabaseURL, tc.env["TRELLIS_DATABASE_URL"])
			}
			if cfg.HTTPAddr != tc.wantHTTPAddr {
				t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, tc.wantHTTPAddr)
			}
			if cfg.NATSURL != tc.wantNATSURL {
				t.Errorf("NATSURL = %q, want %q", cfg.NATSURL, tc.wantNATSURL)
			}
		})
	}
}

func TestLoadTOMLFile(t *testing.T) {
	clearAllEnv(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "trellis.toml")
	content := `database_url = "postgres://file/trellis"
http_addr = ":9999"
nats_url = "nats://file:4222"
timezone_offset_minutes = 120
sync_interval = "10m"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("TRELLIS_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DatabaseURL != "postgres://file/trellis" {
		t.Errorf("DatabaseURL = %q", cfg.DatabaseURL)
	}
	if cfg.HTTPAddr != ":9999" {
		t.Errorf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if cfg.TimezoneOffsetMinutes != 120 {
		t.Errorf("TimezoneOffsetMinutes = %d", cfg.TimezoneOffsetMinutes)
	}
	if cfg.SyncInterval != 10*time.Minute {
		t.Errorf("SyncInterval = %v, want 10m", cfg.SyncInterval)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	clearAllEnv(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "trellis.toml")
	content := `database_url = "postgres://file/trellis"
http_addr = ":9999"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("TRELLIS_CONFIG", path)
	t.Setenv("TRELLIS_HTTP_ADDR", ":7777")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTPAddr != ":7777" {
		t.Errorf("HTTPAddr = %q, want env value :7777", cfg.HTTPAddr)
	}
	if cfg.DatabaseURL != "postgres://file/trellis" {
		t.Errorf("DatabaseURL = %q, want file value", cfg.DatabaseURL)
	}
}

func TestLoadSyncDefaults(t *testing.T) {
	clearAllEnv(t)
	t.Setenv("TRELLIS_DATABASE_URL", "postgres://localhost/trellis")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.SyncInterval != 3*time.Minute {
		t.Errorf("SyncInterval = %v, want 3m", cfg.SyncInterval)
	}
	if cfg.SyncS3Region != "us-east-1" {
		t.Errorf("SyncS3Region = %q, want %q", cfg.SyncS3Region, "us-east-1")
	}
	if cfg.SyncS3Key != "trellis/backup.jsonl" {
		t.Errorf("SyncS3Key = %q, want %q", cfg.SyncS3Key, "trellis/backup.jsonl")
	}
	if cfg.SyncGitFile != "trellis.jsonl" {
		t.Errorf("SyncGitFile = %q, want %q", cfg.SyncGitFile, "trellis.jsonl")
	}
	if cfg.SyncGitBranch != "main" {
		t.Errorf("SyncGitBranch = %q, want %q", cfg.SyncGitBranch, "main")
	}
}

func TestLoadSyncInvalidInterval(t *testing.T) {
	clearAllEnv(t)
	t.Setenv("TRELLIS_DATABASE_URL", "postgres://localhost/trellis")
	t.Setenv("TRELLIS_SYNC_INTERVAL", "not-a-duration")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid TRELLIS_SYNC_INTERVAL")
	}
}

func TestLoadSyncDisabled(t *testing.T) {
	clearAllEnv(t)
	t.Setenv("TRELLIS_DATABASE_URL", "postgres://localhost/trellis")
	t.Setenv("TRELLIS_SYNC_INTERVAL", "0s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.SyncInterval != 0 {
		t.Errorf("SyncInterval = %v, want 0 (disabled)", cfg.SyncInterval)
	}
}

func TestLoadInvalidTimezoneOffset(t *testing.T) {
	clearAllEnv(t)
	t.Setenv("TRELLIS_DATABASE_URL", "postgres://localhost/trellis")
	t.Setenv("TRELLIS_TZ_OFFSET_MINUTES", "plenty")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid TRELLIS_TZ_OFFSET_MINUTES")
	}
}

func TestLocation(t *testing.T) {
	c := &Config{}
	if c.Location() != time.UTC {
		t.Errorf("zero offset Location() = %v, want UTC", c.Location())
	}

	c = &Config{TimezoneOffsetMinutes: -300}
	loc := c.Location()
	ref := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	if got := ref.In(loc).Hour(); got != 7 {
		t.Errorf("noon UTC in offset -300 = hour %d, want 7", got)
	}
}
