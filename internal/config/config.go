package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds all server settings. Values come from an optional TOML file
// (TRELLIS_CONFIG) with environment variables taking precedence.
type Config struct {
	DatabaseURL string `toml:"database_url"` // TRELLIS_DATABASE_URL (required)
	HTTPAddr    string `toml:"http_addr"`    // TRELLIS_HTTP_ADDR (default ":8080")
	NATSURL     string `toml:"nats_url"`     // TRELLIS_NATS_URL (optional, empty = no events)

	// Timezone offset for local-day rules (chore due dates). Threaded
	// explicitly into the engine rather than read from ambient state.
	TimezoneOffsetMinutes int `toml:"timezone_offset_minutes"` // TRELLIS_TZ_OFFSET_MINUTES (default 0 = UTC)

	// Markdown mirror directory (empty = disabled).
	NodesDir string `toml:"nodes_dir"` // TRELLIS_NODES_DIR

	// Sync settings
	SyncInterval   time.Duration `toml:"-"`              // TRELLIS_SYNC_INTERVAL (default 3m; 0 = disabled)
	SyncIntervalS  string        `toml:"sync_interval"`  // raw value from the TOML file
	SyncS3Bucket   string        `toml:"sync_s3_bucket"` // TRELLIS_SYNC_S3_BUCKET (enables S3 when set)
	SyncS3Endpoint string        `toml:"sync_s3_endpoint"`
	SyncS3Region   string        `toml:"sync_s3_region"` // default "us-east-1"
	SyncS3Key      string        `toml:"sync_s3_key"`    // default "trellis/backup.jsonl"
	SyncGitRepo    string        `toml:"sync_git_repo"`  // enables git when set; path to clone
	SyncGitFile    string        `toml:"sync_git_file"`  // default "trellis.jsonl"
	SyncGitBranch  string        `toml:"sync_git_branch"`
}

// Load reads the optional TOML config file, applies environment overrides,
// and validates required settings.
func Load() (*Config, error) {
	c := &Config{
		HTTPAddr:      ":8080",
		SyncIntervalS: "3m",
		SyncS3Region:  "us-east-1",
		SyncS3Key:     "trellis/backup.jsonl",
		SyncGitFile:   "trellis.jsonl",
		SyncGitBranch: "main",
	}

	if path := os.Getenv("TRELLIS_CONFIG"); path != "" {
		if _, err := toml.DecodeFile(path, c); err != nil {
			return nil, fmt.Errorf("TRELLIS_CONFIG %s: %w", path, err)
		}
	}

	applyEnv(&c.DatabaseURL, "TRELLIS_DATABASE_URL")
	applyEnv(&c.HTTPAddr, "TRELLIS_HTTP_ADDR")
	applyEnv(&c.NATSURL, "TRELLIS_NATS_URL")
	applyEnv(&c.NodesDir, "TRELLIS_NODES_DIR")
	applyEnv(&c.SyncIntervalS, "TRELLIS_SYNC_INTERVAL")
	applyEnv(&c.SyncS3Bucket, "TRELLIS_SYNC_S3_BUCKET")
	applyEnv(&c.SyncS3Endpoint, "TRELLIS_SYNC_S3_ENDPOINT")
	applyEnv(&c.SyncS3Region, "TRELLIS_SYNC_S3_REGION")
	applyEnv(&c.SyncS3Key, "TRELLIS_SYNC_S3_KEY")
	applyEnv(&c.SyncGitRepo, "TRELLIS_SYNC_GIT_REPO")
	applyEnv(&c.SyncGitFile, "TRELLIS_SYNC_GIT_FILE")
	applyEnv(&c.SyncGitBranch, "TRELLIS_SYNC_GIT_BRANCH")

	if v := os.Getenv("TRELLIS_TZ_OFFSET_MINUTES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("TRELLIS_TZ_OFFSET_MINUTES: %w", err)
		}
		c.TimezoneOffsetMinutes = n
	}

	if c.DatabaseURL == "" {
		return nil, fmt.Errorf("TRELLIS_DATABASE_URL is required")
	}

	if c.SyncIntervalS != "" {
		d, err := time.ParseDuration(c.SyncIntervalS)
		if err != nil {
			return nil, fmt.Errorf("TRELLIS_SYNC_INTERVAL: %w", err)
		}
		c.SyncInterval = d
	}

	return c, nil
}

// Location returns the fixed-offset timezone used for local-day rules.
func (c *Config) Location() *time.Location {
	if c.TimezoneOffsetMinutes == 0 {
		return time.UTC
	}
	return time.FixedZone(fmt.Sprintf("UTC%+d", c.TimezoneOffsetMinutes/60), c.TimezoneOffsetMinutes*60)
}

func applyEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
