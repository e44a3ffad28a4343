// config.go — Environment-driven options for the interception cache.
// Every option is overridable via the hosting environment; defaults
// keep the layer on with the documented ceilings.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment variable names recognized by the layer.
const (
	EnvEnabled         = "TESTCACHE_ENABLED"
	EnvClearOnStart    = "TESTCACHE_CLEAR_ON_START"
	EnvMaxEntries      = "TESTCACHE_MAX_ENTRIES"
	EnvMaxSizeMB       = "TESTCACHE_MAX_SIZE_MB"
	EnvDedup           = "TESTCACHE_DEDUP"
	EnvDomainBlocking  = "TESTCACHE_DOMAIN_BLOCKING"
	EnvEntryTTL        = "TESTCACHE_ENTRY_TTL"
	EnvSweepSchedule   = "TESTCACHE_SWEEP_SCHEDULE"
	EnvSnapshotBackend = "TESTCACHE_SNAPSHOT_BACKEND"
	EnvSnapshotPath    = "TESTCACHE_SNAPSHOT_PATH"
	EnvRedisAddr       = "TESTCACHE_REDIS_ADDR"
	EnvRedisPrefix     = "TESTCACHE_REDIS_PREFIX"
	EnvScenarioFile    = "TESTCACHE_SCENARIO_FILE"
)

// Snapshot backend names accepted by EnvSnapshotBackend.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// DefaultEntryTTL matches the original 30-day expiry for cached results.
const DefaultEntryTTL = 30 * 24 * time.Hour

// DefaultSweepSchedule is the cron spec for the mid-run expiry sweep.
const DefaultSweepSchedule = "@every 5m"

// Config holds every recognized option.
type Config struct {
	Enabled        bool
	ClearOnStart   bool
	MaxEntries     int
	MaxSizeBytes   int64
	Dedup          bool
	DomainBlocking bool

	// EntryTTL expires entries not accessed for this long; zero disables.
	EntryTTL      time.Duration
	SweepSchedule string

	SnapshotBackend string
	SnapshotPath    string // file or sqlite path; empty means the state-dir default
	RedisAddr       string
	RedisPrefix     string

	// ScenarioFile points at the per-target YAML profile; empty disables.
	ScenarioFile string
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Enabled:         true,
		ClearOnStart:    false,
		MaxEntries:      100,
		MaxSizeBytes:    50 * 1024 * 1024,
		Dedup:           true,
		DomainBlocking:  true,
		EntryTTL:        DefaultEntryTTL,
		SweepSchedule:   DefaultSweepSchedule,
		SnapshotBackend: BackendFile,
	}
}

// FromEnv returns Default overridden by whatever environment variables
// are set. Unparseable values keep the default and produce a warning,
// never an error — configuration mistakes must not fail the run.
func FromEnv() Config {
	cfg := Default()

	cfg.Enabled = envBool(EnvEnabled, cfg.Enabled)
	cfg.ClearOnStart = envBool(EnvClearOnStart, cfg.ClearOnStart)
	cfg.Dedup = envBool(EnvDedup, cfg.Dedup)
	cfg.DomainBlocking = envBool(EnvDomainBlocking, cfg.DomainBlocking)

	if v := os.Getenv(EnvMaxEntries); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxEntries = n
		} else {
			warnf("ignoring %s=%q: want a positive integer", EnvMaxEntries, v)
		}
	}
	if v := os.Getenv(EnvMaxSizeMB); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxSizeBytes = int64(n) * 1024 * 1024
		} else {
			warnf("ignoring %s=%q: want a positive integer", EnvMaxSizeMB, v)
		}
	}
	if v := os.Getenv(EnvEntryTTL); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d >= 0 {
			cfg.EntryTTL = d
		} else {
			warnf("ignoring %s=%q: want a non-negative duration", EnvEntryTTL, v)
		}
	}
	if v := os.Getenv(EnvSweepSchedule); v != "" {
		cfg.SweepSchedule = v
	}

	if v := strings.ToLower(strings.TrimSpace(os.Getenv(EnvSnapshotBackend))); v != "" {
		switch v {
		case BackendFile, BackendSQLite, BackendRedis:
			cfg.SnapshotBackend = v
		default:
			warnf("ignoring %s=%q: want file, sqlite or redis", EnvSnapshotBackend, v)
		}
	}
	cfg.SnapshotPath = os.Getenv(EnvSnapshotPath)
	cfg.RedisAddr = os.Getenv(EnvRedisAddr)
	cfg.RedisPrefix = os.Getenv(EnvRedisPrefix)
	cfg.ScenarioFile = os.Getenv(EnvScenarioFile)

	return cfg
}

// envBool reads name as a boolean. Accepts 1/true/yes and 0/false/no in
// any case; anything else keeps fallback with a warning.
func envBool(name string, fallback bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(name)))
	switch v {
	case "":
		return fallback
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		warnf("ignoring %s=%q: want a boolean", name, v)
		return fallback
	}
}

func warnf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "[testcache] Warning: "+format+"\n", args...)
}
