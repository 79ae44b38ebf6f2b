package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides layers CLASSDEP_[SECTION]_[KEY] environment variables over
// the loaded file (e.g. CLASSDEP_DB_PATH, CLASSDEP_NEO4J_PASSWORD). Values are
// never logged; secrets ride this path.
func ApplyEnvOverrides(cfg *Config) {
	setEnvString(&cfg.Project, "CLASSDEP_PROJECT")
	setEnvString(&cfg.Paths.ProjectRoot, "CLASSDEP_PATHS_PROJECT_ROOT")

	setEnvInt(&cfg.Scan.WorkerMultiplier, "CLASSDEP_SCAN_WORKER_MULTIPLIER")

	setEnvBoolPtr(&cfg.DB.Enabled, "CLASSDEP_DB_ENABLED")
	setEnvString(&cfg.DB.Path, "CLASSDEP_DB_PATH")
	setEnvDuration(&cfg.DB.BusyTimeout, "CLASSDEP_DB_BUSY_TIMEOUT")

	setEnvBool(&cfg.Neo4j.Enabled, "CLASSDEP_NEO4J_ENABLED")
	setEnvString(&cfg.Neo4j.URI, "CLASSDEP_NEO4J_URI")
	setEnvString(&cfg.Neo4j.Username, "CLASSDEP_NEO4J_USERNAME")
	setEnvString(&cfg.Neo4j.Password, "CLASSDEP_NEO4J_PASSWORD")
	setEnvString(&cfg.Neo4j.Database, "CLASSDEP_NEO4J_DATABASE")

	setEnvDuration(&cfg.Watch.Debounce, "CLASSDEP_WATCH_DEBOUNCE")
	setEnvFloat64(&cfg.Watch.MaxRescansPerSec, "CLASSDEP_WATCH_MAX_RESCANS_PER_SEC")
	setEnvInt(&cfg.Watch.MaxHeapMB, "CLASSDEP_WATCH_MAX_HEAP_MB")

	setEnvBool(&cfg.Observability.Enabled, "CLASSDEP_OBSERVABILITY_ENABLED")
	setEnvString(&cfg.Observability.MetricsAddr, "CLASSDEP_OBSERVABILITY_METRICS_ADDR")
	setEnvString(&cfg.Observability.OTLPEndpoint, "CLASSDEP_OBSERVABILITY_OTLP_ENDPOINT")
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("env override applied", "key", key)
		*target = val
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			slog.Debug("env override applied", "key", key)
			*target = i
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(strings.ToLower(val)); err == nil {
			slog.Debug("env override applied", "key", key)
			*target = b
		}
	}
}

func setEnvBoolPtr(target **bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(strings.ToLower(val)); err == nil {
			slog.Debug("env override applied", "key", key)
			*target = &b
		}
	}
}

func setEnvFloat64(target *float64, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			slog.Debug("env override applied", "key", key)
			*target = f
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			slog.Debug("env override applied", "key", key)
			*target = d
		}
	}
}
