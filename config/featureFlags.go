package config

import (
	"os"
	"strings"
	"time"
)

const defaultPlatformName = "Default Platform"

// IngestBatchWidth is how many PO groups are processed concurrently.
//
// Set via env:
// - PO_BATCH_WIDTH (default 10)
func IngestBatchWidth() int {
	if n := intFromEnv("PO_BATCH_WIDTH", 10); n > 0 {
		return n
	}
	return 10
}

// IngestBatchDelay is the pause between two consecutive batches.
//
// Set via env:
// - PO_BATCH_DELAY_MS (default 100, 0 disables pacing)
func IngestBatchDelay() time.Duration {
	n := intFromEnv("PO_BATCH_DELAY_MS", 100)
	if n < 0 {
		n = 100
	}
	return time.Duration(n) * time.Millisecond
}

// IngestLockWait is how long an ingestion waits for a busy platform lock.
//
// Set via env:
// - PO_LOCK_WAIT_MS (default 30000, 0 fails at once)
func IngestLockWait() time.Duration {
	n := intFromEnv("PO_LOCK_WAIT_MS", 30000)
	if n < 0 {
		n = 30000
	}
	return time.Duration(n) * time.Millisecond
}

// DefaultPlatformName is used when an ingestion request names no platform.
func DefaultPlatformName() string {
	if v := strings.TrimSpace(os.Getenv("PO_DEFAULT_PLATFORM")); v != "" {
		return v
	}
	return defaultPlatformName
}

// IsProduction reports GO_ENV=production.
func IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production")
}

// SkipMigrations reports SKIP_MIGRATIONS=true.
func SkipMigrations() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}
