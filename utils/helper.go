package utils

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bsm/redislock"
	"github.com/mmdatafocus/po_service/config"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// accepted layouts for PO dates, most specific last
var isoDateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseISODate parses an ISO date or timestamp and returns the calendar day in UTC.
func ParseISODate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, errors.New("empty date string")
	}
	for _, layout := range isoDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", value)
}

func ParseDecimal(value string) (decimal.Decimal, error) {
	// Remove any whitespace and check for empty strings
	value = strings.TrimSpace(value)
	if value == "" {
		return decimal.Zero, errors.New("empty decimal string")
	}

	dec, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, err
	}

	return dec, nil
}

// ErrIngestBusy is returned when another ingestion for the same platform
// still holds the lock after the wait is over.
var ErrIngestBusy = errors.New("another ingestion for this platform is in progress")

const ingestLockRetryInterval = 250 * time.Millisecond

// IngestLock serializes ingestion runs of one platform through a redis lock.
// A busy lock is retried for up to wait; after that ErrIngestBusy is returned.
// Without redis the caller proceeds unlocked and the store's unique keys keep
// concurrent runs correct. The returned release func is never nil.
func IngestLock(ctx context.Context, platform string, ttl time.Duration, wait time.Duration) (func(), error) {
	logger := config.GetLogger()
	locker := config.GetRedisLock()
	noop := func() {}
	if locker == nil {
		logger.WithFields(logrus.Fields{
			"field":    "IngestLock",
			"platform": platform,
		}).Debug("redis lock not ready; proceeding without redis lock")
		return noop, nil
	}

	retries := 0
	if wait > 0 {
		retries = int(wait / ingestLockRetryInterval)
	}
	lockKey := fmt.Sprintf("lock:ingest:%s", platform)
	lock, err := locker.Obtain(ctx, lockKey, ttl, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(ingestLockRetryInterval), retries),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		config.LogError(logger, "helper.go", "IngestLock", "Could not obtain ingest lock", platform, err)
		return noop, fmt.Errorf("platform %s: %w", platform, ErrIngestBusy)
	} else if err != nil {
		config.LogError(logger, "helper.go", "IngestLock", "Error obtaining ingest lock", platform, err)
		return noop, err
	}

	return func() {
		if releaseErr := lock.Release(context.Background()); releaseErr != nil && !errors.Is(releaseErr, redislock.ErrLockNotHeld) {
			logger.WithFields(logrus.Fields{
				"field":    "IngestLock",
				"platform": platform,
			}).Warn("failed to release redis lock: " + releaseErr.Error())
		}
	}, nil
}
