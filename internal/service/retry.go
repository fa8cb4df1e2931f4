package service

import (
	"errors"
	"time"

	"github.com/agrimart/ordercore/internal/logger"
)

const defaultConflictRetryAttempts = 3

// withConflictRetry reruns fn while it fails with a conflict
func withConflictRetry(attempts int, operation string, fn func() error) error {
	if attempts < 1 {
		attempts = defaultConflictRetryAttempts
	}
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn()
		if err == nil || !errors.Is(err, ErrConflict) {
			return err
		}
		logger.Warnw("conflict_retry",
			"operation", operation,
			"attempt", attempt,
			"max_attempts", attempts,
			"error", err,
		)
		if attempt < attempts {
			time.Sleep(time.Duration(attempt*15) * time.Millisecond)
		}
	}
	return err
}
