// Package retry implements the deadlock-retry wrapper (spec §4.5): a
// reusable retry policy for contention errors held by composition, not by
// a mixed-in base class — grounded on the WithSerializableRetry/
// isRetryableTxError pattern from the dbx transaction helper in the
// retrieved pack (stoneMan1982-workexperience).
package retry

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

// BaseDelay is the base backoff unit: attempt N sleeps
// BaseDelay*2^(N-1) before re-running.
const BaseDelay = 10 * time.Millisecond

// MaxAttempts is the total number of times f is run before surfacing
// Contention.
const MaxAttempts = 3

// ContentionError marks a database error as safe to retry: a deadlock or
// serialization failure. It wraps the underlying driver error.
type ContentionError struct {
	Err error
}

func (e *ContentionError) Error() string { return e.Err.Error() }
func (e *ContentionError) Unwrap() error { return e.Err }

// IsContention reports whether err represents a retryable contention
// condition: MySQL error 1213 (deadlock), SQLSTATE 40001 (serialization
// failure), or a message containing "deadlock" or "try restarting
// transaction" (spec §4.1).
func IsContention(err error) bool {
	if err == nil {
		return false
	}
	var ce *ContentionError
	if errors.As(err, &ce) {
		return true
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		if myErr.Number == 1213 {
			return true
		}
		if myErr.SQLState == [5]byte{'4', '0', '0', '0', '1'} {
			return true
		}
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "deadlock") || strings.Contains(msg, "try restarting transaction")
}

// Metrics is the narrow interface the wrapper needs to record a retry,
// satisfied by metrics.Metrics. Declared here to avoid an import cycle.
type Metrics interface {
	IncDeadlockRetry()
}

// ErrContentionExhausted is returned once MaxAttempts runs all observed
// contention, per spec §4.5's 500-class "service temporarily unavailable"
// error.
var ErrContentionExhausted = errors.New("service temporarily unavailable due to database contention")

// Do runs f, retrying on contention errors with exponential backoff.
// Non-contention errors propagate immediately without retry. After
// MaxAttempts contention failures, Do returns ErrContentionExhausted.
func Do(op string, m Metrics, f func() error) error {
	var lastErr error
	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		err := f()
		if err == nil {
			return nil
		}
		if !IsContention(err) {
			return err
		}
		lastErr = err
		if m != nil {
			m.IncDeadlockRetry()
		}
		if attempt == MaxAttempts {
			break
		}
		delay := BaseDelay * time.Duration(1<<uint(attempt-1))
		slog.Warn("retry: contention, backing off",
			"op", op,
			"attempt", attempt,
			"max_attempts", MaxAttempts,
			"backoff", delay,
			"err", err,
		)
		time.Sleep(delay)
	}
	slog.Error("retry: exhausted attempts due to contention",
		"op", op,
		"max_attempts", MaxAttempts,
		"err", lastErr,
	)
	return ErrContentionExhausted
}
