// Package retry implements the retry-with-reconnect policy for
// connection-dependent operations. A failure is only worth retrying
// when the session is confirmed dead; query errors on a healthy
// connection propagate immediately.
package retry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"sql-executor/internal/db"
)

// ConnectionLostError is returned when the attempt budget is exhausted
// without re-establishing a usable session.
type ConnectionLostError struct {
	Attempts int
	Err      error
}

func (e *ConnectionLostError) Error() string {
	return fmt.Sprintf("connection lost after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ConnectionLostError) Unwrap() error {
	return e.Err
}

// Policy bounds the retry loop. The zero value is not usable; call
// Validate or construct via Default.
type Policy struct {
	// MaxAttempts is the total number of tries, not retries. Must be >= 1.
	MaxAttempts int
	// InitialDelay is the sleep before the first reconnect. Must be > 0.
	InitialDelay time.Duration
	// Multiplier grows the delay after each retry. Must be > 1.
	Multiplier float64
	// Classifier decides whether an error kind is even eligible for the
	// terminated-session probe. Nil means every error is eligible.
	Classifier func(error) bool

	Logger *slog.Logger
}

// Default mirrors the attempt budget the script runner has always used.
func Default(logger *slog.Logger) Policy {
	return Policy{
		MaxAttempts:  3,
		InitialDelay: 2 * time.Second,
		Multiplier:   2,
		Logger:       logger,
	}
}

// Validate rejects parameter combinations that would loop forever or
// never retry.
func (p Policy) Validate() error {
	if p.MaxAttempts < 1 {
		return fmt.Errorf("retry: MaxAttempts must be >= 1, got %d", p.MaxAttempts)
	}
	if p.InitialDelay <= 0 {
		return fmt.Errorf("retry: InitialDelay must be > 0, got %s", p.InitialDelay)
	}
	if p.Multiplier <= 1 {
		return fmt.Errorf("retry: Multiplier must be > 1, got %g", p.Multiplier)
	}
	return nil
}

// Do invokes op, retrying with exponential backoff when the connection
// is confirmed terminated. Between attempts the session is
// re-established via reconnect. Failures on a live connection (query
// errors) are not retried and propagate as-is. The last failure is
// returned once attempts run out.
func (p Policy) Do(ctx context.Context, conn db.Connection, reconnect func(ctx context.Context) error, op func() error) error {
	if err := p.Validate(); err != nil {
		return err
	}
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	attempts := p.MaxAttempts
	delay := p.InitialDelay
	for {
		err := op()
		if err == nil {
			return nil
		}
		if p.Classifier != nil && !p.Classifier(err) {
			return err
		}
		if !conn.IsTerminated(ctx) {
			// Not connection related; retrying would repeat a failing
			// statement against a healthy session.
			return err
		}
		attempts--
		if attempts == 0 {
			return &ConnectionLostError{Attempts: p.MaxAttempts, Err: err}
		}
		logger.Warn("Connection terminated, retrying",
			"error", err, "remaining_attempts", attempts, "delay", delay)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if rcErr := reconnect(ctx); rcErr != nil {
			logger.Warn("Reconnect failed", "error", rcErr, "remaining_attempts", attempts)
		}
		delay = time.Duration(float64(delay) * p.Multiplier)
	}
}
