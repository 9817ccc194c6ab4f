package db

import (
	"context"
	"log/slog"
)

// WithTransaction runs fn as one transaction scope on conn: commit when
// fn returns nil, rollback (with a warning log) when it fails. The
// original error is always propagated, never swallowed. Exactly one of
// commit/rollback runs per scope.
//
// Scopes do not nest: opening a second scope while one is pending on
// the same Connection is caller error.
func WithTransaction(ctx context.Context, conn Connection, logger *slog.Logger, fn func() error) error {
	if logger == nil {
		logger = slog.Default()
	}
	if err := fn(); err != nil {
		if rbErr := conn.Rollback(ctx); rbErr != nil {
			logger.Warn("Rollback failed", "error", rbErr)
		}
		logger.Warn("Transaction rolled back due to an error", "error", err)
		return err
	}
	return conn.Commit(ctx)
}
