// Package executor runs SQL scripts against a database session and
// streams the results into flat files. It owns the orchestration
// policy: statement splitting, directive resolution, pagination, row
// caps and retry-with-reconnect.
package executor

import (
	"context"
	"fmt"
	"log/slog"

	"sql-executor/internal/config"
	"sql-executor/internal/db"
	"sql-executor/internal/retry"
)

// Executor binds a Connection to a config/environment pair so the
// session can be re-established after a drop. One Executor serves one
// logical caller; it is not safe for concurrent use.
type Executor struct {
	conn        db.Connection
	cfg         *config.Config
	environment string
	retry       retry.Policy
	logger      *slog.Logger
}

// Option customizes an Executor.
type Option func(*Executor)

// WithRetryPolicy overrides the default retry-with-reconnect policy.
func WithRetryPolicy(p retry.Policy) Option {
	return func(e *Executor) { e.retry = p }
}

// WithLogger injects the component logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Executor) { e.logger = l }
}

// New connects conn using the named environment and returns an
// Executor bound to that config/environment pair.
func New(ctx context.Context, conn db.Connection, cfg *config.Config, environment string, opts ...Option) (*Executor, error) {
	e := &Executor{
		conn:        conn,
		cfg:         cfg,
		environment: environment,
		logger:      slog.Default(),
	}
	e.retry = retry.Default(e.logger)
	for _, opt := range opts {
		opt(e)
	}
	if err := conn.Connect(ctx, cfg, environment); err != nil {
		return nil, err
	}
	return e, nil
}

// Close releases the underlying session.
func (e *Executor) Close() error {
	return e.conn.Close()
}

// Reconnect re-establishes the session with the stored
// config/environment pair.
func (e *Executor) Reconnect(ctx context.Context) error {
	return e.conn.Connect(ctx, e.cfg, e.environment)
}

// ensureConnected reconnects when the session is confirmed broken
// before starting a unit of work.
func (e *Executor) ensureConnected(ctx context.Context) error {
	if !e.conn.IsTerminated(ctx) {
		return nil
	}
	e.logger.Warn("Database connection is not active, attempting to reconnect",
		"environment", e.environment, "vendor", e.conn.Vendor())
	return e.Reconnect(ctx)
}

// Transaction runs fn in a transaction scope: commit on success,
// rollback and error propagation on failure.
func (e *Executor) Transaction(ctx context.Context, fn func() error) error {
	return db.WithTransaction(ctx, e.conn, e.logger, fn)
}

// Commit commits the pending transaction.
func (e *Executor) Commit(ctx context.Context) error {
	return e.conn.Commit(ctx)
}

// Rollback rolls back the pending transaction.
func (e *Executor) Rollback(ctx context.Context) error {
	return e.conn.Rollback(ctx)
}

// ExecuteQuery runs a single DML/DDL statement on a client-side
// cursor. The statement joins the pending transaction; pair it with
// Transaction or Commit for atomicity.
func (e *Executor) ExecuteQuery(ctx context.Context, query string, args ...any) error {
	cur, err := e.conn.Cursor(ctx, true)
	if err != nil {
		return err
	}
	defer cur.Close()
	return cur.Execute(ctx, query, args...)
}

// Query executes a statement on a client-side cursor and returns the
// open cursor for fetching. The caller owns the cursor.
func (e *Executor) Query(ctx context.Context, query string, args ...any) (db.Cursor, error) {
	cur, err := e.conn.Cursor(ctx, true)
	if err != nil {
		return nil, err
	}
	if err := cur.Execute(ctx, query, args...); err != nil {
		cur.Close()
		return nil, err
	}
	return cur, nil
}

// QueryBatches executes a statement and returns a lazy stream of row
// batches of up to pageSize rows each. Opening the stream (cursor open
// plus execute) is guarded by the retry-with-reconnect policy; fetch
// failures mid-stream propagate without retry so already-consumed
// batches are never re-emitted.
//
// Postgres uses a named server-side cursor here; bind parameters are
// therefore not supported on paginated Postgres queries.
func (e *Executor) QueryBatches(ctx context.Context, query string, pageSize int, args ...any) (*BatchStream, error) {
	if pageSize <= 0 {
		return nil, fmt.Errorf("page size must be positive, got %d", pageSize)
	}
	var cur db.Cursor
	err := e.retry.Do(ctx, e.conn, e.Reconnect, func() error {
		if err := e.ensureConnected(ctx); err != nil {
			return err
		}
		c, err := e.conn.Cursor(ctx, false)
		if err != nil {
			return err
		}
		if err := c.Execute(ctx, query, args...); err != nil {
			c.Close()
			return err
		}
		cur = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &BatchStream{
		conn:     e.conn,
		cur:      cur,
		pageSize: pageSize,
		logger:   e.logger,
	}, nil
}
