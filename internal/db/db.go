package db

import (
	"context"
	"fmt"
	"log/slog"

	"sql-executor/internal/config"
)

// Vendor identifies a supported database backend.
type Vendor string

const (
	VendorPostgres Vendor = "postgres"
	VendorOracle   Vendor = "oracle"
	VendorMySQL    Vendor = "mysql"
)

// ParseVendor validates a vendor name from user input.
func ParseVendor(s string) (Vendor, error) {
	switch Vendor(s) {
	case VendorPostgres, VendorOracle, VendorMySQL:
		return Vendor(s), nil
	}
	return "", fmt.Errorf("unsupported vendor %q (want postgres, oracle or mysql)", s)
}

// Connection abstracts one live session to one database instance.
// A Connection and its cursors are owned by a single logical caller;
// none of the methods are safe for concurrent use.
type Connection interface {
	// Vendor returns the backend kind.
	Vendor() Vendor

	// Connect resolves the "{environment}_{vendor}" config section and
	// establishes a live session. Calling it on an already connected
	// instance re-establishes the session in place.
	Connect(ctx context.Context, cfg *config.Config, environment string) error

	// Close releases the session. Safe to call when not connected.
	Close() error

	// Commit commits the pending transaction. Returns ErrNotConnected
	// when there is no live session; with a live session but nothing
	// pending it is a no-op.
	Commit(ctx context.Context) error

	// Rollback rolls back the pending transaction. Safe to call when
	// not connected.
	Rollback(ctx context.Context) error

	// IsTerminated probes the session and reports true when it is
	// confirmed broken (or was never established).
	IsTerminated(ctx context.Context) bool

	// Cursor opens a statement-execution context. clientSide selects a
	// regular buffering cursor, suitable for DML/DDL; with clientSide
	// false Postgres opens a named server-side cursor so large result
	// sets stream in pages instead of being buffered by the driver.
	// Oracle and MySQL have no server-side cursor distinction and
	// always return a client-side cursor with chunked fetches.
	Cursor(ctx context.Context, clientSide bool) (Cursor, error)
}

// Cursor is one open statement-execution context scoped to a
// Connection. It borrows the Connection and must not be used after the
// Connection has been closed.
type Cursor interface {
	// Execute runs a single statement. Statements that return no
	// result set (DML/DDL) leave the cursor with nothing to fetch.
	Execute(ctx context.Context, query string, args ...any) error

	// FetchOne returns the next row, or nil when the result set is
	// exhausted or the statement returned no rows.
	FetchOne(ctx context.Context) (Row, error)

	// FetchMany returns up to n rows. An empty slice means exhaustion.
	FetchMany(ctx context.Context, n int) ([]Row, error)

	// FetchAll drains the remaining rows.
	FetchAll(ctx context.Context) ([]Row, error)

	// Columns returns the deduplicated column names of the current
	// result set, or nil when no result set is open.
	Columns() []string

	// Close releases the cursor.
	Close() error
}

// New constructs an unconnected Connection for the given vendor.
func New(vendor Vendor, logger *slog.Logger) (Connection, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch vendor {
	case VendorPostgres:
		return NewPostgresConnection(logger), nil
	case VendorOracle:
		return NewOracleConnection(logger), nil
	case VendorMySQL:
		return NewMySQLConnection(logger), nil
	}
	return nil, fmt.Errorf("unsupported vendor %q", vendor)
}
