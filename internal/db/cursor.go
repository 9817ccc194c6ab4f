package db

import (
	"context"
	"database/sql"
	"log/slog"
)

// sessionQueryer is the slice of *sql.Conn the cursors need. Tests
// substitute a sqlmock-backed implementation.
type sessionQueryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// clientCursor is a regular buffering cursor over the session. Rows
// stream from the driver, but there is no server-side pagination; the
// chunking happens in FetchMany.
type clientCursor struct {
	vendor  Vendor
	sess    sessionQueryer
	beginTx func(ctx context.Context) error
	logger  *slog.Logger
	rs      *resultSet
}

func (c *clientCursor) Execute(ctx context.Context, query string, args ...any) error {
	if err := c.rs.close(); err != nil {
		c.logger.Warn("Failed to close previous result set", "error", err)
	}
	c.rs = nil

	if err := c.beginTx(ctx); err != nil {
		return connErr(c.vendor, err)
	}

	if !returnsRows(query) {
		if _, err := c.sess.ExecContext(ctx, query, args...); err != nil {
			return queryErr(c.vendor, err)
		}
		c.logger.Debug("Executed statement", "vendor", c.vendor)
		return nil
	}

	rows, err := c.sess.QueryContext(ctx, query, args...)
	if err != nil {
		return queryErr(c.vendor, err)
	}
	rs, err := newResultSet(rows)
	if err != nil {
		return queryErr(c.vendor, err)
	}
	c.rs = rs
	c.logger.Debug("Executed query", "vendor", c.vendor)
	return nil
}

func (c *clientCursor) FetchOne(ctx context.Context) (Row, error) {
	if c.rs == nil {
		return nil, nil
	}
	row, err := c.rs.fetchOne()
	if err != nil {
		return nil, queryErr(c.vendor, err)
	}
	return row, nil
}

func (c *clientCursor) FetchMany(ctx context.Context, n int) ([]Row, error) {
	if c.rs == nil {
		return nil, nil
	}
	rows, err := c.rs.fetchMany(n)
	if err != nil {
		return rows, queryErr(c.vendor, err)
	}
	return rows, nil
}

func (c *clientCursor) FetchAll(ctx context.Context) ([]Row, error) {
	if c.rs == nil {
		return nil, nil
	}
	rows, err := c.rs.fetchAll()
	if err != nil {
		return rows, queryErr(c.vendor, err)
	}
	return rows, nil
}

func (c *clientCursor) Columns() []string {
	if c.rs == nil {
		return nil
	}
	return c.rs.columns()
}

func (c *clientCursor) Close() error {
	err := c.rs.close()
	c.rs = nil
	return err
}
