package executor

import (
	"context"
	"log/slog"

	"sql-executor/internal/db"
)

// BatchStream is a lazy, pull-based sequence of row batches produced by
// one paginated statement. The consumer drives iteration:
//
//	stream, err := exec.QueryBatches(ctx, query, 500)
//	...
//	defer stream.Close(ctx)
//	for stream.Next(ctx) {
//	    handle(stream.Columns(), stream.Batch())
//	}
//	err = stream.Err()
//
// The underlying transaction is committed when the sequence is
// exhausted (or abandoned early) and rolled back when a fetch fails.
// Rollback-only-on-error deviates from behavior this tool historically
// had, where a commit was issued even after a failure.
type BatchStream struct {
	conn     db.Connection
	cur      db.Cursor
	pageSize int
	logger   *slog.Logger

	batch  []db.Row
	err    error
	closed bool
}

// Next fetches the next batch, returning false on exhaustion or error.
func (s *BatchStream) Next(ctx context.Context) bool {
	if s.closed || s.err != nil {
		return false
	}
	rows, err := s.cur.FetchMany(ctx, s.pageSize)
	if err != nil {
		s.err = err
		s.logger.Error("Error fetching batch", "error", err)
		s.end(ctx, true)
		return false
	}
	if len(rows) == 0 {
		s.end(ctx, false)
		return false
	}
	s.batch = rows
	return true
}

// Batch returns the rows fetched by the last successful Next call.
func (s *BatchStream) Batch() []db.Row {
	return s.batch
}

// Columns returns the deduplicated column names of the result set.
func (s *BatchStream) Columns() []string {
	return s.cur.Columns()
}

// Err returns the first error encountered while streaming.
func (s *BatchStream) Err() error {
	return s.err
}

// Close releases the cursor and settles the transaction. Closing a
// stream that was not fully drained counts as a clean early stop and
// commits. Idempotent.
func (s *BatchStream) Close(ctx context.Context) error {
	s.end(ctx, false)
	return s.err
}

func (s *BatchStream) end(ctx context.Context, failed bool) {
	if s.closed {
		return
	}
	s.closed = true
	s.batch = nil
	if err := s.cur.Close(); err != nil {
		s.logger.Warn("Failed to close cursor", "error", err)
	}
	if failed {
		if err := s.conn.Rollback(ctx); err != nil {
			s.logger.Warn("Rollback failed", "error", err)
		}
		return
	}
	if err := s.conn.Commit(ctx); err != nil && s.err == nil {
		s.err = err
	}
}
