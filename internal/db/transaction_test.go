package db

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"sql-executor/internal/config"
)

type fakeTxConn struct {
	commits     int
	rollbacks   int
	rollbackErr error
}

func (f *fakeTxConn) Vendor() Vendor { return VendorPostgres }
func (f *fakeTxConn) Connect(context.Context, *config.Config, string) error {
	return nil
}
func (f *fakeTxConn) Close() error { return nil }
func (f *fakeTxConn) Commit(context.Context) error {
	f.commits++
	return nil
}
func (f *fakeTxConn) Rollback(context.Context) error {
	f.rollbacks++
	return f.rollbackErr
}
func (f *fakeTxConn) IsTerminated(context.Context) bool { return false }
func (f *fakeTxConn) Cursor(context.Context, bool) (Cursor, error) {
	return nil, errors.New("no cursor in fake")
}

func TestWithTransactionCommitsOnSuccess(t *testing.T) {
	conn := &fakeTxConn{}

	err := WithTransaction(context.Background(), conn, slog.Default(), func() error {
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 1, conn.commits)
	assert.Equal(t, 0, conn.rollbacks)
}

func TestWithTransactionRollsBackOnError(t *testing.T) {
	conn := &fakeTxConn{}
	boom := errors.New("constraint violated")

	err := WithTransaction(context.Background(), conn, slog.Default(), func() error {
		return boom
	})

	assert.ErrorIs(t, err, boom, "the original error is propagated")
	assert.Equal(t, 0, conn.commits)
	assert.Equal(t, 1, conn.rollbacks)
}

func TestWithTransactionRollbackFailureKeepsOriginalError(t *testing.T) {
	conn := &fakeTxConn{rollbackErr: errors.New("session gone")}
	boom := errors.New("constraint violated")

	err := WithTransaction(context.Background(), conn, slog.Default(), func() error {
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, conn.rollbacks)
}
