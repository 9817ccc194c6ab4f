package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sql-executor/internal/config"
	"sql-executor/internal/db"
	"sql-executor/internal/exporter"
)

// fakeConn serves a fixed in-memory result set to every statement and
// records the transaction and fetch traffic.
type fakeConn struct {
	cols []string
	rows []db.Row

	commits    int
	rollbacks  int
	executed   []string
	fetchSizes []int

	// failOnFetch makes the Nth FetchMany call fail (1-based). Zero
	// disables the failure.
	failOnFetch int
	fetchCalls  int
}

func (c *fakeConn) Vendor() db.Vendor { return db.VendorPostgres }
func (c *fakeConn) Connect(context.Context, *config.Config, string) error {
	return nil
}
func (c *fakeConn) Close() error { return nil }
func (c *fakeConn) Commit(context.Context) error {
	c.commits++
	return nil
}
func (c *fakeConn) Rollback(context.Context) error {
	c.rollbacks++
	return nil
}
func (c *fakeConn) IsTerminated(context.Context) bool { return false }
func (c *fakeConn) Cursor(context.Context, bool) (db.Cursor, error) {
	return &fakeCursor{conn: c}, nil
}

type fakeCursor struct {
	conn *fakeConn
	pos  int
}

func (c *fakeCursor) Execute(_ context.Context, query string, _ ...any) error {
	c.conn.executed = append(c.conn.executed, query)
	c.pos = 0
	return nil
}

func (c *fakeCursor) FetchOne(ctx context.Context) (db.Row, error) {
	rows, err := c.FetchMany(ctx, 1)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

func (c *fakeCursor) FetchMany(_ context.Context, n int) ([]db.Row, error) {
	c.conn.fetchCalls++
	c.conn.fetchSizes = append(c.conn.fetchSizes, n)
	if c.conn.failOnFetch > 0 && c.conn.fetchCalls >= c.conn.failOnFetch {
		return nil, errors.New("server closed the connection")
	}
	end := c.pos + n
	if end > len(c.conn.rows) {
		end = len(c.conn.rows)
	}
	rows := c.conn.rows[c.pos:end]
	c.pos = end
	return rows, nil
}

func (c *fakeCursor) FetchAll(ctx context.Context) ([]db.Row, error) {
	return c.FetchMany(ctx, len(c.conn.rows)-c.pos)
}

func (c *fakeCursor) Columns() []string { return c.conn.cols }
func (c *fakeCursor) Close() error      { return nil }

func makeRows(n int) []db.Row {
	rows := make([]db.Row, 0, n)
	for i := 1; i <= n; i++ {
		rows = append(rows, db.Row{"id": int64(i), "name": fmt.Sprintf("row%d", i)})
	}
	return rows
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestExecutor(t *testing.T, conn *fakeConn) *Executor {
	t.Helper()
	if conn.cols == nil {
		conn.cols = []string{"id", "name"}
	}
	exec, err := New(context.Background(), conn, nil, "test", WithLogger(quietLogger()))
	require.NoError(t, err)
	return exec
}

func writeScript(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "script.sql")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// countDataRows returns the number of lines after the header.
func countDataRows(t *testing.T, path string) int {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	return len(lines) - 1
}

func TestExecuteFileAndSavePaginated(t *testing.T) {
	conn := &fakeConn{rows: makeRows(10)}
	exec := newTestExecutor(t, conn)
	script := writeScript(t, "/* PAGINATE SIZE 3 */ SELECT * FROM t")
	outBase := filepath.Join(t.TempDir(), "out")

	written, err := exec.ExecuteFileAndSave(context.Background(), script, outBase, exporter.CSV, SaveOptions{})
	require.NoError(t, err)

	require.Equal(t, []string{outBase + "_001.csv"}, written)
	assert.Equal(t, 10, countDataRows(t, written[0]))
	// Pages of 3 over 10 rows: 3+3+3+1, then one empty fetch ends the stream.
	assert.Equal(t, []int{3, 3, 3, 3, 3}, conn.fetchSizes)
	assert.Equal(t, 1, conn.commits)
	assert.Equal(t, 0, conn.rollbacks)
}

func TestExecuteFileAndSaveSingleShot(t *testing.T) {
	conn := &fakeConn{rows: makeRows(4)}
	exec := newTestExecutor(t, conn)
	script := writeScript(t, "SELECT * FROM t")
	outBase := filepath.Join(t.TempDir(), "out")

	written, err := exec.ExecuteFileAndSave(context.Background(), script, outBase, exporter.CSV, SaveOptions{})
	require.NoError(t, err)

	require.Len(t, written, 1)
	assert.Equal(t, 4, countDataRows(t, written[0]))
	assert.Equal(t, 1, conn.commits)
}

func TestExecuteFileAndSaveRowLimitTrimsFinalBatch(t *testing.T) {
	conn := &fakeConn{rows: makeRows(10)}
	exec := newTestExecutor(t, conn)
	script := writeScript(t, "/* PAGINATE SIZE 3 */ /* ROW LIMIT 5 */ SELECT * FROM t")
	outBase := filepath.Join(t.TempDir(), "out")

	written, err := exec.ExecuteFileAndSave(context.Background(), script, outBase, exporter.CSV, SaveOptions{})
	require.NoError(t, err)

	require.Len(t, written, 1)
	// 3 + 2: the second page is trimmed so the cap is exact.
	assert.Equal(t, 5, countDataRows(t, written[0]))
	assert.Equal(t, 1, conn.commits, "early stop at the cap still commits")
	assert.Equal(t, 0, conn.rollbacks)
}

func TestExecuteFileAndSaveRowLimitSingleShot(t *testing.T) {
	conn := &fakeConn{rows: makeRows(10)}
	exec := newTestExecutor(t, conn)
	script := writeScript(t, "SELECT * FROM t")
	outBase := filepath.Join(t.TempDir(), "out")

	written, err := exec.ExecuteFileAndSave(context.Background(), script, outBase, exporter.CSV, SaveOptions{RowLimit: 2})
	require.NoError(t, err)

	require.Len(t, written, 1)
	assert.Equal(t, 2, countDataRows(t, written[0]))
}

func TestDirectiveOverridesDefaultBatchSize(t *testing.T) {
	conn := &fakeConn{rows: makeRows(4)}
	exec := newTestExecutor(t, conn)
	script := writeScript(t, "/* PAGINATE SIZE 2 */ SELECT * FROM t")
	outBase := filepath.Join(t.TempDir(), "out")

	_, err := exec.ExecuteFileAndSave(context.Background(), script, outBase, exporter.CSV, SaveOptions{BatchSize: 100})
	require.NoError(t, err)

	for _, n := range conn.fetchSizes {
		assert.Equal(t, 2, n, "the directive wins over the flag default")
	}
}

func TestNonPositiveDirectiveSkipsStatement(t *testing.T) {
	conn := &fakeConn{rows: makeRows(3)}
	exec := newTestExecutor(t, conn)
	script := writeScript(t, "/* PAGINATE SIZE 0 */ SELECT * FROM a;\nSELECT * FROM b")
	outBase := filepath.Join(t.TempDir(), "out")

	written, err := exec.ExecuteFileAndSave(context.Background(), script, outBase, exporter.CSV, SaveOptions{})
	require.NoError(t, err)

	require.Equal(t, []string{outBase + "_002.csv"}, written, "the skipped statement leaves no file and keeps its slot")
	_, statErr := os.Stat(outBase + "_001.csv")
	assert.True(t, os.IsNotExist(statErr))
	require.Len(t, conn.executed, 1)
	assert.Contains(t, conn.executed[0], "FROM b")
}

func TestStatementSuffixNumbering(t *testing.T) {
	conn := &fakeConn{rows: makeRows(1)}
	exec := newTestExecutor(t, conn)
	script := writeScript(t, "SELECT 1;\nSELECT 2;\nSELECT 3")
	outBase := filepath.Join(t.TempDir(), "out")

	written, err := exec.ExecuteFileAndSave(context.Background(), script, outBase, exporter.CSV, SaveOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{
		outBase + "_001.csv",
		outBase + "_002.csv",
		outBase + "_003.csv",
	}, written)
}

func TestEmptyResultLeavesNoFile(t *testing.T) {
	conn := &fakeConn{rows: nil}
	exec := newTestExecutor(t, conn)
	script := writeScript(t, "SELECT * FROM empty")
	outBase := filepath.Join(t.TempDir(), "out")

	written, err := exec.ExecuteFileAndSave(context.Background(), script, outBase, exporter.CSV, SaveOptions{})
	require.NoError(t, err)

	assert.Empty(t, written)
	_, statErr := os.Stat(outBase + "_001.csv")
	assert.True(t, os.IsNotExist(statErr))
}

func TestFetchFailureRollsBack(t *testing.T) {
	conn := &fakeConn{rows: makeRows(10), failOnFetch: 2}
	exec := newTestExecutor(t, conn)
	script := writeScript(t, "/* PAGINATE SIZE 3 */ SELECT * FROM t")
	outBase := filepath.Join(t.TempDir(), "out")

	_, err := exec.ExecuteFileAndSave(context.Background(), script, outBase, exporter.CSV, SaveOptions{})
	require.Error(t, err)
	assert.Equal(t, 1, conn.rollbacks)
	assert.Equal(t, 0, conn.commits)
}

func TestExecuteFileMissingScript(t *testing.T) {
	conn := &fakeConn{}
	exec := newTestExecutor(t, conn)

	err := exec.ExecuteFile(context.Background(), filepath.Join(t.TempDir(), "nope.sql"))
	var notFound *ScriptNotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestQueryBatchesRejectsNonPositivePageSize(t *testing.T) {
	conn := &fakeConn{}
	exec := newTestExecutor(t, conn)

	_, err := exec.QueryBatches(context.Background(), "SELECT 1", 0)
	assert.Error(t, err)
	_, err = exec.QueryBatches(context.Background(), "SELECT 1", -5)
	assert.Error(t, err)
}

func TestQueryBatchesStreams(t *testing.T) {
	conn := &fakeConn{cols: []string{"id", "name"}, rows: makeRows(7)}
	exec := newTestExecutor(t, conn)
	ctx := context.Background()

	stream, err := exec.QueryBatches(ctx, "SELECT * FROM t", 3)
	require.NoError(t, err)
	defer stream.Close(ctx)

	var sizes []int
	for stream.Next(ctx) {
		sizes = append(sizes, len(stream.Batch()))
		assert.Equal(t, []string{"id", "name"}, stream.Columns())
	}
	require.NoError(t, stream.Err())
	assert.Equal(t, []int{3, 3, 1}, sizes)
	require.NoError(t, stream.Close(ctx))
	assert.Equal(t, 1, conn.commits)
}

func TestExecuteFolderAndSave(t *testing.T) {
	conn := &fakeConn{rows: makeRows(2)}
	exec := newTestExecutor(t, conn)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "alpha.sql"), []byte("SELECT 1"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "beta.sql"), []byte("SELECT 2"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "ignored"), 0755))
	outDir := t.TempDir()

	written, err := exec.ExecuteFolderAndSave(context.Background(), dir, outDir, exporter.CSV, SaveOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(outDir, "alpha_001.csv"),
		filepath.Join(outDir, "beta_001.csv"),
	}, written)
}

func TestExecuteFolderAndSaveBadPathIsSoftFailure(t *testing.T) {
	conn := &fakeConn{}
	exec := newTestExecutor(t, conn)

	written, err := exec.ExecuteFolderAndSave(context.Background(),
		filepath.Join(t.TempDir(), "missing"), t.TempDir(), exporter.CSV, SaveOptions{})
	assert.NoError(t, err)
	assert.Empty(t, written)
}
