package executor

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"sql-executor/internal/db"
	"sql-executor/internal/directive"
	"sql-executor/internal/exporter"
)

// ScriptNotFoundError means the script file does not exist.
type ScriptNotFoundError struct {
	Path string
	Err  error
}

func (e *ScriptNotFoundError) Error() string {
	return fmt.Sprintf("sql script not found: %s", e.Path)
}

func (e *ScriptNotFoundError) Unwrap() error {
	return e.Err
}

// SaveOptions configures ExecuteFileAndSave. A zero BatchSize or
// RowLimit means "not set"; a negative value is set-but-invalid and
// skips the statement, same as a non-positive directive value.
type SaveOptions struct {
	// BatchSize is the default page size for statements without a
	// PAGINATE SIZE directive. Unset means single-shot fetch.
	BatchSize int
	// RowLimit is the default row cap for statements without a
	// ROW LIMIT directive. Unset means all rows.
	RowLimit int
	// Append extends existing output files instead of overwriting.
	Append bool
	// Delimiter overrides the CSV field delimiter. Zero means comma.
	Delimiter rune
}

// SplitStatements splits a script on semicolons and drops blank
// statements.
func SplitStatements(script string) []string {
	parts := strings.Split(script, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// QueriesFromFile returns every statement of a script file.
func QueriesFromFile(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &ScriptNotFoundError{Path: path, Err: err}
		}
		return nil, err
	}
	return SplitStatements(string(raw)), nil
}

// QueryFromFile returns the 0-indexed statement of a script file, or
// an error when the index is out of range.
func QueryFromFile(path string, index int) (string, error) {
	queries, err := QueriesFromFile(path)
	if err != nil {
		return "", err
	}
	if index < 0 || index >= len(queries) {
		return "", fmt.Errorf("statement index %d out of range (script has %d statements)", index, len(queries))
	}
	return queries[index], nil
}

// QueryFromFileByName returns the statement tagged /* NAME <name> */.
func QueryFromFileByName(path, name string) (string, error) {
	queries, err := QueriesFromFile(path)
	if err != nil {
		return "", err
	}
	for _, q := range queries {
		if n, ok := directive.Name(q); ok && n == name {
			return q, nil
		}
	}
	return "", fmt.Errorf("no statement named %q in %s", name, path)
}

// ExecuteFile runs every statement of a script without saving results.
func (e *Executor) ExecuteFile(ctx context.Context, path string) error {
	queries, err := QueriesFromFile(path)
	if err != nil {
		e.logger.Error("Failed to read SQL script", "script", path, "error", err)
		return err
	}
	for i, query := range queries {
		if err := e.ExecuteQuery(ctx, query); err != nil {
			e.logger.Error("Failed to execute statement", "script", path, "statement", i+1, "error", err)
			return err
		}
	}
	return nil
}

// ExecuteFileAndSave runs every statement of a script and saves each
// result set to its own output file: outBase plus a zero-padded
// 1-based statement suffix plus the format extension. Page size and
// row cap resolve per statement, directives taking precedence over the
// SaveOptions defaults; non-positive resolved values skip the
// statement with a warning. Returns the paths written. The whole call
// is guarded by the retry-with-reconnect policy.
func (e *Executor) ExecuteFileAndSave(ctx context.Context, scriptPath, outBase string, ft exporter.FileType, opts SaveOptions) ([]string, error) {
	var written []string
	err := e.retry.Do(ctx, e.conn, e.Reconnect, func() error {
		var err error
		written, err = e.executeFileAndSave(ctx, scriptPath, outBase, ft, opts)
		return err
	})
	return written, err
}

func (e *Executor) executeFileAndSave(ctx context.Context, scriptPath, outBase string, ft exporter.FileType, opts SaveOptions) ([]string, error) {
	if err := e.ensureConnected(ctx); err != nil {
		return nil, err
	}
	statements, err := QueriesFromFile(scriptPath)
	if err != nil {
		e.logger.Error("Failed to read SQL script", "script", scriptPath, "error", err)
		return nil, err
	}
	width := suffixWidth(len(statements))

	var written []string
	for i, stmt := range statements {
		idx := i + 1

		pageSize, pageSet := directive.PaginateSize(stmt)
		if !pageSet && opts.BatchSize != 0 {
			pageSize, pageSet = opts.BatchSize, true
		}
		rowLimit, limitSet := directive.RowLimit(stmt)
		if !limitSet && opts.RowLimit != 0 {
			rowLimit, limitSet = opts.RowLimit, true
		}

		if (pageSet && pageSize <= 0) || (limitSet && rowLimit <= 0) {
			e.logger.Warn("Skipping statement: batch size or row limit is zero or negative",
				"script", scriptPath, "statement", idx,
				"batch_size", pageSize, "row_limit", rowLimit)
			continue
		}

		outPath := exporter.NumberedPath(outBase, idx, width, ft)
		w := exporter.NewWriter(outPath, ft, exporter.Options{
			Append:    opts.Append,
			Delimiter: opts.Delimiter,
			Logger:    e.logger,
		})

		var runErr error
		if pageSet {
			runErr = e.streamStatement(ctx, stmt, pageSize, rowLimit, w)
		} else {
			runErr = e.singleShot(ctx, stmt, rowLimit, limitSet, w)
		}
		closeErr := w.Close()
		if runErr != nil {
			e.logger.Error("Failed to execute and save statement",
				"script", scriptPath, "statement", idx, "error", runErr)
			return written, runErr
		}
		if closeErr != nil {
			e.logger.Error("Failed to finalize output file",
				"script", scriptPath, "statement", idx, "path", w.Path(), "error", closeErr)
			return written, closeErr
		}
		if w.Rows() > 0 {
			written = append(written, w.Path())
		}
	}
	return written, nil
}

// streamStatement drives a paginated statement into the sink, trimming
// the final batch so a row cap is never exceeded. Cap enforcement
// lives here, not in the batch stream, which stays cap-agnostic.
func (e *Executor) streamStatement(ctx context.Context, query string, pageSize, rowLimit int, w *exporter.Writer) error {
	stream, err := e.QueryBatches(ctx, query, pageSize)
	if err != nil {
		return err
	}
	defer stream.Close(ctx)

	total := 0
	for stream.Next(ctx) {
		batch := stream.Batch()
		if rowLimit > 0 {
			if remaining := rowLimit - total; len(batch) > remaining {
				batch = batch[:remaining]
			}
		}
		if err := w.WriteBatch(stream.Columns(), batch); err != nil {
			return err
		}
		total += len(batch)
		if rowLimit > 0 && total >= rowLimit {
			break
		}
	}
	if err := stream.Err(); err != nil {
		return err
	}
	return stream.Close(ctx)
}

// singleShot executes once on a client-side cursor and fetches up to
// the row cap (or everything) in one go.
func (e *Executor) singleShot(ctx context.Context, query string, rowLimit int, limitSet bool, w *exporter.Writer) error {
	err := db.WithTransaction(ctx, e.conn, e.logger, func() error {
		cur, err := e.conn.Cursor(ctx, true)
		if err != nil {
			return err
		}
		defer cur.Close()
		if err := cur.Execute(ctx, query); err != nil {
			return err
		}
		var rows []db.Row
		if limitSet {
			rows, err = cur.FetchMany(ctx, rowLimit)
		} else {
			rows, err = cur.FetchAll(ctx)
		}
		if err != nil {
			return err
		}
		return w.WriteBatch(cur.Columns(), rows)
	})
	return err
}

// ExecuteFolderAndSave runs ExecuteFileAndSave for every regular file
// in dir, deriving each output base from the script's base name. A
// path that is not a directory is logged and returns nil: one bad path
// in a batch run must not abort unrelated work.
func (e *Executor) ExecuteFolderAndSave(ctx context.Context, dir, outDir string, ft exporter.FileType, opts SaveOptions) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		e.logger.Error("The provided path is not a valid directory", "path", dir)
		return nil, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		e.logger.Error("Failed to list directory", "path", dir, "error", err)
		return nil, nil
	}

	var written []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		name := entry.Name()
		stem := strings.TrimSuffix(name, filepath.Ext(name))
		files, err := e.ExecuteFileAndSave(ctx, filepath.Join(dir, name), filepath.Join(outDir, stem), ft, opts)
		written = append(written, files...)
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

// suffixWidth is the zero-pad width for statement suffixes: the digit
// count of the statement total, with a floor of three so small scripts
// still get the familiar _001 style.
func suffixWidth(statements int) int {
	if w := len(strconv.Itoa(statements)); w > 3 {
		return w
	}
	return 3
}
