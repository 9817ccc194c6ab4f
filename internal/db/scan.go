package db

import (
	"database/sql"
	"strings"
	"time"
)

// resultSet adapts *sql.Rows to the fetchone/fetchmany/fetchall model.
// Column names are deduplicated once, when the first fetch needs them,
// and every row is normalized into a Row keyed by those names.
type resultSet struct {
	rows     *sql.Rows
	cols     []string
	scanVals []any
	scanArgs []any
	done     bool
}

func newResultSet(rows *sql.Rows) (*resultSet, error) {
	cols, err := rows.Columns()
	if err != nil {
		rows.Close()
		return nil, err
	}
	rs := &resultSet{
		rows:     rows,
		cols:     dedupeColumns(cols),
		scanVals: make([]any, len(cols)),
		scanArgs: make([]any, len(cols)),
	}
	for i := range rs.scanVals {
		rs.scanArgs[i] = &rs.scanVals[i]
	}
	return rs, nil
}

func (rs *resultSet) columns() []string {
	return rs.cols
}

// fetchOne returns the next row, or nil on exhaustion.
func (rs *resultSet) fetchOne() (Row, error) {
	if rs.done {
		return nil, nil
	}
	if !rs.rows.Next() {
		rs.done = true
		if err := rs.rows.Err(); err != nil {
			return nil, err
		}
		return nil, nil
	}
	if err := rs.rows.Scan(rs.scanArgs...); err != nil {
		return nil, err
	}
	row := make(Row, len(rs.cols))
	for i, name := range rs.cols {
		row[name] = normalizeValue(rs.scanVals[i])
	}
	return row, nil
}

// fetchMany returns up to n rows; an empty slice means exhaustion.
func (rs *resultSet) fetchMany(n int) ([]Row, error) {
	out := make([]Row, 0, n)
	for len(out) < n {
		row, err := rs.fetchOne()
		if err != nil {
			return out, err
		}
		if row == nil {
			break
		}
		out = append(out, row)
	}
	return out, nil
}

func (rs *resultSet) fetchAll() ([]Row, error) {
	var out []Row
	for {
		row, err := rs.fetchOne()
		if err != nil {
			return out, err
		}
		if row == nil {
			return out, nil
		}
		out = append(out, row)
	}
}

func (rs *resultSet) close() error {
	if rs == nil || rs.rows == nil {
		return nil
	}
	return rs.rows.Close()
}

// normalizeValue converts driver-specific scan results into plain Go
// values. MySQL and Oracle drivers hand back []byte for text and
// numeric columns; exporters and the struct mapper want strings.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case []byte:
		return string(val)
	case time.Time:
		return val
	default:
		return v
	}
}

// returnsRows sniffs the leading keyword of a statement to decide
// between QueryContext and ExecContext. Leading block comments (the
// directive syntax) and line comments are skipped first.
func returnsRows(query string) bool {
	s := strings.TrimSpace(query)
	for {
		switch {
		case strings.HasPrefix(s, "/*"):
			end := strings.Index(s, "*/")
			if end < 0 {
				return false
			}
			s = strings.TrimSpace(s[end+2:])
		case strings.HasPrefix(s, "--"):
			nl := strings.IndexByte(s, '\n')
			if nl < 0 {
				return false
			}
			s = strings.TrimSpace(s[nl+1:])
		default:
			word := s
			if i := strings.IndexFunc(s, func(r rune) bool {
				return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '('
			}); i >= 0 {
				word = s[:i]
			}
			switch strings.ToUpper(word) {
			case "SELECT", "WITH", "VALUES", "SHOW", "EXPLAIN", "DESCRIBE", "DESC", "FETCH", "TABLE":
				return true
			}
			return false
		}
	}
}
