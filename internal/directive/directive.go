// Package directive extracts inline instructions embedded in SQL block
// comments. A statement can carry at most one effective value per kind;
// only the first match of each kind is honored:
//
//	/* PAGINATE SIZE 500 */  -- fetch in pages of 500 rows
//	/* ROW LIMIT 10000 */    -- stop after 10000 rows
//	/* NAME daily_report */  -- tag the statement for lookup
package directive

import (
	"regexp"
	"strconv"
)

var (
	paginateRe = regexp.MustCompile(`(?i)/\*\s*PAGINATE\s+SIZE\s+(-?\d+)\s*\*/`)
	rowLimitRe = regexp.MustCompile(`(?i)/\*\s*ROW\s+LIMIT\s+(-?\d+)\s*\*/`)
	nameRe     = regexp.MustCompile(`(?i)/\*\s*NAME\s+(\w+)\s*\*/`)
)

// PaginateSize returns the page size from the first PAGINATE SIZE
// directive in the statement, if present.
func PaginateSize(query string) (int, bool) {
	return intDirective(paginateRe, query)
}

// RowLimit returns the row cap from the first ROW LIMIT directive in
// the statement, if present.
func RowLimit(query string) (int, bool) {
	return intDirective(rowLimitRe, query)
}

// Name returns the identifier from the first NAME directive in the
// statement, if present.
func Name(query string) (string, bool) {
	m := nameRe.FindStringSubmatch(query)
	if m == nil {
		return "", false
	}
	return m[1], true
}

func intDirective(re *regexp.Regexp, query string) (int, bool) {
	m := re.FindStringSubmatch(query)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}
