package db

import "fmt"

// Row is one result row keyed by column name. Keys are unique even when
// the statement joins tables with identical column names; duplicates
// get a "_1", "_2", ... suffix in select-list order.
type Row map[string]any

// dedupeColumns makes column names unique by suffixing repeats with a
// running counter. The suffix scheme is not collision-proof against a
// real column that is already named e.g. "id_1"; known limitation.
func dedupeColumns(names []string) []string {
	out := make([]string, len(names))
	seen := make(map[string]int, len(names))
	for i, name := range names {
		if n, ok := seen[name]; ok {
			seen[name] = n + 1
			out[i] = fmt.Sprintf("%s_%d", name, n+1)
		} else {
			seen[name] = 0
			out[i] = name
		}
	}
	return out
}
