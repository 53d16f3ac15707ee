package engine

import (
	"fmt"

	"github.com/Favouriteg2/kms-analytics/internal/table"
)

// Result is an ordered sequence of rows with named, typed columns. Results
// are derived values: recomputed from the base table on every query, never
// cached, never persisted.
type Result struct {
	Columns []table.Column
	Rows    [][]table.Value
}

// ColumnIndex returns the position of a named column, or -1.
func (r *Result) ColumnIndex(name string) int {
	for i, c := range r.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Value returns the cell at (row, column name).
func (r *Result) Value(row int, column string) (table.Value, error) {
	idx := r.ColumnIndex(column)
	if idx < 0 {
		return nil, fmt.Errorf("result has no column %q", column)
	}
	if row < 0 || row >= len(r.Rows) {
		return nil, fmt.Errorf("row %d out of range (%d rows)", row, len(r.Rows))
	}
	return r.Rows[row][idx], nil
}

// Distinct returns the distinct rendered values of a column in row order.
// This is the phase-1 half of a two-phase chain: the returned key set
// becomes an In predicate on the follow-up query.
func (r *Result) Distinct(column string) ([]string, error) {
	idx := r.ColumnIndex(column)
	if idx < 0 {
		return nil, fmt.Errorf("result has no column %q", column)
	}
	seen := make(map[string]bool, len(r.Rows))
	var keys []string
	for _, row := range r.Rows {
		v := row[idx]
		if table.IsNull(v) {
			continue
		}
		s := table.Format(v)
		if !seen[s] {
			seen[s] = true
			keys = append(keys, s)
		}
	}
	return keys, nil
}
