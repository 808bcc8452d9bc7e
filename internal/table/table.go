// Package table holds the small column-ordered tables that prunelab writes
// as CSV: selection, filtering, stable sorting, pivoting with a caller-given
// row order, and terminal previews.
package table

import (
	"fmt"
	"sort"
)

// Table is a list of rows over named columns.
type Table struct {
	Columns []string
	Rows    [][]Cell
}

// New creates an empty table with the given columns.
func New(columns ...string) *Table {
	return &Table{Columns: append([]string(nil), columns...)}
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// Empty reports whether the table has no rows.
func (t *Table) Empty() bool { return len(t.Rows) == 0 }

// Index returns the position of column, or -1.
func (t *Table) Index(column string) int {
	for i, c := range t.Columns {
		if c == column {
			return i
		}
	}
	return -1
}

// Append adds a row given as column name to value. Columns absent from the
// map are missing; keys that are not columns are ignored.
func (t *Table) Append(values map[string]Cell) {
	row := make([]Cell, len(t.Columns))
	for i, c := range t.Columns {
		row[i] = values[c]
	}
	t.Rows = append(t.Rows, row)
}

// AppendRow adds a row given positionally.
func (t *Table) AppendRow(cells ...Cell) error {
	if len(cells) != len(t.Columns) {
		return fmt.Errorf("row has %d cells, table has %d columns", len(cells), len(t.Columns))
	}
	t.Rows = append(t.Rows, append([]Cell(nil), cells...))
	return nil
}

// Value returns the cell at row i in column, or Missing for an unknown column.
func (t *Table) Value(i int, column string) Cell {
	j := t.Index(column)
	if j < 0 {
		return Missing()
	}
	return t.Rows[i][j]
}

// Column returns every value of column in row order.
func (t *Table) Column(column string) []Cell {
	j := t.Index(column)
	out := make([]Cell, len(t.Rows))
	if j < 0 {
		return out
	}
	for i, row := range t.Rows {
		out[i] = row[j]
	}
	return out
}

// Select returns a table with the given columns in the given order,
// skipping names the table does not have.
func (t *Table) Select(columns []string) *Table {
	var idx []int
	out := &Table{}
	for _, c := range columns {
		if j := t.Index(c); j >= 0 {
			idx = append(idx, j)
			out.Columns = append(out.Columns, c)
		}
	}
	out.Rows = make([][]Cell, len(t.Rows))
	for i, row := range t.Rows {
		sel := make([]Cell, len(idx))
		for k, j := range idx {
			sel[k] = row[j]
		}
		out.Rows[i] = sel
	}
	return out
}

// DropMissing returns a table without the rows whose column is missing.
// An unknown column leaves the table unchanged.
func (t *Table) DropMissing(column string) *Table {
	j := t.Index(column)
	out := &Table{Columns: t.Columns}
	for _, row := range t.Rows {
		if j >= 0 && row[j].IsMissing() {
			continue
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}

// SortBy stably sorts rows by the given columns in order. Columns the table
// does not have are ignored.
func (t *Table) SortBy(columns ...string) {
	var idx []int
	for _, c := range columns {
		if j := t.Index(c); j >= 0 {
			idx = append(idx, j)
		}
	}
	if len(idx) == 0 {
		return
	}
	sort.SliceStable(t.Rows, func(a, b int) bool {
		for _, j := range idx {
			if c := compare(t.Rows[a][j], t.Rows[b][j]); c != 0 {
				return c < 0
			}
		}
		return false
	})
}

// Head returns the first n rows. The rows are shared with t.
func (t *Table) Head(n int) *Table {
	if n > len(t.Rows) {
		n = len(t.Rows)
	}
	if n < 0 {
		n = 0
	}
	return &Table{Columns: t.Columns, Rows: t.Rows[:n]}
}

// Pivot builds a table whose first column is keyColumn with one row per
// entry of order, followed by one column per series. values maps series to
// row key to value; absent values are missing.
func Pivot(keyColumn string, order, series []string, values map[string]map[string]Cell) *Table {
	out := New(append([]string{keyColumn}, series...)...)
	for _, key := range order {
		row := make([]Cell, 0, len(series)+1)
		row = append(row, Str(key))
		for _, s := range series {
			row = append(row, values[s][key])
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}
