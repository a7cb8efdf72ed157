// Copyright 2025 Magnus Pierre
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package datatable

import (
	"fmt"
	"strings"
)

// Table is an ordered collection of equal-length, uniquely named columns.
// Row i of every column describes the same observation.
type Table struct {
	columns  []*Column
	index    map[string]int
	rows     int
	metadata Metadata
}

var _ DataSource = (*Table)(nil)

// New creates a table from columns. Columns must have distinct names and the
// same length. The columns are adopted by the table and must not be reused.
func New(columns ...*Column) (*Table, error) {
	t := &Table{
		columns: make([]*Column, 0, len(columns)),
		index:   make(map[string]int, len(columns)),
	}

	for i, c := range columns {
		if c == nil {
			return nil, fmt.Errorf("%w: column %d is nil", ErrNoDataSource, i)
		}
		if _, dup := t.index[c.name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, c.name)
		}
		if i == 0 {
			t.rows = c.Len()
		} else if c.Len() != t.rows {
			return nil, fmt.Errorf("%w: column %q has %d rows, expected %d",
				ErrLengthMismatch, c.name, c.Len(), t.rows)
		}
		t.index[c.name] = len(t.columns)
		t.columns = append(t.columns, c)
	}

	return t, nil
}

// MustNew is like New but panics on error. Intended for tests and fixtures.
func MustNew(columns ...*Column) *Table {
	t, err := New(columns...)
	if err != nil {
		panic(err)
	}
	return t
}

// WithMetadata returns a shallow copy of t carrying md.
func (t *Table) WithMetadata(md Metadata) *Table {
	cp := *t
	cp.metadata = make(Metadata, len(md))
	for k, v := range md {
		cp.metadata[k] = v
	}
	return &cp
}

// RowCount returns the number of rows.
func (t *Table) RowCount() int { return t.rows }

// ColumnCount returns the number of columns.
func (t *Table) ColumnCount() int { return len(t.columns) }

// ColumnName returns the name of the column at index col.
func (t *Table) ColumnName(col int) (string, error) {
	if col < 0 || col >= len(t.columns) {
		return "", ErrInvalidColumn
	}
	return t.columns[col].name, nil
}

// ColumnType returns the declared type of the column at index col.
func (t *Table) ColumnType(col int) (DataType, error) {
	if col < 0 || col >= len(t.columns) {
		return TypeString, ErrInvalidColumn
	}
	return t.columns[col].typ, nil
}

// Cell returns the value at (row, col).
func (t *Table) Cell(row, col int) (Value, error) {
	if col < 0 || col >= len(t.columns) {
		return Value{}, ErrInvalidColumn
	}
	if row < 0 || row >= t.rows {
		return Value{}, ErrInvalidRow
	}
	return t.columns[col].values[row], nil
}

// Row returns all values of a row in column order.
func (t *Table) Row(row int) ([]Value, error) {
	if row < 0 || row >= t.rows {
		return nil, ErrInvalidRow
	}
	out := make([]Value, len(t.columns))
	for i, c := range t.columns {
		out[i] = c.values[row]
	}
	return out, nil
}

// Metadata returns a copy of the table metadata.
func (t *Table) Metadata() Metadata {
	out := make(Metadata, len(t.metadata))
	for k, v := range t.metadata {
		out[k] = v
	}
	return out
}

// ColumnNames returns the column names in order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.name
	}
	return names
}

// HasColumn reports whether a column with the given name exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// ColumnIndex returns the position of a column, or an UnknownColumnError.
func (t *Table) ColumnIndex(name string) (int, error) {
	i, ok := t.index[name]
	if !ok {
		return -1, &UnknownColumnError{Name: name}
	}
	return i, nil
}

// Column returns the column with the given name. The returned column is
// shared with the table and must be treated as read-only.
func (t *Table) Column(name string) (*Column, error) {
	i, err := t.ColumnIndex(name)
	if err != nil {
		return nil, err
	}
	return t.columns[i], nil
}

// ColumnAt returns the column at position i. It panics if i is out of range.
func (t *Table) ColumnAt(i int) *Column { return t.columns[i] }

// Resolve maps names to column positions, failing on the first unknown name
// or on a name listed twice.
func (t *Table) Resolve(names []string) ([]int, error) {
	out := make([]int, len(names))
	seen := make(map[string]struct{}, len(names))
	for i, n := range names {
		idx, err := t.ColumnIndex(n)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[n]; dup {
			return nil, fmt.Errorf("%w: %q listed twice", ErrDuplicateColumn, n)
		}
		seen[n] = struct{}{}
		out[i] = idx
	}
	return out, nil
}

// Select returns a new table with only the named columns, in the given order.
func (t *Table) Select(names ...string) (*Table, error) {
	idx, err := t.Resolve(names)
	if err != nil {
		return nil, err
	}
	cols := make([]*Column, len(idx))
	for i, j := range idx {
		cols[i] = t.columns[j].Renamed(t.columns[j].name)
	}
	out, err := New(cols...)
	if err != nil {
		return nil, err
	}
	out.rows = t.rows
	return out, nil
}

// Drop returns a new table without the named columns.
func (t *Table) Drop(names ...string) (*Table, error) {
	if _, err := t.Resolve(names); err != nil {
		return nil, err
	}
	drop := make(map[string]struct{}, len(names))
	for _, n := range names {
		drop[n] = struct{}{}
	}
	keep := make([]string, 0, len(t.columns))
	for _, c := range t.columns {
		if _, ok := drop[c.name]; !ok {
			keep = append(keep, c.name)
		}
	}
	return t.Select(keep...)
}

// TakeRows returns a new table with the given rows, in order. A row index of
// -1 produces a row of explicit missing cells.
func (t *Table) TakeRows(rows []int) *Table {
	cols := make([]*Column, len(t.columns))
	for i, c := range t.columns {
		cols[i] = c.Take(rows)
	}
	out := &Table{columns: cols, index: make(map[string]int, len(cols)), rows: len(rows)}
	for i, c := range cols {
		out.index[c.name] = i
	}
	return out
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	rows := make([]int, t.rows)
	for i := range rows {
		rows[i] = i
	}
	out := t.TakeRows(rows)
	out.metadata = t.Metadata()
	return out
}

// Equal reports whether two tables have the same columns, in the same order,
// with the same values.
func (t *Table) Equal(other *Table) bool {
	if t.rows != other.rows || len(t.columns) != len(other.columns) {
		return false
	}
	for i := range t.columns {
		if !t.columns[i].Equal(other.columns[i]) {
			return false
		}
	}
	return true
}

// String renders a compact, tab separated dump of the table, mainly for
// debugging and test failure messages.
func (t *Table) String() string {
	var b strings.Builder
	b.WriteString(strings.Join(t.ColumnNames(), "\t"))
	for r := 0; r < t.rows; r++ {
		b.WriteByte('\n')
		for i, c := range t.columns {
			if i > 0 {
				b.WriteByte('\t')
			}
			b.WriteString(c.values[r].String())
		}
	}
	return b.String()
}
