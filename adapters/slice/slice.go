// Package sliceadapter builds tables from in-memory Go values: decoded JSON
// records, test fixtures and rows assembled by callers.
package sliceadapter

import (
	"fmt"
	"sort"

	"tidyframe/datatable"
)

// NewFromMaps builds a table from records keyed by column name. Columns are
// taken from columns when given, otherwise from the union of all keys in
// sorted order. A key missing from a record is an explicit missing cell.
//
// Each column gets the common type of its non-nil values. A column whose
// values do not share a type (e.g. numbers and strings) is stored as strings.
func NewFromMaps(records []map[string]interface{}, columns ...string) (*datatable.Table, error) {
	if len(columns) == 0 {
		seen := make(map[string]struct{})
		for _, rec := range records {
			for k := range rec {
				if _, ok := seen[k]; !ok {
					seen[k] = struct{}{}
					columns = append(columns, k)
				}
			}
		}
		sort.Strings(columns)
	}

	rows := make([][]interface{}, len(records))
	for r, rec := range records {
		row := make([]interface{}, len(columns))
		for c, name := range columns {
			row[c] = rec[name]
		}
		rows[r] = row
	}
	return NewFromRows(columns, rows)
}

// NewFromRows builds a table from row-major values. Every row must have one
// value per column; nil is explicit missing.
func NewFromRows(columns []string, rows [][]interface{}) (*datatable.Table, error) {
	values := make([][]datatable.Value, len(columns))
	for c := range values {
		values[c] = make([]datatable.Value, len(rows))
	}
	for r, row := range rows {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("%w: row %d has %d values for %d columns",
				datatable.ErrLengthMismatch, r, len(row), len(columns))
		}
		for c, raw := range row {
			v, err := datatable.ValueOf(raw)
			if err != nil {
				return nil, fmt.Errorf("column %q row %d: %w", columns[c], r, err)
			}
			values[c][r] = v
		}
	}

	cols := make([]*datatable.Column, len(columns))
	for c, name := range columns {
		col, err := unify(name, values[c])
		if err != nil {
			return nil, err
		}
		cols[c] = col
	}
	return datatable.New(cols...)
}

// unify stores values under their common type.
func unify(name string, values []datatable.Value) (*datatable.Column, error) {
	typ, ok := datatable.TypeString, false
	for _, v := range values {
		if v.IsNull {
			continue
		}
		if !ok {
			typ, ok = v.Type, true
			continue
		}
		common, compatible := datatable.CommonType(typ, v.Type)
		if !compatible {
			typ = datatable.TypeString
			break
		}
		typ = common
	}

	out := make([]datatable.Value, len(values))
	for i, v := range values {
		switch {
		case v.IsNull:
			out[i] = datatable.NewNullValue(typ)
		case v.Type == typ:
			out[i] = v
		default:
			cast, err := v.Cast(typ)
			if err != nil {
				return nil, fmt.Errorf("column %q: %w", name, err)
			}
			out[i] = cast
		}
	}
	return datatable.NewColumn(name, typ, out)
}

// ToMaps renders every row as a record keyed by column name. Explicit missing
// cells become nil.
func ToMaps(t *datatable.Table) []map[string]interface{} {
	names := t.ColumnNames()
	out := make([]map[string]interface{}, t.RowCount())
	for r := range out {
		rec := make(map[string]interface{}, len(names))
		for c, name := range names {
			v := t.ColumnAt(c).Value(r)
			if v.IsNull {
				rec[name] = nil
				continue
			}
			rec[name] = v.Raw
		}
		out[r] = rec
	}
	return out
}
