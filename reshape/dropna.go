package reshape

import (
	"fmt"

	"tidyframe/datatable"
	"tidyframe/internal/filter"
)

// FilterRows keeps the rows f accepts, in order.
func FilterRows(t *datatable.Table, f datatable.Filter) (*datatable.Table, error) {
	if t == nil {
		return nil, datatable.ErrNoDataSource
	}
	if f == nil {
		return t.Clone(), nil
	}
	names := t.ColumnNames()
	keep := make([]int, 0, t.RowCount())
	for r := 0; r < t.RowCount(); r++ {
		row, err := t.Row(r)
		if err != nil {
			return nil, err
		}
		ok, err := f.Evaluate(row, names)
		if err != nil {
			return nil, fmt.Errorf("filter %s: %w", f.Description(), err)
		}
		if ok {
			keep = append(keep, r)
		}
	}
	return t.TakeRows(keep), nil
}

// DropNA removes rows with an explicit missing cell in any of cols, or in
// any column when cols is empty.
func DropNA(t *datatable.Table, cols ...string) (*datatable.Table, error) {
	if t == nil {
		return nil, datatable.ErrNoDataSource
	}
	if len(cols) == 0 {
		cols = t.ColumnNames()
	}
	if _, err := t.Resolve(cols); err != nil {
		return nil, err
	}
	return FilterRows(t, filter.NotMissing(cols...))
}

// ReplaceNA replaces explicit missing cells column by column. Each
// replacement is cast to its column's type.
func ReplaceNA(t *datatable.Table, replace map[string]datatable.Value) (*datatable.Table, error) {
	if t == nil {
		return nil, datatable.ErrNoDataSource
	}
	fill, err := castFill(t, replace)
	if err != nil {
		return nil, err
	}
	cols := make([]*datatable.Column, t.ColumnCount())
	for c := range cols {
		src := t.ColumnAt(c)
		v, ok := fill[src.Name()]
		if !ok || v.IsNull || src.NullCount() == 0 {
			cols[c] = src.Clone()
			continue
		}
		values := src.Values()
		for i := range values {
			if values[i].IsNull {
				values[i] = v
			}
		}
		col, err := datatable.NewColumn(src.Name(), src.Type(), values)
		if err != nil {
			return nil, err
		}
		cols[c] = col
	}
	return datatable.New(cols...)
}
