package reshape

import (
	"fmt"
	"slices"
	"strings"

	"tidyframe/datatable"
)

// UniteOptions configures Unite.
type UniteOptions struct {
	// Col names the united column.
	Col string

	// Cols are pasted together in this order. Empty means every column.
	Cols []string

	// Sep is placed between pieces.
	Sep string

	// Remove drops the united columns.
	Remove bool

	// NARm skips explicit missing cells instead of rendering them as "".
	NARm bool
}

// DefaultUniteOptions joins with "_" and removes the source columns.
func DefaultUniteOptions() UniteOptions {
	return UniteOptions{Sep: "_", Remove: true}
}

// Unite pastes several columns into one string column, placed where the
// leftmost united column was. Explicit missing cells render as the empty
// string unless NARm is set, in which case they are left out together with
// their separator.
func Unite(t *datatable.Table, opts UniteOptions) (*datatable.Table, error) {
	if t == nil {
		return nil, datatable.ErrNoDataSource
	}
	if opts.Col == "" {
		return nil, &datatable.ConfigurationError{Option: "col", Reason: "a target column name is required"}
	}

	names := opts.Cols
	if len(names) == 0 {
		names = t.ColumnNames()
	}
	idx, err := t.Resolve(names)
	if err != nil {
		return nil, err
	}
	for c, name := range t.ColumnNames() {
		if name == opts.Col && (!opts.Remove || !slices.Contains(idx, c)) {
			return nil, &datatable.ConfigurationError{Option: "col", Reason: fmt.Sprintf("column %q already exists", name)}
		}
	}

	values := make([]datatable.Value, t.RowCount())
	parts := make([]string, 0, len(idx))
	for r := range values {
		parts = parts[:0]
		for _, c := range idx {
			v := t.ColumnAt(c).Value(r)
			switch {
			case !v.IsNull:
				parts = append(parts, v.Formatted)
			case !opts.NARm:
				parts = append(parts, "")
			}
		}
		values[r] = datatable.StringValue(strings.Join(parts, opts.Sep))
	}
	united, err := datatable.NewColumn(opts.Col, datatable.TypeString, values)
	if err != nil {
		return nil, err
	}

	// with nothing to unite the new column goes last
	at := t.ColumnCount()
	if len(idx) > 0 {
		at = slices.Min(idx)
	}
	cols := make([]*datatable.Column, 0, t.ColumnCount()+1)
	for c := 0; c < t.ColumnCount(); c++ {
		if c == at {
			cols = append(cols, united)
		}
		if opts.Remove && slices.Contains(idx, c) {
			continue
		}
		cols = append(cols, t.ColumnAt(c).Clone())
	}
	if at == t.ColumnCount() {
		cols = append(cols, united)
	}
	return datatable.New(cols...)
}
