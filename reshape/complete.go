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

package reshape

import (
	"fmt"

	"tidyframe/datatable"
)

// CompleteOptions configures Expand and Complete.
//
// The key space is the cartesian product of one factor per entry of Cols
// (the distinct values of that column) followed by one factor per entry of
// Nesting (the distinct combinations of those columns that occur together).
// Distinct values are taken in first-observed order and include explicit
// missing. The first factor varies slowest.
type CompleteOptions struct {
	Cols    []string
	Nesting [][]string

	// GroupBy computes the key space separately within each group of these
	// columns, from the group's own rows.
	GroupBy []string

	// Fill gives the value of a column in added rows instead of explicit
	// missing. It is cast to the column type.
	Fill map[string]datatable.Value

	// Explicit also applies Fill to explicit missing cells of existing rows.
	Explicit bool
}

// keySpace is the completed key space of a table: every tuple holds the
// values of cols in order.
type keySpace struct {
	cols   []int
	tuples [][]datatable.Value
}

func buildKeySpace(t *datatable.Table, opts CompleteOptions) (*keySpace, error) {
	groupIdx, err := t.Resolve(opts.GroupBy)
	if err != nil {
		return nil, err
	}
	var factors [][]int
	for _, name := range opts.Cols {
		i, err := t.ColumnIndex(name)
		if err != nil {
			return nil, err
		}
		factors = append(factors, []int{i})
	}
	for _, nest := range opts.Nesting {
		if len(nest) == 0 {
			return nil, &datatable.ConfigurationError{Option: "nesting", Reason: "empty nesting"}
		}
		idx, err := t.Resolve(nest)
		if err != nil {
			return nil, err
		}
		factors = append(factors, idx)
	}
	if len(factors) == 0 {
		return nil, &datatable.ConfigurationError{Option: "cols", Reason: "at least one column is required"}
	}

	ks := &keySpace{cols: append([]int(nil), groupIdx...)}
	for _, f := range factors {
		ks.cols = append(ks.cols, f...)
	}
	seen := make(map[int]bool, len(ks.cols))
	for _, c := range ks.cols {
		if seen[c] {
			name, _ := t.ColumnName(c)
			return nil, &datatable.ConfigurationError{Option: "cols", Reason: fmt.Sprintf("column %q is used twice", name)}
		}
		seen[c] = true
	}

	groups, groupRows := datatable.GroupRows(t, groupIdx)
	for g, rows := range groupRows {
		prefix := groups.Tuple(g)
		for _, tuple := range product(t, rows, factors) {
			ks.tuples = append(ks.tuples, append(append([]datatable.Value(nil), prefix...), tuple...))
		}
	}
	return ks, nil
}

// product returns the cartesian product of the distinct combinations each
// factor takes over rows.
func product(t *datatable.Table, rows []int, factors [][]int) [][]datatable.Value {
	out := [][]datatable.Value{nil}
	for _, cols := range factors {
		idx := datatable.NewKeyIndex()
		tuple := make([]datatable.Value, len(cols))
		for _, r := range rows {
			for i, c := range cols {
				tuple[i] = t.ColumnAt(c).Value(r)
			}
			idx.Add(tuple)
		}

		next := make([][]datatable.Value, 0, len(out)*idx.Len())
		for _, prefix := range out {
			for id := 0; id < idx.Len(); id++ {
				combined := make([]datatable.Value, 0, len(prefix)+len(cols))
				combined = append(combined, prefix...)
				next = append(next, append(combined, idx.Tuple(id)...))
			}
		}
		out = next
	}
	return out
}

// Expand returns only the completed key space: one column per group, Cols
// and Nesting column, in that order, and one row per key tuple.
func Expand(t *datatable.Table, opts CompleteOptions) (*datatable.Table, error) {
	if t == nil {
		return nil, datatable.ErrNoDataSource
	}
	ks, err := buildKeySpace(t, opts)
	if err != nil {
		return nil, err
	}
	cols := make([]*datatable.Column, len(ks.cols))
	for i, c := range ks.cols {
		src := t.ColumnAt(c)
		values := make([]datatable.Value, len(ks.tuples))
		for r, tuple := range ks.tuples {
			values[r] = tuple[i]
		}
		col, err := datatable.NewColumn(src.Name(), src.Type(), values)
		if err != nil {
			return nil, err
		}
		cols[i] = col
	}
	return datatable.New(cols...)
}

// Complete turns implicit missing combinations into explicit rows. The
// original rows are kept in order and a row is appended, in key space order,
// for every key tuple that no existing row carries. Added rows hold the key
// values and, in every other column, the Fill value or explicit missing.
func Complete(t *datatable.Table, opts CompleteOptions) (*datatable.Table, error) {
	if t == nil {
		return nil, datatable.ErrNoDataSource
	}
	ks, err := buildKeySpace(t, opts)
	if err != nil {
		return nil, err
	}
	fill, err := castFill(t, opts.Fill)
	if err != nil {
		return nil, err
	}

	existing, _ := datatable.GroupRows(t, ks.cols)
	var added [][]datatable.Value
	for _, tuple := range ks.tuples {
		if _, ok := existing.Lookup(tuple); !ok {
			added = append(added, tuple)
		}
	}

	keyPos := make(map[int]int, len(ks.cols))
	for i, c := range ks.cols {
		keyPos[c] = i
	}

	n := t.RowCount()
	cols := make([]*datatable.Column, t.ColumnCount())
	for c := range cols {
		src := t.ColumnAt(c)
		values := make([]datatable.Value, n, n+len(added))
		f, hasFill := fill[src.Name()]
		for r := 0; r < n; r++ {
			v := src.Value(r)
			if v.IsNull && hasFill && opts.Explicit {
				v = f
			}
			values[r] = v
		}
		for _, tuple := range added {
			switch k, isKey := keyPos[c]; {
			case isKey:
				values = append(values, tuple[k])
			case hasFill:
				values = append(values, f)
			default:
				values = append(values, datatable.NewNullValue(src.Type()))
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

// castFill resolves fill values against the table's columns.
func castFill(t *datatable.Table, fill map[string]datatable.Value) (map[string]datatable.Value, error) {
	out := make(map[string]datatable.Value, len(fill))
	for name, v := range fill {
		col, err := t.Column(name)
		if err != nil {
			return nil, err
		}
		cast, err := v.Cast(col.Type())
		if err != nil {
			return nil, &datatable.ConfigurationError{Option: "fill", Reason: fmt.Sprintf("fill for %q: %v", name, err)}
		}
		out[name] = cast
	}
	return out, nil
}
