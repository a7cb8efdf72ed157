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
	"slices"

	"tidyframe/datatable"
)

// MissingName names generated columns for an explicit missing names-from value.
const MissingName = "NA"

// WiderOptions configures PivotWider.
type WiderOptions struct {
	// NamesFrom is the column whose distinct values name the new columns.
	NamesFrom string

	// ValuesFrom are the columns whose cells fill the new columns.
	ValuesFrom []string

	// IDCols restricts the identifier columns. When empty, every column other
	// than NamesFrom and ValuesFrom identifies an observation; otherwise
	// columns in neither list are dropped.
	IDCols []string

	// NamesPrefix is prepended to every names-from value.
	NamesPrefix string

	// NamesSep joins the values-from column name and the names-from value
	// when there is more than one values-from column.
	NamesSep string

	// ValuesFill replaces implicit missing cells, keyed by values-from column.
	// Explicit missing cells in the input are kept.
	ValuesFill map[string]datatable.Value

	// ValuesFn resolves cells that receive more than one row. Without it such
	// collisions fail with a DuplicateKeyError. When set it is applied to
	// every non-empty cell so the column has a single result type.
	ValuesFn Aggregator

	// Workers bounds the goroutines used to build the generated columns.
	Workers int
}

// DefaultWiderOptions returns options with the "_" name separator.
func DefaultWiderOptions() WiderOptions {
	return WiderOptions{NamesSep: "_", Workers: 1}
}

// PivotWider spreads a key-value pair of columns across new columns.
//
// Rows are grouped by the tuple of identifier column values. The result has
// one row per distinct tuple, in order of first occurrence, holding the
// identifier columns in their original order followed by the generated
// columns. Generated columns are grouped by values-from column and, within a
// group, ordered by first occurrence of their names-from value. A tuple with
// no row for some names-from value gets the ValuesFill value, or explicit
// missing, in that column.
func PivotWider(t *datatable.Table, opts WiderOptions) (*datatable.Table, error) {
	if t == nil {
		return nil, datatable.ErrNoDataSource
	}

	namesIdx, err := t.ColumnIndex(opts.NamesFrom)
	if err != nil {
		return nil, err
	}
	if len(opts.ValuesFrom) == 0 {
		return nil, &datatable.ConfigurationError{Option: "values_from", Reason: "at least one column is required"}
	}
	valuesIdx, err := t.Resolve(opts.ValuesFrom)
	if err != nil {
		return nil, err
	}
	if slices.Contains(valuesIdx, namesIdx) {
		return nil, &datatable.ConfigurationError{
			Option: "values_from",
			Reason: fmt.Sprintf("%q is also the names_from column", opts.NamesFrom),
		}
	}
	idIdx, err := widerIDColumns(t, namesIdx, valuesIdx, opts.IDCols)
	if err != nil {
		return nil, err
	}

	keys, groupRows := datatable.GroupRows(t, idIdx)
	names, rowName := distinctNames(t.ColumnAt(namesIdx))

	nn := len(names)
	cells := make([][]int, len(groupRows)*nn)
	for g, rows := range groupRows {
		for _, r := range rows {
			c := g*nn + rowName[r]
			cells[c] = append(cells[c], r)
		}
	}
	if opts.ValuesFn == nil {
		for c, rows := range cells {
			if len(rows) > 1 {
				return nil, &datatable.DuplicateKeyError{
					Key:       keys.Strings(c / nn),
					NamesFrom: names[c%nn],
					Count:     len(rows),
				}
			}
		}
	}

	gen, err := planWiderColumns(t, idIdx, valuesIdx, names, opts)
	if err != nil {
		return nil, err
	}

	out := make([]*datatable.Column, len(gen))
	err = forEach(len(gen), opts.Workers, func(i int) error {
		col, err := buildWiderColumn(t, gen[i], cells, len(groupRows), nn, opts.ValuesFn)
		if err != nil {
			return err
		}
		out[i] = col
		return nil
	})
	if err != nil {
		return nil, err
	}

	first := make([]int, len(groupRows))
	for g, rows := range groupRows {
		first[g] = rows[0]
	}
	cols := make([]*datatable.Column, 0, len(idIdx)+len(out))
	for _, i := range idIdx {
		cols = append(cols, t.ColumnAt(i).Take(first))
	}
	cols = append(cols, out...)
	return datatable.New(cols...)
}

func widerIDColumns(t *datatable.Table, namesIdx int, valuesIdx []int, idCols []string) ([]int, error) {
	if len(idCols) == 0 {
		var out []int
		for c := 0; c < t.ColumnCount(); c++ {
			if c != namesIdx && !slices.Contains(valuesIdx, c) {
				out = append(out, c)
			}
		}
		return out, nil
	}
	idIdx, err := t.Resolve(idCols)
	if err != nil {
		return nil, err
	}
	for i, c := range idIdx {
		if c == namesIdx || slices.Contains(valuesIdx, c) {
			return nil, &datatable.ConfigurationError{
				Option: "id_cols",
				Reason: fmt.Sprintf("%q is also a names or values column", idCols[i]),
			}
		}
	}
	slices.Sort(idIdx)
	return idIdx, nil
}

// distinctNames returns the rendered distinct values of col in first
// occurrence order and, per row, the index of its value.
func distinctNames(col *datatable.Column) ([]string, []int) {
	idx := datatable.NewKeyIndex()
	var names []string
	rowName := make([]int, col.Len())
	tuple := make([]datatable.Value, 1)
	for r := range rowName {
		tuple[0] = col.Value(r)
		id, isNew := idx.Add(tuple)
		if isNew {
			name := tuple[0].Formatted
			if tuple[0].IsNull {
				name = MissingName
			}
			names = append(names, name)
		}
		rowName[r] = id
	}
	return names, rowName
}

// widerColumn describes one generated column.
type widerColumn struct {
	name   string
	source int // values-from column
	slot   int // names-from value
	typ    datatable.DataType
	fill   datatable.Value
}

func planWiderColumns(t *datatable.Table, idIdx, valuesIdx []int, names []string, opts WiderOptions) ([]widerColumn, error) {
	taken := make(map[string]struct{}, len(idIdx))
	for _, i := range idIdx {
		name, _ := t.ColumnName(i)
		taken[name] = struct{}{}
	}
	for name := range opts.ValuesFill {
		if !slices.Contains(opts.ValuesFrom, name) {
			return nil, &datatable.ConfigurationError{Option: "values_fill", Reason: fmt.Sprintf("%q is not a values_from column", name)}
		}
	}

	var gen []widerColumn
	for v, src := range valuesIdx {
		vcol := t.ColumnAt(src)
		typ := vcol.Type()
		if opts.ValuesFn != nil {
			typ = opts.ValuesFn.ResultType(typ)
		}

		fill := datatable.NewNullValue(typ)
		if f, ok := opts.ValuesFill[vcol.Name()]; ok && !f.IsNull {
			cast, err := f.Cast(typ)
			if err != nil {
				return nil, &datatable.ConfigurationError{
					Option: "values_fill",
					Reason: fmt.Sprintf("fill for %q: %v", vcol.Name(), err),
				}
			}
			fill = cast
		}

		for n, value := range names {
			name := opts.NamesPrefix + value
			if len(valuesIdx) > 1 {
				name = opts.ValuesFrom[v] + opts.NamesSep + name
			}
			if _, dup := taken[name]; dup {
				return nil, &datatable.ConfigurationError{
					Option: "names_from",
					Reason: fmt.Sprintf("generated column %q already exists", name),
				}
			}
			taken[name] = struct{}{}
			gen = append(gen, widerColumn{name: name, source: src, slot: n, typ: typ, fill: fill})
		}
	}
	return gen, nil
}

func buildWiderColumn(t *datatable.Table, wc widerColumn, cells [][]int, groups, nn int, fn Aggregator) (*datatable.Column, error) {
	src := t.ColumnAt(wc.source)
	values := make([]datatable.Value, groups)
	var buf []datatable.Value

	for g := range values {
		rows := cells[g*nn+wc.slot]
		switch {
		case len(rows) == 0:
			values[g] = wc.fill
		case fn == nil:
			values[g] = src.Value(rows[0])
		default:
			buf = buf[:0]
			for _, r := range rows {
				buf = append(buf, src.Value(r))
			}
			v, err := fn.Aggregate(buf)
			if err != nil {
				return nil, fmt.Errorf("aggregating %q with %s: %w", wc.name, fn.Name(), err)
			}
			if v.IsNull {
				v = datatable.NewNullValue(wc.typ)
			} else if v.Type != wc.typ {
				if v, err = v.Cast(wc.typ); err != nil {
					return nil, fmt.Errorf("aggregating %q with %s: %w", wc.name, fn.Name(), err)
				}
			}
			values[g] = v
		}
	}
	return datatable.NewColumn(wc.name, wc.typ, values)
}
