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
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"tidyframe/datatable"
	"tidyframe/pattern"
)

// ValueMarker in LongerOptions.NamesTo marks the name piece that selects the
// output value column instead of becoming a key variable.
const ValueMarker = ".value"

// LongerOptions configures PivotLonger.
type LongerOptions struct {
	// Cols are the columns to pivot into rows. Their order defines the order
	// of output rows within each input row.
	Cols []string

	// NamesTo are the key variables that receive the decomposed column names.
	// One entry may be ValueMarker: that piece then names the value column,
	// so several families of columns are pivoted side by side.
	NamesTo []string

	// NamesPrefix is removed from the start of each column name before
	// decomposition.
	NamesPrefix string

	// NamesSep splits column names when NamesTo has several entries.
	NamesSep pattern.Separator

	// NamesPattern extracts one capture group per NamesTo entry. It cannot be
	// combined with NamesSep.
	NamesPattern *regexp.Regexp

	// NamesExtra and NamesFill resolve names that split into too many or too
	// few pieces. Both fail by default.
	NamesExtra pattern.ExtraPolicy
	NamesFill  pattern.FillPolicy

	// NamesTypes converts key variables strictly. A value that does not
	// convert fails the whole operation with a TypeCoercionError.
	NamesTypes map[string]datatable.DataType

	// NamesLevels restricts key variables to an ordered set of values. A
	// value outside the set fails with a TypeCoercionError.
	NamesLevels map[string][]string

	// ValuesTo names the value column when NamesTo has no ValueMarker.
	ValuesTo string

	// ValuesTypes converts value columns strictly, keyed by value column name.
	ValuesTypes map[string]datatable.DataType

	// ValuesDropNA drops output rows whose value cells are all explicit missing.
	ValuesDropNA bool

	// Workers bounds the goroutines used for row expansion.
	Workers int
}

// DefaultLongerOptions returns options that pivot into "name" and "value".
func DefaultLongerOptions() LongerOptions {
	return LongerOptions{
		NamesTo:  []string{"name"},
		ValuesTo: "value",
		Workers:  1,
	}
}

// longerPlan is the per-column analysis of a pivot, independent of rows.
type longerPlan struct {
	idCols   []int
	keyNames []string
	keyTypes []datatable.DataType
	keyVals  [][]datatable.Value // [key][group]
	famNames []string
	famTypes []datatable.DataType
	groups   int
	cell     []int                     // [group*families+family] -> source column, -1 if none
	cast     map[int][]datatable.Value // source column -> values converted to the family type
}

// PivotLonger turns the columns in opts.Cols into rows.
//
// Each input row produces one output row per distinct group of pivoted
// columns, where a group is the set of columns sharing the same key pieces.
// The output holds the identifier columns (every column not pivoted, in their
// original order and unchanged), then the key variables, then one value
// column per value family. Without ValuesDropNA the output has
// RowCount() * groups rows.
//
// Pivoting zero columns returns a copy of the input.
func PivotLonger(t *datatable.Table, opts LongerOptions) (*datatable.Table, error) {
	if t == nil {
		return nil, datatable.ErrNoDataSource
	}

	pivotIdx, err := t.Resolve(opts.Cols)
	if err != nil {
		return nil, err
	}
	if len(pivotIdx) == 0 {
		return t.Clone(), nil
	}

	plan, err := planLonger(t, pivotIdx, opts)
	if err != nil {
		return nil, err
	}

	rows, grp, vals, err := expandLonger(t, plan, opts)
	if err != nil {
		return nil, err
	}

	cols := make([]*datatable.Column, 0, len(plan.idCols)+len(plan.keyNames)+len(plan.famNames))
	for _, i := range plan.idCols {
		cols = append(cols, t.ColumnAt(i).Take(rows))
	}
	for k, name := range plan.keyNames {
		out := make([]datatable.Value, len(grp))
		for i, g := range grp {
			out[i] = plan.keyVals[k][g]
		}
		c, err := datatable.NewColumn(name, plan.keyTypes[k], out)
		if err != nil {
			return nil, err
		}
		cols = append(cols, c)
	}
	for f, name := range plan.famNames {
		c, err := datatable.NewColumn(name, plan.famTypes[f], vals[f])
		if err != nil {
			return nil, err
		}
		cols = append(cols, c)
	}

	return datatable.New(cols...)
}

func planLonger(t *datatable.Table, pivotIdx []int, opts LongerOptions) (*longerPlan, error) {
	if len(opts.NamesTo) == 0 {
		return nil, &datatable.ConfigurationError{Option: "names_to", Reason: "at least one name is required"}
	}
	valuePos := -1
	var keyPos []int
	for i, n := range opts.NamesTo {
		if n != ValueMarker {
			keyPos = append(keyPos, i)
			continue
		}
		if valuePos >= 0 {
			return nil, &datatable.ConfigurationError{Option: "names_to", Reason: ValueMarker + " may appear only once"}
		}
		valuePos = i
	}
	if valuePos < 0 && opts.ValuesTo == "" {
		return nil, &datatable.ConfigurationError{Option: "values_to", Reason: "a value column name is required"}
	}

	names := make([]string, len(pivotIdx))
	for i, c := range pivotIdx {
		name, _ := t.ColumnName(c)
		names[i] = strings.TrimPrefix(name, opts.NamesPrefix)
	}
	results, err := pattern.Decompose(names, pattern.Spec{
		Names:   opts.NamesTo,
		Sep:     opts.NamesSep,
		Pattern: opts.NamesPattern,
		Extra:   opts.NamesExtra,
		Fill:    opts.NamesFill,
	})
	if err != nil {
		return nil, err
	}
	pieces := make([][]datatable.Value, len(results))
	var errs []error
	for i, r := range results {
		if r.OK() {
			pieces[i] = r.Pieces
			continue
		}
		// report the source column, not the prefix-stripped name
		var arity *datatable.PatternArityError
		if errors.As(r.Err, &arity) {
			named := *arity
			named.Name, _ = t.ColumnName(pivotIdx[i])
			r.Err = &named
		}
		errs = append(errs, r.Err)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	plan := &longerPlan{cast: make(map[int][]datatable.Value)}
	for _, i := range keyPos {
		plan.keyNames = append(plan.keyNames, opts.NamesTo[i])
	}

	groups := datatable.NewKeyIndex()
	famIndex := make(map[string]int)
	type slot struct{ group, family int }
	slots := make(map[slot]int)
	tuple := make([]datatable.Value, len(keyPos))

	for j, src := range pivotIdx {
		for k, p := range keyPos {
			tuple[k] = pieces[j][p]
		}
		g, _ := groups.Add(tuple)

		fam := opts.ValuesTo
		if valuePos >= 0 {
			piece := pieces[j][valuePos]
			if piece.IsNull || piece.Formatted == "" {
				return nil, &datatable.ConfigurationError{
					Option: "names_to",
					Reason: fmt.Sprintf("column %q has no %s piece", names[j], ValueMarker),
				}
			}
			fam = piece.Formatted
		}
		f, ok := famIndex[fam]
		if !ok {
			f = len(plan.famNames)
			famIndex[fam] = f
			plan.famNames = append(plan.famNames, fam)
		}

		if prev, dup := slots[slot{g, f}]; dup {
			prevName, _ := t.ColumnName(prev)
			curName, _ := t.ColumnName(src)
			return nil, &datatable.ConfigurationError{
				Option: "names_to",
				Reason: fmt.Sprintf("columns %q and %q decompose to the same names", prevName, curName),
			}
		}
		slots[slot{g, f}] = src
	}

	plan.groups = groups.Len()
	plan.cell = make([]int, plan.groups*len(plan.famNames))
	for i := range plan.cell {
		plan.cell[i] = -1
	}
	for s, src := range slots {
		plan.cell[s.group*len(plan.famNames)+s.family] = src
	}

	for c := 0; c < t.ColumnCount(); c++ {
		if !slices.Contains(pivotIdx, c) {
			plan.idCols = append(plan.idCols, c)
		}
	}
	if err := checkLongerNames(t, plan, opts); err != nil {
		return nil, err
	}

	if err := planKeyColumns(plan, groups, opts); err != nil {
		return nil, err
	}
	if err := planValueColumns(t, plan, opts); err != nil {
		return nil, err
	}
	return plan, nil
}

func checkLongerNames(t *datatable.Table, plan *longerPlan, opts LongerOptions) error {
	taken := make(map[string]struct{})
	for _, i := range plan.idCols {
		name, _ := t.ColumnName(i)
		taken[name] = struct{}{}
	}
	for _, name := range append(slices.Clone(plan.keyNames), plan.famNames...) {
		if _, dup := taken[name]; dup {
			return &datatable.ConfigurationError{
				Option: "names_to",
				Reason: fmt.Sprintf("output column %q already exists", name),
			}
		}
		taken[name] = struct{}{}
	}
	for name := range opts.NamesTypes {
		if !slices.Contains(plan.keyNames, name) {
			return &datatable.ConfigurationError{Option: "names_types", Reason: fmt.Sprintf("%q is not in names_to", name)}
		}
	}
	for name := range opts.NamesLevels {
		if !slices.Contains(plan.keyNames, name) {
			return &datatable.ConfigurationError{Option: "names_levels", Reason: fmt.Sprintf("%q is not in names_to", name)}
		}
	}
	for name := range opts.ValuesTypes {
		if !slices.Contains(plan.famNames, name) {
			return &datatable.ConfigurationError{Option: "values_types", Reason: fmt.Sprintf("%q is not a value column", name)}
		}
	}
	return nil
}

// planKeyColumns materializes one value per group for every key variable and
// applies the strict level and type checks.
func planKeyColumns(plan *longerPlan, groups *datatable.KeyIndex, opts LongerOptions) error {
	plan.keyVals = make([][]datatable.Value, len(plan.keyNames))
	plan.keyTypes = make([]datatable.DataType, len(plan.keyNames))

	for k, name := range plan.keyNames {
		vals := make([]datatable.Value, plan.groups)
		for g := range vals {
			vals[g] = groups.Tuple(g)[k]
		}

		if levels, ok := opts.NamesLevels[name]; ok {
			for _, v := range vals {
				if !v.IsNull && !slices.Contains(levels, v.Formatted) {
					return &datatable.TypeCoercionError{Column: name, Raw: v.Formatted, Target: datatable.TypeString, Levels: levels}
				}
			}
		}

		typ := datatable.TypeString
		if target, ok := opts.NamesTypes[name]; ok {
			converted, err := datatable.CoerceAll(name, vals, target)
			if err != nil {
				return err
			}
			vals, typ = converted, target
		}
		plan.keyVals[k] = vals
		plan.keyTypes[k] = typ
	}
	return nil
}

// planValueColumns decides the type of every value family and converts the
// source columns that do not already have it.
func planValueColumns(t *datatable.Table, plan *longerPlan, opts LongerOptions) error {
	nf := len(plan.famNames)
	plan.famTypes = make([]datatable.DataType, nf)

	for f, fam := range plan.famNames {
		var srcs []int
		for g := 0; g < plan.groups; g++ {
			if src := plan.cell[g*nf+f]; src >= 0 {
				srcs = append(srcs, src)
			}
		}

		target, strict := opts.ValuesTypes[fam]
		if !strict {
			target = t.ColumnAt(srcs[0]).Type()
			for _, src := range srcs[1:] {
				c := t.ColumnAt(src)
				common, ok := datatable.CommonType(target, c.Type())
				if !ok {
					return fmt.Errorf("%w: value column %q cannot combine %s column %q with %s",
						datatable.ErrTypeMismatch, fam, c.Type(), c.Name(), target)
				}
				target = common
			}
		}
		plan.famTypes[f] = target

		for _, src := range srcs {
			c := t.ColumnAt(src)
			if c.Type() == target {
				continue
			}
			converted, err := datatable.CoerceAll(c.Name(), c.Values(), target)
			if err != nil {
				return err
			}
			plan.cast[src] = converted
		}
	}
	return nil
}

// expandLonger emits the output rows. It returns, per output row, the source
// row and the group, and per family the value cells.
func expandLonger(t *datatable.Table, plan *longerPlan, opts LongerOptions) ([]int, []int, [][]datatable.Value, error) {
	nf := len(plan.famNames)

	cell := func(src, r int) datatable.Value {
		if vals, ok := plan.cast[src]; ok {
			return vals[r]
		}
		return t.ColumnAt(src).Value(r)
	}

	type chunk struct {
		rows, grp []int
		vals      [][]datatable.Value
	}
	spans := partition(t.RowCount(), opts.Workers)
	chunks := make([]chunk, len(spans))

	err := runSpans(spans, func(i int, s span) error {
		size := (s.hi - s.lo) * plan.groups
		ch := chunk{
			rows: make([]int, 0, size),
			grp:  make([]int, 0, size),
			vals: make([][]datatable.Value, nf),
		}
		for f := range ch.vals {
			ch.vals[f] = make([]datatable.Value, 0, size)
		}

		row := make([]datatable.Value, nf)
		for r := s.lo; r < s.hi; r++ {
			for g := 0; g < plan.groups; g++ {
				allNull := true
				for f := 0; f < nf; f++ {
					src := plan.cell[g*nf+f]
					if src < 0 {
						row[f] = datatable.NewNullValue(plan.famTypes[f])
					} else {
						row[f] = cell(src, r)
					}
					allNull = allNull && row[f].IsNull
				}
				if opts.ValuesDropNA && allNull {
					continue
				}
				ch.rows = append(ch.rows, r)
				ch.grp = append(ch.grp, g)
				for f := 0; f < nf; f++ {
					ch.vals[f] = append(ch.vals[f], row[f])
				}
			}
		}
		chunks[i] = ch
		return nil
	})
	if err != nil {
		return nil, nil, nil, err
	}

	if len(chunks) == 1 {
		return chunks[0].rows, chunks[0].grp, chunks[0].vals, nil
	}

	var rows, grp []int
	vals := make([][]datatable.Value, nf)
	for _, ch := range chunks {
		rows = append(rows, ch.rows...)
		grp = append(grp, ch.grp...)
		for f := range vals {
			vals[f] = append(vals[f], ch.vals[f]...)
		}
	}
	return rows, grp, vals, nil
}
