package reshape

import (
	"fmt"
	"slices"

	"tidyframe/datatable"
	"tidyframe/pattern"
)

// SeparateOptions configures Separate.
type SeparateOptions struct {
	// Col is the column to split.
	Col string

	// Into names the output columns, one per piece. An empty name discards
	// its piece.
	Into []string

	// Sep is a literal, a regular expression or a list of cut positions.
	Sep pattern.Separator

	// Extra and Fill resolve values that split into too many or too few pieces.
	Extra pattern.ExtraPolicy
	Fill  pattern.FillPolicy

	// Convert narrows each output column on its own to int, then float, and
	// otherwise leaves it as string. It never fails.
	Convert bool

	// IntoTypes converts output columns strictly. Any value that does not
	// convert fails the operation. Columns listed here are not affected by
	// Convert.
	IntoTypes map[string]datatable.DataType

	// Remove drops the source column.
	Remove bool

	// Workers bounds the goroutines used for splitting.
	Workers int
}

// DefaultSeparateOptions splits on runs of non-alphanumeric characters and
// removes the source column.
func DefaultSeparateOptions() SeparateOptions {
	return SeparateOptions{
		Sep:     pattern.MustRegex(pattern.DefaultSeparator),
		Remove:  true,
		Workers: 1,
	}
}

// Separate splits one column into several. The output columns take the place
// of the source column, or follow it when Remove is false. An explicit
// missing source cell yields explicit missing pieces. Non-string source
// columns are split on their rendered values.
func Separate(t *datatable.Table, opts SeparateOptions) (*datatable.Table, error) {
	if t == nil {
		return nil, datatable.ErrNoDataSource
	}
	srcIdx, err := t.ColumnIndex(opts.Col)
	if err != nil {
		return nil, err
	}
	splitter, err := pattern.NewSplitter(pattern.Spec{
		Names: opts.Into,
		Sep:   opts.Sep,
		Extra: opts.Extra,
		Fill:  opts.Fill,
	})
	if err != nil {
		return nil, err
	}
	if err := checkSeparateNames(t, srcIdx, opts); err != nil {
		return nil, err
	}

	src := t.ColumnAt(srcIdx)
	n := len(opts.Into)
	pieces := make([][]datatable.Value, n)
	for i := range pieces {
		pieces[i] = make([]datatable.Value, t.RowCount())
	}

	err = runSpans(partition(t.RowCount(), opts.Workers), func(_ int, s span) error {
		for r := s.lo; r < s.hi; r++ {
			v := src.Value(r)
			if v.IsNull {
				for i := range pieces {
					pieces[i][r] = datatable.NewNullValue(datatable.TypeString)
				}
				continue
			}
			parts, err := splitter.Split(v.Formatted)
			if err != nil {
				return fmt.Errorf("separate %q row %d: %w", opts.Col, r, err)
			}
			for i := range pieces {
				pieces[i][r] = parts[i]
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var created []*datatable.Column
	for i, name := range opts.Into {
		if name == "" {
			continue
		}
		col, err := typedColumn(name, pieces[i], opts.IntoTypes, opts.Convert)
		if err != nil {
			return nil, err
		}
		created = append(created, col)
	}

	cols := make([]*datatable.Column, 0, t.ColumnCount()+len(created))
	for c := 0; c < t.ColumnCount(); c++ {
		if c != srcIdx {
			cols = append(cols, t.ColumnAt(c).Clone())
			continue
		}
		if !opts.Remove {
			cols = append(cols, src.Clone())
		}
		cols = append(cols, created...)
	}
	return datatable.New(cols...)
}

func checkSeparateNames(t *datatable.Table, srcIdx int, opts SeparateOptions) error {
	taken := make(map[string]struct{})
	for c, name := range t.ColumnNames() {
		if c != srcIdx || !opts.Remove {
			taken[name] = struct{}{}
		}
	}
	for _, name := range opts.Into {
		if name == "" {
			continue
		}
		if _, dup := taken[name]; dup {
			return &datatable.ConfigurationError{Option: "into", Reason: fmt.Sprintf("output column %q already exists", name)}
		}
		taken[name] = struct{}{}
	}
	for name := range opts.IntoTypes {
		if name == "" || !slices.Contains(opts.Into, name) {
			return &datatable.ConfigurationError{Option: "into_types", Reason: fmt.Sprintf("%q is not in into", name)}
		}
	}
	return nil
}

// typedColumn builds a string column of values, applying a strict type from
// types when present and best-effort narrowing when convert is set.
func typedColumn(name string, values []datatable.Value, types map[string]datatable.DataType, convert bool) (*datatable.Column, error) {
	if target, ok := types[name]; ok {
		converted, err := datatable.CoerceAll(name, values, target)
		if err != nil {
			return nil, err
		}
		return datatable.NewColumn(name, target, converted)
	}
	if convert {
		typ, converted := datatable.Convert(values)
		return datatable.NewColumn(name, typ, converted)
	}
	return datatable.NewColumn(name, datatable.TypeString, values)
}

// SeparateRowsOptions configures SeparateRows.
type SeparateRowsOptions struct {
	// Cols are split together. On every row they must yield the same number
	// of pieces.
	Cols []string

	// Sep is a literal or a regular expression.
	Sep pattern.Separator

	// Convert narrows each split column on its own, as in Separate.
	Convert bool
}

// DefaultSeparateRowsOptions splits on runs of non-alphanumeric characters.
func DefaultSeparateRowsOptions() SeparateRowsOptions {
	return SeparateRowsOptions{Sep: pattern.MustRegex(pattern.DefaultSeparator)}
}

// SeparateRows splits the values of Cols into several rows. Other columns are
// repeated for every piece and the row order is kept. An explicit missing
// cell counts as a single missing piece.
func SeparateRows(t *datatable.Table, opts SeparateRowsOptions) (*datatable.Table, error) {
	if t == nil {
		return nil, datatable.ErrNoDataSource
	}
	idx, err := t.Resolve(opts.Cols)
	if err != nil {
		return nil, err
	}
	if len(idx) == 0 {
		return t.Clone(), nil
	}
	if opts.Sep.IsZero() || len(opts.Sep.Positions) > 0 {
		return nil, &datatable.ConfigurationError{Option: "sep", Reason: "a literal or regular expression separator is required"}
	}

	var rows []int
	pieces := make([][]datatable.Value, len(idx))
	for r := 0; r < t.RowCount(); r++ {
		count := -1
		for i, c := range idx {
			v := t.ColumnAt(c).Value(r)
			parts := splitCell(v, opts.Sep)
			if count < 0 {
				count = len(parts)
			} else if len(parts) != count {
				return nil, fmt.Errorf("separate rows %q row %d: %w", t.ColumnAt(c).Name(), r,
					&datatable.PatternArityError{Name: v.String(), Expected: count, Actual: len(parts)})
			}
			pieces[i] = append(pieces[i], parts...)
		}
		for k := 0; k < count; k++ {
			rows = append(rows, r)
		}
	}

	cols := make([]*datatable.Column, t.ColumnCount())
	for c := range cols {
		cols[c] = t.ColumnAt(c).Take(rows)
	}
	for i, c := range idx {
		col, err := typedColumn(t.ColumnAt(c).Name(), pieces[i], nil, opts.Convert)
		if err != nil {
			return nil, err
		}
		cols[c] = col
	}
	return datatable.New(cols...)
}

func splitCell(v datatable.Value, sep pattern.Separator) []datatable.Value {
	if v.IsNull {
		return []datatable.Value{datatable.NewNullValue(datatable.TypeString)}
	}
	parts := sep.SplitAll(v.Formatted)
	out := make([]datatable.Value, len(parts))
	for i, p := range parts {
		out[i] = datatable.StringValue(p)
	}
	return out
}
