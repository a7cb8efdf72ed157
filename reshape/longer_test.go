package reshape

import (
	"errors"
	"fmt"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tidyframe/datatable"
	"tidyframe/pattern"
)

func cases() *datatable.Table {
	return datatable.MustNew(
		str("country", "Afghanistan", "Brazil", "China"),
		ints("1999", 745, 37737, 212258),
		ints("2000", 2666, 80488, 213766),
	)
}

func TestPivotLongerScenario(t *testing.T) {
	tbl := datatable.MustNew(
		str("country", "X"),
		ints("1999", 745),
		ints("2000", 2666),
	)
	opts := DefaultLongerOptions()
	opts.Cols = []string{"1999", "2000"}
	opts.NamesTo = []string{"year"}
	opts.ValuesTo = "cases"

	out, err := PivotLonger(tbl, opts)
	require.NoError(t, err)

	assert.Equal(t, []string{"country", "year", "cases"}, out.ColumnNames())
	assert.Equal(t, [][]string{
		{"X", "1999", "745"},
		{"X", "2000", "2666"},
	}, render(out))

	typ, _ := out.ColumnType(1)
	assert.Equal(t, datatable.TypeString, typ)
	typ, _ = out.ColumnType(2)
	assert.Equal(t, datatable.TypeInt, typ)

	// input untouched
	assert.Equal(t, []string{"country", "1999", "2000"}, tbl.ColumnNames())
}

func TestPivotLongerRowCount(t *testing.T) {
	tbl := cases()
	opts := DefaultLongerOptions()
	opts.Cols = []string{"1999", "2000"}

	out, err := PivotLonger(tbl, opts)
	require.NoError(t, err)
	assert.Equal(t, tbl.RowCount()*2, out.RowCount())
	assert.Equal(t, []string{"country", "name", "value"}, out.ColumnNames())
	assert.Equal(t,
		[]string{"Afghanistan", "Afghanistan", "Brazil", "Brazil", "China", "China"},
		columnStrings(out, "country"))
}

func TestPivotLongerDropNA(t *testing.T) {
	tbl := datatable.MustNew(
		str("id", "a", "b"),
		ints("x", 1, nil),
		ints("y", nil, nil),
	)
	opts := DefaultLongerOptions()
	opts.Cols = []string{"x", "y"}

	out, err := PivotLonger(tbl, opts)
	require.NoError(t, err)
	assert.Equal(t, 4, out.RowCount())
	assert.Equal(t, 3, out.ColumnAt(2).NullCount())

	opts.ValuesDropNA = true
	out, err = PivotLonger(tbl, opts)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a", "x", "1"}}, render(out))
	assert.LessOrEqual(t, out.RowCount(), tbl.RowCount()*2)
}

func TestPivotLongerNamesTypes(t *testing.T) {
	tbl := datatable.MustNew(
		str("artist", "2 Pac"),
		ints("wk1", 87),
		ints("wk2", 82),
	)
	opts := DefaultLongerOptions()
	opts.Cols = []string{"wk1", "wk2"}
	opts.NamesTo = []string{"week"}
	opts.NamesPrefix = "wk"
	opts.ValuesTo = "rank"
	opts.NamesTypes = map[string]datatable.DataType{"week": datatable.TypeInt}

	out, err := PivotLonger(tbl, opts)
	require.NoError(t, err)

	week, err := out.Column("week")
	require.NoError(t, err)
	assert.Equal(t, datatable.TypeInt, week.Type())
	assert.Equal(t, int64(2), week.Value(1).Raw)
}

func TestPivotLongerNamesTypesFailsWhole(t *testing.T) {
	tbl := datatable.MustNew(ints("1999", 1), ints("abc", 2))
	opts := DefaultLongerOptions()
	opts.Cols = []string{"1999", "abc"}
	opts.NamesTo = []string{"year"}
	opts.NamesTypes = map[string]datatable.DataType{"year": datatable.TypeInt}

	out, err := PivotLonger(tbl, opts)
	assert.Nil(t, out)

	var tce *datatable.TypeCoercionError
	require.True(t, errors.As(err, &tce))
	assert.Equal(t, "year", tce.Column)
	assert.Equal(t, "abc", tce.Raw)
	assert.Equal(t, datatable.TypeInt, tce.Target)
}

func TestPivotLongerNamesLevels(t *testing.T) {
	opts := DefaultLongerOptions()
	opts.Cols = []string{"1999", "2000"}
	opts.NamesTo = []string{"year"}
	opts.NamesLevels = map[string][]string{"year": {"1999"}}

	_, err := PivotLonger(cases(), opts)
	var tce *datatable.TypeCoercionError
	require.True(t, errors.As(err, &tce))
	assert.Equal(t, "2000", tce.Raw)
	assert.Equal(t, []string{"1999"}, tce.Levels)

	opts.NamesLevels["year"] = []string{"2000", "1999"}
	_, err = PivotLonger(cases(), opts)
	assert.NoError(t, err)
}

func TestPivotLongerPattern(t *testing.T) {
	tbl := datatable.MustNew(
		str("country", "AF"),
		ints("new_sp_m014", 1),
		ints("new_ep_f1524", 2),
		ints("newrel_m65", 3),
	)
	opts := DefaultLongerOptions()
	opts.Cols = []string{"new_sp_m014", "new_ep_f1524", "newrel_m65"}
	opts.NamesTo = []string{"diagnosis", "gender", "age"}
	opts.NamesPattern = regexp.MustCompile(`^new_?(.*)_(.)(.*)$`)
	opts.ValuesTo = "count"

	out, err := PivotLonger(tbl, opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"country", "diagnosis", "gender", "age", "count"}, out.ColumnNames())
	assert.Equal(t, [][]string{
		{"AF", "sp", "m", "014", "1"},
		{"AF", "ep", "f", "1524", "2"},
		{"AF", "rel", "m", "65", "3"},
	}, render(out))
}

func TestPivotLongerSeparator(t *testing.T) {
	tbl := datatable.MustNew(
		str("id", "a"),
		ints("x_1", 1),
		ints("y_2", 2),
	)
	opts := DefaultLongerOptions()
	opts.Cols = []string{"x_1", "y_2"}
	opts.NamesTo = []string{"var", "set"}
	opts.NamesSep = pattern.Literal("_")

	out, err := PivotLonger(tbl, opts)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"a", "x", "1", "1"},
		{"a", "y", "2", "2"},
	}, render(out))
}

func TestPivotLongerValueMarker(t *testing.T) {
	tbl := datatable.MustNew(
		ints("id", 1, 2),
		ints("x_1", 1, 2),
		ints("x_2", 3, 4),
		ints("y_1", 5, 6),
		ints("y_2", 7, 8),
	)
	opts := DefaultLongerOptions()
	opts.Cols = []string{"x_1", "x_2", "y_1", "y_2"}
	opts.NamesTo = []string{ValueMarker, "set"}
	opts.NamesSep = pattern.Literal("_")

	out, err := PivotLonger(tbl, opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "set", "x", "y"}, out.ColumnNames())
	assert.Equal(t, [][]string{
		{"1", "1", "1", "5"},
		{"1", "2", "3", "7"},
		{"2", "1", "2", "6"},
		{"2", "2", "4", "8"},
	}, render(out))
}

func TestPivotLongerValueMarkerPartialFamily(t *testing.T) {
	tbl := datatable.MustNew(
		ints("id", 1),
		ints("x_1", 1),
		ints("x_2", 2),
		ints("y_1", 3),
	)
	opts := DefaultLongerOptions()
	opts.Cols = []string{"x_1", "x_2", "y_1"}
	opts.NamesTo = []string{ValueMarker, "set"}
	opts.NamesSep = pattern.Literal("_")

	out, err := PivotLonger(tbl, opts)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"1", "1", "1", "3"},
		{"1", "2", "2", "NA"},
	}, render(out))
}

func TestPivotLongerValueTypes(t *testing.T) {
	tbl := datatable.MustNew(
		ints("a", 1),
		datatable.MustColumn("b", datatable.TypeFloat, 2.5),
	)
	opts := DefaultLongerOptions()
	opts.Cols = []string{"a", "b"}

	out, err := PivotLonger(tbl, opts)
	require.NoError(t, err)
	typ, _ := out.ColumnType(1)
	assert.Equal(t, datatable.TypeFloat, typ)
	assert.Equal(t, []string{"1", "2.5"}, columnStrings(out, "value"))

	mixed := datatable.MustNew(ints("a", 1), str("b", "x"))
	_, err = PivotLonger(mixed, opts)
	assert.ErrorIs(t, err, datatable.ErrTypeMismatch)

	opts.ValuesTypes = map[string]datatable.DataType{"value": datatable.TypeString}
	out, err = PivotLonger(mixed, opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "x"}, columnStrings(out, "value"))

	opts.ValuesTypes = map[string]datatable.DataType{"value": datatable.TypeInt}
	_, err = PivotLonger(mixed, opts)
	assert.ErrorIs(t, err, datatable.ErrTypeCoercion)
}

func TestPivotLongerErrors(t *testing.T) {
	base := DefaultLongerOptions()

	tests := []struct {
		name   string
		tbl    *datatable.Table
		modify func(*LongerOptions)
		want   error
	}{
		{
			name:   "unknown column",
			tbl:    cases(),
			modify: func(o *LongerOptions) { o.Cols = []string{"1999", "2001"} },
			want:   datatable.ErrColumnNotFound,
		},
		{
			name: "arity",
			tbl:  datatable.MustNew(ints("a_b", 1), ints("a_b_c", 2)),
			modify: func(o *LongerOptions) {
				o.Cols = []string{"a_b", "a_b_c"}
				o.NamesTo = []string{"k1", "k2"}
				o.NamesSep = pattern.Literal("_")
			},
			want: datatable.ErrPatternArity,
		},
		{
			name: "names without separator",
			tbl:  cases(),
			modify: func(o *LongerOptions) {
				o.Cols = []string{"1999"}
				o.NamesTo = []string{"a", "b"}
			},
			want: datatable.ErrConfiguration,
		},
		{
			name: "pattern group count",
			tbl:  cases(),
			modify: func(o *LongerOptions) {
				o.Cols = []string{"1999"}
				o.NamesTo = []string{"a", "b"}
				o.NamesPattern = regexp.MustCompile(`(\d+)`)
			},
			want: datatable.ErrConfiguration,
		},
		{
			name:   "empty names",
			tbl:    cases(),
			modify: func(o *LongerOptions) { o.Cols = []string{"1999"}; o.NamesTo = nil },
			want:   datatable.ErrConfiguration,
		},
		{
			name: "collides with identifier",
			tbl:  cases(),
			modify: func(o *LongerOptions) {
				o.Cols = []string{"1999"}
				o.NamesTo = []string{"country"}
			},
			want: datatable.ErrConfiguration,
		},
		{
			name: "same decomposition twice",
			tbl:  datatable.MustNew(ints("a1", 1), ints("a2", 2)),
			modify: func(o *LongerOptions) {
				o.Cols = []string{"a1", "a2"}
				o.NamesTo = []string{"k"}
				o.NamesPattern = regexp.MustCompile(`^(a)`)
			},
			want: datatable.ErrConfiguration,
		},
		{
			name: "unknown names type",
			tbl:  cases(),
			modify: func(o *LongerOptions) {
				o.Cols = []string{"1999"}
				o.NamesTypes = map[string]datatable.DataType{"year": datatable.TypeInt}
			},
			want: datatable.ErrConfiguration,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := base
			tt.modify(&opts)
			out, err := PivotLonger(tt.tbl, opts)
			assert.Nil(t, out)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestPivotLongerArityErrorNamesColumn(t *testing.T) {
	opts := DefaultLongerOptions()
	opts.Cols = []string{"wk_a_b", "wk_a_b_c"}
	opts.NamesPrefix = "wk_"
	opts.NamesTo = []string{"k1", "k2"}
	opts.NamesSep = pattern.Literal("_")

	_, err := PivotLonger(datatable.MustNew(ints("wk_a_b", 1), ints("wk_a_b_c", 2)), opts)
	require.ErrorIs(t, err, datatable.ErrPatternArity)
	var arity *datatable.PatternArityError
	require.ErrorAs(t, err, &arity)
	assert.Equal(t, "wk_a_b_c", arity.Name)
	assert.Equal(t, 2, arity.Expected)
	assert.Equal(t, 3, arity.Actual)
}

func TestPivotLongerNoColumns(t *testing.T) {
	tbl := cases()
	out, err := PivotLonger(tbl, DefaultLongerOptions())
	require.NoError(t, err)
	assert.True(t, tbl.Equal(out))
	assert.NotSame(t, tbl, out)
}

func TestPivotLongerWorkersDeterministic(t *testing.T) {
	const n = 3000
	ids := make([]interface{}, n)
	a := make([]interface{}, n)
	b := make([]interface{}, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("r%d", i)
		a[i] = i
		if i%7 == 0 {
			b[i] = nil
		} else {
			b[i] = i * 2
		}
	}
	tbl := datatable.MustNew(str("id", ids...), ints("a", a...), ints("b", b...))

	opts := DefaultLongerOptions()
	opts.Cols = []string{"a", "b"}
	opts.ValuesDropNA = true

	serial, err := PivotLonger(tbl, opts)
	require.NoError(t, err)

	opts.Workers = 8
	parallel, err := PivotLonger(tbl, opts)
	require.NoError(t, err)

	assert.True(t, serial.Equal(parallel))
	assert.Equal(t, 2*n-(n+6)/7, parallel.RowCount())
}
