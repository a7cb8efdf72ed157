package reshape

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tidyframe/datatable"
)

func quarters() *datatable.Table {
	return datatable.MustNew(
		ints("year", 2015, 2015, 2016),
		ints("qtr", 1, 2, 2),
		datatable.MustColumn("return", datatable.TypeFloat, 1.88, 0.59, 0.92),
	)
}

func TestCompleteScenario(t *testing.T) {
	out, err := Complete(quarters(), CompleteOptions{Cols: []string{"year", "qtr"}})
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"2015", "1", "1.88"},
		{"2015", "2", "0.59"},
		{"2016", "2", "0.92"},
		{"2016", "1", "NA"},
	}, render(out))
}

func TestCompleteClosure(t *testing.T) {
	tbl := datatable.MustNew(
		str("a", "x", "y", "z", "x"),
		ints("b", 1, 2, 1, 1),
		ints("v", 10, 20, 30, 40),
	)
	out, err := Complete(tbl, CompleteOptions{Cols: []string{"a", "b"}})
	require.NoError(t, err)

	// 3 distinct a times 2 distinct b, plus one duplicated (x, 1)
	assert.Equal(t, 3*2+1, out.RowCount())
	assert.Equal(t, render(tbl), render(out)[:tbl.RowCount()])
	for r := tbl.RowCount(); r < out.RowCount(); r++ {
		v, _ := out.Cell(r, 2)
		assert.True(t, v.IsNull)
	}

	again, err := Complete(out, CompleteOptions{Cols: []string{"a", "b"}})
	require.NoError(t, err)
	assert.True(t, out.Equal(again))
}

func TestCompleteFill(t *testing.T) {
	tbl := datatable.MustNew(
		ints("year", 2015, 2015, 2016),
		ints("qtr", 1, 2, 2),
		ints("n", 1, nil, 3),
	)

	opts := CompleteOptions{
		Cols: []string{"year", "qtr"},
		Fill: map[string]datatable.Value{"n": datatable.StringValue("0")},
	}
	out, err := Complete(tbl, opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "NA", "3", "0"}, columnStrings(out, "n"))

	opts.Explicit = true
	out, err = Complete(tbl, opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "0", "3", "0"}, columnStrings(out, "n"))

	opts.Fill = map[string]datatable.Value{"n": datatable.StringValue("zero")}
	_, err = Complete(tbl, opts)
	assert.ErrorIs(t, err, datatable.ErrConfiguration)

	opts.Fill = map[string]datatable.Value{"m": datatable.IntValue(0)}
	_, err = Complete(tbl, opts)
	assert.ErrorIs(t, err, datatable.ErrColumnNotFound)
}

func TestCompleteNesting(t *testing.T) {
	tbl := datatable.MustNew(
		ints("group", 1, 1, 2),
		ints("item_id", 1, 2, 1),
		str("item_name", "a", "b", "a"),
		ints("value", 5, 6, 7),
	)
	out, err := Complete(tbl, CompleteOptions{
		Cols:    []string{"group"},
		Nesting: [][]string{{"item_id", "item_name"}},
	})
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"1", "1", "a", "5"},
		{"1", "2", "b", "6"},
		{"2", "1", "a", "7"},
		{"2", "2", "b", "NA"},
	}, render(out))
}

func TestCompleteGroupBy(t *testing.T) {
	tbl := datatable.MustNew(
		str("grp", "A", "A", "B"),
		ints("k", 1, 2, 1),
		ints("v", 1, 2, 3),
	)

	out, err := Complete(tbl, CompleteOptions{Cols: []string{"k"}, GroupBy: []string{"grp"}})
	require.NoError(t, err)
	assert.Equal(t, 3, out.RowCount())

	out, err = Complete(tbl, CompleteOptions{Cols: []string{"grp", "k"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "2", "NA"}, render(out)[3])
}

func TestExpand(t *testing.T) {
	out, err := Expand(quarters(), CompleteOptions{Cols: []string{"year", "qtr"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"year", "qtr"}, out.ColumnNames())
	assert.Equal(t, [][]string{
		{"2015", "1"},
		{"2015", "2"},
		{"2016", "1"},
		{"2016", "2"},
	}, render(out))

	typ, _ := out.ColumnType(0)
	assert.Equal(t, datatable.TypeInt, typ)
}

func TestExpandKeepsMissingAsValue(t *testing.T) {
	tbl := datatable.MustNew(str("a", "x", nil), ints("b", 1, 2))
	out, err := Expand(tbl, CompleteOptions{Cols: []string{"a", "b"}})
	require.NoError(t, err)
	assert.Equal(t, 4, out.RowCount())
	assert.Equal(t, []string{"x", "x", "NA", "NA"}, columnStrings(out, "a"))
}

func TestExpandSignedZero(t *testing.T) {
	tbl := datatable.MustNew(
		datatable.MustColumn("x", datatable.TypeFloat, 0.0, math.Copysign(0, -1), 1.5),
	)
	out, err := Expand(tbl, CompleteOptions{Cols: []string{"x"}})
	require.NoError(t, err)
	assert.Equal(t, 2, out.RowCount(), out.String())
}

func TestCompleteErrors(t *testing.T) {
	_, err := Complete(quarters(), CompleteOptions{})
	assert.ErrorIs(t, err, datatable.ErrConfiguration)

	_, err = Complete(quarters(), CompleteOptions{Cols: []string{"month"}})
	assert.ErrorIs(t, err, datatable.ErrColumnNotFound)

	_, err = Complete(quarters(), CompleteOptions{Cols: []string{"year"}, Nesting: [][]string{{"year", "qtr"}}})
	assert.ErrorIs(t, err, datatable.ErrConfiguration)

	_, err = Complete(quarters(), CompleteOptions{Cols: []string{"year"}, Nesting: [][]string{{}}})
	assert.ErrorIs(t, err, datatable.ErrConfiguration)
}
