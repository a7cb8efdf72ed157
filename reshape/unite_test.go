package reshape

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tidyframe/datatable"
	"tidyframe/pattern"
)

func uniteOpts(col string, cols ...string) UniteOptions {
	opts := DefaultUniteOptions()
	opts.Col = col
	opts.Cols = cols
	return opts
}

func TestUnite(t *testing.T) {
	tbl := datatable.MustNew(
		str("country", "Afghanistan", "Brazil"),
		str("century", "19", "20"),
		ints("year", 99, 0),
	)

	opts := uniteOpts("new", "century", "year")
	opts.Sep = ""
	out, err := Unite(tbl, opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"country", "new"}, out.ColumnNames())
	assert.Equal(t, []string{"1999", "200"}, columnStrings(out, "new"))

	out, err = Unite(tbl, uniteOpts("new", "year", "century"))
	require.NoError(t, err)
	assert.Equal(t, []string{"99_19", "0_20"}, columnStrings(out, "new"))
}

func TestUniteMissing(t *testing.T) {
	tbl := datatable.MustNew(
		str("x", "a", nil, nil),
		str("y", "b", "c", nil),
	)

	out, err := Unite(tbl, uniteOpts("z", "x", "y"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a_b", "_c", "_"}, columnStrings(out, "z"))
	assert.Equal(t, 0, out.ColumnAt(0).NullCount())

	opts := uniteOpts("z", "x", "y")
	opts.NARm = true
	out, err = Unite(tbl, opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"a_b", "c", ""}, columnStrings(out, "z"))
}

func TestUniteLayout(t *testing.T) {
	tbl := datatable.MustNew(str("id", "1"), str("x", "a"), str("k", "k"), str("y", "b"))

	opts := uniteOpts("z", "y", "x")
	opts.Remove = false
	out, err := Unite(tbl, opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "z", "x", "k", "y"}, out.ColumnNames())
	assert.Equal(t, []string{"b_a"}, columnStrings(out, "z"))

	out, err = Unite(tbl, uniteOpts("all"))
	require.NoError(t, err)
	assert.Equal(t, []string{"all"}, out.ColumnNames())
	assert.Equal(t, []string{"1_a_k_b"}, columnStrings(out, "all"))

	// the target may reuse the name of a removed source
	out, err = Unite(tbl, uniteOpts("x", "x", "y"))
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "x", "k"}, out.ColumnNames())
}

func TestUniteErrors(t *testing.T) {
	tbl := datatable.MustNew(str("x", "a"), str("y", "b"))

	_, err := Unite(tbl, uniteOpts("z", "x", "w"))
	assert.ErrorIs(t, err, datatable.ErrColumnNotFound)

	_, err = Unite(tbl, uniteOpts("", "x", "y"))
	assert.ErrorIs(t, err, datatable.ErrConfiguration)

	opts := uniteOpts("x", "x", "y")
	opts.Remove = false
	_, err = Unite(tbl, opts)
	assert.ErrorIs(t, err, datatable.ErrConfiguration)
}

func TestUniteNoColumns(t *testing.T) {
	out, err := Unite(datatable.MustNew(), UniteOptions{Col: "u"})
	require.NoError(t, err)
	assert.Equal(t, []string{"u"}, out.ColumnNames())
	assert.Equal(t, 0, out.RowCount())
}

func TestSeparateUniteInverse(t *testing.T) {
	tbl := datatable.MustNew(
		ints("id", 1, 2, 3),
		str("c", "a_b", "cc_dd", "_e"),
	)

	opts := sepOpts("c", "p", "q")
	opts.Sep = pattern.Literal("_")
	split, err := Separate(tbl, opts)
	require.NoError(t, err)

	back, err := Unite(split, uniteOpts("c", "p", "q"))
	require.NoError(t, err)
	assert.True(t, tbl.Equal(back), back.String())
}
