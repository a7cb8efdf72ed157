package reshape

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tidyframe/datatable"
	"tidyframe/internal/filter"
)

func withGaps() *datatable.Table {
	return datatable.MustNew(
		ints("a", 1, nil, 3),
		str("b", "x", "y", nil),
	)
}

func TestDropNA(t *testing.T) {
	out, err := DropNA(withGaps(), "a")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"1", "x"}, {"3", "NA"}}, render(out))

	out, err = DropNA(withGaps())
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"1", "x"}}, render(out))

	_, err = DropNA(withGaps(), "c")
	assert.ErrorIs(t, err, datatable.ErrColumnNotFound)
}

func TestReplaceNA(t *testing.T) {
	out, err := ReplaceNA(withGaps(), map[string]datatable.Value{
		"a": datatable.StringValue("0"),
		"b": datatable.StringValue("?"),
	})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"1", "x"}, {"0", "y"}, {"3", "?"}}, render(out))

	_, err = ReplaceNA(withGaps(), map[string]datatable.Value{"a": datatable.StringValue("zero")})
	assert.ErrorIs(t, err, datatable.ErrConfiguration)
}

func TestFilterRows(t *testing.T) {
	tbl := withGaps()
	f, err := filter.ParseQuery("a > 1", tbl.ColumnNames())
	require.NoError(t, err)

	out, err := FilterRows(tbl, f)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"3", "NA"}}, render(out))

	out, err = FilterRows(tbl, nil)
	require.NoError(t, err)
	assert.True(t, tbl.Equal(out))
}
