package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tidyframe/datatable"
)

var columns = []string{"country", "year", "cases"}

func row(country string, year int64, cases interface{}) []datatable.Value {
	c := datatable.NewNullValue(datatable.TypeInt)
	if cases != nil {
		c = datatable.IntValue(int64(cases.(int)))
	}
	return []datatable.Value{datatable.StringValue(country), datatable.IntValue(year), c}
}

func TestNotMissing(t *testing.T) {
	f := NotMissing("cases")

	ok, err := f.Evaluate(row("Brazil", 1999, 37737), columns)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.Evaluate(row("Brazil", 2000, nil), columns)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, "(cases is not missing)", f.Description())
}

func TestMissingFilterUnknownColumn(t *testing.T) {
	_, err := (&MissingFilter{Column: "nope"}).Evaluate(row("A", 1, 1), columns)
	assert.ErrorIs(t, err, datatable.ErrColumnNotFound)
}

func TestCompositeOr(t *testing.T) {
	f := &CompositeFilter{
		Logic: LogicOR,
		Filters: []datatable.Filter{
			&MissingFilter{Column: "cases"},
			&ComparisonFilter{Column: "country", Op: OpEqual, Value: "china"},
		},
	}

	ok, _ := f.Evaluate(row("China", 1999, 212258), columns)
	assert.True(t, ok)
	ok, _ = f.Evaluate(row("Brazil", 1999, nil), columns)
	assert.True(t, ok)
	ok, _ = f.Evaluate(row("Brazil", 1999, 1), columns)
	assert.False(t, ok)
}

func TestParseQuery(t *testing.T) {
	tests := []struct {
		query string
		row   []datatable.Value
		want  bool
	}{
		{"year >= 2000", row("A", 2000, 1), true},
		{"year > 2000", row("A", 2000, 1), false},
		{"country = brazil AND year < 2000", row("Brazil", 1999, 1), true},
		{"country = brazil AND year < 2000", row("Brazil", 2000, 1), false},
		{"country = china OR cases >= 100", row("Brazil", 2000, 100), true},
		{"country ~ raz", row("Brazil", 2000, 1), true},
		{"cases != 5", row("A", 1, nil), true},
		{"cases > 5", row("A", 1, nil), false},
		{"bra", row("Brazil", 1, 1), true},
		{"", row("A", 1, 1), true},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			f, err := ParseQuery(tt.query, columns)
			require.NoError(t, err)
			got, err := f.Evaluate(tt.row, columns)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseQueryErrors(t *testing.T) {
	_, err := ParseQuery("population > 3", columns)
	assert.ErrorIs(t, err, datatable.ErrColumnNotFound)

	_, err = ParseQuery("year > 3 AND", columns)
	assert.ErrorIs(t, err, datatable.ErrInvalidFilter)

	_, err = ParseQuery("AND year > 3", columns)
	assert.ErrorIs(t, err, datatable.ErrInvalidFilter)
}
