package datatable

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTable(t *testing.T) {
	tbl, err := New(
		MustColumn("country", TypeString, "Afghanistan", "Brazil"),
		MustColumn("1999", TypeInt, 745, 37737),
	)
	require.NoError(t, err)

	assert.Equal(t, 2, tbl.RowCount())
	assert.Equal(t, 2, tbl.ColumnCount())
	assert.Equal(t, []string{"country", "1999"}, tbl.ColumnNames())

	v, err := tbl.Cell(1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(37737), v.Raw)
	assert.Equal(t, "37737", v.Formatted)
}

func TestNewTableRejectsInconsistentColumns(t *testing.T) {
	_, err := New(
		MustColumn("a", TypeInt, 1, 2),
		MustColumn("b", TypeInt, 1),
	)
	assert.ErrorIs(t, err, ErrLengthMismatch)

	_, err = New(
		MustColumn("a", TypeInt, 1),
		MustColumn("a", TypeInt, 2),
	)
	assert.ErrorIs(t, err, ErrDuplicateColumn)
}

func TestNewColumnTypeCheck(t *testing.T) {
	_, err := NewColumn("x", TypeInt, []Value{IntValue(1), StringValue("two")})
	assert.ErrorIs(t, err, ErrTypeMismatch)

	c, err := NewColumn("x", TypeInt, []Value{IntValue(1), NewNullValue(TypeString)})
	require.NoError(t, err)
	assert.True(t, c.IsNull(1))
	assert.Equal(t, TypeInt, c.Value(1).Type)
	assert.Equal(t, 1, c.NullCount())
}

func TestColumnLookup(t *testing.T) {
	tbl := MustNew(MustColumn("a", TypeString, "x"))

	_, err := tbl.Column("missing")
	var uce *UnknownColumnError
	require.True(t, errors.As(err, &uce))
	assert.Equal(t, "missing", uce.Name)
	assert.ErrorIs(t, err, ErrColumnNotFound)

	_, err = tbl.Cell(3, 0)
	assert.ErrorIs(t, err, ErrInvalidRow)
	_, err = tbl.ColumnName(4)
	assert.ErrorIs(t, err, ErrInvalidColumn)
}

func TestSelectAndDropCopy(t *testing.T) {
	tbl := MustNew(
		MustColumn("a", TypeString, "x", "y"),
		MustColumn("b", TypeInt, 1, nil),
		MustColumn("c", TypeBool, true, false),
	)

	sel, err := tbl.Select("c", "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a"}, sel.ColumnNames())
	assert.Equal(t, 2, sel.RowCount())

	dropped, err := tbl.Drop("b")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, dropped.ColumnNames())

	_, err = tbl.Select("a", "a")
	assert.ErrorIs(t, err, ErrDuplicateColumn)

	// the source is unaffected
	assert.Equal(t, []string{"a", "b", "c"}, tbl.ColumnNames())
	a, _ := tbl.Column("a")
	assert.NotSame(t, a, sel.ColumnAt(1))
	assert.True(t, a.Equal(sel.ColumnAt(1)))
}

func TestTakeRowsMissing(t *testing.T) {
	tbl := MustNew(MustColumn("a", TypeInt, 10, 20))
	out := tbl.TakeRows([]int{1, -1, 0})

	require.Equal(t, 3, out.RowCount())
	c, _ := out.Column("a")
	assert.Equal(t, int64(20), c.Value(0).Raw)
	assert.True(t, c.IsNull(1))
	assert.Equal(t, int64(10), c.Value(2).Raw)
}

func TestTableEqualAndString(t *testing.T) {
	a := MustNew(MustColumn("a", TypeFloat, 1.5, nil))
	b := MustNew(MustColumn("a", TypeFloat, 1.5, nil))
	c := MustNew(MustColumn("a", TypeFloat, 1.5, 2.0))

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.Equal(t, "a\n1.5\nNA", a.String())
}

func TestMetadataIsCopied(t *testing.T) {
	tbl := MustNew(MustColumn("a", TypeInt, 1)).WithMetadata(Metadata{"source": "test"})
	md := tbl.Metadata()
	md["source"] = "changed"
	assert.Equal(t, "test", tbl.Metadata()["source"])
}
