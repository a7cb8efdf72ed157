package datatable

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyIndexFirstOccurrenceOrder(t *testing.T) {
	idx := NewKeyIndex()

	id, isNew := idx.Add([]Value{StringValue("X"), IntValue(1999)})
	assert.Equal(t, 0, id)
	assert.True(t, isNew)

	id, isNew = idx.Add([]Value{StringValue("X"), IntValue(2000)})
	assert.Equal(t, 1, id)
	assert.True(t, isNew)

	id, isNew = idx.Add([]Value{StringValue("X"), IntValue(1999)})
	assert.Equal(t, 0, id)
	assert.False(t, isNew)

	assert.Equal(t, 2, idx.Len())
	assert.Equal(t, []string{"X", "2000"}, idx.Strings(1))
}

func TestKeyIndexDistinguishesTypesAndNulls(t *testing.T) {
	idx := NewKeyIndex()
	idx.Add([]Value{IntValue(1)})
	idx.Add([]Value{StringValue("1")})
	idx.Add([]Value{NewNullValue(TypeString)})
	idx.Add([]Value{StringValue("NA")})
	assert.Equal(t, 4, idx.Len())

	_, ok := idx.Lookup([]Value{NewNullValue(TypeString)})
	assert.True(t, ok)
}

func TestKeyIndexSignedZero(t *testing.T) {
	negZero := FloatValue(math.Copysign(0, -1))
	require.True(t, negZero.Equal(FloatValue(0)))
	assert.Equal(t, FloatValue(0).Key(), negZero.Key())

	idx := NewKeyIndex()
	idx.Add([]Value{FloatValue(0)})
	_, isNew := idx.Add([]Value{negZero})
	assert.False(t, isNew)
	assert.Equal(t, 1, idx.Len())
}

func TestCanonicalKeyEscapesSeparator(t *testing.T) {
	a := CanonicalKey([]Value{StringValue("a" + keySep + "s:b")})
	b := CanonicalKey([]Value{StringValue("a"), StringValue("b")})
	assert.NotEqual(t, a, b)
}

func TestGroupRows(t *testing.T) {
	tbl := MustNew(
		MustColumn("country", TypeString, "A", "B", "A", "B"),
		MustColumn("year", TypeInt, 1999, 1999, 1999, 2000),
	)

	idx, groups := GroupRows(tbl, []int{0, 1})
	assert.Equal(t, 3, idx.Len())
	assert.Equal(t, [][]int{{0, 2}, {1}, {3}}, groups)

	idx, groups = GroupRows(tbl, nil)
	assert.Equal(t, 1, idx.Len())
	assert.Equal(t, [][]int{{0, 1, 2, 3}}, groups)
}
