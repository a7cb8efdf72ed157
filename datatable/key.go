package datatable

import (
	"strings"

	"github.com/cespare/xxhash/v2"
)

// keySep joins tuple components; occurrences inside a component are escaped.
const keySep = "\x1f"

// KeyIndex assigns dense ids to key tuples in order of first insertion.
// Each tuple component is normalized with Value.Key, so tuples of mixed types
// hash consistently. Hash collisions are resolved by comparing the canonical
// strings of the colliding tuples.
//
// KeyIndex is not safe for concurrent mutation.
type KeyIndex struct {
	buckets map[uint64][]int
	keys    []string
	tuples  [][]Value
}

// NewKeyIndex returns an empty index.
func NewKeyIndex() *KeyIndex {
	return &KeyIndex{buckets: make(map[uint64][]int)}
}

// CanonicalKey joins the canonical forms of a tuple.
func CanonicalKey(tuple []Value) string {
	var b strings.Builder
	for i, v := range tuple {
		if i > 0 {
			b.WriteString(keySep)
		}
		k := v.Key()
		// escape the separator so "a\x1fb" and ("a","b") stay distinct
		if strings.ContainsAny(k, keySep+"\x1b") {
			k = strings.ReplaceAll(k, "\x1b", "\x1b\x1b")
			k = strings.ReplaceAll(k, keySep, "\x1b"+keySep)
		}
		b.WriteString(k)
	}
	return b.String()
}

// Add inserts tuple if absent and returns its id and whether it was new.
// The tuple slice is copied.
func (k *KeyIndex) Add(tuple []Value) (int, bool) {
	key := CanonicalKey(tuple)
	h := xxhash.Sum64String(key)
	for _, id := range k.buckets[h] {
		if k.keys[id] == key {
			return id, false
		}
	}
	id := len(k.keys)
	cp := make([]Value, len(tuple))
	copy(cp, tuple)
	k.keys = append(k.keys, key)
	k.tuples = append(k.tuples, cp)
	k.buckets[h] = append(k.buckets[h], id)
	return id, true
}

// Lookup returns the id of tuple, if present.
func (k *KeyIndex) Lookup(tuple []Value) (int, bool) {
	key := CanonicalKey(tuple)
	for _, id := range k.buckets[xxhash.Sum64String(key)] {
		if k.keys[id] == key {
			return id, true
		}
	}
	return -1, false
}

// Len returns the number of distinct tuples.
func (k *KeyIndex) Len() int { return len(k.keys) }

// Tuple returns the tuple stored under id.
func (k *KeyIndex) Tuple(id int) []Value {
	out := make([]Value, len(k.tuples[id]))
	copy(out, k.tuples[id])
	return out
}

// Strings renders the tuple stored under id for error messages.
func (k *KeyIndex) Strings(id int) []string {
	out := make([]string, len(k.tuples[id]))
	for i, v := range k.tuples[id] {
		out[i] = v.String()
	}
	return out
}

// GroupRows groups the rows of t by the values of the given columns. It
// returns the index of distinct tuples and, for every tuple id, the row
// indices that carry it in ascending order. With no columns every row falls
// into a single group.
func GroupRows(t *Table, columns []int) (*KeyIndex, [][]int) {
	idx := NewKeyIndex()
	var groups [][]int
	tuple := make([]Value, len(columns))
	for r := 0; r < t.rows; r++ {
		for i, c := range columns {
			tuple[i] = t.columns[c].values[r]
		}
		id, isNew := idx.Add(tuple)
		if isNew {
			groups = append(groups, nil)
		}
		groups[id] = append(groups[id], r)
	}
	return idx, groups
}
