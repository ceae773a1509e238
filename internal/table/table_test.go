package table_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kristoferb/lox/internal/table"
)

type strKey string

func (k strKey) HashKey() uint32 {
	var h uint32 = 2166136261
	for i := 0; i < len(k); i++ {
		h ^= uint32(k[i])
		h *= 16777619
	}
	return h
}

func TestSetGetDelete(t *testing.T) {
	tbl := table.New[strKey, int]()

	isNew := tbl.Set("a", 1)
	assert.True(t, isNew)
	isNew = tbl.Set("a", 2)
	assert.False(t, isNew)

	v, ok := tbl.Get("a")
	require.True(t, ok)
	assert.Equal(t, 2, v)

	_, ok = tbl.Get("missing")
	assert.False(t, ok)

	assert.True(t, tbl.Delete("a"))
	_, ok = tbl.Get("a")
	assert.False(t, ok)
	assert.False(t, tbl.Delete("a"))
}

// TestTombstoneProbing ensures a delete doesn't break lookups for a
// different key that collided along the same probe chain. At capacity 8,
// "three" and "six" both hash to slot 3, so "six" is stored one slot past it.
func TestTombstoneProbing(t *testing.T) {
	tbl := table.New[strKey, int]()
	tbl.Set("one", 1)
	tbl.Set("three", 3)
	tbl.Set("six", 6)

	tbl.Delete("three")

	v, ok := tbl.Get("one")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	v, ok = tbl.Get("six")
	require.True(t, ok)
	assert.Equal(t, 6, v)
}

func TestGrowPreservesEntries(t *testing.T) {
	tbl := table.New[strKey, int]()
	const n = 200
	for i := 0; i < n; i++ {
		tbl.Set(strKey(fmt.Sprintf("key%d", i)), i)
	}
	assert.Equal(t, n, tbl.Len())
	for i := 0; i < n; i++ {
		v, ok := tbl.Get(strKey(fmt.Sprintf("key%d", i)))
		require.True(t, ok)
		assert.Equal(t, i, v)
	}
}

func TestFilterKeys(t *testing.T) {
	tbl := table.New[strKey, int]()
	tbl.Set("keep", 1)
	tbl.Set("drop", 2)

	tbl.FilterKeys(func(k strKey, v int) bool { return k == "keep" })

	_, ok := tbl.Get("keep")
	assert.True(t, ok)
	_, ok = tbl.Get("drop")
	assert.False(t, ok)
}

func TestEach(t *testing.T) {
	tbl := table.New[strKey, int]()
	tbl.Set("a", 1)
	tbl.Set("b", 2)

	seen := map[strKey]int{}
	tbl.Each(func(k strKey, v int) { seen[k] = v })
	assert.Equal(t, map[strKey]int{"a": 1, "b": 2}, seen)
}

