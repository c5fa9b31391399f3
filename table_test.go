package oba

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func internedTestString(s string) *ObjString {
	return &ObjString{Value: s, hash: fnv1a32(s)}
}

func TestObjTableSetGet(t *testing.T) {
	var tbl ObjTable
	key := internedTestString("x")
	isNew := tbl.Set(key, NumberValue(1))
	assert.True(t, isNew)

	v, ok := tbl.Get(key)
	require.True(t, ok)
	assert.Equal(t, NumberValue(1), v)

	isNew = tbl.Set(key, NumberValue(2))
	assert.False(t, isNew, "overwriting an existing key is not a new entry")
	v, _ = tbl.Get(key)
	assert.Equal(t, NumberValue(2), v)
}

func TestObjTableMissingKey(t *testing.T) {
	var tbl ObjTable
	_, ok := tbl.Get(internedTestString("absent"))
	assert.False(t, ok)
}

func TestObjTableDelete(t *testing.T) {
	var tbl ObjTable
	key := internedTestString("x")
	tbl.Set(key, BoolValue(true))
	assert.True(t, tbl.Delete(key))
	_, ok := tbl.Get(key)
	assert.False(t, ok)
	assert.False(t, tbl.Delete(key), "deleting twice reports no entry the second time")
}

func TestObjTableGrowsPastLoadFactor(t *testing.T) {
	var tbl ObjTable
	const n = 200
	keys := make([]*ObjString, n)
	for i := 0; i < n; i++ {
		keys[i] = internedTestString(fmt.Sprintf("key-%d", i))
		tbl.Set(keys[i], NumberValue(float64(i)))
	}
	assert.Equal(t, n, tbl.Len())
	for i, k := range keys {
		v, ok := tbl.Get(k)
		require.True(t, ok)
		assert.Equal(t, NumberValue(float64(i)), v)
	}
}

func TestObjTableTombstoneKeepsProbeChainIntact(t *testing.T) {
	var tbl ObjTable
	a, b := internedTestString("a"), internedTestString("b")
	tbl.Set(a, NumberValue(1))
	tbl.Set(b, NumberValue(2))
	tbl.Delete(a)
	v, ok := tbl.Get(b)
	require.True(t, ok)
	assert.Equal(t, NumberValue(2), v)
}
