package memory

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propindex/pkg/common"
)

func TestMemTableInsertFindDelete(t *testing.T) {
	mt := NewMemTable(8)
	p := &common.Property{City: "Cali", Bedrooms: 2, Bathrooms: 1, Price: 500, SurfaceTotal: 50}

	key, err := mt.InsertProperty(p)
	require.NoError(t, err)
	assert.Equal(t, 10.0, key)

	got, err := mt.FindByKey(10)
	require.NoError(t, err)
	assert.Same(t, p, got)

	assert.True(t, mt.DeleteByKey(10))
	assert.False(t, mt.DeleteByKey(10))
	_, err = mt.FindByKey(10)
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.Equal(t, 0, mt.Len())
}

func TestMemTableCollisionUsesSecondaryMetric(t *testing.T) {
	mt := NewMemTable(4)
	a := &common.Property{City: "A", Price: 100, SurfaceTotal: 10}
	b := &common.Property{City: "B", Bedrooms: 3, Bathrooms: 2, Price: 50, SurfaceTotal: 5}

	_, err := mt.InsertProperty(a)
	require.NoError(t, err)
	key, err := mt.InsertProperty(b)
	require.NoError(t, err)

	assert.Equal(t, 5.0, key)
	assert.Equal(t, 2, mt.Len())
}

func TestMemTableEqualKeysKeepArrivalOrder(t *testing.T) {
	mt := NewMemTable(4)
	first := &common.Property{City: "first", Price: 1, SurfaceTotal: 1}
	second := &common.Property{City: "second", Price: 1, SurfaceTotal: 1}
	require.NoError(t, mt.Insert(3, first))
	require.NoError(t, mt.Insert(3, second))

	got, err := mt.FindByKey(3)
	require.NoError(t, err)
	assert.Same(t, first, got)

	require.True(t, mt.DeleteByKey(3))
	got, err = mt.FindByKey(3)
	require.NoError(t, err)
	assert.Same(t, second, got)
}

func TestMemTableFindByCriteria(t *testing.T) {
	mt := NewMemTable(4)
	for _, k := range []common.KeyType{1, 5, 7, 15, 20} {
		require.NoError(t, mt.Insert(k, &common.Property{City: "X", Price: k, SurfaceTotal: 1}))
	}

	got, err := mt.FindByCriteria(common.Criteria{MinMetric: 5, MaxMetric: 15})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 5.0, got[0].Price)
	assert.Equal(t, 7.0, got[1].Price)

	all, err := mt.FindByCriteria(common.NewCriteria())
	require.NoError(t, err)
	assert.Len(t, all, 5)

	_, err = mt.FindByCriteria(common.Criteria{MinMetric: 2, MaxMetric: 1})
	assert.ErrorIs(t, err, common.ErrMalformedCriteria)
}

func TestMemTableRejectsNonFiniteKeys(t *testing.T) {
	mt := NewMemTable(8)
	p := &common.Property{Price: 1, SurfaceTotal: 1}
	for _, k := range []common.KeyType{math.NaN(), math.Inf(1), math.Inf(-1)} {
		assert.ErrorIs(t, mt.Insert(k, p), common.ErrInvalidRecord)
	}

	_, err := mt.InsertProperty(&common.Property{Price: 1e308, SurfaceTotal: 1e-300})
	assert.ErrorIs(t, err, common.ErrInvalidRecord)
	assert.Equal(t, 0, mt.Len())
}
