package render

import (
	"strings"
	"testing"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propindex/pkg/common"
	"propindex/pkg/core/avl"
)

func listing(city string, price, surface float64) *common.Property {
	return &common.Property{City: city, Bedrooms: 2, Bathrooms: 1, Price: price, SurfaceTotal: surface}
}

func TestLevelsFollowStructure(t *testing.T) {
	tree := avl.New()
	for _, k := range []float64{10, 20, 30, 40} {
		require.NoError(t, tree.Insert(k, listing("Cali", k, 1)))
	}

	list := Levels(tree)
	require.Len(t, list, 4)

	levels := make([]int, len(list))
	for i, item := range list {
		levels[i] = item.Level
	}
	assert.Equal(t, []int{0, 1, 1, 2}, levels)
	assert.True(t, strings.HasPrefix(list[0].Text, "Key: 20, Data: {city: Cali"))
	assert.True(t, strings.HasPrefix(list[1].Text, "L Key: 10"))
	assert.True(t, strings.HasPrefix(list[2].Text, "R Key: 30"))
	assert.True(t, strings.HasPrefix(list[3].Text, "R Key: 40"))
}

func TestTreeRendersEveryNode(t *testing.T) {
	tree := avl.New()
	out, err := Tree(tree)
	require.NoError(t, err)
	assert.Equal(t, "(empty)\n", out)

	for _, k := range []float64{5, 3, 8} {
		require.NoError(t, tree.Insert(k, listing("Pasto", k, 1)))
	}
	out, err = Tree(tree)
	require.NoError(t, err)
	out = pterm.RemoveColorFromString(out)
	for _, want := range []string{"Key: 5,", "L Key: 3,", "R Key: 8,"} {
		assert.Contains(t, out, want)
	}
	assert.Less(t, strings.Index(out, "Key: 3,"), strings.Index(out, "Key: 8,"))
}

func TestOrderedListsKeysAscending(t *testing.T) {
	tree := avl.New()
	for _, k := range []float64{2, 1, 3} {
		require.NoError(t, tree.Insert(k, listing("Cali", k, 1)))
	}
	out, err := Ordered(tree.InOrder())
	require.NoError(t, err)
	out = pterm.RemoveColorFromString(out)
	assert.Less(t, strings.Index(out, "Key: 1,"), strings.Index(out, "Key: 2,"))
	assert.Less(t, strings.Index(out, "Key: 2,"), strings.Index(out, "Key: 3,"))
}

func TestTable(t *testing.T) {
	out, err := Table([]*common.Property{listing("Medellín", 300, 100), listing("Cali", 50, 0)})
	require.NoError(t, err)
	out = pterm.RemoveColorFromString(out)
	assert.Contains(t, out, "Medellín")
	assert.Contains(t, out, "3.00")
	assert.Contains(t, out, "Price/Surface")
}
