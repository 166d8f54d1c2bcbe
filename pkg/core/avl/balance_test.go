package avl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propindex/pkg/common"
)

func leaf(key common.KeyType) *node {
	return newNode(key, &common.Property{City: "test", Price: key, SurfaceTotal: 1})
}

func link(n, left, right *node) *node {
	n.left, n.right = left, right
	n.resetHeight()
	return n
}

func TestHeightAndBalanceOfAbsentNode(t *testing.T) {
	assert.Equal(t, 0, height(nil))
	assert.Equal(t, 0, balance(nil))
}

func TestRotateLeft(t *testing.T) {
	// 10 -> 20 (left 15) -> 30
	y := link(leaf(20), leaf(15), leaf(30))
	z := link(leaf(10), nil, y)
	require.Equal(t, 3, z.height)
	require.Equal(t, -2, balance(z))

	root := rotateLeft(z)

	require.Same(t, y, root)
	assert.Equal(t, 20.0, root.key)
	assert.Equal(t, 10.0, root.left.key)
	assert.Equal(t, 15.0, root.left.right.key, "y's left subtree moves under z")
	assert.Equal(t, 30.0, root.right.key)
	assert.Equal(t, 2, root.left.height)
	assert.Equal(t, 3, root.height)
}

func TestRotateRight(t *testing.T) {
	x := link(leaf(20), leaf(10), leaf(25))
	y := link(leaf(30), x, nil)
	require.Equal(t, 2, balance(y))

	root := rotateRight(y)

	require.Same(t, x, root)
	assert.Equal(t, 10.0, root.left.key)
	assert.Equal(t, 30.0, root.right.key)
	assert.Equal(t, 25.0, root.right.left.key)
	assert.Equal(t, 2, root.right.height)
	assert.Equal(t, 3, root.height)
}

func TestRotateWithoutChildReturnsInput(t *testing.T) {
	n := leaf(1)
	assert.Same(t, n, rotateLeft(n))
	assert.Same(t, n, rotateRight(n))
	assert.Nil(t, rotateLeft(nil))
}

func TestRebalanceDeleteUsesChildBalance(t *testing.T) {
	// left child is perfectly balanced: single right rotation.
	n := link(leaf(50), link(leaf(30), leaf(20), leaf(40)), nil)
	root := rebalanceDelete(n)
	assert.Equal(t, 30.0, root.key)
	assert.Equal(t, 50.0, root.right.key)
	assert.Equal(t, 40.0, root.right.left.key)

	// left child leans right: left-right double rotation.
	n = link(leaf(50), link(leaf(30), nil, leaf(40)), nil)
	root = rebalanceDelete(n)
	assert.Equal(t, 40.0, root.key)
	assert.Equal(t, 30.0, root.left.key)
	assert.Equal(t, 50.0, root.right.key)
}
