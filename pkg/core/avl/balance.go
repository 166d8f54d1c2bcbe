package avl

import "propindex/pkg/common"

func height(n *node) int {
	if n == nil {
		return 0
	}
	return n.height
}

func balance(n *node) int {
	if n == nil {
		return 0
	}
	return height(n.left) - height(n.right)
}

func (n *node) resetHeight() {
	n.height = 1 + max(height(n.left), height(n.right))
}

// rotateLeft lifts z.right into z's place and returns it. The caller must
// store the returned root in place of z.
func rotateLeft(z *node) *node {
	if z == nil || z.right == nil {
		return z
	}
	y := z.right
	z.right = y.left
	y.left = z

	z.resetHeight()
	y.resetHeight()
	return y
}

// rotateRight is the mirror of rotateLeft.
func rotateRight(y *node) *node {
	if y == nil || y.left == nil {
		return y
	}
	x := y.left
	y.left = x.right
	x.right = y

	y.resetHeight()
	x.resetHeight()
	return x
}

// rebalanceInsert restores |balance(n)| <= 1 after key was inserted below n.
// Equal keys were routed right, so key == child.key counts as the right side.
func rebalanceInsert(n *node, key common.KeyType) *node {
	bf := balance(n)
	switch {
	case bf > 1 && key < n.left.key:
		return rotateRight(n)
	case bf < -1 && key >= n.right.key:
		return rotateLeft(n)
	case bf > 1:
		n.left = rotateLeft(n.left)
		return rotateRight(n)
	case bf < -1:
		n.right = rotateRight(n.right)
		return rotateLeft(n)
	}
	return n
}

// rebalanceDelete picks the rotation from the child's balance sign, since
// the removed key is no longer in the tree to compare against.
func rebalanceDelete(n *node) *node {
	bf := balance(n)
	switch {
	case bf > 1 && balance(n.left) >= 0:
		return rotateRight(n)
	case bf < -1 && balance(n.right) <= 0:
		return rotateLeft(n)
	case bf > 1:
		n.left = rotateLeft(n.left)
		return rotateRight(n)
	case bf < -1:
		n.right = rotateRight(n.right)
		return rotateLeft(n)
	}
	return n
}
