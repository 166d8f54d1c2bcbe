// Package avl implements the height-balanced index of property listings.
//
// Every structural operation is a recursive rebuild: a call receives a
// subtree, changes it, and returns the (possibly rotated) root that the
// caller stores back into its own child link. A Tree has no internal
// synchronization; hosts serialize access.
package avl

import (
	"fmt"
	"iter"
	"math"

	"propindex/pkg/common"
)

type Tree struct {
	root *node
	size int
}

func New() *Tree {
	return &Tree{}
}

// Len returns the number of nodes.
func (t *Tree) Len() int {
	return t.size
}

// Height returns the height of the root, 0 for an empty tree.
func (t *Tree) Height() int {
	return height(t.root)
}

// Type 与 core.Index 对齐
func (t *Tree) Type() string {
	return "AVL"
}

// Insert stores record under key. Equal keys go to the right subtree.
func (t *Tree) Insert(key common.KeyType, record *common.Property) error {
	if math.IsNaN(key) || math.IsInf(key, 0) {
		return fmt.Errorf("%w: non-finite key %v", common.ErrInvalidRecord, key)
	}
	if record == nil {
		return fmt.Errorf("%w: nil record", common.ErrInvalidRecord)
	}
	t.root = insert(t.root, key, record)
	t.size++
	return nil
}

func insert(n *node, key common.KeyType, record *common.Property) *node {
	if n == nil {
		return newNode(key, record)
	}

	if key < n.key {
		n.left = insert(n.left, key, record)
	} else {
		n.right = insert(n.right, key, record)
	}

	n.resetHeight()
	return rebalanceInsert(n, key)
}

// InsertProperty keys p by its primary metric. When that key is already
// taken, p is inserted once under its secondary metric instead. The key
// actually used is returned. An invalid record leaves the tree untouched.
func (t *Tree) InsertProperty(p *common.Property) (common.KeyType, error) {
	key, err := p.PrimaryMetric()
	if err != nil {
		return 0, err
	}
	if t.find(key) != nil {
		if key, err = p.SecondaryMetric(); err != nil {
			return 0, err
		}
	}
	if err := t.Insert(key, p); err != nil {
		return 0, err
	}
	return key, nil
}

// DeleteByKey removes the first node matching key and reports whether one
// existed. Deleting a missing key leaves the tree unchanged.
func (t *Tree) DeleteByKey(key common.KeyType) bool {
	if math.IsNaN(key) {
		return false
	}
	var deleted bool
	t.root = remove(t.root, key, &deleted)
	if deleted {
		t.size--
	}
	return deleted
}

func remove(n *node, key common.KeyType, deleted *bool) *node {
	if n == nil {
		return nil
	}

	switch {
	case key < n.key:
		n.left = remove(n.left, key, deleted)
	case key > n.key:
		n.right = remove(n.right, key, deleted)
	default:
		*deleted = true
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		var successor *node
		n.right, successor = removeMin(n.right)
		n.key, n.record = successor.key, successor.record
	}

	n.resetHeight()
	return rebalanceDelete(n)
}

// removeMin detaches the leftmost node of n. Unlinking the node itself
// rather than searching its key again keeps duplicate keys apart.
func removeMin(n *node) (*node, *node) {
	if n.left == nil {
		return n.right, n
	}
	var minNode *node
	n.left, minNode = removeMin(n.left)
	n.resetHeight()
	return rebalanceDelete(n), minNode
}

// FindByKey returns the record of the first node matching key on the
// descent from the root.
func (t *Tree) FindByKey(key common.KeyType) (*common.Property, error) {
	if n := t.find(key); n != nil {
		return n.record, nil
	}
	return nil, fmt.Errorf("%w: %v", common.ErrNotFound, key)
}

func (t *Tree) find(key common.KeyType) *node {
	if math.IsNaN(key) {
		return nil
	}
	n := t.root
	for n != nil {
		switch {
		case key < n.key:
			n = n.left
		case key > n.key:
			n = n.right
		default:
			return n
		}
	}
	return nil
}

// FindByCriteria collects, in key order, every record whose key lies in
// [c.MinMetric, c.MaxMetric) and which passes c's field filters.
func (t *Tree) FindByCriteria(c common.Criteria) ([]*common.Property, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	var result []*common.Property
	collect(t.root, c, &result)
	return result, nil
}

func collect(n *node, c common.Criteria, result *[]*common.Property) {
	if n == nil {
		return
	}
	if n.key >= c.MinMetric {
		collect(n.left, c, result)
	}
	if c.InRange(n.key) && c.Match(n.record) {
		*result = append(*result, n.record)
	}
	if n.key < c.MaxMetric {
		collect(n.right, c, result)
	}
}

// InOrder yields (key, record) pairs in ascending key order. Each range
// over the returned sequence walks the tree as it is at that moment.
func (t *Tree) InOrder() iter.Seq2[common.KeyType, *common.Property] {
	return func(yield func(common.KeyType, *common.Property) bool) {
		inOrder(t.root, yield)
	}
}

func inOrder(n *node, yield func(common.KeyType, *common.Property) bool) bool {
	if n == nil {
		return true
	}
	return inOrder(n.left, yield) && yield(n.key, n.record) && inOrder(n.right, yield)
}
