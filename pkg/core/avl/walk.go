package avl

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"

	"propindex/pkg/common"
)

var ErrInvariant = errors.New("avl invariant violated")

// Side tells which link of its parent a node hangs from.
type Side int

const (
	SideRoot Side = iota
	SideLeft
	SideRight
)

func (s Side) String() string {
	switch s {
	case SideLeft:
		return "L"
	case SideRight:
		return "R"
	default:
		return "root"
	}
}

// NodeView is a read-only snapshot of one node handed to Walk callbacks.
type NodeView struct {
	Key      common.KeyType
	Property *common.Property
	Depth    int
	Height   int
	Balance  int
	Side     Side
}

// Walk visits nodes in pre-order, left before right, until fn returns false.
func (t *Tree) Walk(fn func(v NodeView) bool) {
	walk(t.root, 0, SideRoot, fn)
}

func walk(n *node, depth int, side Side, fn func(v NodeView) bool) bool {
	if n == nil {
		return true
	}
	v := NodeView{
		Key:      n.key,
		Property: n.record,
		Depth:    depth,
		Height:   n.height,
		Balance:  balance(n),
		Side:     side,
	}
	if !fn(v) {
		return false
	}
	return walk(n.left, depth+1, SideLeft, fn) && walk(n.right, depth+1, SideRight, fn)
}

// Check verifies cached heights, balance factors, key order and node count.
func (t *Tree) Check() error {
	count := 0
	if _, err := check(t.root, &count); err != nil {
		return err
	}
	if count != t.size {
		return fmt.Errorf("%w: counted %d nodes, size is %d", ErrInvariant, count, t.size)
	}

	prev := math.Inf(-1)
	for key := range t.InOrder() {
		if key < prev {
			return fmt.Errorf("%w: key %v follows %v in order", ErrInvariant, key, prev)
		}
		prev = key
	}
	return nil
}

func check(n *node, count *int) (int, error) {
	if n == nil {
		return 0, nil
	}
	*count++
	if n.record == nil {
		return 0, fmt.Errorf("%w: node %v has no record", ErrInvariant, n.key)
	}
	lh, err := check(n.left, count)
	if err != nil {
		return 0, err
	}
	rh, err := check(n.right, count)
	if err != nil {
		return 0, err
	}
	h := 1 + max(lh, rh)
	if n.height != h {
		return 0, fmt.Errorf("%w: node %v caches height %d, actual %d", ErrInvariant, n.key, n.height, h)
	}
	if bf := lh - rh; bf > 1 || bf < -1 {
		return 0, fmt.Errorf("%w: node %v has balance %d", ErrInvariant, n.key, bf)
	}
	return h, nil
}

// Fingerprint hashes the shape, keys and records of the tree in pre-order.
func (t *Tree) Fingerprint() uint64 {
	d := xxhash.New()
	var buf [9]byte
	var visit func(n *node)
	visit = func(n *node) {
		if n == nil {
			buf[0] = 0
			_, _ = d.Write(buf[:1])
			return
		}
		buf[0] = 1
		binary.BigEndian.PutUint64(buf[1:], math.Float64bits(n.key))
		_, _ = d.Write(buf[:])
		_, _ = d.WriteString(n.record.String())
		visit(n.left)
		visit(n.right)
	}
	visit(t.root)
	return d.Sum64()
}
