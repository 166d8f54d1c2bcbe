package memory

import (
	"fmt"
	"iter"
	"math"
	"sync"

	"github.com/google/btree"

	"propindex/pkg/common"
)

// Item orders by key, then by insertion sequence so equal keys keep their
// arrival order.
type Item struct {
	Key common.KeyType
	Seq uint64
	Val *common.Property
}

func (i Item) Less(than btree.Item) bool {
	o := than.(Item)
	if i.Key != o.Key {
		return i.Key < o.Key
	}
	return i.Seq < o.Seq
}

// MemTable is an ordered property index over a B-tree. It follows the same
// key derivation and collision rule as the AVL engine.
type MemTable struct {
	tree *btree.BTree
	lock sync.RWMutex
	seq  uint64
}

func NewMemTable(degree int) *MemTable {
	return &MemTable{
		tree: btree.New(degree),
	}
}

func (mt *MemTable) Type() string {
	return "BTree"
}

func (mt *MemTable) Insert(key common.KeyType, val *common.Property) error {
	if math.IsNaN(key) || math.IsInf(key, 0) {
		return fmt.Errorf("%w: non-finite key %v", common.ErrInvalidRecord, key)
	}
	if val == nil {
		return fmt.Errorf("%w: nil record", common.ErrInvalidRecord)
	}
	mt.lock.Lock()
	defer mt.lock.Unlock()

	mt.insertLocked(key, val)
	return nil
}

func (mt *MemTable) insertLocked(key common.KeyType, val *common.Property) {
	mt.seq++
	mt.tree.ReplaceOrInsert(Item{Key: key, Seq: mt.seq, Val: val})
}

func (mt *MemTable) InsertProperty(p *common.Property) (common.KeyType, error) {
	key, err := p.PrimaryMetric()
	if err != nil {
		return 0, err
	}

	mt.lock.Lock()
	defer mt.lock.Unlock()

	if _, ok := mt.firstLocked(key); ok {
		if key, err = p.SecondaryMetric(); err != nil {
			return 0, err
		}
	}
	mt.insertLocked(key, p)
	return key, nil
}

// firstLocked returns the earliest inserted item stored under key.
func (mt *MemTable) firstLocked(key common.KeyType) (Item, bool) {
	var found Item
	ok := false
	mt.tree.AscendGreaterOrEqual(Item{Key: key}, func(i btree.Item) bool {
		item := i.(Item)
		if item.Key == key {
			found, ok = item, true
		}
		return false
	})
	return found, ok
}

func (mt *MemTable) DeleteByKey(key common.KeyType) bool {
	if math.IsNaN(key) {
		return false
	}
	mt.lock.Lock()
	defer mt.lock.Unlock()

	item, ok := mt.firstLocked(key)
	if !ok {
		return false
	}
	mt.tree.Delete(item)
	return true
}

func (mt *MemTable) FindByKey(key common.KeyType) (*common.Property, error) {
	if !math.IsNaN(key) {
		mt.lock.RLock()
		item, ok := mt.firstLocked(key)
		mt.lock.RUnlock()
		if ok {
			return item.Val, nil
		}
	}
	return nil, fmt.Errorf("%w: %v", common.ErrNotFound, key)
}

func (mt *MemTable) FindByCriteria(c common.Criteria) ([]*common.Property, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	mt.lock.RLock()
	defer mt.lock.RUnlock()

	var result []*common.Property
	visit := func(i btree.Item) bool {
		item := i.(Item)
		if c.InRange(item.Key) && c.Match(item.Val) {
			result = append(result, item.Val)
		}
		return true
	}
	if math.IsInf(c.MaxMetric, 1) {
		mt.tree.AscendGreaterOrEqual(Item{Key: c.MinMetric}, visit)
	} else {
		mt.tree.AscendRange(Item{Key: c.MinMetric}, Item{Key: c.MaxMetric}, visit)
	}
	return result, nil
}

func (mt *MemTable) InOrder() iter.Seq2[common.KeyType, *common.Property] {
	return func(yield func(common.KeyType, *common.Property) bool) {
		mt.lock.RLock()
		defer mt.lock.RUnlock()

		mt.tree.Ascend(func(i btree.Item) bool {
			item := i.(Item)
			return yield(item.Key, item.Val)
		})
	}
}

func (mt *MemTable) Len() int {
	mt.lock.RLock()
	defer mt.lock.RUnlock()
	return mt.tree.Len()
}
