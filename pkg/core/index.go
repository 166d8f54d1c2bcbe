package core

import (
	"fmt"
	"iter"

	"propindex/pkg/common"
	"propindex/pkg/core/avl"
	"propindex/pkg/core/memory"
)

// Index 抽象接口，屏蔽 AVL 与 B-Tree 的差异
type Index interface {
	Insert(key common.KeyType, record *common.Property) error
	InsertProperty(p *common.Property) (common.KeyType, error)
	DeleteByKey(key common.KeyType) bool
	FindByKey(key common.KeyType) (*common.Property, error)
	FindByCriteria(c common.Criteria) ([]*common.Property, error)
	InOrder() iter.Seq2[common.KeyType, *common.Property]
	Len() int
	Type() string // "AVL", "BTree"
}

var (
	_ Index = (*avl.Tree)(nil)
	_ Index = (*memory.MemTable)(nil)
)

// NewIndex builds an empty engine by config name.
func NewIndex(engine string, degree int) (Index, error) {
	switch engine {
	case "", "avl":
		return avl.New(), nil
	case "btree":
		return memory.NewMemTable(degree), nil
	default:
		return nil, fmt.Errorf("unknown index engine %q", engine)
	}
}
