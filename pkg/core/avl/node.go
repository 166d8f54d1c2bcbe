package avl

import "propindex/pkg/common"

// node owns its children exclusively; height is cached and must be reset
// by whoever changes the links beneath it.
type node struct {
	key    common.KeyType
	record *common.Property
	left   *node
	right  *node
	height int
}

func newNode(key common.KeyType, record *common.Property) *node {
	return &node{key: key, record: record, height: 1}
}
