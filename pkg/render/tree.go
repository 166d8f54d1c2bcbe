// Package render turns index contents into text for terminals and the API.
package render

import (
	"fmt"
	"iter"

	"github.com/pterm/pterm"
	"github.com/pterm/pterm/putils"

	"propindex/pkg/common"
	"propindex/pkg/core/avl"
)

// Walker exposes a pre-order structural walk, as avl.Tree does.
type Walker interface {
	Walk(fn func(v avl.NodeView) bool)
}

// Label is the text shown for one node.
func Label(key common.KeyType, p *common.Property) string {
	return fmt.Sprintf("Key: %g, Data: %s", key, p)
}

// Levels flattens the walk into a leveled list, left child before right.
// Non-root nodes carry the side they hang from.
func Levels(w Walker) pterm.LeveledList {
	var list pterm.LeveledList
	w.Walk(func(v avl.NodeView) bool {
		text := Label(v.Key, v.Property)
		if v.Side != avl.SideRoot {
			text = v.Side.String() + " " + text
		}
		list = append(list, pterm.LeveledListItem{Level: v.Depth, Text: text})
		return true
	})
	return list
}

// Tree renders the structure of w as an indented tree.
func Tree(w Walker) (string, error) {
	return renderLevels(Levels(w))
}

// Ordered renders a flat key-ordered listing, for engines without an
// inspectable shape.
func Ordered(seq iter.Seq2[common.KeyType, *common.Property]) (string, error) {
	var list pterm.LeveledList
	for k, p := range seq {
		list = append(list, pterm.LeveledListItem{Level: 0, Text: Label(k, p)})
	}
	return renderLevels(list)
}

func renderLevels(list pterm.LeveledList) (string, error) {
	if len(list) == 0 {
		return "(empty)\n", nil
	}
	root := putils.TreeFromLeveledList(list)
	return pterm.DefaultTree.WithRoot(root).Srender()
}
