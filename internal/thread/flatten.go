package thread

// CollapseState tracks collapsed comment IDs.
type CollapseState map[int]bool

// FlatComment is a node flattened from the forest for display.
type FlatComment struct {
	Node        *Node
	Depth       int
	IsCollapsed bool
	ChildCount  int
}

// Flatten converts the forest into a flat list in display order. Children of
// collapsed nodes are skipped; ChildCount still reports every descendant so
// the view can show a [+N] badge.
func Flatten(forest []*Node, cs CollapseState) []FlatComment {
	var result []FlatComment

	var walk func(n *Node, depth int)
	walk = func(n *Node, depth int) {
		collapsed := cs[n.ID] && len(n.Children) > 0
		result = append(result, FlatComment{
			Node:        n,
			Depth:       depth,
			IsCollapsed: collapsed,
			ChildCount:  n.Descendants(),
		})
		if collapsed {
			return
		}
		for _, c := range n.Children {
			walk(c, depth+1)
		}
	}

	for _, n := range forest {
		walk(n, 0)
	}
	return result
}

// FindParentIndex returns the index of the parent comment in the flat list.
func FindParentIndex(comments []FlatComment, currentIdx int) int {
	if currentIdx < 0 || currentIdx >= len(comments) {
		return -1
	}
	depth := comments[currentIdx].Depth
	if depth == 0 {
		return -1
	}
	for i := currentIdx - 1; i >= 0; i-- {
		if comments[i].Depth == depth-1 {
			return i
		}
	}
	return -1
}

// FindNextSiblingIndex returns the index of the next comment at the same depth.
func FindNextSiblingIndex(comments []FlatComment, currentIdx int) int {
	if currentIdx < 0 || currentIdx >= len(comments) {
		return -1
	}
	depth := comments[currentIdx].Depth
	for i := currentIdx + 1; i < len(comments); i++ {
		if comments[i].Depth < depth {
			return -1 // Went up in tree, no more siblings.
		}
		if comments[i].Depth == depth {
			return i
		}
	}
	return -1
}
