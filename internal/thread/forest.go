// Package thread assembles flat comment records into reply trees and
// flattens them back into display order.
package thread

import (
	"slices"

	"github.com/fragmede/chatter/internal/api"
)

// Node is a comment plus the replies attached to it. A node owns its
// children; the link back to the parent is the comment's Parent id only.
type Node struct {
	api.Comment
	Children []*Node
}

// Descendants returns the number of nodes below n.
func (n *Node) Descendants() int {
	total := 0
	for _, c := range n.Children {
		total += 1 + c.Descendants()
	}
	return total
}

// BuildForest turns records into an ordered forest. A record whose parent
// resolves to another record becomes that record's child; a record with no
// parent, or with a parent that is not among records, becomes a root. Roots
// and siblings keep their input order, and every record appears exactly once.
//
// When ids repeat, the parent lookup resolves to the last record carrying the
// id. Records caught in a parent cycle would be unreachable from any root;
// the earliest record of each such cycle is promoted to a root instead.
func BuildForest(records []api.Comment) []*Node {
	nodes := make([]*Node, len(records))
	byID := make(map[int]*Node, len(records))
	for i, r := range records {
		nodes[i] = &Node{Comment: r}
		byID[r.ID] = nodes[i]
	}

	var roots []*Node
	for _, n := range nodes {
		if parent := parentOf(n, byID); parent != nil {
			parent.Children = append(parent.Children, n)
		} else {
			roots = append(roots, n)
		}
	}

	return promoteCycles(nodes, roots, byID)
}

func parentOf(n *Node, byID map[int]*Node) *Node {
	if !n.HasParent() {
		return nil
	}
	return byID[n.ParentID()]
}

func promoteCycles(nodes, roots []*Node, byID map[int]*Node) []*Node {
	reached := make(map[*Node]bool, len(nodes))
	var mark func(n *Node)
	mark = func(n *Node) {
		reached[n] = true
		for _, c := range n.Children {
			mark(c)
		}
	}
	for _, r := range roots {
		mark(r)
	}
	if len(reached) == len(nodes) {
		return roots
	}

	order := make(map[*Node]int, len(nodes))
	for i, n := range nodes {
		order[n] = i
	}

	for _, n := range nodes {
		if reached[n] {
			continue
		}
		head := earliestInCycle(n, byID, order)
		parent := parentOf(head, byID)
		parent.Children = slices.DeleteFunc(parent.Children, func(c *Node) bool { return c == head })
		roots = append(roots, head)
		mark(head)
	}

	slices.SortStableFunc(roots, func(a, b *Node) int { return order[a] - order[b] })
	return roots
}

// earliestInCycle walks up from an unreachable node until it loops and
// returns the loop member that came first in the input.
func earliestInCycle(n *Node, byID map[int]*Node, order map[*Node]int) *Node {
	seen := make(map[*Node]bool)
	cur := n
	for !seen[cur] {
		seen[cur] = true
		cur = parentOf(cur, byID)
	}

	head := cur
	for member := parentOf(cur, byID); member != cur; member = parentOf(member, byID) {
		if order[member] < order[head] {
			head = member
		}
	}
	return head
}

// Walk visits every node depth-first in display order.
func Walk(forest []*Node, fn func(n *Node, depth int)) {
	var walk func(nodes []*Node, depth int)
	walk = func(nodes []*Node, depth int) {
		for _, n := range nodes {
			fn(n, depth)
			walk(n.Children, depth+1)
		}
	}
	walk(forest, 0)
}

// Count returns the number of nodes in the forest.
func Count(forest []*Node) int {
	total := 0
	for _, n := range forest {
		total += 1 + n.Descendants()
	}
	return total
}
