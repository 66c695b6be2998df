package internal

import (
	"sort"
)

// Walk visits every node in pre-order, children in stored order. Returning
// false from fn stops the walk.
func Walk(root *TurnNode, fn func(node *TurnNode) bool) {
	if root == nil {
		return
	}
	stack := []*TurnNode{root}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(node) {
			return
		}
		for i := len(node.Children) - 1; i >= 0; i-- {
			if node.Children[i] != nil {
				stack = append(stack, node.Children[i])
			}
		}
	}
}

// CountNodes returns the number of nodes in the tree
func CountNodes(root *TurnNode) int {
	count := 0
	Walk(root, func(*TurnNode) bool {
		count++
		return true
	})
	return count
}

// pathFrame is one level of the explicit depth-first search stack
type pathFrame struct {
	node *TurnNode
	next int // index of the next child to explore
}

// AncestorPath returns the nodes from root to the target conversation,
// inclusive. The path ends on the conversation's trailing node so that a
// decomposed pair contributes both halves. It is empty when the conversation
// is not in the tree.
func AncestorPath(root *TurnNode, conversationID int64) []*TurnNode {
	if root == nil {
		return nil
	}

	frames := []pathFrame{{node: root}}
	for len(frames) > 0 {
		top := &frames[len(frames)-1]

		if top.next == 0 && top.node.ConversationID == conversationID {
			path := make([]*TurnNode, 0, len(frames)+1)
			for _, f := range frames {
				path = append(path, f.node)
			}
			return extendToTrailing(path)
		}

		if top.next < len(top.node.Children) {
			child := top.node.Children[top.next]
			top.next++
			if child != nil {
				frames = append(frames, pathFrame{node: child})
			}
			continue
		}

		// Dead end, backtrack
		frames = frames[:len(frames)-1]
	}

	return nil
}

// extendToTrailing appends the remaining halves of the last node's conversation
func extendToTrailing(path []*TurnNode) []*TurnNode {
	last := path[len(path)-1]
	for {
		var next *TurnNode
		for _, child := range last.Children {
			if child != nil && child.ConversationID == last.ConversationID {
				next = child
				break
			}
		}
		if next == nil {
			return path
		}
		path = append(path, next)
		last = next
	}
}

// AncestorNodeIDs returns the conversation ids along the ancestor path of
// the target, de-duplicated in first-seen order
func AncestorNodeIDs(root *TurnNode, conversationID int64) []int64 {
	path := AncestorPath(root, conversationID)
	ids := make([]int64, 0, len(path))
	seen := make(map[int64]bool, len(path))
	for _, node := range path {
		if seen[node.ConversationID] {
			continue
		}
		seen[node.ConversationID] = true
		ids = append(ids, node.ConversationID)
	}
	return ids
}

// StarredNodeIDs returns the ids of every starred conversation, once each,
// in ascending order
func StarredNodeIDs(root *TurnNode) []int64 {
	seen := make(map[int64]bool)
	ids := []int64{}
	Walk(root, func(node *TurnNode) bool {
		if node.IsStarred && !seen[node.ConversationID] {
			seen[node.ConversationID] = true
			ids = append(ids, node.ConversationID)
		}
		return true
	})
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// LatestNodeID returns the conversation id of the most recently created
// node. Ties keep the first maximum met in pre-order.
func LatestNodeID(root *TurnNode) (int64, bool) {
	var latest *TurnNode
	Walk(root, func(node *TurnNode) bool {
		if latest == nil || node.CreatedAt.After(latest.CreatedAt.Time) {
			latest = node
		}
		return true
	})
	if latest == nil {
		return 0, false
	}
	return latest.ConversationID, true
}

// FindConversation returns the leading node of a conversation, or nil
func FindConversation(root *TurnNode, conversationID int64) *TurnNode {
	var found *TurnNode
	Walk(root, func(node *TurnNode) bool {
		if node.ConversationID == conversationID {
			found = node
			return false
		}
		return true
	})
	return found
}

// Leaves returns the nodes without children in pre-order
func Leaves(root *TurnNode) []*TurnNode {
	var leaves []*TurnNode
	Walk(root, func(node *TurnNode) bool {
		if len(node.Children) == 0 {
			leaves = append(leaves, node)
		}
		return true
	})
	return leaves
}
