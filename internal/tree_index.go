package internal

// TreeIndex maps node ids to nodes and parents for repeated lookups on large trees.
// The tree must not change after indexing.
type TreeIndex struct {
	root    *TurnNode
	nodes   map[NodeID]*TurnNode
	parents map[NodeID]*TurnNode
	leading map[int64]*TurnNode
}

// NewTreeIndex indexes the tree rooted at root
func NewTreeIndex(root *TurnNode) *TreeIndex {
	idx := &TreeIndex{
		root:    root,
		nodes:   make(map[NodeID]*TurnNode),
		parents: make(map[NodeID]*TurnNode),
		leading: make(map[int64]*TurnNode),
	}
	Walk(root, func(node *TurnNode) bool {
		if _, dup := idx.nodes[node.ID]; dup {
			LogWarn("Node %s indexed twice, keeping the first", node.ID)
			return true
		}
		idx.nodes[node.ID] = node
		if _, ok := idx.leading[node.ConversationID]; !ok {
			idx.leading[node.ConversationID] = node
		}
		for _, child := range node.Children {
			if child != nil {
				if _, ok := idx.parents[child.ID]; !ok {
					idx.parents[child.ID] = node
				}
			}
		}
		return true
	})
	return idx
}

// Root returns the indexed root
func (idx *TreeIndex) Root() *TurnNode {
	return idx.root
}

// Len returns the number of indexed nodes
func (idx *TreeIndex) Len() int {
	return len(idx.nodes)
}

// Node returns the node with the given id
func (idx *TreeIndex) Node(id NodeID) (*TurnNode, bool) {
	node, ok := idx.nodes[id]
	return node, ok
}

// Parent returns the parent of the node with the given id
func (idx *TreeIndex) Parent(id NodeID) (*TurnNode, bool) {
	parent, ok := idx.parents[id]
	return parent, ok
}

// Conversation returns the leading node of a conversation
func (idx *TreeIndex) Conversation(conversationID int64) (*TurnNode, bool) {
	node, ok := idx.leading[conversationID]
	return node, ok
}

// AncestorPath is AncestorPath backed by the parent map
func (idx *TreeIndex) AncestorPath(conversationID int64) []*TurnNode {
	node, ok := idx.leading[conversationID]
	if !ok {
		return nil
	}

	var reversed []*TurnNode
	for cur := node; cur != nil; {
		reversed = append(reversed, cur)
		parent, ok := idx.parents[cur.ID]
		if !ok {
			break
		}
		cur = parent
	}

	path := make([]*TurnNode, len(reversed))
	for i, n := range reversed {
		path[len(reversed)-1-i] = n
	}
	return extendToTrailing(path)
}

// Depth returns the number of edges between the root and the node
func (idx *TreeIndex) Depth(id NodeID) int {
	depth := 0
	for {
		parent, ok := idx.parents[id]
		if !ok {
			return depth
		}
		depth++
		id = parent.ID
	}
}
