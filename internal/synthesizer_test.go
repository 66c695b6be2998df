package internal

import (
	"reflect"
	"testing"
)

// preorder returns the node ids of the tree in walk order
func preorder(root *TurnNode) []string {
	var ids []string
	Walk(root, func(node *TurnNode) bool {
		ids = append(ids, node.ID.String())
		return true
	})
	return ids
}

func TestSynthesize_NestedForest(t *testing.T) {
	root := Synthesize(CreateTestForest())
	if root == nil {
		t.Fatal("Synthesize() returned nil")
	}

	if got := CountNodes(root); got != 10 {
		t.Errorf("CountNodes() = %d, want 10", got)
	}

	want := []string{
		"1:user", "1:assistant", "2:user", "2:assistant",
		"3:user", "3:assistant", "4:user", "4:assistant",
		"5:user", "5:assistant",
	}
	if got := preorder(root); !reflect.DeepEqual(got, want) {
		t.Errorf("preorder = %v, want %v", got, want)
	}

	// Both forks hang off the trailing node of dialog 1
	tail := findNode(root, NodeID{ConversationID: 2, Role: RoleAssistant})
	if tail == nil {
		t.Fatal("2:assistant not found")
	}
	if len(tail.Children) != 2 {
		t.Fatalf("fork point has %d children, want 2", len(tail.Children))
	}
	if tail.Children[0].ConversationID != 3 || tail.Children[1].ConversationID != 5 {
		t.Errorf("fork children = %d, %d, want 3, 5", tail.Children[0].ConversationID, tail.Children[1].ConversationID)
	}
}

func TestSynthesize_NodeContent(t *testing.T) {
	root := Synthesize(CreateTestForest())

	user := findNode(root, NodeID{ConversationID: 3, Role: RoleUser})
	assistant := findNode(root, NodeID{ConversationID: 3, Role: RoleAssistant})
	if user == nil || assistant == nil {
		t.Fatal("conversation 3 nodes missing")
	}
	if user.Content != "p3" || assistant.Content != "a3" {
		t.Errorf("contents = %q, %q, want p3, a3", user.Content, assistant.Content)
	}
	if assistant.Prompt != "p3" {
		t.Errorf("assistant.Prompt = %q, want p3", assistant.Prompt)
	}
	if user.DialogID != 2 || assistant.DialogID != 2 {
		t.Errorf("DialogID = %d, %d, want 2", user.DialogID, assistant.DialogID)
	}
	if !user.Leading() || assistant.Leading() {
		t.Error("only the user half should be leading")
	}
}

func TestSynthesize_MergedLayout(t *testing.T) {
	root := Synthesize(CreateTestForest(), WithMergedTurns())

	if got := CountNodes(root); got != 5 {
		t.Errorf("CountNodes() = %d, want 5", got)
	}
	want := []string{"1:turn", "2:turn", "3:turn", "4:turn", "5:turn"}
	if got := preorder(root); !reflect.DeepEqual(got, want) {
		t.Errorf("preorder = %v, want %v", got, want)
	}

	node := FindConversation(root, 4)
	if node.Content != "a4" || node.Prompt != "p4" {
		t.Errorf("merged node = %q/%q, want p4/a4", node.Prompt, node.Content)
	}
}

func TestSynthesize_ChronologicalChain(t *testing.T) {
	// Stored out of order; the chain follows creation time
	forest := []*Dialog{CreateTestDialog(1, 0,
		CreateTestConversation(12, 1, "third", "", 30),
		CreateTestConversation(10, 1, "first", "", 10),
		CreateTestConversation(11, 1, "second", "", 20),
	)}

	root := Synthesize(forest, WithMergedTurns())

	var prompts []string
	for node := root; node != nil; {
		prompts = append(prompts, node.Prompt)
		if len(node.Children) == 0 {
			break
		}
		node = node.Children[0]
	}
	want := []string{"first", "second", "third"}
	if !reflect.DeepEqual(prompts, want) {
		t.Errorf("chain = %v, want %v", prompts, want)
	}
}

func TestSynthesize_Deterministic(t *testing.T) {
	a := Synthesize(CreateTestForest())
	b := Synthesize(CreateTestForest())
	if !reflect.DeepEqual(a, b) {
		t.Error("two syntheses of the same forest differ")
	}
}

func TestSynthesize_DoesNotMutateInput(t *testing.T) {
	forest := []*Dialog{CreateTestDialog(1, 0,
		CreateTestConversation(2, 0, "later", "", 2),
		CreateTestConversation(1, 0, "earlier", "", 1),
	)}
	Synthesize(forest)

	convs := forest[0].Conversations
	if convs[0].ID != 2 || convs[1].ID != 1 {
		t.Error("input conversations were reordered")
	}
	if convs[0].DialogID != 0 {
		t.Error("input conversations were modified")
	}
}

func TestSynthesize_MissingDialogIDFallsBack(t *testing.T) {
	forest := []*Dialog{CreateTestDialog(8, 0, CreateTestConversation(1, 0, "q", "a", 1))}
	root := Synthesize(forest)
	if root.DialogID != 8 {
		t.Errorf("DialogID = %d, want 8", root.DialogID)
	}
}

func TestSynthesize_FlatForest(t *testing.T) {
	forest := []*Dialog{
		CreateTestDialog(1, 0, CreateTestConversation(1, 1, "p1", "a1", 1)),
		CreateTestDialog(2, 1, CreateTestConversation(2, 2, "p2", "a2", 2)),
		CreateTestDialog(3, 1, CreateTestConversation(3, 3, "p3", "a3", 3)),
		CreateTestDialog(4, 2, CreateTestConversation(4, 4, "p4", "a4", 4)),
	}

	root := Synthesize(forest, WithMergedTurns())

	want := []string{"1:turn", "2:turn", "4:turn", "3:turn"}
	if got := preorder(root); !reflect.DeepEqual(got, want) {
		t.Errorf("preorder = %v, want %v", got, want)
	}
	if got := AncestorNodeIDs(root, 4); !reflect.DeepEqual(got, []int64{1, 2, 4}) {
		t.Errorf("AncestorNodeIDs(4) = %v, want [1 2 4]", got)
	}
}

func TestSynthesize_RootNotFirst(t *testing.T) {
	forest := []*Dialog{
		CreateTestDialog(2, 1, CreateTestConversation(2, 2, "child", "", 2)),
		CreateTestDialog(1, 0, CreateTestConversation(1, 1, "root", "", 1)),
	}

	root := Synthesize(forest, WithMergedTurns())
	if root == nil || root.ConversationID != 1 {
		t.Fatalf("root = %v, want conversation 1", root)
	}
	if CountNodes(root) != 2 {
		t.Errorf("CountNodes() = %d, want 2", CountNodes(root))
	}
}

func TestSynthesize_DuplicateConversation(t *testing.T) {
	d1 := CreateTestDialog(1, 0, CreateTestConversation(1, 1, "p1", "a1", 1))
	d2 := CreateTestDialog(2, 1,
		CreateTestConversation(1, 2, "p1 again", "", 2),
		CreateTestConversation(3, 2, "p3", "", 3),
	)
	d1.Children = []*Dialog{d2}

	root := Synthesize([]*Dialog{d1}, WithMergedTurns())

	if got := CountNodes(root); got != 2 {
		t.Errorf("CountNodes() = %d, want 2", got)
	}
	if node := FindConversation(root, 1); node.Prompt != "p1" {
		t.Errorf("kept %q, want the first occurrence", node.Prompt)
	}
}

func TestSynthesize_DialogVisitedTwice(t *testing.T) {
	d2 := CreateTestDialog(2, 1, CreateTestConversation(2, 2, "p2", "", 2))
	d1 := CreateTestDialog(1, 0, CreateTestConversation(1, 1, "p1", "", 1))
	d1.Children = []*Dialog{d2}

	// d2 nested and listed flat
	root := Synthesize([]*Dialog{d1, d2}, WithMergedTurns())
	if got := CountNodes(root); got != 2 {
		t.Errorf("CountNodes() = %d, want 2", got)
	}
}

func TestSynthesize_EmptyForkDropsDescendants(t *testing.T) {
	forest := CreateTestForest()
	// Give the empty dialog 4 a populated child
	d4 := forest[0].Children[1].Children[0]
	d4.Children = []*Dialog{CreateTestDialog(5, 4, CreateTestConversation(9, 5, "orphan", "", 9))}

	root := Synthesize(forest)

	if FindConversation(root, 9) != nil {
		t.Error("descendant of an empty dialog should be dropped")
	}
	if got := CountNodes(root); got != 10 {
		t.Errorf("CountNodes() = %d, want 10", got)
	}
}

func TestSynthesize_EmptyInput(t *testing.T) {
	tests := []struct {
		name   string
		forest []*Dialog
	}{
		{name: "nil forest", forest: nil},
		{name: "nil entries", forest: []*Dialog{nil, nil}},
		{name: "empty root", forest: []*Dialog{CreateTestDialog(1, 0)}},
		{
			name: "empty root with children",
			forest: func() []*Dialog {
				d1 := CreateTestDialog(1, 0)
				d1.Children = []*Dialog{CreateTestDialog(2, 1, CreateTestConversation(1, 2, "p", "a", 1))}
				return []*Dialog{d1}
			}(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if root := Synthesize(tt.forest); root != nil {
				t.Errorf("Synthesize() = %v, want nil", root.ID)
			}
		})
	}
}

func TestParseTurnLayout(t *testing.T) {
	tests := []struct {
		in   string
		want TurnLayout
		ok   bool
	}{
		{"", LayoutDecomposed, true},
		{"decomposed", LayoutDecomposed, true},
		{"merged", LayoutMerged, true},
		{"flat", LayoutDecomposed, false},
	}
	for _, tt := range tests {
		got, ok := ParseTurnLayout(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseTurnLayout(%q) = %v, %v, want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
	if LayoutMerged.String() != "merged" || LayoutDecomposed.String() != "decomposed" {
		t.Error("TurnLayout.String() mismatch")
	}
}
