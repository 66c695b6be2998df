package internal

import (
	"sort"
)

// TurnLayout selects how a conversation is laid out in the turn tree
type TurnLayout int

const (
	// LayoutDecomposed emits a user node followed by its assistant child
	LayoutDecomposed TurnLayout = iota
	// LayoutMerged emits one node per conversation
	LayoutMerged
)

// ParseTurnLayout maps a config value to a TurnLayout
func ParseTurnLayout(s string) (TurnLayout, bool) {
	switch s {
	case "", "decomposed":
		return LayoutDecomposed, true
	case "merged":
		return LayoutMerged, true
	default:
		return LayoutDecomposed, false
	}
}

func (l TurnLayout) String() string {
	if l == LayoutMerged {
		return "merged"
	}
	return "decomposed"
}

// SynthesizeOption configures Synthesize
type SynthesizeOption func(*Synthesizer)

// WithLayout sets the turn layout
func WithLayout(layout TurnLayout) SynthesizeOption {
	return func(s *Synthesizer) {
		s.layout = layout
	}
}

// WithMergedTurns emits one node per conversation instead of a user/assistant pair
func WithMergedTurns() SynthesizeOption {
	return WithLayout(LayoutMerged)
}

// Synthesizer turns a dialog forest into a turn tree
type Synthesizer struct {
	layout TurnLayout
}

// NewSynthesizer creates a new Synthesizer
func NewSynthesizer(opts ...SynthesizeOption) *Synthesizer {
	s := &Synthesizer{layout: LayoutDecomposed}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Synthesize builds the turn tree for one session's dialogs. It returns nil
// when the root dialog yields no node.
func Synthesize(forest []*Dialog, opts ...SynthesizeOption) *TurnNode {
	return NewSynthesizer(opts...).Synthesize(forest)
}

// pendingDialog is a dialog waiting to be chained, with the node its head attaches to
type pendingDialog struct {
	dialog *Dialog
	forkAt *TurnNode
}

// Synthesize builds the turn tree for one session's dialogs
func (s *Synthesizer) Synthesize(forest []*Dialog) *TurnNode {
	root := findRootDialog(forest)
	if root == nil {
		return nil
	}

	// Flat forests reference parents by id instead of nesting children
	flatChildren := make(map[int64][]*Dialog)
	for _, d := range forest {
		if d != nil && d != root && d.ParentID != nil {
			flatChildren[*d.ParentID] = append(flatChildren[*d.ParentID], d)
		}
	}

	visitedDialogs := make(map[int64]bool)
	seenConversations := make(map[int64]bool)

	var treeRoot *TurnNode
	stack := []pendingDialog{{dialog: root}}

	for len(stack) > 0 {
		item := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		dialog := item.dialog
		if visitedDialogs[dialog.ID] {
			LogWarn("Dialog %d reached twice, skipping", dialog.ID)
			continue
		}
		visitedDialogs[dialog.ID] = true

		head, tail := s.buildChain(dialog, seenConversations)
		children := childDialogs(dialog, flatChildren)

		if head == nil {
			if len(children) > 0 {
				LogDebug("Dialog %d has %d child dialog(s) but no conversations, dropping them", dialog.ID, len(children))
			}
			continue
		}

		if item.forkAt == nil {
			treeRoot = head
		} else {
			item.forkAt.Children = append(item.forkAt.Children, head)
		}

		// Reverse push keeps sibling order on pop
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, pendingDialog{dialog: children[i], forkAt: tail})
		}
	}

	return treeRoot
}

// buildChain creates the nodes of one dialog in creation order and returns
// the first and last node of the chain
func (s *Synthesizer) buildChain(dialog *Dialog, seen map[int64]bool) (head, tail *TurnNode) {
	conversations := make([]Conversation, len(dialog.Conversations))
	copy(conversations, dialog.Conversations)
	sort.SliceStable(conversations, func(i, j int) bool {
		return conversations[i].CreatedAt.Before(conversations[j].CreatedAt.Time)
	})

	for i := range conversations {
		conv := &conversations[i]
		if seen[conv.ID] {
			LogWarn("Conversation %d appears more than once, keeping the first occurrence", conv.ID)
			continue
		}
		seen[conv.ID] = true

		leading, trailing := s.buildConversation(conv, dialog.ID)
		if tail == nil {
			head = leading
		} else {
			tail.Children = append(tail.Children, leading)
		}
		tail = trailing
	}

	return head, tail
}

// buildConversation creates the node(s) for a single conversation
func (s *Synthesizer) buildConversation(conv *Conversation, dialogID int64) (leading, trailing *TurnNode) {
	if conv.DialogID == 0 {
		conv.DialogID = dialogID
	}

	if s.layout == LayoutMerged {
		node := newTurnNode(conv, RoleTurn, conv.Answer)
		return node, node
	}

	user := newTurnNode(conv, RoleUser, conv.Prompt)
	assistant := newTurnNode(conv, RoleAssistant, conv.Answer)
	user.Children = append(user.Children, assistant)
	return user, assistant
}

func newTurnNode(conv *Conversation, role Role, content string) *TurnNode {
	return &TurnNode{
		ID:             NodeID{ConversationID: conv.ID, Role: role},
		Role:           role,
		Content:        content,
		Prompt:         conv.Prompt,
		ConversationID: conv.ID,
		DialogID:       conv.DialogID,
		Title:          conv.Title,
		Summary:        conv.Summary,
		IsStarred:      conv.IsStarred,
		Comment:        conv.Comment,
		CreatedAt:      conv.CreatedAt,
	}
}

// findRootDialog returns the first dialog without a parent, falling back to
// the first element for already-rooted input
func findRootDialog(forest []*Dialog) *Dialog {
	for _, d := range forest {
		if d != nil && d.IsRoot() {
			return d
		}
	}
	for _, d := range forest {
		if d != nil {
			return d
		}
	}
	return nil
}

// childDialogs merges nested children with flat forest entries naming this
// dialog as parent, nested first, without duplicates
func childDialogs(dialog *Dialog, flat map[int64][]*Dialog) []*Dialog {
	nested := dialog.Children
	extra := flat[dialog.ID]
	if len(extra) == 0 {
		return compactDialogs(nested)
	}

	seen := make(map[int64]bool, len(nested)+len(extra))
	children := make([]*Dialog, 0, len(nested)+len(extra))
	for _, group := range [][]*Dialog{nested, extra} {
		for _, child := range group {
			if child == nil || seen[child.ID] {
				continue
			}
			seen[child.ID] = true
			children = append(children, child)
		}
	}
	return children
}

func compactDialogs(dialogs []*Dialog) []*Dialog {
	for _, d := range dialogs {
		if d == nil {
			out := make([]*Dialog, 0, len(dialogs))
			for _, d := range dialogs {
				if d != nil {
					out = append(out, d)
				}
			}
			return out
		}
	}
	return dialogs
}
