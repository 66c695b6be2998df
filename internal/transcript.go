package internal

import (
	"fmt"
	"strings"
	"time"
)

// TranscriptBuilder converts ancestor paths into transcripts
type TranscriptBuilder struct {
	now func() time.Time
}

// NewTranscriptBuilder creates a new TranscriptBuilder
func NewTranscriptBuilder() *TranscriptBuilder {
	return &TranscriptBuilder{now: time.Now}
}

// Build creates the transcript from the root of the tree to the target conversation
func (b *TranscriptBuilder) Build(session Session, root *TurnNode, conversationID int64) (*Transcript, error) {
	path := AncestorPath(root, conversationID)
	if len(path) == 0 {
		return nil, fmt.Errorf("conversation %d not found in session %d", conversationID, session.ID)
	}

	conversations := conversationsOnPath(path)
	t := &Transcript{
		ID:        fmt.Sprintf("%d-%d", session.ID, conversationID),
		SessionID: session.ID,
		Title:     session.Title,
		Messages:  MessagesFromConversations(conversations),
	}
	t.Metadata = Metadata{
		TargetConversationID: conversationID,
		MessageCount:         len(t.Messages),
		ConversationCount:    len(conversations),
		SessionSummary:       session.Summary,
		ExportedAt:           b.now().UTC().Format(time.RFC3339),
	}
	return t, nil
}

// conversationsOnPath folds the nodes of a path back into conversations
func conversationsOnPath(path []*TurnNode) []Conversation {
	var out []Conversation
	index := make(map[int64]int)
	for _, node := range path {
		i, ok := index[node.ConversationID]
		if !ok {
			index[node.ConversationID] = len(out)
			out = append(out, Conversation{
				ID:        node.ConversationID,
				DialogID:  node.DialogID,
				Prompt:    node.Prompt,
				Title:     node.Title,
				Summary:   node.Summary,
				IsStarred: node.IsStarred,
				Comment:   node.Comment,
				CreatedAt: node.CreatedAt,
			})
			i = len(out) - 1
		}
		switch node.Role {
		case RoleAssistant, RoleTurn:
			out[i].Answer = node.Content
		}
	}
	return out
}

// MessagesFromConversations expands conversations into user/assistant
// messages. Blank halves are skipped.
func MessagesFromConversations(conversations []Conversation) []Message {
	messages := make([]Message, 0, len(conversations)*2)
	for _, conv := range conversations {
		timestamp := conv.CreatedAt.String()
		if strings.TrimSpace(conv.Prompt) != "" {
			messages = append(messages, Message{
				ConversationID: conv.ID,
				Timestamp:      timestamp,
				Actor:          string(RoleUser),
				Content:        conv.Prompt,
				Starred:        conv.IsStarred,
				Comment:        conv.Comment,
			})
		}
		if strings.TrimSpace(conv.Answer) != "" {
			messages = append(messages, Message{
				ConversationID: conv.ID,
				Timestamp:      timestamp,
				Actor:          string(RoleAssistant),
				Content:        conv.Answer,
				Starred:        conv.IsStarred,
				Comment:        conv.Comment,
			})
		}
	}
	return messages
}

// TranscriptFromAncestors builds a transcript from the server's ancestor chain,
// appending current when the chain does not already hold it
func TranscriptFromAncestors(session Session, ancestors []Conversation, current *Conversation) *Transcript {
	conversations := ancestors
	if current != nil {
		found := false
		for _, a := range ancestors {
			if a.ID == current.ID {
				found = true
				break
			}
		}
		if !found {
			conversations = append(append([]Conversation{}, ancestors...), *current)
		}
	}

	var target int64
	if n := len(conversations); n > 0 {
		target = conversations[n-1].ID
	}

	messages := MessagesFromConversations(conversations)
	return &Transcript{
		ID:        fmt.Sprintf("%d-%d", session.ID, target),
		SessionID: session.ID,
		Title:     session.Title,
		Messages:  messages,
		Metadata: Metadata{
			TargetConversationID: target,
			MessageCount:         len(messages),
			ConversationCount:    len(conversations),
			SessionSummary:       session.Summary,
		},
	}
}
