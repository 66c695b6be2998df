package internal

import (
	"time"
)

// testEpoch is the base creation time of test conversations
var testEpoch = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

// CreateTestConversation creates a conversation created minute minutes after a fixed epoch
func CreateTestConversation(id, dialogID int64, prompt, answer string, minute int) Conversation {
	return Conversation{
		ID:        id,
		DialogID:  dialogID,
		Prompt:    prompt,
		Answer:    answer,
		CreatedAt: NewTimestamp(testEpoch.Add(time.Duration(minute) * time.Minute)),
	}
}

// CreateTestDialog creates a dialog; parent 0 makes it a root
func CreateTestDialog(id, parent int64, conversations ...Conversation) *Dialog {
	d := &Dialog{ID: id, Conversations: conversations}
	if parent != 0 {
		p := parent
		d.ParentID = &p
	}
	return d
}

// CreateTestForest creates a nested forest:
//
//	dialog 1: c1 -> c2
//	  dialog 2: c3 -> c4
//	  dialog 3: c5
//	    dialog 4: (empty)
func CreateTestForest() []*Dialog {
	d1 := CreateTestDialog(1, 0,
		CreateTestConversation(1, 1, "p1", "a1", 1),
		CreateTestConversation(2, 1, "p2", "a2", 2),
	)
	d2 := CreateTestDialog(2, 1,
		CreateTestConversation(3, 2, "p3", "a3", 3),
		CreateTestConversation(4, 2, "p4", "a4", 4),
	)
	d3 := CreateTestDialog(3, 1,
		CreateTestConversation(5, 3, "p5", "a5", 5),
	)
	d4 := CreateTestDialog(4, 3)
	d3.Children = []*Dialog{d4}
	d1.Children = []*Dialog{d2, d3}
	return []*Dialog{d1}
}

// CreateTestTranscript creates a transcript with one conversation
func CreateTestTranscript(sessionID int64) *Transcript {
	return CreateTestTranscriptWithMessages(sessionID, []Message{
		{
			ConversationID: 1,
			Actor:          "user",
			Content:        "Hello, how are you?",
			Timestamp:      testEpoch.Format(time.RFC3339),
		},
		{
			ConversationID: 1,
			Actor:          "assistant",
			Content:        "I'm doing well, thank you!",
			Timestamp:      testEpoch.Format(time.RFC3339),
		},
	})
}

// CreateTestTranscriptWithMessages creates a transcript with custom messages
func CreateTestTranscriptWithMessages(sessionID int64, messages []Message) *Transcript {
	var target int64
	if len(messages) > 0 {
		target = messages[len(messages)-1].ConversationID
	}
	return &Transcript{
		SessionID: sessionID,
		Title:     "Test Conversation",
		Messages:  messages,
		Metadata: Metadata{
			TargetConversationID: target,
			MessageCount:         len(messages),
		},
	}
}
