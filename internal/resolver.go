package internal

// Resolve finds the conversation whose prompt equals the submitted text in a
// freshly synthesized tree. When several conversations share the prompt the
// first one in pre-order wins.
func Resolve(root *TurnNode, submittedPrompt string) (int64, bool) {
	var match *TurnNode
	Walk(root, func(node *TurnNode) bool {
		if node.Leading() && node.Prompt == submittedPrompt {
			match = node
			return false
		}
		return true
	})
	if match == nil {
		return 0, false
	}
	return match.ConversationID, true
}

// ResolveCompletion returns ids unchanged when the server reported them.
// Sentinel ids are filled from the tree by prompt match; ok is false on a miss.
func ResolveCompletion(ids CompletionIDs, root *TurnNode, submittedPrompt string) (CompletionIDs, bool) {
	if !ids.IsSentinel() {
		return ids, true
	}

	convID, ok := Resolve(root, submittedPrompt)
	if !ok {
		LogDebug("No conversation matches the submitted prompt")
		return ids, false
	}

	resolved := CompletionIDs{DialogID: UnknownID, ConversationID: convID}
	if node := FindConversation(root, convID); node != nil {
		resolved.DialogID = node.DialogID
	}
	return resolved, true
}
