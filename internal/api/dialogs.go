package api

import (
	"context"
	"net/http"

	"github.com/iksnae/branch-chat/internal"
)

// ChatPath is the streaming chat endpoint, relative to the API root
const ChatPath = "/dialog/chat"

type starResult struct {
	IsStarred bool `json:"isStarred"`
}

type commentRequest struct {
	ID      int64  `json:"id"`
	Comment string `json:"comment"`
}

// ChatSync asks a question on the non-streaming endpoint
func (c *Client) ChatSync(ctx context.Context, req internal.CreateDialogRequest) (*internal.SyncDialogResult, error) {
	var out internal.SyncDialogResult
	if err := c.do(ctx, http.MethodPost, "/dialog/chat-sync", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ToggleStar flips the starred flag of a conversation and returns the new value
func (c *Client) ToggleStar(ctx context.Context, conversationID int64) (bool, error) {
	var out starResult
	if err := c.do(ctx, http.MethodPut, idPath("/dialog/conversations/%s/star", conversationID), nil, &out); err != nil {
		return false, err
	}
	return out.IsStarred, nil
}

// UpdateComment sets the comment of a conversation
func (c *Client) UpdateComment(ctx context.Context, conversationID int64, comment string) error {
	return c.do(ctx, http.MethodPut, "/dialog/conversations/comment", commentRequest{ID: conversationID, Comment: comment}, nil)
}

// DeleteComment clears the comment of a conversation
func (c *Client) DeleteComment(ctx context.Context, conversationID int64) error {
	return c.do(ctx, http.MethodDelete, idPath("/dialog/conversations/%s", conversationID), nil, nil)
}

// Ancestors returns the server's root-to-target conversation chain
func (c *Client) Ancestors(ctx context.Context, conversationID int64) ([]internal.Conversation, error) {
	var out []internal.Conversation
	if err := c.do(ctx, http.MethodGet, idPath("/dialog/conversations/%s/ancestors", conversationID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
