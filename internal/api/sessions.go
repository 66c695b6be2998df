package api

import (
	"context"
	"net/http"

	"github.com/iksnae/branch-chat/internal"
)

// CreateSessionRequest is the body of the create-session call
type CreateSessionRequest struct {
	Title      string `json:"title"`
	CategoryID int64  `json:"categoryID"`
}

// CreatedSession is returned when a session is created
type CreatedSession struct {
	SessionID int64  `json:"sessionId"`
	Title     string `json:"title"`
}

// CategorySessions lists the sessions of one category
type CategorySessions struct {
	CategoryID   int64              `json:"categoryId"`
	CategoryName string             `json:"categoryName"`
	Sessions     []internal.Session `json:"sessions"`
}

// CategoryList is the payload of the list-categories call
type CategoryList struct {
	Count int                 `json:"count"`
	List  []internal.Category `json:"list"`
}

// UpdateCategoryRequest renames a category
type UpdateCategoryRequest struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ListSessions returns every session
func (c *Client) ListSessions(ctx context.Context) ([]internal.Session, error) {
	var sessions []internal.Session
	if err := c.do(ctx, http.MethodGet, "/sessions", nil, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// CreateSession creates a session in a category
func (c *Client) CreateSession(ctx context.Context, req CreateSessionRequest) (*CreatedSession, error) {
	var created CreatedSession
	if err := c.do(ctx, http.MethodPost, "/sessions", req, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// DeleteSession deletes a session and its dialogs
func (c *Client) DeleteSession(ctx context.Context, sessionID int64) error {
	return c.do(ctx, http.MethodDelete, idPath("/sessions/%s", sessionID), nil, nil)
}

// SessionTree returns the dialog forest of a session
func (c *Client) SessionTree(ctx context.Context, sessionID int64) (*internal.DialogTreeData, error) {
	var data internal.DialogTreeData
	if err := c.do(ctx, http.MethodGet, idPath("/sessions/%s/tree", sessionID), nil, &data); err != nil {
		return nil, err
	}
	if data.SessionID == 0 {
		data.SessionID = sessionID
	}
	return &data, nil
}

// SessionsByCategory returns the sessions of one category
func (c *Client) SessionsByCategory(ctx context.Context, categoryID int64) (*CategorySessions, error) {
	var out CategorySessions
	if err := c.do(ctx, http.MethodGet, idPath("/categories/%s/sessions", categoryID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListCategories returns every category
func (c *Client) ListCategories(ctx context.Context) ([]internal.Category, error) {
	var out CategoryList
	if err := c.do(ctx, http.MethodGet, "/categories", nil, &out); err != nil {
		return nil, err
	}
	return out.List, nil
}

// CreateCategory creates a category
func (c *Client) CreateCategory(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodPost, "/categories", map[string]string{"name": name}, nil)
}

// UpdateCategory renames a category
func (c *Client) UpdateCategory(ctx context.Context, req UpdateCategoryRequest) error {
	return c.do(ctx, http.MethodPut, "/categories/update", req, nil)
}

// DeleteCategory deletes a category
func (c *Client) DeleteCategory(ctx context.Context, categoryID int64) error {
	return c.do(ctx, http.MethodDelete, idPath("/categories/%s", categoryID), nil, nil)
}
