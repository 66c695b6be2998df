// Package chat holds the state of one open session: its turn tree, the
// selected conversation and the stream in flight.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/iksnae/branch-chat/internal"
	"github.com/iksnae/branch-chat/internal/stream"
)

var (
	// ErrOffline is returned by operations that need the server while reading from the cache
	ErrOffline = errors.New("not available offline")
	// ErrNoSelection is returned when an operation needs a selected conversation
	ErrNoSelection = errors.New("no conversation selected")
	// ErrNotLoaded is returned before the first successful Load
	ErrNotLoaded = errors.New("session not loaded")
)

// API is the part of the REST client a view uses
type API interface {
	SessionTree(ctx context.Context, sessionID int64) (*internal.DialogTreeData, error)
	ChatSync(ctx context.Context, req internal.CreateDialogRequest) (*internal.SyncDialogResult, error)
	ToggleStar(ctx context.Context, conversationID int64) (bool, error)
	UpdateComment(ctx context.Context, conversationID int64, comment string) error
	DeleteComment(ctx context.Context, conversationID int64) error
	Ancestors(ctx context.Context, conversationID int64) ([]internal.Conversation, error)
}

// Streamer starts chat streams
type Streamer interface {
	Start(ctx context.Context, payload interface{}, handlers stream.Handlers) *stream.Handle
}

// Snapshots persists fetched trees and selections
type Snapshots interface {
	SaveTree(data *internal.DialogTreeData) error
	LoadTree(sessionID int64) (*internal.TreeSnapshot, bool, error)
	SaveSelection(sessionID, conversationID int64) error
	LoadSelection(sessionID int64) (int64, bool, error)
}

// View is the explicit context of one open session
type View struct {
	sessionID int64
	api       API
	streamer  Streamer
	snapshots Snapshots
	layout    internal.TurnLayout
	offline   bool

	mu        sync.Mutex
	session   internal.Session
	root      *internal.TurnNode
	index     *internal.TreeIndex
	selected  int64
	hasSel    bool
	inFlight  *stream.Handle
	fromCache bool
}

// Option configures a View
type Option func(*View)

// WithSnapshots stores every fetched tree and selection
func WithSnapshots(s Snapshots) Option {
	return func(v *View) {
		v.snapshots = s
	}
}

// WithLayout sets the turn layout used when synthesizing
func WithLayout(layout internal.TurnLayout) Option {
	return func(v *View) {
		v.layout = layout
	}
}

// WithOffline reads trees from the snapshots instead of the server
func WithOffline(offline bool) Option {
	return func(v *View) {
		v.offline = offline
	}
}

// NewView creates the context for one session
func NewView(sessionID int64, api API, streamer Streamer, opts ...Option) *View {
	v := &View{
		sessionID: sessionID,
		api:       api,
		streamer:  streamer,
		layout:    internal.LayoutDecomposed,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// SessionID returns the id of the session
func (v *View) SessionID() int64 {
	return v.sessionID
}

// Load fetches the session tree and rebuilds the turn tree. The current
// selection is kept when it still exists, otherwise the stored selection or
// the latest conversation is selected.
func (v *View) Load(ctx context.Context) error {
	data, fromCache, err := v.fetch(ctx)
	if err != nil {
		return err
	}

	root := internal.Synthesize(data.DialogTree, internal.WithLayout(v.layout))
	index := internal.NewTreeIndex(root)

	v.mu.Lock()
	defer v.mu.Unlock()

	v.session = data.SessionInfo
	if v.session.ID == 0 {
		v.session.ID = v.sessionID
	}
	v.root = root
	v.index = index
	v.fromCache = fromCache

	if v.hasSel {
		if _, ok := index.Conversation(v.selected); ok {
			return nil
		}
		internal.LogDebug("Selected conversation %d is gone, reselecting", v.selected)
		v.hasSel = false
	}

	if v.snapshots != nil {
		stored, ok, err := v.snapshots.LoadSelection(v.sessionID)
		if err != nil {
			internal.LogWarn("Failed to read stored selection: %v", err)
		} else if ok {
			if _, found := index.Conversation(stored); found {
				v.selected, v.hasSel = stored, true
				return nil
			}
		}
	}

	if latest, ok := internal.LatestNodeID(root); ok {
		v.selected, v.hasSel = latest, true
	}
	return nil
}

func (v *View) fetch(ctx context.Context) (*internal.DialogTreeData, bool, error) {
	if v.offline {
		if v.snapshots == nil {
			return nil, false, fmt.Errorf("session %d: %w: no cache configured", v.sessionID, ErrOffline)
		}
		snap, ok, err := v.snapshots.LoadTree(v.sessionID)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			return nil, false, fmt.Errorf("session %d is not in the cache", v.sessionID)
		}
		internal.LogDebug("Loaded session %d from cache (fetched %s)", v.sessionID, snap.FetchedAt.Format("2006-01-02 15:04:05"))
		return snap.Data, true, nil
	}

	data, err := v.api.SessionTree(ctx, v.sessionID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load session %d: %w", v.sessionID, err)
	}
	if v.snapshots != nil {
		if err := v.snapshots.SaveTree(data); err != nil {
			internal.LogWarn("Failed to cache session %d: %v", v.sessionID, err)
		}
	}
	return data, false, nil
}

// Session returns the session info of the last load
func (v *View) Session() internal.Session {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.session
}

// Tree returns the turn tree of the last load, nil for an empty session
func (v *View) Tree() *internal.TurnNode {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.root
}

// FromCache reports whether the last load was served by the snapshot cache
func (v *View) FromCache() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.fromCache
}

// Selected returns the selected conversation
func (v *View) Selected() (int64, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.selected, v.hasSel
}

// Select makes conversationID the selected conversation
func (v *View) Select(conversationID int64) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.index == nil {
		return ErrNotLoaded
	}
	if _, ok := v.index.Conversation(conversationID); !ok {
		return fmt.Errorf("conversation %d is not in session %d", conversationID, v.sessionID)
	}
	v.selected, v.hasSel = conversationID, true
	v.storeSelection(conversationID)
	return nil
}

// storeSelection must be called with mu held
func (v *View) storeSelection(conversationID int64) {
	if v.snapshots == nil {
		return
	}
	if err := v.snapshots.SaveSelection(v.sessionID, conversationID); err != nil {
		internal.LogWarn("Failed to store selection: %v", err)
	}
}

// AncestorIDs returns the conversation ids from the root to the selection
func (v *View) AncestorIDs() []int64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.hasSel || v.index == nil {
		return nil
	}
	path := v.index.AncestorPath(v.selected)
	ids := make([]int64, 0, len(path))
	for _, node := range path {
		if len(ids) == 0 || ids[len(ids)-1] != node.ConversationID {
			ids = append(ids, node.ConversationID)
		}
	}
	return ids
}

// StarredIDs returns the starred conversation ids of the tree
func (v *View) StarredIDs() []int64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return internal.StarredNodeIDs(v.root)
}

// Transcript returns the chat history leading to the selection
func (v *View) Transcript() (*internal.Transcript, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.root == nil {
		return nil, ErrNotLoaded
	}
	if !v.hasSel {
		return nil, ErrNoSelection
	}
	return internal.NewTranscriptBuilder().Build(v.session, v.root, v.selected)
}

// RemoteTranscript builds the chat history from the server's ancestor chain
func (v *View) RemoteTranscript(ctx context.Context) (*internal.Transcript, error) {
	if v.offline {
		return nil, ErrOffline
	}
	v.mu.Lock()
	selected, hasSel, session := v.selected, v.hasSel, v.session
	v.mu.Unlock()
	if !hasSel {
		return nil, ErrNoSelection
	}

	ancestors, err := v.api.Ancestors(ctx, selected)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch ancestors of %d: %w", selected, err)
	}
	return internal.TranscriptFromAncestors(session, ancestors, nil), nil
}

// AskResult is the outcome of a question
type AskResult struct {
	StreamID uuid.UUID
	IDs      internal.CompletionIDs
	Answer   string
	// Resolved is false when the new conversation could not be located
	Resolved bool
}

// Ask streams a question, forking from parent when it is set. The answer is
// forwarded to onChunk as it arrives. Afterwards the tree is re-fetched and
// the new conversation selected.
func (v *View) Ask(ctx context.Context, prompt string, parent *int64, onChunk func(string)) (*AskResult, error) {
	if v.offline {
		return nil, ErrOffline
	}
	if strings.TrimSpace(prompt) == "" {
		return nil, errors.New("prompt is empty")
	}

	req := internal.CreateDialogRequest{Content: prompt, SessionID: v.sessionID, ParentConversationID: parent}
	var answer strings.Builder
	handlers := stream.Handlers{
		OnChunk: func(content string) {
			answer.WriteString(content)
			if onChunk != nil {
				onChunk(content)
			}
		},
	}

	v.mu.Lock()
	if v.inFlight != nil {
		v.mu.Unlock()
		return nil, internal.ErrStreamInFlight
	}
	h := v.streamer.Start(ctx, req, handlers)
	v.inFlight = h
	v.mu.Unlock()

	ids, err := h.Wait()

	v.mu.Lock()
	v.inFlight = nil
	v.mu.Unlock()

	result := &AskResult{StreamID: h.ID(), IDs: ids, Answer: answer.String()}
	if err != nil {
		return result, err
	}

	if err := v.Load(ctx); err != nil {
		return result, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	resolved, ok := internal.ResolveCompletion(ids, v.root, prompt)
	if ok {
		if _, found := v.index.Conversation(resolved.ConversationID); !found {
			ok = false
		}
	}
	if !ok {
		internal.LogWarn("Selection could not be restored after the answer")
		return result, nil
	}
	result.IDs = resolved
	result.Resolved = true
	v.selected, v.hasSel = resolved.ConversationID, true
	v.storeSelection(resolved.ConversationID)
	return result, nil
}

// InFlight returns the running stream, if any
func (v *View) InFlight() *stream.Handle {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.inFlight
}

// AskSync asks on the non-streaming endpoint and selects the new conversation
func (v *View) AskSync(ctx context.Context, prompt string, parent *int64) (*internal.SyncDialogResult, error) {
	if v.offline {
		return nil, ErrOffline
	}
	res, err := v.api.ChatSync(ctx, internal.CreateDialogRequest{Content: prompt, SessionID: v.sessionID, ParentConversationID: parent})
	if err != nil {
		return nil, err
	}
	if err := v.Load(ctx); err != nil {
		return res, err
	}
	if err := v.Select(res.ConversationID); err != nil {
		internal.LogWarn("Selection could not be restored: %v", err)
	}
	return res, nil
}

// ToggleStar flips the star of a conversation and reloads the tree
func (v *View) ToggleStar(ctx context.Context, conversationID int64) (bool, error) {
	if v.offline {
		return false, ErrOffline
	}
	starred, err := v.api.ToggleStar(ctx, conversationID)
	if err != nil {
		return false, err
	}
	return starred, v.Load(ctx)
}

// UpdateComment sets the comment of a conversation and reloads the tree
func (v *View) UpdateComment(ctx context.Context, conversationID int64, comment string) error {
	if v.offline {
		return ErrOffline
	}
	if err := v.api.UpdateComment(ctx, conversationID, comment); err != nil {
		return err
	}
	return v.Load(ctx)
}

// DeleteComment clears the comment of a conversation and reloads the tree
func (v *View) DeleteComment(ctx context.Context, conversationID int64) error {
	if v.offline {
		return ErrOffline
	}
	if err := v.api.DeleteComment(ctx, conversationID); err != nil {
		return err
	}
	return v.Load(ctx)
}
