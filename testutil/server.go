package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/iksnae/branch-chat/internal"
)

// BaseTime is the creation time of the first object the fake server creates
var BaseTime = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

// FakeServer is an in-memory chat backend speaking the REST envelope and
// the streaming chat protocol
type FakeServer struct {
	*httptest.Server

	mu         sync.Mutex
	nextID     int64
	sessions   []internal.Session
	categories []internal.Category
	forests    map[int64][]*internal.Dialog

	// OmitDoneIDs makes chat streams end without a completion line
	OmitDoneIDs bool
	// ChunkSize splits streamed answers into pieces of this many bytes
	ChunkSize int
	// FailWith makes every REST call answer with this envelope code
	FailWith int
	// Requests records "METHOD path" for every request received
	Requests []string
}

// NewFakeServer starts a fake backend; it is closed with the test
func NewFakeServer(t *testing.T) *FakeServer {
	t.Helper()
	fs := &FakeServer{
		nextID:    100,
		forests:   make(map[int64][]*internal.Dialog),
		ChunkSize: 4,
	}
	fs.Server = httptest.NewServer(http.HandlerFunc(fs.serve))
	t.Cleanup(fs.Close)
	return fs
}

// APIURL returns the API root
func (fs *FakeServer) APIURL() string {
	return fs.URL + "/api"
}

func (fs *FakeServer) newID() int64 {
	fs.nextID++
	return fs.nextID
}

func (fs *FakeServer) stamp(id int64) internal.Timestamp {
	return internal.NewTimestamp(BaseTime.Add(time.Duration(id) * time.Second))
}

// AddCategory creates a category and returns its id
func (fs *FakeServer) AddCategory(name string) int64 {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	id := fs.newID()
	fs.categories = append(fs.categories, internal.Category{ID: id, Name: name, CreatedAt: fs.stamp(id), UpdatedAt: fs.stamp(id)})
	return id
}

// AddSession creates an empty session and returns its id
func (fs *FakeServer) AddSession(title string, categoryID int64) int64 {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.addSessionLocked(title, categoryID)
}

func (fs *FakeServer) addSessionLocked(title string, categoryID int64) int64 {
	id := fs.newID()
	fs.sessions = append(fs.sessions, internal.Session{
		ID: id, Title: title, CategoryID: categoryID,
		CreatedAt: fs.stamp(id), UpdatedAt: fs.stamp(id),
	})
	fs.forests[id] = nil
	return id
}

// SetForest replaces a session's dialogs
func (fs *FakeServer) SetForest(sessionID int64, forest []*internal.Dialog) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.forests[sessionID] = forest
}

// AddConversation appends a conversation as the server would after a chat
// and returns its id
func (fs *FakeServer) AddConversation(sessionID int64, parentConversationID *int64, prompt, answer string) (dialogID, conversationID int64) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.addConversationLocked(sessionID, parentConversationID, prompt, answer)
}

// Conversation returns a stored conversation
func (fs *FakeServer) Conversation(id int64) (internal.Conversation, bool) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	for _, forest := range fs.forests {
		if d, i := findConversation(forest, id); d != nil {
			return d.Conversations[i], true
		}
	}
	return internal.Conversation{}, false
}

func (fs *FakeServer) addConversationLocked(sessionID int64, parent *int64, prompt, answer string) (int64, int64) {
	convID := fs.newID()
	conv := internal.Conversation{
		ID: convID, SessionID: sessionID,
		Prompt: prompt, Answer: answer,
		Title: prompt, CreatedAt: fs.stamp(convID),
	}

	forest := fs.forests[sessionID]
	switch {
	case len(forest) == 0:
		d := &internal.Dialog{ID: fs.newID()}
		conv.DialogID = d.ID
		d.Conversations = []internal.Conversation{conv}
		fs.forests[sessionID] = []*internal.Dialog{d}
		return d.ID, convID

	case parent == nil:
		// Continue the most recent branch
		d := lastDialog(forest[0])
		conv.DialogID = d.ID
		d.Conversations = append(d.Conversations, conv)
		return d.ID, convID
	}

	d, i := findConversation(forest, *parent)
	if d == nil {
		d = lastDialog(forest[0])
		i = len(d.Conversations) - 1
	}
	if i == len(d.Conversations)-1 && len(d.Children) == 0 {
		conv.DialogID = d.ID
		d.Conversations = append(d.Conversations, conv)
		return d.ID, convID
	}
	if i < len(d.Conversations)-1 {
		// Split so the parent becomes the tail of its dialog
		rest := &internal.Dialog{ID: fs.newID(), Conversations: append([]internal.Conversation{}, d.Conversations[i+1:]...), Children: d.Children}
		pid := d.ID
		rest.ParentID = &pid
		for j := range rest.Conversations {
			rest.Conversations[j].DialogID = rest.ID
		}
		for _, child := range rest.Children {
			rid := rest.ID
			child.ParentID = &rid
		}
		d.Conversations = d.Conversations[:i+1]
		d.Children = []*internal.Dialog{rest}
	}
	return fs.forkLocked(d, conv)
}

func (fs *FakeServer) forkLocked(parent *internal.Dialog, conv internal.Conversation) (int64, int64) {
	pid := parent.ID
	child := &internal.Dialog{ID: fs.newID(), ParentID: &pid}
	conv.DialogID = child.ID
	child.Conversations = []internal.Conversation{conv}
	parent.Children = append(parent.Children, child)
	return child.ID, conv.ID
}

func lastDialog(d *internal.Dialog) *internal.Dialog {
	for len(d.Children) > 0 {
		d = d.Children[len(d.Children)-1]
	}
	return d
}

func findConversation(forest []*internal.Dialog, id int64) (*internal.Dialog, int) {
	stack := append([]*internal.Dialog{}, forest...)
	for len(stack) > 0 {
		d := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for i, c := range d.Conversations {
			if c.ID == id {
				return d, i
			}
		}
		stack = append(stack, d.Children...)
	}
	return nil, -1
}

func (fs *FakeServer) serve(w http.ResponseWriter, r *http.Request) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/api")
	fs.Requests = append(fs.Requests, r.Method+" "+path)

	if path == "/dialog/chat" && r.Method == http.MethodPost {
		fs.serveChat(w, r)
		return
	}
	if fs.FailWith != 0 {
		writeEnvelope(w, fs.FailWith, nil, "forced failure")
		return
	}

	parts := strings.Split(strings.Trim(path, "/"), "/")
	switch {
	case r.Method == http.MethodGet && path == "/sessions":
		writeEnvelope(w, 0, fs.sessions, "success")

	case r.Method == http.MethodPost && path == "/sessions":
		var req struct {
			Title      string `json:"title"`
			CategoryID int64  `json:"categoryID"`
		}
		if !decode(w, r, &req) {
			return
		}
		id := fs.addSessionLocked(req.Title, req.CategoryID)
		writeEnvelope(w, 0, map[string]interface{}{"sessionId": id, "title": req.Title}, "success")

	case r.Method == http.MethodDelete && len(parts) == 2 && parts[0] == "sessions":
		id, _ := strconv.ParseInt(parts[1], 10, 64)
		for i, s := range fs.sessions {
			if s.ID == id {
				fs.sessions = append(fs.sessions[:i], fs.sessions[i+1:]...)
				delete(fs.forests, id)
				writeEnvelope(w, 0, nil, "success")
				return
			}
		}
		writeEnvelope(w, 404, nil, "session not found")

	case r.Method == http.MethodGet && len(parts) == 3 && parts[0] == "sessions" && parts[2] == "tree":
		id, _ := strconv.ParseInt(parts[1], 10, 64)
		for _, s := range fs.sessions {
			if s.ID == id {
				writeEnvelope(w, 0, internal.DialogTreeData{SessionID: id, SessionInfo: s, DialogTree: fs.forests[id]}, "success")
				return
			}
		}
		writeEnvelope(w, 404, nil, "session not found")

	case r.Method == http.MethodGet && path == "/categories":
		writeEnvelope(w, 0, map[string]interface{}{"count": len(fs.categories), "list": fs.categories}, "success")

	case r.Method == http.MethodPost && path == "/categories":
		var req struct {
			Name string `json:"name"`
		}
		if !decode(w, r, &req) {
			return
		}
		id := fs.newID()
		fs.categories = append(fs.categories, internal.Category{ID: id, Name: req.Name, CreatedAt: fs.stamp(id), UpdatedAt: fs.stamp(id)})
		writeEnvelope(w, 0, nil, "success")

	case r.Method == http.MethodPut && path == "/categories/update":
		var req struct {
			ID   int64  `json:"id"`
			Name string `json:"name"`
		}
		if !decode(w, r, &req) {
			return
		}
		for i := range fs.categories {
			if fs.categories[i].ID == req.ID {
				fs.categories[i].Name = req.Name
				writeEnvelope(w, 0, nil, "success")
				return
			}
		}
		writeEnvelope(w, 404, nil, "category not found")

	case r.Method == http.MethodDelete && len(parts) == 2 && parts[0] == "categories":
		id, _ := strconv.ParseInt(parts[1], 10, 64)
		for i, c := range fs.categories {
			if c.ID == id {
				fs.categories = append(fs.categories[:i], fs.categories[i+1:]...)
				writeEnvelope(w, 0, nil, "success")
				return
			}
		}
		writeEnvelope(w, 404, nil, "category not found")

	case r.Method == http.MethodGet && len(parts) == 3 && parts[0] == "categories" && parts[2] == "sessions":
		id, _ := strconv.ParseInt(parts[1], 10, 64)
		out := map[string]interface{}{"categoryId": id, "sessions": []internal.Session{}}
		var sessions []internal.Session
		for _, s := range fs.sessions {
			if s.CategoryID == id {
				sessions = append(sessions, s)
			}
		}
		if sessions != nil {
			out["sessions"] = sessions
		}
		for _, c := range fs.categories {
			if c.ID == id {
				out["categoryName"] = c.Name
			}
		}
		writeEnvelope(w, 0, out, "success")

	case r.Method == http.MethodPost && path == "/dialog/chat-sync":
		var req internal.CreateDialogRequest
		if !decode(w, r, &req) {
			return
		}
		answer := EchoAnswer(req.Content)
		dialogID, convID := fs.addConversationLocked(req.SessionID, req.ParentConversationID, req.Content, answer)
		writeEnvelope(w, 0, internal.SyncDialogResult{DialogID: dialogID, ConversationID: convID, Title: req.Content}, "success")

	case r.Method == http.MethodPut && path == "/dialog/conversations/comment":
		var req struct {
			ID      int64  `json:"id"`
			Comment string `json:"comment"`
		}
		if !decode(w, r, &req) {
			return
		}
		if !fs.mutateLocked(req.ID, func(c *internal.Conversation) { c.Comment = req.Comment }) {
			writeEnvelope(w, 404, nil, "conversation not found")
			return
		}
		writeEnvelope(w, 0, nil, "success")

	case r.Method == http.MethodPut && len(parts) == 4 && parts[1] == "conversations" && parts[3] == "star":
		id, _ := strconv.ParseInt(parts[2], 10, 64)
		var starred bool
		if !fs.mutateLocked(id, func(c *internal.Conversation) { c.IsStarred = !c.IsStarred; starred = c.IsStarred }) {
			writeEnvelope(w, 404, nil, "conversation not found")
			return
		}
		writeEnvelope(w, 0, map[string]bool{"isStarred": starred}, "success")

	case r.Method == http.MethodDelete && len(parts) == 3 && parts[1] == "conversations":
		id, _ := strconv.ParseInt(parts[2], 10, 64)
		if !fs.mutateLocked(id, func(c *internal.Conversation) { c.Comment = "" }) {
			writeEnvelope(w, 404, nil, "conversation not found")
			return
		}
		writeEnvelope(w, 0, nil, "success")

	case r.Method == http.MethodGet && len(parts) == 4 && parts[1] == "conversations" && parts[3] == "ancestors":
		id, _ := strconv.ParseInt(parts[2], 10, 64)
		writeEnvelope(w, 0, fs.ancestorsLocked(id), "success")

	default:
		http.NotFound(w, r)
	}
}

func (fs *FakeServer) mutateLocked(id int64, fn func(c *internal.Conversation)) bool {
	for _, forest := range fs.forests {
		if d, i := findConversation(forest, id); d != nil {
			fn(&d.Conversations[i])
			return true
		}
	}
	return false
}

// ancestorsLocked returns the conversations from the root to id, inclusive
func (fs *FakeServer) ancestorsLocked(id int64) []internal.Conversation {
	for _, forest := range fs.forests {
		for _, root := range forest {
			if chain, ok := dialogChain(root, id); ok {
				return chain
			}
		}
	}
	return []internal.Conversation{}
}

func dialogChain(d *internal.Dialog, id int64) ([]internal.Conversation, bool) {
	for i, c := range d.Conversations {
		if c.ID == id {
			return append([]internal.Conversation{}, d.Conversations[:i+1]...), true
		}
	}
	for _, child := range d.Children {
		if rest, ok := dialogChain(child, id); ok {
			return append(append([]internal.Conversation{}, d.Conversations...), rest...), true
		}
	}
	return nil, false
}

func (fs *FakeServer) serveChat(w http.ResponseWriter, r *http.Request) {
	var req internal.CreateDialogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	answer := EchoAnswer(req.Content)
	dialogID, convID := fs.addConversationLocked(req.SessionID, req.ParentConversationID, req.Content, answer)

	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)
	flusher, _ := w.(http.Flusher)

	size := fs.ChunkSize
	if size <= 0 {
		size = len(answer)
	}
	for start := 0; start < len(answer); start += size {
		end := start + size
		if end > len(answer) {
			end = len(answer)
		}
		fmt.Fprintf(w, "event:message\ndata:%s\n\n", answer[start:end])
		if flusher != nil {
			flusher.Flush()
		}
	}
	if !fs.OmitDoneIDs {
		fmt.Fprintf(w, "data:{\"type\":\"done\",\"data\":{\"dialogId\":%d,\"conversationId\":%d}}\n\n", dialogID, convID)
	}
}

// EchoAnswer is the answer the fake server gives to a prompt. It contains
// no spaces so that streamed pieces survive payload trimming.
func EchoAnswer(prompt string) string {
	return "re:" + strings.ReplaceAll(prompt, " ", "_")
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeEnvelope(w, 400, nil, err.Error())
		return false
	}
	return true
}

func writeEnvelope(w http.ResponseWriter, code int, data interface{}, msg string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"code": code, "data": data, "msg": msg})
}
