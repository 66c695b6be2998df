package internal

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// CacheManager keeps the last fetched sessions, categories and dialog trees
// so the tree can be rendered offline
type CacheManager struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// TreeSnapshot is a cached dialog tree payload
type TreeSnapshot struct {
	Data      *DialogTreeData
	FetchedAt time.Time
}

// NewCacheManager opens the snapshot cache at path
func NewCacheManager(path string) (*CacheManager, error) {
	db, err := OpenDatabase(path)
	if err != nil {
		return nil, &CacheError{Path: path, Op: "open", Err: err}
	}
	return &CacheManager{db: db, path: path, now: time.Now}, nil
}

// Close closes the underlying database
func (cm *CacheManager) Close() error {
	return cm.db.Close()
}

// Path returns the database path
func (cm *CacheManager) Path() string {
	return cm.path
}

// DB exposes the database handle for diagnostics
func (cm *CacheManager) DB() *sql.DB {
	return cm.db
}

// SaveTree stores the dialog tree payload of a session, replacing any previous snapshot
func (cm *CacheManager) SaveTree(data *DialogTreeData) error {
	if data == nil {
		return nil
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return &CacheError{Path: cm.path, Op: "write", Err: err}
	}

	_, err = cm.db.Exec(`
		INSERT OR REPLACE INTO dialog_trees (session_id, payload, fetched_at)
		VALUES (?, ?, ?)`,
		data.SessionID, string(payload), cm.now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return &CacheError{Path: cm.path, Op: "write", Err: err}
	}

	if data.SessionInfo.ID != 0 {
		if err := cm.saveSession(cm.db, data.SessionInfo); err != nil {
			return err
		}
	}
	return nil
}

// LoadTree returns the cached dialog tree of a session; ok is false on a miss
func (cm *CacheManager) LoadTree(sessionID int64) (*TreeSnapshot, bool, error) {
	var payload, fetchedAt string
	err := cm.db.QueryRow(`SELECT payload, fetched_at FROM dialog_trees WHERE session_id = ?`, sessionID).
		Scan(&payload, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, &CacheError{Path: cm.path, Op: "read", Err: err}
	}

	var data DialogTreeData
	if err := json.Unmarshal([]byte(payload), &data); err != nil {
		return nil, false, &CacheError{Path: cm.path, Op: "read", Err: err}
	}
	snap := &TreeSnapshot{Data: &data}
	snap.FetchedAt, _ = time.Parse(time.RFC3339Nano, fetchedAt)
	return snap, true, nil
}

// SaveSessions replaces the cached session list
func (cm *CacheManager) SaveSessions(sessions []Session) error {
	tx, err := cm.db.Begin()
	if err != nil {
		return &CacheError{Path: cm.path, Op: "write", Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM sessions`); err != nil {
		return &CacheError{Path: cm.path, Op: "write", Err: err}
	}
	for _, s := range sessions {
		if err := cm.saveSession(tx, s); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return &CacheError{Path: cm.path, Op: "write", Err: err}
	}
	return nil
}

type execer interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
}

func (cm *CacheManager) saveSession(db execer, s Session) error {
	_, err := db.Exec(`
		INSERT OR REPLACE INTO sessions (id, title, summary, category_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		s.ID, s.Title, s.Summary, s.CategoryID, s.CreatedAt.String(), s.UpdatedAt.String())
	if err != nil {
		return &CacheError{Path: cm.path, Op: "write", Err: err}
	}
	return nil
}

// LoadSessions returns the cached sessions, most recently updated first
func (cm *CacheManager) LoadSessions() ([]Session, error) {
	rows, err := cm.db.Query(`
		SELECT id, title, summary, category_id, created_at, updated_at
		FROM sessions ORDER BY updated_at DESC, id DESC`)
	if err != nil {
		return nil, &CacheError{Path: cm.path, Op: "read", Err: err}
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var s Session
		var createdAt, updatedAt string
		if err := rows.Scan(&s.ID, &s.Title, &s.Summary, &s.CategoryID, &createdAt, &updatedAt); err != nil {
			return nil, &CacheError{Path: cm.path, Op: "read", Err: err}
		}
		s.CreatedAt, _ = ParseTimestamp(createdAt)
		s.UpdatedAt, _ = ParseTimestamp(updatedAt)
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, &CacheError{Path: cm.path, Op: "read", Err: err}
	}
	return sessions, nil
}

// SaveCategories replaces the cached category list
func (cm *CacheManager) SaveCategories(categories []Category) error {
	tx, err := cm.db.Begin()
	if err != nil {
		return &CacheError{Path: cm.path, Op: "write", Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM categories`); err != nil {
		return &CacheError{Path: cm.path, Op: "write", Err: err}
	}
	for _, c := range categories {
		_, err := tx.Exec(`
			INSERT OR REPLACE INTO categories (id, name, created_at, updated_at)
			VALUES (?, ?, ?, ?)`,
			c.ID, c.Name, c.CreatedAt.String(), c.UpdatedAt.String())
		if err != nil {
			return &CacheError{Path: cm.path, Op: "write", Err: err}
		}
	}
	if err := tx.Commit(); err != nil {
		return &CacheError{Path: cm.path, Op: "write", Err: err}
	}
	return nil
}

// LoadCategories returns the cached categories ordered by name
func (cm *CacheManager) LoadCategories() ([]Category, error) {
	rows, err := cm.db.Query(`SELECT id, name, created_at, updated_at FROM categories ORDER BY name, id`)
	if err != nil {
		return nil, &CacheError{Path: cm.path, Op: "read", Err: err}
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var c Category
		var createdAt, updatedAt string
		if err := rows.Scan(&c.ID, &c.Name, &createdAt, &updatedAt); err != nil {
			return nil, &CacheError{Path: cm.path, Op: "read", Err: err}
		}
		c.CreatedAt, _ = ParseTimestamp(createdAt)
		c.UpdatedAt, _ = ParseTimestamp(updatedAt)
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, &CacheError{Path: cm.path, Op: "read", Err: err}
	}
	return categories, nil
}

// SaveSelection remembers the selected conversation of a session
func (cm *CacheManager) SaveSelection(sessionID, conversationID int64) error {
	_, err := cm.db.Exec(`
		INSERT OR REPLACE INTO selections (session_id, conversation_id, updated_at)
		VALUES (?, ?, ?)`,
		sessionID, conversationID, cm.now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return &CacheError{Path: cm.path, Op: "write", Err: err}
	}
	return nil
}

// LoadSelection returns the remembered selection of a session
func (cm *CacheManager) LoadSelection(sessionID int64) (int64, bool, error) {
	var conversationID int64
	err := cm.db.QueryRow(`SELECT conversation_id FROM selections WHERE session_id = ?`, sessionID).Scan(&conversationID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, &CacheError{Path: cm.path, Op: "read", Err: err}
	}
	return conversationID, true, nil
}

// DeleteSession drops everything cached for a session
func (cm *CacheManager) DeleteSession(sessionID int64) error {
	for _, q := range []string{
		`DELETE FROM sessions WHERE id = ?`,
		`DELETE FROM dialog_trees WHERE session_id = ?`,
		`DELETE FROM selections WHERE session_id = ?`,
	} {
		if _, err := cm.db.Exec(q, sessionID); err != nil {
			return &CacheError{Path: cm.path, Op: "write", Err: err}
		}
	}
	return nil
}

// ClearCache removes every cached row
func (cm *CacheManager) ClearCache() error {
	for _, table := range []string{"sessions", "categories", "dialog_trees", "selections"} {
		if _, err := cm.db.Exec("DELETE FROM " + table); err != nil {
			return &CacheError{Path: cm.path, Op: "write", Err: err}
		}
	}
	return nil
}
