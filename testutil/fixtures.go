package testutil

import (
	"path/filepath"
	"testing"

	"github.com/iksnae/branch-chat/internal"
)

// DialogTreeJSON is a session tree payload as the server sends it: a root
// dialog of two conversations and two forks from its tail, one of them empty
const DialogTreeJSON = `{
  "sessionId": 7,
  "sessionInfo": {"id": 7, "title": "Trip planning", "summary": "Where to go", "categoryID": 2,
                  "createdAt": "2025-03-01T09:00:00Z", "updatedAt": "2025-03-01T10:00:00Z"},
  "dialogTree": [
    {"dialogId": 1, "parentId": null, "conversations": [
       {"id": 10, "dialogID": 1, "prompt": "Where should I go?", "answer": "Lisbon or Porto.",
        "isStarred": true, "comment": "", "createdAt": "2025-03-01T09:00:00Z"},
       {"id": 11, "dialogID": 1, "prompt": "Tell me about Lisbon", "answer": "Hills and trams.",
        "isStarred": false, "comment": "good", "createdAt": "2025-03-01T09:05:00Z"}
     ],
     "children": [
       {"dialogId": 2, "parentId": 1, "conversations": [
          {"id": 20, "dialogID": 2, "prompt": "And food?", "answer": "Pastel de nata.",
           "isStarred": true, "createdAt": "2025-03-01T09:10:00Z"}
        ], "children": []},
       {"dialogId": 3, "parentId": 1, "conversations": [], "children": []},
       {"dialogId": 4, "parentId": 1, "conversations": [
          {"id": 30, "dialogID": 4, "prompt": "What about Porto?", "answer": "Wine cellars.",
           "isStarred": false, "createdAt": "2025-03-01T09:20:00Z"}
        ], "children": []}
     ]}
  ]
}`

// SampleTreeData decodes DialogTreeJSON
func SampleTreeData(t *testing.T) *internal.DialogTreeData {
	t.Helper()
	var data internal.DialogTreeData
	JSONUnmarshal(t, []byte(DialogTreeJSON), &data)
	return &data
}

// CreateSnapshotFixture creates a snapshot cache holding the sample tree
// and its session, and returns the database path
func CreateSnapshotFixture(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "snapshots.db")
	cm, err := internal.NewCacheManager(path)
	if err != nil {
		t.Fatalf("Failed to open snapshot cache: %v", err)
	}
	defer func() { _ = cm.Close() }()

	data := SampleTreeData(t)
	if err := cm.SaveTree(data); err != nil {
		t.Fatalf("Failed to save sample tree: %v", err)
	}
	if err := cm.SaveCategories([]internal.Category{{ID: 2, Name: "Travel"}}); err != nil {
		t.Fatalf("Failed to save categories: %v", err)
	}
	return path
}
