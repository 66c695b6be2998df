package internal

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDialogTreeData_Decode(t *testing.T) {
	payload := `{
	  "sessionId": 7,
	  "sessionInfo": {"id": 7, "title": "Trip", "categoryID": 2, "createdAt": "2025-03-01T09:00:00"},
	  "dialogTree": [
	    {"dialogId": 1, "parentId": null, "conversations": [
	      {"id": 10, "dialogID": 1, "prompt": "Where?", "answer": "Lisbon", "isStarred": true, "createdAt": 1740819600000}
	    ], "children": [
	      {"dialogId": 2, "parentId": 1, "conversations": [], "children": []}
	    ]}
	  ]
	}`

	var data DialogTreeData
	if err := json.Unmarshal([]byte(payload), &data); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if data.SessionID != 7 || data.SessionInfo.Title != "Trip" {
		t.Errorf("session = %+v", data.SessionInfo)
	}
	if len(data.DialogTree) != 1 {
		t.Fatalf("len(DialogTree) = %d, want 1", len(data.DialogTree))
	}
	root := data.DialogTree[0]
	if !root.IsRoot() {
		t.Error("dialog with null parent should be a root")
	}
	if root.Children[0].IsRoot() {
		t.Error("child dialog should not be a root")
	}
	conv := root.Conversations[0]
	if !conv.IsStarred || conv.Answer != "Lisbon" {
		t.Errorf("conversation = %+v", conv)
	}
	if want := time.UnixMilli(1740819600000).UTC(); !conv.CreatedAt.Equal(want) {
		t.Errorf("CreatedAt = %v, want %v", conv.CreatedAt, want)
	}
}

func TestNodeID_Text(t *testing.T) {
	id := NodeID{ConversationID: 42, Role: RoleAssistant}
	text, err := id.MarshalText()
	if err != nil {
		t.Fatal(err)
	}
	if string(text) != "42:assistant" {
		t.Errorf("MarshalText() = %q", text)
	}

	var back NodeID
	if err := back.UnmarshalText(text); err != nil {
		t.Fatalf("UnmarshalText() error = %v", err)
	}
	if back != id {
		t.Errorf("UnmarshalText() = %+v, want %+v", back, id)
	}

	for _, bad := range []string{"42", "x:user", "42:robot"} {
		if err := back.UnmarshalText([]byte(bad)); err == nil {
			t.Errorf("UnmarshalText(%q) should fail", bad)
		}
	}
}

func TestTurnNode_Leading(t *testing.T) {
	tests := []struct {
		role Role
		want bool
	}{
		{RoleUser, true},
		{RoleTurn, true},
		{RoleAssistant, false},
	}
	for _, tt := range tests {
		if got := (&TurnNode{Role: tt.role}).Leading(); got != tt.want {
			t.Errorf("Leading() for %s = %v, want %v", tt.role, got, tt.want)
		}
	}
}

func TestCompletionIDs_Sentinel(t *testing.T) {
	if !SentinelIDs().IsSentinel() {
		t.Error("SentinelIDs().IsSentinel() = false")
	}
	if (CompletionIDs{DialogID: 1, ConversationID: 2}).IsSentinel() {
		t.Error("real ids reported as sentinel")
	}
	if !(CompletionIDs{}).IsSentinel() {
		t.Error("zero ids should need resolving")
	}
	if !(CompletionIDs{DialogID: 4}).IsSentinel() {
		t.Error("ids without a conversation should need resolving")
	}
}

func TestCreateDialogRequest_OmitsParent(t *testing.T) {
	data, err := json.Marshal(CreateDialogRequest{Content: "hi", SessionID: 3})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"content":"hi","sessionId":3}` {
		t.Errorf("Marshal() = %s", data)
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{in: "2025-03-01T09:00:00Z", want: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)},
		{in: "2025-03-01T09:00:00", want: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)},
		{in: "2025-03-01 09:00:00", want: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)},
		{in: "2025-03-01", want: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)},
		{in: "1740819600000", want: time.UnixMilli(1740819600000).UTC()},
		{in: "", want: time.Time{}},
		{in: "yesterday", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimestamp(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseTimestamp(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && !got.Equal(tt.want) {
				t.Errorf("ParseTimestamp(%q) = %v, want %v", tt.in, got.Time, tt.want)
			}
		})
	}
}

func TestTimestamp_JSON(t *testing.T) {
	var zero Timestamp
	data, err := json.Marshal(zero)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `""` {
		t.Errorf("zero timestamp encodes as %s", data)
	}

	var ts Timestamp
	if err := json.Unmarshal([]byte("null"), &ts); err != nil || !ts.IsZero() {
		t.Errorf("null should decode to the zero time, got %v (%v)", ts, err)
	}
	if err := json.Unmarshal([]byte("true"), &ts); err == nil {
		t.Error("a boolean is not a timestamp")
	}
}
