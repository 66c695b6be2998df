package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/iksnae/branch-chat/internal"
	"github.com/iksnae/branch-chat/testutil"
)

func TestSessionsCommand(t *testing.T) {
	fs := testutil.NewFakeServer(t)
	travel := fs.AddCategory("Travel")
	fs.AddSession("Trip planning", travel)
	fs.AddSession("Loose ends", 0)

	cli := newTestCLI(t, fs)
	out, err := cli.run("sessions")
	if err != nil {
		t.Fatalf("sessions failed: %v", err)
	}

	for _, want := range []string{"Found 2 session(s)", "Travel", "Uncategorized", "Trip planning", "Loose ends"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestSessionsCommand_CategoryFilter(t *testing.T) {
	fs := testutil.NewFakeServer(t)
	travel := fs.AddCategory("Travel")
	fs.AddSession("Trip planning", travel)
	fs.AddSession("Loose ends", 0)

	cli := newTestCLI(t, fs)
	out, err := cli.run("sessions", "--category", "0")
	if err != nil {
		t.Fatalf("sessions failed: %v", err)
	}
	if strings.Contains(out, "Trip planning") {
		t.Errorf("filtered output should not list other categories:\n%s", out)
	}
	if !strings.Contains(out, "Loose ends") {
		t.Errorf("filtered output should list uncategorized sessions:\n%s", out)
	}
}

func TestSessionsCommand_OfflineUsesCache(t *testing.T) {
	fs := testutil.NewFakeServer(t)
	fs.AddSession("Cached session", 0)

	cli := newTestCLI(t, fs)
	if _, err := cli.run("sessions"); err != nil {
		t.Fatalf("online sessions failed: %v", err)
	}

	fs.Close()
	out, err := cli.run("sessions", "--offline")
	if err != nil {
		t.Fatalf("offline sessions failed: %v", err)
	}
	if !strings.Contains(out, "Cached session") {
		t.Errorf("offline listing should come from the cache:\n%s", out)
	}
}

func TestSessionsCommand_ServerError(t *testing.T) {
	fs := testutil.NewFakeServer(t)
	fs.FailWith = 500

	cli := newTestCLI(t, fs)
	if _, err := cli.run("sessions"); err == nil {
		t.Fatal("expected an error from a failing server")
	}
}

func TestSessionCreateAndDelete(t *testing.T) {
	fs := testutil.NewFakeServer(t)
	cli := newTestCLI(t, fs)

	out, err := cli.run("sessions", "create", "--title", "New one")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if !strings.Contains(out, "Created session 101: New one") {
		t.Errorf("unexpected create output: %q", out)
	}

	if _, err := cli.run("sessions", "create"); err == nil {
		t.Error("create without --title should fail")
	}

	out, err = cli.run("sessions", "delete", "101")
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if !strings.Contains(out, "Deleted session 101") {
		t.Errorf("unexpected delete output: %q", out)
	}

	if _, err := cli.run("sessions", "delete", "101"); err == nil {
		t.Error("deleting a missing session should fail")
	}
}

func TestDisplaySessions_Empty(t *testing.T) {
	var buf bytes.Buffer
	displaySessions(&buf, nil, nil)
	if !strings.Contains(buf.String(), "No sessions found") {
		t.Errorf("unexpected output: %q", buf.String())
	}
}

func TestCategoryName(t *testing.T) {
	names := map[int64]string{3: "Work"}
	tests := []struct {
		id   int64
		want string
	}{
		{3, "Work"},
		{0, "Uncategorized"},
		{9, "Category 9"},
	}
	for _, tt := range tests {
		if got := categoryName(names, tt.id); got != tt.want {
			t.Errorf("categoryName(%d) = %q, want %q", tt.id, got, tt.want)
		}
	}
}

func TestFormatWhen_Zero(t *testing.T) {
	if got := formatWhen(internal.Timestamp{}); !strings.Contains(got, "—") {
		t.Errorf("formatWhen(zero) = %q", got)
	}
}
