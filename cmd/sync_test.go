package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iksnae/branch-chat/internal"
	"github.com/iksnae/branch-chat/testutil"
)

func TestSyncCommand(t *testing.T) {
	fs := testutil.NewFakeServer(t)
	a := fs.AddSession("First", 0)
	fs.AddConversation(a, nil, "q1", "a1")
	b := fs.AddSession("Second", 0)
	_, c := fs.AddConversation(b, nil, "q2", "a2")
	fs.AddConversation(b, &c, "q3", "a3")

	cli := newTestCLI(t, fs)
	rawDir := filepath.Join(cli.home, "raw")
	out, err := cli.run("sync", "--out", rawDir, "--concurrency", "2")
	if err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	if !strings.Contains(out, "Synced 2 session(s), 6 turn(s)") {
		t.Errorf("unexpected output: %q", out)
	}

	for _, id := range []int64{a, b} {
		if _, err := os.Stat(filepath.Join(rawDir, "session_"+idArg(id)+".json")); err != nil {
			t.Errorf("raw tree for session %d missing: %v", id, err)
		}
	}

	// Everything is now readable offline
	fs.Close()
	out, err = cli.run("tree", idArg(b), "--offline")
	if err != nil {
		t.Fatalf("offline tree failed: %v", err)
	}
	if !strings.Contains(out, "q3") {
		t.Errorf("synced tree not served from cache:\n%s", out)
	}
}

func TestSyncCommand_SelectedSessions(t *testing.T) {
	fs := testutil.NewFakeServer(t)
	a := fs.AddSession("First", 0)
	fs.AddConversation(a, nil, "q1", "a1")
	fs.AddSession("Skipped", 0)

	cli := newTestCLI(t, fs)
	if _, err := cli.run("sync", idArg(a)); err != nil {
		t.Fatalf("sync failed: %v", err)
	}

	cm, err := internal.NewCacheManager(cli.cacheDB)
	if err != nil {
		t.Fatal(err)
	}
	defer cm.Close()

	counts, err := internal.TableCounts(cm.DB())
	if err != nil {
		t.Fatal(err)
	}
	if counts["dialog_trees"] != 1 {
		t.Errorf("dialog_trees = %d, want 1", counts["dialog_trees"])
	}
}

func TestSyncCommand_UnknownSession(t *testing.T) {
	fs := testutil.NewFakeServer(t)
	cli := newTestCLI(t, fs)
	if _, err := cli.run("sync", "5555"); err == nil {
		t.Error("syncing an unknown session should fail")
	}
}

func TestSyncCommand_InvalidConcurrency(t *testing.T) {
	fs := testutil.NewFakeServer(t)
	fs.AddSession("Only", 0)

	for _, n := range []string{"0", "-2"} {
		cli := newTestCLI(t, fs)
		_, err := cli.run("sync", "--concurrency", n)
		if err == nil || !strings.Contains(err.Error(), "--concurrency") {
			t.Errorf("sync --concurrency %s: error = %v, want a --concurrency error", n, err)
		}
	}
	for _, r := range fs.Requests {
		if strings.HasSuffix(r, "/tree") {
			t.Errorf("no tree should be fetched, got %q", r)
		}
	}
}
