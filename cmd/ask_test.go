package cmd

import (
	"errors"
	"strings"
	"testing"

	"github.com/iksnae/branch-chat/testutil"
)

func TestAskCommand_StreamsAndSelects(t *testing.T) {
	fs := testutil.NewFakeServer(t)
	sid := fs.AddSession("s", 0)
	_, first := fs.AddConversation(sid, nil, "hello", "hi")

	cli := newTestCLI(t, fs)
	out, err := cli.run("ask", idArg(sid), "what", "now")
	if err != nil {
		t.Fatalf("ask failed: %v", err)
	}
	if !strings.Contains(out, testutil.EchoAnswer("what now")) {
		t.Errorf("streamed answer missing:\n%s", out)
	}
	if !strings.Contains(out, "Selected conversation") {
		t.Errorf("selection not reported:\n%s", out)
	}

	out, err = cli.run("history", idArg(sid))
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if !strings.Contains(out, "hello") || !strings.Contains(out, "what now") {
		t.Errorf("new conversation should continue %d:\n%s", first, out)
	}
}

func TestAskCommand_ForkFromParent(t *testing.T) {
	fs := testutil.NewFakeServer(t)
	sid := fs.AddSession("s", 0)
	_, root := fs.AddConversation(sid, nil, "root question", "a")
	fs.AddConversation(sid, &root, "main line", "b")

	cli := newTestCLI(t, fs)
	if _, err := cli.run("ask", idArg(sid), "side", "track", "--parent", idArg(root)); err != nil {
		t.Fatalf("ask --parent failed: %v", err)
	}

	out, err := cli.run("history", idArg(sid))
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if !strings.Contains(out, "root question") || !strings.Contains(out, "side track") {
		t.Errorf("fork history incomplete:\n%s", out)
	}
	if strings.Contains(out, "main line") {
		t.Errorf("fork history should not include the sibling branch:\n%s", out)
	}
}

func TestAskCommand_SentinelCompletion(t *testing.T) {
	fs := testutil.NewFakeServer(t)
	fs.OmitDoneIDs = true
	sid := fs.AddSession("s", 0)
	fs.AddConversation(sid, nil, "hello", "hi")

	cli := newTestCLI(t, fs)
	out, err := cli.run("ask", idArg(sid), "resolve", "me")
	if err != nil {
		t.Fatalf("ask failed: %v", err)
	}
	if !strings.Contains(out, "Selected conversation") {
		t.Errorf("completion without ids should still select the new conversation:\n%s", out)
	}
}

func TestAskCommand_Sync(t *testing.T) {
	fs := testutil.NewFakeServer(t)
	sid := fs.AddSession("s", 0)

	cli := newTestCLI(t, fs)
	out, err := cli.run("ask", idArg(sid), "first", "--sync")
	if err != nil {
		t.Fatalf("ask --sync failed: %v", err)
	}
	if !strings.Contains(out, testutil.EchoAnswer("first")) {
		t.Errorf("answer missing:\n%s", out)
	}
}

func TestAskCommand_UnknownParent(t *testing.T) {
	fs := testutil.NewFakeServer(t)
	sid := fs.AddSession("s", 0)
	fs.AddConversation(sid, nil, "q", "a")

	cli := newTestCLI(t, fs)
	if _, err := cli.run("ask", idArg(sid), "x", "--parent", "99999"); err == nil {
		t.Error("asking from an unknown parent should fail")
	}
}

func TestAskCommand_Offline(t *testing.T) {
	cli := newTestCLI(t, nil)
	_, err := cli.run("ask", "1", "hello", "--offline")
	if !errors.Is(err, errOfflineCommand) {
		t.Errorf("expected errOfflineCommand, got %v", err)
	}
}
