package cmd

import (
	"strings"
	"testing"

	"github.com/iksnae/branch-chat/testutil"
)

func TestHealthcheckCommand(t *testing.T) {
	fs := testutil.NewFakeServer(t)
	fs.AddSession("Alive", 0)

	cli := newTestCLI(t, fs)
	out, err := cli.run("healthcheck", "--details")
	if err != nil {
		t.Fatalf("healthcheck failed: %v\n%s", err, out)
	}

	for _, want := range []string{"Stream idle timeout: 30s", "API reachable, 1 session(s) found", "Snapshot cache ready", "Health check passed", "Alive", cli.cacheDB} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestHealthcheckCommand_APIDown(t *testing.T) {
	fs := testutil.NewFakeServer(t)
	fs.Close()

	cli := newTestCLI(t, fs)
	out, err := cli.run("healthcheck")
	if err == nil {
		t.Fatal("healthcheck should fail when the API is unreachable")
	}
	if !strings.Contains(out, "Health check failed") || !strings.Contains(out, "--offline") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestHealthcheckCommand_Offline(t *testing.T) {
	cli := newTestCLI(t, nil)
	out, err := cli.run("healthcheck", "--offline")
	if err != nil {
		t.Fatalf("offline healthcheck failed: %v", err)
	}
	if !strings.Contains(out, "Skipping API check") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestHealthcheckCommandExists(t *testing.T) {
	found := false
	for _, cmd := range rootCmd.Commands() {
		if cmd.Name() == "healthcheck" {
			found = true
			break
		}
	}

	if !found {
		t.Error("healthcheck command not found in root command")
	}
	if healthcheckCmd.Flag("details") == nil {
		t.Error("healthcheck command should have --details flag")
	}
}
