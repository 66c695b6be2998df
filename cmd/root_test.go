package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iksnae/branch-chat/internal"
	"github.com/iksnae/branch-chat/testutil"
)

func TestRootCommand(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr bool
		want    string
	}{
		{
			name: "version flag",
			args: []string{"--version"},
			want: "dev",
		},
		{
			name: "help flag",
			args: []string{"--help"},
			want: "branch-chat",
		},
		{
			name:    "unknown command",
			args:    []string{"nonexistent-command"},
			wantErr: true,
		},
		{
			name:    "invalid turn layout",
			args:    []string{"sessions", "--turns", "sideways"},
			wantErr: true,
		},
		{
			name:    "invalid base url",
			args:    []string{"sessions", "--base-url", "ftp://example.com"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cli := newTestCLI(t, nil)
			out, err := cli.run(tt.args...)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Execute() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.want != "" && !strings.Contains(out, tt.want) {
				t.Errorf("output %q does not contain %q", out, tt.want)
			}
		})
	}
}

func TestRootCommand_BuiltinFlagsBeforeOthers(t *testing.T) {
	cli := newTestCLI(t, nil)

	tests := []struct {
		args []string
		want string
	}{
		{args: []string{"--version", "--cache", cli.cacheDB}, want: "dev"},
		{args: []string{"--help", "--cache", cli.cacheDB}, want: "Usage:"},
	}

	for _, tt := range tests {
		t.Run(tt.args[0], func(t *testing.T) {
			resetFlags(rootCmd)
			var out bytes.Buffer
			rootCmd.SetOut(&out)
			rootCmd.SetErr(&out)
			rootCmd.SetArgs(tt.args)

			if err := rootCmd.Execute(); err != nil {
				t.Fatalf("Execute(%v) error = %v", tt.args, err)
			}
			if !strings.Contains(out.String(), tt.want) {
				t.Errorf("output %q does not contain %q", out.String(), tt.want)
			}
		})
	}
}

func TestRootCommand_ConfigErrorType(t *testing.T) {
	cli := newTestCLI(t, nil)
	_, err := cli.run("sessions", "--turns", "sideways")

	var cfgErr *internal.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %T: %v", err, err)
	}
}

func TestRootCommand_ConfigFile(t *testing.T) {
	fs := testutil.NewFakeServer(t)
	fs.AddSession("From config", 0)

	cli := newTestCLI(t, nil)
	path := filepath.Join(cli.home, "custom.yaml")
	data := "base_url: " + fs.APIURL() + "\nturns: merged\nidle_timeout: 5s\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := cli.run("sessions", "--config", path)
	if err != nil {
		t.Fatalf("sessions failed: %v", err)
	}
	if !strings.Contains(out, "From config") {
		t.Errorf("expected session from configured server, got %q", out)
	}
	if cfg.Layout() != internal.LayoutMerged {
		t.Errorf("Layout() = %v, want merged", cfg.Layout())
	}
}

func TestRootCommand_FlagsOverrideEnv(t *testing.T) {
	fs := testutil.NewFakeServer(t)
	fs.AddSession("Flag wins", 0)

	cli := newTestCLI(t, fs)
	t.Setenv("BRANCH_CHAT_BASE_URL", "http://127.0.0.1:1/api")

	out, err := cli.run("sessions")
	if err != nil {
		t.Fatalf("sessions failed: %v", err)
	}
	if !strings.Contains(out, "Flag wins") {
		t.Errorf("expected --base-url to override the environment, got %q", out)
	}
}

func TestParseID(t *testing.T) {
	tests := []struct {
		arg     string
		want    int64
		wantErr bool
	}{
		{arg: "42", want: 42},
		{arg: "0", wantErr: true},
		{arg: "-3", wantErr: true},
		{arg: "abc", wantErr: true},
	}
	for _, tt := range tests {
		got, err := parseID("session", tt.arg)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseID(%q) error = %v, wantErr %v", tt.arg, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("parseID(%q) = %d, want %d", tt.arg, got, tt.want)
		}
	}
}
