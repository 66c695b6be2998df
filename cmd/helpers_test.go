package cmd

import (
	"bytes"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/iksnae/branch-chat/testutil"
)

// testCLI runs commands against a fake server with a private home and cache
type testCLI struct {
	t       *testing.T
	fs      *testutil.FakeServer
	home    string
	cacheDB string
}

func newTestCLI(t *testing.T, fs *testutil.FakeServer) *testCLI {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, key := range []string{
		"BRANCH_CHAT_BASE_URL", "BRANCH_CHAT_IDLE_TIMEOUT", "BRANCH_CHAT_REQUEST_TIMEOUT",
		"BRANCH_CHAT_CACHE", "BRANCH_CHAT_TURNS", "BRANCH_CHAT_DEBUG",
	} {
		t.Setenv(key, "")
	}
	return &testCLI{t: t, fs: fs, home: home, cacheDB: filepath.Join(home, "cache.db")}
}

// run executes the root command with args and returns everything written
// to the command's output
func (c *testCLI) run(args ...string) (string, error) {
	c.t.Helper()
	resetFlags(rootCmd)

	full := []string{"--cache", c.cacheDB}
	if c.fs != nil {
		full = append(full, "--base-url", c.fs.APIURL())
	}
	full = append(full, args...)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(full)
	err := rootCmd.Execute()
	return out.String(), err
}

// resetFlags restores every flag of cmd and its children to its default
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func idArg(id int64) string {
	return strconv.FormatInt(id, 10)
}
