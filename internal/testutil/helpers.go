// Package testutil holds helpers shared by tests across packages.
package testutil

import (
	"os"
	"strings"
	"testing"
)

// RequireNetlink skips the test if the CLOUD_AGENT_NETLINK_TEST environment
// variable is not set. Tests that talk to the kernel only run where a
// netlink socket is available.
func RequireNetlink(t *testing.T) {
	t.Helper()
	if os.Getenv("CLOUD_AGENT_NETLINK_TEST") == "" {
		t.Skip("Skipping test: requires CLOUD_AGENT_NETLINK_TEST environment")
	}
}

// Doc joins lines into a newline-terminated document.
func Doc(lines ...string) string {
	return strings.Join(lines, "\n") + "\n"
}

// WriteFileAtomic writes data next to path and renames it into place, the
// way a remounted context image appears to watchers.
func WriteFileAtomic(t *testing.T, path string, data string) {
	t.Helper()
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(data), 0o644); err != nil {
		t.Fatalf("write %s: %v", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatalf("rename %s: %v", tmp, err)
	}
}
