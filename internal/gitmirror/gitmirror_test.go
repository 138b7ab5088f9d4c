package gitmirror

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ghvault-cli/internal/logger"
)

// fakeGit writes a shell script standing in for the git binary. It logs each
// invocation to callLog, exits probe calls with GHVAULT_TEST_PROBE_EXIT, and
// creates a .git directory on clone.
func fakeGit(t *testing.T) (gitPath, callLog string) {
	t.Helper()

	dir := t.TempDir()
	callLog = filepath.Join(dir, "calls.log")
	gitPath = filepath.Join(dir, "git")

	script := `#!/bin/sh
echo "$@" >> "` + callLog + `"
case "$1" in
ls-remote)
  exit "${GHVAULT_TEST_PROBE_EXIT:-0}"
  ;;
clone)
  mkdir -p "$3/.git"
  exit "${GHVAULT_TEST_CLONE_EXIT:-0}"
  ;;
fetch)
  exit "${GHVAULT_TEST_FETCH_EXIT:-0}"
  ;;
esac
exit 0
`
	require.NoError(t, os.WriteFile(gitPath, []byte(script), 0o755))
	return gitPath, callLog
}

func calls(t *testing.T, callLog string) []string {
	t.Helper()
	data, err := os.ReadFile(callLog)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

func newTestSyncer(t *testing.T) (*Syncer, string) {
	t.Helper()
	gitPath, callLog := fakeGit(t)
	return &Syncer{gitPath: gitPath, log: logger.Discard{}}, callLog
}

func TestSyncer_Sync(t *testing.T) {
	t.Run("clones when no local copy exists", func(t *testing.T) {
		s, callLog := newTestSyncer(t)
		dir := filepath.Join(t.TempDir(), "hello")

		res := s.Sync(context.Background(), "hello", "https://example.com/hello.git", dir, false)

		assert.Equal(t, StatusCloned, res.Status)
		assert.False(t, res.Failed())

		got := calls(t, callLog)
		require.Len(t, got, 2)
		assert.Contains(t, got[0], "ls-remote")
		assert.Contains(t, got[1], "clone")
	})

	t.Run("updates an existing clone with a pruning fetch", func(t *testing.T) {
		s, callLog := newTestSyncer(t)
		dir := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git"), 0o755))

		res := s.Sync(context.Background(), "hello", "https://example.com/hello.git", dir, false)

		assert.Equal(t, StatusUpdated, res.Status)

		got := calls(t, callLog)
		require.Len(t, got, 2)
		assert.Equal(t, "fetch --all --force --tags --prune", got[1])
	})

	t.Run("skip-existing performs no subprocess work", func(t *testing.T) {
		s, callLog := newTestSyncer(t)
		dir := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git"), 0o755))

		res := s.Sync(context.Background(), "hello", "https://example.com/hello.git", dir, true)

		assert.Equal(t, StatusSkippedExisting, res.Status)
		assert.Empty(t, calls(t, callLog))
	})

	t.Run("empty remote produces no directory and no error", func(t *testing.T) {
		t.Setenv("GHVAULT_TEST_PROBE_EXIT", "128")
		s, callLog := newTestSyncer(t)
		dir := filepath.Join(t.TempDir(), "hello.wiki")

		res := s.Sync(context.Background(), "hello.wiki", "https://example.com/hello.wiki.git", dir, false)

		assert.Equal(t, StatusSkippedEmpty, res.Status)
		assert.NoError(t, res.Err)
		assert.NoDirExists(t, dir)

		got := calls(t, callLog)
		require.Len(t, got, 1)
		assert.Contains(t, got[0], "ls-remote")
	})

	t.Run("probe failure other than empty-remote is reported as failed", func(t *testing.T) {
		t.Setenv("GHVAULT_TEST_PROBE_EXIT", "1")
		s, _ := newTestSyncer(t)
		dir := filepath.Join(t.TempDir(), "hello")

		res := s.Sync(context.Background(), "hello", "https://example.com/hello.git", dir, false)

		assert.True(t, res.Failed())
		require.Error(t, res.Err)
		assert.Contains(t, res.Err.Error(), "ls-remote")
	})

	t.Run("clone failure echoes the command in the diagnostic", func(t *testing.T) {
		t.Setenv("GHVAULT_TEST_CLONE_EXIT", "2")
		s, _ := newTestSyncer(t)
		dir := filepath.Join(t.TempDir(), "hello")

		res := s.Sync(context.Background(), "hello", "https://example.com/hello.git", dir, false)

		assert.True(t, res.Failed())
		require.Error(t, res.Err)
		assert.Contains(t, res.Err.Error(), "git clone https://example.com/hello.git")
	})
}
