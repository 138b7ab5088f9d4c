// Package gitmirror clones and updates repository and wiki mirrors by
// driving the git binary as a subprocess. Git transport details are out of
// scope here: the subprocess is an opaque, retryable unit of work whose
// output is captured and routed to the logger.
package gitmirror

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/ghvault-cli/internal/logger"
)

// exitEmptyRemote is the git exit code produced by ls-remote against a
// missing or uninitialized remote, such as a wiki that was never created.
const exitEmptyRemote = 128

// Status classifies the outcome of one sync.
type Status string

const (
	// StatusCloned means a fresh clone was created.
	StatusCloned Status = "cloned"

	// StatusUpdated means an existing clone was fetched.
	StatusUpdated Status = "updated"

	// StatusSkippedExisting means the clone already existed and skip-existing
	// was requested; nothing ran.
	StatusSkippedExisting Status = "skipped-existing"

	// StatusSkippedEmpty means the remote is empty or uninitialized. This is
	// a normal outcome, not an error.
	StatusSkippedEmpty Status = "skipped-empty"

	// StatusFailed means the git subprocess exited non-zero.
	StatusFailed Status = "failed"
)

// Result reports one sync outcome. A failed sync carries its diagnostic here
// rather than aborting the run: the orchestrator collects failures and the
// process reports them in the final summary.
type Result struct {
	Name   string
	Status Status
	Err    error
}

// Failed reports whether the sync ended in failure.
func (r Result) Failed() bool {
	return r.Status == StatusFailed
}

// Syncer runs git subprocesses for mirror maintenance.
type Syncer struct {
	gitPath string
	log     logger.Logger
}

// New creates a syncer using the git binary found on PATH.
func New(log logger.Logger) *Syncer {
	return &Syncer{gitPath: "git", log: log}
}

// Sync clones remoteURL into dir, or updates the clone already there.
func (s *Syncer) Sync(ctx context.Context, name, remoteURL, dir string, skipExisting bool) Result {
	exists := cloneExists(dir)

	if exists && skipExisting {
		s.log.Infof("%s: clone exists, skipping", name)
		return Result{Name: name, Status: StatusSkippedExisting}
	}

	// A lightweight probe distinguishes an uninitialized remote from a real
	// failure before any clone directory is created.
	probeExit, probeErr := s.run(ctx, "", "ls-remote", remoteURL)
	if probeExit == exitEmptyRemote {
		s.log.Infof("%s: remote is empty or uninitialized, nothing to back up", name)
		return Result{Name: name, Status: StatusSkippedEmpty}
	}
	if probeErr != nil {
		return s.failure(name, probeErr, "ls-remote", remoteURL)
	}

	if exists {
		s.log.Infof("%s: updating existing clone", name)
		args := []string{"fetch", "--all", "--force", "--tags", "--prune"}
		if _, err := s.run(ctx, dir, args...); err != nil {
			return s.failure(name, err, args...)
		}
		return Result{Name: name, Status: StatusUpdated}
	}

	s.log.Infof("%s: cloning %s", name, remoteURL)
	if _, err := s.run(ctx, "", "clone", remoteURL, dir); err != nil {
		return s.failure(name, err, "clone", remoteURL, dir)
	}
	return Result{Name: name, Status: StatusCloned}
}

// run executes git with the given arguments, routing all subprocess output
// to the logger. It returns the exit code alongside the error so callers can
// recognise specific git exits.
func (s *Syncer) run(ctx context.Context, dir string, args ...string) (int, error) {
	cmd := exec.CommandContext(ctx, s.gitPath, args...)
	if dir != "" {
		cmd.Dir = dir
	}

	output, err := cmd.CombinedOutput()
	for _, line := range splitLines(output) {
		s.log.Infof("git: %s", line)
	}

	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), err
	}
	return -1, err
}

// failure builds a failed result echoing the command that broke.
func (s *Syncer) failure(name string, err error, args ...string) Result {
	diag := fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	s.log.Errorf("%s: %v", name, diag)
	return Result{Name: name, Status: StatusFailed, Err: diag}
}

// cloneExists checks for the git metadata directory inside dir.
func cloneExists(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil && info.IsDir()
}

// splitLines splits captured subprocess output into trimmed non-empty lines.
func splitLines(output []byte) []string {
	var lines []string
	for _, line := range bytes.Split(output, []byte("\n")) {
		trimmed := strings.TrimRight(string(line), "\r")
		if trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return lines
}
