package backup

import (
	"sync"

	"github.com/custodia-labs/ghvault-cli/internal/gitmirror"
	"github.com/custodia-labs/ghvault-cli/internal/logger"
)

// Summary accumulates the outcome of a run. It is safe for concurrent use:
// parallel repository workers record into the same summary.
type Summary struct {
	mu sync.Mutex

	Repositories    int
	Cloned          int
	Updated         int
	Skipped         int
	EntitiesWritten int
	Failures        []gitmirror.Result
}

// recordMirror tallies one mirror sync result.
func (s *Summary) recordMirror(res gitmirror.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch res.Status {
	case gitmirror.StatusCloned:
		s.Cloned++
	case gitmirror.StatusUpdated:
		s.Updated++
	case gitmirror.StatusSkippedExisting, gitmirror.StatusSkippedEmpty:
		s.Skipped++
	case gitmirror.StatusFailed:
		s.Failures = append(s.Failures, res)
	}
}

// addWritten tallies persisted entity documents.
func (s *Summary) addWritten(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.EntitiesWritten += n
}

// setRepositories records the size of the working set.
func (s *Summary) setRepositories(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Repositories = n
}

// Failed reports whether any mirror sync failed. The run still completes,
// but the process exits non-zero.
func (s *Summary) Failed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Failures) > 0
}

// Report prints the run summary, listing any failures with their
// diagnostics.
func (s *Summary) Report(log logger.Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()

	log.Infof("backed up %d repositories: %d cloned, %d updated, %d skipped, %d entity files written",
		s.Repositories, s.Cloned, s.Updated, s.Skipped, s.EntitiesWritten)
	for _, f := range s.Failures {
		log.Errorf("%s: %v", f.Name, f.Err)
	}
}
